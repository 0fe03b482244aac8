package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	values map[string]string
	ttls   map[string]time.Duration
	getErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeStore) SetNX(_ context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if _, ok := f.values[key]; ok {
		return false, nil
	}
	f.values[key] = value.(string)
	f.ttls[key] = ttl
	return true, nil
}

func (f *fakeStore) Get(_ context.Context, key string) (string, error) {
	if f.getErr != nil {
		return "", f.getErr
	}
	v, ok := f.values[key]
	if !ok {
		return "", goredis.Nil
	}
	return v, nil
}

func (f *fakeStore) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(f.values, k)
	}
	return nil
}

func TestLock_AcquireRelease(t *testing.T) {
	s := newFakeStore()
	a, err := NewLock(s, SweepLockKey, 0)
	require.NoError(t, err)
	b, err := NewLock(s, SweepLockKey, time.Minute)
	require.NoError(t, err)
	ctx := context.Background()

	ok, err := a.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, defaultLockTTL, s.ttls[SweepLockKey])

	ok, err = b.Acquire(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "otra instancia no puede tomar el lock")

	// b no es dueño: liberar no borra la clave
	require.NoError(t, b.Release(ctx))
	assert.Contains(t, s.values, SweepLockKey)

	require.NoError(t, a.Release(ctx))
	assert.NotContains(t, s.values, SweepLockKey)

	ok, err = b.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLock_ReleaseTrasExpirar(t *testing.T) {
	s := newFakeStore()
	l, err := NewLock(s, SweepLockKey, time.Minute)
	require.NoError(t, err)
	ok, err := l.Acquire(context.Background())
	require.NoError(t, err)
	require.True(t, ok)

	// expiró y otra instancia lo tomó
	s.values[SweepLockKey] = "otro-dueño"
	require.NoError(t, l.Release(context.Background()))
	assert.Equal(t, "otro-dueño", s.values[SweepLockKey])

	delete(s.values, SweepLockKey)
	assert.NoError(t, l.Release(context.Background()))
}

func TestLock_ErrorDeLectura(t *testing.T) {
	s := newFakeStore()
	l, err := NewLock(s, SweepLockKey, time.Minute)
	require.NoError(t, err)
	_, err = l.Acquire(context.Background())
	require.NoError(t, err)

	s.getErr = errors.New("conexión cerrada")
	assert.Error(t, l.Release(context.Background()))
}

func TestNewLock_Validacion(t *testing.T) {
	_, err := NewLock(nil, SweepLockKey, time.Minute)
	assert.Error(t, err)
	_, err = NewLock(newFakeStore(), "", time.Minute)
	assert.Error(t, err)
}
