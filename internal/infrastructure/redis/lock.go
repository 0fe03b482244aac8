// Package redis bloqueo distribuido de los barridos sobre Redis.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/jhoicas/Comercial-api/internal/application/expiration"
)

const defaultLockTTL = 55 * time.Minute

// SweepLockKey clave del lock compartido por todas las instancias.
const SweepLockKey = "comercial:sweeps:lock"

var _ expiration.Lock = (*Lock)(nil)

// store operaciones de Redis que usa Lock.
type store interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

// Lock SETNX + TTL con dueño aleatorio: solo quien lo tomó lo libera.
type Lock struct {
	client store
	key    string
	ttl    time.Duration
	owner  string
}

// NewLock construye el lock. ttl <= 0 usa 55 minutos.
func NewLock(client store, key string, ttl time.Duration) (*Lock, error) {
	if client == nil {
		return nil, errors.New("redis client required for lock")
	}
	if key == "" {
		return nil, errors.New("lock key is required")
	}
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &Lock{client: client, key: key, ttl: ttl}, nil
}

// Acquire intenta tomar el lock durante el TTL configurado.
func (l *Lock) Acquire(ctx context.Context) (bool, error) {
	owner := uuid.NewString()
	ok, err := l.client.SetNX(ctx, l.key, owner, l.ttl)
	if err != nil {
		return false, fmt.Errorf("setnx: %w", err)
	}
	if ok {
		l.owner = owner
	}
	return ok, nil
}

// Release libera el lock solo si el valor sigue siendo el propio.
func (l *Lock) Release(ctx context.Context) error {
	if l.owner == "" {
		return nil
	}
	value, err := l.client.Get(ctx, l.key)
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			l.owner = ""
			return nil
		}
		return fmt.Errorf("read lock owner: %w", err)
	}
	if value != l.owner {
		l.owner = ""
		return nil
	}
	if err := l.client.Del(ctx, l.key); err != nil {
		return fmt.Errorf("delete lock: %w", err)
	}
	l.owner = ""
	return nil
}

// ClientStore adapta *goredis.Client a la interfaz que usa Lock.
type ClientStore struct {
	Client *goredis.Client
}

func (s ClientStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	return s.Client.SetNX(ctx, key, value, ttl).Result()
}

func (s ClientStore) Get(ctx context.Context, key string) (string, error) {
	return s.Client.Get(ctx, key).Result()
}

func (s ClientStore) Del(ctx context.Context, keys ...string) error {
	return s.Client.Del(ctx, keys...).Err()
}

// NewClient abre el cliente desde una URL redis:// y verifica la conexión.
func NewClient(ctx context.Context, url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := goredis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}
