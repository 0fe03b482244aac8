package expiration

import (
	"context"
	"sync"
	"time"

	"github.com/jhoicas/Comercial-api/internal/domain/entity"
	"github.com/jhoicas/Comercial-api/internal/domain/lead"
	"github.com/jhoicas/Comercial-api/internal/domain/repository"
)

// ExcludedKinds kinds de estado que no vencen.
var ExcludedKinds = []string{
	entity.LeadStateKindFinalPositive,
	entity.LeadStateKindFinalNegative,
	entity.LeadStateKindRecontact,
	entity.LeadStateKindExpired,
}

// ExcludedStateCache memo de los ids de estado excluidos del vencimiento, con TTL.
// Con disabled siempre consulta la base. Un fallo de carga no deja nada cacheado.
type ExcludedStateCache struct {
	repo     repository.LeadStateRepository
	ttl      time.Duration
	disabled bool
	now      func() time.Time

	mu       sync.Mutex
	ids      []string
	loadedAt time.Time
	loaded   bool
}

// NewExcludedStateCache crea el cache.
func NewExcludedStateCache(repo repository.LeadStateRepository, ttl time.Duration, disabled bool) *ExcludedStateCache {
	return &ExcludedStateCache{repo: repo, ttl: ttl, disabled: disabled, now: time.Now}
}

// WithClock reemplaza el reloj (tests).
func (c *ExcludedStateCache) WithClock(now func() time.Time) *ExcludedStateCache {
	c.now = now
	return c
}

// IDs devuelve los ids de estado excluidos.
func (c *ExcludedStateCache) IDs(ctx context.Context) ([]string, error) {
	if c.disabled {
		return c.load(ctx)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loaded && c.now().Sub(c.loadedAt) < c.ttl {
		return append([]string(nil), c.ids...), nil
	}
	ids, err := c.load(ctx)
	if err != nil {
		return nil, err
	}
	c.ids = ids
	c.loadedAt = c.now()
	c.loaded = true
	return append([]string(nil), ids...), nil
}

// Invalidate descarta el valor cacheado.
func (c *ExcludedStateCache) Invalidate() {
	c.mu.Lock()
	c.loaded = false
	c.ids = nil
	c.mu.Unlock()
}

func (c *ExcludedStateCache) load(ctx context.Context) ([]string, error) {
	states, err := c.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return lead.NewStateCatalog(states).IDsByKind(ExcludedKinds...), nil
}
