package repository

import (
	"context"
	"time"

	"github.com/jhoicas/Comercial-api/internal/domain/entity"
)

// LeadRepository puerto de persistencia de leads.
type LeadRepository interface {
	// GetByID devuelve domain.ErrNotFound si el lead no existe.
	GetByID(ctx context.Context, id string) (*entity.Lead, error)
	// GetForUpdate igual que GetByID pero bloquea la fila (SELECT FOR UPDATE).
	GetForUpdate(ctx context.Context, id string) (*entity.Lead, error)
	// UpdateState cambia el estado y fija modified_at.
	UpdateState(ctx context.Context, id, stateID string, at time.Time) error
	// FindExpirable leads no cliente, activos, fuera de excludedStateIDs y sin actividad desde cutoff.
	FindExpirable(ctx context.Context, excludedStateIDs []string, cutoff time.Time) ([]*entity.Lead, error)
}

// LeadStateRepository catálogo de estados de lead.
type LeadStateRepository interface {
	List(ctx context.Context) ([]entity.LeadState, error)
}

// LeadHistoryRepository auditoría de transiciones (append-only).
type LeadHistoryRepository interface {
	Create(ctx context.Context, change *entity.LeadStateChange) error
}

// CommentRepository comentarios de lead (append-only).
type CommentRepository interface {
	Create(ctx context.Context, comment *entity.Comment) error
}

// FollowUpRepository seguimientos sobre leads perdidos.
type FollowUpRepository interface {
	Create(ctx context.Context, followUp *entity.LostLeadFollowUp) error
}

// UserRepository proyecciones de usuarios necesarias para notificar.
type UserRepository interface {
	// FindRepForPrefix comercial responsable del prefijo; domain.ErrNotFound si no hay.
	FindRepForPrefix(ctx context.Context, prefixID string) (*entity.SalesRep, error)
}
