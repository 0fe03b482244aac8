package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/Comercial-api/internal/application/dto"
	"github.com/jhoicas/Comercial-api/internal/domain"
	"github.com/jhoicas/Comercial-api/internal/domain/entity"
	"github.com/jhoicas/Comercial-api/internal/domain/notification"
	"github.com/jhoicas/Comercial-api/internal/domain/repository"
	"github.com/jhoicas/Comercial-api/pkg/logger"
)

// ScheduleRequest datos de un recordatorio. Title/Message vacíos usan el texto por defecto del tipo.
type ScheduleRequest struct {
	UserID     string
	EntityType string
	EntityID   string
	Type       string
	WhenAt     time.Time
	Title      string
	Message    string
}

func (r ScheduleRequest) validate() error {
	if r.UserID == "" || r.EntityID == "" || r.Type == "" || r.WhenAt.IsZero() {
		return domain.ErrInvalidInput
	}
	switch r.EntityType {
	case entity.EntityLead, entity.EntityQuote, entity.EntityFollowUp:
		return nil
	default:
		return domain.ErrInvalidInput
	}
}

var defaultTitles = map[string]string{
	entity.NotificationCommentReminder: "Recordatorio de comentario",
	entity.NotificationLostFollowUp:    "Seguimiento de lead perdido",
	entity.NotificationQuoteExpiring:   "Presupuesto por vencer",
	entity.NotificationQuoteCreated:    "Presupuesto creado",
	entity.NotificationQuoteExpired:    "Presupuesto vencido",
	entity.NotificationLeadExpired:     "Lead vencido",
}

// Scheduler programa, cancela y cuenta avisos.
type Scheduler struct {
	txRunner  TxRunner
	notifRepo repository.NotificationRepository
	log       *logger.Logger
	now       func() time.Time
}

// NewScheduler construye el servicio.
func NewScheduler(txRunner TxRunner, notifRepo repository.NotificationRepository, log *logger.Logger) *Scheduler {
	return &Scheduler{
		txRunner:  txRunner,
		notifRepo: notifRepo,
		log:       log.Named("notifications"),
		now:       time.Now,
	}
}

// WithClock reemplaza el reloj (tests).
func (s *Scheduler) WithClock(now func() time.Time) *Scheduler {
	s.now = now
	return s
}

// ScheduleReminder cancela los pendientes de la misma tupla (usuario, entidad, tipo) e inserta
// el nuevo aviso, todo en una transacción.
func (s *Scheduler) ScheduleReminder(ctx context.Context, req ScheduleRequest) (*entity.Notification, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	var created *entity.Notification
	err := s.txRunner.Run(ctx, func(repos repository.TxRepos) error {
		n, err := ScheduleInTx(ctx, repos.Notifications, req, s.now())
		created = n
		return err
	})
	if err != nil {
		s.log.Error().Err(err).Str("op", "schedule_reminder").Str("entity_id", req.EntityID).Str("type", req.Type).Msg("no se pudo programar el recordatorio")
		return nil, fmt.Errorf("%w: programar recordatorio", domain.ErrTransactionFailed)
	}
	return created, nil
}

// ScheduleFromRequest adapta el request HTTP; UserID vacío = el actor.
func (s *Scheduler) ScheduleFromRequest(ctx context.Context, actor entity.Actor, in dto.ScheduleReminderRequest) (*dto.NotificationResponse, error) {
	userID := in.UserID
	if userID == "" {
		userID = actor.UserID
	}
	if userID != actor.UserID && actor.Role == entity.RoleComercial {
		return nil, domain.ErrForbidden
	}
	n, err := s.ScheduleReminder(ctx, ScheduleRequest{
		UserID:     userID,
		EntityType: in.EntityType,
		EntityID:   in.EntityID,
		Type:       in.Type,
		WhenAt:     in.WhenAt,
		Title:      in.Title,
		Message:    in.Message,
	})
	if err != nil {
		return nil, err
	}
	resp := ToResponse(n)
	return &resp, nil
}

// ScheduleInTx variante para llamadores que ya están dentro de una transacción.
func ScheduleInTx(ctx context.Context, repo repository.NotificationRepository, req ScheduleRequest, now time.Time) (*entity.Notification, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	filter := repository.CancelFilter{
		UserID:     req.UserID,
		EntityType: req.EntityType,
		EntityID:   req.EntityID,
		Types:      []string{req.Type},
	}
	if _, err := repo.CancelPending(ctx, filter, now); err != nil {
		return nil, err
	}

	title := req.Title
	if title == "" {
		title = defaultTitles[req.Type]
	}
	n := &entity.Notification{
		ID:          uuid.New().String(),
		UserID:      req.UserID,
		EntityType:  req.EntityType,
		EntityID:    req.EntityID,
		Type:        req.Type,
		Title:       title,
		Message:     req.Message,
		ScheduledAt: req.WhenAt,
		Priority:    notification.Priority(req.Type, now, req.WhenAt),
		CreatedAt:   now,
	}
	if err := repo.Create(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

// CancelPending cancela los avisos futuros no leídos que coinciden con el filtro.
func (s *Scheduler) CancelPending(ctx context.Context, filter repository.CancelFilter) (int64, error) {
	if filter.EntityType == "" || filter.EntityID == "" {
		return 0, domain.ErrInvalidInput
	}
	n, err := s.notifRepo.CancelPending(ctx, filter, s.now())
	if err != nil {
		s.log.Error().Err(err).Str("op", "cancel_pending").Str("entity_id", filter.EntityID).Msg("no se pudieron cancelar notificaciones")
		return 0, err
	}
	return n, nil
}

// CancelFromRequest adapta el request HTTP. Un comercial solo cancela sus propios avisos.
func (s *Scheduler) CancelFromRequest(ctx context.Context, actor entity.Actor, in dto.CancelNotificationsRequest) (*dto.CancelNotificationsResponse, error) {
	userID := in.UserID
	if actor.Role == entity.RoleComercial {
		if userID != "" && userID != actor.UserID {
			return nil, domain.ErrForbidden
		}
		userID = actor.UserID
	}
	n, err := s.CancelPending(ctx, repository.CancelFilter{
		UserID:     userID,
		EntityType: in.EntityType,
		EntityID:   in.EntityID,
		Types:      in.Types,
	})
	if err != nil {
		return nil, err
	}
	return &dto.CancelNotificationsResponse{Cancelled: n}, nil
}

// CountScheduled cuenta seguimientos y recordatorios futuros visibles para el actor.
func (s *Scheduler) CountScheduled(ctx context.Context, actor entity.Actor) (*dto.ScheduledCountResponse, error) {
	res, err := s.notifRepo.ScheduledCounts(ctx, repository.VisibilityFor(actor), s.now())
	if err != nil {
		s.log.Error().Err(err).Str("op", "count_scheduled").Str("user_id", actor.UserID).Msg("no se pudo contar lo programado")
		return nil, err
	}
	return &dto.ScheduledCountResponse{
		FollowUps:        res.FollowUps,
		CommentReminders: res.CommentReminders,
		Total:            res.FollowUps + res.CommentReminders,
	}, nil
}

// ToResponse convierte la entidad al DTO.
func ToResponse(n *entity.Notification) dto.NotificationResponse {
	return dto.NotificationResponse{
		ID:          n.ID,
		UserID:      n.UserID,
		EntityType:  n.EntityType,
		EntityID:    n.EntityID,
		Type:        n.Type,
		Title:       n.Title,
		Message:     n.Message,
		ScheduledAt: n.ScheduledAt,
		Priority:    n.Priority,
	}
}
