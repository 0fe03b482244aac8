package lead

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/Comercial-api/internal/application/dto"
	"github.com/jhoicas/Comercial-api/internal/application/notification"
	"github.com/jhoicas/Comercial-api/internal/domain"
	"github.com/jhoicas/Comercial-api/internal/domain/entity"
	"github.com/jhoicas/Comercial-api/internal/domain/lead"
	"github.com/jhoicas/Comercial-api/internal/domain/repository"
	"github.com/jhoicas/Comercial-api/pkg/logger"
	"github.com/jhoicas/Comercial-api/pkg/validator"
)

// Service máquina de estados de leads y operaciones asociadas (comentarios, seguimientos).
type Service struct {
	txRunner  TxRunner
	leadRepo  repository.LeadRepository
	stateRepo repository.LeadStateRepository
	table     *lead.TransitionTable
	validate  *validator.Validator
	log       *logger.Logger
	now       func() time.Time
}

// NewService construye el servicio con la tabla de transiciones por defecto.
func NewService(
	txRunner TxRunner,
	leadRepo repository.LeadRepository,
	stateRepo repository.LeadStateRepository,
	validate *validator.Validator,
	log *logger.Logger,
) *Service {
	return &Service{
		txRunner:  txRunner,
		leadRepo:  leadRepo,
		stateRepo: stateRepo,
		table:     lead.NewTransitionTable(lead.DefaultTransitions),
		validate:  validate,
		log:       log.Named("leads"),
		now:       time.Now,
	}
}

// WithClock reemplaza el reloj (tests).
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// WithTransitions reemplaza la tabla comentario → estado.
func (s *Service) WithTransitions(rules []lead.Transition) *Service {
	s.table = lead.NewTransitionTable(rules)
	return s
}

func (s *Service) catalog(ctx context.Context) (*lead.StateCatalog, error) {
	states, err := s.stateRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("cargar estados de lead: %w", err)
	}
	return lead.NewStateCatalog(states), nil
}

// ApplyTransition aplica la transición asociada al tipo de comentario.
// Devuelve false sin error si el tipo no tiene transición o el lead ya está en el destino.
// Estado, auditoría y (en rechazo) cancelación de avisos se escriben en una sola transacción.
func (s *Service) ApplyTransition(ctx context.Context, req dto.ApplyTransitionRequest) (bool, error) {
	if err := s.validate.Struct(req); err != nil {
		return false, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	tr, ok := s.table.Lookup(req.CommentType)
	if !ok {
		return false, nil
	}
	cat, err := s.catalog(ctx)
	if err != nil {
		return false, err
	}
	target, err := cat.ByName(tr.TargetState)
	if err != nil {
		return false, err
	}
	l, err := s.leadRepo.GetByID(ctx, req.LeadID)
	if err != nil {
		return false, err
	}
	if l.StateID == target.ID {
		return false, nil
	}

	changed := false
	now := s.now()
	err = s.txRunner.Run(ctx, func(repos repository.TxRepos) error {
		current, err := repos.Leads.GetForUpdate(ctx, req.LeadID)
		if err != nil {
			return err
		}
		if current.StateID == target.ID {
			return nil
		}
		if err := repos.Leads.UpdateState(ctx, current.ID, target.ID, now); err != nil {
			return err
		}
		if err := repos.LeadHistory.Create(ctx, &entity.LeadStateChange{
			ID:              uuid.New().String(),
			LeadID:          current.ID,
			PreviousStateID: current.StateID,
			NewStateID:      target.ID,
			Reason:          "Comentario: " + req.CommentType,
			ActorID:         req.ActorID,
			CreatedAt:       now,
		}); err != nil {
			return err
		}
		if tr.Rejection {
			filter := repository.CancelFilter{EntityType: entity.EntityLead, EntityID: current.ID}
			if _, err := repos.Notifications.CancelPending(ctx, filter, now); err != nil {
				return err
			}
		}
		changed = true
		return nil
	})
	if err != nil {
		s.log.Error().Err(err).Str("op", "apply_transition").Str("lead_id", req.LeadID).Msg("transición de estado revertida")
		return false, fmt.Errorf("%w: transición de estado", domain.ErrTransactionFailed)
	}
	return changed, nil
}

// RegisterComment agrega el comentario (y su recordatorio, si trae ReminderAt) y aplica la
// transición de estado correspondiente. El comentario se conserva aunque la transición falle.
func (s *Service) RegisterComment(ctx context.Context, actor entity.Actor, leadID string, in dto.CreateCommentRequest) (*dto.CommentResponse, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	now := s.now()
	if in.ReminderAt != nil && !in.ReminderAt.After(now) {
		return nil, fmt.Errorf("%w: el recordatorio debe ser futuro", domain.ErrInvalidInput)
	}
	l, err := s.visibleLead(ctx, actor, leadID)
	if err != nil {
		return nil, err
	}

	c := &entity.Comment{
		ID:          uuid.New().String(),
		LeadID:      l.ID,
		CommentType: in.CommentType,
		Text:        in.Text,
		ActorID:     actor.UserID,
		ReminderAt:  in.ReminderAt,
		CreatedAt:   now,
	}
	err = s.txRunner.Run(ctx, func(repos repository.TxRepos) error {
		if err := repos.Comments.Create(ctx, c); err != nil {
			return err
		}
		if c.ReminderAt == nil {
			return nil
		}
		_, err := notification.ScheduleInTx(ctx, repos.Notifications, notification.ScheduleRequest{
			UserID:     actor.UserID,
			EntityType: entity.EntityLead,
			EntityID:   l.ID,
			Type:       entity.NotificationCommentReminder,
			WhenAt:     *c.ReminderAt,
			Message:    in.Text,
		}, now)
		return err
	})
	if err != nil {
		s.log.Error().Err(err).Str("op", "register_comment").Str("lead_id", l.ID).Msg("no se pudo registrar el comentario")
		return nil, fmt.Errorf("%w: registrar comentario", domain.ErrTransactionFailed)
	}

	resp := &dto.CommentResponse{
		ID:          c.ID,
		LeadID:      c.LeadID,
		CommentType: c.CommentType,
		Text:        c.Text,
		ReminderAt:  c.ReminderAt,
		CreatedAt:   c.CreatedAt,
	}
	changed, err := s.ApplyTransition(ctx, dto.ApplyTransitionRequest{LeadID: l.ID, CommentType: in.CommentType, ActorID: actor.UserID})
	if err != nil {
		return resp, err
	}
	if changed {
		tr, _ := s.table.Lookup(in.CommentType)
		resp.Transitioned = true
		resp.NewState = tr.TargetState
	}
	return resp, nil
}

// ScheduleLostLeadFollowUp programa un seguimiento sobre un lead en estado final negativo.
func (s *Service) ScheduleLostLeadFollowUp(ctx context.Context, actor entity.Actor, leadID string, in dto.CreateFollowUpRequest) (*dto.FollowUpResponse, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	now := s.now()
	if !in.ScheduledAt.After(now) {
		return nil, fmt.Errorf("%w: el seguimiento debe ser futuro", domain.ErrInvalidInput)
	}
	l, err := s.visibleLead(ctx, actor, leadID)
	if err != nil {
		return nil, err
	}
	cat, err := s.catalog(ctx)
	if err != nil {
		return nil, err
	}
	state, ok := cat.ByID(l.StateID)
	if !ok || state.Kind != entity.LeadStateKindFinalNegative {
		return nil, fmt.Errorf("%w: el lead no está perdido", domain.ErrConflict)
	}

	f := &entity.LostLeadFollowUp{
		ID:          uuid.New().String(),
		LeadID:      l.ID,
		UserID:      actor.UserID,
		ScheduledAt: in.ScheduledAt,
		CreatedAt:   now,
	}
	err = s.txRunner.Run(ctx, func(repos repository.TxRepos) error {
		if err := repos.FollowUps.Create(ctx, f); err != nil {
			return err
		}
		_, err := notification.ScheduleInTx(ctx, repos.Notifications, notification.ScheduleRequest{
			UserID:     actor.UserID,
			EntityType: entity.EntityFollowUp,
			EntityID:   f.ID,
			Type:       entity.NotificationLostFollowUp,
			WhenAt:     f.ScheduledAt,
			Message:    l.Name,
		}, now)
		return err
	})
	if err != nil {
		s.log.Error().Err(err).Str("op", "schedule_followup").Str("lead_id", l.ID).Msg("no se pudo programar el seguimiento")
		return nil, fmt.Errorf("%w: programar seguimiento", domain.ErrTransactionFailed)
	}
	return &dto.FollowUpResponse{ID: f.ID, LeadID: f.LeadID, UserID: f.UserID, ScheduledAt: f.ScheduledAt}, nil
}

func (s *Service) visibleLead(ctx context.Context, actor entity.Actor, leadID string) (*entity.Lead, error) {
	l, err := s.leadRepo.GetByID(ctx, leadID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("obtener lead: %w", err)
	}
	if !actor.CanSee(l.PrefixID) {
		return nil, domain.ErrForbidden
	}
	return l, nil
}
