package draft

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/Comercial-api/internal/application/dto"
	"github.com/jhoicas/Comercial-api/internal/domain"
	"github.com/jhoicas/Comercial-api/internal/domain/entity"
	"github.com/jhoicas/Comercial-api/internal/domain/repository"
	"github.com/jhoicas/Comercial-api/pkg/logger"
	"github.com/jhoicas/Comercial-api/pkg/validator"
)

// Pasos del asistente.
const (
	StepLead   = "lead"
	StepItems  = "items"
	StepReview = "review"
)

// Service borradores de presupuesto identificados por token, con vencimiento.
type Service struct {
	drafts   repository.DraftRepository
	leads    repository.LeadRepository
	quotes   QuoteCreator
	ttl      time.Duration
	validate *validator.Validator
	log      *logger.Logger
	now      func() time.Time
}

// NewService construye el servicio. ttl es la vida de un borrador desde su último guardado.
func NewService(
	drafts repository.DraftRepository,
	leads repository.LeadRepository,
	quotes QuoteCreator,
	ttl time.Duration,
	validate *validator.Validator,
	log *logger.Logger,
) *Service {
	return &Service{
		drafts:   drafts,
		leads:    leads,
		quotes:   quotes,
		ttl:      ttl,
		validate: validate,
		log:      log.Named("drafts"),
		now:      time.Now,
	}
}

// WithClock reemplaza el reloj (tests).
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Start abre un borrador para el lead.
func (s *Service) Start(ctx context.Context, actor entity.Actor, in dto.StartDraftRequest) (*dto.DraftResponse, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	l, err := s.leads.GetByID(ctx, in.LeadID)
	if err != nil {
		return nil, err
	}
	if !actor.CanSee(l.PrefixID) {
		return nil, domain.ErrForbidden
	}
	payload, err := json.Marshal(map[string]string{"lead_id": l.ID})
	if err != nil {
		return nil, err
	}
	now := s.now()
	d := &entity.QuoteDraft{
		Token:     uuid.New().String(),
		ActorID:   actor.UserID,
		LeadID:    l.ID,
		Step:      StepLead,
		Payload:   payload,
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.drafts.Create(ctx, d); err != nil {
		return nil, fmt.Errorf("crear borrador: %w", err)
	}
	return toResponse(d), nil
}

// Save fusiona el payload parcial (por clave de primer nivel) y avanza el paso.
// lead_id no se puede cambiar una vez abierto el borrador.
func (s *Service) Save(ctx context.Context, actor entity.Actor, token string, in dto.SaveDraftRequest) (*dto.DraftResponse, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	d, err := s.own(ctx, actor, token)
	if err != nil {
		return nil, err
	}
	merged, err := mergePayload(d.Payload, in.Payload, d.LeadID)
	if err != nil {
		return nil, fmt.Errorf("%w: payload no es un objeto JSON", domain.ErrInvalidInput)
	}
	now := s.now()
	d.Payload = merged
	d.Step = in.Step
	d.UpdatedAt = now
	d.ExpiresAt = now.Add(s.ttl)
	if err := s.drafts.Update(ctx, d); err != nil {
		return nil, fmt.Errorf("guardar borrador: %w", err)
	}
	return toResponse(d), nil
}

// Get devuelve el borrador del actor. Vencido o ajeno = domain.ErrNotFound.
func (s *Service) Get(ctx context.Context, actor entity.Actor, token string) (*dto.DraftResponse, error) {
	d, err := s.own(ctx, actor, token)
	if err != nil {
		return nil, err
	}
	return toResponse(d), nil
}

// Submit crea el presupuesto con el contenido del borrador y lo elimina.
func (s *Service) Submit(ctx context.Context, actor entity.Actor, token string) (*dto.QuoteResponse, error) {
	d, err := s.own(ctx, actor, token)
	if err != nil {
		return nil, err
	}
	var req dto.CreateQuoteRequest
	if err := json.Unmarshal(d.Payload, &req); err != nil {
		return nil, fmt.Errorf("%w: borrador ilegible", domain.ErrInvalidInput)
	}
	req.LeadID = d.LeadID

	q, err := s.quotes.Create(ctx, actor, req)
	if err != nil {
		return nil, err
	}
	if err := s.drafts.Delete(ctx, d.Token); err != nil {
		// el presupuesto ya existe; el borrador vencerá solo
		s.log.Warn().Err(err).Str("op", "submit_draft").Str("quote_id", q.ID).Msg("no se pudo borrar el borrador")
	}
	return q, nil
}

// PurgeExpired elimina los borradores vencidos.
func (s *Service) PurgeExpired(ctx context.Context) (int64, error) {
	n, err := s.drafts.DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("purgar borradores: %w", err)
	}
	return n, nil
}

func (s *Service) own(ctx context.Context, actor entity.Actor, token string) (*entity.QuoteDraft, error) {
	if token == "" {
		return nil, domain.ErrNotFound
	}
	d, err := s.drafts.Get(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("obtener borrador: %w", err)
	}
	if d.ActorID != actor.UserID || !d.ExpiresAt.After(s.now()) {
		return nil, domain.ErrNotFound
	}
	return d, nil
}

func mergePayload(current, patch json.RawMessage, leadID string) ([]byte, error) {
	base := map[string]json.RawMessage{}
	if len(current) > 0 {
		if err := json.Unmarshal(current, &base); err != nil {
			return nil, err
		}
	}
	if len(patch) > 0 && string(patch) != "null" {
		var upd map[string]json.RawMessage
		if err := json.Unmarshal(patch, &upd); err != nil {
			return nil, err
		}
		for k, v := range upd {
			base[k] = v
		}
	}
	lead, err := json.Marshal(leadID)
	if err != nil {
		return nil, err
	}
	base["lead_id"] = lead
	return json.Marshal(base)
}

func toResponse(d *entity.QuoteDraft) *dto.DraftResponse {
	return &dto.DraftResponse{
		Token:     d.Token,
		LeadID:    d.LeadID,
		Step:      d.Step,
		Payload:   json.RawMessage(d.Payload),
		ExpiresAt: d.ExpiresAt,
	}
}
