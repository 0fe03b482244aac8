package quote

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
	"github.com/jhoicas/Comercial-api/internal/domain/pricing"
	"github.com/jhoicas/Comercial-api/internal/domain/repository"
	"github.com/jhoicas/Comercial-api/pkg/logger"
	"github.com/jhoicas/Comercial-api/pkg/validator"
)

// Service casos de uso de presupuestos.
type Service struct {
	txRunner       TxRunner
	leadRepo       repository.LeadRepository
	quoteRepo      repository.QuoteRepository
	quoteStateRepo repository.QuoteStateRepository
	promoRepo      repository.PromotionRepository
	validate       *validator.Validator
	log            *logger.Logger
	now            func() time.Time
}

// NewService construye el servicio.
func NewService(
	txRunner TxRunner,
	leadRepo repository.LeadRepository,
	quoteRepo repository.QuoteRepository,
	quoteStateRepo repository.QuoteStateRepository,
	promoRepo repository.PromotionRepository,
	validate *validator.Validator,
	log *logger.Logger,
) *Service {
	return &Service{
		txRunner:       txRunner,
		leadRepo:       leadRepo,
		quoteRepo:      quoteRepo,
		quoteStateRepo: quoteStateRepo,
		promoRepo:      promoRepo,
		validate:       validate,
		log:            log.Named("quotes"),
		now:            time.Now,
	}
}

// WithClock reemplaza el reloj (tests).
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Calculate vista previa de líneas y totales sin persistir.
func (s *Service) Calculate(ctx context.Context, in dto.CalculateQuoteRequest) (*dto.CalculateQuoteResponse, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	promo, promoID, err := s.promotionFor(ctx, in.QuoteItemsRequest, s.now())
	if err != nil {
		return nil, err
	}
	lines, totals := priceItems(in.QuoteItemsRequest, promo)
	return &dto.CalculateQuoteResponse{
		PromotionID: promoID,
		Lines:       linesToDTO(lines),
		Totals:      totalsToDTO(totals),
	}, nil
}

// Create valida, calcula y persiste el presupuesto en estado Pendiente junto con el aviso
// "presupuesto_creado" para el dueño, en una transacción.
func (s *Service) Create(ctx context.Context, actor entity.Actor, in dto.CreateQuoteRequest) (*dto.QuoteResponse, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	now := s.now()
	validUntil := dateOnly(in.ValidUntil)
	if validUntil.Before(dateOnly(now)) {
		return nil, fmt.Errorf("%w: la validez no puede ser pasada", domain.ErrInvalidInput)
	}
	if _, err := s.visibleLead(ctx, actor, in.LeadID); err != nil {
		return nil, err
	}
	states, err := s.quoteStateRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("cargar estados de presupuesto: %w", err)
	}
	pendingID, ok := states.IDOf(entity.QuoteStatePending)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrStateNotConfigured, entity.QuoteStatePending)
	}
	promo, promoID, err := s.promotionFor(ctx, in.QuoteItemsRequest, now)
	if err != nil {
		return nil, err
	}
	lines, totals := priceItems(in.QuoteItemsRequest, promo)

	q := &entity.Quote{
		ID:          uuid.New().String(),
		LeadID:      in.LeadID,
		OwnerID:     actor.UserID,
		PromotionID: promoID,
		StateID:     pendingID,
		ValidUntil:  validUntil,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	applyTotals(q, totals)
	assignLineIDs(q.ID, lines)

	err = s.txRunner.Run(ctx, func(repos repository.TxRepos) error {
		if err := repos.Quotes.Create(ctx, q, lines); err != nil {
			return err
		}
		_, err := notification.ScheduleInTx(ctx, repos.Notifications, createdNotice(q), now)
		return err
	})
	if err != nil {
		s.log.Error().Err(err).Str("op", "create_quote").Str("lead_id", in.LeadID).Msg("no se pudo crear el presupuesto")
		return nil, fmt.Errorf("%w: crear presupuesto", domain.ErrTransactionFailed)
	}
	return toResponse(q, lines, entity.QuoteStatePending), nil
}

// Update reemplaza líneas y validez y recalcula. Solo presupuestos pendientes.
func (s *Service) Update(ctx context.Context, actor entity.Actor, id string, in dto.UpdateQuoteRequest) (*dto.QuoteResponse, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	now := s.now()
	validUntil := dateOnly(in.ValidUntil)
	if validUntil.Before(dateOnly(now)) {
		return nil, fmt.Errorf("%w: la validez no puede ser pasada", domain.ErrInvalidInput)
	}
	q, states, err := s.editableQuote(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	promo, promoID, err := s.promotionFor(ctx, in.QuoteItemsRequest, now)
	if err != nil {
		return nil, err
	}
	lines, totals := priceItems(in.QuoteItemsRequest, promo)
	q.PromotionID = promoID
	q.ValidUntil = validUntil
	q.UpdatedAt = now
	applyTotals(q, totals)
	assignLineIDs(q.ID, lines)

	err = s.txRunner.Run(ctx, func(repos repository.TxRepos) error {
		if err := repos.Quotes.Update(ctx, q, lines); err != nil {
			return err
		}
		_, err := notification.ScheduleInTx(ctx, repos.Notifications, createdNotice(q), now)
		return err
	})
	if err != nil {
		s.log.Error().Err(err).Str("op", "update_quote").Str("quote_id", id).Msg("no se pudo actualizar el presupuesto")
		return nil, fmt.Errorf("%w: actualizar presupuesto", domain.ErrTransactionFailed)
	}
	return toResponse(q, lines, states.NameOf(q.StateID)), nil
}

// Cancel baja lógica del presupuesto y cancelación de sus avisos pendientes.
func (s *Service) Cancel(ctx context.Context, actor entity.Actor, id string) error {
	q, err := s.quoteRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if _, err := s.visibleLead(ctx, actor, q.LeadID); err != nil {
		return err
	}
	now := s.now()
	err = s.txRunner.Run(ctx, func(repos repository.TxRepos) error {
		if err := repos.Quotes.SoftDelete(ctx, q.ID, now); err != nil {
			return err
		}
		_, err := repos.Notifications.CancelPending(ctx, repository.CancelFilter{EntityType: entity.EntityQuote, EntityID: q.ID}, now)
		return err
	})
	if err != nil {
		s.log.Error().Err(err).Str("op", "cancel_quote").Str("quote_id", id).Msg("no se pudo cancelar el presupuesto")
		return fmt.Errorf("%w: cancelar presupuesto", domain.ErrTransactionFailed)
	}
	return nil
}

// Get devuelve el presupuesto con sus líneas.
func (s *Service) Get(ctx context.Context, actor entity.Actor, id string) (*dto.QuoteResponse, error) {
	q, err := s.quoteRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.visibleLead(ctx, actor, q.LeadID); err != nil {
		return nil, err
	}
	lines, err := s.quoteRepo.Lines(ctx, q.ID)
	if err != nil {
		return nil, fmt.Errorf("líneas del presupuesto: %w", err)
	}
	states, err := s.quoteStateRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("cargar estados de presupuesto: %w", err)
	}
	return toResponse(q, lines, states.NameOf(q.StateID)), nil
}

func (s *Service) editableQuote(ctx context.Context, actor entity.Actor, id string) (*entity.Quote, entity.QuoteStates, error) {
	q, err := s.quoteRepo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if _, err := s.visibleLead(ctx, actor, q.LeadID); err != nil {
		return nil, nil, err
	}
	states, err := s.quoteStateRepo.List(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("cargar estados de presupuesto: %w", err)
	}
	if states.NameOf(q.StateID) != entity.QuoteStatePending {
		return nil, nil, fmt.Errorf("%w: solo se editan presupuestos pendientes", domain.ErrConflict)
	}
	return q, states, nil
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

// createdNotice aviso para el dueño, fechado al fin de la validez.
func createdNotice(q *entity.Quote) notification.ScheduleRequest {
	return notification.ScheduleRequest{
		UserID:     q.OwnerID,
		EntityType: entity.EntityQuote,
		EntityID:   q.ID,
		Type:       entity.NotificationQuoteCreated,
		WhenAt:     q.ValidUntil,
		Message:    fmt.Sprintf("Total %s, válido hasta %s", q.Total.StringFixed(2), q.ValidUntil.Format("2006-01-02")),
	}
}

func applyTotals(q *entity.Quote, t pricing.Totals) {
	q.SubtotalRate = t.SubtotalRate
	q.SubtotalSubscription = t.SubtotalSubscription
	q.SubtotalExtras = t.SubtotalExtras
	q.Total = t.Total
}

func assignLineIDs(quoteID string, lines []entity.QuoteLine) {
	for i := range lines {
		lines[i].ID = uuid.New().String()
		lines[i].QuoteID = quoteID
	}
}

func toResponse(q *entity.Quote, lines []entity.QuoteLine, state string) *dto.QuoteResponse {
	return &dto.QuoteResponse{
		ID:          q.ID,
		LeadID:      q.LeadID,
		OwnerID:     q.OwnerID,
		PromotionID: q.PromotionID,
		State:       state,
		ValidUntil:  q.ValidUntil,
		Lines:       linesToDTO(lines),
		Totals: dto.QuoteTotalsResponse{
			SubtotalRate:         q.SubtotalRate,
			SubtotalSubscription: q.SubtotalSubscription,
			SubtotalExtras:       q.SubtotalExtras,
			Total:                q.Total,
		},
		CreatedAt: q.CreatedAt,
		UpdatedAt: q.UpdatedAt,
	}
}
