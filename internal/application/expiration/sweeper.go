package expiration

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/Comercial-api/internal/application/notification"
	"github.com/jhoicas/Comercial-api/internal/domain"
	"github.com/jhoicas/Comercial-api/internal/domain/entity"
	"github.com/jhoicas/Comercial-api/internal/domain/lead"
	"github.com/jhoicas/Comercial-api/internal/domain/repository"
	"github.com/jhoicas/Comercial-api/pkg/logger"
)

// ReasonInactivity motivo registrado en la auditoría del vencimiento automático.
const ReasonInactivity = "Vencimiento automático por inactividad"

// SweepResult conteos agregados de un barrido.
type SweepResult struct {
	Processed            int
	NotificationsCreated int
	Failed               int
}

// Sweeper vence leads inactivos y presupuestos fuera de validez, un item por transacción.
type Sweeper struct {
	txRunner       TxRunner
	leadRepo       repository.LeadRepository
	stateRepo      repository.LeadStateRepository
	quoteRepo      repository.QuoteRepository
	quoteStateRepo repository.QuoteStateRepository
	excluded       *ExcludedStateCache
	expirationDays int
	log            *logger.Logger
	now            func() time.Time
}

// SweeperParams dependencias del Sweeper.
type SweeperParams struct {
	TxRunner       TxRunner
	Leads          repository.LeadRepository
	LeadStates     repository.LeadStateRepository
	Quotes         repository.QuoteRepository
	QuoteStates    repository.QuoteStateRepository
	Excluded       *ExcludedStateCache
	ExpirationDays int
	Logger         *logger.Logger
}

// NewSweeper construye el servicio.
func NewSweeper(p SweeperParams) (*Sweeper, error) {
	if p.TxRunner == nil || p.Leads == nil || p.LeadStates == nil || p.Quotes == nil || p.QuoteStates == nil {
		return nil, errors.New("sweeper: faltan repositorios")
	}
	if p.ExpirationDays <= 0 {
		return nil, errors.New("sweeper: días de vencimiento deben ser > 0")
	}
	log := p.Logger
	if log == nil {
		log = logger.Nop()
	}
	excluded := p.Excluded
	if excluded == nil {
		excluded = NewExcludedStateCache(p.LeadStates, time.Hour, false)
	}
	return &Sweeper{
		txRunner:       p.TxRunner,
		leadRepo:       p.Leads,
		stateRepo:      p.LeadStates,
		quoteRepo:      p.Quotes,
		quoteStateRepo: p.QuoteStates,
		excluded:       excluded,
		expirationDays: p.ExpirationDays,
		log:            log.Named("sweeper"),
		now:            time.Now,
	}, nil
}

// WithClock reemplaza el reloj (tests).
func (s *Sweeper) WithClock(now func() time.Time) *Sweeper {
	s.now = now
	return s
}

// ExpireLeads fuerza a "Vencido" los leads sin actividad en expirationDays y avisa al comercial
// del prefijo. Un fallo en un lead se registra y el barrido continúa.
func (s *Sweeper) ExpireLeads(ctx context.Context) (SweepResult, error) {
	var res SweepResult
	excluded, err := s.excluded.IDs(ctx)
	if err != nil {
		return res, fmt.Errorf("estados excluidos: %w", err)
	}
	states, err := s.stateRepo.List(ctx)
	if err != nil {
		return res, fmt.Errorf("cargar estados de lead: %w", err)
	}
	expired, err := lead.NewStateCatalog(states).ByName(entity.LeadStateExpired)
	if err != nil {
		return res, err
	}

	now := s.now()
	cutoff := now.AddDate(0, 0, -s.expirationDays)
	candidates, err := s.leadRepo.FindExpirable(ctx, excluded, cutoff)
	if err != nil {
		return res, fmt.Errorf("buscar leads vencibles: %w", err)
	}

	skip := make(map[string]bool, len(excluded))
	for _, id := range excluded {
		skip[id] = true
	}
	eligible := func(l *entity.Lead) bool {
		return !l.IsClient && l.IsActive && !skip[l.StateID] && !l.LastActivity().After(cutoff)
	}

	for _, l := range candidates {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		notified, err := s.expireLead(ctx, l, expired.ID, eligible, now)
		if errors.Is(err, errNoLongerEligible) {
			continue
		}
		if err != nil {
			res.Failed++
			s.log.Error().Err(err).Str("op", "expire_lead").Str("lead_id", l.ID).Msg("no se pudo vencer el lead")
			continue
		}
		res.Processed++
		if notified {
			res.NotificationsCreated++
		}
	}
	return res, nil
}

var errNoLongerEligible = errors.New("el lead ya no cumple las condiciones de vencimiento")

func (s *Sweeper) expireLead(ctx context.Context, l *entity.Lead, expiredID string, eligible func(*entity.Lead) bool, now time.Time) (bool, error) {
	notified := false
	err := s.txRunner.Run(ctx, func(repos repository.TxRepos) error {
		notified = false
		current, err := repos.Leads.GetForUpdate(ctx, l.ID)
		if err != nil {
			return err
		}
		if !eligible(current) {
			return errNoLongerEligible
		}
		if err := repos.LeadHistory.Create(ctx, &entity.LeadStateChange{
			ID:              uuid.New().String(),
			LeadID:          current.ID,
			PreviousStateID: current.StateID,
			NewStateID:      expiredID,
			Reason:          ReasonInactivity,
			CreatedAt:       now,
		}); err != nil {
			return err
		}
		if err := repos.Leads.UpdateState(ctx, current.ID, expiredID, now); err != nil {
			return err
		}
		rep, err := repos.Users.FindRepForPrefix(ctx, current.PrefixID)
		if errors.Is(err, domain.ErrNotFound) {
			s.log.Warn().Str("op", "expire_lead").Str("lead_id", current.ID).Str("prefix_id", current.PrefixID).Msg("prefijo sin comercial asignado")
			return nil
		}
		if err != nil {
			return err
		}
		_, err = notification.ScheduleInTx(ctx, repos.Notifications, notification.ScheduleRequest{
			UserID:     rep.UserID,
			EntityType: entity.EntityLead,
			EntityID:   current.ID,
			Type:       entity.NotificationLeadExpired,
			WhenAt:     now,
			Message:    fmt.Sprintf("%s lleva %d días sin actividad", current.Name, s.expirationDays),
		}, now)
		if err != nil {
			return err
		}
		notified = true
		return nil
	})
	return notified, err
}

// ExpireQuotes avisa al dueño de los presupuestos que vencen mañana y fuerza a "Vencido"
// los que ya pasaron su validez.
func (s *Sweeper) ExpireQuotes(ctx context.Context) (SweepResult, error) {
	var res SweepResult
	states, err := s.quoteStateRepo.List(ctx)
	if err != nil {
		return res, fmt.Errorf("cargar estados de presupuesto: %w", err)
	}
	expiredID, ok := states.IDOf(entity.QuoteStateExpired)
	if !ok {
		return res, fmt.Errorf("%w: %s", domain.ErrStateNotConfigured, entity.QuoteStateExpired)
	}
	var closed []string
	for _, name := range []string{entity.QuoteStateAccepted, entity.QuoteStateRejected, entity.QuoteStateExpired} {
		if id, ok := states.IDOf(name); ok {
			closed = append(closed, id)
		}
	}

	now := s.now()
	today := dateOnly(now)
	tomorrow := today.AddDate(0, 0, 1)

	expiring, err := s.quoteRepo.FindValidUntilBetween(ctx, tomorrow, tomorrow.AddDate(0, 0, 1), closed)
	if err != nil {
		return res, fmt.Errorf("buscar presupuestos por vencer: %w", err)
	}
	for _, q := range expiring {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		err := s.txRunner.Run(ctx, func(repos repository.TxRepos) error {
			_, err := notification.ScheduleInTx(ctx, repos.Notifications, notification.ScheduleRequest{
				UserID:     q.OwnerID,
				EntityType: entity.EntityQuote,
				EntityID:   q.ID,
				Type:       entity.NotificationQuoteExpiring,
				WhenAt:     q.ValidUntil,
				Message:    fmt.Sprintf("El presupuesto vence el %s", q.ValidUntil.Format("2006-01-02")),
			}, now)
			return err
		})
		if err != nil {
			res.Failed++
			s.log.Error().Err(err).Str("op", "quote_expiring").Str("quote_id", q.ID).Msg("no se pudo avisar el vencimiento")
			continue
		}
		res.Processed++
		res.NotificationsCreated++
	}

	past, err := s.quoteRepo.FindExpired(ctx, today, closed)
	if err != nil {
		return res, fmt.Errorf("buscar presupuestos vencidos: %w", err)
	}
	for _, q := range past {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		err := s.txRunner.Run(ctx, func(repos repository.TxRepos) error {
			if err := repos.Quotes.UpdateState(ctx, q.ID, expiredID, now); err != nil {
				return err
			}
			filter := repository.CancelFilter{
				EntityType: entity.EntityQuote,
				EntityID:   q.ID,
				Types:      []string{entity.NotificationQuoteExpiring, entity.NotificationQuoteCreated},
			}
			if _, err := repos.Notifications.CancelPending(ctx, filter, now); err != nil {
				return err
			}
			_, err := notification.ScheduleInTx(ctx, repos.Notifications, notification.ScheduleRequest{
				UserID:     q.OwnerID,
				EntityType: entity.EntityQuote,
				EntityID:   q.ID,
				Type:       entity.NotificationQuoteExpired,
				WhenAt:     now,
				Message:    fmt.Sprintf("El presupuesto venció el %s", q.ValidUntil.Format("2006-01-02")),
			}, now)
			return err
		})
		if err != nil {
			res.Failed++
			s.log.Error().Err(err).Str("op", "expire_quote").Str("quote_id", q.ID).Msg("no se pudo vencer el presupuesto")
			continue
		}
		res.Processed++
		res.NotificationsCreated++
	}
	return res, nil
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
