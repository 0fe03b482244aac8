// Package apptest provee repositorios en memoria y un TxRunner con rollback
// para probar los casos de uso sin base de datos.
package apptest

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/jhoicas/Comercial-api/internal/domain"
	"github.com/jhoicas/Comercial-api/internal/domain/entity"
	"github.com/jhoicas/Comercial-api/internal/domain/repository"
)

// ErrInjected error por defecto para fallos simulados.
var ErrInjected = errors.New("fallo simulado")

// Store estado en memoria compartido por todos los repositorios fake.
type Store struct {
	mu sync.Mutex

	Leads         map[string]*entity.Lead
	LeadStates    []entity.LeadState
	History       []*entity.LeadStateChange
	Comments      []*entity.Comment
	FollowUps     []*entity.LostLeadFollowUp
	Notifications []*entity.Notification
	Quotes        map[string]*entity.Quote
	QuoteLines    map[string][]entity.QuoteLine
	QuoteStates   []entity.QuoteState
	Promotions    map[string]*entity.Promotion
	Drafts        map[string]*entity.QuoteDraft
	Reps          map[string]*entity.SalesRep // por prefijo

	// Failures clave "op" o "op:id" → error devuelto por esa operación.
	Failures map[string]error
	// StateListCalls cuántas veces se leyó el catálogo de estados de lead.
	StateListCalls int
}

// NewStore crea un store vacío.
func NewStore() *Store {
	return &Store{
		Leads:      map[string]*entity.Lead{},
		Quotes:     map[string]*entity.Quote{},
		QuoteLines: map[string][]entity.QuoteLine{},
		Promotions: map[string]*entity.Promotion{},
		Drafts:     map[string]*entity.QuoteDraft{},
		Reps:       map[string]*entity.SalesRep{},
		Failures:   map[string]error{},
	}
}

// Fail registra un fallo para op (y opcionalmente un id concreto).
func (s *Store) Fail(op string, id string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		err = ErrInjected
	}
	key := op
	if id != "" {
		key = op + ":" + id
	}
	s.Failures[key] = err
}

func (s *Store) failure(op, id string) error {
	if err, ok := s.Failures[op+":"+id]; ok {
		return err
	}
	return s.Failures[op]
}

// Repos devuelve los repositorios transaccionales sobre el store.
func (s *Store) Repos() repository.TxRepos {
	return repository.TxRepos{
		Leads:         LeadRepo{s},
		LeadHistory:   HistoryRepo{s},
		Comments:      CommentRepo{s},
		FollowUps:     FollowUpRepo{s},
		Notifications: NotificationRepo{s},
		Quotes:        QuoteRepo{s},
		Drafts:        DraftRepo{s},
		Users:         UserRepo{s},
	}
}

// PendingNotifications notificaciones activas en now para (user, entityID, type).
func (s *Store) PendingNotifications(userID, entityID, typ string, now time.Time) []*entity.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*entity.Notification
	for _, n := range s.Notifications {
		if n.UserID == userID && n.EntityID == entityID && n.Type == typ && n.IsPending(now) {
			out = append(out, n)
		}
	}
	return out
}

// NotificationsOfType todas las notificaciones (incluidas las canceladas) de un tipo.
func (s *Store) NotificationsOfType(typ string) []*entity.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*entity.Notification
	for _, n := range s.Notifications {
		if n.Type == typ {
			out = append(out, n)
		}
	}
	return out
}

// ──────────────────────────────────────────────────────────────────────────────
// Snapshot / rollback
// ──────────────────────────────────────────────────────────────────────────────

type snapshot struct {
	leads      map[string]entity.Lead
	history    []entity.LeadStateChange
	comments   []entity.Comment
	followUps  []entity.LostLeadFollowUp
	notifs     []entity.Notification
	quotes     map[string]entity.Quote
	quoteLines map[string][]entity.QuoteLine
	drafts     map[string]entity.QuoteDraft
}

func (s *Store) snapshot() snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := snapshot{
		leads:      make(map[string]entity.Lead, len(s.Leads)),
		quotes:     make(map[string]entity.Quote, len(s.Quotes)),
		quoteLines: make(map[string][]entity.QuoteLine, len(s.QuoteLines)),
		drafts:     make(map[string]entity.QuoteDraft, len(s.Drafts)),
	}
	for k, v := range s.Leads {
		snap.leads[k] = *v
	}
	for _, v := range s.History {
		snap.history = append(snap.history, *v)
	}
	for _, v := range s.Comments {
		snap.comments = append(snap.comments, *v)
	}
	for _, v := range s.FollowUps {
		snap.followUps = append(snap.followUps, *v)
	}
	for _, v := range s.Notifications {
		snap.notifs = append(snap.notifs, *v)
	}
	for k, v := range s.Quotes {
		snap.quotes[k] = *v
	}
	for k, v := range s.QuoteLines {
		snap.quoteLines[k] = append([]entity.QuoteLine(nil), v...)
	}
	for k, v := range s.Drafts {
		snap.drafts[k] = *v
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Leads = make(map[string]*entity.Lead, len(snap.leads))
	for k, v := range snap.leads {
		v := v
		s.Leads[k] = &v
	}
	s.History = nil
	for i := range snap.history {
		s.History = append(s.History, &snap.history[i])
	}
	s.Comments = nil
	for i := range snap.comments {
		s.Comments = append(s.Comments, &snap.comments[i])
	}
	s.FollowUps = nil
	for i := range snap.followUps {
		s.FollowUps = append(s.FollowUps, &snap.followUps[i])
	}
	s.Notifications = nil
	for i := range snap.notifs {
		s.Notifications = append(s.Notifications, &snap.notifs[i])
	}
	s.Quotes = make(map[string]*entity.Quote, len(snap.quotes))
	for k, v := range snap.quotes {
		v := v
		s.Quotes[k] = &v
	}
	s.QuoteLines = snap.quoteLines
	s.Drafts = make(map[string]*entity.QuoteDraft, len(snap.drafts))
	for k, v := range snap.drafts {
		v := v
		s.Drafts[k] = &v
	}
}

// TxRunner fake: ejecuta fn sobre el store y restaura el snapshot si fn falla.
type TxRunner struct {
	Store *Store
	Calls int
	// FailCommit simula un fallo al confirmar.
	FailCommit error
}

// Run implementa los puertos TxRunner de los casos de uso.
func (r *TxRunner) Run(_ context.Context, fn func(repos repository.TxRepos) error) error {
	r.Calls++
	snap := r.Store.snapshot()
	if err := fn(r.Store.Repos()); err != nil {
		r.Store.restore(snap)
		return err
	}
	if r.FailCommit != nil {
		r.Store.restore(snap)
		return r.FailCommit
	}
	return nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Leads
// ──────────────────────────────────────────────────────────────────────────────

type LeadRepo struct{ s *Store }

func (r LeadRepo) GetByID(_ context.Context, id string) (*entity.Lead, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("leads.get", id); err != nil {
		return nil, err
	}
	l, ok := r.s.Leads[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *l
	return &cp, nil
}

func (r LeadRepo) GetForUpdate(ctx context.Context, id string) (*entity.Lead, error) {
	return r.GetByID(ctx, id)
}

func (r LeadRepo) UpdateState(_ context.Context, id, stateID string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("leads.update_state", id); err != nil {
		return err
	}
	l, ok := r.s.Leads[id]
	if !ok {
		return domain.ErrNotFound
	}
	l.StateID = stateID
	t := at
	l.ModifiedAt = &t
	return nil
}

func (r LeadRepo) FindExpirable(_ context.Context, excluded []string, cutoff time.Time) ([]*entity.Lead, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("leads.find_expirable", ""); err != nil {
		return nil, err
	}
	skip := toSet(excluded)
	var out []*entity.Lead
	for _, l := range r.s.Leads {
		if l.IsClient || !l.IsActive || skip[l.StateID] {
			continue
		}
		if l.LastActivity().After(cutoff) {
			continue
		}
		cp := *l
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// LeadStateRepo catálogo en memoria.
type LeadStateRepo struct{ S *Store }

func (r LeadStateRepo) List(_ context.Context) ([]entity.LeadState, error) {
	r.S.mu.Lock()
	defer r.S.mu.Unlock()
	r.S.StateListCalls++
	if err := r.S.failure("lead_states.list", ""); err != nil {
		return nil, err
	}
	return append([]entity.LeadState(nil), r.S.LeadStates...), nil
}

type HistoryRepo struct{ s *Store }

func (r HistoryRepo) Create(_ context.Context, c *entity.LeadStateChange) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("history.create", c.LeadID); err != nil {
		return err
	}
	cp := *c
	r.s.History = append(r.s.History, &cp)
	return nil
}

type CommentRepo struct{ s *Store }

func (r CommentRepo) Create(_ context.Context, c *entity.Comment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("comments.create", c.LeadID); err != nil {
		return err
	}
	cp := *c
	r.s.Comments = append(r.s.Comments, &cp)
	return nil
}

type FollowUpRepo struct{ s *Store }

func (r FollowUpRepo) Create(_ context.Context, f *entity.LostLeadFollowUp) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("followups.create", f.LeadID); err != nil {
		return err
	}
	cp := *f
	r.s.FollowUps = append(r.s.FollowUps, &cp)
	return nil
}

type UserRepo struct{ s *Store }

func (r UserRepo) FindRepForPrefix(_ context.Context, prefixID string) (*entity.SalesRep, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("users.find_rep", prefixID); err != nil {
		return nil, err
	}
	rep, ok := r.s.Reps[prefixID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *rep
	return &cp, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Notificaciones
// ──────────────────────────────────────────────────────────────────────────────

type NotificationRepo struct{ s *Store }

// NewNotificationRepo repositorio fuera de transacción.
func NewNotificationRepo(s *Store) NotificationRepo { return NotificationRepo{s} }

func (r NotificationRepo) Create(_ context.Context, n *entity.Notification) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("notifications.create", n.EntityID); err != nil {
		return err
	}
	cp := *n
	r.s.Notifications = append(r.s.Notifications, &cp)
	return nil
}

func (r NotificationRepo) CancelPending(_ context.Context, f repository.CancelFilter, now time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("notifications.cancel", f.EntityID); err != nil {
		return 0, err
	}
	var n int64
	for _, row := range r.s.Notifications {
		if f.Matches(row) && row.IsPending(now) {
			t := now
			row.DeletedAt = &t
			n++
		}
	}
	return n, nil
}

func (r NotificationRepo) ScheduledCounts(_ context.Context, v repository.Visibility, now time.Time) (repository.ScheduledCountsResult, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("notifications.counts", ""); err != nil {
		return repository.ScheduledCountsResult{}, err
	}
	visible := func(leadID string) bool {
		l, ok := r.s.Leads[leadID]
		return ok && v.Allows(l.PrefixID)
	}
	var res repository.ScheduledCountsResult
	for _, f := range r.s.FollowUps {
		if f.CompletedAt == nil && f.DeletedAt == nil && f.ScheduledAt.After(now) && visible(f.LeadID) {
			res.FollowUps++
		}
	}
	for _, c := range r.s.Comments {
		if c.ReminderAt != nil && c.ReminderAt.After(now) && visible(c.LeadID) {
			res.CommentReminders++
		}
	}
	return res, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Presupuestos, promociones y borradores
// ──────────────────────────────────────────────────────────────────────────────

type QuoteRepo struct{ s *Store }

// NewQuoteRepo repositorio fuera de transacción.
func NewQuoteRepo(s *Store) QuoteRepo { return QuoteRepo{s} }

func (r QuoteRepo) Create(_ context.Context, q *entity.Quote, lines []entity.QuoteLine) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("quotes.create", q.ID); err != nil {
		return err
	}
	cp := *q
	r.s.Quotes[q.ID] = &cp
	r.s.QuoteLines[q.ID] = append([]entity.QuoteLine(nil), lines...)
	return nil
}

func (r QuoteRepo) GetByID(_ context.Context, id string) (*entity.Quote, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	q, ok := r.s.Quotes[id]
	if !ok || q.DeletedAt != nil {
		return nil, domain.ErrNotFound
	}
	cp := *q
	return &cp, nil
}

func (r QuoteRepo) Lines(_ context.Context, quoteID string) ([]entity.QuoteLine, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return append([]entity.QuoteLine(nil), r.s.QuoteLines[quoteID]...), nil
}

func (r QuoteRepo) Update(_ context.Context, q *entity.Quote, lines []entity.QuoteLine) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("quotes.update", q.ID); err != nil {
		return err
	}
	if _, ok := r.s.Quotes[q.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *q
	r.s.Quotes[q.ID] = &cp
	r.s.QuoteLines[q.ID] = append([]entity.QuoteLine(nil), lines...)
	return nil
}

func (r QuoteRepo) SoftDelete(_ context.Context, id string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	q, ok := r.s.Quotes[id]
	if !ok || q.DeletedAt != nil {
		return domain.ErrNotFound
	}
	t := at
	q.DeletedAt = &t
	return nil
}

func (r QuoteRepo) UpdateState(_ context.Context, id, stateID string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("quotes.update_state", id); err != nil {
		return err
	}
	q, ok := r.s.Quotes[id]
	if !ok {
		return domain.ErrNotFound
	}
	q.StateID = stateID
	q.UpdatedAt = at
	return nil
}

func (r QuoteRepo) FindValidUntilBetween(_ context.Context, from, to time.Time, excluded []string) ([]*entity.Quote, error) {
	return r.find(func(q *entity.Quote) bool {
		return !q.ValidUntil.Before(from) && q.ValidUntil.Before(to)
	}, excluded)
}

func (r QuoteRepo) FindExpired(_ context.Context, before time.Time, excluded []string) ([]*entity.Quote, error) {
	return r.find(func(q *entity.Quote) bool { return q.ValidUntil.Before(before) }, excluded)
}

func (r QuoteRepo) find(match func(*entity.Quote) bool, excluded []string) ([]*entity.Quote, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("quotes.find", ""); err != nil {
		return nil, err
	}
	skip := toSet(excluded)
	var out []*entity.Quote
	for _, q := range r.s.Quotes {
		if q.DeletedAt != nil || skip[q.StateID] || !match(q) {
			continue
		}
		cp := *q
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// QuoteStateRepo catálogo en memoria.
type QuoteStateRepo struct{ S *Store }

func (r QuoteStateRepo) List(_ context.Context) (entity.QuoteStates, error) {
	r.S.mu.Lock()
	defer r.S.mu.Unlock()
	return append(entity.QuoteStates(nil), r.S.QuoteStates...), nil
}

// PromotionRepo promociones en memoria.
type PromotionRepo struct{ S *Store }

func (r PromotionRepo) GetByID(_ context.Context, id string) (*entity.Promotion, error) {
	r.S.mu.Lock()
	defer r.S.mu.Unlock()
	p, ok := r.S.Promotions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r PromotionRepo) ListActive(_ context.Context, at time.Time) ([]*entity.Promotion, error) {
	r.S.mu.Lock()
	defer r.S.mu.Unlock()
	var out []*entity.Promotion
	for _, p := range r.S.Promotions {
		if p.IsActiveAt(at) {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

type DraftRepo struct{ s *Store }

// NewDraftRepo repositorio fuera de transacción.
func NewDraftRepo(s *Store) DraftRepo { return DraftRepo{s} }

func (r DraftRepo) Create(_ context.Context, d *entity.QuoteDraft) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *d
	r.s.Drafts[d.Token] = &cp
	return nil
}

func (r DraftRepo) Get(_ context.Context, token string) (*entity.QuoteDraft, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.Drafts[token]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (r DraftRepo) Update(_ context.Context, d *entity.QuoteDraft) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.Drafts[d.Token]; !ok {
		return domain.ErrNotFound
	}
	cp := *d
	r.s.Drafts[d.Token] = &cp
	return nil
}

func (r DraftRepo) Delete(_ context.Context, token string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.Drafts, token)
	return nil
}

func (r DraftRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for k, d := range r.s.Drafts {
		if !d.ExpiresAt.After(now) {
			delete(r.s.Drafts, k)
			n++
		}
	}
	return n, nil
}

func toSet(ids []string) map[string]bool {
	m := make(map[string]bool, len(ids))
	for _, id := range ids {
		m[id] = true
	}
	return m
}
