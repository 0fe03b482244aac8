package draft_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Comercial-api/internal/application/apptest"
	"github.com/jhoicas/Comercial-api/internal/application/draft"
	"github.com/jhoicas/Comercial-api/internal/application/dto"
	"github.com/jhoicas/Comercial-api/internal/application/quote"
	"github.com/jhoicas/Comercial-api/internal/domain"
	"github.com/jhoicas/Comercial-api/internal/domain/entity"
	"github.com/jhoicas/Comercial-api/pkg/logger"
	"github.com/jhoicas/Comercial-api/pkg/validator"
)

var start = time.Date(2026, 4, 6, 10, 0, 0, 0, time.UTC)

var actor = entity.Actor{UserID: "u1", Role: entity.RoleComercial, PrefixIDs: []string{"norte"}}

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func setup(t *testing.T) (*apptest.Store, *draft.Service, *clock) {
	t.Helper()
	store := apptest.NewStore().SeedCatalogs()
	store.AddLead("lead-1", "norte", apptest.StateNew, start)
	store.AddLead("lead-sur", "sur", apptest.StateNew, start)
	c := &clock{t: start}
	v := validator.New()
	tx := &apptest.TxRunner{Store: store}
	quotes := quote.NewService(tx, store.Repos().Leads, apptest.NewQuoteRepo(store), apptest.QuoteStateRepo{S: store},
		apptest.PromotionRepo{S: store}, v, logger.Nop()).WithClock(c.now)
	svc := draft.NewService(apptest.NewDraftRepo(store), store.Repos().Leads, quotes, 24*time.Hour, v, logger.Nop()).WithClock(c.now)
	return store, svc, c
}

const itemsPayload = `{
	"valid_until": "2026-04-30T00:00:00Z",
	"rate": {"product_id": "tasa-1", "unit_value": "150", "quantity": 1},
	"subscription": {"product_id": "abono-1", "unit_value": "250", "quantity": 3, "bonification_percent": "10"}
}`

func TestDraft_FlujoCompleto(t *testing.T) {
	store, svc, c := setup(t)
	ctx := context.Background()

	d, err := svc.Start(ctx, actor, dto.StartDraftRequest{LeadID: "lead-1"})
	require.NoError(t, err)
	assert.Equal(t, draft.StepLead, d.Step)
	assert.Equal(t, start.Add(24*time.Hour), d.ExpiresAt)

	c.t = start.Add(time.Hour)
	saved, err := svc.Save(ctx, actor, d.Token, dto.SaveDraftRequest{Step: draft.StepItems, Payload: json.RawMessage(itemsPayload)})
	require.NoError(t, err)
	assert.Equal(t, draft.StepItems, saved.Step)
	assert.Equal(t, c.t.Add(24*time.Hour), saved.ExpiresAt)

	// un segundo guardado parcial conserva las claves anteriores
	_, err = svc.Save(ctx, actor, d.Token, dto.SaveDraftRequest{Step: draft.StepReview, Payload: json.RawMessage(`{"extras": [], "lead_id": "lead-sur"}`)})
	require.NoError(t, err)

	got, err := svc.Get(ctx, actor, d.Token)
	require.NoError(t, err)
	var payload map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(got.Payload, &payload))
	assert.Contains(t, payload, "rate")
	assert.Contains(t, payload, "extras")
	assert.JSONEq(t, `"lead-1"`, string(payload["lead_id"]))

	q, err := svc.Submit(ctx, actor, d.Token)
	require.NoError(t, err)
	assert.Equal(t, "lead-1", q.LeadID)
	assert.Equal(t, "825.00", q.Totals.Total.StringFixed(2))
	assert.Empty(t, store.Drafts)
}

func TestDraft_AjenoOVencidoNoExiste(t *testing.T) {
	_, svc, c := setup(t)
	ctx := context.Background()
	d, err := svc.Start(ctx, actor, dto.StartDraftRequest{LeadID: "lead-1"})
	require.NoError(t, err)

	_, err = svc.Get(ctx, entity.Actor{UserID: "otro", Role: entity.RoleAdmin}, d.Token)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	c.t = start.Add(25 * time.Hour)
	_, err = svc.Get(ctx, actor, d.Token)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	n, err := svc.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestDraft_StartLeadAjeno(t *testing.T) {
	_, svc, _ := setup(t)

	_, err := svc.Start(context.Background(), actor, dto.StartDraftRequest{LeadID: "lead-sur"})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = svc.Start(context.Background(), actor, dto.StartDraftRequest{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestDraft_SavePayloadInvalido(t *testing.T) {
	_, svc, _ := setup(t)
	d, err := svc.Start(context.Background(), actor, dto.StartDraftRequest{LeadID: "lead-1"})
	require.NoError(t, err)

	_, err = svc.Save(context.Background(), actor, d.Token, dto.SaveDraftRequest{Step: draft.StepItems, Payload: json.RawMessage(`[1,2]`)})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.Save(context.Background(), actor, d.Token, dto.SaveDraftRequest{Step: "otro"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestDraft_SubmitIncompletoNoBorra(t *testing.T) {
	store, svc, _ := setup(t)
	d, err := svc.Start(context.Background(), actor, dto.StartDraftRequest{LeadID: "lead-1"})
	require.NoError(t, err)

	_, err = svc.Submit(context.Background(), actor, d.Token)

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Len(t, store.Drafts, 1)
}
