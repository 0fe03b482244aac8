package quote_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Comercial-api/internal/application/apptest"
	"github.com/jhoicas/Comercial-api/internal/application/dto"
	"github.com/jhoicas/Comercial-api/internal/application/quote"
	"github.com/jhoicas/Comercial-api/internal/domain"
	"github.com/jhoicas/Comercial-api/internal/domain/entity"
	"github.com/jhoicas/Comercial-api/pkg/logger"
	"github.com/jhoicas/Comercial-api/pkg/validator"
)

var now = time.Date(2026, 4, 6, 10, 0, 0, 0, time.UTC)

var actor = entity.Actor{UserID: "u1", Role: entity.RoleComercial, PrefixIDs: []string{"norte"}}

func setup(t *testing.T) (*apptest.Store, *apptest.TxRunner, *quote.Service) {
	t.Helper()
	store := apptest.NewStore().SeedCatalogs()
	store.AddLead("lead-1", "norte", apptest.StateNew, now.AddDate(0, 0, -1))
	store.AddLead("lead-sur", "sur", apptest.StateNew, now.AddDate(0, 0, -1))
	store.Promotions["promo-2x1"] = &entity.Promotion{
		ID: "promo-2x1", Name: "Extras 2x1", Active: true,
		StartsAt: now.AddDate(0, 0, -5), EndsAt: now.AddDate(0, 0, 5), CreatedAt: now.AddDate(0, 0, -5),
		Products: []entity.PromotionProduct{{ProductID: "extra-1", Kind: entity.PromotionKind2x1}},
	}
	store.Promotions["promo-vieja"] = &entity.Promotion{
		ID: "promo-vieja", Name: "Vencida", Active: true,
		StartsAt: now.AddDate(0, -2, 0), EndsAt: now.AddDate(0, -1, 0), CreatedAt: now.AddDate(0, -2, 0),
		Products: []entity.PromotionProduct{{ProductID: "extra-1", Kind: entity.PromotionKind3x2}},
	}
	store.Promotions["promo-abono"] = &entity.Promotion{
		ID: "promo-abono", Name: "Abono 15%", Active: true,
		StartsAt: now.AddDate(0, 0, -1), EndsAt: now.AddDate(0, 0, 30), CreatedAt: now.AddDate(0, 0, -1),
		Products: []entity.PromotionProduct{{ProductID: "abono-1", Kind: entity.PromotionKindPercentage, Bonification: decimal.NewFromInt(15)}},
	}
	tx := &apptest.TxRunner{Store: store}
	svc := quote.NewService(tx, store.Repos().Leads, apptest.NewQuoteRepo(store), apptest.QuoteStateRepo{S: store},
		apptest.PromotionRepo{S: store}, validator.New(), logger.Nop()).WithClock(apptest.FixedClock(now))
	return store, tx, svc
}

func items(promotionID string) dto.QuoteItemsRequest {
	return dto.QuoteItemsRequest{
		PromotionID:  promotionID,
		Rate:         dto.QuoteLineRequest{ProductID: "tasa-1", UnitValue: decimal.NewFromInt(150), Quantity: 1},
		Subscription: dto.QuoteLineRequest{ProductID: "abono-1", UnitValue: decimal.NewFromInt(250), Quantity: 3, BonificationPercent: decimal.NewFromInt(10)},
		Extras: []dto.QuoteLineRequest{
			{ProductID: "extra-1", UnitValue: decimal.NewFromInt(100), Quantity: 5, BonificationPercent: decimal.NewFromInt(50)},
		},
	}
}

func TestCalculate_SinPromocion(t *testing.T) {
	_, tx, svc := setup(t)

	resp, err := svc.Calculate(context.Background(), dto.CalculateQuoteRequest{QuoteItemsRequest: items("")})

	require.NoError(t, err)
	assert.Equal(t, "150.00", resp.Totals.SubtotalRate.StringFixed(2))
	assert.Equal(t, "675.00", resp.Totals.SubtotalSubscription.StringFixed(2))
	assert.Equal(t, "250.00", resp.Totals.SubtotalExtras.StringFixed(2))
	assert.Equal(t, "1075.00", resp.Totals.Total.StringFixed(2))
	assert.Len(t, resp.Lines, 3)
	assert.Zero(t, tx.Calls)
}

func TestCalculate_PromocionPackPisaBonificacion(t *testing.T) {
	_, _, svc := setup(t)

	resp, err := svc.Calculate(context.Background(), dto.CalculateQuoteRequest{QuoteItemsRequest: items("promo-2x1")})

	require.NoError(t, err)
	extra := resp.Lines[2]
	assert.Equal(t, entity.PromotionKind2x1, extra.PackPromotionType)
	assert.Equal(t, 3, extra.PayableUnits)
	assert.True(t, extra.BonificationPercent.IsZero())
	assert.Equal(t, "300.00", extra.Subtotal.StringFixed(2))
	assert.Equal(t, "675.00", resp.Lines[1].Subtotal.StringFixed(2), "el abono no está en la promoción")
	assert.Equal(t, "promo-2x1", resp.PromotionID)
}

func TestCalculate_PromocionAutomatica(t *testing.T) {
	_, _, svc := setup(t)
	req := items("")
	req.AutoPromotion = true

	resp, err := svc.Calculate(context.Background(), dto.CalculateQuoteRequest{QuoteItemsRequest: req})

	require.NoError(t, err)
	assert.Equal(t, "15", resp.Lines[1].BonificationPercent.String())
	assert.Equal(t, "637.50", resp.Lines[1].Subtotal.StringFixed(2))
	assert.Equal(t, "300.00", resp.Lines[2].Subtotal.StringFixed(2))
	assert.Empty(t, resp.PromotionID)
}

func TestCalculate_PromocionNoVigente(t *testing.T) {
	_, _, svc := setup(t)

	_, err := svc.Calculate(context.Background(), dto.CalculateQuoteRequest{QuoteItemsRequest: items("promo-vieja")})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.Calculate(context.Background(), dto.CalculateQuoteRequest{QuoteItemsRequest: items("no-existe")})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCalculate_Validacion(t *testing.T) {
	_, _, svc := setup(t)
	req := items("")
	req.Extras[0].BonificationPercent = decimal.NewFromInt(120)

	_, err := svc.Calculate(context.Background(), dto.CalculateQuoteRequest{QuoteItemsRequest: req})

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCreate_PersisteYNotifica(t *testing.T) {
	store, tx, svc := setup(t)

	resp, err := svc.Create(context.Background(), actor, dto.CreateQuoteRequest{
		LeadID:            "lead-1",
		ValidUntil:        now.AddDate(0, 0, 15),
		QuoteItemsRequest: items("promo-2x1"),
	})

	require.NoError(t, err)
	assert.Equal(t, entity.QuoteStatePending, resp.State)
	assert.Equal(t, "1125.00", resp.Totals.Total.StringFixed(2))
	assert.Equal(t, 1, tx.Calls)

	saved := store.Quotes[resp.ID]
	require.NotNil(t, saved)
	assert.Equal(t, apptest.QuotePending, saved.StateID)
	assert.Equal(t, "u1", saved.OwnerID)
	assert.Len(t, store.QuoteLines[resp.ID], 3)

	pending := store.PendingNotifications("u1", resp.ID, entity.NotificationQuoteCreated, now)
	require.Len(t, pending, 1)
	assert.Equal(t, entity.PriorityNormal, pending[0].Priority)
}

func TestCreate_FalloNotificacionRevierte(t *testing.T) {
	store, _, svc := setup(t)
	store.Fail("notifications.create", "", nil)

	_, err := svc.Create(context.Background(), actor, dto.CreateQuoteRequest{
		LeadID: "lead-1", ValidUntil: now.AddDate(0, 0, 15), QuoteItemsRequest: items(""),
	})

	assert.ErrorIs(t, err, domain.ErrTransactionFailed)
	assert.Empty(t, store.Quotes)
	assert.Empty(t, store.QuoteLines)
}

func TestCreate_LeadFueraDelTerritorio(t *testing.T) {
	_, tx, svc := setup(t)

	_, err := svc.Create(context.Background(), actor, dto.CreateQuoteRequest{
		LeadID: "lead-sur", ValidUntil: now.AddDate(0, 0, 15), QuoteItemsRequest: items(""),
	})

	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.Zero(t, tx.Calls)
}

func TestCreate_ValidezPasada(t *testing.T) {
	_, _, svc := setup(t)

	_, err := svc.Create(context.Background(), actor, dto.CreateQuoteRequest{
		LeadID: "lead-1", ValidUntil: now.AddDate(0, 0, -1), QuoteItemsRequest: items(""),
	})

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestUpdate_RecalculaYReprograma(t *testing.T) {
	store, _, svc := setup(t)
	created, err := svc.Create(context.Background(), actor, dto.CreateQuoteRequest{
		LeadID: "lead-1", ValidUntil: now.AddDate(0, 0, 15), QuoteItemsRequest: items(""),
	})
	require.NoError(t, err)

	upd := items("")
	upd.Extras = nil
	resp, err := svc.Update(context.Background(), actor, created.ID, dto.UpdateQuoteRequest{
		ValidUntil: now.AddDate(0, 0, 5), QuoteItemsRequest: upd,
	})

	require.NoError(t, err)
	assert.Equal(t, "825.00", resp.Totals.Total.StringFixed(2))
	assert.Len(t, store.QuoteLines[created.ID], 2)
	pending := store.PendingNotifications("u1", created.ID, entity.NotificationQuoteCreated, now)
	require.Len(t, pending, 1)
	assert.True(t, pending[0].ScheduledAt.Equal(time.Date(2026, 4, 11, 0, 0, 0, 0, time.UTC)))
}

func TestUpdate_SoloPendientes(t *testing.T) {
	store, _, svc := setup(t)
	created, err := svc.Create(context.Background(), actor, dto.CreateQuoteRequest{
		LeadID: "lead-1", ValidUntil: now.AddDate(0, 0, 15), QuoteItemsRequest: items(""),
	})
	require.NoError(t, err)
	store.Quotes[created.ID].StateID = apptest.QuoteAccepted

	_, err = svc.Update(context.Background(), actor, created.ID, dto.UpdateQuoteRequest{
		ValidUntil: now.AddDate(0, 0, 5), QuoteItemsRequest: items(""),
	})

	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestCancel_BajaLogicaYCancelaAvisos(t *testing.T) {
	store, _, svc := setup(t)
	created, err := svc.Create(context.Background(), actor, dto.CreateQuoteRequest{
		LeadID: "lead-1", ValidUntil: now.AddDate(0, 0, 15), QuoteItemsRequest: items(""),
	})
	require.NoError(t, err)

	require.NoError(t, svc.Cancel(context.Background(), actor, created.ID))

	assert.NotNil(t, store.Quotes[created.ID].DeletedAt)
	assert.Empty(t, store.PendingNotifications("u1", created.ID, entity.NotificationQuoteCreated, now))
	_, err = svc.Get(context.Background(), actor, created.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, svc.Cancel(context.Background(), actor, created.ID), domain.ErrNotFound)
}

func TestGet(t *testing.T) {
	_, _, svc := setup(t)
	created, err := svc.Create(context.Background(), actor, dto.CreateQuoteRequest{
		LeadID: "lead-1", ValidUntil: now.AddDate(0, 0, 15), QuoteItemsRequest: items("promo-2x1"),
	})
	require.NoError(t, err)

	got, err := svc.Get(context.Background(), actor, created.ID)

	require.NoError(t, err)
	assert.Equal(t, created.Totals.Total.String(), got.Totals.Total.String())
	assert.Equal(t, entity.QuoteStatePending, got.State)
	assert.Len(t, got.Lines, 3)

	otro := entity.Actor{UserID: "u9", Role: entity.RoleComercial, PrefixIDs: []string{"sur"}}
	_, err = svc.Get(context.Background(), otro, created.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}
