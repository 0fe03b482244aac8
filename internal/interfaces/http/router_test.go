package http_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Comercial-api/internal/application/apptest"
	"github.com/jhoicas/Comercial-api/internal/application/draft"
	"github.com/jhoicas/Comercial-api/internal/application/dto"
	"github.com/jhoicas/Comercial-api/internal/application/expiration"
	"github.com/jhoicas/Comercial-api/internal/application/lead"
	"github.com/jhoicas/Comercial-api/internal/application/notification"
	"github.com/jhoicas/Comercial-api/internal/application/quote"
	apphttp "github.com/jhoicas/Comercial-api/internal/interfaces/http"
	"github.com/jhoicas/Comercial-api/pkg/logger"
	pkgjwt "github.com/jhoicas/Comercial-api/pkg/jwt"
	"github.com/jhoicas/Comercial-api/pkg/validator"
)

var now = time.Date(2026, 4, 6, 10, 0, 0, 0, time.UTC)

const itemsBody = `{
	"rate": {"product_id": "tasa-1", "unit_value": 150, "quantity": 1},
	"subscription": {"product_id": "abono-1", "unit_value": 250, "quantity": 3, "bonification_percent": 10},
	"extras": [{"product_id": "extra-1", "unit_value": 100, "quantity": 5, "bonification_percent": 50}]
}`

func newAPI(t *testing.T) (*fiber.App, *apptest.Store) {
	t.Helper()
	store := apptest.NewStore().SeedCatalogs()
	store.AddLead("lead-1", "norte", apptest.StateNew, now.AddDate(0, 0, -1))
	store.AddLead("lead-sur", "sur", apptest.StateNew, now.AddDate(0, 0, -1))

	clock := apptest.FixedClock(now)
	tx := &apptest.TxRunner{Store: store}
	repos := store.Repos()
	val := validator.New()
	log := logger.Nop()

	quotes := quote.NewService(tx, repos.Leads, apptest.NewQuoteRepo(store), apptest.QuoteStateRepo{S: store},
		apptest.PromotionRepo{S: store}, val, log).WithClock(clock)
	leads := lead.NewService(tx, repos.Leads, apptest.LeadStateRepo{S: store}, val, log).WithClock(clock)
	drafts := draft.NewService(apptest.NewDraftRepo(store), repos.Leads, quotes, time.Hour, val, log).WithClock(clock)
	scheduler := notification.NewScheduler(tx, apptest.NewNotificationRepo(store), log).WithClock(clock)
	sweeper, err := expiration.NewSweeper(expiration.SweeperParams{
		TxRunner:       tx,
		Leads:          repos.Leads,
		LeadStates:     apptest.LeadStateRepo{S: store},
		Quotes:         apptest.NewQuoteRepo(store),
		QuoteStates:    apptest.QuoteStateRepo{S: store},
		ExpirationDays: 30,
		Logger:         log,
	})
	require.NoError(t, err)
	sweeper.WithClock(clock)

	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		AppName:       "comercial-api-test",
		Quotes:        quotes,
		Drafts:        drafts,
		Leads:         leads,
		Notifications: scheduler,
		Sweeper:       sweeper,
		Validator:     val,
		JWTSecret:     testJWTSecret,
	})
	return app, store
}

func bearer(t *testing.T, role string, prefixes ...string) string {
	return token(t, pkgjwt.Identity{UserID: "u1", Role: role, Prefixes: prefixes})
}

func call(t *testing.T, app *fiber.App, method, path, auth, body string) *http.Response {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestRouter_HealthPublico(t *testing.T) {
	app, _ := newAPI(t)
	resp := call(t, app, http.MethodGet, "/health", "", "")
	var body map[string]string
	decode(t, resp, &body)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "comercial-api-test", body["service"])
}

func TestRouter_APISinToken_Retorna401(t *testing.T) {
	app, _ := newAPI(t)
	resp := call(t, app, http.MethodPost, "/api/quotes/calculate", "", itemsBody)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRouter_CalcularPresupuesto(t *testing.T) {
	app, store := newAPI(t)
	resp := call(t, app, http.MethodPost, "/api/quotes/calculate", bearer(t, "comercial", "norte"), itemsBody)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out dto.CalculateQuoteResponse
	decode(t, resp, &out)
	assert.Equal(t, "150.00", out.Totals.SubtotalRate.StringFixed(2))
	assert.Equal(t, "675.00", out.Totals.SubtotalSubscription.StringFixed(2))
	assert.Equal(t, "250.00", out.Totals.SubtotalExtras.StringFixed(2))
	assert.Equal(t, "1075.00", out.Totals.Total.StringFixed(2))
	assert.Len(t, out.Lines, 3)
	assert.Empty(t, store.Quotes, "la vista previa no persiste")
}

func TestRouter_CuerpoInvalido_Retorna400(t *testing.T) {
	app, _ := newAPI(t)
	resp := call(t, app, http.MethodPost, "/api/quotes/calculate", bearer(t, "comercial", "norte"), "{no-es-json")

	var out dto.ErrorResponse
	decode(t, resp, &out)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION", out.Code)
}

func TestRouter_PresupuestoDeOtroTerritorio_Retorna403(t *testing.T) {
	app, store := newAPI(t)
	body := `{"lead_id": "lead-sur", "valid_until": "2026-04-21T10:00:00Z",` + itemsBody[1:]
	resp := call(t, app, http.MethodPost, "/api/quotes/", bearer(t, "comercial", "norte"), body)

	var out dto.ErrorResponse
	decode(t, resp, &out)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "FORBIDDEN", out.Code)
	assert.Empty(t, store.Quotes)
}

func TestRouter_CrearPresupuesto_Retorna201(t *testing.T) {
	app, _ := newAPI(t)
	body := `{"lead_id": "lead-1", "valid_until": "2026-04-21T10:00:00Z",` + itemsBody[1:]
	resp := call(t, app, http.MethodPost, "/api/quotes/", bearer(t, "comercial", "norte"), body)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var out dto.QuoteResponse
	decode(t, resp, &out)
	assert.NotEmpty(t, out.ID)
	assert.Equal(t, "lead-1", out.LeadID)
	assert.Equal(t, "1075.00", out.Totals.Total.StringFixed(2))
}

func TestRouter_ComentarioRechazoDefinitivo(t *testing.T) {
	app, store := newAPI(t)
	body := `{"comment_type": "Rechazo definitivo", "text": "no le interesa"}`
	resp := call(t, app, http.MethodPost, "/api/leads/lead-1/comments", bearer(t, "comercial", "norte"), body)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var out dto.CommentResponse
	decode(t, resp, &out)
	assert.True(t, out.Transitioned)
	assert.Equal(t, "Perdido", out.NewState)
	assert.Equal(t, apptest.StateLost, store.Lead("lead-1").StateID)
}

func TestRouter_ComentarioLeadInexistente_Retorna404(t *testing.T) {
	app, _ := newAPI(t)
	body := `{"comment_type": "Llamada", "text": "hola"}`
	resp := call(t, app, http.MethodPost, "/api/leads/no-existe/comments", bearer(t, "admin"), body)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRouter_BarridosSoloAdmin(t *testing.T) {
	app, _ := newAPI(t)

	resp := call(t, app, http.MethodPost, "/api/admin/sweeps", bearer(t, "comercial", "norte"), "")
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = call(t, app, http.MethodPost, "/api/admin/sweeps", bearer(t, "admin"), "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out dto.SweepResponse
	decode(t, resp, &out)
	assert.Equal(t, 0, out.Leads.Failed)
	assert.Equal(t, 0, out.Quotes.Failed)
}

func TestRouter_ConteoProgramadas(t *testing.T) {
	app, _ := newAPI(t)
	resp := call(t, app, http.MethodGet, "/api/notifications/scheduled/count", bearer(t, "comercial", "norte"), "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out dto.ScheduledCountResponse
	decode(t, resp, &out)
	assert.Equal(t, int64(0), out.Total)
}

func TestRouter_RecordatorioInvalido_Retorna400(t *testing.T) {
	app, _ := newAPI(t)
	body := `{"entity_type": "otra-cosa", "entity_id": "lead-1", "type": "x", "when_at": "2026-04-07T10:00:00Z"}`
	resp := call(t, app, http.MethodPost, "/api/notifications/reminders", bearer(t, "comercial", "norte"), body)

	var out dto.ErrorResponse
	decode(t, resp, &out)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION", out.Code)
}
