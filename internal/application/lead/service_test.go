package lead_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Comercial-api/internal/application/apptest"
	"github.com/jhoicas/Comercial-api/internal/application/dto"
	"github.com/jhoicas/Comercial-api/internal/application/lead"
	"github.com/jhoicas/Comercial-api/internal/domain"
	"github.com/jhoicas/Comercial-api/internal/domain/entity"
	"github.com/jhoicas/Comercial-api/pkg/logger"
	"github.com/jhoicas/Comercial-api/pkg/validator"
)

var now = time.Date(2026, 4, 6, 10, 0, 0, 0, time.UTC)

type fixture struct {
	store *apptest.Store
	tx    *apptest.TxRunner
	svc   *lead.Service
}

func setup(t *testing.T) fixture {
	t.Helper()
	store := apptest.NewStore().SeedCatalogs()
	tx := &apptest.TxRunner{Store: store}
	repos := store.Repos()
	svc := lead.NewService(tx, repos.Leads, apptest.LeadStateRepo{S: store}, validator.New(), logger.Nop()).
		WithClock(apptest.FixedClock(now))
	return fixture{store: store, tx: tx, svc: svc}
}

func pendingFor(store *apptest.Store, leadID string) []*entity.Notification {
	var out []*entity.Notification
	for _, n := range store.Notifications {
		if n.EntityType == entity.EntityLead && n.EntityID == leadID && n.IsPending(now) {
			out = append(out, n)
		}
	}
	return out
}

// Escenario: lead en "Nuevo" recibe "Rechazo definitivo".
func TestApplyTransition_RechazoDefinitivo(t *testing.T) {
	f := setup(t)
	f.store.AddLead("lead-1", "norte", apptest.StateNew, now.AddDate(0, 0, -3))
	f.store.Notifications = []*entity.Notification{
		{ID: "n1", UserID: "7", EntityType: entity.EntityLead, EntityID: "lead-1", Type: entity.NotificationCommentReminder, ScheduledAt: now.Add(24 * time.Hour)},
		{ID: "n2", UserID: "9", EntityType: entity.EntityLead, EntityID: "lead-1", Type: "otro", ScheduledAt: now.Add(48 * time.Hour)},
		{ID: "n3", UserID: "7", EntityType: entity.EntityLead, EntityID: "lead-2", Type: entity.NotificationCommentReminder, ScheduledAt: now.Add(24 * time.Hour)},
	}

	changed, err := f.svc.ApplyTransition(context.Background(), dto.ApplyTransitionRequest{LeadID: "lead-1", CommentType: "Rechazo definitivo", ActorID: "7"})

	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, apptest.StateLost, f.store.Lead("lead-1").StateID)
	require.Len(t, f.store.History, 1)
	h := f.store.History[0]
	assert.Equal(t, apptest.StateNew, h.PreviousStateID)
	assert.Equal(t, apptest.StateLost, h.NewStateID)
	assert.Equal(t, "7", h.ActorID)
	assert.Empty(t, pendingFor(f.store, "lead-1"))
	assert.Len(t, pendingFor(f.store, "lead-2"), 1)
	assert.Equal(t, 1, f.tx.Calls)
}

func TestApplyTransition_Idempotente(t *testing.T) {
	f := setup(t)
	f.store.AddLead("lead-1", "norte", apptest.StateNew, now.AddDate(0, 0, -3))
	req := dto.ApplyTransitionRequest{LeadID: "lead-1", CommentType: "Reagendado", ActorID: "7"}

	first, err := f.svc.ApplyTransition(context.Background(), req)
	require.NoError(t, err)
	second, err := f.svc.ApplyTransition(context.Background(), req)
	require.NoError(t, err)

	assert.True(t, first)
	assert.False(t, second)
	assert.Len(t, f.store.History, 1)
	assert.Equal(t, 1, f.tx.Calls)
}

func TestApplyTransition_SinTransicion(t *testing.T) {
	f := setup(t)
	f.store.AddLead("lead-1", "norte", apptest.StateNew, now)

	changed, err := f.svc.ApplyTransition(context.Background(), dto.ApplyTransitionRequest{LeadID: "lead-1", CommentType: "Llamada sin respuesta", ActorID: "7"})

	require.NoError(t, err)
	assert.False(t, changed)
	assert.Zero(t, f.tx.Calls)
}

func TestApplyTransition_FalloAuditoriaRevierteTodo(t *testing.T) {
	f := setup(t)
	f.store.AddLead("lead-1", "norte", apptest.StateNew, now)
	f.store.Notifications = []*entity.Notification{
		{ID: "n1", UserID: "7", EntityType: entity.EntityLead, EntityID: "lead-1", Type: entity.NotificationCommentReminder, ScheduledAt: now.Add(time.Hour)},
	}
	f.store.Fail("history.create", "lead-1", nil)

	changed, err := f.svc.ApplyTransition(context.Background(), dto.ApplyTransitionRequest{LeadID: "lead-1", CommentType: "Rechazo definitivo", ActorID: "7"})

	assert.False(t, changed)
	assert.ErrorIs(t, err, domain.ErrTransactionFailed)
	assert.Equal(t, apptest.StateNew, f.store.Lead("lead-1").StateID)
	assert.Nil(t, f.store.Lead("lead-1").ModifiedAt)
	assert.Empty(t, f.store.History)
	assert.Len(t, pendingFor(f.store, "lead-1"), 1)
}

func TestApplyTransition_EstadoNoConfigurado(t *testing.T) {
	f := setup(t)
	f.store.LeadStates = f.store.LeadStates[:1]
	f.store.AddLead("lead-1", "norte", apptest.StateNew, now)

	_, err := f.svc.ApplyTransition(context.Background(), dto.ApplyTransitionRequest{LeadID: "lead-1", CommentType: "Reagendado", ActorID: "7"})

	assert.ErrorIs(t, err, domain.ErrStateNotConfigured)
}

func TestRegisterComment_ConRecordatorioYTransicion(t *testing.T) {
	f := setup(t)
	f.store.AddLead("lead-1", "norte", apptest.StateNew, now)
	actor := entity.Actor{UserID: "7", Role: entity.RoleComercial, PrefixIDs: []string{"norte"}}
	reminder := now.Add(5 * 24 * time.Hour)

	resp, err := f.svc.RegisterComment(context.Background(), actor, "lead-1", dto.CreateCommentRequest{
		CommentType: "nueva información enviada",
		Text:        "Se envió el catálogo",
		ReminderAt:  &reminder,
	})

	require.NoError(t, err)
	assert.True(t, resp.Transitioned)
	assert.Equal(t, "Info Enviada", resp.NewState)
	assert.Len(t, f.store.Comments, 1)
	pending := f.store.PendingNotifications("7", "lead-1", entity.NotificationCommentReminder, now)
	require.Len(t, pending, 1)
	assert.Equal(t, entity.PriorityHigh, pending[0].Priority)
}

func TestRegisterComment_ComentarioSeConservaSiFallaLaTransicion(t *testing.T) {
	f := setup(t)
	f.store.AddLead("lead-1", "norte", apptest.StateNew, now)
	f.store.Fail("leads.update_state", "lead-1", nil)
	actor := entity.Actor{UserID: "7", Role: entity.RoleComercial, PrefixIDs: []string{"norte"}}

	resp, err := f.svc.RegisterComment(context.Background(), actor, "lead-1", dto.CreateCommentRequest{CommentType: "Reagendado", Text: "Llamar el lunes"})

	assert.ErrorIs(t, err, domain.ErrTransactionFailed)
	require.NotNil(t, resp)
	assert.False(t, resp.Transitioned)
	assert.Len(t, f.store.Comments, 1)
	assert.Equal(t, apptest.StateNew, f.store.Lead("lead-1").StateID)
}

func TestRegisterComment_FueraDelTerritorio(t *testing.T) {
	f := setup(t)
	f.store.AddLead("lead-1", "sur", apptest.StateNew, now)
	actor := entity.Actor{UserID: "7", Role: entity.RoleComercial, PrefixIDs: []string{"norte"}}

	_, err := f.svc.RegisterComment(context.Background(), actor, "lead-1", dto.CreateCommentRequest{CommentType: "Reagendado", Text: "x"})

	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.Empty(t, f.store.Comments)
}

func TestRegisterComment_Validacion(t *testing.T) {
	f := setup(t)
	f.store.AddLead("lead-1", "norte", apptest.StateNew, now)
	actor := entity.Actor{UserID: "7", Role: entity.RoleAdmin}
	past := now.Add(-time.Hour)

	_, err := f.svc.RegisterComment(context.Background(), actor, "lead-1", dto.CreateCommentRequest{CommentType: "Reagendado"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.svc.RegisterComment(context.Background(), actor, "lead-1", dto.CreateCommentRequest{CommentType: "Reagendado", Text: "x", ReminderAt: &past})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.svc.RegisterComment(context.Background(), actor, "no-existe", dto.CreateCommentRequest{CommentType: "Reagendado", Text: "x"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestScheduleLostLeadFollowUp(t *testing.T) {
	f := setup(t)
	f.store.AddLead("perdido", "norte", apptest.StateLost, now)
	f.store.AddLead("nuevo", "norte", apptest.StateNew, now)
	actor := entity.Actor{UserID: "7", Role: entity.RoleComercial, PrefixIDs: []string{"norte"}}
	at := now.Add(10 * 24 * time.Hour)

	resp, err := f.svc.ScheduleLostLeadFollowUp(context.Background(), actor, "perdido", dto.CreateFollowUpRequest{ScheduledAt: at})
	require.NoError(t, err)
	assert.Len(t, f.store.FollowUps, 1)
	pending := f.store.PendingNotifications("7", resp.ID, entity.NotificationLostFollowUp, now)
	require.Len(t, pending, 1)
	assert.Equal(t, entity.PriorityHigh, pending[0].Priority)

	_, err = f.svc.ScheduleLostLeadFollowUp(context.Background(), actor, "nuevo", dto.CreateFollowUpRequest{ScheduledAt: at})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestScheduleLostLeadFollowUp_FalloNotificacionRevierteSeguimiento(t *testing.T) {
	f := setup(t)
	f.store.AddLead("perdido", "norte", apptest.StateLost, now)
	f.store.Fail("notifications.create", "", nil)
	actor := entity.Actor{UserID: "7", Role: entity.RoleAdmin}

	_, err := f.svc.ScheduleLostLeadFollowUp(context.Background(), actor, "perdido", dto.CreateFollowUpRequest{ScheduledAt: now.Add(time.Hour)})

	assert.ErrorIs(t, err, domain.ErrTransactionFailed)
	assert.Empty(t, f.store.FollowUps)
}
