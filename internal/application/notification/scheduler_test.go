package notification_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Comercial-api/internal/application/apptest"
	"github.com/jhoicas/Comercial-api/internal/application/dto"
	"github.com/jhoicas/Comercial-api/internal/application/notification"
	"github.com/jhoicas/Comercial-api/internal/domain"
	"github.com/jhoicas/Comercial-api/internal/domain/entity"
	"github.com/jhoicas/Comercial-api/internal/domain/repository"
	"github.com/jhoicas/Comercial-api/pkg/logger"
)

var now = time.Date(2026, 4, 6, 10, 0, 0, 0, time.UTC)

func newScheduler(store *apptest.Store) (*notification.Scheduler, *apptest.TxRunner) {
	tx := &apptest.TxRunner{Store: store}
	s := notification.NewScheduler(tx, apptest.NewNotificationRepo(store), logger.Nop()).WithClock(apptest.FixedClock(now))
	return s, tx
}

func TestScheduleReminder_UnSoloRecordatorioActivo(t *testing.T) {
	store := apptest.NewStore()
	s, _ := newScheduler(store)
	ctx := context.Background()

	req := notification.ScheduleRequest{
		UserID:     "u1",
		EntityType: entity.EntityLead,
		EntityID:   "lead-1",
		Type:       entity.NotificationCommentReminder,
	}
	var last time.Time
	for i := 1; i <= 3; i++ {
		req.WhenAt = now.Add(time.Duration(i) * 24 * time.Hour)
		last = req.WhenAt
		_, err := s.ScheduleReminder(ctx, req)
		require.NoError(t, err)
	}

	pending := store.PendingNotifications("u1", "lead-1", entity.NotificationCommentReminder, now)
	require.Len(t, pending, 1)
	assert.True(t, pending[0].ScheduledAt.Equal(last))
	assert.Len(t, store.NotificationsOfType(entity.NotificationCommentReminder), 3, "las anteriores quedan como soft delete")
}

func TestScheduleReminder_OtraTuplaNoSeCancela(t *testing.T) {
	store := apptest.NewStore()
	s, _ := newScheduler(store)
	ctx := context.Background()

	base := notification.ScheduleRequest{UserID: "u1", EntityType: entity.EntityLead, EntityID: "lead-1", Type: entity.NotificationCommentReminder, WhenAt: now.Add(48 * time.Hour)}
	_, err := s.ScheduleReminder(ctx, base)
	require.NoError(t, err)

	otroUsuario := base
	otroUsuario.UserID = "u2"
	_, err = s.ScheduleReminder(ctx, otroUsuario)
	require.NoError(t, err)

	otroTipo := base
	otroTipo.Type = entity.NotificationLostFollowUp
	_, err = s.ScheduleReminder(ctx, otroTipo)
	require.NoError(t, err)

	assert.Len(t, store.PendingNotifications("u1", "lead-1", entity.NotificationCommentReminder, now), 1)
	assert.Len(t, store.PendingNotifications("u2", "lead-1", entity.NotificationCommentReminder, now), 1)
	assert.Len(t, store.PendingNotifications("u1", "lead-1", entity.NotificationLostFollowUp, now), 1)
}

func TestScheduleReminder_PrioridadYTitulo(t *testing.T) {
	store := apptest.NewStore()
	s, _ := newScheduler(store)

	n, err := s.ScheduleReminder(context.Background(), notification.ScheduleRequest{
		UserID: "u1", EntityType: entity.EntityFollowUp, EntityID: "f1",
		Type: entity.NotificationLostFollowUp, WhenAt: now.Add(3 * 24 * time.Hour),
	})

	require.NoError(t, err)
	assert.Equal(t, entity.PriorityUrgent, n.Priority)
	assert.Equal(t, "Seguimiento de lead perdido", n.Title)
}

func TestScheduleReminder_Validacion(t *testing.T) {
	s, tx := newScheduler(apptest.NewStore())

	_, err := s.ScheduleReminder(context.Background(), notification.ScheduleRequest{UserID: "u1", EntityType: "factura", EntityID: "x", Type: "t", WhenAt: now})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Zero(t, tx.Calls)
}

func TestScheduleReminder_FalloRevierteLaCancelacion(t *testing.T) {
	store := apptest.NewStore()
	s, _ := newScheduler(store)
	ctx := context.Background()

	req := notification.ScheduleRequest{UserID: "u1", EntityType: entity.EntityLead, EntityID: "lead-1", Type: entity.NotificationCommentReminder, WhenAt: now.Add(24 * time.Hour)}
	_, err := s.ScheduleReminder(ctx, req)
	require.NoError(t, err)

	store.Fail("notifications.create", "lead-1", nil)
	req.WhenAt = now.Add(72 * time.Hour)
	_, err = s.ScheduleReminder(ctx, req)

	assert.ErrorIs(t, err, domain.ErrTransactionFailed)
	pending := store.PendingNotifications("u1", "lead-1", entity.NotificationCommentReminder, now)
	require.Len(t, pending, 1)
	assert.True(t, pending[0].ScheduledAt.Equal(now.Add(24*time.Hour)))
}

func TestScheduleFromRequest_ComercialNoProgramaParaOtros(t *testing.T) {
	s, _ := newScheduler(apptest.NewStore())
	actor := entity.Actor{UserID: "u1", Role: entity.RoleComercial}

	_, err := s.ScheduleFromRequest(context.Background(), actor, dto.ScheduleReminderRequest{
		UserID: "u2", EntityType: entity.EntityLead, EntityID: "l1", Type: entity.NotificationCommentReminder, WhenAt: now.Add(time.Hour),
	})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	resp, err := s.ScheduleFromRequest(context.Background(), actor, dto.ScheduleReminderRequest{
		EntityType: entity.EntityLead, EntityID: "l1", Type: entity.NotificationCommentReminder, WhenAt: now.Add(time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, "u1", resp.UserID)
}

func TestCancelPending_SoloFuturasNoLeidas(t *testing.T) {
	store := apptest.NewStore()
	read := now.Add(-time.Hour)
	store.Notifications = []*entity.Notification{
		{ID: "futura", UserID: "u1", EntityType: entity.EntityQuote, EntityID: "q1", Type: entity.NotificationQuoteExpiring, ScheduledAt: now.Add(time.Hour)},
		{ID: "pasada", UserID: "u1", EntityType: entity.EntityQuote, EntityID: "q1", Type: entity.NotificationQuoteExpiring, ScheduledAt: now.Add(-time.Hour)},
		{ID: "leida", UserID: "u1", EntityType: entity.EntityQuote, EntityID: "q1", Type: entity.NotificationQuoteExpiring, ScheduledAt: now.Add(time.Hour), ReadAt: &read},
		{ID: "otra", UserID: "u1", EntityType: entity.EntityQuote, EntityID: "q2", Type: entity.NotificationQuoteExpiring, ScheduledAt: now.Add(time.Hour)},
	}
	s, _ := newScheduler(store)

	n, err := s.CancelPending(context.Background(), repository.CancelFilter{EntityType: entity.EntityQuote, EntityID: "q1"})

	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.NotNil(t, store.Notifications[0].DeletedAt)
	assert.Nil(t, store.Notifications[3].DeletedAt)

	_, err = s.CancelPending(context.Background(), repository.CancelFilter{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCountScheduled_FiltroTerritorial(t *testing.T) {
	store := apptest.NewStore()
	store.AddLead("l1", "norte", apptest.StateLost, now.AddDate(0, -1, 0))
	store.AddLead("l2", "sur", apptest.StateLost, now.AddDate(0, -1, 0))
	future := now.Add(48 * time.Hour)
	past := now.Add(-48 * time.Hour)
	done := now
	store.FollowUps = []*entity.LostLeadFollowUp{
		{ID: "f1", LeadID: "l1", ScheduledAt: future},
		{ID: "f2", LeadID: "l2", ScheduledAt: future},
		{ID: "f3", LeadID: "l1", ScheduledAt: past},
		{ID: "f4", LeadID: "l1", ScheduledAt: future, CompletedAt: &done},
	}
	store.Comments = []*entity.Comment{
		{ID: "c1", LeadID: "l1", ReminderAt: &future},
		{ID: "c2", LeadID: "l2", ReminderAt: &future},
		{ID: "c3", LeadID: "l2"},
	}
	s, _ := newScheduler(store)

	norte, err := s.CountScheduled(context.Background(), entity.Actor{UserID: "u1", Role: entity.RoleComercial, PrefixIDs: []string{"norte"}})
	require.NoError(t, err)
	assert.Equal(t, dto.ScheduledCountResponse{FollowUps: 1, CommentReminders: 1, Total: 2}, *norte)

	todas, err := s.CountScheduled(context.Background(), entity.Actor{UserID: "u2", Role: entity.RoleSupervisor, SeeAllAccounts: true})
	require.NoError(t, err)
	assert.Equal(t, int64(4), todas.Total)
}

func TestCancelFromRequest_ComercialSoloLosPropios(t *testing.T) {
	store := apptest.NewStore()
	store.Notifications = []*entity.Notification{
		{ID: "mia", UserID: "u1", EntityType: entity.EntityLead, EntityID: "l1", Type: entity.NotificationCommentReminder, ScheduledAt: now.Add(time.Hour)},
		{ID: "ajena", UserID: "u2", EntityType: entity.EntityLead, EntityID: "l1", Type: entity.NotificationCommentReminder, ScheduledAt: now.Add(time.Hour)},
	}
	s, _ := newScheduler(store)
	comercial := entity.Actor{UserID: "u1", Role: entity.RoleComercial}
	in := dto.CancelNotificationsRequest{EntityType: entity.EntityLead, EntityID: "l1"}

	resp, err := s.CancelFromRequest(context.Background(), comercial, in)
	require.NoError(t, err)
	assert.Equal(t, int64(1), resp.Cancelled)
	assert.Nil(t, store.Notifications[1].DeletedAt)

	in.UserID = "u2"
	_, err = s.CancelFromRequest(context.Background(), comercial, in)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	resp, err = s.CancelFromRequest(context.Background(), entity.Actor{UserID: "adm", Role: entity.RoleAdmin}, in)
	require.NoError(t, err)
	assert.Equal(t, int64(1), resp.Cancelled)
}
