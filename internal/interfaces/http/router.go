package http

import (
	nethttp "net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/jhoicas/Comercial-api/internal/application/draft"
	"github.com/jhoicas/Comercial-api/internal/application/expiration"
	"github.com/jhoicas/Comercial-api/internal/application/lead"
	"github.com/jhoicas/Comercial-api/internal/application/notification"
	"github.com/jhoicas/Comercial-api/internal/application/quote"
	"github.com/jhoicas/Comercial-api/internal/domain/entity"
	"github.com/jhoicas/Comercial-api/pkg/validator"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AppName       string
	Quotes        *quote.Service
	Drafts        *draft.Service
	Leads         *lead.Service
	Notifications *notification.Scheduler
	Sweeper       *expiration.Sweeper
	Validator     *validator.Validator
	// Metrics handler de Prometheus; nil = sin /metrics.
	Metrics   nethttp.Handler
	JWTSecret string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": deps.AppName})
	})
	if deps.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(deps.Metrics))
	}

	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))

	quotes := api.Group("/quotes")
	quoteHandler := NewQuoteHandler(deps.Quotes)
	quotes.Post("/calculate", quoteHandler.Calculate)
	quotes.Post("/", quoteHandler.Create)
	quotes.Get("/:id", quoteHandler.Get)
	quotes.Put("/:id", quoteHandler.Update)
	quotes.Delete("/:id", quoteHandler.Cancel)

	drafts := api.Group("/quote-drafts")
	draftHandler := NewDraftHandler(deps.Drafts)
	drafts.Post("/", draftHandler.Start)
	drafts.Get("/:token", draftHandler.Get)
	drafts.Put("/:token", draftHandler.Save)
	drafts.Post("/:token/submit", draftHandler.Submit)

	leads := api.Group("/leads")
	leadHandler := NewLeadHandler(deps.Leads)
	leads.Post("/:id/comments", leadHandler.CreateComment)
	leads.Post("/:id/followups", leadHandler.CreateFollowUp)

	notifications := api.Group("/notifications")
	notificationHandler := NewNotificationHandler(deps.Notifications, deps.Validator)
	notifications.Post("/reminders", notificationHandler.ScheduleReminder)
	notifications.Post("/cancel", notificationHandler.Cancel)
	notifications.Get("/scheduled/count", notificationHandler.CountScheduled)

	admin := api.Group("/admin", RequireRole(entity.RoleAdmin))
	var purger expiration.DraftPurger
	if deps.Drafts != nil {
		purger = deps.Drafts
	}
	adminHandler := NewAdminHandler(deps.Sweeper, purger)
	admin.Post("/sweeps", adminHandler.RunSweeps)
}
