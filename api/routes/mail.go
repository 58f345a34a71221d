package routes

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/freeflowuniverse/heromail/api"
	"github.com/freeflowuniverse/heromail/pkg/mail"
	"github.com/freeflowuniverse/heromail/pkg/mailer"
	"github.com/freeflowuniverse/heromail/pkg/outbox"
)

// Sender performs a synchronous send operation.
type Sender interface {
	Send(ctx context.Context, msg *mail.Message) mailer.Outcome
}

// MailHandler handles mail-related routes
type MailHandler struct {
	sender Sender
	rdb    *redis.Client
	logger *slog.Logger
}

// NewMailHandler creates a new MailHandler. rdb may be nil, which
// disables the queue endpoints. A nil logger falls back to
// slog.Default().
func NewMailHandler(sender Sender, rdb *redis.Client, logger *slog.Logger) *MailHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &MailHandler{sender: sender, rdb: rdb, logger: logger}
}

// RegisterRoutes registers all mail routes
func (h *MailHandler) RegisterRoutes(app *fiber.App) {
	apiGroup := app.Group("/api")

	// Synchronous send
	apiGroup.Post("/send", h.postSend)

	// Outbox queue
	apiGroup.Post("/queue", h.postQueue)
	apiGroup.Get("/queue", h.getQueue)

	// Health check
	app.Get("/health", h.getHealth)
}

// postSend sends a message synchronously and reports the outcome. The
// HTTP status is 200 whenever the message was transmitted, even if
// archiving failed; the body carries both outcomes separately.
func (h *MailHandler) postSend(c *fiber.Ctx) error {
	var msg mail.Message
	if err := c.BodyParser(&msg); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(api.ErrorResponse{Error: err.Error()})
	}

	outcome := h.sender.Send(c.Context(), &msg)
	resp := api.NewSendMailResponse(outcome)

	if !outcome.Sent {
		status := fiber.StatusBadGateway
		if outcome.FailedStage == mailer.StageValidate || outcome.FailedStage == mailer.StageRender {
			status = fiber.StatusUnprocessableEntity
		}
		return c.Status(status).JSON(resp)
	}
	return c.JSON(resp)
}

// postQueue validates a message and enqueues it for the outbox worker
func (h *MailHandler) postQueue(c *fiber.Ctx) error {
	if h.rdb == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(api.ErrorResponse{Error: "outbox queue is not configured"})
	}

	var msg mail.Message
	if err := c.BodyParser(&msg); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(api.ErrorResponse{Error: err.Error()})
	}
	if err := msg.Validate(); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(api.ErrorResponse{Error: err.Error()})
	}

	id, err := outbox.Enqueue(c.Context(), h.rdb, &msg)
	if err != nil {
		h.logger.Error("failed to enqueue message", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(api.ErrorResponse{Error: err.Error()})
	}

	return c.Status(fiber.StatusAccepted).JSON(api.QueueMailResponse{ID: id})
}

// getQueue lists the pending outbox queue ids
func (h *MailHandler) getQueue(c *fiber.Ctx) error {
	if h.rdb == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(api.ErrorResponse{Error: "outbox queue is not configured"})
	}

	pending, err := outbox.Pending(c.Context(), h.rdb)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(api.ErrorResponse{Error: err.Error()})
	}

	return c.JSON(api.QueueStatusResponse{
		Count:   int64(len(pending)),
		Pending: pending,
	})
}

// getHealth reports service liveness
func (h *MailHandler) getHealth(c *fiber.Ctx) error {
	return c.JSON(api.HealthResponse{Status: "ok"})
}
