package webhook

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/localpulse/localpulse/internal/domain/webhookevent"
	ierr "github.com/localpulse/localpulse/internal/errors"
	"github.com/localpulse/localpulse/internal/logger"
	"github.com/localpulse/localpulse/internal/service"
	"github.com/localpulse/localpulse/internal/types"

	"github.com/gin-gonic/gin"
)

// Handler receives Razorpay webhook deliveries. Every accepted delivery is
// verified against the webhook secret, deduped by event id and then applied
// through PaymentService. The gateway only ever sees 200 or 400: a 400 on a
// bad signature, a 200 for everything else so Razorpay does not retry events
// we have already handled or chosen to skip.
type Handler struct {
	gateway  verifier
	payments service.PaymentService
	events   webhookevent.Repository
	logger   *logger.Logger
}

type verifier interface {
	VerifyWebhookSignature(body []byte, signature string) bool
}

func NewHandler(gateway verifier, payments service.PaymentService, events webhookevent.Repository, log *logger.Logger) *Handler {
	return &Handler{
		gateway:  gateway,
		payments: payments,
		events:   events,
		logger:   log,
	}
}

func (h *Handler) Handle(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.logger.Errorw("failed to read webhook body", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"status": "invalid body"})
		return
	}

	signature := c.GetHeader(types.HeaderRazorpaySignature)
	if signature == "" || !h.gateway.VerifyWebhookSignature(body, signature) {
		h.logger.Warnw("webhook signature verification failed",
			"event_id", c.GetHeader(types.HeaderRazorpayEventID))
		c.JSON(http.StatusBadRequest, gin.H{"status": "invalid signature"})
		return
	}

	var event Event
	if err := json.Unmarshal(body, &event); err != nil {
		h.logger.Errorw("failed to parse webhook payload", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"status": "invalid payload"})
		return
	}

	eventID := c.GetHeader(types.HeaderRazorpayEventID)
	if eventID != "" {
		if duplicate, err := h.markProcessed(c, eventID, event.Name); err != nil {
			h.logger.Errorw("failed to record webhook event",
				"event_id", eventID,
				"error", err)
			c.JSON(http.StatusOK, gin.H{"status": "deferred"})
			return
		} else if duplicate {
			c.JSON(http.StatusOK, gin.H{"status": "duplicate"})
			return
		}
	}

	if err := h.dispatch(c, &event); err != nil {
		// Application errors are logged, never surfaced to the gateway. The
		// event is already marked processed; operators replay from logs.
		h.logger.Errorw("failed to apply webhook event",
			"event", event.Name,
			"event_id", eventID,
			"error", err)
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// markProcessed inserts the dedupe record. The unique event_id constraint is
// the arbiter under concurrent redelivery.
func (h *Handler) markProcessed(c *gin.Context, eventID, eventType string) (bool, error) {
	record := &webhookevent.ProcessedEvent{
		ID:          types.GenerateUUIDWithPrefix(types.UUID_PREFIX_WEBHOOK_EVENT),
		EventID:     eventID,
		EventType:   eventType,
		ProcessedAt: time.Now().UTC(),
	}
	if err := h.events.Create(c.Request.Context(), record); err != nil {
		if ierr.IsAlreadyExists(err) {
			h.logger.Debugw("skipping already processed webhook event", "event_id", eventID)
			return true, nil
		}
		return false, err
	}
	return false, nil
}

func (h *Handler) dispatch(c *gin.Context, event *Event) error {
	ctx := c.Request.Context()

	switch event.Name {
	case EventPaymentCaptured:
		if event.Payload.Payment == nil {
			h.logger.Warnw("payment.captured event without payment entity")
			return nil
		}
		p := event.Payload.Payment.Entity
		return h.payments.ApplyCapturedPayment(ctx, p.ID, p.OrderID, p.Amount, p.Currency)

	case EventSubscriptionCharged:
		if event.Payload.Subscription == nil || event.Payload.Payment == nil {
			h.logger.Warnw("subscription.charged event with incomplete payload")
			return nil
		}
		sub := event.Payload.Subscription.Entity
		p := event.Payload.Payment.Entity
		return h.payments.ApplySubscriptionCharged(ctx, sub.ID, p.ID, p.Amount, p.Currency)

	case EventSubscriptionCancelled:
		if event.Payload.Subscription == nil {
			h.logger.Warnw("subscription.cancelled event without subscription entity")
			return nil
		}
		return h.payments.ApplySubscriptionCancelled(ctx, event.Payload.Subscription.Entity.ID)

	default:
		h.logger.Debugw("ignoring unhandled webhook event", "event", event.Name)
		return nil
	}
}
