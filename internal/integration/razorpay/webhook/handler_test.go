package webhook

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/localpulse/localpulse/internal/api/dto"
	"github.com/localpulse/localpulse/internal/domain/subscription"
	"github.com/localpulse/localpulse/internal/logger"
	"github.com/localpulse/localpulse/internal/testutil"
	"github.com/localpulse/localpulse/internal/types"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type allowAllVerifier struct{ reject bool }

func (v allowAllVerifier) VerifyWebhookSignature(body []byte, signature string) bool {
	return !v.reject
}

// recordingPaymentService counts webhook applications; the interactive
// methods are unused by the handler.
type recordingPaymentService struct {
	captured  int
	charged   int
	cancelled int
}

func (r *recordingPaymentService) CreateOrder(ctx context.Context, identity subscription.Identity, req *dto.CreateOrderRequest) (*dto.CreateOrderResponse, error) {
	return nil, nil
}

func (r *recordingPaymentService) VerifyPayment(ctx context.Context, identity subscription.Identity, req *dto.VerifyPaymentRequest) (*dto.SubscriptionResponse, error) {
	return nil, nil
}

func (r *recordingPaymentService) SetupMandate(ctx context.Context, identity subscription.Identity) (*dto.SetupMandateResponse, error) {
	return nil, nil
}

func (r *recordingPaymentService) CreateAuthorizationOrder(ctx context.Context, identity subscription.Identity) (*dto.CreateOrderResponse, error) {
	return nil, nil
}

func (r *recordingPaymentService) VerifyMandate(ctx context.Context, identity subscription.Identity, req *dto.VerifyMandateRequest) (*dto.SubscriptionResponse, error) {
	return nil, nil
}

func (r *recordingPaymentService) ListPayments(ctx context.Context, identity subscription.Identity) ([]*dto.PaymentResponse, error) {
	return nil, nil
}

func (r *recordingPaymentService) ApplyCapturedPayment(ctx context.Context, gatewayPaymentID, gatewayOrderID string, amount int64, currency string) error {
	r.captured++
	return nil
}

func (r *recordingPaymentService) ApplySubscriptionCharged(ctx context.Context, gatewaySubscriptionID, gatewayPaymentID string, amount int64, currency string) error {
	r.charged++
	return nil
}

func (r *recordingPaymentService) ApplySubscriptionCancelled(ctx context.Context, gatewaySubscriptionID string) error {
	r.cancelled++
	return nil
}

func newTestRouter(t *testing.T, verifier allowAllVerifier, payments *recordingPaymentService) (*gin.Engine, *testutil.InMemoryWebhookEventStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	events := testutil.NewInMemoryWebhookEventStore()
	handler := NewHandler(verifier, payments, events, logger.L)

	router := gin.New()
	router.POST("/webhooks/razorpay", handler.Handle)
	return router, events
}

func deliver(router *gin.Engine, body, eventID string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhooks/razorpay", bytes.NewBufferString(body))
	req.Header.Set(types.HeaderRazorpaySignature, "sig")
	if eventID != "" {
		req.Header.Set(types.HeaderRazorpayEventID, eventID)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

const capturedEvent = `{
	"entity": "event",
	"event": "payment.captured",
	"payload": {
		"payment": {
			"entity": {
				"id": "pay_wh1",
				"order_id": "order_wh1",
				"amount": 9900,
				"currency": "INR",
				"status": "captured"
			}
		}
	}
}`

func TestHandleCapturedPayment(t *testing.T) {
	payments := &recordingPaymentService{}
	router, _ := newTestRouter(t, allowAllVerifier{}, payments)

	w := deliver(router, capturedEvent, "evt_1")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, payments.captured)
}

func TestHandleDeduplicatesByEventID(t *testing.T) {
	payments := &recordingPaymentService{}
	router, events := newTestRouter(t, allowAllVerifier{}, payments)

	first := deliver(router, capturedEvent, "evt_dup")
	require.Equal(t, http.StatusOK, first.Code)

	second := deliver(router, capturedEvent, "evt_dup")
	assert.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, 1, payments.captured)

	exists, err := events.Exists(context.Background(), "evt_dup")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestHandleRejectsBadSignature(t *testing.T) {
	payments := &recordingPaymentService{}
	router, _ := newTestRouter(t, allowAllVerifier{reject: true}, payments)

	w := deliver(router, capturedEvent, "evt_bad")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 0, payments.captured)
}

func TestHandleIgnoresUnknownEvents(t *testing.T) {
	payments := &recordingPaymentService{}
	router, _ := newTestRouter(t, allowAllVerifier{}, payments)

	w := deliver(router, `{"event":"refund.processed","payload":{}}`, "evt_other")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, payments.captured)
	assert.Equal(t, 0, payments.charged)
	assert.Equal(t, 0, payments.cancelled)
}

func TestHandleSubscriptionEvents(t *testing.T) {
	payments := &recordingPaymentService{}
	router, _ := newTestRouter(t, allowAllVerifier{}, payments)

	charged := `{
		"event": "subscription.charged",
		"payload": {
			"subscription": {"entity": {"id": "rzpsub_1", "status": "active"}},
			"payment": {"entity": {"id": "pay_wh2", "amount": 9900, "currency": "INR"}}
		}
	}`
	w := deliver(router, charged, "evt_charged")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, payments.charged)

	cancelled := `{
		"event": "subscription.cancelled",
		"payload": {
			"subscription": {"entity": {"id": "rzpsub_1", "status": "cancelled"}}
		}
	}`
	w = deliver(router, cancelled, "evt_cancelled")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, payments.cancelled)
}
