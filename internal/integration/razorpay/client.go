package razorpay

import (
	"context"

	"github.com/localpulse/localpulse/internal/config"
	ierr "github.com/localpulse/localpulse/internal/errors"
	"github.com/localpulse/localpulse/internal/logger"

	razorpay "github.com/razorpay/razorpay-go"
)

// Gateway defines the narrow contract the billing service has with Razorpay.
type Gateway interface {
	CreateOrder(ctx context.Context, amount int64, currency, receipt string, notes map[string]interface{}) (*Order, error)
	CreateCustomer(ctx context.Context, name, email string) (*Customer, error)
	// CreateAuthorizationOrder creates the small-value order used solely to
	// obtain a recurring-charge mandate for a customer.
	CreateAuthorizationOrder(ctx context.Context, customerID string, amount int64, currency string) (*Order, error)
	FetchPayment(ctx context.Context, paymentID string) (*Payment, error)

	// VerifyPaymentSignature checks the checkout callback signature
	// (HMAC-SHA256 over "orderID|paymentID" with the key secret).
	VerifyPaymentSignature(orderID, paymentID, signature string) bool
	// VerifyWebhookSignature checks a webhook delivery (HMAC-SHA256 over the
	// raw body with the webhook secret).
	VerifyWebhookSignature(body []byte, signature string) bool
}

// Client implements Gateway on top of the official Razorpay SDK.
type Client struct {
	sdk           *razorpay.Client
	keySecret     string
	webhookSecret string
	logger        *logger.Logger
}

// gateway calls are bounded so a slow Razorpay never hangs a request handler
const requestTimeoutSeconds = 30

func NewClient(cfg *config.Configuration, log *logger.Logger) Gateway {
	sdk := razorpay.NewClient(cfg.Razorpay.KeyID, cfg.Razorpay.KeySecret)
	sdk.SetTimeout(requestTimeoutSeconds)

	return &Client{
		sdk:           sdk,
		keySecret:     cfg.Razorpay.KeySecret,
		webhookSecret: cfg.Razorpay.WebhookSecret,
		logger:        log,
	}
}

// CreateOrder requests an order from Razorpay. It does not touch subscription
// state; order creation failures are retryable by the caller.
func (c *Client) CreateOrder(ctx context.Context, amount int64, currency, receipt string, notes map[string]interface{}) (*Order, error) {
	data := map[string]interface{}{
		"amount":          amount,
		"currency":        currency,
		"receipt":         receipt,
		"payment_capture": 1,
	}
	if len(notes) > 0 {
		data["notes"] = notes
	}

	resp, err := c.sdk.Order.Create(data, nil)
	if err != nil {
		c.logger.Errorw("failed to create razorpay order",
			"error", err,
			"amount", amount,
			"currency", currency)
		return nil, ierr.WithError(err).
			WithHint("Unable to create order with the payment gateway, please retry").
			Mark(ierr.ErrHTTPClient)
	}

	order := orderFromMap(resp)
	c.logger.Infow("created razorpay order",
		"order_id", order.ID,
		"amount", order.Amount,
		"currency", order.Currency)
	return order, nil
}

// CreateCustomer creates a Razorpay customer keyed by email. fail_existing=0
// makes the call idempotent: an existing customer is returned instead of a
// duplicate being created.
func (c *Client) CreateCustomer(ctx context.Context, name, email string) (*Customer, error) {
	data := map[string]interface{}{
		"name":          name,
		"email":         email,
		"fail_existing": "0",
	}

	resp, err := c.sdk.Customer.Create(data, nil)
	if err != nil {
		c.logger.Errorw("failed to create razorpay customer", "error", err, "email", email)
		return nil, ierr.WithError(err).
			WithHint("Unable to create customer with the payment gateway").
			Mark(ierr.ErrHTTPClient)
	}

	customer := customerFromMap(resp)
	c.logger.Infow("created razorpay customer", "customer_id", customer.ID, "email", email)
	return customer, nil
}

func (c *Client) CreateAuthorizationOrder(ctx context.Context, customerID string, amount int64, currency string) (*Order, error) {
	data := map[string]interface{}{
		"amount":          amount,
		"currency":        currency,
		"customer_id":     customerID,
		"payment_capture": 1,
		"notes": map[string]interface{}{
			"purpose": "mandate_authorization",
		},
	}

	resp, err := c.sdk.Order.Create(data, nil)
	if err != nil {
		c.logger.Errorw("failed to create mandate authorization order",
			"error", err,
			"customer_id", customerID)
		return nil, ierr.WithError(err).
			WithHint("Unable to create authorization order with the payment gateway").
			Mark(ierr.ErrHTTPClient)
	}

	order := orderFromMap(resp)
	c.logger.Infow("created mandate authorization order",
		"order_id", order.ID,
		"customer_id", customerID,
		"amount", order.Amount)
	return order, nil
}

func (c *Client) FetchPayment(ctx context.Context, paymentID string) (*Payment, error) {
	resp, err := c.sdk.Payment.Fetch(paymentID, nil, nil)
	if err != nil {
		c.logger.Errorw("failed to fetch razorpay payment", "error", err, "payment_id", paymentID)
		return nil, ierr.WithError(err).
			WithHint("Unable to fetch payment from the payment gateway").
			Mark(ierr.ErrHTTPClient)
	}
	return paymentFromMap(resp), nil
}
