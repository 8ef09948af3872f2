package testutil

import (
	"context"
	"fmt"
	"sync"

	ierr "github.com/localpulse/localpulse/internal/errors"
	"github.com/localpulse/localpulse/internal/integration/razorpay"
)

// FakeGateway implements razorpay.Gateway in memory. Signature checks pass by
// default; set RejectSignatures to exercise the fail-closed paths.
type FakeGateway struct {
	mu sync.Mutex

	RejectSignatures bool
	FailCalls        bool

	orders    []*razorpay.Order
	customers []*razorpay.Customer
	payments  map[string]*razorpay.Payment
	seq       int
}

func NewFakeGateway() *FakeGateway {
	return &FakeGateway{
		payments: make(map[string]*razorpay.Payment),
	}
}

func (g *FakeGateway) CreateOrder(ctx context.Context, amount int64, currency, receipt string, notes map[string]interface{}) (*razorpay.Order, error) {
	if g.FailCalls {
		return nil, ierr.NewError("gateway unavailable").Mark(ierr.ErrHTTPClient)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	order := &razorpay.Order{
		ID:       fmt.Sprintf("order_test%03d", g.seq),
		Amount:   amount,
		Currency: currency,
		Receipt:  receipt,
		Status:   "created",
	}
	g.orders = append(g.orders, order)
	return order, nil
}

func (g *FakeGateway) CreateCustomer(ctx context.Context, name, email string) (*razorpay.Customer, error) {
	if g.FailCalls {
		return nil, ierr.NewError("gateway unavailable").Mark(ierr.ErrHTTPClient)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, c := range g.customers {
		if c.Email == email {
			return c, nil
		}
	}
	g.seq++
	customer := &razorpay.Customer{
		ID:    fmt.Sprintf("cust_test%03d", g.seq),
		Name:  name,
		Email: email,
	}
	g.customers = append(g.customers, customer)
	return customer, nil
}

func (g *FakeGateway) CreateAuthorizationOrder(ctx context.Context, customerID string, amount int64, currency string) (*razorpay.Order, error) {
	return g.CreateOrder(ctx, amount, currency, customerID, nil)
}

// AddPayment registers a payment so FetchPayment can return it.
func (g *FakeGateway) AddPayment(p *razorpay.Payment) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.payments[p.ID] = p
}

func (g *FakeGateway) FetchPayment(ctx context.Context, paymentID string) (*razorpay.Payment, error) {
	if g.FailCalls {
		return nil, ierr.NewError("gateway unavailable").Mark(ierr.ErrHTTPClient)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	p, ok := g.payments[paymentID]
	if !ok {
		return nil, ierr.NewError("payment not found").Mark(ierr.ErrNotFound)
	}
	return p, nil
}

func (g *FakeGateway) VerifyPaymentSignature(orderID, paymentID, signature string) bool {
	return !g.RejectSignatures
}

func (g *FakeGateway) VerifyWebhookSignature(body []byte, signature string) bool {
	return !g.RejectSignatures
}

// Orders returns every order created so far.
func (g *FakeGateway) Orders() []*razorpay.Order {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]*razorpay.Order, len(g.orders))
	copy(out, g.orders)
	return out
}
