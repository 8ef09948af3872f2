package testutil

import (
	"github.com/localpulse/localpulse/internal/cache"
	"github.com/localpulse/localpulse/internal/config"
	"github.com/localpulse/localpulse/internal/logger"

	"github.com/stretchr/testify/suite"
)

// Stores bundles the in-memory repository fakes used by service tests.
type Stores struct {
	SubscriptionRepo *InMemorySubscriptionStore
	PaymentRepo      *InMemoryPaymentStore
	CouponRepo       *InMemoryCouponStore
	WebhookEventRepo *InMemoryWebhookEventStore
}

// BaseServiceTestSuite wires the shared fixtures for service tests: a logger,
// the default configuration, fresh in-memory stores and an in-memory cache.
type BaseServiceTestSuite struct {
	suite.Suite
	logger *logger.Logger
	cfg    *config.Configuration
	stores Stores
	cache  cache.Cache
}

func (s *BaseServiceTestSuite) SetupTest() {
	var err error
	s.cfg = config.GetDefaultConfig()
	s.logger, err = logger.NewLogger(s.cfg)
	s.Require().NoError(err)

	s.stores = Stores{
		SubscriptionRepo: NewInMemorySubscriptionStore(),
		PaymentRepo:      NewInMemoryPaymentStore(),
		CouponRepo:       NewInMemoryCouponStore(),
		WebhookEventRepo: NewInMemoryWebhookEventStore(),
	}
	s.cache = cache.NewInMemoryCache()
}

func (s *BaseServiceTestSuite) TearDownTest() {
	s.ClearStores()
}

func (s *BaseServiceTestSuite) ClearStores() {
	s.stores.SubscriptionRepo.Clear()
	s.stores.PaymentRepo.Clear()
	s.stores.CouponRepo.Clear()
	s.stores.CouponRepo.ClearUsages()
	s.stores.WebhookEventRepo.Clear()
}

func (s *BaseServiceTestSuite) GetLogger() *logger.Logger       { return s.logger }
func (s *BaseServiceTestSuite) GetConfig() *config.Configuration { return s.cfg }
func (s *BaseServiceTestSuite) GetStores() Stores               { return s.stores }
func (s *BaseServiceTestSuite) GetCache() cache.Cache           { return s.cache }
