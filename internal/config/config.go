package config

import (
	"reflect"
	"strings"

	ierr "github.com/localpulse/localpulse/internal/errors"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Configuration is the root configuration for the billing service. Values are
// loaded from config.yaml and LOCALPULSE_* environment variables.
type Configuration struct {
	Server   ServerConfig   `mapstructure:"server"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Razorpay RazorpayConfig `mapstructure:"razorpay"`
	Billing  BillingConfig  `mapstructure:"billing"`
	GBP      GBPConfig      `mapstructure:"gbp"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Sentry   SentryConfig   `mapstructure:"sentry"`
	Cron     CronConfig     `mapstructure:"cron"`
}

type ServerConfig struct {
	Address string `mapstructure:"address" default:":8080"`
}

type PostgresConfig struct {
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	User        string `mapstructure:"user"`
	Password    string `mapstructure:"password"`
	DBName      string `mapstructure:"dbname"`
	SSLMode     string `mapstructure:"sslmode"`
	AutoMigrate bool   `mapstructure:"auto_migrate"`
}

type AuthConfig struct {
	// Secret is the JWT signing secret shared with the identity provider.
	Secret   string         `mapstructure:"secret"`
	Supabase SupabaseConfig `mapstructure:"supabase"`
}

type SupabaseConfig struct {
	BaseURL    string `mapstructure:"base_url"`
	ServiceKey string `mapstructure:"service_key"`
}

type RazorpayConfig struct {
	KeyID         string `mapstructure:"key_id"`
	KeySecret     string `mapstructure:"key_secret"`
	WebhookSecret string `mapstructure:"webhook_secret"`
	// AuthorizationAmount is the small charge, in paise, used to obtain a
	// recurring mandate. Razorpay refunds it per its own policy.
	AuthorizationAmount int64  `mapstructure:"authorization_amount"`
	Currency            string `mapstructure:"currency"`
}

type BillingConfig struct {
	TrialDays int `mapstructure:"trial_days"`
	// PricePerProfile is the monthly price per managed business profile.
	PricePerProfile decimal.Decimal `mapstructure:"price_per_profile"`
}

type GBPConfig struct {
	BaseURL     string `mapstructure:"base_url"`
	AccessToken string `mapstructure:"access_token"`
}

type LoggingConfig struct {
	Level          string `mapstructure:"level"`
	FluentdEnabled bool   `mapstructure:"fluentd_enabled"`
	FluentdHost    string `mapstructure:"fluentd_host"`
	FluentdPort    int    `mapstructure:"fluentd_port"`
}

type CacheConfig struct {
	Type       string      `mapstructure:"type"`
	TTLSeconds int         `mapstructure:"ttl_seconds"`
	Redis      RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type SentryConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	DSN         string  `mapstructure:"dsn"`
	Environment string  `mapstructure:"environment"`
	SampleRate  float64 `mapstructure:"sample_rate"`
}

type CronConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// ReconcileSpec and ExpirySweepSpec are standard cron expressions.
	ReconcileSpec   string `mapstructure:"reconcile_spec"`
	ExpirySweepSpec string `mapstructure:"expiry_sweep_spec"`
}

// NewConfig loads configuration from file and environment.
func NewConfig() (*Configuration, error) {
	// .env is optional and only used in local development
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(".")
	v.SetEnvPrefix("localpulse")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, ierr.WithError(err).
				WithHint("Failed to read configuration file").
				Mark(ierr.ErrSystem)
		}
	}

	cfg := GetDefaultConfig()
	if err := v.Unmarshal(cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		decimalDecodeHook,
	))); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to unmarshal configuration").
			Mark(ierr.ErrSystem)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", ":8080")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.sslmode", "require")
	v.SetDefault("postgres.auto_migrate", false)
	v.SetDefault("razorpay.authorization_amount", 100)
	v.SetDefault("razorpay.currency", "INR")
	v.SetDefault("billing.trial_days", 15)
	v.SetDefault("billing.price_per_profile", "99")
	v.SetDefault("gbp.base_url", "https://mybusinessbusinessinformation.googleapis.com/v1")
	v.SetDefault("logging.level", "info")
	v.SetDefault("cache.type", "inmemory")
	v.SetDefault("cache.ttl_seconds", 60)
	v.SetDefault("sentry.sample_rate", 1.0)
	v.SetDefault("cron.enabled", true)
	v.SetDefault("cron.reconcile_spec", "0 3 * * *")
	v.SetDefault("cron.expiry_sweep_spec", "30 * * * *")
}

// decimalDecodeHook lets viper decode string/number config values into
// decimal.Decimal fields.
func decimalDecodeHook(_ reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
	if to != reflect.TypeOf(decimal.Decimal{}) {
		return data, nil
	}
	switch v := data.(type) {
	case string:
		return decimal.NewFromString(v)
	case int:
		return decimal.NewFromInt(int64(v)), nil
	case int64:
		return decimal.NewFromInt(v), nil
	case float64:
		return decimal.NewFromFloat(v), nil
	}
	return data, nil
}

// GetDefaultConfig returns a configuration with defaults only. Used by the
// package-level logger before full configuration is available and by tests.
func GetDefaultConfig() *Configuration {
	return &Configuration{
		Server: ServerConfig{Address: ":8080"},
		Razorpay: RazorpayConfig{
			AuthorizationAmount: 100,
			Currency:            "INR",
		},
		Billing: BillingConfig{
			TrialDays:       15,
			PricePerProfile: decimal.NewFromInt(99),
		},
		Logging: LoggingConfig{Level: "info"},
		Cache:   CacheConfig{Type: "inmemory", TTLSeconds: 60},
		Cron: CronConfig{
			Enabled:         true,
			ReconcileSpec:   "0 3 * * *",
			ExpirySweepSpec: "30 * * * *",
		},
	}
}

// Validate enforces the fail-fast policy: billing must never silently run
// without gateway or store credentials.
func (c *Configuration) Validate() error {
	if c.Razorpay.KeyID == "" || c.Razorpay.KeySecret == "" {
		return ierr.NewError("razorpay credentials are not configured").
			WithHint("Set razorpay.key_id and razorpay.key_secret").
			Mark(ierr.ErrSystem)
	}
	if c.Razorpay.WebhookSecret == "" {
		return ierr.NewError("razorpay webhook secret is not configured").
			WithHint("Set razorpay.webhook_secret").
			Mark(ierr.ErrSystem)
	}
	if c.Postgres.Host == "" || c.Postgres.User == "" || c.Postgres.DBName == "" {
		return ierr.NewError("postgres credentials are not configured").
			WithHint("Set postgres.host, postgres.user and postgres.dbname").
			Mark(ierr.ErrSystem)
	}
	if c.Billing.TrialDays <= 0 {
		return ierr.NewError("billing.trial_days must be positive").
			Mark(ierr.ErrValidation)
	}
	return nil
}
