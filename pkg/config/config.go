package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Razorpay     RazorpayConfig
	Payments     PaymentsConfig
	Cron         CronConfig
	RateLimit    RateLimitConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Payments.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"BOOKIFY_APP_ENV" required:"true"`
	Port         string `envconfig:"BOOKIFY_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"BOOKIFY_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"BOOKIFY_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"BOOKIFY_LOG_WARN_STACK" default:"false"`

	CORSOrigins []string `envconfig:"BOOKIFY_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"BOOKIFY_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"BOOKIFY_DB_DSN"`
	Driver string `envconfig:"BOOKIFY_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"BOOKIFY_DB_HOST"`
	LegacyPort     int    `envconfig:"BOOKIFY_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"BOOKIFY_DB_USER"`
	LegacyPassword string `envconfig:"BOOKIFY_DB_PASSWORD"`
	LegacyName     string `envconfig:"BOOKIFY_DB_NAME"`
	LegacySSLMode  string `envconfig:"BOOKIFY_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"BOOKIFY_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"BOOKIFY_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"BOOKIFY_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"BOOKIFY_DB_CONN_MAX_IDLE_TIME" default:"10m"`
	SlowQuery       time.Duration `envconfig:"BOOKIFY_DB_SLOW_QUERY" default:"500ms"`
}

type RedisConfig struct {
	URL          string        `envconfig:"BOOKIFY_REDIS_URL" required:"true"`
	Address      string        `envconfig:"BOOKIFY_REDIS_ADDR"`
	Password     string        `envconfig:"BOOKIFY_REDIS_PASSWORD"`
	DB           int           `envconfig:"BOOKIFY_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"BOOKIFY_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"BOOKIFY_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"BOOKIFY_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"BOOKIFY_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"BOOKIFY_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// JWTConfig validates access tokens minted by the identity service.
type JWTConfig struct {
	Secret string `envconfig:"BOOKIFY_JWT_SECRET" required:"true"`
	Issuer string `envconfig:"BOOKIFY_JWT_ISSUER" required:"true"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"BOOKIFY_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"BOOKIFY_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"BOOKIFY_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"BOOKIFY_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"BOOKIFY_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	PaymentsTopic string `envconfig:"BOOKIFY_PUBSUB_PAYMENTS_TOPIC" default:"bookify-payment-events"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"BOOKIFY_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"BOOKIFY_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"BOOKIFY_OUTBOX_MAX_ATTEMPTS" default:"10"`
	RetentionDays  int `envconfig:"BOOKIFY_OUTBOX_RETENTION_DAYS" default:"30"`
}

type RazorpayConfig struct {
	KeyID         string        `envconfig:"BOOKIFY_RAZORPAY_KEY_ID" required:"true"`
	KeySecret     string        `envconfig:"BOOKIFY_RAZORPAY_KEY_SECRET" required:"true"`
	WebhookSecret string        `envconfig:"BOOKIFY_RAZORPAY_WEBHOOK_SECRET"`
	WebhookTTL    time.Duration `envconfig:"BOOKIFY_RAZORPAY_WEBHOOK_DEDUPE_TTL" default:"72h"`
	Currency      string        `envconfig:"BOOKIFY_RAZORPAY_CURRENCY" default:"INR"`
	Timeout       time.Duration `envconfig:"BOOKIFY_RAZORPAY_TIMEOUT" default:"10s"`
}

// PaymentsConfig tunes the reconciliation engine.
type PaymentsConfig struct {
	// PendingOrderTTL is how long an unpaid order may stay pending before the sweep cancels it.
	PendingOrderTTL         time.Duration `envconfig:"BOOKIFY_PAYMENTS_PENDING_ORDER_TTL" default:"30m"`
	AllowCancelAfterCapture bool          `envconfig:"BOOKIFY_PAYMENTS_ALLOW_CANCEL_AFTER_CAPTURE" default:"false"`
	SubscriptionDefaultDays int           `envconfig:"BOOKIFY_PAYMENTS_SUBSCRIPTION_DEFAULT_DAYS" default:"30"`
}

func (p PaymentsConfig) validate() error {
	if p.PendingOrderTTL <= 0 {
		return fmt.Errorf("%s must be positive", EnvPaymentsPendingTTL)
	}
	if p.SubscriptionDefaultDays <= 0 {
		return fmt.Errorf("%s must be positive", EnvPaymentsSubscriptionDays)
	}
	return nil
}

type CronConfig struct {
	Interval    time.Duration `envconfig:"BOOKIFY_CRON_INTERVAL" default:"1m"`
	LockTTL     time.Duration `envconfig:"BOOKIFY_CRON_LOCK_TTL" default:"55s"`
	SweepBatch  int           `envconfig:"BOOKIFY_CRON_SWEEP_BATCH" default:"100"`
	LockEnabled bool          `envconfig:"BOOKIFY_CRON_LOCK_ENABLED" default:"true"`
	// MetricsAddr serves /metrics for the worker; empty disables the listener.
	MetricsAddr string        `envconfig:"BOOKIFY_CRON_METRICS_ADDR" default:":9091"`
}

// RateLimitConfig throttles the unauthenticated verify endpoint per client IP.
type RateLimitConfig struct {
	VerifyWindow time.Duration `envconfig:"BOOKIFY_RATE_LIMIT_VERIFY_WINDOW" default:"1m"`
	VerifyLimit  int           `envconfig:"BOOKIFY_RATE_LIMIT_VERIFY_LIMIT" default:"30"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
