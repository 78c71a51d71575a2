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
	RateLimit    RateLimitConfig
	FeatureFlags FeatureFlagsConfig
	Eventing     EventingConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Sendgrid     SendgridConfig
	Site         SiteConfig
	Billing      BillingConfig
	Cron         CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"FULFILLMENT_APP_ENV" required:"true"`
	Port         string `envconfig:"FULFILLMENT_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"FULFILLMENT_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"FULFILLMENT_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"FULFILLMENT_LOG_WARN_STACK" default:"false"`

	ShutdownTimeout time.Duration `envconfig:"FULFILLMENT_SHUTDOWN_TIMEOUT" default:"15s"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd) || strings.EqualFold(a.Env, "production")
}

type ServiceConfig struct {
	Kind string `envconfig:"FULFILLMENT_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"FULFILLMENT_DB_DSN"`
	Driver string `envconfig:"FULFILLMENT_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"FULFILLMENT_DB_HOST"`
	LegacyPort     int    `envconfig:"FULFILLMENT_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"FULFILLMENT_DB_USER"`
	LegacyPassword string `envconfig:"FULFILLMENT_DB_PASSWORD"`
	LegacyName     string `envconfig:"FULFILLMENT_DB_NAME"`
	LegacySSLMode  string `envconfig:"FULFILLMENT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"FULFILLMENT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"FULFILLMENT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"FULFILLMENT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"FULFILLMENT_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	SlowQueryThreshold time.Duration `envconfig:"FULFILLMENT_DB_SLOW_QUERY_THRESHOLD" default:"500ms"`
}

// IsSQLite reports whether the configured driver targets sqlite.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), DriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"FULFILLMENT_REDIS_URL" required:"true"`
	Address      string        `envconfig:"FULFILLMENT_REDIS_ADDR"`
	Password     string        `envconfig:"FULFILLMENT_REDIS_PASSWORD"`
	DB           int           `envconfig:"FULFILLMENT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"FULFILLMENT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"FULFILLMENT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"FULFILLMENT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"FULFILLMENT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"FULFILLMENT_REDIS_WRITE_TIMEOUT" default:"5s"`
	Namespace    string        `envconfig:"FULFILLMENT_REDIS_NAMESPACE" default:"ft"`
}

type JWTConfig struct {
	Secret            string `envconfig:"FULFILLMENT_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"FULFILLMENT_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"FULFILLMENT_JWT_EXPIRATION_MINUTES" required:"true"`
}

// TokenTTL returns the access token lifetime.
func (j JWTConfig) TokenTTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

// RateLimitConfig bounds authenticated API traffic per client IP and per user.
type RateLimitConfig struct {
	Window    time.Duration `envconfig:"FULFILLMENT_RATE_LIMIT_WINDOW" default:"1m"`
	IPLimit   int           `envconfig:"FULFILLMENT_RATE_LIMIT_IP_LIMIT" default:"300"`
	UserLimit int           `envconfig:"FULFILLMENT_RATE_LIMIT_USER_LIMIT" default:"120"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"FULFILLMENT_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"FULFILLMENT_AUTO_MIGRATE" default:"false"`
}

type EventingConfig struct {
	OutboxIdempotencyTTL time.Duration `envconfig:"FULFILLMENT_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
	IdempotencyKeyTTL    time.Duration `envconfig:"FULFILLMENT_HTTP_IDEMPOTENCY_TTL" default:"24h"`
}

type GCPConfig struct {
	ProjectID       string `envconfig:"FULFILLMENT_GCP_PROJECT_ID"`
	CredentialsJSON string `envconfig:"FULFILLMENT_GCP_CREDENTIALS_JSON"`
}

type PubSubConfig struct {
	NotificationTopic        string `envconfig:"FULFILLMENT_PUBSUB_NOTIFICATION_TOPIC" default:"ft-notification-events"`
	NotificationSubscription string `envconfig:"FULFILLMENT_PUBSUB_NOTIFICATION_SUBSCRIPTION" default:"ft-notification-email"`
	OrdersTopic              string `envconfig:"FULFILLMENT_PUBSUB_ORDERS_TOPIC" default:"ft-order-events"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"FULFILLMENT_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"FULFILLMENT_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"FULFILLMENT_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type SendgridConfig struct {
	APIKey  string        `envconfig:"FULFILLMENT_SENDGRID_API_KEY"`
	BaseURL string        `envconfig:"FULFILLMENT_SENDGRID_BASE_URL" default:"https://api.sendgrid.com"`
	Timeout time.Duration `envconfig:"FULFILLMENT_SENDGRID_TIMEOUT" default:"10s"`
}

// SiteConfig carries the storefront identity used when rendering outbound messages.
type SiteConfig struct {
	Name         string `envconfig:"FULFILLMENT_SITE_NAME" default:"EquipTrade"`
	FromEmail    string `envconfig:"FULFILLMENT_SITE_FROM_EMAIL" default:"no-reply@equiptrade.dz"`
	SupportEmail string `envconfig:"FULFILLMENT_SITE_SUPPORT_EMAIL" default:"support@equiptrade.dz"`
	BaseURL      string `envconfig:"FULFILLMENT_SITE_BASE_URL" default:"http://localhost:3000"`
}

type BillingConfig struct {
	TaxRate              string `envconfig:"FULFILLMENT_BILLING_TAX_RATE" default:"0.19"`
	DefaultShippingCents int64  `envconfig:"FULFILLMENT_BILLING_DEFAULT_SHIPPING_CENTS" default:"50000"`
	Currency             string `envconfig:"FULFILLMENT_BILLING_CURRENCY" default:"DZD"`
	PaymentInstructions  string `envconfig:"FULFILLMENT_BILLING_PAYMENT_INSTRUCTIONS" default:"Pay by BaridiMob, CCP cheque or bank transfer and upload the proof from your invoice page."`
}

type CronConfig struct {
	Interval                  time.Duration `envconfig:"FULFILLMENT_CRON_INTERVAL" default:"1h"`
	JobTimeout                time.Duration `envconfig:"FULFILLMENT_CRON_JOB_TIMEOUT" default:"10m"`
	LockTTL                   time.Duration `envconfig:"FULFILLMENT_CRON_LOCK_TTL" default:"55m"`
	PaymentWindow             time.Duration `envconfig:"FULFILLMENT_CRON_PAYMENT_WINDOW" default:"168h"`
	// zero keeps read notifications forever
	NotificationRetention     time.Duration `envconfig:"FULFILLMENT_CRON_NOTIFICATION_RETENTION" default:"0"`
	OutboxRetentionDays       int           `envconfig:"FULFILLMENT_CRON_OUTBOX_RETENTION_DAYS" default:"30"`
	OutboxRetentionMinAttempt int           `envconfig:"FULFILLMENT_CRON_OUTBOX_RETENTION_MIN_ATTEMPTS" default:"0"`
}

func (db *DBConfig) ensureDSN(useSQLite bool) error {
	if useSQLite {
		db.Driver = DriverSQLite
	}
	if db.DSN != "" {
		return nil
	}
	if db.IsSQLite() {
		db.DSN = DefaultSQLiteDSN
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
