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
	Password     PasswordConfig
	RateLimit    RateLimitConfig
	FeatureFlags FeatureFlagsConfig
	Eventing     EventingConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Stripe       StripeConfig
	Email        EmailConfig
	Reporting    ReportingConfig
	CORS         CORSConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.FeatureFlags.UseSQLite {
		cfg.DB.Driver = DBDriverSQLite
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	if _, err := cfg.Reporting.Location(); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", EnvReportingTimezone, err)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"WB_APP_ENV" required:"true"`
	Port         string `envconfig:"WB_APP_PORT" default:"5000"`
	LogLevel     string `envconfig:"WB_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"WB_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev) || strings.EqualFold(a.Env, "development")
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd) || strings.EqualFold(a.Env, "production")
}

type ServiceConfig struct {
	Kind string `envconfig:"WB_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"WB_DB_DSN"`
	Driver string `envconfig:"WB_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"WB_DB_HOST"`
	LegacyPort     int    `envconfig:"WB_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"WB_DB_USER"`
	LegacyPassword string `envconfig:"WB_DB_PASSWORD"`
	LegacyName     string `envconfig:"WB_DB_NAME"`
	LegacySSLMode  string `envconfig:"WB_DB_SSLMODE" default:"disable"`

	SQLitePath string `envconfig:"WB_SQLITE_PATH" default:"workoutbrothers.db"`

	MaxOpenConns    int           `envconfig:"WB_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"WB_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"WB_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"WB_DB_CONN_MAX_IDLE_TIME" default:"10m"`
	SlowQuery       time.Duration `envconfig:"WB_DB_SLOW_QUERY" default:"200ms"`
}

// UsesSQLite reports whether the embedded sqlite driver is selected.
func (db DBConfig) UsesSQLite() bool {
	return strings.EqualFold(db.Driver, DBDriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"WB_REDIS_URL" required:"true"`
	Address      string        `envconfig:"WB_REDIS_ADDR"`
	Password     string        `envconfig:"WB_REDIS_PASSWORD"`
	DB           int           `envconfig:"WB_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"WB_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"WB_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"WB_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"WB_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"WB_REDIS_WRITE_TIMEOUT" default:"5s"`
	KeyPrefix    string        `envconfig:"WB_REDIS_KEY_PREFIX" default:"wb"`
}

type JWTConfig struct {
	Secret            string `envconfig:"WB_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"WB_JWT_ISSUER" default:"workoutbrothers"`
	ExpirationMinutes int    `envconfig:"WB_JWT_EXPIRATION_MINUTES" default:"1440"`
}

// TTL returns the access token lifetime.
func (j JWTConfig) TTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"WB_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"WB_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"WB_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"WB_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"WB_ARGON_KEY_LEN" default:"32"`
}

// RateLimitConfig holds the fixed-window limits applied per route group.
type RateLimitConfig struct {
	APIWindow   time.Duration `envconfig:"WB_RATE_LIMIT_API_WINDOW" default:"15m"`
	APILimit    int           `envconfig:"WB_RATE_LIMIT_API_LIMIT" default:"100"`
	AuthWindow  time.Duration `envconfig:"WB_RATE_LIMIT_AUTH_WINDOW" default:"15m"`
	AuthLimit   int           `envconfig:"WB_RATE_LIMIT_AUTH_LIMIT" default:"5"`
	AdminWindow time.Duration `envconfig:"WB_RATE_LIMIT_ADMIN_WINDOW" default:"15m"`
	AdminLimit  int           `envconfig:"WB_RATE_LIMIT_ADMIN_LIMIT" default:"10"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"WB_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"WB_AUTO_MIGRATE" default:"false"`
}

type EventingConfig struct {
	ConsumerIdempotencyTTL time.Duration `envconfig:"WB_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"WB_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"WB_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"WB_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	NotificationTopic        string        `envconfig:"WB_PUBSUB_NOTIFICATION_TOPIC" default:"wb-notification-events"`
	NotificationSubscription string        `envconfig:"WB_PUBSUB_NOTIFICATION_SUBSCRIPTION" default:"wb-notification-events-sub"`
	DialTimeout              time.Duration `envconfig:"WB_PUBSUB_DIAL_TIMEOUT" default:"10s"`
}

type OutboxConfig struct {
	BatchSize      int           `envconfig:"WB_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int           `envconfig:"WB_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int           `envconfig:"WB_OUTBOX_MAX_ATTEMPTS" default:"10"`
	Retention      time.Duration `envconfig:"WB_OUTBOX_RETENTION" default:"720h"`
}

type StripeConfig struct {
	APIKey   string        `envconfig:"WB_STRIPE_API_KEY"`
	Secret   string        `envconfig:"WB_STRIPE_WEBHOOK_SECRET"`
	Env      string        `envconfig:"WB_STRIPE_ENV" default:"test"`
	Currency string        `envconfig:"WB_STRIPE_CURRENCY" default:"usd"`
	Timeout  time.Duration `envconfig:"WB_STRIPE_TIMEOUT" default:"10s"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

// Enabled reports whether payment endpoints can reach Stripe.
func (s StripeConfig) Enabled() bool {
	return strings.TrimSpace(s.APIKey) != ""
}

type EmailConfig struct {
	Provider     string        `envconfig:"WB_EMAIL_PROVIDER" default:"none"`
	SMTPHost     string        `envconfig:"WB_SMTP_HOST"`
	SMTPPort     int           `envconfig:"WB_SMTP_PORT" default:"587"`
	SMTPUser     string        `envconfig:"WB_SMTP_USER"`
	SMTPPassword string        `envconfig:"WB_SMTP_PASSWORD"`
	From         string        `envconfig:"WB_EMAIL_FROM" default:"noreply@workoutbrothers.com"`
	AdminAddress string        `envconfig:"WB_ADMIN_EMAIL" default:"admin@workoutbrothers.com"`
	SendTimeout  time.Duration `envconfig:"WB_EMAIL_SEND_TIMEOUT" default:"15s"`
}

// SMTPEnabled reports whether outbound email goes through SMTP.
func (e EmailConfig) SMTPEnabled() bool {
	return strings.EqualFold(strings.TrimSpace(e.Provider), EmailProviderSMTP) && e.SMTPHost != ""
}

type ReportingConfig struct {
	LowStockThreshold int           `envconfig:"WB_REPORTING_LOW_STOCK_THRESHOLD" default:"10"`
	Timezone          string        `envconfig:"WB_REPORTING_TIMEZONE" default:"Europe/Paris"`
	StockCheckHour    int           `envconfig:"WB_REPORTING_STOCK_CHECK_HOUR" default:"8"`
	WeeklyReportHour  int           `envconfig:"WB_REPORTING_WEEKLY_HOUR" default:"9"`
	MonthlyReportHour int           `envconfig:"WB_REPORTING_MONTHLY_HOUR" default:"9"`
	TickInterval      time.Duration `envconfig:"WB_REPORTING_TICK_INTERVAL" default:"1m"`
}

// Location resolves the configured reporting timezone.
func (r ReportingConfig) Location() (*time.Location, error) {
	name := strings.TrimSpace(r.Timezone)
	if name == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(name)
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"WB_CORS_ALLOWED_ORIGINS" default:"*"`
}

func (db *DBConfig) ensureDSN(useSQLite bool) error {
	if db.DSN != "" || useSQLite {
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
