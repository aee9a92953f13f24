package config

// EnvPrefix is handed to envconfig; every field declares its full WB_ name.
const EnvPrefix = "WB"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"

	EmailProviderNone = "none"
	EmailProviderSMTP = "smtp"
)

const (
	EnvAppEnv   = "WB_APP_ENV"
	EnvPort     = "WB_APP_PORT"
	EnvLogLevel = "WB_LOG_LEVEL"

	EnvDBDSN  = "WB_DB_DSN"
	EnvDBHost = "WB_DB_HOST"
	EnvDBUser = "WB_DB_USER"
	EnvDBName = "WB_DB_NAME"

	EnvUseSQLite   = "WB_USE_SQLITE"
	EnvAutoMigrate = "WB_AUTO_MIGRATE"

	EnvRedisURL = "WB_REDIS_URL"

	EnvJWTSecret  = "WB_JWT_SECRET"
	EnvJWTIssuer  = "WB_JWT_ISSUER"
	EnvJWTExpMins = "WB_JWT_EXPIRATION_MINUTES"

	EnvGCPProjectID = "WB_GCP_PROJECT_ID"

	EnvPubSubNotificationTopic = "WB_PUBSUB_NOTIFICATION_TOPIC"
	EnvPubSubNotificationSub   = "WB_PUBSUB_NOTIFICATION_SUBSCRIPTION"

	EnvStripeAPIKey = "WB_STRIPE_API_KEY"
	EnvStripeSecret = "WB_STRIPE_WEBHOOK_SECRET"

	EnvEmailProvider = "WB_EMAIL_PROVIDER"
	EnvSMTPHost      = "WB_SMTP_HOST"

	EnvReportingTimezone  = "WB_REPORTING_TIMEZONE"
	EnvReportingThreshold = "WB_REPORTING_LOW_STOCK_THRESHOLD"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
