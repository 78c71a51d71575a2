package config

const (
	EnvPrefix = "FULFILLMENT"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DriverPostgres   = "postgres"
	DriverSQLite     = "sqlite"
	DefaultSQLiteDSN = "file:fulfillment.db?_foreign_keys=on"
)

const (
	EnvAppEnv   = "FULFILLMENT_APP_ENV"
	EnvPort     = "FULFILLMENT_APP_PORT"
	EnvLogLevel = "FULFILLMENT_LOG_LEVEL"

	EnvDBDSN    = "FULFILLMENT_DB_DSN"
	EnvDBDriver = "FULFILLMENT_DB_DRIVER"
	EnvDBHost   = "FULFILLMENT_DB_HOST"
	EnvDBPort   = "FULFILLMENT_DB_PORT"
	EnvDBUser   = "FULFILLMENT_DB_USER"
	EnvDBPass   = "FULFILLMENT_DB_PASSWORD"
	EnvDBName   = "FULFILLMENT_DB_NAME"

	EnvRedisURL = "FULFILLMENT_REDIS_URL"

	EnvJWTSecret  = "FULFILLMENT_JWT_SECRET"
	EnvJWTIssuer  = "FULFILLMENT_JWT_ISSUER"
	EnvJWTExpMins = "FULFILLMENT_JWT_EXPIRATION_MINUTES"

	EnvUseSQLite = "FULFILLMENT_USE_SQLITE"

	EnvGCPProjectID        = "FULFILLMENT_GCP_PROJECT_ID"
	EnvPubSubNotifTopic    = "FULFILLMENT_PUBSUB_NOTIFICATION_TOPIC"
	EnvPubSubNotifSub      = "FULFILLMENT_PUBSUB_NOTIFICATION_SUBSCRIPTION"
	EnvPubSubOrdersTopic   = "FULFILLMENT_PUBSUB_ORDERS_TOPIC"
	EnvSiteName            = "FULFILLMENT_SITE_NAME"
	EnvBillingTaxRate      = "FULFILLMENT_BILLING_TAX_RATE"
	EnvBillingShippingCost = "FULFILLMENT_BILLING_DEFAULT_SHIPPING_CENTS"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
