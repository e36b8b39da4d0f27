package config

const (
	EnvPrefix = "BOOKIFY"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv = "BOOKIFY_APP_ENV"
	EnvPort   = "BOOKIFY_APP_PORT"

	EnvDBDSN  = "BOOKIFY_DB_DSN"
	EnvDBHost = "BOOKIFY_DB_HOST"
	EnvDBUser = "BOOKIFY_DB_USER"
	EnvDBName = "BOOKIFY_DB_NAME"

	EnvRedisURL = "BOOKIFY_REDIS_URL"

	EnvJWTSecret = "BOOKIFY_JWT_SECRET"
	EnvJWTIssuer = "BOOKIFY_JWT_ISSUER"

	EnvGCPProjectID        = "BOOKIFY_GCP_PROJECT_ID"
	EnvPubSubPaymentsTopic = "BOOKIFY_PUBSUB_PAYMENTS_TOPIC"

	EnvRazorpayKeyID         = "BOOKIFY_RAZORPAY_KEY_ID"
	EnvRazorpayKeySecret     = "BOOKIFY_RAZORPAY_KEY_SECRET"
	EnvRazorpayWebhookSecret = "BOOKIFY_RAZORPAY_WEBHOOK_SECRET"

	EnvPaymentsPendingTTL         = "BOOKIFY_PAYMENTS_PENDING_ORDER_TTL"
	EnvPaymentsCancelAfterCapture = "BOOKIFY_PAYMENTS_ALLOW_CANCEL_AFTER_CAPTURE"
	EnvPaymentsSubscriptionDays   = "BOOKIFY_PAYMENTS_SUBSCRIPTION_DEFAULT_DAYS"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
