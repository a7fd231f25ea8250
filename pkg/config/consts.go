package config

const (
	// EnvPrefix is passed to envconfig; individual fields carry explicit names.
	EnvPrefix = "CATERING"

	AppEnvDev  = "dev"
	AppEnvProd = "production"

	EnvAppEnv = "CATERING_APP_ENV"
	EnvPort   = "CATERING_APP_PORT"

	EnvDBDSN  = "CATERING_DB_DSN"
	EnvDBHost = "CATERING_DB_HOST"
	EnvDBUser = "CATERING_DB_USER"
	EnvDBName = "CATERING_DB_NAME"

	EnvRedisURL = "CATERING_REDIS_URL"

	EnvJWTSecret = "CATERING_JWT_SECRET"
	EnvJWTIssuer = "CATERING_JWT_ISSUER"

	EnvTransactionPrefix = "CATERING_PAYMENTS_TRANSACTION_PREFIX"
	EnvQRISThreshold     = "CATERING_PAYMENTS_QRIS_THRESHOLD"
	EnvQRISFeePercent    = "CATERING_PAYMENTS_QRIS_FEE_PERCENT"
	EnvBankTransferFee   = "CATERING_PAYMENTS_BANK_TRANSFER_FEE"

	EnvMidtransServerKey = "CATERING_MIDTRANS_SERVER_KEY"
	EnvMidtransEnv       = "CATERING_MIDTRANS_ENV"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
