package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Payments     PaymentsConfig
	Midtrans     MidtransConfig
	RateLimit    RateLimitConfig
	FeatureFlags FeatureFlagsConfig
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
	Env          string `envconfig:"CATERING_APP_ENV" required:"true"`
	Port         string `envconfig:"CATERING_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"CATERING_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"CATERING_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"CATERING_DB_DSN"`
	Driver string `envconfig:"CATERING_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"CATERING_DB_HOST"`
	LegacyPort     int    `envconfig:"CATERING_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"CATERING_DB_USER"`
	LegacyPassword string `envconfig:"CATERING_DB_PASSWORD"`
	LegacyName     string `envconfig:"CATERING_DB_NAME"`
	LegacySSLMode  string `envconfig:"CATERING_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"CATERING_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"CATERING_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"CATERING_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"CATERING_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"CATERING_REDIS_URL"`
	Address      string        `envconfig:"CATERING_REDIS_ADDR"`
	Password     string        `envconfig:"CATERING_REDIS_PASSWORD"`
	DB           int           `envconfig:"CATERING_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"CATERING_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"CATERING_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"CATERING_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CATERING_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"CATERING_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether a redis endpoint was configured at all. The API
// keeps working without redis; only the create-path rate limit is skipped.
func (r RedisConfig) Enabled() bool {
	return r.URL != "" || r.Address != ""
}

type JWTConfig struct {
	Secret string `envconfig:"CATERING_JWT_SECRET" required:"true"`
	Issuer string `envconfig:"CATERING_JWT_ISSUER" default:"catering-at-tauhid"`
}

// PaymentsConfig carries the canonical fee rule set and the transaction id
// namespace. The QRIS percent fee applies at or below the threshold; above it
// the flat virtual-account fee applies.
type PaymentsConfig struct {
	TransactionPrefix string `envconfig:"CATERING_PAYMENTS_TRANSACTION_PREFIX" default:"CATERING"`
	QRISThreshold     int64  `envconfig:"CATERING_PAYMENTS_QRIS_THRESHOLD" default:"628000"`
	QRISFeePercent    string `envconfig:"CATERING_PAYMENTS_QRIS_FEE_PERCENT" default:"0.7"`
	BankTransferFee   int64  `envconfig:"CATERING_PAYMENTS_BANK_TRANSFER_FEE" default:"4400"`
	SnowflakeNode     int64  `envconfig:"CATERING_PAYMENTS_SNOWFLAKE_NODE" default:"1"`
}

// QRISFeeRate parses the configured percent into an exact decimal.
func (p PaymentsConfig) QRISFeeRate() (decimal.Decimal, error) {
	rate, err := decimal.NewFromString(strings.TrimSpace(p.QRISFeePercent))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("parsing qris fee percent %q: %w", p.QRISFeePercent, err)
	}
	return rate, nil
}

func (p PaymentsConfig) validate() error {
	if strings.TrimSpace(p.TransactionPrefix) == "" {
		return fmt.Errorf("%s must not be empty", EnvTransactionPrefix)
	}
	if strings.Contains(p.TransactionPrefix, "-") {
		return fmt.Errorf("%s must not contain %q", EnvTransactionPrefix, "-")
	}
	if p.QRISThreshold <= 0 {
		return fmt.Errorf("%s must be positive", EnvQRISThreshold)
	}
	if p.BankTransferFee < 0 {
		return fmt.Errorf("%s must not be negative", EnvBankTransferFee)
	}
	if _, err := p.QRISFeeRate(); err != nil {
		return err
	}
	return nil
}

type MidtransConfig struct {
	ServerKey string        `envconfig:"CATERING_MIDTRANS_SERVER_KEY" required:"true"`
	Env       string        `envconfig:"CATERING_MIDTRANS_ENV" default:"sandbox"`
	BaseURL   string        `envconfig:"CATERING_MIDTRANS_BASE_URL"`
	Timeout   time.Duration `envconfig:"CATERING_MIDTRANS_TIMEOUT" default:"15s"`
}

// Environment returns the normalized Midtrans environment (sandbox/production).
func (m MidtransConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(m.Env))
	if env == "" {
		return "sandbox"
	}
	return env
}

type RateLimitConfig struct {
	CreateWindow  time.Duration `envconfig:"CATERING_RATE_LIMIT_CREATE_WINDOW" default:"1m"`
	CreateIPLimit int           `envconfig:"CATERING_RATE_LIMIT_CREATE_IP_LIMIT" default:"30"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"CATERING_AUTO_MIGRATE" default:"false"`
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
