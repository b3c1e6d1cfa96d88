package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

const (
	EnvPrefix = ""

	AppEnvDev  = "development"
	AppEnvProd = "production"
)

type Config struct {
	App    AppConfig
	DB     DBConfig
	Redis  RedisConfig
	JWT    JWTConfig
	Cart   CartConfig
	Orders OrdersConfig
	Square SquareConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"LUMI_APP_ENV" required:"true"`
	Port         string `envconfig:"LUMI_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"LUMI_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"LUMI_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN             string        `envconfig:"LUMI_DB_DSN" required:"true"`
	AutoMigrate     bool          `envconfig:"LUMI_DB_AUTO_MIGRATE" default:"false"`
	MaxOpenConns    int           `envconfig:"LUMI_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"LUMI_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"LUMI_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"LUMI_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"LUMI_REDIS_URL" required:"true"`
	PoolSize     int           `envconfig:"LUMI_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"LUMI_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"LUMI_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"LUMI_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"LUMI_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"LUMI_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"LUMI_JWT_ISSUER" default:"lumi-commerce"`
	ExpirationMinutes int    `envconfig:"LUMI_JWT_EXPIRATION_MINUTES" default:"60"`
}

type CartConfig struct {
	MaxItemQuantity int           `envconfig:"LUMI_CART_MAX_ITEM_QUANTITY" default:"100"`
	ExpiryWindow    time.Duration `envconfig:"LUMI_CART_EXPIRY_WINDOW" default:"720h"`
	SweepInterval   time.Duration `envconfig:"LUMI_CART_SWEEP_INTERVAL" default:"6h"`
	SweepBatchSize  int           `envconfig:"LUMI_CART_SWEEP_BATCH_SIZE" default:"200"`
	ViewCacheTTL    time.Duration `envconfig:"LUMI_CART_VIEW_CACHE_TTL" default:"1h"`
}

type OrdersConfig struct {
	CancellationWindow time.Duration `envconfig:"LUMI_ORDERS_CANCELLATION_WINDOW" default:"1h"`
	ReferenceAttempts  int           `envconfig:"LUMI_ORDERS_REFERENCE_ATTEMPTS" default:"5"`
	TaxRate            string        `envconfig:"LUMI_ORDERS_TAX_RATE" default:"0"`
}

// TaxRateDecimal parses the configured tax rate, falling back to zero on bad input.
func (o OrdersConfig) TaxRateDecimal() decimal.Decimal {
	rate, err := decimal.NewFromString(strings.TrimSpace(o.TaxRate))
	if err != nil || rate.IsNegative() {
		return decimal.Zero
	}
	return rate
}

type SquareConfig struct {
	AccessToken string `envconfig:"LUMI_SQUARE_ACCESS_TOKEN"`
	Env         string `envconfig:"LUMI_SQUARE_ENV" default:"sandbox"`
}

// Environment reports the normalized Square environment value.
func (s SquareConfig) Environment() string {
	return strings.ToLower(strings.TrimSpace(s.Env))
}

// Enabled reports whether a live Square gateway should be wired.
func (s SquareConfig) Enabled() bool {
	return strings.TrimSpace(s.AccessToken) != ""
}
