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
	DB           DBConfig
	Redis        RedisConfig
	Inventory    InventoryConfig
	Promo        PromoConfig
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
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"DELICES_APP_ENV" required:"true"`
	Port         string `envconfig:"DELICES_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"DELICES_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"DELICES_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"DELICES_DB_DSN"`
	Driver string `envconfig:"DELICES_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"DELICES_DB_HOST"`
	LegacyPort     int    `envconfig:"DELICES_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"DELICES_DB_USER"`
	LegacyPassword string `envconfig:"DELICES_DB_PASSWORD"`
	LegacyName     string `envconfig:"DELICES_DB_NAME"`
	LegacySSLMode  string `envconfig:"DELICES_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"DELICES_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"DELICES_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"DELICES_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"DELICES_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"DELICES_REDIS_URL" required:"true"`
	Address      string        `envconfig:"DELICES_REDIS_ADDR"`
	Password     string        `envconfig:"DELICES_REDIS_PASSWORD"`
	DB           int           `envconfig:"DELICES_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"DELICES_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"DELICES_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"DELICES_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"DELICES_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"DELICES_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// InventoryConfig tunes the stock ledger's optimistic concurrency loop.
type InventoryConfig struct {
	AdjustMaxRetries  int           `envconfig:"DELICES_INVENTORY_ADJUST_MAX_RETRIES" default:"3"`
	AdjustRetryDelay  time.Duration `envconfig:"DELICES_INVENTORY_ADJUST_RETRY_DELAY" default:"5ms"`
	LowStockPageLimit int           `envconfig:"DELICES_INVENTORY_LOW_STOCK_PAGE_LIMIT" default:"100"`
}

// PromoConfig tunes the promo engine's redemption loop.
type PromoConfig struct {
	RedeemMaxRetries     int           `envconfig:"DELICES_PROMO_REDEEM_MAX_RETRIES" default:"3"`
	RedeemRetryDelay     time.Duration `envconfig:"DELICES_PROMO_REDEEM_RETRY_DELAY" default:"5ms"`
	RedeemIdempotencyTTL time.Duration `envconfig:"DELICES_PROMO_REDEEM_IDEMPOTENCY_TTL" default:"168h"`
}

// RateLimitConfig throttles the public promo and order endpoints per client
// IP. A zero window or limit disables the limiter.
type RateLimitConfig struct {
	Window  time.Duration `envconfig:"DELICES_RATE_LIMIT_WINDOW" default:"1m"`
	IPLimit int           `envconfig:"DELICES_RATE_LIMIT_IP_LIMIT" default:"120"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"DELICES_AUTO_MIGRATE" default:"false"`
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
