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
	Shopify      ShopifyConfig
	Harvest      HarvestConfig
	CatalogSync  CatalogSyncConfig
	RateLimit    RateLimitConfig
	Compat       CompatConfig
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
	Env          string `envconfig:"A360_APP_ENV" required:"true"`
	Port         string `envconfig:"A360_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"A360_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"A360_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"A360_AUTO_MIGRATE" default:"false"`
}

type ServiceConfig struct {
	Kind string `envconfig:"A360_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"A360_DB_DSN"`
	Driver string `envconfig:"A360_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"A360_DB_HOST"`
	LegacyPort     int    `envconfig:"A360_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"A360_DB_USER"`
	LegacyPassword string `envconfig:"A360_DB_PASSWORD"`
	LegacyName     string `envconfig:"A360_DB_NAME"`
	LegacySSLMode  string `envconfig:"A360_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"A360_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"A360_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"A360_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"A360_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"A360_REDIS_URL" required:"true"`
	Address      string        `envconfig:"A360_REDIS_ADDR"`
	Password     string        `envconfig:"A360_REDIS_PASSWORD"`
	DB           int           `envconfig:"A360_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"A360_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"A360_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"A360_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"A360_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"A360_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type ShopifyConfig struct {
	APIVersion     string        `envconfig:"A360_SHOPIFY_API_VERSION" default:"2024-10"`
	RequestTimeout time.Duration `envconfig:"A360_SHOPIFY_REQUEST_TIMEOUT" default:"15s"`
	MaxConcurrency int           `envconfig:"A360_SHOPIFY_MAX_CONCURRENCY" default:"8"`
}

type HarvestConfig struct {
	BatchSize      int           `envconfig:"A360_HARVEST_BATCH_SIZE" default:"50"`
	PollInterval   time.Duration `envconfig:"A360_HARVEST_POLL_INTERVAL" default:"5s"`
	MaxAttempts    int           `envconfig:"A360_HARVEST_MAX_ATTEMPTS" default:"5"`
	RequestTimeout time.Duration `envconfig:"A360_HARVEST_REQUEST_TIMEOUT" default:"15s"`
}

type CatalogSyncConfig struct {
	BatchSize int `envconfig:"A360_CATALOG_SYNC_BATCH_SIZE" default:"498"`
}

type RateLimitConfig struct {
	Window     time.Duration `envconfig:"A360_RATE_LIMIT_WINDOW" default:"1m"`
	ShopLimit  int           `envconfig:"A360_RATE_LIMIT_SHOP" default:"60"`
	SyncWindow time.Duration `envconfig:"A360_RATE_LIMIT_SYNC_WINDOW" default:"5m"`
	SyncLimit  int           `envconfig:"A360_RATE_LIMIT_SYNC" default:"3"`
}

// CompatConfig preserves behaviors the previous generation of the service
// shipped with, so existing shops see identical matching results.
type CompatConfig struct {
	UnanchoredPatterns bool `envconfig:"A360_COMPAT_UNANCHORED_PATTERNS" default:"true"`
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
