package config

import (
	"errors"
	"log/slog"
	"time"

	"github.com/joho/godotenv"

	"github.com/Skotchmaster/lumina_shop/internal/checkout"
	"github.com/Skotchmaster/lumina_shop/internal/contact"
	"github.com/Skotchmaster/lumina_shop/pkg/db"
	env "github.com/Skotchmaster/lumina_shop/pkg/config"
)

const (
	CartStoreDB     = "db"
	CartStoreRedis  = "redis"
	CartStoreMemory = "memory"
)

type Config struct {
	ServerPort string
	LogLevel   string

	DBDriver    string
	DatabaseURL string

	VisitorSecret  []byte
	SecureCookies  bool
	CSRFDisabled   bool
	AllowedOrigins []string

	CartStore string
	RedisAddr string
	CartTTL   time.Duration

	KafkaBrokers []string

	ESURL      string
	ESUser     string
	ESPassword string
	ESIndex    string

	BackendURL  string
	CatalogSeed string

	PaymentDelay   time.Duration
	PaymentTimeout time.Duration
	ContactDelay   time.Duration
	SessionIdle    time.Duration
}

// Load reads .env when present, then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		slog.Info("config_notice", "reason", ".env not found, using process environment")
	}

	cfg := &Config{
		ServerPort: env.EnvDefault("SERVER_PORT", "8080"),
		LogLevel:   env.EnvDefault("LOG_LEVEL", "info"),

		DBDriver:    env.EnvDefault("DB_DRIVER", db.DriverSQLite),
		DatabaseURL: env.EnvDefault("DATABASE_URL", "file:lumina.db?_pragma=busy_timeout(5000)"),

		VisitorSecret:  []byte(env.EnvDefault("VISITOR_SECRET", "")),
		SecureCookies:  env.EnvBoolDefault("SECURE_COOKIES", false),
		CSRFDisabled:   env.EnvBoolDefault("CSRF_DISABLED", false),
		AllowedOrigins: env.CSV(env.EnvDefault("ALLOWED_ORIGINS", "")),

		CartStore: env.EnvDefault("CART_STORE", CartStoreDB),
		RedisAddr: env.EnvDefault("REDIS_ADDR", "localhost:6379"),
		CartTTL:   env.EnvDuration("CART_TTL", 30*24*time.Hour),

		KafkaBrokers: env.CSV(env.EnvDefault("KAFKA_BROKERS", "")),

		ESURL:      env.EnvDefault("ES_URL", ""),
		ESUser:     env.EnvDefault("ES_USER", ""),
		ESPassword: env.EnvDefault("ES_PASSWORD", ""),
		ESIndex:    env.EnvDefault("ES_INDEX", "lumina"),

		BackendURL:  env.EnvDefault("BACKEND_URL", ""),
		CatalogSeed: env.EnvDefault("CATALOG_SEED", ""),

		PaymentDelay:   env.EnvDuration("PAYMENT_DELAY", checkout.DefaultProcessingDelay),
		PaymentTimeout: env.EnvDuration("PAYMENT_TIMEOUT", checkout.DefaultTimeout),
		ContactDelay:   env.EnvDuration("CONTACT_DELAY", contact.DefaultDelay),
		SessionIdle:    env.EnvDuration("SESSION_IDLE", 2*time.Hour),
	}

	return cfg, cfg.Validate()
}

func (c *Config) Validate() error {
	var errs []error
	if len(c.VisitorSecret) == 0 {
		errs = append(errs, errors.New("VISITOR_SECRET is required"))
	}
	errs = append(errs,
		env.OneOf("DB_DRIVER", c.DBDriver, db.DriverPostgres, db.DriverSQLite),
		env.OneOf("CART_STORE", c.CartStore, CartStoreDB, CartStoreRedis, CartStoreMemory),
		env.OneOf("LOG_LEVEL", c.LogLevel, "debug", "info", "warn", "error"),
	)
	if c.PaymentTimeout <= 0 {
		errs = append(errs, errors.New("PAYMENT_TIMEOUT must be positive"))
	}
	return errors.Join(errs...)
}
