package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	// EnvPrefix is left empty: every field names its variable explicitly.
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Checkout     CheckoutConfig
	MercadoPago  MercadoPagoConfig
	Cron         CronConfig
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
	Env          string `envconfig:"PERFUMAN_APP_ENV" required:"true"`
	Port         string `envconfig:"PERFUMAN_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"PERFUMAN_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PERFUMAN_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"PERFUMAN_DB_DSN"`
	Driver string `envconfig:"PERFUMAN_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"PERFUMAN_DB_HOST"`
	Port     int    `envconfig:"PERFUMAN_DB_PORT" default:"5432"`
	User     string `envconfig:"PERFUMAN_DB_USER"`
	Password string `envconfig:"PERFUMAN_DB_PASSWORD"`
	Name     string `envconfig:"PERFUMAN_DB_NAME"`
	SSLMode  string `envconfig:"PERFUMAN_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"PERFUMAN_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PERFUMAN_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"PERFUMAN_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PERFUMAN_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"PERFUMAN_REDIS_URL"`
	Address      string        `envconfig:"PERFUMAN_REDIS_ADDR"`
	Password     string        `envconfig:"PERFUMAN_REDIS_PASSWORD"`
	DB           int           `envconfig:"PERFUMAN_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PERFUMAN_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PERFUMAN_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PERFUMAN_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PERFUMAN_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PERFUMAN_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// CheckoutConfig carries the storefront-facing URLs and the payment
// session parameters used when building a gateway preference.
type CheckoutConfig struct {
	BaseURL          string        `envconfig:"PERFUMAN_BASE_URL" default:"http://localhost:3000"`
	Currency         string        `envconfig:"PERFUMAN_CURRENCY" default:"ARS"`
	StatementName    string        `envconfig:"PERFUMAN_STATEMENT_DESCRIPTOR" default:"PerfuMan"`
	PreferenceExpiry time.Duration `envconfig:"PERFUMAN_PREFERENCE_EXPIRY" default:"24h"`
}

// SuccessURL and friends are the hosted-payment return URLs.
func (c CheckoutConfig) SuccessURL() string { return c.BaseURL + "/checkout/success" }
func (c CheckoutConfig) FailureURL() string { return c.BaseURL + "/checkout/failure" }
func (c CheckoutConfig) PendingURL() string { return c.BaseURL + "/checkout/pending" }

// NotificationURL is where the gateway delivers payment webhooks.
func (c CheckoutConfig) NotificationURL() string { return c.BaseURL + "/api/webhooks/mercadopago" }

type MercadoPagoConfig struct {
	AccessToken string `envconfig:"MP_ACCESS_TOKEN" required:"true"`
}

type CronConfig struct {
	Secret      string        `envconfig:"CRON_SECRET" required:"true"`
	Interval    time.Duration `envconfig:"PERFUMAN_CRON_INTERVAL" default:"15m"`
	PendingTTL  time.Duration `envconfig:"PERFUMAN_ORDER_PENDING_TTL" default:"30m"`
	LockTTL     time.Duration `envconfig:"PERFUMAN_CRON_LOCK_TTL" default:"10m"`
	MetricsPort string        `envconfig:"PERFUMAN_CRON_METRICS_PORT" default:"9091"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"PERFUMAN_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	values := map[string]string{
		"PERFUMAN_DB_HOST": db.Host,
		"PERFUMAN_DB_USER": db.User,
		"PERFUMAN_DB_NAME": db.Name,
	}
	for _, key := range []string{"PERFUMAN_DB_HOST", "PERFUMAN_DB_USER", "PERFUMAN_DB_NAME"} {
		if values[key] == "" {
			missing = append(missing, key)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either PERFUMAN_DB_DSN or %s are required", strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
