package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "SHELFSTOCK"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	EnvAppEnv   = "SHELFSTOCK_APP_ENV"
	EnvPort     = "SHELFSTOCK_APP_PORT"
	EnvLogLevel = "SHELFSTOCK_LOG_LEVEL"

	EnvDBDSN    = "SHELFSTOCK_DB_DSN"
	EnvDBDriver = "SHELFSTOCK_DB_DRIVER"
	EnvDBHost   = "SHELFSTOCK_DB_HOST"
	EnvDBUser   = "SHELFSTOCK_DB_USER"
	EnvDBName   = "SHELFSTOCK_DB_NAME"

	EnvRedisURL    = "SHELFSTOCK_REDIS_URL"
	EnvAutoMigrate = "SHELFSTOCK_AUTO_MIGRATE"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	FeatureFlags FeatureFlagsConfig
	Metrics      MetricsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.validate(); err != nil {
		return nil, err
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"SHELFSTOCK_APP_ENV" required:"true"`
	Port         string `envconfig:"SHELFSTOCK_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"SHELFSTOCK_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"SHELFSTOCK_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"SHELFSTOCK_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"SHELFSTOCK_DB_DSN"`
	Driver string `envconfig:"SHELFSTOCK_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"SHELFSTOCK_DB_HOST"`
	LegacyPort     int    `envconfig:"SHELFSTOCK_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"SHELFSTOCK_DB_USER"`
	LegacyPassword string `envconfig:"SHELFSTOCK_DB_PASSWORD"`
	LegacyName     string `envconfig:"SHELFSTOCK_DB_NAME"`
	LegacySSLMode  string `envconfig:"SHELFSTOCK_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SHELFSTOCK_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SHELFSTOCK_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SHELFSTOCK_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SHELFSTOCK_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the embedded SQLite driver was selected.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(db.Driver, DriverSQLite)
}

// RedisConfig is optional; an empty URL and address disables idempotency caching.
type RedisConfig struct {
	URL          string        `envconfig:"SHELFSTOCK_REDIS_URL"`
	Address      string        `envconfig:"SHELFSTOCK_REDIS_ADDR"`
	Password     string        `envconfig:"SHELFSTOCK_REDIS_PASSWORD"`
	DB           int           `envconfig:"SHELFSTOCK_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SHELFSTOCK_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SHELFSTOCK_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SHELFSTOCK_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SHELFSTOCK_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SHELFSTOCK_REDIS_WRITE_TIMEOUT" default:"5s"`
}

func (r RedisConfig) Enabled() bool {
	return r.URL != "" || r.Address != ""
}

type FeatureFlagsConfig struct {
	AutoMigrate    bool          `envconfig:"SHELFSTOCK_AUTO_MIGRATE" default:"true"`
	IdempotencyTTL time.Duration `envconfig:"SHELFSTOCK_IDEMPOTENCY_TTL" default:"24h"`
}

type MetricsConfig struct {
	Enabled bool   `envconfig:"SHELFSTOCK_METRICS_ENABLED" default:"true"`
	Path    string `envconfig:"SHELFSTOCK_METRICS_PATH" default:"/metrics"`
}

func (db *DBConfig) validate() error {
	switch strings.ToLower(strings.TrimSpace(db.Driver)) {
	case DriverPostgres, DriverSQLite:
		return nil
	default:
		return fmt.Errorf("unsupported %s %q (expected %s or %s)", EnvDBDriver, db.Driver, DriverPostgres, DriverSQLite)
	}
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.IsSQLite() {
		return fmt.Errorf("%s is required when %s=%s", EnvDBDSN, EnvDBDriver, DriverSQLite)
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
