package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "sokoflow"

	AppEnvDev  = "development"
	AppEnvProd = "production"

	EnvAppEnv   = "SOKOFLOW_APP_ENV"
	EnvPort     = "SOKOFLOW_APP_PORT"
	EnvDBDSN    = "SOKOFLOW_DB_DSN"
	EnvDBHost   = "SOKOFLOW_DB_HOST"
	EnvDBUser   = "SOKOFLOW_DB_USER"
	EnvDBName   = "SOKOFLOW_DB_NAME"
	EnvRedisURL = "SOKOFLOW_REDIS_URL"

	EnvJWTSecret  = "SOKOFLOW_JWT_SECRET"
	EnvJWTIssuer  = "SOKOFLOW_JWT_ISSUER"
	EnvJWTExpMins = "SOKOFLOW_JWT_EXPIRATION_MINUTES"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Mail         MailConfig
	Worker       WorkerConfig
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
	Env          string `envconfig:"SOKOFLOW_APP_ENV" required:"true"`
	Port         string `envconfig:"SOKOFLOW_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"SOKOFLOW_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SOKOFLOW_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"SOKOFLOW_DB_DSN"`
	Driver string `envconfig:"SOKOFLOW_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"SOKOFLOW_DB_HOST"`
	LegacyPort     int    `envconfig:"SOKOFLOW_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"SOKOFLOW_DB_USER"`
	LegacyPassword string `envconfig:"SOKOFLOW_DB_PASSWORD"`
	LegacyName     string `envconfig:"SOKOFLOW_DB_NAME"`
	LegacySSLMode  string `envconfig:"SOKOFLOW_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SOKOFLOW_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SOKOFLOW_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SOKOFLOW_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SOKOFLOW_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SOKOFLOW_REDIS_URL" required:"true"`
	Address      string        `envconfig:"SOKOFLOW_REDIS_ADDR"`
	Password     string        `envconfig:"SOKOFLOW_REDIS_PASSWORD"`
	DB           int           `envconfig:"SOKOFLOW_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SOKOFLOW_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SOKOFLOW_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SOKOFLOW_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SOKOFLOW_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SOKOFLOW_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"SOKOFLOW_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"SOKOFLOW_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"SOKOFLOW_JWT_EXPIRATION_MINUTES" required:"true"`
}

type MailConfig struct {
	APIKey      string `envconfig:"SOKOFLOW_SENDGRID_API_KEY"`
	DefaultFrom string `envconfig:"SOKOFLOW_SENDGRID_FROM_EMAIL" default:"orders@sokoflow.app"`
}

type WorkerConfig struct {
	ReorderScanInterval time.Duration `envconfig:"SOKOFLOW_REORDER_SCAN_INTERVAL" default:"15m"`
	MetricsPort         string        `envconfig:"SOKOFLOW_WORKER_METRICS_PORT" default:"9091"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"SOKOFLOW_AUTO_MIGRATE" default:"false"`
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
