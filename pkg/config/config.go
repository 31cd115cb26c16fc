package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "tokri"

	AppEnvDev  = "development"
	AppEnvProd = "production"

	EnvAppEnv = "TOKRI_APP_ENV"
)

type Config struct {
	App      AppConfig
	DB       DBConfig
	Redis    RedisConfig
	Razorpay RazorpayConfig
}

// Load reads configuration from the environment. A local .env file is
// applied first when present so development setups need no shell exports.
func Load() (*Config, error) {
	_ = godotenv.Load()

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
	Env          string `envconfig:"TOKRI_APP_ENV" required:"true"`
	LogLevel     string `envconfig:"TOKRI_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"TOKRI_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"TOKRI_DB_DSN"`
	Driver string `envconfig:"TOKRI_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"TOKRI_DB_HOST"`
	Port     int    `envconfig:"TOKRI_DB_PORT" default:"5432"`
	User     string `envconfig:"TOKRI_DB_USER"`
	Password string `envconfig:"TOKRI_DB_PASSWORD"`
	Name     string `envconfig:"TOKRI_DB_NAME"`
	SSLMode  string `envconfig:"TOKRI_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"TOKRI_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"TOKRI_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"TOKRI_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"TOKRI_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	var missing []string
	for env, value := range map[string]string{
		"TOKRI_DB_HOST": db.Host,
		"TOKRI_DB_USER": db.User,
		"TOKRI_DB_NAME": db.Name,
	} {
		if value == "" {
			missing = append(missing, env)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("database config incomplete: set TOKRI_DB_DSN or %s", strings.Join(missing, ", "))
	}

	db.DSN = fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		db.Host, db.Port, db.User, db.Password, db.Name, db.SSLMode,
	)
	return nil
}

type RedisConfig struct {
	URL          string        `envconfig:"TOKRI_REDIS_URL"`
	Address      string        `envconfig:"TOKRI_REDIS_ADDR"`
	Password     string        `envconfig:"TOKRI_REDIS_PASSWORD"`
	DB           int           `envconfig:"TOKRI_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"TOKRI_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"TOKRI_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"TOKRI_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"TOKRI_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"TOKRI_REDIS_WRITE_TIMEOUT" default:"5s"`
	LockTTL      time.Duration `envconfig:"TOKRI_REDIS_LOCK_TTL" default:"10s"`
}

type RazorpayConfig struct {
	KeyID         string        `envconfig:"TOKRI_RAZORPAY_KEY_ID"`
	KeySecret     string        `envconfig:"TOKRI_RAZORPAY_KEY_SECRET"`
	WebhookSecret string        `envconfig:"TOKRI_RAZORPAY_WEBHOOK_SECRET"`
	BaseURL       string        `envconfig:"TOKRI_RAZORPAY_BASE_URL" default:"https://api.razorpay.com/v1"`
	Timeout       time.Duration `envconfig:"TOKRI_RAZORPAY_TIMEOUT" default:"10s"`
}
