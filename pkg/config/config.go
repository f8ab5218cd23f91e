// Package config loads service configuration from the environment and optional
// .env/config.env files via viper. Environment variables take precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Storage drivers.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config groups all sections.
type Config struct {
	App     AppConfig
	HTTP    HTTPConfig
	DB      DBConfig
	Storage StorageConfig
	JWT     JWTConfig
	Webhook WebhookConfig
	Mail    MailConfig
	Worker  WorkerConfig
}

type AppConfig struct {
	Env      string // development, staging, production
	Name     string
	LogLevel string
}

// IsDevelopment reports whether the service runs with developer defaults.
func (c AppConfig) IsDevelopment() bool {
	return c.Env == "development"
}

type HTTPConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// Addr returns the listen address (host:port).
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DBConfig describes the PostgreSQL connection. DatabaseURL wins over the parts.
type DBConfig struct {
	DatabaseURL string
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
	MaxConns    int
	MinConns    int
}

// ConnectionString returns DATABASE_URL when set, otherwise the DSN built from parts.
func (c DBConfig) ConnectionString() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=" + c.SSLMode,
	}
	return u.String()
}

type StorageConfig struct {
	Driver string // postgres | memory
}

type JWTConfig struct {
	Secret     string
	Issuer     string
	Expiration time.Duration
}

// WebhookConfig protects the supplier confirmation endpoint.
type WebhookConfig struct {
	SupplierSecret string
}

type MailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Enabled reports whether an SMTP relay is configured.
func (c MailConfig) Enabled() bool {
	return c.Host != ""
}

type WorkerConfig struct {
	PollInterval time.Duration
	BatchSize    int
	MaxRetries   int
}

// Load reads configuration. Missing files are ignored.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigType("env")
	for _, name := range []string{".env", "config.env"} {
		v.SetConfigFile(name)
		if err := v.MergeInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("read %s: %w", name, err)
			}
		}
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v)

	cfg := &Config{
		App: AppConfig{
			Env:      v.GetString("APP_ENV"),
			Name:     v.GetString("APP_NAME"),
			LogLevel: v.GetString("LOG_LEVEL"),
		},
		HTTP: HTTPConfig{
			Host:            v.GetString("HTTP_HOST"),
			Port:            v.GetInt("HTTP_PORT"),
			ReadTimeout:     v.GetDuration("HTTP_READ_TIMEOUT"),
			WriteTimeout:    v.GetDuration("HTTP_WRITE_TIMEOUT"),
			ShutdownTimeout: v.GetDuration("HTTP_SHUTDOWN_TIMEOUT"),
		},
		DB: DBConfig{
			DatabaseURL: v.GetString("DATABASE_URL"),
			Host:        v.GetString("DB_HOST"),
			Port:        v.GetInt("DB_PORT"),
			User:        v.GetString("DB_USER"),
			Password:    v.GetString("DB_PASSWORD"),
			DBName:      v.GetString("DB_NAME"),
			SSLMode:     v.GetString("DB_SSLMODE"),
			MaxConns:    v.GetInt("DB_MAX_CONNS"),
			MinConns:    v.GetInt("DB_MIN_CONNS"),
		},
		Storage: StorageConfig{
			Driver: strings.ToLower(v.GetString("STORAGE_DRIVER")),
		},
		JWT: JWTConfig{
			Secret:     v.GetString("JWT_SECRET"),
			Issuer:     v.GetString("JWT_ISSUER"),
			Expiration: v.GetDuration("JWT_EXPIRATION"),
		},
		Webhook: WebhookConfig{
			SupplierSecret: v.GetString("SUPPLIER_WEBHOOK_SECRET"),
		},
		Mail: MailConfig{
			Host:     v.GetString("SMTP_HOST"),
			Port:     v.GetInt("SMTP_PORT"),
			Username: v.GetString("SMTP_USERNAME"),
			Password: v.GetString("SMTP_PASSWORD"),
			From:     v.GetString("SMTP_FROM"),
		},
		Worker: WorkerConfig{
			PollInterval: v.GetDuration("WORKER_POLL_INTERVAL"),
			BatchSize:    v.GetInt("WORKER_BATCH_SIZE"),
			MaxRetries:   v.GetInt("WORKER_MAX_RETRIES"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverPostgres, DriverMemory:
	default:
		return fmt.Errorf("unsupported STORAGE_DRIVER %q", c.Storage.Driver)
	}
	if c.JWT.Secret == "" && !c.App.IsDevelopment() {
		return fmt.Errorf("JWT_SECRET is required outside development")
	}
	if c.Worker.MaxRetries <= 0 {
		return fmt.Errorf("WORKER_MAX_RETRIES must be positive")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("APP_NAME", "receiptflow")
	v.SetDefault("LOG_LEVEL", "info")

	v.SetDefault("HTTP_HOST", "0.0.0.0")
	v.SetDefault("HTTP_PORT", 8080)
	v.SetDefault("HTTP_READ_TIMEOUT", "15s")
	v.SetDefault("HTTP_WRITE_TIMEOUT", "15s")
	v.SetDefault("HTTP_SHUTDOWN_TIMEOUT", "30s")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_NAME", "receiptflow")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_MAX_CONNS", 25)
	v.SetDefault("DB_MIN_CONNS", 2)

	v.SetDefault("STORAGE_DRIVER", DriverPostgres)

	v.SetDefault("JWT_ISSUER", "receiptflow")
	v.SetDefault("JWT_EXPIRATION", "12h")

	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_FROM", "receipts@localhost")

	v.SetDefault("WORKER_POLL_INTERVAL", "2s")
	v.SetDefault("WORKER_BATCH_SIZE", 100)
	v.SetDefault("WORKER_MAX_RETRIES", 5)
}
