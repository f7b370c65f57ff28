package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Store backends.
const (
	BackendMongo  = "mongo"
	BackendMemory = "memory"
)

type Config struct {
	Port            string        `env:"PORT,             default=8080"`
	Env             string        `env:"ENV,              default=development"`
	JWTSecret       string        `env:"JWT_SECRET"`
	LogLevel        string        `env:"LOG_LEVEL,        default=info"`
	StoreBackend    string        `env:"STORE_BACKEND,    default=mongo"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT, default=15s"`
	AllowedOrigins  []string      `env:"CORS_ALLOWED_ORIGINS"`

	Mongo    MongoConfig
	Redis    RedisConfig
	Notify   NotifyConfig
	Presence PresenceConfig
}

type MongoConfig struct {
	URI      string        `env:"MONGO_URI,     default=mongodb://localhost:27017/?replicaSet=rs0"`
	Database string        `env:"MONGO_DB,      default=gigflow"`
	Timeout  time.Duration `env:"MONGO_TIMEOUT, default=10s"`
}

// RedisConfig enables the cross-instance notification relay. An empty Addr
// keeps notifications local to this instance.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,      default=0"`
	Channel  string `env:"REDIS_CHANNEL, default=gigflow:notifications"`
}

type NotifyConfig struct {
	Workers int `env:"NOTIFY_WORKERS, default=4"`
	Buffer  int `env:"NOTIFY_BUFFER,  default=256"`
}

type PresenceConfig struct {
	SendBuffer   int           `env:"PRESENCE_SEND_BUFFER,   default=16"`
	WriteTimeout time.Duration `env:"PRESENCE_WRITE_TIMEOUT, default=10s"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return LoadWith(ctx, envconfig.OsLookuper())
}

// LoadWith reads configuration from l and validates it.
func LoadWith(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: l,
	}); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	switch c.StoreBackend {
	case BackendMongo, BackendMemory:
	default:
		errs = append(errs, fmt.Errorf("STORE_BACKEND must be %q or %q, got %q", BackendMongo, BackendMemory, c.StoreBackend))
	}
	if c.Notify.Workers <= 0 || c.Notify.Buffer <= 0 {
		errs = append(errs, errors.New("NOTIFY_WORKERS and NOTIFY_BUFFER must be positive"))
	}
	return errors.Join(errs...)
}

// IsProduction reports whether the service runs with ENV=production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
