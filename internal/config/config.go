// Package config loads runtime settings from the environment, optionally
// seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"

	"backoffice.app/internal/auth"
)

const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	EnvProduction = "production"
)

type Config struct {
	AppEnv          string        `env:"APP_ENV"            envDefault:"development"`
	HTTPAddr        string        `env:"HTTP_ADDR"          envDefault:":3000"`
	GRPCAddr        string        `env:"GRPC_ADDR"`
	StoreDriver     string        `env:"STORE_DRIVER"       envDefault:"memory"`
	DatabaseURL     string        `env:"DATABASE_URL"`
	SQLitePath      string        `env:"SQLITE_PATH"        envDefault:"backoffice.db"`
	MigrateOnStart  bool          `env:"MIGRATE_ON_START"   envDefault:"true"`
	BcryptCost      int           `env:"BCRYPT_SALT_ROUNDS" envDefault:"10"`
	HashConcurrency int           `env:"HASH_CONCURRENCY"   envDefault:"0"`
	DefaultRole     string        `env:"DEFAULT_ROLE"       envDefault:"USER"`
	CORSOrigins     []string      `env:"CORS_ORIGINS"       envSeparator:"," envDefault:"http://localhost:5173"`
	MaxBodyBytes    int64         `env:"MAX_BODY_BYTES"     envDefault:"52428800"`
	LogLevel        string        `env:"LOG_LEVEL"          envDefault:"info"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT"   envDefault:"10s"`
}

// Load reads .env (when present) and then the process environment.
func Load(envFiles ...string) (Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load env file: %w", err)
	}
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, cfg.Validate()
}

// LoadFrom parses the given variables instead of the process environment.
func LoadFrom(vars map[string]string) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: vars}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	var errs []error
	switch c.StoreDriver {
	case DriverMemory, DriverSQLite:
	case DriverPostgres:
		if strings.TrimSpace(c.DatabaseURL) == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported STORE_DRIVER %q", c.StoreDriver))
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		errs = append(errs, fmt.Errorf("BCRYPT_SALT_ROUNDS must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost))
	}
	if _, err := auth.ParseRole(c.DefaultRole); err != nil {
		errs = append(errs, fmt.Errorf("DEFAULT_ROLE: %w", err))
	}
	if strings.TrimSpace(c.HTTPAddr) == "" {
		errs = append(errs, errors.New("HTTP_ADDR is required"))
	}
	if c.MaxBodyBytes <= 0 {
		errs = append(errs, errors.New("MAX_BODY_BYTES must be positive"))
	}
	return errors.Join(errs...)
}

func (c Config) Production() bool {
	return strings.EqualFold(c.AppEnv, EnvProduction)
}

func (c Config) Role() auth.Role {
	r, err := auth.ParseRole(c.DefaultRole)
	if err != nil {
		return auth.RoleUser
	}
	return r
}
