// Package config reads the server's settings from environment variables.
//
// A .env file in the working directory is loaded first when present, so
// local development doesn't need exported variables. Real environment
// variables win over .env entries.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

// Config holds everything cmd/server needs to build the server.
type Config struct {
	Port     int
	DBPath   string
	LogLevel slog.Level

	SessionTTL  time.Duration
	BcryptCost  int
	AdminEmails []string

	// RedisAddr empty disables the token cache.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	TokenCacheTTL time.Duration
}

// Default returns the configuration used when no variables are set.
func Default() Config {
	return Config{
		Port:          8080,
		DBPath:        "data/forum.db",
		LogLevel:      slog.LevelInfo,
		SessionTTL:    720 * time.Hour,
		BcryptCost:    12,
		TokenCacheTTL: 5 * time.Minute,
	}
}

// Load reads .env (if any) and then the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("config: loading .env: %w", err)
	}
	return FromLookup(os.LookupEnv)
}

// FromLookup builds a Config from lookup, which has the signature of
// os.LookupEnv. Unset variables keep their defaults; malformed ones are errors.
func FromLookup(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()
	var errs []error

	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}
	intVar := func(key string, dst *int) {
		if v, ok := get(key); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %q is not an integer", key, v))
				return
			}
			*dst = n
		}
	}
	durationVar := func(key string, dst *time.Duration) {
		if v, ok := get(key); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = d
		}
	}

	intVar("PORT", &cfg.Port)
	if v, ok := get("DB_PATH"); ok {
		cfg.DBPath = v
	}
	if v, ok := get("LOG_LEVEL"); ok {
		if err := cfg.LogLevel.UnmarshalText([]byte(v)); err != nil {
			errs = append(errs, fmt.Errorf("LOG_LEVEL: %w", err))
		}
	}
	durationVar("SESSION_TTL", &cfg.SessionTTL)
	intVar("BCRYPT_COST", &cfg.BcryptCost)
	if v, ok := get("ADMIN_EMAILS"); ok {
		for _, email := range strings.Split(v, ",") {
			if email = strings.ToLower(strings.TrimSpace(email)); email != "" {
				cfg.AdminEmails = append(cfg.AdminEmails, email)
			}
		}
	}
	if v, ok := get("REDIS_ADDR"); ok {
		cfg.RedisAddr = v
	}
	if v, ok := lookup("REDIS_PASSWORD"); ok {
		cfg.RedisPassword = v
	}
	intVar("REDIS_DB", &cfg.RedisDB)
	durationVar("TOKEN_CACHE_TTL", &cfg.TokenCacheTTL)

	if err := errors.Join(errs...); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks ranges that parsing alone can't catch.
func (c Config) Validate() error {
	switch {
	case c.Port < 1 || c.Port > 65535:
		return fmt.Errorf("config: PORT %d out of range", c.Port)
	case c.SessionTTL <= 0:
		return fmt.Errorf("config: SESSION_TTL must be positive")
	case c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost:
		return fmt.Errorf("config: BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	case c.TokenCacheTTL < 0:
		return fmt.Errorf("config: TOKEN_CACHE_TTL must not be negative")
	case c.RedisDB < 0:
		return fmt.Errorf("config: REDIS_DB must not be negative")
	}
	return nil
}

// Addr is the listen address for http.Server.
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
