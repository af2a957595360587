// Package config loads the dilution engine's runtime settings from the
// environment, optionally seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config holds server settings.
type Config struct {
	Port     string     `env:"PORT" envDefault:"8080"`
	LogLevel slog.Level `env:"LOG_LEVEL" envDefault:"info"`

	// Spread is the default relative pre-money perturbation used when a
	// request does not carry its own.
	Spread decimal.Decimal `env:"SCENARIO_SPREAD" envDefault:"0.25"`

	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"10s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"10s"`
	IdleTimeout     time.Duration `env:"IDLE_TIMEOUT" envDefault:"60s"`
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"5s"`

	CORSAllowOrigin string `env:"CORS_ALLOW_ORIGIN" envDefault:"*"`

	LiveReadDeadline time.Duration `env:"LIVE_READ_DEADLINE" envDefault:"60s"`
	LivePingInterval time.Duration `env:"LIVE_PING_INTERVAL" envDefault:"30s"`
}

// Load reads the given .env files (a missing file is not an error), then
// parses the process environment. Variables already set in the process
// win over .env values.
func Load(files ...string) (Config, error) {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("config: load %s: %w", f, err)
		}
	}
	return parse(env.Options{})
}

// FromMap parses settings from vars instead of the process environment.
func FromMap(vars map[string]string) (Config, error) {
	return parse(env.Options{Environment: vars})
}

func parse(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values the environment parser cannot.
func (c Config) Validate() error {
	if c.Spread.IsNegative() || c.Spread.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return fmt.Errorf("config: SCENARIO_SPREAD must be in [0, 1), got %s", c.Spread)
	}
	if c.LivePingInterval <= 0 || c.LivePingInterval >= c.LiveReadDeadline {
		return fmt.Errorf("config: LIVE_PING_INTERVAL (%s) must be positive and below LIVE_READ_DEADLINE (%s)",
			c.LivePingInterval, c.LiveReadDeadline)
	}
	return nil
}
