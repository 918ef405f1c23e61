package main

import (
	"errors"
	"log/slog"
	"time"

	"github.com/fastprodman/pointsledger/internal/config"
)

type apiConfig struct {
	Port            uint16        `env:"APP_PORT" default:"8080"`
	LogLevel        slog.Level    `env:"APP_LOG_LEVEL" default:"INFO"`
	ShutdownTimeout time.Duration `env:"APP_SHUTDOWN_TIMEOUT" default:"10s"`
	AllowedOrigins  []string      `env:"APP_ALLOWED_ORIGINS" default:"http://localhost:3000"`
	JWTSecret       string        `env:"JWT_SECRET"`

	Store    config.StoreConfig
	Referral config.ReferralConfig
}

func (c *apiConfig) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET must not be empty")
	}
	if c.ShutdownTimeout <= 0 {
		return errors.New("APP_SHUTDOWN_TIMEOUT must be positive")
	}

	return nil
}
