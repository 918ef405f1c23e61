package config

import (
	"errors"
	"fmt"
	"time"
)

// MaxLookbackMinutes is the hard cap on the referral activity window (7 days).
const MaxLookbackMinutes = 7 * 24 * 60

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type PostgresConfig struct {
	DSN             string        `env:"PG_DSN" default:""`
	MaxOpenConns    int           `env:"PG_MAX_OPEN_CONNS" default:"25"`
	MaxIdleConns    int           `env:"PG_MAX_IDLE_CONNS" default:"5"`
	ConnMaxIdleTime time.Duration `env:"PG_CONN_MAX_IDLE_TIME" default:"5m"`
	ConnMaxLifetime time.Duration `env:"PG_CONN_MAX_LIFETIME" default:"30m"`
}

type SQLiteConfig struct {
	Path string `env:"SQLITE_PATH" default:"points.db"`
}

// StoreConfig selects the ledger backend.
type StoreConfig struct {
	Driver   string `env:"STORE_DRIVER" default:"postgres"`
	Postgres PostgresConfig
	SQLite   SQLiteConfig
}

func (c StoreConfig) Validate() error {
	switch c.Driver {
	case DriverPostgres:
		if c.Postgres.DSN == "" {
			return errors.New("PG_DSN is required for the postgres driver")
		}
	case DriverSQLite:
		if c.SQLite.Path == "" {
			return errors.New("SQLITE_PATH is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.Driver)
	}

	return nil
}

// ReferralConfig drives the eligibility engine and the bonus issuer.
type ReferralConfig struct {
	BonusAmount     int64  `env:"REFERRAL_BONUS_AMOUNT" default:"100"`
	GatingEnabled   bool   `env:"REFERRAL_GATING_ENABLED" default:"true"`
	LookbackMinutes int64  `env:"REFERRAL_LOOKBACK_MINUTES" default:"10080"`
	MinActiveDays   int64  `env:"REFERRAL_MIN_ACTIVE_DAYS" default:"3"`
	MatchKey        string `env:"REFERRAL_MATCH_KEY" default:""`
}

// DefaultReferral returns the configuration used when nothing is set.
func DefaultReferral() ReferralConfig {
	return ReferralConfig{
		BonusAmount:     100,
		GatingEnabled:   true,
		LookbackMinutes: MaxLookbackMinutes,
		MinActiveDays:   3,
	}
}

func (c ReferralConfig) Validate() error {
	if c.BonusAmount <= 0 {
		return errors.New("REFERRAL_BONUS_AMOUNT must be positive")
	}
	if c.LookbackMinutes <= 0 {
		return errors.New("REFERRAL_LOOKBACK_MINUTES must be positive")
	}
	if c.MinActiveDays < 0 {
		return errors.New("REFERRAL_MIN_ACTIVE_DAYS must not be negative")
	}

	return nil
}

// Window returns the lookback window, never longer than seven days.
func (c ReferralConfig) Window() time.Duration {
	minutes := c.LookbackMinutes
	if minutes <= 0 || minutes > MaxLookbackMinutes {
		minutes = MaxLookbackMinutes
	}

	return time.Duration(minutes) * time.Minute
}
