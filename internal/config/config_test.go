package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestReferralConfig_Window(t *testing.T) {
	t.Parallel()

	tests := []struct {
		minutes int64
		want    time.Duration
	}{
		{minutes: 30, want: 30 * time.Minute},
		{minutes: MaxLookbackMinutes, want: 7 * 24 * time.Hour},
		{minutes: MaxLookbackMinutes * 4, want: 7 * 24 * time.Hour},
		{minutes: 0, want: 7 * 24 * time.Hour},
	}

	for _, tt := range tests {
		c := ReferralConfig{LookbackMinutes: tt.minutes}
		assert.Equal(t, tt.want, c.Window(), "minutes=%d", tt.minutes)
	}
}

func TestReferralConfig_Validate(t *testing.T) {
	t.Parallel()

	assert.NoError(t, DefaultReferral().Validate())

	bad := []func(c *ReferralConfig){
		func(c *ReferralConfig) { c.BonusAmount = 0 },
		func(c *ReferralConfig) { c.LookbackMinutes = -1 },
		func(c *ReferralConfig) { c.MinActiveDays = -1 },
	}
	for i, mutate := range bad {
		c := DefaultReferral()
		mutate(&c)
		assert.Error(t, c.Validate(), "case %d", i)
	}
}

func TestStoreConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     StoreConfig
		wantErr bool
	}{
		{name: "postgres_ok", cfg: StoreConfig{Driver: DriverPostgres, Postgres: PostgresConfig{DSN: "postgres://x"}}},
		{name: "postgres_no_dsn", cfg: StoreConfig{Driver: DriverPostgres}, wantErr: true},
		{name: "sqlite_ok", cfg: StoreConfig{Driver: DriverSQLite, SQLite: SQLiteConfig{Path: "p.db"}}},
		{name: "sqlite_no_path", cfg: StoreConfig{Driver: DriverSQLite}, wantErr: true},
		{name: "unknown", cfg: StoreConfig{Driver: "mysql"}, wantErr: true},
	}

	for _, tt := range tests {
		err := tt.cfg.Validate()
		if tt.wantErr {
			assert.Error(t, err, tt.name)
		} else {
			assert.NoError(t, err, tt.name)
		}
	}
}
