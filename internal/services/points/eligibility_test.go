package points

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastprodman/pointsledger/internal/config"
	"github.com/fastprodman/pointsledger/internal/repos/ledger"
)

func TestEligibility_Evaluate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		cfg        func(c *config.ReferralConfig)
		seed       func(t *testing.T, s *Service, clock *clockwork.FakeClock)
		tick       ledger.TickMetadata
		wantReason string
		wantTicks  int64
		wantDays   int64
	}{
		{
			name: "no_referrer",
			seed: func(t *testing.T, s *Service, clock *clockwork.FakeClock) {
				ensureUser(t, s, "B")
			},
			wantReason: ReasonNoReferrer,
		},
		{
			name: "no_recent_activity",
			seed: func(t *testing.T, s *Service, clock *clockwork.FakeClock) {
				ensureUser(t, s, "A")
				require.NoError(t, s.LinkReferrer(context.Background(), "B", "", "A"))
			},
			wantReason: ReasonNoRecentActivity,
		},
		{
			name: "insufficient_active_days",
			seed: func(t *testing.T, s *Service, clock *clockwork.FakeClock) {
				mustEarn(t, s, tick("A", "a1", 1))
				require.NoError(t, s.LinkReferrer(context.Background(), "B", "", "A"))
			},
			wantReason: ReasonInsufficientActiveDays,
			wantTicks:  1,
			wantDays:   1,
		},
		{
			name: "gating_disabled",
			cfg:  func(c *config.ReferralConfig) { c.GatingEnabled = false },
			seed: func(t *testing.T, s *Service, clock *clockwork.FakeClock) {
				ensureUser(t, s, "A")
				require.NoError(t, s.LinkReferrer(context.Background(), "B", "", "A"))
			},
			wantReason: ReasonEligible,
		},
		{
			name: "lookback_excludes_old_ticks",
			cfg: func(c *config.ReferralConfig) {
				c.LookbackMinutes = 30
				c.MinActiveDays = 1
			},
			seed: func(t *testing.T, s *Service, clock *clockwork.FakeClock) {
				mustEarn(t, s, tick("A", "old", 1))
				clock.Advance(time.Hour)
				require.NoError(t, s.LinkReferrer(context.Background(), "B", "", "A"))
			},
			wantReason: ReasonNoRecentActivity,
		},
		{
			name: "match_value_missing_on_tick",
			cfg: func(c *config.ReferralConfig) {
				c.MatchKey = "pool"
				c.MinActiveDays = 1
			},
			seed: func(t *testing.T, s *Service, clock *clockwork.FakeClock) {
				req := tick("A", "a1", 1)
				req.Metadata.Extra = map[string]string{"pool": "x"}
				mustEarn(t, s, req)
				require.NoError(t, s.LinkReferrer(context.Background(), "B", "", "A"))
			},
			wantReason: ReasonEligible,
			wantTicks:  1,
			wantDays:   1,
		},
		{
			name: "match_on_extra_key",
			cfg: func(c *config.ReferralConfig) {
				c.MatchKey = "pool"
				c.MinActiveDays = 1
			},
			seed: func(t *testing.T, s *Service, clock *clockwork.FakeClock) {
				req := tick("A", "a1", 1)
				req.Metadata.Extra = map[string]string{"pool": "x"}
				mustEarn(t, s, req)
				mustEarn(t, s, tick("A", "a2", 1))
				require.NoError(t, s.LinkReferrer(context.Background(), "B", "", "A"))
			},
			tick: ledger.TickMetadata{
				IdempotencyKey: "b1",
				Extra:          map[string]string{"pool": "x"},
			},
			wantReason: ReasonEligible,
			wantTicks:  1,
			wantDays:   1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := config.DefaultReferral()
			if tt.cfg != nil {
				tt.cfg(&cfg)
			}
			s, clock := newTestService(t, cfg)
			tt.seed(t, s, clock)

			d, err := s.referral.Evaluate(context.Background(), "B", tt.tick)
			require.NoError(t, err)

			assert.Equal(t, tt.wantReason, d.Reason)
			assert.Equal(t, tt.wantReason == ReasonEligible, d.Eligible)
			assert.Equal(t, tt.wantTicks, d.Activity.Ticks)
			assert.Equal(t, tt.wantDays, d.Activity.ActiveDays)
		})
	}
}

func TestEligibility_UnknownUser(t *testing.T) {
	t.Parallel()

	s, _ := newTestService(t, config.DefaultReferral())

	_, err := s.referral.Evaluate(context.Background(), "ghost", ledger.TickMetadata{})
	require.Error(t, err)
}
