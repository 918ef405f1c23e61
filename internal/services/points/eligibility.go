package points

import (
	"context"
	"fmt"

	"github.com/jonboulle/clockwork"

	"github.com/fastprodman/pointsledger/internal/config"
	"github.com/fastprodman/pointsledger/internal/repos/ledger"
	"github.com/fastprodman/pointsledger/internal/repos/users"
)

// Decision reasons, also used in logs.
const (
	ReasonEligible               = "eligible"
	ReasonNoReferrer             = "no_referrer"
	ReasonSelfReferral           = "self_referral"
	ReasonNoRecentActivity       = "no_recent_activity"
	ReasonInsufficientActiveDays = "insufficient_active_days"
)

// Decision is the outcome of a referral check for one referred user.
type Decision struct {
	Eligible   bool
	Reason     string
	ReferrerID string
	// MatchKey/MatchValue are set only when the activity query was filtered.
	MatchKey   string
	MatchValue string
	Activity   ledger.Activity
}

type eligibility struct {
	cfg    config.ReferralConfig
	users  users.Users
	ledger ledger.Ledger
	clock  clockwork.Clock
}

// Evaluate decides whether the referrer of referredUserID earns a bonus,
// given the metadata of the referred user's first tick.
func (e *eligibility) Evaluate(ctx context.Context, referredUserID string, tick ledger.TickMetadata) (Decision, error) {
	referred, err := e.users.Get(ctx, referredUserID)
	if err != nil {
		return Decision{}, fmt.Errorf("load referred user: %w", err)
	}

	if !referred.HasReferrer() {
		return Decision{Reason: ReasonNoReferrer}, nil
	}

	d := Decision{ReferrerID: referred.ReferrerID}

	if referred.ReferrerID == referred.ID {
		d.Reason = ReasonSelfReferral
		return d, nil
	}

	if !e.cfg.GatingEnabled {
		d.Eligible = true
		d.Reason = ReasonEligible
		return d, nil
	}

	now := e.clock.Now()
	filter := ledger.ActivityFilter{
		Since: now.Add(-e.cfg.Window()),
		Until: now,
	}

	// a tick without the key means no filtering
	if v, ok := tick.Lookup(e.cfg.MatchKey); ok {
		filter.MatchKey = e.cfg.MatchKey
		filter.MatchValue = v
		d.MatchKey = e.cfg.MatchKey
		d.MatchValue = v
	}

	d.Activity, err = e.ledger.TickActivity(ctx, d.ReferrerID, filter)
	if err != nil {
		return Decision{}, fmt.Errorf("referrer activity: %w", err)
	}

	switch {
	case d.Activity.Ticks == 0:
		d.Reason = ReasonNoRecentActivity
	case e.cfg.MinActiveDays > 0 && d.Activity.ActiveDays < e.cfg.MinActiveDays:
		d.Reason = ReasonInsufficientActiveDays
	default:
		d.Eligible = true
		d.Reason = ReasonEligible
	}

	return d, nil
}
