package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

var (
	ErrDuplicateTick  = errors.New("duplicate tick")
	ErrDuplicateBonus = errors.New("duplicate referral bonus")
)

// ActivityFilter selects a user's ticks inside [Since, Until].
// When MatchKey is set only ticks whose metadata carries MatchValue under
// MatchKey are counted.
type ActivityFilter struct {
	Since      time.Time
	Until      time.Time
	MatchKey   string
	MatchValue string
}

// Activity summarises ticks matched by an ActivityFilter.
type Activity struct {
	Ticks      int64 `db:"ticks"`
	ActiveDays int64 `db:"active_days"`
}

// ReferralStats covers bonuses a user earned as a referrer.
type ReferralStats struct {
	TotalBonus    int64 `db:"total_bonus" json:"totalBonus"`
	ReferredUsers int64 `db:"referred_users" json:"referredUsers"`
}

// Ledger is the append-only event store. Rows are never updated or deleted.
type Ledger interface {
	// Append inserts ev in a single statement. A uniqueness conflict is
	// reported as ErrDuplicateTick or ErrDuplicateBonus depending on the type.
	Append(ctx context.Context, tx *sqlx.Tx, ev Event) (Event, error)

	// Balance sums every event of the user. q may be the db or an open tx.
	Balance(ctx context.Context, q sqlx.QueryerContext, userID string) (int64, error)

	// Recent returns up to limit events, newest first.
	Recent(ctx context.Context, userID string, limit int) ([]Event, error)

	// TickActivity counts the user's ticks and distinct UTC days within the filter.
	TickActivity(ctx context.Context, userID string, f ActivityFilter) (Activity, error)

	ReferralStats(ctx context.Context, referrerID string) (ReferralStats, error)
}
