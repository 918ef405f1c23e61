package ledger

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/fastprodman/pointsledger/internal/repos/ledger"
)

func (r *ledgerRepo) Balance(ctx context.Context, q sqlx.QueryerContext, userID string) (int64, error) {
	var balance int64

	err := sqlx.GetContext(ctx, q, &balance, `
		SELECT COALESCE(SUM(amount), 0)
		FROM ledger_events
		WHERE user_id = ?
	`, userID)
	if err != nil {
		return 0, fmt.Errorf("sum balance: %w", err)
	}

	return balance, nil
}

func (r *ledgerRepo) Recent(ctx context.Context, userID string, limit int) ([]ledger.Event, error) {
	var rows []eventRow

	err := r.db.SelectContext(ctx, &rows, selectEventColumns+`
		WHERE user_id = ?
		ORDER BY created_at DESC, seq DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("select recent events: %w", err)
	}

	events := make([]ledger.Event, 0, len(rows))
	for _, row := range rows {
		ev, err := row.event()
		if err != nil {
			return nil, fmt.Errorf("decode event %s: %w", row.ID, err)
		}
		events = append(events, ev)
	}

	return events, nil
}

func (r *ledgerRepo) TickActivity(ctx context.Context, userID string, f ledger.ActivityFilter) (ledger.Activity, error) {
	query := `
		SELECT COUNT(*) AS ticks,
		       COUNT(DISTINCT substr(created_at, 1, 10)) AS active_days
		FROM ledger_events
		WHERE user_id = ?
		  AND event_type = 'tick'
		  AND created_at >= ?
		  AND created_at <= ?
	`
	args := []any{userID, formatTime(f.Since), formatTime(f.Until)}

	if f.MatchKey != "" {
		query += ` AND json_extract(metadata, ?) = ?`
		args = append(args, jsonPath(f.MatchKey), f.MatchValue)
	}

	var act ledger.Activity

	err := r.db.GetContext(ctx, &act, query, args...)
	if err != nil {
		return ledger.Activity{}, fmt.Errorf("tick activity: %w", err)
	}

	return act, nil
}

func (r *ledgerRepo) ReferralStats(ctx context.Context, referrerID string) (ledger.ReferralStats, error) {
	var stats ledger.ReferralStats

	err := r.db.GetContext(ctx, &stats, `
		SELECT COALESCE(SUM(amount), 0) AS total_bonus,
		       COUNT(DISTINCT referred_user_id) AS referred_users
		FROM ledger_events
		WHERE user_id = ?
		  AND event_type = 'referral_bonus'
	`, referrerID)
	if err != nil {
		return ledger.ReferralStats{}, fmt.Errorf("referral stats: %w", err)
	}

	return stats, nil
}

// jsonPath quotes key as a single object member.
func jsonPath(key string) string {
	return `$."` + strings.ReplaceAll(key, `"`, `\"`) + `"`
}
