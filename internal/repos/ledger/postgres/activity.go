package ledger

import (
	"context"
	"fmt"

	"github.com/fastprodman/pointsledger/internal/repos/ledger"
)

func (r *ledgerRepo) TickActivity(ctx context.Context, userID string, f ledger.ActivityFilter) (ledger.Activity, error) {
	query := `
		SELECT COUNT(*) AS ticks,
		       COUNT(DISTINCT (created_at AT TIME ZONE 'UTC')::date) AS active_days
		FROM ledger_events
		WHERE user_id = $1
		  AND event_type = 'tick'
		  AND created_at >= $2
		  AND created_at <= $3
	`
	args := []any{userID, f.Since.UTC(), f.Until.UTC()}

	if f.MatchKey != "" {
		query += ` AND metadata ->> $4::text = $5`
		args = append(args, f.MatchKey, f.MatchValue)
	}

	var act ledger.Activity

	err := r.db.GetContext(ctx, &act, query, args...)
	if err != nil {
		return ledger.Activity{}, fmt.Errorf("tick activity: %w", err)
	}

	return act, nil
}
