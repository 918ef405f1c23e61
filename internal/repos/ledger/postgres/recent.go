package ledger

import (
	"context"
	"fmt"

	"github.com/fastprodman/pointsledger/internal/repos/ledger"
)

func (r *ledgerRepo) Recent(ctx context.Context, userID string, limit int) ([]ledger.Event, error) {
	var rows []eventRow

	err := r.db.SelectContext(ctx, &rows, selectEventColumns+`
		WHERE user_id = $1
		ORDER BY created_at DESC, seq DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("select recent events: %w", err)
	}

	events := make([]ledger.Event, 0, len(rows))
	for _, row := range rows {
		ev, err := row.Event(row.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("decode event %s: %w", row.ID, err)
		}
		events = append(events, ev)
	}

	return events, nil
}
