package ledger

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

func (r *ledgerRepo) Balance(ctx context.Context, q sqlx.QueryerContext, userID string) (int64, error) {
	var balance int64

	err := sqlx.GetContext(ctx, q, &balance, `
		SELECT COALESCE(SUM(amount), 0)::BIGINT
		FROM ledger_events
		WHERE user_id = $1
	`, userID)
	if err != nil {
		return 0, fmt.Errorf("sum balance: %w", err)
	}

	return balance, nil
}
