package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"

	"github.com/fastprodman/pointsledger/internal/repos/ledger"
)

func (r *ledgerRepo) Append(ctx context.Context, tx *sqlx.Tx, ev ledger.Event) (ledger.Event, error) {
	if ev.ID == uuid.Nil {
		ev.ID = uuid.New()
	}
	ev.CreatedAt = r.clock.Now().UTC()

	row, err := ledger.NewRow(ev)
	if err != nil {
		return ledger.Event{}, fmt.Errorf("build row: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO ledger_events
			(id, user_id, event_type, amount, idempotency_key, referred_user_id, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, row.ID, row.UserID, string(row.EventType), row.Amount,
		row.IdempotencyKey, row.ReferredUserID, string(row.Metadata), formatTime(ev.CreatedAt))
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return ledger.Event{}, ledger.DuplicateErr(row.EventType)
		}

		return ledger.Event{}, fmt.Errorf("insert ledger event: %w", err)
	}

	return ev, nil
}
