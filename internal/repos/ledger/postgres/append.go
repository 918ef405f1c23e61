package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"

	"github.com/fastprodman/pointsledger/internal/repos/ledger"
)

func (r *ledgerRepo) Append(ctx context.Context, tx *sqlx.Tx, ev ledger.Event) (ledger.Event, error) {
	if ev.ID == uuid.Nil {
		ev.ID = uuid.New()
	}
	// timestamptz keeps microseconds
	ev.CreatedAt = r.clock.Now().UTC().Truncate(time.Microsecond)

	row, err := ledger.NewRow(ev)
	if err != nil {
		return ledger.Event{}, fmt.Errorf("build row: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO ledger_events
			(id, user_id, event_type, amount, idempotency_key, referred_user_id, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, row.ID, row.UserID, string(row.EventType), row.Amount,
		row.IdempotencyKey, row.ReferredUserID, string(row.Metadata), ev.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			if pgErr.Code == "23505" { // unique_violation
				return ledger.Event{}, ledger.DuplicateErr(row.EventType)
			}
		}

		return ledger.Event{}, fmt.Errorf("insert ledger event: %w", err)
	}

	return ev, nil
}
