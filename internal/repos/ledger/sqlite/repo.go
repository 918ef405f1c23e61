// Package ledger is the SQLite ledger backend, used for single-node
// deployments and as the test store for the points service.
package ledger

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/jonboulle/clockwork"

	"github.com/fastprodman/pointsledger/internal/infra/sqliteutil"
	"github.com/fastprodman/pointsledger/internal/repos/ledger"
)

var _ ledger.Ledger = (*ledgerRepo)(nil)

type ledgerRepo struct {
	db    *sqlx.DB
	clock clockwork.Clock
}

func New(db *sqlx.DB, clock clockwork.Clock) *ledgerRepo {
	return &ledgerRepo{db: db, clock: clock}
}

// eventRow keeps created_at as fixed-width UTC text.
type eventRow struct {
	ledger.Row
	CreatedAt string `db:"created_at"`
}

func (r eventRow) event() (ledger.Event, error) {
	ts, err := time.ParseInLocation(sqliteutil.TimeLayout, r.CreatedAt, time.UTC)
	if err != nil {
		return ledger.Event{}, fmt.Errorf("parse created_at %q: %w", r.CreatedAt, err)
	}

	return r.Event(ts)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(sqliteutil.TimeLayout)
}

const selectEventColumns = `
	SELECT id, user_id, event_type, amount, idempotency_key, referred_user_id, metadata, created_at
	FROM ledger_events
`
