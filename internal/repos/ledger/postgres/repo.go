package ledger

import (
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/jonboulle/clockwork"

	"github.com/fastprodman/pointsledger/internal/repos/ledger"
)

var _ ledger.Ledger = (*ledgerRepo)(nil)

type ledgerRepo struct {
	db    *sqlx.DB
	clock clockwork.Clock
}

// New returns the Postgres ledger. The clock stamps created_at on insert.
func New(db *sqlx.DB, clock clockwork.Clock) *ledgerRepo {
	return &ledgerRepo{db: db, clock: clock}
}

// eventRow adds the timestamp column, which Postgres scans natively.
type eventRow struct {
	ledger.Row
	CreatedAt time.Time `db:"created_at"`
}

const selectEventColumns = `
	SELECT id, user_id, event_type, amount, idempotency_key, referred_user_id, metadata, created_at
	FROM ledger_events
`
