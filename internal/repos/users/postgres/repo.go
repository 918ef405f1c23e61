package users

import (
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/jonboulle/clockwork"

	"github.com/fastprodman/pointsledger/internal/repos/users"
)

var _ users.Users = (*usersRepo)(nil)

type usersRepo struct {
	db    *sqlx.DB
	clock clockwork.Clock
}

func New(db *sqlx.DB, clock clockwork.Clock) *usersRepo {
	return &usersRepo{db: db, clock: clock}
}

type userRow struct {
	ID           string         `db:"id"`
	Wallet       sql.NullString `db:"wallet"`
	ReferrerID   sql.NullString `db:"referrer_id"`
	FirstEventAt sql.NullTime   `db:"first_event_at"`
	CreatedAt    time.Time      `db:"created_at"`
}

func (r userRow) user() users.User {
	u := users.User{
		ID:         r.ID,
		Wallet:     r.Wallet.String,
		ReferrerID: r.ReferrerID.String,
		CreatedAt:  r.CreatedAt.UTC(),
	}
	if r.FirstEventAt.Valid {
		u.FirstEventAt = r.FirstEventAt.Time.UTC()
	}

	return u
}

func (r *usersRepo) now() time.Time {
	return r.clock.Now().UTC().Truncate(time.Microsecond)
}
