package users

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/jonboulle/clockwork"

	"github.com/fastprodman/pointsledger/internal/infra/sqliteutil"
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
	FirstEventAt sql.NullString `db:"first_event_at"`
	CreatedAt    string         `db:"created_at"`
}

func (r userRow) user() (users.User, error) {
	created, err := parseTime(r.CreatedAt)
	if err != nil {
		return users.User{}, err
	}

	u := users.User{
		ID:         r.ID,
		Wallet:     r.Wallet.String,
		ReferrerID: r.ReferrerID.String,
		CreatedAt:  created,
	}

	if r.FirstEventAt.Valid {
		u.FirstEventAt, err = parseTime(r.FirstEventAt.String)
		if err != nil {
			return users.User{}, err
		}
	}

	return u, nil
}

func (r *usersRepo) now() string {
	return r.clock.Now().UTC().Format(sqliteutil.TimeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.ParseInLocation(sqliteutil.TimeLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	return t, nil
}
