package users

import (
	"context"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrSelfReferral       = errors.New("user cannot refer themselves")
	ErrReferralCycle      = errors.New("referrer is referred by this user")
	ErrReferrerAlreadySet = errors.New("referrer already set")
)

// User is an identity known to the ledger. ReferrerID is empty when the
// user was not referred; FirstEventAt is zero until the first ledger event.
type User struct {
	ID           string
	Wallet       string
	ReferrerID   string
	FirstEventAt time.Time
	CreatedAt    time.Time
}

func (u User) HasReferrer() bool {
	return u.ReferrerID != ""
}

type Users interface {
	// Ensure creates the user if missing; an existing row is left untouched.
	Ensure(ctx context.Context, tx *sqlx.Tx, userID, wallet string) error

	// Exists returns ErrUserNotFound when there is no such user.
	Exists(ctx context.Context, tx *sqlx.Tx, userID string) error

	// ClaimFirstEvent sets first_event_at if it is still empty and reports
	// whether this call was the one that set it.
	ClaimFirstEvent(ctx context.Context, tx *sqlx.Tx, userID string) (bool, error)

	Get(ctx context.Context, userID string) (User, error)

	// SetReferrer links userID to referrerID once. Both users must exist.
	SetReferrer(ctx context.Context, tx *sqlx.Tx, userID, referrerID string) error
}
