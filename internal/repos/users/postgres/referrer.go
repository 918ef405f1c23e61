package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/fastprodman/pointsledger/internal/repos/users"
)

func (r *usersRepo) SetReferrer(ctx context.Context, tx *sqlx.Tx, userID, referrerID string) error {
	if userID == referrerID {
		return users.ErrSelfReferral
	}

	var referrersReferrer sql.NullString

	err := tx.QueryRowContext(ctx, `
		SELECT referrer_id FROM users WHERE id = $1
	`, referrerID).Scan(&referrersReferrer)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("referrer %s: %w", referrerID, users.ErrUserNotFound)
		}

		return fmt.Errorf("load referrer: %w", err)
	}

	// direct two-user loops only; longer chains are not walked
	if referrersReferrer.String == userID {
		return users.ErrReferralCycle
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE users
		SET referrer_id = $2
		WHERE id = $1
		  AND referrer_id IS NULL
	`, userID, referrerID)
	if err != nil {
		return fmt.Errorf("set referrer: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}

	if affected == 0 {
		err = r.Exists(ctx, tx, userID)
		if err != nil {
			return err
		}

		return users.ErrReferrerAlreadySet
	}

	return nil
}
