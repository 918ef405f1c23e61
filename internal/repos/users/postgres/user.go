package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/fastprodman/pointsledger/internal/repos/users"
)

func (r *usersRepo) Ensure(ctx context.Context, tx *sqlx.Tx, userID, wallet string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO users (id, wallet, created_at)
		VALUES ($1, NULLIF($2, ''), $3)
		ON CONFLICT (id) DO NOTHING
	`, userID, wallet, r.now())
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}

	return nil
}

func (r *usersRepo) Exists(ctx context.Context, tx *sqlx.Tx, userID string) error {
	var exists bool

	err := tx.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)
	`, userID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}

	if !exists {
		return users.ErrUserNotFound
	}

	return nil
}

func (r *usersRepo) ClaimFirstEvent(ctx context.Context, tx *sqlx.Tx, userID string) (bool, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE users
		SET first_event_at = $2
		WHERE id = $1
		  AND first_event_at IS NULL
	`, userID, r.now())
	if err != nil {
		return false, fmt.Errorf("claim first event: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}

	return affected == 1, nil
}

func (r *usersRepo) Get(ctx context.Context, userID string) (users.User, error) {
	var row userRow

	err := r.db.GetContext(ctx, &row, `
		SELECT id, wallet, referrer_id, first_event_at, created_at
		FROM users
		WHERE id = $1
	`, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return users.User{}, users.ErrUserNotFound
		}

		return users.User{}, fmt.Errorf("get user: %w", err)
	}

	return row.user(), nil
}
