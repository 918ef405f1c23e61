package points

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/fastprodman/pointsledger/internal/infra/pgutils"
	"github.com/fastprodman/pointsledger/internal/repos/ledger"
)

// Earn appends one tick for the caller and returns the updated balance.
//
// Runs in a single DB transaction:
//
// 1) Ensure the user row exists.
// 2) Insert the tick (unique violation -> deduped result, balance unchanged).
// 3) Claim the user's first-event flag.
// 4) Sum the balance, seeing the insert above.
//
// After commit, a claimed first event triggers the referral check. Failures
// there are logged and never change the result.
func (s *Service) Earn(ctx context.Context, req EarnRequest) (EarnResult, error) {
	err := req.Validate()
	if err != nil {
		return EarnResult{}, err
	}

	var (
		created ledger.Event
		first   bool
		balance int64
	)

	err = pgutils.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		err := s.users.Ensure(ctx, tx, req.UserID, req.Wallet)
		if err != nil {
			return fmt.Errorf("ensure user: %w", err)
		}

		created, err = s.ledger.Append(ctx, tx, ledger.Event{
			UserID:   req.UserID,
			Amount:   req.Amount,
			Metadata: req.Metadata,
		})
		if err != nil {
			return fmt.Errorf("append tick: %w", err)
		}

		first, err = s.users.ClaimFirstEvent(ctx, tx, req.UserID)
		if err != nil {
			return fmt.Errorf("claim first event: %w", err)
		}

		balance, err = s.ledger.Balance(ctx, tx, req.UserID)
		if err != nil {
			return fmt.Errorf("balance after insert: %w", err)
		}

		return nil
	})
	if err != nil {
		if errors.Is(err, ledger.ErrDuplicateTick) {
			return s.deduped(ctx, req)
		}

		return EarnResult{}, fmt.Errorf("earn: %w", err)
	}

	res := EarnResult{
		Event:   &created,
		Balance: balance,
	}

	if first {
		res.BonusIssued = s.rewardReferrer(ctx, created)
	}

	return res, nil
}

func (s *Service) deduped(ctx context.Context, req EarnRequest) (EarnResult, error) {
	slog.DebugContext(ctx, "duplicate tick ignored",
		"user_id", req.UserID, "idempotency_key", req.Metadata.IdempotencyKey)

	balance, err := s.ledger.Balance(ctx, s.db, req.UserID)
	if err != nil {
		return EarnResult{}, fmt.Errorf("balance after duplicate: %w", err)
	}

	return EarnResult{Deduped: true, Balance: balance}, nil
}
