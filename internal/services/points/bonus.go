package points

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/fastprodman/pointsledger/internal/infra/pgutils"
	"github.com/fastprodman/pointsledger/internal/repos/ledger"
)

// BonusReasonFirstTick tags bonuses paid for a referred user's first tick.
const BonusReasonFirstTick = "first_tick"

const bonusTimeout = 5 * time.Second

// rewardReferrer runs the referral check for a user's first event and pays
// the bonus when eligible. It reports whether a new bonus row was written.
// Errors are logged only: the tick has already been committed.
//
// The check runs once. A referrer who becomes active later is not paid
// for this referral.
func (s *Service) rewardReferrer(ctx context.Context, first ledger.Event) bool {
	tick, ok := first.Tick()
	if !ok {
		return false
	}

	// the tick is committed; finish even if the caller went away
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), bonusTimeout)
	defer cancel()

	d, err := s.referral.Evaluate(ctx, first.UserID, tick)
	if err != nil {
		slog.ErrorContext(ctx, "referral eligibility failed",
			"referred_user_id", first.UserID, "error", err)
		return false
	}

	if !d.Eligible {
		slog.InfoContext(ctx, "referral bonus skipped",
			"referred_user_id", first.UserID,
			"referrer_id", d.ReferrerID,
			"reason", d.Reason,
			"ticks", d.Activity.Ticks,
			"active_days", d.Activity.ActiveDays)
		return false
	}

	issued, err := s.issueBonus(ctx, d, first.UserID)
	if err != nil {
		slog.ErrorContext(ctx, "referral bonus failed",
			"referred_user_id", first.UserID, "referrer_id", d.ReferrerID, "error", err)
		return false
	}

	return issued
}

// issueBonus appends the referral bonus to the referrer's ledger. An
// existing bonus for the same pair is a no-op reported as (false, nil).
func (s *Service) issueBonus(ctx context.Context, d Decision, referredUserID string) (bool, error) {
	ev := ledger.Event{
		UserID: d.ReferrerID,
		Amount: s.cfg.BonusAmount,
		Metadata: ledger.BonusMetadata{
			ReferredUserID: referredUserID,
			Reason:         BonusReasonFirstTick,
			MatchedKey:     d.MatchKey,
			MatchedValue:   d.MatchValue,
		},
	}

	var created ledger.Event

	err := pgutils.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		var err error

		created, err = s.ledger.Append(ctx, tx, ev)
		if err != nil {
			return fmt.Errorf("append bonus: %w", err)
		}

		_, err = s.users.ClaimFirstEvent(ctx, tx, d.ReferrerID)
		if err != nil {
			return fmt.Errorf("claim referrer first event: %w", err)
		}

		return nil
	})
	if err != nil {
		if errors.Is(err, ledger.ErrDuplicateBonus) {
			slog.DebugContext(ctx, "referral bonus already paid",
				"referrer_id", d.ReferrerID, "referred_user_id", referredUserID)
			return false, nil
		}

		return false, err
	}

	slog.InfoContext(ctx, "referral bonus issued",
		"referrer_id", d.ReferrerID,
		"referred_user_id", referredUserID,
		"event_id", created.ID,
		"amount", created.Amount)

	return true, nil
}
