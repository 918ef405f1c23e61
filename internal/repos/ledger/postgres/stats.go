package ledger

import (
	"context"
	"fmt"

	"github.com/fastprodman/pointsledger/internal/repos/ledger"
)

func (r *ledgerRepo) ReferralStats(ctx context.Context, referrerID string) (ledger.ReferralStats, error) {
	var stats ledger.ReferralStats

	err := r.db.GetContext(ctx, &stats, `
		SELECT COALESCE(SUM(amount), 0)::BIGINT AS total_bonus,
		       COUNT(DISTINCT referred_user_id) AS referred_users
		FROM ledger_events
		WHERE user_id = $1
		  AND event_type = 'referral_bonus'
	`, referrerID)
	if err != nil {
		return ledger.ReferralStats{}, fmt.Errorf("referral stats: %w", err)
	}

	return stats, nil
}
