package points

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/jonboulle/clockwork"

	"github.com/fastprodman/pointsledger/internal/config"
	"github.com/fastprodman/pointsledger/internal/infra/pgutils"
	"github.com/fastprodman/pointsledger/internal/infra/sqliteutil"
	"github.com/fastprodman/pointsledger/internal/repos/ledger"
	pgledger "github.com/fastprodman/pointsledger/internal/repos/ledger/postgres"
	sqliteledger "github.com/fastprodman/pointsledger/internal/repos/ledger/sqlite"
	"github.com/fastprodman/pointsledger/internal/repos/users"
	pgusers "github.com/fastprodman/pointsledger/internal/repos/users/postgres"
	sqliteusers "github.com/fastprodman/pointsledger/internal/repos/users/sqlite"
)

type Service struct {
	db       *sqlx.DB
	users    users.Users
	ledger   ledger.Ledger
	referral *eligibility
	cfg      config.ReferralConfig
}

// New wires the repositories matching the driver behind db.
func New(db *sqlx.DB, cfg config.ReferralConfig, clock clockwork.Clock) (*Service, error) {
	var (
		u users.Users
		l ledger.Ledger
	)

	switch db.DriverName() {
	case pgutils.DriverName:
		u = pgusers.New(db, clock)
		l = pgledger.New(db, clock)
	case sqliteutil.DriverName:
		u = sqliteusers.New(db, clock)
		l = sqliteledger.New(db, clock)
	default:
		return nil, fmt.Errorf("unsupported driver %q", db.DriverName())
	}

	return &Service{
		db:     db,
		users:  u,
		ledger: l,
		referral: &eligibility{
			cfg:    cfg,
			users:  u,
			ledger: l,
			clock:  clock,
		},
		cfg: cfg,
	}, nil
}

// Balance returns the sum of every ledger event of the user (0 if none).
func (s *Service) Balance(ctx context.Context, userID string) (int64, error) {
	balance, err := s.ledger.Balance(ctx, s.db, userID)
	if err != nil {
		return 0, fmt.Errorf("get balance: %w", err)
	}

	return balance, nil
}

// History returns the user's most recent events, newest first.
func (s *Service) History(ctx context.Context, userID string, limit int) ([]ledger.Event, error) {
	events, err := s.ledger.Recent(ctx, userID, ClampHistoryLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("get history: %w", err)
	}

	return events, nil
}

// ReferralStats reports the bonuses the user earned as a referrer.
func (s *Service) ReferralStats(ctx context.Context, userID string) (ledger.ReferralStats, error) {
	stats, err := s.ledger.ReferralStats(ctx, userID)
	if err != nil {
		return ledger.ReferralStats{}, fmt.Errorf("get referral stats: %w", err)
	}

	return stats, nil
}

// LinkReferrer records who referred userID. The link can be set only once.
func (s *Service) LinkReferrer(ctx context.Context, userID, wallet, referrerID string) error {
	if userID == "" || referrerID == "" {
		return fmt.Errorf("%w: user and referrer ids required", ErrInvalidRequest)
	}
	if len(referrerID) > maxIdentifierLen {
		return fmt.Errorf("%w: referrer id too long", ErrInvalidRequest)
	}

	err := pgutils.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		err := s.users.Ensure(ctx, tx, userID, wallet)
		if err != nil {
			return fmt.Errorf("ensure user: %w", err)
		}

		return s.users.SetReferrer(ctx, tx, userID, referrerID)
	})
	if err != nil {
		return fmt.Errorf("link referrer: %w", err)
	}

	return nil
}
