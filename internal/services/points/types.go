package points

import (
	"errors"
	"fmt"

	"github.com/fastprodman/pointsledger/internal/repos/ledger"
)

var ErrInvalidRequest = errors.New("invalid request")

const (
	maxIdentifierLen = 256

	DefaultHistoryLimit = 20
	MaxHistoryLimit     = 100
)

// EarnRequest is one tick submitted by an authenticated caller.
type EarnRequest struct {
	UserID   string
	Wallet   string
	Type     ledger.EventType
	Amount   int64
	Metadata ledger.TickMetadata
}

func (r EarnRequest) Validate() error {
	switch {
	case r.UserID == "":
		return fmt.Errorf("%w: user id required", ErrInvalidRequest)
	case r.Type != ledger.EventTick:
		return fmt.Errorf("%w: type must be %q", ErrInvalidRequest, ledger.EventTick)
	case r.Amount <= 0:
		return fmt.Errorf("%w: amount must be a positive integer", ErrInvalidRequest)
	case r.Metadata.IdempotencyKey == "":
		return fmt.Errorf("%w: metadata.idempotencyKey required", ErrInvalidRequest)
	case len(r.Metadata.IdempotencyKey) > maxIdentifierLen:
		return fmt.Errorf("%w: metadata.idempotencyKey too long", ErrInvalidRequest)
	}

	return nil
}

// EarnResult is what the caller sees. Event is nil when the tick was a
// duplicate; Balance is always the caller's current balance.
type EarnResult struct {
	Deduped     bool
	Event       *ledger.Event
	Balance     int64
	BonusIssued bool
}

// ClampHistoryLimit maps a requested page size into [1, MaxHistoryLimit].
// Zero or negative means the default.
func ClampHistoryLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultHistoryLimit
	case limit > MaxHistoryLimit:
		return MaxHistoryLimit
	default:
		return limit
	}
}
