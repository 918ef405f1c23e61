package ledger

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Row is the column layout shared by the SQL backends. The typed metadata
// is kept whole in Metadata; the two keys the unique indexes need are
// lifted into their own columns.
type Row struct {
	ID             string         `db:"id"`
	UserID         string         `db:"user_id"`
	EventType      EventType      `db:"event_type"`
	Amount         int64          `db:"amount"`
	IdempotencyKey sql.NullString `db:"idempotency_key"`
	ReferredUserID sql.NullString `db:"referred_user_id"`
	Metadata       []byte         `db:"metadata"`
}

// NewRow validates ev and flattens it for insertion.
func NewRow(ev Event) (Row, error) {
	err := ev.Validate()
	if err != nil {
		return Row{}, err
	}

	meta, err := json.Marshal(ev.Metadata)
	if err != nil {
		return Row{}, fmt.Errorf("encode metadata: %w", err)
	}

	row := Row{
		ID:        ev.ID.String(),
		UserID:    ev.UserID,
		EventType: ev.Type(),
		Amount:    ev.Amount,
		Metadata:  meta,
	}

	switch m := ev.Metadata.(type) {
	case TickMetadata:
		row.IdempotencyKey = sql.NullString{String: m.IdempotencyKey, Valid: true}
	case BonusMetadata:
		row.ReferredUserID = sql.NullString{String: m.ReferredUserID, Valid: true}
	}

	return row, nil
}

// Event rebuilds the domain event from a stored row.
func (r Row) Event(createdAt time.Time) (Event, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return Event{}, fmt.Errorf("parse event id %q: %w", r.ID, err)
	}

	meta, err := DecodeMetadata(r.EventType, r.Metadata)
	if err != nil {
		return Event{}, err
	}

	return Event{
		ID:        id,
		UserID:    r.UserID,
		Amount:    r.Amount,
		Metadata:  meta,
		CreatedAt: createdAt.UTC(),
	}, nil
}

// DuplicateErr maps a uniqueness conflict to the sentinel for the event type.
func DuplicateErr(t EventType) error {
	if t == EventReferralBonus {
		return ErrDuplicateBonus
	}
	return ErrDuplicateTick
}
