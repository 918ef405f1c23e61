package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventTick          EventType = "tick"
	EventReferralBonus EventType = "referral_bonus"
)

// Metadata keys shared by the JSON encoding and the activity filters.
const (
	KeyIdempotency    = "idempotencyKey"
	KeyGroup          = "groupKey"
	KeyReferredUserID = "referredUserId"
	KeyReason         = "reason"
	KeyMatchedKey     = "matchedKey"
	KeyMatchedValue   = "matchedValue"
)

// Metadata is implemented only by TickMetadata and BonusMetadata.
type Metadata interface {
	EventType() EventType
	validate() error
}

// TickMetadata is attached to every tick. Extra carries any additional
// string keys the client sent.
type TickMetadata struct {
	IdempotencyKey string
	GroupKey       string
	Extra          map[string]string
}

func (TickMetadata) EventType() EventType { return EventTick }

func (m TickMetadata) validate() error {
	if m.IdempotencyKey == "" {
		return errors.New("tick metadata: idempotencyKey required")
	}
	return nil
}

// Lookup returns the value stored under key, if any.
func (m TickMetadata) Lookup(key string) (string, bool) {
	switch key {
	case "":
		return "", false
	case KeyIdempotency:
		return m.IdempotencyKey, m.IdempotencyKey != ""
	case KeyGroup:
		return m.GroupKey, m.GroupKey != ""
	}

	v, ok := m.Extra[key]
	return v, ok
}

func (m TickMetadata) MarshalJSON() ([]byte, error) {
	out := make(map[string]string, len(m.Extra)+2)
	for k, v := range m.Extra {
		out[k] = v
	}

	out[KeyIdempotency] = m.IdempotencyKey
	if m.GroupKey != "" {
		out[KeyGroup] = m.GroupKey
	}

	return json.Marshal(out)
}

func (m *TickMetadata) UnmarshalJSON(data []byte) error {
	var raw map[string]string
	err := json.Unmarshal(data, &raw)
	if err != nil {
		return fmt.Errorf("decode tick metadata: %w", err)
	}

	*m = TickMetadata{
		IdempotencyKey: raw[KeyIdempotency],
		GroupKey:       raw[KeyGroup],
	}
	delete(raw, KeyIdempotency)
	delete(raw, KeyGroup)

	if len(raw) > 0 {
		m.Extra = raw
	}

	return nil
}

// BonusMetadata is attached to a referral bonus credited to the referrer.
type BonusMetadata struct {
	ReferredUserID string `json:"referredUserId"`
	Reason         string `json:"reason"`
	MatchedKey     string `json:"matchedKey,omitempty"`
	MatchedValue   string `json:"matchedValue,omitempty"`
}

func (BonusMetadata) EventType() EventType { return EventReferralBonus }

func (m BonusMetadata) validate() error {
	if m.ReferredUserID == "" {
		return errors.New("bonus metadata: referredUserId required")
	}
	if m.Reason == "" {
		return errors.New("bonus metadata: reason required")
	}
	return nil
}

// Event is one immutable ledger row. The event type is carried by Metadata.
type Event struct {
	ID        uuid.UUID
	UserID    string
	Amount    int64
	Metadata  Metadata
	CreatedAt time.Time
}

func (e Event) Type() EventType {
	if e.Metadata == nil {
		return ""
	}
	return e.Metadata.EventType()
}

// Tick returns the tick metadata, or false for any other event type.
func (e Event) Tick() (TickMetadata, bool) {
	m, ok := e.Metadata.(TickMetadata)
	return m, ok
}

// Bonus returns the bonus metadata, or false for any other event type.
func (e Event) Bonus() (BonusMetadata, bool) {
	m, ok := e.Metadata.(BonusMetadata)
	return m, ok
}

// Validate checks the invariants every stored event must satisfy.
func (e Event) Validate() error {
	if e.UserID == "" {
		return errors.New("event: userId required")
	}
	if e.Amount <= 0 {
		return fmt.Errorf("event: amount must be positive, got %d", e.Amount)
	}
	if e.Metadata == nil {
		return errors.New("event: metadata required")
	}

	return e.Metadata.validate()
}

type eventJSON struct {
	ID        uuid.UUID `json:"id"`
	UserID    string    `json:"userId"`
	Type      EventType `json:"type"`
	Amount    int64     `json:"amount"`
	Metadata  Metadata  `json:"metadata"`
	CreatedAt time.Time `json:"createdAt"`
}

func (e Event) MarshalJSON() ([]byte, error) {
	return json.Marshal(eventJSON{
		ID:        e.ID,
		UserID:    e.UserID,
		Type:      e.Type(),
		Amount:    e.Amount,
		Metadata:  e.Metadata,
		CreatedAt: e.CreatedAt,
	})
}

// DecodeMetadata rebuilds the typed metadata stored for an event row.
func DecodeMetadata(t EventType, raw []byte) (Metadata, error) {
	switch t {
	case EventTick:
		var m TickMetadata
		err := json.Unmarshal(raw, &m)
		if err != nil {
			return nil, err
		}
		return m, nil
	case EventReferralBonus:
		var m BonusMetadata
		err := json.Unmarshal(raw, &m)
		if err != nil {
			return nil, fmt.Errorf("decode bonus metadata: %w", err)
		}
		return m, nil
	default:
		return nil, fmt.Errorf("unknown event type %q", t)
	}
}
