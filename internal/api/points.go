package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/fastprodman/pointsledger/internal/repos/ledger"
	"github.com/fastprodman/pointsledger/internal/repos/users"
	"github.com/fastprodman/pointsledger/internal/services/points"
)

type earnRequest struct {
	Type     string         `json:"type"`
	Amount   json.Number    `json:"amount"`
	Metadata map[string]any `json:"metadata"`
}

type earnResponse struct {
	OK      bool          `json:"ok"`
	Deduped bool          `json:"deduped,omitempty"`
	Event   *ledger.Event `json:"event"`
	Balance int64         `json:"balance"`
}

type referrerRequest struct {
	ReferrerID string `json:"referrerId"`
}

// decodeBody reads one JSON object from a size-capped body.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.UseNumber()

	err := dec.Decode(dst)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("empty body")
		}

		return errors.New("invalid JSON")
	}

	return nil
}

// tickMetadata converts the client's metadata bag. Scalars are kept as
// strings; nested values are rejected.
func tickMetadata(raw map[string]any) (ledger.TickMetadata, error) {
	var m ledger.TickMetadata

	for k, v := range raw {
		var s string
		switch val := v.(type) {
		case string:
			s = val
		case json.Number:
			s = val.String()
		case bool:
			s = strconv.FormatBool(val)
		case nil:
			continue
		default:
			return ledger.TickMetadata{}, fmt.Errorf("metadata.%s must be a scalar", k)
		}

		switch k {
		case ledger.KeyIdempotency:
			m.IdempotencyKey = strings.TrimSpace(s)
		case ledger.KeyGroup:
			m.GroupKey = s
		default:
			if m.Extra == nil {
				m.Extra = make(map[string]string)
			}
			m.Extra[k] = s
		}
	}

	return m, nil
}

// --- Handlers ---

// EarnHandler handles POST /api/points/earn
func (h *HandlerProvider) EarnHandler(w http.ResponseWriter, r *http.Request) {
	id := identityFrom(r.Context())

	var body earnRequest
	err := decodeBody(w, r, &body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	amount, err := body.Amount.Int64()
	if err != nil {
		writeError(w, http.StatusBadRequest, "amount must be a positive integer")
		return
	}

	meta, err := tickMetadata(body.Metadata)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.svc.Earn(r.Context(), points.EarnRequest{
		UserID:   id.UserID,
		Wallet:   id.Wallet,
		Type:     ledger.EventType(body.Type),
		Amount:   amount,
		Metadata: meta,
	})
	if err != nil {
		if errors.Is(err, points.ErrInvalidRequest) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		writeInternal(w, r, "earn", err)
		return
	}

	writeJSON(w, http.StatusOK, earnResponse{
		OK:      true,
		Deduped: res.Deduped,
		Event:   res.Event,
		Balance: res.Balance,
	})
}

// BalanceHandler handles GET /api/points/balance
func (h *HandlerProvider) BalanceHandler(w http.ResponseWriter, r *http.Request) {
	id := identityFrom(r.Context())

	bal, err := h.svc.Balance(r.Context(), id.UserID)
	if err != nil {
		writeInternal(w, r, "balance", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "balance": bal})
}

// EventsHandler handles GET /api/points/events?limit=N
func (h *HandlerProvider) EventsHandler(w http.ResponseWriter, r *http.Request) {
	id := identityFrom(r.Context())

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	events, err := h.svc.History(r.Context(), id.UserID, limit)
	if err != nil {
		writeInternal(w, r, "events", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "events": events})
}

// ReferralsHandler handles GET /api/points/referrals
func (h *HandlerProvider) ReferralsHandler(w http.ResponseWriter, r *http.Request) {
	id := identityFrom(r.Context())

	stats, err := h.svc.ReferralStats(r.Context(), id.UserID)
	if err != nil {
		writeInternal(w, r, "referrals", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok":            true,
		"totalBonus":    stats.TotalBonus,
		"referredUsers": stats.ReferredUsers,
	})
}

// ReferrerHandler handles POST /api/points/referrer
func (h *HandlerProvider) ReferrerHandler(w http.ResponseWriter, r *http.Request) {
	id := identityFrom(r.Context())

	var body referrerRequest
	err := decodeBody(w, r, &body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	err = h.svc.LinkReferrer(r.Context(), id.UserID, id.Wallet, strings.TrimSpace(body.ReferrerID))
	if err != nil {
		switch {
		case errors.Is(err, points.ErrInvalidRequest):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, users.ErrSelfReferral):
			writeError(w, http.StatusBadRequest, "cannot refer yourself")
		case errors.Is(err, users.ErrReferralCycle):
			writeError(w, http.StatusBadRequest, "referral cycle")
		case errors.Is(err, users.ErrUserNotFound):
			writeError(w, http.StatusNotFound, "referrer not found")
		case errors.Is(err, users.ErrReferrerAlreadySet):
			writeError(w, http.StatusConflict, "referrer already set")
		default:
			writeInternal(w, r, "link referrer", err)
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}
