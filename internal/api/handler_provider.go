package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/fastprodman/pointsledger/internal/repos/ledger"
	"github.com/fastprodman/pointsledger/internal/services/points"
)

// PointsService is the part of points.Service the handlers use.
type PointsService interface {
	Earn(ctx context.Context, req points.EarnRequest) (points.EarnResult, error)
	Balance(ctx context.Context, userID string) (int64, error)
	History(ctx context.Context, userID string, limit int) ([]ledger.Event, error)
	ReferralStats(ctx context.Context, userID string) (ledger.ReferralStats, error)
	LinkReferrer(ctx context.Context, userID, wallet, referrerID string) error
}

// HandlerProvider wraps a PointsService and exposes HTTP handlers.
type HandlerProvider struct {
	svc PointsService
}

// NewHandler returns a new Handler provider.
func NewHandler(svc PointsService) *HandlerProvider {
	return &HandlerProvider{svc: svc}
}

// --- Helpers ---

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		// headers are already out, nothing else to send
		slog.Error("failed to encode JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"ok": false, "error": msg})
}

func writeInternal(w http.ResponseWriter, r *http.Request, op string, err error) {
	slog.ErrorContext(r.Context(), "request failed", "op", op, "error", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}
