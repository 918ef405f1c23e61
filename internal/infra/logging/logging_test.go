package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
)

func TestNew_AddsRequestID(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, slog.LevelInfo).With("component", "test")

	ctx := context.WithValue(context.Background(), middleware.RequestIDKey, "req-1")
	log.InfoContext(ctx, "hello")
	log.DebugContext(ctx, "dropped")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("decode log line %q: %v", buf.String(), err)
	}

	if rec["request_id"] != "req-1" || rec["component"] != "test" || rec["msg"] != "hello" {
		t.Fatalf("unexpected record: %v", rec)
	}
}

func TestNew_NoRequestID(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, slog.LevelInfo).Info("plain")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := rec["request_id"]; ok {
		t.Fatalf("unexpected request_id in %v", rec)
	}
}
