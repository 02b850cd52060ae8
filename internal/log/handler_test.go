package log_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	ctxlog "github.com/ErlanBelekov/boss-notifier/internal/log"
	"github.com/ErlanBelekov/boss-notifier/internal/requestid"
)

func record(t *testing.T, ctx context.Context) map[string]any {
	t.Helper()
	var buf bytes.Buffer
	logger := slog.New(ctxlog.NewContextHandler(slog.NewJSONHandler(&buf, nil)))
	logger.With("component", "test").InfoContext(ctx, "hello")

	var out map[string]any
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return out
}

func TestContextHandler_AddsRequestID(t *testing.T) {
	ctx := requestid.WithRequestID(context.Background(), "req-1")
	if got := record(t, ctx)["request_id"]; got != "req-1" {
		t.Fatalf("request_id = %v", got)
	}
}

func TestContextHandler_AddsAttachedAttrs(t *testing.T) {
	ctx := ctxlog.With(context.Background(), slog.String("trigger", "cron"))
	ctx = ctxlog.With(ctx, slog.String("user_id", "U1"))

	out := record(t, ctx)
	if out["trigger"] != "cron" || out["user_id"] != "U1" || out["component"] != "test" {
		t.Fatalf("record = %v", out)
	}
}

func TestContextHandler_BareContext(t *testing.T) {
	out := record(t, context.Background())
	if _, ok := out["request_id"]; ok {
		t.Fatalf("unexpected request_id in %v", out)
	}
}
