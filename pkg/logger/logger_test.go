package logger

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestWithRequestID(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	base := zap.New(core)

	ctx := ContextWithUserID(ContextWithRequestID(context.Background(), "req-1"), "alice")
	WithRequestID(ctx, base).Info("hello")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("got %d entries", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["request_id"] != "req-1" || fields["user_id"] != "alice" {
		t.Fatalf("fields = %v", fields)
	}

	if got := WithRequestID(context.Background(), base); got != base {
		t.Fatal("logger without context values must be returned as is")
	}
}

func TestNewFallsBackToInfo(t *testing.T) {
	l, err := New(Config{Level: "verbose", Encoding: "console", Output: "stderr"})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if l.Core().Enabled(zap.DebugLevel) || !l.Core().Enabled(zap.InfoLevel) {
		t.Fatal("unknown level must fall back to info")
	}
}
