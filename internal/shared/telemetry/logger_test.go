package telemetry

import (
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestInfoAndErrorCarryFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	prev := L()
	SetLogger(zap.New(core))
	t.Cleanup(func() { SetLogger(prev) })

	Info("session.saved", map[string]any{"session_id": "abc", "step": 2})
	Error("session.save_failed", map[string]any{"session_id": "abc", "error": errors.New("boom")})

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Message != "session.saved" {
		t.Fatalf("unexpected message %q", entries[0].Message)
	}
	ctx := entries[0].ContextMap()
	if ctx["session_id"] != "abc" {
		t.Fatalf("session_id = %v", ctx["session_id"])
	}
	if entries[1].Level != zap.ErrorLevel {
		t.Fatalf("expected error level, got %s", entries[1].Level)
	}
	if got := entries[1].ContextMap()["error"]; got != "boom" {
		t.Fatalf("error field = %v", got)
	}
}

func TestSetLoggerNilFallsBackToNop(t *testing.T) {
	prev := L()
	t.Cleanup(func() { SetLogger(prev) })

	SetLogger(nil)
	if L() == nil {
		t.Fatalf("expected non-nil logger")
	}
	Info("ignored", nil)
}
