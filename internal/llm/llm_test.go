package llm

import (
	"context"
	"errors"
	"testing"
)

func TestPlaceholderClientNotConfigured(t *testing.T) {
	_, err := PlaceholderClient{}.Complete(context.Background(), []Message{{Role: RoleUser, Content: "hi"}})
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestSystemPromptJoinsSystemMessagesOnly(t *testing.T) {
	got := SystemPrompt([]Message{
		{Role: RoleSystem, Content: "a"},
		{Role: RoleUser, Content: "ignored"},
		{Role: RoleSystem, Content: "b"},
	})
	if got != "a\n\nb" {
		t.Fatalf("SystemPrompt = %q", got)
	}
}
