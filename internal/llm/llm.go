package llm

import (
	"context"
	"errors"
)

// Roles used in Message.
const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// Message is one chat turn sent to a provider.
type Message struct {
	Role    string
	Content string
}

// Client is a text generator. Complete returns the raw completion body; it
// makes exactly one provider request and never retries.
type Client interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}

// ErrNotConfigured is returned by the placeholder client.
var ErrNotConfigured = errors.New("LLM provider not configured")

// PlaceholderClient stands in when no provider key is set.
type PlaceholderClient struct{}

// Complete returns ErrNotConfigured.
func (PlaceholderClient) Complete(_ context.Context, _ []Message) (string, error) {
	return "", ErrNotConfigured
}

// SystemPrompt joins the system messages in order.
func SystemPrompt(messages []Message) string {
	var out string
	for _, m := range messages {
		if m.Role != RoleSystem {
			continue
		}
		if out != "" {
			out += "\n\n"
		}
		out += m.Content
	}
	return out
}

// ClientFunc adapts a function to Client.
type ClientFunc func(ctx context.Context, messages []Message) (string, error)

// Complete calls f.
func (f ClientFunc) Complete(ctx context.Context, messages []Message) (string, error) {
	return f(ctx, messages)
}
