package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"resume-wizard/internal/llm"
	"resume-wizard/internal/shared/telemetry"
)

// DefaultModel is used when LLM_MODEL is unset.
const DefaultModel = "gemini-1.5-flash"

// Client implements llm.Client for Google Gemini.
type Client struct {
	client    *genai.Client
	modelName string
}

// NewClient creates a Gemini client.
func NewClient(ctx context.Context, apiKey, modelName string) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}
	if strings.TrimSpace(modelName) == "" {
		modelName = DefaultModel
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &Client{client: client, modelName: modelName}, nil
}

// Complete sends a single JSON-mode generation request.
func (c *Client) Complete(ctx context.Context, messages []llm.Message) (string, error) {
	model := c.client.GenerativeModel(c.modelName)
	model.SetTemperature(0.1)
	model.ResponseMIMEType = "application/json"
	if sys := llm.SystemPrompt(messages); sys != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(sys)}}
	}

	resp, err := model.GenerateContent(ctx, userParts(messages)...)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}
	if resp.UsageMetadata != nil {
		telemetry.Info("llm.response", map[string]any{
			"model":        c.modelName,
			"total_tokens": resp.UsageMetadata.TotalTokenCount,
		})
	}
	return extractTextFromResponse(resp)
}

// Close releases resources held by the client.
func (c *Client) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

func userParts(messages []llm.Message) []genai.Part {
	parts := make([]genai.Part, 0, len(messages))
	for _, m := range messages {
		if m.Role == llm.RoleSystem {
			continue
		}
		parts = append(parts, genai.Text(m.Content))
	}
	return parts
}

func extractTextFromResponse(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates in response")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("no content in response")
	}

	var parts []string
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			parts = append(parts, string(text))
		}
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("no text parts in response")
	}
	return strings.Join(parts, ""), nil
}

var _ llm.Client = (*Client)(nil)
