package gemini

import (
	"context"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-wizard/internal/llm"
)

func TestExtractTextJoinsTextParts(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []genai.Part{genai.Text(`{"atsScore":`), genai.Text(`90}`)}},
		}},
	}
	got, err := extractTextFromResponse(resp)
	require.NoError(t, err)
	assert.Equal(t, `{"atsScore":90}`, got)
}

func TestExtractTextErrors(t *testing.T) {
	_, err := extractTextFromResponse(&genai.GenerateContentResponse{})
	assert.Error(t, err)

	_, err = extractTextFromResponse(&genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: &genai.Content{}}},
	})
	assert.Error(t, err)
}

func TestUserPartsSkipsSystemMessages(t *testing.T) {
	parts := userParts([]llm.Message{
		{Role: llm.RoleSystem, Content: "sys"},
		{Role: llm.RoleUser, Content: "doc"},
	})
	require.Len(t, parts, 1)
	assert.Equal(t, genai.Text("doc"), parts[0])
}

func TestNewClientRequiresKey(t *testing.T) {
	_, err := NewClient(context.Background(), " ", "")
	assert.Error(t, err)
}
