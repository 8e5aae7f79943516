package generation

import (
	"encoding/json"
	"fmt"

	"resume-wizard/internal/llm"
)

const systemPrompt = "You are a resume generator."

const userPromptTemplate = `Create a professional resume based on this data:
%s
Use template: %s
Format response as a single JSON object. Include every resume section you produce as top-level fields and an "atsScore" field: a number from 0 to 100 estimating how well the resume will pass applicant tracking systems. Do not wrap the JSON in markdown.`

// BuildPrompt renders the chat messages for req.
func BuildPrompt(req Request) ([]llm.Message, error) {
	data, err := json.Marshal(req.Document)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return []llm.Message{
		{Role: llm.RoleSystem, Content: systemPrompt},
		{Role: llm.RoleUser, Content: fmt.Sprintf(userPromptTemplate, data, req.TemplateID)},
	}, nil
}
