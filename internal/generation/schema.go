package generation

import (
	"bytes"
	"encoding/json"

	"github.com/xeipuuv/gojsonschema"

	"resume-wizard/internal/resume"
)

const artifactSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["atsScore"],
  "properties": {
    "atsScore": {"type": "number", "minimum": 0, "maximum": 100}
  }
}`

var artifactSchemaLoader = gojsonschema.NewStringLoader(artifactSchema)

// ParseArtifact strictly decodes a generator response. Anything other than a
// single JSON object with a numeric atsScore in [0,100] is a *MalformedError;
// no partial artifact is ever returned.
func ParseArtifact(body string) (resume.ScoredArtifact, error) {
	raw := bytes.TrimSpace([]byte(body))
	if len(raw) == 0 {
		return resume.ScoredArtifact{}, &MalformedError{Errors: []FieldError{{Field: "(root)", Message: "empty response"}}}
	}
	if !json.Valid(raw) {
		return resume.ScoredArtifact{}, &MalformedError{Errors: []FieldError{{Field: "(root)", Message: "response is not valid JSON"}}}
	}

	result, err := gojsonschema.Validate(artifactSchemaLoader, gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return resume.ScoredArtifact{}, &MalformedError{Errors: []FieldError{{Field: "(root)", Message: err.Error()}}}
	}
	if !result.Valid() {
		malformed := &MalformedError{Errors: make([]FieldError, 0, len(result.Errors()))}
		for _, desc := range result.Errors() {
			field := desc.Field()
			if field == "" {
				field = "(root)"
			}
			malformed.Errors = append(malformed.Errors, FieldError{Field: field, Message: desc.Description()})
		}
		return resume.ScoredArtifact{}, malformed
	}

	var artifact resume.ScoredArtifact
	if err := json.Unmarshal(raw, &artifact); err != nil {
		return resume.ScoredArtifact{}, &MalformedError{Errors: []FieldError{{Field: "(root)", Message: err.Error()}}}
	}
	return artifact, nil
}
