package resume

import (
	"encoding/json"
	"fmt"
)

// ATSScoreField is the key carrying the compatibility score in a generated artifact.
const ATSScoreField = "atsScore"

// ScoredArtifact is a generated resume plus its ATS compatibility score.
// Content holds every generated field except the score, byte-for-byte as returned.
type ScoredArtifact struct {
	Content  map[string]json.RawMessage
	ATSScore float64
}

// MarshalJSON flattens the artifact into a single object: content fields plus atsScore.
func (a ScoredArtifact) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(a.Content)+1)
	for k, v := range a.Content {
		out[k] = v
	}
	score, err := json.Marshal(a.ATSScore)
	if err != nil {
		return nil, err
	}
	out[ATSScoreField] = score
	return json.Marshal(out)
}

// UnmarshalJSON splits a flat artifact object into content and score.
func (a *ScoredArtifact) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	raw, ok := fields[ATSScoreField]
	if !ok {
		return fmt.Errorf("artifact missing %s", ATSScoreField)
	}
	var score float64
	if err := json.Unmarshal(raw, &score); err != nil {
		return fmt.Errorf("artifact %s: %w", ATSScoreField, err)
	}
	delete(fields, ATSScoreField)
	a.Content = fields
	a.ATSScore = score
	return nil
}

// Clone returns a deep copy of the artifact.
func (a ScoredArtifact) Clone() ScoredArtifact {
	out := ScoredArtifact{ATSScore: a.ATSScore}
	if a.Content != nil {
		out.Content = make(map[string]json.RawMessage, len(a.Content))
		for k, v := range a.Content {
			out.Content[k] = append(json.RawMessage(nil), v...)
		}
	}
	return out
}
