package wizard

import (
	"sync"
	"time"

	"resume-wizard/internal/resume"
)

// Status tracks the generation lifecycle of a session.
type Status string

const (
	StatusEditing    Status = "editing"
	StatusGenerating Status = "generating"
	StatusReady      Status = "ready"
	StatusFailed     Status = "failed"
)

// Session is one user's wizard run. All fields are guarded by mu; the
// generator is always called with mu released.
type Session struct {
	mu sync.Mutex

	id        string
	doc       resume.Document
	step      Step
	artifact  *resume.ScoredArtifact
	status    Status
	lastError string
	inFlight  bool
	// epoch increments on reset so late generation results can be dropped.
	epoch     uint64
	updatedAt time.Time
}

func newSession(id string, doc resume.Document, now time.Time) *Session {
	return &Session{
		id:        id,
		doc:       doc,
		step:      StepPersonal,
		status:    StatusEditing,
		updatedAt: now,
	}
}

// View is an immutable snapshot of a session.
type View struct {
	SessionID  string                 `json:"sessionId"`
	Step       Step                   `json:"step"`
	StepLabel  string                 `json:"stepLabel"`
	Document   resume.Document        `json:"document"`
	Artifact   *resume.ScoredArtifact `json:"artifact,omitempty"`
	ATSScore   *float64               `json:"atsScore,omitempty"`
	Status     Status                 `json:"status"`
	Generating bool                   `json:"generating"`
	LastError  string                 `json:"lastError,omitempty"`
	UpdatedAt  time.Time              `json:"updatedAt"`
}

// view must be called with s.mu held.
func (s *Session) view() View {
	v := View{
		SessionID:  s.id,
		Step:       s.step,
		StepLabel:  s.step.Label(),
		Document:   s.doc.Clone(),
		Status:     s.status,
		Generating: s.inFlight,
		LastError:  s.lastError,
		UpdatedAt:  s.updatedAt,
	}
	if s.artifact != nil {
		a := s.artifact.Clone()
		score := a.ATSScore
		v.Artifact = &a
		v.ATSScore = &score
	}
	return v
}
