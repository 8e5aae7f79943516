package wizard

import "resume-wizard/internal/resume"

// Step is a zero-based wizard position.
type Step int

const (
	StepPersonal Step = iota
	StepExperience
	StepEducation
	StepSkills
	StepTemplate
	StepPreview
)

// StepCount is the number of wizard steps.
const StepCount = int(StepPreview) + 1

var stepLabels = [StepCount]string{
	"Personal Info",
	"Experience",
	"Education",
	"Skills",
	"Template",
	"Preview & Export",
}

// Valid reports whether s is within [0, StepCount).
func (s Step) Valid() bool { return s >= 0 && int(s) < StepCount }

// Label returns the display label of the step.
func (s Step) Label() string {
	if !s.Valid() {
		return ""
	}
	return stepLabels[s]
}

// Section returns the document section edited on this step. Preview owns none.
func (s Step) Section() (resume.Section, bool) {
	if s < StepPersonal || s > StepTemplate {
		return "", false
	}
	return resume.Sections[s], true
}

// Sequencer is the pure step state machine. Moves that would leave
// [0, StepCount) return the current step unchanged with ErrInvalidStep.
type Sequencer struct{}

// Advance moves forward one step.
func (Sequencer) Advance(s Step) (Step, error) {
	next := s + 1
	if !s.Valid() || !next.Valid() {
		return s, ErrInvalidStep
	}
	return next, nil
}

// Retreat moves back one step.
func (Sequencer) Retreat(s Step) (Step, error) {
	prev := s - 1
	if !s.Valid() || !prev.Valid() {
		return s, ErrInvalidStep
	}
	return prev, nil
}

// Reset returns the first step.
func (Sequencer) Reset() Step { return StepPersonal }

// IsSubmitStep is true only on the step that triggers generation.
func (Sequencer) IsSubmitStep(s Step) bool { return s == StepTemplate }
