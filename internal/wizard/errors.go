package wizard

import "errors"

var (
	ErrInvalidStep      = errors.New("step out of range")
	ErrSessionNotFound  = errors.New("session not found")
	ErrSubmitInFlight   = errors.New("a submission is already in progress")
	ErrSubmitRequired   = errors.New("submit the template step to reach preview")
	ErrNotSubmitStep    = errors.New("submit is only allowed on the template step")
	ErrSubmitSuperseded = errors.New("session was reset while generating")
)
