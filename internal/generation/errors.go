package generation

import (
	"errors"
	"strings"
)

var (
	// ErrGenerationUnavailable means the generator could not be reached or
	// reported a failure.
	ErrGenerationUnavailable = errors.New("generation unavailable")
	// ErrMalformedResponse means the generator answered but the body is not a
	// valid scored artifact.
	ErrMalformedResponse = errors.New("malformed generator response")
)

// FieldError names one violation found while parsing a generator response.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// MalformedError carries the parse or schema violations of a rejected body.
// It matches ErrMalformedResponse under errors.Is.
type MalformedError struct {
	Errors []FieldError
}

func (e *MalformedError) Error() string {
	if len(e.Errors) == 0 {
		return ErrMalformedResponse.Error()
	}
	parts := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		parts = append(parts, fe.Field+": "+fe.Message)
	}
	return ErrMalformedResponse.Error() + ": " + strings.Join(parts, "; ")
}

func (e *MalformedError) Unwrap() error { return ErrMalformedResponse }
