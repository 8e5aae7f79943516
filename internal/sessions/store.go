package sessions

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"resume-wizard/internal/resume"
)

var (
	// ErrUnavailable wraps every backend failure. Callers treat it as
	// "persistence is down" and keep the in-memory copy.
	ErrUnavailable = errors.New("session store unavailable")
	// ErrInvalidSessionID is returned for an empty session key.
	ErrInvalidSessionID = errors.New("invalid session id")
)

// Store persists one document per session id. A Save fully replaces the
// previous value; readers never observe a partial document.
type Store interface {
	// Load returns the stored document. The bool is false when nothing has
	// been stored under id; that is not an error.
	Load(ctx context.Context, id string) (resume.Document, bool, error)
	Save(ctx context.Context, id string, doc resume.Document) error
}

func validateID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", ErrInvalidSessionID
	}
	return id, nil
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrUnavailable, op, err)
}
