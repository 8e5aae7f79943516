package generation

import (
	"strings"

	"resume-wizard/internal/resume"
)

// Request is the frozen input of one generation. It owns a deep copy of the
// document, so later edits to the session cannot leak into an in-flight call.
type Request struct {
	Document   resume.Document
	TemplateID string
}

// NewRequest snapshots doc. The template id comes from the document.
func NewRequest(doc resume.Document) Request {
	snap := doc.Clone()
	return Request{Document: snap, TemplateID: snap.TemplateID()}
}

// WithTemplate returns a copy of r using templateID when it is non-blank.
func (r Request) WithTemplate(templateID string) Request {
	if t := strings.TrimSpace(templateID); t != "" {
		r.TemplateID = t
	}
	return r
}
