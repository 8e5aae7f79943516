package resume

import "errors"

var (
	// ErrUnknownSection indicates a section key outside the fixed document shape.
	ErrUnknownSection = errors.New("unknown section")

	// ErrInvalidSectionValue indicates a value whose JSON shape does not fit the section.
	ErrInvalidSectionValue = errors.New("invalid section value")
)
