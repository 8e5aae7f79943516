package resume

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// DefaultTemplate is the template a fresh document starts with.
const DefaultTemplate = "professional"

// Section names one of the fixed top-level keys of a Document.
type Section string

const (
	SectionPersonal   Section = "personal"
	SectionExperience Section = "experience"
	SectionEducation  Section = "education"
	SectionSkills     Section = "skills"
	SectionTemplate   Section = "template"
)

// Sections lists every section in wizard order.
var Sections = []Section{
	SectionPersonal,
	SectionExperience,
	SectionEducation,
	SectionSkills,
	SectionTemplate,
}

// ParseSection maps a raw key to a Section.
func ParseSection(raw string) (Section, error) {
	s := Section(strings.ToLower(strings.TrimSpace(raw)))
	for _, known := range Sections {
		if s == known {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSection, raw)
}

// Document is the multi-section resume being assembled by the wizard.
// The key set is fixed; only values change.
type Document struct {
	Personal   map[string]any   `json:"personal"`
	Experience []map[string]any `json:"experience"`
	Education  []map[string]any `json:"education"`
	Skills     []any            `json:"skills"`
	Template   string           `json:"template"`
}

// Empty returns the canonical empty document.
func Empty() Document {
	return Document{
		Personal:   map[string]any{},
		Experience: []map[string]any{},
		Education:  []map[string]any{},
		Skills:     []any{},
		Template:   DefaultTemplate,
	}
}

// UnmarshalJSON decodes a document and fills any missing or null section
// with its empty value.
func (d *Document) UnmarshalJSON(data []byte) error {
	type plain Document
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*d = Document(p)
	d.normalize()
	return nil
}

func (d *Document) normalize() {
	if d.Personal == nil {
		d.Personal = map[string]any{}
	}
	if d.Experience == nil {
		d.Experience = []map[string]any{}
	}
	if d.Education == nil {
		d.Education = []map[string]any{}
	}
	if d.Skills == nil {
		d.Skills = []any{}
	}
	if strings.TrimSpace(d.Template) == "" {
		d.Template = DefaultTemplate
	}
}

// TemplateID returns the selected template, falling back to the default.
func (d Document) TemplateID() string {
	if t := strings.TrimSpace(d.Template); t != "" {
		return t
	}
	return DefaultTemplate
}

// Update returns a copy of d with exactly one section replaced by raw.
// Any value of the section's JSON shape is accepted and its contents are not
// inspected: an object for personal, arrays of objects for experience and
// education, any array for skills, a string for template. A value of another
// shape is rejected with ErrInvalidSectionValue so the document keeps its
// fixed typed shape. A JSON null or an empty raw value resets the section to
// its value in Empty. d itself is not modified.
func (d Document) Update(section Section, raw json.RawMessage) (Document, error) {
	out := d.Clone()
	isNull := len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null"))

	var err error
	switch section {
	case SectionPersonal:
		var v map[string]any
		if !isNull {
			err = json.Unmarshal(raw, &v)
		}
		if v == nil {
			v = map[string]any{}
		}
		out.Personal = v
	case SectionExperience:
		var v []map[string]any
		if !isNull {
			err = json.Unmarshal(raw, &v)
		}
		if v == nil {
			v = []map[string]any{}
		}
		out.Experience = v
	case SectionEducation:
		var v []map[string]any
		if !isNull {
			err = json.Unmarshal(raw, &v)
		}
		if v == nil {
			v = []map[string]any{}
		}
		out.Education = v
	case SectionSkills:
		var v []any
		if !isNull {
			err = json.Unmarshal(raw, &v)
		}
		if v == nil {
			v = []any{}
		}
		out.Skills = v
	case SectionTemplate:
		var v string
		if !isNull {
			err = json.Unmarshal(raw, &v)
		}
		if strings.TrimSpace(v) == "" {
			v = DefaultTemplate
		}
		out.Template = v
	default:
		return d, fmt.Errorf("%w: %q", ErrUnknownSection, section)
	}
	if err != nil {
		return d, fmt.Errorf("%w: %s: %v", ErrInvalidSectionValue, section, err)
	}
	return out, nil
}

// Section returns the JSON encoding of a single section.
func (d Document) Section(section Section) (json.RawMessage, error) {
	var v any
	switch section {
	case SectionPersonal:
		v = d.Personal
	case SectionExperience:
		v = d.Experience
	case SectionEducation:
		v = d.Education
	case SectionSkills:
		v = d.Skills
	case SectionTemplate:
		v = d.Template
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSection, section)
	}
	return json.Marshal(v)
}

// Clone returns a deep copy of d.
func (d Document) Clone() Document {
	out := Document{
		Personal:   cloneMap(d.Personal),
		Experience: cloneRecords(d.Experience),
		Education:  cloneRecords(d.Education),
		Skills:     cloneSlice(d.Skills),
		Template:   d.Template,
	}
	out.normalize()
	return out
}

func cloneRecords(in []map[string]any) []map[string]any {
	if in == nil {
		return nil
	}
	out := make([]map[string]any, len(in))
	for i, rec := range in {
		out[i] = cloneMap(rec)
	}
	return out
}

func cloneMap(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneSlice(in []any) []any {
	if in == nil {
		return nil
	}
	out := make([]any, len(in))
	for i, v := range in {
		out[i] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneMap(t)
	case []any:
		return cloneSlice(t)
	case []map[string]any:
		return cloneRecords(t)
	case json.RawMessage:
		return append(json.RawMessage(nil), t...)
	default:
		return v
	}
}
