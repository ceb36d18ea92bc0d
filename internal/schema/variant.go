package schema

import (
	"lead-intake/internal/models"
)

type Step struct {
	ID     string  `json:"id"`
	Title  string  `json:"title"`
	Fields []Field `json:"fields"`
}

// Violations lists every field of the step that fails against the answers.
func (s Step) Violations(fields map[string]string) []Violation {
	var out []Violation
	for _, f := range s.Fields {
		if v := f.Check(fields); v != nil {
			out = append(out, *v)
		}
	}
	return out
}

// Valid is the step gate: true only when every applicable field passes.
func (s Step) Valid(fields map[string]string) bool {
	for _, f := range s.Fields {
		if f.Check(fields) != nil {
			return false
		}
	}
	return true
}

func (s Step) FieldNames() []string {
	names := make([]string, 0, len(s.Fields))
	for _, f := range s.Fields {
		names = append(names, f.Name)
	}
	return names
}

// RequirementPlacement decides where a variant persists its loan requirement.
type RequirementPlacement string

const (
	RequirementSibling    RequirementPlacement = "sibling"
	RequirementInProperty RequirementPlacement = "in-property"
	RequirementNone       RequirementPlacement = "none"
)

type Variant struct {
	Key         string               `json:"key"`
	Category    models.Category      `json:"category"`
	SubType     string               `json:"subType"`
	Label       string               `json:"label"`
	Steps       []Step               `json:"steps"`
	Defaults    map[string]string    `json:"defaults,omitempty"`
	Requirement RequirementPlacement `json:"requirementPlacement"`
}

func VariantKey(category models.Category, subType string) string {
	if subType == "" {
		return string(category)
	}
	return string(category) + "-" + subType
}

// FirstInvalidStep returns the index of the first failing step, or -1.
func (v *Variant) FirstInvalidStep(fields map[string]string) int {
	for i, s := range v.Steps {
		if !s.Valid(fields) {
			return i
		}
	}
	return -1
}

func (v *Variant) Violations(fields map[string]string) []Violation {
	var out []Violation
	for _, s := range v.Steps {
		out = append(out, s.Violations(fields)...)
	}
	return out
}

func (v *Variant) Field(name string) (Field, bool) {
	for _, s := range v.Steps {
		for _, f := range s.Fields {
			if f.Name == name {
				return f, true
			}
		}
	}
	return Field{}, false
}

// HasField reports whether the variant collects name and it applies to the answers.
func (v *Variant) HasField(name string, fields map[string]string) bool {
	f, ok := v.Field(name)
	return ok && f.Applies(fields)
}
