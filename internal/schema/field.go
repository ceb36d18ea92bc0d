package schema

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/samber/lo"
)

type Kind int

const (
	KindText Kind = iota
	KindDigits
	KindEmail
	KindDate
	KindPAN
	KindPositiveNumber
	KindNonNegativeNumber
	KindPositiveInteger
	KindNonNegativeInteger
	KindEnum
	KindVehicleNumber
)

var kindNames = map[Kind]string{
	KindText:               "text",
	KindDigits:             "digits",
	KindEmail:              "email",
	KindDate:               "date",
	KindPAN:                "pan",
	KindPositiveNumber:     "positive-number",
	KindNonNegativeNumber:  "non-negative-number",
	KindPositiveInteger:    "positive-integer",
	KindNonNegativeInteger: "non-negative-integer",
	KindEnum:               "enum",
	KindVehicleNumber:      "vehicle-number",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Numeric reports whether values of this kind are coerced to numbers.
func (k Kind) Numeric() bool {
	switch k {
	case KindPositiveNumber, KindNonNegativeNumber, KindPositiveInteger, KindNonNegativeInteger:
		return true
	}
	return false
}

// Condition makes a field apply only while another field holds one of Equals.
type Condition struct {
	Field  string   `json:"field"`
	Equals []string `json:"equals"`
}

func (c *Condition) Holds(fields map[string]string) bool {
	if c == nil {
		return true
	}
	return lo.Contains(c.Equals, strings.TrimSpace(fields[c.Field]))
}

// Field is one answer in a step. For text Length is the maximum and MinLength
// the minimum, counted in characters; for digits Length is exact. Min and Max
// bound numeric kinds inclusively, zero meaning unbounded.
type Field struct {
	Name      string     `json:"name"`
	Label     string     `json:"label"`
	Kind      Kind       `json:"kind"`
	Required  bool       `json:"required"`
	Length    int        `json:"length,omitempty"`
	MinLength int        `json:"minLength,omitempty"`
	Min       int        `json:"min,omitempty"`
	Max       int        `json:"max,omitempty"`
	Options   []string   `json:"options,omitempty"`
	When      *Condition `json:"when,omitempty"`
}

type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v Violation) String() string {
	return v.Field + " " + v.Message
}

// Applies reports whether the field participates given the other answers.
func (f Field) Applies(fields map[string]string) bool {
	return f.When.Holds(fields)
}

// Check validates one field against the accumulated answers. A blank optional
// field passes; a present optional field must still satisfy its format.
func (f Field) Check(fields map[string]string) *Violation {
	if !f.Applies(fields) {
		return nil
	}

	value := strings.TrimSpace(fields[f.Name])
	if value == "" {
		if f.Required {
			return &Violation{Field: f.Name, Message: ErrRequired.Error()}
		}
		return nil
	}

	if err := f.checkValue(value); err != nil {
		return &Violation{Field: f.Name, Message: err.Error()}
	}
	if f.Kind.Numeric() {
		if err := CheckRange(value, f.Min, f.Max); err != nil {
			return &Violation{Field: f.Name, Message: err.Error()}
		}
	}
	return nil
}

func (f Field) checkValue(value string) error {
	switch f.Kind {
	case KindDigits:
		return CheckDigits(value, f.Length)
	case KindEmail:
		return CheckEmail(value)
	case KindDate:
		return CheckDate(value)
	case KindPAN:
		return CheckPAN(value)
	case KindPositiveNumber:
		return CheckPositive(value)
	case KindNonNegativeNumber:
		return CheckNonNegative(value)
	case KindPositiveInteger:
		return CheckPositiveInteger(value)
	case KindNonNegativeInteger:
		return CheckNonNegativeInteger(value)
	case KindEnum:
		return CheckEnum(value, f.Options)
	case KindVehicleNumber:
		return CheckVehicleNumber(value)
	default:
		n := utf8.RuneCountInString(value)
		if f.MinLength > 0 && n < f.MinLength {
			return fmt.Errorf("must be at least %d characters", f.MinLength)
		}
		if f.Length > 0 && n > f.Length {
			return fmt.Errorf("must be at most %d characters", f.Length)
		}
		return nil
	}
}
