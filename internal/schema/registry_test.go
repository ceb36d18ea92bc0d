package schema

import (
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lead-intake/internal/models"
)

// validValue returns an answer that satisfies the field's kind.
func validValue(f Field) string {
	if f.Min > 0 {
		return strconv.Itoa(f.Min)
	}
	switch f.Kind {
	case KindDigits:
		return strings.Repeat("9", f.Length)
	case KindEmail:
		return "asha.rao@gmail.com"
	case KindDate:
		return "1990-05-17"
	case KindPAN:
		return "ABCDE1234F"
	case KindPositiveNumber:
		return "500000"
	case KindNonNegativeNumber:
		return "0"
	case KindPositiveInteger:
		return "5"
	case KindNonNegativeInteger:
		return "0"
	case KindEnum:
		return f.Options[0]
	case KindVehicleNumber:
		return "KA01AB1234"
	default:
		return "Asha Rao"
	}
}

func validAnswers(v *Variant) map[string]string {
	fields := map[string]string{}
	for k, val := range v.Defaults {
		fields[k] = val
	}
	for _, s := range v.Steps {
		for _, f := range s.Fields {
			if _, seeded := fields[f.Name]; !seeded {
				fields[f.Name] = validValue(f)
			}
		}
	}
	return fields
}

func invalidValues(f Field) []string {
	var out []string
	if f.Min > 0 {
		out = append(out, strconv.Itoa(f.Min-1))
	}
	if f.Max > 0 {
		out = append(out, strconv.Itoa(f.Max+1))
	}
	if f.Kind == KindText && f.MinLength > 0 {
		out = append(out, strings.Repeat("x", f.MinLength-1)+" ")
	}
	if f.Kind == KindText && f.Length > 0 {
		out = append(out, strings.Repeat("x", f.Length+1))
	}
	return append(out, kindInvalidValues(f)...)
}

func kindInvalidValues(f Field) []string {
	switch f.Kind {
	case KindDigits:
		return []string{strings.Repeat("9", f.Length-1), strings.Repeat("9", f.Length+1), strings.Repeat("x", f.Length)}
	case KindEmail:
		return []string{"not-an-email", "asha@"}
	case KindDate:
		return []string{"17/05/1990", "2999-01-01"}
	case KindPAN:
		return []string{"ABCDE1234", "ABCDE-234F"}
	case KindPositiveNumber:
		return []string{"0", "-5", "abc"}
	case KindNonNegativeNumber:
		return []string{"-1", "abc"}
	case KindPositiveInteger:
		return []string{"0", "2.5", "-3"}
	case KindNonNegativeInteger:
		return []string{"2.5", "-1", "abc"}
	case KindEnum:
		return []string{"something-else"}
	case KindVehicleNumber:
		return []string{"12", "KA-01"}
	default:
		return nil
	}
}

func copyFields(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// ================================
// Catalogue
// ================================

func TestRegistry_Catalogue(t *testing.T) {
	r := Default()

	assert.Len(t, r.Variants(), 13)
	assert.Len(t, r.ByCategory(models.CategoryLoan), 6)
	assert.Len(t, r.ByCategory(models.CategoryInsurance), 6)
	assert.Len(t, r.ByCategory(models.CategoryConsultancy), 1)

	v, err := r.Variant("loan-personal")
	require.NoError(t, err)
	assert.Equal(t, models.CategoryLoan, v.Category)
	assert.Equal(t, "personal", v.SubType)

	v, err = r.Lookup(models.CategoryConsultancy, "anything")
	require.NoError(t, err)
	assert.Equal(t, "consultancy", v.Key)

	_, err = r.Variant("loan-yacht")
	assert.True(t, errors.Is(err, ErrUnknownVariant))
}

func TestRegistry_EmploymentDefaults(t *testing.T) {
	r := Default()

	business, err := r.Variant("loan-business")
	require.NoError(t, err)
	assert.Equal(t, "self-employed", business.Defaults["employmentType"])

	personal, err := r.Variant("loan-personal")
	require.NoError(t, err)
	assert.Equal(t, "salaried", personal.Defaults["employmentType"])
}

func TestRegistry_HomeLoanRequirementPlacement(t *testing.T) {
	sibling, err := Default().Variant("loan-home")
	require.NoError(t, err)
	assert.Equal(t, RequirementSibling, sibling.Requirement)
	assert.Equal(t, "requirement", sibling.Steps[len(sibling.Steps)-1].ID)

	folded, err := New(Options{HomeLoanRequirement: RequirementInProperty}).Variant("loan-home")
	require.NoError(t, err)
	assert.Equal(t, RequirementInProperty, folded.Requirement)

	last := folded.Steps[len(folded.Steps)-1]
	assert.Equal(t, "property", last.ID)
	assert.Contains(t, last.FieldNames(), "loanAmount")
	assert.Contains(t, last.FieldNames(), "tenure")

	lap, err := New(Options{HomeLoanRequirement: RequirementInProperty}).Variant("loan-lap")
	require.NoError(t, err)
	assert.Equal(t, RequirementSibling, lap.Requirement)
}

func TestRegistry_InsuranceAgeFields(t *testing.T) {
	r := Default()

	tests := []struct {
		key     string
		wantDOB bool
		wantAge bool
	}{
		{"insurance-health", true, false},
		{"insurance-term-life", true, false},
		{"insurance-car", false, false},
		{"insurance-bike", false, false},
		{"insurance-loan-protector", false, true},
		{"insurance-emi-protector", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			v, err := r.Variant(tt.key)
			require.NoError(t, err)
			names := v.Steps[0].FieldNames()
			assert.Equal(t, tt.wantDOB, contains(names, "dob"))
			assert.Equal(t, tt.wantAge, contains(names, "age"))
		})
	}
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

// ================================
// Step gating
// ================================

func TestStepGating_EveryVariantEveryStep(t *testing.T) {
	for _, opts := range []Options{DefaultOptions(), {HomeLoanRequirement: RequirementInProperty}} {
		for _, v := range New(opts).Variants() {
			answers := validAnswers(v)
			require.Equal(t, -1, v.FirstInvalidStep(answers), "variant %s should accept its valid answers", v.Key)

			for _, step := range v.Steps {
				require.True(t, step.Valid(answers), "%s/%s", v.Key, step.ID)

				for _, f := range step.Fields {
					if !f.Applies(answers) {
						continue
					}

					if f.Required {
						missing := copyFields(answers)
						delete(missing, f.Name)
						assert.False(t, step.Valid(missing), "%s/%s: missing %s accepted", v.Key, step.ID, f.Name)

						blank := copyFields(answers)
						blank[f.Name] = "   "
						assert.False(t, step.Valid(blank), "%s/%s: blank %s accepted", v.Key, step.ID, f.Name)
					}

					for _, bad := range invalidValues(f) {
						broken := copyFields(answers)
						broken[f.Name] = bad
						assert.False(t, step.Valid(broken), "%s/%s: %s=%q accepted", v.Key, step.ID, f.Name, bad)
					}
				}
			}
		}
	}
}

func TestStepGating_ShortMobileRefused(t *testing.T) {
	v, err := Default().Variant("loan-personal")
	require.NoError(t, err)

	answers := validAnswers(v)
	answers["mobileNumber"] = "98765"

	violations := v.Steps[0].Violations(answers)
	require.Len(t, violations, 1)
	assert.Equal(t, "mobileNumber", violations[0].Field)
	assert.Equal(t, "mobileNumber must be exactly 10 digits", violations[0].String())
}

func TestStepGating_ConditionalEmployer(t *testing.T) {
	v, err := Default().Variant("loan-personal")
	require.NoError(t, err)
	employment := v.Steps[1]

	answers := validAnswers(v)
	delete(answers, "employerName")
	assert.False(t, employment.Valid(answers))

	answers["employmentType"] = "self-employed"
	assert.True(t, employment.Valid(answers))
}

func TestStepGating_OptionalFieldsStillFormatChecked(t *testing.T) {
	v, err := Default().Variant("consultancy")
	require.NoError(t, err)

	answers := validAnswers(v)
	delete(answers, "email")
	delete(answers, "message")
	assert.True(t, v.Steps[0].Valid(answers))

	answers["email"] = "nope"
	assert.False(t, v.Steps[0].Valid(answers))
}

func TestStepGating_BoundsMatchServerRules(t *testing.T) {
	r := Default()

	tests := []struct {
		name    string
		variant string
		field   string
		value   string
		wantMsg string
	}{
		{"one letter name", "loan-personal", "fullName", "A", "fullName must be at least 2 characters"},
		{"long name", "consultancy", "fullName", strings.Repeat("a", 101), "fullName must be at most 100 characters"},
		{"two letter unicode name", "consultancy", "fullName", "Ås", ""},
		{"tenure over cap", "loan-personal", "tenure", "45", "tenure must be at most 40"},
		{"tenure at cap", "loan-personal", "tenure", "40", ""},
		{"protector tenure over cap", "insurance-loan-protector", "tenure", "41", "tenure must be at most 40"},
		{"minor", "insurance-loan-protector", "age", "12", "age must be at least 18"},
		{"too old", "insurance-emi-protector", "age", "101", "age must be at most 100"},
		{"adult", "insurance-loan-protector", "age", "18", ""},
		{"fractional years", "loan-business", "yearsInBusiness", "2.5", "yearsInBusiness must be a whole number"},
		{"new business", "loan-business", "yearsInBusiness", "0", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := r.Variant(tt.variant)
			require.NoError(t, err)

			answers := validAnswers(v)
			answers[tt.field] = tt.value

			step := v.FirstInvalidStep(answers)
			if tt.wantMsg == "" {
				assert.Equal(t, -1, step)
				return
			}
			require.NotEqual(t, -1, step)
			violations := v.Steps[step].Violations(answers)
			require.Len(t, violations, 1)
			assert.Equal(t, tt.wantMsg, violations[0].String())
		})
	}
}

// ================================
// Checks
// ================================

func TestChecks(t *testing.T) {
	assert.NoError(t, CheckPAN("abcde1234f"))
	assert.NoError(t, CheckVehicleNumber("ka 01 ab 1234"))
	assert.NoError(t, CheckPositive("5,00,000"))
	assert.Error(t, CheckPincode("56001"))
	assert.Error(t, CheckPhone("98765432101"))
	assert.Equal(t, "KA01AB1234", NormalizeVehicleNumber(" ka 01 ab  1234 "))
}

func TestCheckRange(t *testing.T) {
	tests := []struct {
		value    string
		min, max int
		wantErr  bool
	}{
		{"45", 0, 40, true},
		{"40", 0, 40, false},
		{"17", 18, 100, true},
		{"18", 18, 100, false},
		{"1,000", 0, 999, true},
		{"5", 0, 0, false},
	}

	for _, tt := range tests {
		err := CheckRange(tt.value, tt.min, tt.max)
		if tt.wantErr {
			assert.Error(t, err, tt.value)
		} else {
			assert.NoError(t, err, tt.value)
		}
	}
}
