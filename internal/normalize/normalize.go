package normalize

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"lead-intake/internal/models"
	"lead-intake/internal/schema"
)

var (
	ErrMissingNumeric     = errors.New("MISSING_NUMERIC_FIELD")
	ErrInvalidNumeric     = errors.New("INVALID_NUMERIC_FIELD")
	ErrUnsupportedVariant = errors.New("UNSUPPORTED_VARIANT")
)

// PreconditionError reports a flat field the normalizer cannot turn into a
// number. It is never silently coerced to zero.
type PreconditionError struct {
	Field string
	Err   error
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err, e.Field)
}

func (e *PreconditionError) Unwrap() error { return e.Err }

// SourceField is the flat key carrying the originating front-end, if any.
const SourceField = "source"

// Normalize maps the wizard's flat answers onto the canonical nested payload
// of the variant's category. It reads nothing but its arguments.
func Normalize(v *schema.Variant, fields map[string]string) (models.Submission, error) {
	if v == nil {
		return models.Submission{}, fmt.Errorf("%w: nil variant", ErrUnsupportedVariant)
	}

	r := &reader{variant: v, fields: fields}
	source := r.str(SourceField)

	switch v.Category {
	case models.CategoryLoan:
		loan := normalizeLoan(r)
		if r.err != nil {
			return models.Submission{}, r.err
		}
		return models.LoanSubmissionOf(loan, source), nil
	case models.CategoryInsurance:
		ins := normalizeInsurance(r)
		if r.err != nil {
			return models.Submission{}, r.err
		}
		return models.InsuranceSubmissionOf(ins, source), nil
	case models.CategoryConsultancy:
		return models.ConsultancySubmissionOf(normalizeConsultancy(r), source), nil
	default:
		return models.Submission{}, fmt.Errorf("%w: %s", ErrUnsupportedVariant, v.Key)
	}
}

func normalizeLoan(r *reader) models.LoanSubmission {
	sub := models.LoanSubmission{
		LoanType: models.LoanType(r.variant.SubType),
		PersonalInfo: models.PersonalInfo{
			FullName:     r.str("fullName"),
			MobileNumber: r.str("mobileNumber"),
			Email:        r.str("email"),
			Pincode:      r.str("pincode"),
			DOB:          r.str("dob"),
			City:         r.str("city"),
			PanCard:      strings.ToUpper(r.str("panCard")),
		},
		EmploymentInfo: models.EmploymentInfo{
			EmploymentType: r.str("employmentType"),
			MonthlyIncome:  r.amount("monthlyIncome"),
			ExistingEMI:    r.amountOr("existingEmi", 0),
		},
	}
	if r.applies("employerName") {
		sub.EmploymentInfo.EmployerName = r.str("employerName")
	}

	switch sub.LoanType {
	case models.LoanBusiness:
		sub.BusinessDetails = &models.BusinessDetails{
			BusinessName:    r.str("businessName"),
			BusinessType:    r.str("businessType"),
			AnnualTurnover:  r.amount("annualTurnover"),
			YearsInBusiness: r.integer("yearsInBusiness"),
		}
	case models.LoanHome:
		sub.PropertyDetails = &models.PropertyDetails{
			PropertyCost:     r.amount("propertyCost"),
			PropertyLoanType: r.str("propertyLoanType"),
			PropertyStatus:   r.str("propertyStatus"),
		}
		if r.variant.Requirement == schema.RequirementInProperty {
			sub.PropertyDetails.LoanAmount = r.amount("loanAmount")
			sub.PropertyDetails.Tenure = r.integer("tenure")
		}
	case models.LoanLAP:
		sub.PropertyDetails = &models.PropertyDetails{
			CurrentMarketValue: r.amount("currentMarketValue"),
			PropertyType:       r.str("propertyType"),
			OccupancyStatus:    r.str("occupancyStatus"),
		}
	case models.LoanCar:
		sub.VehicleDetails = &models.VehicleDetails{
			CarModel:         r.str("carModel"),
			CarPrice:         r.amount("carPrice"),
			VehicleCondition: r.str("vehicleCondition"),
		}
	case models.LoanEducation:
		sub.EducationDetails = &models.EducationDetails{
			CourseName:      r.str("courseName"),
			InstitutionName: r.str("institutionName"),
			CourseFee:       r.amount("courseFee"),
		}
	}

	if r.variant.Requirement == schema.RequirementSibling {
		sub.LoanRequirement = &models.LoanRequirement{
			LoanAmount:  r.amount("loanAmount"),
			Tenure:      r.integer("tenure"),
			LoanPurpose: r.str("loanPurpose"),
		}
	}
	return sub
}

func normalizeInsurance(r *reader) models.InsuranceSubmission {
	it := models.InsuranceType(r.variant.SubType)
	sub := models.InsuranceSubmission{
		InsuranceType: it,
		BasicInfo: models.BasicInfo{
			FullName:     r.str("fullName"),
			MobileNumber: r.str("mobileNumber"),
			Email:        r.str("email"),
		},
	}
	if r.applies("dob") {
		sub.BasicInfo.DOB = r.str("dob")
	}
	if r.applies("age") {
		sub.BasicInfo.Age = r.integer("age")
	}

	switch it.Block() {
	case models.BlockVehicleInfo:
		sub.VehicleInfo = &models.VehicleInfo{
			Pincode:       r.str("pincode"),
			VehicleNumber: schema.NormalizeVehicleNumber(r.str("vehicleNumber")),
			PolicyTerm:    r.str("policyTerm"),
		}
	case models.BlockLoanInfo:
		sub.LoanInfo = &models.LoanInfo{
			LoanType:   r.str("loanType"),
			LoanAmount: r.amount("loanAmount"),
			Tenure:     r.integer("tenure"),
		}
	default:
		sumInsured := r.amount("sumInsured")
		sub.SumInsured = &sumInsured
	}
	return sub
}

func normalizeConsultancy(r *reader) models.ConsultancySubmission {
	return models.ConsultancySubmission{
		FullName:     r.str("fullName"),
		PhoneNumber:  r.str("phoneNumber"),
		Email:        r.str("email"),
		InterestedIn: r.str("interestedIn"),
		Message:      r.str("message"),
	}
}

// reader pulls typed values out of the flat map and keeps the first failure.
type reader struct {
	variant *schema.Variant
	fields  map[string]string
	err     error
}

func (r *reader) str(name string) string {
	return strings.TrimSpace(r.fields[name])
}

func (r *reader) applies(name string) bool {
	return r.variant.HasField(name, r.fields)
}

func (r *reader) fail(name string, err error) {
	if r.err == nil {
		r.err = &PreconditionError{Field: name, Err: err}
	}
}

func (r *reader) amount(name string) float64 {
	raw := r.str(name)
	if raw == "" {
		r.fail(name, ErrMissingNumeric)
		return 0
	}
	return r.parse(name, raw)
}

// amountOr is for the few fields whose domain defines a zero default.
func (r *reader) amountOr(name string, def float64) float64 {
	raw := r.str(name)
	if raw == "" {
		return def
	}
	return r.parse(name, raw)
}

func (r *reader) parse(name, raw string) float64 {
	d, err := schema.ParseAmount(raw)
	if err != nil {
		r.fail(name, ErrInvalidNumeric)
		return 0
	}
	return d.InexactFloat64()
}

func (r *reader) integer(name string) int {
	raw := r.str(name)
	if raw == "" {
		r.fail(name, ErrMissingNumeric)
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		r.fail(name, ErrInvalidNumeric)
		return 0
	}
	return n
}
