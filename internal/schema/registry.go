package schema

import (
	"errors"
	"fmt"

	"github.com/samber/lo"

	"lead-intake/internal/models"
)

var ErrUnknownVariant = errors.New("UNKNOWN_VARIANT")

const (
	MaxTenureYears = 40
	MinInsuredAge  = 18
	MaxInsuredAge  = 100
)

var (
	EmploymentTypes   = []string{"salaried", "self-employed", "business"}
	PropertyLoanTypes = []string{"purchase", "construction", "balance-transfer"}
	PropertyStatuses  = []string{"ready-to-move", "under-construction"}
	PropertyTypes     = []string{"residential", "commercial", "industrial"}
	OccupancyStatuses = []string{"self-occupied", "rented", "vacant"}
	VehicleConditions = []string{"new", "used"}
	PolicyTerms       = []string{"1-year", "2-year", "3-year"}
)

type Options struct {
	// HomeLoanRequirement decides whether home-loan amount and tenure are
	// collected as a separate step (sibling loanRequirement block) or inside
	// the property step (propertyDetails.loanAmount/tenure).
	HomeLoanRequirement RequirementPlacement
}

func DefaultOptions() Options {
	return Options{HomeLoanRequirement: RequirementSibling}
}

type Registry struct {
	variants []*Variant
	byKey    map[string]*Variant
}

func New(opts Options) *Registry {
	if opts.HomeLoanRequirement != RequirementInProperty {
		opts.HomeLoanRequirement = RequirementSibling
	}

	r := &Registry{byKey: make(map[string]*Variant)}
	for _, lt := range models.LoanTypes {
		r.add(loanVariant(lt, opts))
	}
	for _, it := range models.InsuranceTypes {
		r.add(insuranceVariant(it))
	}
	r.add(consultancyVariant())
	return r
}

func Default() *Registry {
	return New(DefaultOptions())
}

func (r *Registry) add(v *Variant) {
	r.variants = append(r.variants, v)
	r.byKey[v.Key] = v
}

func (r *Registry) Variant(key string) (*Variant, error) {
	v, ok := r.byKey[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownVariant, key)
	}
	return v, nil
}

// Lookup finds the variant for a category and its loan or insurance type.
func (r *Registry) Lookup(category models.Category, subType string) (*Variant, error) {
	if category == models.CategoryConsultancy {
		subType = ""
	}
	return r.Variant(VariantKey(category, subType))
}

// Variants returns every variant in catalogue order: loans, insurance, consultancy.
func (r *Registry) Variants() []*Variant {
	return append([]*Variant(nil), r.variants...)
}

func (r *Registry) ByCategory(category models.Category) []*Variant {
	return lo.Filter(r.variants, func(v *Variant, _ int) bool {
		return v.Category == category
	})
}

// ================================
// Catalogue
// ================================

func text(name, label string) Field {
	return Field{Name: name, Label: label, Kind: KindText, Required: true}
}

func fullName() Field {
	f := text("fullName", "Full name")
	f.MinLength, f.Length = 2, 100
	return f
}

// tenure is in years and capped at MaxTenureYears.
func tenure() Field {
	return Field{Name: "tenure", Label: "Tenure (years)", Kind: KindPositiveInteger, Required: true, Max: MaxTenureYears}
}

func digits(name, label string, n int) Field {
	return Field{Name: name, Label: label, Kind: KindDigits, Required: true, Length: n}
}

func positive(name, label string) Field {
	return Field{Name: name, Label: label, Kind: KindPositiveNumber, Required: true}
}

func enum(name, label string, options []string) Field {
	return Field{Name: name, Label: label, Kind: KindEnum, Required: true, Options: options}
}

func optional(f Field) Field {
	f.Required = false
	return f
}

func loanVariant(lt models.LoanType, opts Options) *Variant {
	v := &Variant{
		Key:         VariantKey(models.CategoryLoan, string(lt)),
		Category:    models.CategoryLoan,
		SubType:     string(lt),
		Label:       lt.Label(),
		Requirement: RequirementSibling,
		Defaults:    map[string]string{"employmentType": "salaried"},
	}
	if lt == models.LoanBusiness {
		v.Defaults["employmentType"] = "self-employed"
	}

	v.Steps = append(v.Steps,
		Step{ID: "personal", Title: "Personal Details", Fields: []Field{
			fullName(),
			digits("mobileNumber", "Mobile number", 10),
			{Name: "email", Label: "Email", Kind: KindEmail, Required: true},
			digits("pincode", "Pincode", 6),
			{Name: "dob", Label: "Date of birth", Kind: KindDate, Required: true},
			text("city", "City"),
			{Name: "panCard", Label: "PAN", Kind: KindPAN, Required: true},
		}},
		Step{ID: "employment", Title: "Employment Details", Fields: []Field{
			enum("employmentType", "Employment type", EmploymentTypes),
			positive("monthlyIncome", "Monthly income"),
			{
				Name: "employerName", Label: "Employer name", Kind: KindText, Required: true,
				When: &Condition{Field: "employmentType", Equals: []string{"salaried"}},
			},
			{Name: "existingEmi", Label: "Existing EMI", Kind: KindNonNegativeNumber},
		}},
	)

	requirement := []Field{
		positive("loanAmount", "Loan amount"),
		tenure(),
	}

	switch lt {
	case models.LoanBusiness:
		v.Steps = append(v.Steps, Step{ID: "business", Title: "Business Details", Fields: []Field{
			text("businessName", "Business name"),
			text("businessType", "Business type"),
			positive("annualTurnover", "Annual turnover"),
			{Name: "yearsInBusiness", Label: "Years in business", Kind: KindNonNegativeInteger, Required: true},
		}})
	case models.LoanHome:
		property := Step{ID: "property", Title: "Property Details", Fields: []Field{
			positive("propertyCost", "Property cost"),
			enum("propertyLoanType", "Loan type", PropertyLoanTypes),
			enum("propertyStatus", "Property status", PropertyStatuses),
		}}
		if opts.HomeLoanRequirement == RequirementInProperty {
			property.Fields = append(property.Fields, requirement...)
			v.Requirement = RequirementInProperty
		}
		v.Steps = append(v.Steps, property)
	case models.LoanLAP:
		v.Steps = append(v.Steps, Step{ID: "property", Title: "Property Details", Fields: []Field{
			positive("currentMarketValue", "Current market value"),
			enum("propertyType", "Property type", PropertyTypes),
			enum("occupancyStatus", "Occupancy status", OccupancyStatuses),
		}})
	case models.LoanCar:
		v.Steps = append(v.Steps, Step{ID: "vehicle", Title: "Vehicle Details", Fields: []Field{
			text("carModel", "Car model"),
			positive("carPrice", "Car price"),
			enum("vehicleCondition", "Vehicle condition", VehicleConditions),
		}})
	case models.LoanEducation:
		v.Steps = append(v.Steps, Step{ID: "education", Title: "Course Details", Fields: []Field{
			text("courseName", "Course name"),
			text("institutionName", "Institution name"),
			positive("courseFee", "Course fee"),
		}})
	}

	if v.Requirement == RequirementSibling {
		v.Steps = append(v.Steps, Step{ID: "requirement", Title: "Loan Requirement", Fields: append(requirement,
			Field{Name: "loanPurpose", Label: "Purpose", Kind: KindText, Length: 500},
		)})
	}
	return v
}

func insuranceVariant(it models.InsuranceType) *Variant {
	v := &Variant{
		Key:         VariantKey(models.CategoryInsurance, string(it)),
		Category:    models.CategoryInsurance,
		SubType:     string(it),
		Label:       it.Label(),
		Requirement: RequirementNone,
	}

	basic := Step{ID: "basic", Title: "Basic Details", Fields: []Field{
		fullName(),
		digits("mobileNumber", "Mobile number", 10),
		{Name: "email", Label: "Email", Kind: KindEmail},
	}}

	var cover Step
	switch it.Block() {
	case models.BlockVehicleInfo:
		cover = Step{ID: "vehicle", Title: "Vehicle Details", Fields: []Field{
			digits("pincode", "Pincode", 6),
			{Name: "vehicleNumber", Label: "Vehicle number", Kind: KindVehicleNumber, Required: true},
			enum("policyTerm", "Policy term", PolicyTerms),
		}}
	case models.BlockLoanInfo:
		basic.Fields = append(basic.Fields, Field{
			Name: "age", Label: "Age", Kind: KindPositiveInteger, Required: true, Min: MinInsuredAge, Max: MaxInsuredAge,
		})
		cover = Step{ID: "loan", Title: "Loan Details", Fields: []Field{
			enum("loanType", "Loan type", lo.Map(models.LoanTypes, func(t models.LoanType, _ int) string { return string(t) })),
			positive("loanAmount", "Loan amount"),
			tenure(),
		}}
	default:
		basic.Fields = append(basic.Fields, Field{Name: "dob", Label: "Date of birth", Kind: KindDate, Required: true})
		cover = Step{ID: "cover", Title: "Cover", Fields: []Field{
			positive("sumInsured", "Sum insured"),
		}}
	}

	v.Steps = []Step{basic, cover}
	return v
}

func consultancyVariant() *Variant {
	return &Variant{
		Key:         VariantKey(models.CategoryConsultancy, ""),
		Category:    models.CategoryConsultancy,
		Label:       "Consultancy",
		Requirement: RequirementNone,
		Steps: []Step{{ID: "contact", Title: "Contact Details", Fields: []Field{
			fullName(),
			digits("phoneNumber", "Phone number", 10),
			{Name: "email", Label: "Email", Kind: KindEmail},
			text("interestedIn", "Interested in"),
			optional(Field{Name: "message", Label: "Message", Kind: KindText, Length: 2000}),
		}}},
	}
}
