package intake

import (
	"strings"

	"lead-intake/internal/common/validation"
	"lead-intake/internal/models"
	"lead-intake/internal/schema"
)

// Validate runs the server-side checks in order: document shape, struct tags,
// then field formats and cross-field rules. It stops at the first stage that
// reports anything, so a single defect is not reported three times.
func Validate(sub models.Submission) []string {
	if err := sub.CheckBranch(); err != nil {
		return []string{"category: " + err.Error()}
	}
	payload := sub.Payload()

	if s, ok := documentSchemas[sub.Category]; ok {
		result, err := s.Validate(payload)
		if err != nil {
			return []string{"body: " + err.Error()}
		}
		if !result.Valid {
			return result.GetErrorMessages()
		}
	}

	if result := validation.Struct(payload); !result.Valid {
		return result.GetErrorMessages()
	}

	var r rules
	switch sub.Category {
	case models.CategoryLoan:
		r.loan(sub.Loan)
	case models.CategoryInsurance:
		r.insurance(sub.Insurance)
	case models.CategoryConsultancy:
		r.consultancy(sub.Consultancy)
	}
	return r.violations
}

type rules struct {
	violations []string
}

func (r *rules) add(field, message string) {
	r.violations = append(r.violations, field+": "+message)
}

func (r *rules) check(field string, err error) {
	if err != nil {
		r.add(field, err.Error())
	}
}

func (r *rules) forbid(field string, present bool, owner string) {
	if present {
		r.add(field, "is not allowed for "+owner)
	}
}

func (r *rules) loan(l *models.LoanSubmission) {
	p := l.PersonalInfo
	r.check("personalInfo.mobileNumber", schema.CheckMobile(p.MobileNumber))
	r.check("personalInfo.pincode", schema.CheckPincode(p.Pincode))
	r.check("personalInfo.email", schema.CheckEmail(p.Email))
	r.check("personalInfo.dob", schema.CheckDate(p.DOB))
	r.check("personalInfo.panCard", schema.CheckPAN(p.PanCard))

	e := l.EmploymentInfo
	if e.EmploymentType != "salaried" && strings.TrimSpace(e.EmployerName) != "" {
		r.add("employmentInfo.employerName", "is only collected for salaried applicants")
	}

	owner := l.LoanType.Label()
	r.forbid("businessDetails", l.BusinessDetails != nil && l.LoanType != models.LoanBusiness, owner)
	r.forbid("vehicleDetails", l.VehicleDetails != nil && l.LoanType != models.LoanCar, owner)
	r.forbid("educationDetails", l.EducationDetails != nil && l.LoanType != models.LoanEducation, owner)
	r.forbid("propertyDetails", l.PropertyDetails != nil && l.LoanType != models.LoanHome && l.LoanType != models.LoanLAP, owner)

	switch l.LoanType {
	case models.LoanBusiness:
		if l.BusinessDetails == nil {
			r.add("businessDetails", schema.ErrRequired.Error())
		}
	case models.LoanCar:
		if l.VehicleDetails == nil {
			r.add("vehicleDetails", schema.ErrRequired.Error())
		}
	case models.LoanEducation:
		if l.EducationDetails == nil {
			r.add("educationDetails", schema.ErrRequired.Error())
		}
	case models.LoanHome:
		r.homeProperty(l)
	case models.LoanLAP:
		r.lapProperty(l.PropertyDetails)
	}

	if l.LoanType == models.LoanHome && l.LoanRequirement == nil {
		// Folded placement: amount and tenure live on the property block.
		if pd := l.PropertyDetails; pd != nil {
			if pd.LoanAmount <= 0 {
				r.add("propertyDetails.loanAmount", "must be greater than 0")
			}
			if pd.Tenure <= 0 || pd.Tenure > 40 {
				r.add("propertyDetails.tenure", "must be between 1 and 40")
			}
		}
		return
	}
	if l.LoanRequirement == nil {
		r.add("loanRequirement", schema.ErrRequired.Error())
	}
}

func (r *rules) homeProperty(l *models.LoanSubmission) {
	pd := l.PropertyDetails
	if pd == nil {
		r.add("propertyDetails", schema.ErrRequired.Error())
		return
	}
	if pd.PropertyCost <= 0 {
		r.add("propertyDetails.propertyCost", "must be greater than 0")
	}
	r.check("propertyDetails.propertyLoanType", schema.CheckEnum(pd.PropertyLoanType, schema.PropertyLoanTypes))
	r.check("propertyDetails.propertyStatus", schema.CheckEnum(pd.PropertyStatus, schema.PropertyStatuses))
	r.forbid("propertyDetails.currentMarketValue", pd.CurrentMarketValue != 0, "home loans")
	if l.LoanRequirement != nil {
		r.forbid("propertyDetails.loanAmount", pd.LoanAmount != 0 || pd.Tenure != 0, "home loans with a loanRequirement")
	}
}

func (r *rules) lapProperty(pd *models.PropertyDetails) {
	if pd == nil {
		r.add("propertyDetails", schema.ErrRequired.Error())
		return
	}
	if pd.CurrentMarketValue <= 0 {
		r.add("propertyDetails.currentMarketValue", "must be greater than 0")
	}
	r.check("propertyDetails.propertyType", schema.CheckEnum(pd.PropertyType, schema.PropertyTypes))
	r.check("propertyDetails.occupancyStatus", schema.CheckEnum(pd.OccupancyStatus, schema.OccupancyStatuses))
	r.forbid("propertyDetails.propertyCost", pd.PropertyCost != 0, "loans against property")
	r.forbid("propertyDetails.loanAmount", pd.LoanAmount != 0 || pd.Tenure != 0, "loans against property")
}

func (r *rules) insurance(in *models.InsuranceSubmission) {
	b := in.BasicInfo
	r.check("basicInfo.mobileNumber", schema.CheckMobile(b.MobileNumber))
	if b.Email != "" {
		r.check("basicInfo.email", schema.CheckEmail(b.Email))
	}

	switch in.InsuranceType {
	case models.InsuranceHealth, models.InsuranceTermLife:
		r.check("basicInfo.dob", schema.CheckDate(b.DOB))
	case models.InsuranceLoanProtector, models.InsuranceEMIProtector:
		if b.Age == 0 {
			r.add("basicInfo.age", schema.ErrRequired.Error())
		}
	}

	owner := in.InsuranceType.Label()
	block := in.InsuranceType.Block()
	r.forbid("sumInsured", in.SumInsured != nil && block != models.BlockSumInsured, owner)
	r.forbid("vehicleInfo", in.VehicleInfo != nil && block != models.BlockVehicleInfo, owner)
	r.forbid("loanInfo", in.LoanInfo != nil && block != models.BlockLoanInfo, owner)

	switch block {
	case models.BlockSumInsured:
		if in.SumInsured == nil {
			r.add("sumInsured", schema.ErrRequired.Error())
		}
	case models.BlockVehicleInfo:
		if in.VehicleInfo == nil {
			r.add("vehicleInfo", schema.ErrRequired.Error())
			return
		}
		r.check("vehicleInfo.pincode", schema.CheckPincode(in.VehicleInfo.Pincode))
		r.check("vehicleInfo.vehicleNumber", schema.CheckVehicleNumber(in.VehicleInfo.VehicleNumber))
		r.check("vehicleInfo.policyTerm", schema.CheckEnum(in.VehicleInfo.PolicyTerm, schema.PolicyTerms))
	case models.BlockLoanInfo:
		if in.LoanInfo == nil {
			r.add("loanInfo", schema.ErrRequired.Error())
		}
	}
}

func (r *rules) consultancy(c *models.ConsultancySubmission) {
	r.check("phoneNumber", schema.CheckPhone(c.PhoneNumber))
	if c.Email != "" {
		r.check("email", schema.CheckEmail(c.Email))
	}
}

// canonicalize applies the formatting the wizard's normalizer would have, so
// bodies from other clients are held to the same stored form.
func canonicalize(sub *models.Submission) {
	switch {
	case sub.Loan != nil:
		l := *sub.Loan
		l.PersonalInfo.FullName = strings.TrimSpace(l.PersonalInfo.FullName)
		l.PersonalInfo.Email = strings.TrimSpace(l.PersonalInfo.Email)
		l.PersonalInfo.PanCard = strings.ToUpper(strings.TrimSpace(l.PersonalInfo.PanCard))
		sub.Loan = &l
	case sub.Insurance != nil:
		in := *sub.Insurance
		in.BasicInfo.FullName = strings.TrimSpace(in.BasicInfo.FullName)
		in.BasicInfo.Email = strings.TrimSpace(in.BasicInfo.Email)
		if in.VehicleInfo != nil {
			vi := *in.VehicleInfo
			vi.VehicleNumber = schema.NormalizeVehicleNumber(vi.VehicleNumber)
			in.VehicleInfo = &vi
		}
		sub.Insurance = &in
	case sub.Consultancy != nil:
		c := *sub.Consultancy
		c.FullName = strings.TrimSpace(c.FullName)
		c.Email = strings.TrimSpace(c.Email)
		sub.Consultancy = &c
	}
}
