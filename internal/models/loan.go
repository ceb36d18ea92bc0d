package models

type LoanType string

const (
	LoanPersonal  LoanType = "personal"
	LoanBusiness  LoanType = "business"
	LoanHome      LoanType = "home"
	LoanLAP       LoanType = "lap"
	LoanCar       LoanType = "car"
	LoanEducation LoanType = "education"
)

var LoanTypes = []LoanType{LoanPersonal, LoanBusiness, LoanHome, LoanLAP, LoanCar, LoanEducation}

var loanLabels = map[LoanType]string{
	LoanPersonal:  "Personal Loan",
	LoanBusiness:  "Business Loan",
	LoanHome:      "Home Loan",
	LoanLAP:       "Loan Against Property",
	LoanCar:       "Car Loan",
	LoanEducation: "Education Loan",
}

func (t LoanType) Label() string {
	if l, ok := loanLabels[t]; ok {
		return l
	}
	return string(t)
}

type PersonalInfo struct {
	FullName     string `json:"fullName" validate:"required,min=2,max=100"`
	MobileNumber string `json:"mobileNumber" validate:"required,len=10,numeric"`
	Email        string `json:"email" validate:"required,email"`
	Pincode      string `json:"pincode" validate:"required,len=6,numeric"`
	DOB          string `json:"dob" validate:"required,datetime=2006-01-02"`
	City         string `json:"city" validate:"required"`
	PanCard      string `json:"panCard" validate:"required,len=10,alphanum,uppercase"`
}

type EmploymentInfo struct {
	EmploymentType string  `json:"employmentType" validate:"required,oneof=salaried self-employed business"`
	MonthlyIncome  float64 `json:"monthlyIncome" validate:"gt=0"`
	EmployerName   string  `json:"employerName,omitempty" validate:"required_if=EmploymentType salaried"`
	ExistingEMI    float64 `json:"existingEmi" validate:"gte=0"`
}

type BusinessDetails struct {
	BusinessName    string  `json:"businessName" validate:"required"`
	BusinessType    string  `json:"businessType" validate:"required"`
	AnnualTurnover  float64 `json:"annualTurnover" validate:"gt=0"`
	YearsInBusiness int     `json:"yearsInBusiness" validate:"gte=0"`
}

// PropertyDetails carries either the home-loan shape (propertyCost,
// propertyLoanType, propertyStatus) or the LAP shape (currentMarketValue,
// propertyType, occupancyStatus). LoanAmount and Tenure are only set when the
// registry folds the loan requirement into the property block.
type PropertyDetails struct {
	PropertyCost     float64 `json:"propertyCost,omitempty" validate:"gte=0"`
	PropertyLoanType string  `json:"propertyLoanType,omitempty"`
	PropertyStatus   string  `json:"propertyStatus,omitempty"`

	CurrentMarketValue float64 `json:"currentMarketValue,omitempty" validate:"gte=0"`
	PropertyType       string  `json:"propertyType,omitempty"`
	OccupancyStatus    string  `json:"occupancyStatus,omitempty"`

	LoanAmount float64 `json:"loanAmount,omitempty" validate:"gte=0"`
	Tenure     int     `json:"tenure,omitempty" validate:"gte=0,lte=40"`
}

type VehicleDetails struct {
	CarModel         string  `json:"carModel" validate:"required"`
	CarPrice         float64 `json:"carPrice" validate:"gt=0"`
	VehicleCondition string  `json:"vehicleCondition" validate:"required,oneof=new used"`
}

type EducationDetails struct {
	CourseName      string  `json:"courseName" validate:"required"`
	InstitutionName string  `json:"institutionName" validate:"required"`
	CourseFee       float64 `json:"courseFee" validate:"gt=0"`
}

type LoanRequirement struct {
	LoanAmount  float64 `json:"loanAmount" validate:"gt=0"`
	Tenure      int     `json:"tenure" validate:"gt=0,lte=40"`
	LoanPurpose string  `json:"loanPurpose,omitempty" validate:"max=500"`
}

// LoanSubmission is the canonical loan payload, before an id and metadata exist.
type LoanSubmission struct {
	LoanType         LoanType          `json:"loanType" validate:"required,oneof=personal business home lap car education"`
	PersonalInfo     PersonalInfo      `json:"personalInfo"`
	EmploymentInfo   EmploymentInfo    `json:"employmentInfo"`
	BusinessDetails  *BusinessDetails  `json:"businessDetails,omitempty"`
	PropertyDetails  *PropertyDetails  `json:"propertyDetails,omitempty"`
	VehicleDetails   *VehicleDetails   `json:"vehicleDetails,omitempty"`
	EducationDetails *EducationDetails `json:"educationDetails,omitempty"`
	LoanRequirement  *LoanRequirement  `json:"loanRequirement,omitempty"`
}

// RequestedAmount is the loan amount wherever the variant keeps it.
func (s *LoanSubmission) RequestedAmount() float64 {
	if s.LoanRequirement != nil {
		return s.LoanRequirement.LoanAmount
	}
	if s.PropertyDetails != nil {
		return s.PropertyDetails.LoanAmount
	}
	return 0
}

type LoanApplication struct {
	ApplicationID string `json:"applicationId"`
	LoanSubmission
	Meta
}

func (a *LoanApplication) RecordID() string { return a.ApplicationID }

func (a *LoanApplication) Contact() Contact {
	return Contact{
		Name:  a.PersonalInfo.FullName,
		Email: a.PersonalInfo.Email,
		Phone: a.PersonalInfo.MobileNumber,
	}
}
