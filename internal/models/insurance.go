package models

type InsuranceType string

const (
	InsuranceHealth        InsuranceType = "health"
	InsuranceTermLife      InsuranceType = "term-life"
	InsuranceCar           InsuranceType = "car"
	InsuranceBike          InsuranceType = "bike"
	InsuranceLoanProtector InsuranceType = "loan-protector"
	InsuranceEMIProtector  InsuranceType = "emi-protector"
)

var InsuranceTypes = []InsuranceType{
	InsuranceHealth, InsuranceTermLife, InsuranceCar,
	InsuranceBike, InsuranceLoanProtector, InsuranceEMIProtector,
}

var insuranceLabels = map[InsuranceType]string{
	InsuranceHealth:        "Health Insurance",
	InsuranceTermLife:      "Term Life Insurance",
	InsuranceCar:           "Car Insurance",
	InsuranceBike:          "Bike Insurance",
	InsuranceLoanProtector: "Loan Protector",
	InsuranceEMIProtector:  "EMI Protector",
}

func (t InsuranceType) Label() string {
	if l, ok := insuranceLabels[t]; ok {
		return l
	}
	return string(t)
}

// InsuranceBlock names the one coverage block an insurance type carries.
type InsuranceBlock string

const (
	BlockSumInsured  InsuranceBlock = "sumInsured"
	BlockVehicleInfo InsuranceBlock = "vehicleInfo"
	BlockLoanInfo    InsuranceBlock = "loanInfo"
)

// Block returns the coverage block required by the insurance type.
func (t InsuranceType) Block() InsuranceBlock {
	switch t {
	case InsuranceCar, InsuranceBike:
		return BlockVehicleInfo
	case InsuranceLoanProtector, InsuranceEMIProtector:
		return BlockLoanInfo
	default:
		return BlockSumInsured
	}
}

type BasicInfo struct {
	FullName     string `json:"fullName" validate:"required,min=2,max=100"`
	MobileNumber string `json:"mobileNumber" validate:"required,len=10,numeric"`
	Email        string `json:"email,omitempty" validate:"omitempty,email"`
	DOB          string `json:"dob,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Age          int    `json:"age,omitempty" validate:"omitempty,gte=18,lte=100"`
}

type VehicleInfo struct {
	Pincode       string `json:"pincode" validate:"required,len=6,numeric"`
	VehicleNumber string `json:"vehicleNumber" validate:"required,min=6,max=11,alphanum,uppercase"`
	PolicyTerm    string `json:"policyTerm" validate:"required"`
}

type LoanInfo struct {
	LoanType   string  `json:"loanType" validate:"required"`
	LoanAmount float64 `json:"loanAmount" validate:"gt=0"`
	Tenure     int     `json:"tenure" validate:"gt=0,lte=40"`
}

// InsuranceSubmission carries exactly one of SumInsured, VehicleInfo or LoanInfo.
type InsuranceSubmission struct {
	InsuranceType InsuranceType `json:"insuranceType" validate:"required,oneof=health term-life car bike loan-protector emi-protector"`
	BasicInfo     BasicInfo     `json:"basicInfo"`
	SumInsured    *float64      `json:"sumInsured,omitempty" validate:"omitempty,gt=0"`
	VehicleInfo   *VehicleInfo  `json:"vehicleInfo,omitempty"`
	LoanInfo      *LoanInfo     `json:"loanInfo,omitempty"`
}

type InsuranceApplication struct {
	ApplicationID string `json:"applicationId"`
	InsuranceSubmission
	Meta
}

func (a *InsuranceApplication) RecordID() string { return a.ApplicationID }

func (a *InsuranceApplication) Contact() Contact {
	return Contact{
		Name:  a.BasicInfo.FullName,
		Email: a.BasicInfo.Email,
		Phone: a.BasicInfo.MobileNumber,
	}
}
