package normalize

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lead-intake/internal/models"
	"lead-intake/internal/schema"
)

func personalLoanAnswers() map[string]string {
	return map[string]string{
		"fullName":       "Asha Rao",
		"mobileNumber":   "9876543210",
		"email":          "asha.rao@gmail.com",
		"pincode":        "560001",
		"dob":            "1990-05-17",
		"city":           "Bengaluru",
		"panCard":        "abcde1234f",
		"employmentType": "salaried",
		"monthlyIncome":  "85000",
		"employerName":   "Infosys",
		"loanAmount":     "500000",
		"tenure":         "5",
		"loanPurpose":    "Wedding",
	}
}

func variant(t *testing.T, r *schema.Registry, key string) *schema.Variant {
	t.Helper()
	v, err := r.Variant(key)
	require.NoError(t, err)
	return v
}

func TestNormalize_PersonalLoan(t *testing.T) {
	v := variant(t, schema.Default(), "loan-personal")

	sub, err := Normalize(v, personalLoanAnswers())
	require.NoError(t, err)
	require.NoError(t, sub.CheckBranch())
	require.NotNil(t, sub.Loan)

	loan := sub.Loan
	assert.Equal(t, models.LoanPersonal, loan.LoanType)
	assert.Equal(t, "ABCDE1234F", loan.PersonalInfo.PanCard)
	assert.Equal(t, "Asha Rao", loan.PersonalInfo.FullName)
	assert.Equal(t, float64(85000), loan.EmploymentInfo.MonthlyIncome)
	assert.Equal(t, float64(0), loan.EmploymentInfo.ExistingEMI)
	require.NotNil(t, loan.LoanRequirement)
	assert.Equal(t, float64(500000), loan.LoanRequirement.LoanAmount)
	assert.Equal(t, 5, loan.LoanRequirement.Tenure)
	assert.Nil(t, loan.PropertyDetails)
}

func TestNormalize_Deterministic(t *testing.T) {
	r := schema.Default()

	cases := map[string]map[string]string{
		"loan-personal": personalLoanAnswers(),
		"insurance-car": {
			"fullName": "Ravi K", "mobileNumber": "9123456780",
			"pincode": "400001", "vehicleNumber": "mh 02 ab 1234", "policyTerm": "1-year",
		},
		"consultancy": {
			"fullName": "Meera", "phoneNumber": "9988776655", "interestedIn": "home loan",
		},
	}

	for key, answers := range cases {
		t.Run(key, func(t *testing.T) {
			v := variant(t, r, key)

			first, err := Normalize(v, answers)
			require.NoError(t, err)
			second, err := Normalize(v, answers)
			require.NoError(t, err)

			a, err := json.Marshal(first)
			require.NoError(t, err)
			b, err := json.Marshal(second)
			require.NoError(t, err)
			assert.Equal(t, string(a), string(b))
		})
	}
}

func TestNormalize_MissingRequiredNumeric(t *testing.T) {
	v := variant(t, schema.Default(), "loan-personal")
	answers := personalLoanAnswers()
	delete(answers, "monthlyIncome")

	_, err := Normalize(v, answers)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingNumeric))

	var pre *PreconditionError
	require.True(t, errors.As(err, &pre))
	assert.Equal(t, "monthlyIncome", pre.Field)
}

func TestNormalize_InvalidNumeric(t *testing.T) {
	v := variant(t, schema.Default(), "loan-personal")
	answers := personalLoanAnswers()
	answers["tenure"] = "five"

	_, err := Normalize(v, answers)
	assert.True(t, errors.Is(err, ErrInvalidNumeric))
}

func TestNormalize_YearsInBusinessIsWhole(t *testing.T) {
	v := variant(t, schema.Default(), "loan-business")

	tests := []struct {
		name    string
		years   string
		want    int
		wantErr error
	}{
		{"whole years", "7", 7, nil},
		{"new business", "0", 0, nil},
		{"fractional years refused", "2.5", 0, ErrInvalidNumeric},
		{"missing", "", 0, ErrMissingNumeric},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			answers := personalLoanAnswers()
			answers["employmentType"] = "self-employed"
			answers["businessName"] = "Rao Traders"
			answers["businessType"] = "retail"
			answers["annualTurnover"] = "2400000"
			answers["yearsInBusiness"] = tt.years

			sub, err := Normalize(v, answers)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr))
				var pre *PreconditionError
				require.True(t, errors.As(err, &pre))
				assert.Equal(t, "yearsInBusiness", pre.Field)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, sub.Loan.BusinessDetails)
			assert.Equal(t, tt.want, sub.Loan.BusinessDetails.YearsInBusiness)
		})
	}
}

func TestNormalize_EmployerDroppedWhenNotSalaried(t *testing.T) {
	v := variant(t, schema.Default(), "loan-personal")
	answers := personalLoanAnswers()
	answers["employmentType"] = "self-employed"

	sub, err := Normalize(v, answers)
	require.NoError(t, err)
	assert.Empty(t, sub.Loan.EmploymentInfo.EmployerName)
}

func TestNormalize_HomeLoanPlacement(t *testing.T) {
	answers := personalLoanAnswers()
	answers["propertyCost"] = "7500000"
	answers["propertyLoanType"] = "purchase"
	answers["propertyStatus"] = "ready-to-move"

	sibling, err := Normalize(variant(t, schema.Default(), "loan-home"), answers)
	require.NoError(t, err)
	require.NotNil(t, sibling.Loan.LoanRequirement)
	assert.Equal(t, float64(7500000), sibling.Loan.PropertyDetails.PropertyCost)
	assert.Zero(t, sibling.Loan.PropertyDetails.LoanAmount)

	folded := schema.New(schema.Options{HomeLoanRequirement: schema.RequirementInProperty})
	inProperty, err := Normalize(variant(t, folded, "loan-home"), answers)
	require.NoError(t, err)
	assert.Nil(t, inProperty.Loan.LoanRequirement)
	assert.Equal(t, float64(500000), inProperty.Loan.PropertyDetails.LoanAmount)
	assert.Equal(t, 5, inProperty.Loan.PropertyDetails.Tenure)
	assert.Equal(t, float64(500000), inProperty.Loan.RequestedAmount())
}

func TestNormalize_InsuranceBlocks(t *testing.T) {
	r := schema.Default()

	car, err := Normalize(variant(t, r, "insurance-car"), map[string]string{
		"fullName": "Ravi K", "mobileNumber": "9123456780",
		"pincode": "400001", "vehicleNumber": "mh 02 ab 1234", "policyTerm": "1-year",
	})
	require.NoError(t, err)
	require.NotNil(t, car.Insurance.VehicleInfo)
	assert.Equal(t, "MH02AB1234", car.Insurance.VehicleInfo.VehicleNumber)
	assert.Nil(t, car.Insurance.SumInsured)
	assert.Nil(t, car.Insurance.LoanInfo)

	health, err := Normalize(variant(t, r, "insurance-health"), map[string]string{
		"fullName": "Ravi K", "mobileNumber": "9123456780", "dob": "1985-01-01", "sumInsured": "1000000",
	})
	require.NoError(t, err)
	require.NotNil(t, health.Insurance.SumInsured)
	assert.Equal(t, float64(1000000), *health.Insurance.SumInsured)
	assert.Equal(t, "1985-01-01", health.Insurance.BasicInfo.DOB)

	emi, err := Normalize(variant(t, r, "insurance-emi-protector"), map[string]string{
		"fullName": "Ravi K", "mobileNumber": "9123456780", "age": "41",
		"loanType": "home", "loanAmount": "2500000", "tenure": "15",
	})
	require.NoError(t, err)
	require.NotNil(t, emi.Insurance.LoanInfo)
	assert.Equal(t, 41, emi.Insurance.BasicInfo.Age)
	assert.Equal(t, 15, emi.Insurance.LoanInfo.Tenure)
}

func TestNormalize_CarriesSource(t *testing.T) {
	sub, err := Normalize(variant(t, schema.Default(), "consultancy"), map[string]string{
		"fullName": "Meera", "phoneNumber": "9988776655", "interestedIn": "tax", "source": " partner-site ",
	})
	require.NoError(t, err)
	assert.Equal(t, "partner-site", sub.Source)
	assert.Equal(t, models.CategoryConsultancy, sub.Category)
}

func TestNormalize_NilVariant(t *testing.T) {
	_, err := Normalize(nil, nil)
	assert.True(t, errors.Is(err, ErrUnsupportedVariant))
}
