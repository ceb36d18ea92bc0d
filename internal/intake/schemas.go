package intake

import (
	"lead-intake/internal/common/validation"
	"lead-intake/internal/models"
)

// Structural schemas for request bodies. Formats and cross-field rules are
// checked afterwards against the decoded submission.
const loanSchemaJSON = `{
	"type": "object",
	"required": ["loanType", "personalInfo", "employmentInfo"],
	"properties": {
		"loanType": {"type": "string", "enum": ["personal", "business", "home", "lap", "car", "education"]},
		"personalInfo": {
			"type": "object",
			"required": ["fullName", "mobileNumber", "email", "pincode", "dob", "city", "panCard"],
			"properties": {
				"fullName": {"type": "string"},
				"mobileNumber": {"type": "string"},
				"email": {"type": "string"},
				"pincode": {"type": "string"},
				"dob": {"type": "string"},
				"city": {"type": "string"},
				"panCard": {"type": "string"}
			}
		},
		"employmentInfo": {
			"type": "object",
			"required": ["employmentType", "monthlyIncome"],
			"properties": {
				"employmentType": {"type": "string"},
				"monthlyIncome": {"type": "number"},
				"employerName": {"type": "string"},
				"existingEmi": {"type": "number"}
			}
		},
		"businessDetails": {
			"type": "object",
			"properties": {
				"businessName": {"type": "string"},
				"businessType": {"type": "string"},
				"annualTurnover": {"type": "number"},
				"yearsInBusiness": {"type": "integer"}
			}
		},
		"propertyDetails": {
			"type": "object",
			"properties": {
				"propertyCost": {"type": "number"},
				"propertyLoanType": {"type": "string"},
				"propertyStatus": {"type": "string"},
				"currentMarketValue": {"type": "number"},
				"propertyType": {"type": "string"},
				"occupancyStatus": {"type": "string"},
				"loanAmount": {"type": "number"},
				"tenure": {"type": "integer"}
			}
		},
		"vehicleDetails": {
			"type": "object",
			"properties": {
				"carModel": {"type": "string"},
				"carPrice": {"type": "number"},
				"vehicleCondition": {"type": "string"}
			}
		},
		"educationDetails": {
			"type": "object",
			"properties": {
				"courseName": {"type": "string"},
				"institutionName": {"type": "string"},
				"courseFee": {"type": "number"}
			}
		},
		"loanRequirement": {
			"type": "object",
			"required": ["loanAmount", "tenure"],
			"properties": {
				"loanAmount": {"type": "number"},
				"tenure": {"type": "integer"},
				"loanPurpose": {"type": "string"}
			}
		},
		"source": {"type": "string"}
	}
}`

const insuranceSchemaJSON = `{
	"type": "object",
	"required": ["insuranceType", "basicInfo"],
	"properties": {
		"insuranceType": {"type": "string", "enum": ["health", "term-life", "car", "bike", "loan-protector", "emi-protector"]},
		"basicInfo": {
			"type": "object",
			"required": ["fullName", "mobileNumber"],
			"properties": {
				"fullName": {"type": "string"},
				"mobileNumber": {"type": "string"},
				"email": {"type": "string"},
				"dob": {"type": "string"},
				"age": {"type": "integer"}
			}
		},
		"sumInsured": {"type": "number"},
		"vehicleInfo": {
			"type": "object",
			"required": ["pincode", "vehicleNumber", "policyTerm"],
			"properties": {
				"pincode": {"type": "string"},
				"vehicleNumber": {"type": "string"},
				"policyTerm": {"type": "string"}
			}
		},
		"loanInfo": {
			"type": "object",
			"required": ["loanType", "loanAmount", "tenure"],
			"properties": {
				"loanType": {"type": "string"},
				"loanAmount": {"type": "number"},
				"tenure": {"type": "integer"}
			}
		},
		"source": {"type": "string"}
	}
}`

const consultancySchemaJSON = `{
	"type": "object",
	"required": ["fullName", "phoneNumber", "interestedIn"],
	"properties": {
		"fullName": {"type": "string"},
		"phoneNumber": {"type": "string"},
		"email": {"type": "string"},
		"interestedIn": {"type": "string"},
		"message": {"type": "string"},
		"source": {"type": "string"}
	}
}`

var documentSchemas = map[models.Category]*validation.Schema{
	models.CategoryLoan:        validation.MustCompile("loan", loanSchemaJSON),
	models.CategoryInsurance:   validation.MustCompile("insurance", insuranceSchemaJSON),
	models.CategoryConsultancy: validation.MustCompile("consultancy", consultancySchemaJSON),
}

// CheckDocument validates the shape of a raw request body before it is decoded.
// A nil result means the body is structurally sound.
func CheckDocument(category models.Category, body []byte) []string {
	s, ok := documentSchemas[category]
	if !ok {
		return []string{"category: unknown category " + string(category)}
	}
	result, err := s.Validate(body)
	if err != nil {
		return []string{"body: must be a JSON object"}
	}
	if result.Valid {
		return nil
	}
	return result.GetErrorMessages()
}
