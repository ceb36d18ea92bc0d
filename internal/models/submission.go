package models

import (
	"errors"
	"fmt"
)

var ErrBranchMismatch = errors.New("SUBMISSION_BRANCH_MISMATCH")

// Submission is the canonical payload of one category. Exactly one of Loan,
// Insurance or Consultancy is set and it must agree with Category.
type Submission struct {
	Category    Category               `json:"category"`
	Source      string                 `json:"source,omitempty"`
	Loan        *LoanSubmission        `json:"loan,omitempty"`
	Insurance   *InsuranceSubmission   `json:"insurance,omitempty"`
	Consultancy *ConsultancySubmission `json:"consultancy,omitempty"`
}

func LoanSubmissionOf(s LoanSubmission, source string) Submission {
	return Submission{Category: CategoryLoan, Source: source, Loan: &s}
}

func InsuranceSubmissionOf(s InsuranceSubmission, source string) Submission {
	return Submission{Category: CategoryInsurance, Source: source, Insurance: &s}
}

func ConsultancySubmissionOf(s ConsultancySubmission, source string) Submission {
	return Submission{Category: CategoryConsultancy, Source: source, Consultancy: &s}
}

// CheckBranch reports whether the populated branch matches Category.
func (s Submission) CheckBranch() error {
	set := 0
	for _, present := range []bool{s.Loan != nil, s.Insurance != nil, s.Consultancy != nil} {
		if present {
			set++
		}
	}
	if set != 1 {
		return fmt.Errorf("%w: %d branches set", ErrBranchMismatch, set)
	}

	var ok bool
	switch s.Category {
	case CategoryLoan:
		ok = s.Loan != nil
	case CategoryInsurance:
		ok = s.Insurance != nil
	case CategoryConsultancy:
		ok = s.Consultancy != nil
	}
	if !ok {
		return fmt.Errorf("%w: category %q", ErrBranchMismatch, s.Category)
	}
	return nil
}

// Payload returns the populated branch, for encoding as the request body of its category.
func (s Submission) Payload() interface{} {
	switch s.Category {
	case CategoryLoan:
		return s.Loan
	case CategoryInsurance:
		return s.Insurance
	default:
		return s.Consultancy
	}
}
