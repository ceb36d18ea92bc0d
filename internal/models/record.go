package models

import (
	"fmt"
	"strings"
	"time"
)

// Category is the top-level discriminator of every record.
type Category string

const (
	CategoryLoan        Category = "loan"
	CategoryInsurance   Category = "insurance"
	CategoryConsultancy Category = "consultancy"
)

// Categories lists every category in lookup order. Status transitions search
// collections in exactly this order.
var Categories = []Category{CategoryLoan, CategoryInsurance, CategoryConsultancy}

// ParseCategory accepts a category name in any case.
func ParseCategory(s string) (Category, error) {
	switch c := Category(strings.ToLower(strings.TrimSpace(s))); c {
	case CategoryLoan, CategoryInsurance, CategoryConsultancy:
		return c, nil
	default:
		return "", fmt.Errorf("unknown category %q", s)
	}
}

// Rank orders categories for deterministic tie-breaking.
func (c Category) Rank() int {
	for i, cat := range Categories {
		if cat == c {
			return i
		}
	}
	return len(Categories)
}

const (
	StatusPending = "pending"

	UpdatedBySystem = "System"
	UpdatedByAdmin  = "Admin"
)

// StatusEntry is one element of the append-only audit trail.
type StatusEntry struct {
	Status    string    `json:"status"`
	UpdatedAt time.Time `json:"updatedAt"`
	UpdatedBy string    `json:"updatedBy"`
	Notes     string    `json:"notes,omitempty"`
}

// Meta is the part every record shares regardless of category.
type Meta struct {
	Category      Category      `json:"category"`
	Status        string        `json:"status"`
	StatusHistory []StatusEntry `json:"statusHistory"`
	Source        string        `json:"source"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

// NewMeta stamps a freshly submitted record with its initial status entry.
func NewMeta(category Category, source string, now time.Time) Meta {
	now = now.UTC()
	return Meta{
		Category: category,
		Status:   StatusPending,
		StatusHistory: []StatusEntry{{
			Status:    StatusPending,
			UpdatedAt: now,
			UpdatedBy: UpdatedBySystem,
			Notes:     "Application submitted",
		}},
		Source:    source,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (m *Meta) RecordMeta() *Meta { return m }

func (m *Meta) RecordCategory() Category { return m.Category }

// Apply records a transition: the status changes and the entry is appended in one step.
func (m *Meta) Apply(entry StatusEntry) {
	m.Status = entry.Status
	m.UpdatedAt = entry.UpdatedAt
	m.StatusHistory = append(m.StatusHistory, entry)
}

// Contact is the reachable side of an applicant.
type Contact struct {
	Name  string
	Email string
	Phone string
}

// Record is implemented by *LoanApplication, *InsuranceApplication and
// *ConsultancyRequest. Narrow with a type switch before touching
// category-specific fields.
type Record interface {
	RecordID() string
	RecordCategory() Category
	RecordMeta() *Meta
	Contact() Contact
}

// NewRecord materialises a validated submission into the record of its category.
func NewRecord(sub Submission, id string, meta Meta) (Record, error) {
	if err := sub.CheckBranch(); err != nil {
		return nil, err
	}
	meta.Category = sub.Category

	switch sub.Category {
	case CategoryLoan:
		return &LoanApplication{ApplicationID: id, LoanSubmission: *sub.Loan, Meta: meta}, nil
	case CategoryInsurance:
		return &InsuranceApplication{ApplicationID: id, InsuranceSubmission: *sub.Insurance, Meta: meta}, nil
	default:
		return &ConsultancyRequest{RequestID: id, ConsultancySubmission: *sub.Consultancy, Meta: meta}, nil
	}
}

// NewEmptyRecord returns a zero record of the given category, ready to be decoded into.
func NewEmptyRecord(category Category) (Record, error) {
	switch category {
	case CategoryLoan:
		return &LoanApplication{}, nil
	case CategoryInsurance:
		return &InsuranceApplication{}, nil
	case CategoryConsultancy:
		return &ConsultancyRequest{}, nil
	default:
		return nil, fmt.Errorf("unknown category %q", category)
	}
}

// TypeLabel names the record's variant for people, e.g. "Home Loan".
func TypeLabel(rec Record) string {
	switch r := rec.(type) {
	case *LoanApplication:
		return r.LoanType.Label()
	case *InsuranceApplication:
		return r.InsuranceType.Label()
	case *ConsultancyRequest:
		return "Consultancy"
	default:
		return string(rec.RecordCategory())
	}
}
