package feed

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"lead-intake/internal/models"
	"lead-intake/internal/source"
)

// Row is the flat projection of any record shown in the admin feed.
type Row struct {
	ID              string               `json:"id"`
	Category        models.Category      `json:"category"`
	Name            string               `json:"name"`
	ContactEmail    string               `json:"contactEmail,omitempty"`
	ContactPhone    string               `json:"contactPhone,omitempty"`
	TypeLabel       string               `json:"typeLabel"`
	AmountOrSubject string               `json:"amountOrSubject,omitempty"`
	Amount          *decimal.Decimal     `json:"amount,omitempty"`
	Status          string               `json:"status"`
	Source          string               `json:"source"`
	CreatedAt       time.Time            `json:"createdAt"`
	StatusHistory   []models.StatusEntry `json:"statusHistory"`
}

// Project flattens a record into a feed row.
func Project(rec models.Record) Row {
	meta := rec.RecordMeta()
	contact := rec.Contact()

	// Records saved before attribution existed carry no source.
	src := source.Canonical(meta.Source)
	if src == "" {
		src = source.DefaultSource
	}

	row := Row{
		ID:            rec.RecordID(),
		Category:      rec.RecordCategory(),
		Name:          contact.Name,
		ContactEmail:  contact.Email,
		ContactPhone:  contact.Phone,
		TypeLabel:     models.TypeLabel(rec),
		Status:        meta.Status,
		Source:        src,
		CreatedAt:     meta.CreatedAt,
		StatusHistory: meta.StatusHistory,
	}

	switch r := rec.(type) {
	case *models.LoanApplication:
		if amt := r.RequestedAmount(); amt > 0 {
			d := decimal.NewFromFloat(amt)
			row.Amount = &d
			row.AmountOrSubject = formatRupees(d)
		}
	case *models.InsuranceApplication:
		switch {
		case r.SumInsured != nil:
			row.AmountOrSubject = "Cover " + formatRupees(decimal.NewFromFloat(*r.SumInsured))
		case r.LoanInfo != nil:
			row.AmountOrSubject = "Loan " + formatRupees(decimal.NewFromFloat(r.LoanInfo.LoanAmount))
		case r.VehicleInfo != nil:
			row.AmountOrSubject = r.VehicleInfo.VehicleNumber
		}
	case *models.ConsultancyRequest:
		row.AmountOrSubject = r.InterestedIn
	}
	return row
}

func formatRupees(d decimal.Decimal) string {
	return fmt.Sprintf("₹%s", d.StringFixedBank(0))
}
