package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lead-intake/internal/models"
)

var baseTime = time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)

func consultancyRecord(id, name, phone string, created time.Time) *models.ConsultancyRequest {
	return &models.ConsultancyRequest{
		RequestID: id,
		ConsultancySubmission: models.ConsultancySubmission{
			FullName:     name,
			PhoneNumber:  phone,
			Email:        "lead@gmail.com",
			InterestedIn: "home loan",
		},
		Meta: models.NewMeta(models.CategoryConsultancy, "website", created),
	}
}

func loanRecord(id string, created time.Time) *models.LoanApplication {
	return &models.LoanApplication{
		ApplicationID: id,
		LoanSubmission: models.LoanSubmission{
			LoanType:     models.LoanPersonal,
			PersonalInfo: models.PersonalInfo{FullName: "Asha Rao", MobileNumber: "9876543210", Email: "asha@gmail.com", PanCard: "ABCDE1234F"},
			EmploymentInfo: models.EmploymentInfo{
				EmploymentType: "salaried", MonthlyIncome: 85000, EmployerName: "Infosys",
			},
			LoanRequirement: &models.LoanRequirement{LoanAmount: 500000, Tenure: 5},
		},
		Meta: models.NewMeta(models.CategoryLoan, "website", created),
	}
}

func TestMemoryStore_InsertGet(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	rec := loanRecord("LN-1", baseTime)
	require.NoError(t, s.Insert(ctx, rec))

	got, err := s.Get(ctx, models.CategoryLoan, "LN-1")
	require.NoError(t, err)
	loan, ok := got.(*models.LoanApplication)
	require.True(t, ok)
	assert.Equal(t, "ABCDE1234F", loan.PersonalInfo.PanCard)
	assert.Equal(t, models.StatusPending, loan.Status)
	require.Len(t, loan.StatusHistory, 1)
	assert.Equal(t, models.UpdatedBySystem, loan.StatusHistory[0].UpdatedBy)

	loan.Status = "mutated"
	again, err := s.Get(ctx, models.CategoryLoan, "LN-1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, again.RecordMeta().Status)
}

func TestMemoryStore_DuplicateAndNotFound(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Insert(ctx, loanRecord("LN-1", baseTime)))
	err := s.Insert(ctx, loanRecord("LN-1", baseTime))
	assert.True(t, errors.Is(err, ErrDuplicateID))

	// Uniqueness is per collection.
	require.NoError(t, s.Insert(ctx, consultancyRecord("LN-1", "Meera", "9988776655", baseTime)))

	_, err = s.Get(ctx, models.CategoryInsurance, "LN-1")
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = s.AppendStatus(ctx, models.CategoryInsurance, "nope", models.StatusEntry{Status: "in-review"})
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestMemoryStore_FindFilters(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Insert(ctx, consultancyRecord("CON-1", "Meera Nair", "9988776655", baseTime)))
	require.NoError(t, s.Insert(ctx, consultancyRecord("CON-2", "Ravi Kumar", "9123456780", baseTime.Add(time.Hour))))
	_, err := s.AppendStatus(ctx, models.CategoryConsultancy, "CON-2", models.StatusEntry{
		Status: "contacted", UpdatedAt: baseTime.Add(2 * time.Hour), UpdatedBy: models.UpdatedByAdmin,
	})
	require.NoError(t, err)

	all, err := s.Find(ctx, models.CategoryConsultancy, Filter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "CON-2", all[0].RecordID())

	pending, err := s.Find(ctx, models.CategoryConsultancy, Filter{Status: "pending"})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "CON-1", pending[0].RecordID())

	byName, err := s.Find(ctx, models.CategoryConsultancy, Filter{Search: "meera"})
	require.NoError(t, err)
	require.Len(t, byName, 1)

	byPhone, err := s.Find(ctx, models.CategoryConsultancy, Filter{Search: "91234"})
	require.NoError(t, err)
	require.Len(t, byPhone, 1)
	assert.Equal(t, "CON-2", byPhone[0].RecordID())

	byID, err := s.Find(ctx, models.CategoryConsultancy, Filter{Search: "con-1"})
	require.NoError(t, err)
	require.Len(t, byID, 1)
}

func TestMemoryStore_AppendStatusIsAppendOnly(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.Insert(ctx, loanRecord("LN-1", baseTime)))

	statuses := []string{"reviewing", "approved", "disbursed"}
	for i, st := range statuses {
		_, err := s.AppendStatus(ctx, models.CategoryLoan, "LN-1", models.StatusEntry{
			Status: st, UpdatedAt: baseTime.Add(time.Duration(i+1) * time.Minute), UpdatedBy: models.UpdatedByAdmin,
		})
		require.NoError(t, err)
	}

	got, err := s.Get(ctx, models.CategoryLoan, "LN-1")
	require.NoError(t, err)
	meta := got.RecordMeta()
	require.Len(t, meta.StatusHistory, 4)
	assert.Equal(t, "disbursed", meta.Status)
	assert.Equal(t, models.StatusPending, meta.StatusHistory[0].Status)
	for i, st := range statuses {
		assert.Equal(t, st, meta.StatusHistory[i+1].Status)
	}
	assert.True(t, meta.UpdatedAt.Equal(baseTime.Add(3*time.Minute)))
	assert.True(t, meta.CreatedAt.Equal(baseTime))
}
