// internal/workers/intake/update-lead-status/handler_test.go
package updateleadstatus

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lead-intake/internal/common/config"
	apperrors "lead-intake/internal/common/errors"
	"lead-intake/internal/common/logger"
	"lead-intake/internal/models"
	"lead-intake/internal/store"
	"lead-intake/internal/workflow"
)

var (
	createdAt = time.Date(2026, 10, 14, 8, 0, 0, 0, time.UTC)
	movedAt   = time.Date(2026, 10, 15, 12, 30, 0, 0, time.UTC)
)

// ==========================
// Test Helper Functions
// ==========================

func seedInsurance(t *testing.T, st store.Store, id string) {
	t.Helper()
	rec, err := models.NewRecord(
		models.InsuranceSubmissionOf(models.InsuranceSubmission{
			InsuranceType: models.InsuranceCar,
			BasicInfo:     models.BasicInfo{FullName: "Ravi Kumar", MobileNumber: "9123456780"},
		}, "insure-site"),
		id,
		models.NewMeta(models.CategoryInsurance, "insure-site", createdAt),
	)
	require.NoError(t, err)
	require.NoError(t, st.Insert(context.Background(), rec))
}

func createTestHandler(t *testing.T) (*Handler, *store.MemoryStore) {
	t.Helper()
	st := store.NewMemoryStore()
	log := logger.NewTestLogger(t)
	engine := workflow.NewEngine(st, log, workflow.WithClock(func() time.Time { return movedAt }))
	return NewHandler(LoadConfig(config.WorkerConfig{Timeout: 5000}), engine, log), st
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_Success(t *testing.T) {
	h, st := createTestHandler(t)
	seedInsurance(t, st, "INS-261014-0003")

	out, err := h.Execute(context.Background(), &Input{
		ApplicationID: "INS-261014-0003",
		Status:        "quote-sent",
		Notes:         "quote emailed by underwriter",
	})

	require.NoError(t, err)
	assert.Equal(t, "insurance", out.Category)
	assert.Equal(t, "pending", out.PreviousStatus)
	assert.Equal(t, "quote-sent", out.Status)
	assert.Equal(t, "Workflow", out.UpdatedBy)
	assert.Equal(t, "2026-10-15T12:30:00Z", out.UpdatedAt)

	rec, err := st.Get(context.Background(), models.CategoryInsurance, "INS-261014-0003")
	require.NoError(t, err)
	history := rec.RecordMeta().StatusHistory
	require.Len(t, history, 2)
	assert.Equal(t, "quote emailed by underwriter", history[1].Notes)
}

func TestHandler_Execute_ExplicitActor(t *testing.T) {
	h, st := createTestHandler(t)
	seedInsurance(t, st, "INS-261014-0004")

	out, err := h.Execute(context.Background(), &Input{
		ApplicationID: "INS-261014-0004",
		Status:        "rejected",
		Actor:         "underwriting-bot",
	})

	require.NoError(t, err)
	assert.Equal(t, "underwriting-bot", out.UpdatedBy)
}

// ==========================
// Error Handling Tests
// ==========================

func TestHandler_Execute_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input *Input
		code  apperrors.ErrorCode
	}{
		{"missing id", &Input{Status: "approved"}, apperrors.ErrCodeInvalidRequest},
		{"missing status", &Input{ApplicationID: "INS-261014-0005"}, apperrors.ErrCodeInvalidRequest},
		{"unknown id", &Input{ApplicationID: "LN-000000-0000", Status: "approved"}, apperrors.ErrCodeApplicationNotFound},
		{"status of another category", &Input{ApplicationID: "INS-261014-0005", Status: "disbursed"}, apperrors.ErrCodeInvalidStatus},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, st := createTestHandler(t)
			seedInsurance(t, st, "INS-261014-0005")

			out, err := h.Execute(context.Background(), tt.input)

			require.Error(t, err)
			assert.Nil(t, out)
			stdErr, ok := apperrors.AsStandard(err)
			require.True(t, ok)
			assert.Equal(t, tt.code, stdErr.Code)

			rec, getErr := st.Get(context.Background(), models.CategoryInsurance, "INS-261014-0005")
			require.NoError(t, getErr)
			assert.Len(t, rec.RecordMeta().StatusHistory, 1)
		})
	}
}

func TestInvalidStatusIsNotRetried(t *testing.T) {
	bpmn := apperrors.ConvertToBPMNError(apperrors.NewInvalidStatusError("insurance", "disbursed", nil))
	assert.Equal(t, 0, bpmn.Retries)
}
