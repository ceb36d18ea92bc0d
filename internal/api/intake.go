package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "lead-intake/internal/common/errors"
	"lead-intake/internal/common/logger"
	"lead-intake/internal/intake"
	"lead-intake/internal/models"
	"lead-intake/internal/source"
)

// maxBodyBytes bounds an intake body; the largest variant is well under it.
const maxBodyBytes = 64 << 10

// Submitter is the intake service as the handlers see it.
type Submitter interface {
	Submit(ctx context.Context, sub models.Submission) (models.Record, error)
}

type IntakeHandler struct {
	service Submitter
	logger  logger.Logger
}

func NewIntakeHandler(service Submitter, log logger.Logger) *IntakeHandler {
	return &IntakeHandler{
		service: service,
		logger:  log.WithFields(map[string]interface{}{"component": "intake-handler"}),
	}
}

// bodySource is the optional source tag inside a submission body.
type bodySource struct {
	Source string `json:"source"`
}

func (h *IntakeHandler) SubmitLoan(c *gin.Context) {
	var payload models.LoanSubmission
	h.submit(c, models.CategoryLoan, &payload, func(src string) models.Submission {
		return models.LoanSubmissionOf(payload, src)
	})
}

func (h *IntakeHandler) SubmitInsurance(c *gin.Context) {
	var payload models.InsuranceSubmission
	h.submit(c, models.CategoryInsurance, &payload, func(src string) models.Submission {
		return models.InsuranceSubmissionOf(payload, src)
	})
}

func (h *IntakeHandler) SubmitConsultancy(c *gin.Context) {
	var payload models.ConsultancySubmission
	h.submit(c, models.CategoryConsultancy, &payload, func(src string) models.Submission {
		return models.ConsultancySubmissionOf(payload, src)
	})
}

// submit checks the raw body shape, decodes it into payload and hands the
// wrapped submission to the service. The header source wins over the body's.
func (h *IntakeHandler) submit(c *gin.Context, category models.Category, payload interface{}, wrap func(src string) models.Submission) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes))
	if err != nil {
		c.Error(apperrors.NewInvalidRequestError("body could not be read", err))
		return
	}

	if violations := intake.CheckDocument(category, body); len(violations) > 0 {
		c.Error(apperrors.NewValidationFailedError(violations))
		return
	}
	if err := json.Unmarshal(body, payload); err != nil {
		c.Error(apperrors.NewValidationFailedError([]string{"body: " + err.Error()}))
		return
	}

	var tagged bodySource
	_ = json.Unmarshal(body, &tagged)

	rec, err := h.service.Submit(c.Request.Context(), wrap(firstNonBlank(c.GetHeader(source.HeaderName), tagged.Source)))
	if err != nil {
		c.Error(err)
		return
	}

	resp := gin.H{"success": true}
	if category == models.CategoryConsultancy {
		resp["requestId"] = rec.RecordID()
	} else {
		resp["applicationId"] = rec.RecordID()
	}
	c.JSON(http.StatusCreated, resp)
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if source.Canonical(v) != "" {
			return v
		}
	}
	return ""
}
