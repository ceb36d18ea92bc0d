// internal/workers/intake/create-lead-record/handler.go
package createleadrecord

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"lead-intake/internal/common/errors"
	"lead-intake/internal/common/logger"
	"lead-intake/internal/common/metrics"
	"lead-intake/internal/intake"
	"lead-intake/internal/models"
)

const (
	TaskType = "create-lead-record"
)

// Submitter is the intake service.
type Submitter interface {
	Submit(ctx context.Context, sub models.Submission) (models.Record, error)
}

type Handler struct {
	config       *Config
	service      Submitter
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, service Submitter, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		service:      service,
		errorHandler: errors.NewErrorHandler(log),
		logger:       log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.fail(ctx, client, job, errors.NewInvalidRequestError(fmt.Sprintf("parse input: %v", err), err))
		return
	}

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.fail(ctx, client, job, err)
		return
	}

	h.completeJob(ctx, client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	category, err := models.ParseCategory(string(input.Category))
	if err != nil {
		return nil, errors.NewInvalidRequestError(err.Error(), err)
	}
	if len(input.Application) == 0 {
		return nil, errors.NewValidationFailedError([]string{"application: is required"})
	}
	if violations := intake.CheckDocument(category, input.Application); len(violations) > 0 {
		return nil, errors.NewValidationFailedError(violations)
	}

	sub, err := decodeSubmission(category, input.Source, input.Application)
	if err != nil {
		return nil, errors.NewValidationFailedError([]string{"application: " + err.Error()})
	}

	rec, err := h.service.Submit(ctx, sub)
	if err != nil {
		return nil, err
	}

	meta := rec.RecordMeta()
	h.logger.Info("lead record created", map[string]interface{}{
		"applicationId": rec.RecordID(),
		"category":      string(category),
		"source":        meta.Source,
	})

	return &Output{
		ApplicationID:     rec.RecordID(),
		Category:          category,
		ApplicationStatus: meta.Status,
		Source:            meta.Source,
		CreatedAt:         meta.CreatedAt.Format(time.RFC3339),
	}, nil
}

func decodeSubmission(category models.Category, src string, raw json.RawMessage) (models.Submission, error) {
	switch category {
	case models.CategoryLoan:
		var p models.LoanSubmission
		if err := json.Unmarshal(raw, &p); err != nil {
			return models.Submission{}, err
		}
		return models.LoanSubmissionOf(p, src), nil
	case models.CategoryInsurance:
		var p models.InsuranceSubmission
		if err := json.Unmarshal(raw, &p); err != nil {
			return models.Submission{}, err
		}
		return models.InsuranceSubmissionOf(p, src), nil
	default:
		var p models.ConsultancySubmission
		if err := json.Unmarshal(raw, &p); err != nil {
			return models.Submission{}, err
		}
		return models.ConsultancySubmissionOf(p, src), nil
	}
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	if _, err = cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	h.logger.Info("job completed successfully", map[string]interface{}{
		"jobKey": job.Key,
	})
}

func (h *Handler) fail(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	code := errors.Normalize(err).Code
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(code)).Inc()
	h.errorHandler.HandleJobError(ctx, client, job, err)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
