// internal/workers/intake/update-lead-status/handler.go
package updateleadstatus

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"lead-intake/internal/common/errors"
	"lead-intake/internal/common/logger"
	"lead-intake/internal/common/metrics"
	"lead-intake/internal/models"
	"lead-intake/internal/workflow"
)

const (
	TaskType = "update-lead-status"
)

type Transitioner interface {
	Find(ctx context.Context, id string) (models.Record, error)
	TransitionAs(ctx context.Context, id, status, notes, actor string) (models.Record, error)
}

type Handler struct {
	config       *Config
	workflow     Transitioner
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, wf Transitioner, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		workflow:     wf,
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
	if err := job.GetVariablesAs(&input); err != nil {
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
	id := strings.TrimSpace(input.ApplicationID)
	if id == "" {
		return nil, errors.NewInvalidRequestError("applicationId is required", nil)
	}
	if strings.TrimSpace(input.Status) == "" {
		return nil, errors.NewInvalidRequestError("status is required", nil)
	}

	actor := strings.TrimSpace(input.Actor)
	if actor == "" {
		actor = h.config.Actor
	}

	current, err := h.workflow.Find(ctx, id)
	if err != nil {
		return nil, h.mapError(err, "", input.Status)
	}
	category := string(current.RecordCategory())

	rec, err := h.workflow.TransitionAs(ctx, id, input.Status, input.Notes, actor)
	if err != nil {
		return nil, h.mapError(err, category, input.Status)
	}

	meta := rec.RecordMeta()
	last := meta.StatusHistory[len(meta.StatusHistory)-1]

	return &Output{
		ApplicationID:  rec.RecordID(),
		Category:       category,
		PreviousStatus: current.RecordMeta().Status,
		Status:         meta.Status,
		UpdatedBy:      last.UpdatedBy,
		UpdatedAt:      last.UpdatedAt.Format(time.RFC3339),
	}, nil
}

func (h *Handler) mapError(err error, category, status string) error {
	switch {
	case stderrors.Is(err, workflow.ErrNotFound):
		return errors.NewApplicationNotFoundError(err)
	case stderrors.Is(err, workflow.ErrInvalidStatus):
		return errors.NewInvalidStatusError(category, status, err)
	default:
		return errors.NewDatabaseUpdateFailedError(err)
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
		"jobKey":        job.Key,
		"applicationId": output.ApplicationID,
		"status":        output.Status,
	})
}

func (h *Handler) fail(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(errors.Normalize(err).Code)).Inc()
	h.errorHandler.HandleJobError(ctx, client, job, err)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
