// internal/workers/notification/send-lead-notification/handler.go
package sendleadnotification

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"lead-intake/internal/common/errors"
	"lead-intake/internal/common/logger"
	"lead-intake/internal/common/metrics"
	"lead-intake/internal/models"
	"lead-intake/internal/notify"
	"lead-intake/internal/workflow"
)

const (
	TaskType = "send-lead-notification"
)

type RecordFinder interface {
	Find(ctx context.Context, id string) (models.Record, error)
}

type Deliverer interface {
	Deliver(ctx context.Context, event notify.Event, rec models.Record, entry *models.StatusEntry) (notify.Outcome, error)
}

type Handler struct {
	config       *Config
	records      RecordFinder
	notifier     Deliverer
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
	now          func() time.Time
}

func NewHandler(config *Config, records RecordFinder, notifier Deliverer, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		records:      records,
		notifier:     notifier,
		errorHandler: errors.NewErrorHandler(log),
		logger:       log,
		now:          time.Now,
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
	if input.ApplicationID == "" {
		return nil, errors.NewInvalidRequestError("applicationId is required", nil)
	}
	if input.Event != notify.EventApplicationReceived && input.Event != notify.EventStatusChanged {
		return nil, errors.NewInvalidRequestError(fmt.Sprintf("unknown event %q", input.Event), nil)
	}

	// The record is reloaded so the message reflects what is stored now.
	rec, err := h.records.Find(ctx, input.ApplicationID)
	if err != nil {
		if stderrors.Is(err, workflow.ErrNotFound) {
			return nil, errors.NewApplicationNotFoundError(err)
		}
		return nil, errors.NewQueryExecutionFailedError("find", err)
	}

	var entry *models.StatusEntry
	if input.Event == notify.EventStatusChanged {
		entry = statusEntry(rec, input)
	}

	outcome, err := h.notifier.Deliver(ctx, input.Event, rec, entry)
	switch {
	case err == nil:
	case stderrors.Is(err, notify.ErrNoContactChannel):
		h.logger.Info("no usable contact channel, notification skipped", map[string]interface{}{
			"applicationId": input.ApplicationID,
		})
		return &Output{NotificationStatus: notify.StatusDisabled, Channels: []string{}}, nil
	default:
		return nil, errors.NewNotificationSendFailedError(string(input.Event), err)
	}

	return &Output{
		NotificationStatus: outcome.Status,
		Channels:           outcome.Channels,
		SentAt:             h.now().UTC().Format(time.RFC3339),
	}, nil
}

// statusEntry picks the history entry the event announced, falling back to
// the variables when the record has moved on since.
func statusEntry(rec models.Record, input *Input) *models.StatusEntry {
	history := rec.RecordMeta().StatusHistory
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Status == input.Status {
			e := history[i]
			return &e
		}
	}
	return &models.StatusEntry{Status: input.Status, Notes: input.Notes}
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
		"jobKey":             job.Key,
		"notificationStatus": output.NotificationStatus,
	})
}

func (h *Handler) fail(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(errors.Normalize(err).Code)).Inc()
	h.errorHandler.HandleJobError(ctx, client, job, err)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
