package notify

import (
	"context"
	"fmt"

	"lead-intake/internal/common/logger"
	"lead-intake/internal/models"
)

const DefaultProcessID = "lead-notification"

// ProcessStarter starts a BPMN process instance and returns its key.
type ProcessStarter interface {
	StartProcess(ctx context.Context, bpmnProcessID string, variables interface{}) (int64, error)
}

// ProcessVariables seed the notification process. Its send-lead-notification
// task reloads the record and delivers.
type ProcessVariables struct {
	Event         Event           `json:"event"`
	Category      models.Category `json:"category"`
	ApplicationID string          `json:"applicationId"`
	Status        string          `json:"status"`
	Notes         string          `json:"notes,omitempty"`
	Source        string          `json:"source"`
}

// ProcessDispatcher hands notifications to a Zeebe process instead of sending them itself.
type ProcessDispatcher struct {
	starter   ProcessStarter
	processID string
	logger    logger.Logger
}

func NewProcessDispatcher(starter ProcessStarter, processID string, log logger.Logger) *ProcessDispatcher {
	if processID == "" {
		processID = DefaultProcessID
	}
	return &ProcessDispatcher{
		starter:   starter,
		processID: processID,
		logger:    log.WithFields(map[string]interface{}{"component": "notification-dispatcher"}),
	}
}

func (p *ProcessDispatcher) ApplicationReceived(ctx context.Context, rec models.Record) error {
	return p.start(ctx, EventApplicationReceived, rec, "")
}

func (p *ProcessDispatcher) StatusChanged(ctx context.Context, rec models.Record, entry models.StatusEntry) error {
	return p.start(ctx, EventStatusChanged, rec, entry.Notes)
}

func (p *ProcessDispatcher) start(ctx context.Context, event Event, rec models.Record, notes string) error {
	meta := rec.RecordMeta()
	vars := ProcessVariables{
		Event:         event,
		Category:      rec.RecordCategory(),
		ApplicationID: rec.RecordID(),
		Status:        meta.Status,
		Notes:         notes,
		Source:        meta.Source,
	}

	key, err := p.starter.StartProcess(ctx, p.processID, vars)
	if err != nil {
		return fmt.Errorf("%w: start %s: %v", ErrNotificationSendFailed, p.processID, err)
	}

	p.logger.Debug("notification process started", map[string]interface{}{
		"processInstanceKey": key,
		"event":              string(event),
		"id":                 rec.RecordID(),
	})
	return nil
}
