package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"
	"go.opentelemetry.io/otel/attribute"

	"lead-intake/internal/common/logger"
	"lead-intake/internal/common/metrics"
	"lead-intake/internal/common/observability"
	"lead-intake/internal/models"
	"lead-intake/internal/notify"
	"lead-intake/internal/searchindex"
	"lead-intake/internal/store"
)

var (
	ErrNotFound      = errors.New("APPLICATION_NOT_FOUND")
	ErrInvalidStatus = errors.New("INVALID_STATUS")
)

var allowedStatuses = map[models.Category][]string{
	models.CategoryLoan:        {"pending", "reviewing", "approved", "disbursed", "rejected"},
	models.CategoryInsurance:   {"pending", "in-review", "quote-sent", "purchased", "rejected"},
	models.CategoryConsultancy: {"pending", "contacted", "completed", "cancelled"},
}

// AllowedStatuses returns a copy of the statuses a record of the category may hold.
func AllowedStatuses(category models.Category) []string {
	return append([]string(nil), allowedStatuses[category]...)
}

func IsAllowed(category models.Category, status string) bool {
	return lo.Contains(allowedStatuses[category], status)
}

// Engine moves records between statuses. Any allowed status may follow any
// other; the history records every move.
type Engine struct {
	store    store.Store
	notifier notify.Notifier
	index    searchindex.Indexer
	now      func() time.Time
	logger   logger.Logger
}

type Option func(*Engine)

func WithNotifier(n notify.Notifier) Option {
	return func(e *Engine) { e.notifier = n }
}

func WithIndexer(i searchindex.Indexer) Option {
	return func(e *Engine) { e.index = i }
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func NewEngine(st store.Store, log logger.Logger, opts ...Option) *Engine {
	e := &Engine{
		store:    st,
		notifier: notify.Nop{},
		index:    searchindex.Nop{},
		now:      time.Now,
		logger:   log.WithFields(map[string]interface{}{"component": "workflow"}),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Find looks the id up in loan, insurance and consultancy order and returns
// the first match.
func (e *Engine) Find(ctx context.Context, id string) (models.Record, error) {
	var matches []models.Record
	for _, cat := range models.Categories {
		rec, err := e.store.Get(ctx, cat, id)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		matches = append(matches, rec)
	}

	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if len(matches) > 1 {
		metrics.IDCollisionsTotal.Inc()
		e.logger.Warn("id present in more than one collection", map[string]interface{}{
			"id": id,
			"categories": lo.Map(matches, func(r models.Record, _ int) string {
				return string(r.RecordCategory())
			}),
			"using": string(matches[0].RecordCategory()),
		})
	}
	return matches[0], nil
}

// Transition applies status to the record with the given id as an Admin action.
func (e *Engine) Transition(ctx context.Context, id, status, notes string) (models.Record, error) {
	return e.TransitionAs(ctx, id, status, notes, models.UpdatedByAdmin)
}

// TransitionAs is Transition with an explicit actor. A blank actor means Admin.
func (e *Engine) TransitionAs(ctx context.Context, id, status, notes, actor string) (models.Record, error) {
	ctx, span := observability.StartSpan(ctx, "workflow.Transition",
		attribute.String("id", id),
		attribute.String("status", status),
	)
	defer span.End()

	rec, err := e.Find(ctx, id)
	if err != nil {
		return nil, err
	}

	category := rec.RecordCategory()
	status = strings.TrimSpace(status)
	if !IsAllowed(category, status) {
		return nil, fmt.Errorf("%w: %q is not a %s status (allowed: %s)",
			ErrInvalidStatus, status, category, strings.Join(allowedStatuses[category], ", "))
	}
	if actor == "" {
		actor = models.UpdatedByAdmin
	}

	entry := models.StatusEntry{
		Status:    status,
		UpdatedAt: e.now().UTC(),
		UpdatedBy: actor,
		Notes:     strings.TrimSpace(notes),
	}
	updated, err := e.store.AppendStatus(ctx, category, rec.RecordID(), entry)
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, err
	}

	metrics.StatusTransitionsTotal.WithLabelValues(string(category), status).Inc()
	e.logger.Info("status updated", map[string]interface{}{
		"id":       id,
		"category": string(category),
		"from":     rec.RecordMeta().Status,
		"to":       status,
	})

	e.afterTransition(ctx, updated, entry)
	return updated, nil
}

func (e *Engine) afterTransition(ctx context.Context, rec models.Record, entry models.StatusEntry) {
	if err := e.notifier.StatusChanged(ctx, rec, entry); err != nil {
		if errors.Is(err, notify.ErrNoContactChannel) {
			e.logger.Debug("notification skipped", map[string]interface{}{"id": rec.RecordID(), "reason": err.Error()})
		} else {
			e.logger.Warn("notification failed", map[string]interface{}{"id": rec.RecordID(), "error": err})
		}
	}
	if err := e.index.Upsert(ctx, rec); err != nil {
		e.logger.Warn("search mirror failed", map[string]interface{}{"id": rec.RecordID(), "error": err})
	}
}
