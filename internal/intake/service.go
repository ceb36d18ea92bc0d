package intake

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	apperrors "lead-intake/internal/common/errors"
	"lead-intake/internal/common/logger"
	"lead-intake/internal/common/metrics"
	"lead-intake/internal/common/observability"
	"lead-intake/internal/idgen"
	"lead-intake/internal/models"
	"lead-intake/internal/notify"
	"lead-intake/internal/searchindex"
	"lead-intake/internal/source"
	"lead-intake/internal/store"
)

// MaxAllocationAttempts bounds how often an id is re-drawn after colliding
// with an existing record.
const MaxAllocationAttempts = 3

const defaultSideEffectTimeout = 10 * time.Second

// Service accepts submissions from any front-end and persists them as new records.
type Service struct {
	store    store.Store
	ids      idgen.Allocator
	notifier notify.Notifier
	index    searchindex.Indexer
	sources  *source.Policy
	now      func() time.Time

	async             bool
	sideEffectTimeout time.Duration

	logger logger.Logger
}

type Option func(*Service)

func WithNotifier(n notify.Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

func WithIndexer(i searchindex.Indexer) Option {
	return func(s *Service) { s.index = i }
}

func WithSourcePolicy(p *source.Policy) Option {
	return func(s *Service) { s.sources = p }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithAsyncSideEffects moves notification and indexing off the request path.
func WithAsyncSideEffects(timeout time.Duration) Option {
	return func(s *Service) {
		s.async = true
		if timeout > 0 {
			s.sideEffectTimeout = timeout
		}
	}
}

func NewService(st store.Store, ids idgen.Allocator, log logger.Logger, opts ...Option) *Service {
	s := &Service{
		store:             st,
		ids:               ids,
		notifier:          notify.Nop{},
		index:             searchindex.Nop{},
		sources:           source.Default(),
		now:               time.Now,
		sideEffectTimeout: defaultSideEffectTimeout,
		logger:            log.WithFields(map[string]interface{}{"component": "intake"}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) SubmitLoan(ctx context.Context, payload models.LoanSubmission, src string) (string, error) {
	return s.submitID(ctx, models.LoanSubmissionOf(payload, src))
}

func (s *Service) SubmitInsurance(ctx context.Context, payload models.InsuranceSubmission, src string) (string, error) {
	return s.submitID(ctx, models.InsuranceSubmissionOf(payload, src))
}

func (s *Service) SubmitConsultancy(ctx context.Context, payload models.ConsultancySubmission, src string) (string, error) {
	return s.submitID(ctx, models.ConsultancySubmissionOf(payload, src))
}

func (s *Service) submitID(ctx context.Context, sub models.Submission) (string, error) {
	rec, err := s.Submit(ctx, sub)
	if err != nil {
		return "", err
	}
	return rec.RecordID(), nil
}

// Submit validates, stamps and stores one submission and returns the new record.
// Nothing is written when validation fails.
func (s *Service) Submit(ctx context.Context, sub models.Submission) (models.Record, error) {
	ctx, span := observability.StartSpan(ctx, "intake.Submit", attribute.String("category", string(sub.Category)))
	defer span.End()

	src := s.sources.Resolve(sub.Source)
	sub.Source = src
	log := s.logger.WithFields(map[string]interface{}{
		"category": string(sub.Category),
		"source":   src,
	})

	if !s.sources.Allows(src, sub.Category) {
		metrics.SubmissionsTotal.WithLabelValues(string(sub.Category), src, "blocked").Inc()
		return nil, apperrors.NewSourceBlockedError(src, string(sub.Category))
	}

	canonicalize(&sub)
	if violations := Validate(sub); len(violations) > 0 {
		log.Info("submission rejected", map[string]interface{}{"violations": violations})
		metrics.SubmissionsTotal.WithLabelValues(string(sub.Category), src, "rejected").Inc()
		return nil, apperrors.NewValidationFailedError(violations)
	}

	rec, err := s.persist(ctx, sub, log)
	if err != nil {
		span.RecordError(err)
		metrics.SubmissionsTotal.WithLabelValues(string(sub.Category), src, "error").Inc()
		return nil, err
	}

	metrics.SubmissionsTotal.WithLabelValues(string(sub.Category), src, "accepted").Inc()
	log.Info("submission accepted", map[string]interface{}{"id": rec.RecordID()})

	s.afterCreate(ctx, rec)
	return rec, nil
}

func (s *Service) persist(ctx context.Context, sub models.Submission, log logger.Logger) (models.Record, error) {
	var lastErr error
	for attempt := 1; attempt <= MaxAllocationAttempts; attempt++ {
		id, err := s.ids.Allocate(ctx, sub.Category)
		if err != nil {
			return nil, apperrors.NewIDAllocationFailedError(err)
		}

		rec, err := models.NewRecord(sub, id, models.NewMeta(sub.Category, sub.Source, s.now()))
		if err != nil {
			return nil, apperrors.NewInternalError(err)
		}

		err = s.store.Insert(ctx, rec)
		if err == nil {
			return rec, nil
		}
		if !errors.Is(err, store.ErrDuplicateID) {
			return nil, apperrors.NewDatabaseInsertFailedError(err)
		}

		metrics.IDCollisionsTotal.Inc()
		log.Warn("allocated id already taken, re-allocating", map[string]interface{}{
			"id":      id,
			"attempt": attempt,
		})
		lastErr = err
	}
	return nil, apperrors.NewIDAllocationFailedError(
		fmt.Errorf("%w: %d attempts: %v", idgen.ErrAllocationFailed, MaxAllocationAttempts, lastErr),
	)
}

func (s *Service) afterCreate(ctx context.Context, rec models.Record) {
	run := func(ctx context.Context) {
		logNotifyError(s.logger, rec, s.notifier.ApplicationReceived(ctx, rec))
		if err := s.index.Upsert(ctx, rec); err != nil {
			s.logger.Warn("search mirror failed", map[string]interface{}{"id": rec.RecordID(), "error": err})
		}
	}

	if !s.async {
		run(ctx)
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.sideEffectTimeout)
		defer cancel()
		run(ctx)
	}()
}

func logNotifyError(log logger.Logger, rec models.Record, err error) {
	switch {
	case err == nil:
	case errors.Is(err, notify.ErrNoContactChannel):
		log.Debug("notification skipped", map[string]interface{}{"id": rec.RecordID(), "reason": err.Error()})
	default:
		log.Warn("notification failed", map[string]interface{}{"id": rec.RecordID(), "error": err})
	}
}
