package wizard

import (
	"context"
	"errors"
	"sync"

	stderrors "lead-intake/internal/common/errors"
	"lead-intake/internal/common/logger"
	"lead-intake/internal/models"
	"lead-intake/internal/normalize"
	"lead-intake/internal/schema"
)

type State string

const (
	StateEditing    State = "editing"
	StateSubmitting State = "submitting"
	StateSubmitted  State = "submitted"
)

// Submitter delivers a canonical submission to the intake endpoint and returns the allocated id.
type Submitter interface {
	Submit(ctx context.Context, sub models.Submission) (string, error)
}

type SubmitterFunc func(ctx context.Context, sub models.Submission) (string, error)

func (f SubmitterFunc) Submit(ctx context.Context, sub models.Submission) (string, error) {
	return f(ctx, sub)
}

// Result describes what a Next call did.
type Result struct {
	Index     int
	Advanced  bool
	Submitted bool
	ID        string
}

type Option func(*Controller)

func WithLogger(log logger.Logger) Option {
	return func(c *Controller) { c.log = log }
}

// WithSource tags the eventual submission with the originating front-end.
func WithSource(source string) Option {
	return func(c *Controller) { c.fields[normalize.SourceField] = source }
}

// Controller is the per-session wizard state machine. One applicant, one controller.
type Controller struct {
	mu        sync.Mutex
	variant   *schema.Variant
	submitter Submitter
	log       logger.Logger

	index       int
	fields      map[string]string
	state       State
	submittedID string
	lastErr     error
}

func New(variant *schema.Variant, submitter Submitter, opts ...Option) *Controller {
	c := &Controller{
		variant:   variant,
		submitter: submitter,
		log:       logger.NewNoOpLogger(),
		fields:    make(map[string]string, len(variant.Defaults)),
		state:     StateEditing,
	}
	for k, v := range variant.Defaults {
		c.fields[k] = v
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.WithFields(map[string]interface{}{"component": "wizard", "variant": variant.Key})
	return c
}

func (c *Controller) Variant() *schema.Variant { return c.variant }

func (c *Controller) Index() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.index
}

func (c *Controller) Step() schema.Step {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.variant.Steps[c.index]
}

func (c *Controller) IsLastStep() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.index == len(c.variant.Steps)-1
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) SubmittedID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.submittedID
}

func (c *Controller) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Fields returns a copy of the accumulated answers.
func (c *Controller) Fields() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]string, len(c.fields))
	for k, v := range c.fields {
		out[k] = v
	}
	return out
}

// Violations lists what currently blocks the active step.
func (c *Controller) Violations() []schema.Violation {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.variant.Steps[c.index].Violations(c.fields)
}

func (c *Controller) Set(name, value string) error {
	return c.SetAll(map[string]string{name: value})
}

// SetAll records answers. Answers are frozen while a submit is in flight and after success.
func (c *Controller) SetAll(values map[string]string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.editableLocked(); err != nil {
		return err
	}
	for k, v := range values {
		c.fields[k] = v
	}
	return nil
}

// Next advances one step when the current step is valid. On the final step it submits.
func (c *Controller) Next(ctx context.Context) (Result, error) {
	c.mu.Lock()
	if err := c.editableLocked(); err != nil {
		idx := c.index
		c.mu.Unlock()
		return Result{Index: idx}, err
	}

	step := c.variant.Steps[c.index]
	if violations := step.Violations(c.fields); len(violations) > 0 {
		err := &StepError{Index: c.index, StepID: step.ID, Violations: violations}
		c.lastErr = err
		idx := c.index
		c.mu.Unlock()
		return Result{Index: idx}, err
	}

	if c.index < len(c.variant.Steps)-1 {
		c.index++
		c.lastErr = nil
		idx := c.index
		c.mu.Unlock()
		return Result{Index: idx, Advanced: true}, nil
	}
	c.mu.Unlock()

	id, err := c.Submit(ctx)
	if err != nil {
		return Result{Index: c.Index()}, err
	}
	return Result{Index: c.Index(), Submitted: true, ID: id}, nil
}

// Back moves one step backward without validating. It is a no-op at the first
// step and once the wizard has left the editing state.
func (c *Controller) Back() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateEditing || c.index == 0 {
		return false
	}
	c.index--
	return true
}

// Submit re-validates every step, normalizes the answers and hands them to the
// submitter. At most one submission is in flight; a second call while one is
// pending returns ErrSubmitInFlight without contacting the submitter.
func (c *Controller) Submit(ctx context.Context) (string, error) {
	c.mu.Lock()
	if err := c.editableLocked(); err != nil {
		c.mu.Unlock()
		return "", err
	}

	if bad := c.variant.FirstInvalidStep(c.fields); bad >= 0 {
		step := c.variant.Steps[bad]
		err := &StepError{Index: bad, StepID: step.ID, Violations: step.Violations(c.fields)}
		c.index = bad
		c.lastErr = err
		c.mu.Unlock()
		return "", err
	}

	sub, err := normalize.Normalize(c.variant, c.fields)
	if err != nil {
		c.lastErr = err
		c.mu.Unlock()
		return "", err
	}

	c.state = StateSubmitting
	c.mu.Unlock()

	c.log.Info("submitting application", map[string]interface{}{"category": sub.Category})
	id, err := c.submitter.Submit(ctx, sub)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.state = StateEditing
		c.lastErr = classify(err)
		c.log.Warn("submission failed", map[string]interface{}{"error": err})
		return "", c.lastErr
	}

	c.state = StateSubmitted
	c.submittedID = id
	c.lastErr = nil
	c.log.Info("application submitted", map[string]interface{}{"id": id})
	return id, nil
}

func (c *Controller) editableLocked() error {
	switch c.state {
	case StateSubmitting:
		return ErrSubmitInFlight
	case StateSubmitted:
		return ErrAlreadySubmitted
	default:
		return nil
	}
}

// classify turns a submitter error into a rejection the applicant must fix,
// a refusal no edit can cure, or a failure they can retry unchanged.
func classify(err error) error {
	var rejected *SubmissionRejected
	if errors.As(err, &rejected) {
		return rejected
	}
	var refused *SubmissionRefused
	if errors.As(err, &refused) {
		return refused
	}
	var retryable *RetryableError
	if errors.As(err, &retryable) {
		return retryable
	}

	stdErr, ok := stderrors.AsStandard(err)
	if !ok {
		return &RetryableError{Err: err}
	}
	if stdErr.Code == stderrors.ErrCodeValidationFailed {
		return &SubmissionRejected{Errors: append([]string(nil), stdErr.Violations...)}
	}
	if status := stderrors.HTTPStatus(stdErr); status >= 400 && status < 500 {
		msg := stdErr.Message
		if stdErr.Details != "" {
			msg += ": " + stdErr.Details
		}
		return &SubmissionRefused{Code: stdErr.Code, Message: msg, Err: err}
	}
	return &RetryableError{Err: err}
}
