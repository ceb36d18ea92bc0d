package wizard

import (
	"errors"
	"fmt"
	"strings"

	stderrors "lead-intake/internal/common/errors"
	"lead-intake/internal/schema"
)

var (
	ErrStepInvalid      = errors.New("STEP_INVALID")
	ErrSubmitInFlight   = errors.New("SUBMIT_IN_FLIGHT")
	ErrAlreadySubmitted = errors.New("ALREADY_SUBMITTED")
)

// StepError is returned when a step gate refuses to let the applicant move on.
type StepError struct {
	Index      int
	StepID     string
	Violations []schema.Violation
}

func (e *StepError) Error() string {
	msgs := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		msgs = append(msgs, v.String())
	}
	return fmt.Sprintf("%s: step %s: %s", ErrStepInvalid, e.StepID, strings.Join(msgs, "; "))
}

func (e *StepError) Unwrap() error { return ErrStepInvalid }

// SubmissionRejected carries the server's violation list. It is not mapped
// back onto individual fields.
type SubmissionRejected struct {
	Errors []string
}

func (e *SubmissionRejected) Error() string {
	return "submission rejected: " + strings.Join(e.Errors, "; ")
}

// SubmissionRefused is a decided refusal unrelated to the answers themselves,
// such as a blocked source or a missing credential. Resubmitting will not help.
type SubmissionRefused struct {
	Code    stderrors.ErrorCode
	Message string
	Err     error
}

func (e *SubmissionRefused) Error() string {
	return fmt.Sprintf("submission refused (%s): %s", e.Code, e.Message)
}

func (e *SubmissionRefused) Unwrap() error { return e.Err }

// RetryableError wraps a transport failure; the same answers can be resubmitted.
type RetryableError struct {
	Err error
}

func (e *RetryableError) Error() string {
	return "submission failed, please retry: " + e.Err.Error()
}

func (e *RetryableError) Unwrap() error { return e.Err }
