package errors

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// InternalError carries a developer message, an optional user-facing hint and
// reportable details alongside the wrapped cause.
type InternalError struct {
	cause   error
	hint    string
	details map[string]interface{}
}

func (e *InternalError) Error() string {
	return e.cause.Error()
}

func (e *InternalError) Unwrap() error {
	return e.cause
}

// Hint returns the user-facing hint, falling back to the error message.
func (e *InternalError) Hint() string {
	if e.hint != "" {
		return e.hint
	}
	return e.cause.Error()
}

func (e *InternalError) Details() map[string]interface{} {
	return e.details
}

// Builder assembles an InternalError. Terminate the chain with Mark to
// classify the error against one of the package sentinels.
type Builder struct {
	err *InternalError
}

// NewError starts a builder from a fresh error message.
func NewError(msg string) *Builder {
	return &Builder{err: &InternalError{cause: errors.New(msg)}}
}

// NewErrorf starts a builder from a formatted error message.
func NewErrorf(format string, args ...interface{}) *Builder {
	return NewError(fmt.Sprintf(format, args...))
}

// WithError starts a builder wrapping an existing error.
func WithError(err error) *Builder {
	if err == nil {
		err = errors.New("unknown error")
	}
	return &Builder{err: &InternalError{cause: err}}
}

// WithHint attaches a human-readable hint surfaced in API responses.
func (b *Builder) WithHint(hint string) *Builder {
	b.err.hint = hint
	return b
}

// WithHintf attaches a formatted hint.
func (b *Builder) WithHintf(format string, args ...interface{}) *Builder {
	b.err.hint = fmt.Sprintf(format, args...)
	return b
}

// WithReportableDetails attaches structured details safe to return to callers.
func (b *Builder) WithReportableDetails(details map[string]interface{}) *Builder {
	b.err.details = details
	return b
}

// Mark classifies the error with a sentinel and finalizes the builder.
func (b *Builder) Mark(sentinel error) error {
	b.err.cause = errors.Mark(b.err.cause, sentinel)
	return b.err
}

// Hint extracts the hint from any error in the chain.
func Hint(err error) string {
	var ie *InternalError
	if errors.As(err, &ie) {
		return ie.Hint()
	}
	return err.Error()
}

// Details extracts reportable details from any error in the chain.
func Details(err error) map[string]interface{} {
	var ie *InternalError
	if errors.As(err, &ie) {
		return ie.Details()
	}
	return nil
}
