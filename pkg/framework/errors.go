package framework

import (
	"io"
	"strings"
)

// AggregatedError collects errors from several goroutines or closers.
type AggregatedError struct {
	Errors []error
}

// Error implements error.
func (e *AggregatedError) Error() string {
	switch len(e.Errors) {
	case 0:
		return ""
	case 1:
		return e.Errors[0].Error()
	}
	msg := make([]string, 0, len(e.Errors)+1)
	msg = append(msg, "multiple errors:")
	for _, err := range e.Errors {
		msg = append(msg, err.Error())
	}
	return strings.Join(msg, "\n")
}

// Unwrap exposes the collected errors to errors.Is and errors.As.
func (e *AggregatedError) Unwrap() []error {
	return e.Errors
}

// Add adds errors to be aggregated. nil is skipped.
func (e *AggregatedError) Add(errs ...error) *AggregatedError {
	for _, err := range errs {
		if err != nil {
			e.Errors = append(e.Errors, err)
		}
	}
	return e
}

// Aggregate returns nil if nothing was collected.
func (e *AggregatedError) Aggregate() error {
	if len(e.Errors) == 0 {
		return nil
	}
	return e
}

// CloseAll closes every non-nil closer and aggregates the errors.
func CloseAll(closers ...io.Closer) error {
	var errs AggregatedError
	for _, c := range closers {
		if c != nil {
			errs.Add(c.Close())
		}
	}
	return errs.Aggregate()
}

// Closers closes a list of closers as one.
type Closers []io.Closer

// Close implements io.Closer.
func (c Closers) Close() error {
	return CloseAll(c...)
}
