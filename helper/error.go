package helper

import "fmt"

// Error wraps an error with a trace describing where it happened.
// Nested Errors build up a trace from the outermost to the innermost step.
type Error struct {
	Original error
	Trace    []string
}

// NewError wraps err with the given trace step.
// If err is already an *Error the step is prepended to its trace.
func NewError(trace string, err error) error {
	if err == nil {
		return nil
	}

	if e, ok := err.(*Error); ok {
		return &Error{
			Original: e.Original,
			Trace:    append([]string{trace}, e.Trace...),
		}
	}

	return &Error{
		Original: err,
		Trace:    []string{trace},
	}
}

// Error implements the error interface
func (e *Error) Error() string {
	msg := ""
	for _, t := range e.Trace {
		msg += t + ": "
	}
	return fmt.Sprintf("%s%v", msg, e.Original)
}

// Unwrap returns the original error so errors.Is and errors.As see through the trace
func (e *Error) Unwrap() error {
	return e.Original
}
