package errs

import (
	cr "github.com/cockroachdb/errors"
)

// Thin seam over cockroachdb/errors so call sites stay decoupled from the
// concrete errors library.

func New(msg string) error {
	return cr.New(msg)
}

func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return cr.Wrap(err, msg)
}

// markedError keeps the cause's message and chain while adding the sentinel's
// identity. Both branches are exposed through Unwrap so the match works with
// plain errors.Is at every call site.
type markedError struct {
	cause error
	mark  error
}

func (e *markedError) Error() string { return e.cause.Error() }

func (e *markedError) Unwrap() []error { return []error{e.cause, e.mark} }

// Mark attaches a sentinel to err so errors.Is(err, markErr) holds while the
// original cause is preserved for logging.
func Mark(err error, markErr error) error {
	if err == nil {
		return markErr
	}
	return &markedError{cause: err, mark: markErr}
}
