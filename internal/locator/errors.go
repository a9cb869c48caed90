// File: internal/locator/errors.go
package locator

import (
	"errors"
	"fmt"
)

// ErrNoCandidates is returned when a DOM locate is requested with an empty
// selector cascade. This is a configuration error: it is surfaced
// immediately and never retried.
var ErrNoCandidates = errors.New("locator: no selector candidates supplied")

// TransientError wraps a page-capability failure that may resolve on its own
// (capture during navigation, renderer crash). The scheduler retries these
// within the attempt budget; an exhausted budget escalates the last one to
// the caller.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("locator: transient %s failure: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// IsTransient reports whether err is (or wraps) a TransientError.
func IsTransient(err error) bool {
	var t *TransientError
	return errors.As(err, &t)
}
