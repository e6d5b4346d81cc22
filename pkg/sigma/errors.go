package sigma

import (
	"errors"
	"fmt"
)

// Error types
var (
	ErrMalformedProposition = errors.New("malformed proposition")
	ErrUnsatisfiable        = errors.New("unsatisfiable proposition")
	ErrProving              = errors.New("proving error")
	ErrMalformedProof       = errors.New("malformed proof")
)

// ProvingError reports an internal invariant violation while composing a proof,
// for example a real leaf whose secret disappeared after reduction.
type ProvingError struct {
	Reason string
	Err    error
}

func (e *ProvingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("proving error: %s: %v", e.Reason, e.Err)
	}
	return "proving error: " + e.Reason
}

// Is makes errors.Is(err, ErrProving) match
func (e *ProvingError) Is(target error) bool {
	return target == ErrProving
}

func (e *ProvingError) Unwrap() error {
	return e.Err
}

func provingErr(err error, format string, args ...interface{}) error {
	return &ProvingError{Reason: fmt.Sprintf(format, args...), Err: err}
}

func malformedProp(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrMalformedProposition, fmt.Sprintf(format, args...))
}

func malformedProof(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrMalformedProof, fmt.Sprintf(format, args...))
}
