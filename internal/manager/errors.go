package manager

import (
	"errors"
	"fmt"
)

// initError signals that the model handle could not be constructed. It is
// sticky: every GetModel call after the failure returns it.
type initError struct {
	modelID string
	err     error
}

func (e initError) Error() string {
	return fmt.Sprintf("model %s failed to load: %v", e.modelID, e.err)
}

func (e initError) Unwrap() error { return e.err }

// IsInitFailed reports whether err indicates a model construction failure.
func IsInitFailed(err error) bool {
	var e initError
	return errors.As(err, &e)
}

// inferenceError signals that the classification call itself failed.
type inferenceError struct {
	modelID string
	err     error
}

func (e inferenceError) Error() string {
	return fmt.Sprintf("inference with %s failed: %v", e.modelID, e.err)
}

func (e inferenceError) Unwrap() error { return e.err }

// IsInferenceFailed reports whether err came from the classification call.
func IsInferenceFailed(err error) bool {
	var e inferenceError
	return errors.As(err, &e)
}

// dependencyUnavailableError signals a missing runtime dependency such as an
// unconfigured inference backend.
type dependencyUnavailableError struct{ msg string }

func (e dependencyUnavailableError) Error() string { return e.msg }

// ErrDependencyUnavailable constructs a dependencyUnavailableError.
func ErrDependencyUnavailable(msg string) error { return dependencyUnavailableError{msg: msg} }

// IsDependencyUnavailable reports whether err indicates a missing dependency.
func IsDependencyUnavailable(err error) bool {
	var e dependencyUnavailableError
	return errors.As(err, &e)
}
