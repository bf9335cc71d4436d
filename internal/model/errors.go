package model

import "fmt"

// LoadError wraps any failure while resolving or loading a model reference.
// All load-path failures surface as this single type so callers can treat
// "could not produce a usable model" uniformly.
type LoadError struct {
	Ref string // the reference being loaded
	Err error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load model %q: %v", e.Ref, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// loadErrorf wraps a formatted cause in a LoadError.
func loadErrorf(ref, format string, args ...any) *LoadError {
	return &LoadError{Ref: ref, Err: fmt.Errorf(format, args...)}
}

// ValidationError reports a malformed prediction input, raised before any
// delegate model call is made.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid input: " + e.Reason
}

// Validationf constructs a ValidationError with a formatted reason.
func Validationf(format string, args ...any) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}
