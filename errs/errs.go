package errs

import (
	"errors"
	"fmt"
)

// Sentinel errors for expected failure modes
var (
	// ErrInvalidInput marks malformed caller input: non-monotonic frame
	// times, non-positive tempo, bad tick resolution. Always detected
	// before any partial output is produced.
	ErrInvalidInput = errors.New("invalid input")

	// ErrOracleFailure marks a pitch-estimation failure. Distinct from a
	// valid empty transcription, which is not an error at all.
	ErrOracleFailure = errors.New("pitch oracle failure")

	ErrNotFound        = errors.New("not found")
	ErrForbidden       = errors.New("forbidden")
	ErrUnauthenticated = errors.New("unauthenticated")
)

// OracleError carries the details of a failed external pitch-estimation
// run. errors.Is(err, ErrOracleFailure) matches it.
type OracleError struct {
	Tool     string
	ExitCode int
	Stderr   string
	Cause    error
}

func (e *OracleError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("%s failed (exit %d): %s", e.Tool, e.ExitCode, e.Stderr)
	}
	return fmt.Sprintf("%s failed (exit %d)", e.Tool, e.ExitCode)
}

func (e *OracleError) Unwrap() error {
	return e.Cause
}

func (e *OracleError) Is(target error) bool {
	return target == ErrOracleFailure
}
