package errors

import "errors"

// Exit codes.
const (
	// ExitSuccess indicates every plan completed or was already migrated.
	ExitSuccess = 0

	// ExitGeneralError indicates an unspecified error occurred.
	ExitGeneralError = 1

	// ExitValidationError indicates a plan, config or snapshot document is invalid.
	ExitValidationError = 2

	// ExitNotFound indicates a file or asset given on the command line was not found.
	ExitNotFound = 5

	// ExitMigrationIncomplete indicates at least one plan did not reach
	// COMPLETE or SKIPPED_IDEMPOTENT.
	ExitMigrationIncomplete = 6

	// ExitSnapshotDrift indicates snapshot verification found mismatches.
	ExitSnapshotDrift = 7
)

// ExitError wraps an error with an exit code.
type ExitError struct {
	Err  error
	Code int

	// Printed reports whether the command layer already showed the error.
	Printed bool
}

// Error implements the error interface.
func (e *ExitError) Error() string {
	if e.Err == nil {
		return ExitCodeName(e.Code)
	}
	return e.Err.Error()
}

// Unwrap returns the wrapped error.
func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given error and exit code.
func NewExitError(err error, code int) *ExitError {
	return &ExitError{Err: err, Code: code}
}

// ExitCodeFromError determines the appropriate exit code for an error.
func ExitCodeFromError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}

	switch {
	case errors.Is(err, ErrValidation):
		return ExitValidationError
	case errors.Is(err, ErrNotFound):
		return ExitNotFound
	case errors.Is(err, ErrVerificationMismatch):
		return ExitSnapshotDrift
	default:
		return ExitGeneralError
	}
}

// ExitCodeName returns the name of the exit code.
func ExitCodeName(code int) string {
	switch code {
	case ExitSuccess:
		return "Success"
	case ExitGeneralError:
		return "General Error"
	case ExitValidationError:
		return "Validation Error"
	case ExitNotFound:
		return "Not Found"
	case ExitMigrationIncomplete:
		return "Migration Incomplete"
	case ExitSnapshotDrift:
		return "Snapshot Drift"
	default:
		return "Unknown"
	}
}
