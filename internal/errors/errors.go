package errors

import (
	stderrors "errors"
	"fmt"
	"os"

	"github.com/julianstephens/streakline/internal/logger"
)

var (
	// ErrNotFound is returned for unknown habit, completion or streak ids.
	ErrNotFound = stderrors.New("not found")
	// ErrValidation is returned for malformed input.
	ErrValidation = stderrors.New("validation failed")
)

// StorageError wraps a failure of the underlying database. It is propagated to the
// caller unchanged and never retried.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Storage wraps err as a StorageError for op. It returns nil for a nil err and leaves
// errors that already carry a taxonomy kind untouched.
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	if IsNotFound(err) || IsValidation(err) {
		return err
	}
	var se *StorageError
	if stderrors.As(err, &se) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

// NotFoundf returns an error wrapping ErrNotFound.
func NotFoundf(format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrNotFound)
}

// Validationf returns an error wrapping ErrValidation.
func Validationf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func IsNotFound(err error) bool {
	return stderrors.Is(err, ErrNotFound)
}

func IsValidation(err error) bool {
	return stderrors.Is(err, ErrValidation)
}

func IsStorage(err error) bool {
	var se *StorageError
	return stderrors.As(err, &se)
}

// Format formats an error message with a consistent "Error: " prefix
func Format(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Error: %v", err)
}

// Formatf formats an error message with a consistent "Error: " prefix using a format string
func Formatf(format string, args ...interface{}) string {
	return fmt.Sprintf("Error: "+format, args...)
}

// Fatal logs an error and exits the program with exit code 1
func Fatal(err error) {
	if err != nil {
		logger.Error("Command execution failed", "error", err)
		fmt.Fprintf(os.Stderr, "%s\n", Format(err))
		os.Exit(1)
	}
}

// Fatalf logs and formats an error message, then exits the program with exit code 1
func Fatalf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	logger.Error("Command execution failed", "error", msg)
	fmt.Fprintf(os.Stderr, "%s\n", Formatf(format, args...))
	os.Exit(1)
}
