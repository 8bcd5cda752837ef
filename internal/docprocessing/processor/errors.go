package processor

import (
	"errors"
	"fmt"
)

// Processing failures
var (
	// ErrCorruptDocument is returned when a file cannot be parsed as its declared format.
	ErrCorruptDocument = errors.New("corrupt or unreadable document")

	// ErrOCRFailed is returned when the OCR engine itself fails, as opposed to
	// an image that simply contains no readable text.
	ErrOCRFailed = errors.New("OCR engine failure")

	// ErrMissingCredentials is returned when a cloud OCR engine is selected without credentials.
	ErrMissingCredentials = errors.New("missing OCR engine credentials")
)

// ProcessError wraps errors with the failing operation and extra context.
type ProcessError struct {
	// Op is the operation that failed (e.g. "pdf.ExtractText").
	Op string

	// Err is the underlying error.
	Err error

	// Details provides additional context about the failure.
	Details string
}

// Error implements the error interface.
func (e *ProcessError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Details, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *ProcessError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match the wrapped sentinel.
func (e *ProcessError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// WrapProcessError wraps err as a ProcessError unless it already is one.
func WrapProcessError(op string, err error, details string) error {
	if err == nil {
		return nil
	}

	var procErr *ProcessError
	if errors.As(err, &procErr) {
		return err
	}

	return &ProcessError{
		Op:      op,
		Err:     err,
		Details: details,
	}
}
