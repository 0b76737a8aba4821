package mailer

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidation is the base kind for rejected requests: missing
	// required fields, invalid addresses, bad attachments.
	ErrValidation = errors.New("mailer: validation failed")

	// ErrNoContent indicates no content source resolved to a body.
	ErrNoContent = fmt.Errorf("%w: either \"html\", \"text\", \"fields\", or \"template\" field is required", ErrValidation)

	// ErrSendFailed indicates the provider rejected or failed the delivery.
	ErrSendFailed = errors.New("mailer: failed to send email")
)

// ValidationError reports a specific offending field, optionally carrying
// the values that failed so the caller can echo them back.
type ValidationError struct {
	Field   string
	Invalid []string
	Reason  string
}

func (e *ValidationError) Error() string {
	if len(e.Invalid) > 0 {
		return fmt.Sprintf("invalid email addresses in %q field: %s", e.Field, strings.Join(e.Invalid, ", "))
	}
	if e.Reason != "" {
		return fmt.Sprintf("field %q %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("field %q is required", e.Field)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// ResolutionError reports a failed remote attachment fetch, naming the
// attachment so the caller knows which one aborted the send.
type ResolutionError struct {
	Filename string
	Err      error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("failed to load attachment %q from URL: %v", e.Filename, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }
