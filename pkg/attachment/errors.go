package attachment

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalid is the base kind for attachment policy violations.
	ErrInvalid = errors.New("attachment: invalid attachment")

	// ErrResolve is the base kind for remote attachment fetch failures.
	ErrResolve = errors.New("attachment: failed to resolve attachment")

	// ErrResolveTimeout is returned when a remote fetch exceeds its
	// time bound. It unwraps to ErrResolve.
	ErrResolveTimeout = fmt.Errorf("%w: timeout", ErrResolve)
)

// CountError reports too many attachments on a single message.
type CountError struct {
	Count int
	Max   int
}

func (e *CountError) Error() string {
	return fmt.Sprintf("too many attachments (%d), maximum allowed: %d", e.Count, e.Max)
}

func (e *CountError) Unwrap() error { return ErrInvalid }

// SizeError reports a single attachment exceeding the decoded size ceiling.
type SizeError struct {
	Filename string
	Size     int64
	Limit    int64
}

func (e *SizeError) Error() string {
	return fmt.Sprintf("attachment %q size (%.2fMB) exceeds limit of %.2fMB",
		e.Filename, mib(e.Size), mib(e.Limit))
}

func (e *SizeError) Unwrap() error { return ErrInvalid }

// TotalSizeError reports the aggregate decoded size exceeding the ceiling.
type TotalSizeError struct {
	Total int64
	Limit int64
}

func (e *TotalSizeError) Error() string {
	return fmt.Sprintf("total attachments size (%.2fMB) exceeds limit of %.2fMB",
		mib(e.Total), mib(e.Limit))
}

func (e *TotalSizeError) Unwrap() error { return ErrInvalid }

// InvalidError carries the subset of attachments that failed per-item
// validation so the caller can report exactly which ones were rejected.
type InvalidError struct {
	Invalid []Attachment
}

func (e *InvalidError) Error() string {
	if len(e.Invalid) == 1 {
		return fmt.Sprintf("invalid attachment %q", e.Invalid[0].Filename)
	}
	return fmt.Sprintf("%d invalid attachments found", len(e.Invalid))
}

func (e *InvalidError) Unwrap() error { return ErrInvalid }

// FetchError reports a non-success HTTP status while resolving a URL.
type FetchError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to load attachment from URL: %s", e.Status)
}

func (e *FetchError) Unwrap() error { return ErrResolve }

func mib(n int64) float64 { return float64(n) / 1024 / 1024 }
