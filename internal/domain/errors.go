package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEventNotFound        = errors.New("event not found")
	ErrCategoryNotFound     = errors.New("category not found")
	ErrInstallationNotFound = errors.New("installation not found")
	ErrGroupNotFound        = errors.New("group not found")
)

// Removed events are reported as ErrEventNotFound on every read and write
// path: soft deletion is invisible to callers.
var ErrCategoryInUse = errors.New("category is referenced by an event")

// Retryable conditions. ErrConflict is the optimistic-concurrency version
// mismatch from the primary store; ErrThrottled and ErrBadGateway are the
// transient transport failures from calendar and notification channels.
var (
	ErrConflict         = errors.New("version conflict")
	ErrThrottled        = errors.New("rate limited")
	ErrBadGateway       = errors.New("bad gateway")
	ErrReindexInFlight  = errors.New("reindex already running")
	ErrRetriesExhausted = errors.New("retries exhausted")
)

var ErrValidation = errors.New("validation error")

// FieldError is a single per-field validation failure reason.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ValidationError collects per-field failures so callers can report all of
// them at once. It unwraps to ErrValidation for errors.Is checks.
type ValidationError struct {
	Fields []FieldError
}

func (v *ValidationError) Error() string {
	parts := make([]string, 0, len(v.Fields))
	for _, f := range v.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Field, f.Reason))
	}
	return "validation error: " + strings.Join(parts, "; ")
}

func (v *ValidationError) Unwrap() error { return ErrValidation }

func (v *ValidationError) Add(field, reason string) {
	v.Fields = append(v.Fields, FieldError{Field: field, Reason: reason})
}

// ErrOrNil returns the error value only when at least one field failed.
func (v *ValidationError) ErrOrNil() error {
	if len(v.Fields) == 0 {
		return nil
	}
	return v
}
