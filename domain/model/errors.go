package model

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrRateLimited       = errors.New("rate limit exceeded")
	ErrUpstream          = errors.New("upstream provider error")
	ErrWorkerUnavailable = errors.New("render worker unavailable")
	ErrValidation        = errors.New("validation failed")
	ErrTerminalJob       = errors.New("render job already finished")
)

// NotFoundError is returned when a video or its channel does not exist upstream.
type NotFoundError struct {
	Kind ResourceKind
	ID   string
}

func (e *NotFoundError) Error() string {
	switch e.Kind {
	case ResourceChannel:
		return "Channel not found"
	case ResourceVideo:
		return "Video not found"
	case ResourceRender:
		return "Render not found"
	}
	return "Not found"
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// RateLimitError carries the limit of the quota class that rejected the caller.
type RateLimitError struct {
	Class   string
	Limit   int
	Window  time.Duration
	Message string
}

func (e *RateLimitError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("rate limit exceeded: %d requests per %s", e.Limit, FormatWindow(e.Window))
}

func (e *RateLimitError) Is(target error) bool { return target == ErrRateLimited }

// UpstreamError wraps a failure reported by the metadata provider.
type UpstreamError struct {
	Message string
	Err     error
}

func (e *UpstreamError) Error() string { return e.Message }

func (e *UpstreamError) Unwrap() error { return e.Err }

func (e *UpstreamError) Is(target error) bool { return target == ErrUpstream }

type WorkerUnavailableError struct {
	Reason string
}

func (e *WorkerUnavailableError) Error() string {
	if e.Reason == "" {
		return ErrWorkerUnavailable.Error()
	}
	return ErrWorkerUnavailable.Error() + ": " + e.Reason
}

func (e *WorkerUnavailableError) Is(target error) bool { return target == ErrWorkerUnavailable }

// ValidationError reports malformed input with per-field detail.
type ValidationError struct {
	Message string
	Fields  map[string]string
}

func NewValidationError(message string) *ValidationError {
	return &ValidationError{Message: message, Fields: map[string]string{}}
}

// Add records a field problem and returns the receiver for chaining.
func (e *ValidationError) Add(field, problem string) *ValidationError {
	if e.Fields == nil {
		e.Fields = map[string]string{}
	}
	e.Fields[field] = problem
	return e
}

// OrNil returns nil when no field problem was recorded.
func (e *ValidationError) OrNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return e.Message + " (" + strings.Join(parts, ", ") + ")"
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// HTTPStatus maps an error from the taxonomy to its response status. Anything else is an infrastructure fault.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrTerminalJob):
		return http.StatusConflict
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, ErrUpstream):
		return http.StatusBadGateway
	case errors.Is(err, ErrWorkerUnavailable):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// FormatWindow renders a window length the way user messages show it, e.g. 10s or 24h.
func FormatWindow(d time.Duration) string {
	switch {
	case d >= time.Hour && d%time.Hour == 0:
		return fmt.Sprintf("%dh", d/time.Hour)
	case d >= time.Minute && d%time.Minute == 0:
		return fmt.Sprintf("%dmin", d/time.Minute)
	}
	return fmt.Sprintf("%ds", int64(d.Round(time.Second)/time.Second))
}
