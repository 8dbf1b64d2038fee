package services

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrConflict marks an illegal session transition or a duplicate start.
	// Wrapped messages should carry the session's current status so clients
	// can resynchronize their local belief.
	ErrConflict = errors.New("conflict")
	// ErrNotFound marks an unknown session or resource id.
	ErrNotFound = errors.New("not found")
	// ErrForbidden marks an ownership failure.
	ErrForbidden = errors.New("forbidden")
	// ErrUnavailable marks a detector that is unreachable or unhealthy.
	// Only checked at session start.
	ErrUnavailable = errors.New("service unavailable")
	// ErrDetection marks a detector that was reachable but errored or timed
	// out while processing a frame. Never retried by the pipeline.
	ErrDetection = errors.New("detection failed")
	// ErrValidation marks a malformed request.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidState marks an operation against a session whose status does
	// not admit it (e.g. recording a frame into a completed session).
	ErrInvalidState = errors.New("invalid state")
)

// Wrap builds an error message that includes operation context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrValidation
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// HTTPStatus maps a classified error to the status code the API should
// return. Unclassified errors map to 500.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict), errors.Is(err, ErrInvalidState):
		return http.StatusConflict
	case errors.Is(err, ErrUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, ErrDetection):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Code returns the short machine-readable identifier for a classified error,
// included in API error payloads alongside the message.
func Code(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return "validation_failed"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, ErrUnavailable):
		return "service_unavailable"
	case errors.Is(err, ErrDetection):
		return "detection_failed"
	default:
		return "internal"
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
