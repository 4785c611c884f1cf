package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrValidation     = errors.New("validation error")
	ErrNotFound       = errors.New("not found")
	ErrTargetNotFound = errors.New("target not found")
	ErrAmbiguousMatch = errors.New("ambiguous match")
	ErrUpstream       = errors.New("upstream failure")
	ErrExternalTool   = errors.New("external tool error")
	ErrConfiguration  = errors.New("configuration error")
)

// ErrAmbiguousIdentifier marks requests that carry zero or conflicting
// identifying inputs. It is a validation error as well.
var ErrAmbiguousIdentifier = fmt.Errorf("%w: ambiguous or missing identifier", ErrValidation)

// Wrap tags err with marker and prefixes it with operation context. The
// result satisfies errors.Is for both marker and err.
func Wrap(marker error, operation, message string, err error) error {
	detail := buildDetail(operation, message)
	if marker == nil {
		marker = ErrUpstream
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// HTTPStatus maps a fault to the status code returned to callers.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrTargetNotFound), errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrAmbiguousMatch):
		return http.StatusConflict
	case errors.Is(err, ErrConfiguration):
		return http.StatusServiceUnavailable
	case errors.Is(err, ErrUpstream), errors.Is(err, ErrExternalTool):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Code returns the machine readable code for a fault.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrAmbiguousIdentifier):
		return "AMBIGUOUS_OR_MISSING_IDENTIFIER"
	case errors.Is(err, ErrValidation):
		return "VALIDATION_FAILED"
	case errors.Is(err, ErrTargetNotFound):
		return "TARGET_NOT_FOUND"
	case errors.Is(err, ErrNotFound):
		return "NOT_FOUND"
	case errors.Is(err, ErrAmbiguousMatch):
		return "AMBIGUOUS_MATCH"
	case errors.Is(err, ErrConfiguration):
		return "NOT_CONFIGURED"
	case errors.Is(err, ErrExternalTool):
		return "OCR_FAILED"
	case errors.Is(err, ErrUpstream):
		return "UPSTREAM_FAILED"
	default:
		return "INTERNAL_ERROR"
	}
}

func buildDetail(operation, message string) string {
	parts := make([]string, 0, 2)
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "request failed"
	}
	return strings.Join(parts, ": ")
}
