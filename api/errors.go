package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	cerrors "github.com/jrsteele09/condo-console/internal/errors"
)

// APIError is a non-2xx backend response. Detail is the backend's message, shown verbatim.
type APIError struct {
	Status int
	Detail string
}

func newAPIError(status int, body []byte) *APIError {
	return &APIError{Status: status, Detail: detailOf(body, status)}
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Detail)
}

// Unwrap maps the status onto the shared error taxonomy so callers can use errors.Is
func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return cerrors.ErrValidation
	case http.StatusUnauthorized:
		return cerrors.ErrUnauthenticated
	case http.StatusForbidden:
		return cerrors.ErrForbidden
	case http.StatusNotFound:
		return cerrors.ErrNotFound
	case http.StatusConflict:
		return cerrors.ErrConflict
	}
	return nil
}

// detailOf pulls {"detail": ...} or {"error": ...} out of the body, falling back to the raw text
func detailOf(body []byte, status int) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
		Error  string          `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if len(payload.Detail) > 0 {
			var s string
			if json.Unmarshal(payload.Detail, &s) == nil {
				return s
			}
			return string(payload.Detail)
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	if trimmed := bytes.TrimSpace(body); len(trimmed) > 0 {
		return string(trimmed)
	}
	return http.StatusText(status)
}
