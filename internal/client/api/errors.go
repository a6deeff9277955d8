package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrUnavailable  = errors.New("server unavailable")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
	ErrRejected     = errors.New("request rejected")
)

// Error is a non-2xx backend response. Detail carries the backend's
// {"detail": ...} text when present.
type Error struct {
	Status int
	Detail string
	kind   error
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s (%d): %s", e.kind, e.Status, e.Detail)
	}
	return fmt.Sprintf("%s (%d)", e.kind, e.Status)
}

func (e *Error) Unwrap() error { return e.kind }

func kindFor(status int) error {
	switch {
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return ErrUnauthorized
	case status == http.StatusNotFound:
		return ErrNotFound
	case status >= 500:
		return ErrUnavailable
	default:
		return ErrRejected
	}
}

// newError builds an Error from a response body. FastAPI-style validation
// errors carry a list in detail; anything that is not a plain string is kept
// as compact JSON.
func newError(status int, body []byte) *Error {
	e := &Error{Status: status, kind: kindFor(status)}

	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || len(payload.Detail) == 0 {
		e.Detail = strings.TrimSpace(string(body))
		return e
	}
	var s string
	if err := json.Unmarshal(payload.Detail, &s); err == nil {
		e.Detail = s
		return e
	}
	e.Detail = string(payload.Detail)
	return e
}

// DetailOf returns the backend's detail text for err, or err.Error().
func DetailOf(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail
	}
	return err.Error()
}
