package backend

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnauthorized is returned for HTTP 401. Callers redirect to login.
	ErrUnauthorized = errors.New("not authenticated")
	// ErrNetwork wraps transport failures.
	ErrNetwork = errors.New("network error")
	// ErrDecode wraps undecodable success bodies.
	ErrDecode = errors.New("decode response")
)

// APIError is a non-2xx, non-401 answer from the backend.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// errorMessage extracts error or message from a JSON error body.
func errorMessage(status int, body []byte) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if msg := strings.TrimSpace(payload.Error); msg != "" {
			return msg
		}
		if msg := strings.TrimSpace(payload.Message); msg != "" {
			return msg
		}
	}
	return fmt.Sprintf("request failed (%d)", status)
}

// Message returns the text to show inline for err, with fallback when err
// carries no server message.
func Message(err error, fallback string) string {
	var apiErr *APIError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &apiErr):
		return apiErr.Message
	case errors.Is(err, ErrNetwork):
		return "Network error"
	default:
		return fallback
	}
}
