package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrUnknownService is a configuration error: the name is not a known backend service
	ErrUnknownService = errors.New("unknown service")
	// ErrTokenDecode is returned under the strict auth policy when the access token cannot be decoded
	ErrTokenDecode = errors.New("failed to decode access token")
)

// APIError is a non-2xx response from a backend service
type APIError struct {
	Service    ServiceName
	Method     string
	Path       string
	StatusCode int
	Message    string // backend-provided message, if any
	Body       string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("%s %s %s failed (status %d): %s", e.Service, e.Method, e.Path, e.StatusCode, msg)
}

// IsUnauthorized reports whether err is a 401 response
func IsUnauthorized(err error) bool {
	return StatusCode(err) == http.StatusUnauthorized
}

// StatusCode returns the HTTP status carried by err, or 0 for transport errors
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// extractMessage pulls the human-readable message out of an error body.
// Backends answer {"message": "..."}, {"message": ["...", "..."]} or {"error": "..."}.
func extractMessage(body []byte) string {
	var payload struct {
		Message json.RawMessage `json:"message"`
		Error   string          `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}

	if len(payload.Message) > 0 {
		var single string
		if err := json.Unmarshal(payload.Message, &single); err == nil && single != "" {
			return single
		}
		var many []string
		if err := json.Unmarshal(payload.Message, &many); err == nil && len(many) > 0 {
			return strings.Join(many, "; ")
		}
	}

	return payload.Error
}
