package client

import (
	"encoding/json"
	"errors"
	"fmt"
)

// HTTPError represents a non-2xx HTTP response from the API.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// newHTTPError builds an HTTPError from a response body. The backend wraps
// error messages as {"detail": ...}; bodies in any other shape are carried
// verbatim so nothing is lost.
func newHTTPError(statusCode int, body []byte) *HTTPError {
	var apiErr struct {
		Detail string `json:"detail"`
		Error  string `json:"error"`
	}
	if json.Unmarshal(body, &apiErr) == nil {
		if apiErr.Detail != "" {
			return &HTTPError{StatusCode: statusCode, Message: apiErr.Detail}
		}
		if apiErr.Error != "" {
			return &HTTPError{StatusCode: statusCode, Message: apiErr.Error}
		}
	}
	return &HTTPError{StatusCode: statusCode, Message: string(body)}
}

// IsStatus returns true if err (or any wrapped error) is an HTTPError with the given status code.
func IsStatus(err error, code int) bool {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == code
	}
	return false
}
