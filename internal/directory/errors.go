package directory

import (
	"fmt"
	"io"
	"net/http"
)

// APIError is the base error type for directory HTTP errors.
// It supports errors.Is matching by status code.
type APIError struct {
	StatusCode int
	Message    string
}

// Error returns the formatted error string.
func (e *APIError) Error() string {
	return fmt.Sprintf("directory: HTTP %d: %s", e.StatusCode, e.Message)
}

// Is supports errors.Is matching by status code. ErrServer (500) matches
// any 5xx status code; other sentinels require an exact match.
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	if !ok {
		return false
	}
	if t.StatusCode == 500 && e.StatusCode >= 500 && e.StatusCode < 600 {
		return true
	}
	return e.StatusCode == t.StatusCode
}

// Sentinel errors for common HTTP error status codes.
var (
	ErrBadRequest   = &APIError{StatusCode: 400, Message: "bad request"}
	ErrUnauthorized = &APIError{StatusCode: 401, Message: "unauthorized"}
	ErrForbidden    = &APIError{StatusCode: 403, Message: "forbidden"}
	ErrNotFound     = &APIError{StatusCode: 404, Message: "not found"}
	ErrServer       = &APIError{StatusCode: 500, Message: "server error"}
)

// maxErrorBody is the maximum number of bytes read from an error response body.
const maxErrorBody = 4096

// errorFromResponse creates an *APIError from an HTTP response.
func errorFromResponse(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &APIError{
		StatusCode: resp.StatusCode,
		Message:    string(body),
	}
}
