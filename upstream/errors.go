package upstream

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for upstream operations.
var (
	// ErrMissingAPIKey indicates the client was constructed without a credential.
	ErrMissingAPIKey = errors.New("upstream: API key is required")

	// ErrMissingData indicates a 200 response whose envelope has no data field.
	ErrMissingData = errors.New("upstream: response envelope has no data field")
)

// StatusError is returned for any non-200 response. The status code decides
// whether the caller may retry; see IsTransient.
type StatusError struct {
	// Code is the HTTP status code returned by the upstream API.
	Code int

	// Path is the request path that produced the status.
	Path string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream: unexpected status %d for %s", e.Code, e.Path)
}

// IsTransient reports whether err is an upstream status that is expected to
// clear on its own: rate limiting (429) or a server error (5xx). All other
// statuses are fatal for the triggering fetch.
func IsTransient(err error) bool {
	var se *StatusError
	if !errors.As(err, &se) {
		return false
	}
	if se.Code == http.StatusTooManyRequests {
		return true
	}
	return se.Code >= 500 && se.Code < 600
}

// IsRateLimited reports whether err is a 429 status error.
func IsRateLimited(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == http.StatusTooManyRequests
}
