package edgar

import (
	"context"
	"errors"
	"net"
	"net/http"
)

type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return http.StatusText(e.Status) + ": " + e.Body
}

// IsNotFound reports whether the archive has no data for the query. Callers
// treat this as an empty result, not a failure.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// IsForbidden reports whether the archive rejected our identification. This
// is fatal: retrying without fixing the User-Agent contract only digs deeper.
func IsForbidden(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusForbidden
	}
	return false
}

// IsTransient reports whether the failure is worth retrying on a later cycle:
// 5xx responses, timeouts, and interrupted transport.
func IsTransient(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status >= 500
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}
