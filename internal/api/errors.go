package api

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNetwork wraps transport failures (connection refused, timeouts, DNS).
var ErrNetwork = errors.New("network error")

// ErrNotFound matches any *HTTPError with status 404 through errors.Is.
var ErrNotFound = errors.New("not found")

// HTTPError is a non-2xx answer from the server.
type HTTPError struct {
	Status int
	Method string
	Path   string
	Body   string
}

func (e *HTTPError) Error() string {
	s := fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, http.StatusText(e.Status))
	if e.Body != "" {
		s += ": " + e.Body
	}
	return s
}

func (e *HTTPError) Is(target error) bool {
	return target == ErrNotFound && e.Status == http.StatusNotFound
}
