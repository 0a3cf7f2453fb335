package client

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError is a non 2xx answer from a remote API.
type APIError struct {
	Service    string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s error %d: %s", e.Service, e.StatusCode, e.Body)
}

func IsRateLimited(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests
}
