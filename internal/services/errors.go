package services

import (
	"fmt"

	"github.com/desertthunder/jukebox/internal/shared"
)

// APIError is a non-success response from the Web API. Body is kept verbatim so it can be shown to the
// visitor as is.
type APIError struct {
	Method     string
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%v: %s %s returned %d: %s", shared.ErrAPIRequest, e.Method, e.Endpoint, e.StatusCode, e.Body)
}

func (e *APIError) Unwrap() error {
	return shared.ErrAPIRequest
}
