package ghost

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidAdminKey is returned when the admin key is not "{id}:{hex secret}".
	ErrInvalidAdminKey = errors.New("invalid ghost admin api key")

	// ErrMissingURL is returned when Ghost accepts a post but reports no URL for it.
	ErrMissingURL = errors.New("ghost response has no post url")
)

// APIError is a non-2xx response from the Ghost Admin API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("ghost admin api returned status %d: %s", e.StatusCode, e.Body)
}
