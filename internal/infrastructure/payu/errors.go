package payu

import (
	"errors"
	"fmt"
)

// ErrUnauthorized is returned when PayU rejects the bearer token with 401.
var ErrUnauthorized = errors.New("payu: unauthorized")

// Error kinds reported by APIError.
const (
	KindToken  = "token_api_error"
	KindHTTP   = "payu_api"
	KindResult = "payu_result"
)

// APIError is a non-success answer from PayU: an HTTP failure or an envelope
// whose status is not 0.
type APIError struct {
	Kind       string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("payu %s (%d): %s", e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("payu %s: %s", e.Kind, e.Message)
}

// AsAPIError unwraps err into an *APIError.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
