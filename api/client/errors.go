package client

import (
	"errors"
	"fmt"
)

// Error classifications. Every dispatch resolves to a success body or to exactly
// one *APIError whose Kind is one of these.
var (
	// ErrUnauthorized indicates the session is missing, invalid or expired.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden indicates an authorization denial or a feature gate.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound indicates the endpoint or resource does not exist.
	ErrNotFound = errors.New("not found")
	// ErrValidation indicates a business-rule rejection (bad promo code, missing field).
	ErrValidation = errors.New("validation failed")
	// ErrServer indicates a 5xx or an unclassified non-2xx response.
	ErrServer = errors.New("server error")
	// ErrNetwork indicates the request failed before a response was obtained.
	ErrNetwork = errors.New("network failure")
)

// APIError carries the classification of a failed request.
type APIError struct {
	Kind    error
	Status  int
	Message string
	// Feature is set for feature-gated 403 responses.
	Feature string
	URL     string
	Err     error
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Status > 0 {
		return fmt.Sprintf("%v (%d): %s", e.Kind, e.Status, msg)
	}
	return fmt.Sprintf("%v: %s", e.Kind, msg)
}

// Is reports whether target is the classification of e.
func (e *APIError) Is(target error) bool {
	return e.Kind == target
}

func (e *APIError) Unwrap() error { return e.Err }

// FeatureGated reports whether e is a 403 carrying an upgrade-required feature key.
func (e *APIError) FeatureGated() bool {
	return errors.Is(e, ErrForbidden) && e.Feature != ""
}

// Validation builds a validation error outside of the HTTP path, e.g. for a
// business-rule message embedded in a 2xx body.
func Validation(message string) *APIError {
	return &APIError{Kind: ErrValidation, Message: message}
}

// Describe returns the text a user should see for err. Server-supplied messages
// win over the generic fallbacks.
func Describe(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" && !errors.Is(apiErr, ErrNetwork) {
		return apiErr.Message
	}
	switch {
	case errors.Is(err, ErrUnauthorized):
		return "Your session has expired. Please sign in again."
	case errors.Is(err, ErrForbidden):
		return "You do not have access to this feature."
	case errors.Is(err, ErrNotFound):
		return "The requested resource was not found."
	case errors.Is(err, ErrValidation):
		return "The request was rejected. Please check your input."
	case errors.Is(err, ErrNetwork):
		return "Network error. Check your connection and try again."
	case errors.Is(err, ErrServer):
		return "The server could not process the request. Please try again later."
	}
	return err.Error()
}
