package apierror

import (
	"fmt"
	"net/http"
)

type Kind int

const (
	// KindRateLimit - caller exceeded a quota window, recoverable after waiting
	KindRateLimit Kind = iota

	// KindAuthentication - invalid, expired or unknown credential
	KindAuthentication

	// KindConfiguration - deployment error such as an unknown tier name
	KindConfiguration

	// KindInternal - anything unexpected
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindRateLimit:
		return "rate_limit"
	case KindAuthentication:
		return "authentication"
	case KindConfiguration:
		return "configuration"
	default:
		return "internal"
	}
}

// Error is the tagged error type shared by the admission layer.
// Details carries structured context that ends up in the JSON response body.
type Error struct {
	Kind    Kind
	Message string
	Details map[string]interface{}
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// RateLimit builds a rate limit error with the window details the
// rejection body needs.
func RateLimit(message string, limit int, period, tier string) *Error {
	return &Error{
		Kind:    KindRateLimit,
		Message: message,
		Details: map[string]interface{}{
			"limit":  limit,
			"period": period,
			"tier":   tier,
		},
	}
}

// Response is the wire shape of an error returned to the caller.
type Response struct {
	Error   string                 `json:"error"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// ToResponse maps an error to (HTTP status, response body). Unrecognized
// errors collapse to a generic 500 without leaking internals.
func ToResponse(err error) (int, Response) {
	apiErr, ok := err.(*Error)
	if !ok {
		return http.StatusInternalServerError, Response{
			Error:   "INTERNAL_SERVER_ERROR",
			Message: "An unexpected error occurred",
		}
	}

	switch apiErr.Kind {
	case KindRateLimit:
		return http.StatusTooManyRequests, Response{
			Error:   "RATE_LIMIT_EXCEEDED",
			Message: apiErr.Message,
			Details: apiErr.Details,
		}
	case KindAuthentication:
		return http.StatusUnauthorized, Response{
			Error:   "AUTHENTICATION_FAILED",
			Message: apiErr.Message,
			Details: apiErr.Details,
		}
	case KindConfiguration:
		return http.StatusInternalServerError, Response{
			Error:   "CONFIGURATION_ERROR",
			Message: apiErr.Message,
			Details: apiErr.Details,
		}
	default:
		return http.StatusInternalServerError, Response{
			Error:   "INTERNAL_SERVER_ERROR",
			Message: "An unexpected error occurred",
		}
	}
}
