package llm

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrAuth covers rejected or missing credentials and malformed requests.
	// It is never retried.
	ErrAuth = errors.New("llm authentication or configuration error")

	// ErrOverloaded indicates rate limiting or service unavailability that
	// outlived the retry budget.
	ErrOverloaded = errors.New("llm service overloaded")

	// ErrUpstream is any other failed call to the model service.
	ErrUpstream = errors.New("llm request failed")

	ErrTimeout = errors.New("llm request timed out")

	// ErrInvalidOutput indicates the response could not be parsed into the
	// expected structured format.
	ErrInvalidOutput = errors.New("invalid llm output format")

	// ErrEmptyOutput indicates the model answered with no content at all.
	ErrEmptyOutput = errors.New("model output must contain text or a tool call")

	ErrDisabled = errors.New("llm is disabled")
)

// ErrorClass groups upstream failures by how callers should react.
type ErrorClass int

const (
	ClassOther ErrorClass = iota
	ClassAuth
	ClassOverload
)

func (c ErrorClass) sentinel() error {
	switch c {
	case ClassAuth:
		return ErrAuth
	case ClassOverload:
		return ErrOverloaded
	default:
		return ErrUpstream
	}
}

func (c ErrorClass) String() string {
	switch c {
	case ClassAuth:
		return "AUTH"
	case ClassOverload:
		return "OVERLOAD"
	default:
		return "OTHER"
	}
}

// Classify decides the class of an upstream failure from its HTTP status
// and message. Auth wins over overload.
func Classify(status int, message string) ErrorClass {
	switch {
	case status == http.StatusBadRequest, status == http.StatusUnauthorized, status == http.StatusForbidden,
		strings.Contains(message, "API key"), strings.Contains(message, "PERMISSION_DENIED"):
		return ClassAuth
	case status == http.StatusTooManyRequests, status == http.StatusServiceUnavailable,
		strings.Contains(message, "429"):
		return ClassOverload
	default:
		return ClassOther
	}
}

// APIError is a classified failure from the model service. The message is
// kept verbatim so configuration errors can be shown as-is.
type APIError struct {
	StatusCode int
	Message    string
	Class      ErrorClass
}

func NewAPIError(status int, message string) *APIError {
	return &APIError{StatusCode: status, Message: message, Class: Classify(status, message)}
}

func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		return e.Message
	}
	return fmt.Sprintf("status %d: %s", e.StatusCode, e.Message)
}

// Unwrap exposes the class sentinel so callers can use errors.Is.
func (e *APIError) Unwrap() error { return e.Class.sentinel() }

func errorCode(err error) string {
	var apiErr *APIError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &apiErr):
		return apiErr.Class.String()
	case errors.Is(err, ErrTimeout):
		return "TIMEOUT"
	case errors.Is(err, ErrOverloaded):
		return "OVERLOAD"
	case errors.Is(err, ErrInvalidOutput), errors.Is(err, ErrEmptyOutput):
		return "INVALID_OUTPUT"
	default:
		return "UNKNOWN"
	}
}
