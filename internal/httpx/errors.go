package httpx

import (
	"fmt"
	"net/http"
)

// ErrorKind distinguishes non-transient remote rejections.
type ErrorKind int

const (
	// KindUnknown covers every status without a more specific kind.
	KindUnknown ErrorKind = iota
	// KindNotFound is a 404.
	KindNotFound
	// KindForbidden is a 401 or 403.
	KindForbidden
	// KindValidation is a 400 or 422.
	KindValidation
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "not found"
	case KindForbidden:
		return "forbidden"
	case KindValidation:
		return "validation error"
	default:
		return "unknown"
	}
}

// RemoteError is a typed non-2xx response from an external system.
type RemoteError struct {
	Kind       ErrorKind
	StatusCode int
	Body       string
}

func (e *RemoteError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("remote %s (status %d): %s", e.Kind, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("remote %s (status %d)", e.Kind, e.StatusCode)
}

// Classify maps a status code to its error kind.
func Classify(statusCode int) ErrorKind {
	switch statusCode {
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusUnauthorized, http.StatusForbidden:
		return KindForbidden
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return KindValidation
	default:
		return KindUnknown
	}
}

// NewRemoteError builds a typed error for a non-2xx status.
func NewRemoteError(statusCode int, body string) *RemoteError {
	return &RemoteError{
		Kind:       Classify(statusCode),
		StatusCode: statusCode,
		Body:       body,
	}
}
