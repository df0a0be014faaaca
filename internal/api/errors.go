package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/mmcdole/suasor/internal/domain"
)

// Kind classifies API failures
type Kind int

const (
	// KindNetwork covers transport failures and non-2xx responses
	KindNetwork Kind = iota
	// KindValidation covers 2xx responses missing the data payload
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	default:
		return "network"
	}
}

// Error is returned for every failed API call
type Error struct {
	Kind    Kind
	Method  string
	Path    string
	Status  int // zero when no response was received
	Message string
	Type    string // server-provided error type, if any
	Details map[string]any
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Status != 0 {
		return fmt.Sprintf("%s %s: %d: %s", e.Method, e.Path, e.Status, msg)
	}
	return fmt.Sprintf("%s %s: %s", e.Method, e.Path, msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Is maps HTTP statuses onto domain sentinels
func (e *Error) Is(target error) bool {
	switch target {
	case domain.ErrAuthFailed:
		return e.Status == http.StatusUnauthorized
	case domain.ErrNotFound:
		return e.Status == http.StatusNotFound
	case domain.ErrMissingData:
		return e.Kind == KindValidation
	}
	return false
}

// Info converts the error to the uniform store shape
func (e *Error) Info() domain.ErrorInfo {
	typ := e.Type
	if typ == "" {
		typ = domain.ErrorTypeNetwork
		if e.Kind == KindValidation {
			typ = domain.ErrorTypeValidation
		}
	}
	msg := e.Message
	if msg == "" {
		msg = e.Error()
	}
	details := e.Details
	if e.Status != 0 {
		details = make(map[string]any, len(e.Details)+1)
		for k, v := range e.Details {
			details[k] = v
		}
		details["status"] = e.Status
	}
	return domain.ErrorInfo{Message: msg, Type: typ, Details: details}
}

// IsStatus reports whether err is an API error with the given HTTP status
func IsStatus(err error, status int) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == status
}
