package domain

import "errors"

// Sentinel errors for domain operations
var (
	// ErrNotFound indicates the requested resource does not exist
	ErrNotFound = errors.New("resource not found")

	// ErrServerOffline indicates the API server is unreachable
	ErrServerOffline = errors.New("api server is unreachable")

	// ErrAuthFailed indicates authentication failed
	ErrAuthFailed = errors.New("authentication token is invalid")

	// ErrNotAuthenticated indicates no session is stored
	ErrNotAuthenticated = errors.New("not logged in")

	// ErrMissingData indicates a successful response without a data payload
	ErrMissingData = errors.New("response did not contain data")

	// ErrUnsupported indicates the server has no endpoint for the requested combination
	ErrUnsupported = errors.New("operation not supported for this media type")

	// ErrNoActiveClient indicates a client-scoped call was made before choosing a client
	ErrNoActiveClient = errors.New("no active media client")
)

// Error types carried in ErrorInfo.Type
const (
	ErrorTypeInternal   = "INTERNAL_ERROR"
	ErrorTypeNetwork    = "NETWORK_ERROR"
	ErrorTypeValidation = "VALIDATION_ERROR"
	ErrorTypeCanceled   = "CANCELED"
)

// ErrorInfo is the uniform error shape held by stores
type ErrorInfo struct {
	Message string         `json:"message"`
	Type    string         `json:"type"`
	Details map[string]any `json:"details,omitempty"`
}

func (e ErrorInfo) Error() string { return e.Message }
