package apperr

import (
	"errors"
	"fmt"
	"time"
)

// ErrorType represents the category of error
type ErrorType string

const (
	// ErrorTypeConnection represents datastore connectivity errors
	ErrorTypeConnection ErrorType = "connection"
	// ErrorTypeQuery represents malformed or rejected query errors
	ErrorTypeQuery ErrorType = "query"
	// ErrorTypeIntegrity represents violated uniqueness or shape invariants
	ErrorTypeIntegrity ErrorType = "integrity"
	// ErrorTypeAuth represents authentication precondition failures
	ErrorTypeAuth ErrorType = "auth"
	// ErrorTypeSentiment represents sentiment extraction errors
	ErrorTypeSentiment ErrorType = "sentiment"
	// ErrorTypeConfig represents configuration errors
	ErrorTypeConfig ErrorType = "config"
)

// BaseError is the base error type with common fields
type BaseError struct {
	Type      ErrorType
	Message   string
	Timestamp time.Time
	Err       error // Wrapped error
}

// Error implements the error interface
func (e *BaseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the wrapped error for error unwrapping
func (e *BaseError) Unwrap() error {
	return e.Err
}

// Kind returns the error category; promoted through embedding so every
// concrete error in this package reports its type
func (e *BaseError) Kind() ErrorType {
	return e.Type
}

// NewBaseError creates a new base error
func NewBaseError(errType ErrorType, message string, err error) *BaseError {
	return &BaseError{
		Type:      errType,
		Message:   message,
		Timestamp: time.Now(),
		Err:       err,
	}
}

// Connection Errors

// ErrConnectionFailed is returned when the datastore is unreachable
type ErrConnectionFailed struct {
	*BaseError
	URI string
}

func NewConnectionFailed(uri string, err error) *ErrConnectionFailed {
	return &ErrConnectionFailed{
		BaseError: NewBaseError(ErrorTypeConnection, fmt.Sprintf("failed to reach Neo4j: %s", uri), err),
		URI:       uri,
	}
}

// Query Errors

// ErrQueryFailed is returned when a graph query is rejected or malformed
type ErrQueryFailed struct {
	*BaseError
	Operation string
}

func NewQueryFailed(operation string, err error) *ErrQueryFailed {
	return &ErrQueryFailed{
		BaseError: NewBaseError(ErrorTypeQuery, fmt.Sprintf("query failed: %s", operation), err),
		Operation: operation,
	}
}

// Integrity Errors

// ErrIntegrity is returned when a read observes a violated invariant,
// e.g. more than one user for a supposedly unique username
type ErrIntegrity struct {
	*BaseError
	Detail string
}

func NewIntegrity(detail string) *ErrIntegrity {
	return &ErrIntegrity{
		BaseError: NewBaseError(ErrorTypeIntegrity, detail, nil),
		Detail:    detail,
	}
}

// Auth Errors

// ErrNotAuthenticated is returned when an operation requiring a logged-in
// session is invoked without one
var ErrNotAuthenticated = NewBaseError(ErrorTypeAuth, "not authenticated", nil)

// ErrInvalidCredentials is returned when a login attempt fails
var ErrInvalidCredentials = NewBaseError(ErrorTypeAuth, "invalid username or password", nil)

// ErrUsernameTaken is returned when registering an already-present username
type ErrUsernameTaken struct {
	*BaseError
	Username string
}

func NewUsernameTaken(username string) *ErrUsernameTaken {
	return &ErrUsernameTaken{
		BaseError: NewBaseError(ErrorTypeAuth, fmt.Sprintf("username already taken: %s", username), nil),
		Username:  username,
	}
}

// Sentiment Errors

// ErrAnalysisFailed is returned when the sentiment extraction service fails
type ErrAnalysisFailed struct {
	*BaseError
	Model    string
	Attempts int
}

func NewAnalysisFailed(model string, attempts int, err error) *ErrAnalysisFailed {
	return &ErrAnalysisFailed{
		BaseError: NewBaseError(ErrorTypeSentiment, fmt.Sprintf("sentiment analysis failed after %d attempts", attempts), err),
		Model:     model,
		Attempts:  attempts,
	}
}

// Helper functions

// IsErrorType checks if an error is of a specific type
func IsErrorType(err error, errType ErrorType) bool {
	for err != nil {
		if kinded, ok := err.(interface{ Kind() ErrorType }); ok {
			return kinded.Kind() == errType
		}
		err = errors.Unwrap(err)
	}
	return false
}
