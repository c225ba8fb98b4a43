package shared

import "errors"

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is matches any DomainError carrying the same code, so errors.Is works
// against the sentinels below regardless of message.
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Error codes
const (
	CodeNotFound          = "NOT_FOUND"
	CodeAlreadyExists     = "ALREADY_EXISTS"
	CodeInvalidInput      = "INVALID_INPUT"
	CodeConflict          = "CONCURRENCY_CONFLICT"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeForbidden         = "FORBIDDEN"
	CodeInvalidTransition = "INVALID_STATE"
	CodeInsufficientFunds = "INSUFFICIENT_BALANCE"
	CodeStoreUnavailable  = "STORE_UNAVAILABLE"
	CodeDuplicateRequest  = "DUPLICATE_REQUEST"
)

// Common domain errors
var (
	ErrNotFound            = NewDomainError(CodeNotFound, "Resource not found")
	ErrAlreadyExists       = NewDomainError(CodeAlreadyExists, "Resource already exists")
	ErrInvalidInput        = NewDomainError(CodeInvalidInput, "Invalid input provided")
	ErrConcurrencyConflict = NewDomainError(CodeConflict, "Resource was modified by another request, refresh and retry")
	ErrUnauthorized        = NewDomainError(CodeUnauthorized, "Not authorized to perform this action")
	ErrForbidden           = NewDomainError(CodeForbidden, "Access to this resource is forbidden")
	ErrInvalidTransition   = NewDomainError(CodeInvalidTransition, "Operation not allowed in current state")
	ErrInsufficientFunds   = NewDomainError(CodeInsufficientFunds, "Insufficient available balance")
	ErrStoreUnavailable    = NewDomainError(CodeStoreUnavailable, "Storage is temporarily unavailable")
	ErrDuplicateRequest    = NewDomainError(CodeDuplicateRequest, "This request was already processed")
)

// StoreError wraps an infrastructure failure as StoreUnavailable while keeping
// the cause reachable through errors.Unwrap for logging.
type StoreError struct {
	Op    string
	Cause error
}

func (e *StoreError) Error() string {
	return ErrStoreUnavailable.Message
}

func (e *StoreError) Unwrap() []error {
	return []error{ErrStoreUnavailable, e.Cause}
}

// WrapStoreError converts a non-domain error into a StoreError. Domain errors pass through.
func WrapStoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	var de *DomainError
	if errors.As(err, &de) {
		return err
	}
	var se *StoreError
	if errors.As(err, &se) {
		return err
	}
	return &StoreError{Op: op, Cause: err}
}
