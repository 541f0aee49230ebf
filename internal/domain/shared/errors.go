package shared

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors. All expected business outcomes are returned as one of
// these codes so the boundary can map them without string matching.
var (
	ErrNotFound            = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists       = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput        = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrConcurrencyConflict = NewDomainError("CONCURRENCY_CONFLICT", "Resource was modified by another process")
	ErrInvalidState        = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
	ErrInvalidTransition   = NewDomainError("INVALID_TRANSITION", "Status transition is not allowed")
	ErrConflict            = NewDomainError("CONFLICT", "A conflicting in-flight record exists")
	ErrOutOfWindow         = NewDomainError("OUT_OF_WINDOW", "Reference month is outside the submission window")
	ErrDeadlineExpired     = NewDomainError("DEADLINE_EXPIRED", "Resubmission deadline has expired")
	ErrLocked              = NewDomainError("LOCKED", "Record is locked for editing")
	ErrValidation          = NewDomainError("VALIDATION_ERROR", "Required field is missing or invalid")
	ErrPartialFailure      = NewDomainError("PARTIAL_FAILURE", "Operation could not complete atomically")
)
