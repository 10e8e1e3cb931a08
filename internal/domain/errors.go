package domain

import "fmt"

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     nil,
	}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain error codes
const (
	ErrCodeValidation           = "VALIDATION_ERROR"
	ErrCodeNotFound             = "NOT_FOUND"
	ErrCodeAlreadyExists        = "ALREADY_EXISTS"
	ErrCodeInternalError        = "INTERNAL_ERROR"
	ErrCodeInvalidOperation     = "INVALID_OPERATION"
	ErrCodeEmbeddingUnavailable = "EMBEDDING_UNAVAILABLE"
	ErrCodeStoreUnavailable     = "STORE_UNAVAILABLE"
	ErrCodeExtractionFailed     = "EXTRACTION_FAILED"
	ErrCodeEnrichmentFailed     = "ENRICHMENT_FAILED"
)

// Validation errors
var (
	ErrInvalidItemType         = NewDomainError(ErrCodeValidation, "invalid knowledge item type")
	ErrInvalidItemStatus       = NewDomainError(ErrCodeValidation, "invalid knowledge item status")
	ErrInvalidStatusTransition = NewDomainError(ErrCodeInvalidOperation, "invalid status transition")
	ErrMissingWorkspaceID      = NewDomainError(ErrCodeValidation, "workspace id is required")
	ErrEmptyQuery              = NewDomainError(ErrCodeValidation, "query cannot be empty")
	ErrMissingRequiredField    = NewDomainError(ErrCodeValidation, "missing required field")
)

// Not found errors
var (
	ErrItemNotFound       = NewDomainError(ErrCodeNotFound, "knowledge item not found")
	ErrCollectionNotFound = NewDomainError(ErrCodeNotFound, "collection not found")
	ErrIngestJobNotFound  = NewDomainError(ErrCodeNotFound, "ingest job not found")
)

// Retrieval errors. Index failures are deliberately absent: the index is a
// cache and its errors are recovered by the relational fallback, never
// surfaced to callers.
var (
	ErrEmbeddingUnavailable = NewDomainError(ErrCodeEmbeddingUnavailable, "embedding provider unavailable")
	ErrStoreUnavailable     = NewDomainError(ErrCodeStoreUnavailable, "relational store unavailable")
)

// Ingestion errors
var (
	ErrExtractionFailed = NewDomainError(ErrCodeExtractionFailed, "could not extract text from file")
)
