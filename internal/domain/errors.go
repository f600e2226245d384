package domain

import (
	"errors"
	"fmt"
)

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
	ErrCodeValidation      = "VALIDATION_ERROR"
	ErrCodeNotFound        = "NOT_FOUND"
	ErrCodeInternalError   = "INTERNAL_ERROR"
	ErrCodePrecondition    = "PRECONDITION_FAILED"
	ErrCodeExternalService = "EXTERNAL_SERVICE_ERROR"
	ErrCodeMalformedOutput = "MALFORMED_OUTPUT"
	ErrCodePersistence     = "PERSISTENCE_ERROR"
)

// Validation errors
var (
	ErrInvalidPurpose         = NewDomainError(ErrCodeValidation, "invalid content purpose")
	ErrInvalidJobStatus       = NewDomainError(ErrCodeValidation, "invalid pipeline job status")
	ErrInvalidRequestStatus   = NewDomainError(ErrCodeValidation, "invalid content request status")
	ErrInvalidKnowledgeSource = NewDomainError(ErrCodeValidation, "invalid knowledge source type")
	ErrMissingRequiredField   = NewDomainError(ErrCodeValidation, "missing required field")
)

// Not found errors
var (
	ErrAgentNotFound          = NewDomainError(ErrCodeNotFound, "agent not found")
	ErrContentNotFound        = NewDomainError(ErrCodeNotFound, "content not found")
	ErrContentVersionNotFound = NewDomainError(ErrCodeNotFound, "content version not found")
	ErrContentRequestNotFound = NewDomainError(ErrCodeNotFound, "content request not found")
	ErrKnowledgePointNotFound = NewDomainError(ErrCodeNotFound, "knowledge point not found")
	ErrJobNotFound            = NewDomainError(ErrCodeNotFound, "pipeline job not found")
	ErrBrandDocumentNotFound  = NewDomainError(ErrCodeNotFound, "brand document not found")
)

// Precondition errors fail a pipeline job immediately, without retry
var (
	ErrEmptyDescription   = NewDomainError(ErrCodePrecondition, "content request description is empty")
	ErrAgentPurposeNotSet = NewDomainError(ErrCodePrecondition, "agent has no configured purpose")
	ErrEmptySourceText    = NewDomainError(ErrCodePrecondition, "source text is empty")
	ErrNoKnowledgePoints  = NewDomainError(ErrCodePrecondition, "no knowledge point could be produced")
)

// Malformed model output errors
var (
	ErrEmptyGeneration   = NewDomainError(ErrCodeMalformedOutput, "model returned empty generated text")
	ErrMalformedMetadata = NewDomainError(ErrCodeMalformedOutput, "model returned malformed content metadata")
)

// External service errors
var (
	ErrEmptySearchResults = NewDomainError(ErrCodeExternalService, "web search returned no results")
	ErrCrawlFailed        = NewDomainError(ErrCodeExternalService, "website crawl failed")
)

// NewExternalServiceError wraps a failure from an external collaborator
// (LLM, search, crawl, vector store) so the job worker retries it.
func NewExternalServiceError(message string, err error) *DomainError {
	return NewDomainErrorWithCause(ErrCodeExternalService, message, err)
}

// NewPersistenceError wraps a database write failure.
func NewPersistenceError(message string, err error) *DomainError {
	return NewDomainErrorWithCause(ErrCodePersistence, message, err)
}

// Retryable reports whether a job that failed with err should be handed
// back to the orchestrator's retry policy. Precondition and validation
// failures are final; everything else, including malformed model output,
// is retried since model calls are non-deterministic.
func Retryable(err error) bool {
	var domainErr *DomainError
	if !errors.As(err, &domainErr) {
		return true
	}

	switch domainErr.Code {
	case ErrCodePrecondition, ErrCodeValidation, ErrCodeNotFound:
		return false
	default:
		return true
	}
}
