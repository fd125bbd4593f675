// Package errors provides the standardized error taxonomy shared by the
// recommendation core and the workers, plus its mapping onto BPMN errors.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeValidation          ErrorCode = "VALIDATION_ERROR"
	ErrCodeInvalidInput        ErrorCode = "INVALID_INPUT"
	ErrCodeProfileMissing      ErrorCode = "PROFILE_MISSING"
	ErrCodeMerchantNotFound    ErrorCode = "MERCHANT_NOT_FOUND"
	ErrCodeConcurrencyConflict ErrorCode = "CONCURRENCY_CONFLICT"
	ErrCodeCatalogUnavailable  ErrorCode = "CATALOG_UNAVAILABLE"
	ErrCodeStoreTimeout        ErrorCode = "STORE_TIMEOUT"
	ErrCodeStoreFailed         ErrorCode = "STORE_FAILED"
	ErrCodeNotificationFailed  ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodeInternal            ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("StandardError[%s]: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// WithMetadata attaches a key/value to the error and returns it.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

func newError(code ErrorCode, message, details string, retryable bool, cause error) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

// NewValidationError reports a structurally malformed field.
func NewValidationError(field, details string) *StandardError {
	return newError(ErrCodeValidation, "Validation failed", details, false, nil).
		WithMetadata("field", field)
}

// NewInvalidInputError reports a job payload that does not satisfy its schema.
func NewInvalidInputError(details string) *StandardError {
	return newError(ErrCodeInvalidInput, "Invalid job input", details, false, nil)
}

// NewProfileMissingError reports a user who has not completed onboarding.
func NewProfileMissingError(userID string) *StandardError {
	return newError(ErrCodeProfileMissing, "Preference profile not found",
		fmt.Sprintf("userId: %s", userID), false, nil)
}

// NewMerchantNotFoundError reports an unknown merchant.
func NewMerchantNotFoundError(merchantID string) *StandardError {
	return newError(ErrCodeMerchantNotFound, "Merchant not found",
		fmt.Sprintf("merchantId: %s", merchantID), false, nil)
}

// NewConcurrencyConflictError reports exhausted optimistic retries.
func NewConcurrencyConflictError(merchantID string, attempts int, cause error) *StandardError {
	return newError(ErrCodeConcurrencyConflict, "Concurrent trust score update",
		fmt.Sprintf("merchantId: %s, attempts: %d", merchantID, attempts), true, cause)
}

// NewCatalogUnavailableError reports an unreachable or unloaded catalog.
func NewCatalogUnavailableError(cause error) *StandardError {
	details := "catalog index not loaded"
	if cause != nil {
		details = cause.Error()
	}
	return newError(ErrCodeCatalogUnavailable, "Catalog unavailable", details, true, cause)
}

// NewStoreTimeoutError reports a store read that exceeded its deadline.
func NewStoreTimeoutError(operation string, cause error) *StandardError {
	return newError(ErrCodeStoreTimeout, "Store operation timeout",
		fmt.Sprintf("operation: %s", operation), true, cause)
}

// NewStoreFailedError reports a store read or write failure.
func NewStoreFailedError(operation string, cause error) *StandardError {
	details := fmt.Sprintf("operation: %s", operation)
	if cause != nil {
		details = fmt.Sprintf("operation: %s, error: %s", operation, cause.Error())
	}
	return newError(ErrCodeStoreFailed, "Store operation failed", details, true, cause)
}

// NewNotificationFailedError reports a failed outbound notification.
func NewNotificationFailedError(channel string, cause error) *StandardError {
	return newError(ErrCodeNotificationFailed, "Notification delivery failed",
		fmt.Sprintf("channel: %s, error: %v", channel, cause), true, cause)
}

// NewInternalError wraps an unexpected error.
func NewInternalError(cause error) *StandardError {
	details := ""
	if cause != nil {
		details = cause.Error()
	}
	return newError(ErrCodeInternal, "Unexpected error", details, false, cause)
}

// ==========================
// 4. Inspection helpers
// ==========================

// AsStandard extracts a StandardError from err's chain.
func AsStandard(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code ErrorCode) bool {
	stdErr, ok := AsStandard(err)
	return ok && stdErr.Code == code
}

// IsRetryable reports whether err is a retryable StandardError.
func IsRetryable(err error) bool {
	stdErr, ok := AsStandard(err)
	return ok && stdErr.Retryable
}

// ==========================
// 5. Error Conversion to BPMN
// ==========================

// GetRetryCount returns the number of job retries granted to a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeConcurrencyConflict,
		ErrCodeCatalogUnavailable,
		ErrCodeStoreFailed,
		ErrCodeNotificationFailed:
		return 3
	case ErrCodeStoreTimeout:
		return 2
	default:
		return 0
	}
}

// ConvertToBPMNError maps a StandardError onto the BPMN error thrown to Zeebe.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	for k, v := range stdErr.Metadata {
		vars[k] = v
	}

	return &BPMNError{
		Code:           string(stdErr.Code),
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "PROFILE"), strings.Contains(codeStr, "MERCHANT"):
		return "NOT_FOUND"
	case strings.Contains(codeStr, "CONCURRENCY"):
		return "CONCURRENCY"
	case strings.Contains(codeStr, "CATALOG"), strings.Contains(codeStr, "STORE"):
		return "STORAGE"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "INVALID"), strings.Contains(codeStr, "VALIDATION"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
