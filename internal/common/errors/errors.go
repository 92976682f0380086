// Package errors provides standardized error handling for hub event processing.
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
	ErrCodeUnknownEvent         ErrorCode = "UNKNOWN_EVENT"
	ErrCodeInvalidPayload       ErrorCode = "INVALID_PAYLOAD"
	ErrCodeHandlerNotRegistered ErrorCode = "HANDLER_NOT_REGISTERED"

	ErrCodeStoreReadFailed  ErrorCode = "STORE_READ_FAILED"
	ErrCodeStoreWriteFailed ErrorCode = "STORE_WRITE_FAILED"
	ErrCodeStoreConflict    ErrorCode = "STORE_CONFLICT"

	ErrCodeTabSendFailed     ErrorCode = "TAB_SEND_FAILED"
	ErrCodeMenuSyncFailed    ErrorCode = "MENU_SYNC_FAILED"
	ErrCodeBridgeUnavailable ErrorCode = "BRIDGE_UNAVAILABLE"
	ErrCodeTabsQueryTimeout  ErrorCode = "TABS_QUERY_TIMEOUT"
	ErrCodePortNotConnected  ErrorCode = "PORT_NOT_CONNECTED"

	ErrCodeArchiveFailed ErrorCode = "ARCHIVE_FAILED"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
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
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// WithMetadata attaches a key/value pair and returns the same error.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

func newError(code ErrorCode, message string, cause error) *StandardError {
	stdErr := &StandardError{
		Code:      code,
		Message:   message,
		Retryable: IsRetryableErrorCode(code),
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
	if cause != nil {
		stdErr.Details = cause.Error()
	}
	return stdErr
}

// ==========================
// 2. Error Constructors
// ==========================

// NewUnknownEventError reports an envelope whose tag is outside the closed set.
func NewUnknownEventError(event string) *StandardError {
	return newError(ErrCodeUnknownEvent, "Unknown event", nil).
		WithMetadata("event", event)
}

// NewInvalidPayloadError reports a payload that does not match its event shape.
func NewInvalidPayloadError(event string, err error) *StandardError {
	return newError(ErrCodeInvalidPayload, "Invalid payload", err).
		WithMetadata("event", event)
}

// NewHandlerNotRegisteredError reports a known event with no dispatch entry.
func NewHandlerNotRegisteredError(event string) *StandardError {
	return newError(ErrCodeHandlerNotRegistered, "No handler registered", nil).
		WithMetadata("event", event)
}

func NewStoreReadFailedError(key string, err error) *StandardError {
	return newError(ErrCodeStoreReadFailed, "Failed to read from state store", err).
		WithMetadata("key", key)
}

func NewStoreWriteFailedError(key string, err error) *StandardError {
	return newError(ErrCodeStoreWriteFailed, "Failed to write to state store", err).
		WithMetadata("key", key)
}

// NewStoreConflictError is returned when an optimistic transaction keeps
// losing to concurrent writers.
func NewStoreConflictError(key string, attempts int) *StandardError {
	return newError(ErrCodeStoreConflict, "State store update conflicted", nil).
		WithMetadata("key", key).
		WithMetadata("attempts", attempts)
}

func NewTabSendFailedError(tabID *int, err error) *StandardError {
	stdErr := newError(ErrCodeTabSendFailed, "Failed to send message to tab", err)
	if tabID != nil {
		stdErr.WithMetadata("tabId", *tabID)
	}
	return stdErr
}

func NewMenuSyncFailedError(err error) *StandardError {
	return newError(ErrCodeMenuSyncFailed, "Failed to rebuild context menu", err)
}

func NewBridgeUnavailableError() *StandardError {
	return newError(ErrCodeBridgeUnavailable, "No extension connected to the bridge", nil)
}

func NewTabsQueryTimeoutError(requestID string) *StandardError {
	return newError(ErrCodeTabsQueryTimeout, "Timed out waiting for tab enumeration", nil).
		WithMetadata("requestId", requestID)
}

func NewPortNotConnectedError(portID string) *StandardError {
	return newError(ErrCodePortNotConnected, "Port is not connected", nil).
		WithMetadata("portId", portID)
}

func NewArchiveFailedError(sink string, err error) *StandardError {
	return newError(ErrCodeArchiveFailed, "Failed to archive application", err).
		WithMetadata("sink", sink)
}

func NewInternalError(err error) *StandardError {
	return newError(ErrCodeInternal, "Unexpected error", err)
}

// ==========================
// 3. Utility Functions
// ==========================

// AsStandardError unwraps err to a StandardError, wrapping unknown errors as
// INTERNAL_ERROR.
func AsStandardError(err error) *StandardError {
	if err == nil {
		return nil
	}
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	return NewInternalError(err)
}

// HasCode reports whether any StandardError in err's chain carries code.
func HasCode(err error, code ErrorCode) bool {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr.Code == code
	}
	return false
}

// IsRetryableErrorCode checks if an error code describes a transient failure.
// The hub itself never retries; the flag is informational for callers.
func IsRetryableErrorCode(code ErrorCode) bool {
	switch code {
	case ErrCodeStoreReadFailed,
		ErrCodeStoreWriteFailed,
		ErrCodeStoreConflict,
		ErrCodeBridgeUnavailable,
		ErrCodeTabsQueryTimeout,
		ErrCodeArchiveFailed:
		return true
	default:
		return false
	}
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.HasPrefix(codeStr, "STORE"):
		return "STORE"
	case strings.Contains(codeStr, "TAB") || strings.Contains(codeStr, "BRIDGE") || strings.Contains(codeStr, "PORT"):
		return "TRANSPORT"
	case strings.Contains(codeStr, "MENU"):
		return "MENU"
	case strings.Contains(codeStr, "ARCHIVE"):
		return "ARCHIVE"
	case strings.Contains(codeStr, "EVENT") || strings.Contains(codeStr, "PAYLOAD") || strings.Contains(codeStr, "HANDLER"):
		return "ROUTING"
	default:
		return "OTHER"
	}
}
