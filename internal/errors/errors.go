package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a Pillbox error code.
type ErrorCode string

const (
	ErrInvalidRequest        ErrorCode = "INVALID_REQUEST"        // 400
	ErrNotFound              ErrorCode = "NOT_FOUND"              // 404
	ErrFileNotFound          ErrorCode = "FILE_NOT_FOUND"         // 404
	ErrInvalidReorder        ErrorCode = "INVALID_REORDER"        // 409
	ErrItemTooLarge          ErrorCode = "ITEM_TOO_LARGE"         // 413
	ErrInvalidKind           ErrorCode = "INVALID_KIND"           // 422
	ErrUnresolvedPlaceholder ErrorCode = "UNRESOLVED_PLACEHOLDER" // 422
	ErrExtraction            ErrorCode = "EXTRACTION_ERROR"       // 422
	ErrDuplicateResponse     ErrorCode = "DUPLICATE_RESPONSE"     // 200, informational
	ErrEmptyResponse         ErrorCode = "EMPTY_RESPONSE"         // 200, informational
	ErrCancelled             ErrorCode = "CANCELLED"              // 499
	ErrInternal              ErrorCode = "INTERNAL"               // 500
	ErrSend                  ErrorCode = "SEND_ERROR"             // 502
	ErrTimedOut              ErrorCode = "TIMED_OUT"              // 504
)

// PillboxError represents a structured error with code, status, and details.
type PillboxError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any

	cause error
}

// Error implements the error interface.
func (e *PillboxError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the collaborator error this error was built from, if any.
func (e *PillboxError) Unwrap() error {
	return e.cause
}

// Informational reports whether the error is an expected outcome of normal
// operation (nothing new was captured) rather than a failure.
func (e *PillboxError) Informational() bool {
	return e.Code == ErrDuplicateResponse || e.Code == ErrEmptyResponse
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *PillboxError {
	return &PillboxError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for when an item cannot be found.
func NewNotFound(id string) *PillboxError {
	return &PillboxError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("item not found: %s", id),
		Details: map[string]any{"id": id},
	}
}

// NewSessionNotFound creates a 404 error for an unknown session handle.
func NewSessionNotFound(sessionID string) *PillboxError {
	return &PillboxError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("session not found: %s", sessionID),
		Details: map[string]any{"session_id": sessionID},
	}
}

// NewFileNotFound creates a 404 error for when a file cannot be found.
func NewFileNotFound(path string) *PillboxError {
	return &PillboxError{
		Code:    ErrFileNotFound,
		Status:  404,
		Message: fmt.Sprintf("file not found: %s", path),
		Details: map[string]any{"path": path},
	}
}

// NewInvalidReorder creates a 409 error when a reorder does not name exactly
// the items currently in the kind's sequence.
func NewInvalidReorder(kind string, missing, unexpected []string) *PillboxError {
	return &PillboxError{
		Code:    ErrInvalidReorder,
		Status:  409,
		Message: fmt.Sprintf("reorder ids do not match the current %s items", kind),
		Details: map[string]any{"kind": kind, "missing": missing, "unexpected": unexpected},
	}
}

// NewItemTooLarge creates a 413 error when item text exceeds the size limit.
func NewItemTooLarge(max, actual int) *PillboxError {
	return &PillboxError{
		Code:    ErrItemTooLarge,
		Status:  413,
		Message: fmt.Sprintf("item exceeds maximum size: %d chars (max %d)", actual, max),
		Details: map[string]any{"max_chars": max, "actual_chars": actual},
	}
}

// NewInvalidKind creates a 422 error when an item of the wrong kind is used.
// With no id (nothing stored yet) the message names the kinds only.
func NewInvalidKind(id, got, want string) *PillboxError {
	if id == "" {
		return &PillboxError{
			Code:    ErrInvalidKind,
			Status:  422,
			Message: fmt.Sprintf("kind %s not allowed here; expected %s", got, want),
			Details: map[string]any{"kind": got, "expected": want},
		}
	}
	return &PillboxError{
		Code:    ErrInvalidKind,
		Status:  422,
		Message: fmt.Sprintf("item %s is a %s; expected %s", id, got, want),
		Details: map[string]any{"id": id, "kind": got, "expected": want},
	}
}

// NewUnresolvedPlaceholder creates a 422 error naming the first placeholder
// without a value. All missing names are listed in Details.
func NewUnresolvedPlaceholder(name string, missing []string) *PillboxError {
	return &PillboxError{
		Code:    ErrUnresolvedPlaceholder,
		Status:  422,
		Message: fmt.Sprintf("no value for placeholder [/%s]", name),
		Details: map[string]any{"name": name, "missing": missing},
	}
}

// NewExtraction creates a 422 error when a file's text cannot be extracted.
func NewExtraction(path string, err error) *PillboxError {
	msg := "extraction failed"
	if err != nil {
		msg = err.Error()
	}
	return &PillboxError{
		Code:    ErrExtraction,
		Status:  422,
		Message: fmt.Sprintf("%s: %s", path, msg),
		Details: map[string]any{"path": path},
		cause:   err,
	}
}

// NewDuplicateResponse reports that the captured text matches an item
// already captured within the dedup window.
func NewDuplicateResponse(platform, existingID string) *PillboxError {
	return &PillboxError{
		Code:    ErrDuplicateResponse,
		Status:  200,
		Message: fmt.Sprintf("nothing new captured from %s", platform),
		Details: map[string]any{"platform": platform, "existing_id": existingID},
	}
}

// NewEmptyResponse reports that the captured text was empty after normalization.
func NewEmptyResponse(platform string) *PillboxError {
	return &PillboxError{
		Code:    ErrEmptyResponse,
		Status:  200,
		Message: fmt.Sprintf("no response text captured from %s", platform),
		Details: map[string]any{"platform": platform},
	}
}

// NewCancelled creates a 499 error for cancelled operations.
func NewCancelled(op string) *PillboxError {
	return &PillboxError{
		Code:    ErrCancelled,
		Status:  499,
		Message: fmt.Sprintf("%s cancelled", op),
		Details: map[string]any{"operation": op},
	}
}

// NewSendError creates a 502 error for a failed session collaborator call.
func NewSendError(sessionID, op string, err error) *PillboxError {
	msg := "session call failed"
	if err != nil {
		msg = err.Error()
	}
	return &PillboxError{
		Code:    ErrSend,
		Status:  502,
		Message: fmt.Sprintf("%s on session %s: %s", op, sessionID, msg),
		Details: map[string]any{"session_id": sessionID, "operation": op},
		cause:   err,
	}
}

// NewTimedOut creates a 504 error when a capture waited longer than allowed.
func NewTimedOut(sessionID string, seconds float64) *PillboxError {
	return &PillboxError{
		Code:    ErrTimedOut,
		Status:  504,
		Message: fmt.Sprintf("no response from session %s within %.0fs", sessionID, seconds),
		Details: map[string]any{"session_id": sessionID, "timeout_seconds": seconds},
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
// The message stays generic; the original error is kept in Details for logging.
func NewInternal(err error) *PillboxError {
	details := map[string]any{}
	if err != nil {
		details["internal_error"] = err.Error()
	}
	return &PillboxError{
		Code:    ErrInternal,
		Status:  500,
		Message: "an internal error occurred",
		Details: details,
		cause:   err,
	}
}

// As extracts a *PillboxError from err, following wrapped errors.
func As(err error) (*PillboxError, bool) {
	var pErr *PillboxError
	if stderrors.As(err, &pErr) {
		return pErr, true
	}
	return nil, false
}

// Is checks if an error is (or wraps) a PillboxError with the given code.
func Is(err error, code ErrorCode) bool {
	if pErr, ok := As(err); ok {
		return pErr.Code == code
	}
	return false
}

// IsInformational reports whether err is a duplicate or empty capture outcome.
func IsInformational(err error) bool {
	if pErr, ok := As(err); ok {
		return pErr.Informational()
	}
	return false
}
