package errors

import (
	"fmt"
	"net/http"
	"time"
)

// AppError is the application-wide error type
type AppError struct {
	Raw       error             `json:"-"`
	HTTPCode  int               `json:"-"`
	Code      ErrorCode         `json:"code"`
	Message   string            `json:"message"`
	Details   map[string]string `json:"details,omitempty"`
	Timestamp time.Time         `json:"timestamp,omitempty"`
}

// Error implements error interface
func (e AppError) Error() string {
	if e.Raw != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code.String(), e.Message, e.Raw)
	}
	return fmt.Sprintf("[%s] %s", e.Code.String(), e.Message)
}

// Unwrap exposes the underlying error to errors.Is / errors.As
func (e AppError) Unwrap() error {
	return e.Raw
}

// WithDetail adds a detail to the error
func (e AppError) WithDetail(key, value string) AppError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// General Errors
func ErrInternal(err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusInternalServerError,
		Code:     ErrorCode_INTERNAL,
		Message:  "Internal server error",
	}
}

func ErrInvalidArgument(message string) AppError {
	return AppError{
		HTTPCode: http.StatusBadRequest,
		Code:     ErrorCode_INVALID_ARGUMENT,
		Message:  message,
	}
}

func ErrNotFound(resource string) AppError {
	return AppError{
		HTTPCode: http.StatusNotFound,
		Code:     ErrorCode_NOT_FOUND,
		Message:  fmt.Sprintf("%s not found", resource),
	}
}

func ErrPermissionDenied(message string) AppError {
	return AppError{
		HTTPCode: http.StatusForbidden,
		Code:     ErrorCode_PERMISSION_DENIED,
		Message:  message,
	}
}

func ErrInvalidPayload() AppError {
	return AppError{
		HTTPCode: http.StatusBadRequest,
		Code:     ErrorCode_INVALID_PAYLOAD,
		Message:  "Invalid payload",
	}
}

// Session handshake rejections. Message is the close reason sent to the client.

func ErrSessionMissingParams() AppError {
	return AppError{
		HTTPCode: http.StatusBadRequest,
		Code:     ErrorCode_SESSION_MISSING_PARAMS,
		Message:  "Missing call_id or token",
	}
}

func ErrSessionInvalidToken(err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusUnauthorized,
		Code:     ErrorCode_SESSION_INVALID_TOKEN,
		Message:  "Invalid token",
	}
}

func ErrSessionCallMismatch(callID, tokenCallID string) AppError {
	return AppError{
		HTTPCode: http.StatusForbidden,
		Code:     ErrorCode_SESSION_CALL_MISMATCH,
		Message:  "Call mismatch",
	}.WithDetail("call_id", callID).
		WithDetail("token_call_id", tokenCallID)
}

func ErrSessionCallNotFound(callID string) AppError {
	return AppError{
		HTTPCode: http.StatusNotFound,
		Code:     ErrorCode_SESSION_CALL_NOT_FOUND,
		Message:  "Call not found",
	}.WithDetail("call_id", callID)
}

func ErrSessionCompanyMismatch(callID string) AppError {
	return AppError{
		HTTPCode: http.StatusForbidden,
		Code:     ErrorCode_SESSION_COMPANY_MISMATCH,
		Message:  "Company mismatch",
	}.WithDetail("call_id", callID)
}

func ErrSessionCallEnded(callID string) AppError {
	return AppError{
		HTTPCode: http.StatusGone,
		Code:     ErrorCode_SESSION_CALL_ENDED,
		Message:  "Call ended",
	}.WithDetail("call_id", callID)
}

// Call Errors
func ErrCallNotFound(callID string) AppError {
	return AppError{
		HTTPCode: http.StatusNotFound,
		Code:     ErrorCode_CALL_NOT_FOUND,
		Message:  "Call not found",
	}.WithDetail("call_id", callID)
}

func ErrCallCreationFailed(err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusInternalServerError,
		Code:     ErrorCode_CALL_CREATION_FAILED,
		Message:  "Failed to create call",
	}
}

func ErrReportNotFound(callID string) AppError {
	return AppError{
		HTTPCode: http.StatusNotFound,
		Code:     ErrorCode_REPORT_NOT_FOUND,
		Message:  "Report not found for this call",
	}.WithDetail("call_id", callID)
}
