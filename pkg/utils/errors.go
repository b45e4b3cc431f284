package utils

import (
	"errors"
	"fmt"
)

// ResponseCode business error code
type ResponseCode int

const (
	CodeSuccess       ResponseCode = 0
	CodeInvalidParam  ResponseCode = 10001
	CodeUnauthorized  ResponseCode = 10002
	CodeForbidden     ResponseCode = 10003
	CodeInternalError ResponseCode = 10004

	// User related codes
	CodeUserNotFound ResponseCode = 20001
	CodeUserExists   ResponseCode = 20002
	CodeUserBanned   ResponseCode = 20003

	// Catalog related codes
	CodeProductNotFound    ResponseCode = 30001
	CodeProductUnavailable ResponseCode = 30002
	CodeCategoryNotFound   ResponseCode = 30003

	// Deal related codes
	CodeDealNotFound      ResponseCode = 40001
	CodeInvalidTransition ResponseCode = 40002
	CodeMessageNotFound   ResponseCode = 40003

	// Notification related codes
	CodeNotificationNotFound ResponseCode = 50001
	CodeDeliveryFailed       ResponseCode = 50002
)

// AppError application error structure
type AppError struct {
	Code    ResponseCode `json:"code"`
	Message string       `json:"message"`
	Err     error        `json:"-"`
}

// Error implement error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("code: %d, message: %s, error: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("code: %d, message: %s", e.Code, e.Message)
}

// Unwrap implement errors.Unwrap interface
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match predefined errors by code
func (e *AppError) Is(target error) bool {
	var appErr *AppError
	if errors.As(target, &appErr) {
		return e.Code == appErr.Code
	}
	return false
}

// NewError create new application error
func NewError(code ResponseCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// WrapError wrap error
func WrapError(err error, code ResponseCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Predefined errors
var (
	// Parameter errors
	ErrInvalidParam = NewError(CodeInvalidParam, "invalid parameter")
	ErrUnauthorized = NewError(CodeUnauthorized, "unauthorized")

	// User related errors
	ErrUserNotFound = NewError(CodeUserNotFound, "user not found")
	ErrUserExists   = NewError(CodeUserExists, "username already exists")
	ErrUserBanned   = NewError(CodeUserBanned, "account is banned")

	// Catalog related errors
	ErrProductNotFound    = NewError(CodeProductNotFound, "product not found")
	ErrProductUnavailable = NewError(CodeProductUnavailable, "product is not available")
	ErrCategoryNotFound   = NewError(CodeCategoryNotFound, "category not found")

	// Deal related errors
	ErrDealNotFound      = NewError(CodeDealNotFound, "deal not found")
	ErrAccessDenied      = NewError(CodeForbidden, "access denied")
	ErrInvalidTransition = NewError(CodeInvalidTransition, "invalid status transition")

	// Notification related errors
	ErrNotificationNotFound = NewError(CodeNotificationNotFound, "notification not found")
	// ErrDeliveryFailed is never returned to API callers; it only travels
	// between the dispatcher and its channels, and ends up in logs/metrics.
	ErrDeliveryFailed = NewError(CodeDeliveryFailed, "notification delivery failed")

	// System errors
	ErrInternalError = NewError(CodeInternalError, "internal server error")
)

// IsAppError check if it's an application error
func IsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// GetErrorCode get error code
func GetErrorCode(err error) ResponseCode {
	if appErr, ok := IsAppError(err); ok {
		return appErr.Code
	}
	return CodeInternalError
}

// GetErrorMessage get error message
func GetErrorMessage(err error) string {
	if appErr, ok := IsAppError(err); ok {
		return appErr.Message
	}
	return err.Error()
}
