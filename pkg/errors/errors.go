package errors

import (
	"fmt"
	"net/http"
)

// ErrorCode represents application-specific error codes
type ErrorCode string

const (
	// Validation errors
	ErrCodeValidation   ErrorCode = "VALIDATION_ERROR"
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	ErrCodeMissingField ErrorCode = "MISSING_FIELD"

	// Authentication errors
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeInvalidToken ErrorCode = "INVALID_TOKEN"
	ErrCodeInvalidCreds ErrorCode = "INVALID_CREDENTIALS"

	// Authorization errors
	ErrCodeForbidden ErrorCode = "FORBIDDEN"
	ErrCodeNotAParty ErrorCode = "NOT_A_CALL_PARTY"

	// Not found errors
	ErrCodeNotFound      ErrorCode = "NOT_FOUND"
	ErrCodeUserNotFound  ErrorCode = "USER_NOT_FOUND"
	ErrCodeCallNotFound  ErrorCode = "CALL_NOT_FOUND"
	ErrCodeChatNotFound  ErrorCode = "CHAT_NOT_FOUND"

	// Conflict errors
	ErrCodeConflict          ErrorCode = "CONFLICT"
	ErrCodeInvalidTransition ErrorCode = "INVALID_TRANSITION"
	ErrCodeUsernameExists    ErrorCode = "USERNAME_EXISTS"
	ErrCodeEmailExists       ErrorCode = "EMAIL_EXISTS"

	// Internal errors
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
	ErrCodeDatabase ErrorCode = "DATABASE_ERROR"
	ErrCodeStorage  ErrorCode = "STORAGE_ERROR"
)

// AppError represents a structured application error with code, message, and HTTP status
type AppError struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	StatusCode int       `json:"-"`
	Err        error     `json:"-"`
}

// Error implements the error interface, returning a formatted error message
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewWithStatus creates a new AppError with a specific HTTP status code
func NewWithStatus(code ErrorCode, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

// WrapWithStatus wraps an existing error with an AppError and specific status code
func WrapWithStatus(code ErrorCode, message string, statusCode int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Err:        err,
	}
}

// Validation errors
func ValidationError(message string) *AppError {
	return NewWithStatus(ErrCodeValidation, message, http.StatusBadRequest)
}

func MissingFieldError(field string) *AppError {
	return NewWithStatus(ErrCodeMissingField, fmt.Sprintf("%s is required", field), http.StatusBadRequest)
}

// Authentication errors
func UnauthorizedError(message string) *AppError {
	return NewWithStatus(ErrCodeUnauthorized, message, http.StatusUnauthorized)
}

func InvalidCredentialsError() *AppError {
	return NewWithStatus(ErrCodeInvalidCreds, "Invalid username or password", http.StatusUnauthorized)
}

// Authorization errors
func ForbiddenError(message string) *AppError {
	return NewWithStatus(ErrCodeForbidden, message, http.StatusForbidden)
}

// NotAPartyError marks an actor who is neither caller nor callee of a call
func NotAPartyError() *AppError {
	return NewWithStatus(ErrCodeNotAParty, "Not authorized for this call", http.StatusForbidden)
}

// Not found errors
func NotFoundError(resource string) *AppError {
	return NewWithStatus(ErrCodeNotFound, fmt.Sprintf("%s not found", resource), http.StatusNotFound)
}

func UserNotFoundError() *AppError {
	return NewWithStatus(ErrCodeUserNotFound, "User not found", http.StatusNotFound)
}

func CallNotFoundError() *AppError {
	return NewWithStatus(ErrCodeCallNotFound, "Call not found", http.StatusNotFound)
}

func ChatNotFoundError() *AppError {
	return NewWithStatus(ErrCodeChatNotFound, "Chat not found or access denied", http.StatusNotFound)
}

// Conflict errors
func ConflictError(message string) *AppError {
	return NewWithStatus(ErrCodeConflict, message, http.StatusConflict)
}

// InvalidTransitionError marks an illegal call state machine move
func InvalidTransitionError(from, to string) *AppError {
	return NewWithStatus(
		ErrCodeInvalidTransition,
		fmt.Sprintf("Cannot transition call from %s to %s", from, to),
		http.StatusConflict,
	)
}

func UsernameExistsError() *AppError {
	return NewWithStatus(ErrCodeUsernameExists, "Username already exists", http.StatusConflict)
}

func EmailExistsError() *AppError {
	return NewWithStatus(ErrCodeEmailExists, "Email already exists", http.StatusConflict)
}

// Internal errors
func InternalError(message string) *AppError {
	return NewWithStatus(ErrCodeInternal, message, http.StatusInternalServerError)
}

func DatabaseError(err error) *AppError {
	return WrapWithStatus(ErrCodeDatabase, "Database error", http.StatusInternalServerError, err)
}

func StorageError(err error) *AppError {
	return WrapWithStatus(ErrCodeStorage, "Storage error", http.StatusInternalServerError, err)
}

// GetAppError extracts AppError from an error, wrapping non-AppErrors as InternalError
func GetAppError(err error) *AppError {
	if appErr, ok := err.(*AppError); ok {
		return appErr
	}
	return InternalError(err.Error())
}
