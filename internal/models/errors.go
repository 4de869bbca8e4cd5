package models

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// Error codes returned to clients in the "code" field.
const (
	CodeNoToken         = "NO_TOKEN"
	CodeInvalidToken    = "INVALID_TOKEN"
	CodeTokenExpired    = "TOKEN_EXPIRED"
	CodeForbidden       = "FORBIDDEN"
	CodeUnauthorized    = "UNAUTHORIZED"
	CodeValidation      = "VALIDATION_ERROR"
	CodeNotFound        = "NOT_FOUND"
	CodeConflict        = "CONFLICT"
	CodeAlreadyLiked    = "ALREADY_LIKED"
	CodeNotLiked        = "NOT_LIKED"
	CodeTooManyRequests = "TOO_MANY_REQUESTS"
	CodeInternal        = "INTERNAL_ERROR"
)

const internalErrorMessage = "Server error"

// FieldMessage is a single entry of the errors array in an error response.
type FieldMessage struct {
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// ErrorResponse is the body of every non-authentication error response.
type ErrorResponse struct {
	Errors []FieldMessage `json:"errors"`
	Code   string         `json:"code,omitempty"`
}

// AuthErrorResponse is the body returned by the authentication gate.
type AuthErrorResponse struct {
	Msg  string `json:"msg"`
	Code string `json:"code"`
}

// AppError represents a custom application error
type AppError struct {
	Code    string
	Message string
	Fields  []FieldMessage
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// IsAuthError reports whether the error belongs to the authentication gate.
func (e *AppError) IsAuthError() bool {
	switch e.Code {
	case CodeNoToken, CodeInvalidToken, CodeTokenExpired:
		return true
	}
	return false
}

// Predefined error constructors
func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s with ID %v not found", resource, id),
	}
}

func NewNotFoundMessage(message string) *AppError {
	return &AppError{Code: CodeNotFound, Message: message}
}

func NewValidationError(message string) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Message: message,
	}
}

// NewFieldValidationError builds a validation error carrying one message per failed field.
func NewFieldValidationError(fields []FieldMessage) *AppError {
	msg := "Validation failed"
	if len(fields) > 0 {
		msg = fields[0].Message
	}
	return &AppError{
		Code:    CodeValidation,
		Message: msg,
		Fields:  fields,
	}
}

func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Code:    CodeUnauthorized,
		Message: message,
	}
}

func NewForbiddenError(message string) *AppError {
	return &AppError{
		Code:    CodeForbidden,
		Message: message,
	}
}

func NewConflictError(message string) *AppError {
	return &AppError{
		Code:    CodeConflict,
		Message: message,
	}
}

func NewAlreadyLikedError() *AppError {
	return &AppError{Code: CodeAlreadyLiked, Message: "Post already liked"}
}

func NewNotLikedError() *AppError {
	return &AppError{Code: CodeNotLiked, Message: "Post has not yet been liked"}
}

func NewTooManyRequestsError() *AppError {
	return &AppError{Code: CodeTooManyRequests, Message: "Too many requests, please try again later"}
}

func NewNoTokenError() *AppError {
	return &AppError{Code: CodeNoToken, Message: "No token, authorization denied"}
}

func NewInvalidTokenError() *AppError {
	return &AppError{Code: CodeInvalidToken, Message: "Token is not valid"}
}

func NewExpiredTokenError() *AppError {
	return &AppError{Code: CodeTokenExpired, Message: "Token has expired"}
}

func NewInternalError(err error) *AppError {
	return &AppError{
		Code:    CodeInternal,
		Message: "Internal server error",
		Err:     err,
	}
}

// HasCode reports whether err wraps an AppError with the given code.
func HasCode(err error, code string) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// RespondWithError writes a standardized error response. Internal causes are
// never included in the body.
func RespondWithError(c *fiber.Ctx, status int, err error) error {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		appErr = NewInternalError(err)
	}

	if appErr.IsAuthError() {
		return c.Status(status).JSON(AuthErrorResponse{
			Msg:  appErr.Message,
			Code: appErr.Code,
		})
	}

	if appErr.Code == CodeInternal || status >= fiber.StatusInternalServerError {
		return c.Status(status).JSON(ErrorResponse{
			Errors: []FieldMessage{{Message: internalErrorMessage}},
			Code:   CodeInternal,
		})
	}

	fields := appErr.Fields
	if len(fields) == 0 {
		fields = []FieldMessage{{Message: appErr.Message}}
	}
	return c.Status(status).JSON(ErrorResponse{
		Errors: fields,
		Code:   appErr.Code,
	})
}
