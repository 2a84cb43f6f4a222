package errors

import (
	stderrors "errors"
	"fmt"

	"adinsight/domain/core"
)

// AppError represents a structured application error
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// New creates a new AppError
func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an error with additional context. Errors that are not yet
// AppErrors get the code of the domain error they carry.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	if appErr, ok := err.(*AppError); ok {
		return &AppError{
			Code:    appErr.Code,
			Message: message,
			Cause:   appErr,
		}
	}
	return &AppError{
		Code:    codeFor(err),
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an error with formatted additional context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// WithCode adds an error code to an existing error
func WithCode(code string, err error) error {
	if err == nil {
		return nil
	}
	if appErr, ok := err.(*AppError); ok {
		return &AppError{
			Code:    code,
			Message: appErr.Message,
			Cause:   appErr.Cause,
		}
	}
	return &AppError{
		Code:    code,
		Message: err.Error(),
		Cause:   err,
	}
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// GetCode returns the code of the outermost AppError, otherwise "UNKNOWN"
func GetCode(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return "UNKNOWN"
}

// Predefined error codes
const (
	CodeConfigInvalid           = "CONFIG_INVALID"
	CodeInvalidInput            = "INVALID_INPUT"
	CodeInputContractViolation  = "INPUT_CONTRACT_VIOLATION"
	CodeOutputContractViolation = "OUTPUT_CONTRACT_VIOLATION"
	CodeNotFound                = "NOT_FOUND"
	CodeInternalError           = "INTERNAL_ERROR"
	CodeExternalService         = "EXTERNAL_SERVICE_ERROR"
)

func codeFor(err error) string {
	switch {
	case stderrors.Is(err, core.ErrInputContract):
		return CodeInputContractViolation
	case stderrors.Is(err, core.ErrOutputContract):
		return CodeOutputContractViolation
	case stderrors.Is(err, core.ErrInvalidVocabulary):
		return CodeConfigInvalid
	case stderrors.Is(err, core.ErrGeneration):
		return CodeExternalService
	}
	return CodeInternalError
}

// Common error constructors
func ConfigInvalid(message string) *AppError {
	return New(CodeConfigInvalid, message)
}

func NotFound(resource string) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s not found", resource))
}

func InternalError(message string) *AppError {
	return New(CodeInternalError, message)
}

func ExternalServiceError(service string, cause error) *AppError {
	return &AppError{
		Code:    CodeExternalService,
		Message: fmt.Sprintf("%s service error", service),
		Cause:   cause,
	}
}

func InvalidInput(message string) *AppError {
	return New(CodeInvalidInput, message)
}

func InputContractViolation(cause error) *AppError {
	return &AppError{
		Code:    CodeInputContractViolation,
		Message: "summary violates the input contract",
		Cause:   cause,
	}
}

func OutputContractViolation(cause error) *AppError {
	return &AppError{
		Code:    CodeOutputContractViolation,
		Message: "hypothesis batch rejected",
		Cause:   cause,
	}
}
