package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Domain errors
var (
	ErrNotFound        = errors.New("resource not found")
	ErrAlreadyExists   = errors.New("resource already exists")
	ErrInvalidInput    = errors.New("invalid input")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")
	ErrInternal        = errors.New("internal error")
	ErrValidation      = errors.New("validation failed")
	ErrConfiguration   = errors.New("payment setup incomplete")
	ErrAuth            = errors.New("provider authentication failed")
	ErrProvider        = errors.New("provider request failed")
	ErrPersistence     = errors.New("persistence failed")
	ErrNotYetAvailable = errors.New("not yet available")
)

// Machine readable codes returned to API callers.
const (
	CodeValidation      = "validation_error"
	CodeNotFound        = "not_found"
	CodeNoConfig        = "no_config"
	CodeDecryptFailed   = "decrypt_failed"
	CodeNoLink          = "no_link"
	CodeInvalidInvoice  = "invalid_invoice"
	CodeAuth            = "payu_auth"
	CodeProvider        = "payu_api"
	CodeProviderResult  = "payu_result"
	CodePersistFailed   = "payu_persist_failed"
	CodeNotYetAvailable = "payu_no_transactions"
	CodeUnauthorized    = "unauthorized"
	CodeForbidden       = "forbidden"
	CodeInternal        = "internal_error"
	CodeAlreadyExists   = "already_exists"
)

// AppError represents application error with HTTP status
type AppError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return http.StatusText(e.Status)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new app error
func NewAppError(status int, code, message string, err error) *AppError {
	return &AppError{
		Status:  status,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// WithField tags the error with the offending input field.
func (e *AppError) WithField(field string) *AppError {
	e.Field = field
	return e
}

// Common error constructors
func NotFound(message string) *AppError {
	return NewAppError(http.StatusNotFound, CodeNotFound, message, ErrNotFound)
}

func BadRequest(message string) *AppError {
	return NewAppError(http.StatusBadRequest, CodeValidation, message, ErrInvalidInput)
}

func Unauthorized(message string) *AppError {
	return NewAppError(http.StatusUnauthorized, CodeUnauthorized, message, ErrUnauthorized)
}

func Forbidden(message string) *AppError {
	return NewAppError(http.StatusForbidden, CodeForbidden, message, ErrForbidden)
}

func Conflict(message string) *AppError {
	return NewAppError(http.StatusConflict, CodeAlreadyExists, message, ErrAlreadyExists)
}

func InternalError(err error) *AppError {
	return NewAppError(http.StatusInternalServerError, CodeInternal, "internal server error", fmt.Errorf("%w: %v", ErrInternal, err))
}

// Validation reports a rejected input; nothing was written.
func Validation(field, message string) *AppError {
	return NewAppError(http.StatusUnprocessableEntity, CodeValidation, message, ErrValidation).WithField(field)
}

// Configuration reports missing or unusable merchant credentials.
func Configuration(code, message string) *AppError {
	return NewAppError(http.StatusPreconditionFailed, code, message, ErrConfiguration)
}

// Auth reports a provider 401 that survived the token refresh retry.
func Auth(message string) *AppError {
	return NewAppError(http.StatusBadGateway, CodeAuth, message, ErrAuth)
}

// Provider reports a provider transport failure, non-success status or bad envelope.
func Provider(code, message string, err error) *AppError {
	if err == nil {
		err = ErrProvider
	} else {
		err = fmt.Errorf("%w: %v", ErrProvider, err)
	}
	return NewAppError(http.StatusBadGateway, code, message, err)
}

func Persistence(message string, err error) *AppError {
	if err == nil {
		err = ErrPersistence
	} else {
		err = fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return NewAppError(http.StatusInternalServerError, CodePersistFailed, message, err)
}

// NotYetAvailable reports that the provider has no transactions for a link yet.
func NotYetAvailable(message string) *AppError {
	return NewAppError(http.StatusAccepted, CodeNotYetAvailable, message, ErrNotYetAvailable)
}

// As extracts an *AppError from err, if any.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}
