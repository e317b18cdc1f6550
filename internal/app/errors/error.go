package errors

import (
	stderrors "errors"
	"net/http"
	"reflect"

	"github.com/sirupsen/logrus"
)

// ErrorKind classifies an AppError independently of its HTTP status.
type ErrorKind string

const (
	KindBadRequest            ErrorKind = "BAD_REQUEST"
	KindNotFound              ErrorKind = "NOT_FOUND"
	KindInvalidState          ErrorKind = "INVALID_STATE"
	KindValidationFailed      ErrorKind = "VALIDATION_FAILED"
	KindBusinessRuleViolation ErrorKind = "BUSINESS_RULE_VIOLATION"
	KindUnauthorized          ErrorKind = "UNAUTHORIZED"
	KindTooManyRequests       ErrorKind = "TOO_MANY_REQUESTS"
	KindInternal              ErrorKind = "INTERNAL"
)

type AppError struct {
	StatusCode int
	Kind       ErrorKind
	Message    string
	Errors     []string
}

func (e *AppError) Error() string {
	return e.Message
}

func NewAppError(statusCode int, kind ErrorKind, message string) *AppError {
	return &AppError{
		StatusCode: statusCode,
		Kind:       kind,
		Message:    message,
	}
}

func NewBadRequestError(message string) *AppError {
	return NewAppError(http.StatusBadRequest, KindBadRequest, message)
}

func NewUnauthorizedError(message ...string) *AppError {
	if len(message) > 0 {
		return NewAppError(http.StatusUnauthorized, KindUnauthorized, message[0])
	}
	return NewAppError(http.StatusUnauthorized, KindUnauthorized, "Unauthorized")
}

// NewForbiddenError is returned when an authenticated user touches a
// resource owned by somebody else.
func NewForbiddenError(message string) *AppError {
	return NewAppError(http.StatusForbidden, KindUnauthorized, message)
}

func NewNotFoundError(message string) *AppError {
	return NewAppError(http.StatusNotFound, KindNotFound, message)
}

func NewInvalidStateError(message string) *AppError {
	return NewAppError(http.StatusConflict, KindInvalidState, message)
}

// NewValidationError carries every violated constraint in Errors so that
// clients can render them at once.
func NewValidationError(message string, violations ...string) *AppError {
	err := NewAppError(http.StatusUnprocessableEntity, KindValidationFailed, message)
	err.Errors = violations
	return err
}

func NewBusinessRuleError(message string) *AppError {
	return NewAppError(http.StatusUnprocessableEntity, KindBusinessRuleViolation, message)
}

func NewTooManyRequestsError(message string) *AppError {
	return NewAppError(http.StatusTooManyRequests, KindTooManyRequests, message)
}

func NewInternalServerError(originalError error, message string) *AppError {
	if originalError != nil {
		logrus.Errorf("[%s] %s", reflect.TypeOf(originalError).String(), originalError)
	} else {
		logrus.Error(message)
	}
	return NewAppError(http.StatusInternalServerError, KindInternal, message)
}

// IsKind reports whether err is an AppError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr) && appErr.Kind == kind
}
