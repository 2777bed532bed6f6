package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode - код ошибки для API
type ErrorCode string

const (
	ErrorCodePermissionDenied ErrorCode = "PERMISSION_DENIED"
	ErrorCodeInvalidArgument  ErrorCode = "INVALID_ARGUMENT"
	ErrorCodeNotFound         ErrorCode = "NOT_FOUND"
	ErrorCodeConflict         ErrorCode = "CONFLICT"
	ErrorCodeInternalError    ErrorCode = "INTERNAL_ERROR"
)

// Error - доменная ошибка с HTTP статусом и кодом
type Error struct {
	Status  int       // HTTP status code
	Code    ErrorCode // Код ошибки для API
	Message string    // Сообщение об ошибке
	Err     error     // Wrapped error для контекста
}

// Error реализует интерфейс error
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap позволяет использовать errors.Is и errors.As
func (e *Error) Unwrap() error {
	return e.Err
}

// Is сравнивает доменные ошибки по коду, чтобы обёрнутые варианты
// совпадали с предопределёнными
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

// NewError создаёт новую доменную ошибку
func NewError(status int, code ErrorCode, message string, err error) *Error {
	return &Error{
		Status:  status,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Предопределённые доменные ошибки
var (
	// ErrPermissionDenied - у пользователя нет нужной возможности
	ErrPermissionDenied = NewError(
		http.StatusForbidden,
		ErrorCodePermissionDenied,
		"permission denied",
		nil,
	)

	// ErrInvalidArgument - невалидные входные данные
	ErrInvalidArgument = NewError(
		http.StatusBadRequest,
		ErrorCodeInvalidArgument,
		"invalid argument",
		nil,
	)

	// ErrResourceNotFound - ресурс не найден
	ErrResourceNotFound = NewError(
		http.StatusNotFound,
		ErrorCodeNotFound,
		"resource not found",
		nil,
	)

	// ErrConflict - нарушение уникальности (changenum+repository или site+local_id)
	ErrConflict = NewError(
		http.StatusConflict,
		ErrorCodeConflict,
		"resource conflicts with an existing one",
		nil,
	)

	// ErrInternal - внутренняя ошибка сервера
	ErrInternal = NewError(
		http.StatusInternalServerError,
		ErrorCodeInternalError,
		"internal server error",
		nil,
	)

	// ErrChangesetNotFound - внешняя система не знает такой changeset
	ErrChangesetNotFound = NewError(
		http.StatusNotFound,
		ErrorCodeNotFound,
		"changeset not found",
		nil,
	)
)

// InvalidArgument создаёт ошибку INVALID_ARGUMENT с конкретным сообщением
func InvalidArgument(format string, args ...any) *Error {
	return NewError(http.StatusBadRequest, ErrorCodeInvalidArgument, fmt.Sprintf(format, args...), nil)
}

// IsDomainError проверяет, является ли ошибка доменной
func IsDomainError(err error) bool {
	var e *Error
	return errors.As(err, &e)
}
