package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// AppError é a interface central para todos os erros customizados do serviço.
// Ela permite que o Handler acesse a Categoria, o status sugerido e a causa original.
type AppError interface {
	Error() string
	Category() string
	HTTPStatus() int
	Unwrap() error
}

// --- Erros de Domínio ---

// ValidationReason detalha o motivo de uma falha de validação.
type ValidationReason string

const (
	ReasonMissingField      ValidationReason = "MISSING_FIELD"
	ReasonInvalidField      ValidationReason = "INVALID_FIELD"
	ReasonTypeMismatch      ValidationReason = "TYPE_MISMATCH"
	ReasonInvalidDateFormat ValidationReason = "INVALID_DATE_FORMAT"
	ReasonInvalidValue      ValidationReason = "INVALID_VALUE"
	ReasonInvalidPayload    ValidationReason = "INVALID_PAYLOAD"
)

// ValidationError representa falhas de validação de dados de entrada (400).
type ValidationError struct {
	Msg    string
	Field  string
	Reason ValidationReason
}

func (e *ValidationError) Error() string    { return e.Msg }
func (e *ValidationError) Category() string { return "VALIDATION_ERROR" }
func (e *ValidationError) HTTPStatus() int  { return http.StatusBadRequest }
func (e *ValidationError) Unwrap() error    { return nil }

// NewValidationError cria um erro de validação genérico (payload inválido).
func NewValidationError(msg string) AppError {
	return &ValidationError{Msg: msg, Reason: ReasonInvalidPayload}
}

// NewFieldError cria um erro de validação associado a um campo específico.
func NewFieldError(field string, reason ValidationReason, msg string) AppError {
	return &ValidationError{Msg: msg, Field: field, Reason: reason}
}

// NotFoundError representa a ausência de um recurso solicitado (404).
type NotFoundError struct {
	Msg string
}

func (e *NotFoundError) Error() string    { return e.Msg }
func (e *NotFoundError) Category() string { return "NOT_FOUND" }
func (e *NotFoundError) HTTPStatus() int  { return http.StatusNotFound }
func (e *NotFoundError) Unwrap() error    { return nil }

func NewNotFoundError(msg string) AppError {
	return &NotFoundError{Msg: msg}
}

// ForbiddenError representa uma violação da regra de propriedade (403).
type ForbiddenError struct {
	Msg string
}

func (e *ForbiddenError) Error() string    { return e.Msg }
func (e *ForbiddenError) Category() string { return "FORBIDDEN" }
func (e *ForbiddenError) HTTPStatus() int  { return http.StatusForbidden }
func (e *ForbiddenError) Unwrap() error    { return nil }

func NewForbiddenError(msg string) AppError {
	return &ForbiddenError{Msg: msg}
}

// UnauthorizedError representa token ausente, inválido ou não verificável (401).
type UnauthorizedError struct {
	Msg    string
	Detail string
}

func (e *UnauthorizedError) Error() string    { return e.Msg }
func (e *UnauthorizedError) Category() string { return "UNAUTHORIZED" }
func (e *UnauthorizedError) HTTPStatus() int  { return http.StatusUnauthorized }
func (e *UnauthorizedError) Unwrap() error    { return nil }

func NewUnauthorizedError(msg, detail string) AppError {
	return &UnauthorizedError{Msg: msg, Detail: detail}
}

// ConflictError representa um conflito de estado (409).
type ConflictError struct {
	Msg string
}

func (e *ConflictError) Error() string    { return e.Msg }
func (e *ConflictError) Category() string { return "CONFLICT" }
func (e *ConflictError) HTTPStatus() int  { return http.StatusConflict }
func (e *ConflictError) Unwrap() error    { return nil }

func NewConflictError(msg string) AppError {
	return &ConflictError{Msg: msg}
}

// --- Erros de Infraestrutura ---

// InternalError representa falhas inesperadas no servidor, serviço ou repositório (500).
type InternalError struct {
	Msg string
	Err error // erro original (ex: erro do driver SQL)
}

func (e *InternalError) Error() string {
	if e.Err == nil {
		return e.Msg
	}
	return fmt.Sprintf("%s: %v", e.Msg, e.Err)
}
func (e *InternalError) Category() string { return "INTERNAL_ERROR" }
func (e *InternalError) HTTPStatus() int  { return http.StatusInternalServerError }
func (e *InternalError) Unwrap() error    { return e.Err }

// NewInternalError cria um erro de servidor.
func NewInternalError(msg string, err error) AppError {
	return &InternalError{Msg: msg, Err: err}
}

// NewDBError é um atalho para InternalError originados no banco de dados.
func NewDBError(msg string, err error) AppError {
	return NewInternalError(msg+" (DB)", err)
}

// MapToHTTPStatus traduz um erro para status HTTP, categoria e mensagem pública.
// Erros internos nunca expõem a causa original ao cliente.
func MapToHTTPStatus(err error) (int, string, string) {
	var appErr AppError
	if stderrors.As(err, &appErr) {
		if ie, isInternal := appErr.(*InternalError); isInternal {
			return ie.HTTPStatus(), ie.Category(), ie.Msg
		}
		return appErr.HTTPStatus(), appErr.Category(), appErr.Error()
	}

	return http.StatusInternalServerError, "UNKNOWN_ERROR", "Unexpected error"
}
