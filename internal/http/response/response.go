// Package response содержит вспомогательные типы и функции для формирования
// унифицированных JSON‑ответов HTTP‑обработчиков. Пакет упрощает возврат
// успешных ответов, ошибок и сообщений валидации в едином формате.
package response

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/entitlement-service/internal/errs"
)

// Response описывает стандартную структуру JSON‑ответа сервера.
// Поле Status — статус запроса ("OK" или "Error").
// Поле ErrorKind — машиночитаемый класс ошибки, чтобы клиент отличал
// проблемы авторизации и валидации от инфраструктурных сбоев.
// Поле Error — текст ошибки (опционально, при неуспехе).
// Поле Data — данные ответа (опционально, при успехе).
type Response struct {
	Status    string `json:"status"`
	ErrorKind string `json:"error_kind,omitempty"`
	Error     string `json:"error,omitempty"`
	Data      any    `json:"data,omitempty"`
}

// ErrorResponse — структура ошибки для Swagger-документации.
// Используется в аннотациях @Failure как возвращаемый тип ошибки.
type ErrorResponse struct {
	Status    string `json:"status" example:"Error"`
	ErrorKind string `json:"error_kind" example:"validation_error"`
	Error     string `json:"error" example:"invalid request body"`
}

const (
	// StatusOK — значение статуса для успешного ответа.
	StatusOK = "OK"
	// StatusError — значение статуса для ответа с ошибкой.
	StatusError = "Error"
)

const (
	// KindAuth — запрос отклонен из-за отсутствия или невалидности токена.
	KindAuth = "auth_error"
	// KindValidation — запрос отклонен из-за некорректных входных данных.
	KindValidation = "validation_error"
	// KindInfrastructure — сбой хранилища, провайдера или другой зависимости.
	KindInfrastructure = "infrastructure_error"
)

// OKWithData возвращает успешный Response с переданными данными.
func OKWithData(data any) Response {
	return Response{
		Status: StatusOK,
		Data:   data,
	}
}

// AuthError возвращает Response с ошибкой авторизации.
func AuthError(msg string) Response {
	return Response{
		Status:    StatusError,
		ErrorKind: KindAuth,
		Error:     msg,
	}
}

// ValidationMsg возвращает Response с ошибкой валидации и переданным сообщением.
func ValidationMsg(msg string) Response {
	return Response{
		Status:    StatusError,
		ErrorKind: KindValidation,
		Error:     msg,
	}
}

// InfraError возвращает Response с инфраструктурной ошибкой.
func InfraError(msg string) Response {
	return Response{
		Status:    StatusError,
		ErrorKind: KindInfrastructure,
		Error:     msg,
	}
}

// Error возвращает Response с ошибкой, класс которой определяется по
// помеченной ошибке сервиса. Непомеченные ошибки считаются
// инфраструктурными: неожиданный сбой не повод показать пользователю
// сообщение об оплате.
func Error(err error, msg string) Response {
	kind := KindInfrastructure
	switch {
	case errors.Is(err, errs.ErrValidation), errors.Is(err, errs.ErrNotFound):
		kind = KindValidation
	case errors.Is(err, errs.ErrUnauthenticated):
		kind = KindAuth
	}
	return Response{
		Status:    StatusError,
		ErrorKind: kind,
		Error:     msg,
	}
}

// ValidationError формирует Response со статусом Error на основе ошибок валидации.
// Каждое нарушение формируется в человеко‑читаемый текст, объединённый через запятую.
func ValidationError(errs validator.ValidationErrors) Response {
	var errsMsgs []string

	for _, err := range errs {
		switch err.ActualTag() {
		case "required":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is a required field", err.Field()))
		case "oneof":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be one of the allowed values", err.Field()))
		case "email":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be a valid email", err.Field()))
		case "uuid":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s can contain only uuid", err.Field()))
		default:
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is not a valid", err.Field()))
		}
	}
	return Response{
		Status:    StatusError,
		ErrorKind: KindValidation,
		Error:     strings.Join(errsMsgs, ", "),
	}
}
