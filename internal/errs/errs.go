// Package errs определяет общую таксономию ошибок сервиса:
// ошибка аутентификации, ошибка валидации и инфраструктурная ошибка.
// Обработчики HTTP сопоставляют ошибки бизнес-логики с видами ответов
// через errors.Is.
package errs

import "errors"

// ErrUnauthenticated — вызов без валидного bearer-токена.
var ErrUnauthenticated = errors.New("unauthenticated")

// ErrValidation — некорректные входные данные (например, неизвестная
// комбинация сервиса и типа подписки).
var ErrValidation = errors.New("validation failed")

// ErrInfrastructure — ошибка внешней зависимости: базы данных или
// платежного провайдера.
var ErrInfrastructure = errors.New("infrastructure failure")

// ErrNotFound — запись не найдена.
var ErrNotFound = errors.New("not found")
