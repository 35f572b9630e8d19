// Package models содержит доменные структуры, описывающие платную подписку
// (entitlement) пользователя на один из сервисов холдинга,
// а также вспомогательные типы для работы с данными из внешних источников (например, JSON-запросы).
package models

import "time"

// Типы сервисов, к которым может быть привязана подписка.
const (
	// ServiceWellness — сервис анализа здоровья.
	ServiceWellness = "wellness"
	// ServiceAgro — сервис агроаналитики.
	ServiceAgro = "agro"
)

// Типы подписок.
const (
	// SubscriptionOneOff — разовая покупка, одна сессия, без срока действия.
	SubscriptionOneOff = "one_off"
	// SubscriptionMonthly — месячный пакет, несколько сессий, срок действия 30 дней.
	SubscriptionMonthly = "monthly"
)

// Entry представляет собой основную модель подписки,
// используемую в бизнес-логике и хранилище.
// Поле ExpiresAt может быть nil — это означает, что подписка
// не ограничена по времени (разовые покупки).
type Entry struct {
	ID                string     // Уникальный идентификатор подписки
	UserUID           string     // Идентификатор пользователя во внешнем identity-провайдере
	Email             string     // Электронная почта пользователя на момент покупки
	ServiceType       string     // Сервис, к которому относится подписка (wellness или agro)
	SubscriptionType  string     // Тип подписки (one_off или monthly)
	ProviderCustomer  string     // ID клиента в платежном провайдере
	ProviderSessionID string     // ID hosted checkout сессии платежного провайдера
	Amount            int64      // Сумма платежа в минорных единицах валюты
	Currency          string     // Валюта платежа
	SessionsRemaining int        // Количество оставшихся сессий
	IsActive          bool       // false до подтверждения оплаты, true после
	ExpiresAt         *time.Time // Дата окончания действия, nil — бессрочно
	CreatedAt         time.Time  // Дата создания записи, используется для выбора самой свежей
}

// Eligible сообщает, дает ли подписка доступ к сервису в момент now.
// Запись дает доступ только если она активирована, остались сессии
// и срок действия не истек. Ожидающие оплаты записи (IsActive=false)
// доступ не дают никогда.
func (e *Entry) Eligible(now time.Time) bool {
	if !e.IsActive {
		return false
	}
	if e.SessionsRemaining <= 0 {
		return false
	}
	if e.ExpiresAt != nil && !e.ExpiresAt.After(now) {
		return false
	}
	return true
}

// DummyCheckout используется для приёма данных из JSON-запроса
// на создание checkout-сессии.
type DummyCheckout struct {
	ServiceType      string `json:"service_type" validate:"required,oneof=wellness agro"`        // Сервис
	SubscriptionType string `json:"subscription_type" validate:"required,oneof=one_off monthly"` // Тип подписки
}

// DummyCheck используется для приёма данных из JSON-запроса на проверку доступа.
type DummyCheck struct {
	ServiceType string `json:"service_type" validate:"required,oneof=wellness agro"` // Сервис
}

// Summary — краткое представление подписки, возвращаемое клиенту
// при проверке доступа.
type Summary struct {
	ID                string     `json:"id"`
	SubscriptionType  string     `json:"subscription_type"`
	SessionsRemaining int        `json:"sessions_remaining"`
	ExpiresAt         *time.Time `json:"expires_at"`
}

// AccessResult — результат проверки доступа пользователя к сервису.
// Subscription равен nil, если доступа нет.
type AccessResult struct {
	HasAccess    bool     `json:"has_access"`
	Subscription *Summary `json:"subscription"`
}

// Summarize строит Summary по записи подписки.
func (e *Entry) Summarize() *Summary {
	return &Summary{
		ID:                e.ID,
		SubscriptionType:  e.SubscriptionType,
		SessionsRemaining: e.SessionsRemaining,
		ExpiresAt:         e.ExpiresAt,
	}
}

// ListItem — представление подписки в списке покупок пользователя.
// В отличие от Summary содержит платежные реквизиты и статус активации,
// чтобы клиент мог показать и ожидающие оплаты записи.
type ListItem struct {
	ID                string     `json:"id"`
	ServiceType       string     `json:"service_type"`
	SubscriptionType  string     `json:"subscription_type"`
	Amount            int64      `json:"amount"`
	Currency          string     `json:"currency"`
	SessionsRemaining int        `json:"sessions_remaining"`
	IsActive          bool       `json:"is_active"`
	ExpiresAt         *time.Time `json:"expires_at"`
	CreatedAt         time.Time  `json:"created_at"`
}

// ListView строит ListItem по записи подписки.
func (e *Entry) ListView() *ListItem {
	return &ListItem{
		ID:                e.ID,
		ServiceType:       e.ServiceType,
		SubscriptionType:  e.SubscriptionType,
		Amount:            e.Amount,
		Currency:          e.Currency,
		SessionsRemaining: e.SessionsRemaining,
		IsActive:          e.IsActive,
		ExpiresAt:         e.ExpiresAt,
		CreatedAt:         e.CreatedAt,
	}
}

// ActivatedEvent — событие активации подписки, публикуемое в очередь
// для отправки уведомления пользователю.
type ActivatedEvent struct {
	SubscriptionID   string `json:"subscription_id"`
	UserUID          string `json:"user_uid"`
	Email            string `json:"email"`
	ServiceType      string `json:"service_type"`
	SubscriptionType string `json:"subscription_type"`
	Sessions         int    `json:"sessions"`
	Amount           int64  `json:"amount"`
	Currency         string `json:"currency"`
}
