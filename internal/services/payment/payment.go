// Package payment содержит логику подтверждения оплаты: активацию
// ожидающих записей подписок по событию провайдера или по явной проверке
// статуса checkout сессии, и публикацию событий активации.
package payment

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/entitlement-service/internal/errs"
	"github.com/magabrotheeeer/entitlement-service/internal/lib/sl"
	"github.com/magabrotheeeer/entitlement-service/internal/metrics"
	"github.com/magabrotheeeer/entitlement-service/internal/models"
	"github.com/magabrotheeeer/entitlement-service/internal/paymentprovider"
)

// SubscriptionRepository определяет методы для работы с записями подписок в хранилище.
type SubscriptionRepository interface {
	FindEntryBySessionID(ctx context.Context, sessionID string) (*models.Entry, error)
	ActivateEntryBySessionID(ctx context.Context, sessionID string) (*models.Entry, error)
}

// ProviderClient определяет интерфейс для чтения checkout сессий провайдера.
type ProviderClient interface {
	GetCheckoutSession(id string) (*paymentprovider.Session, error)
}

// EventPublisher публикует события активации подписок.
type EventPublisher interface {
	PublishActivated(event models.ActivatedEvent) error
}

// Service реализует подтверждение оплаты.
type Service struct {
	repo      SubscriptionRepository
	provider  ProviderClient
	publisher EventPublisher
	metrics   *metrics.EntitlementMetrics
	log       *slog.Logger
}

// New создает новый экземпляр Service.
func New(repo SubscriptionRepository, provider ProviderClient, publisher EventPublisher,
	m *metrics.EntitlementMetrics, log *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		provider:  provider,
		publisher: publisher,
		metrics:   m,
		log:       log,
	}
}

// HandleSessionCompleted активирует запись подписки по событию провайдера
// об успешной оплате checkout сессии. Повторная доставка события безопасна:
// уже активная запись не активируется второй раз и событие не публикуется
// повторно.
func (s *Service) HandleSessionCompleted(ctx context.Context, sessionID string) error {
	const op = "payment.HandleSessionCompleted"

	entry, err := s.repo.FindEntryBySessionID(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if entry == nil {
		// Сессия без локальной записи: падение между созданием сессии
		// и вставкой. Подтверждаем получение, активировать нечего.
		s.log.Warn("completed session has no local subscription",
			slog.String("session_id", sessionID))
		return nil
	}
	if entry.IsActive {
		s.log.Info("subscription already active, skipping",
			slog.String("subscription_id", entry.ID))
		return nil
	}

	return s.activate(ctx, sessionID, "webhook")
}

// VerifySession проверяет статус оплаты checkout сессии напрямую у провайдера
// и активирует запись, если оплата прошла. Используется страницей
// payment-success как запасной путь подтверждения рядом с webhook.
// Возвращает true, если запись активна (в том числе активированная ранее).
func (s *Service) VerifySession(ctx context.Context, userUID, sessionID string) (bool, error) {
	const op = "payment.VerifySession"

	entry, err := s.repo.FindEntryBySessionID(ctx, sessionID)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	if entry == nil {
		return false, fmt.Errorf("%s: %w: unknown session", op, errs.ErrValidation)
	}
	if entry.UserUID != userUID {
		return false, fmt.Errorf("%s: %w: session belongs to another user", op, errs.ErrValidation)
	}
	if entry.IsActive {
		return true, nil
	}

	sess, err := s.provider.GetCheckoutSession(sessionID)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	if !sess.Paid {
		return false, nil
	}

	if err := s.activate(ctx, sessionID, "verify"); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Service) activate(ctx context.Context, sessionID, source string) error {
	const op = "payment.activate"

	entry, err := s.repo.ActivateEntryBySessionID(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if entry == nil {
		return fmt.Errorf("%s: %w: unknown session", op, errs.ErrNotFound)
	}

	s.metrics.Activations.WithLabelValues(entry.ServiceType, source).Inc()
	s.log.Info("subscription activated",
		slog.String("subscription_id", entry.ID),
		slog.String("source", source))

	// Письмо-квитанция не критично для выдачи доступа:
	// ошибку публикации логируем, но активацию не откатываем.
	if err := s.publisher.PublishActivated(models.ActivatedEvent{
		SubscriptionID:   entry.ID,
		UserUID:          entry.UserUID,
		Email:            entry.Email,
		ServiceType:      entry.ServiceType,
		SubscriptionType: entry.SubscriptionType,
		Sessions:         entry.SessionsRemaining,
		Amount:           entry.Amount,
		Currency:         entry.Currency,
	}); err != nil {
		s.log.Error("failed to publish activation event", sl.Err(err))
	}
	return nil
}
