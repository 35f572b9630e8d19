// Package checkout содержит бизнес-логику создания hosted checkout сессий:
// расчет тарифа, поиск или создание клиента у платежного провайдера,
// открытие сессии и вставку ожидающей оплаты записи подписки.
package checkout

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/entitlement-service/internal/config"
	"github.com/magabrotheeeer/entitlement-service/internal/errs"
	"github.com/magabrotheeeer/entitlement-service/internal/metrics"
	"github.com/magabrotheeeer/entitlement-service/internal/models"
	"github.com/magabrotheeeer/entitlement-service/internal/paymentprovider"
)

// SubscriptionRepository определяет методы для работы с записями подписок в хранилище.
type SubscriptionRepository interface {
	// CreatePendingEntry вставляет ожидающую оплаты запись и возвращает её ID.
	CreatePendingEntry(ctx context.Context, entry models.Entry) (string, error)
}

// ProviderClient определяет интерфейс для работы с платежным провайдером.
type ProviderClient interface {
	FindCustomerByEmail(email string) (string, error)
	CreateCustomer(email, userUID string) (string, error)
	CreateCheckoutSession(p paymentprovider.CreateSessionParams) (*paymentprovider.Session, error)
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
}

// Service реализует создание checkout сессий.
type Service struct {
	repo       SubscriptionRepository
	provider   ProviderClient
	cache      Cache
	deployment config.Deployment
	metrics    *metrics.EntitlementMetrics
	log        *slog.Logger
	now        func() time.Time
}

// New создает новый экземпляр Service.
func New(repo SubscriptionRepository, provider ProviderClient, cache Cache,
	deployment config.Deployment, m *metrics.EntitlementMetrics, log *slog.Logger) *Service {
	return &Service{
		repo:       repo,
		provider:   provider,
		cache:      cache,
		deployment: deployment,
		metrics:    m,
		log:        log,
		now:        time.Now,
	}
}

// Create открывает hosted checkout сессию для пары (сервис, тип подписки)
// и возвращает адрес страницы оплаты. Одновременно вставляется запись
// подписки в ожидающем оплаты состоянии: она не дает доступ, пока оплата
// не подтверждена. Вставка и создание сессии не транзакционны: падение
// между ними оставляет осиротевшую сессию у провайдера, что безопасно.
func (s *Service) Create(ctx context.Context, userUID, email string, req models.DummyCheckout) (string, error) {
	const op = "checkout.Create"

	plan, err := models.PlanFor(req.ServiceType, req.SubscriptionType)
	if err != nil {
		return "", fmt.Errorf("%s: %w: %s", op, errs.ErrValidation, err)
	}

	customerID, err := s.ensureCustomer(userUID, email)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	now := s.now()
	sess, err := s.provider.CreateCheckoutSession(paymentprovider.CreateSessionParams{
		CustomerID:  customerID,
		ProductName: plan.ProductName,
		Amount:      plan.Amount,
		Currency:    plan.Currency,
		SuccessURL:  s.deployment.SuccessURL(plan.ServiceType),
		CancelURL:   s.deployment.CancelURL(plan.ServiceType),
		Metadata: map[string]string{
			"user_uid":           userUID,
			"service_type":       plan.ServiceType,
			"subscription_type":  plan.SubscriptionType,
			"sessions_remaining": fmt.Sprintf("%d", plan.Sessions),
		},
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	entry := models.Entry{
		UserUID:           userUID,
		Email:             email,
		ServiceType:       plan.ServiceType,
		SubscriptionType:  plan.SubscriptionType,
		ProviderCustomer:  customerID,
		ProviderSessionID: sess.ID,
		Amount:            plan.Amount,
		Currency:          plan.Currency,
		SessionsRemaining: plan.Sessions,
		ExpiresAt:         plan.Expiry(now),
	}
	id, err := s.repo.CreatePendingEntry(ctx, entry)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	s.metrics.CheckoutsCreated.WithLabelValues(plan.ServiceType, plan.SubscriptionType).Inc()
	s.log.Info("created checkout session",
		slog.String("subscription_id", id),
		slog.String("provider_session_id", sess.ID))

	return sess.URL, nil
}

// ensureCustomer возвращает ID клиента у провайдера для данного email,
// создавая клиента при необходимости. Соответствие email -> ID кэшируется.
func (s *Service) ensureCustomer(userUID, email string) (string, error) {
	cacheKey := "provider_customer:" + email

	var customerID string
	found, err := s.cache.Get(cacheKey, &customerID)
	if err != nil {
		s.log.Warn("failed to read customer cache", slog.String("key", cacheKey), slog.Any("err", err))
	}
	if found && customerID != "" {
		return customerID, nil
	}

	customerID, err = s.provider.FindCustomerByEmail(email)
	if err != nil {
		return "", err
	}
	if customerID == "" {
		customerID, err = s.provider.CreateCustomer(email, userUID)
		if err != nil {
			return "", err
		}
		s.log.Info("created provider customer", slog.String("customer_id", customerID))
	}

	if err := s.cache.Set(cacheKey, customerID, 24*time.Hour); err != nil {
		s.log.Warn("failed to cache customer id", slog.String("key", cacheKey), slog.Any("err", err))
	}
	return customerID, nil
}
