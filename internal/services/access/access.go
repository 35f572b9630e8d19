// Package access содержит бизнес-логику проверки доступа пользователя
// к сервисам и списания сессий.
package access

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/entitlement-service/internal/metrics"
	"github.com/magabrotheeeer/entitlement-service/internal/models"
)

// SubscriptionRepository определяет методы для работы с записями подписок в хранилище.
type SubscriptionRepository interface {
	// FindEligibleEntry возвращает самую свежую действующую подписку или (nil, nil).
	FindEligibleEntry(ctx context.Context, userUID, serviceType string, now time.Time) (*models.Entry, error)
	// ConsumeSession списывает одну сессию и возвращает (изменено строк, остаток).
	ConsumeSession(ctx context.Context, id string) (int, int, error)
	// ListEntrys возвращает записи пользователя с пагинацией, самые свежие первыми.
	ListEntrys(ctx context.Context, userUID string, limit, offset int) ([]*models.Entry, error)
}

// Service реализует проверку доступа. Проверка — чистое чтение без побочных
// эффектов, её можно вызывать сколь угодно часто (клиент опрашивает её
// после открытия страницы оплаты).
type Service struct {
	repo    SubscriptionRepository
	metrics *metrics.EntitlementMetrics
	log     *slog.Logger
	now     func() time.Time
}

// New создает новый экземпляр Service.
func New(repo SubscriptionRepository, m *metrics.EntitlementMetrics, log *slog.Logger) *Service {
	return &Service{
		repo:    repo,
		metrics: m,
		log:     log,
		now:     time.Now,
	}
}

// Check возвращает результат проверки доступа пользователя к сервису:
// есть ли действующая подписка и её краткое описание. Если действующих
// подписок несколько, возвращается самая свежая по дате создания.
func (s *Service) Check(ctx context.Context, userUID, serviceType string) (*models.AccessResult, error) {
	const op = "access.Check"

	now := s.now()
	entry, err := s.repo.FindEligibleEntry(ctx, userUID, serviceType, now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	// Запрос уже отфильтровал недействующие записи, но инвариант
	// "ожидающая оплаты запись не дает доступ" проверяется еще раз здесь.
	if entry == nil || !entry.Eligible(now) {
		s.metrics.AccessChecks.WithLabelValues(serviceType, "denied").Inc()
		return &models.AccessResult{HasAccess: false}, nil
	}

	s.metrics.AccessChecks.WithLabelValues(serviceType, "granted").Inc()
	return &models.AccessResult{
		HasAccess:    true,
		Subscription: entry.Summarize(),
	}, nil
}

// Consume списывает одну сессию с самой свежей действующей подписки
// пользователя. Если действующей подписки нет, возвращает результат
// с HasAccess=false без ошибки. Счетчик сессий не может уйти в минус.
func (s *Service) Consume(ctx context.Context, userUID, serviceType string) (*models.AccessResult, error) {
	const op = "access.Consume"

	now := s.now()
	entry, err := s.repo.FindEligibleEntry(ctx, userUID, serviceType, now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if entry == nil || !entry.Eligible(now) {
		return &models.AccessResult{HasAccess: false}, nil
	}

	affected, remaining, err := s.repo.ConsumeSession(ctx, entry.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if affected == 0 {
		// Сессии закончились между выборкой и списанием.
		return &models.AccessResult{HasAccess: false}, nil
	}

	s.metrics.SessionsConsumed.WithLabelValues(serviceType).Inc()
	s.log.Info("session consumed",
		slog.String("subscription_id", entry.ID),
		slog.Int("remaining", remaining))

	entry.SessionsRemaining = remaining
	return &models.AccessResult{
		HasAccess:    true,
		Subscription: entry.Summarize(),
	}, nil
}

// List возвращает записи подписок пользователя с пагинацией.
func (s *Service) List(ctx context.Context, userUID string, limit, offset int) ([]*models.Entry, error) {
	const op = "access.List"
	entries, err := s.repo.ListEntrys(ctx, userUID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return entries, nil
}
