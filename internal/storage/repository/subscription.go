package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/magabrotheeeer/entitlement-service/internal/models"
)

const entryColumns = `id, user_uid, email, service_type, subscription_type,
		provider_customer_id, provider_session_id, amount, currency,
		sessions_remaining, is_active, expires_at, created_at`

func scanEntry(row interface{ Scan(dest ...any) error }) (*models.Entry, error) {
	var item models.Entry
	var customer sql.NullString
	var expiresAt sql.NullTime
	if err := row.Scan(&item.ID, &item.UserUID, &item.Email, &item.ServiceType,
		&item.SubscriptionType, &customer, &item.ProviderSessionID, &item.Amount,
		&item.Currency, &item.SessionsRemaining, &item.IsActive, &expiresAt,
		&item.CreatedAt); err != nil {
		return nil, err
	}
	if customer.Valid {
		item.ProviderCustomer = customer.String
	}
	if expiresAt.Valid {
		t := expiresAt.Time
		item.ExpiresAt = &t
	}
	return &item, nil
}

// CreatePendingEntry вставляет новую запись подписки в ожидающем оплаты
// состоянии и возвращает её ID. Поле is_active не передаётся и остается
// false по умолчанию: запись не может дать доступ до подтверждения оплаты.
func (s *Storage) CreatePendingEntry(ctx context.Context, entry models.Entry) (string, error) {
	const op = "storage.CreatePendingEntry"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var customer any
	if entry.ProviderCustomer != "" {
		customer = entry.ProviderCustomer
	}

	query := `INSERT INTO subscriptions (user_uid, email, service_type, subscription_type,
			      provider_customer_id, provider_session_id, amount, currency,
			      sessions_remaining, expires_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			  RETURNING id`
	var newID string
	err := s.DB.QueryRowContext(ctx, query,
		entry.UserUID, entry.Email, entry.ServiceType, entry.SubscriptionType,
		customer, entry.ProviderSessionID, entry.Amount, entry.Currency,
		entry.SessionsRemaining, entry.ExpiresAt).Scan(&newID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// FindEligibleEntry возвращает самую свежую запись, дающую пользователю доступ
// к сервису в момент now: активированную, с ненулевым остатком сессий
// и неистекшим сроком действия. Если такой записи нет, возвращает (nil, nil).
func (s *Storage) FindEligibleEntry(ctx context.Context, userUID, serviceType string, now time.Time) (*models.Entry, error) {
	const op = "storage.FindEligibleEntry"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + entryColumns + `
			  FROM subscriptions
			  WHERE user_uid = $1
			    AND service_type = $2
			    AND is_active = true
			    AND sessions_remaining > 0
			    AND (expires_at IS NULL OR expires_at > $3)
			  ORDER BY created_at DESC
			  LIMIT 1`
	entry, err := scanEntry(s.DB.QueryRowContext(ctx, query, userUID, serviceType, now))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return entry, nil
}

// FindEntryBySessionID возвращает запись подписки по ID checkout-сессии
// платежного провайдера. Если записи нет, возвращает (nil, nil).
func (s *Storage) FindEntryBySessionID(ctx context.Context, sessionID string) (*models.Entry, error) {
	const op = "storage.FindEntryBySessionID"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + entryColumns + `
			  FROM subscriptions
			  WHERE provider_session_id = $1`
	entry, err := scanEntry(s.DB.QueryRowContext(ctx, query, sessionID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return entry, nil
}

// ActivateEntryBySessionID помечает запись подписки активной после
// подтверждения оплаты и возвращает обновлённую запись. Повторная активация
// уже активной записи безопасна. Если запись не найдена, возвращает (nil, nil).
func (s *Storage) ActivateEntryBySessionID(ctx context.Context, sessionID string) (*models.Entry, error) {
	const op = "storage.ActivateEntryBySessionID"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE subscriptions
			  SET is_active = true
			  WHERE provider_session_id = $1
			  RETURNING ` + entryColumns
	entry, err := scanEntry(s.DB.QueryRowContext(ctx, query, sessionID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return entry, nil
}

// ConsumeSession списывает одну сессию с записи подписки и возвращает
// новый остаток. Условие sessions_remaining > 0 в запросе не позволяет
// увести счетчик в минус. Возвращает количество изменённых строк.
func (s *Storage) ConsumeSession(ctx context.Context, id string) (int, int, error) {
	const op = "storage.ConsumeSession"
	select {
	case <-ctx.Done():
		return 0, 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE subscriptions
			  SET sessions_remaining = sessions_remaining - 1
			  WHERE id = $1 AND sessions_remaining > 0
			  RETURNING sessions_remaining`
	var remaining int
	err := s.DB.QueryRowContext(ctx, query, id).Scan(&remaining)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, 0, nil
	}
	if err != nil {
		return 0, 0, fmt.Errorf("%s: %w", op, err)
	}
	return 1, remaining, nil
}

// ListEntrys возвращает список записей подписок пользователя с пагинацией,
// самые свежие первыми.
func (s *Storage) ListEntrys(ctx context.Context, userUID string, limit, offset int) ([]*models.Entry, error) {
	const op = "storage.ListEntrys"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + entryColumns + `
			  FROM subscriptions
			  WHERE user_uid = $1
			  ORDER BY created_at DESC
			  LIMIT $2 OFFSET $3`
	rows, err := s.DB.QueryContext(ctx, query, userUID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = rows.Close() }()

	var result []*models.Entry
	for rows.Next() {
		item, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
