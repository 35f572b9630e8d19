package payment

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/entitlement-service/internal/errs"
	"github.com/magabrotheeeer/entitlement-service/internal/metrics"
	"github.com/magabrotheeeer/entitlement-service/internal/models"
	"github.com/magabrotheeeer/entitlement-service/internal/paymentprovider"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) FindEntryBySessionID(ctx context.Context, sessionID string) (*models.Entry, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Entry), args.Error(1)
}

func (m *RepoMock) ActivateEntryBySessionID(ctx context.Context, sessionID string) (*models.Entry, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Entry), args.Error(1)
}

type ProviderMock struct{ mock.Mock }

func (m *ProviderMock) GetCheckoutSession(id string) (*paymentprovider.Session, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*paymentprovider.Session), args.Error(1)
}

type PublisherMock struct{ mock.Mock }

func (m *PublisherMock) PublishActivated(event models.ActivatedEvent) error {
	return m.Called(event).Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func newTestService(repo *RepoMock, provider *ProviderMock, publisher *PublisherMock) *Service {
	return New(repo, provider, publisher, metrics.New(prometheus.NewRegistry()), newNoopLogger())
}

func pendingEntry() *models.Entry {
	return &models.Entry{
		ID:                "sub-1",
		UserUID:           "user-1",
		Email:             "user@example.test",
		ServiceType:       models.ServiceWellness,
		SubscriptionType:  models.SubscriptionMonthly,
		ProviderSessionID: "cs_1",
		Amount:            1500000,
		Currency:          "NGN",
		SessionsRemaining: 4,
		IsActive:          false,
	}
}

func activeEntry() *models.Entry {
	e := pendingEntry()
	e.IsActive = true
	return e
}

func TestService_HandleSessionCompleted(t *testing.T) {
	t.Run("активирует ожидающую запись и публикует событие", func(t *testing.T) {
		repo := new(RepoMock)
		publisher := new(PublisherMock)

		repo.On("FindEntryBySessionID", mock.Anything, "cs_1").Return(pendingEntry(), nil)
		repo.On("ActivateEntryBySessionID", mock.Anything, "cs_1").Return(activeEntry(), nil)
		publisher.On("PublishActivated", mock.MatchedBy(func(e models.ActivatedEvent) bool {
			return e.SubscriptionID == "sub-1" &&
				e.Email == "user@example.test" &&
				e.Sessions == 4
		})).Return(nil)

		service := newTestService(repo, new(ProviderMock), publisher)

		err := service.HandleSessionCompleted(context.Background(), "cs_1")
		require.NoError(t, err)
		repo.AssertExpectations(t)
		publisher.AssertExpectations(t)
	})

	t.Run("повторная доставка не активирует второй раз", func(t *testing.T) {
		repo := new(RepoMock)
		publisher := new(PublisherMock)

		repo.On("FindEntryBySessionID", mock.Anything, "cs_1").Return(activeEntry(), nil)

		service := newTestService(repo, new(ProviderMock), publisher)

		err := service.HandleSessionCompleted(context.Background(), "cs_1")
		require.NoError(t, err)
		repo.AssertNotCalled(t, "ActivateEntryBySessionID", mock.Anything, mock.Anything)
		publisher.AssertNotCalled(t, "PublishActivated", mock.Anything)
	})

	t.Run("неизвестная сессия подтверждается без активации", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("FindEntryBySessionID", mock.Anything, "cs_ghost").Return(nil, nil)

		service := newTestService(repo, new(ProviderMock), new(PublisherMock))

		err := service.HandleSessionCompleted(context.Background(), "cs_ghost")
		require.NoError(t, err)
		repo.AssertNotCalled(t, "ActivateEntryBySessionID", mock.Anything, mock.Anything)
	})

	t.Run("ошибка публикации не откатывает активацию", func(t *testing.T) {
		repo := new(RepoMock)
		publisher := new(PublisherMock)

		repo.On("FindEntryBySessionID", mock.Anything, "cs_1").Return(pendingEntry(), nil)
		repo.On("ActivateEntryBySessionID", mock.Anything, "cs_1").Return(activeEntry(), nil)
		publisher.On("PublishActivated", mock.Anything).Return(errors.New("broker down"))

		service := newTestService(repo, new(ProviderMock), publisher)

		err := service.HandleSessionCompleted(context.Background(), "cs_1")
		require.NoError(t, err)
	})
}

func TestService_VerifySession(t *testing.T) {
	t.Run("оплаченная сессия активирует запись", func(t *testing.T) {
		repo := new(RepoMock)
		provider := new(ProviderMock)
		publisher := new(PublisherMock)

		repo.On("FindEntryBySessionID", mock.Anything, "cs_1").Return(pendingEntry(), nil)
		provider.On("GetCheckoutSession", "cs_1").Return(&paymentprovider.Session{ID: "cs_1", Paid: true}, nil)
		repo.On("ActivateEntryBySessionID", mock.Anything, "cs_1").Return(activeEntry(), nil)
		publisher.On("PublishActivated", mock.Anything).Return(nil)

		service := newTestService(repo, provider, publisher)

		ok, err := service.VerifySession(context.Background(), "user-1", "cs_1")
		require.NoError(t, err)
		assert.True(t, ok)
		repo.AssertExpectations(t)
	})

	t.Run("уже активная запись подтверждается без похода к провайдеру", func(t *testing.T) {
		repo := new(RepoMock)
		provider := new(ProviderMock)

		repo.On("FindEntryBySessionID", mock.Anything, "cs_1").Return(activeEntry(), nil)

		service := newTestService(repo, provider, new(PublisherMock))

		ok, err := service.VerifySession(context.Background(), "user-1", "cs_1")
		require.NoError(t, err)
		assert.True(t, ok)
		provider.AssertNotCalled(t, "GetCheckoutSession", mock.Anything)
	})

	t.Run("неоплаченная сессия не активирует запись", func(t *testing.T) {
		repo := new(RepoMock)
		provider := new(ProviderMock)

		repo.On("FindEntryBySessionID", mock.Anything, "cs_1").Return(pendingEntry(), nil)
		provider.On("GetCheckoutSession", "cs_1").Return(&paymentprovider.Session{ID: "cs_1", Paid: false}, nil)

		service := newTestService(repo, provider, new(PublisherMock))

		ok, err := service.VerifySession(context.Background(), "user-1", "cs_1")
		require.NoError(t, err)
		assert.False(t, ok)
		repo.AssertNotCalled(t, "ActivateEntryBySessionID", mock.Anything, mock.Anything)
	})

	t.Run("чужая сессия отклоняется", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("FindEntryBySessionID", mock.Anything, "cs_1").Return(pendingEntry(), nil)

		service := newTestService(repo, new(ProviderMock), new(PublisherMock))

		_, err := service.VerifySession(context.Background(), "user-2", "cs_1")
		require.Error(t, err)
		assert.True(t, errors.Is(err, errs.ErrValidation))
	})

	t.Run("неизвестная сессия отклоняется", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("FindEntryBySessionID", mock.Anything, "cs_ghost").Return(nil, nil)

		service := newTestService(repo, new(ProviderMock), new(PublisherMock))

		_, err := service.VerifySession(context.Background(), "user-1", "cs_ghost")
		require.Error(t, err)
		assert.True(t, errors.Is(err, errs.ErrValidation))
	})
}
