package list

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/entitlement-service/internal/http/middlewarectx"
	"github.com/magabrotheeeer/entitlement-service/internal/models"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) List(ctx context.Context, userUID string, limit, offset int) ([]*models.Entry, error) {
	args := m.Called(ctx, userUID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Entry), args.Error(1)
}

func TestListHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
	created := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name           string
		query          string
		userUID        string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:    "список с записями",
			query:   "?limit=5&offset=0",
			userUID: "user-1",
			setupMock: func(m *MockService) {
				m.On("List", mock.Anything, "user-1", 5, 0).Return([]*models.Entry{
					{
						ID:                "sub-1",
						ServiceType:       models.ServiceWellness,
						SubscriptionType:  models.SubscriptionMonthly,
						Amount:            1500000,
						Currency:          "NGN",
						SessionsRemaining: 4,
						IsActive:          true,
						CreatedAt:         created,
					},
				}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"status":"OK","data":{"list_count":1,"entries":[{"id":"sub-1","service_type":"wellness","subscription_type":"monthly","amount":1500000,"currency":"NGN","sessions_remaining":4,"is_active":true,"expires_at":null,"created_at":"2025-05-01T00:00:00Z"}]}}`,
		},
		{
			name:    "некорректные параметры пагинации заменяются значениями по умолчанию",
			query:   "?limit=abc&offset=-5",
			userUID: "user-1",
			setupMock: func(m *MockService) {
				m.On("List", mock.Anything, "user-1", 10, 0).Return([]*models.Entry{}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"status":"OK","data":{"list_count":0,"entries":[]}}`,
		},
		{
			name:           "отсутствует авторизация",
			query:          "",
			userUID:        "",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `{"status":"Error","error_kind":"auth_error","error":"unauthorized"}`,
		},
		{
			name:    "ошибка сервиса",
			query:   "",
			userUID: "user-1",
			setupMock: func(m *MockService) {
				m.On("List", mock.Anything, "user-1", 10, 0).Return(nil, errors.New("db error"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"status":"Error","error_kind":"infrastructure_error","error":"failed to list"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			handler := New(logger, mockService)

			req := httptest.NewRequest(http.MethodGet, "/api/v1/entitlements"+tt.query, nil)

			ctx := context.WithValue(req.Context(), middlewarectx.UserUID, tt.userUID)
			ctx = context.WithValue(ctx, middleware.RequestIDKey, "req-id")
			req = req.WithContext(ctx)

			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.JSONEq(t, tt.expectedBody, w.Body.String())
			mockService.AssertExpectations(t)
		})
	}
}
