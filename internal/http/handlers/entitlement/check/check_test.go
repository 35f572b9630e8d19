package check

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/entitlement-service/internal/http/middlewarectx"
	"github.com/magabrotheeeer/entitlement-service/internal/models"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Check(ctx context.Context, userUID, serviceType string) (*models.AccessResult, error) {
	args := m.Called(ctx, userUID, serviceType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AccessResult), args.Error(1)
}

func TestCheckHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))

	tests := []struct {
		name           string
		requestBody    interface{}
		userUID        string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:        "доступ есть",
			requestBody: models.DummyCheck{ServiceType: models.ServiceWellness},
			userUID:     "user-1",
			setupMock: func(m *MockService) {
				m.On("Check", mock.Anything, "user-1", "wellness").
					Return(&models.AccessResult{
						HasAccess: true,
						Subscription: &models.Summary{
							ID:                "sub-1",
							SubscriptionType:  models.SubscriptionMonthly,
							SessionsRemaining: 4,
						},
					}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"status":"OK","data":{"has_access":true,"subscription":{"id":"sub-1","subscription_type":"monthly","sessions_remaining":4,"expires_at":null}}}`,
		},
		{
			name:        "доступа нет",
			requestBody: models.DummyCheck{ServiceType: models.ServiceAgro},
			userUID:     "user-1",
			setupMock: func(m *MockService) {
				m.On("Check", mock.Anything, "user-1", "agro").
					Return(&models.AccessResult{HasAccess: false}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"status":"OK","data":{"has_access":false,"subscription":null}}`,
		},
		{
			name:           "неизвестный тип сервиса",
			requestBody:    models.DummyCheck{ServiceType: "gambling"},
			userUID:        "user-1",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `{"status":"Error","error_kind":"validation_error","error":"field ServiceType must be one of the allowed values"}`,
		},
		{
			name:           "некорректный JSON",
			requestBody:    "not a json",
			userUID:        "user-1",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"status":"Error","error_kind":"validation_error","error":"invalid request body"}`,
		},
		{
			name:           "отсутствует авторизация",
			requestBody:    models.DummyCheck{ServiceType: models.ServiceWellness},
			userUID:        "",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `{"status":"Error","error_kind":"auth_error","error":"unauthorized"}`,
		},
		{
			name:        "ошибка сервиса",
			requestBody: models.DummyCheck{ServiceType: models.ServiceWellness},
			userUID:     "user-1",
			setupMock: func(m *MockService) {
				m.On("Check", mock.Anything, "user-1", "wellness").
					Return(nil, errors.New("db error"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"status":"Error","error_kind":"infrastructure_error","error":"could not check access"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			handler := New(logger, mockService)

			var body []byte
			var err error
			if str, ok := tt.requestBody.(string); ok {
				body = []byte(str)
			} else {
				body, err = json.Marshal(tt.requestBody)
				require.NoError(t, err)
			}

			req := httptest.NewRequest(http.MethodPost, "/api/v1/entitlements/check", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")

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
