package verify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/entitlement-service/internal/errs"
	"github.com/magabrotheeeer/entitlement-service/internal/http/middlewarectx"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) VerifySession(ctx context.Context, userUID, sessionID string) (bool, error) {
	args := m.Called(ctx, userUID, sessionID)
	return args.Bool(0), args.Error(1)
}

func TestVerifyHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))

	tests := []struct {
		name           string
		requestBody    string
		userUID        string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:        "оплата подтверждена",
			requestBody: `{"session_id":"cs_1"}`,
			userUID:     "user-1",
			setupMock: func(m *MockService) {
				m.On("VerifySession", mock.Anything, "user-1", "cs_1").Return(true, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"status":"OK","data":{"active":true}}`,
		},
		{
			name:        "оплата еще не прошла",
			requestBody: `{"session_id":"cs_1"}`,
			userUID:     "user-1",
			setupMock: func(m *MockService) {
				m.On("VerifySession", mock.Anything, "user-1", "cs_1").Return(false, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"status":"OK","data":{"active":false}}`,
		},
		{
			name:           "пустой session_id",
			requestBody:    `{"session_id":""}`,
			userUID:        "user-1",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `{"status":"Error","error_kind":"validation_error","error":"field SessionID is a required field"}`,
		},
		{
			name:           "отсутствует авторизация",
			requestBody:    `{"session_id":"cs_1"}`,
			userUID:        "",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `{"status":"Error","error_kind":"auth_error","error":"unauthorized"}`,
		},
		{
			name:        "неизвестная сессия",
			requestBody: `{"session_id":"cs_ghost"}`,
			userUID:     "user-1",
			setupMock: func(m *MockService) {
				m.On("VerifySession", mock.Anything, "user-1", "cs_ghost").
					Return(false, fmt.Errorf("%w: unknown session", errs.ErrValidation))
			},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `{"status":"Error","error_kind":"validation_error","error":"could not verify session"}`,
		},
		{
			name:        "ошибка сервиса",
			requestBody: `{"session_id":"cs_1"}`,
			userUID:     "user-1",
			setupMock: func(m *MockService) {
				m.On("VerifySession", mock.Anything, "user-1", "cs_1").
					Return(false, errors.New("provider down"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"status":"Error","error_kind":"infrastructure_error","error":"could not verify session"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			handler := New(logger, mockService)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout/verify", bytes.NewReader([]byte(tt.requestBody)))
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
