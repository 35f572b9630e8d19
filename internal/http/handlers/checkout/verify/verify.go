// Package verify реализует HTTP-обработчик подтверждения оплаты checkout-сессии.
//
// Страница payment-success вызывает этот обработчик с идентификатором
// сессии из адресной строки: это запасной путь активации рядом с webhook,
// на случай если событие провайдера задержалось или потерялось.
package verify

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/entitlement-service/internal/http/middlewarectx"
	"github.com/magabrotheeeer/entitlement-service/internal/http/response"
	"github.com/magabrotheeeer/entitlement-service/internal/lib/sl"
)

// Handler управляет HTTP-запросами на подтверждение оплаты.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики подтверждения оплаты.
type Service interface {
	VerifySession(ctx context.Context, userUID, sessionID string) (bool, error)
}

// Request — тело запроса на подтверждение оплаты.
type Request struct {
	SessionID string `json:"session_id" validate:"required"` // ID checkout-сессии провайдера
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Подтвердить оплату checkout-сессии
// @Description Проверяет статус оплаты у провайдера и активирует подписку, если оплата прошла. Повторный вызов безопасен.
// @Tags Checkout
// @Accept  json
// @Produce  json
// @Param request body Request true "ID checkout-сессии"
// @Success 200 {object} map[string]any "Статус активации"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации или неизвестная сессия"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера при подтверждении"
// @Router /checkout/verify [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.checkout.verify"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.ValidationMsg("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	userUID, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || userUID == "" {
		log.Error("user uid not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.AuthError("unauthorized"))
		return
	}

	active, err := h.service.VerifySession(r.Context(), userUID, req.SessionID)
	if err != nil {
		log.Error("failed to verify session", sl.Err(err))
		resp := response.Error(err, "could not verify session")
		if resp.ErrorKind == response.KindValidation {
			w.WriteHeader(http.StatusUnprocessableEntity)
		} else {
			w.WriteHeader(http.StatusInternalServerError)
		}
		render.JSON(w, r, resp)
		return
	}

	log.Info("session verified",
		slog.String("session_id", req.SessionID),
		slog.Bool("active", active))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"active": active,
	}))
}
