// Package consume реализует HTTP-обработчик списания сессии с подписки.
//
// Handler принимает JSON-запрос с типом сервиса и списывает одну сессию
// с самой свежей действующей подписки пользователя. Счетчик сессий
// не уходит в минус: при исчерпанных сессиях возвращается отказ в доступе.
package consume

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
	"github.com/magabrotheeeer/entitlement-service/internal/models"
)

// Handler управляет HTTP-запросами на списание сессии.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики списания сессий.
type Service interface {
	Consume(ctx context.Context, userUID, serviceType string) (*models.AccessResult, error)
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
// @Summary Списать сессию с подписки
// @Description Списывает одну сессию с действующей подписки текущего пользователя. Возвращает остаток сессий.
// @Tags Entitlements
// @Accept  json
// @Produce  json
// @Param request body models.DummyCheck true "Тип сервиса"
// @Success 200 {object} map[string]any "Результат списания"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера при списании"
// @Router /entitlements/consume [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.entitlement.consume"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummyCheck
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

	res, err := h.service.Consume(r.Context(), userUID, req.ServiceType)
	if err != nil {
		log.Error("failed to consume session", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error(err, "could not consume session"))
		return
	}

	log.Info("session consume attempted",
		slog.String("service_type", req.ServiceType),
		slog.Bool("has_access", res.HasAccess))
	render.JSON(w, r, response.OKWithData(res))
}
