// Package check реализует HTTP-обработчик проверки доступа пользователя к сервису.
//
// Handler принимает JSON-запрос с типом сервиса, извлекает идентификатор
// пользователя из контекста и возвращает результат проверки: есть ли
// действующая подписка и её краткое описание. Проверка не имеет побочных
// эффектов, её можно вызывать многократно.
package check

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

// Handler управляет HTTP-запросами на проверку доступа.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики проверки доступа.
type Service interface {
	Check(ctx context.Context, userUID, serviceType string) (*models.AccessResult, error)
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
// @Summary Проверить доступ к сервису
// @Description Возвращает, есть ли у текущего пользователя действующая подписка на сервис.
// @Tags Entitlements
// @Accept  json
// @Produce  json
// @Param request body models.DummyCheck true "Тип сервиса"
// @Success 200 {object} map[string]any "Результат проверки доступа"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера при проверке доступа"
// @Router /entitlements/check [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.entitlement.check"
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

	res, err := h.service.Check(r.Context(), userUID, req.ServiceType)
	if err != nil {
		log.Error("failed to check access", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error(err, "could not check access"))
		return
	}

	log.Info("access checked",
		slog.String("service_type", req.ServiceType),
		slog.Bool("has_access", res.HasAccess))
	render.JSON(w, r, response.OKWithData(res))
}
