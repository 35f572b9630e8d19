// Package webhook реализует HTTP-обработчик событий платежного провайдера.
//
// Handler проверяет подпись события по секрету webhook, и для события
// checkout.session.completed активирует соответствующую запись подписки.
// Остальные типы событий подтверждаются без обработки. Обработчик не
// требует авторизации пользователя: подлинность запроса гарантирует подпись.
package webhook

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	stripe "github.com/stripe/stripe-go/v82"
	stripewebhook "github.com/stripe/stripe-go/v82/webhook"

	"github.com/magabrotheeeer/entitlement-service/internal/http/response"
	"github.com/magabrotheeeer/entitlement-service/internal/lib/sl"
)

// Размер тела события провайдера ограничен, чтобы не читать
// произвольно большие запросы.
const maxBodyBytes = 65536

// Handler управляет HTTP-запросами с событиями платежного провайдера.
type Handler struct {
	log           *slog.Logger
	service       Service
	webhookSecret string
}

// Service описывает интерфейс бизнес-логики активации подписки.
type Service interface {
	HandleSessionCompleted(ctx context.Context, sessionID string) error
}

// New создает новый Handler с переданными логгером, сервисом и секретом webhook.
func New(log *slog.Logger, service Service, webhookSecret string) *Handler {
	return &Handler{
		log:           log,
		service:       service,
		webhookSecret: webhookSecret,
	}
}

// ServeHTTP godoc
// @Summary Принять событие платежного провайдера
// @Description Проверяет подпись события и активирует подписку по checkout.session.completed. Повторная доставка события безопасна.
// @Tags Payment
// @Accept  json
// @Produce  json
// @Success 200 {object} map[string]any "Событие принято"
// @Failure 400 {object} response.ErrorResponse "Невалидная подпись или тело события"
// @Failure 500 {object} response.ErrorResponse "Ошибка обработки события"
// @Router /payments/webhook [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.webhook"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		log.Error("failed to read event body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.ValidationMsg("invalid event body"))
		return
	}

	event, err := stripewebhook.ConstructEvent(payload, r.Header.Get("Stripe-Signature"), h.webhookSecret)
	if err != nil {
		log.Error("failed to verify event signature", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.ValidationMsg("invalid signature"))
		return
	}

	if event.Type != "checkout.session.completed" {
		log.Info("skipping unhandled event type", slog.String("type", string(event.Type)))
		render.JSON(w, r, response.OKWithData(map[string]any{"received": true}))
		return
	}

	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		log.Error("failed to parse checkout session", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.ValidationMsg("invalid event payload"))
		return
	}

	if err := h.service.HandleSessionCompleted(r.Context(), session.ID); err != nil {
		log.Error("failed to handle completed session", sl.Err(err))
		// Ошибка инфраструктуры: вернуть 500, провайдер повторит доставку.
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error(err, "could not process event"))
		return
	}

	log.Info("event processed", slog.String("session_id", session.ID))
	render.JSON(w, r, response.OKWithData(map[string]any{"received": true}))
}
