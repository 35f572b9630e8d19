// Package entitlementservice предоставляет маршруты для основного приложения.
package entitlementservice

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpSwagger "github.com/swaggo/http-swagger"

	checkoutcreate "github.com/magabrotheeeer/entitlement-service/internal/http/handlers/checkout/create"
	checkoutverify "github.com/magabrotheeeer/entitlement-service/internal/http/handlers/checkout/verify"
	"github.com/magabrotheeeer/entitlement-service/internal/http/handlers/entitlement/check"
	"github.com/magabrotheeeer/entitlement-service/internal/http/handlers/entitlement/consume"
	"github.com/magabrotheeeer/entitlement-service/internal/http/handlers/entitlement/list"
	"github.com/magabrotheeeer/entitlement-service/internal/http/handlers/health"
	"github.com/magabrotheeeer/entitlement-service/internal/http/handlers/payment/webhook"
	"github.com/magabrotheeeer/entitlement-service/internal/http/middlewarectx"
	"github.com/magabrotheeeer/entitlement-service/internal/lib/jwt"
	accessservice "github.com/magabrotheeeer/entitlement-service/internal/services/access"
	checkoutservice "github.com/magabrotheeeer/entitlement-service/internal/services/checkout"
	paymentservice "github.com/magabrotheeeer/entitlement-service/internal/services/payment"
)

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, jwtMaker jwt.Maker,
	accessService *accessservice.Service, checkoutService *checkoutservice.Service,
	paymentService *paymentservice.Service, webhookSecret string) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Get("/health", health.New(logger).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(jwtMaker, logger))
			r.Use(middlewarectx.RateLimitMiddleware(logger))
			r.Post("/entitlements/check", check.New(logger, accessService).ServeHTTP)
			r.Post("/entitlements/consume", consume.New(logger, accessService).ServeHTTP)
			r.Get("/entitlements/list", list.New(logger, accessService).ServeHTTP)
			r.Post("/checkout", checkoutcreate.New(logger, checkoutService).ServeHTTP)
			r.Post("/checkout/verify", checkoutverify.New(logger, paymentService).ServeHTTP)
		})

		// Webhook endpoint (без аутентификации, подлинность дает подпись)
		r.Post("/payments/webhook", webhook.New(logger, paymentService, webhookSecret).ServeHTTP)
	})

	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
