// Package metrics содержит доменные метрики Prometheus сервиса entitlements.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// EntitlementMetrics — счетчики основных операций сервиса.
type EntitlementMetrics struct {
	AccessChecks     *prometheus.CounterVec // результаты проверок доступа, label result: granted|denied
	CheckoutsCreated *prometheus.CounterVec // созданные checkout сессии, labels service, plan
	Activations      *prometheus.CounterVec // активации подписок, label source: webhook|verify
	SessionsConsumed *prometheus.CounterVec // списанные сессии, label service
}

// New регистрирует метрики в registry и возвращает их.
func New(registry prometheus.Registerer) *EntitlementMetrics {
	return &EntitlementMetrics{
		AccessChecks: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "entitlement_access_checks_total",
				Help: "The total number of access checks by result",
			},
			[]string{"service", "result"},
		),
		CheckoutsCreated: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "entitlement_checkouts_created_total",
				Help: "The total number of created checkout sessions",
			},
			[]string{"service", "plan"},
		),
		Activations: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "entitlement_activations_total",
				Help: "The total number of subscription activations by source",
			},
			[]string{"service", "source"},
		),
		SessionsConsumed: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "entitlement_sessions_consumed_total",
				Help: "The total number of consumed sessions",
			},
			[]string{"service"},
		),
	}
}
