package models

import (
	"fmt"
	"time"
)

// Plan описывает фиксированный тариф для пары (сервис, тип подписки):
// цену в минорных единицах, количество сессий и срок действия.
// Таблица тарифов фиксируется на этапе сборки и не читается из конфига.
type Plan struct {
	ServiceType      string        // Сервис
	SubscriptionType string        // Тип подписки
	Amount           int64         // Цена в минорных единицах (кобо)
	Currency         string        // Валюта
	Sessions         int           // Количество сессий, выдаваемых при покупке
	TTL              time.Duration // Срок действия, 0 — бессрочно
	ProductName      string        // Название продукта для страницы оплаты
}

// Expiry возвращает дату окончания действия подписки, купленной в момент now,
// или nil для бессрочных тарифов.
func (p Plan) Expiry(now time.Time) *time.Time {
	if p.TTL == 0 {
		return nil
	}
	t := now.Add(p.TTL)
	return &t
}

// monthlyTTL — срок действия месячных пакетов.
const monthlyTTL = 30 * 24 * time.Hour

var plans = map[string]Plan{
	ServiceWellness + "/" + SubscriptionOneOff: {
		ServiceType:      ServiceWellness,
		SubscriptionType: SubscriptionOneOff,
		Amount:           500000,
		Currency:         "NGN",
		Sessions:         1,
		ProductName:      "Wellness Analysis - Single Session",
	},
	ServiceWellness + "/" + SubscriptionMonthly: {
		ServiceType:      ServiceWellness,
		SubscriptionType: SubscriptionMonthly,
		Amount:           1500000,
		Currency:         "NGN",
		Sessions:         4,
		TTL:              monthlyTTL,
		ProductName:      "Wellness Analysis - Monthly Package (4 sessions)",
	},
	ServiceAgro + "/" + SubscriptionOneOff: {
		ServiceType:      ServiceAgro,
		SubscriptionType: SubscriptionOneOff,
		Amount:           500000,
		Currency:         "NGN",
		Sessions:         1,
		ProductName:      "Agro Analysis - Single Section",
	},
	ServiceAgro + "/" + SubscriptionMonthly: {
		ServiceType:      ServiceAgro,
		SubscriptionType: SubscriptionMonthly,
		Amount:           1500000,
		Currency:         "NGN",
		Sessions:         5,
		TTL:              monthlyTTL,
		ProductName:      "Agro Analysis - Monthly Package (5 sections)",
	},
}

// PlanFor возвращает тариф для пары (serviceType, subscriptionType).
// Для неизвестной комбинации возвращает ошибку.
func PlanFor(serviceType, subscriptionType string) (Plan, error) {
	p, ok := plans[serviceType+"/"+subscriptionType]
	if !ok {
		return Plan{}, fmt.Errorf("unknown plan: %s/%s", serviceType, subscriptionType)
	}
	return p, nil
}
