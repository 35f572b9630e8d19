package entitlement

import (
	"context"
	"sync"
	"time"
)

// Notifier запускает ожидание подтверждения оплаты и сообщает о нем
// через callback. Стратегия подтверждения подключаемая: опрос сервиса,
// push от сервера или ручное обновление.
type Notifier interface {
	Start(ctx context.Context, onSettled func())
	Stop()
}

// Интервал и потолок опроса после открытия страницы оплаты.
const (
	defaultPollInterval = 3 * time.Second
	defaultPollCeiling  = 300 * time.Second
)

// PollingNotifier реализует Notifier периодическим опросом проверки доступа.
// Опрос останавливается после первого подтверждения или по достижении
// потолка. После остановки обращений к сети не происходит.
type PollingNotifier struct {
	checker  AccessChecker
	interval time.Duration
	ceiling  time.Duration

	mu      sync.Mutex
	cancel  context.CancelFunc
	stopped bool
}

// NewPollingNotifier создает PollingNotifier с интервалом 3 секунды
// и потолком 5 минут.
func NewPollingNotifier(checker AccessChecker) *PollingNotifier {
	return &PollingNotifier{
		checker:  checker,
		interval: defaultPollInterval,
		ceiling:  defaultPollCeiling,
	}
}

// Start запускает опрос. Callback вызывается один раз при первом
// подтверждении доступа. Повторный Start перезапускает опрос.
func (n *PollingNotifier) Start(ctx context.Context, onSettled func()) {
	n.Stop()

	ctx, cancel := context.WithCancel(ctx)
	deadline := time.Now().Add(n.ceiling)

	n.mu.Lock()
	n.cancel = cancel
	n.stopped = false
	n.mu.Unlock()

	go func() {
		ticker := time.NewTicker(n.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				if now.After(deadline) {
					n.Stop()
					return
				}
				result, err := n.checker.CheckAccess(ctx)
				if err != nil {
					continue
				}
				if result.HasAccess {
					n.Stop()
					onSettled()
					return
				}
			}
		}
	}()
}

// Stop прекращает опрос. Вызов идемпотентен.
func (n *PollingNotifier) Stop() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.stopped || n.cancel == nil {
		return
	}
	n.stopped = true
	n.cancel()
}
