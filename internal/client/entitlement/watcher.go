package entitlement

import (
	"context"
	"sync"

	"github.com/magabrotheeeer/entitlement-service/internal/models"
)

// State — состояние наблюдателя доступа.
type State string

const (
	// StateUninitialized — личность пользователя еще не задана.
	StateUninitialized State = "uninitialized"
	// StateLoading — проверка доступа выполняется.
	StateLoading State = "loading"
	// StateGranted — у пользователя есть действующая подписка.
	StateGranted State = "granted"
	// StateDenied — действующей подписки нет.
	StateDenied State = "denied"
	// StateError — последняя проверка завершилась ошибкой.
	StateError State = "error"
)

// AccessChecker описывает источник проверки доступа для наблюдателя.
type AccessChecker interface {
	CheckAccess(ctx context.Context) (*models.AccessResult, error)
	SetToken(token string)
	SetServiceType(serviceType string)
}

// Snapshot — неизменяемый срез состояния наблюдателя.
type Snapshot struct {
	State        State
	HasAccess    bool
	Subscription *models.Summary
	Err          error
}

// Watcher отслеживает доступ пользователя к сервису: хранит текущее
// состояние и обновляет его по запросу. Состояние живет только в памяти
// и сбрасывается при смене личности пользователя.
type Watcher struct {
	checker AccessChecker

	mu   sync.Mutex
	snap Snapshot
}

// NewWatcher создает наблюдатель в состоянии uninitialized.
func NewWatcher(checker AccessChecker) *Watcher {
	return &Watcher{
		checker: checker,
		snap:    Snapshot{State: StateUninitialized},
	}
}

// SetIdentity задает токен пользователя и выполняет проверку доступа.
// Пустой токен означает выход пользователя: состояние сбрасывается
// в denied без обращения к сети.
func (w *Watcher) SetIdentity(ctx context.Context, token string) Snapshot {
	w.checker.SetToken(token)
	if token == "" {
		w.mu.Lock()
		w.snap = Snapshot{State: StateDenied}
		snap := w.snap
		w.mu.Unlock()
		return snap
	}
	return w.RefreshAccess(ctx)
}

// SetServiceType меняет проверяемый сервис и повторяет проверку доступа.
func (w *Watcher) SetServiceType(ctx context.Context, serviceType string) Snapshot {
	w.checker.SetServiceType(serviceType)
	return w.RefreshAccess(ctx)
}

// RefreshAccess повторяет проверку доступа и возвращает новое состояние.
// При ошибке проверки доступ принудительно считается отсутствующим,
// текст ошибки сохраняется в срезе состояния.
func (w *Watcher) RefreshAccess(ctx context.Context) Snapshot {
	w.mu.Lock()
	w.snap.State = StateLoading
	w.mu.Unlock()

	result, err := w.checker.CheckAccess(ctx)

	w.mu.Lock()
	defer w.mu.Unlock()
	if err != nil {
		w.snap = Snapshot{State: StateError, HasAccess: false, Err: err}
		return w.snap
	}
	if result.HasAccess {
		w.snap = Snapshot{State: StateGranted, HasAccess: true, Subscription: result.Subscription}
	} else {
		w.snap = Snapshot{State: StateDenied}
	}
	return w.snap
}

// Current возвращает текущий срез состояния.
func (w *Watcher) Current() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snap
}
