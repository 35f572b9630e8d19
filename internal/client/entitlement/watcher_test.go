package entitlement

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/entitlement-service/internal/models"
)

// checkerStub — управляемая реализация AccessChecker для тестов.
type checkerStub struct {
	mu          sync.Mutex
	result      *models.AccessResult
	err         error
	token       string
	serviceType string
	calls       int
}

func (c *checkerStub) CheckAccess(_ context.Context) (*models.AccessResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return c.result, nil
}

func (c *checkerStub) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

func (c *checkerStub) SetServiceType(serviceType string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.serviceType = serviceType
}

func (c *checkerStub) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func (c *checkerStub) setResult(result *models.AccessResult, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.result = result
	c.err = err
}

func TestWatcher_InitialState(t *testing.T) {
	w := NewWatcher(&checkerStub{})
	assert.Equal(t, StateUninitialized, w.Current().State)
	assert.False(t, w.Current().HasAccess)
}

func TestWatcher_SetIdentity(t *testing.T) {
	t.Run("токен с действующей подпиской дает granted", func(t *testing.T) {
		checker := &checkerStub{result: &models.AccessResult{
			HasAccess:    true,
			Subscription: &models.Summary{ID: "sub-1", SessionsRemaining: 4},
		}}
		w := NewWatcher(checker)

		snap := w.SetIdentity(context.Background(), "token-1")

		assert.Equal(t, StateGranted, snap.State)
		assert.True(t, snap.HasAccess)
		require.NotNil(t, snap.Subscription)
		assert.Equal(t, "sub-1", snap.Subscription.ID)
		assert.Equal(t, "token-1", checker.token)
	})

	t.Run("токен без подписки дает denied", func(t *testing.T) {
		checker := &checkerStub{result: &models.AccessResult{HasAccess: false}}
		w := NewWatcher(checker)

		snap := w.SetIdentity(context.Background(), "token-1")

		assert.Equal(t, StateDenied, snap.State)
		assert.False(t, snap.HasAccess)
	})

	t.Run("пустой токен сбрасывает состояние без похода в сеть", func(t *testing.T) {
		checker := &checkerStub{result: &models.AccessResult{HasAccess: true}}
		w := NewWatcher(checker)
		w.SetIdentity(context.Background(), "token-1")
		require.Equal(t, StateGranted, w.Current().State)

		snap := w.SetIdentity(context.Background(), "")

		assert.Equal(t, StateDenied, snap.State)
		assert.False(t, snap.HasAccess)
		assert.Equal(t, "", checker.token)
		assert.Equal(t, 1, checker.callCount())
	})

	t.Run("ошибка проверки дает error с запретом доступа", func(t *testing.T) {
		checker := &checkerStub{err: errors.New("connection refused")}
		w := NewWatcher(checker)

		snap := w.SetIdentity(context.Background(), "token-1")

		assert.Equal(t, StateError, snap.State)
		assert.False(t, snap.HasAccess)
		assert.ErrorContains(t, snap.Err, "connection refused")
	})
}

func TestWatcher_SetServiceType(t *testing.T) {
	checker := &checkerStub{result: &models.AccessResult{HasAccess: true}}
	w := NewWatcher(checker)
	w.SetIdentity(context.Background(), "token-1")
	require.Equal(t, StateGranted, w.Current().State)

	checker.setResult(&models.AccessResult{HasAccess: false}, nil)

	snap := w.SetServiceType(context.Background(), models.ServiceAgro)

	assert.Equal(t, StateDenied, snap.State)
	assert.Equal(t, models.ServiceAgro, checker.serviceType)
	assert.Equal(t, 2, checker.callCount())
}

func TestWatcher_RefreshAccess(t *testing.T) {
	checker := &checkerStub{result: &models.AccessResult{HasAccess: false}}
	w := NewWatcher(checker)
	w.SetIdentity(context.Background(), "token-1")
	require.Equal(t, StateDenied, w.Current().State)

	checker.setResult(&models.AccessResult{
		HasAccess:    true,
		Subscription: &models.Summary{ID: "sub-1"},
	}, nil)

	snap := w.RefreshAccess(context.Background())

	assert.Equal(t, StateGranted, snap.State)
	assert.True(t, snap.HasAccess)
}

func TestPollingNotifier_StopsAfterFirstSuccess(t *testing.T) {
	checker := &checkerStub{result: &models.AccessResult{HasAccess: false}}

	n := NewPollingNotifier(checker)
	n.interval = 5 * time.Millisecond
	n.ceiling = time.Second

	settled := make(chan struct{})
	n.Start(context.Background(), func() { close(settled) })

	// Несколько отказов, затем подтверждение.
	time.Sleep(20 * time.Millisecond)
	checker.setResult(&models.AccessResult{HasAccess: true}, nil)

	select {
	case <-settled:
	case <-time.After(time.Second):
		t.Fatal("callback was not invoked")
	}

	callsAtStop := checker.callCount()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, callsAtStop, checker.callCount(), "poller must not call the network after success")
}

func TestPollingNotifier_StopsAtCeiling(t *testing.T) {
	checker := &checkerStub{result: &models.AccessResult{HasAccess: false}}

	n := NewPollingNotifier(checker)
	n.interval = 5 * time.Millisecond
	n.ceiling = 30 * time.Millisecond

	called := false
	n.Start(context.Background(), func() { called = true })

	time.Sleep(100 * time.Millisecond)
	callsAtCeiling := checker.callCount()
	time.Sleep(50 * time.Millisecond)

	assert.False(t, called, "callback must not fire without access")
	assert.Equal(t, callsAtCeiling, checker.callCount(), "poller must stop at the ceiling")
}

func TestPollingNotifier_StopIsIdempotent(t *testing.T) {
	checker := &checkerStub{result: &models.AccessResult{HasAccess: false}}

	n := NewPollingNotifier(checker)
	n.interval = 5 * time.Millisecond
	n.ceiling = time.Second

	n.Start(context.Background(), func() {})
	n.Stop()
	n.Stop()

	calls := checker.callCount()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, calls, checker.callCount())
}
