// Package dbconn memoizes the process-wide database handle.
//
// A Manager dials lazily on the first EnsureReady call and hands the same handle to every
// later caller. Concurrent callers that arrive while a dial is in flight wait for that dial
// instead of starting their own, so a burst of requests on a cold instance produces exactly
// one connection attempt. A failed attempt is not retried internally; the next caller dials again.
package dbconn

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/portalapi/portal-api/internal/repository"
)

// ErrUnavailable wraps every dial failure returned to callers.
var ErrUnavailable = errors.New("database unavailable")

// State is the lifecycle state of the managed handle.
type State int32

const (
	StateAbsent State = iota
	StateConnecting
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "absent"
	}
}

// Dialer opens a new store handle.
type Dialer func(ctx context.Context) (repository.Store, error)

// Observer is notified about dial outcomes and state transitions.
type Observer interface {
	DialFinished(err error, took time.Duration)
	StateChanged(s State)
}

// Manager owns the database handle and its state machine.
type Manager struct {
	dial        Dialer
	dialTimeout time.Duration
	observer    Observer

	group singleflight.Group
	dials atomic.Int64

	mu      sync.RWMutex
	state   State
	store   repository.Store
	lastErr error
}

// Option configures a Manager.
type Option func(*Manager)

// WithDialTimeout bounds a single dial attempt. Non-positive values keep the default.
func WithDialTimeout(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.dialTimeout = d
		}
	}
}

// WithObserver registers an observer for dials and state changes.
func WithObserver(o Observer) Option {
	return func(m *Manager) {
		m.observer = o
	}
}

// NewManager creates a Manager. No connection is made until EnsureReady is called.
func NewManager(dial Dialer, opts ...Option) *Manager {
	m := &Manager{
		dial:        dial,
		dialTimeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// EnsureReady returns the live store, dialing if necessary. Dial failures are wrapped in
// ErrUnavailable. If ctx ends first, the caller stops waiting but the shared dial continues.
func (m *Manager) EnsureReady(ctx context.Context) (repository.Store, error) {
	m.mu.RLock()
	if m.state == StateReady {
		store := m.store
		m.mu.RUnlock()
		return store, nil
	}
	m.mu.RUnlock()

	ch := m.group.DoChan("connect", m.connect)

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, fmt.Errorf("%w: %w", ErrUnavailable, res.Err)
		}
		return res.Val.(repository.Store), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (m *Manager) connect() (any, error) {
	m.mu.Lock()
	// A previous flight may have published a handle between our fast-path check and DoChan.
	if m.state == StateReady {
		store := m.store
		m.mu.Unlock()
		return store, nil
	}
	stale := m.store
	m.store = nil
	m.setState(StateConnecting)
	m.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), m.dialTimeout)
	defer cancel()

	if stale != nil {
		slog.Info("closing stale database handle")
		if err := stale.Close(ctx); err != nil {
			slog.Warn("closing stale database handle failed", "error", err)
		}
	}

	slog.Info("connecting to database")
	m.dials.Add(1)
	start := time.Now()
	store, err := m.dial(ctx)
	took := time.Since(start)
	if m.observer != nil {
		m.observer.DialFinished(err, took)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err != nil {
		slog.Error("database connection failed", "error", err, "duration", took)
		m.lastErr = err
		m.setState(StateFailed)
		return nil, err
	}

	slog.Info("database connected", "duration", took)
	m.store = store
	m.lastErr = nil
	m.setState(StateReady)
	return store, nil
}

// setState must be called with mu held.
func (m *Manager) setState(s State) {
	if m.state == s {
		return
	}
	m.state = s
	if m.observer != nil {
		m.observer.StateChanged(s)
	}
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// LastError returns the error of the most recent failed dial, if the manager is in StateFailed.
func (m *Manager) LastError() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastErr
}

// Dials returns how many dial attempts have been made.
func (m *Manager) Dials() int64 {
	return m.dials.Load()
}

// Invalidate marks a ready handle as failed so the next EnsureReady redials.
// The old handle is closed by that next dial.
func (m *Manager) Invalidate(cause error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateReady {
		return
	}
	slog.Warn("database handle invalidated", "error", cause)
	m.lastErr = cause
	m.setState(StateFailed)
}

// Close releases the handle. The manager can be reused afterwards; it will redial.
func (m *Manager) Close(ctx context.Context) error {
	m.mu.Lock()
	store := m.store
	m.store = nil
	m.setState(StateAbsent)
	m.mu.Unlock()

	if store == nil {
		return nil
	}
	return store.Close(ctx)
}
