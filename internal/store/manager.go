package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/eldtechnologies/intake/internal/metrics"
	"github.com/eldtechnologies/intake/internal/models"
)

// State is the manager's view of store connectivity.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// OpenFunc dials a backend store.
type OpenFunc func(ctx context.Context) (Store, error)

// Options tune the startup connection loop.
type Options struct {
	Attempts int           // dial attempts before Connect gives up
	Backoff  time.Duration // fixed delay between attempts
}

// Manager owns the lifecycle of a backend store handle. Startup connects
// with bounded retries; a connection-class failure during use drops the
// handle and the next operation re-dials exactly once. There is no
// background reconnect loop, so an exhausted Connect leaves the manager
// disconnected until something asks for the store again.
//
// Manager implements Store and is safe for concurrent use.
type Manager struct {
	open   OpenFunc
	opts   Options
	logger zerolog.Logger

	mu    sync.Mutex // guards handle and state transitions
	store Store
	state atomic.Int32 // read lock-free by State and the health probe
}

// NewManager wraps open with connection lifecycle handling.
func NewManager(open OpenFunc, opts Options, logger zerolog.Logger) *Manager {
	if opts.Attempts < 1 {
		opts.Attempts = 5
	}
	if opts.Backoff <= 0 {
		opts.Backoff = 2 * time.Second
	}
	return &Manager{open: open, opts: opts, logger: logger}
}

// State reports the current connection state without blocking on any dial
// in progress.
func (m *Manager) State() State {
	return State(m.state.Load())
}

func (m *Manager) setState(s State) {
	m.state.Store(int32(s))
	metrics.StoreState.Set(float64(s))
}

// Connect dials the store, retrying up to Options.Attempts times with a
// fixed backoff. After the attempts are exhausted the manager stays
// disconnected and the returned error wraps ErrUnavailable; it never flips
// to connected without another explicit attempt.
func (m *Manager) Connect(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.store != nil {
		return nil
	}

	m.setState(StateConnecting)
	var lastErr error
	for attempt := 1; attempt <= m.opts.Attempts; attempt++ {
		st, err := m.open(ctx)
		if err == nil {
			m.store = st
			m.setState(StateConnected)
			m.logger.Info().Int("attempt", attempt).Msg("store connected")
			return nil
		}
		lastErr = err
		m.logger.Warn().
			Err(err).
			Int("attempt", attempt).
			Int("max_attempts", m.opts.Attempts).
			Msg("store connection failed")

		if attempt == m.opts.Attempts {
			break
		}
		select {
		case <-ctx.Done():
			m.setState(StateDisconnected)
			return fmt.Errorf("connect: %w: %v", ErrUnavailable, ctx.Err())
		case <-time.After(m.opts.Backoff):
		}
	}

	m.setState(StateDisconnected)
	return fmt.Errorf("connect: %w: %v", ErrUnavailable, lastErr)
}

// acquire returns the live store handle. When a previous failure left the
// manager disconnected it re-dials exactly once; requests never sit out the
// full startup retry loop.
func (m *Manager) acquire(ctx context.Context) (Store, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.store != nil {
		return m.store, nil
	}

	m.setState(StateConnecting)
	st, err := m.open(ctx)
	if err != nil {
		m.setState(StateDisconnected)
		return nil, fmt.Errorf("reconnect: %w: %v", ErrUnavailable, err)
	}
	m.store = st
	m.setState(StateConnected)
	m.logger.Info().Msg("store reconnected")
	return st, nil
}

// observe drops the handle when an operation failed at the connection
// level, so the next call re-dials. Rejected operations on a reachable
// store leave the connection alone.
func (m *Manager) observe(err error) {
	if err == nil || !errors.Is(err, ErrUnavailable) {
		return
	}

	m.mu.Lock()
	old := m.store
	m.store = nil
	m.setState(StateDisconnected)
	m.mu.Unlock()

	if old != nil {
		m.logger.Warn().Err(err).Msg("store connection lost")
		// Close outside the lock; a pool close can wait on in-flight work.
		go old.Close()
	}
}

// CreateSubmission implements Store.
func (m *Manager) CreateSubmission(ctx context.Context, name, email, message string) (*models.Submission, error) {
	st, err := m.acquire(ctx)
	if err != nil {
		return nil, err
	}
	timer := prometheus.NewTimer(metrics.StoreLatency.WithLabelValues("create"))
	sub, err := st.CreateSubmission(ctx, name, email, message)
	timer.ObserveDuration()
	m.observe(err)
	return sub, err
}

// ListSubmissions implements Store.
func (m *Manager) ListSubmissions(ctx context.Context, limit, offset int) ([]models.Submission, error) {
	st, err := m.acquire(ctx)
	if err != nil {
		return nil, err
	}
	timer := prometheus.NewTimer(metrics.StoreLatency.WithLabelValues("list"))
	subs, err := st.ListSubmissions(ctx, limit, offset)
	timer.ObserveDuration()
	m.observe(err)
	return subs, err
}

// CountSubmissions implements Store.
func (m *Manager) CountSubmissions(ctx context.Context) (int64, error) {
	st, err := m.acquire(ctx)
	if err != nil {
		return 0, err
	}
	timer := prometheus.NewTimer(metrics.StoreLatency.WithLabelValues("count"))
	total, err := st.CountSubmissions(ctx)
	timer.ObserveDuration()
	m.observe(err)
	return total, err
}

// Describe implements Store.
func (m *Manager) Describe(ctx context.Context) ([]Column, error) {
	st, err := m.acquire(ctx)
	if err != nil {
		return nil, err
	}
	cols, err := st.Describe(ctx)
	m.observe(err)
	return cols, err
}

// Ping implements Store. A probe against a disconnected manager counts as
// an acquisition and so performs the single re-dial.
func (m *Manager) Ping(ctx context.Context) error {
	st, err := m.acquire(ctx)
	if err != nil {
		return err
	}
	err = st.Ping(ctx)
	m.observe(err)
	return err
}

// Close releases the underlying store, if any.
func (m *Manager) Close() {
	m.mu.Lock()
	old := m.store
	m.store = nil
	m.setState(StateDisconnected)
	m.mu.Unlock()

	if old != nil {
		old.Close()
	}
}
