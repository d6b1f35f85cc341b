package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/eldtechnologies/intake/internal/models"
)

type fakeStore struct {
	mu        sync.Mutex
	nextID    int64
	subs      []models.Submission
	createErr error
	pingErr   error
	closed    bool
}

func (f *fakeStore) CreateSubmission(ctx context.Context, name, email, message string) (*models.Submission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.nextID++
	sub := models.Submission{ID: f.nextID, Name: name, Email: email, Message: message, CreatedAt: time.Now()}
	f.subs = append(f.subs, sub)
	return &sub, nil
}

func (f *fakeStore) ListSubmissions(ctx context.Context, limit, offset int) ([]models.Submission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Submission(nil), f.subs...), nil
}

func (f *fakeStore) CountSubmissions(ctx context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.subs)), nil
}

func (f *fakeStore) Describe(ctx context.Context) ([]Column, error) { return nil, nil }

func (f *fakeStore) Ping(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pingErr
}

func (f *fakeStore) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

func (f *fakeStore) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *fakeStore) setCreateErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createErr = err
}

// fakeDialer fails its first failures dials, then hands out fresh fake
// stores.
type fakeDialer struct {
	mu       sync.Mutex
	failures int
	dials    int
	stores   []*fakeStore
}

func (d *fakeDialer) open(ctx context.Context) (Store, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dials++
	if d.dials <= d.failures {
		return nil, fmt.Errorf("dial: %w: connection refused", ErrUnavailable)
	}
	st := &fakeStore{}
	d.stores = append(d.stores, st)
	return st, nil
}

func (d *fakeDialer) dialCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials
}

func newTestManager(d *fakeDialer, attempts int) *Manager {
	return NewManager(d.open, Options{Attempts: attempts, Backoff: time.Millisecond}, zerolog.Nop())
}

func TestConnectRetriesThenSucceeds(t *testing.T) {
	d := &fakeDialer{failures: 2}
	m := newTestManager(d, 5)

	require.NoError(t, m.Connect(context.Background()))
	require.Equal(t, 3, d.dialCount())
	require.Equal(t, StateConnected, m.State())
}

func TestConnectExhaustsAttempts(t *testing.T) {
	d := &fakeDialer{failures: 100}
	m := newTestManager(d, 3)

	err := m.Connect(context.Background())
	require.ErrorIs(t, err, ErrUnavailable)
	require.Equal(t, 3, d.dialCount())
	require.Equal(t, StateDisconnected, m.State())

	// No background reconnect: nothing dials until the next explicit
	// attempt.
	time.Sleep(20 * time.Millisecond)
	require.Equal(t, 3, d.dialCount())
	require.Equal(t, StateDisconnected, m.State())
}

func TestConnectionFailureDropsHandle(t *testing.T) {
	d := &fakeDialer{}
	m := newTestManager(d, 3)
	ctx := context.Background()

	require.NoError(t, m.Connect(ctx))
	first := d.stores[0]

	first.setCreateErr(fmt.Errorf("create: %w: broken pipe", ErrUnavailable))
	_, err := m.CreateSubmission(ctx, "Ana", "ana@example.com", "")
	require.ErrorIs(t, err, ErrUnavailable)
	require.Equal(t, StateDisconnected, m.State())
	require.Eventually(t, first.isClosed, time.Second, 5*time.Millisecond)

	// Next operation re-dials and succeeds against the fresh handle.
	sub, err := m.CreateSubmission(ctx, "Ana", "ana@example.com", "")
	require.NoError(t, err)
	require.Equal(t, int64(1), sub.ID)
	require.Equal(t, 2, d.dialCount())
	require.Equal(t, StateConnected, m.State())
}

func TestRejectedWriteKeepsConnection(t *testing.T) {
	d := &fakeDialer{}
	m := newTestManager(d, 3)
	ctx := context.Background()

	require.NoError(t, m.Connect(ctx))
	d.stores[0].setCreateErr(errors.New("value too long"))

	_, err := m.CreateSubmission(ctx, "Ana", "ana@example.com", "")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrUnavailable)
	require.Equal(t, StateConnected, m.State())
	require.Equal(t, 1, d.dialCount())
	require.False(t, d.stores[0].isClosed())
}

func TestReconnectIsSingleAttempt(t *testing.T) {
	d := &fakeDialer{}
	m := newTestManager(d, 5)
	ctx := context.Background()

	require.NoError(t, m.Connect(ctx))
	d.stores[0].setCreateErr(fmt.Errorf("create: %w: conn reset", ErrUnavailable))
	_, err := m.CreateSubmission(ctx, "Ana", "ana@example.com", "")
	require.ErrorIs(t, err, ErrUnavailable)

	// Make every further dial fail. An operation against the
	// disconnected manager tries once, not the full startup loop.
	d.mu.Lock()
	d.failures = 1000
	d.mu.Unlock()

	_, err = m.CreateSubmission(ctx, "Ana", "ana@example.com", "")
	require.ErrorIs(t, err, ErrUnavailable)
	require.Equal(t, 2, d.dialCount())
	require.Equal(t, StateDisconnected, m.State())
}

func TestPingReconnects(t *testing.T) {
	d := &fakeDialer{}
	m := newTestManager(d, 3)
	ctx := context.Background()

	require.NoError(t, m.Connect(ctx))
	d.stores[0].setCreateErr(fmt.Errorf("create: %w: gone", ErrUnavailable))
	_, _ = m.CreateSubmission(ctx, "Ana", "ana@example.com", "")
	require.Equal(t, StateDisconnected, m.State())

	require.NoError(t, m.Ping(ctx))
	require.Equal(t, StateConnected, m.State())
	require.Equal(t, 2, d.dialCount())
}

func TestConcurrentOperationsShareOneDial(t *testing.T) {
	d := &fakeDialer{}
	m := newTestManager(d, 3)
	ctx := context.Background()

	require.NoError(t, m.Connect(ctx))

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.CreateSubmission(ctx, "Ana", "ana@example.com", "hi")
			require.NoError(t, err)
		}()
	}
	wg.Wait()

	require.Equal(t, 1, d.dialCount())

	total, err := m.CountSubmissions(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(10), total)
}

func TestManagerDefaults(t *testing.T) {
	m := NewManager((&fakeDialer{}).open, Options{}, zerolog.Nop())
	require.Equal(t, 5, m.opts.Attempts)
	require.Equal(t, 2*time.Second, m.opts.Backoff)
	require.Equal(t, StateDisconnected, m.State())
}
