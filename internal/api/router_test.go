package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/eldtechnologies/intake/internal/api/middleware"
	"github.com/eldtechnologies/intake/internal/config"
	"github.com/eldtechnologies/intake/internal/handlers"
	"github.com/eldtechnologies/intake/internal/models"
	"github.com/eldtechnologies/intake/internal/store"
	"github.com/eldtechnologies/intake/internal/web"
)

type memStore struct {
	mu     sync.Mutex
	nextID int64
	subs   []models.Submission
}

func (m *memStore) CreateSubmission(ctx context.Context, name, email, message string) (*models.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	sub := models.Submission{ID: m.nextID, Name: name, Email: email, Message: message, CreatedAt: time.Now().UTC()}
	m.subs = append(m.subs, sub)
	return &sub, nil
}

func (m *memStore) ListSubmissions(ctx context.Context, limit, offset int) ([]models.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Submission
	for i := len(m.subs) - 1 - offset; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.subs[i])
	}
	return out, nil
}

func (m *memStore) CountSubmissions(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.subs)), nil
}

func (m *memStore) Describe(ctx context.Context) ([]store.Column, error) { return nil, nil }
func (m *memStore) Ping(ctx context.Context) error                      { return nil }
func (m *memStore) Close()                                              {}

// newTestServer wires the full router the way cmd/server does, minus
// Redis, so requests cross every middleware in production order.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	cfg := &config.Config{Env: "development", CORSOrigins: []string{"*"}}

	mgr := store.NewManager(
		func(ctx context.Context) (store.Store, error) { return &memStore{}, nil },
		store.Options{Attempts: 1, Backoff: time.Millisecond},
		zerolog.Nop(),
	)
	require.NoError(t, mgr.Connect(context.Background()))
	t.Cleanup(mgr.Close)

	renderer, err := web.NewRenderer()
	require.NoError(t, err)

	h := handlers.NewHandler(mgr, nil, renderer, false, zerolog.Nop())
	srv := httptest.NewServer(NewRouter(cfg, zerolog.Nop(), h, nil))
	t.Cleanup(srv.Close)
	return srv
}

func TestRouterServesForm(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	require.Contains(t, resp.Header.Get("Content-Security-Policy"), "form-action 'self'")
	require.NotEmpty(t, resp.Cookies())
}

func TestRouterFormPostNeedsCSRF(t *testing.T) {
	srv := newTestServer(t)

	form := url.Values{"name": {"Ana"}, "email": {"ana@example.com"}}
	resp, err := http.Post(srv.URL+"/", "application/x-www-form-urlencoded",
		strings.NewReader(form.Encode()))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestRouterFormRoundTrip(t *testing.T) {
	srv := newTestServer(t)

	get, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	get.Body.Close()
	cookies := get.Cookies()
	var token string
	for _, c := range cookies {
		if c.Name == middleware.CSRFCookieName {
			token = c.Value
		}
	}
	require.NotEmpty(t, token)

	form := url.Values{
		"csrf_token": {token},
		"name":       {"Ana"},
		"email":      {"ana@example.com"},
		"message":    {"hello"},
	}
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/", strings.NewReader(form.Encode()))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range cookies {
		req.AddCookie(c)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// The admin table is open in development and shows the new row.
	list, err := http.Get(srv.URL + "/submissions")
	require.NoError(t, err)
	defer list.Body.Close()
	require.Equal(t, http.StatusOK, list.StatusCode)
}

func TestRouterFormRejectsJSONBody(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Post(srv.URL+"/", "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)
}

func TestRouterAPICreateSkipsCSRF(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Post(srv.URL+"/api/submissions", "application/json",
		strings.NewReader(`{"name":"Ana","email":"ana@example.com"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.Equal(t, "default-src 'none'", resp.Header.Get("Content-Security-Policy"))
}

func TestRouterAPICORSPreflight(t *testing.T) {
	srv := newTestServer(t)

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/api/submissions", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://example.org")
	req.Header.Set("Access-Control-Request-Method", "POST")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestRouterHealthAndMetrics(t *testing.T) {
	srv := newTestServer(t)

	for _, path := range []string{"/health", "/metrics"} {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode, path)
	}
}

func TestRouterNotFoundRendersErrorPage(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/nope")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.Contains(t, resp.Header.Get("Content-Type"), "text/html")
}
