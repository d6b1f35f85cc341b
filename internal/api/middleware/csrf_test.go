package middleware

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func okHandler() (http.Handler, *bool) {
	called := false
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}), &called
}

func TestEnsureCSRFCookieMintsOnce(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	token := EnsureCSRFCookie(rec, req, false)
	require.NotEmpty(t, token)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, CSRFCookieName, cookies[0].Name)
	require.Equal(t, token, cookies[0].Value)
	require.True(t, cookies[0].HttpOnly)

	// A request already carrying the cookie keeps its token.
	rec2 := httptest.NewRecorder()
	req2 := httptest.NewRequest(http.MethodGet, "/", nil)
	req2.AddCookie(cookies[0])
	require.Equal(t, token, EnsureCSRFCookie(rec2, req2, false))
	require.Empty(t, rec2.Result().Cookies())
}

func postForm(token string, cookie *http.Cookie) *http.Request {
	form := url.Values{}
	if token != "" {
		form.Set(CSRFFieldName, token)
	}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	return req
}

func TestRequireCSRFMatchingToken(t *testing.T) {
	next, called := okHandler()
	handler := RequireCSRF(zerolog.Nop())(next)

	cookie := &http.Cookie{Name: CSRFCookieName, Value: "tok-123"}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, postForm("tok-123", cookie))

	require.True(t, *called)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireCSRFRejects(t *testing.T) {
	cookie := &http.Cookie{Name: CSRFCookieName, Value: "tok-123"}

	cases := []struct {
		name string
		req  *http.Request
	}{
		{"missing cookie", postForm("tok-123", nil)},
		{"missing field", postForm("", cookie)},
		{"mismatched token", postForm("tok-456", cookie)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			next, called := okHandler()
			handler := RequireCSRF(zerolog.Nop())(next)

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, tc.req)

			require.False(t, *called)
			require.Equal(t, http.StatusForbidden, rec.Code)
		})
	}
}
