package slooze

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMiddleware(t *testing.T, opts ...MiddlewareOption) (*testFixture, *Middleware) {
	t.Helper()
	f := newTestFixture(t)
	return f, NewMiddleware(f.service, NewTokenVerifier(testSecret), opts...)
}

func decodeErrorBody(t *testing.T, rec *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var body errorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

// TestMiddlewareAuthenticate tests bearer token authentication
func TestMiddlewareAuthenticate(t *testing.T) {
	f, mw := newTestMiddleware(t)
	thor := f.thor()

	var seen Actor
	handler := mw.Authenticate()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = MustGetActor(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("valid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+tokenFor(t, thor.ID))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, thor, seen)
	})

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"wrong scheme", "Basic dGhvcjpwdw=="},
		{"bad token", "Bearer nope"},
		{"unknown actor", "Bearer " + tokenFor(t, "ghost")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, KindUnauthenticated, decodeErrorBody(t, rec).Error)
		})
	}
}

// TestMiddlewareRoleComesFromStore tests that a role claim in the token is ignored
func TestMiddlewareRoleComesFromStore(t *testing.T) {
	f, mw := newTestMiddleware(t)
	thor := f.thor()

	token := signToken(t, jwt.SigningMethodHS256, testSecret, &Claims{UserID: thor.ID, Role: "ADMIN"})
	handler := mw.Authenticate()(mw.RequireOperation(OpCreateRestaurant)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})))

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

// TestMiddlewareRequireOperation tests the operation gate
func TestMiddlewareRequireOperation(t *testing.T) {
	f, mw := newTestMiddleware(t)

	var checker *Checker
	handler := mw.RequireOperation(OpPayOrder)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		checker = FromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	serve := func(ctx context.Context) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/", nil).WithContext(ctx)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	rec := serve(WithActor(context.Background(), f.captainMarvel()))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	require.NotNil(t, checker)
	assert.Equal(t, f.captainMarvel().ID, checker.Actor().ID)

	rec = serve(WithActor(context.Background(), f.thor()))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	body := decodeErrorBody(t, rec)
	assert.Equal(t, KindForbidden, body.Error)

	rec = serve(context.Background())
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// TestMiddlewareLoadChecker tests the optional checker loader
func TestMiddlewareLoadChecker(t *testing.T) {
	f, mw := newTestMiddleware(t)

	var checker *Checker
	handler := mw.LoadChecker()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		checker = FromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)
	assert.Nil(t, checker)

	req = req.WithContext(WithActor(req.Context(), f.nickFury()))
	handler.ServeHTTP(httptest.NewRecorder(), req)
	require.NotNil(t, checker)
	assert.True(t, checker.Can(OpCreateRestaurant))
}

// TestMiddlewareInjectAuditContext tests request metadata extraction
func TestMiddlewareInjectAuditContext(t *testing.T) {
	_, mw := newTestMiddleware(t)

	var audit AuditContext
	handler := mw.InjectAuditContext()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		audit = GetAuditContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:1234"
	req.Header.Set("X-Forwarded-For", "203.0.113.9")
	req.Header.Set("X-Real-IP", "198.51.100.2")
	req.Header.Set("X-Request-ID", "req-abc")
	req.Header.Set("User-Agent", "tests")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, "192.0.2.1", audit.IPAddress, "forwarding headers from untrusted peers are ignored")
	assert.Equal(t, "req-abc", audit.RequestID)
	assert.Equal(t, "tests", audit.UserAgent)
	assert.Equal(t, "req-abc", rec.Header().Get("X-Request-ID"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:1234"
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, "192.0.2.1", audit.IPAddress)
	assert.NotEmpty(t, audit.RequestID)
	assert.Equal(t, audit.RequestID, rec.Header().Get("X-Request-ID"))
}

// TestMiddlewareTrustedProxies tests honoring forwarding headers from trusted peers
func TestMiddlewareTrustedProxies(t *testing.T) {
	proxies, err := ParseTrustedProxies([]string{"10.0.0.0/8", " 127.0.0.1 "})
	require.NoError(t, err)
	_, mw := newTestMiddleware(t, WithTrustedProxies(proxies...))

	var audit AuditContext
	handler := mw.InjectAuditContext()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		audit = GetAuditContext(r.Context())
	}))

	tests := []struct {
		name    string
		remote  string
		headers map[string]string
		want    string
	}{
		{"first forwarded hop", "10.1.2.3:443", map[string]string{"X-Forwarded-For": " 203.0.113.9 , 10.1.2.3"}, "203.0.113.9"},
		{"real ip fallback", "127.0.0.1:80", map[string]string{"X-Real-IP": "198.51.100.2"}, "198.51.100.2"},
		{"trusted peer without headers", "10.1.2.3:443", nil, "10.1.2.3"},
		{"untrusted peer", "192.0.2.1:1234", map[string]string{"X-Forwarded-For": "203.0.113.9"}, "192.0.2.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			handler.ServeHTTP(httptest.NewRecorder(), req)
			assert.Equal(t, tt.want, audit.IPAddress)
		})
	}

	_, err = ParseTrustedProxies([]string{"not-an-ip"})
	assert.Error(t, err)
}

// TestMiddlewareCustomOptions tests custom resolver and error handler
func TestMiddlewareCustomOptions(t *testing.T) {
	var handled error
	_, mw := newTestMiddleware(t,
		WithActorResolver(func(ctx context.Context, id string) (*Actor, error) {
			return nil, errors.New("directory unavailable")
		}),
		WithErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
			handled = err
			w.WriteHeader(http.StatusTeapot)
		}),
	)

	handler := mw.Authenticate()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tokenFor(t, "anyone"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.EqualError(t, handled, "directory unavailable")
}
