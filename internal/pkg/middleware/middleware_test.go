package middleware_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agromarket/internal/domain"
	apperror "agromarket/internal/errors"
	"agromarket/internal/pkg/cache"
	"agromarket/internal/pkg/logger"
	"agromarket/internal/pkg/middleware"
)

type fakeAuth struct {
	tokens map[string]domain.Identity
	seen   string
}

func (f *fakeAuth) Validate(_ context.Context, token string) (domain.Identity, error) {
	f.seen = token
	id, ok := f.tokens[token]
	if !ok {
		return domain.Identity{}, apperror.NewUnauthorizedError("Invalid token", "Auth service returned 401")
	}
	return id, nil
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func guarded(auth middleware.Authenticator) (http.HandlerFunc, *domain.Identity) {
	got := &domain.Identity{}
	h := middleware.RequireAuth(auth, logger.NewNop(), func(w http.ResponseWriter, r *http.Request, caller domain.Identity) {
		*got = caller
		w.WriteHeader(http.StatusNoContent)
	})
	return h, got
}

func TestRequireAuth_MissingOrMalformedHeader(t *testing.T) {
	auth := &fakeAuth{}
	h, _ := guarded(auth)

	for _, header := range []string{"", "Bearer", "Token abc", "Bearer a b", "abc"} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/products/me", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		h(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code, header)
		body := decodeBody(t, rec)
		assert.Equal(t, "Authorization token required", body["error"])
		assert.Equal(t, "Provide a Bearer token in the Authorization header", body["message"])
	}
	assert.Empty(t, auth.seen)
}

func TestRequireAuth_InvalidToken(t *testing.T) {
	h, _ := guarded(&fakeAuth{})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer nope")
	rec := httptest.NewRecorder()
	h(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Invalid token", body["error"])
	assert.Equal(t, "Auth service returned 401", body["message"])
}

func TestRequireAuth_PassesIdentity(t *testing.T) {
	auth := &fakeAuth{tokens: map[string]domain.Identity{"t1": {UserID: "farm1"}}}
	h, got := guarded(auth)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "bearer t1")
	rec := httptest.NewRecorder()
	h(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "t1", auth.seen)
	assert.Equal(t, "farm1", got.CallerFarmID())
}

func TestRateLimiter(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store := cache.NewMemoryClient()
	store.SetClock(func() time.Time { return now })

	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	h := middleware.RateLimiter(store, 2, time.Minute, logger.NewNop())(ok)

	call := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/products/", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	first := call()
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "1", first.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, http.StatusOK, call().Code)

	blocked := call()
	assert.Equal(t, http.StatusTooManyRequests, blocked.Code)
	assert.Equal(t, "0", blocked.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, "Rate limit exceeded", decodeBody(t, blocked)["error"])

	now = now.Add(time.Minute)
	assert.Equal(t, http.StatusOK, call().Code)
}

type downCache struct{ cache.Client }

func (downCache) Incr(context.Context, string, time.Duration) (int64, error) {
	return 0, assert.AnError
}

func TestRateLimiter_FailOpen(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	h := middleware.RateLimiter(downCache{}, 1, time.Minute, logger.NewNop())(ok)

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestRequestLogger_SetsRequestID(t *testing.T) {
	h := middleware.RequestLogger(logger.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("pong"))
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Len(t, rec.Header().Get(middleware.RequestIDHeader), 36)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(middleware.RequestIDHeader, "abc-123")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(middleware.RequestIDHeader))
}

func TestRecovery(t *testing.T) {
	h := middleware.Recovery(logger.NewNop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal server error", decodeBody(t, rec)["error"])
}
