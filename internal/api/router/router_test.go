package router_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agromarket/internal/api/product"
	"agromarket/internal/api/router"
	"agromarket/internal/domain"
	"agromarket/internal/pkg/cache"
	"agromarket/internal/pkg/logger"
	"agromarket/internal/repository/memoryrepo"
	"agromarket/internal/service/productservice"
)

type allowAll struct{}

func (allowAll) Validate(context.Context, string) (domain.Identity, error) {
	return domain.Identity{UserID: "farm1"}, nil
}

func newServer(opts router.Options) http.Handler {
	svc := productservice.NewService(memoryrepo.NewProductRepository(), logger.NewNop())
	opts.Logger = logger.NewNop()
	opts.Authenticator = allowAll{}
	if opts.AllowedOrigins == nil {
		opts.AllowedOrigins = []string{"http://localhost:5173"}
	}
	return router.NewRouter(product.NewHandler(svc, logger.NewNop()), opts)
}

func get(h http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestPing(t *testing.T) {
	rec := get(newServer(router.Options{}), "/ping")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pong", rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestLegacyPrefixIsDeprecatedAlias(t *testing.T) {
	h := newServer(router.Options{})

	legacy := get(h, "/products")
	current := get(h, "/api/v1/products")

	assert.Equal(t, http.StatusOK, legacy.Code)
	assert.Equal(t, "true", legacy.Header().Get("Deprecation"))
	assert.Contains(t, legacy.Header().Get("Link"), router.ProductsPath)
	assert.Equal(t, current.Body.String(), legacy.Body.String())
	assert.Empty(t, current.Header().Get("Deprecation"))

	assert.Equal(t, http.StatusNotFound, get(h, "/products/42").Code)
}

func TestMethodNotAllowed(t *testing.T) {
	h := newServer(router.Options{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/products/1", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	h := newServer(router.Options{})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/products", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPatch)
	req.Header.Set("Access-Control-Request-Headers", "Authorization")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))

	req.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimitWired(t *testing.T) {
	h := newServer(router.Options{
		RateLimitStore:  cache.NewMemoryClient(),
		RateLimitMax:    1,
		RateLimitWindow: time.Minute,
	})

	require.Equal(t, http.StatusOK, get(h, "/ping").Code)
	assert.Equal(t, http.StatusTooManyRequests, get(h, "/ping").Code)
}

func TestSwaggerDocServed(t *testing.T) {
	rec := get(newServer(router.Options{}), "/swagger/doc.json")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/api/v1/products/{id}")
}
