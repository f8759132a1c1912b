package router

import (
	"net/http"
	"time"

	"github.com/rs/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	_ "agromarket/docs" // registra o documento OpenAPI
	"agromarket/internal/api/auth"
	"agromarket/internal/api/product"
	"agromarket/internal/pkg/cache"
	"agromarket/internal/pkg/logger"
	"agromarket/internal/pkg/middleware"
)

const (
	// ProductsPath é a base versionada da API de produtos.
	ProductsPath = "/api/v1/products"
	// LegacyProductsPath é o prefixo antigo, mantido como alias depreciado.
	LegacyProductsPath = "/products"
)

// Options reúne as dependências transversais do roteador.
// RateLimitStore nil desliga o rate limit.
type Options struct {
	Logger          logger.Logger
	Authenticator   middleware.Authenticator
	AllowedOrigins  []string
	RateLimitStore  cache.Client
	RateLimitMax    int
	RateLimitWindow time.Duration
}

// NewRouter configura e retorna o roteador HTTP principal.
// Recebe os Handlers já inicializados por injeção de dependências.
func NewRouter(productHandler *product.Handler, opts Options) http.Handler {
	mux := http.NewServeMux()

	// --- 1. Health Check e documentação ---
	mux.HandleFunc("GET /ping", PingHandler)
	mux.Handle("GET /swagger/", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	// --- 2. Rotas do Módulo de Produtos ---
	registerProductRoutes(mux, ProductsPath, productHandler, opts, nil)
	registerProductRoutes(mux, LegacyProductsPath, productHandler, opts, deprecated)

	// --- 3. Middlewares globais (o primeiro da lista é o mais externo) ---
	var handler http.Handler = mux
	if opts.RateLimitStore != nil {
		handler = middleware.RateLimiter(opts.RateLimitStore, opts.RateLimitMax, opts.RateLimitWindow, opts.Logger)(handler)
	}
	handler = newCORS(opts.AllowedOrigins).Handler(handler)
	handler = middleware.RequestLogger(opts.Logger)(handler)
	handler = middleware.Recovery(opts.Logger)(handler)

	return handler
}

// NewAuthRouter monta o roteador do serviço de autenticação local.
func NewAuthRouter(authHandler *auth.Handler, log logger.Logger) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ping", PingHandler)
	mux.HandleFunc("POST /auth/token", authHandler.IssueTokenHandler)
	mux.HandleFunc("GET /auth/validate-token", authHandler.ValidateTokenHandler)

	return middleware.Recovery(log)(middleware.RequestLogger(log)(mux))
}

func registerProductRoutes(mux *http.ServeMux, prefix string, h *product.Handler, opts Options, wrap func(http.HandlerFunc) http.HandlerFunc) {
	if wrap == nil {
		wrap = func(next http.HandlerFunc) http.HandlerFunc { return next }
	}
	guard := func(next middleware.AuthedHandler) http.HandlerFunc {
		return wrap(middleware.RequireAuth(opts.Authenticator, opts.Logger, next))
	}

	// Coleção: com e sem barra final.
	for _, collection := range []string{prefix, prefix + "/{$}"} {
		mux.HandleFunc("GET "+collection, wrap(h.ListProductsHandler))
		mux.HandleFunc("POST "+collection, guard(h.CreateProductHandler))
	}

	mux.HandleFunc("GET "+prefix+"/me", guard(h.GetMyProductsHandler))
	mux.HandleFunc("GET "+prefix+"/{id}", wrap(h.GetProductByIDHandler))
	mux.HandleFunc("PUT "+prefix+"/{id}", guard(h.UpdateProductHandler))
	mux.HandleFunc("PATCH "+prefix+"/{id}", guard(h.PatchProductHandler))
	mux.HandleFunc("DELETE "+prefix+"/{id}", guard(h.DeleteProductHandler))
}

// deprecated marca as respostas do prefixo antigo e aponta para a rota versionada.
func deprecated(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Deprecation", "true")
		w.Header().Set("Link", "<"+ProductsPath+">; rel=\"successor-version\"")
		next(w, r)
	}
}

func newCORS(origins []string) *cors.Cors {
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut,
			http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		ExposedHeaders: []string{middleware.RequestIDHeader, "X-RateLimit-Remaining", "Deprecation", "Link"},
	})
}

// PingHandler é uma função utilitária para o health check.
func PingHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("pong"))
}
