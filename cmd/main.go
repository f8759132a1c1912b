package main

import (
	"context"
	"errors"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"agromarket/config"
	"agromarket/internal/api/product"
	"agromarket/internal/api/router"
	"agromarket/internal/domain"
	"agromarket/internal/pkg/authclient"
	"agromarket/internal/pkg/cache"
	"agromarket/internal/pkg/database"
	"agromarket/internal/pkg/logger"
	"agromarket/internal/repository/cachedrepo"
	"agromarket/internal/repository/memoryrepo"
	"agromarket/internal/repository/productrepo"
	"agromarket/internal/service/productservice"
)

// memoryURL seleciona o repositório em memória (sem persistência).
const memoryURL = "memory://"

// @title AgroMarket Products API
// @version 1.0
// @description Catálogo de produtos agrícolas por fazenda.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	stdlog.Println("⚡ Inicializando serviço AgroMarket...")
	if err := godotenv.Load(); err != nil {
		stdlog.Println("⚠️ Aviso: Arquivo .env não encontrado. Carregando configs apenas do ambiente do sistema.")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		stdlog.Fatalf("Falha ao carregar configuração: %v", err)
	}

	log := logger.New(logger.Options{Level: cfg.LogLevel, Development: cfg.IsDevelopment(), File: cfg.LogFile})
	defer syncLogger(log)
	log.Info("Configurações carregadas.", map[string]interface{}{"env": cfg.Environment, "port": cfg.Port})

	if cfg.SecretKey == config.DefaultSecretKey && !cfg.IsDevelopment() {
		log.Warn("SECRET_KEY não definido; usando valor padrão inseguro.", nil)
	}

	// 1. Persistência
	repo, closeRepo, err := buildRepository(cfg, log)
	if err != nil {
		log.Fatal("Falha ao inicializar o repositório.", err)
	}
	defer closeRepo()

	// 2. Cache e Rate Limiting (opcionais)
	var cacheClient cache.Client
	if cfg.RedisAddr != "" {
		cacheClient, err = cache.NewRedisClient(cfg.RedisAddr)
		if err != nil {
			log.Warn("Redis indisponível; cache e rate limit desligados.", map[string]interface{}{"addr": cfg.RedisAddr, "error": err.Error()})
			cacheClient = nil
		} else {
			defer cacheClient.Close()
			repo = cachedrepo.NewProductRepository(repo, cacheClient, cfg.CacheTTL, log)
			log.Info("Conexão Redis estabelecida.", map[string]interface{}{"addr": cfg.RedisAddr})
		}
	}

	// 3. Injeção de dependências: Repository -> Service -> Handler
	productSvc := productservice.NewService(repo, log)
	productHandler := product.NewHandler(productSvc, log)
	authClient := authclient.NewClient(cfg.AuthServiceURL, cfg.AuthTimeout, log)

	handler := router.NewRouter(productHandler, router.Options{
		Logger:          log,
		Authenticator:   authClient,
		AllowedOrigins:  cfg.CORSAllowedOrigins,
		RateLimitStore:  cacheClient,
		RateLimitMax:    cfg.RateLimitMaxRequests,
		RateLimitWindow: cfg.RateLimitPeriod,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serve(server, log)
}

// buildRepository escolhe o adapter pela URL do banco.
func buildRepository(cfg *config.Config, log logger.Logger) (domain.ProductRepository, func(), error) {
	if strings.HasPrefix(cfg.DatabaseURL, memoryURL) {
		log.Warn("Usando repositório em memória; os dados não serão persistidos.", nil)
		return memoryrepo.NewProductRepository(), func() {}, nil
	}

	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	log.Info("Conexão com banco de dados estabelecida.", map[string]interface{}{"driver": db.DriverName()})

	if cfg.AutoMigrate {
		if err := database.Migrate(db); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		log.Info("Migrações aplicadas.", nil)
	}

	closeDB := func() {
		if err := db.Close(); err != nil {
			log.Error("Falha ao fechar o banco de dados.", err)
		}
	}
	return productrepo.NewProductRepository(db, cfg.DBTimeout, log), closeDB, nil
}

// serve inicia o servidor e faz o graceful shutdown em SIGINT/SIGTERM.
func serve(server *http.Server, log logger.Logger) {
	go func() {
		log.Info("Servidor ouvindo na porta", map[string]interface{}{"addr": server.Addr})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Servidor falhou.", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Sinal de encerramento recebido. Desligando servidor...", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("Desligamento do servidor forçado.", err)
	}
	log.Info("Servidor encerrado com sucesso.", nil)
}

func syncLogger(log logger.Logger) {
	if s, ok := log.(interface{ Sync() error }); ok {
		_ = s.Sync()
	}
}
