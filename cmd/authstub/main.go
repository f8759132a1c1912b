// Comando authstub sobe o serviço de autenticação local usado em desenvolvimento.
// Ele emite e valida os tokens consumidos pelo serviço de produtos via AUTH_SERVICE_URL.
package main

import (
	"context"
	"errors"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"agromarket/config"
	"agromarket/internal/api/auth"
	"agromarket/internal/api/router"
	"agromarket/internal/pkg/logger"
	"agromarket/internal/pkg/token"
)

func main() {
	if err := godotenv.Load(); err != nil {
		stdlog.Println("⚠️ Aviso: Arquivo .env não encontrado. Carregando configs apenas do ambiente do sistema.")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		stdlog.Fatalf("Falha ao carregar configuração: %v", err)
	}
	log := logger.New(logger.Options{Level: cfg.LogLevel, Development: true, File: cfg.LogFile})

	if cfg.SecretKey == config.DefaultSecretKey {
		log.Warn("SECRET_KEY não definido; tokens assinados com a chave padrão.", nil)
	}

	tokenSvc := token.NewService(cfg.SecretKey, cfg.TokenExpiry)
	handler := router.NewAuthRouter(auth.NewHandler(tokenSvc, log), log)

	server := &http.Server{
		Addr:         ":" + cfg.AuthStubPort,
		Handler:      handler,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("Auth stub ouvindo na porta", map[string]interface{}{"addr": server.Addr})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Auth stub falhou.", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error("Desligamento do auth stub forçado.", err)
	}
}
