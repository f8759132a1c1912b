package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DefaultSecretKey é o valor usado quando SECRET_KEY não é definido.
const DefaultSecretKey = "fallback-secret"

// Config armazena todas as configurações do serviço de produtos.
type Config struct {
	// Geral
	Port        string
	Environment string
	Debug       bool
	LogLevel    string
	LogFile     string

	// Banco de Dados
	DatabaseURL string
	DBTimeout   time.Duration
	AutoMigrate bool

	// Segurança / Autenticação externa
	SecretKey      string
	AuthServiceURL string
	AuthTimeout    time.Duration
	TokenExpiry    time.Duration
	AuthStubPort   string

	// Cache e Rate Limiting (Redis). RedisAddr vazio desliga ambos.
	RedisAddr            string
	CacheTTL             time.Duration
	RateLimitMaxRequests int
	RateLimitPeriod      time.Duration

	// CORS
	CORSAllowedOrigins []string
}

// IsDevelopment indica ambiente de desenvolvimento.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// LoadConfig lê as configurações das variáveis de ambiente (e de um config.yaml
// opcional no diretório atual). Variáveis de ambiente têm precedência.
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	setDefaults(v)
	if err := bindEnvs(v); err != nil {
		return nil, err
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("falha ao ler config.yaml: %w", err)
		}
	}

	cfg := &Config{
		Port:        v.GetString("port"),
		Environment: strings.ToLower(v.GetString("environment")),
		Debug:       v.GetBool("debug"),
		LogLevel:    v.GetString("log_level"),
		LogFile:     v.GetString("log_file"),

		DatabaseURL: v.GetString("database_url"),
		DBTimeout:   time.Duration(v.GetInt("db_timeout_sec")) * time.Second,
		AutoMigrate: v.GetBool("auto_migrate"),

		SecretKey:      v.GetString("secret_key"),
		AuthServiceURL: v.GetString("auth_service_url"),
		AuthTimeout:    time.Duration(v.GetInt("auth_timeout_sec")) * time.Second,
		TokenExpiry:    time.Duration(v.GetInt("token_expiry_min")) * time.Minute,
		AuthStubPort:   v.GetString("authstub_port"),

		RedisAddr:            v.GetString("redis_addr"),
		CacheTTL:             time.Duration(v.GetInt("cache_ttl_sec")) * time.Second,
		RateLimitMaxRequests: v.GetInt("rate_limit_max_requests"),
		RateLimitPeriod:      time.Duration(v.GetInt("rate_limit_period_min")) * time.Minute,

		CORSAllowedOrigins: splitList(v.GetString("cors_allowed_origins")),
	}

	if cfg.Debug {
		cfg.LogLevel = "debug"
	}
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		cfg.DatabaseURL = v.GetString("database_url_fallback")
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "5000")
	v.SetDefault("environment", "production")
	v.SetDefault("debug", false)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_file", "")

	v.SetDefault("database_url_fallback", "sqlite://products.db")
	v.SetDefault("database_url", "")
	v.SetDefault("db_timeout_sec", 5)
	v.SetDefault("auto_migrate", true)

	v.SetDefault("secret_key", DefaultSecretKey)
	v.SetDefault("auth_service_url", "http://localhost:5001/auth/validate-token")
	v.SetDefault("auth_timeout_sec", 5)
	v.SetDefault("token_expiry_min", 60)
	v.SetDefault("authstub_port", "5001")

	v.SetDefault("redis_addr", "")
	v.SetDefault("cache_ttl_sec", 300)
	v.SetDefault("rate_limit_max_requests", 100)
	v.SetDefault("rate_limit_period_min", 1)

	v.SetDefault("cors_allowed_origins", "http://localhost:5173")
}

// bindEnvs associa cada chave às suas variáveis de ambiente.
// As variantes FLASK_* são aceitas por compatibilidade com o deploy anterior.
func bindEnvs(v *viper.Viper) error {
	bindings := map[string][]string{
		"port":                    {"PORT"},
		"environment":             {"APP_ENV", "FLASK_ENV"},
		"debug":                   {"APP_DEBUG", "FLASK_DEBUG"},
		"log_level":               {"LOG_LEVEL"},
		"log_file":                {"LOG_FILE"},
		"database_url":            {"DATABASE_URL"},
		"db_timeout_sec":          {"DB_TIMEOUT_SEC"},
		"auto_migrate":            {"AUTO_MIGRATE"},
		"secret_key":              {"SECRET_KEY"},
		"auth_service_url":        {"AUTH_SERVICE_URL"},
		"auth_timeout_sec":        {"AUTH_TIMEOUT_SEC"},
		"token_expiry_min":        {"TOKEN_EXPIRY_MIN"},
		"authstub_port":           {"AUTHSTUB_PORT"},
		"redis_addr":              {"REDIS_ADDR"},
		"cache_ttl_sec":           {"CACHE_TTL_SEC"},
		"rate_limit_max_requests": {"RATE_LIMIT_MAX_REQUESTS"},
		"rate_limit_period_min":   {"RATE_LIMIT_PERIOD_MIN"},
		"cors_allowed_origins":    {"CORS_ALLOWED_ORIGINS"},
	}

	for key, envs := range bindings {
		args := append([]string{key}, envs...)
		if err := v.BindEnv(args...); err != nil {
			return fmt.Errorf("falha ao associar variável %s: %w", key, err)
		}
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
