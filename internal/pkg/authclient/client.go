package authclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/guonaihong/gout"
	"github.com/spf13/cast"

	"agromarket/internal/domain"
	apperror "agromarket/internal/errors"
	"agromarket/internal/pkg/logger"
)

// DefaultTimeout é o limite de espera pelo serviço de autenticação.
const DefaultTimeout = 5 * time.Second

// Client valida tokens Bearer contra o endpoint externo de validação.
type Client struct {
	url     string
	timeout time.Duration
	logger  logger.Logger
}

func NewClient(url string, timeout time.Duration, log logger.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{url: url, timeout: timeout, logger: log}
}

// Validate consulta o serviço de autenticação. Qualquer falha (rede, status
// diferente de 200, corpo ilegível ou valid != true) vira UnauthorizedError.
func (c *Client) Validate(ctx context.Context, token string) (domain.Identity, error) {
	var (
		body string
		code int
	)

	err := gout.GET(c.url).
		WithContext(ctx).
		SetTimeout(c.timeout).
		SetHeader(gout.H{
			"Authorization": "Bearer " + token,
			"Content-Type":  "application/json",
		}).
		BindBody(&body).
		Code(&code).
		Do()
	if err != nil {
		c.logger.Warn("Serviço de autenticação indisponível.", map[string]interface{}{"url": c.url, "error": err.Error()})
		return domain.Identity{}, invalid(fmt.Sprintf("Auth service unavailable: %v", err))
	}

	if code != http.StatusOK {
		c.logger.Debug("Token recusado pelo serviço de autenticação.", map[string]interface{}{"status": code})
		return domain.Identity{}, invalid(fmt.Sprintf("Auth service returned %d", code))
	}

	claims := map[string]any{}
	dec := json.NewDecoder(strings.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&claims); err != nil {
		return domain.Identity{}, invalid("Auth service returned an unreadable response")
	}

	if valid, _ := claims["valid"].(bool); !valid {
		reason := cast.ToString(claims["error"])
		if reason == "" {
			reason = "Invalid token"
		}
		return domain.Identity{}, invalid(reason)
	}

	return domain.Identity{
		UserID: cast.ToString(claims["user_id"]),
		FarmID: cast.ToString(claims["farm_id"]),
		Claims: claims,
	}, nil
}

func invalid(reason string) error {
	return apperror.NewUnauthorizedError("Invalid token", reason)
}
