package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"agromarket/internal/domain"
	apperror "agromarket/internal/errors"
	"agromarket/internal/pkg/logger"
)

// Authenticator define o contrato de validação de token usado pelo guard.
type Authenticator interface {
	Validate(ctx context.Context, token string) (domain.Identity, error)
}

// AuthedHandler recebe a identidade já validada como parâmetro explícito.
type AuthedHandler func(w http.ResponseWriter, r *http.Request, caller domain.Identity)

// RequireAuth protege um handler: extrai o token Bearer, valida no Authenticator
// e só então chama next com a identidade do chamador.
func RequireAuth(auth Authenticator, log logger.Logger, next AuthedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r.Header.Get("Authorization"))
		if !ok {
			writeJSON(w, http.StatusUnauthorized, domain.ErrorResponse{
				Error:   "Authorization token required",
				Message: "Provide a Bearer token in the Authorization header",
			})
			return
		}

		caller, err := auth.Validate(r.Context(), token)
		if err != nil {
			reason := "Invalid token"
			var ue *apperror.UnauthorizedError
			if errors.As(err, &ue) && ue.Detail != "" {
				reason = ue.Detail
			}
			log.Debug("Token rejeitado.", map[string]interface{}{"path": r.URL.Path, "reason": reason})
			writeJSON(w, http.StatusUnauthorized, domain.ErrorResponse{Error: "Invalid token", Message: reason})
			return
		}

		next(w, r, caller)
	}
}

// bearerToken aceita exatamente "<esquema> <token>" com esquema bearer (qualquer caixa).
func bearerToken(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	return parts[1], true
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
