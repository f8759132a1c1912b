package auth

import (
	"encoding/json"
	"net/http"
	"strings"

	"agromarket/internal/pkg/logger"
	"agromarket/internal/pkg/token"
)

// TokenRequest é o payload de POST /auth/token.
type TokenRequest struct {
	UserID string `json:"user_id" example:"farm1"`
	FarmID string `json:"farm_id,omitempty" example:"farm1"`
}

// TokenResponse devolve o JWT emitido.
type TokenResponse struct {
	Token     string `json:"token"`
	TokenType string `json:"token_type" example:"Bearer"`
}

// ValidationResponse é o contrato esperado pelo serviço de produtos em AUTH_SERVICE_URL.
type ValidationResponse struct {
	Valid  bool   `json:"valid"`
	UserID string `json:"user_id,omitempty"`
	FarmID string `json:"farm_id,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Handler expõe o serviço de autenticação local usado em desenvolvimento.
type Handler struct {
	Tokens token.TokenService
	Logger logger.Logger
}

func NewHandler(tokens token.TokenService, log logger.Logger) *Handler {
	return &Handler{Tokens: tokens, Logger: log}
}

// IssueTokenHandler lida com POST /auth/token.
// @Summary Emite um token de desenvolvimento
// @Tags auth
// @Accept json
// @Produce json
// @Param credentials body TokenRequest true "Identidade do token"
// @Success 200 {object} TokenResponse
// @Failure 400 {object} ValidationResponse
// @Router /auth/token [post]
func (h *Handler) IssueTokenHandler(w http.ResponseWriter, r *http.Request) {
	var req TokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.UserID) == "" {
		writeJSON(w, http.StatusBadRequest, ValidationResponse{Error: "user_id is required"})
		return
	}

	signed, err := h.Tokens.GenerateToken(req.UserID, req.FarmID)
	if err != nil {
		h.Logger.Error("Falha ao emitir token.", err)
		writeJSON(w, http.StatusInternalServerError, ValidationResponse{Error: "Failed to issue token"})
		return
	}

	h.Logger.Info("Token emitido.", map[string]interface{}{"user_id": req.UserID, "farm_id": req.FarmID})
	writeJSON(w, http.StatusOK, TokenResponse{Token: signed, TokenType: "Bearer"})
}

// ValidateTokenHandler lida com GET /auth/validate-token.
// @Summary Valida um token Bearer
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} ValidationResponse
// @Failure 401 {object} ValidationResponse
// @Router /auth/validate-token [get]
func (h *Handler) ValidateTokenHandler(w http.ResponseWriter, r *http.Request) {
	parts := strings.Fields(r.Header.Get("Authorization"))
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		writeJSON(w, http.StatusUnauthorized, ValidationResponse{Error: "Authorization token required"})
		return
	}

	claims, err := h.Tokens.ValidateToken(parts[1])
	if err != nil {
		h.Logger.Debug("Token recusado.", map[string]interface{}{"error": err.Error()})
		writeJSON(w, http.StatusUnauthorized, ValidationResponse{Error: "Token is invalid or expired"})
		return
	}

	writeJSON(w, http.StatusOK, ValidationResponse{Valid: true, UserID: claims.UserID, FarmID: claims.FarmID})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
