package product

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"agromarket/internal/domain"
	apperror "agromarket/internal/errors"
	"agromarket/internal/pkg/logger"
	"agromarket/internal/service/productservice"
)

// maxBodyBytes limita o corpo das requisições de escrita.
const maxBodyBytes = 1 << 20

const (
	msgNotFound      = "Product not found"
	msgNoData        = "No data provided"
	msgForbidden     = "You do not have permission to modify this product"
	msgNoFarm        = "Farm ID not found in token"
	msgUpdateFailed  = "Failed to update product"
	msgDeleteFailed  = "Failed to delete product"
	msgInvalidJSON   = "Invalid JSON payload"
	msgProductsFound = "Products retrieved successfully"
)

// ProductService define o contrato que o Handler espera da camada de Serviço.
type ProductService interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProduct(ctx context.Context, id int64) (domain.Product, error)
	GetProductsByFarm(ctx context.Context, farmID string) ([]domain.Product, error)
	CreateProduct(ctx context.Context, input productservice.NewProduct) (domain.Product, error)
	UpdateProductFull(ctx context.Context, id int64, product domain.Product) (bool, error)
	PatchProduct(ctx context.Context, id int64, fields map[string]any) (domain.Product, error)
	DeleteProduct(ctx context.Context, id int64) (bool, error)
}

// ProductRequest é o payload de POST e PUT. Ponteiros distinguem campo ausente de valor zero.
// farm_id nunca é lido do corpo: vem da identidade autenticada.
type ProductRequest struct {
	Name         *string  `json:"name" example:"Orange"`
	Type         *string  `json:"type" example:"fruit"`
	Quantity     *int64   `json:"quantity" example:"5"`
	PricePerUnit *float64 `json:"price_per_unit" example:"3.0"`
	Description  *string  `json:"description" example:"Sweet"`
	HarvestDate  *string  `json:"harvest_date,omitempty" example:"2024-05-01T08:00:00Z"`
}

// missing lista os campos obrigatórios ausentes na criação.
func (req ProductRequest) missing() []string {
	var out []string
	if req.Name == nil {
		out = append(out, domain.FieldName)
	}
	if req.Type == nil {
		out = append(out, domain.FieldType)
	}
	if req.Quantity == nil {
		out = append(out, domain.FieldQuantity)
	}
	if req.PricePerUnit == nil {
		out = append(out, domain.FieldPricePerUnit)
	}
	if req.Description == nil {
		out = append(out, domain.FieldDescription)
	}
	return out
}

// Handler agrupa todos os métodos de Handler do produto.
type Handler struct {
	Service ProductService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc ProductService, log logger.Logger) *Handler {
	return &Handler{
		Service: svc,
		Logger:  log,
	}
}

// --- Funções Auxiliares ---

// handleServiceResponse processa erros de serviço e envia respostas padronizadas ao cliente.
func (h *Handler) handleServiceResponse(w http.ResponseWriter, r *http.Request, data interface{}, err error, successStatus int) {
	if err == nil {
		h.Logger.Debug("Requisição concluída com sucesso", map[string]interface{}{
			"method": r.Method,
			"path":   r.URL.Path,
			"status": successStatus,
		})
		writeJSON(w, h.Logger, successStatus, data)
		return
	}

	status, category, message := apperror.MapToHTTPStatus(err)

	if status >= 500 {
		h.Logger.Error(fmt.Sprintf("Erro de Servidor: %s", category), err)
	} else {
		h.Logger.Debug(fmt.Sprintf("Requisição rejeitada com status %d. Categoria: %s", status, category), map[string]interface{}{"path": r.URL.Path})
	}

	writeJSON(w, h.Logger, status, domain.ErrorResponse{Error: message})
}

func writeJSON(w http.ResponseWriter, log logger.Logger, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error("Falha ao codificar JSON de resposta", err)
	}
}

// productID lê o {id} da rota. Ids não inteiros ou não positivos não existem.
func productID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.NewNotFoundError(msgNotFound)
	}
	return id, nil
}

// readObject lê o corpo e garante que é um objeto JSON não vazio.
func readObject(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, apperror.NewValidationError(msgInvalidJSON)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, apperror.NewValidationError(msgNoData)
	}

	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, apperror.NewValidationError(msgInvalidJSON)
	}
	if len(probe) == 0 {
		return nil, apperror.NewValidationError(msgNoData)
	}
	return raw, nil
}

// decodeProductRequest traduz erros de tipo do JSON em ValidationError.
func decodeProductRequest(raw []byte) (ProductRequest, error) {
	var req ProductRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return req, apperror.NewFieldError(typeErr.Field, apperror.ReasonTypeMismatch,
				fmt.Sprintf("Invalid type for field '%s'", typeErr.Field))
		}
		return req, apperror.NewValidationError(msgInvalidJSON)
	}
	return req, nil
}

func parseHarvestDate(text string) (time.Time, error) {
	t, err := domain.ParseHarvestDate(text)
	if err != nil {
		return time.Time{}, apperror.NewFieldError(domain.FieldHarvestDate, apperror.ReasonInvalidDateFormat, domain.InvalidHarvestDateMessage)
	}
	return t.UTC(), nil
}

// ownedProduct busca o produto e aplica a regra de propriedade.
func (h *Handler) ownedProduct(r *http.Request, caller domain.Identity) (domain.Product, error) {
	id, err := productID(r)
	if err != nil {
		return domain.Product{}, err
	}

	existing, err := h.Service.GetProduct(r.Context(), id)
	if err != nil {
		return domain.Product{}, err
	}

	if existing.FarmID != caller.CallerFarmID() {
		h.Logger.Warn("Tentativa de alterar produto de outra fazenda.", map[string]interface{}{
			"product_id": id,
			"owner":      existing.FarmID,
			"caller":     caller.CallerFarmID(),
		})
		return domain.Product{}, apperror.NewForbiddenError(msgForbidden)
	}
	return existing, nil
}

// --- Handlers de Produto ---

// ListProductsHandler lida com a requisição GET /api/v1/products.
// @Summary Lista todos os produtos
// @Tags products
// @Produce json
// @Success 200 {array} domain.Product
// @Failure 500 {object} domain.ErrorResponse
// @Router /api/v1/products [get]
func (h *Handler) ListProductsHandler(w http.ResponseWriter, r *http.Request) {
	products, err := h.Service.ListProducts(r.Context())
	if products == nil {
		products = []domain.Product{}
	}
	h.handleServiceResponse(w, r, products, err, http.StatusOK)
}

// GetMyProductsHandler lida com a requisição GET /api/v1/products/me.
// @Summary Lista os produtos da fazenda autenticada
// @Tags products
// @Produce json
// @Security BearerAuth
// @Success 200 {object} domain.FarmProductsResponse
// @Failure 400 {object} domain.ErrorResponse "Farm ID ausente no token"
// @Failure 401 {object} domain.ErrorResponse
// @Failure 500 {object} domain.ErrorResponse
// @Router /api/v1/products/me [get]
func (h *Handler) GetMyProductsHandler(w http.ResponseWriter, r *http.Request, caller domain.Identity) {
	farmID := caller.CallerFarmID()
	if farmID == "" {
		h.handleServiceResponse(w, r, nil, apperror.NewFieldError("farm_id", apperror.ReasonMissingField, msgNoFarm), http.StatusOK)
		return
	}

	products, err := h.Service.GetProductsByFarm(r.Context(), farmID)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}
	if products == nil {
		products = []domain.Product{}
	}

	h.handleServiceResponse(w, r, domain.FarmProductsResponse{
		Message:  msgProductsFound,
		Count:    len(products),
		Products: products,
	}, nil, http.StatusOK)
}

// CreateProductHandler lida com a requisição POST /api/v1/products.
// @Summary Cria um produto para a fazenda autenticada
// @Description farm_id vem do token; harvest_date é opcional (ISO-8601) e assume o horário atual.
// @Tags products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param product body ProductRequest true "Dados do produto"
// @Success 201 {object} domain.MessageResponse
// @Failure 400 {object} domain.ErrorResponse "Payload inválido ou campos ausentes"
// @Failure 401 {object} domain.ErrorResponse
// @Failure 500 {object} domain.ErrorResponse
// @Router /api/v1/products [post]
func (h *Handler) CreateProductHandler(w http.ResponseWriter, r *http.Request, caller domain.Identity) {
	raw, err := readObject(w, r)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusCreated)
		return
	}

	req, err := decodeProductRequest(raw)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusCreated)
		return
	}

	if missing := req.missing(); len(missing) > 0 {
		h.handleServiceResponse(w, r, nil, apperror.NewFieldError(missing[0], apperror.ReasonMissingField,
			"Missing required fields: "+strings.Join(missing, ", ")), http.StatusCreated)
		return
	}

	input := productservice.NewProduct{
		Name:         *req.Name,
		FarmID:       caller.CallerFarmID(),
		Type:         *req.Type,
		Quantity:     *req.Quantity,
		PricePerUnit: *req.PricePerUnit,
		Description:  *req.Description,
	}
	if req.HarvestDate != nil {
		t, err := parseHarvestDate(*req.HarvestDate)
		if err != nil {
			h.handleServiceResponse(w, r, nil, err, http.StatusCreated)
			return
		}
		input.HarvestDate = &t
	}

	h.Logger.Info("Tentativa de criação de produto por", map[string]interface{}{
		"user_id": caller.UserID,
		"farm_id": input.FarmID,
	})

	created, err := h.Service.CreateProduct(r.Context(), input)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusCreated)
		return
	}

	h.handleServiceResponse(w, r, domain.MessageResponse{Message: "Product created", ProductID: created.ProductID}, nil, http.StatusCreated)
}

// GetProductByIDHandler lida com a requisição GET /api/v1/products/{id}.
// @Summary Busca um produto por ID
// @Tags products
// @Produce json
// @Param id path int true "ID do produto"
// @Success 200 {object} domain.Product
// @Failure 404 {object} domain.ErrorResponse
// @Failure 500 {object} domain.ErrorResponse
// @Router /api/v1/products/{id} [get]
func (h *Handler) GetProductByIDHandler(w http.ResponseWriter, r *http.Request) {
	id, err := productID(r)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	product, err := h.Service.GetProduct(r.Context(), id)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	h.handleServiceResponse(w, r, product, nil, http.StatusOK)
}

// UpdateProductHandler lida com a requisição PUT /api/v1/products/{id}.
// @Summary Atualiza um produto da fazenda autenticada
// @Description Campos omitidos mantêm o valor atual.
// @Tags products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "ID do produto"
// @Param product body ProductRequest true "Campos a substituir"
// @Success 200 {object} domain.MessageResponse
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 403 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Failure 500 {object} domain.ErrorResponse
// @Router /api/v1/products/{id} [put]
func (h *Handler) UpdateProductHandler(w http.ResponseWriter, r *http.Request, caller domain.Identity) {
	existing, err := h.ownedProduct(r, caller)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	raw, err := readObject(w, r)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	req, err := decodeProductRequest(raw)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	merged := existing
	if req.Name != nil {
		merged.Name = *req.Name
	}
	if req.Type != nil {
		merged.Type = *req.Type
	}
	if req.Quantity != nil {
		merged.Quantity = *req.Quantity
	}
	if req.PricePerUnit != nil {
		merged.PricePerUnit = *req.PricePerUnit
	}
	if req.Description != nil {
		merged.Description = *req.Description
	}
	if req.HarvestDate != nil {
		t, err := parseHarvestDate(*req.HarvestDate)
		if err != nil {
			h.handleServiceResponse(w, r, nil, err, http.StatusOK)
			return
		}
		merged.HarvestDate = t
	}

	ok, err := h.Service.UpdateProductFull(r.Context(), existing.ProductID, merged)
	if err == nil && !ok {
		err = apperror.NewInternalError(msgUpdateFailed, nil)
	}
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	h.handleServiceResponse(w, r, domain.MessageResponse{Message: "Product updated"}, nil, http.StatusOK)
}

// PatchProductHandler lida com a requisição PATCH /api/v1/products/{id}.
// @Summary Atualiza parcialmente um produto
// @Description Aceita apenas name, type, quantity, price_per_unit, description e harvest_date.
// @Tags products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "ID do produto"
// @Param fields body object true "Campos a alterar"
// @Success 200 {object} domain.ProductResponse
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 403 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Failure 500 {object} domain.ErrorResponse
// @Router /api/v1/products/{id} [patch]
func (h *Handler) PatchProductHandler(w http.ResponseWriter, r *http.Request, caller domain.Identity) {
	existing, err := h.ownedProduct(r, caller)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	raw, err := readObject(w, r)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	fields := map[string]any{}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&fields); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError(msgInvalidJSON), http.StatusOK)
		return
	}

	updated, err := h.Service.PatchProduct(r.Context(), existing.ProductID, fields)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	h.handleServiceResponse(w, r, domain.ProductResponse{Message: "Product updated", Product: updated}, nil, http.StatusOK)
}

// DeleteProductHandler lida com a requisição DELETE /api/v1/products/{id}.
// @Summary Remove um produto da fazenda autenticada
// @Tags products
// @Produce json
// @Security BearerAuth
// @Param id path int true "ID do produto"
// @Success 200 {object} domain.MessageResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 403 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Failure 500 {object} domain.ErrorResponse
// @Router /api/v1/products/{id} [delete]
func (h *Handler) DeleteProductHandler(w http.ResponseWriter, r *http.Request, caller domain.Identity) {
	existing, err := h.ownedProduct(r, caller)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	ok, err := h.Service.DeleteProduct(r.Context(), existing.ProductID)
	if err == nil && !ok {
		err = apperror.NewInternalError(msgDeleteFailed, nil)
	}
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	h.handleServiceResponse(w, r, domain.MessageResponse{Message: "Product deleted"}, nil, http.StatusOK)
}
