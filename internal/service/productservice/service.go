package productservice

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"agromarket/internal/domain"
	apperror "agromarket/internal/errors"
	"agromarket/internal/pkg/logger"
)

// NewProduct reúne os dados de criação. FarmID vem sempre da identidade autenticada.
// HarvestDate nil significa "agora".
type NewProduct struct {
	Name         string
	FarmID       string
	Type         string
	Quantity     int64
	PricePerUnit float64
	Description  string
	HarvestDate  *time.Time
}

// Service é a camada de regras de negócio entre o Handler e a porta de persistência.
type Service struct {
	repo   domain.ProductRepository
	logger logger.Logger
	now    func() time.Time
}

// NewService cria o serviço de produtos.
func NewService(repo domain.ProductRepository, log logger.Logger) *Service {
	return &Service{repo: repo, logger: log, now: func() time.Time { return time.Now().UTC() }}
}

// WithClock troca o relógio usado em created_at e harvest_date padrão.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// ListProducts lista todo o catálogo.
func (s *Service) ListProducts(ctx context.Context) ([]domain.Product, error) {
	products, err := s.repo.GetAll(ctx)
	if err != nil {
		s.logger.Error("Falha ao listar produtos no repositório.", err)
		return nil, internal("Failed to list products", err)
	}
	return products, nil
}

// GetProduct busca um produto; ausência vira NotFoundError.
func (s *Service) GetProduct(ctx context.Context, id int64) (domain.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("Falha ao buscar produto no repositório.", err)
		return domain.Product{}, internal("Failed to fetch product", err)
	}
	if product == nil {
		return domain.Product{}, apperror.NewNotFoundError("Product not found")
	}
	return *product, nil
}

// GetProductsByFarm lista os produtos de uma fazenda.
func (s *Service) GetProductsByFarm(ctx context.Context, farmID string) ([]domain.Product, error) {
	products, err := s.repo.GetByFarmID(ctx, farmID)
	if err != nil {
		s.logger.Error("Falha ao listar produtos da fazenda.", err)
		return nil, internal("Failed to list farm products", err)
	}
	return products, nil
}

// CreateProduct valida e cria um produto com product_id ainda não atribuído.
func (s *Service) CreateProduct(ctx context.Context, input NewProduct) (domain.Product, error) {
	if strings.TrimSpace(input.FarmID) == "" {
		return domain.Product{}, apperror.NewFieldError("farm_id", apperror.ReasonMissingField, "Farm ID not found in token")
	}

	now := s.now()
	product := domain.Product{
		Name:         input.Name,
		FarmID:       input.FarmID,
		Type:         input.Type,
		Quantity:     input.Quantity,
		PricePerUnit: input.PricePerUnit,
		Description:  input.Description,
		HarvestDate:  now,
		CreatedAt:    now,
	}
	if input.HarvestDate != nil {
		product.HarvestDate = input.HarvestDate.UTC()
	}

	if err := validateProduct(product); err != nil {
		s.logger.Debug("Produto rejeitado na criação.", map[string]interface{}{"error": err.Error()})
		return domain.Product{}, err
	}

	created, err := s.repo.Create(ctx, product)
	if err != nil {
		s.logger.Error("Falha ao criar produto no repositório.", err)
		return domain.Product{}, internal("Failed to create product", err)
	}

	s.logger.Info("Produto criado com sucesso.", map[string]interface{}{"product_id": created.ProductID, "farm_id": created.FarmID})
	return created, nil
}

// UpdateProductFull substitui todos os campos mutáveis. false quando o id não existe.
func (s *Service) UpdateProductFull(ctx context.Context, id int64, product domain.Product) (bool, error) {
	if err := validateProduct(product); err != nil {
		return false, err
	}

	ok, err := s.repo.Update(ctx, id, product)
	if err != nil {
		s.logger.Error("Falha ao atualizar produto no repositório.", err)
		return false, internal("Failed to update product", err)
	}
	if ok {
		s.logger.Info("Produto atualizado.", map[string]interface{}{"product_id": id})
	}
	return ok, nil
}

// PatchProduct valida o mapa de campos e aplica a atualização parcial.
//
// Ordem: produto inexistente (NotFound), chave fora do conjunto permitido
// (INVALID_FIELD), tipo incorreto (TYPE_MISMATCH), data inválida
// (INVALID_DATE_FORMAT), valor fora da regra (INVALID_VALUE). Falha de
// armazenamento vira InternalError e nada é gravado.
func (s *Service) PatchProduct(ctx context.Context, id int64, fields map[string]any) (domain.Product, error) {
	if _, err := s.GetProduct(ctx, id); err != nil {
		return domain.Product{}, err
	}

	clean, err := normalizePatch(fields)
	if err != nil {
		s.logger.Debug("Patch rejeitado.", map[string]interface{}{"product_id": id, "error": err.Error()})
		return domain.Product{}, err
	}

	ok, err := s.repo.Patch(ctx, id, clean)
	if err != nil {
		s.logger.Error("Falha ao aplicar patch no repositório.", err)
		return domain.Product{}, internal("Failed to update product", err)
	}
	if !ok {
		return domain.Product{}, internal("Failed to update product", nil)
	}

	updated, err := s.GetProduct(ctx, id)
	if err != nil {
		return domain.Product{}, internal("Failed to update product", err)
	}

	s.logger.Info("Patch aplicado com sucesso.", map[string]interface{}{"product_id": id, "fields": len(clean)})
	return updated, nil
}

// DeleteProduct remove o produto. false quando o id não existe.
func (s *Service) DeleteProduct(ctx context.Context, id int64) (bool, error) {
	ok, err := s.repo.Delete(ctx, id)
	if err != nil {
		s.logger.Error("Falha ao deletar produto no repositório.", err)
		return false, internal("Failed to delete product", err)
	}
	if ok {
		s.logger.Info("Produto deletado.", map[string]interface{}{"product_id": id})
	}
	return ok, nil
}

// --- validação ---

func validateProduct(p domain.Product) error {
	if strings.TrimSpace(p.Name) == "" {
		return apperror.NewFieldError(domain.FieldName, apperror.ReasonInvalidValue, "name must not be empty")
	}
	if p.Quantity < 0 {
		return apperror.NewFieldError(domain.FieldQuantity, apperror.ReasonInvalidValue, "quantity must be >= 0")
	}
	if p.PricePerUnit < 0 || math.IsNaN(p.PricePerUnit) || math.IsInf(p.PricePerUnit, 0) {
		return apperror.NewFieldError(domain.FieldPricePerUnit, apperror.ReasonInvalidValue, "price_per_unit must be a non-negative number")
	}
	return nil
}

// normalizePatch valida as chaves e converte os valores para os tipos canônicos
// (string, int64, float64, time.Time) esperados pelos repositórios.
func normalizePatch(fields map[string]any) (map[string]any, error) {
	var unknown []string
	for key := range fields {
		if !domain.IsPatchable(key) {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, apperror.NewFieldError(unknown[0], apperror.ReasonInvalidField,
			fmt.Sprintf("Invalid field(s): %s", strings.Join(unknown, ", ")))
	}

	clean := make(map[string]any, len(fields))

	if raw, ok := fields[domain.FieldQuantity]; ok {
		n, ok := asInteger(raw)
		if !ok {
			return nil, apperror.NewFieldError(domain.FieldQuantity, apperror.ReasonTypeMismatch, "quantity must be an integer")
		}
		if n < 0 {
			return nil, apperror.NewFieldError(domain.FieldQuantity, apperror.ReasonInvalidValue, "quantity must be >= 0")
		}
		clean[domain.FieldQuantity] = n
	}

	if raw, ok := fields[domain.FieldPricePerUnit]; ok {
		f, ok := asNumber(raw)
		if !ok {
			return nil, apperror.NewFieldError(domain.FieldPricePerUnit, apperror.ReasonTypeMismatch, "price_per_unit must be a number")
		}
		if f < 0 {
			return nil, apperror.NewFieldError(domain.FieldPricePerUnit, apperror.ReasonInvalidValue, "price_per_unit must be a non-negative number")
		}
		clean[domain.FieldPricePerUnit] = f
	}

	for _, key := range []string{domain.FieldName, domain.FieldType, domain.FieldDescription} {
		raw, ok := fields[key]
		if !ok {
			continue
		}
		s, isString := raw.(string)
		if !isString {
			return nil, apperror.NewFieldError(key, apperror.ReasonTypeMismatch, key+" must be a string")
		}
		if key == domain.FieldName && strings.TrimSpace(s) == "" {
			return nil, apperror.NewFieldError(key, apperror.ReasonInvalidValue, "name must not be empty")
		}
		clean[key] = s
	}

	if raw, ok := fields[domain.FieldHarvestDate]; ok {
		switch v := raw.(type) {
		case string:
			t, err := domain.ParseHarvestDate(v)
			if err != nil {
				return nil, apperror.NewFieldError(domain.FieldHarvestDate, apperror.ReasonInvalidDateFormat,
					domain.InvalidHarvestDateMessage)
			}
			clean[domain.FieldHarvestDate] = t.UTC()
		case time.Time:
			clean[domain.FieldHarvestDate] = v.UTC()
		default:
			return nil, apperror.NewFieldError(domain.FieldHarvestDate, apperror.ReasonTypeMismatch, "harvest_date must be an ISO-8601 string")
		}
	}

	return clean, nil
}

// asInteger aceita inteiros Go e json.Number sem parte fracionária ("5", não "5.0").
func asInteger(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	}
	return 0, false
}

// asNumber aceita qualquer número (inteiro ou real); booleanos e textos não.
func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, !math.IsNaN(n) && !math.IsInf(n, 0)
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

func internal(msg string, err error) error {
	return apperror.NewInternalError(msg, err)
}
