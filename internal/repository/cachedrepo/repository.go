package cachedrepo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"agromarket/internal/domain"
	"agromarket/internal/pkg/cache"
	"agromarket/internal/pkg/logger"
)

// Define a chave de cache para produtos.
const productCacheKey = "product:%d"

// ProductRepository decora outra implementação da porta com Cache-Aside em GetByID.
// Escritas (Update, Patch, Delete) invalidam a chave do produto. Falhas do cache
// nunca derrubam a operação: o repositório decorado é a fonte da verdade.
type ProductRepository struct {
	next   domain.ProductRepository
	cache  cache.Client
	ttl    time.Duration
	logger logger.Logger
}

func NewProductRepository(next domain.ProductRepository, cacheClient cache.Client, ttl time.Duration, log logger.Logger) *ProductRepository {
	return &ProductRepository{next: next, cache: cacheClient, ttl: ttl, logger: log}
}

var _ domain.ProductRepository = (*ProductRepository)(nil)

func (r *ProductRepository) GetAll(ctx context.Context) ([]domain.Product, error) {
	return r.next.GetAll(ctx)
}

func (r *ProductRepository) GetByFarmID(ctx context.Context, farmID string) ([]domain.Product, error) {
	return r.next.GetByFarmID(ctx, farmID)
}

// GetByID tenta o cache; em miss (ou erro de cache) busca no repositório e popula.
// Ausências não são cacheadas.
func (r *ProductRepository) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	key := fmt.Sprintf(productCacheKey, id)

	cached, err := r.cache.Get(ctx, key)
	if err == nil {
		var product domain.Product
		if json.Unmarshal([]byte(cached), &product) == nil {
			return &product, nil
		}
		r.logger.Warn("Entrada de cache corrompida; consultando o DB.", map[string]interface{}{"key": key})
	} else if err != cache.ErrCacheMiss {
		r.logger.Warn("Falha ao ler do cache.", map[string]interface{}{"key": key, "error": err.Error()})
	}

	product, err := r.next.GetByID(ctx, id)
	if err != nil || product == nil {
		return product, err
	}

	if payload, marshalErr := json.Marshal(product); marshalErr == nil {
		if setErr := r.cache.Set(ctx, key, payload, r.ttl); setErr != nil {
			r.logger.Warn("Falha ao gravar no cache.", map[string]interface{}{"key": key, "error": setErr.Error()})
		}
	}
	return product, nil
}

func (r *ProductRepository) Create(ctx context.Context, product domain.Product) (domain.Product, error) {
	return r.next.Create(ctx, product)
}

func (r *ProductRepository) Update(ctx context.Context, id int64, product domain.Product) (bool, error) {
	ok, err := r.next.Update(ctx, id, product)
	r.invalidate(ctx, id)
	return ok, err
}

func (r *ProductRepository) Patch(ctx context.Context, id int64, fields map[string]any) (bool, error) {
	ok, err := r.next.Patch(ctx, id, fields)
	r.invalidate(ctx, id)
	return ok, err
}

func (r *ProductRepository) Delete(ctx context.Context, id int64) (bool, error) {
	ok, err := r.next.Delete(ctx, id)
	r.invalidate(ctx, id)
	return ok, err
}

func (r *ProductRepository) invalidate(ctx context.Context, id int64) {
	key := fmt.Sprintf(productCacheKey, id)
	if err := r.cache.Delete(ctx, key); err != nil {
		r.logger.Warn("Falha ao invalidar cache.", map[string]interface{}{"key": key, "error": err.Error()})
	}
}
