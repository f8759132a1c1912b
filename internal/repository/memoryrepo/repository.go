package memoryrepo

import (
	"context"
	"sort"
	"sync"
	"time"

	"agromarket/internal/domain"
)

// ProductRepository é uma implementação em memória de domain.ProductRepository.
// Usada nos testes e com DATABASE_URL=memory://.
type ProductRepository struct {
	mu       sync.RWMutex
	nextID   int64
	products map[int64]domain.Product
}

func NewProductRepository() *ProductRepository {
	return &ProductRepository{products: make(map[int64]domain.Product)}
}

var _ domain.ProductRepository = (*ProductRepository)(nil)

func (r *ProductRepository) GetAll(_ context.Context) ([]domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.sorted(func(domain.Product) bool { return true }), nil
}

func (r *ProductRepository) GetByID(_ context.Context, id int64) (*domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.products[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (r *ProductRepository) GetByFarmID(_ context.Context, farmID string) ([]domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.sorted(func(p domain.Product) bool { return p.FarmID == farmID }), nil
}

func (r *ProductRepository) Create(_ context.Context, product domain.Product) (domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	product.ProductID = r.nextID
	r.products[product.ProductID] = product
	return product, nil
}

func (r *ProductRepository) Update(_ context.Context, id int64, product domain.Product) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.products[id]
	if !ok {
		return false, nil
	}
	current.Name = product.Name
	current.Type = product.Type
	current.Quantity = product.Quantity
	current.PricePerUnit = product.PricePerUnit
	current.Description = product.Description
	current.HarvestDate = product.HarvestDate
	r.products[id] = current
	return true, nil
}

// Patch espera os tipos já normalizados pelo serviço (int64, float64, time.Time).
// Valores com outro tipo são ignorados, como chaves desconhecidas.
func (r *ProductRepository) Patch(_ context.Context, id int64, fields map[string]any) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.products[id]
	if !ok {
		return false, nil
	}

	for field, value := range fields {
		switch field {
		case domain.FieldName:
			if s, ok := value.(string); ok {
				current.Name = s
			}
		case domain.FieldType:
			if s, ok := value.(string); ok {
				current.Type = s
			}
		case domain.FieldDescription:
			if s, ok := value.(string); ok {
				current.Description = s
			}
		case domain.FieldQuantity:
			if n, ok := value.(int64); ok {
				current.Quantity = n
			}
		case domain.FieldPricePerUnit:
			if f, ok := value.(float64); ok {
				current.PricePerUnit = f
			}
		case domain.FieldHarvestDate:
			if t, ok := value.(time.Time); ok {
				current.HarvestDate = t
			}
		}
	}

	r.products[id] = current
	return true, nil
}

func (r *ProductRepository) Delete(_ context.Context, id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[id]; !ok {
		return false, nil
	}
	delete(r.products, id)
	return true, nil
}

func (r *ProductRepository) sorted(keep func(domain.Product) bool) []domain.Product {
	out := make([]domain.Product, 0, len(r.products))
	for _, p := range r.products {
		if keep(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out
}
