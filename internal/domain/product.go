package domain

import (
	"context"
	"encoding/json"
	"time"
)

// Product representa um produto agrícola ofertado por uma fazenda (a Entidade).
// ProductID é atribuído pela camada de persistência na criação e nunca muda depois.
type Product struct {
	ProductID    int64     `json:"product_id" db:"product_id"`
	Name         string    `json:"name" db:"name"`
	FarmID       string    `json:"farm_id" db:"farm_id"`
	Type         string    `json:"type" db:"type"`
	Quantity     int64     `json:"quantity" db:"quantity"`
	PricePerUnit float64   `json:"price_per_unit" db:"price_per_unit"`
	Description  string    `json:"description" db:"description"`
	HarvestDate  time.Time `json:"harvest_date" db:"harvest_date"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// TotalValue é derivado (quantidade × preço unitário) e não é persistido.
func (p Product) TotalValue() float64 {
	return float64(p.Quantity) * p.PricePerUnit
}

// MarshalJSON acrescenta o campo derivado total_value à representação JSON.
func (p Product) MarshalJSON() ([]byte, error) {
	type plain Product
	return json.Marshal(struct {
		plain
		TotalValue float64 `json:"total_value"`
	}{plain: plain(p), TotalValue: p.TotalValue()})
}

// Campos aceitos por uma atualização parcial (PATCH).
// product_id, farm_id e created_at nunca entram aqui.
const (
	FieldName         = "name"
	FieldType         = "type"
	FieldQuantity     = "quantity"
	FieldPricePerUnit = "price_per_unit"
	FieldDescription  = "description"
	FieldHarvestDate  = "harvest_date"
)

// PatchableFields é o conjunto fechado de chaves que um PATCH pode tocar.
var PatchableFields = map[string]struct{}{
	FieldName:         {},
	FieldType:         {},
	FieldQuantity:     {},
	FieldPricePerUnit: {},
	FieldDescription:  {},
	FieldHarvestDate:  {},
}

// IsPatchable informa se a chave pertence ao conjunto de campos atualizáveis.
func IsPatchable(field string) bool {
	_, ok := PatchableFields[field]
	return ok
}

// ProductRepository é a porta de persistência que qualquer backend deve satisfazer.
//
// GetByID devolve nil (sem erro) quando não há linha. Update, Patch e Delete
// devolvem false quando o id não existe; um erro indica falha de armazenamento
// e nenhuma escrita parcial fica visível.
type ProductRepository interface {
	GetAll(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id int64) (*Product, error)
	GetByFarmID(ctx context.Context, farmID string) ([]Product, error)
	Create(ctx context.Context, product Product) (Product, error)
	Update(ctx context.Context, id int64, product Product) (bool, error)
	Patch(ctx context.Context, id int64, fields map[string]any) (bool, error)
	Delete(ctx context.Context, id int64) (bool, error)
}
