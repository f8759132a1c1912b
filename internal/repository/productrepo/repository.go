package productrepo

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"agromarket/internal/domain"
	"agromarket/internal/errors"
	"agromarket/internal/pkg/logger"
)

const productColumns = `product_id, name, farm_id, type, quantity, price_per_unit, description, harvest_date, created_at`

// patchColumns mapeia campos do PATCH para colunas. Chaves fora deste mapa são ignoradas.
var patchColumns = map[string]string{
	domain.FieldName:         "name",
	domain.FieldType:         "type",
	domain.FieldQuantity:     "quantity",
	domain.FieldPricePerUnit: "price_per_unit",
	domain.FieldDescription:  "description",
	domain.FieldHarvestDate:  "harvest_date",
}

// patchOrder fixa a ordem das colunas no UPDATE gerado.
var patchOrder = []string{
	domain.FieldName,
	domain.FieldType,
	domain.FieldQuantity,
	domain.FieldPricePerUnit,
	domain.FieldDescription,
	domain.FieldHarvestDate,
}

// ProductRepository implementa domain.ProductRepository sobre um banco relacional
// (PostgreSQL ou SQLite) via sqlx. As queries usam `?` e são reescritas para o
// bindvar do driver com Rebind.
type ProductRepository struct {
	DB        *sqlx.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewProductRepository cria o repositório relacional com as dependências de infraestrutura.
func NewProductRepository(db *sqlx.DB, dbTimeout time.Duration, log logger.Logger) *ProductRepository {
	return &ProductRepository{
		DB:        db,
		DBTimeout: dbTimeout,
		logger:    log,
	}
}

var _ domain.ProductRepository = (*ProductRepository)(nil)

// GetAll lista todos os produtos, sem filtro nem paginação.
func (r *ProductRepository) GetAll(ctx context.Context) ([]domain.Product, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	products := []domain.Product{}
	query := `SELECT ` + productColumns + ` FROM products ORDER BY product_id`
	if err := r.DB.SelectContext(ctxTimeout, &products, query); err != nil {
		r.logger.Error("Falha ao listar produtos no DB.", err)
		return nil, errors.NewDBError("Failed to list products", err)
	}

	r.logger.Debug("GetAll concluído.", map[string]interface{}{"total_products": len(products)})
	return normalize(products), nil
}

// GetByID devolve nil quando nenhuma linha corresponde.
func (r *ProductRepository) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var product domain.Product
	query := r.DB.Rebind(`SELECT ` + productColumns + ` FROM products WHERE product_id = ?`)
	err := r.DB.GetContext(ctxTimeout, &product, query, id)
	if err == sql.ErrNoRows {
		r.logger.Debug("Produto não encontrado.", map[string]interface{}{"product_id": id})
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Falha ao buscar produto no DB.", err)
		return nil, errors.NewDBError("Failed to fetch product", err)
	}

	product = normalizeOne(product)
	return &product, nil
}

// GetByFarmID lista os produtos de uma fazenda.
func (r *ProductRepository) GetByFarmID(ctx context.Context, farmID string) ([]domain.Product, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	products := []domain.Product{}
	query := r.DB.Rebind(`SELECT ` + productColumns + ` FROM products WHERE farm_id = ? ORDER BY product_id`)
	if err := r.DB.SelectContext(ctxTimeout, &products, query, farmID); err != nil {
		r.logger.Error("Falha ao listar produtos da fazenda no DB.", err)
		return nil, errors.NewDBError("Failed to list farm products", err)
	}

	return normalize(products), nil
}

// Create insere o produto e devolve a entidade com o product_id gerado.
// Qualquer ProductID de entrada é ignorado.
func (r *ProductRepository) Create(ctx context.Context, product domain.Product) (domain.Product, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := r.DB.Rebind(`
		INSERT INTO products (name, farm_id, type, quantity, price_per_unit, description, harvest_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING product_id`)

	var id int64
	err := r.DB.QueryRowxContext(ctxTimeout, query,
		product.Name,
		product.FarmID,
		product.Type,
		product.Quantity,
		product.PricePerUnit,
		product.Description,
		product.HarvestDate.UTC(),
		product.CreatedAt.UTC(),
	).Scan(&id)
	if err != nil {
		r.logger.Error("Falha ao inserir produto no DB.", err)
		return domain.Product{}, errors.NewDBError("Failed to create product", err)
	}

	product.ProductID = id
	r.logger.Info("Produto criado.", map[string]interface{}{"product_id": id, "farm_id": product.FarmID})
	return product, nil
}

// Update substitui todos os campos mutáveis. farm_id e created_at não são tocados.
func (r *ProductRepository) Update(ctx context.Context, id int64, product domain.Product) (bool, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := r.DB.Rebind(`
		UPDATE products
		SET name = ?, type = ?, quantity = ?, price_per_unit = ?, description = ?, harvest_date = ?
		WHERE product_id = ?`)

	result, err := r.DB.ExecContext(ctxTimeout, query,
		product.Name,
		product.Type,
		product.Quantity,
		product.PricePerUnit,
		product.Description,
		product.HarvestDate.UTC(),
		id,
	)
	if err != nil {
		r.logger.Error("Falha ao atualizar produto no DB.", err)
		return false, errors.NewDBError("Failed to update product", err)
	}

	return r.affected(result, id, "Update")
}

// Patch aplica apenas os campos informados, dentro de uma transação.
// Chaves desconhecidas são ignoradas; a validação acontece no serviço.
func (r *ProductRepository) Patch(ctx context.Context, id int64, fields map[string]any) (updated bool, err error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	tx, err := r.DB.BeginTxx(ctxTimeout, nil)
	if err != nil {
		return false, errors.NewDBError("Failed to start transaction", err)
	}
	defer func() {
		if err != nil || !updated {
			tx.Rollback()
		}
	}()

	var exists int
	err = tx.GetContext(ctxTimeout, &exists, tx.Rebind(`SELECT 1 FROM products WHERE product_id = ?`), id)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		r.logger.Error("Falha ao verificar produto antes do patch.", err)
		return false, errors.NewDBError("Failed to patch product", err)
	}

	sets := make([]string, 0, len(fields))
	args := make([]any, 0, len(fields)+1)
	for _, field := range patchOrder {
		value, ok := fields[field]
		if !ok {
			continue
		}
		if t, isTime := value.(time.Time); isTime {
			value = t.UTC()
		}
		sets = append(sets, patchColumns[field]+" = ?")
		args = append(args, value)
	}

	if len(sets) > 0 {
		args = append(args, id)
		query := tx.Rebind(fmt.Sprintf(`UPDATE products SET %s WHERE product_id = ?`, strings.Join(sets, ", ")))
		if _, err = tx.ExecContext(ctxTimeout, query, args...); err != nil {
			r.logger.Error("Falha ao aplicar patch no DB; rollback.", err)
			return false, errors.NewDBError("Failed to patch product", err)
		}
	}

	if err = tx.Commit(); err != nil {
		r.logger.Error("Falha no commit do patch.", err)
		return false, errors.NewDBError("Failed to commit patch", err)
	}

	r.logger.Info("Patch aplicado.", map[string]interface{}{"product_id": id, "fields": len(sets)})
	return true, nil
}

// Delete remove o produto. false quando o id não existe.
func (r *ProductRepository) Delete(ctx context.Context, id int64) (bool, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	result, err := r.DB.ExecContext(ctxTimeout, r.DB.Rebind(`DELETE FROM products WHERE product_id = ?`), id)
	if err != nil {
		r.logger.Error("Falha ao deletar produto do DB.", err)
		return false, errors.NewDBError("Failed to delete product", err)
	}

	return r.affected(result, id, "Delete")
}

func (r *ProductRepository) affected(result sql.Result, id int64, op string) (bool, error) {
	rows, err := result.RowsAffected()
	if err != nil {
		r.logger.Error("Falha ao verificar linhas afetadas.", err)
		return false, errors.NewDBError("Failed to check affected rows", err)
	}
	if rows == 0 {
		r.logger.Debug("Nenhuma linha afetada.", map[string]interface{}{"product_id": id, "op": op})
		return false, nil
	}
	return true, nil
}

// normalize converte datas para UTC; o sqlite devolve o fuso gravado.
func normalize(products []domain.Product) []domain.Product {
	for i := range products {
		products[i] = normalizeOne(products[i])
	}
	return products
}

func normalizeOne(p domain.Product) domain.Product {
	p.HarvestDate = p.HarvestDate.UTC()
	p.CreatedAt = p.CreatedAt.UTC()
	return p
}
