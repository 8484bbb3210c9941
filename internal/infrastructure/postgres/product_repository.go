package postgres

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/pedidos-api/internal/domain"
	"github.com/jhoicas/pedidos-api/internal/domain/entity"
	"github.com/jhoicas/pedidos-api/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

const productColumns = `id, company_id, name, price, stock, is_active, COALESCE(created_by::text, ''), created_at, updated_at`

// ProductRepo implementación del puerto ProductRepository sobre PostgreSQL (usable con pool o tx).
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador de persistencia para productos. Pasar pool o tx (Querier).
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

// Create persiste un nuevo producto.
func (r *ProductRepo) Create(ctx context.Context, p *entity.Product) error {
	query := `
		INSERT INTO products (id, company_id, name, price, stock, is_active, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.Exec(ctx, query,
		p.ID, p.CompanyID, p.Name, p.Price, p.Stock, p.IsActive, nullableID(p.CreatedBy),
		p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return mapError("insert product", err)
	}
	return nil
}

// GetByID obtiene un producto por ID (sin filtro de empresa ni de activo).
func (r *ProductRepo) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	if !validID(id) {
		return nil, nil
	}
	return r.scanOne(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
}

// GetActive obtiene un producto activo de la empresa.
func (r *ProductRepo) GetActive(ctx context.Context, companyID, id string) (*entity.Product, error) {
	if !validID(id) || !validID(companyID) {
		return nil, nil
	}
	return r.scanOne(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1 AND company_id = $2 AND is_active`,
		id, companyID)
}

// UpdateDetails actualiza nombre y precio. Stock no se toca aquí.
func (r *ProductRepo) UpdateDetails(ctx context.Context, companyID, id, name string, price decimal.Decimal) error {
	if !validID(id) || !validID(companyID) {
		return domain.ErrNotFound
	}
	cmd, err := r.q.Exec(ctx, `
		UPDATE products SET name = $3, price = $4, updated_at = now()
		WHERE id = $1 AND company_id = $2 AND is_active`,
		id, companyID, name, price,
	)
	if err != nil {
		return mapError("update product", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Deactivate marca el producto como inactivo (soft delete).
func (r *ProductRepo) Deactivate(ctx context.Context, companyID, id string) error {
	if !validID(id) || !validID(companyID) {
		return domain.ErrNotFound
	}
	cmd, err := r.q.Exec(ctx, `
		UPDATE products SET is_active = false, updated_at = now()
		WHERE id = $1 AND company_id = $2 AND is_active`,
		id, companyID,
	)
	if err != nil {
		return mapError("deactivate product", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *ProductRepo) scanOne(ctx context.Context, query string, args ...any) (*entity.Product, error) {
	var p entity.Product
	err := r.q.QueryRow(ctx, query, args...).Scan(
		&p.ID, &p.CompanyID, &p.Name, &p.Price, &p.Stock, &p.IsActive, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, mapError("get product", err)
	}
	return &p, nil
}
