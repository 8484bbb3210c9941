package postgres

import (
	"context"

	"github.com/jhoicas/pedidos-api/internal/domain"
	"github.com/jhoicas/pedidos-api/internal/domain/entity"
	"github.com/jhoicas/pedidos-api/internal/domain/repository"
)

var _ repository.OrderRepository = (*OrderRepo)(nil)

const (
	insertOrderSQL = `
		INSERT INTO orders (id, company_id, product_id, quantity, status, created_by, created_at, shipped_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	selectOrderSQL = `
		SELECT o.id, o.company_id, o.product_id, o.quantity, o.status,
		       COALESCE(o.created_by::text, ''), o.created_at, o.shipped_at,
		       p.name, c.name, COALESCE(u.email, '')
		FROM orders o
		JOIN products p ON p.id = o.product_id
		JOIN companies c ON c.id = o.company_id
		LEFT JOIN users u ON u.id = o.created_by
		WHERE o.id = $1 AND o.company_id = $2`
	// Solo se bloquea la fila del pedido; producto, empresa y usuario se leen sin lock.
	selectOrderForUpdateSQL = selectOrderSQL + `
		FOR UPDATE OF o`
	updateOrderStatusSQL = `
		UPDATE orders SET status = $2, shipped_at = $3
		WHERE id = $1`
)

// OrderRepo implementación del puerto OrderRepository sobre PostgreSQL (usable con pool o tx).
type OrderRepo struct {
	q Querier
}

// NewOrderRepository construye el adaptador. Pasar pool o tx (Querier).
func NewOrderRepository(q Querier) *OrderRepo {
	return &OrderRepo{q: q}
}

// Create persiste un pedido.
func (r *OrderRepo) Create(ctx context.Context, o *entity.Order) error {
	_, err := r.q.Exec(ctx, insertOrderSQL,
		o.ID, o.CompanyID, o.ProductID, o.Quantity, string(o.Status),
		nullableID(o.CreatedBy), o.CreatedAt, o.ShippedAt,
	)
	if err != nil {
		return mapError("insert order", err)
	}
	return nil
}

// GetByID obtiene un pedido de la empresa con sus datos de producto, empresa y creador.
func (r *OrderRepo) GetByID(ctx context.Context, companyID, id string) (*entity.Order, error) {
	return r.scanOne(ctx, selectOrderSQL, companyID, id)
}

// GetForUpdate igual que GetByID y además bloquea la fila del pedido.
func (r *OrderRepo) GetForUpdate(ctx context.Context, companyID, id string) (*entity.Order, error) {
	return r.scanOne(ctx, selectOrderForUpdateSQL, companyID, id)
}

// UpdateStatus persiste Status y ShippedAt.
func (r *OrderRepo) UpdateStatus(ctx context.Context, o *entity.Order) error {
	cmd, err := r.q.Exec(ctx, updateOrderStatusSQL, o.ID, string(o.Status), o.ShippedAt)
	if err != nil {
		return mapError("update order status", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *OrderRepo) scanOne(ctx context.Context, query, companyID, id string) (*entity.Order, error) {
	if !validID(id) || !validID(companyID) {
		return nil, nil
	}
	var (
		o      entity.Order
		status string
	)
	err := r.q.QueryRow(ctx, query, id, companyID).Scan(
		&o.ID, &o.CompanyID, &o.ProductID, &o.Quantity, &status,
		&o.CreatedBy, &o.CreatedAt, &o.ShippedAt,
		&o.ProductName, &o.CompanyName, &o.CreatedByEmail,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, mapError("get order", err)
	}
	o.Status = entity.OrderStatus(status)
	return &o, nil
}
