package postgres

import (
	"context"

	"github.com/jhoicas/pedidos-api/internal/domain"
	"github.com/jhoicas/pedidos-api/internal/domain/repository"
)

var _ repository.InventoryLedger = (*InventoryLedger)(nil)

const (
	// lockProductSQL bloquea la fila del producto (SELECT FOR UPDATE). El filtro por empresa y
	// activo va en la misma consulta: un producto ajeno nunca se bloquea ni se distingue.
	lockProductSQL = `
		SELECT stock FROM products
		WHERE id = $1 AND company_id = $2 AND is_active
		FOR UPDATE`
	decrementStockSQL = `
		UPDATE products SET stock = stock - $2, updated_at = now()
		WHERE id = $1
		RETURNING stock`
	incrementStockSQL = `
		UPDATE products SET stock = stock + $2, updated_at = now()
		WHERE id = $1
		RETURNING stock`
)

// InventoryLedger implementación del ledger de stock sobre PostgreSQL. Debe construirse con
// una pgx.Tx: el lock de fila dura hasta el Commit/Rollback de esa tx.
type InventoryLedger struct {
	q Querier
}

// NewInventoryLedger construye el ledger atado a la tx.
func NewInventoryLedger(q Querier) *InventoryLedger {
	return &InventoryLedger{q: q}
}

// Reserve bloquea la fila, relee el stock bajo lock y descuenta quantity.
func (l *InventoryLedger) Reserve(ctx context.Context, companyID, productID string, quantity int) (int, error) {
	if quantity < 1 {
		return 0, domain.ErrInvalidInput
	}
	available, err := l.lockStock(ctx, companyID, productID)
	if err != nil {
		return 0, err
	}
	if available < quantity {
		return 0, &domain.InsufficientStockError{ProductID: productID, Requested: quantity, Available: available}
	}
	var stock int
	if err := l.q.QueryRow(ctx, decrementStockSQL, productID, quantity).Scan(&stock); err != nil {
		return 0, mapError("decrement stock", err)
	}
	return stock, nil
}

// Replenish bloquea la misma fila que Reserve y suma quantity.
func (l *InventoryLedger) Replenish(ctx context.Context, companyID, productID string, quantity int) (int, error) {
	if quantity < 1 {
		return 0, domain.ErrInvalidInput
	}
	if _, err := l.lockStock(ctx, companyID, productID); err != nil {
		return 0, err
	}
	var stock int
	if err := l.q.QueryRow(ctx, incrementStockSQL, productID, quantity).Scan(&stock); err != nil {
		return 0, mapError("increment stock", err)
	}
	return stock, nil
}

func (l *InventoryLedger) lockStock(ctx context.Context, companyID, productID string) (int, error) {
	if !validID(productID) || !validID(companyID) {
		return 0, domain.ErrNotFound
	}
	var stock int
	if err := l.q.QueryRow(ctx, lockProductSQL, productID, companyID).Scan(&stock); err != nil {
		if isNoRows(err) {
			return 0, domain.ErrNotFound
		}
		return 0, mapError("lock product", err)
	}
	return stock, nil
}
