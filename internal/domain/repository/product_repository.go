package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/pedidos-api/internal/domain/entity"
)

// ProductRepository define el puerto de persistencia para Product (DIP).
// Stock no se modifica aquí: ver InventoryLedger.
type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	// GetByID devuelve (nil, nil) si no existe. No filtra por empresa ni por activo.
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	// GetActive devuelve el producto solo si pertenece a companyID y está activo; si no, (nil, nil).
	GetActive(ctx context.Context, companyID, id string) (*entity.Product, error)
	UpdateDetails(ctx context.Context, companyID, id, name string, price decimal.Decimal) error
	Deactivate(ctx context.Context, companyID, id string) error
}

// InventoryLedger es dueño del stock de los productos. Sus operaciones se ejecutan dentro
// de una transacción gestionada por el caller y bloquean la fila del producto hasta el
// Commit/Rollback de esa transacción.
type InventoryLedger interface {
	// Reserve bloquea la fila, relee el stock bajo lock y descuenta quantity.
	// Errores: domain.ErrNotFound (otra empresa, inactivo o inexistente, indistinguibles)
	// y *domain.InsufficientStockError con el disponible leído bajo lock.
	Reserve(ctx context.Context, companyID, productID string, quantity int) (int, error)
	// Replenish bloquea la misma fila y suma quantity. Devuelve el stock resultante.
	Replenish(ctx context.Context, companyID, productID string, quantity int) (int, error)
}
