package repository

import (
	"context"

	"github.com/jhoicas/pedidos-api/internal/domain/entity"
)

// OrderRepository define el puerto de persistencia para Order.
// Todas las lecturas están acotadas a la empresa: un pedido de otra empresa no existe.
type OrderRepository interface {
	Create(ctx context.Context, order *entity.Order) error
	// GetByID devuelve (nil, nil) si no existe o es de otra empresa.
	GetByID(ctx context.Context, companyID, id string) (*entity.Order, error)
	// GetForUpdate igual que GetByID pero bloquea la fila del pedido hasta el fin de la tx.
	GetForUpdate(ctx context.Context, companyID, id string) (*entity.Order, error)
	// UpdateStatus persiste Status y ShippedAt.
	UpdateStatus(ctx context.Context, order *entity.Order) error
}
