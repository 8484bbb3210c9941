package orders

import (
	"context"

	"github.com/jhoicas/pedidos-api/internal/domain/entity"
	"github.com/jhoicas/pedidos-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Si fn devuelve error se hace Rollback y ningún cambio queda visible.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		ledger repository.InventoryLedger,
		orderRepo repository.OrderRepository,
	) error) error
}

// NotificationSink recibe las notificaciones de pedidos cumplidos. Se invoca fuera de la
// transacción; su error nunca se propaga al caller de la transición.
type NotificationSink interface {
	Notify(ctx context.Context, n entity.OrderNotification) error
}
