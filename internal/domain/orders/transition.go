package orders

import (
	"time"

	"github.com/jhoicas/pedidos-api/internal/domain/entity"
)

// ApplyStatus aplica el nuevo estado sobre el pedido (ya leído bajo lock) y devuelve true
// si la transición es la de cumplimiento: entrada a SUCCESS desde otro estado.
// Solo en ese caso se fija ShippedAt, y únicamente si no estaba fijado.
// No hay restricción de grafo: cualquier estado puede pasar a cualquier otro.
func ApplyStatus(o *entity.Order, next entity.OrderStatus, now time.Time) (fulfilled bool) {
	prev := o.Status
	o.Status = next
	if next != entity.OrderStatusSuccess || prev == entity.OrderStatusSuccess {
		return false
	}
	if o.ShippedAt == nil {
		t := now
		o.ShippedAt = &t
	}
	return true
}

// CanModify regla a nivel de pedido: ADMIN modifica cualquiera; OPERATOR solo los creados
// el mismo día (UTC) que now. Cualquier otro rol no modifica pedidos.
func CanModify(role string, o *entity.Order, now time.Time) bool {
	switch role {
	case entity.RoleAdmin:
		return true
	case entity.RoleOperator:
		cy, cm, cd := o.CreatedAt.UTC().Date()
		ny, nm, nd := now.UTC().Date()
		return cy == ny && cm == nm && cd == nd
	}
	return false
}
