package entity

import "time"

// OrderStatus estado de un pedido.
type OrderStatus string

const (
	OrderStatusPending OrderStatus = "PENDING"
	OrderStatusSuccess OrderStatus = "SUCCESS"
	OrderStatusFailed  OrderStatus = "FAILED"
)

// Valid indica si el estado es uno de los conocidos.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusSuccess, OrderStatusFailed:
		return true
	}
	return false
}

// Order representa un pedido de un producto. CompanyID, ProductID, Quantity y CreatedAt
// son inmutables; Status y ShippedAt solo cambian vía el motor de transiciones.
type Order struct {
	ID        string
	CompanyID string
	ProductID string
	Quantity  int
	Status    OrderStatus
	CreatedBy string
	CreatedAt time.Time
	ShippedAt *time.Time // se fija una sola vez, al llegar a SUCCESS

	// Campos de solo lectura (join), usados para la notificación y las respuestas.
	ProductName    string
	CompanyName    string
	CreatedByEmail string
}
