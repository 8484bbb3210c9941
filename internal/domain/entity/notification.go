package entity

// OrderNotification datos que recibe el sink de notificaciones cuando un pedido se cumple.
type OrderNotification struct {
	OrderID          string      `json:"order_id"`
	CustomerIdentity string      `json:"customer"` // email del usuario que creó el pedido
	CompanyName      string      `json:"company"`
	ProductName      string      `json:"product"`
	Quantity         int         `json:"quantity"`
	Status           OrderStatus `json:"status"`
}

// NewOrderNotification arma la notificación a partir de un pedido leído con sus joins.
func NewOrderNotification(o *Order) OrderNotification {
	return OrderNotification{
		OrderID:          o.ID,
		CustomerIdentity: o.CreatedByEmail,
		CompanyName:      o.CompanyName,
		ProductName:      o.ProductName,
		Quantity:         o.Quantity,
		Status:           o.Status,
	}
}
