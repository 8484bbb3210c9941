package dto

import "time"

// OrderItemRequest un ítem del lote.
type OrderItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// CreateOrdersRequest body para POST /api/orders.
type CreateOrdersRequest struct {
	Orders []OrderItemRequest `json:"orders"`
}

// UpdateOrderStatusRequest body para PATCH /api/orders/:id.
type UpdateOrderStatusRequest struct {
	Status *string `json:"status"`
}

// OrderSummary resumen de un pedido creado.
type OrderSummary struct {
	ID        string `json:"id"`
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Status    string `json:"status"`
}

// OrderResponse salida completa de un pedido.
type OrderResponse struct {
	ID             string     `json:"id"`
	ProductID      string     `json:"product_id"`
	ProductName    string     `json:"product_name,omitempty"`
	Quantity       int        `json:"quantity"`
	Status         string     `json:"status"`
	CreatedAt      time.Time  `json:"created_at"`
	ShippedAt      *time.Time `json:"shipped_at"`
	CreatedBy      string     `json:"created_by,omitempty"`
	CreatedByEmail string     `json:"created_by_email,omitempty"`
	CompanyID      string     `json:"company_id"`
	CompanyName    string     `json:"company_name,omitempty"`
}
