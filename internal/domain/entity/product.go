package entity

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// MinPrice precio mínimo de un producto.
var MinPrice = decimal.RequireFromString("0.01")

// MaxStock tope del stock de un producto (columna INTEGER).
const MaxStock = math.MaxInt32

// Product representa un producto vendible de una empresa.
// Stock solo se descuenta vía reserva (InventoryLedger); nunca por asignación directa.
type Product struct {
	ID        string
	CompanyID string // inmutable después de crear
	Name      string // único por empresa
	Price     decimal.Decimal
	Stock     int
	IsActive  bool // false = desactivado (soft delete)
	CreatedBy string
	CreatedAt time.Time
	UpdatedAt time.Time
}
