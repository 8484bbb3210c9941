package entity

import "time"

// Company representa una organización/tenant del sistema. Todo Product, User y Order
// pertenece exactamente a una Company.
type Company struct {
	ID        string
	Name      string // único en todo el sistema
	CreatedAt time.Time
}
