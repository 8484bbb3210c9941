package entity

import "time"

// Roles válidos para User.
const (
	RoleAdmin    = "ADMIN"
	RoleOperator = "OPERATOR"
	RoleViewer   = "VIEWER"
)

// ValidRole indica si role es uno de los roles conocidos.
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleOperator, RoleViewer:
		return true
	}
	return false
}

// User representa un usuario del sistema (pertenece a una Company).
// El core solo lo consume como identidad del actor.
type User struct {
	ID        string
	CompanyID string
	Email     string
	Role      string // ADMIN, OPERATOR, VIEWER
	IsActive  bool
	CreatedAt time.Time
}
