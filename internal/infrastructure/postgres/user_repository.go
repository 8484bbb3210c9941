package postgres

import (
	"context"

	"github.com/jhoicas/pedidos-api/internal/domain/entity"
	"github.com/jhoicas/pedidos-api/internal/domain/repository"
)

var _ repository.UserRepository = (*UserRepo)(nil)

// UserRepo implementación del puerto UserRepository sobre PostgreSQL.
type UserRepo struct {
	q Querier
}

// NewUserRepository construye el adaptador de persistencia para usuarios.
func NewUserRepository(q Querier) *UserRepo {
	return &UserRepo{q: q}
}

// Create persiste un nuevo usuario. Email duplicado -> domain.ErrDuplicate.
func (r *UserRepo) Create(ctx context.Context, user *entity.User) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO users (id, company_id, email, role, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		user.ID, user.CompanyID, user.Email, user.Role, user.IsActive, user.CreatedAt,
	)
	if err != nil {
		return mapError("insert user", err)
	}
	return nil
}

// GetByID obtiene un usuario por ID.
func (r *UserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	if !validID(id) {
		return nil, nil
	}
	var u entity.User
	err := r.q.QueryRow(ctx, `
		SELECT id, company_id, email, role, is_active, created_at
		FROM users WHERE id = $1`, id,
	).Scan(&u.ID, &u.CompanyID, &u.Email, &u.Role, &u.IsActive, &u.CreatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, mapError("get user", err)
	}
	return &u, nil
}
