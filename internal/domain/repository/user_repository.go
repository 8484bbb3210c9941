package repository

import (
	"context"

	"github.com/jhoicas/pedidos-api/internal/domain/entity"
)

// UserRepository define el puerto de lectura para User. El core no muta usuarios.
type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	// GetByID devuelve (nil, nil) si no existe.
	GetByID(ctx context.Context, id string) (*entity.User, error)
}
