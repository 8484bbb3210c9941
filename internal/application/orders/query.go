package orders

import (
	"context"

	"github.com/jhoicas/pedidos-api/internal/domain"
	"github.com/jhoicas/pedidos-api/internal/domain/entity"
	"github.com/jhoicas/pedidos-api/internal/domain/repository"
)

// GetOrderUseCase lectura de un pedido acotada a la empresa del actor.
type GetOrderUseCase struct {
	repo repository.OrderRepository
}

// NewGetOrderUseCase construye el caso de uso.
func NewGetOrderUseCase(repo repository.OrderRepository) *GetOrderUseCase {
	return &GetOrderUseCase{repo: repo}
}

// GetByID devuelve domain.ErrNotFound si el pedido no existe o es de otra empresa.
func (uc *GetOrderUseCase) GetByID(ctx context.Context, companyID, id string) (*entity.Order, error) {
	if companyID == "" || id == "" {
		return nil, domain.ErrNotFound
	}
	o, err := uc.repo.GetByID(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, domain.ErrNotFound
	}
	return o, nil
}
