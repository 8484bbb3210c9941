package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/pedidos-api/internal/application/dto"
	"github.com/jhoicas/pedidos-api/internal/domain"
	"github.com/jhoicas/pedidos-api/internal/domain/entity"
	"github.com/jhoicas/pedidos-api/internal/domain/repository"
)

// StockTxRunner ejecuta una función dentro de una transacción con el ledger atado a la tx.
type StockTxRunner interface {
	Run(ctx context.Context, fn func(
		ledger repository.InventoryLedger,
		orderRepo repository.OrderRepository,
	) error) error
}

// ProductUseCase casos de uso para productos. Stock solo baja vía pedidos y solo sube vía Restock.
// Un producto inactivo o de otra empresa se trata como inexistente.
type ProductUseCase struct {
	repo     repository.ProductRepository
	txRunner StockTxRunner
}

// NewProductUseCase construye el caso de uso.
func NewProductUseCase(repo repository.ProductRepository, txRunner StockTxRunner) *ProductUseCase {
	return &ProductUseCase{repo: repo, txRunner: txRunner}
}

// Create crea un nuevo producto activo con el stock inicial indicado.
func (uc *ProductUseCase) Create(ctx context.Context, companyID, actorID string, in dto.CreateProductRequest) (*dto.ProductResponse, error) {
	name := normalizeName(in.Name)
	if !validName(name) || in.Price.LessThan(entity.MinPrice) || in.Stock < 0 || in.Stock > entity.MaxStock {
		return nil, domain.ErrInvalidInput
	}
	now := time.Now()
	product := &entity.Product{
		ID:        uuid.New().String(),
		CompanyID: companyID,
		Name:      name,
		Price:     in.Price,
		Stock:     in.Stock,
		IsActive:  true,
		CreatedBy: actorID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.repo.Create(ctx, product); err != nil {
		return nil, err
	}
	return toProductResponse(product), nil
}

// GetByID obtiene un producto activo de la empresa.
func (uc *ProductUseCase) GetByID(ctx context.Context, companyID, id string) (*dto.ProductResponse, error) {
	product, err := uc.active(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	return toProductResponse(product), nil
}

// Update actualiza nombre y/o precio. No permite modificar Stock.
func (uc *ProductUseCase) Update(ctx context.Context, companyID, id string, in dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	product, err := uc.active(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		product.Name = normalizeName(*in.Name)
		if !validName(product.Name) {
			return nil, domain.ErrInvalidInput
		}
	}
	if in.Price != nil {
		if in.Price.LessThan(entity.MinPrice) {
			return nil, domain.ErrInvalidInput
		}
		product.Price = *in.Price
	}
	if err := uc.repo.UpdateDetails(ctx, companyID, id, product.Name, product.Price); err != nil {
		return nil, err
	}
	return uc.GetByID(ctx, companyID, id)
}

// Restock suma quantity al stock bajo el mismo lock de fila que usan las reservas.
func (uc *ProductUseCase) Restock(ctx context.Context, companyID, id string, quantity int) (*dto.ProductResponse, error) {
	if quantity < 1 || quantity > entity.MaxStock {
		return nil, domain.ErrInvalidInput
	}
	err := uc.txRunner.Run(ctx, func(ledger repository.InventoryLedger, _ repository.OrderRepository) error {
		_, err := ledger.Replenish(ctx, companyID, id, quantity)
		return err
	})
	if err != nil {
		return nil, err
	}
	return uc.GetByID(ctx, companyID, id)
}

// Deactivate desactiva el producto (soft delete). Los pedidos existentes no cambian.
func (uc *ProductUseCase) Deactivate(ctx context.Context, companyID, id string) error {
	return uc.repo.Deactivate(ctx, companyID, id)
}

func (uc *ProductUseCase) active(ctx context.Context, companyID, id string) (*entity.Product, error) {
	if companyID == "" || id == "" {
		return nil, domain.ErrNotFound
	}
	product, err := uc.repo.GetActive(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}
	return product, nil
}

func toProductResponse(p *entity.Product) *dto.ProductResponse {
	if p == nil {
		return nil
	}
	return &dto.ProductResponse{
		ID:        p.ID,
		CompanyID: p.CompanyID,
		Name:      p.Name,
		Price:     p.Price,
		Stock:     p.Stock,
		IsActive:  p.IsActive,
		CreatedBy: p.CreatedBy,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}
