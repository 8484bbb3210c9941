package memory

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/pedidos-api/internal/domain"
	"github.com/jhoicas/pedidos-api/internal/domain/entity"
	"github.com/jhoicas/pedidos-api/internal/domain/repository"
)

var (
	_ repository.CompanyRepository = (*CompanyRepo)(nil)
	_ repository.UserRepository    = (*UserRepo)(nil)
	_ repository.ProductRepository = (*ProductRepo)(nil)
	_ repository.OrderRepository   = (*OrderRepo)(nil)
)

// CompanyRepo empresas en memoria.
type CompanyRepo struct{ s *Store }

// NewCompanyRepository construye el repositorio.
func NewCompanyRepository(s *Store) *CompanyRepo { return &CompanyRepo{s: s} }

func (r *CompanyRepo) Create(_ context.Context, c *entity.Company) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.companies {
		if existing.Name == c.Name {
			return domain.ErrDuplicate
		}
	}
	r.s.companies[c.ID] = *c
	return nil
}

func (r *CompanyRepo) GetByID(_ context.Context, id string) (*entity.Company, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	c, ok := r.s.companies[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

// UserRepo usuarios en memoria.
type UserRepo struct{ s *Store }

// NewUserRepository construye el repositorio.
func NewUserRepository(s *Store) *UserRepo { return &UserRepo{s: s} }

func (r *UserRepo) Create(_ context.Context, u *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.users {
		if existing.Email == u.Email {
			return domain.ErrDuplicate
		}
	}
	r.s.users[u.ID] = *u
	return nil
}

func (r *UserRepo) GetByID(_ context.Context, id string) (*entity.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

// ProductRepo productos en memoria. Las escrituras sobre un producto toman su lock de fila.
type ProductRepo struct{ s *Store }

// NewProductRepository construye el repositorio.
func NewProductRepository(s *Store) *ProductRepo { return &ProductRepo{s: s} }

func (r *ProductRepo) Create(_ context.Context, p *entity.Product) error {
	if p.Stock < 0 {
		return domain.ErrInvalidInput
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.nameTaken(p.CompanyID, p.ID, p.Name) {
		return domain.ErrDuplicate
	}
	r.s.products[p.ID] = *p
	return nil
}

// nameTaken requiere r.s.mu tomado.
func (r *ProductRepo) nameTaken(companyID, exceptID, name string) bool {
	for _, existing := range r.s.products {
		if existing.CompanyID == companyID && existing.Name == name && existing.ID != exceptID {
			return true
		}
	}
	return false
}

func (r *ProductRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.products[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (r *ProductRepo) GetActive(_ context.Context, companyID, id string) (*entity.Product, error) {
	p, ok := r.s.productOf(companyID, id)
	if !ok || !p.IsActive {
		return nil, nil
	}
	return &p, nil
}

func (r *ProductRepo) UpdateDetails(ctx context.Context, companyID, id, name string, price decimal.Decimal) error {
	return r.withRowLock(ctx, companyID, id, func(p *entity.Product) error {
		if r.nameTaken(companyID, id, name) {
			return domain.ErrDuplicate
		}
		p.Name = name
		p.Price = price
		return nil
	})
}

func (r *ProductRepo) Deactivate(ctx context.Context, companyID, id string) error {
	return r.withRowLock(ctx, companyID, id, func(p *entity.Product) error {
		p.IsActive = false
		return nil
	})
}

// withRowLock toma el lock del producto (como lo haría un UPDATE) y aplica fn sobre un producto activo.
func (r *ProductRepo) withRowLock(ctx context.Context, companyID, id string, fn func(p *entity.Product) error) error {
	if _, ok := r.s.productOf(companyID, id); !ok {
		return domain.ErrNotFound
	}
	key := productKey(id)
	if err := r.s.lock(ctx, key); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
	}
	defer r.s.unlock(key)

	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p := r.s.products[id]
	if !p.IsActive {
		return domain.ErrNotFound
	}
	if err := fn(&p); err != nil {
		return err
	}
	p.UpdatedAt = r.s.now()
	r.s.products[id] = p
	return nil
}

// OrderRepo pedidos en memoria fuera de transacción. Cada escritura se confirma al instante.
type OrderRepo struct{ s *Store }

// NewOrderRepository construye el repositorio.
func NewOrderRepository(s *Store) *OrderRepo { return &OrderRepo{s: s} }

func (r *OrderRepo) Create(_ context.Context, o *entity.Order) error {
	if o.Quantity < 1 || !o.Status.Valid() {
		return domain.ErrInvalidInput
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.orders[o.ID] = *o
	return nil
}

func (r *OrderRepo) GetByID(_ context.Context, companyID, id string) (*entity.Order, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	o, ok := r.s.orders[id]
	if !ok || o.CompanyID != companyID {
		return nil, nil
	}
	return r.s.hydrate(o), nil
}

// GetForUpdate fuera de una tx no hay lock que mantener: equivale a GetByID.
func (r *OrderRepo) GetForUpdate(ctx context.Context, companyID, id string) (*entity.Order, error) {
	return r.GetByID(ctx, companyID, id)
}

func (r *OrderRepo) UpdateStatus(_ context.Context, o *entity.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.orders[o.ID]
	if !ok {
		return domain.ErrNotFound
	}
	cur.Status = o.Status
	cur.ShippedAt = o.ShippedAt
	r.s.orders[o.ID] = cur
	return nil
}
