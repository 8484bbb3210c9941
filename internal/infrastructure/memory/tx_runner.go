package memory

import (
	"context"
	"fmt"

	"github.com/jhoicas/pedidos-api/internal/application/orders"
	"github.com/jhoicas/pedidos-api/internal/application/usecase"
	"github.com/jhoicas/pedidos-api/internal/domain"
	"github.com/jhoicas/pedidos-api/internal/domain/entity"
	"github.com/jhoicas/pedidos-api/internal/domain/repository"
)

var _ orders.TxRunner = (*TxRunner)(nil)
var _ usecase.StockTxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción en memoria.
type TxRunner struct {
	s *Store
}

// NewTxRunner construye el runner sobre el store.
func NewTxRunner(s *Store) *TxRunner {
	return &TxRunner{s: s}
}

// Run ejecuta fn con repos atados a una tx nueva. Si fn devuelve error nada se aplica;
// en ambos casos los locks tomados se liberan al salir.
func (r *TxRunner) Run(ctx context.Context, fn func(
	ledger repository.InventoryLedger,
	orderRepo repository.OrderRepository,
) error) error {
	t := &tx{
		s:          r.s,
		held:       make(map[string]bool),
		stockDelta: make(map[string]int),
		updates:    make(map[string]entity.Order),
	}
	defer t.release()

	if err := fn(&ledgerTx{t: t}, &orderTx{t: t}); err != nil {
		return err
	}
	t.commit()
	return nil
}

type tx struct {
	s          *Store
	held       map[string]bool
	heldOrder  []string
	stockDelta map[string]int
	inserts    []entity.Order
	updates    map[string]entity.Order
}

func (t *tx) lock(ctx context.Context, key string) error {
	if t.held[key] {
		return nil
	}
	if err := t.s.lock(ctx, key); err != nil {
		return err
	}
	t.held[key] = true
	t.heldOrder = append(t.heldOrder, key)
	return nil
}

func (t *tx) release() {
	for i := len(t.heldOrder) - 1; i >= 0; i-- {
		t.s.unlock(t.heldOrder[i])
	}
	t.heldOrder = nil
	t.held = map[string]bool{}
}

func (t *tx) commit() {
	s := t.s
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, d := range t.stockDelta {
		p := s.products[id]
		p.Stock += d
		p.UpdatedAt = now
		s.products[id] = p
	}
	for _, o := range t.inserts {
		s.orders[o.ID] = o
	}
	for id, u := range t.updates {
		o := s.orders[id]
		o.Status = u.Status
		o.ShippedAt = u.ShippedAt
		s.orders[id] = o
	}
}

// ledgerTx InventoryLedger atado a la tx.
type ledgerTx struct {
	t *tx
}

// lockActive bloquea la fila del producto y lo relee bajo lock.
func (l *ledgerTx) lockActive(ctx context.Context, companyID, productID string) (entity.Product, error) {
	if _, ok := l.t.s.productOf(companyID, productID); !ok {
		return entity.Product{}, domain.ErrNotFound
	}
	if err := l.t.lock(ctx, productKey(productID)); err != nil {
		return entity.Product{}, fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
	}
	p, ok := l.t.s.productOf(companyID, productID)
	if !ok || !p.IsActive {
		return entity.Product{}, domain.ErrNotFound
	}
	return p, nil
}

func (l *ledgerTx) Reserve(ctx context.Context, companyID, productID string, quantity int) (int, error) {
	if quantity < 1 {
		return 0, domain.ErrInvalidInput
	}
	p, err := l.lockActive(ctx, companyID, productID)
	if err != nil {
		return 0, err
	}
	available := p.Stock + l.t.stockDelta[productID]
	if available < quantity {
		return 0, &domain.InsufficientStockError{ProductID: productID, Requested: quantity, Available: available}
	}
	l.t.stockDelta[productID] -= quantity
	return available - quantity, nil
}

func (l *ledgerTx) Replenish(ctx context.Context, companyID, productID string, quantity int) (int, error) {
	if quantity < 1 {
		return 0, domain.ErrInvalidInput
	}
	p, err := l.lockActive(ctx, companyID, productID)
	if err != nil {
		return 0, err
	}
	if p.Stock+l.t.stockDelta[productID] > entity.MaxStock-quantity {
		return 0, domain.ErrInvalidInput
	}
	l.t.stockDelta[productID] += quantity
	return p.Stock + l.t.stockDelta[productID], nil
}

// orderTx OrderRepository atado a la tx.
type orderTx struct {
	t *tx
}

func (r *orderTx) Create(_ context.Context, o *entity.Order) error {
	if o.Quantity < 1 || !o.Status.Valid() {
		return domain.ErrInvalidInput
	}
	r.t.inserts = append(r.t.inserts, *o)
	return nil
}

func (r *orderTx) GetByID(_ context.Context, companyID, id string) (*entity.Order, error) {
	return r.read(companyID, id), nil
}

func (r *orderTx) GetForUpdate(ctx context.Context, companyID, id string) (*entity.Order, error) {
	if _, ok := r.t.s.orderOf(companyID, id); !ok {
		return nil, nil
	}
	if err := r.t.lock(ctx, orderKey(id)); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
	}
	return r.read(companyID, id), nil
}

func (r *orderTx) UpdateStatus(_ context.Context, o *entity.Order) error {
	r.t.updates[o.ID] = *o
	return nil
}

func (r *orderTx) read(companyID, id string) *entity.Order {
	s := r.t.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orders[id]
	if !ok || o.CompanyID != companyID {
		return nil
	}
	if u, pending := r.t.updates[id]; pending {
		o.Status = u.Status
		o.ShippedAt = u.ShippedAt
	}
	return s.hydrate(o)
}
