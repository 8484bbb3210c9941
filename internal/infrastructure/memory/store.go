// Package memory implementa los puertos de persistencia en memoria. El bloqueo de fila se
// emula con un lock por clave (producto o pedido) que se mantiene hasta el Commit/Rollback
// de la transacción, y las escrituras se aplican recién en el Commit.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jhoicas/pedidos-api/internal/domain/entity"
)

// Store datos compartidos por todos los repositorios y transacciones en memoria.
type Store struct {
	mu        sync.RWMutex
	companies map[string]entity.Company
	users     map[string]entity.User
	products  map[string]entity.Product
	orders    map[string]entity.Order

	locksMu sync.Mutex
	locks   map[string]chan struct{}

	now func() time.Time
}

// NewStore crea un store vacío.
func NewStore() *Store {
	return &Store{
		companies: make(map[string]entity.Company),
		users:     make(map[string]entity.User),
		products:  make(map[string]entity.Product),
		orders:    make(map[string]entity.Order),
		locks:     make(map[string]chan struct{}),
		now:       time.Now,
	}
}

func productKey(id string) string { return "product:" + id }
func orderKey(id string) string   { return "order:" + id }

// lock toma el lock exclusivo de key; bloquea hasta obtenerlo o hasta que ctx termine.
func (s *Store) lock(ctx context.Context, key string) error {
	s.locksMu.Lock()
	ch, ok := s.locks[key]
	if !ok {
		ch = make(chan struct{}, 1)
		s.locks[key] = ch
	}
	s.locksMu.Unlock()

	select {
	case ch <- struct{}{}:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("esperando lock %s: %w", key, ctx.Err())
	}
}

func (s *Store) unlock(key string) {
	s.locksMu.Lock()
	ch := s.locks[key]
	s.locksMu.Unlock()
	<-ch
}

// hydrate completa los campos de join del pedido. Requiere s.mu tomado (lectura).
func (s *Store) hydrate(o entity.Order) *entity.Order {
	if p, ok := s.products[o.ProductID]; ok {
		o.ProductName = p.Name
	}
	if c, ok := s.companies[o.CompanyID]; ok {
		o.CompanyName = c.Name
	}
	if u, ok := s.users[o.CreatedBy]; ok {
		o.CreatedByEmail = u.Email
	}
	return &o
}

// productOf devuelve el producto si pertenece a companyID (sin mirar el flag activo).
func (s *Store) productOf(companyID, id string) (entity.Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[id]
	if !ok || p.CompanyID != companyID {
		return entity.Product{}, false
	}
	return p, true
}

func (s *Store) orderOf(companyID, id string) (entity.Order, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orders[id]
	if !ok || o.CompanyID != companyID {
		return entity.Order{}, false
	}
	return o, true
}
