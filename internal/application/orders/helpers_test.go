package orders_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pedidos-api/internal/domain/entity"
	"github.com/jhoicas/pedidos-api/internal/infrastructure/memory"
)

type fixture struct {
	store    *memory.Store
	products *memory.ProductRepo
	orders   *memory.OrderRepo
	runner   *memory.TxRunner
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s := memory.NewStore()
	f := &fixture{
		store:    s,
		products: memory.NewProductRepository(s),
		orders:   memory.NewOrderRepository(s),
		runner:   memory.NewTxRunner(s),
	}
	ctx := context.Background()
	for _, c := range []entity.Company{{ID: "acme", Name: "Acme"}, {ID: "globex", Name: "Globex"}} {
		c := c
		require.NoError(t, memory.NewCompanyRepository(s).Create(ctx, &c))
	}
	require.NoError(t, memory.NewUserRepository(s).Create(ctx, &entity.User{
		ID: "ana", CompanyID: "acme", Email: "ana@acme.test", Role: entity.RoleOperator, IsActive: true,
	}))
	return f
}

func (f *fixture) product(t *testing.T, companyID, id string, stock int) {
	t.Helper()
	now := time.Now()
	require.NoError(t, f.products.Create(context.Background(), &entity.Product{
		ID: id, CompanyID: companyID, Name: "Producto " + id, Price: decimal.RequireFromString("9.99"),
		Stock: stock, IsActive: true, CreatedAt: now, UpdatedAt: now,
	}))
}

func (f *fixture) stock(t *testing.T, id string) int {
	t.Helper()
	p, err := f.products.GetByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, p)
	return p.Stock
}

// captureSink registra las notificaciones recibidas.
type captureSink struct {
	mu  sync.Mutex
	got []entity.OrderNotification
	err error
}

func (s *captureSink) Notify(_ context.Context, n entity.OrderNotification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.got = append(s.got, n)
	return s.err
}

func (s *captureSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.got)
}

type panickingSink struct{}

func (panickingSink) Notify(context.Context, entity.OrderNotification) error { panic("sink caído") }
