package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pedidos-api/internal/application/orders"
	"github.com/jhoicas/pedidos-api/internal/application/usecase"
	"github.com/jhoicas/pedidos-api/internal/domain/entity"
	"github.com/jhoicas/pedidos-api/internal/domain/repository"
	"github.com/jhoicas/pedidos-api/internal/infrastructure/idempotency"
	"github.com/jhoicas/pedidos-api/internal/infrastructure/memory"
	apphttp "github.com/jhoicas/pedidos-api/internal/interfaces/http"
	"github.com/jhoicas/pedidos-api/pkg/logger"
)

type recordingSink struct{ got []entity.OrderNotification }

func (s *recordingSink) Notify(_ context.Context, n entity.OrderNotification) error {
	s.got = append(s.got, n)
	return nil
}

type apiFixture struct {
	app   *fiber.App
	store *memory.Store
	sink  *recordingSink
}

// newAPI arma la API completa sobre el store en memoria. Con redis != nil habilita Idempotency-Key.
func newAPI(t *testing.T, rdb *redis.Client) *apiFixture {
	t.Helper()
	s := memory.NewStore()
	log := logger.Nop()
	sink := &recordingSink{}
	runner := memory.NewTxRunner(s)
	productRepo := memory.NewProductRepository(s)

	ctx := context.Background()
	require.NoError(t, memory.NewCompanyRepository(s).Create(ctx, &entity.Company{ID: testCompanyID, Name: "Acme"}))
	require.NoError(t, memory.NewUserRepository(s).Create(ctx, &entity.User{
		ID: testUserID, CompanyID: testCompanyID, Email: "ana@acme.test", Role: entity.RoleOperator, IsActive: true,
	}))

	deps := apphttp.RouterDeps{
		CompanyUC:    usecase.NewCompanyUseCase(memory.NewCompanyRepository(s)),
		ProductUC:    usecase.NewProductUseCase(productRepo, runner),
		CreateOrders: orders.NewCreateBatchUseCase(runner, productRepo, orders.BatchConfig{Precheck: true, MaxItems: 10, MaxRetries: 1}, log),
		TransitionUC: orders.NewTransitionUseCase(runner, sink, log),
		GetOrder:     orders.NewGetOrderUseCase(memory.NewOrderRepository(s)),
		JWTSecret:    testJWTSecret,
		JWTIssuer:    testIssuer,
		Logger:       log,
	}
	if rdb != nil {
		deps.Idempotency = idempotency.NewRedisStore(rdb, time.Hour)
	}
	app := fiber.New()
	apphttp.Router(app, deps)
	return &apiFixture{app: app, store: s, sink: sink}
}

func (f *apiFixture) do(t *testing.T, method, path, role string, body any, headers ...string) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if role != "" {
		req.Header.Set("Authorization", tokenForRole(t, role))
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]any{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

func (f *apiFixture) createProduct(t *testing.T, name string, stock int) string {
	t.Helper()
	code, body := f.do(t, http.MethodPost, "/api/products", "ADMIN", map[string]any{
		"name": name, "price": "12.50", "stock": stock,
	})
	require.Equal(t, http.StatusCreated, code, body)
	return body["id"].(string)
}

func (f *apiFixture) productStock(t *testing.T, id string) int {
	t.Helper()
	code, body := f.do(t, http.MethodGet, "/api/products/"+id, "VIEWER", nil)
	require.Equal(t, http.StatusOK, code, body)
	return int(body["stock"].(float64))
}

func TestAPI_Health(t *testing.T) {
	f := newAPI(t, nil)
	code, body := f.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])
}

func TestAPI_OrderLifecycle(t *testing.T) {
	f := newAPI(t, nil)
	productID := f.createProduct(t, "Tornillo", 10)

	code, body := f.do(t, http.MethodPost, "/api/orders", "OPERATOR", map[string]any{
		"orders": []map[string]any{{"product_id": productID, "quantity": 4}},
	})
	require.Equal(t, http.StatusCreated, code, body)
	created := body["orders"].([]any)
	require.Len(t, created, 1)
	orderID := created[0].(map[string]any)["id"].(string)
	assert.Equal(t, "PENDING", created[0].(map[string]any)["status"])
	assert.Equal(t, 6, f.productStock(t, productID))

	code, body = f.do(t, http.MethodPatch, "/api/orders/"+orderID, "OPERATOR", map[string]any{"status": "SUCCESS"})
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "SUCCESS", body["status"])
	assert.NotNil(t, body["shipped_at"])

	code, body = f.do(t, http.MethodGet, "/api/orders/"+orderID, "OPERATOR", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Tornillo", body["product_name"])
	assert.Equal(t, "Acme", body["company_name"])
	assert.Equal(t, "ana@acme.test", body["created_by_email"])

	require.Len(t, f.sink.got, 1)
	assert.Equal(t, orderID, f.sink.got[0].OrderID)
}

func TestAPI_OperatorSoloModificaPedidosDeHoy(t *testing.T) {
	f := newAPI(t, nil)
	productID := f.createProduct(t, "Clavo", 3)
	const oldID = "9b2f8f56-3c1e-4a8e-9a57-0a4f1d6e7c21"

	ctx := context.Background()
	require.NoError(t, memory.NewTxRunner(f.store).Run(ctx, func(_ repository.InventoryLedger, orderRepo repository.OrderRepository) error {
		return orderRepo.Create(ctx, &entity.Order{
			ID: oldID, CompanyID: testCompanyID, ProductID: productID, Quantity: 1,
			Status: entity.OrderStatusPending, CreatedBy: testUserID, CreatedAt: time.Now().Add(-48 * time.Hour),
		})
	}))

	code, body := f.do(t, http.MethodPatch, "/api/orders/"+oldID, "OPERATOR", map[string]any{"status": "SUCCESS"})
	require.Equal(t, http.StatusForbidden, code, body)
	assert.Equal(t, "FORBIDDEN", body["code"])
	assert.Empty(t, f.sink.got)

	code, body = f.do(t, http.MethodGet, "/api/orders/"+oldID, "OPERATOR", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "PENDING", body["status"])

	code, body = f.do(t, http.MethodPatch, "/api/orders/"+oldID, "ADMIN", map[string]any{"status": "SUCCESS"})
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "SUCCESS", body["status"])
	assert.Len(t, f.sink.got, 1)
}

func TestAPI_InsufficientStockDetails(t *testing.T) {
	f := newAPI(t, nil)
	p1 := f.createProduct(t, "A", 5)
	p2 := f.createProduct(t, "B", 1)

	code, body := f.do(t, http.MethodPost, "/api/orders", "ADMIN", map[string]any{
		"orders": []map[string]any{
			{"product_id": p1, "quantity": 2},
			{"product_id": p2, "quantity": 3},
		},
	})
	require.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "INSUFFICIENT_STOCK", body["code"])
	details := body["details"].(map[string]any)
	assert.EqualValues(t, 1, details["index"])
	assert.Equal(t, p2, details["product_id"])
	assert.EqualValues(t, 3, details["requested"])
	assert.EqualValues(t, 1, details["available"])

	assert.Equal(t, 5, f.productStock(t, p1))
}

func TestAPI_ErrorMapping(t *testing.T) {
	f := newAPI(t, nil)
	productID := f.createProduct(t, "Tuerca", 1)

	tests := []struct {
		name   string
		method string
		path   string
		role   string
		body   any
		status int
		code   string
	}{
		{"lote vacío", http.MethodPost, "/api/orders", "OPERATOR", map[string]any{"orders": []any{}}, http.StatusBadRequest, "VALIDATION"},
		{"cantidad cero", http.MethodPost, "/api/orders", "OPERATOR", map[string]any{"orders": []map[string]any{{"product_id": productID, "quantity": 0}}}, http.StatusBadRequest, "VALIDATION"},
		{"producto inexistente", http.MethodPost, "/api/orders", "OPERATOR", map[string]any{"orders": []map[string]any{{"product_id": "nope", "quantity": 1}}}, http.StatusNotFound, "PRODUCT_NOT_FOUND"},
		{"viewer no crea pedidos", http.MethodPost, "/api/orders", "VIEWER", map[string]any{"orders": []any{}}, http.StatusForbidden, "FORBIDDEN"},
		{"sin token", http.MethodGet, "/api/orders/x", "", nil, http.StatusUnauthorized, "MISSING_TOKEN"},
		{"pedido inexistente", http.MethodGet, "/api/orders/x", "OPERATOR", nil, http.StatusNotFound, "NOT_FOUND"},
		{"viewer no lee pedidos", http.MethodGet, "/api/orders/x", "VIEWER", nil, http.StatusForbidden, "FORBIDDEN"},
		{"viewer no modifica pedidos", http.MethodPatch, "/api/orders/x", "VIEWER", map[string]any{"status": "SUCCESS"}, http.StatusForbidden, "FORBIDDEN"},
		{"estado inválido", http.MethodPatch, "/api/orders/x", "ADMIN", map[string]any{"status": "LOST"}, http.StatusBadRequest, "VALIDATION"},
		{"estado ausente", http.MethodPatch, "/api/orders/x", "ADMIN", map[string]any{}, http.StatusBadRequest, "VALIDATION"},
		{"nombre duplicado", http.MethodPost, "/api/products", "ADMIN", map[string]any{"name": "Tuerca", "price": "1.00"}, http.StatusConflict, "DUPLICATE"},
		{"precio inválido", http.MethodPost, "/api/products", "ADMIN", map[string]any{"name": "Otra", "price": "0"}, http.StatusBadRequest, "VALIDATION"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := f.do(t, tt.method, tt.path, tt.role, tt.body)
			assert.Equal(t, tt.status, code, body)
			assert.Equal(t, tt.code, body["code"])
		})
	}
}

func TestAPI_ProductManagement(t *testing.T) {
	f := newAPI(t, nil)
	productID := f.createProduct(t, "Arandela", 2)

	code, body := f.do(t, http.MethodPatch, "/api/products/"+productID, "OPERATOR", map[string]any{"price": "3.75"})
	require.Equal(t, http.StatusOK, code, body)
	assert.True(t, decimal.RequireFromString(body["price"].(string)).Equal(decimal.RequireFromString("3.75")))

	code, body = f.do(t, http.MethodPost, "/api/products/"+productID+"/restock", "OPERATOR", map[string]any{"quantity": 8})
	require.Equal(t, http.StatusOK, code, body)
	assert.EqualValues(t, 10, body["stock"])

	code, _ = f.do(t, http.MethodDelete, "/api/products/"+productID, "ADMIN", nil)
	assert.Equal(t, http.StatusNoContent, code)

	code, _ = f.do(t, http.MethodGet, "/api/products/"+productID, "VIEWER", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestAPI_Companies(t *testing.T) {
	f := newAPI(t, nil)

	code, body := f.do(t, http.MethodPost, "/api/companies", "", map[string]any{"name": "Globex"})
	require.Equal(t, http.StatusCreated, code, body)
	assert.Equal(t, "Globex", body["name"])

	code, body = f.do(t, http.MethodPost, "/api/companies", "", map[string]any{"name": "Acme"})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "DUPLICATE", body["code"])

	code, body = f.do(t, http.MethodGet, "/api/companies/me", "VIEWER", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, testCompanyID, body["id"])
}

func TestAPI_IdempotentBatchSubmission(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	f := newAPI(t, rdb)
	productID := f.createProduct(t, "Clavo", 10)
	batch := map[string]any{"orders": []map[string]any{{"product_id": productID, "quantity": 3}}}

	code, first := f.do(t, http.MethodPost, "/api/orders", "OPERATOR", batch, apphttp.HeaderIdempotencyKey, "k-1")
	require.Equal(t, http.StatusCreated, code, first)

	code, replay := f.do(t, http.MethodPost, "/api/orders", "OPERATOR", batch, apphttp.HeaderIdempotencyKey, "k-1")
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, first, replay)
	assert.Equal(t, 7, f.productStock(t, productID), "el reenvío no descuenta de nuevo")

	// un lote fallido libera la clave
	tooMuch := map[string]any{"orders": []map[string]any{{"product_id": productID, "quantity": 50}}}
	code, _ = f.do(t, http.MethodPost, "/api/orders", "OPERATOR", tooMuch, apphttp.HeaderIdempotencyKey, "k-2")
	require.Equal(t, http.StatusConflict, code)
	code, _ = f.do(t, http.MethodPost, "/api/orders", "OPERATOR", batch, apphttp.HeaderIdempotencyKey, "k-2")
	assert.Equal(t, http.StatusCreated, code)
	assert.Equal(t, 4, f.productStock(t, productID))
}
