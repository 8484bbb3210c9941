package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/pedidos-api/internal/application/orders"
	"github.com/jhoicas/pedidos-api/internal/application/usecase"
	"github.com/jhoicas/pedidos-api/internal/domain/entity"
	"github.com/jhoicas/pedidos-api/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	CompanyUC    *usecase.CompanyUseCase
	ProductUC    *usecase.ProductUseCase
	CreateOrders *orders.CreateBatchUseCase
	TransitionUC *orders.TransitionUseCase
	GetOrder     *orders.GetOrderUseCase
	Idempotency  IdempotencyStore // opcional
	JWTSecret    string
	JWTIssuer    string
	Logger       *logger.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	app.Use(RequestLogger(deps.Logger))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")
	writers := RequireRole(entity.RoleAdmin, entity.RoleOperator)
	anyRole := RequireRole(entity.RoleAdmin, entity.RoleOperator, entity.RoleViewer)
	auth := AuthMiddleware(deps.JWTSecret, deps.JWTIssuer)

	// Companies: alta pública, lectura del tenant propio
	companyHandler := NewCompanyHandler(deps.CompanyUC, deps.Logger)
	api.Post("/companies", companyHandler.Create)
	api.Get("/companies/me", auth, anyRole, companyHandler.Me)

	// Products (protegido)
	products := api.Group("/products", auth)
	productHandler := NewProductHandler(deps.ProductUC, deps.Logger)
	products.Post("/", writers, productHandler.Create)
	products.Get("/:id", anyRole, productHandler.GetByID)
	products.Patch("/:id", writers, productHandler.Update)
	products.Post("/:id/restock", writers, productHandler.Restock)
	products.Delete("/:id", writers, productHandler.Deactivate)

	// Orders (protegido)
	ordersGroup := api.Group("/orders", auth)
	orderHandler := NewOrderHandler(deps.CreateOrders, deps.TransitionUC, deps.GetOrder, deps.Idempotency, deps.Logger)
	ordersGroup.Post("/", writers, orderHandler.Create)
	ordersGroup.Get("/:id", writers, orderHandler.GetByID)
	ordersGroup.Patch("/:id", writers, orderHandler.UpdateStatus)
}
