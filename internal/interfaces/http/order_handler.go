package http

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/pedidos-api/internal/application/dto"
	"github.com/jhoicas/pedidos-api/internal/application/orders"
	"github.com/jhoicas/pedidos-api/internal/domain/entity"
	"github.com/jhoicas/pedidos-api/internal/infrastructure/idempotency"
	"github.com/jhoicas/pedidos-api/pkg/logger"
)

// HeaderIdempotencyKey reenviar la misma clave repite la respuesta del primer envío.
const HeaderIdempotencyKey = "Idempotency-Key"

// IdempotencyStore lo implementa *idempotency.RedisStore.
type IdempotencyStore interface {
	Claim(ctx context.Context, scope, key string) (*idempotency.Response, error)
	Save(ctx context.Context, scope, key string, resp idempotency.Response) error
	Release(ctx context.Context, scope, key string) error
}

// OrderHandler maneja lotes de pedidos, lectura y cambios de estado (protegido).
type OrderHandler struct {
	create     *orders.CreateBatchUseCase
	transition *orders.TransitionUseCase
	query      *orders.GetOrderUseCase
	idem       IdempotencyStore // nil = sin idempotencia
	log        *logger.Logger
}

// NewOrderHandler construye el handler. idem puede ser nil.
func NewOrderHandler(
	create *orders.CreateBatchUseCase,
	transition *orders.TransitionUseCase,
	query *orders.GetOrderUseCase,
	idem IdempotencyStore,
	log *logger.Logger,
) *OrderHandler {
	return &OrderHandler{create: create, transition: transition, query: query, idem: idem, log: log}
}

// Create godoc
// @Summary      Crear lote de pedidos
// @Description  Todo o nada: si un ítem falla no se crea ningún pedido ni se descuenta stock.
// @Tags         orders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key  header  string                   false  "Clave para reenvíos seguros"
// @Param        body             body    dto.CreateOrdersRequest  true   "orders: [{product_id, quantity}]"
// @Success      201   {object}  map[string][]dto.OrderSummary
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/orders [post]
func (h *OrderHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateOrdersRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	companyID := GetCompanyID(c)
	key := c.Get(HeaderIdempotencyKey)
	if key == "" || h.idem == nil {
		return h.createBatch(c, companyID, in)
	}

	ctx := c.UserContext()
	stored, err := h.idem.Claim(ctx, companyID, key)
	switch {
	case errors.Is(err, idempotency.ErrInProgress):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "IDEMPOTENCY_IN_PROGRESS", Message: "la petición con esta clave aún está en curso"})
	case err != nil:
		h.log.Warn().Err(err).Msg("almacén de idempotencia no disponible")
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{Code: "RETRYABLE", Message: "servicio ocupado, intente de nuevo"})
	case stored != nil:
		c.Set("Idempotent-Replayed", "true")
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.Status(stored.Status).Send(stored.Body)
	}

	if err := h.createBatch(c, companyID, in); err != nil {
		_ = h.idem.Release(context.WithoutCancel(ctx), companyID, key)
		return err
	}
	if c.Response().StatusCode() != fiber.StatusCreated {
		if err := h.idem.Release(context.WithoutCancel(ctx), companyID, key); err != nil {
			h.log.Warn().Err(err).Msg("no se pudo liberar la clave de idempotencia")
		}
		return nil
	}
	resp := idempotency.Response{
		Status: fiber.StatusCreated,
		Body:   json.RawMessage(append([]byte(nil), c.Response().Body()...)),
	}
	if err := h.idem.Save(context.WithoutCancel(ctx), companyID, key, resp); err != nil {
		h.log.Warn().Err(err).Msg("no se pudo guardar la respuesta idempotente")
	}
	return nil
}

func (h *OrderHandler) createBatch(c *fiber.Ctx, companyID string, in dto.CreateOrdersRequest) error {
	items := make([]orders.BatchItem, len(in.Orders))
	for i, o := range in.Orders {
		items[i] = orders.BatchItem{ProductID: o.ProductID, Quantity: o.Quantity}
	}
	created, err := h.create.CreateBatch(c.UserContext(), orders.CreateBatchInput{
		CompanyID: companyID,
		ActorID:   GetUserID(c),
		Items:     items,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	out := make([]dto.OrderSummary, len(created))
	for i, o := range created {
		out[i] = dto.OrderSummary{ID: o.ID, ProductID: o.ProductID, Quantity: o.Quantity, Status: string(o.Status)}
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"orders": out})
}

// GetByID godoc
// @Summary      Obtener pedido
// @Tags         orders
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del pedido"
// @Success      200  {object}  dto.OrderResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/orders/{id} [get]
func (h *OrderHandler) GetByID(c *fiber.Ctx) error {
	o, err := h.query.GetByID(c.UserContext(), GetCompanyID(c), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(toOrderResponse(o))
}

// UpdateStatus godoc
// @Summary      Cambiar estado del pedido
// @Description  Pasar a SUCCESS fija shipped_at y notifica una sola vez. OPERATOR solo modifica pedidos creados hoy (UTC).
// @Tags         orders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                        true  "ID del pedido"
// @Param        body  body  dto.UpdateOrderStatusRequest  true  "PENDING | SUCCESS | FAILED"
// @Success      200   {object}  dto.OrderResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/orders/{id} [patch]
func (h *OrderHandler) UpdateStatus(c *fiber.Ctx) error {
	var in dto.UpdateOrderStatusRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if in.Status == nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "status es requerido"})
	}
	o, err := h.transition.TransitionAs(c.UserContext(), GetRole(c), GetCompanyID(c), c.Params("id"), entity.OrderStatus(*in.Status))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(toOrderResponse(o))
}

func toOrderResponse(o *entity.Order) dto.OrderResponse {
	return dto.OrderResponse{
		ID:             o.ID,
		ProductID:      o.ProductID,
		ProductName:    o.ProductName,
		Quantity:       o.Quantity,
		Status:         string(o.Status),
		CreatedAt:      o.CreatedAt,
		ShippedAt:      o.ShippedAt,
		CreatedBy:      o.CreatedBy,
		CreatedByEmail: o.CreatedByEmail,
		CompanyID:      o.CompanyID,
		CompanyName:    o.CompanyName,
	}
}
