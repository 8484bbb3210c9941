package orders

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jhoicas/pedidos-api/internal/domain"
	"github.com/jhoicas/pedidos-api/internal/domain/entity"
	domainorders "github.com/jhoicas/pedidos-api/internal/domain/orders"
	"github.com/jhoicas/pedidos-api/internal/domain/repository"
	"github.com/jhoicas/pedidos-api/pkg/logger"
)

// TransitionUseCase cambia el estado de un pedido. La entrada a SUCCESS desde otro estado
// fija shipped_at (si no estaba) y dispara una notificación después del Commit.
type TransitionUseCase struct {
	txRunner TxRunner
	sink     NotificationSink
	log      *logger.Logger
	tracer   trace.Tracer
	now      func() time.Time
}

// NewTransitionUseCase construye el caso de uso. sink se inyecta explícitamente.
func NewTransitionUseCase(txRunner TxRunner, sink NotificationSink, log *logger.Logger) *TransitionUseCase {
	return &TransitionUseCase{
		txRunner: txRunner,
		sink:     sink,
		log:      log,
		tracer:   otel.Tracer(tracerName),
		now:      time.Now,
	}
}

// Transition cambia el estado sin restricción de rol (equivale a ADMIN).
func (uc *TransitionUseCase) Transition(ctx context.Context, companyID, orderID string, status entity.OrderStatus) (*entity.Order, error) {
	return uc.TransitionAs(ctx, entity.RoleAdmin, companyID, orderID, status)
}

// TransitionAs relee el pedido bajo lock en la misma transacción de la escritura, aplica el
// nuevo estado y persiste. Un pedido de otra empresa se reporta como domain.ErrNotFound; un
// pedido que el rol no puede modificar, como domain.ErrForbidden.
func (uc *TransitionUseCase) TransitionAs(ctx context.Context, role, companyID, orderID string, status entity.OrderStatus) (*entity.Order, error) {
	ctx, span := uc.tracer.Start(ctx, "orders.Transition", trace.WithAttributes(
		attribute.String("actor.role", role),
		attribute.String("company.id", companyID),
		attribute.String("order.id", orderID),
		attribute.String("order.status", string(status)),
	))
	defer span.End()

	if !status.Valid() {
		return nil, fmt.Errorf("%w: estado %q no válido", domain.ErrInvalidInput, status)
	}
	if companyID == "" || orderID == "" {
		return nil, domain.ErrNotFound
	}

	var (
		updated   *entity.Order
		fulfilled bool
	)
	err := uc.txRunner.Run(ctx, func(
		_ repository.InventoryLedger,
		orderRepo repository.OrderRepository,
	) error {
		order, err := orderRepo.GetForUpdate(ctx, companyID, orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return domain.ErrNotFound
		}
		if !domainorders.CanModify(role, order, uc.now()) {
			return domain.ErrForbidden
		}
		fulfilled = domainorders.ApplyStatus(order, status, uc.now())
		if err := orderRepo.UpdateStatus(ctx, order); err != nil {
			return err
		}
		updated = order
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transición rechazada")
		return nil, err
	}

	span.SetAttributes(attribute.Bool("order.fulfilled", fulfilled))
	if fulfilled {
		uc.notify(ctx, updated)
	}
	return updated, nil
}

// notify entrega la notificación al sink; cualquier falla (error o panic) solo se registra.
func (uc *TransitionUseCase) notify(ctx context.Context, order *entity.Order) {
	n := entity.NewOrderNotification(order)
	defer func() {
		if r := recover(); r != nil {
			uc.log.Error().
				Str("order_id", n.OrderID).
				Interface("panic", r).
				Msg("panic en sink de notificaciones")
		}
	}()
	if err := uc.sink.Notify(context.WithoutCancel(ctx), n); err != nil {
		uc.log.Warn().
			Err(err).
			Str("order_id", n.OrderID).
			Msg("no se pudo notificar el pedido")
	}
}
