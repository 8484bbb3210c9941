package orders

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jhoicas/pedidos-api/internal/domain"
	"github.com/jhoicas/pedidos-api/internal/domain/entity"
	"github.com/jhoicas/pedidos-api/internal/domain/repository"
	"github.com/jhoicas/pedidos-api/pkg/logger"
)

const tracerName = "github.com/jhoicas/pedidos-api/internal/application/orders"

// BatchConfig parámetros del coordinador de lotes.
type BatchConfig struct {
	Precheck   bool // fase 1 sin locks; solo rechaza temprano, la fase 2 es la autoritativa
	MaxItems   int  // tamaño máximo del lote (acota el tiempo de lock); <= 0 sin límite
	MaxRetries int  // reintentos ante domain.ErrUnavailable (deadlock, serialización)
}

// BatchItem un par (producto, cantidad) del lote.
type BatchItem struct {
	ProductID string
	Quantity  int
}

// CreateBatchInput entrada de CreateBatch. ActorID y CompanyID vienen de la sesión ya validada.
type CreateBatchInput struct {
	CompanyID string
	ActorID   string
	Items     []BatchItem
}

// CreateBatchUseCase crea un lote de pedidos descontando stock en una sola transacción:
// o todos los ítems generan su pedido y su descuento, o ninguno.
type CreateBatchUseCase struct {
	txRunner    TxRunner
	productRepo repository.ProductRepository
	cfg         BatchConfig
	log         *logger.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// NewCreateBatchUseCase construye el caso de uso.
func NewCreateBatchUseCase(
	txRunner TxRunner,
	productRepo repository.ProductRepository,
	cfg BatchConfig,
	log *logger.Logger,
) *CreateBatchUseCase {
	return &CreateBatchUseCase{
		txRunner:    txRunner,
		productRepo: productRepo,
		cfg:         cfg,
		log:         log,
		tracer:      otel.Tracer(tracerName),
		now:         time.Now,
	}
}

// CreateBatch valida el lote, opcionalmente verifica los productos sin locks (fase 1) y luego,
// en una transacción, reserva el stock de cada ítem en orden ascendente de product_id y crea
// un pedido PENDING por ítem (fase 2). Los pedidos se devuelven en el orden de entrada.
func (uc *CreateBatchUseCase) CreateBatch(ctx context.Context, in CreateBatchInput) ([]*entity.Order, error) {
	ctx, span := uc.tracer.Start(ctx, "orders.CreateBatch", trace.WithAttributes(
		attribute.String("company.id", in.CompanyID),
		attribute.Int("batch.size", len(in.Items)),
	))
	defer span.End()

	created, err := uc.createBatch(ctx, in)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "lote rechazado")
		uc.log.Info().
			Err(err).
			Str("company_id", in.CompanyID).
			Str("actor_id", in.ActorID).
			Int("items", len(in.Items)).
			Msg("lote de pedidos rechazado")
		return nil, err
	}
	uc.log.Info().
		Str("company_id", in.CompanyID).
		Str("actor_id", in.ActorID).
		Int("orders", len(created)).
		Msg("lote de pedidos creado")
	return created, nil
}

func (uc *CreateBatchUseCase) createBatch(ctx context.Context, in CreateBatchInput) ([]*entity.Order, error) {
	if err := uc.validate(in); err != nil {
		return nil, err
	}
	if uc.cfg.Precheck {
		if err := uc.precheck(ctx, in); err != nil {
			return nil, err
		}
	}

	lockOrder := lockOrderOf(in.Items)
	attempts := uc.cfg.MaxRetries + 1
	for attempt := 1; ; attempt++ {
		created, err := uc.reserveAndCreate(ctx, in, lockOrder)
		if err == nil {
			return created, nil
		}
		if !errors.Is(err, domain.ErrUnavailable) || attempt >= attempts || ctx.Err() != nil {
			return nil, err
		}
		uc.log.Warn().
			Err(err).
			Str("company_id", in.CompanyID).
			Int("attempt", attempt).
			Msg("reintentando lote de pedidos")
	}
}

func (uc *CreateBatchUseCase) validate(in CreateBatchInput) error {
	if in.CompanyID == "" || in.ActorID == "" {
		return domain.ErrUnauthorized
	}
	if len(in.Items) == 0 {
		return fmt.Errorf("%w: se requiere al menos un pedido", domain.ErrInvalidInput)
	}
	if uc.cfg.MaxItems > 0 && len(in.Items) > uc.cfg.MaxItems {
		return fmt.Errorf("%w: el lote supera el máximo de %d ítems", domain.ErrInvalidInput, uc.cfg.MaxItems)
	}
	for i, item := range in.Items {
		if item.ProductID == "" || item.Quantity < 1 {
			return &domain.ItemError{Index: i, ProductID: item.ProductID, Err: domain.ErrInvalidInput}
		}
	}
	return nil
}

// precheck fase 1: existencia, empresa y estado activo, sin tomar locks.
func (uc *CreateBatchUseCase) precheck(ctx context.Context, in CreateBatchInput) error {
	seen := make(map[string]bool, len(in.Items))
	for i, item := range in.Items {
		if seen[item.ProductID] {
			continue
		}
		seen[item.ProductID] = true
		p, err := uc.productRepo.GetActive(ctx, in.CompanyID, item.ProductID)
		if err != nil {
			return err
		}
		if p == nil {
			return &domain.ItemError{Index: i, ProductID: item.ProductID, Err: domain.ErrNotFound}
		}
	}
	return nil
}

// reserveAndCreate fase 2: una transacción para todo el lote.
func (uc *CreateBatchUseCase) reserveAndCreate(ctx context.Context, in CreateBatchInput, lockOrder []int) ([]*entity.Order, error) {
	now := uc.now()
	created := make([]*entity.Order, len(in.Items))

	err := uc.txRunner.Run(ctx, func(
		ledger repository.InventoryLedger,
		orderRepo repository.OrderRepository,
	) error {
		// Bloquea cada fila de producto (SELECT FOR UPDATE) en orden fijo para evitar deadlocks
		for _, idx := range lockOrder {
			item := in.Items[idx]
			if _, err := ledger.Reserve(ctx, in.CompanyID, item.ProductID, item.Quantity); err != nil {
				if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrInsufficientStock) {
					return &domain.ItemError{Index: idx, ProductID: item.ProductID, Err: err}
				}
				return err
			}
		}
		for i, item := range in.Items {
			order := &entity.Order{
				ID:        uuid.New().String(),
				CompanyID: in.CompanyID,
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
				Status:    entity.OrderStatusPending,
				CreatedBy: in.ActorID,
				CreatedAt: now,
			}
			if err := orderRepo.Create(ctx, order); err != nil {
				return err
			}
			created[i] = order
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// lockOrderOf devuelve los índices del lote ordenados por product_id ascendente (estable).
func lockOrderOf(items []BatchItem) []int {
	idx := make([]int, len(items))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return items[idx[a]].ProductID < items[idx[b]].ProductID
	})
	return idx
}
