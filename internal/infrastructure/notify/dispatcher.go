package notify

import (
	"context"
	"errors"
	"sync"

	"github.com/jhoicas/pedidos-api/internal/application/orders"
	"github.com/jhoicas/pedidos-api/internal/domain/entity"
	"github.com/jhoicas/pedidos-api/pkg/logger"
)

var _ orders.NotificationSink = (*Dispatcher)(nil)

// ErrQueueFull la cola del dispatcher está llena; la notificación se descarta.
var ErrQueueFull = errors.New("cola de notificaciones llena")

// ErrClosed el dispatcher ya fue cerrado.
var ErrClosed = errors.New("dispatcher cerrado")

// Sink destino final de una notificación (log, Kafka, ...).
type Sink interface {
	Notify(ctx context.Context, n entity.OrderNotification) error
}

// Dispatcher desacopla la transición de la entrega: Notify solo encola y un worker
// entrega al sink. Close deja de aceptar y drena lo pendiente.
type Dispatcher struct {
	sink  Sink
	log   *logger.Logger
	queue chan entity.OrderNotification

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

// NewDispatcher arranca el worker. size < 1 usa una cola de 1.
func NewDispatcher(sink Sink, size int, log *logger.Logger) *Dispatcher {
	if size < 1 {
		size = 1
	}
	d := &Dispatcher{
		sink:  sink,
		log:   log,
		queue: make(chan entity.OrderNotification, size),
		done:  make(chan struct{}),
	}
	go d.run()
	return d
}

// Notify encola sin bloquear.
func (d *Dispatcher) Notify(_ context.Context, n entity.OrderNotification) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrClosed
	}
	select {
	case d.queue <- n:
		return nil
	default:
		d.log.Warn().Str("order_id", n.OrderID).Msg("notificación descartada: cola llena")
		return ErrQueueFull
	}
}

// Close cierra la cola y espera a que el worker entregue lo pendiente o a que ctx expire.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	select {
	case <-d.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for n := range d.queue {
		d.deliver(n)
	}
}

func (d *Dispatcher) deliver(n entity.OrderNotification) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error().Str("order_id", n.OrderID).Interface("panic", r).Msg("panic entregando notificación")
		}
	}()
	if err := d.sink.Notify(context.Background(), n); err != nil {
		d.log.Warn().Err(err).Str("order_id", n.OrderID).Msg("entrega de notificación fallida")
		return
	}
	d.log.Debug().Str("order_id", n.OrderID).Msg("notificación entregada")
}
