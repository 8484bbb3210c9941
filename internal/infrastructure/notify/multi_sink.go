package notify

import (
	"context"
	"errors"

	"github.com/jhoicas/pedidos-api/internal/domain/entity"
)

// MultiSink entrega a todos los sinks; un fallo no impide a los demás.
type MultiSink []Sink

// Notify devuelve los errores combinados.
func (m MultiSink) Notify(ctx context.Context, n entity.OrderNotification) error {
	var errs []error
	for _, s := range m {
		if err := s.Notify(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
