package notify

import (
	"context"
	"io"

	"github.com/rs/zerolog"

	"github.com/jhoicas/pedidos-api/internal/domain/entity"
)

// LogSink escribe cada notificación como una línea JSON (zerolog) en w.
type LogSink struct {
	zl zerolog.Logger
}

// NewLogSink construye el sink sobre un writer (archivo o stdout).
func NewLogSink(w io.Writer) *LogSink {
	return &LogSink{zl: zerolog.New(w).With().Timestamp().Logger()}
}

func (s *LogSink) Notify(_ context.Context, n entity.OrderNotification) error {
	s.zl.Info().
		Str("order_id", n.OrderID).
		Str("customer", n.CustomerIdentity).
		Str("company", n.CompanyName).
		Str("product", n.ProductName).
		Int("quantity", n.Quantity).
		Str("status", string(n.Status)).
		Msg("pedido enviado")
	return nil
}
