package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/jhoicas/pedidos-api/internal/domain/entity"
)

// messageWriter lo implementa *kafka.Writer.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink publica la notificación en un topic. Key = order id para mantener el orden por pedido.
type KafkaSink struct {
	w       messageWriter
	timeout time.Duration
	now     func() time.Time
}

// NewKafkaSink construye el writer síncrono; la asincronía la pone el Dispatcher.
func NewKafkaSink(brokers []string, topic string) *KafkaSink {
	return newKafkaSink(&kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
	})
}

func newKafkaSink(w messageWriter) *KafkaSink {
	return &KafkaSink{w: w, timeout: 10 * time.Second, now: time.Now}
}

func (s *KafkaSink) Notify(ctx context.Context, n entity.OrderNotification) error {
	msg, err := s.buildMessage(n)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka: publicar notificación %s: %w", n.OrderID, err)
	}
	return nil
}

func (s *KafkaSink) buildMessage(n entity.OrderNotification) (kafka.Message, error) {
	value, err := json.Marshal(n)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("kafka: serializar notificación: %w", err)
	}
	return kafka.Message{
		Key:   []byte(n.OrderID),
		Value: value,
		Time:  s.now(),
		Headers: []kafka.Header{
			{Key: "event", Value: []byte("order.shipped")},
		},
	}, nil
}

// Close vacía y cierra el writer.
func (s *KafkaSink) Close() error {
	return s.w.Close()
}
