package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Dhoini/Checkout-microservice/internal/domain"
	"github.com/Dhoini/Checkout-microservice/pkg/logger"

	"github.com/segmentio/kafka-go"
)

// Топики событий оформления заказа. Их консьюмерами выступают внешние
// коллабораторы: рендер PDF-счета и почтовая доставка. Для ядра
// публикация fire-and-forget: счет к моменту публикации уже
// зафиксирован и неизменяем.
const (
	TopicOrderConfirmed = "order_confirmed"
	TopicInvoiceIssued  = "invoice_issued"
)

// InvoiceEvent тело сообщения с финализированным снимком счета.
type InvoiceEvent struct {
	OrderID    string         `json:"order_id"`
	Invoice    domain.Invoice `json:"invoice"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// Producer определяет интерфейс для публикации событий оформления.
type Producer interface {
	// PublishInvoiceEvent отправляет событие с финализированным счетом.
	// Ключом сообщения служит OrderID: все события одного заказа попадают
	// в одну партицию и сохраняют порядок.
	PublishInvoiceEvent(ctx context.Context, topic string, event *InvoiceEvent) error
	// Close закрывает соединение продюсера Kafka.
	Close() error
}

// kafkaProducer реализует интерфейс Producer через segmentio/kafka-go.
type kafkaProducer struct {
	writer *kafka.Writer
	log    *logger.Logger
}

// NewKafkaProducer создает и настраивает новый продюсер Kafka.
func NewKafkaProducer(brokers []string, log *logger.Logger) (Producer, error) {
	if len(brokers) == 0 {
		log.Errorw("Kafka brokers list is empty in config, cannot create producer")
		return nil, errors.New("kafka brokers are not configured")
	}

	// RequireOne: подтверждение только от лидера партиции, баланс
	// между скоростью и надежностью для best-effort событий
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		BatchSize:    100,
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		ReadTimeout:  10 * time.Second,
	}

	log.Infow("Kafka producer initialized", "brokers", brokers)
	return &kafkaProducer{writer: writer, log: log}, nil
}

// PublishInvoiceEvent сериализует событие в JSON и отправляет в топик.
func (k *kafkaProducer) PublishInvoiceEvent(ctx context.Context, topic string, event *InvoiceEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		k.log.Errorw("Failed to marshal invoice event", "orderId", event.OrderID, "error", err)
		return fmt.Errorf("failed to marshal invoice event: %w", err)
	}

	msg := kafka.Message{
		Topic: topic,
		Key:   []byte(event.OrderID),
		Value: payload,
		Time:  time.Now(),
	}

	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		k.log.Errorw("Failed to publish invoice event",
			"topic", topic, "orderId", event.OrderID, "error", err)
		return fmt.Errorf("failed to write kafka message: %w", err)
	}

	k.log.Debugw("Invoice event published", "topic", topic, "orderId", event.OrderID)
	return nil
}

// Close закрывает writer продюсера.
func (k *kafkaProducer) Close() error {
	return k.writer.Close()
}
