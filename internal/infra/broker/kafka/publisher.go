package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/segmentio/kafka-go"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/internal/integrations/notificationservice"
)

// MessageWriter часть kafka.Writer, нужная публикатору
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher публикует события бронирований в Kafka
// Ключ сообщения id бронирования, поэтому события одного бронирования попадают в одну партицию
type Publisher struct {
	writer MessageWriter
	topic  string
}

// Config настройки публикатора
type Config struct {
	Brokers string
	Topic   string
}

// NewPublisher создает публикатор поверх kafka.Writer
func NewPublisher(cfg Config) (*Publisher, error) {
	brokers := SplitBrokers(cfg.Brokers)
	if len(brokers) == 0 {
		return nil, fmt.Errorf("%w: no brokers configured", ErrInvalidConfig)
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("%w: topic is required", ErrInvalidConfig)
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}

	return NewPublisherWithWriter(writer, cfg.Topic), nil
}

// NewPublisherWithWriter создает публикатор с заданным writer
func NewPublisherWithWriter(writer MessageWriter, topic string) *Publisher {
	return &Publisher{writer: writer, topic: topic}
}

// Notify публикует событие для получателя recipientID
func (p *Publisher) Notify(ctx context.Context, recipientID string, event domain.BookingEvent) error {
	value, err := json.Marshal(notificationservice.NewEventMessage(recipientID, event))
	if err != nil {
		return fmt.Errorf("%w: encode event id=%s: %v", ErrPublish, event.ID, err)
	}

	key := event.ID
	if event.Booking != nil {
		key = event.Booking.ID
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(event.ID)},
			{Key: "event_type", Value: []byte(event.Type)},
			{Key: "recipient_id", Value: []byte(recipientID)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("%w: topic=%s event id=%s: %w", ErrPublish, p.topic, event.ID, err)
	}

	return nil
}

// Close закрывает writer
func (p *Publisher) Close() error {
	return p.writer.Close()
}

// SplitBrokers разбирает список брокеров вида "host1:9092, host2:9092"
func SplitBrokers(raw string) []string {
	var brokers []string
	for _, b := range strings.Split(raw, ",") {
		b = strings.TrimSpace(b)
		if b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

// HeaderValue возвращает значение заголовка сообщения или пустую строку
func HeaderValue(headers []kafka.Header, key string) string {
	for _, h := range headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}
