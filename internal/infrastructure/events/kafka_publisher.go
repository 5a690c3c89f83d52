// Package events publica los hechos del libro en Kafka para consumidores de reportería.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

var _ inventory.EventPublisher = (*KafkaPublisher)(nil)

// Envelope sobre común de los mensajes publicados.
type Envelope struct {
	EventID   string             `json:"event_id"`
	EventType string             `json:"event_type"`
	Payload   entity.LedgerEvent `json:"payload"`
	Timestamp time.Time          `json:"timestamp"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher escribe un mensaje por evento. La clave (negocio:producto) mantiene el orden
// por producto dentro de la partición.
type KafkaPublisher struct {
	writer messageWriter
}

// NewKafkaPublisher construye el publicador sobre los brokers y el tópico dados.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{writer: &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		BatchTimeout:           50 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}}
}

// Publish implementa inventory.EventPublisher.
func (p *KafkaPublisher) Publish(ctx context.Context, evs ...entity.LedgerEvent) error {
	if len(evs) == 0 {
		return nil
	}
	msgs := make([]kafka.Message, 0, len(evs))
	for _, ev := range evs {
		msg, err := buildMessage(ev)
		if err != nil {
			return err
		}
		msgs = append(msgs, msg)
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("kafka write %d messages: %w", len(msgs), err)
	}
	return nil
}

// Close vacía y cierra el writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

func buildMessage(ev entity.LedgerEvent) (kafka.Message, error) {
	value, err := json.Marshal(Envelope{
		EventID:   uuid.New().String(),
		EventType: ev.Type,
		Payload:   ev,
		Timestamp: ev.OccurredAt,
	})
	if err != nil {
		return kafka.Message{}, fmt.Errorf("marshal event %s: %w", ev.Type, err)
	}
	return kafka.Message{
		Key:   []byte(ev.BusinessID + ":" + ev.ProductID),
		Value: value,
		Time:  ev.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(ev.Type)},
		},
	}, nil
}
