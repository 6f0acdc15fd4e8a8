package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/segmentio/kafka-go"
	"github.com/sony/gobreaker/v2"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes product-changed events to a Kafka topic, keyed
// by product id so changes to one product stay in order. The circuit
// breaker fails publishes fast while the brokers are down instead of
// stalling every catalog update on the write timeout.
type KafkaPublisher struct {
	writer  messageWriter
	breaker *gobreaker.CircuitBreaker[any]
}

func NewKafkaPublisher(topic string, brokers ...string) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}
	return newKafkaPublisher(w)
}

func newKafkaPublisher(w messageWriter) *KafkaPublisher {
	breaker := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name: "product-changed-publisher",
	})
	return &KafkaPublisher{writer: w, breaker: breaker}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event ProductChangedEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal product-changed event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(strconv.Itoa(event.ID)),
		Value: body,
	}
	if _, err := p.breaker.Execute(func() (any, error) {
		return nil, p.writer.WriteMessages(ctx, msg)
	}); err != nil {
		return fmt.Errorf("failed to publish product-changed event: %w", err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error { return p.writer.Close() }
