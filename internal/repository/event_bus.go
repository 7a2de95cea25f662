package repository

import (
	"context"

	"OpsRecon/internal/domain/models"
	"OpsRecon/internal/domain/repository"
	pkgkafka "OpsRecon/pkg/kafka"
)

// KafkaEventBus implements EventBus for Kafka. Messages are keyed by event id
// so replays of the same event land on the same partition.
type KafkaEventBus struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaEventBus creates a Kafka-backed ops event bus. The concrete type
// is returned because the bus doubles as the logger collector's Publisher.
func NewKafkaEventBus(producer *pkgkafka.Producer, topic string) *KafkaEventBus {
	return &KafkaEventBus{producer: producer, topic: topic}
}

var _ repository.EventBus = (*KafkaEventBus)(nil)

func (b *KafkaEventBus) PublishEvents(ctx context.Context, events []models.TelemetryEvent) error {
	if len(events) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(events))
	for i, ev := range events {
		msgs[i] = pkgkafka.Message{
			Key:   []byte(ev.ID),
			Value: ev,
		}
	}
	return b.producer.PublishBatch(ctx, b.topic, msgs)
}

// PublishMessage satisfies the logger collector's Publisher so aggregated
// error summaries ride the same bus.
func (b *KafkaEventBus) PublishMessage(ctx context.Context, topic string, payload interface{}) error {
	return b.producer.Publish(ctx, topic, nil, payload)
}

func (b *KafkaEventBus) Close() error {
	if b.producer != nil {
		return b.producer.Close()
	}
	return nil
}
