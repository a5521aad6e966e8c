package repository

import (
	"context"

	"NewsEdge/internal/domain/models"
	"NewsEdge/pkg/kafka"
)

// KafkaPublisher emits served predictions to a Kafka topic keyed by
// ticker, so one ticker's events land on one partition in order.
type KafkaPublisher struct {
	producer *kafka.Producer
	topic    string
}

// NewKafkaPublisher wraps a producer for the prediction topic.
func NewKafkaPublisher(producer *kafka.Producer, topic string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

// PublishPrediction publishes one prediction event.
func (p *KafkaPublisher) PublishPrediction(ctx context.Context, prediction *models.Prediction) error {
	return p.producer.Publish(ctx, p.topic, []byte(prediction.Ticker), prediction)
}

// Close flushes and closes the underlying producer.
func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}
