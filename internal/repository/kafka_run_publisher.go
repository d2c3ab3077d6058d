package repository

import (
	"context"
	"fmt"

	"CPDetect/internal/domain/models"
	pkgkafka "CPDetect/pkg/kafka"
)

// KafkaRunPublisher emits completed runs to a topic, keyed by dataset so one
// dataset's runs stay ordered within a partition.
type KafkaRunPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaRunPublisher creates the publisher over an existing producer.
func NewKafkaRunPublisher(producer *pkgkafka.Producer, topic string) *KafkaRunPublisher {
	return &KafkaRunPublisher{producer: producer, topic: topic}
}

// PublishRun sends the run result as one JSON message.
func (p *KafkaRunPublisher) PublishRun(ctx context.Context, res *models.RunResult) error {
	if err := p.producer.Publish(ctx, p.topic, []byte(res.Dataset), res); err != nil {
		return fmt.Errorf("publish run %s: %w", res.RunID, err)
	}
	return nil
}

// Close closes the underlying producer.
func (p *KafkaRunPublisher) Close() error {
	return p.producer.Close()
}
