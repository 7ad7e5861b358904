package repository

import (
	"context"
	"fmt"

	"SignalFuse/internal/domain/models"
	domrepo "SignalFuse/internal/domain/repository"
	pkgkafka "SignalFuse/pkg/kafka"
)

// KafkaConsensusPublisher implements ConsensusPublisher for Kafka.
// Records are keyed by symbol so all consensus updates for one
// instrument land on the same partition in order.
type KafkaConsensusPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaConsensusPublisher creates a Kafka-backed publisher.
func NewKafkaConsensusPublisher(producer *pkgkafka.Producer, topic string) domrepo.ConsensusPublisher {
	return &KafkaConsensusPublisher{producer: producer, topic: topic}
}

func (p *KafkaConsensusPublisher) Publish(ctx context.Context, rec *models.ConsensusRecord) error {
	key := []byte(fmt.Sprintf("%s:%s", rec.Symbol, rec.Timeframe))
	return p.producer.Publish(ctx, p.topic, key, rec)
}

func (p *KafkaConsensusPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

// NoopPublisher discards consensus records. Used when Kafka is
// disabled; the keyed store remains the source of truth.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, *models.ConsensusRecord) error { return nil }
func (NoopPublisher) Close() error                                           { return nil }
