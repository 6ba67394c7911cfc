package repository

import (
	"context"

	"TradePlan/internal/domain/models"
	"TradePlan/internal/domain/repository"
	pkgkafka "TradePlan/pkg/kafka"
)

// KafkaPlanPublisher emits generated plan documents to a Kafka topic,
// keyed by symbol so per-symbol ordering holds.
type KafkaPlanPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaPlanPublisher creates a plan publisher.
func NewKafkaPlanPublisher(producer *pkgkafka.Producer, topic string) repository.PlanPublisher {
	return &KafkaPlanPublisher{producer: producer, topic: topic}
}

func (p *KafkaPlanPublisher) PublishPlan(ctx context.Context, plan *models.TradePlan) error {
	return p.producer.Publish(ctx, p.topic, []byte(plan.Symbol), plan)
}

func (p *KafkaPlanPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
