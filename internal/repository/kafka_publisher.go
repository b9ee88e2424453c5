package repository

import (
	"context"

	"TriSight/internal/domain/models"
	pkgkafka "TriSight/pkg/kafka"
	applogger "TriSight/pkg/logger"
)

// KafkaVerdictPublisher emits one event per completed analysis. The event
// is keyed by ticker so consumers see per-ticker ordering.
type KafkaVerdictPublisher struct {
	producer *pkgkafka.Producer
	topic    string
	l        *applogger.Logger
}

func NewKafkaVerdictPublisher(producer *pkgkafka.Producer, topic string) *KafkaVerdictPublisher {
	return &KafkaVerdictPublisher{producer: producer, topic: topic}
}

// SetLogger injects a structured logger.
func (p *KafkaVerdictPublisher) SetLogger(l *applogger.Logger) { p.l = l }

func (p *KafkaVerdictPublisher) PublishVerdict(ctx context.Context, event models.VerdictEvent) error {
	err := p.producer.Publish(ctx, p.topic, []byte(event.Ticker), event)
	if err != nil && p.l != nil {
		p.l.Error("kafka publish verdict failed",
			applogger.String("request_id", event.RequestID),
			applogger.String("ticker", event.Ticker),
			applogger.Error(err),
		)
	}
	return err
}

func (p *KafkaVerdictPublisher) Close() error {
	return p.producer.Close()
}
