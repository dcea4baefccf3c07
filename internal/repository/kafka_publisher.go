package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"ETFAdvisor/internal/domain/models"
	"ETFAdvisor/internal/domain/repository"
	pkgkafka "ETFAdvisor/pkg/kafka"
	"ETFAdvisor/pkg/logger"
)

// Event is the envelope of every domain event on the events topic.
type Event struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	Key       string      `json:"key,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// KafkaPublisher publishes bars, domain events and aggregated logs.
type KafkaPublisher struct {
	producer    *pkgkafka.Producer
	barsTopic   string
	eventsTopic string
	now         func() time.Time
}

var (
	_ repository.BarPublisher   = (*KafkaPublisher)(nil)
	_ repository.EventPublisher = (*KafkaPublisher)(nil)
	_ logger.Publisher          = (*KafkaPublisher)(nil)
)

// NewKafkaPublisher creates Kafka publisher.
func NewKafkaPublisher(producer *pkgkafka.Producer, barsTopic, eventsTopic string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, barsTopic: barsTopic, eventsTopic: eventsTopic, now: time.Now}
}

// PublishBars sends bars keyed by symbol so one symbol stays on one partition.
func (p *KafkaPublisher) PublishBars(ctx context.Context, bars []models.PriceBar) error {
	if len(bars) == 0 {
		return nil
	}
	return p.producer.PublishBatch(ctx, p.barsTopic, barMessages(bars))
}

// PublishEvent wraps payload in an Event envelope.
func (p *KafkaPublisher) PublishEvent(ctx context.Context, eventType, key string, payload interface{}) error {
	ev := newEvent(eventType, key, payload, p.now())
	return p.producer.PublishBatch(ctx, p.eventsTopic, []pkgkafka.Message{{
		Key:     []byte(key),
		Value:   ev,
		Headers: map[string]string{"event_type": eventType, "event_id": ev.ID},
	}})
}

// PublishMessage ships an aggregated log batch.
func (p *KafkaPublisher) PublishMessage(ctx context.Context, topic string, payload interface{}) error {
	return p.producer.PublishMessage(ctx, topic, payload)
}

func (p *KafkaPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

func barMessages(bars []models.PriceBar) []pkgkafka.Message {
	msgs := make([]pkgkafka.Message, len(bars))
	for i, b := range bars {
		msgs[i] = pkgkafka.Message{Key: []byte(b.Symbol), Value: b}
	}
	return msgs
}

func newEvent(eventType, key string, payload interface{}, now time.Time) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Key:       key,
		Timestamp: now.UTC(),
		Payload:   payload,
	}
}
