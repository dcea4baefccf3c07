package usecase

import (
	"context"
	"fmt"
	"time"

	"ETFAdvisor/internal/domain/models"
	domrepo "ETFAdvisor/internal/domain/repository"
)

const (
	BackendKafka      = "kafka"
	BackendClickHouse = "clickhouse"
)

// BarProcessor routes bars to the configured backend: the Kafka bars topic
// or the ClickHouse bar store.
type BarProcessor struct {
	pub     domrepo.BarPublisher
	store   domrepo.BarStore
	metrics domrepo.Metrics
	backend string
	batchSz int
}

// NewBarProcessor creates a new BarProcessor instance.
func NewBarProcessor(
	pub domrepo.BarPublisher,
	store domrepo.BarStore,
	metrics domrepo.Metrics,
	backend string,
	batchSz int,
) *BarProcessor {
	if batchSz <= 0 {
		batchSz = 500
	}
	return &BarProcessor{
		pub:     pub,
		store:   store,
		metrics: metrics,
		backend: backend,
		batchSz: batchSz,
	}
}

// ProcessBatch sends bars in chunks of the configured batch size.
func (p *BarProcessor) ProcessBatch(ctx context.Context, bars []models.PriceBar) error {
	for start := 0; start < len(bars); start += p.batchSz {
		end := start + p.batchSz
		if end > len(bars) {
			end = len(bars)
		}
		if err := p.process(ctx, bars[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (p *BarProcessor) process(ctx context.Context, bars []models.PriceBar) error {
	start := time.Now()
	var err error

	switch p.backend {
	case BackendKafka:
		if p.pub == nil {
			err = fmt.Errorf("kafka backend selected but no publisher configured")
			break
		}
		err = p.pub.PublishBars(ctx, bars)
	case BackendClickHouse:
		if p.store == nil {
			err = fmt.Errorf("clickhouse backend selected but no store configured")
			break
		}
		err = p.store.StoreBatch(ctx, bars)
	default:
		err = fmt.Errorf("unknown backend: %s", p.backend)
	}

	if err != nil {
		p.metrics.RecordError("process_batch")
		return fmt.Errorf("process batch: %w", err)
	}

	for _, b := range bars {
		p.metrics.RecordMessageSent(p.backend, b.Symbol)
	}
	p.metrics.RecordLatency("process_batch", time.Since(start).Seconds())
	return nil
}

// Close closes underlying resources if available.
func (p *BarProcessor) Close() {
	if p.pub != nil {
		_ = p.pub.Close()
	}
	if p.store != nil {
		_ = p.store.Close()
	}
}
