package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ETFAdvisor/internal/domain/models"
	domrepo "ETFAdvisor/internal/domain/repository"
	pkgkafka "ETFAdvisor/pkg/kafka"
)

// KafkaBarsHandler consumes the bars topic and writes to the bar store.
type KafkaBarsHandler struct {
	topic   string
	store   domrepo.BarStore
	metrics domrepo.Metrics
}

func NewKafkaBarsHandler(topic string, store domrepo.BarStore, metrics domrepo.Metrics) *KafkaBarsHandler {
	return &KafkaBarsHandler{topic: topic, store: store, metrics: metrics}
}

func (h *KafkaBarsHandler) Topic() string { return h.topic }

// Handle stores one bar encoded as {symbol, t, c, v}.
func (h *KafkaBarsHandler) Handle(ctx context.Context, b []byte) error {
	var bar models.PriceBar
	if err := json.Unmarshal(b, &bar); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return fmt.Errorf("decode bar: %w", err)
	}
	if bar.Symbol == "" || !bar.Valid() {
		// a malformed bar never becomes valid; drop it instead of retrying
		h.metrics.RecordError("consumer_invalid")
		return nil
	}

	start := time.Now()
	err := h.store.StoreBatch(ctx, []models.PriceBar{bar})
	h.metrics.RecordLatency("ch_insert_seconds", time.Since(start).Seconds())
	if err != nil {
		h.metrics.RecordError("consumer_store")
		return err
	}
	h.metrics.RecordMessageSent(BackendClickHouse, bar.Symbol)
	h.metrics.RecordLastPrice(bar.Symbol, bar.Close)
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaBarsHandler)(nil)
