package usecase

import (
	"context"
	"encoding/json"
	"time"

	"shelfcast/internal/domain/models"
	domrepo "shelfcast/internal/domain/repository"
	pkgkafka "shelfcast/pkg/kafka"
	"shelfcast/pkg/util"
)

// KafkaSalesHandler consumes Kafka messages and writes to storage.
type KafkaSalesHandler struct {
	topic   string
	storage domrepo.Storage
	metrics domrepo.Metrics
}

func NewKafkaSalesHandler(topic string, storage domrepo.Storage, metrics domrepo.Metrics) *KafkaSalesHandler {
	return &KafkaSalesHandler{topic: topic, storage: storage, metrics: metrics}
}

func (h *KafkaSalesHandler) Topic() string { return h.topic }

// incoming message schema matches KafkaObservationPublisher's wire format.
func (h *KafkaSalesHandler) Handle(ctx context.Context, b []byte) error {
	var m struct {
		ItemID    string  `json:"item_id"`
		StoreID   string  `json:"store_id"`
		DeptID    string  `json:"dept_id"`
		CatID     string  `json:"cat_id"`
		StateID   string  `json:"state_id"`
		Date      string  `json:"date"`
		Sales     float64 `json:"sales"`
		SellPrice float64 `json:"sell_price"`
	}
	if err := json.Unmarshal(b, &m); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}
	day, err := util.ParseDate(m.Date)
	if err != nil {
		h.metrics.RecordError("consumer_bad_date")
		return err
	}

	start := time.Now()
	err = h.storage.Store(ctx, &models.SalesObservation{
		ItemID:    m.ItemID,
		StoreID:   m.StoreID,
		DeptID:    m.DeptID,
		CatID:     m.CatID,
		StateID:   m.StateID,
		Date:      day,
		Sales:     m.Sales,
		SellPrice: m.SellPrice,
	})
	h.metrics.RecordLatency("ch_insert_seconds", time.Since(start).Seconds())
	if err != nil {
		h.metrics.RecordError("consumer_store")
		return err
	}
	h.metrics.RecordObservation("clickhouse", m.StoreID)
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaSalesHandler)(nil)
