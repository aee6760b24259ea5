package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"shelfcast/internal/domain/models"
	"shelfcast/internal/domain/repository"
	pkgkafka "shelfcast/pkg/kafka"
	"shelfcast/pkg/util"
)

// ClickHouseSalesStore implements Storage for ClickHouse.
type ClickHouseSalesStore struct {
	db    *sql.DB
	table string
}

// NewClickHouseSalesStore creates ClickHouse storage.
func NewClickHouseSalesStore(db *sql.DB, table string) repository.Storage {
	return &ClickHouseSalesStore{db: db, table: table}
}

func (s *ClickHouseSalesStore) Init(ctx context.Context) error {
	return nil // Schema init in pkg
}

func (s *ClickHouseSalesStore) Store(ctx context.Context, o *models.SalesObservation) error {
	q := fmt.Sprintf("INSERT INTO %s (date, item_id, store_id, dept_id, cat_id, state_id, sales, sell_price) VALUES (?, ?, ?, ?, ?, ?, ?, ?)", s.table)
	_, err := s.db.ExecContext(ctx, q,
		o.Date,
		o.ItemID,
		o.StoreID,
		o.DeptID,
		o.CatID,
		o.StateID,
		o.Sales,
		o.SellPrice,
	)
	return err
}

func (s *ClickHouseSalesStore) StoreBatch(ctx context.Context, obs []*models.SalesObservation) error {
	if len(obs) == 0 {
		return nil
	}
	// Batch insert using VALUES multi-row to reduce round-trips.
	// Chunk size tuned to 2000 rows per batch.
	const chunkSize = 2000
	for start := 0; start < len(obs); start += chunkSize {
		end := start + chunkSize
		if end > len(obs) {
			end = len(obs)
		}

		// Build VALUES list
		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*8)
		for _, o := range obs[start:end] {
			if o == nil || o.ItemID == "" || o.StoreID == "" || o.Date.IsZero() {
				continue
			}
			values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?)")
			args = append(args,
				o.Date,
				o.ItemID,
				o.StoreID,
				o.DeptID,
				o.CatID,
				o.StateID,
				o.Sales,
				o.SellPrice,
			)
		}
		if len(values) == 0 {
			continue
		}
		q := fmt.Sprintf("INSERT INTO %s (date, item_id, store_id, dept_id, cat_id, state_id, sales, sell_price) VALUES %s", s.table, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return err
		}
	}
	return nil
}

func (s *ClickHouseSalesStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *ClickHouseSalesStore) Close() error {
	return nil // Managed by pkg
}

// KafkaObservationPublisher implements Publisher for Kafka.
type KafkaObservationPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaObservationPublisher creates Kafka publisher.
func NewKafkaObservationPublisher(producer *pkgkafka.Producer, topic string) repository.Publisher {
	return &KafkaObservationPublisher{producer: producer, topic: topic}
}

func observationKey(o *models.SalesObservation) []byte {
	// Keyed per item/store pair so a pair's observations stay ordered.
	return []byte(o.ItemID + "|" + o.StoreID)
}

func observationValue(o *models.SalesObservation) map[string]interface{} {
	return map[string]interface{}{
		"item_id":    o.ItemID,
		"store_id":   o.StoreID,
		"dept_id":    o.DeptID,
		"cat_id":     o.CatID,
		"state_id":   o.StateID,
		"date":       util.FormatDate(o.Date),
		"sales":      o.Sales,
		"sell_price": o.SellPrice,
	}
}

func (p *KafkaObservationPublisher) Publish(ctx context.Context, o *models.SalesObservation) error {
	return p.producer.Publish(ctx, p.topic, observationKey(o), observationValue(o))
}

func (p *KafkaObservationPublisher) PublishBatch(ctx context.Context, obs []*models.SalesObservation) error {
	if len(obs) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(obs))
	for i, o := range obs {
		msgs[i] = pkgkafka.Message{
			Key:   observationKey(o),
			Value: observationValue(o),
		}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaObservationPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
