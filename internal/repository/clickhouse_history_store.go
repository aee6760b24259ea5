package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"shelfcast/internal/domain/models"
	pkgch "shelfcast/pkg/clickhouse"
	applogger "shelfcast/pkg/logger"
)

const salesDailyTable = "shelfcast.sales_daily"

// CHHistoryStore implements HistoryStore backed by ClickHouse.
type CHHistoryStore struct {
	db *sql.DB
	l  *applogger.Logger
}

func NewCHHistoryStore(ch *pkgch.Client) *CHHistoryStore {
	return &CHHistoryStore{db: ch.DB()}
}

// SetLogger injects a structured logger.
func (s *CHHistoryStore) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CHHistoryStore) RecentSales(ctx context.Context, itemID, storeID string, ref time.Time, n int) ([]models.SalesObservation, error) {
	start := time.Now()
	const qtpl = `
        SELECT date, item_id, store_id, dept_id, cat_id, state_id, sum(sales) AS sales, any(sell_price) AS sell_price
        FROM %s
        WHERE item_id = ? AND store_id = ? AND date <= ?
        GROUP BY date, item_id, store_id, dept_id, cat_id, state_id
        ORDER BY date DESC
        LIMIT ?
    `
	q := fmt.Sprintf(qtpl, salesDailyTable)
	rows, err := s.db.QueryContext(ctx, q, itemID, storeID, ref, n)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse recent_sales query error",
				applogger.String("item_id", itemID),
				applogger.String("store_id", storeID),
				applogger.Int("limit", n),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("recent sales: %w", err)
	}
	defer rows.Close()

	tmp := make([]models.SalesObservation, 0, n)
	for rows.Next() {
		var o models.SalesObservation
		if err := rows.Scan(&o.Date, &o.ItemID, &o.StoreID, &o.DeptID, &o.CatID, &o.StateID, &o.Sales, &o.SellPrice); err != nil {
			if s.l != nil {
				s.l.Error("clickhouse recent_sales scan error",
					applogger.String("item_id", itemID),
					applogger.String("store_id", storeID),
					applogger.Error(err),
				)
			}
			return nil, fmt.Errorf("scan observation: %w", err)
		}
		tmp = append(tmp, o)
	}
	if err := rows.Err(); err != nil {
		if s.l != nil {
			s.l.Error("clickhouse recent_sales rows error",
				applogger.String("item_id", itemID),
				applogger.String("store_id", storeID),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("rows: %w", err)
	}
	// reverse to oldest-first
	for i, j := 0, len(tmp)-1; i < j; i, j = i+1, j-1 {
		tmp[i], tmp[j] = tmp[j], tmp[i]
	}
	if s.l != nil {
		s.l.Debug("clickhouse recent_sales ok",
			applogger.String("item_id", itemID),
			applogger.String("store_id", storeID),
			applogger.Int("rows", len(tmp)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return tmp, nil
}

func (s *CHHistoryStore) PriceHistory(ctx context.Context, itemID string, ref time.Time, n int) ([]float64, error) {
	start := time.Now()
	const qtpl = `
        SELECT date, any(sell_price) AS sell_price
        FROM %s
        WHERE item_id = ? AND date <= ? AND sell_price > 0
        GROUP BY date
        ORDER BY date DESC
        LIMIT ?
    `
	q := fmt.Sprintf(qtpl, salesDailyTable)
	rows, err := s.db.QueryContext(ctx, q, itemID, ref, n)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse price_history query error",
				applogger.String("item_id", itemID),
				applogger.Int("limit", n),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("price history: %w", err)
	}
	defer rows.Close()

	tmp := make([]float64, 0, n)
	for rows.Next() {
		var day time.Time
		var price float64
		if err := rows.Scan(&day, &price); err != nil {
			if s.l != nil {
				s.l.Error("clickhouse price_history scan error",
					applogger.String("item_id", itemID),
					applogger.Error(err),
				)
			}
			return nil, fmt.Errorf("scan price: %w", err)
		}
		tmp = append(tmp, price)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	// reverse to oldest-first
	for i, j := 0, len(tmp)-1; i < j; i, j = i+1, j-1 {
		tmp[i], tmp[j] = tmp[j], tmp[i]
	}
	if s.l != nil {
		s.l.Debug("clickhouse price_history ok",
			applogger.String("item_id", itemID),
			applogger.Int("rows", len(tmp)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return tmp, nil
}
