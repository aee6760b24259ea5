package usecase

import (
	"context"
	"fmt"
	"time"

	"shelfcast/internal/domain/models"
	domrepo "shelfcast/internal/domain/repository"
	domsvc "shelfcast/internal/domain/service"
	"shelfcast/internal/services/features"
	"shelfcast/internal/services/forecast"
)

// Forecaster orchestrates one forecast: pull history, build the feature
// vector, run the regressor for the next-day point estimate, expand it
// over the requested horizon.
type Forecaster struct {
	history     domrepo.HistoryStore
	calendar    domsvc.EventCalendar
	builder     *features.Builder
	regressor   domsvc.Regressor
	expander    *forecast.Expander
	metrics     domrepo.Metrics
	historyDays int
	priceDays   int
}

func NewForecaster(
	history domrepo.HistoryStore,
	calendar domsvc.EventCalendar,
	builder *features.Builder,
	regressor domsvc.Regressor,
	expander *forecast.Expander,
	metrics domrepo.Metrics,
	historyDays, priceDays int,
) *Forecaster {
	if historyDays <= 0 {
		historyDays = 90
	}
	if priceDays <= 0 {
		priceDays = 28
	}
	return &Forecaster{
		history:     history,
		calendar:    calendar,
		builder:     builder,
		regressor:   regressor,
		expander:    expander,
		metrics:     metrics,
		historyDays: historyDays,
		priceDays:   priceDays,
	}
}

// Forecast produces an N-day demand forecast for one item/store pair.
func (f *Forecaster) Forecast(ctx context.Context, ic models.ItemContext, daysAhead int) (*models.ForecastSeries, error) {
	start := time.Now()

	if daysAhead < 1 {
		return nil, fmt.Errorf("%w: days_ahead must be >= 1, got %d", models.ErrInvalidHorizon, daysAhead)
	}

	ref := ic.ReferenceDate
	if ref.IsZero() {
		ref = time.Now().UTC()
		ic.ReferenceDate = ref
	}

	history, err := f.history.RecentSales(ctx, ic.ItemID, ic.StoreID, ref, f.historyDays)
	if err != nil {
		f.metrics.RecordError("history_fetch")
		return nil, fmt.Errorf("fetch history: %w", err)
	}
	prices, err := f.history.PriceHistory(ctx, ic.ItemID, ref, f.priceDays)
	if err != nil {
		f.metrics.RecordError("price_fetch")
		return nil, fmt.Errorf("fetch prices: %w", err)
	}

	isEvent := false
	if f.calendar != nil {
		ev, err := f.calendar.IsEvent(ctx, ref)
		if err != nil {
			// calendar failures degrade to "no event" rather than failing the forecast
			f.metrics.RecordError("calendar")
		} else {
			isEvent = ev
		}
	}

	vec, err := f.builder.Build(ic, history, prices, isEvent)
	if err != nil {
		f.metrics.RecordError("build_features")
		return nil, err
	}

	point, err := f.regressor.Predict(vec.Values)
	if err != nil {
		f.metrics.RecordError("predict")
		return nil, err
	}

	series, err := f.expander.Expand(forecast.Params{
		PointEstimate: point,
		DaysAhead:     daysAhead,
		ReferenceDate: ref,
		SellPrice:     ic.SellPrice,
	})
	if err != nil {
		f.metrics.RecordError("expand")
		return nil, err
	}
	series.ItemID = ic.ItemID
	series.StoreID = ic.StoreID

	total := 0.0
	for _, p := range series.Points {
		total += p.PointEstimate
	}
	f.metrics.RecordPrediction(ic.StoreID, ic.CatID)
	f.metrics.RecordForecastDemand(ic.StoreID, total)
	f.metrics.RecordLatency("forecast", time.Since(start).Seconds())

	return series, nil
}

// ForecastBatch forecasts several items against the same horizon. Failures
// are reported per item; one bad row does not fail the whole batch.
func (f *Forecaster) ForecastBatch(ctx context.Context, items []models.ItemContext, daysAhead int) ([]models.BatchForecastItem, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: batch is empty", models.ErrInvalidInput)
	}
	out := make([]models.BatchForecastItem, 0, len(items))
	for _, ic := range items {
		item := models.BatchForecastItem{ItemID: ic.ItemID, StoreID: ic.StoreID}
		s, err := f.Forecast(ctx, ic, daysAhead)
		if err != nil {
			item.Error = err.Error()
		} else {
			item.Forecast = s
		}
		out = append(out, item)
	}
	return out, nil
}
