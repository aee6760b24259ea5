package usecase

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"shelfcast/internal/domain/models"
	"shelfcast/internal/services/features"
	"shelfcast/internal/services/forecast"
)

type fakeHistoryStore struct {
	sales  []models.SalesObservation
	prices []float64
	err    error
}

func (f *fakeHistoryStore) RecentSales(_ context.Context, _, _ string, _ time.Time, _ int) ([]models.SalesObservation, error) {
	return f.sales, f.err
}

func (f *fakeHistoryStore) PriceHistory(_ context.Context, _ string, _ time.Time, _ int) ([]float64, error) {
	return f.prices, f.err
}

type fakeCalendar struct {
	event bool
	err   error
}

func (f fakeCalendar) IsEvent(context.Context, time.Time) (bool, error) { return f.event, f.err }

type fakeRegressor struct {
	point float64
	err   error
	got   []float64
}

func (f *fakeRegressor) Predict(values []float64) (float64, error) {
	f.got = values
	return f.point, f.err
}

func (f *fakeRegressor) FeatureNames() []string { return features.Schema() }

type fakeMetrics struct {
	predictions int
	errs        map[string]int
}

func newFakeMetrics() *fakeMetrics { return &fakeMetrics{errs: map[string]int{}} }

func (m *fakeMetrics) RecordPrediction(string, string)      { m.predictions++ }
func (m *fakeMetrics) RecordObservation(string, string)     {}
func (m *fakeMetrics) RecordError(kind string)              { m.errs[kind]++ }
func (m *fakeMetrics) RecordForecastDemand(string, float64) {}
func (m *fakeMetrics) RecordLatency(string, float64)        {}

func testItemContext() models.ItemContext {
	return models.ItemContext{
		ItemID:        "FOODS_3_090",
		StoreID:       "CA_1",
		DeptID:        "FOODS_3",
		CatID:         "FOODS",
		StateID:       "CA",
		SellPrice:     2.99,
		ReferenceDate: time.Date(2016, 4, 25, 0, 0, 0, 0, time.UTC),
	}
}

func testForecaster(store *fakeHistoryStore, cal fakeCalendar, reg *fakeRegressor, m *fakeMetrics) *Forecaster {
	builder := features.NewBuilder(
		features.NewEncoding(nil),
		features.WithRand(rand.New(rand.NewSource(1))),
	)
	expander := forecast.NewExpander(forecast.WithRand(rand.New(rand.NewSource(1))))
	return NewForecaster(store, cal, builder, reg, expander, m, 90, 28)
}

func TestForecastHappyPath(t *testing.T) {
	store := &fakeHistoryStore{prices: []float64{2.99}}
	reg := &fakeRegressor{point: 6.5}
	m := newFakeMetrics()
	f := testForecaster(store, fakeCalendar{}, reg, m)

	s, err := f.Forecast(context.Background(), testItemContext(), 7)
	if err != nil {
		t.Fatalf("forecast: %v", err)
	}
	if len(s.Points) != 7 {
		t.Fatalf("expected 7 points, got %d", len(s.Points))
	}
	if s.ItemID != "FOODS_3_090" || s.StoreID != "CA_1" {
		t.Fatalf("series identity not set: %q/%q", s.ItemID, s.StoreID)
	}
	if len(reg.got) != len(features.Schema()) {
		t.Fatalf("regressor saw %d features, want %d", len(reg.got), len(features.Schema()))
	}
	if m.predictions != 1 {
		t.Fatalf("predictions recorded = %d, want 1", m.predictions)
	}
}

func TestForecastInvalidHorizon(t *testing.T) {
	f := testForecaster(&fakeHistoryStore{}, fakeCalendar{}, &fakeRegressor{}, newFakeMetrics())
	if _, err := f.Forecast(context.Background(), testItemContext(), 0); !errors.Is(err, models.ErrInvalidHorizon) {
		t.Fatalf("expected ErrInvalidHorizon, got %v", err)
	}
}

func TestForecastHistoryError(t *testing.T) {
	store := &fakeHistoryStore{err: errors.New("clickhouse down")}
	m := newFakeMetrics()
	f := testForecaster(store, fakeCalendar{}, &fakeRegressor{point: 6.5}, m)
	if _, err := f.Forecast(context.Background(), testItemContext(), 7); err == nil {
		t.Fatalf("expected history error")
	}
	if m.errs["history_fetch"] != 1 {
		t.Fatalf("history_fetch errors = %d, want 1", m.errs["history_fetch"])
	}
}

func TestForecastCalendarFailureDegrades(t *testing.T) {
	store := &fakeHistoryStore{prices: []float64{2.99}}
	m := newFakeMetrics()
	f := testForecaster(store, fakeCalendar{err: errors.New("calendar timeout")}, &fakeRegressor{point: 6.5}, m)
	if _, err := f.Forecast(context.Background(), testItemContext(), 7); err != nil {
		t.Fatalf("calendar failure should not fail the forecast: %v", err)
	}
	if m.errs["calendar"] != 1 {
		t.Fatalf("calendar errors = %d, want 1", m.errs["calendar"])
	}
}

func TestForecastInvalidItem(t *testing.T) {
	f := testForecaster(&fakeHistoryStore{}, fakeCalendar{}, &fakeRegressor{}, newFakeMetrics())
	ic := testItemContext()
	ic.ItemID = ""
	if _, err := f.Forecast(context.Background(), ic, 7); !errors.Is(err, models.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestForecastBatchPartialFailure(t *testing.T) {
	store := &fakeHistoryStore{prices: []float64{2.99}}
	f := testForecaster(store, fakeCalendar{}, &fakeRegressor{point: 6.5}, newFakeMetrics())

	good := testItemContext()
	bad := testItemContext()
	bad.SellPrice = 0

	results, err := f.ForecastBatch(context.Background(), []models.ItemContext{good, bad}, 7)
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Error != "" || results[0].Forecast == nil {
		t.Fatalf("first item should succeed: %+v", results[0])
	}
	if results[1].Error == "" || results[1].Forecast != nil {
		t.Fatalf("second item should fail: %+v", results[1])
	}
}

func TestForecastBatchEmpty(t *testing.T) {
	f := testForecaster(&fakeHistoryStore{}, fakeCalendar{}, &fakeRegressor{}, newFakeMetrics())
	if _, err := f.ForecastBatch(context.Background(), nil, 7); !errors.Is(err, models.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty batch, got %v", err)
	}
}
