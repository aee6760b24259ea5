package features

import (
	"errors"
	"math"
	"math/rand"
	"testing"
	"time"

	"shelfcast/internal/domain/models"
)

func testEncoding() *Encoding {
	return NewEncoding(map[string]map[string]int{
		ColItemID:  {"FOODS_3_090": 7},
		ColDeptID:  {"FOODS_3": 3},
		ColCatID:   {"FOODS": 1},
		ColStoreID: {"CA_1": 2},
		ColStateID: {"CA": 1},
	})
}

func testContext(ref time.Time) models.ItemContext {
	return models.ItemContext{
		ItemID:        "FOODS_3_090",
		StoreID:       "CA_1",
		DeptID:        "FOODS_3",
		CatID:         "FOODS",
		StateID:       "CA",
		SellPrice:     2.99,
		ReferenceDate: ref,
	}
}

// history of n consecutive days ending the day before ref, sales = base + i.
func testHistory(ref time.Time, n int, base float64) []models.SalesObservation {
	out := make([]models.SalesObservation, 0, n)
	for i := 0; i < n; i++ {
		day := ref.AddDate(0, 0, -(n - i))
		out = append(out, models.SalesObservation{
			ItemID:    "FOODS_3_090",
			StoreID:   "CA_1",
			DeptID:    "FOODS_3",
			CatID:     "FOODS",
			StateID:   "CA",
			Date:      day,
			Sales:     base + float64(i),
			SellPrice: 2.99,
		})
	}
	return out
}

func seededBuilder() *Builder {
	return NewBuilder(testEncoding(), WithRand(rand.New(rand.NewSource(1))))
}

func TestBuildSchemaLength(t *testing.T) {
	ref := time.Date(2016, 4, 25, 0, 0, 0, 0, time.UTC) // a Monday
	v, err := seededBuilder().Build(testContext(ref), testHistory(ref, 60, 2), []float64{2.99}, false)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(v.Values) != len(Schema()) {
		t.Fatalf("expected %d features, got %d", len(Schema()), len(v.Values))
	}
}

func TestBuildCalendarFeatures(t *testing.T) {
	ref := time.Date(2016, 4, 30, 0, 0, 0, 0, time.UTC) // a Saturday
	v, err := seededBuilder().Build(testContext(ref), testHistory(ref, 60, 2), []float64{2.99}, false)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	checks := map[string]float64{
		"sell_price":   2.99,
		"day_of_week":  5, // Monday=0
		"month":        4,
		"quarter":      2,
		"is_weekend":   1,
		"day_of_month": 30,
	}
	for name, want := range checks {
		got, ok := v.Get(name)
		if !ok {
			t.Fatalf("missing feature %s", name)
		}
		if got != want {
			t.Fatalf("%s = %v, want %v", name, got, want)
		}
	}
}

func TestBuildCategoricalCodes(t *testing.T) {
	ref := time.Date(2016, 4, 25, 0, 0, 0, 0, time.UTC)
	v, err := seededBuilder().Build(testContext(ref), testHistory(ref, 60, 2), []float64{2.99}, false)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if got, _ := v.Get("item_id_encoded"); got != 7 {
		t.Fatalf("item code = %v, want 7", got)
	}
	if got, _ := v.Get("store_id_encoded"); got != 2 {
		t.Fatalf("store code = %v, want 2", got)
	}
}

func TestBuildUnseenValueEncodesZero(t *testing.T) {
	ref := time.Date(2016, 4, 25, 0, 0, 0, 0, time.UTC)
	ctx := testContext(ref)
	ctx.ItemID = "NEVER_SEEN_ITEM"
	v, err := seededBuilder().Build(ctx, testHistory(ref, 60, 2), []float64{2.99}, false)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if got, _ := v.Get("item_id_encoded"); got != 0 {
		t.Fatalf("unseen item code = %v, want 0", got)
	}
}

func TestBuildRealLags(t *testing.T) {
	ref := time.Date(2016, 4, 25, 0, 0, 0, 0, time.UTC)
	history := testHistory(ref, 60, 2) // yesterday's sales = 2+59 = 61
	v, err := seededBuilder().Build(testContext(ref), history, []float64{2.99}, false)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if v.Synthetic {
		t.Fatalf("expected no synthetic lags with 60 days of history")
	}
	if got, _ := v.Get("lag_1"); got != 61 {
		t.Fatalf("lag_1 = %v, want 61", got)
	}
	if got, _ := v.Get("lag_7"); got != 55 {
		t.Fatalf("lag_7 = %v, want 55", got)
	}
	if got, _ := v.Get("lag_56"); got != 6 {
		t.Fatalf("lag_56 = %v, want 6", got)
	}
}

func TestBuildRollingStats(t *testing.T) {
	ref := time.Date(2016, 4, 25, 0, 0, 0, 0, time.UTC)
	history := testHistory(ref, 60, 2) // last 3 values: 59, 60, 61
	v, err := seededBuilder().Build(testContext(ref), history, []float64{2.99}, false)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if got, _ := v.Get("rolling_mean_3"); math.Abs(got-60) > 1e-9 {
		t.Fatalf("rolling_mean_3 = %v, want 60", got)
	}
	if got, _ := v.Get("rolling_max_7"); got != 61 {
		t.Fatalf("rolling_max_7 = %v, want 61", got)
	}
	if got, _ := v.Get("rolling_min_7"); got != 55 {
		t.Fatalf("rolling_min_7 = %v, want 55", got)
	}
	// consecutive integers: sample std of any window is known
	if got, _ := v.Get("rolling_std_3"); math.Abs(got-1) > 1e-9 {
		t.Fatalf("rolling_std_3 = %v, want 1", got)
	}
}

func TestBuildShortHistoryMinPeriods(t *testing.T) {
	ref := time.Date(2016, 4, 25, 0, 0, 0, 0, time.UTC)
	history := testHistory(ref, 1, 5) // single day, sales = 5
	v, err := seededBuilder().Build(testContext(ref), history, []float64{2.99}, false)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if got, _ := v.Get("rolling_mean_28"); got != 5 {
		t.Fatalf("rolling_mean_28 = %v, want 5", got)
	}
	if got, _ := v.Get("rolling_std_28"); got != 0 {
		t.Fatalf("rolling_std_28 = %v, want 0 for single observation", got)
	}
	if !v.Synthetic {
		t.Fatalf("expected synthetic lags with one day of history")
	}
}

func TestBuildColdStart(t *testing.T) {
	ref := time.Date(2016, 4, 25, 0, 0, 0, 0, time.UTC)
	v, err := seededBuilder().Build(testContext(ref), nil, nil, false)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if !v.Synthetic {
		t.Fatalf("expected synthetic vector on cold start")
	}
	for _, name := range []string{"lag_1", "lag_7", "lag_14", "lag_28", "lag_56"} {
		got, _ := v.Get(name)
		if got < 0 {
			t.Fatalf("%s = %v, want >= 0", name, got)
		}
	}
	// no price history: ratio defaults to parity
	if got, _ := v.Get("price_vs_mean"); got != 1 {
		t.Fatalf("price_vs_mean = %v, want 1", got)
	}
	if got, _ := v.Get("price_change"); got != 0 {
		t.Fatalf("price_change = %v, want 0", got)
	}
}

func TestBuildColdStartDeterministic(t *testing.T) {
	ref := time.Date(2016, 4, 25, 0, 0, 0, 0, time.UTC)
	b1 := NewBuilder(testEncoding(), WithRand(rand.New(rand.NewSource(42))))
	b2 := NewBuilder(testEncoding(), WithRand(rand.New(rand.NewSource(42))))
	v1, err := b1.Build(testContext(ref), nil, nil, false)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	v2, err := b2.Build(testContext(ref), nil, nil, false)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	for i := range v1.Values {
		if v1.Values[i] != v2.Values[i] {
			t.Fatalf("position %d differs: %v vs %v", i, v1.Values[i], v2.Values[i])
		}
	}
}

func TestBuildPriceDynamics(t *testing.T) {
	ref := time.Date(2016, 4, 25, 0, 0, 0, 0, time.UTC)
	prices := []float64{2.0, 2.0, 2.0, 2.99}
	v, err := seededBuilder().Build(testContext(ref), testHistory(ref, 60, 2), prices, false)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if got, _ := v.Get("price_change"); math.Abs(got-0) > 1e-9 {
		t.Fatalf("price_change = %v, want 0 (price unchanged vs last known)", got)
	}
	mean := (2.0 + 2.0 + 2.0 + 2.99) / 4
	if got, _ := v.Get("price_vs_mean"); math.Abs(got-2.99/mean) > 1e-9 {
		t.Fatalf("price_vs_mean = %v, want %v", got, 2.99/mean)
	}
}

func TestBuildEventFlag(t *testing.T) {
	ref := time.Date(2016, 4, 25, 0, 0, 0, 0, time.UTC)
	v, err := seededBuilder().Build(testContext(ref), testHistory(ref, 60, 2), []float64{2.99}, true)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if got, _ := v.Get("is_event"); got != 1 {
		t.Fatalf("is_event = %v, want 1", got)
	}
}

func TestBuildInvalidInput(t *testing.T) {
	ref := time.Date(2016, 4, 25, 0, 0, 0, 0, time.UTC)
	b := seededBuilder()

	ctx := testContext(ref)
	ctx.ItemID = ""
	if _, err := b.Build(ctx, nil, nil, false); !errors.Is(err, models.ErrInvalidInput) {
		t.Fatalf("empty item_id: expected ErrInvalidInput, got %v", err)
	}

	ctx = testContext(ref)
	ctx.SellPrice = 0
	if _, err := b.Build(ctx, nil, nil, false); !errors.Is(err, models.ErrInvalidInput) {
		t.Fatalf("zero price: expected ErrInvalidInput, got %v", err)
	}
}

func TestValidateSchema(t *testing.T) {
	if err := ValidateSchema(Schema()); err != nil {
		t.Fatalf("identical schema should validate: %v", err)
	}
	bad := Schema()
	bad[0], bad[1] = bad[1], bad[0]
	if err := ValidateSchema(bad); !errors.Is(err, models.ErrSchemaMismatch) {
		t.Fatalf("reordered schema: expected ErrSchemaMismatch, got %v", err)
	}
	if err := ValidateSchema(Schema()[:10]); !errors.Is(err, models.ErrSchemaMismatch) {
		t.Fatalf("truncated schema: expected ErrSchemaMismatch, got %v", err)
	}
}

func TestBaseEstimate(t *testing.T) {
	cases := []struct {
		cat   string
		price float64
		want  float64
	}{
		{"FOODS", 2.99, 6.5},
		{"HOUSEHOLD", 2.99, 4.0},
		{"HOBBIES", 6.00, 3.15},
		{"FOODS", 1.50, 9.1},
		{"UNKNOWN", 2.99, 5.0},
	}
	for _, c := range cases {
		got := baseEstimate(c.cat, c.price)
		if math.Abs(got-c.want) > 1e-9 {
			t.Fatalf("baseEstimate(%s, %v) = %v, want %v", c.cat, c.price, got, c.want)
		}
	}
}
