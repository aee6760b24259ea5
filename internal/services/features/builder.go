package features

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"shelfcast/internal/domain/models"
)

var lagDays = []int{1, 7, 14, 28, 56}

// Noise spread for synthesized lags widens with lag depth, mirroring how
// uncertainty about the past grows the further back we reach.
var lagNoiseStd = map[int]float64{1: 0.5, 7: 1.0, 14: 1.5, 28: 2.0, 56: 2.5}

// Builder turns an item/store/date/price context plus that pair's recent
// sales history into a feature vector matching the trained model's schema.
// It is a pure function of its inputs and the read-only Encoding; safe for
// concurrent use apart from the injected random source.
type Builder struct {
	enc *Encoding
	rng *rand.Rand
}

type BuilderOption func(*Builder)

// WithRand injects the random source used for synthesized lag noise and
// cold-start trend fallbacks. Tests pass a seeded source for reproducibility.
func WithRand(rng *rand.Rand) BuilderOption {
	return func(b *Builder) { b.rng = rng }
}

// NewBuilder creates a feature builder bound to a persisted encoding.
func NewBuilder(enc *Encoding, opts ...BuilderOption) *Builder {
	b := &Builder{
		enc: enc,
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build produces the ordered feature vector for a forecast context.
//
// history is the chronological daily sales tail for (item, store), oldest
// first; it may be empty (cold start). prices is the item's known sell price
// history, oldest first; it may be empty. isEvent flags a known calendar
// event on the reference date.
func (b *Builder) Build(ctx models.ItemContext, history []models.SalesObservation, prices []float64, isEvent bool) (*Vector, error) {
	if ctx.ItemID == "" || ctx.StoreID == "" {
		return nil, fmt.Errorf("%w: item_id and store_id are required", models.ErrInvalidInput)
	}
	if ctx.SellPrice <= 0 {
		return nil, fmt.Errorf("%w: sell_price must be positive, got %v", models.ErrInvalidInput, ctx.SellPrice)
	}

	ref := ctx.ReferenceDate
	if ref.IsZero() {
		ref = time.Now()
	}
	ref = truncateDay(ref)

	byDay := make(map[int64]float64, len(history))
	for _, o := range history {
		byDay[truncateDay(o.Date).Unix()] = o.Sales
	}

	v := make([]float64, 0, len(featureNames))

	// Categorical codes
	v = append(v,
		float64(b.enc.Code(ColItemID, ctx.ItemID)),
		float64(b.enc.Code(ColDeptID, ctx.DeptID)),
		float64(b.enc.Code(ColCatID, ctx.CatID)),
		float64(b.enc.Code(ColStoreID, ctx.StoreID)),
		float64(b.enc.Code(ColStateID, ctx.StateID)),
	)

	// Price and calendar
	dow := mondayIndexedWeekday(ref)
	_, isoWeek := ref.ISOWeek()
	weekend := 0.0
	if dow >= 5 {
		weekend = 1
	}
	v = append(v,
		ctx.SellPrice,
		float64(dow),
		float64(int(ref.Month())),
		float64((int(ref.Month())-1)/3+1),
		weekend,
		float64(ref.Day()),
		float64(isoWeek),
	)

	// Lags: real value exactly k days prior, synthesized when the history
	// does not cover that day.
	base := baseEstimate(ctx.CatID, ctx.SellPrice)
	if len(history) > 0 {
		base = meanSales(history)
	}
	synthetic := false
	lags := make([]float64, 0, len(lagDays))
	for _, k := range lagDays {
		day := ref.AddDate(0, 0, -k)
		if s, ok := byDay[day.Unix()]; ok {
			lags = append(lags, s)
			continue
		}
		synthetic = true
		seasonal := 1 + 0.1*math.Sin(2*math.Pi*float64(day.YearDay())/365)
		lags = append(lags, math.Max(0, base*seasonal+b.rng.NormFloat64()*lagNoiseStd[k]))
	}
	v = append(v, lags...)

	// Rolling statistics over the trailing window, min_periods=1: a
	// one-element series yields mean = that element and std = 0, never NaN.
	series := salesValues(history)
	if len(series) == 0 {
		// oldest-to-newest synthesized pseudo-history
		series = []float64{lags[4], lags[3], lags[2], lags[1], lags[0]}
	}
	v = append(v,
		rollingMean(series, 3), rollingMean(series, 7), rollingMean(series, 14), rollingMean(series, 28),
		rollingStd(series, 3), rollingStd(series, 7), rollingStd(series, 14), rollingStd(series, 28),
		rollingMax(series, 7), rollingMax(series, 14),
		rollingMin(series, 7), rollingMin(series, 14),
	)

	// Trends: percent change over the trailing window.
	v = append(v,
		b.trend(history, byDay, 7, 0.05, 0.1),
		b.trend(history, byDay, 28, 0.02, 0.05),
	)

	// Price dynamics
	priceChange := 0.0
	if n := len(prices); n > 0 && prices[n-1] > 0 {
		priceChange = (ctx.SellPrice - prices[n-1]) / prices[n-1]
	}
	priceVsMean := 1.0
	if m := mean(prices); m > 0 {
		priceVsMean = ctx.SellPrice / m
	}
	event := 0.0
	if isEvent {
		event = 1
	}
	v = append(v, priceChange, priceVsMean, event)

	return &Vector{Values: v, Synthetic: synthetic}, nil
}

// baseEstimate is the cold-start demand heuristic: a category- and
// price-adjusted guess at daily units, used only when no real history
// exists. It must never feed training data.
func baseEstimate(catID string, price float64) float64 {
	est := 5.0
	switch catID {
	case "FOODS":
		est *= 1.3
	case "HOUSEHOLD":
		est *= 0.8
	case "HOBBIES":
		est *= 0.9
	}
	if price > 5.0 {
		est *= 0.7
	} else if price < 2.0 {
		est *= 1.4
	}
	return est
}

// trend computes the fractional sales change over the trailing window. With
// no history at all it samples a small optimistic drift; with history but no
// observation k days back it reports 0.
func (b *Builder) trend(history []models.SalesObservation, byDay map[int64]float64, k int, fallbackMean, fallbackStd float64) float64 {
	if len(history) == 0 {
		return fallbackMean + b.rng.NormFloat64()*fallbackStd
	}
	last := history[len(history)-1]
	prior, ok := byDay[truncateDay(last.Date).AddDate(0, 0, -k).Unix()]
	if !ok || prior == 0 {
		return 0
	}
	return (last.Sales - prior) / prior
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// mondayIndexedWeekday maps time.Weekday (Sunday=0) to 0=Monday..6=Sunday.
func mondayIndexedWeekday(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

func salesValues(history []models.SalesObservation) []float64 {
	if len(history) == 0 {
		return nil
	}
	out := make([]float64, len(history))
	for i, o := range history {
		out[i] = o.Sales
	}
	return out
}

func meanSales(history []models.SalesObservation) float64 {
	sum := 0.0
	for _, o := range history {
		sum += o.Sales
	}
	return sum / float64(len(history))
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func window(series []float64, k int) []float64 {
	if len(series) > k {
		return series[len(series)-k:]
	}
	return series
}

func rollingMean(series []float64, k int) float64 {
	return mean(window(series, k))
}

// rollingStd is the sample standard deviation of the trailing window; a
// window of one element yields 0, matching min_periods=1 semantics.
func rollingStd(series []float64, k int) float64 {
	w := window(series, k)
	if len(w) < 2 {
		return 0
	}
	m := mean(w)
	sum2 := 0.0
	for _, x := range w {
		d := x - m
		sum2 += d * d
	}
	variance := sum2 / float64(len(w)-1)
	if variance < 0 {
		variance = 0
	}
	return math.Sqrt(variance)
}

func rollingMax(series []float64, k int) float64 {
	w := window(series, k)
	out := w[0]
	for _, x := range w[1:] {
		if x > out {
			out = x
		}
	}
	return out
}

func rollingMin(series []float64, k int) float64 {
	w := window(series, k)
	out := w[0]
	for _, x := range w[1:] {
		if x < out {
			out = x
		}
	}
	return out
}
