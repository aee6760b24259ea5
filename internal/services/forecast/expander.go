package forecast

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"shelfcast/internal/domain/models"
)

const (
	// demandFloor keeps the simulated series strictly positive; demand is
	// never truly zero in this model's semantics.
	demandFloor = 0.1
	// z95 is the normal quantile for the 95% band.
	z95 = 1.96

	defaultNoiseStd = 0.12
	trendMean       = 0.02
	trendStd        = 0.05
)

// Expander turns a single next-day point estimate into an N-day forecast
// series with per-day noise, a constant drift term, and 95% confidence
// bounds. The expansion is deliberately stochastic; the random source is
// injectable so behavior is reproducible under test.
type Expander struct {
	rng      *rand.Rand
	noiseStd float64
}

type Option func(*Expander)

// WithRand injects the random source for noise and drift sampling.
func WithRand(rng *rand.Rand) Option {
	return func(e *Expander) { e.rng = rng }
}

// WithNoiseStd overrides the per-day noise spread.
func WithNoiseStd(std float64) Option {
	return func(e *Expander) {
		if std > 0 {
			e.noiseStd = std
		}
	}
}

// NewExpander creates a horizon expander with fresh randomness per process.
func NewExpander(opts ...Option) *Expander {
	e := &Expander{
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		noiseStd: defaultNoiseStd,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Params are the inputs to one expansion.
type Params struct {
	PointEstimate float64 // regressor output for "tomorrow", >= 0
	DaysAhead     int     // horizon length, >= 1
	ReferenceDate time.Time
	SellPrice     float64
	// Trend is the drift fraction per week. When nil it is sampled once
	// from N(0.02, 0.05) and held constant across the series.
	Trend *float64
}

// Expand generates the forecast series. Dates run from the day after
// ReferenceDate with no gaps; every point satisfies
// 0 <= lower <= point <= upper.
func (e *Expander) Expand(p Params) (*models.ForecastSeries, error) {
	if p.DaysAhead < 1 {
		return nil, fmt.Errorf("%w: days_ahead must be >= 1, got %d", models.ErrInvalidHorizon, p.DaysAhead)
	}
	if p.PointEstimate < 0 {
		return nil, fmt.Errorf("%w: point_estimate must be >= 0, got %v", models.ErrInvalidInput, p.PointEstimate)
	}

	trend := trendMean + e.rng.NormFloat64()*trendStd
	if p.Trend != nil {
		trend = *p.Trend
	}

	ref := time.Date(p.ReferenceDate.Year(), p.ReferenceDate.Month(), p.ReferenceDate.Day(), 0, 0, 0, 0, time.UTC)

	daily := make([]float64, p.DaysAhead)
	total := 0.0
	for i := 1; i <= p.DaysAhead; i++ {
		noise := e.rng.NormFloat64() * e.noiseStd
		v := p.PointEstimate * (1 + trend*float64(i)/7) * (1 + noise)
		if v < demandFloor {
			v = demandFloor
		}
		daily[i-1] = v
		total += v
	}

	stdDev := sampleStd(daily)
	if p.DaysAhead < 2 {
		stdDev = p.PointEstimate * 0.25
	}

	points := make([]models.ForecastPoint, p.DaysAhead)
	for i, v := range daily {
		points[i] = models.ForecastPoint{
			Date:          ref.AddDate(0, 0, i+1),
			PointEstimate: v,
			LowerBound:    math.Max(0, v-z95*stdDev),
			UpperBound:    v + z95*stdDev,
		}
	}

	return &models.ForecastSeries{
		ReferenceDate: ref,
		Points:        points,
		Confidence:    confidence(stdDev, p.PointEstimate),
		RevenueImpact: total * p.SellPrice,
	}, nil
}

// confidence maps relative spread to a display percentage: a tighter series
// states higher confidence, bounded to [80, 95]. Zero point estimates get a
// fixed 85.
func confidence(stdDev, point float64) float64 {
	if point <= 0 {
		return 85
	}
	c := 92 - (stdDev/point)*50
	if c < 80 {
		return 80
	}
	if c > 95 {
		return 95
	}
	return c
}

func sampleStd(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	m := sum / float64(len(xs))
	sum2 := 0.0
	for _, x := range xs {
		d := x - m
		sum2 += d * d
	}
	return math.Sqrt(sum2 / float64(len(xs)-1))
}
