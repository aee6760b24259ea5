package model

import (
	"fmt"
	"math"

	domsvc "shelfcast/internal/domain/service"
	"shelfcast/internal/domain/models"
)

// LinearRegressor applies the artifact's per-feature weights to an ordered
// feature vector. Demand is clamped at zero: the model never predicts
// negative units.
type LinearRegressor struct {
	names     []string
	weights   []float64
	intercept float64
}

// NewLinearRegressor binds an artifact's coefficients into predict-ready
// form, with weights aligned to the artifact's feature order.
func NewLinearRegressor(a *Artifact) (*LinearRegressor, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	w := make([]float64, len(a.FeatureColumns))
	for i, name := range a.FeatureColumns {
		w[i] = a.Weights[name]
	}
	names := make([]string, len(a.FeatureColumns))
	copy(names, a.FeatureColumns)
	return &LinearRegressor{names: names, weights: w, intercept: a.Intercept}, nil
}

// Predict returns the expected next-day units for an ordered feature vector.
func (r *LinearRegressor) Predict(values []float64) (float64, error) {
	if len(values) != len(r.weights) {
		return 0, fmt.Errorf("%w: got %d values, model expects %d",
			models.ErrSchemaMismatch, len(values), len(r.weights))
	}
	out := r.intercept
	for i, v := range values {
		out += r.weights[i] * v
	}
	if math.IsNaN(out) || math.IsInf(out, 0) {
		return 0, fmt.Errorf("%w: non-finite prediction", models.ErrInvalidInput)
	}
	return math.Max(0, out), nil
}

// FeatureNames returns the ordered schema the model expects.
func (r *LinearRegressor) FeatureNames() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

var _ domsvc.Regressor = (*LinearRegressor)(nil)
