package features

import (
	"fmt"

	"shelfcast/internal/domain/models"
)

// featureNames is the exact ordered schema the regressor is trained against.
// Any change here invalidates every persisted model artifact.
var featureNames = []string{
	"item_id_encoded", "dept_id_encoded", "cat_id_encoded", "store_id_encoded", "state_id_encoded",
	"sell_price", "day_of_week", "month", "quarter", "is_weekend", "day_of_month", "week_of_year",
	"lag_1", "lag_7", "lag_14", "lag_28", "lag_56",
	"rolling_mean_3", "rolling_mean_7", "rolling_mean_14", "rolling_mean_28",
	"rolling_std_3", "rolling_std_7", "rolling_std_14", "rolling_std_28",
	"rolling_max_7", "rolling_max_14", "rolling_min_7", "rolling_min_14",
	"sales_trend_7", "sales_trend_28", "price_change", "price_vs_mean", "is_event",
}

// Schema returns the ordered feature names.
func Schema() []string {
	out := make([]string, len(featureNames))
	copy(out, featureNames)
	return out
}

// ValidateSchema checks that a regressor's expected feature set matches the
// schema this builder produces, name by name and in order.
func ValidateSchema(expected []string) error {
	if len(expected) != len(featureNames) {
		return fmt.Errorf("%w: model expects %d features, builder produces %d",
			models.ErrSchemaMismatch, len(expected), len(featureNames))
	}
	for i, name := range expected {
		if name != featureNames[i] {
			return fmt.Errorf("%w: position %d: model expects %q, builder produces %q",
				models.ErrSchemaMismatch, i, name, featureNames[i])
		}
	}
	return nil
}

// Vector is a feature vector ordered per Schema().
type Vector struct {
	Values []float64
	// Synthetic is true when one or more lag features had to be
	// synthesized because real history did not cover them. Callers can use
	// it to audit cold-start predictions.
	Synthetic bool
}

// Get returns the value of a named feature. Intended for tests and
// diagnostics; hot paths use Values directly.
func (v *Vector) Get(name string) (float64, bool) {
	for i, n := range featureNames {
		if n == name {
			return v.Values[i], true
		}
	}
	return 0, false
}
