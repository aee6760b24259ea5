package service

import (
	"context"
	"time"
)

// Regressor is the trained demand model. Values must be ordered exactly as
// the schema the model was fit against; Predict returns the expected units
// sold for the next day.
type Regressor interface {
	Predict(values []float64) (float64, error)
	FeatureNames() []string
}

// EventCalendar reports whether a calendar day carries a known event or
// promotion that lifts demand.
type EventCalendar interface {
	IsEvent(ctx context.Context, date time.Time) (bool, error)
}
