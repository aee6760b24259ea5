package models

import "time"

// SalesObservation is one row of a per-(item, store) daily sales history.
// For a given (ItemID, StoreID) pair, observations are chronologically
// ordered with no duplicate dates.
type SalesObservation struct {
	ItemID    string
	StoreID   string
	DeptID    string
	CatID     string
	StateID   string
	Date      time.Time
	Sales     float64 // units sold, >= 0
	SellPrice float64 // > 0
}

// ItemContext identifies an item/store pair plus the pricing and date
// context a forecast is requested for.
type ItemContext struct {
	ItemID        string
	StoreID       string
	DeptID        string
	CatID         string
	StateID       string
	SellPrice     float64
	ReferenceDate time.Time
}

// ForecastPoint is a single day of a forecast series.
type ForecastPoint struct {
	Date          time.Time `json:"date"`
	PointEstimate float64   `json:"point_estimate"`
	LowerBound    float64   `json:"lower_bound"`
	UpperBound    float64   `json:"upper_bound"`
}

// ForecastSeries is an N-day demand forecast with uncertainty bounds.
// Points cover consecutive calendar days starting one day after
// ReferenceDate. For every point, 0 <= LowerBound <= PointEstimate <= UpperBound.
type ForecastSeries struct {
	ItemID        string          `json:"item_id"`
	StoreID       string          `json:"store_id"`
	ReferenceDate time.Time       `json:"reference_date"`
	Points        []ForecastPoint `json:"points"`
	// Confidence is a single display percentage for the whole series,
	// bounded to [80, 95].
	Confidence    float64 `json:"confidence"`
	RevenueImpact float64 `json:"revenue_impact"`
}

// ModelInfo describes the loaded regressor artifact.
type ModelInfo struct {
	Name         string    `json:"name"`
	TrainedAt    time.Time `json:"trained_at"`
	MAPE         float64   `json:"mape"`
	FeatureCount int       `json:"feature_count"`
}
