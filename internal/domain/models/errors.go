package models

import "errors"

// Validation failures surfaced by the forecasting core. These are caller
// errors detected before any computation proceeds; none are retryable.
var (
	// ErrInvalidInput marks malformed or out-of-range arguments such as a
	// non-positive price, empty identifiers, or a negative point estimate.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidHorizon marks a requested horizon shorter than one day.
	ErrInvalidHorizon = errors.New("invalid horizon")

	// ErrSchemaMismatch marks a feature vector whose shape disagrees with
	// the schema the loaded regressor was trained against.
	ErrSchemaMismatch = errors.New("feature schema mismatch")
)
