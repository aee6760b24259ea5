package models

// Requests for forecast HTTP endpoints. Defined in domain for consistency and reuse.

type ForecastRequest struct {
	ItemID    string  `json:"item_id" validate:"required"`
	StoreID   string  `json:"store_id" validate:"required"`
	DeptID    string  `json:"dept_id"`
	CatID     string  `json:"cat_id"`
	StateID   string  `json:"state_id"`
	SellPrice float64 `json:"sell_price" validate:"gt=0"`
	DaysAhead int     `json:"days_ahead" default:"7" validate:"gte=1,lte=28"`
}

type BatchForecastRequest struct {
	Items     []ForecastRequest `json:"items" validate:"required,min=1,max=100,dive"`
	DaysAhead int               `json:"days_ahead" default:"7" validate:"gte=1,lte=28"`
}

// BatchForecastItem is one entry of a batch response; failures are reported
// per item so one bad row does not fail the whole batch.
type BatchForecastItem struct {
	ItemID   string          `json:"item_id"`
	StoreID  string          `json:"store_id"`
	Forecast *ForecastSeries `json:"forecast,omitempty"`
	Error    string          `json:"error,omitempty"`
}
