package analytics

import (
	"lexinsights/internal/timeframe"
)

// QueryParams contains the common parameters for dashboard queries.
type QueryParams struct {
	TimeFrame *timeframe.TimeFrame
	Limit     int
}

// NewQueryParams creates query params with the given time frame,
// falling back to the default lookback window when none is provided.
func NewQueryParams(tf *timeframe.TimeFrame) QueryParams {
	if tf == nil {
		tf = timeframe.LastNDays(timeframe.DefaultLookbackDays)
	}
	return QueryParams{
		TimeFrame: tf,
		Limit:     50,
	}
}
