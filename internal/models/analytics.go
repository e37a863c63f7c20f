package models

// SummaryData is the aggregate of the six tracked measures for the bar chart.
// Missing aggregates default to zero so an empty table still renders.
type SummaryData struct {
	A float64 `json:"A"`
	B float64 `json:"B"`
	C float64 `json:"C"`
	D float64 `json:"D"`
	E float64 `json:"E"`
	F float64 `json:"F"`
}

// TimeseriesPoint is one day's total for the requested measure.
type TimeseriesPoint struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// TimeseriesData is the line chart payload: the echoed feature name plus
// per-day totals in ascending date order.
type TimeseriesData struct {
	Feature string            `json:"feature"`
	Data    []TimeseriesPoint `json:"data"`
}
