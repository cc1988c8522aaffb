package models

// MProcessingMetrics represents the performance metrics of the chart pipeline.
type MProcessingMetrics struct {
	BuildTimeSeconds float64 `json:"build_time_seconds"`
	SeriesCount      int     `json:"series_count"`
	StackPoints      int     `json:"stack_points"`
	StaleDiscarded   int64   `json:"stale_discarded"`
	ChartsBuilt      int64   `json:"charts_built"`
}
