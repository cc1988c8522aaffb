package models

// MVolumeSample is one ticker's volume at one time bucket, with the ticker's
// display color. It is the input of the volume aggregator.
type MVolumeSample struct {
	Time   int64   `json:"time"`
	Volume float64 `json:"volume"`
	Color  string  `json:"color"`
}

// MVolumeContribution is one ticker's share of a stacked volume bar.
type MVolumeContribution struct {
	Ticker string  `json:"ticker"`
	Volume float64 `json:"volume"`
	Color  string  `json:"color"`
	Alpha  float64 `json:"alpha,omitempty"`
}

// MVolumeStackPoint is one stacked volume bar.
// Total is the sum of Parts[].Volume and Parts is never empty.
type MVolumeStackPoint struct {
	Time  int64                 `json:"time"`
	Total float64               `json:"total"`
	Parts []MVolumeContribution `json:"parts"`
}

// MVolumeBreakdown is the tooltip view of a stacked bar at a given time.
type MVolumeBreakdown struct {
	Time        int64                 `json:"time"`
	TotalVolume float64               `json:"total_volume"`
	TotalLabel  string                `json:"total_label"`
	Parts       []MVolumeContribution `json:"parts"`
}

// MVolumeScale is the padded value range of a volume pane.
type MVolumeScale struct {
	MinValue    float64 `json:"min_value"`
	MaxValue    float64 `json:"max_value"`
	ScaleFactor float64 `json:"scale_factor"`
}
