package models

// Indicator kinds served by the backend.
const (
	IndicatorEMA = "ema"
	IndicatorRSI = "rsi"
)

// MIndicatorSettings is the backend's indicator configuration.
type MIndicatorSettings struct {
	EmaPeriods  []int  `json:"ema_periods"`
	RsiPeriod   int    `json:"rsi_period"`
	LastUpdated string `json:"last_updated,omitempty"`
	UpdatedBy   string `json:"updated_by,omitempty"`
}

// MIndicatorValue is one dated indicator value. Value is nil for gaps.
type MIndicatorValue struct {
	Date  string   `json:"date"`
	Value *float64 `json:"value"`
}

// MIndicatorResponse is the backend payload for one indicator series.
type MIndicatorResponse struct {
	Ticker    string            `json:"ticker"`
	Indicator string            `json:"indicator"`
	Data      []MIndicatorValue `json:"data"`
}

// MIndicatorData is an adapted indicator series ready to draw.
// Gaps are NaN values and must be filtered by the renderer.
type MIndicatorData struct {
	Ticker    string       `json:"ticker"`
	Indicator string       `json:"indicator"`
	Period    int          `json:"period"`
	Data      []MLinePoint `json:"data"`
	Color     string       `json:"color"`
}

// MEmaToggle is the on/off state of one configured EMA period.
type MEmaToggle struct {
	Period  int  `json:"period"`
	Enabled bool `json:"enabled"`
}

// MTickerIndicators is the per-ticker overlay state. EMA holds exactly one
// entry per period in the indicator settings.
type MTickerIndicators struct {
	Ticker string       `json:"ticker"`
	Volume bool         `json:"volume"`
	RSI    bool         `json:"rsi"`
	EMA    []MEmaToggle `json:"ema"`
}

// MIndicatorToggle is a request to switch one overlay of a ticker.
type MIndicatorToggle struct {
	Kind    string `json:"kind" binding:"required"`
	Period  int    `json:"period"`
	Enabled bool   `json:"enabled"`
}
