package models

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Chart types reported by the backend for a group.
const (
	ChartTypeLine        = "line"
	ChartTypeCandlestick = "candlestick"
)

// -----------------------------------------------------------------------------
// Backend (API) shapes
// -----------------------------------------------------------------------------

// MApiDataPoint is one dated row of a ticker series as the backend sends it.
// Line rows carry Price, candlestick rows carry Open/High/Low/Close.
type MApiDataPoint struct {
	Date   string   `json:"date"`
	Price  *float64 `json:"price,omitempty"`
	Open   *float64 `json:"open,omitempty"`
	High   *float64 `json:"high,omitempty"`
	Low    *float64 `json:"low,omitempty"`
	Close  *float64 `json:"close,omitempty"`
	Volume *float64 `json:"volume,omitempty"`
}

// MApiTickerData is the chart payload of one ticker.
type MApiTickerData struct {
	Ticker string          `json:"ticker"`
	Group  string          `json:"group"`
	Type   string          `json:"type"`
	Data   []MApiDataPoint `json:"data"`
}

// MGroupChartData maps ticker name to its chart payload.
type MGroupChartData map[string]MApiTickerData

// -----------------------------------------------------------------------------
// Internal series shapes
// -----------------------------------------------------------------------------

// MLinePoint is one ticker observation at one time bucket (line charts).
type MLinePoint struct {
	Time   int64    `json:"time"`
	Value  float64  `json:"value"`
	Volume *float64 `json:"volume,omitempty"`
}

// MCandlestickPoint is one ticker OHLC observation at one time bucket.
type MCandlestickPoint struct {
	Time   int64    `json:"time"`
	Open   float64  `json:"open"`
	High   float64  `json:"high"`
	Low    float64  `json:"low"`
	Close  float64  `json:"close"`
	Volume *float64 `json:"volume,omitempty"`
}

// MSeriesInfo is the adapted series of one ticker. Exactly one of Line and
// Candles is populated, according to Type.
type MSeriesInfo struct {
	ID      string              `json:"id"`
	Ticker  string              `json:"ticker"`
	Group   string              `json:"group"`
	Type    string              `json:"type"`
	Line    []MLinePoint        `json:"line,omitempty"`
	Candles []MCandlestickPoint `json:"candles,omitempty"`
	Color   string              `json:"color,omitempty"`
}

// VolumeSamples flattens the series into aggregator input with the given color.
// Missing volumes count as zero.
func (s MSeriesInfo) VolumeSamples(color string) []MVolumeSample {
	var out []MVolumeSample
	switch s.Type {
	case ChartTypeCandlestick:
		out = make([]MVolumeSample, 0, len(s.Candles))
		for _, c := range s.Candles {
			out = append(out, MVolumeSample{Time: c.Time, Volume: volumeOrZero(c.Volume), Color: color})
		}
	default:
		out = make([]MVolumeSample, 0, len(s.Line))
		for _, p := range s.Line {
			out = append(out, MVolumeSample{Time: p.Time, Volume: volumeOrZero(p.Volume), Color: color})
		}
	}
	return out
}

// Times returns the time axis of the series as chart times.
func (s MSeriesInfo) Times() []MChartTime {
	var out []MChartTime
	if s.Type == ChartTypeCandlestick {
		for _, c := range s.Candles {
			out = append(out, MChartTime{Unix: c.Time})
		}
		return out
	}
	for _, p := range s.Line {
		out = append(out, MChartTime{Unix: p.Time})
	}
	return out
}

func volumeOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

// -----------------------------------------------------------------------------
// Chart time axis
// -----------------------------------------------------------------------------

// MChartTime is a value on a chart time axis: either a numeric unix time
// (seconds or milliseconds) or a string-encoded business day.
type MChartTime struct {
	Unix int64
	Date string
}

// IsNumeric reports whether the axis value is a numeric timestamp.
func (t MChartTime) IsNumeric() bool {
	return t.Date == ""
}

func (t MChartTime) MarshalJSON() ([]byte, error) {
	if t.IsNumeric() {
		return []byte(strconv.FormatInt(t.Unix, 10)), nil
	}
	return json.Marshal(t.Date)
}

func (t *MChartTime) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = MChartTime{Date: s}
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("chart time must be a number or a string: %w", err)
	}
	*t = MChartTime{Unix: int64(f)}
	return nil
}

// -----------------------------------------------------------------------------
// Rendering shapes
// -----------------------------------------------------------------------------

// MTimeValue is a single {time, value} pair handed to a line series.
type MTimeValue struct {
	Time  int64   `json:"time"`
	Value float64 `json:"value"`
}

// MHistogramPoint is a {time, value, color} bar of a histogram series.
type MHistogramPoint struct {
	Time  int64   `json:"time"`
	Value float64 `json:"value"`
	Color string  `json:"color"`
}

// MChartView is everything a chart surface needs to draw one group.
type MChartView struct {
	Group          string                       `json:"group"`
	Type           string                       `json:"type"`
	Series         []MSeriesInfo                `json:"series"`
	ColorMap       map[string]string            `json:"color_map"`
	VolumeStack    []MVolumeStackPoint          `json:"volume_stack"`
	StackedVolume  map[string][]MHistogramPoint `json:"stacked_volume,omitempty"`
	CandleVolume   []MHistogramPoint            `json:"candle_volume,omitempty"`
	Legend         []MLegendEntry               `json:"legend"`
	LastTotal      *float64                     `json:"last_total_volume,omitempty"`
	VolumeZScore   float64                      `json:"volume_zscore"`
	MaxTotal       float64                      `json:"max_total_volume"`
	VolumeScale    MVolumeScale                 `json:"volume_scale"`
	LoadedAt       int64                        `json:"loaded_at"`
	SequenceNumber uint64                       `json:"sequence"`
}

// MLegendEntry is the latest reading of one ticker shown in the chart legend.
type MLegendEntry struct {
	Ticker        string   `json:"ticker"`
	Color         string   `json:"color"`
	Price         *float64 `json:"price,omitempty"`
	Volume        *float64 `json:"volume,omitempty"`
	ChangePercent float64  `json:"change_percent"`
	VolumeRatio   float64  `json:"volume_ratio"`
	TotalVolume   float64  `json:"total_volume"`
	TextColor     string   `json:"text_color"`
}

// MLoaderStatus describes one viewer's chart loader.
type MLoaderStatus struct {
	Key       string `json:"key"`
	Group     string `json:"group"`
	Loading   bool   `json:"loading"`
	LastError string `json:"last_error,omitempty"`
}
