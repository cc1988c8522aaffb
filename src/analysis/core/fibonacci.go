package core

import (
	"math"

	"market-dashboard/src/models"
)

// MillisecondThreshold separates second and millisecond epoch timestamps.
// Anything above it is taken to be milliseconds. This is a magnitude guess,
// not a guarantee.
const MillisecondThreshold = 10_000_000_000

// TimeScale is the unit of a numeric chart time.
type TimeScale string

const (
	ScaleSeconds      TimeScale = "seconds"
	ScaleMilliseconds TimeScale = "milliseconds"
)

// DefaultFibonacciLevels are the retracement and extension ratios drawn for
// every new retracement, in order. Hidden entries produce no level.
var DefaultFibonacciLevels = []models.MFibonacciLevelConfig{
	{Ratio: 0, Label: "0.0%", Color: "#787b86", Visible: true},
	{Ratio: 0.236, Label: "23.6%", Color: "#f44336", Visible: true},
	{Ratio: 0.382, Label: "38.2%", Color: "#81c784", Visible: true},
	{Ratio: 0.5, Label: "50.0%", Color: "#4caf50", Visible: true},
	{Ratio: 0.618, Label: "61.8%", Color: "#009688", Visible: true},
	{Ratio: 0.786, Label: "78.6%", Color: "#64b5f6", Visible: true},
	{Ratio: 1, Label: "100.0%", Color: "#787b86", Visible: true},
	{Ratio: 1.272, Label: "127.2%", Color: "#81c784", Visible: false},
	{Ratio: 1.414, Label: "141.4%", Color: "#f44336", Visible: false},
	{Ratio: 1.618, Label: "161.8%", Color: "#2962ff", Visible: true},
	{Ratio: 2.618, Label: "261.8%", Color: "#f44336", Visible: true},
	{Ratio: 3.618, Label: "361.8%", Color: "#9c27b0", Visible: true},
	{Ratio: 4.236, Label: "423.6%", Color: "#e91e63", Visible: true},
}

// RetracementPalette is the pool a new retracement's color is drawn from.
var RetracementPalette = []string{
	"#FF6B6B", "#4ECDC4", "#45B7D1", "#96CEB4", "#FFEAA7",
	"#DDA0DD", "#98D8C8", "#F7DC6F", "#BB8FCE", "#85C1E9",
	"#F8C471", "#82E0AA", "#F1948A", "#85C1E9", "#D7BDE2",
	"#F9E79F", "#A9DFBF", "#F5B7B1", "#AED6F1", "#D2B4DE",
}

// IdentitySource hands out ids and colors for new retracements.
type IdentitySource interface {
	NextID() string
	NextColor() string
}

// TimeConversion describes what NormalizeTimeReport did.
type TimeConversion struct {
	Applied bool
	From    TimeScale
	To      TimeScale
}

// -----------------------------------------------------------------------------

// DetectTimeScale guesses the unit of a numeric timestamp by magnitude.
func DetectTimeScale(v int64) TimeScale {
	if v > MillisecondThreshold {
		return ScaleMilliseconds
	}
	return ScaleSeconds
}

// -----------------------------------------------------------------------------

// NormalizeTime brings ts into the unit of the reference series.
func NormalizeTime(ts int64, reference []models.MChartTime) int64 {
	out, _ := NormalizeTimeReport(ts, reference)
	return out
}

// -----------------------------------------------------------------------------

// NormalizeTimeReport is NormalizeTime that also reports the conversion.
// Only the first reference value is inspected. An empty or string-encoded
// reference leaves ts unchanged.
func NormalizeTimeReport(ts int64, reference []models.MChartTime) (int64, TimeConversion) {
	if len(reference) == 0 || !reference[0].IsNumeric() {
		return ts, TimeConversion{}
	}

	refScale := DetectTimeScale(reference[0].Unix)
	inScale := DetectTimeScale(ts)
	if refScale == inScale {
		return ts, TimeConversion{From: inScale, To: refScale}
	}

	conv := TimeConversion{Applied: true, From: inScale, To: refScale}
	if refScale == ScaleMilliseconds {
		return ts * 1000, conv
	}
	return int64(math.Floor(float64(ts) / 1000)), conv
}

// -----------------------------------------------------------------------------

// ComputeRetracement derives the levels between two anchor points. The low
// anchor is the start when the end is higher (uptrend), the end otherwise.
// Equal prices are accepted and collapse every level onto one price.
func ComputeRetracement(start, end models.MFibonacciPoint, ratios []models.MFibonacciLevelConfig, identity IdentitySource) models.MFibonacciRetracement {
	isUptrend := end.Price > start.Price
	low, high := end, start
	if isUptrend {
		low, high = start, end
	}
	diff := high.Price - low.Price

	levels := make([]models.MFibonacciLevel, 0, len(ratios))
	for _, cfg := range ratios {
		if !cfg.Visible {
			continue
		}
		price := high.Price - diff*cfg.Ratio
		if isUptrend {
			price = low.Price + diff*cfg.Ratio
		}
		levels = append(levels, models.MFibonacciLevel{
			Level:   len(levels),
			Ratio:   cfg.Ratio,
			Price:   price,
			Label:   cfg.Label,
			Color:   cfg.Color,
			Visible: true,
		})
	}

	return models.MFibonacciRetracement{
		ID:         identity.NextID(),
		StartPoint: start,
		EndPoint:   end,
		Levels:     levels,
		Color:      identity.NextColor(),
		Visible:    true,
	}
}

// -----------------------------------------------------------------------------

// RetracementGeometry expands a retracement into drawable segments: the trend
// line between the anchors and one horizontal segment per level. Each pair
// is ordered by time.
func RetracementGeometry(r models.MFibonacciRetracement, reference []models.MChartTime) models.MRetracementGeometry {
	startTime := NormalizeTime(r.StartPoint.Time, reference)
	endTime := NormalizeTime(r.EndPoint.Time, reference)

	geo := models.MRetracementGeometry{
		ID:        r.ID,
		Color:     r.Color,
		TrendLine: segment(startTime, r.StartPoint.Price, endTime, r.EndPoint.Price),
		Levels:    make([]models.MLevelSegment, 0, len(r.Levels)),
	}
	for _, lvl := range r.Levels {
		geo.Levels = append(geo.Levels, models.MLevelSegment{
			Level:  lvl.Level,
			Label:  lvl.Label,
			Color:  lvl.Color,
			Points: segment(startTime, lvl.Price, endTime, lvl.Price),
		})
	}
	return geo
}

func segment(t1 int64, v1 float64, t2 int64, v2 float64) []models.MTimeValue {
	if t2 < t1 {
		t1, v1, t2, v2 = t2, v2, t1, v1
	}
	return []models.MTimeValue{{Time: t1, Value: v1}, {Time: t2, Value: v2}}
}

// -----------------------------------------------------------------------------

// FlattenGeometry lists the segments as consecutive point pairs: trend line
// first, then each level.
func FlattenGeometry(geo models.MRetracementGeometry) []models.MTimeValue {
	out := append([]models.MTimeValue(nil), geo.TrendLine...)
	for _, lvl := range geo.Levels {
		out = append(out, lvl.Points...)
	}
	return out
}
