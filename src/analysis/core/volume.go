package core

import (
	"sort"

	"market-dashboard/src/models"
	"market-dashboard/src/utils"
)

const (
	candleUpColor   = "#26a69a"
	candleDownColor = "#ef5350"
)

// -----------------------------------------------------------------------------

// Aggregate stacks per-ticker volume samples into one bar per distinct time,
// ascending. Tickers are visited in name order so part order is stable.
func Aggregate(volumeData map[string][]models.MVolumeSample) []models.MVolumeStackPoint {
	tickers := make([]string, 0, len(volumeData))
	for ticker := range volumeData {
		tickers = append(tickers, ticker)
	}
	sort.Strings(tickers)

	buckets := make(map[int64]*models.MVolumeStackPoint)
	for _, ticker := range tickers {
		for _, s := range volumeData[ticker] {
			point, ok := buckets[s.Time]
			if !ok {
				point = &models.MVolumeStackPoint{Time: s.Time}
				buckets[s.Time] = point
			}
			point.Total += s.Volume
			point.Parts = append(point.Parts, models.MVolumeContribution{
				Ticker: ticker,
				Volume: s.Volume,
				Color:  s.Color,
			})
		}
	}

	out := make([]models.MVolumeStackPoint, 0, len(buckets))
	for _, point := range buckets {
		out = append(out, *point)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Time < out[j].Time })
	return out
}

// -----------------------------------------------------------------------------

// SortParts returns a copy of parts ordered by descending volume.
func SortParts(parts []models.MVolumeContribution) []models.MVolumeContribution {
	out := append([]models.MVolumeContribution(nil), parts...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Volume > out[j].Volume })
	return out
}

// -----------------------------------------------------------------------------

// SortStackParts orders every bar's parts largest first and fills their alpha.
func SortStackParts(stack []models.MVolumeStackPoint) []models.MVolumeStackPoint {
	out := make([]models.MVolumeStackPoint, len(stack))
	for i, point := range stack {
		parts := SortParts(point.Parts)
		for j := range parts {
			parts[j].Alpha = DeriveAlpha(parts[j].Volume, point.Total)
		}
		out[i] = models.MVolumeStackPoint{Time: point.Time, Total: point.Total, Parts: parts}
	}
	return out
}

// -----------------------------------------------------------------------------

// DeriveAlpha maps a part's share of its bar to an opacity in [0.3, 0.9].
// An empty bar gets 0.7.
func DeriveAlpha(partVolume, bucketTotal float64) float64 {
	if bucketTotal == 0 {
		return 0.7
	}
	ratio := partVolume / bucketTotal
	alpha := 0.5 + ratio*0.4
	if alpha < 0.3 {
		return 0.3
	}
	if alpha > 0.9 {
		return 0.9
	}
	return alpha
}

// -----------------------------------------------------------------------------

// ToPerTickerSeries splits the stack back into one histogram per ticker, each
// bar colored with the ticker color at its derived alpha.
func ToPerTickerSeries(stack []models.MVolumeStackPoint) map[string][]models.MHistogramPoint {
	result := make(map[string][]models.MHistogramPoint)
	for _, point := range stack {
		for _, part := range SortParts(point.Parts) {
			alpha := DeriveAlpha(part.Volume, point.Total)
			result[part.Ticker] = append(result[part.Ticker], models.MHistogramPoint{
				Time:  point.Time,
				Value: part.Volume,
				Color: utils.AddAlphaToHex(part.Color, alpha),
			})
		}
	}
	return result
}

// -----------------------------------------------------------------------------

// CandlestickVolume draws one histogram of bar totals, green when the candle
// at that time closed at or above its open (or there is no candle), red otherwise.
func CandlestickVolume(stack []models.MVolumeStackPoint, candles []models.MCandlestickPoint) []models.MHistogramPoint {
	byTime := make(map[int64]models.MCandlestickPoint, len(candles))
	for _, c := range candles {
		byTime[c.Time] = c
	}

	out := make([]models.MHistogramPoint, 0, len(stack))
	for _, point := range stack {
		color := candleUpColor
		if c, ok := byTime[point.Time]; ok && c.Close < c.Open {
			color = candleDownColor
		}
		out = append(out, models.MHistogramPoint{Time: point.Time, Value: point.Total, Color: color})
	}
	return out
}

// -----------------------------------------------------------------------------

// VolumeBreakdownAt returns the total and per-ticker split of the bar at time.
func VolumeBreakdownAt(stack []models.MVolumeStackPoint, time int64) (models.MVolumeBreakdown, bool) {
	i := sort.Search(len(stack), func(i int) bool { return stack[i].Time >= time })
	if i == len(stack) || stack[i].Time != time {
		return models.MVolumeBreakdown{}, false
	}
	point := stack[i]
	return models.MVolumeBreakdown{
		Time:        point.Time,
		TotalVolume: point.Total,
		TotalLabel:  FormatVolume(point.Total),
		Parts:       SortParts(point.Parts),
	}, true
}
