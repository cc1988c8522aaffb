package core

import (
	"market-dashboard/src/models"
	"market-dashboard/src/utils"
)

// -----------------------------------------------------------------------------

// CalculateChangePercent calculates fractional change; 0 when previous is 0.
func CalculateChangePercent(current, previous float64) float64 {
	return SafeDivide(current-previous, previous)
}

// -----------------------------------------------------------------------------

// CalculateAnomalyRatio compares a volume to the series average. With no
// average it is 1 for zero volume and the raw volume otherwise.
func CalculateAnomalyRatio(currentVol, avgVol float64) float64 {
	if avgVol <= 0 {
		if currentVol == 0 {
			return 1.0
		}
		return currentVol
	}
	return currentVol / avgVol
}

// -----------------------------------------------------------------------------

// LegendEntry summarises the last observation of a series: price (close for
// candles), volume, change against the previous observation and the ratio of
// the last volume to the series average.
func LegendEntry(s models.MSeriesInfo) models.MLegendEntry {
	entry := models.MLegendEntry{Ticker: s.Ticker, Color: s.Color, TextColor: utils.ContrastColor(s.Color)}

	var prices []float64
	var volumes []float64
	var lastVolume *float64

	if s.Type == models.ChartTypeCandlestick {
		for _, c := range s.Candles {
			prices = append(prices, c.Close)
			volumes = append(volumes, volumeOrZero(c.Volume))
		}
		if n := len(s.Candles); n > 0 {
			lastVolume = s.Candles[n-1].Volume
		}
		entry.TotalVolume = SumVolumes(s.Candles, func(c models.MCandlestickPoint) *float64 { return c.Volume })
	} else {
		for _, p := range s.Line {
			prices = append(prices, p.Value)
			volumes = append(volumes, volumeOrZero(p.Volume))
		}
		if n := len(s.Line); n > 0 {
			lastVolume = s.Line[n-1].Volume
		}
		entry.TotalVolume = SumVolumes(s.Line, func(p models.MLinePoint) *float64 { return p.Volume })
	}

	n := len(prices)
	if n == 0 {
		return entry
	}

	last := prices[n-1]
	entry.Price = &last
	entry.Volume = lastVolume
	if n > 1 {
		entry.ChangePercent = RoundValue(CalculateChangePercent(last, prices[n-2])*100, 2)
	}
	avgVol, _ := CalculateMeanStd(volumes)
	entry.VolumeRatio = RoundValue(CalculateAnomalyRatio(volumes[n-1], avgVol), 2)
	return entry
}

// -----------------------------------------------------------------------------

// VolumeZScore reports how unusual the last total of the stack is.
func VolumeZScore(stack []models.MVolumeStackPoint) float64 {
	if len(stack) == 0 {
		return 0
	}
	totals := make([]float64, len(stack))
	for i, p := range stack {
		totals[i] = p.Total
	}
	mean, std := CalculateMeanStd(totals)
	return CalculateZScore(totals[len(totals)-1], mean, std)
}

func volumeOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
