package core

import (
	"math"
	"strconv"

	"market-dashboard/src/models"

	"github.com/shopspring/decimal"
)

// -----------------------------------------------------------------------------

// SumVolumes adds the volumes of a series, counting missing ones as zero.
func SumVolumes[T any](series []T, volumeOf func(T) *float64) float64 {
	total := 0.0
	for _, item := range series {
		if v := volumeOf(item); v != nil {
			total += *v
		}
	}
	return total
}

// -----------------------------------------------------------------------------

// MaxTotalVolume is the tallest bar of the stack, or 0.
func MaxTotalVolume(stack []models.MVolumeStackPoint) float64 {
	maxTotal := 0.0
	for _, point := range stack {
		maxTotal = math.Max(maxTotal, point.Total)
	}
	return maxTotal
}

// -----------------------------------------------------------------------------

// RoundValue rounds half away from zero to precision decimal places.
// Non-finite values are returned unchanged.
func RoundValue(value float64, precision int32) float64 {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return value
	}
	f, _ := decimal.NewFromFloat(value).Round(precision).Float64()
	return f
}

// -----------------------------------------------------------------------------

// SafeDivide returns 0 when denominator is 0.
func SafeDivide(numerator, denominator float64) float64 {
	if denominator == 0 {
		return 0
	}
	return numerator / denominator
}

// -----------------------------------------------------------------------------

// CalculateVolumeScale pads the observed range by 10% on both sides.
func CalculateVolumeScale(volumes []float64) models.MVolumeScale {
	if len(volumes) == 0 {
		return models.MVolumeScale{MinValue: 0, MaxValue: 100, ScaleFactor: 1}
	}

	maxVolume, minVolume := volumes[0], volumes[0]
	for _, v := range volumes[1:] {
		maxVolume = math.Max(maxVolume, v)
		minVolume = math.Min(minVolume, v)
	}

	scale := models.MVolumeScale{
		MaxValue:    maxVolume * 1.1,
		MinValue:    math.Max(0, minVolume*0.9),
		ScaleFactor: 1,
	}
	if scale.MaxValue > 0 {
		scale.ScaleFactor = 1_000_000 / scale.MaxValue
	}
	return scale
}

// -----------------------------------------------------------------------------

// FormatVolume abbreviates large volumes as K / M with one decimal.
func FormatVolume(volume float64) string {
	switch {
	case volume >= 1_000_000:
		return decimal.NewFromFloat(volume / 1_000_000).StringFixed(1) + "M"
	case volume >= 1_000:
		return decimal.NewFromFloat(volume / 1_000).StringFixed(1) + "K"
	default:
		return strconv.FormatFloat(volume, 'f', -1, 64)
	}
}
