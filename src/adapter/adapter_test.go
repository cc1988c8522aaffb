package adapter

import (
	"errors"
	"math"
	"testing"

	"market-dashboard/src/helpers"
	"market-dashboard/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f(v float64) *float64 { return &v }

func TestAdaptLineGroup(t *testing.T) {
	data := models.MGroupChartData{
		"Vostok92": {Ticker: "Vostok92", Group: "92", Type: "line", Data: []models.MApiDataPoint{
			{Date: "2022-01-11", Price: f(51320.00), Volume: f(3850)},
			{Date: "2022-01-10", Price: f(51557.52), Volume: f(3900)},
		}},
		"Lukoil92": {Ticker: "Lukoil92", Group: "92", Type: "line", Data: []models.MApiDataPoint{
			{Date: "2022-01-10", Price: f(50400.00)},
		}},
	}

	series, err := AdaptGroupChartData(data)
	require.NoError(t, err)
	require.Len(t, series, 2)

	assert.Equal(t, "92-Lukoil92-line", series[0].ID)
	assert.Equal(t, "92-Vostok92-line", series[1].ID)

	v := series[1]
	require.Len(t, v.Line, 2)
	assert.Equal(t, int64(1641772800), v.Line[0].Time)
	assert.Equal(t, 51557.52, v.Line[0].Value)
	assert.Equal(t, 3900.0, *v.Line[0].Volume)
	assert.Empty(t, v.Candles)

	assert.Nil(t, series[0].Line[0].Volume)
}

func TestAdaptCandlestickGroup(t *testing.T) {
	data := models.MGroupChartData{
		"Gazprom": {Ticker: "Gazprom", Group: "Gazprom", Type: "candlestick", Data: []models.MApiDataPoint{
			{Date: "2022-01-10", Open: f(60000), High: f(60500), Low: f(59500), Close: f(60300), Volume: f(2100)},
		}},
	}

	series, err := AdaptGroupChartData(data)
	require.NoError(t, err)
	require.Len(t, series, 1)
	assert.Equal(t, "Gazprom-Gazprom-candlestick", series[0].ID)
	assert.Equal(t, models.MCandlestickPoint{
		Time: 1641772800, Open: 60000, High: 60500, Low: 59500, Close: 60300, Volume: f(2100),
	}, series[0].Candles[0])
}

func TestAdaptUnknownType(t *testing.T) {
	_, err := AdaptGroupChartData(models.MGroupChartData{
		"X": {Ticker: "X", Group: "g", Type: "area"},
	})
	require.Error(t, err)

	var ve *helpers.ValidationError
	assert.True(t, errors.As(err, &ve))
	assert.Contains(t, err.Error(), "Unknown type: area")
}

func TestAdaptBadDate(t *testing.T) {
	_, err := AdaptGroupChartData(models.MGroupChartData{
		"X": {Ticker: "X", Group: "g", Type: "line", Data: []models.MApiDataPoint{{Date: "10/01/2022", Price: f(1)}}},
	})
	assert.Error(t, err)
}

func TestAdaptIndicatorNullBecomesNaN(t *testing.T) {
	resp := models.MIndicatorResponse{
		Ticker:    "Vostok92",
		Indicator: "ema_50",
		Data: []models.MIndicatorValue{
			{Date: "2022-01-10", Value: f(51600)},
			{Date: "2022-01-11", Value: nil},
		},
	}

	out, err := AdaptIndicatorResponse(resp, "#1E88E5", "ema", 50)
	require.NoError(t, err)
	assert.Equal(t, "ema", out.Indicator)
	assert.Equal(t, 50, out.Period)
	assert.Equal(t, "#1E88E5", out.Color)
	require.Len(t, out.Data, 2)
	assert.Equal(t, 51600.0, out.Data[0].Value)
	assert.True(t, math.IsNaN(out.Data[1].Value))
}
