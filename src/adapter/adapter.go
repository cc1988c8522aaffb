package adapter

import (
	"fmt"
	"math"
	"sort"

	"market-dashboard/src/helpers"
	"market-dashboard/src/models"
	"market-dashboard/src/utils"
)

// -----------------------------------------------------------------------------

// AdaptGroupChartData converts the backend payload of a group into series,
// ordered by ticker. Rows are ordered by time. Missing prices become NaN.
func AdaptGroupChartData(data models.MGroupChartData) ([]models.MSeriesInfo, error) {
	names := make([]string, 0, len(data))
	for name := range data {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]models.MSeriesInfo, 0, len(data))
	for _, name := range names {
		s, err := adaptTicker(data[name])
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// -----------------------------------------------------------------------------

func adaptTicker(td models.MApiTickerData) (models.MSeriesInfo, error) {
	s := models.MSeriesInfo{
		ID:     fmt.Sprintf("%s-%s-%s", td.Group, td.Ticker, td.Type),
		Ticker: td.Ticker,
		Group:  td.Group,
		Type:   td.Type,
	}

	switch td.Type {
	case models.ChartTypeLine:
		points := make([]models.MLinePoint, 0, len(td.Data))
		for _, row := range td.Data {
			ts, err := rowTime(td.Ticker, row.Date)
			if err != nil {
				return s, err
			}
			points = append(points, models.MLinePoint{Time: ts, Value: orNaN(row.Price), Volume: row.Volume})
		}
		s.Line = utils.SortByTime(points, func(p models.MLinePoint) int64 { return p.Time })

	case models.ChartTypeCandlestick:
		candles := make([]models.MCandlestickPoint, 0, len(td.Data))
		for _, row := range td.Data {
			ts, err := rowTime(td.Ticker, row.Date)
			if err != nil {
				return s, err
			}
			candles = append(candles, models.MCandlestickPoint{
				Time:   ts,
				Open:   orNaN(row.Open),
				High:   orNaN(row.High),
				Low:    orNaN(row.Low),
				Close:  orNaN(row.Close),
				Volume: row.Volume,
			})
		}
		s.Candles = utils.SortByTime(candles, func(c models.MCandlestickPoint) int64 { return c.Time })

	default:
		return s, helpers.NewValidationError(fmt.Sprintf("Unknown type: %s", td.Type), nil)
	}

	return s, nil
}

// -----------------------------------------------------------------------------

// AdaptIndicatorResponse converts an indicator payload; null values become NaN
// and must be dropped by whatever draws them.
func AdaptIndicatorResponse(resp models.MIndicatorResponse, color, indicator string, period int) (models.MIndicatorData, error) {
	points := make([]models.MLinePoint, 0, len(resp.Data))
	for _, row := range resp.Data {
		ts, err := rowTime(resp.Ticker, row.Date)
		if err != nil {
			return models.MIndicatorData{}, err
		}
		points = append(points, models.MLinePoint{Time: ts, Value: orNaN(row.Value)})
	}

	return models.MIndicatorData{
		Ticker:    resp.Ticker,
		Indicator: indicator,
		Period:    period,
		Data:      points,
		Color:     color,
	}, nil
}

// -----------------------------------------------------------------------------

func rowTime(ticker, date string) (int64, error) {
	ts, err := utils.IsoDateToUnixTime(date)
	if err != nil {
		return 0, helpers.NewValidationError(fmt.Sprintf("bad date for %s", ticker), err)
	}
	return ts, nil
}

func orNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}
