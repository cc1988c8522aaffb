package interfaces

import (
	"context"

	"market-dashboard/src/models"
)

// -----------------------------------------------------------------------------
// IChartBackend is the read side of the chart backend used by the state holders.
// -----------------------------------------------------------------------------

type IChartBackend interface {

	// AvailableGroups lists every group with its chart type and tickers.
	AvailableGroups(ctx context.Context) (models.MGroupsData, error)

	// -----------------------------------------------------------------------------

	// ChartData fetches the raw per-ticker payloads of one group.
	ChartData(ctx context.Context, group string) (models.MGroupChartData, error)

	// -----------------------------------------------------------------------------

	// IndicatorSettings returns the configured EMA periods and RSI period.
	IndicatorSettings(ctx context.Context) (models.MIndicatorSettings, error)

	// -----------------------------------------------------------------------------

	// Indicator fetches one indicator series ("ema" or "rsi") of a ticker.
	Indicator(ctx context.Context, ticker, indicator string, period int) (models.MIndicatorResponse, error)
}
