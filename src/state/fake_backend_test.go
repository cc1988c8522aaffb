package state

import (
	"context"
	"errors"
	"sync"

	"market-dashboard/src/models"
)

func f64(v float64) *float64 { return &v }

// fakeBackend serves canned payloads. A non-nil gate blocks ChartData for the
// named group until the channel is closed or the context ends.
type fakeBackend struct {
	mu            sync.Mutex
	groups        models.MGroupsData
	charts        map[string]models.MGroupChartData
	settings      models.MIndicatorSettings
	failIndicator map[string]bool
	gates         map[string]chan struct{}

	groupCalls     int
	settingsCalls  int
	indicatorCalls int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		groups: models.MGroupsData{
			"92": {Type: models.ChartTypeLine, Tickers: []string{"A", "B"}},
		},
		charts: map[string]models.MGroupChartData{
			"92": {
				"A": {Ticker: "A", Group: "92", Type: models.ChartTypeLine, Data: []models.MApiDataPoint{
					{Date: "2024-01-01", Price: f64(10), Volume: f64(100)},
				}},
				"B": {Ticker: "B", Group: "92", Type: models.ChartTypeLine, Data: []models.MApiDataPoint{
					{Date: "2024-01-01", Price: f64(20), Volume: f64(300)},
				}},
			},
			"95": {
				"C": {Ticker: "C", Group: "95", Type: models.ChartTypeLine, Data: []models.MApiDataPoint{
					{Date: "2024-01-01", Price: f64(1), Volume: f64(5)},
				}},
			},
		},
		settings:      models.MIndicatorSettings{EmaPeriods: []int{20, 50}, RsiPeriod: 14},
		failIndicator: map[string]bool{},
		gates:         map[string]chan struct{}{},
	}
}

func (f *fakeBackend) AvailableGroups(ctx context.Context) (models.MGroupsData, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.groupCalls++
	return f.groups, nil
}

func (f *fakeBackend) ChartData(ctx context.Context, group string) (models.MGroupChartData, error) {
	f.mu.Lock()
	gate := f.gates[group]
	data, ok := f.charts[group]
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if !ok {
		return nil, errors.New("group not found")
	}
	return data, nil
}

func (f *fakeBackend) IndicatorSettings(ctx context.Context) (models.MIndicatorSettings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.settingsCalls++
	return f.settings, nil
}

func (f *fakeBackend) Indicator(ctx context.Context, ticker, indicator string, period int) (models.MIndicatorResponse, error) {
	f.mu.Lock()
	f.indicatorCalls++
	fail := f.failIndicator[IndicatorKey(ticker, indicator, period)]
	f.mu.Unlock()
	if fail {
		return models.MIndicatorResponse{}, errors.New("boom")
	}
	return models.MIndicatorResponse{
		Ticker:    ticker,
		Indicator: indicator,
		Data: []models.MIndicatorValue{
			{Date: "2024-01-01", Value: f64(float64(period))},
			{Date: "2024-01-02", Value: nil},
		},
	}, nil
}
