package state

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"market-dashboard/src/adapter"
	"market-dashboard/src/interfaces"
	"market-dashboard/src/logger"
	"market-dashboard/src/models"
)

const (
	defaultIndicatorConcurrency = 4
	uncoloredEma                = "#000"
	uncoloredRsi                = "#888"
)

// IndicatorKey names one indicator series of a ticker, e.g. "GAZP_ema_20".
func IndicatorKey(ticker, indicator string, period int) string {
	return fmt.Sprintf("%s_%s_%d", ticker, indicator, period)
}

// IndicatorsLoader fetches and keeps EMA and RSI series per ticker.
type IndicatorsLoader struct {
	Backend     interfaces.IChartBackend
	Logger      *logger.Logger
	Concurrency int

	mu         sync.RWMutex
	settings   *models.MIndicatorSettings
	indicators map[string]models.MIndicatorData
	loaded     map[string]struct{}
}

// -----------------------------------------------------------------------------

func NewIndicatorsLoader(backend interfaces.IChartBackend) *IndicatorsLoader {
	return &IndicatorsLoader{
		Backend:     backend,
		Logger:      logger.NewLogger(nil, "Indicators"),
		Concurrency: defaultIndicatorConcurrency,
		indicators:  make(map[string]models.MIndicatorData),
		loaded:      make(map[string]struct{}),
	}
}

// -----------------------------------------------------------------------------

// Settings returns the indicator settings, fetching them on first use.
func (l *IndicatorsLoader) Settings(ctx context.Context) (models.MIndicatorSettings, error) {
	l.mu.RLock()
	if l.settings != nil {
		s := *l.settings
		l.mu.RUnlock()
		return s, nil
	}
	l.mu.RUnlock()

	s, err := l.Backend.IndicatorSettings(ctx)
	if err != nil {
		l.Logger.Error("Failed to fetch indicator settings: %v", err)
		return models.MIndicatorSettings{}, err
	}

	l.mu.Lock()
	l.settings = &s
	l.mu.Unlock()
	l.Logger.Info("Indicator settings: EMA %v, RSI %d", s.EmaPeriods, s.RsiPeriod)
	return s, nil
}

// -----------------------------------------------------------------------------

type indicatorJob struct {
	indicator string
	period    int
	color     string
}

// LoadTicker fetches every configured EMA and the RSI of ticker. A failing
// indicator is logged and skipped; the ticker only counts as loaded once every
// series arrived, so the next call fetches just the missing ones.
func (l *IndicatorsLoader) LoadTicker(ctx context.Context, ticker string, colors *ColorMap) error {
	if l.IsLoaded(ticker) {
		return nil
	}
	settings, err := l.Settings(ctx)
	if err != nil {
		return err
	}

	var jobs []indicatorJob
	for _, period := range settings.EmaPeriods {
		color := uncoloredEma
		if colors != nil && colors.Has(ticker) {
			color = colors.EmaColor(ticker, period, settings.EmaPeriods)
		}
		jobs = append(jobs, indicatorJob{indicator: models.IndicatorEMA, period: period, color: color})
	}
	rsiColor := uncoloredRsi
	if colors != nil && colors.Has(ticker) {
		rsiColor = colors.RsiColor(ticker)
	}
	jobs = append(jobs, indicatorJob{indicator: models.IndicatorRSI, period: settings.RsiPeriod, color: rsiColor})
	jobs = l.missing(ticker, jobs)

	concurrency := l.Concurrency
	if concurrency <= 0 {
		concurrency = defaultIndicatorConcurrency
	}
	sem := make(chan struct{}, concurrency)

	fetched := make(map[string]models.MIndicatorData)
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, job := range jobs {
		wg.Add(1)
		go func(j indicatorJob) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			resp, err := l.Backend.Indicator(ctx, ticker, j.indicator, j.period)
			if err != nil {
				l.Logger.Warning("Failed to load %s %d for %s: %v", j.indicator, j.period, ticker, err)
				return
			}
			data, err := adapter.AdaptIndicatorResponse(resp, j.color, j.indicator, j.period)
			if err != nil {
				l.Logger.Warning("Failed to adapt %s %d for %s: %v", j.indicator, j.period, ticker, err)
				return
			}
			data.Ticker = ticker
			mu.Lock()
			fetched[IndicatorKey(ticker, j.indicator, j.period)] = data
			mu.Unlock()
		}(job)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return err
	}

	l.mu.Lock()
	for k, v := range fetched {
		l.indicators[k] = v
	}
	complete := len(fetched) == len(jobs)
	if complete {
		l.loaded[ticker] = struct{}{}
	}
	l.mu.Unlock()

	if complete {
		l.Logger.Debug("Loaded %d indicators for %s", len(fetched), ticker)
	} else {
		l.Logger.Warning("Loaded %d/%d indicators for %s, the rest is retried on next load",
			len(fetched), len(jobs), ticker)
	}
	return nil
}

// missing drops the jobs whose series is already stored.
func (l *IndicatorsLoader) missing(ticker string, jobs []indicatorJob) []indicatorJob {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := jobs[:0]
	for _, j := range jobs {
		if _, ok := l.indicators[IndicatorKey(ticker, j.indicator, j.period)]; !ok {
			out = append(out, j)
		}
	}
	return out
}

// -----------------------------------------------------------------------------

// LoadIndicators loads every ticker that is not loaded yet, in order.
func (l *IndicatorsLoader) LoadIndicators(ctx context.Context, tickers []string, colors *ColorMap) error {
	if _, err := l.Settings(ctx); err != nil {
		return err
	}
	for _, ticker := range tickers {
		if err := l.LoadTicker(ctx, ticker, colors); err != nil {
			return err
		}
	}
	return nil
}

// -----------------------------------------------------------------------------

func (l *IndicatorsLoader) IsLoaded(ticker string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.loaded[ticker]
	return ok
}

// LoadedTickers returns the loaded tickers in name order.
func (l *IndicatorsLoader) LoadedTickers() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]string, 0, len(l.loaded))
	for t := range l.loaded {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// -----------------------------------------------------------------------------

// Indicators returns the loaded series of ticker ordered by key.
func (l *IndicatorsLoader) Indicators(ticker string) []models.MIndicatorData {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []models.MIndicatorData
	for _, data := range l.indicators {
		if data.Ticker == ticker {
			out = append(out, data)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Indicator != out[j].Indicator {
			return out[i].Indicator < out[j].Indicator
		}
		return out[i].Period < out[j].Period
	})
	return out
}

// Indicator returns one loaded series by key.
func (l *IndicatorsLoader) Indicator(key string) (models.MIndicatorData, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	data, ok := l.indicators[key]
	return data, ok
}

// -----------------------------------------------------------------------------

// Refresh forgets every loaded series and fetches the settings again.
func (l *IndicatorsLoader) Refresh(ctx context.Context) (models.MIndicatorSettings, error) {
	l.mu.Lock()
	l.settings = nil
	l.indicators = make(map[string]models.MIndicatorData)
	l.loaded = make(map[string]struct{})
	l.mu.Unlock()
	return l.Settings(ctx)
}
