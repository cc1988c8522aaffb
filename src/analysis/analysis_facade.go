package analysis

import (
	"sync"
	"time"

	"market-dashboard/src/adapter"
	"market-dashboard/src/analysis/core"
	"market-dashboard/src/logger"
	"market-dashboard/src/models"
	"market-dashboard/src/utils"
)

// ChartFacade turns raw group payloads into drawable chart views.
type ChartFacade struct {
	Logger *logger.Logger

	mu      sync.Mutex
	metrics models.MProcessingMetrics
}

// -----------------------------------------------------------------------------

func NewChartFacade(log *logger.Logger) *ChartFacade {
	return &ChartFacade{Logger: log}
}

// -----------------------------------------------------------------------------

// BuildView adapts the group payload, assigns base colours by ticker index and
// stacks the volumes. Line groups get one histogram per ticker, candlestick
// groups a single histogram coloured by candle direction.
func (f *ChartFacade) BuildView(group string, data models.MGroupChartData) (models.MChartView, error) {
	started := time.Now()

	series, err := adapter.AdaptGroupChartData(data)
	if err != nil {
		return models.MChartView{}, err
	}

	view := models.MChartView{
		Group:    group,
		Type:     models.ChartTypeLine,
		ColorMap: make(map[string]string, len(series)),
		Legend:   make([]models.MLegendEntry, 0, len(series)),
		LoadedAt: started.Unix(),
	}

	volumeData := make(map[string][]models.MVolumeSample, len(series))
	for i := range series {
		color := utils.BaseColor(i)
		series[i].Color = color
		view.ColorMap[series[i].Ticker] = color
		volumeData[series[i].Ticker] = series[i].VolumeSamples(color)
		view.Legend = append(view.Legend, core.LegendEntry(series[i]))
	}
	if len(series) > 0 && series[0].Type == models.ChartTypeCandlestick {
		view.Type = models.ChartTypeCandlestick
	}
	view.Series = series

	stack := core.SortStackParts(core.Aggregate(volumeData))
	view.VolumeStack = stack

	if view.Type == models.ChartTypeCandlestick {
		view.CandleVolume = core.CandlestickVolume(stack, series[0].Candles)
	} else {
		view.StackedVolume = core.ToPerTickerSeries(stack)
	}

	if n := len(stack); n > 0 {
		last := stack[n-1].Total
		view.LastTotal = &last
	}
	view.VolumeZScore = core.RoundValue(core.VolumeZScore(stack), 2)
	view.MaxTotal = core.MaxTotalVolume(stack)
	totals := make([]float64, len(stack))
	for i, p := range stack {
		totals[i] = p.Total
	}
	view.VolumeScale = core.CalculateVolumeScale(totals)

	elapsed := time.Since(started).Seconds()
	ChartBuildSeconds.Observe(elapsed)
	ChartsBuilt.WithLabelValues(view.Type).Inc()

	f.mu.Lock()
	f.metrics.BuildTimeSeconds = elapsed
	f.metrics.SeriesCount = len(series)
	f.metrics.StackPoints = len(stack)
	f.metrics.ChartsBuilt++
	f.mu.Unlock()

	f.Logger.Debug("Built %s view of %s: %d series, %d volume bars in %.4fs", view.Type, group, len(series), len(stack), elapsed)
	return view, nil
}

// -----------------------------------------------------------------------------

// RecordStale counts a discarded superseded result.
func (f *ChartFacade) RecordStale() {
	StaleDiscarded.Inc()
	f.mu.Lock()
	f.metrics.StaleDiscarded++
	f.mu.Unlock()
}

// -----------------------------------------------------------------------------

// Metrics returns a snapshot of the pipeline counters.
func (f *ChartFacade) Metrics() models.MProcessingMetrics {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.metrics
}
