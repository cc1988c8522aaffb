package state

import (
	"context"
	"errors"
	"sync"

	"market-dashboard/src/analysis"
	"market-dashboard/src/helpers"
	"market-dashboard/src/interfaces"
	"market-dashboard/src/logger"
	"market-dashboard/src/models"
)

// ChartDataLoader holds the chart view of the selected group. Every load
// takes a new sequence token and cancels the fetch it supersedes; a result
// whose token is no longer current is dropped with helpers.ErrStaleResult.
type ChartDataLoader struct {
	Backend interfaces.IChartBackend
	Facade  *analysis.ChartFacade
	Logger  *logger.Logger
	Errors  *helpers.ErrorHandler

	mu      sync.RWMutex
	seq     uint64
	cancel  context.CancelFunc
	group   string
	view    *models.MChartView
	loading bool
	lastErr error
}

// -----------------------------------------------------------------------------

func NewChartDataLoader(backend interfaces.IChartBackend, facade *analysis.ChartFacade) *ChartDataLoader {
	return &ChartDataLoader{
		Backend: backend,
		Facade:  facade,
		Logger:  logger.NewLogger(nil, "ChartData"),
		Errors:  helpers.NewErrorHandler(),
	}
}

// -----------------------------------------------------------------------------

// Load fetches and builds the view of group.
func (l *ChartDataLoader) Load(ctx context.Context, group string) (models.MChartView, error) {
	l.mu.Lock()
	l.seq++
	token := l.seq
	if l.cancel != nil {
		l.cancel()
	}
	fetchCtx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	if group != l.group {
		l.view = nil
	}
	l.group = group
	l.loading = true
	l.lastErr = nil
	l.mu.Unlock()
	defer cancel()

	l.Logger.Debug("Loading group %s, seq %d", group, token)
	data, err := l.Backend.ChartData(fetchCtx, group)

	l.mu.Lock()
	defer l.mu.Unlock()

	if token != l.seq {
		l.Facade.RecordStale()
		l.Logger.Debug("Dropping stale result for %s, seq %d", group, token)
		return models.MChartView{}, helpers.ErrStaleResult
	}
	l.loading = false

	if err != nil {
		if errors.Is(err, context.Canceled) {
			l.Logger.Debug("Load of %s cancelled", group)
			return models.MChartView{}, err
		}
		err = l.Errors.Classify("fetch chart data", err)
		l.lastErr = err
		l.Errors.Handle(err, "group "+group)
		return models.MChartView{}, err
	}

	view, err := l.Facade.BuildView(group, data)
	if err != nil {
		l.lastErr = err
		l.Errors.Handle(err, "building view of "+group)
		return models.MChartView{}, err
	}
	view.SequenceNumber = token
	l.view = &view
	l.Logger.Info("Group %s ready: %d series, %d volume bars", group, len(view.Series), len(view.VolumeStack))
	return view, nil
}

// -----------------------------------------------------------------------------

// Rebuild refetches the loaded group for a background refresh. It takes no
// sequence token, so it never cancels a viewer's load; when such a load is
// running, or starts before the fetch returns, the result is stale.
func (l *ChartDataLoader) Rebuild(ctx context.Context) (models.MChartView, error) {
	l.mu.RLock()
	group, token, busy := l.group, l.seq, l.loading
	l.mu.RUnlock()

	if group == "" {
		return models.MChartView{}, helpers.NewStateError("no group loaded", nil)
	}
	if busy {
		return models.MChartView{}, helpers.ErrStaleResult
	}

	data, err := l.Backend.ChartData(ctx, group)

	l.mu.Lock()
	defer l.mu.Unlock()

	if token != l.seq || l.loading {
		l.Facade.RecordStale()
		l.Logger.Debug("Dropping background rebuild of %s, seq %d", group, token)
		return models.MChartView{}, helpers.ErrStaleResult
	}
	if err != nil {
		err = l.Errors.Classify("fetch chart data", err)
		l.lastErr = err
		l.Errors.Handle(err, "rebuilding "+group)
		return models.MChartView{}, err
	}

	view, err := l.Facade.BuildView(group, data)
	if err != nil {
		l.lastErr = err
		l.Errors.Handle(err, "building view of "+group)
		return models.MChartView{}, err
	}
	view.SequenceNumber = token
	l.view = &view
	l.lastErr = nil
	return view, nil
}

// -----------------------------------------------------------------------------

// Current returns the last built view of group, if any.
func (l *ChartDataLoader) Current(group string) (models.MChartView, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.view == nil || l.view.Group != group {
		return models.MChartView{}, false
	}
	return *l.view, true
}

// -----------------------------------------------------------------------------

// Status reports the selected group, whether a fetch is running and the last error.
func (l *ChartDataLoader) Status() (string, bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.group, l.loading, l.lastErr
}

// -----------------------------------------------------------------------------

// Reset cancels any fetch in flight and forgets the view.
func (l *ChartDataLoader) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seq++
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
	l.group = ""
	l.view = nil
	l.loading = false
	l.lastErr = nil
	l.Errors.ResetErrorCount()
}
