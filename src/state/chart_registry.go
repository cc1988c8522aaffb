package state

import (
	"context"
	"sort"
	"strings"
	"sync"

	"market-dashboard/src/analysis"
	"market-dashboard/src/helpers"
	"market-dashboard/src/interfaces"
	"market-dashboard/src/logger"
	"market-dashboard/src/models"
)

// ViewerKey names the chart state of one viewer on one group. An empty
// session is the shared viewer of the group.
func ViewerKey(session, group string) string {
	session = strings.TrimSpace(session)
	if session == "" {
		return group
	}
	return session + "/" + group
}

// ChartRegistry keeps one ChartDataLoader per viewer key. A load only
// supersedes earlier loads of the same viewer on the same group.
type ChartRegistry struct {
	Backend interfaces.IChartBackend
	Facade  *analysis.ChartFacade
	Logger  *logger.Logger

	mu      sync.RWMutex
	loaders map[string]*ChartDataLoader
}

// -----------------------------------------------------------------------------

func NewChartRegistry(backend interfaces.IChartBackend, facade *analysis.ChartFacade) *ChartRegistry {
	return &ChartRegistry{
		Backend: backend,
		Facade:  facade,
		Logger:  logger.NewLogger(nil, "ChartRegistry"),
		loaders: make(map[string]*ChartDataLoader),
	}
}

// -----------------------------------------------------------------------------

// Loader returns the loader of a viewer, creating it on first use.
func (r *ChartRegistry) Loader(session, group string) *ChartDataLoader {
	key := ViewerKey(session, group)

	r.mu.RLock()
	l, ok := r.loaders[key]
	r.mu.RUnlock()
	if ok {
		return l
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if l, ok := r.loaders[key]; ok {
		return l
	}
	l = NewChartDataLoader(r.Backend, r.Facade)
	r.loaders[key] = l
	r.Logger.Debug("New chart loader %s", key)
	return l
}

// -----------------------------------------------------------------------------

// Load fetches and builds group for one viewer.
func (r *ChartRegistry) Load(ctx context.Context, session, group string) (models.MChartView, error) {
	return r.Loader(session, group).Load(ctx, group)
}

// -----------------------------------------------------------------------------

// Refresh rebuilds group in the background through its shared loader, or
// through any viewer's loader when nobody loaded it without a session.
func (r *ChartRegistry) Refresh(ctx context.Context, group string) (models.MChartView, error) {
	l := r.loaderOf(group)
	if l == nil {
		return models.MChartView{}, helpers.NewStateError("group "+group+" is not loaded", nil)
	}
	return l.Rebuild(ctx)
}

func (r *ChartRegistry) loaderOf(group string) *ChartDataLoader {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if l, ok := r.loaders[ViewerKey("", group)]; ok {
		return l
	}
	keys := make([]string, 0, len(r.loaders))
	for key := range r.loaders {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if g, _, _ := r.loaders[key].Status(); g == group {
			return r.loaders[key]
		}
	}
	return nil
}

// -----------------------------------------------------------------------------

// Current returns the most recently built view of group across viewers.
func (r *ChartRegistry) Current(group string) (models.MChartView, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var (
		best  models.MChartView
		found bool
	)
	for _, l := range r.loaders {
		view, ok := l.Current(group)
		if ok && (!found || view.LoadedAt > best.LoadedAt) {
			best, found = view, true
		}
	}
	return best, found
}

// -----------------------------------------------------------------------------

// Groups lists the groups some viewer has selected, in name order.
func (r *ChartRegistry) Groups() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{})
	var out []string
	for _, l := range r.loaders {
		group, _, _ := l.Status()
		if group == "" {
			continue
		}
		if _, ok := seen[group]; !ok {
			seen[group] = struct{}{}
			out = append(out, group)
		}
	}
	sort.Strings(out)
	return out
}

// -----------------------------------------------------------------------------

// Status reports every loader in key order.
func (r *ChartRegistry) Status() []models.MLoaderStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.MLoaderStatus, 0, len(r.loaders))
	for key, l := range r.loaders {
		group, loading, lastErr := l.Status()
		st := models.MLoaderStatus{Key: key, Group: group, Loading: loading}
		if lastErr != nil {
			st.LastError = helpers.UserMessage(lastErr)
		}
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// -----------------------------------------------------------------------------

// Reset cancels every fetch in flight and drops all loaders.
func (r *ChartRegistry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.loaders {
		l.Reset()
	}
	r.loaders = make(map[string]*ChartDataLoader)
}
