package state

import (
	"context"
	"testing"
	"time"

	"market-dashboard/src/analysis"
	"market-dashboard/src/helpers"
	"market-dashboard/src/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRegistry(b *fakeBackend) *ChartRegistry {
	return NewChartRegistry(b, analysis.NewChartFacade(logger.NewLogger(nil, "RegistryTest")))
}

func waitLoading(t *testing.T, l *ChartDataLoader, group string) {
	t.Helper()
	require.Eventually(t, func() bool {
		g, loading, _ := l.Status()
		return g == group && loading
	}, time.Second, 5*time.Millisecond)
}

func TestViewerKey(t *testing.T) {
	assert.Equal(t, "92", ViewerKey("", "92"))
	assert.Equal(t, "92", ViewerKey("  ", "92"))
	assert.Equal(t, "tab-1/92", ViewerKey("tab-1", "92"))
}

func TestRegistryGroupsLoadConcurrently(t *testing.T) {
	b := newFakeBackend()
	gate := make(chan struct{})
	b.gates["92"] = gate
	r := newRegistry(b)

	slow := make(chan error, 1)
	go func() {
		_, err := r.Load(context.Background(), "", "92")
		slow <- err
	}()
	waitLoading(t, r.Loader("", "92"), "92")

	view, err := r.Load(context.Background(), "", "95")
	require.NoError(t, err)
	assert.Equal(t, "95", view.Group)

	close(gate)
	require.NoError(t, <-slow)

	_, ok := r.Current("92")
	assert.True(t, ok)
	assert.Equal(t, []string{"92", "95"}, r.Groups())
	assert.Equal(t, int64(0), r.Facade.Metrics().StaleDiscarded)
}

func TestRegistrySessionsAreIndependent(t *testing.T) {
	b := newFakeBackend()
	gate := make(chan struct{})
	b.gates["92"] = gate
	r := newRegistry(b)

	results := make(chan error, 2)
	for _, session := range []string{"a", "b"} {
		session := session
		go func() {
			_, err := r.Load(context.Background(), session, "92")
			results <- err
		}()
		waitLoading(t, r.Loader(session, "92"), "92")
	}

	close(gate)
	require.NoError(t, <-results)
	require.NoError(t, <-results)

	status := r.Status()
	require.Len(t, status, 2)
	assert.Equal(t, "a/92", status[0].Key)
	assert.Equal(t, "b/92", status[1].Key)
	assert.False(t, status[0].Loading)
}

func TestRegistryRefreshLeavesViewerLoadAlone(t *testing.T) {
	b := newFakeBackend()
	r := newRegistry(b)

	_, err := r.Load(context.Background(), "", "92")
	require.NoError(t, err)

	gate := make(chan struct{})
	b.mu.Lock()
	b.gates["92"] = gate
	b.mu.Unlock()

	viewer := make(chan error, 1)
	go func() {
		_, err := r.Load(context.Background(), "", "92")
		viewer <- err
	}()
	waitLoading(t, r.Loader("", "92"), "92")

	_, err = r.Refresh(context.Background(), "92")
	assert.ErrorIs(t, err, helpers.ErrStaleResult)

	close(gate)
	require.NoError(t, <-viewer)

	view, err := r.Refresh(context.Background(), "92")
	require.NoError(t, err)
	assert.Equal(t, "92", view.Group)
}

func TestRegistryRefreshNeedsALoadedGroup(t *testing.T) {
	r := newRegistry(newFakeBackend())

	_, err := r.Refresh(context.Background(), "92")
	var se *helpers.StateError
	assert.ErrorAs(t, err, &se)

	_, err = r.Load(context.Background(), "tab", "95")
	require.NoError(t, err)
	view, err := r.Refresh(context.Background(), "95")
	require.NoError(t, err)
	assert.Equal(t, "95", view.Group)

	r.Reset()
	assert.Empty(t, r.Status())
	_, ok := r.Current("95")
	assert.False(t, ok)
}
