package fibonacci

import (
	"strings"
	"sync"
	"testing"

	"market-dashboard/src/analysis/core"
	"market-dashboard/src/helpers"
	"market-dashboard/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSession() *Session {
	return NewSession(nil, NewSequenceIdentity(42))
}

func TestSessionLifecycle(t *testing.T) {
	s := newTestSession()
	assert.Equal(t, Idle, s.State())

	// ignored while idle
	r, err := s.AddPoint(models.MFibonacciPoint{Time: 1, Price: 100}, nil)
	require.NoError(t, err)
	assert.Nil(t, r)
	assert.Equal(t, Idle, s.State())

	s.StartDrawing()
	assert.Equal(t, DrawingNoPoints, s.State())

	r, err = s.AddPoint(models.MFibonacciPoint{Time: 1, Price: 100}, nil)
	require.NoError(t, err)
	assert.Nil(t, r)
	assert.Equal(t, DrawingStartSet, s.State())
	require.NotNil(t, s.Snapshot().StartPoint)

	r, err = s.AddPoint(models.MFibonacciPoint{Time: 2, Price: 200}, nil)
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, Idle, s.State())
	assert.Equal(t, "fib-1", r.ID)
	assert.Len(t, r.Levels, 11)
	assert.Contains(t, core.RetracementPalette, r.Color)

	snap := s.Snapshot()
	assert.False(t, snap.IsDrawing)
	assert.Nil(t, snap.StartPoint)
	assert.Len(t, snap.Retracements, 1)
	assert.Equal(t, models.DrawingIdle, snap.State)
}

func TestSessionCancel(t *testing.T) {
	s := newTestSession()
	s.StartDrawing()
	_, _ = s.AddPoint(models.MFibonacciPoint{Time: 1, Price: 1}, nil)
	s.CancelDrawing()

	assert.Equal(t, Idle, s.State())
	assert.Empty(t, s.Retracements())
	assert.Nil(t, s.Snapshot().StartPoint)
}

func TestSessionRestartDropsStartPoint(t *testing.T) {
	s := newTestSession()
	s.StartDrawing()
	_, _ = s.AddPoint(models.MFibonacciPoint{Time: 1, Price: 1}, nil)
	s.StartDrawing()
	assert.Equal(t, DrawingNoPoints, s.State())
	assert.Nil(t, s.Snapshot().StartPoint)
}

func draw(t *testing.T, s *Session, p1, p2 float64) string {
	t.Helper()
	s.StartDrawing()
	_, err := s.AddPoint(models.MFibonacciPoint{Time: 1, Price: p1}, nil)
	require.NoError(t, err)
	r, err := s.AddPoint(models.MFibonacciPoint{Time: 2, Price: p2}, nil)
	require.NoError(t, err)
	require.NotNil(t, r)
	return r.ID
}

func TestSessionRemoveAndClear(t *testing.T) {
	s := newTestSession()
	a := draw(t, s, 1, 2)
	b := draw(t, s, 3, 4)
	c := draw(t, s, 5, 6)

	require.NoError(t, s.RemoveRetracement(b))
	ids := []string{}
	for _, r := range s.Retracements() {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{a, c}, ids)

	err := s.RemoveRetracement("missing")
	assert.ErrorIs(t, err, helpers.ErrUnknownRetracement)

	s.StartDrawing()
	s.ClearAll()
	assert.Equal(t, Idle, s.State())
	assert.Empty(t, s.Retracements())
}

func TestSessionNormalizesAnchors(t *testing.T) {
	s := newTestSession()
	ref := []models.MChartTime{{Unix: 1_600_000_000}}

	s.StartDrawing()
	_, _ = s.AddPoint(models.MFibonacciPoint{Time: 1_700_000_000_000, Price: 1}, ref)
	r, err := s.AddPoint(models.MFibonacciPoint{Time: 1_700_086_400, Price: 2}, ref)
	require.NoError(t, err)

	assert.Equal(t, int64(1_700_000_000), r.StartPoint.Time)
	assert.Equal(t, int64(1_700_086_400), r.EndPoint.Time)

	geo := s.Geometry(ref)
	require.Len(t, geo, 1)
	assert.Equal(t, int64(1_700_000_000), geo[0].TrendLine[0].Time)
}

func TestSequenceIdentityIsDeterministic(t *testing.T) {
	a, b := NewSequenceIdentity(7), NewSequenceIdentity(7)
	for i := 0; i < 10; i++ {
		assert.Equal(t, a.NextID(), b.NextID())
		assert.Equal(t, a.NextColor(), b.NextColor())
	}
}

func TestClockIdentityFormat(t *testing.T) {
	id := NewClockIdentity().NextID()
	parts := strings.Split(id, "-")
	require.Len(t, parts, 3)
	assert.Equal(t, "fib", parts[0])
	assert.Len(t, parts[2], 9)
}

func TestSessionCustomLevels(t *testing.T) {
	s := NewSession([]models.MFibonacciLevelConfig{{Ratio: 0.5, Label: "50%", Visible: true}}, NewSequenceIdentity(1))
	draw(t, s, 100, 200)
	r := s.Retracements()[0]
	require.Len(t, r.Levels, 1)
	assert.Equal(t, 150.0, r.Levels[0].Price)
}

func TestSessionConcurrentUse(t *testing.T) {
	s := newTestSession()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				s.StartDrawing()
				_, _ = s.AddPoint(models.MFibonacciPoint{Time: 1, Price: 1}, nil)
				_ = s.Snapshot()
			}
		}()
	}
	wg.Wait()
	assert.NotEqual(t, State(-1), s.State())
}
