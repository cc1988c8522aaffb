package fibonacci

import (
	"testing"

	"market-dashboard/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func commit(t *testing.T, s *Session, from, to float64) models.MFibonacciRetracement {
	t.Helper()
	s.StartDrawing()
	_, err := s.AddPoint(models.MFibonacciPoint{Time: 1, Price: from}, nil)
	require.NoError(t, err)
	r, err := s.AddPoint(models.MFibonacciPoint{Time: 2, Price: to}, nil)
	require.NoError(t, err)
	require.NotNil(t, r)
	return *r
}

func TestSessionsAreScopedPerKey(t *testing.T) {
	all := NewSessions(nil, NewSequenceIdentity(3))

	a := all.For("92")
	assert.Same(t, a, all.For("92"))

	commit(t, a, 100, 200)
	all.For("95").StartDrawing()

	assert.Len(t, all.For("92").Retracements(), 1)
	assert.Empty(t, all.For("95").Retracements())
	assert.Equal(t, DrawingNoPoints, all.For("95").State())
	assert.Equal(t, Idle, all.For("92").State())
	assert.Equal(t, 1, all.Drawing())
	assert.Equal(t, []string{"92", "95"}, all.Keys())
}

func TestSessionsShareIdentity(t *testing.T) {
	all := NewSessions(nil, NewSequenceIdentity(3))

	first := commit(t, all.For("tab-1/92"), 1, 2)
	second := commit(t, all.For("tab-2/92"), 1, 2)
	assert.NotEqual(t, first.ID, second.ID)

	byKey := all.Retracements()
	require.Len(t, byKey, 2)
	assert.Equal(t, first.ID, byKey["tab-1/92"][0].ID)

	all.ClearAll()
	assert.Empty(t, all.Retracements())
	assert.Len(t, all.Levels(), len(all.For("x").Levels()))
}
