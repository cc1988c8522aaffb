package state

import (
	"context"
	"testing"

	"market-dashboard/src/helpers"
	"market-dashboard/src/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupsStoreCaches(t *testing.T) {
	b := newFakeBackend()
	s := NewGroupsStore(b, storage.NewMemoryGroupsCache(0))
	ctx := context.Background()

	groups, err := s.Groups(ctx)
	require.NoError(t, err)
	assert.Contains(t, groups, "92")

	_, err = s.Groups(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, b.groupCalls)

	_, err = s.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, b.groupCalls)
}

func TestGroupsStoreLookup(t *testing.T) {
	s := NewGroupsStore(newFakeBackend(), storage.NewMemoryGroupsCache(0))

	info, err := s.Group(context.Background(), "92")
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, info.Tickers)

	_, err = s.Group(context.Background(), "nope")
	assert.ErrorIs(t, err, helpers.ErrUnknownGroup)

	tickers, err := s.Tickers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, tickers)
}
