package state

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"market-dashboard/src/helpers"
	"market-dashboard/src/interfaces"
	"market-dashboard/src/logger"
	"market-dashboard/src/models"
)

// GroupsStore serves the group catalogue, fetching it only on a cache miss.
type GroupsStore struct {
	Backend interfaces.IChartBackend
	Cache   interfaces.IGroupsCache
	Logger  *logger.Logger

	mu sync.Mutex
}

// -----------------------------------------------------------------------------

func NewGroupsStore(backend interfaces.IChartBackend, cache interfaces.IGroupsCache) *GroupsStore {
	return &GroupsStore{
		Backend: backend,
		Cache:   cache,
		Logger:  logger.NewLogger(nil, "Groups"),
	}
}

// -----------------------------------------------------------------------------

func (s *GroupsStore) Groups(ctx context.Context) (models.MGroupsData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	groups, ok, err := s.Cache.Get(ctx)
	if err != nil {
		s.Logger.Warning("Groups cache read failed, fetching: %v", err)
	} else if ok {
		return groups, nil
	}
	return s.fetch(ctx)
}

// -----------------------------------------------------------------------------

// Refresh drops the cached catalogue and fetches it again.
func (s *GroupsStore) Refresh(ctx context.Context) (models.MGroupsData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.Cache.Invalidate(ctx); err != nil {
		s.Logger.Warning("Groups cache invalidate failed: %v", err)
	}
	return s.fetch(ctx)
}

// -----------------------------------------------------------------------------

// Group looks up one group by name.
func (s *GroupsStore) Group(ctx context.Context, name string) (models.MGroupInfo, error) {
	groups, err := s.Groups(ctx)
	if err != nil {
		return models.MGroupInfo{}, err
	}
	info, ok := groups[name]
	if !ok {
		return models.MGroupInfo{}, fmt.Errorf("%w: %s", helpers.ErrUnknownGroup, name)
	}
	return info, nil
}

// -----------------------------------------------------------------------------

// Tickers lists every ticker of every group, sorted and unique.
func (s *GroupsStore) Tickers(ctx context.Context) ([]string, error) {
	groups, err := s.Groups(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	var out []string
	for _, info := range groups {
		for _, t := range info.Tickers {
			if _, ok := seen[t]; !ok {
				seen[t] = struct{}{}
				out = append(out, t)
			}
		}
	}
	sort.Strings(out)
	return out, nil
}

// -----------------------------------------------------------------------------

func (s *GroupsStore) fetch(ctx context.Context) (models.MGroupsData, error) {
	groups, err := s.Backend.AvailableGroups(ctx)
	if err != nil {
		s.Logger.Error("Failed to fetch groups: %v", err)
		return nil, err
	}
	if err := s.Cache.Set(ctx, groups); err != nil {
		s.Logger.Warning("Groups cache write failed: %v", err)
	}
	s.Logger.Info("Fetched %d groups", len(groups))
	return groups, nil
}
