package interfaces

import (
	"context"

	"market-dashboard/src/models"
)

// -----------------------------------------------------------------------------
// IGroupsCache stores the last fetched group catalogue.
// -----------------------------------------------------------------------------

type IGroupsCache interface {

	// Get returns the cached groups and whether they were present.
	Get(ctx context.Context) (models.MGroupsData, bool, error)

	// Set stores groups, replacing any previous value.
	Set(ctx context.Context, groups models.MGroupsData) error

	// Invalidate drops the cached value.
	Invalidate(ctx context.Context) error
}
