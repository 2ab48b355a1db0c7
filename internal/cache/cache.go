// Package cache holds read-through caches for derived streak state.
package cache

import (
	"context"

	"github.com/julianstephens/streakline/internal/models"
)

// StreakCache stores streak rows by habit id. A cache is only ever a copy of the
// database: callers invalidate after every write that recomputes a streak.
type StreakCache interface {
	// Get returns the cached streak and whether it was present.
	Get(ctx context.Context, habitID int64) (*models.Streak, bool, error)
	Set(ctx context.Context, s models.Streak) error
	Invalidate(ctx context.Context, habitID int64) error
	Close() error
}

// Noop never stores anything.
type Noop struct{}

var _ StreakCache = Noop{}

func (Noop) Get(context.Context, int64) (*models.Streak, bool, error) {
	return nil, false, nil
}

func (Noop) Set(context.Context, models.Streak) error {
	return nil
}

func (Noop) Invalidate(context.Context, int64) error {
	return nil
}

func (Noop) Close() error {
	return nil
}

