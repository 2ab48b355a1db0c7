// Package tracker is the habit, completion and streak service used by the CLI, the
// HTTP API and the dashboard.
package tracker

import (
	"context"
	"time"

	"github.com/julianstephens/streakline/internal/cache"
	"github.com/julianstephens/streakline/internal/constants"
	apperrors "github.com/julianstephens/streakline/internal/errors"
	"github.com/julianstephens/streakline/internal/logger"
	"github.com/julianstephens/streakline/internal/metrics"
	"github.com/julianstephens/streakline/internal/models"
	"github.com/julianstephens/streakline/internal/storage"
	"github.com/julianstephens/streakline/internal/streak"
	"github.com/julianstephens/streakline/internal/utils"
)

// Service runs every operation in a storage transaction. Writes that change a habit's
// completions also recompute its streak in that same transaction, one writer per habit
// at a time.
type Service struct {
	store   storage.Provider
	norm    *utils.Normalizer
	engine  *streak.Engine
	cache   cache.StreakCache
	metrics *metrics.Metrics
	locks   *keyedMutex
}

type Option func(*Service)

// WithCache serves GetStreak from c and invalidates it on every recompute.
func WithCache(c cache.StreakCache) Option {
	return func(s *Service) {
		if c != nil {
			s.cache = c
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func New(store storage.Provider, opts ...Option) *Service {
	norm := store.Normalizer()
	s := &Service{
		store:  store,
		norm:   norm,
		engine: streak.NewEngine(norm),
		cache:  cache.Noop{},
		locks:  newKeyedMutex(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Normalizer returns the clock and timezone the service stores instants with.
func (s *Service) Normalizer() *utils.Normalizer {
	return s.norm
}

func (s *Service) CreateHabit(ctx context.Context, h models.NewHabit) (models.Habit, error) {
	if h.TargetCount == 0 {
		h.TargetCount = constants.DefaultCompletionCt
	}
	if err := h.Validate(); err != nil {
		return models.Habit{}, err
	}

	var created models.Habit
	err := s.store.WithTx(ctx, func(tx storage.Tx) error {
		var err error
		created, err = tx.InsertHabit(ctx, h, s.norm.Now())
		return err
	})
	if err != nil {
		return models.Habit{}, err
	}
	logger.Debug("habit created", "id", created.ID, "name", created.Name)
	return created, nil
}

// ListHabits returns active habits.
func (s *Service) ListHabits(ctx context.Context) ([]models.Habit, error) {
	return s.listHabits(ctx, false)
}

// ListAllHabits returns active and archived habits.
func (s *Service) ListAllHabits(ctx context.Context) ([]models.Habit, error) {
	return s.listHabits(ctx, true)
}

func (s *Service) listHabits(ctx context.Context, includeArchived bool) ([]models.Habit, error) {
	var habits []models.Habit
	err := s.store.WithTx(ctx, func(tx storage.Tx) error {
		var err error
		habits, err = tx.ListHabits(ctx, includeArchived)
		return err
	})
	return habits, err
}

func (s *Service) GetHabit(ctx context.Context, id int64) (models.Habit, error) {
	var h models.Habit
	err := s.store.WithTx(ctx, func(tx storage.Tx) error {
		var err error
		h, err = tx.GetHabit(ctx, id)
		return err
	})
	return h, err
}

// ArchiveHabit stamps archived_at with the current time. Archiving again overwrites
// the timestamp.
func (s *Service) ArchiveHabit(ctx context.Context, id int64) error {
	err := s.store.WithTx(ctx, func(tx storage.Tx) error {
		return tx.ArchiveHabit(ctx, id, s.norm.Now())
	})
	if err == nil {
		logger.Debug("habit archived", "id", id)
	}
	return err
}

// RecordCompletion appends a completion for habitID and recomputes its streak. A nil at
// records the completion at the current time.
func (s *Service) RecordCompletion(ctx context.Context, habitID int64, count int, at *time.Time) (models.Completion, error) {
	if count < 1 {
		return models.Completion{}, apperrors.Validationf("count must be at least 1, got %d", count)
	}

	unlock := s.locks.Lock(habitID)
	defer unlock()

	var c models.Completion
	err := s.store.WithTx(ctx, func(tx storage.Tx) error {
		if err := tx.LockHabit(ctx, habitID); err != nil {
			return err
		}

		completedAt := s.norm.Now()
		if at != nil {
			completedAt = *at
		}

		var err error
		c, err = tx.InsertCompletion(ctx, habitID, count, completedAt)
		if err != nil {
			return err
		}
		_, _, err = s.engine.Recompute(ctx, tx, habitID)
		return err
	})
	if err != nil {
		return models.Completion{}, err
	}

	s.metrics.CompletionRecorded()
	s.afterRecompute(ctx, habitID)
	logger.Debug("completion recorded", "id", c.ID, "habit_id", habitID, "count", count)
	return c, nil
}

// DeleteCompletion removes a completion and recomputes the owning habit's streak before
// returning. Unknown ids return ErrNotFound and leave every streak untouched.
func (s *Service) DeleteCompletion(ctx context.Context, id int64) error {
	var habitID int64
	err := s.store.WithTx(ctx, func(tx storage.Tx) error {
		c, err := tx.GetCompletion(ctx, id)
		if err != nil {
			return err
		}
		habitID = c.HabitID
		return nil
	})
	if err != nil {
		return err
	}

	unlock := s.locks.Lock(habitID)
	defer unlock()

	err = s.store.WithTx(ctx, func(tx storage.Tx) error {
		if err := tx.LockHabit(ctx, habitID); err != nil {
			return err
		}
		// Re-read under the lock: a concurrent caller may have deleted it already.
		if _, err := tx.GetCompletion(ctx, id); err != nil {
			return err
		}
		if err := tx.DeleteCompletion(ctx, id); err != nil {
			return err
		}
		_, _, err := s.engine.Recompute(ctx, tx, habitID)
		return err
	})
	if err != nil {
		return err
	}

	s.metrics.CompletionDeleted()
	s.afterRecompute(ctx, habitID)
	logger.Debug("completion deleted", "id", id, "habit_id", habitID)
	return nil
}

func (s *Service) afterRecompute(ctx context.Context, habitID int64) {
	s.metrics.StreakRecomputed()
	if err := s.cache.Invalidate(ctx, habitID); err != nil {
		logger.Warn("failed to invalidate streak cache", "habit_id", habitID, "error", err)
	}
}

// ListCompletions returns a habit's completions, most recent first.
func (s *Service) ListCompletions(ctx context.Context, habitID int64) ([]models.Completion, error) {
	var out []models.Completion
	err := s.store.WithTx(ctx, func(tx storage.Tx) error {
		var err error
		out, err = tx.ListCompletions(ctx, habitID)
		return err
	})
	return out, err
}

// ListCompletionsInRange returns completions with start <= completed_at <= end, most
// recent first. An empty or inverted range yields an empty slice.
func (s *Service) ListCompletionsInRange(ctx context.Context, habitID int64, start, end time.Time) ([]models.Completion, error) {
	var out []models.Completion
	err := s.store.WithTx(ctx, func(tx storage.Tx) error {
		var err error
		out, err = tx.ListCompletionsInRange(ctx, habitID, start, end)
		return err
	})
	return out, err
}

// GetStreak returns nil, nil when the habit has never been completed.
func (s *Service) GetStreak(ctx context.Context, habitID int64) (*models.Streak, error) {
	if cached, ok, err := s.cache.Get(ctx, habitID); err != nil {
		logger.Warn("streak cache lookup failed", "habit_id", habitID, "error", err)
	} else if ok {
		s.metrics.CacheLookup(true)
		return cached, nil
	}
	s.metrics.CacheLookup(false)

	// Writers invalidate while holding this lock, so a Set can never land after an
	// invalidation and restore a streak from before the write.
	unlock := s.locks.Lock(habitID)
	defer unlock()

	var st *models.Streak
	err := s.store.WithTx(ctx, func(tx storage.Tx) error {
		var err error
		st, err = tx.GetStreak(ctx, habitID)
		return err
	})
	if err != nil {
		return nil, err
	}

	if st != nil {
		if err := s.cache.Set(ctx, *st); err != nil {
			logger.Warn("failed to cache streak", "habit_id", habitID, "error", err)
		}
	}
	return st, nil
}

// RecomputeStreak rebuilds a habit's streak from its completions. Unknown habits
// return ErrNotFound.
func (s *Service) RecomputeStreak(ctx context.Context, habitID int64) (models.Streak, error) {
	unlock := s.locks.Lock(habitID)
	defer unlock()

	var st models.Streak
	err := s.store.WithTx(ctx, func(tx storage.Tx) error {
		if err := tx.LockHabit(ctx, habitID); err != nil {
			return err
		}
		var err error
		st, _, err = s.engine.Recompute(ctx, tx, habitID)
		return err
	})
	if err != nil {
		return models.Streak{}, err
	}

	s.afterRecompute(ctx, habitID)
	return st, nil
}
