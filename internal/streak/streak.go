// Package streak derives a habit's streak from its completion history.
package streak

import (
	"context"
	"time"

	apperrors "github.com/julianstephens/streakline/internal/errors"
	"github.com/julianstephens/streakline/internal/models"
	"github.com/julianstephens/streakline/internal/storage"
	"github.com/julianstephens/streakline/internal/utils"
)

// Calculate returns the number of consecutive local days, ending today or yesterday,
// that have at least one completion. completions must be ordered most recent first.
//
// The walk keeps a cursor on the last counted day, starting at today. A completion on
// the cursor day or the day before it extends the run; anything older ends it. Several
// completions on one day count as a single day.
func Calculate(completions []models.Completion, now time.Time, norm *utils.Normalizer) int {
	cursor := norm.StartOfDay(now)
	current := 0
	counted := false

	for _, c := range completions {
		day := norm.StartOfDay(c.CompletedAt)
		gap := norm.DaysBetween(cursor, day)
		if gap > 1 {
			break
		}
		if !counted || !day.Equal(cursor) {
			current++
			counted = true
		}
		cursor = day
	}

	return current
}

// Engine recomputes and persists streak rows.
type Engine struct {
	norm *utils.Normalizer
}

func NewEngine(norm *utils.Normalizer) *Engine {
	return &Engine{norm: norm}
}

// Recompute rebuilds the streak of habitID from its completions and upserts it within
// tx. It reports false, and writes nothing, when the habit does not exist.
//
// current_streak is always the fresh value and longest_streak never decreases.
// last_completed_at is stamped with the recompute time, or cleared when the habit has
// no completions left.
func (e *Engine) Recompute(ctx context.Context, tx storage.Tx, habitID int64) (models.Streak, bool, error) {
	if _, err := tx.GetHabit(ctx, habitID); err != nil {
		if apperrors.IsNotFound(err) {
			return models.Streak{}, false, nil
		}
		return models.Streak{}, false, err
	}

	completions, err := tx.ListCompletions(ctx, habitID)
	if err != nil {
		return models.Streak{}, false, err
	}

	now := e.norm.Now()
	s := models.Streak{
		HabitID:       habitID,
		CurrentStreak: Calculate(completions, now, e.norm),
	}

	existing, err := tx.GetStreak(ctx, habitID)
	if err != nil {
		return models.Streak{}, false, err
	}
	s.LongestStreak = s.CurrentStreak
	if existing != nil && existing.LongestStreak > s.LongestStreak {
		s.LongestStreak = existing.LongestStreak
	}

	if len(completions) > 0 {
		s.LastCompletedAt = &now
	}

	if err := tx.UpsertStreak(ctx, s); err != nil {
		return models.Streak{}, false, err
	}

	// Return the stored form so callers see the same precision a later read would.
	stored, err := tx.GetStreak(ctx, habitID)
	if err != nil {
		return models.Streak{}, false, err
	}
	if stored == nil {
		return s, true, nil
	}
	return *stored, true, nil
}
