package models

import "time"

// Streak is the cached streak state of a habit. It is derived from the habit's
// completions and can always be rebuilt from them.
type Streak struct {
	HabitID       int64 `json:"habit_id" yaml:"habit_id"`
	CurrentStreak int   `json:"current_streak" yaml:"current_streak"`
	LongestStreak int   `json:"longest_streak" yaml:"longest_streak"`
	// LastCompletedAt records when the streak was last recomputed, not the timestamp of
	// the latest completion. It is nil only while the habit has no completions.
	LastCompletedAt *time.Time `json:"last_completed_at" yaml:"last_completed_at"`
}
