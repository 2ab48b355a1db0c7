package models

import "time"

// Completion is a single recorded instance of performing a habit
type Completion struct {
	ID          int64     `json:"id" yaml:"id"`
	HabitID     int64     `json:"habit_id" yaml:"habit_id"`
	CompletedAt time.Time `json:"completed_at" yaml:"completed_at"`
	Count       int       `json:"count" yaml:"count"`
}
