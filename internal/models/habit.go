package models

import (
	"fmt"
	"strings"
	"time"

	apperrors "github.com/julianstephens/streakline/internal/errors"
)

// TargetType is the cadence a habit target is expressed in.
type TargetType string

const (
	TargetDaily   TargetType = "daily"
	TargetWeekly  TargetType = "weekly"
	TargetMonthly TargetType = "monthly"
)

// Valid reports whether t is one of the supported cadences.
func (t TargetType) Valid() bool {
	switch t {
	case TargetDaily, TargetWeekly, TargetMonthly:
		return true
	}
	return false
}

// Habit represents a recurring goal with a target cadence and quantity
type Habit struct {
	ID          int64      `json:"id" yaml:"id"`
	Name        string     `json:"name" yaml:"name"`
	Description string     `json:"description,omitempty" yaml:"description,omitempty"`
	Icon        string     `json:"icon,omitempty" yaml:"icon,omitempty"`
	Color       string     `json:"color,omitempty" yaml:"color,omitempty"`
	TargetCount int        `json:"target_count" yaml:"target_count"`
	TargetType  TargetType `json:"target_type" yaml:"target_type"`
	TargetUnits string     `json:"target_units" yaml:"target_units"`
	CreatedAt   time.Time  `json:"created_at" yaml:"created_at"`
	ArchivedAt  *time.Time `json:"archived_at" yaml:"archived_at"`
}

// IsArchived reports whether the habit has been archived.
func (h Habit) IsArchived() bool {
	return h.ArchivedAt != nil
}

// NewHabit holds the caller-supplied fields of a habit to create.
type NewHabit struct {
	Name        string     `json:"name" validate:"required"`
	Description string     `json:"description"`
	Icon        string     `json:"icon"`
	Color       string     `json:"color"`
	TargetCount int        `json:"target_count" validate:"required,min=1"`
	TargetType  TargetType `json:"target_type" validate:"required,oneof=daily weekly monthly"`
	TargetUnits string     `json:"target_units" validate:"required"`
}

// Validate applies the same rules as the HTTP layer so that CLI and library callers
// cannot bypass them.
func (n NewHabit) Validate() error {
	if strings.TrimSpace(n.Name) == "" {
		return fmt.Errorf("%w: habit name is required", apperrors.ErrValidation)
	}
	if !n.TargetType.Valid() {
		return fmt.Errorf("%w: invalid target type %q", apperrors.ErrValidation, n.TargetType)
	}
	if n.TargetCount < 1 {
		return fmt.Errorf("%w: invalid target count %d", apperrors.ErrValidation, n.TargetCount)
	}
	if strings.TrimSpace(n.TargetUnits) == "" {
		return fmt.Errorf("%w: target units are required", apperrors.ErrValidation)
	}
	return nil
}
