package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/streakline/internal/models"
)

type HabitFormModel struct {
	Name        string
	Description string
	Icon        string
	Target      string
	Type        models.TargetType
	Units       string
}

func newHabitFormModel(nh models.NewHabit) *HabitFormModel {
	fm := &HabitFormModel{
		Name:        nh.Name,
		Description: nh.Description,
		Icon:        nh.Icon,
		Target:      "1",
		Type:        nh.TargetType,
		Units:       nh.TargetUnits,
	}
	if nh.TargetCount > 0 {
		fm.Target = strconv.Itoa(nh.TargetCount)
	}
	if fm.Type == "" {
		fm.Type = models.TargetDaily
	}
	return fm
}

// NewHabit converts the form values. It assumes the form validators have run.
func (fm *HabitFormModel) NewHabit(color string) models.NewHabit {
	count, err := strconv.Atoi(strings.TrimSpace(fm.Target))
	if err != nil {
		count = 0
	}
	return models.NewHabit{
		Name:        strings.TrimSpace(fm.Name),
		Description: strings.TrimSpace(fm.Description),
		Icon:        strings.TrimSpace(fm.Icon),
		Color:       color,
		TargetCount: count,
		TargetType:  fm.Type,
		TargetUnits: strings.TrimSpace(fm.Units),
	}
}

func required(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s cannot be empty", field)
		}
		return nil
	}
}

// NewHabitForm builds the form used both by the dashboard and by `habit add`.
func NewHabitForm(fm *HabitFormModel) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Habit Name").
				Value(&fm.Name).
				Validate(required("habit name")),
			huh.NewInput().
				Title("Description").
				Value(&fm.Description),
			huh.NewInput().
				Title("Icon").
				Description("Optional emoji shown next to the name").
				Value(&fm.Icon),
			huh.NewSelect[models.TargetType]().
				Title("Cadence").
				Options(
					huh.NewOption("Daily", models.TargetDaily),
					huh.NewOption("Weekly", models.TargetWeekly),
					huh.NewOption("Monthly", models.TargetMonthly),
				).
				Value(&fm.Type),
			huh.NewInput().
				Title("Target count").
				Value(&fm.Target).
				Validate(func(s string) error {
					i, err := strconv.Atoi(strings.TrimSpace(s))
					if err != nil {
						return fmt.Errorf("target count must be a number")
					}
					if i < 1 {
						return fmt.Errorf("target count must be at least 1")
					}
					return nil
				}),
			huh.NewInput().
				Title("Units").
				Description("e.g. times, minutes, pages").
				Value(&fm.Units).
				Validate(required("units")),
		),
	).WithTheme(huh.ThemeDracula())
}

// RunHabitForm prompts for any habit fields on the terminal, pre-filled from nh.
func RunHabitForm(nh models.NewHabit) (models.NewHabit, error) {
	fm := newHabitFormModel(nh)
	if err := NewHabitForm(fm).Run(); err != nil {
		return models.NewHabit{}, err
	}
	return fm.NewHabit(nh.Color), nil
}
