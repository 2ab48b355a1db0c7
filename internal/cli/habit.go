package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/julianstephens/streakline/internal/models"
	"github.com/julianstephens/streakline/internal/tui"
)

type HabitCmd struct {
	Add     HabitAddCmd     `cmd:"" help:"Add a new habit."`
	List    HabitListCmd    `cmd:"" help:"List habits."`
	Show    HabitShowCmd    `cmd:"" help:"Show a habit and its streak."`
	Archive HabitArchiveCmd `cmd:"" help:"Archive a habit."`
}

type HabitAddCmd struct {
	Name        string `arg:"" optional:"" help:"Habit name. Omit to fill in an interactive form."`
	Description string `help:"Longer description."`
	Icon        string `help:"Icon shown next to the habit."`
	Color       string `help:"Display color, e.g. #22c55e."`
	Target      int    `help:"Target count per period." default:"1"`
	Type        string `help:"Target cadence." enum:"daily,weekly,monthly" default:"daily"`
	Units       string `help:"Unit of the target count." default:"times"`
}

func (c *HabitAddCmd) newHabit() models.NewHabit {
	return models.NewHabit{
		Name:        c.Name,
		Description: c.Description,
		Icon:        c.Icon,
		Color:       c.Color,
		TargetCount: c.Target,
		TargetType:  models.TargetType(c.Type),
		TargetUnits: c.Units,
	}
}

func (c *HabitAddCmd) Run(ctx *Context) error {
	nh := c.newHabit()
	if c.Name == "" {
		var err error
		nh, err = tui.RunHabitForm(nh)
		if err != nil {
			return err
		}
	}

	habit, err := ctx.Tracker.CreateHabit(context.Background(), nh)
	if err != nil {
		return err
	}

	return ctx.render(habit, func(w io.Writer, st styles) {
		fmt.Fprintf(w, "%s %s (id %d)\n", st.success.Render("✓ Added habit:"), habit.Name, habit.ID)
	})
}

type HabitListCmd struct {
	All bool `help:"Include archived habits."`
}

func (c *HabitListCmd) Run(ctx *Context) error {
	var (
		habits []models.Habit
		err    error
	)
	if c.All {
		habits, err = ctx.Tracker.ListAllHabits(context.Background())
	} else {
		habits, err = ctx.Tracker.ListHabits(context.Background())
	}
	if err != nil {
		return err
	}

	return ctx.render(habits, func(w io.Writer, st styles) {
		writeHabits(w, st, habits)
	})
}

type HabitShowCmd struct {
	ID int64 `arg:"" help:"Habit id."`
}

type habitDetail struct {
	models.Habit `yaml:",inline"`
	Streak       *models.Streak `json:"streak" yaml:"streak"`
}

func (c *HabitShowCmd) Run(ctx *Context) error {
	habit, err := ctx.Tracker.GetHabit(context.Background(), c.ID)
	if err != nil {
		return err
	}
	streak, err := ctx.Tracker.GetStreak(context.Background(), c.ID)
	if err != nil {
		return err
	}

	return ctx.render(habitDetail{Habit: habit, Streak: streak}, func(w io.Writer, st styles) {
		writeHabit(w, st, ctx.Normalizer(), habit, streak)
	})
}

type HabitArchiveCmd struct {
	ID int64 `arg:"" help:"Habit id."`
}

func (c *HabitArchiveCmd) Run(ctx *Context) error {
	if err := ctx.Tracker.ArchiveHabit(context.Background(), c.ID); err != nil {
		return err
	}
	ctx.printf("✓ Archived habit %d\n", c.ID)
	return nil
}
