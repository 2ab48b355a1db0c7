package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/julianstephens/streakline/internal/models"
)

type CompleteCmd struct {
	HabitID int64  `arg:"" name:"habit-id" help:"Habit id."`
	Count   int    `help:"Number of repetitions performed." default:"1"`
	At      string `help:"When it happened: YYYY-MM-DD or an RFC 3339 timestamp (default: now)."`
}

func (c *CompleteCmd) Run(ctx *Context) error {
	var at *time.Time
	if c.At != "" {
		t, err := ctx.Normalizer().ParseInstant(c.At)
		if err != nil {
			return err
		}
		at = &t
	}

	completion, err := ctx.Tracker.RecordCompletion(context.Background(), c.HabitID, c.Count, at)
	if err != nil {
		return err
	}
	streak, err := ctx.Tracker.GetStreak(context.Background(), c.HabitID)
	if err != nil {
		return err
	}

	return ctx.render(completion, func(w io.Writer, st styles) {
		fmt.Fprintf(w, "%s completion %d for habit %d\n", st.success.Render("✓ Recorded"), completion.ID, c.HabitID)
		if streak != nil {
			fmt.Fprintf(w, "Current streak: %s day(s)\n", st.streak.Render(fmt.Sprintf("%d", streak.CurrentStreak)))
		}
	})
}

type CompletionsCmd struct {
	List   CompletionsListCmd   `cmd:"" help:"List a habit's completions, most recent first."`
	Delete CompletionsDeleteCmd `cmd:"" help:"Delete a completion and recompute the streak."`
}

type CompletionsListCmd struct {
	HabitID int64  `arg:"" name:"habit-id" help:"Habit id."`
	Start   string `help:"Range start (YYYY-MM-DD or RFC 3339)."`
	End     string `help:"Range end (YYYY-MM-DD covers the whole day)."`
}

func (c *CompletionsListCmd) Run(ctx *Context) error {
	var (
		completions []models.Completion
		err         error
	)

	if c.Start == "" && c.End == "" {
		completions, err = ctx.Tracker.ListCompletions(context.Background(), c.HabitID)
	} else {
		var start, end time.Time
		start, end, err = c.bounds(ctx)
		if err != nil {
			return err
		}
		completions, err = ctx.Tracker.ListCompletionsInRange(context.Background(), c.HabitID, start, end)
	}
	if err != nil {
		return err
	}

	return ctx.render(completions, func(w io.Writer, st styles) {
		writeCompletions(w, st, ctx.Normalizer(), completions)
	})
}

// bounds resolves --start/--end. A missing start is open-ended; a missing end is now.
func (c *CompletionsListCmd) bounds(ctx *Context) (time.Time, time.Time, error) {
	norm := ctx.Normalizer()

	start := time.Unix(0, 0)
	if c.Start != "" {
		t, err := norm.ParseInstant(c.Start)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --start: %w", err)
		}
		start = t
	}

	end := norm.Now()
	if c.End != "" {
		t, err := norm.ParseInstant(c.End)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --end: %w", err)
		}
		if _, dateErr := norm.ParseDay(c.End); dateErr == nil {
			t = norm.EndOfDay(t)
		}
		end = t
	}
	return start, end, nil
}

type CompletionsDeleteCmd struct {
	ID int64 `arg:"" name:"completion-id" help:"Completion id."`
}

func (c *CompletionsDeleteCmd) Run(ctx *Context) error {
	if err := ctx.Tracker.DeleteCompletion(context.Background(), c.ID); err != nil {
		return err
	}
	ctx.printf("✓ Deleted completion %d\n", c.ID)
	return nil
}

type StreakCmd struct {
	Show      StreakShowCmd      `cmd:"" help:"Show a habit's streak."`
	Recompute StreakRecomputeCmd `cmd:"" help:"Rebuild a habit's streak from its completions."`
}

type StreakShowCmd struct {
	HabitID int64 `arg:"" name:"habit-id" help:"Habit id."`
}

func (c *StreakShowCmd) Run(ctx *Context) error {
	if _, err := ctx.Tracker.GetHabit(context.Background(), c.HabitID); err != nil {
		return err
	}
	streak, err := ctx.Tracker.GetStreak(context.Background(), c.HabitID)
	if err != nil {
		return err
	}
	return ctx.render(streak, func(w io.Writer, st styles) {
		writeStreak(w, st, ctx.Normalizer(), c.HabitID, streak)
	})
}

type StreakRecomputeCmd struct {
	HabitID int64 `arg:"" name:"habit-id" help:"Habit id."`
}

func (c *StreakRecomputeCmd) Run(ctx *Context) error {
	streak, err := ctx.Tracker.RecomputeStreak(context.Background(), c.HabitID)
	if err != nil {
		return err
	}
	return ctx.render(streak, func(w io.Writer, st styles) {
		writeStreak(w, st, ctx.Normalizer(), c.HabitID, &streak)
	})
}
