package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/julianstephens/streakline/internal/keyring"
	"github.com/julianstephens/streakline/internal/models"
)

type DebugCmd struct {
	DBPath    *DebugDBPathCmd    `cmd:"" help:"Show database path."`
	DumpHabit *DebugDumpHabitCmd `cmd:"" help:"Dump a habit with its completions and streak as JSON."`
}

type DebugDBPathCmd struct{}

func (cmd *DebugDBPathCmd) Run(ctx *Context) error {
	path := ctx.Store.GetConfigPath()
	if ctx.Conn.IsPostgres() {
		path = keyring.MaskPassword(ctx.Conn.Value)
	}

	jsonBytes, err := json.MarshalIndent(map[string]string{"path": path}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	ctx.println(string(jsonBytes))
	return nil
}

type habitDump struct {
	Habit       models.Habit        `json:"habit"`
	Completions []models.Completion `json:"completions"`
	Streak      *models.Streak      `json:"streak"`
}

type DebugDumpHabitCmd struct {
	ID int64 `arg:"" help:"ID of the habit to dump."`
}

func (cmd *DebugDumpHabitCmd) Run(ctx *Context) error {
	bg := context.Background()
	habit, err := ctx.Tracker.GetHabit(bg, cmd.ID)
	if err != nil {
		return fmt.Errorf("failed to get habit: %w", err)
	}
	completions, err := ctx.Tracker.ListCompletions(bg, cmd.ID)
	if err != nil {
		return fmt.Errorf("failed to list completions: %w", err)
	}
	streak, err := ctx.Tracker.GetStreak(bg, cmd.ID)
	if err != nil {
		return fmt.Errorf("failed to get streak: %w", err)
	}

	jsonBytes, err := json.MarshalIndent(habitDump{Habit: habit, Completions: completions, Streak: streak}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal habit: %w", err)
	}
	ctx.println(string(jsonBytes))
	return nil
}
