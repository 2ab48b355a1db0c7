package tui

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/streakline/internal/models"
	"github.com/julianstephens/streakline/internal/storage/sqlite"
	"github.com/julianstephens/streakline/internal/tracker"
	"github.com/julianstephens/streakline/internal/tui/components/habitlist"
	"github.com/julianstephens/streakline/internal/utils"
)

func setupModel(t *testing.T) (Model, *tracker.Service) {
	t.Helper()
	clock := utils.NewFixedClock(time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC))
	store := sqlite.NewStore(filepath.Join(t.TempDir(), "tui.db"), utils.NewNormalizer(time.UTC, clock))
	require.NoError(t, store.Init())
	t.Cleanup(func() { store.Close() })

	svc := tracker.New(store)
	_, err := svc.CreateHabit(context.Background(), models.NewHabit{
		Name: "Read", TargetCount: 1, TargetType: models.TargetDaily, TargetUnits: "pages",
	})
	require.NoError(t, err)

	m := NewModel(context.Background(), svc)
	m = send(t, m, tea.WindowSizeMsg{Width: 80, Height: 30})
	m = send(t, m, m.Init()())
	return m, svc
}

// send applies msg and returns the resulting model. Commands are not run.
func send(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out
}

// drive applies msg and keeps feeding the produced messages back until no command remains.
func drive(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	for i := 0; msg != nil && i < 10; i++ {
		next, cmd := m.Update(msg)
		m = next.(Model)
		if cmd == nil {
			return m
		}
		msg = cmd()
	}
	return m
}

func keyMsg(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestModelLoadsHabits(t *testing.T) {
	m, _ := setupModel(t)

	require.Equal(t, 1, m.habitList.Len())
	item, ok := m.habitList.Selected()
	require.True(t, ok)
	assert.Equal(t, "Read", item.Habit.Name)
	assert.Nil(t, item.Streak)
	assert.False(t, item.DoneToday)
	assert.Contains(t, item.Description(), "no streak yet")
	assert.Contains(t, m.View(), "Habits")
}

func TestModelCompleteHabit(t *testing.T) {
	m, svc := setupModel(t)

	m = drive(t, m, keyMsg("c"))

	assert.NoError(t, m.err)
	assert.Equal(t, "Completed! Current streak: 1", m.status)
	item, ok := m.habitList.Selected()
	require.True(t, ok)
	assert.True(t, item.DoneToday)
	require.NotNil(t, item.Streak)
	assert.Equal(t, 1, item.Streak.CurrentStreak)
	assert.Equal(t, "✓ Read", item.Title())

	completions, err := svc.ListCompletions(context.Background(), item.Habit.ID)
	require.NoError(t, err)
	assert.Len(t, completions, 1)
}

func TestModelUndoCompletion(t *testing.T) {
	m, svc := setupModel(t)
	m = drive(t, m, keyMsg("c"))
	m = drive(t, m, keyMsg("u"))

	assert.Equal(t, "Removed latest completion", m.status)
	item, ok := m.habitList.Selected()
	require.True(t, ok)
	assert.False(t, item.DoneToday)

	completions, err := svc.ListCompletions(context.Background(), item.Habit.ID)
	require.NoError(t, err)
	assert.Empty(t, completions)
}

func TestModelArchiveConfirmation(t *testing.T) {
	m, svc := setupModel(t)

	m = drive(t, m, keyMsg("x"))
	require.Equal(t, StateConfirmArchive, m.state)
	assert.Contains(t, m.View(), `Archive "Read"?`)

	m = send(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, StateHabits, m.state)
	assert.Equal(t, 1, m.habitList.Len())

	m = drive(t, m, keyMsg("x"))
	m = drive(t, m, keyMsg("y"))
	assert.Equal(t, StateHabits, m.state)
	assert.Equal(t, "Habit archived", m.status)
	assert.Equal(t, 0, m.habitList.Len())

	all, err := svc.ListAllHabits(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.True(t, all[0].IsArchived())
}

func TestModelHistoryTab(t *testing.T) {
	m, _ := setupModel(t)
	m = drive(t, m, keyMsg("c"))

	m = drive(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, StateHistory, m.state)
	require.NotNil(t, m.history.Habit)
	assert.Len(t, m.history.Completions, 1)
	assert.Contains(t, m.View(), "Fri 2024-03-15")

	m = drive(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, StateHabits, m.state)
}

func TestModelAddHabitOpensForm(t *testing.T) {
	m, _ := setupModel(t)

	next, cmd := m.Update(keyMsg("a"))
	require.NotNil(t, cmd)
	m = send(t, next.(Model), cmd())
	require.Equal(t, StateAddHabit, m.state)
	require.NotNil(t, m.form)

	m = send(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, StateHabits, m.state)
	assert.Nil(t, m.form)
}

func TestHabitFormModel(t *testing.T) {
	fm := newHabitFormModel(models.NewHabit{Name: "Run"})
	assert.Equal(t, "1", fm.Target)
	assert.Equal(t, models.TargetDaily, fm.Type)

	fm.Target = " 3 "
	fm.Units = " km "
	fm.Type = models.TargetWeekly
	nh := fm.NewHabit("#ff0000")
	assert.Equal(t, models.NewHabit{
		Name:        "Run",
		Color:       "#ff0000",
		TargetCount: 3,
		TargetType:  models.TargetWeekly,
		TargetUnits: "km",
	}, nh)
	assert.NoError(t, nh.Validate())
}

func TestItemDescription(t *testing.T) {
	item := habitlist.Item{
		Habit:  models.Habit{Name: "Read", TargetCount: 20, TargetUnits: "pages", TargetType: models.TargetDaily},
		Streak: &models.Streak{CurrentStreak: 3, LongestStreak: 5},
	}
	assert.Equal(t, "20 pages daily | streak 3 (best 5)", item.Description())
}
