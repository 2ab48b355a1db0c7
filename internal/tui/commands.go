package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/streakline/internal/models"
	"github.com/julianstephens/streakline/internal/tui/components/habitlist"
)

type habitsLoadedMsg struct {
	items []habitlist.Item
}

type historyLoadedMsg struct {
	habit       models.Habit
	completions []models.Completion
}

type statusMsg struct {
	text string
}

type errMsg struct {
	err error
}

func (e errMsg) Error() string { return e.err.Error() }

func (m Model) loadHabits() tea.Cmd {
	svc, ctx := m.svc, m.ctx
	return func() tea.Msg {
		habits, err := svc.ListHabits(ctx)
		if err != nil {
			return errMsg{err}
		}
		norm := svc.Normalizer()
		today := norm.StartOfDay(norm.Now())

		items := make([]habitlist.Item, 0, len(habits))
		for _, h := range habits {
			st, err := svc.GetStreak(ctx, h.ID)
			if err != nil {
				return errMsg{err}
			}
			done, err := svc.ListCompletionsInRange(ctx, h.ID, today, norm.EndOfDay(today))
			if err != nil {
				return errMsg{err}
			}
			items = append(items, habitlist.Item{Habit: h, Streak: st, DoneToday: len(done) > 0})
		}
		return habitsLoadedMsg{items: items}
	}
}

func (m Model) loadHistory(h models.Habit) tea.Cmd {
	svc, ctx := m.svc, m.ctx
	return func() tea.Msg {
		completions, err := svc.ListCompletions(ctx, h.ID)
		if err != nil {
			return errMsg{err}
		}
		return historyLoadedMsg{habit: h, completions: completions}
	}
}

func (m Model) completeHabit(id int64) tea.Cmd {
	svc, ctx := m.svc, m.ctx
	return func() tea.Msg {
		if _, err := svc.RecordCompletion(ctx, id, 1, nil); err != nil {
			return errMsg{err}
		}
		st, err := svc.GetStreak(ctx, id)
		if err != nil {
			return errMsg{err}
		}
		current := 0
		if st != nil {
			current = st.CurrentStreak
		}
		return statusMsg{fmt.Sprintf("Completed! Current streak: %d", current)}
	}
}

// undoCompletion removes the most recent completion of a habit.
func (m Model) undoCompletion(id int64) tea.Cmd {
	svc, ctx := m.svc, m.ctx
	return func() tea.Msg {
		completions, err := svc.ListCompletions(ctx, id)
		if err != nil {
			return errMsg{err}
		}
		if len(completions) == 0 {
			return statusMsg{"Nothing to undo"}
		}
		latest := completions[0]
		if err := svc.DeleteCompletion(ctx, latest.ID); err != nil {
			return errMsg{err}
		}
		return statusMsg{"Removed latest completion"}
	}
}

func (m Model) archiveHabit(id int64) tea.Cmd {
	svc, ctx := m.svc, m.ctx
	return func() tea.Msg {
		if err := svc.ArchiveHabit(ctx, id); err != nil {
			return errMsg{err}
		}
		return statusMsg{"Habit archived"}
	}
}

func (m Model) createHabit(nh models.NewHabit) tea.Cmd {
	svc, ctx := m.svc, m.ctx
	return func() tea.Msg {
		h, err := svc.CreateHabit(ctx, nh)
		if err != nil {
			return errMsg{err}
		}
		return statusMsg{fmt.Sprintf("Added habit %q", h.Name)}
	}
}
