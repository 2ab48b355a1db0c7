package habitlist

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/streakline/internal/models"
)

type AddHabitMsg struct{}

type CompleteHabitMsg struct {
	ID int64
}

type UndoCompletionMsg struct {
	ID int64
}

type ArchiveHabitMsg struct {
	ID int64
}

type Item struct {
	Habit     models.Habit
	Streak    *models.Streak
	DoneToday bool
}

func (i Item) Title() string {
	title := i.Habit.Name
	if i.Habit.Icon != "" {
		title = i.Habit.Icon + " " + title
	}
	if i.DoneToday {
		title = "✓ " + title
	}
	return title
}

func (i Item) Description() string {
	desc := fmt.Sprintf("%d %s %s", i.Habit.TargetCount, i.Habit.TargetUnits, i.Habit.TargetType)
	if i.Streak == nil {
		return desc + " | no streak yet"
	}
	return desc + fmt.Sprintf(" | streak %d (best %d)", i.Streak.CurrentStreak, i.Streak.LongestStreak)
}

func (i Item) FilterValue() string { return i.Habit.Name }

type KeyMap struct {
	Add      key.Binding
	Complete key.Binding
	Undo     key.Binding
	Archive  key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Add: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "add"),
		),
		Complete: key.NewBinding(
			key.WithKeys("c", " "),
			key.WithHelp("c/space", "complete"),
		),
		Undo: key.NewBinding(
			key.WithKeys("u"),
			key.WithHelp("u", "undo last"),
		),
		Archive: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "archive"),
		),
	}
}

type Model struct {
	list list.Model
	keys KeyMap
}

func New(items []Item, width, height int) Model {
	l := list.New(toListItems(items), list.NewDefaultDelegate(), width, height)
	l.Title = "Habits"
	l.SetShowTitle(false)
	l.SetShowHelp(false)

	keys := DefaultKeyMap()
	l.AdditionalShortHelpKeys = func() []key.Binding {
		return []key.Binding{keys.Add, keys.Complete, keys.Undo, keys.Archive}
	}
	l.AdditionalFullHelpKeys = func() []key.Binding {
		return []key.Binding{keys.Add, keys.Complete, keys.Undo, keys.Archive}
	}

	return Model{list: l, keys: keys}
}

func toListItems(items []Item) []list.Item {
	out := make([]list.Item, len(items))
	for i, it := range items {
		out[i] = it
	}
	return out
}

func (m *Model) SetItems(items []Item) {
	m.list.SetItems(toListItems(items))
}

// Selected returns the highlighted habit, if any.
func (m Model) Selected() (Item, bool) {
	i, ok := m.list.SelectedItem().(Item)
	return i, ok
}

func (m Model) Len() int {
	return len(m.list.Items())
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch {
		case key.Matches(msg, m.keys.Add):
			return m, func() tea.Msg { return AddHabitMsg{} }
		case key.Matches(msg, m.keys.Complete):
			if i, ok := m.Selected(); ok {
				return m, func() tea.Msg { return CompleteHabitMsg{ID: i.Habit.ID} }
			}
		case key.Matches(msg, m.keys.Undo):
			if i, ok := m.Selected(); ok && i.Streak != nil {
				return m, func() tea.Msg { return UndoCompletionMsg{ID: i.Habit.ID} }
			}
		case key.Matches(msg, m.keys.Archive):
			if i, ok := m.Selected(); ok {
				return m, func() tea.Msg { return ArchiveHabitMsg{ID: i.Habit.ID} }
			}
		}
	}

	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if len(m.list.Items()) == 0 && m.list.FilterState() != list.Filtering {
		return "\n  No habits yet.\n  Press 'a' to add one."
	}
	return m.list.View()
}

func (m *Model) SetSize(width, height int) {
	m.list.SetSize(width, height)
}
