package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/streakline/internal/models"
	"github.com/julianstephens/streakline/internal/tracker"
	"github.com/julianstephens/streakline/internal/tui/components/habitlist"
	"github.com/julianstephens/streakline/internal/tui/components/history"
)

type SessionState int

const (
	StateHabits SessionState = iota
	StateHistory
	StateAddHabit
	StateConfirmArchive
)

// tabCount is the number of states reachable with tab.
const tabCount = 2

type Model struct {
	ctx              context.Context
	svc              *tracker.Service
	state            SessionState
	keys             KeyMap
	help             help.Model
	habitList        habitlist.Model
	history          history.Model
	form             *huh.Form
	habitForm        *HabitFormModel
	habitToArchiveID int64
	status           string
	err              error
	quitting         bool
	width            int
	height           int
}

func NewModel(ctx context.Context, svc *tracker.Service) Model {
	return Model{
		ctx:       ctx,
		svc:       svc,
		state:     StateHabits,
		keys:      DefaultKeyMap(),
		help:      help.New(),
		habitList: habitlist.New(nil, 0, 0),
		history:   history.New(0, 0, svc.Normalizer().Location()),
	}
}

func (m Model) ShortHelp() []key.Binding {
	keys := []key.Binding{m.keys.Tab, m.keys.Quit, m.keys.Help}
	switch m.state {
	case StateHabits:
		keys = append(keys, m.keys.Add, m.keys.Complete, m.keys.Enter)
	case StateConfirmArchive:
		keys = []key.Binding{m.keys.Confirm, m.keys.Cancel}
	}
	return keys
}

func (m Model) FullHelp() [][]key.Binding {
	global := []key.Binding{m.keys.Tab, m.keys.ShiftTab, m.keys.Quit, m.keys.Help, m.keys.Refresh}
	navigation := []key.Binding{m.keys.Up, m.keys.Down, m.keys.Enter}

	var actions []key.Binding
	if m.state == StateHabits {
		actions = []key.Binding{m.keys.Add, m.keys.Complete, m.keys.Archive}
	}
	return [][]key.Binding{global, navigation, actions}
}

func (m Model) Init() tea.Cmd {
	return m.loadHabits()
}

// Run starts the dashboard in the alternate screen and blocks until it exits.
func Run(ctx context.Context, svc *tracker.Service) error {
	p := tea.NewProgram(NewModel(ctx, svc), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

// selectedHabit returns the habit highlighted in the list.
func (m Model) selectedHabit() (models.Habit, bool) {
	i, ok := m.habitList.Selected()
	if !ok {
		return models.Habit{}, false
	}
	return i.Habit, true
}
