package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/streakline/internal/models"
	"github.com/julianstephens/streakline/internal/tui/components/habitlist"
)

// chromeHeight is the space taken by the tab bar, status line and help.
const chromeHeight = 6

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.state == StateAddHabit {
		return m.updateForm(msg)
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		h, v := docStyle.GetFrameSize()
		m.habitList.SetSize(msg.Width-h, msg.Height-v-chromeHeight)
		m.history.SetSize(msg.Width-h, msg.Height-v-chromeHeight)
		return m, nil

	case habitsLoadedMsg:
		m.habitList.SetItems(msg.items)
		return m, nil

	case historyLoadedMsg:
		m.history.SetHistory(msg.habit, msg.completions)
		return m, nil

	case statusMsg:
		m.status = msg.text
		m.err = nil
		return m, m.loadHabits()

	case errMsg:
		m.err = msg.err
		m.status = ""
		return m, nil

	case habitlist.AddHabitMsg:
		m.habitForm = newHabitFormModel(models.NewHabit{})
		m.form = NewHabitForm(m.habitForm)
		m.state = StateAddHabit
		return m, m.form.Init()

	case habitlist.CompleteHabitMsg:
		return m, m.completeHabit(msg.ID)

	case habitlist.UndoCompletionMsg:
		return m, m.undoCompletion(msg.ID)

	case habitlist.ArchiveHabitMsg:
		m.habitToArchiveID = msg.ID
		m.state = StateConfirmArchive
		return m, nil

	case tea.KeyMsg:
		if m.state == StateConfirmArchive {
			return m.updateConfirmArchive(msg)
		}
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Tab):
			return m.switchTab((m.state + 1) % tabCount)
		case key.Matches(msg, m.keys.ShiftTab):
			return m.switchTab((m.state - 1 + tabCount) % tabCount)
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		case key.Matches(msg, m.keys.Refresh):
			m.status, m.err = "", nil
			return m, m.loadHabits()
		case m.state == StateHabits && key.Matches(msg, m.keys.Enter):
			return m.switchTab(StateHistory)
		}
	}

	var cmd tea.Cmd
	switch m.state {
	case StateHabits:
		m.habitList, cmd = m.habitList.Update(msg)
	case StateHistory:
		m.history, cmd = m.history.Update(msg)
	}
	return m, cmd
}

func (m Model) switchTab(state SessionState) (tea.Model, tea.Cmd) {
	m.state = state
	if state == StateHistory {
		if h, ok := m.selectedHabit(); ok {
			return m, m.loadHistory(h)
		}
	}
	return m, nil
}

func (m Model) updateConfirmArchive(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Confirm):
		id := m.habitToArchiveID
		m.habitToArchiveID = 0
		m.state = StateHabits
		return m, m.archiveHabit(id)
	case key.Matches(msg, m.keys.Cancel):
		m.habitToArchiveID = 0
		m.state = StateHabits
	}
	return m, nil
}

func (m Model) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.Type == tea.KeyEsc {
		m.state = StateHabits
		m.form = nil
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		nh := m.habitForm.NewHabit("")
		m.state = StateHabits
		m.form = nil
		return m, m.createHabit(nh)
	case huh.StateAborted:
		m.state = StateHabits
		m.form = nil
		return m, nil
	}
	return m, cmd
}
