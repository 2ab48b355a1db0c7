package history

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/streakline/internal/models"
)

const dayFormat = "Mon 2006-01-02"

var (
	dayStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Width(16)

	timeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Bold(true).
			Width(7)

	countStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true)
)

// Model shows the completion log of one habit. Completions are expected newest first.
type Model struct {
	viewport    viewport.Model
	Habit       *models.Habit
	Completions []models.Completion
	loc         *time.Location
}

func New(width, height int, loc *time.Location) Model {
	if loc == nil {
		loc = time.Local
	}
	return Model{
		viewport: viewport.New(width, height),
		loc:      loc,
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if m.Habit == nil {
		return "Select a habit to see its history."
	}
	return m.viewport.View()
}

func (m *Model) SetSize(width, height int) {
	m.viewport.Width = width
	m.viewport.Height = height
	m.Render()
}

func (m *Model) SetHistory(habit models.Habit, completions []models.Completion) {
	m.Habit = &habit
	m.Completions = completions
	m.Render()
}

func (m *Model) Render() {
	if m.Habit == nil {
		m.viewport.SetContent("")
		return
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render(m.Habit.Name))
	b.WriteString("\n\n")
	if len(m.Completions) == 0 {
		b.WriteString("No completions recorded.")
		m.viewport.SetContent(b.String())
		return
	}

	for _, c := range m.Completions {
		local := c.CompletedAt.In(m.loc)
		fmt.Fprintf(&b, "%s %s %s\n",
			dayStyle.Render(local.Format(dayFormat)),
			timeStyle.Render(local.Format("15:04")),
			countStyle.Render(fmt.Sprintf("x%d %s", c.Count, m.Habit.TargetUnits)),
		)
	}
	m.viewport.SetContent(b.String())
	m.viewport.GotoTop()
}
