package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"github.com/julianstephens/streakline/internal/backup"
	"github.com/julianstephens/streakline/internal/models"
	"github.com/julianstephens/streakline/internal/utils"
)

// Format selects how command results are written.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

const displayTimeFormat = "2006-01-02 15:04"

// render writes v as JSON or YAML, or calls text for the human-readable form.
func (c *Context) render(v any, text func(w io.Writer, st styles)) error {
	switch c.Format {
	case FormatJSON:
		enc := json.NewEncoder(c.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML:
		enc := yaml.NewEncoder(c.Out)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	case FormatText, "":
		text(c.Out, newStyles(c.Out))
		return nil
	default:
		return fmt.Errorf("unknown output format %q", c.Format)
	}
}

type styles struct {
	header   lipgloss.Style
	muted    lipgloss.Style
	success  lipgloss.Style
	warning  lipgloss.Style
	streak   lipgloss.Style
	archived lipgloss.Style
}

// newStyles binds styles to w so that color is dropped when w is not a terminal.
func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		header:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("205")),
		muted:    r.NewStyle().Foreground(lipgloss.Color("240")),
		success:  r.NewStyle().Foreground(lipgloss.Color("42")),
		warning:  r.NewStyle().Foreground(lipgloss.Color("214")),
		streak:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("208")),
		archived: r.NewStyle().Faint(true),
	}
}

func pad(s string, width int) string {
	if n := lipgloss.Width(s); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}

func formatTarget(h models.Habit) string {
	return fmt.Sprintf("%d %s %s", h.TargetCount, h.TargetUnits, h.TargetType)
}

func writeHabits(w io.Writer, st styles, habits []models.Habit) {
	if len(habits) == 0 {
		fmt.Fprintln(w, st.muted.Render("No habits found."))
		return
	}

	nameWidth := len("NAME")
	for _, h := range habits {
		nameWidth = max(nameWidth, lipgloss.Width(h.Name))
	}

	fmt.Fprintln(w, st.header.Render(fmt.Sprintf("%-4s  %s  %s", "ID", pad("NAME", nameWidth), "TARGET")))
	for _, h := range habits {
		line := fmt.Sprintf("%-4d  %s  %s", h.ID, pad(h.Name, nameWidth), formatTarget(h))
		if h.IsArchived() {
			line = st.archived.Render(line + "  [ARCHIVED]")
		}
		fmt.Fprintln(w, line)
	}
}

func writeHabit(w io.Writer, st styles, norm *utils.Normalizer, h models.Habit, s *models.Streak) {
	fmt.Fprintln(w, st.header.Render(h.Name))
	if h.Description != "" {
		fmt.Fprintln(w, h.Description)
	}
	fmt.Fprintf(w, "ID:       %d\n", h.ID)
	fmt.Fprintf(w, "Target:   %s\n", formatTarget(h))
	fmt.Fprintf(w, "Created:  %s\n", h.CreatedAt.In(norm.Location()).Format(displayTimeFormat))
	if h.ArchivedAt != nil {
		fmt.Fprintf(w, "Archived: %s\n", h.ArchivedAt.In(norm.Location()).Format(displayTimeFormat))
	}
	if s != nil {
		fmt.Fprintf(w, "Streak:   %s (longest %d)\n", st.streak.Render(fmt.Sprintf("%d", s.CurrentStreak)), s.LongestStreak)
	} else {
		fmt.Fprintf(w, "Streak:   %s\n", st.muted.Render("none yet"))
	}
}

func writeCompletions(w io.Writer, st styles, norm *utils.Normalizer, completions []models.Completion) {
	if len(completions) == 0 {
		fmt.Fprintln(w, st.muted.Render("No completions found."))
		return
	}
	fmt.Fprintln(w, st.header.Render(fmt.Sprintf("%-6s  %-16s  %s", "ID", "COMPLETED", "COUNT")))
	for _, c := range completions {
		fmt.Fprintf(w, "%-6d  %-16s  %d\n", c.ID, c.CompletedAt.In(norm.Location()).Format(displayTimeFormat), c.Count)
	}
}

func writeStreak(w io.Writer, st styles, norm *utils.Normalizer, habitID int64, s *models.Streak) {
	if s == nil {
		fmt.Fprintf(w, "No streak recorded for habit %d.\n", habitID)
		return
	}
	fmt.Fprintf(w, "Current streak: %s day(s)\n", st.streak.Render(fmt.Sprintf("%d", s.CurrentStreak)))
	fmt.Fprintf(w, "Longest streak: %d day(s)\n", s.LongestStreak)
	if s.LastCompletedAt != nil {
		fmt.Fprintf(w, "Last updated:   %s\n", s.LastCompletedAt.In(norm.Location()).Format(displayTimeFormat))
	}
}

func writeBackups(w io.Writer, st styles, dir string, backups []backup.BackupInfo) {
	if len(backups) == 0 {
		fmt.Fprintln(w, st.muted.Render("No backups found."))
		fmt.Fprintf(w, "Backups are stored in: %s\n", dir)
		return
	}
	fmt.Fprintf(w, "Available backups (%d total):\n\n", len(backups))
	for _, b := range backups {
		sizeKB := float64(b.Size) / 1024.0
		fmt.Fprintf(w, "  %s  %s  (%.1f KB)\n", b.Timestamp.Format("2006-01-02 15:04:05"), filepath.Base(b.Path), sizeKB)
	}
	fmt.Fprintf(w, "\nBackup directory: %s\n", dir)
}
