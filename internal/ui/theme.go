// Package ui holds the lipgloss styles shared by the CLI and the terminal
// dashboard.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/comitanigiacomo/syllabus-pulse/internal/core/domain"
)

const (
	IconBook  = "📚"
	IconClock = "⏰"
	IconDone  = "✅"
	IconTodo  = "⬜"
	IconCloud = "☁️"
	IconWarn  = "⚠️"
	IconError = "✖"
	IconChart = "📈"
)

var (
	cPrimary = lipgloss.Color("63")
	cAccent  = lipgloss.Color("205")
	cGood    = lipgloss.Color("42")
	cWarn    = lipgloss.Color("214")
	cBad     = lipgloss.Color("196")
	cMuted   = lipgloss.Color("244")
)

var (
	Title = lipgloss.NewStyle().Bold(true).Foreground(cAccent)
	H2    = lipgloss.NewStyle().Bold(true).Foreground(cPrimary)
	Muted = lipgloss.NewStyle().Foreground(cMuted)
	Key   = lipgloss.NewStyle().Bold(true).Foreground(cPrimary)
	Good  = lipgloss.NewStyle().Bold(true).Foreground(cGood)
	Warn  = lipgloss.NewStyle().Bold(true).Foreground(cWarn)
	Bad   = lipgloss.NewStyle().Bold(true).Foreground(cBad)

	Panel       = lipgloss.NewStyle().BorderStyle(lipgloss.RoundedBorder()).BorderForeground(cMuted).Padding(0, 1)
	SelectedRow = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("230")).Background(cPrimary)
)

func Heading(icon string, title string) string {
	icon = strings.TrimSpace(icon)
	if icon != "" {
		icon += " "
	}
	return Title.Render(icon + title)
}

func LabelValue(label string, value any) string {
	return fmt.Sprintf("%s %v", Key.Render(label+":"), value)
}

func Check(done bool) string {
	if done {
		return IconDone
	}
	return IconTodo
}

// Bar renders a fixed-width text progress bar for pct in [0,100].
func Bar(pct, width int) string {
	if width <= 0 {
		return ""
	}
	pct = max(0, min(100, pct))
	filled := pct * width / 100
	return Good.Render(strings.Repeat("█", filled)) + Muted.Render(strings.Repeat("░", width-filled))
}

func SyncText(s domain.SyncStatus) string {
	switch s.State {
	case domain.SyncSuccess:
		return Good.Render(s.Label)
	case domain.SyncFailed:
		return Bad.Render(s.Label)
	case domain.SyncSyncing:
		return Warn.Render(s.Label)
	}
	return Muted.Render(s.Label)
}
