package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// GrowthQuest theme (CLI + TUI).
// Kept small: reusable styles, stat icons and a text progress bar.

const (
	IconQuest   = "🗺️"
	IconSparkle = "✨"
	IconPlus    = "➕"
	IconDone    = "✅"
	IconTrophy  = "🏆"
	IconBolt    = "⚡"
	IconInfo    = "ℹ️"
	IconWarn    = "⚠️"
	IconError   = "🧨"
	IconScroll  = "📜"
	IconRobot   = "🤖"
	IconUp      = "⬆️"
)

var (
	cPrimary = lipgloss.Color("63")  // blue
	cAccent  = lipgloss.Color("205") // magenta
	cGood    = lipgloss.Color("42")  // green
	cWarn    = lipgloss.Color("214") // orange
	cBad     = lipgloss.Color("196") // red
	cMuted   = lipgloss.Color("244") // gray
	cGold    = lipgloss.Color("220") // gold
)

var (
	Title = lipgloss.NewStyle().Bold(true).Foreground(cAccent)
	H2    = lipgloss.NewStyle().Bold(true).Foreground(cPrimary)
	Muted = lipgloss.NewStyle().Foreground(cMuted)
	Key   = lipgloss.NewStyle().Bold(true).Foreground(cPrimary)
	Good  = lipgloss.NewStyle().Bold(true).Foreground(cGood)
	Warn  = lipgloss.NewStyle().Bold(true).Foreground(cWarn)
	Bad   = lipgloss.NewStyle().Bold(true).Foreground(cBad)
	Gold  = lipgloss.NewStyle().Bold(true).Foreground(cGold)
	Dim   = lipgloss.NewStyle().Foreground(cMuted)

	PanelTitle  = lipgloss.NewStyle().Bold(true).Underline(true).Foreground(cPrimary)
	SelectedRow = lipgloss.NewStyle().Bold(true).Foreground(cGold).Background(cPrimary)

	BadgeLevelUp = lipgloss.NewStyle().Bold(true).Foreground(cGold).Render("LEVEL UP")
)

var statIcons = map[string]string{
	"intelligence": "🧠",
	"creativity":   "🎨",
	"social":       "🤝",
	"physical":     "💪",
	"emotional":    "🧘",
	"focus":        "🎯",
	"adaptability": "🌊",
	"level":        "⭐",
}

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

// StatIcon returns the emoji for a stat name, or a bullet for unknown names.
func StatIcon(stat string) string {
	if icon, ok := statIcons[strings.ToLower(stat)]; ok {
		return icon
	}
	return "•"
}

func StatusText(status string) string {
	s := strings.ToLower(strings.TrimSpace(status))
	switch s {
	case "completed":
		return Good.Render("completed")
	case "open":
		return H2.Render("open")
	default:
		return Muted.Render(status)
	}
}

func DifficultyText(difficulty string) string {
	switch strings.ToLower(difficulty) {
	case "easy":
		return Good.Render("easy")
	case "medium":
		return Warn.Render("medium")
	case "hard":
		return Bad.Render("hard")
	default:
		return Muted.Render(difficulty)
	}
}

// Bar renders value/total as a fixed-width text bar.
func Bar(value int, total int, width int) string {
	if total <= 0 {
		total = 1
	}
	if width <= 3 {
		width = 3
	}
	value = max(0, min(value, total))
	filled := min(width, int(float64(value)/float64(total)*float64(width)))
	return "[" + strings.Repeat("#", filled) + strings.Repeat("-", width-filled) + "]"
}
