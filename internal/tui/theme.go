package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme names.
const (
	ThemeDark  = "dark"
	ThemeLight = "light"
)

// Theme is the palette the test view renders with. The engine never sees it.
type Theme struct {
	Name        string
	Correct     lipgloss.Color
	Incorrect   lipgloss.Color
	Pending     lipgloss.Color
	CurrentWord lipgloss.Color
	Accent      lipgloss.Color
	Muted       lipgloss.Color
}

// DarkTheme is the default palette.
func DarkTheme() Theme {
	return Theme{
		Name:        ThemeDark,
		Correct:     lipgloss.Color("#F0F0F0"),
		Incorrect:   lipgloss.Color("#FF4D4F"),
		Pending:     lipgloss.Color("#8C8C8C"),
		CurrentWord: lipgloss.Color("#C89A3A"),
		Accent:      lipgloss.Color("#5FB3F9"),
		Muted:       lipgloss.Color("#6E6E6E"),
	}
}

// LightTheme suits terminals with a light background.
func LightTheme() Theme {
	return Theme{
		Name:        ThemeLight,
		Correct:     lipgloss.Color("#1F1F1F"),
		Incorrect:   lipgloss.Color("#D4380D"),
		Pending:     lipgloss.Color("#A0A0A0"),
		CurrentWord: lipgloss.Color("#9A6B00"),
		Accent:      lipgloss.Color("#1765AD"),
		Muted:       lipgloss.Color("#8C8C8C"),
	}
}

// ThemeByName returns the named theme, defaulting to dark.
func ThemeByName(name string) Theme {
	if strings.EqualFold(name, ThemeLight) {
		return LightTheme()
	}
	return DarkTheme()
}

// ValidTheme reports whether name is a known theme.
func ValidTheme(name string) bool {
	return strings.EqualFold(name, ThemeDark) || strings.EqualFold(name, ThemeLight)
}

// Toggle switches between dark and light.
func (t Theme) Toggle() Theme {
	if t.Name == ThemeLight {
		return DarkTheme()
	}
	return LightTheme()
}

type styles struct {
	correct     lipgloss.Style
	incorrect   lipgloss.Style
	pending     lipgloss.Style
	currentWord lipgloss.Style
	cursor      lipgloss.Style
	footer      lipgloss.Style
	title       lipgloss.Style
	accent      lipgloss.Style
	countdown   lipgloss.Style
	panel       lipgloss.Style
}

func newStyles(t Theme) styles {
	pending := lipgloss.NewStyle().Foreground(t.Pending)
	return styles{
		correct:     lipgloss.NewStyle().Foreground(t.Correct),
		incorrect:   lipgloss.NewStyle().Foreground(t.Incorrect),
		pending:     pending,
		currentWord: lipgloss.NewStyle().Foreground(t.CurrentWord),
		cursor:      pending.Underline(true),
		footer:      lipgloss.NewStyle().Foreground(t.Muted),
		title:       lipgloss.NewStyle().Foreground(t.Correct).Bold(true),
		accent:      lipgloss.NewStyle().Foreground(t.Accent).Bold(true),
		countdown:   lipgloss.NewStyle().Foreground(t.CurrentWord).Bold(true),
		panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Muted).
			Padding(1, 3),
	}
}
