package tui

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme is a color scheme.
type Theme struct {
	Name       string
	Foreground lipgloss.Color
	Primary    lipgloss.Color
	Accent     lipgloss.Color
	Muted      lipgloss.Color
	Border     lipgloss.Color
	Error      lipgloss.Color
}

func LightTheme() Theme {
	return Theme{
		Name:       "light",
		Foreground: lipgloss.Color("#1b1f24"),
		Primary:    lipgloss.Color("#0b57d0"),
		Accent:     lipgloss.Color("#146c2e"),
		Muted:      lipgloss.Color("#6e7781"),
		Border:     lipgloss.Color("#d0d7de"),
		Error:      lipgloss.Color("#b3261e"),
	}
}

func DarkTheme() Theme {
	return Theme{
		Name:       "dark",
		Foreground: lipgloss.Color("#e6edf3"),
		Primary:    lipgloss.Color("#8ab4f8"),
		Accent:     lipgloss.Color("#81c995"),
		Muted:      lipgloss.Color("#8b949e"),
		Border:     lipgloss.Color("#30363d"),
		Error:      lipgloss.Color("#f28b82"),
	}
}

// ThemeFor maps the theme preference to a Theme. "system" follows the
// terminal background.
func ThemeFor(name string) Theme {
	switch name {
	case "light":
		return LightTheme()
	case "dark":
		return DarkTheme()
	default:
		if lipgloss.HasDarkBackground() {
			return DarkTheme()
		}
		return LightTheme()
	}
}

// Styles holds the rendered components of the UI.
type Styles struct {
	Theme Theme

	ActiveTab   lipgloss.Style
	InactiveTab lipgloss.Style
	TabGap      lipgloss.Style
	Section     lipgloss.Style
	Body        lipgloss.Style
	Muted       lipgloss.Style
	Error       lipgloss.Style
	Selected    lipgloss.Style
	Footer      lipgloss.Style
}

func NewStyles(theme Theme) Styles {
	tab := lipgloss.NewStyle().Padding(0, 1)
	return Styles{
		Theme: theme,

		ActiveTab: tab.
			Bold(true).
			Foreground(theme.Primary).
			Underline(true),
		InactiveTab: tab.
			Foreground(theme.Muted),
		TabGap: lipgloss.NewStyle().
			Foreground(theme.Border),

		Section: lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.Accent),
		Body: lipgloss.NewStyle().
			Foreground(theme.Foreground),
		Muted: lipgloss.NewStyle().
			Foreground(theme.Muted),
		Error: lipgloss.NewStyle().
			Foreground(theme.Error),
		Selected: lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.Primary),
		Footer: lipgloss.NewStyle().
			Foreground(theme.Muted).
			Padding(0, 1),
	}
}
