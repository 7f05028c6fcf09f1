package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/conorfennell/studydesk/internal/domain"
)

// Styles is the set of lipgloss styles for one theme.
type Styles struct {
	Title    lipgloss.Style
	Subject  lipgloss.Style
	Selected lipgloss.Style
	Stats    lipgloss.Style
	Button   lipgloss.Style
	Disabled lipgloss.Style
	Output   lipgloss.Style
	Error    lipgloss.Style
	Notice   lipgloss.Style
	Help     lipgloss.Style
}

type palette struct {
	fg, muted, accent, accentFg, border, danger lipgloss.Color
}

var palettes = map[domain.Theme]palette{
	domain.ThemeLight: {fg: "#1f2328", muted: "#6e7781", accent: "#0969da", accentFg: "#ffffff", border: "#d0d7de", danger: "#cf222e"},
	domain.ThemeDark:  {fg: "#e6edf3", muted: "#8b949e", accent: "#2f81f7", accentFg: "#0d1117", border: "#30363d", danger: "#f85149"},
}

// NewStyles builds the styles for theme.
func NewStyles(theme domain.Theme) Styles {
	p, ok := palettes[theme]
	if !ok {
		p = palettes[domain.ThemeLight]
	}
	return Styles{
		Title:    lipgloss.NewStyle().Bold(true).Foreground(p.accent),
		Subject:  lipgloss.NewStyle().Foreground(p.muted).Padding(0, 1),
		Selected: lipgloss.NewStyle().Bold(true).Foreground(p.accentFg).Background(p.accent).Padding(0, 1),
		Stats:    lipgloss.NewStyle().Foreground(p.fg),
		Button:   lipgloss.NewStyle().Bold(true).Foreground(p.accentFg).Background(p.accent).Padding(0, 2),
		Disabled: lipgloss.NewStyle().Foreground(p.muted).Background(p.border).Padding(0, 2),
		Output:   lipgloss.NewStyle().Foreground(p.fg).Border(lipgloss.RoundedBorder()).BorderForeground(p.border).Padding(0, 1),
		Error:    lipgloss.NewStyle().Foreground(p.danger).Border(lipgloss.RoundedBorder()).BorderForeground(p.danger).Padding(0, 1),
		Notice:   lipgloss.NewStyle().Foreground(p.danger),
		Help:     lipgloss.NewStyle().Foreground(p.muted),
	}
}
