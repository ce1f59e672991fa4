// Package styles provides shared lipgloss styles for CLI and TUI components.
package styles

import (
	"sort"

	"github.com/charmbracelet/lipgloss"
)

// Palette defines a minimal semantic theme palette.
type Palette struct {
	Primary    lipgloss.Color
	Secondary  lipgloss.Color
	Foreground lipgloss.Color
	Muted      lipgloss.Color
	Surface    lipgloss.Color
	Success    lipgloss.Color
	Warning    lipgloss.Color
	Error      lipgloss.Color
	// GlamourStyle is the glamour standard style used for markdown panes.
	GlamourStyle string
}

// DefaultTheme is the name of the default theme.
const DefaultTheme = "tokyo-night"

var themes = map[string]Palette{
	"tokyo-night": {
		Primary:      lipgloss.Color("#7aa2f7"),
		Secondary:    lipgloss.Color("#7dcfff"),
		Foreground:   lipgloss.Color("#c0caf5"),
		Muted:        lipgloss.Color("#565f89"),
		Surface:      lipgloss.Color("#3b4261"),
		Success:      lipgloss.Color("#9ece6a"),
		Warning:      lipgloss.Color("#e0af68"),
		Error:        lipgloss.Color("#f7768e"),
		GlamourStyle: "tokyo-night",
	},
	"gruvbox": {
		Primary:      lipgloss.Color("#83a598"),
		Secondary:    lipgloss.Color("#8ec07c"),
		Foreground:   lipgloss.Color("#ebdbb2"),
		Muted:        lipgloss.Color("#665c54"),
		Surface:      lipgloss.Color("#3c3836"),
		Success:      lipgloss.Color("#b8bb26"),
		Warning:      lipgloss.Color("#fabd2f"),
		Error:        lipgloss.Color("#fb4934"),
		GlamourStyle: "dark",
	},
	"light": {
		Primary:      lipgloss.Color("#2e7de9"),
		Secondary:    lipgloss.Color("#007197"),
		Foreground:   lipgloss.Color("#3760bf"),
		Muted:        lipgloss.Color("#848cb5"),
		Surface:      lipgloss.Color("#c4c8da"),
		Success:      lipgloss.Color("#587539"),
		Warning:      lipgloss.Color("#8c6c3e"),
		Error:        lipgloss.Color("#f52a65"),
		GlamourStyle: "light",
	},
}

// ThemeNames returns sorted names of all built-in themes.
func ThemeNames() []string {
	names := make([]string, 0, len(themes))
	for name := range themes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetPalette returns the palette for the given theme name.
func GetPalette(name string) (Palette, bool) {
	p, ok := themes[name]
	return p, ok
}

// CurrentPalette holds the active theme palette.
var CurrentPalette Palette

// Style exports.
var (
	// CLI styles.
	InfoStyle    lipgloss.Style
	SuccessStyle lipgloss.Style
	WarnStyle    lipgloss.Style
	ErrorStyle   lipgloss.Style
	MutedStyle   lipgloss.Style
	HeaderStyle  lipgloss.Style
	DividerStyle lipgloss.Style

	// Viewer styles.
	PaneStyle        lipgloss.Style
	PaneFocusedStyle lipgloss.Style
	PaneTitleStyle   lipgloss.Style
	SelectedRowStyle lipgloss.Style
	HelpStyle        lipgloss.Style

	// Diff summary styles.
	GitAdditionsStyle lipgloss.Style
	GitDeletionsStyle lipgloss.Style
)

// SetTheme sets the active palette and rebuilds all global styles.
func SetTheme(p Palette) {
	CurrentPalette = p

	InfoStyle = lipgloss.NewStyle().Foreground(p.Primary)
	SuccessStyle = lipgloss.NewStyle().Foreground(p.Success)
	WarnStyle = lipgloss.NewStyle().Foreground(p.Warning)
	ErrorStyle = lipgloss.NewStyle().Foreground(p.Error).Bold(true)
	MutedStyle = lipgloss.NewStyle().Foreground(p.Muted)
	HeaderStyle = lipgloss.NewStyle().Foreground(p.Primary).Bold(true)
	DividerStyle = lipgloss.NewStyle().Foreground(p.Muted)

	PaneStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.Surface)
	PaneFocusedStyle = PaneStyle.
		BorderForeground(p.Primary)
	PaneTitleStyle = lipgloss.NewStyle().
		Foreground(p.Secondary).
		Bold(true)
	SelectedRowStyle = lipgloss.NewStyle().
		Background(p.Surface).
		Foreground(p.Foreground)
	HelpStyle = lipgloss.NewStyle().Foreground(p.Muted)

	GitAdditionsStyle = lipgloss.NewStyle().Foreground(p.Success)
	GitDeletionsStyle = lipgloss.NewStyle().Foreground(p.Error)
}

func init() {
	SetTheme(themes[DefaultTheme])
}
