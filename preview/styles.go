package preview

import "github.com/charmbracelet/lipgloss"

var (
	colorHint   = lipgloss.Color("#06b6d4") // cyan-500
	colorTitle  = lipgloss.Color("#3b82f6") // blue-500
	colorDim    = lipgloss.Color("#6b7280") // gray-500
	colorErr    = lipgloss.Color("#ef4444") // red-500
	colorGutter = lipgloss.Color("#374151") // gray-700
)

// Styles holds the lipgloss styles for the preview TUI.
type Styles struct {
	Hint   lipgloss.Style
	Title  lipgloss.Style
	Dim    lipgloss.Style
	Err    lipgloss.Style
	Gutter lipgloss.Style
}

// DefaultStyles returns the default preview styles.
func DefaultStyles() *Styles {
	return &Styles{
		Hint:   lipgloss.NewStyle().Foreground(colorHint).Italic(true),
		Title:  lipgloss.NewStyle().Foreground(colorTitle).Bold(true),
		Dim:    lipgloss.NewStyle().Foreground(colorDim),
		Err:    lipgloss.NewStyle().Foreground(colorErr).Bold(true),
		Gutter: lipgloss.NewStyle().Foreground(colorGutter),
	}
}
