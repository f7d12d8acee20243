package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/tripbudget/internal/tui/theme"
)

// RenderTabBar renders tab names with the active one highlighted. Each
// inactive tab shows its 1-based shortcut.
func RenderTabBar(names []string, active int) string {
	t := theme.Active

	activeStyle := lipgloss.NewStyle().
		Foreground(t.Accent).
		Background(t.SurfaceHover).
		Bold(true).
		Padding(0, 1)
	inactiveStyle := lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Padding(0, 1)
	keyStyle := lipgloss.NewStyle().Foreground(t.TextDim)

	parts := make([]string, len(names))
	for i, name := range names {
		if i == active {
			parts[i] = activeStyle.Render(name)
			continue
		}
		parts[i] = inactiveStyle.Render(keyStyle.Render(string(rune('1'+i))) + " " + name)
	}
	return strings.Join(parts, " ")
}

// RenderStatusBar renders the bottom bar with key hints on the left and
// info on the right.
func RenderStatusBar(width int, hints, info string) string {
	t := theme.Active

	gap := max(width-lipgloss.Width(hints)-lipgloss.Width(info), 0)
	return lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Width(width).
		Render(hints + strings.Repeat(" ", gap) + info)
}
