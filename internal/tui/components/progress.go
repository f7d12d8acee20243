package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/tripbudget/internal/tui/theme"
)

// SavingsBar renders a savings progress bar with its percentage.
func SavingsBar(pct float64, width int) string {
	t := theme.Active
	pct = min(max(pct, 0), 1)
	color := t.ForProgress(pct)

	bar := progress.New(
		progress.WithSolidFill(string(color)),
		progress.WithWidth(max(width-6, 4)),
		progress.WithoutPercentage(),
	)
	bar.EmptyColor = string(t.TextDim)

	pctStyle := lipgloss.NewStyle().Foreground(color).Bold(true)
	return bar.ViewAs(pct) + " " + pctStyle.Render(fmt.Sprintf("%3.0f%%", pct*100))
}

// ShareBar renders one labeled horizontal bar, e.g. a category's share of
// the total.
func ShareBar(label string, color lipgloss.Color, share float64, labelW, barW int, value string) string {
	t := theme.Active
	share = min(max(share, 0), 1)
	filled := int(share * float64(barW))

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted)
	return labelStyle.Render(pad(label, labelW)) + " " +
		lipgloss.NewStyle().Foreground(color).Render(strings.Repeat("█", filled)) +
		lipgloss.NewStyle().Foreground(t.TextDim).Render(strings.Repeat("░", barW-filled)) +
		" " + lipgloss.NewStyle().Foreground(t.TextPrimary).Render(value)
}

func pad(s string, w int) string {
	if gap := w - lipgloss.Width(s); gap > 0 {
		return s + strings.Repeat(" ", gap)
	}
	return s
}
