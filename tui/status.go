package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// renderStatusBar produces a full-width inverted status line showing the
// session title, counters, RNG position, picker count and turn.
func (m Model) renderStatusBar() string {
	eng := m.session.Engine
	s := eng.State

	title := m.session.Defs.Settings.Title
	if title == "" {
		title = "fancypick"
	}
	left := fmt.Sprintf(" %s | Loop: %d | Restart: %d", title, s.LoopNum, s.RestartNum)
	right := fmt.Sprintf("RNG: %d | Pickers: %d | T:%d ",
		eng.RNG.Position(), eng.Pickers.Len(), s.TurnCount)

	// Drop the title first when the bar does not fit.
	if lipgloss.Width(left)+lipgloss.Width(right) > m.width {
		left = fmt.Sprintf(" L:%d R:%d", s.LoopNum, s.RestartNum)
	}

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}

	bar := left + strings.Repeat(" ", gap) + right
	return styleStatusBar.Width(m.width).Render(bar)
}
