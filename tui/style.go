package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Styles used throughout the TUI.
var (
	styleStatusBar = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("252")).
			Bold(true)

	styleInputPrompt = lipgloss.NewStyle().
				Foreground(lipgloss.Color("34"))

	stylePlain = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	styleName = lipgloss.NewStyle().
			Bold(true)

	styleValues = lipgloss.NewStyle().
			Foreground(lipgloss.Color("228"))

	styleCounter = lipgloss.NewStyle().
			Foreground(lipgloss.Color("75"))

	styleWarn = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	styleSystem = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	styleError = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	styleUserInput = lipgloss.NewStyle().
			Foreground(lipgloss.Color("34"))

	styleTrace = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
)

// lineKind identifies the type of an output line for styling.
type lineKind int

const kindAuto lineKind = -1 // classify with classifyLine

const (
	kindPlain lineKind = iota
	kindValue          // "name = ..."
	kindCounter        // "loop 3", "restart 1", "loop 0: a=1 b=2"
	kindWarn
	kindSystem
	kindError
	kindTrace
)

// classifyLine determines what kind of output line this is.
func classifyLine(line string) lineKind {
	switch {
	case strings.HasPrefix(line, "[trace]"):
		return kindTrace
	case strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]"):
		return kindSystem
	case strings.HasPrefix(line, "error: "),
		strings.HasPrefix(line, "Unknown command"):
		return kindError
	case strings.Contains(line, "never used"):
		return kindWarn
	case strings.HasPrefix(line, "loop "), strings.HasPrefix(line, "restart "):
		return kindCounter
	case strings.Contains(line, " = "):
		return kindValue
	default:
		return kindPlain
	}
}

// styledValue renders "name = values" with the name bold.
func styledValue(line string) string {
	i := strings.Index(line, " = ")
	if i < 0 {
		return stylePlain.Render(line)
	}
	return styleName.Render(line[:i]) + stylePlain.Render(" = ") + styleValues.Render(line[i+3:])
}

// styledSystemMsg renders a system message in gray with brackets.
func styledSystemMsg(text string) string {
	return styleSystem.Render("[" + text + "]")
}

func renderLineKind(line string, kind lineKind) string {
	switch kind {
	case kindValue:
		return styledValue(line)
	case kindCounter:
		return styleCounter.Render(line)
	case kindWarn:
		return styleWarn.Render(line)
	case kindSystem:
		return styleSystem.Render(line)
	case kindError:
		return styleError.Render(line)
	case kindTrace:
		return styleTrace.Render(line)
	}
	return stylePlain.Render(line)
}
