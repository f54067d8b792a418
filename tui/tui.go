package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nathoo/fancypick/cli"
	"github.com/nathoo/fancypick/engine"
	"github.com/nathoo/fancypick/engine/state"
)

const historySize = 100

// entry is one scrollback line kept unstyled so it can be re-wrapped
// when the terminal is resized.
type entry struct {
	text string
	kind lineKind
	echo bool // the user's own input
}

// Model is the Bubble Tea model for a picker session.
type Model struct {
	session *cli.Session

	viewport viewport.Model
	input    textinput.Model
	history  *History
	lines    []entry

	width, height int
	ready         bool
	quitting      bool
}

// outputMsg carries lines into the Update loop; the banner arrives this way.
type outputMsg struct {
	lines []string
}

// New creates a TUI model wired to the given engine.
func New(eng *engine.Engine, defs *state.Defs) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.PromptStyle = styleInputPrompt
	ti.CharLimit = 256
	ti.Focus()

	return Model{
		session: cli.NewSession(eng, defs),
		input:   ti,
		history: NewHistory(historySize),
	}
}

// Run starts the full-screen session. An empty saveDir keeps the default.
func Run(eng *engine.Engine, defs *state.Defs, saveDir string) error {
	m := New(eng, defs)
	if saveDir != "" {
		m.session.SaveDir = saveDir
	}
	_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion()).Run()
	return err
}

func (m Model) Init() tea.Cmd {
	banner := m.session.Banner()
	return tea.Batch(textinput.Blink, func() tea.Msg { return outputMsg{lines: banner} })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case outputMsg:
		m.appendLines(msg.lines, kindPlain)
		m.appendLines([]string{""}, kindPlain)
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		if next, cmd, handled := m.handleKey(msg); handled {
			return next, cmd
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) resize(w, h int) {
	m.width, m.height = w, h
	vpHeight := max(h-2, 1) // status bar and input line
	if !m.ready {
		m.viewport = viewport.New(w, vpHeight)
		m.viewport.KeyMap = viewportKeyMap()
		m.ready = true
	} else {
		m.viewport.Width, m.viewport.Height = w, vpHeight
	}
	m.refresh()
}

// handleKey reports handled=false for keys the text input should see.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	switch msg.String() {
	case "ctrl+c":
		m.quitting = true
		return m, tea.Quit, true
	case "enter":
		next, cmd := m.submit()
		return next, cmd, true
	case "up":
		if prev, ok := m.history.Prev(); ok {
			m.setInput(prev)
		}
		return m, nil, true
	case "down":
		next, ok := m.history.Next()
		if !ok {
			m.history.ResetCursor()
		}
		m.setInput(next)
		return m, nil, true
	case "tab":
		m.setInput(complete(m.input.Value(), m.session.Engine.Pickers.Names()))
		return m, nil, true
	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd, true
	}
	return m, nil, false
}

func (m *Model) setInput(s string) {
	m.input.SetValue(s)
	m.input.CursorEnd()
}

// submit runs the input line as a slash command or a session command.
func (m Model) submit() (tea.Model, tea.Cmd) {
	raw := strings.TrimSpace(m.input.Value())
	m.input.SetValue("")
	if raw == "" {
		return m, nil
	}
	m.history.Push(raw)
	m.history.ResetCursor()
	m.lines = append(m.lines, entry{text: "> " + raw, echo: true})

	input, ok := m.session.Expand(raw)
	switch {
	case !ok:
		m.appendLines([]string{"Nothing to repeat."}, kindSystem)

	case strings.HasPrefix(input, "/"):
		reply := m.session.Meta(input)
		kind := kindPlain
		if reply.System {
			kind = kindSystem
		}
		m.appendLines(reply.Lines, kind)
		if reply.Quit {
			m.quitting = true
			return m, tea.Quit
		}

	default:
		result := m.session.Engine.Step(input)
		m.appendLines(result.Output, kindAuto)
		m.appendLines(m.session.TraceLines(result), kindTrace)
	}

	m.appendLines([]string{""}, kindPlain)
	m.refresh()
	return m, nil
}

// appendLines adds output lines of the given kind.
func (m *Model) appendLines(lines []string, kind lineKind) {
	for _, line := range lines {
		k := kind
		if k == kindAuto {
			k = classifyLine(line)
		}
		m.lines = append(m.lines, entry{text: line, kind: k})
	}
}

// refresh re-wraps and re-styles the scrollback at the current width.
func (m *Model) refresh() {
	if !m.ready {
		return
	}
	width := max(m.width, 10)

	styled := make([]string, len(m.lines))
	for i, e := range m.lines {
		if e.text == "" {
			continue
		}
		wrapped := wordWrap(e.text, width)
		switch {
		case e.echo:
			styled[i] = styleUserInput.Render(wrapped)
		case e.kind == kindSystem:
			styled[i] = styledSystemMsg(wrapped)
		default:
			styled[i] = renderLineKind(wrapped, e.kind)
		}
	}
	m.viewport.SetContent(strings.Join(styled, "\n"))
	m.viewport.GotoBottom()
}

// View stacks the scrollback, status bar and input line.
func (m Model) View() string {
	switch {
	case m.quitting:
		return ""
	case !m.ready:
		return "Loading..."
	}
	return m.viewport.View() + "\n" + m.renderStatusBar() + "\n" + m.input.View()
}

// wordWrap breaks text at spaces so no line exceeds width. Words longer
// than width stay whole.
func wordWrap(text string, width int) string {
	if width <= 0 || len(text) <= width {
		return text
	}
	var b strings.Builder
	n := 0
	for i, word := range strings.Fields(text) {
		switch {
		case i == 0:
		case n+1+len(word) > width:
			b.WriteByte('\n')
			n = 0
		default:
			b.WriteByte(' ')
			n++
		}
		b.WriteString(word)
		n += len(word)
	}
	return b.String()
}

// viewportKeyMap leaves Up/Down to the input history.
func viewportKeyMap() viewport.KeyMap {
	return viewport.KeyMap{
		PageDown:     key.NewBinding(key.WithKeys("pgdown")),
		PageUp:       key.NewBinding(key.WithKeys("pgup")),
		HalfPageDown: key.NewBinding(key.WithKeys("ctrl+d")),
		HalfPageUp:   key.NewBinding(key.WithKeys("ctrl+u")),
		Up:           key.NewBinding(key.WithDisabled()),
		Down:         key.NewBinding(key.WithDisabled()),
	}
}
