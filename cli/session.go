package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/nathoo/fancypick/engine"
	"github.com/nathoo/fancypick/engine/save"
	"github.com/nathoo/fancypick/engine/state"
	"github.com/nathoo/fancypick/types"
)

const defaultSaveName = "quicksave"

// Session holds what both front ends share around an engine: the save
// directory, the trace toggle, the slash commands and "again".
type Session struct {
	Engine  *engine.Engine
	Defs    *state.Defs
	SaveDir string
	Trace   bool

	lastCmd string
}

// Reply is the outcome of a slash command.
type Reply struct {
	Lines  []string
	System bool // status lines rather than reference text such as /help
	Quit   bool
}

// NewSession wraps eng with the default save directory.
func NewSession(eng *engine.Engine, defs *state.Defs) *Session {
	return &Session{Engine: eng, Defs: defs, SaveDir: DefaultSaveDir()}
}

// DefaultSaveDir is where sessions are saved when no profile says otherwise.
func DefaultSaveDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".fancypick", "saves")
}

// Expand turns "again" or "g" into the last session command. Slash
// commands are never remembered. ok is false when there is nothing to
// repeat.
func (s *Session) Expand(input string) (cmd string, ok bool) {
	if strings.HasPrefix(input, "/") {
		return input, true
	}
	switch strings.ToLower(input) {
	case "again", "g":
		return s.lastCmd, s.lastCmd != ""
	}
	s.lastCmd = input
	return input, true
}

// Banner returns the lines shown when a session starts.
func (s *Session) Banner() []string {
	var lines []string
	if st := s.Defs.Settings; st.Title != "" {
		header := st.Title
		if st.Version != "" {
			header += " v" + st.Version
		}
		if st.Author != "" {
			header += " by " + st.Author
		}
		lines = append(lines, header, "")
	}
	return append(lines, fmt.Sprintf("%d picker(s) loaded, seed %d. Type /help for commands.",
		s.Engine.Pickers.Len(), s.Engine.RNG.Seed()))
}

// Meta runs one slash command.
func (s *Session) Meta(input string) Reply {
	parts := strings.Fields(input)
	cmd := parts[0]
	var arg string
	if len(parts) > 1 {
		arg = parts[1]
	}

	switch cmd {
	case "/quit", "/exit":
		return Reply{Lines: []string{"Goodbye."}, System: true, Quit: true}
	case "/save":
		return system(s.save(arg))
	case "/load":
		return system(s.load(arg)...)
	case "/saves":
		return system(s.saves()...)
	case "/help":
		return Reply{Lines: helpLines}
	case "/state":
		return system(s.StateLines()...)
	case "/trace":
		s.Trace = !s.Trace
		if s.Trace {
			return system("Trace output enabled.")
		}
		return system("Trace output disabled.")
	}
	return system(fmt.Sprintf("Unknown command: %s. Type /help for available commands.", cmd))
}

func system(lines ...string) Reply {
	return Reply{Lines: lines, System: true}
}

func (s *Session) savePath(name string) (string, string) {
	if name == "" {
		name = defaultSaveName
	}
	return name, filepath.Join(s.SaveDir, name+".json")
}

func (s *Session) save(name string) string {
	name, path := s.savePath(name)
	data, err := save.Save(s.Engine.State, s.Defs, s.Engine.Pickers)
	if err != nil {
		return fmt.Sprintf("Save failed: %v", err)
	}
	if err := os.MkdirAll(s.SaveDir, 0o755); err != nil {
		return fmt.Sprintf("Save failed: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Sprintf("Save failed: %v", err)
	}
	return fmt.Sprintf("Session saved to %s.", name)
}

func (s *Session) load(name string) []string {
	name, path := s.savePath(name)
	data, err := os.ReadFile(path)
	if err != nil {
		return []string{fmt.Sprintf("Load failed: %v", err)}
	}
	sd, err := save.Load(data)
	if err == nil {
		err = save.Restore(s.Engine, sd)
	}
	if err != nil {
		return []string{fmt.Sprintf("Load failed: %v", err)}
	}
	lines := []string{fmt.Sprintf("Session loaded from %s (turn %d).", name, sd.Turn)}
	return append(lines, s.StateLines()...)
}

// saves lists the save names in SaveDir.
func (s *Session) saves() []string {
	matches, err := filepath.Glob(filepath.Join(s.SaveDir, "*.json"))
	if err != nil || len(matches) == 0 {
		return []string{"No saved sessions."}
	}
	sort.Strings(matches)
	names := make([]string, len(matches))
	for i, m := range matches {
		names[i] = strings.TrimSuffix(filepath.Base(m), ".json")
	}
	return []string{"Saved sessions: " + strings.Join(names, ", ")}
}

// StateLines describes the counters and RNG position.
func (s *Session) StateLines() []string {
	st := s.Engine.State
	return []string{
		fmt.Sprintf("Turn: %d", st.TurnCount),
		fmt.Sprintf("Loop: %d  Restart: %d", st.LoopNum, st.RestartNum),
		fmt.Sprintf("RNG: seed %d, position %d", st.RNGSeed, s.Engine.RNG.Position()),
		"Session: " + st.SessionID,
	}
}

// TraceLines describes the draws a step consumed. Nil unless tracing.
func (s *Session) TraceLines(result types.Result) []string {
	if !s.Trace {
		return nil
	}
	lines := []string{fmt.Sprintf("[trace] draws: %d, position: %d", result.Draws, s.Engine.RNG.Position())}
	if result.Err != nil {
		lines = append(lines, fmt.Sprintf("[trace] error: %v", result.Err))
	}
	return lines
}

var helpLines = []string{
	"System:",
	"  /save [name]  Save session (default: quicksave)",
	"  /load [name]  Load session (default: quicksave)",
	"  /saves        List saved sessions",
	"  /quit         Exit",
	"  /help         Show this help",
	"  /state        Show counters and RNG position",
	"  /trace        Toggle draw trace output",
	"",
	"Session commands:",
	"  pick <name> [n] (p)        Pick n values (or just type the name)",
	"  loop [n] (l)               Advance the loop counter",
	"  restart (r)                Start a new restart period",
	"  run [n]                    Pick every picker for n loops",
	"  list (ls)                  List pickers",
	"  show [name] (s)            Show a picker's definition",
	"  range <name>               Show the value range",
	"  weights <name> (w)         Show random weights",
	"  coverage (cov)             Report items never picked",
	"  set <name> <definition>    Reconfigure a picker, e.g. set hp {\"step\", 0, 1, 9}",
	"  override <name> [def]      Override a picker temporarily",
	"  release <name>             End an override",
	"  again (g)                  Repeat your last command",
	"",
	"Pickers can be named by a word of their name (max for max_speed) or by #n.",
}
