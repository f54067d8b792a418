package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/nathoo/fancypick/engine"
	"github.com/nathoo/fancypick/engine/state"
	"github.com/nathoo/fancypick/loader"
)

const testSource = `
Settings { title = "Test Session", author = "Test", seed = 11 }
Picker "speed" { "step", 0, 5, 20 }
Picker "dice" (Random { { 1, 1, 6 } })
`

// testDefs returns minimal picker definitions for CLI testing.
func testDefs(t *testing.T) *state.Defs {
	t.Helper()
	defs, err := loader.LoadString(testSource)
	if err != nil {
		t.Fatalf("LoadString: %v", err)
	}
	t.Cleanup(defs.Close)
	return defs
}

func newTestCLIWith(t *testing.T, defs *state.Defs, input, dir string) (*CLI, *bytes.Buffer) {
	t.Helper()
	eng, err := engine.New(defs)
	if err != nil {
		t.Fatalf("engine.New: %v", err)
	}
	var out bytes.Buffer
	c := &CLI{
		Session: &Session{Engine: eng, Defs: defs, SaveDir: dir},
		In:      strings.NewReader(input),
		Out:     &out,
	}
	return c, &out
}

func newTestCLI(t *testing.T, input string) (*CLI, *bytes.Buffer) {
	t.Helper()
	return newTestCLIWith(t, testDefs(t), input, t.TempDir())
}

func TestCLI_Banner(t *testing.T) {
	c, out := newTestCLI(t, "/quit\n")
	c.Run()

	output := out.String()
	if !strings.Contains(output, "Test Session by Test") {
		t.Error("expected title in output")
	}
	if !strings.Contains(output, "2 picker(s) loaded, seed 11") {
		t.Errorf("expected picker count and seed, got %q", output)
	}
}

func TestCLI_Pick(t *testing.T) {
	c, out := newTestCLI(t, "loop 2\npick speed\n/quit\n")
	c.Run()

	if !strings.Contains(out.String(), "speed = 10") {
		t.Errorf("expected 'speed = 10', got %q", out.String())
	}
}

func TestCLI_HelpCommand(t *testing.T) {
	c, out := newTestCLI(t, "/help\n/quit\n")
	c.Run()

	output := out.String()
	for _, want := range []string{"/save", "/load", "/quit", "pick <name>", "override"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in help output", want)
		}
	}
}

func TestCLI_SaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	defs := testDefs(t)

	// Pick a bit and save.
	c, out := newTestCLIWith(t, defs, "loop 3\npick dice 2\nset speed {4}\n/save test\n/quit\n", dir)
	c.Run()
	if !strings.Contains(out.String(), "Session saved to test.") {
		t.Fatalf("expected save confirmation, got %q", out.String())
	}

	// Start fresh and load.
	c2, out2 := newTestCLIWith(t, testDefs(t), "/load test\npick speed\n/quit\n", dir)
	c2.Run()

	loadOutput := out2.String()
	if !strings.Contains(loadOutput, "Session loaded from test (turn 3)") {
		t.Errorf("expected load confirmation, got %q", loadOutput)
	}
	if !strings.Contains(loadOutput, "Loop: 3  Restart: 0") {
		t.Errorf("expected restored counters, got %q", loadOutput)
	}
	if !strings.Contains(loadOutput, "position 4") {
		t.Errorf("expected restored RNG position, got %q", loadOutput)
	}
	if !strings.Contains(loadOutput, "Session: "+c.Engine.State.SessionID) {
		t.Errorf("expected the saved session id, got %q", loadOutput)
	}
	if !strings.Contains(loadOutput, "speed = 4") {
		t.Errorf("expected restored picker, got %q", loadOutput)
	}
}

func TestCLI_UnknownMetaCommand(t *testing.T) {
	c, out := newTestCLI(t, "/bogus\n/quit\n")
	c.Run()

	if !strings.Contains(out.String(), "Unknown command") {
		t.Error("expected unknown command message")
	}
}

func TestCLI_TraceToggle(t *testing.T) {
	c, out := newTestCLI(t, "/trace\npick dice\n/trace\npick dice\n/quit\n")
	c.Run()

	output := out.String()
	if !strings.Contains(output, "Trace output enabled") {
		t.Error("expected trace enabled message")
	}
	if !strings.Contains(output, "[trace] draws: 2, position: 2") {
		t.Errorf("expected draw trace, got %q", output)
	}
	if strings.Count(output, "[trace] draws") != 1 {
		t.Error("trace should stop after the second toggle")
	}
}

func TestCLI_StateCommand(t *testing.T) {
	c, out := newTestCLI(t, "restart\n/state\n/quit\n")
	c.Run()

	output := out.String()
	if !strings.Contains(output, "Loop: 0  Restart: 1") {
		t.Error("expected counters in state output")
	}
	if !strings.Contains(output, "Turn: 1") {
		t.Error("expected turn count in state output")
	}
}

func TestCLI_EmptyAndCommentLines(t *testing.T) {
	c, out := newTestCLI(t, "\n# a comment\n\n/quit\n")
	c.Run()

	if strings.Contains(out.String(), "Enter a command") {
		t.Error("empty lines should be silently skipped by CLI")
	}
	if c.Engine.State.TurnCount != 0 {
		t.Errorf("TurnCount = %d, want 0", c.Engine.State.TurnCount)
	}
}

func TestCLI_LoadNonexistent(t *testing.T) {
	c, out := newTestCLI(t, "/load nonexistent\n/quit\n")
	c.Run()

	if !strings.Contains(out.String(), "Load failed") {
		t.Error("expected load failure message")
	}
}

func TestCLI_Again_RepeatsLastCommand(t *testing.T) {
	for _, again := range []string{"again", "g"} {
		c, _ := newTestCLI(t, "loop\n"+again+"\n/quit\n")
		c.Run()
		if c.Engine.State.LoopNum != 2 {
			t.Errorf("%s: LoopNum = %d, want 2", again, c.Engine.State.LoopNum)
		}
	}
}

func TestCLI_Again_NothingToRepeat(t *testing.T) {
	c, out := newTestCLI(t, "again\n/quit\n")
	c.Run()

	if !strings.Contains(out.String(), "Nothing to repeat") {
		t.Error("expected 'Nothing to repeat' when no prior command")
	}
}

func TestCLI_EchoInput(t *testing.T) {
	c, out := newTestCLI(t, "pick speed\n/quit\n")
	c.EchoInput = true
	c.Run()

	if !strings.Contains(out.String(), "> pick speed\n") {
		t.Errorf("expected echoed input, got %q", out.String())
	}
}

func TestCLI_ListSaves(t *testing.T) {
	c, out := newTestCLI(t, "/saves\n/save beta\n/save\n/save alpha\n/saves\n/quit\n")
	c.Run()

	output := out.String()
	if !strings.Contains(output, "[No saved sessions.]") {
		t.Errorf("expected empty listing first, got %q", output)
	}
	if !strings.Contains(output, "[Saved sessions: alpha, beta, quicksave]") {
		t.Errorf("expected sorted save names, got %q", output)
	}
}

func TestCLI_AgainSkipsMetaCommands(t *testing.T) {
	c, _ := newTestCLI(t, "loop\n/state\ng\n/quit\n")
	c.Run()

	if c.Engine.State.LoopNum != 2 {
		t.Errorf("LoopNum = %d, want 2", c.Engine.State.LoopNum)
	}
}
