// Package cli runs a picker session over plain text I/O and holds the
// slash commands the terminal UI shares.
package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/nathoo/fancypick/engine"
	"github.com/nathoo/fancypick/engine/state"
)

// CLI is the line-oriented front end, used for --plain, pipes and scripts.
type CLI struct {
	*Session
	In        io.Reader
	Out       io.Writer
	EchoInput bool // echo each input line after the prompt (for script playback)
}

// New creates a CLI on stdin/stdout wired to the given engine.
func New(eng *engine.Engine, defs *state.Defs) *CLI {
	return &CLI{
		Session: NewSession(eng, defs),
		In:      os.Stdin,
		Out:     os.Stdout,
	}
}

// Run shows the banner and then reads commands until EOF or /quit.
// Blank lines and "#" comments are skipped so scripts can be annotated.
func (c *CLI) Run() {
	for _, line := range c.Banner() {
		c.printLine(line)
	}

	scanner := bufio.NewScanner(c.In)
	for {
		fmt.Fprint(c.Out, "> ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" || strings.HasPrefix(input, "#") {
			continue
		}
		if c.EchoInput {
			c.printLine(input)
		}

		input, ok := c.Expand(input)
		if !ok {
			c.printLine("Nothing to repeat.")
			continue
		}

		if strings.HasPrefix(input, "/") {
			reply := c.Meta(input)
			for _, line := range reply.Lines {
				if reply.System {
					line = "[" + line + "]"
				}
				c.printLine(line)
			}
			if reply.Quit {
				return
			}
			continue
		}

		result := c.Engine.Step(input)
		for _, line := range result.Output {
			c.printLine(line)
		}
		for _, line := range c.TraceLines(result) {
			c.printLine(line)
		}
	}
}

func (c *CLI) printLine(text string) {
	fmt.Fprintln(c.Out, text)
}
