// fpick runs an interactive picker session over Lua picker definitions.
// Usage: fpick [--version] [--plain] [--profile <file.yaml>]... [--script <file>] [--trace] <pickers.lua|dir>
package main

import (
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/nathoo/fancypick/cli"
	"github.com/nathoo/fancypick/config"
	"github.com/nathoo/fancypick/engine"
	"github.com/nathoo/fancypick/engine/picker"
	"github.com/nathoo/fancypick/loader"
	"github.com/nathoo/fancypick/tui"
)

// Set via -ldflags at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const usage = "Usage: fpick [--version] [--plain] [--profile <file.yaml>]... [--script <file>] [--trace] <pickers.lua|dir>\n"

func main() {
	plain := false
	trace := false
	var path string
	var scriptFile string
	var profiles []string

	args := os.Args[1:]
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--version":
			fmt.Printf("fpick %s (commit %s, built %s)\n", version, commit, date)
			return
		case "--plain":
			plain = true
		case "--trace":
			trace = true
		case "--script", "--profile":
			if i+1 >= len(args) {
				fmt.Fprintf(os.Stderr, "%s requires a file path\n", args[i])
				os.Exit(1)
			}
			if args[i] == "--script" {
				scriptFile = args[i+1]
			} else {
				profiles = append(profiles, args[i+1])
			}
			i++
		default:
			if path == "" {
				path = args[i]
			}
		}
	}

	if path == "" {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	profile, err := config.Load(profiles...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading profile: %v\n", err)
		os.Exit(1)
	}
	level, _ := profile.SlogLevel() // validated by config.Load
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	picker.SetLogger(logger)

	if err := run(path, scriptFile, plain, trace, profile); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(path, scriptFile string, plain, trace bool, profile config.Profile) error {
	defs, err := loader.Load(path)
	if err != nil {
		return fmt.Errorf("loading pickers: %w", err)
	}
	defer defs.Close()

	profile.Apply(&defs.Settings)

	eng, err := engine.New(defs)
	if err != nil {
		return err
	}
	eng.Strict = profile.Strict()

	// Profile definitions replace the Lua ones, applied in name order.
	names := make([]string, 0, len(profile.Pickers))
	for name := range profile.Pickers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := eng.Set(name, profile.Pickers[name]); err != nil {
			return fmt.Errorf("profile picker %q: %w", name, err)
		}
	}
	if err := eng.SetPickOnRestart(profile.PickOnRestart); err != nil {
		return fmt.Errorf("profile pick_on_restart: %w", err)
	}

	// Script mode: open file, force plain, echo commands.
	if scriptFile != "" {
		f, err := os.Open(scriptFile)
		if err != nil {
			return fmt.Errorf("opening script: %w", err)
		}
		defer f.Close()
		c := newCLI(eng, profile, trace)
		c.In = f
		c.EchoInput = true
		c.Run()
		return nil
	}

	// Use plain CLI if --plain flag or stdout is not a terminal.
	if plain || !isTerminal() {
		newCLI(eng, profile, trace).Run()
		return nil
	}

	return tui.Run(eng, defs, profile.SaveDir)
}

func newCLI(eng *engine.Engine, profile config.Profile, trace bool) *cli.CLI {
	c := cli.New(eng, eng.Defs)
	c.Trace = trace
	if profile.SaveDir != "" {
		c.SaveDir = profile.SaveDir
	}
	return c
}

// isTerminal returns true if stdout is a terminal (not piped/redirected).
func isTerminal() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
