// Package engine provides the Step() orchestrator that runs one session
// command against the picker array: parse, dispatch, then bookkeeping of
// counters and RNG position.
package engine

import (
	"fmt"
	"strings"

	"github.com/nathoo/fancypick/engine/parser"
	"github.com/nathoo/fancypick/engine/picker"
	"github.com/nathoo/fancypick/engine/state"
	"github.com/nathoo/fancypick/types"
)

// Engine holds the picker definitions, the configured pickers, and the
// mutable session state.
type Engine struct {
	Defs    *state.Defs
	State   *types.State
	RNG     *RNG
	Ctx     *picker.Context
	Pickers *picker.Array

	// Strict turns coverage findings into command failures.
	Strict bool
}

// New creates an engine and configures one picker per definition.
func New(defs *state.Defs) (*Engine, error) {
	s := state.NewState(defs)
	rng := NewRNG(s.RNGSeed)
	ctx := &picker.Context{Rand: rng, Opaque: s}
	arr, err := state.BuildArray(defs, ctx)
	if err != nil {
		return nil, err
	}
	return &Engine{
		Defs:    defs,
		State:   s,
		RNG:     rng,
		Ctx:     ctx,
		Pickers: arr,
	}, nil
}

// RestoreRNG re-creates the RNG from seed and advances to the saved position.
// Every picker sees the new source through the shared context.
func (e *Engine) RestoreRNG(seed int64, position int64) {
	e.RNG = RestoreRNG(seed, position)
	e.Ctx.Rand = e.RNG
	e.State.RNGSeed = seed
	e.State.RNGPosition = position
}

// SetPickOnRestart switches pick-on-restart for the named pickers.
func (e *Engine) SetPickOnRestart(names []string) error {
	for _, name := range names {
		p, _ := e.Pickers.Lookup(name)
		if p == nil {
			return fmt.Errorf("pick-on-restart: no picker named %q", name)
		}
		p.SetPickOnRestart(true)
	}
	return nil
}

// Set configures the named picker from a Lua definition, adding the
// picker if it does not exist yet.
func (e *Engine) Set(name, expr string) error {
	_, err := e.cmdSet(name, expr)
	return err
}

// Step processes one session command and returns the result.
func (e *Engine) Step(input string) types.Result {
	var result types.Result

	// 1. Parse input.
	cmd := parser.Parse(input)

	// 2. Empty input.
	if cmd.Verb == "" {
		result.Output = append(result.Output, "Enter a command: pick <name>, loop, restart, list, show <name>.")
		return result
	}

	// 3. Log the command.
	e.State.CommandLog = append(e.State.CommandLog, input)

	// 4. Dispatch with the counters the pickers will read.
	state.SyncContext(e.State, e.Ctx)
	before := e.RNG.Position()
	out, err := e.dispatch(cmd, input)
	result.Output = append(result.Output, out...)
	if err != nil {
		result.Err = err
		result.Output = append(result.Output, "error: "+err.Error())
	}

	// 5. Track RNG position for save/load.
	e.State.RNGPosition = e.RNG.Position()
	result.Draws = e.State.RNGPosition - before

	// 6. Increment turn count.
	e.State.TurnCount++

	return result
}

func (e *Engine) dispatch(cmd types.Command, input string) ([]string, error) {
	switch cmd.Verb {
	case "pick":
		return e.cmdPick(cmd.Name, cmd.Args)
	case "loop":
		return e.cmdLoop(cmd.Args)
	case "restart":
		return e.cmdRestart()
	case "run":
		return e.cmdRun(cmd.Args)
	case "show":
		return e.cmdShow(cmd.Name)
	case "range":
		return e.cmdRange(cmd.Name)
	case "weights":
		return e.cmdWeights(cmd.Name)
	case "list":
		return e.cmdList()
	case "coverage":
		return e.cmdCoverage()
	case "set":
		return e.cmdSet(cmd.Name, cmd.Rest)
	case "override":
		return e.cmdOverride(cmd.Name, cmd.Rest)
	case "release":
		return e.cmdRelease(cmd.Name)
	}

	// A bare picker name picks it; names keep their case.
	name := strings.Fields(input)[0]
	if p, _ := e.Pickers.Lookup(name); p != nil {
		return e.cmdPick(name, cmd.Args)
	}
	return []string{fmt.Sprintf("Unknown command %q.", name)}, nil
}
