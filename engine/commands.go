package engine

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/nathoo/fancypick/engine/picker"
	"github.com/nathoo/fancypick/engine/resolve"
	"github.com/nathoo/fancypick/engine/state"
	lua "github.com/yuin/gopher-lua"
)

// maxRepeat bounds the count argument of pick and run.
const maxRepeat = 10000

// lookup resolves a picker reference and returns the picker with the
// label commands print for it.
func (e *Engine) lookup(ref string) (*picker.Picker, string, error) {
	if ref == "" {
		return nil, "", errors.New("which picker?")
	}
	i, err := resolve.Resolve(e.Pickers, ref)
	if err != nil {
		return nil, "", err
	}
	p := e.Pickers.Pickers()[i]
	return p, resolve.Label(p, i), nil
}

// count parses an optional repeat argument.
func count(args []string, def int) (int, error) {
	if len(args) == 0 {
		return def, nil
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 || n > maxRepeat {
		return 0, fmt.Errorf("bad count %q (1..%d)", args[0], maxRepeat)
	}
	return n, nil
}

func (e *Engine) cmdPick(ref string, args []string) ([]string, error) {
	p, name, err := e.lookup(ref)
	if err != nil {
		return nil, err
	}
	n, err := count(args, 1)
	if err != nil {
		return nil, err
	}
	vals := make([]string, 0, n)
	for i := 0; i < n; i++ {
		v, err := p.PickValue()
		if err != nil {
			return joinValues(name, vals), err
		}
		vals = append(vals, v.String())
	}
	return joinValues(name, vals), nil
}

func joinValues(name string, vals []string) []string {
	if len(vals) == 0 {
		return nil
	}
	return []string{name + " = " + strings.Join(vals, ", ")}
}

func (e *Engine) cmdLoop(args []string) ([]string, error) {
	n, err := count(args, 1)
	if err != nil {
		return nil, err
	}
	e.State.LoopNum += uint32(n)
	state.SyncContext(e.State, e.Ctx)
	return []string{fmt.Sprintf("loop %d", e.State.LoopNum)}, nil
}

// cmdRestart starts a new restart period: the loop counter resets and
// every configured picker restarts.
func (e *Engine) cmdRestart() ([]string, error) {
	e.State.RestartNum++
	e.State.LoopNum = 0
	state.SyncContext(e.State, e.Ctx)
	out := []string{fmt.Sprintf("restart %d", e.State.RestartNum)}
	return out, e.Pickers.RestartAllInitialized()
}

// cmdRun plays n loops: every configured picker picks once per loop, then
// the loop counter advances.
func (e *Engine) cmdRun(args []string) ([]string, error) {
	def := e.Defs.Settings.Loops
	if def < 1 {
		def = 1
	}
	n, err := count(args, def)
	if err != nil {
		return nil, err
	}
	var out []string
	for i := 0; i < n; i++ {
		state.SyncContext(e.State, e.Ctx)
		var parts []string
		for j, p := range e.Pickers.Pickers() {
			if !p.Initialized() {
				continue
			}
			v, err := p.PickValue()
			if err != nil {
				return out, err
			}
			parts = append(parts, fmt.Sprintf("%s=%s", resolve.Label(p, j), v))
		}
		out = append(out, fmt.Sprintf("loop %d: %s", e.State.LoopNum, strings.Join(parts, " ")))
		e.State.LoopNum++
	}
	state.SyncContext(e.State, e.Ctx)
	return out, nil
}

// cmdShow prints the external format of one picker, or of all of them.
func (e *Engine) cmdShow(ref string) ([]string, error) {
	L := e.Defs.L
	if ref != "" {
		p, name, err := e.lookup(ref)
		if err != nil {
			return nil, err
		}
		v, err := p.ToLua(L)
		if err != nil {
			return nil, err
		}
		return []string{name + " = " + FormatLua(v)}, nil
	}
	var out []string
	for i, p := range e.Pickers.Pickers() {
		if !p.Initialized() {
			continue
		}
		v, err := p.ToLua(L)
		if err != nil {
			out = append(out, fmt.Sprintf("%s: %v", resolve.Label(p, i), err))
			continue
		}
		out = append(out, resolve.Label(p, i)+" = "+FormatLua(v))
	}
	if len(out) == 0 {
		out = append(out, "No pickers configured.")
	}
	return out, nil
}

func (e *Engine) cmdRange(ref string) ([]string, error) {
	p, name, err := e.lookup(ref)
	if err != nil {
		return nil, err
	}
	lo, hi, err := p.Range()
	if err != nil {
		return nil, err
	}
	return []string{fmt.Sprintf("%s: %s .. %s", name, lo, hi)}, nil
}

func (e *Engine) cmdWeights(ref string) ([]string, error) {
	p, name, err := e.lookup(ref)
	if err != nil {
		return nil, err
	}
	ws, err := p.RandomWeights()
	if err != nil {
		return nil, err
	}
	parts := make([]string, len(ws))
	for i, w := range ws {
		parts[i] = strconv.FormatUint(uint64(w), 10)
	}
	return []string{fmt.Sprintf("%s weights: %s", name, strings.Join(parts, " "))}, nil
}

func (e *Engine) cmdList() ([]string, error) {
	if e.Pickers.Len() == 0 {
		return []string{"No pickers."}, nil
	}
	var out []string
	for i, p := range e.Pickers.Pickers() {
		line := fmt.Sprintf("%-12s %-8s %-6s", resolve.Label(p, i),
			picker.ModeName(p.Mode()), picker.KindName(p.Kind()))
		var flags []string
		if p.Initialized() && !p.Ready() {
			flags = append(flags, "not-ready")
		}
		if p.PickOnRestart() {
			flags = append(flags, "pickonrestart")
		}
		if p.Overriding() {
			flags = append(flags, "override")
		}
		if len(flags) > 0 {
			line += " [" + strings.Join(flags, ",") + "]"
		}
		out = append(out, strings.TrimRight(line, " "))
	}
	return out, nil
}

// cmdCoverage reports items never produced. Findings are warnings unless
// the engine is strict.
func (e *Engine) cmdCoverage() ([]string, error) {
	err := e.Pickers.CoverageReport()
	if err == nil {
		return []string{"All items used."}, nil
	}
	out := strings.Split(err.Error(), "\n")
	if e.Strict {
		return out, fmt.Errorf("coverage: %w", picker.ErrUnusedItems)
	}
	return out, nil
}

// eval evaluates a Lua expression in the session VM.
func (e *Engine) eval(expr string) (lua.LValue, error) {
	if strings.TrimSpace(expr) == "" {
		return nil, errors.New("missing definition")
	}
	L := e.Defs.L
	top := L.GetTop()
	defer L.SetTop(top)
	if err := L.DoString("return " + expr); err != nil {
		return nil, fmt.Errorf("bad definition: %w", err)
	}
	if L.GetTop() == top {
		return lua.LNil, nil
	}
	return L.Get(top + 1), nil
}

// cmdSet reconfigures a picker from a Lua expression. An unknown name adds
// a new picker once the definition has been checked.
func (e *Engine) cmdSet(name, expr string) ([]string, error) {
	if name == "" {
		return nil, errors.New("which picker?")
	}
	v, err := e.eval(expr)
	if err != nil {
		return nil, err
	}
	p, _ := e.Pickers.Lookup(name)
	if p == nil {
		probe := picker.New(e.Ctx)
		if err := probe.FromLua(e.Defs.L, v); err != nil {
			return nil, err
		}
		p = e.Pickers.Append(name)
	}
	if err := p.FromLua(e.Defs.L, v); err != nil {
		return nil, err
	}
	return []string{fmt.Sprintf("%s set (%s)", name, picker.ModeName(p.Mode()))}, nil
}

// cmdOverride starts an override and, given an expression, reconfigures
// the picker for its duration. A bad expression ends the override.
func (e *Engine) cmdOverride(ref, expr string) ([]string, error) {
	p, name, err := e.lookup(ref)
	if err != nil {
		return nil, err
	}
	var v lua.LValue
	if strings.TrimSpace(expr) != "" {
		if v, err = e.eval(expr); err != nil {
			return nil, err
		}
	}
	if err := p.StartOverride(); err != nil {
		return nil, err
	}
	if v != nil {
		if err := p.FromLua(e.Defs.L, v); err != nil {
			_ = p.StopOverride()
			return nil, err
		}
	}
	return []string{fmt.Sprintf("%s overridden (%s)", name, picker.ModeName(p.Mode()))}, nil
}

func (e *Engine) cmdRelease(ref string) ([]string, error) {
	p, name, err := e.lookup(ref)
	if err != nil {
		return nil, err
	}
	if err := p.StopOverride(); err != nil {
		return nil, err
	}
	return []string{name + " released"}, nil
}
