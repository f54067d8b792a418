// Package state holds the loaded picker definitions and the mutable
// session state built from them.
package state

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/nathoo/fancypick/engine/picker"
	"github.com/nathoo/fancypick/types"
	lua "github.com/yuin/gopher-lua"
)

// PickerDef is one picker as declared in Lua, still in external format.
type PickerDef struct {
	Name  string
	Value lua.LValue
	Order int // declaration order, 0-based
}

// Defs holds the definitions loaded from Lua. L stays open for the whole
// session because callback pickers and their closures live in it.
type Defs struct {
	L        *lua.LState
	Settings types.Settings
	Pickers  []PickerDef
}

// Close releases the Lua VM. Safe to call more than once.
func (d *Defs) Close() {
	if d.L != nil {
		d.L.Close()
		d.L = nil
	}
}

// Lookup returns the definition named name.
func (d *Defs) Lookup(name string) (PickerDef, bool) {
	for _, def := range d.Pickers {
		if def.Name == name {
			return def, true
		}
	}
	return PickerDef{}, false
}

// NewState creates a fresh session state from definitions.
func NewState(defs *Defs) *types.State {
	return &types.State{
		SessionID:  uuid.NewString(),
		RNGSeed:    defs.Settings.Seed,
		CommandLog: []string{},
	}
}

// BuildArray configures one picker per definition, in declaration order,
// all bound to ctx.
func BuildArray(defs *Defs, ctx *picker.Context) (*picker.Array, error) {
	a := picker.NewArray(0, ctx)
	for _, def := range defs.Pickers {
		p := a.Append(def.Name)
		if err := p.FromLua(defs.L, def.Value); err != nil {
			return nil, fmt.Errorf("picker %q: %w", def.Name, err)
		}
	}
	return a, nil
}

// SyncContext copies the session counters into ctx so callbacks and
// counter-sensitive strategies see the current loop and restart.
func SyncContext(s *types.State, ctx *picker.Context) {
	ctx.LoopNum = s.LoopNum
	ctx.RestartNum = s.RestartNum
}
