// Package loader loads picker definitions from Lua into a state.Defs.
// The Lua VM outlives loading: callback pickers keep calling into it, so
// it is handed to the session and closed with Defs.Close.
package loader

import (
	"fmt"
	"math"

	"github.com/nathoo/fancypick/engine/state"
	"github.com/nathoo/fancypick/types"
	lua "github.com/yuin/gopher-lua"
)

// getString returns a string field from a Lua table, or "" if missing.
func getString(tbl *lua.LTable, key string) string {
	v := tbl.RawGetString(key)
	if s, ok := v.(lua.LString); ok {
		return string(s)
	}
	return ""
}

// getInt returns an integer field from a Lua table. Missing fields read
// as 0; anything else that is not a whole number is an error.
func getInt(tbl *lua.LTable, key string) (int64, error) {
	switch v := tbl.RawGetString(key).(type) {
	case *lua.LNilType:
		return 0, nil
	case lua.LNumber:
		f := float64(v)
		if f != math.Trunc(f) || math.Abs(f) > 1<<53 {
			return 0, fmt.Errorf("Settings.%s = %v is not a whole number", key, f)
		}
		return int64(f), nil
	default:
		return 0, fmt.Errorf("Settings.%s must be a number, got %s", key, v.Type())
	}
}

// compile turns the collected tables into Defs.
func compile(L *lua.LState, coll *collector) (*state.Defs, error) {
	defs := &state.Defs{L: L}

	if coll.settings != nil {
		s, err := compileSettings(coll.settings)
		if err != nil {
			return nil, err
		}
		defs.Settings = s
	}

	for i, rp := range coll.pickers {
		defs.Pickers = append(defs.Pickers, state.PickerDef{
			Name:  rp.name,
			Value: rp.value,
			Order: i,
		})
	}
	return defs, nil
}

func compileSettings(tbl *lua.LTable) (types.Settings, error) {
	seed, err := getInt(tbl, "seed")
	if err != nil {
		return types.Settings{}, err
	}
	loops, err := getInt(tbl, "loops")
	if err != nil {
		return types.Settings{}, err
	}
	if loops < 0 {
		return types.Settings{}, fmt.Errorf("Settings.loops = %d must not be negative", loops)
	}
	return types.Settings{
		Title:   getString(tbl, "title"),
		Author:  getString(tbl, "author"),
		Version: getString(tbl, "version"),
		Seed:    seed,
		Loops:   int(loops),
	}, nil
}
