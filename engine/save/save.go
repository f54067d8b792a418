// Package save implements JSON serialization and deserialization of a
// picker session: counters, RNG position, and each picker's configuration
// in external format.
package save

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"

	"github.com/google/uuid"
	"github.com/nathoo/fancypick/engine"
	"github.com/nathoo/fancypick/engine/picker"
	"github.com/nathoo/fancypick/engine/state"
	"github.com/nathoo/fancypick/types"
	lua "github.com/yuin/gopher-lua"
)

// SaveData is the JSON-serializable save format.
type SaveData struct {
	Version     string       `json:"version"`
	Title       string       `json:"title"`
	SessionID   string       `json:"session_id,omitempty"`
	Turn        int          `json:"turn"`
	LoopNum     uint32       `json:"loop_num"`
	RestartNum  uint32       `json:"restart_num"`
	RNGSeed     int64        `json:"rng_seed"`
	RNGPosition int64        `json:"rng_position"`
	Pickers     []PickerData `json:"pickers"`
	Skipped     []string     `json:"skipped,omitempty"` // callback pickers, kept from the definitions
	CommandLog  []string     `json:"command_log"`
}

// PickerData is one picker's external format converted to plain JSON values.
type PickerData struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

// Save serializes the session to JSON bytes. Callback pickers cannot be
// written out; they are listed in Skipped and keep their loaded definition
// on restore. An overridden picker is saved with its original configuration.
func Save(s *types.State, defs *state.Defs, arr *picker.Array) ([]byte, error) {
	data := SaveData{
		Version:     defs.Settings.Version,
		Title:       defs.Settings.Title,
		SessionID:   s.SessionID,
		Turn:        s.TurnCount,
		LoopNum:     s.LoopNum,
		RestartNum:  s.RestartNum,
		RNGSeed:     s.RNGSeed,
		RNGPosition: s.RNGPosition,
		Pickers:     []PickerData{},
		CommandLog:  s.CommandLog,
	}
	for i, p := range arr.Pickers() {
		if !p.Initialized() {
			continue
		}
		if p.Overriding() {
			p = p.Clone()
			if err := p.StopOverride(); err != nil {
				return nil, err
			}
		}
		name := p.Name()
		if p.Mode() == types.ModeCallback {
			slog.Warn("callback picker not saved", "picker", name, "index", i)
			data.Skipped = append(data.Skipped, name)
			continue
		}
		v, err := p.ToLua(defs.L)
		if err != nil {
			return nil, fmt.Errorf("save picker %q: %w", name, err)
		}
		data.Pickers = append(data.Pickers, PickerData{Name: name, Value: toGoValue(v)})
	}
	return json.MarshalIndent(data, "", "  ")
}

// Load deserializes JSON bytes into SaveData.
func Load(data []byte) (*SaveData, error) {
	var sd SaveData
	if err := json.Unmarshal(data, &sd); err != nil {
		return nil, err
	}
	if sd.SessionID != "" {
		if _, err := uuid.Parse(sd.SessionID); err != nil {
			return nil, fmt.Errorf("session id %q: %w", sd.SessionID, err)
		}
	}
	// Ensure slices are never nil after load.
	if sd.Pickers == nil {
		sd.Pickers = []PickerData{}
	}
	if sd.CommandLog == nil {
		sd.CommandLog = []string{}
	}
	return &sd, nil
}

// ApplySave applies loaded save data onto a state.
func ApplySave(s *types.State, sd *SaveData) {
	if sd.SessionID != "" {
		s.SessionID = sd.SessionID
	}
	s.TurnCount = sd.Turn
	s.LoopNum = sd.LoopNum
	s.RestartNum = sd.RestartNum
	s.RNGSeed = sd.RNGSeed
	s.RNGPosition = sd.RNGPosition
	s.CommandLog = sd.CommandLog
}

// ApplyPickers reconfigures the array from saved pickers. Names missing
// from the array are appended. A picker under override has the override
// ended first, so the loaded configuration is the one that stays live.
// Every entry is tried; the first failure is returned.
func ApplyPickers(L *lua.LState, arr *picker.Array, sd *SaveData) error {
	var first error
	for _, pd := range sd.Pickers {
		p, _ := arr.Lookup(pd.Name)
		if p == nil {
			p = arr.Append(pd.Name)
		}
		if p.Overriding() {
			_ = p.StopOverride()
		}
		if err := p.FromLua(L, fromGoValue(L, pd.Value)); err != nil && first == nil {
			first = fmt.Errorf("restore picker %q: %w", pd.Name, err)
		}
	}
	return first
}

// Restore applies a save to a running engine: state, pickers, then the
// RNG at its saved position. Deck order and coverage records start fresh.
func Restore(e *engine.Engine, sd *SaveData) error {
	if err := ApplyPickers(e.Defs.L, e.Pickers, sd); err != nil {
		return err
	}
	ApplySave(e.State, sd)
	e.RestoreRNG(sd.RNGSeed, sd.RNGPosition)
	state.SyncContext(e.State, e.Ctx)
	return nil
}

// toGoValue converts a Lua value to a Go value recursively.
func toGoValue(v lua.LValue) any {
	switch val := v.(type) {
	case lua.LBool:
		return bool(val)
	case lua.LNumber:
		f := float64(val)
		if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
			return int64(f)
		}
		return f
	case lua.LString:
		return string(val)
	case *lua.LTable:
		// External-format values are sequences.
		maxN := val.MaxN()
		arr := make([]any, 0, maxN)
		for i := 1; i <= maxN; i++ {
			arr = append(arr, toGoValue(val.RawGetInt(i)))
		}
		return arr
	default:
		return nil
	}
}

// fromGoValue is the inverse of toGoValue for values decoded from JSON.
func fromGoValue(L *lua.LState, v any) lua.LValue {
	switch val := v.(type) {
	case bool:
		return lua.LBool(val)
	case float64:
		return lua.LNumber(val)
	case int64:
		return lua.LNumber(val)
	case string:
		return lua.LString(val)
	case []any:
		tbl := L.NewTable()
		for _, e := range val {
			tbl.Append(fromGoValue(L, e))
		}
		return tbl
	default:
		return lua.LNil
	}
}
