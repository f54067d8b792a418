package picker

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/nathoo/fancypick/types"
)

// Leading keywords of the external format. Keywords are case-insensitive
// and may appear in any order before the first item.
var (
	modeKeywords = map[string]types.Mode{
		"const":    types.ModeConst,
		"constant": types.ModeConst,
		"rand":     types.ModeRandom,
		"random":   types.ModeRandom,
		"shuffle":  types.ModeShuffle,
		"step":     types.ModeStep,
		"list":     types.ModeList,
		"js":       types.ModeCallback,
		"func":     types.ModeCallback,
		"callback": types.ModeCallback,
	}
	kindKeywords = map[string]types.Kind{
		"int":    types.KindInt,
		"uint":   types.KindInt,
		"int64":  types.KindInt64,
		"uint64": types.KindInt64,
		"float":  types.KindFloat,
	}
	modeNames = map[types.Mode]string{
		types.ModeConst:    "const",
		types.ModeRandom:   "random",
		types.ModeShuffle:  "shuffle",
		types.ModeStep:     "step",
		types.ModeList:     "list",
		types.ModeCallback: "js",
	}
)

// ModeName returns the keyword that selects mode m.
func ModeName(m types.Mode) string {
	if n, ok := modeNames[m]; ok {
		return n
	}
	return "unset"
}

// KindName returns the keyword that selects kind k.
func KindName(k types.Kind) string {
	switch k {
	case types.KindInt:
		return "int"
	case types.KindInt64:
		return "int64"
	case types.KindFloat:
		return "float"
	}
	return "unset"
}

// header is the keyword prefix of an external value.
type header struct {
	mode          types.Mode
	kind          types.Kind
	wrap          types.WrapMode
	pickOnRestart bool
}

// item is one element after the keywords, with its 1-based position.
type item struct {
	index int
	v     lua.LValue
}

func (it item) arity() int {
	if t, ok := it.v.(*lua.LTable); ok {
		return t.Len()
	}
	return 1
}

func (it item) elem(n int) lua.LValue {
	if t, ok := it.v.(*lua.LTable); ok {
		return t.RawGetInt(n)
	}
	return it.v
}

// FromLua configures the picker from an external value: a sequence of
// optional keywords followed by mode-specific items. A bare scalar or
// function stands for a one-element sequence. L is needed only for
// callback items. On error the picker is unchanged.
func (p *Picker) FromLua(L *lua.LState, v lua.LValue) error {
	h, items, err := parseHeader(v)
	if err != nil {
		return err
	}
	if h.mode == types.ModeUnset {
		if h.mode, err = inferMode(items); err != nil {
			return err
		}
	}

	q := New(p.ctx)
	q.name = p.name
	switch h.mode {
	case types.ModeConst:
		err = q.constFromLua(h, items)
	case types.ModeRandom:
		err = q.randomFromLua(h, items)
	case types.ModeShuffle:
		err = q.shuffleFromLua(h, items)
	case types.ModeStep:
		err = q.stepFromLua(h, items)
	case types.ModeList:
		err = q.listFromLua(h, items)
	case types.ModeCallback:
		err = q.callbackFromLua(L, h, items)
	}
	if err != nil {
		return err
	}
	p.install(q.s)
	p.pickOnRestart = h.pickOnRestart
	p.fromExternal = true
	return nil
}

func parseHeader(v lua.LValue) (header, []item, error) {
	h := header{kind: types.KindInt}
	var elems []lua.LValue
	switch t := v.(type) {
	case *lua.LTable:
		for i := 1; i <= t.Len(); i++ {
			elems = append(elems, t.RawGetInt(i))
		}
	case lua.LNumber, lua.LString, *lua.LFunction:
		elems = []lua.LValue{v}
	default:
		return h, nil, itemErr(0, "expected a table, got %s", v.Type())
	}

	i := 0
keywords:
	for ; i < len(elems); i++ {
		s, ok := elems[i].(lua.LString)
		if !ok {
			break
		}
		kw := strings.ToLower(string(s))
		if m, ok := modeKeywords[kw]; ok {
			if h.mode != types.ModeUnset && h.mode != m {
				return h, nil, itemErr(i+1, "conflicting mode keyword %q", string(s))
			}
			h.mode = m
			continue
		}
		if k, ok := kindKeywords[kw]; ok {
			h.kind = k
			continue
		}
		switch kw {
		case "clamp":
			h.wrap = types.Clamp
		case "wrap":
			h.wrap = types.Wrap
		case "pickonrestart":
			h.pickOnRestart = true
		default:
			break keywords
		}
	}
	if i == len(elems) {
		return h, nil, itemErr(0, "no items")
	}
	out := make([]item, 0, len(elems)-i)
	for j := i; j < len(elems); j++ {
		out = append(out, item{index: j + 1, v: elems[j]})
	}
	return h, out, nil
}

// inferMode guesses the mode of a keyword-less value from its shape.
func inferMode(items []item) (types.Mode, error) {
	if _, ok := items[0].v.(*lua.LFunction); ok {
		return types.ModeCallback, nil
	}
	scalars := 0
	for _, it := range items {
		if isScalar(it.v) {
			scalars++
		}
	}
	switch {
	case len(items) == 1 && scalars == 1:
		return types.ModeConst, nil
	case len(items) == 3 && scalars == 3:
		return types.ModeStep, nil
	}

	var ones, threes *item
	for i := range items {
		it := &items[i]
		switch it.arity() {
		case 1:
			if ones == nil {
				ones = it
			}
		case 2:
		case 3:
			if threes == nil {
				threes = it
			}
		default:
			return types.ModeUnset, itemErr(it.index, "cannot infer mode from an element of %d values", it.arity())
		}
	}
	switch {
	case ones != nil && threes != nil:
		return types.ModeUnset, itemErr(threes.index, "range element mixed with list values")
	case ones != nil:
		return types.ModeList, nil
	}
	return types.ModeRandom, nil
}

func isScalar(v lua.LValue) bool {
	switch v.(type) {
	case lua.LNumber, lua.LString:
		return true
	}
	return false
}

func (p *Picker) constFromLua(h header, items []item) error {
	if len(items) != 1 || !isScalar(items[0].v) {
		return itemErr(0, "const takes exactly one value, got %d items", len(items))
	}
	v, err := luaToValue(h.kind, items[0].v, items[0].index)
	if err != nil {
		return err
	}
	return p.ConfigConst(v)
}

func (p *Picker) randomFromLua(h header, items []item) error {
	if err := p.ConfigRandom(h.kind); err != nil {
		return err
	}
	for _, it := range items {
		n := it.arity()
		if _, ok := it.v.(*lua.LTable); !ok || (n != 2 && n != 3) {
			return itemErr(it.index, "random items are {weight, value} or {weight, min, max}")
		}
		w, err := luaToCount(it.elem(1), it.index)
		if err != nil {
			return err
		}
		lo, err := luaToValue(h.kind, it.elem(2), it.index)
		if err != nil {
			return err
		}
		hi := lo
		if n == 3 {
			if hi, err = luaToValue(h.kind, it.elem(3), it.index); err != nil {
				return err
			}
		}
		if err := p.AddRandRange(w, lo, hi); err != nil {
			return err
		}
	}
	return p.CompileRandom()
}

func (p *Picker) shuffleFromLua(h header, items []item) error {
	if err := p.ConfigShuffle(h.kind); err != nil {
		return err
	}
	for _, it := range items {
		if _, ok := it.v.(*lua.LTable); !ok || it.arity() != 2 {
			return itemErr(it.index, "shuffle items are {count, value}")
		}
		n, err := luaToCount(it.elem(1), it.index)
		if err != nil {
			return err
		}
		v, err := luaToValue(h.kind, it.elem(2), it.index)
		if err != nil {
			return err
		}
		if err := p.AddShuffleItem(n, v); err != nil {
			return err
		}
	}
	return p.CompileShuffle()
}

func (p *Picker) stepFromLua(h header, items []item) error {
	if len(items) != 3 {
		return itemErr(0, "step takes begin, step, end; got %d items", len(items))
	}
	var vals [3]Value
	for i, it := range items {
		if !isScalar(it.v) {
			return itemErr(it.index, "step values must be scalars")
		}
		v, err := luaToValue(h.kind, it.v, it.index)
		if err != nil {
			return err
		}
		vals[i] = v
	}
	return p.ConfigStep(vals[0], vals[1], vals[2], h.wrap)
}

func (p *Picker) listFromLua(h header, items []item) error {
	if err := p.ConfigList(h.kind, h.wrap); err != nil {
		return err
	}
	for _, it := range items {
		rep := uint32(1)
		raw := it.v
		if _, ok := it.v.(*lua.LTable); ok {
			if it.arity() != 2 {
				return itemErr(it.index, "list items are values or {repeat, value}")
			}
			n, err := luaToCount(it.elem(1), it.index)
			if err != nil {
				return err
			}
			rep, raw = n, it.elem(2)
		}
		v, err := luaToValue(h.kind, raw, it.index)
		if err != nil {
			return err
		}
		if err := p.AddListItem(v, rep); err != nil {
			return err
		}
	}
	return nil
}

func (p *Picker) callbackFromLua(L *lua.LState, h header, items []item) error {
	if len(items) > 2 {
		return itemErr(items[2].index, "callback takes a pick function and an optional restart function")
	}
	var fns [2]*lua.LFunction
	for i, it := range items {
		fn, ok := it.v.(*lua.LFunction)
		if !ok {
			return itemErr(it.index, "expected a function, got %s", it.v.Type())
		}
		fns[i] = fn
	}
	if L == nil {
		return itemErr(items[0].index, "callback needs a Lua state")
	}
	var restart RestartFunc
	if fns[1] != nil {
		restart = luaRestartFunc(L, fns[1])
	}
	if err := p.ConfigCallback(h.kind, luaPickFunc(L, fns[0]), restart); err != nil {
		return err
	}
	s := p.s.(*callbackStrategy)
	s.luaPick, s.luaRestart = fns[0], fns[1]
	return nil
}

// luaToValue converts a scalar of the external format to kind k. Integers
// may be strings so 64-bit values survive Lua's float numbers.
func luaToValue(k types.Kind, v lua.LValue, index int) (Value, error) {
	switch x := v.(type) {
	case lua.LNumber:
		f := float64(x)
		switch k {
		case types.KindFloat:
			return Float(f), nil
		case types.KindInt64:
			if f >= math.MaxInt64 {
				return WideU(uint64(f)), nil
			}
			return Wide(int64(f)), nil
		}
		return Int(int64(f)), nil
	case lua.LString:
		s := string(x)
		if k == types.KindFloat {
			f, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return Value{}, itemErr(index, "bad float %q", s)
			}
			return Float(f), nil
		}
		w, err := parseWide(s)
		if err != nil {
			return Value{}, itemErr(index, "bad integer %q", s)
		}
		if k == types.KindInt {
			return Int(int64(w.bits)), nil
		}
		return w, nil
	}
	return Value{}, itemErr(index, "expected a number, got %s", v.Type())
}

// parseWide parses a full-width unsigned integer with base prefixes,
// accepting negative decimal values as two's complement.
func parseWide(s string) (Value, error) {
	s = strings.TrimSpace(s)
	if u, err := strconv.ParseUint(s, 0, 64); err == nil {
		return WideU(u), nil
	}
	n, err := strconv.ParseInt(s, 0, 64)
	if err != nil {
		return Value{}, err
	}
	return Wide(n), nil
}

// luaToCount reads a weight, count or repeat: an integer in [0, 2^32).
func luaToCount(v lua.LValue, index int) (uint32, error) {
	var f float64
	switch x := v.(type) {
	case lua.LNumber:
		f = float64(x)
	case lua.LString:
		w, err := parseWide(string(x))
		if err != nil || w.bits > math.MaxUint32 {
			return 0, itemErr(index, "bad count %q", string(x))
		}
		return uint32(w.bits), nil
	default:
		return 0, itemErr(index, "expected a count, got %s", v.Type())
	}
	if f < 0 || f > math.MaxUint32 || f != math.Trunc(f) {
		return 0, itemErr(index, "count %v out of range", f)
	}
	return uint32(f), nil
}

// ToLua encodes the picker in the external format. Decoding the result
// gives a picker that behaves the same. Callback pickers encode only when
// their functions came from Lua.
func (p *Picker) ToLua(L *lua.LState) (lua.LValue, error) {
	if p.s.mode() == types.ModeUnset {
		return lua.LNil, ErrNotConfigured
	}
	tbl := L.NewTable()
	tbl.Append(lua.LString(ModeName(p.s.mode())))
	if m := p.s.mode(); (m == types.ModeStep || m == types.ModeList) && p.s.wrapMode() == types.Clamp {
		tbl.Append(lua.LString("clamp"))
	}
	if p.pickOnRestart {
		tbl.Append(lua.LString("pickonrestart"))
	}
	if k := p.s.kind(); k != types.KindInt {
		tbl.Append(lua.LString(KindName(k)))
	}

	switch s := p.s.(type) {
	case *stepStrategy:
		if s.constant {
			tbl.Append(valueToLua(s.begin))
			break
		}
		tbl.Append(valueToLua(s.begin))
		tbl.Append(deltaToLua(s.step))
		tbl.Append(valueToLua(s.end))

	case *randomStrategy:
		weights, err := s.weights()
		if err != nil {
			return lua.LNil, fmt.Errorf("picker %s: %w", p.label(), err)
		}
		for i, it := range s.items {
			e := L.NewTable()
			e.Append(lua.LNumber(weights[i]))
			e.Append(valueToLua(it.min))
			if it.min != it.max {
				e.Append(valueToLua(it.max))
			}
			tbl.Append(e)
		}

	case *shuffleStrategy:
		for _, it := range s.items {
			e := L.NewTable()
			e.Append(lua.LNumber(it.count))
			e.Append(valueToLua(it.v))
			tbl.Append(e)
		}

	case *listStrategy:
		s.sum()
		for _, it := range s.items {
			if it.repeat == 1 {
				tbl.Append(valueToLua(it.v))
				continue
			}
			e := L.NewTable()
			e.Append(lua.LNumber(it.repeat))
			e.Append(valueToLua(it.v))
			tbl.Append(e)
		}

	case *callbackStrategy:
		if s.luaPick == nil {
			return lua.LNil, fmt.Errorf("picker %s: Go callback: %w", p.label(), ErrNotEncodable)
		}
		tbl.Append(s.luaPick)
		if s.luaRestart != nil {
			tbl.Append(s.luaRestart)
		}
	}
	return tbl, nil
}

func valueToLua(v Value) lua.LValue {
	switch v.kind {
	case types.KindFloat:
		return lua.LNumber(v.f)
	case types.KindInt64:
		return lua.LString(strconv.FormatUint(v.bits, 10))
	}
	return lua.LNumber(v.bits)
}

// deltaToLua encodes a step delta signed so negative steps read naturally.
func deltaToLua(v Value) lua.LValue {
	switch v.kind {
	case types.KindFloat:
		return lua.LNumber(v.f)
	case types.KindInt64:
		return lua.LString(strconv.FormatInt(int64(v.bits), 10))
	}
	return lua.LNumber(v.Int64())
}

// ToLua encodes every configured picker into one table keyed by picker
// name, or by 1-based index for unnamed pickers.
func (a *Array) ToLua(L *lua.LState) (*lua.LTable, error) {
	out := L.NewTable()
	for i, p := range a.pickers {
		if !p.Initialized() {
			continue
		}
		v, err := p.ToLua(L)
		if err != nil {
			return nil, err
		}
		if p.name != "" {
			out.RawSetString(p.name, v)
		} else {
			out.RawSetInt(i+1, v)
		}
	}
	return out, nil
}

// FromLua configures pickers from a table keyed by picker name or 1-based
// index. Every entry is applied; the first failure is returned.
func (a *Array) FromLua(L *lua.LState, tbl *lua.LTable) error {
	var first error
	tbl.ForEach(func(k, v lua.LValue) {
		err := a.entryFromLua(L, k, v)
		if err != nil && first == nil {
			first = err
		}
	})
	return first
}

func (a *Array) entryFromLua(L *lua.LState, k, v lua.LValue) error {
	switch key := k.(type) {
	case lua.LString:
		p, _ := a.Lookup(string(key))
		if p == nil {
			return fmt.Errorf("picker %q: %w", string(key), ErrBadIndex)
		}
		if err := p.FromLua(L, v); err != nil {
			return fmt.Errorf("picker %q: %w", string(key), err)
		}
		return nil
	case lua.LNumber:
		if f := float64(key); f != math.Trunc(f) {
			return fmt.Errorf("picker key %s: %w", key, ErrBadIndex)
		}
		return a.PickerFromLua(L, int(key)-1, v)
	}
	return fmt.Errorf("picker key %s: %w", k.Type(), ErrBadIndex)
}

// PickerToLua encodes the picker at index i.
func (a *Array) PickerToLua(L *lua.LState, i int) (lua.LValue, error) {
	p, err := a.At(i)
	if err != nil {
		return lua.LNil, err
	}
	return p.ToLua(L)
}

// PickerFromLua configures the picker at index i.
func (a *Array) PickerFromLua(L *lua.LState, i int, v lua.LValue) error {
	p, err := a.At(i)
	if err != nil {
		return err
	}
	if err := p.FromLua(L, v); err != nil {
		return fmt.Errorf("picker %d: %w", i, err)
	}
	return nil
}
