package picker

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/nathoo/fancypick/types"
)

// PickFunc produces a callback picker's next value. The result is
// converted to the picker's kind.
type PickFunc func(c *Context) (Value, error)

// RestartFunc is called when a callback picker restarts.
type RestartFunc func(c *Context) error

type callbackStrategy struct {
	k      types.Kind
	pickFn PickFunc
	restFn RestartFunc

	// Lua functions the callbacks came from, kept for encoding.
	luaPick, luaRestart *lua.LFunction
}

func newCallback(k types.Kind, pick PickFunc, restart RestartFunc) *callbackStrategy {
	return &callbackStrategy{k: k, pickFn: pick, restFn: restart}
}

func (s *callbackStrategy) mode() types.Mode         { return types.ModeCallback }
func (s *callbackStrategy) kind() types.Kind         { return s.k }
func (s *callbackStrategy) wrapMode() types.WrapMode { return types.Wrap }
func (s *callbackStrategy) ready() bool              { return s.pickFn != nil }
func (s *callbackStrategy) used() []bool             { return nil }

func (s *callbackStrategy) pick(c *Context, _ uint32) (Value, error) {
	if s.pickFn == nil {
		return Value{}, ErrNotReady
	}
	v, err := s.pickFn(c)
	if err != nil {
		return Value{}, err
	}
	if v.kind == types.KindUnset {
		return Value{}, ErrCallbackResult
	}
	return coerce(v, s.k), nil
}

func (s *callbackStrategy) restart(c *Context) error {
	if s.restFn == nil {
		return nil
	}
	return s.restFn(c)
}

func (s *callbackStrategy) bounds() (Value, Value, error) {
	return Value{}, Value{}, ErrRangeUnknowable
}

func (s *callbackStrategy) clone() strategy {
	c := *s
	return &c
}

// luaPickFunc calls fn(loop, restart) in L and converts its single
// result. Lua errors come back as Go errors.
func luaPickFunc(L *lua.LState, fn *lua.LFunction) PickFunc {
	return func(c *Context) (Value, error) {
		loop, restart := counters(c)
		if err := L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true},
			lua.LNumber(loop), lua.LNumber(restart)); err != nil {
			return Value{}, fmt.Errorf("pick callback: %w", err)
		}
		ret := L.Get(-1)
		L.Pop(1)
		switch r := ret.(type) {
		case lua.LNumber:
			return Float(float64(r)), nil
		case lua.LString:
			v, err := parseWide(string(r))
			if err != nil {
				return Value{}, fmt.Errorf("pick callback returned %q: %w", string(r), ErrCallbackResult)
			}
			return v, nil
		}
		return Value{}, fmt.Errorf("pick callback returned %s: %w", ret.Type(), ErrCallbackResult)
	}
}

func luaRestartFunc(L *lua.LState, fn *lua.LFunction) RestartFunc {
	return func(c *Context) error {
		loop, restart := counters(c)
		if err := L.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true},
			lua.LNumber(loop), lua.LNumber(restart)); err != nil {
			return fmt.Errorf("restart callback: %w", err)
		}
		return nil
	}
}

func counters(c *Context) (loop, restart uint32) {
	if c == nil {
		return 0, 0
	}
	return c.LoopNum, c.RestartNum
}
