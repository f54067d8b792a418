// Package picker implements configurable value generators. A Picker
// produces 32-bit integers, 64-bit integers or floats from one of several
// strategies: constant, weighted random, shuffled deck, linear step,
// repeat-weighted list, or an external callback. Pickers sharing a
// Context draw from one random source and read one pair of loop and
// restart counters.
package picker

import (
	"fmt"

	"github.com/nathoo/fancypick/types"
)

// Picker is the user-facing handle around one strategy.
type Picker struct {
	name string
	ctx  *Context
	s    strategy
	last Value

	fromExternal  bool
	pickOnRestart bool
	restartValid  bool
	restartValue  Value

	// Override slot: the strategy that was live before StartOverride, the
	// private context the override draws from, and the flags and
	// pick-on-restart cache to restore.
	saved       strategy
	overrideCtx *Context
	savedState  savedState
}

type savedState struct {
	fromExternal  bool
	pickOnRestart bool
	restartValid  bool
	restartValue  Value
}

// New returns an unconfigured picker bound to ctx. A nil ctx is allowed
// for pickers that never draw; drawing from one fails with ErrNoContext.
func New(ctx *Context) *Picker {
	return &Picker{ctx: ctx, s: unsetStrategy{}}
}

func (p *Picker) SetName(name string)     { p.name = name }
func (p *Picker) Name() string            { return p.name }
func (p *Picker) SetContext(ctx *Context) { p.ctx = ctx }
func (p *Picker) Context() *Context       { return p.ctx }
func (p *Picker) Kind() types.Kind        { return p.s.kind() }
func (p *Picker) Mode() types.Mode        { return p.s.mode() }
func (p *Picker) Wrap() types.WrapMode    { return p.s.wrapMode() }
func (p *Picker) Ready() bool             { return p.s.ready() }
func (p *Picker) PickOnRestart() bool     { return p.pickOnRestart }
func (p *Picker) FromExternal() bool      { return p.fromExternal }
func (p *Picker) Overriding() bool        { return p.saved != nil }
func (p *Picker) Initialized() bool       { return p.s.mode() != types.ModeUnset }
func (p *Picker) LastValue() Value        { return p.last }
func (p *Picker) Last() uint32            { return p.last.Uint32() }
func (p *Picker) LastWide() uint64        { return p.last.Uint64() }
func (p *Picker) LastFloat() float64      { return p.last.Float64() }

// SetPickOnRestart switches pick-on-restart mode. The cached value is
// dropped; the next Restart or Pick draws a fresh one.
func (p *Picker) SetPickOnRestart(on bool) {
	p.pickOnRestart = on
	p.restartValid = false
}

func (p *Picker) install(s strategy) {
	p.s = s
	p.fromExternal = false
	p.restartValid = false
}

func (p *Picker) label() string { return labelOf(p.name) }

func labelOf(name string) string {
	if name == "" {
		return "<unnamed>"
	}
	return name
}

func validKind(k types.Kind) error {
	switch k {
	case types.KindInt, types.KindInt64, types.KindFloat:
		return nil
	}
	return ErrWrongKind
}

// ConfigConst makes the picker always produce v.
func (p *Picker) ConfigConst(v Value) error {
	if err := validKind(v.kind); err != nil {
		return err
	}
	p.install(newConst(v))
	return nil
}

// ConfigRandom starts an empty weighted-random table of kind k. Add items
// with AddRandItem or AddRandRange, then call CompileRandom.
func (p *Picker) ConfigRandom(k types.Kind) error {
	if err := validKind(k); err != nil {
		return err
	}
	p.install(newRandom(k))
	return nil
}

// AddRandItem adds a single value with relative weight.
func (p *Picker) AddRandItem(weight uint32, v Value) error {
	return p.AddRandRange(weight, v, v)
}

// AddRandRange adds the inclusive range [min, max] with relative weight.
// Adding to a compiled table reopens it; compile again before picking.
func (p *Picker) AddRandRange(weight uint32, min, max Value) error {
	s, ok := p.s.(*randomStrategy)
	if !ok {
		return ErrWrongMode
	}
	return s.add(weight, min, max)
}

func (p *Picker) CompileRandom() error {
	s, ok := p.s.(*randomStrategy)
	if !ok {
		return ErrWrongMode
	}
	if err := s.compile(); err != nil {
		return fmt.Errorf("picker %s: %w", p.label(), err)
	}
	return nil
}

// RandomWeights returns the relative weights of a random picker's items,
// recovered from the compiled thresholds when needed.
func (p *Picker) RandomWeights() ([]uint32, error) {
	s, ok := p.s.(*randomStrategy)
	if !ok {
		return nil, ErrWrongMode
	}
	return s.weights()
}

// ConfigShuffle starts an empty shuffle deck of kind k.
func (p *Picker) ConfigShuffle(k types.Kind) error {
	if err := validKind(k); err != nil {
		return err
	}
	p.install(newShuffle(k))
	return nil
}

// AddShuffleItem adds count copies of v to the deck.
func (p *Picker) AddShuffleItem(count uint32, v Value) error {
	s, ok := p.s.(*shuffleStrategy)
	if !ok {
		return ErrWrongMode
	}
	return s.add(count, v)
}

func (p *Picker) CompileShuffle() error {
	s, ok := p.s.(*shuffleStrategy)
	if !ok {
		return ErrWrongMode
	}
	if err := s.compile(); err != nil {
		return fmt.Errorf("picker %s: %w", p.label(), err)
	}
	return nil
}

// ConfigStep makes the picker walk begin, begin+step, ... toward end.
// All three values must share a kind.
func (p *Picker) ConfigStep(begin, step, end Value, wrap types.WrapMode) error {
	if err := validKind(begin.kind); err != nil {
		return err
	}
	if step.kind != begin.kind || end.kind != begin.kind {
		return ErrWrongKind
	}
	p.install(newStep(p.label(), begin, step, end, wrap))
	return nil
}

// ConfigList starts an empty list of kind k.
func (p *Picker) ConfigList(k types.Kind, wrap types.WrapMode) error {
	if err := validKind(k); err != nil {
		return err
	}
	p.install(newList(k, wrap))
	return nil
}

// AddListItem appends v, held for repeat consecutive counter values.
func (p *Picker) AddListItem(v Value, repeat uint32) error {
	s, ok := p.s.(*listStrategy)
	if !ok {
		return ErrWrongMode
	}
	return s.add(v, repeat)
}

// ConfigCallback delegates picking to pick and, if non-nil, restarting to
// restart.
func (p *Picker) ConfigCallback(k types.Kind, pick PickFunc, restart RestartFunc) error {
	if err := validKind(k); err != nil {
		return err
	}
	if pick == nil {
		return ErrNotReady
	}
	p.install(newCallback(k, pick, restart))
	return nil
}

// counter is the position source for step and list strategies.
func counter(c *Context, onRestart bool) uint32 {
	if c == nil {
		return 0
	}
	if onRestart {
		return c.RestartNum
	}
	return c.LoopNum
}

// draw advances the live strategy once.
func (p *Picker) draw() (Value, error) {
	if p.saved == nil {
		return p.s.pick(p.ctx, counter(p.ctx, p.pickOnRestart))
	}
	p.syncOverride()
	return p.s.pick(p.overrideCtx, counter(p.overrideCtx, p.pickOnRestart))
}

// shadowPick advances the saved strategy as a Pick would have. While
// overriding, the saved strategy keeps drawing against the primary context
// on its own schedule and its values are dropped, so the primary draw
// sequence matches a run without the override.
func (p *Picker) shadowPick() {
	if p.saved == nil {
		return
	}
	ss := &p.savedState
	if ss.pickOnRestart && ss.restartValid {
		return
	}
	p.shadowDraw()
}

// shadowRestart advances the saved strategy as a Restart would have.
func (p *Picker) shadowRestart() {
	if p.saved == nil {
		return
	}
	if p.savedState.pickOnRestart {
		p.shadowDraw()
		return
	}
	if err := p.saved.restart(p.ctx); err != nil {
		diag().Debug("suppressed restart failed", "picker", p.label(), "err", err)
	}
}

func (p *Picker) shadowDraw() {
	ss := &p.savedState
	v, err := p.saved.pick(p.ctx, counter(p.ctx, ss.pickOnRestart))
	switch {
	case err != nil:
		diag().Debug("suppressed pick failed", "picker", p.label(), "err", err)
	case ss.pickOnRestart:
		ss.restartValid, ss.restartValue = true, v
	}
}

func (p *Picker) syncOverride() {
	if p.ctx == nil {
		return
	}
	p.overrideCtx.LoopNum = p.ctx.LoopNum
	p.overrideCtx.RestartNum = p.ctx.RestartNum
	p.overrideCtx.Opaque = p.ctx.Opaque
}

func (p *Picker) next(want types.Kind) (Value, error) {
	if p.s.mode() == types.ModeUnset {
		return Value{}, ErrNotConfigured
	}
	if p.s.kind() != want {
		return Value{}, ErrWrongKind
	}
	if !p.s.ready() {
		return Value{}, ErrNotReady
	}
	p.shadowPick()
	if p.pickOnRestart {
		if !p.restartValid {
			if err := p.restartDraw(); err != nil {
				return Value{}, err
			}
		}
		p.last = p.restartValue
		return p.last, nil
	}
	v, err := p.draw()
	if err != nil {
		return Value{}, fmt.Errorf("picker %s: %w", p.label(), err)
	}
	p.last = v
	return v, nil
}

func (p *Picker) restartDraw() error {
	v, err := p.draw()
	if err != nil {
		return fmt.Errorf("picker %s: %w", p.label(), err)
	}
	p.restartValue = v
	p.restartValid = true
	return nil
}

// Pick returns the next value of a 32-bit integer picker.
func (p *Picker) Pick() (uint32, error) {
	v, err := p.next(types.KindInt)
	return v.Uint32(), err
}

// PickWide returns the next value of a 64-bit integer picker.
func (p *Picker) PickWide() (uint64, error) {
	v, err := p.next(types.KindInt64)
	return v.Uint64(), err
}

// FPick returns the next value of a float picker.
func (p *Picker) FPick() (float64, error) {
	v, err := p.next(types.KindFloat)
	return v.Float64(), err
}

// PickValue returns the next value whatever the picker's kind.
func (p *Picker) PickValue() (Value, error) {
	return p.next(p.s.kind())
}

// Restart begins a new restart period. A pick-on-restart picker draws its
// value for the period here; otherwise the strategy restarts (a shuffle
// reshuffles, a callback runs its restart function).
func (p *Picker) Restart() error {
	if p.s.mode() == types.ModeUnset {
		return ErrNotConfigured
	}
	if !p.s.ready() {
		return ErrNotReady
	}
	p.shadowRestart()
	if p.pickOnRestart {
		return p.restartDraw()
	}
	if p.saved == nil {
		return p.s.restart(p.ctx)
	}
	p.syncOverride()
	return p.s.restart(p.overrideCtx)
}

// StartOverride saves the live strategy and replaces it with a copy that
// draws from a private context. Reconfigure the picker freely, then call
// StopOverride to get the original back untouched.
func (p *Picker) StartOverride() error {
	if p.saved != nil {
		return ErrOverrideActive
	}
	base := p.ctx
	if base == nil {
		base = &Context{}
	}
	p.saved = p.s
	p.s = p.s.clone()
	p.overrideCtx = base.fork(nameSeed(p.name))
	p.savedState = savedState{
		fromExternal:  p.fromExternal,
		pickOnRestart: p.pickOnRestart,
		restartValid:  p.restartValid,
		restartValue:  p.restartValue,
	}
	p.restartValid = false
	return nil
}

// StopOverride restores the strategy saved by StartOverride along with
// its pick-on-restart mode, cached value and origin flag.
func (p *Picker) StopOverride() error {
	if p.saved == nil {
		return ErrNoOverride
	}
	ss := p.savedState
	p.s = p.saved
	p.saved = nil
	p.overrideCtx = nil
	p.savedState = savedState{}
	p.fromExternal = ss.fromExternal
	p.pickOnRestart = ss.pickOnRestart
	p.restartValid, p.restartValue = ss.restartValid, ss.restartValue
	return nil
}

// Override runs fn between StartOverride and StopOverride. The original
// strategy is restored even when fn fails or panics.
func (p *Picker) Override(fn func(*Picker) error) (err error) {
	if err := p.StartOverride(); err != nil {
		return err
	}
	defer func() {
		if serr := p.StopOverride(); serr != nil && err == nil {
			err = serr
		}
	}()
	return fn(p)
}

// Range reports the inclusive bounds of the values the picker can produce.
func (p *Picker) Range() (lo, hi Value, err error) {
	return p.s.bounds()
}

// Clone returns an independent copy: item tables, deck position, and the
// coverage record are duplicated. The copy shares the primary context but
// gets its own copy of an active override's random stream.
func (p *Picker) Clone() *Picker {
	c := *p
	c.s = p.s.clone()
	if p.saved != nil {
		c.saved = p.saved.clone()
		c.overrideCtx = p.overrideCtx.clone()
	}
	return &c
}

// CheckUsed reports items of a random or shuffle picker that were never
// produced. Other modes always pass.
func (p *Picker) CheckUsed() error {
	s := p.s
	if p.saved != nil {
		s = p.saved
	}
	var unused []int
	for i, u := range s.used() {
		if !u {
			unused = append(unused, i)
		}
	}
	if len(unused) == 0 {
		return nil
	}
	diag().Debug("picker items never used", "picker", p.label(), "items", unused)
	return fmt.Errorf("picker %s items %v: %w", p.label(), unused, ErrUnusedItems)
}
