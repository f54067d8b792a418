package picker

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/nathoo/fancypick/types"
)

// countingSource is a seeded source that counts its draws.
type countingSource struct {
	r *rand.PCG
	n int
}

func newCounting(seed uint64) *countingSource {
	return &countingSource{r: rand.NewPCG(seed, 0)}
}

func (s *countingSource) Uint32() uint32 {
	s.n++
	return uint32(s.r.Uint64() >> 32)
}

// seqSource replays fixed values in a cycle.
type seqSource struct {
	vals []uint32
	n    int
}

func (s *seqSource) Uint32() uint32 {
	v := s.vals[s.n%len(s.vals)]
	s.n++
	return v
}

func newCtx(seed uint64) (*Context, *countingSource) {
	src := newCounting(seed)
	return &Context{Rand: src}, src
}

func TestStep_WrapAndClamp(t *testing.T) {
	tests := []struct {
		wrap    types.WrapMode
		counter uint32
		want    uint32
	}{
		{types.Wrap, 0, 0},
		{types.Wrap, 3, 9},
		{types.Wrap, 4, 0},
		{types.Wrap, 5, 3},
		{types.Clamp, 3, 9},
		{types.Clamp, 4, 10},
		{types.Clamp, 100, 10},
	}
	for _, tt := range tests {
		ctx, src := newCtx(1)
		p := New(ctx)
		if err := p.ConfigStep(Int(0), Int(3), Int(10), tt.wrap); err != nil {
			t.Fatalf("ConfigStep: %v", err)
		}
		ctx.LoopNum = tt.counter
		got, err := p.Pick()
		if err != nil {
			t.Fatalf("Pick: %v", err)
		}
		if got != tt.want {
			t.Errorf("wrap=%d counter=%d: Pick = %d, want %d", tt.wrap, tt.counter, got, tt.want)
		}
		if src.n != 0 {
			t.Errorf("step pick drew %d values, want 0", src.n)
		}
	}
}

func TestStep_Deterministic(t *testing.T) {
	ctx, _ := newCtx(1)
	ctx.LoopNum = 2
	p := New(ctx)
	if err := p.ConfigStep(Int(100), Int(5), Int(200), types.Wrap); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		if got, _ := p.Pick(); got != 110 {
			t.Fatalf("pick %d = %d, want 110", i, got)
		}
	}
}

func TestStep_Descending(t *testing.T) {
	ctx, _ := newCtx(1)
	p := New(ctx)
	if err := p.ConfigStep(Int(10), Int(-3), Int(0), types.Wrap); err != nil {
		t.Fatal(err)
	}
	want := []int64{10, 7, 4, 1, 10}
	for i, w := range want {
		ctx.LoopNum = uint32(i)
		v, err := p.PickValue()
		if err != nil {
			t.Fatal(err)
		}
		if v.Int64() != w {
			t.Errorf("counter %d = %d, want %d", i, v.Int64(), w)
		}
	}
	lo, hi, err := p.Range()
	if err != nil {
		t.Fatal(err)
	}
	if lo.Int64() != 1 || hi.Int64() != 10 {
		t.Errorf("Range = [%d, %d], want [1, 10]", lo.Int64(), hi.Int64())
	}
}

func TestStep_UnreachableDegradesToConst(t *testing.T) {
	ctx, _ := newCtx(1)
	p := New(ctx)
	if err := p.ConfigStep(Int(0), Int(20), Int(10), types.Wrap); err != nil {
		t.Fatalf("ConfigStep should not fail: %v", err)
	}
	if p.Mode() != types.ModeConst {
		t.Errorf("Mode = %d, want ModeConst", p.Mode())
	}
	ctx.LoopNum = 7
	if got, _ := p.Pick(); got != 0 {
		t.Errorf("Pick = %d, want begin 0", got)
	}
}

func TestStep_NegativeQuotientUsesUnsigned(t *testing.T) {
	tests := []struct {
		name             string
		begin, step, end int64
		counter          uint32
		want             uint32
	}{
		// Signed (-1-0)/1 = -1; the unsigned span 0xFFFFFFFF is walked.
		{"end below begin", 0, 1, -1, 5, 5},
		{"step away from end", 6, 2, 4, 1, 8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, _ := newCtx(1)
			p := New(ctx)
			if err := p.ConfigStep(Int(tt.begin), Int(tt.step), Int(tt.end), types.Wrap); err != nil {
				t.Fatal(err)
			}
			if p.Mode() != types.ModeStep {
				t.Fatalf("Mode = %d, want ModeStep", p.Mode())
			}
			ctx.LoopNum = tt.counter
			if got, _ := p.Pick(); got != tt.want {
				t.Errorf("Pick = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestStep_Float(t *testing.T) {
	ctx, _ := newCtx(1)
	p := New(ctx)
	// The step's sign is corrected to match the direction of travel.
	if err := p.ConfigStep(Float(0), Float(-0.5), Float(2), types.Wrap); err != nil {
		t.Fatal(err)
	}
	want := []float64{0, 0.5, 1, 1.5, 2, 0}
	for i, w := range want {
		ctx.LoopNum = uint32(i)
		got, err := p.FPick()
		if err != nil {
			t.Fatal(err)
		}
		if got != w {
			t.Errorf("counter %d = %v, want %v", i, got, w)
		}
	}
}

func TestList_RepeatWeightedCycle(t *testing.T) {
	ctx, _ := newCtx(1)
	p := New(ctx)
	if err := p.ConfigList(types.KindInt, types.Wrap); err != nil {
		t.Fatal(err)
	}
	p.AddListItem(Int(5), 2)
	p.AddListItem(Int(7), 1)

	want := []uint32{5, 5, 7, 5, 5, 7}
	for i, w := range want {
		ctx.LoopNum = uint32(i)
		got, err := p.Pick()
		if err != nil {
			t.Fatal(err)
		}
		if got != w {
			t.Errorf("counter %d = %d, want %d", i, got, w)
		}
		if again, _ := p.Pick(); again != got {
			t.Errorf("counter %d: second pick %d differs from %d", i, again, got)
		}
	}
}

func TestList_Clamp(t *testing.T) {
	ctx, _ := newCtx(1)
	p := New(ctx)
	p.ConfigList(types.KindInt, types.Clamp)
	p.AddListItem(Int(5), 2)
	p.AddListItem(Int(7), 1)

	ctx.LoopNum = 50
	if got, _ := p.Pick(); got != 7 {
		t.Errorf("clamped Pick = %d, want 7", got)
	}
}

func TestList_ZeroRepeatsHoldsFirst(t *testing.T) {
	ctx, _ := newCtx(1)
	p := New(ctx)
	p.ConfigList(types.KindInt, types.Wrap)
	p.AddListItem(Int(1), 0)
	p.AddListItem(Int(2), 0)

	for i := uint32(0); i < 4; i++ {
		ctx.LoopNum = i
		if got, _ := p.Pick(); got != 1 {
			t.Errorf("counter %d = %d, want 1", i, got)
		}
	}
}

func TestPick_Errors(t *testing.T) {
	ctx, _ := newCtx(1)

	p := New(ctx)
	if _, err := p.Pick(); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("unconfigured Pick err = %v, want ErrNotConfigured", err)
	}

	p.ConfigRandom(types.KindInt)
	p.AddRandItem(1, Int(3))
	if _, err := p.Pick(); !errors.Is(err, ErrNotReady) {
		t.Errorf("uncompiled Pick err = %v, want ErrNotReady", err)
	}
	p.CompileRandom()
	if _, err := p.PickWide(); !errors.Is(err, ErrWrongKind) {
		t.Errorf("PickWide on int picker err = %v, want ErrWrongKind", err)
	}
	if _, err := p.FPick(); !errors.Is(err, ErrWrongKind) {
		t.Errorf("FPick on int picker err = %v, want ErrWrongKind", err)
	}
	if err := p.AddListItem(Int(1), 1); !errors.Is(err, ErrWrongMode) {
		t.Errorf("AddListItem on random picker err = %v, want ErrWrongMode", err)
	}
	if err := p.AddRandItem(1, Float(1)); !errors.Is(err, ErrWrongKind) {
		t.Errorf("AddRandItem float into int table err = %v, want ErrWrongKind", err)
	}
	if err := p.ConfigStep(Int(0), Float(1), Int(3), types.Wrap); !errors.Is(err, ErrWrongKind) {
		t.Errorf("ConfigStep mixed kinds err = %v, want ErrWrongKind", err)
	}

	noCtx := New(nil)
	noCtx.ConfigRandom(types.KindInt)
	noCtx.AddRandItem(1, Int(3))
	noCtx.CompileRandom()
	if _, err := noCtx.Pick(); !errors.Is(err, ErrNoContext) {
		t.Errorf("Pick without context err = %v, want ErrNoContext", err)
	}
}

func TestPick_LastDoesNotDraw(t *testing.T) {
	ctx, src := newCtx(3)
	p := New(ctx)
	p.ConfigRandom(types.KindInt)
	p.AddRandRange(1, Int(0), Int(1000))
	p.CompileRandom()

	v, err := p.Pick()
	if err != nil {
		t.Fatal(err)
	}
	before := src.n
	for i := 0; i < 3; i++ {
		if p.Last() != v {
			t.Errorf("Last = %d, want %d", p.Last(), v)
		}
	}
	if src.n != before {
		t.Errorf("Last drew %d values", src.n-before)
	}
}

func TestPickOnRestart(t *testing.T) {
	ctx, src := newCtx(9)
	p := New(ctx)
	p.ConfigRandom(types.KindInt)
	p.AddRandRange(1, Int(0), Int(1<<30))
	p.CompileRandom()
	p.SetPickOnRestart(true)

	first, err := p.Pick()
	if err != nil {
		t.Fatal(err)
	}
	if src.n != 2 {
		t.Fatalf("first pick drew %d, want 2", src.n)
	}
	for i := 0; i < 5; i++ {
		if got, _ := p.Pick(); got != first {
			t.Fatalf("pick %d = %d, want cached %d", i, got, first)
		}
	}
	if src.n != 2 {
		t.Errorf("cached picks drew %d values", src.n-2)
	}

	if err := p.Restart(); err != nil {
		t.Fatal(err)
	}
	if src.n != 4 {
		t.Errorf("restart drew %d values, want 2", src.n-2)
	}
	second, _ := p.Pick()
	if second != p.restartValue.Uint32() {
		t.Errorf("Pick after restart = %d, want %d", second, p.restartValue.Uint32())
	}
}

func TestPickOnRestart_StepUsesRestartNum(t *testing.T) {
	ctx, _ := newCtx(1)
	p := New(ctx)
	p.ConfigStep(Int(0), Int(1), Int(100), types.Wrap)
	p.SetPickOnRestart(true)

	ctx.LoopNum = 40
	ctx.RestartNum = 2
	p.Restart()
	if got, _ := p.Pick(); got != 2 {
		t.Errorf("Pick = %d, want restart number 2", got)
	}
}

func TestCallback(t *testing.T) {
	ctx, _ := newCtx(1)
	p := New(ctx)
	restarts := 0
	fail := false
	err := p.ConfigCallback(types.KindInt,
		func(c *Context) (Value, error) {
			if fail {
				return Value{}, errors.New("boom")
			}
			return Float(float64(c.LoopNum) * 2), nil
		},
		func(c *Context) error {
			restarts++
			return nil
		})
	if err != nil {
		t.Fatal(err)
	}

	ctx.LoopNum = 21
	if got, _ := p.Pick(); got != 42 {
		t.Errorf("Pick = %d, want 42", got)
	}
	fail = true
	if _, err := p.Pick(); err == nil {
		t.Error("expected callback error")
	}
	if p.Last() != 42 {
		t.Errorf("Last after failed pick = %d, want 42", p.Last())
	}
	p.Restart()
	if restarts != 1 {
		t.Errorf("restarts = %d, want 1", restarts)
	}
	if _, _, err := p.Range(); !errors.Is(err, ErrRangeUnknowable) {
		t.Errorf("Range err = %v, want ErrRangeUnknowable", err)
	}
}

func TestOverride_Isolation(t *testing.T) {
	build := func(ctx *Context) *Picker {
		p := New(ctx)
		p.SetName("dither")
		p.ConfigRandom(types.KindInt)
		p.AddRandRange(3, Int(0), Int(99))
		p.AddRandRange(1, Int(500), Int(600))
		p.CompileRandom()
		return p
	}

	refCtx, refSrc := newCtx(77)
	ref := build(refCtx)
	var want []uint32
	for i := 0; i < 30; i++ {
		v, _ := ref.Pick()
		want = append(want, v)
	}

	ctx, src := newCtx(77)
	p := build(ctx)
	for i := 0; i < 10; i++ {
		if v, _ := p.Pick(); v != want[i] {
			t.Fatalf("pick %d = %d, want %d", i, v, want[i])
		}
	}
	if err := p.StartOverride(); err != nil {
		t.Fatal(err)
	}
	if err := p.StartOverride(); !errors.Is(err, ErrOverrideActive) {
		t.Errorf("nested StartOverride err = %v, want ErrOverrideActive", err)
	}
	if err := p.ConfigConst(Int(1234)); err != nil {
		t.Fatal(err)
	}
	for i := 10; i < 20; i++ {
		if v, _ := p.Pick(); v != 1234 {
			t.Fatalf("override pick %d = %d, want 1234", i, v)
		}
	}
	if err := p.StopOverride(); err != nil {
		t.Fatal(err)
	}
	if err := p.StopOverride(); !errors.Is(err, ErrNoOverride) {
		t.Errorf("second StopOverride err = %v, want ErrNoOverride", err)
	}
	for i := 20; i < 30; i++ {
		if v, _ := p.Pick(); v != want[i] {
			t.Errorf("pick %d after override = %d, want %d", i, v, want[i])
		}
	}
	if src.n != refSrc.n {
		t.Errorf("draws = %d, want %d", src.n, refSrc.n)
	}
}

func TestOverride_ScopeGuard(t *testing.T) {
	ctx, _ := newCtx(1)
	p := New(ctx)
	p.ConfigConst(Int(5))

	boom := errors.New("boom")
	err := p.Override(func(p *Picker) error {
		p.ConfigConst(Int(6))
		if got, _ := p.Pick(); got != 6 {
			t.Errorf("override Pick = %d, want 6", got)
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Errorf("Override err = %v, want boom", err)
	}
	if p.Overriding() {
		t.Error("override still active after Override returned")
	}
	if got, _ := p.Pick(); got != 5 {
		t.Errorf("Pick after Override = %d, want 5", got)
	}
}

func TestOverride_CloneStartsFromSavedState(t *testing.T) {
	ctx, _ := newCtx(4)
	p := New(ctx)
	p.ConfigShuffle(types.KindInt)
	p.AddShuffleItem(1, Int(1))
	p.AddShuffleItem(1, Int(2))
	p.CompileShuffle()

	if err := p.Override(func(p *Picker) error {
		if p.Mode() != types.ModeShuffle {
			t.Errorf("override Mode = %d, want ModeShuffle", p.Mode())
		}
		_, err := p.Pick()
		return err
	}); err != nil {
		t.Fatal(err)
	}
}

func TestClone_Independent(t *testing.T) {
	ctx, _ := newCtx(5)
	p := New(ctx)
	p.ConfigShuffle(types.KindInt)
	for i := int64(0); i < 4; i++ {
		p.AddShuffleItem(1, Int(i))
	}
	p.CompileShuffle()
	p.Pick()

	c := p.Clone()
	c.Pick()
	c.Pick()

	orig := p.s.(*shuffleStrategy)
	cl := c.s.(*shuffleStrategy)
	if orig.cursor != 1 || cl.cursor != 3 {
		t.Errorf("cursors = %d, %d; want 1, 3", orig.cursor, cl.cursor)
	}
	if &orig.deck[0] == &cl.deck[0] {
		t.Error("clone shares the deck")
	}
}

func TestOverride_ShadowFollowsSavedSchedule(t *testing.T) {
	tests := []struct {
		name            string
		saved, live     bool // pick-on-restart for the saved and override configs
		picks, restarts int
	}{
		{"both per pick", false, false, 6, 1},
		{"saved on restart, override per pick", true, false, 6, 2},
		{"saved per pick, override on restart", false, true, 6, 2},
		{"both on restart", true, true, 6, 2},
	}
	build := func(ctx *Context, onRestart bool) *Picker {
		p := New(ctx)
		p.SetName("jitter")
		p.ConfigRandom(types.KindInt)
		p.AddRandRange(1, Int(0), Int(1000))
		p.CompileRandom()
		p.SetPickOnRestart(onRestart)
		return p
	}
	run := func(p *Picker, ctx *Context, picks, restarts int) {
		for r := 0; r < restarts; r++ {
			ctx.RestartNum++
			p.Restart()
			for i := 0; i < picks; i++ {
				ctx.LoopNum++
				p.Pick()
			}
		}
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			refCtx, refSrc := newCtx(9)
			ref := build(refCtx, tt.saved)
			run(ref, refCtx, tt.picks, tt.restarts)
			want, _ := ref.Pick()

			ctx, src := newCtx(9)
			p := build(ctx, tt.saved)
			p.StartOverride()
			p.ConfigRandom(types.KindInt)
			p.AddRandRange(1, Int(5000), Int(6000))
			p.CompileRandom()
			p.SetPickOnRestart(tt.live)
			run(p, ctx, tt.picks, tt.restarts)
			p.StopOverride()
			got, _ := p.Pick()

			if src.n != refSrc.n {
				t.Errorf("draws = %d, want %d", src.n, refSrc.n)
			}
			if got != want {
				t.Errorf("Pick after override = %d, want %d", got, want)
			}
		})
	}
}

func TestClone_OverrideStreamIndependent(t *testing.T) {
	ctx, _ := newCtx(3)
	p := New(ctx)
	p.SetName("spread")
	p.ConfigConst(Int(1))
	p.StartOverride()
	p.ConfigRandom(types.KindInt)
	p.AddRandRange(1, Int(0), Int(1<<20))
	p.CompileRandom()

	c := p.Clone()
	if c.overrideCtx == p.overrideCtx || c.overrideCtx.Rand == p.overrideCtx.Rand {
		t.Fatal("clone shares the override context")
	}
	var fromClone []uint32
	for i := 0; i < 8; i++ {
		v, _ := c.Pick()
		fromClone = append(fromClone, v)
	}
	for i, want := range fromClone {
		if got, _ := p.Pick(); got != want {
			t.Errorf("original pick %d = %d, want %d (clone advanced the shared stream)", i, got, want)
		}
	}
}

func TestCheckUsed(t *testing.T) {
	ctx := &Context{Rand: &seqSource{vals: []uint32{0, 0}}}
	p := New(ctx)
	p.ConfigRandom(types.KindInt)
	p.AddRandItem(1, Int(1))
	p.AddRandItem(1, Int(2))
	p.CompileRandom()

	p.Pick()
	err := p.CheckUsed()
	if !errors.Is(err, ErrUnusedItems) {
		t.Fatalf("CheckUsed err = %v, want ErrUnusedItems", err)
	}

	ctx.Rand = &seqSource{vals: []uint32{math.MaxUint32, 0}}
	p.Pick()
	if err := p.CheckUsed(); err != nil {
		t.Errorf("CheckUsed after covering both items: %v", err)
	}

	step := New(ctx)
	step.ConfigStep(Int(0), Int(1), Int(3), types.Wrap)
	if err := step.CheckUsed(); err != nil {
		t.Errorf("step CheckUsed: %v", err)
	}
}
