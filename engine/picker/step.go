package picker

import (
	"math"

	"github.com/nathoo/fancypick/types"
)

// stepStrategy walks begin, begin+step, ... up to end, indexed by the
// external counter. A constant is a step strategy with no delta.
type stepStrategy struct {
	k        types.Kind
	begin    Value
	step     Value
	end      Value
	wrap     types.WrapMode
	maxStep  uint64
	constant bool
}

func newConst(v Value) *stepStrategy {
	return &stepStrategy{k: v.kind, begin: v, end: v, step: Value{kind: v.kind}, constant: true}
}

// newStep builds a step strategy. A configuration whose step cannot reach
// end from begin degrades to a constant at begin; it is never an error.
func newStep(name string, begin, step, end Value, wrap types.WrapMode) *stepStrategy {
	s := &stepStrategy{k: begin.kind, begin: begin, step: step, end: end, wrap: wrap}
	if s.k == types.KindFloat {
		s.initFloat(name)
	} else {
		s.initInt(name)
	}
	return s
}

// initInt sets the step count from the signed quotient (end-begin)/step.
// When that quotient is not positive (zero or negative, as when the signed
// difference and step disagree in sign) the count falls back to the
// unsigned quotient of the wrapped difference. Only a zero unsigned count
// degrades to a constant.
func (s *stepStrategy) initInt(name string) {
	mask := widthMask(s.k)
	delta := s.step.bits & mask
	if delta == 0 {
		s.constant = true
		return
	}
	diff := (s.end.bits - s.begin.bits) & mask

	var n int64
	if s.k == types.KindInt {
		n = int64(int32(uint32(diff))) / int64(int32(uint32(delta)))
	} else {
		n = int64(diff) / int64(delta)
	}
	steps := uint64(0)
	if n > 0 {
		steps = uint64(n)
	} else {
		steps = diff / delta
	}
	if steps == 0 {
		diag().Warn("step picker cannot reach end; using constant begin",
			"picker", name, "begin", s.begin.String(), "step", s.step.Int64(), "end", s.end.String())
		s.constant = true
		return
	}
	s.maxStep = steps
}

func (s *stepStrategy) initFloat(name string) {
	if s.step.f == 0 {
		s.constant = true
		return
	}
	diff := s.end.f - s.begin.f
	if (diff < 0) != (s.step.f < 0) && diff != 0 {
		s.step.f = -s.step.f
	}
	steps := math.Floor(diff / s.step.f)
	if !(steps >= 1) {
		diag().Warn("step picker cannot reach end; using constant begin",
			"picker", name, "begin", s.begin.f, "step", s.step.f, "end", s.end.f)
		s.constant = true
		return
	}
	// The counter is 32 bits wide, so larger step counts are never reached.
	if steps > math.MaxUint32 {
		steps = math.MaxUint32
	}
	s.maxStep = uint64(steps)
}

func (s *stepStrategy) mode() types.Mode {
	if s.constant {
		return types.ModeConst
	}
	return types.ModeStep
}

func (s *stepStrategy) kind() types.Kind         { return s.k }
func (s *stepStrategy) wrapMode() types.WrapMode { return s.wrap }
func (s *stepStrategy) ready() bool              { return true }
func (s *stepStrategy) restart(*Context) error   { return nil }
func (s *stepStrategy) used() []bool             { return nil }

func (s *stepStrategy) pick(_ *Context, counter uint32) (Value, error) {
	n, past := s.position(counter)
	if past {
		return s.end, nil
	}
	return s.at(n), nil
}

// position maps the counter onto a step number; past reports a clamped
// counter beyond the last step.
func (s *stepStrategy) position(counter uint32) (n uint64, past bool) {
	if s.constant {
		return 0, false
	}
	n = uint64(counter)
	if n <= s.maxStep {
		return n, false
	}
	if s.wrap == types.Clamp {
		return s.maxStep, true
	}
	return n % (s.maxStep + 1), false
}

func (s *stepStrategy) at(n uint64) Value {
	if s.constant {
		return s.begin
	}
	if s.k == types.KindFloat {
		return Float(s.begin.f + float64(n)*s.step.f)
	}
	return Value{kind: s.k, bits: (s.begin.bits + n*s.step.bits) & widthMask(s.k)}
}

func (s *stepStrategy) bounds() (Value, Value, error) {
	if s.constant {
		return s.begin, s.begin, nil
	}
	first, last := s.begin, s.at(s.maxStep)
	descending := s.step.f < 0
	if s.k != types.KindFloat {
		descending = signedNegative(s.step)
	}
	if s.wrap == types.Clamp {
		last = s.end
	}
	if descending {
		return last, first, nil
	}
	return first, last, nil
}

func (s *stepStrategy) clone() strategy {
	c := *s
	return &c
}
