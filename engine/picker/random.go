package picker

import (
	"fmt"
	"math"

	"github.com/nathoo/fancypick/types"
)

// fullScale is the top of the 32-bit threshold range.
const fullScale = math.MaxUint32

// randItem is one weighted entry: a single value when min == max.
type randItem struct {
	min, max Value

	// weight is the relative probability until compile, then zero;
	// compiled tables keep only the cumulative threshold.
	weight    uint32
	threshold uint32

	// 64-bit ranges wider than 2^32 values are split into 2^32 bins;
	// the first extraBins bins are one unit wider than binSize.
	binSize   uint64
	extraBins uint64
}

// randomStrategy picks weighted items, then a uniform value inside the
// chosen item's range. Draws per pick depend only on the kind: 2 for
// 32-bit ints, 3 for 64-bit ints and floats.
type randomStrategy struct {
	k         types.Kind
	items     []randItem
	compiled  bool
	total     uint64
	usedItems []bool
}

func newRandom(k types.Kind) *randomStrategy {
	return &randomStrategy{k: k}
}

func (s *randomStrategy) mode() types.Mode         { return types.ModeRandom }
func (s *randomStrategy) kind() types.Kind         { return s.k }
func (s *randomStrategy) wrapMode() types.WrapMode { return types.Wrap }
func (s *randomStrategy) ready() bool              { return s.compiled }
func (s *randomStrategy) restart(*Context) error   { return nil }
func (s *randomStrategy) used() []bool             { return s.usedItems }

func (s *randomStrategy) add(weight uint32, min, max Value) error {
	if min.kind != s.k || max.kind != s.k {
		return ErrWrongKind
	}
	if max.less(min) {
		min, max = max, min
	}
	if s.compiled {
		if err := s.decompile(); err != nil {
			return err
		}
	}
	s.items = append(s.items, randItem{min: min, max: max, weight: weight})
	return nil
}

// compile turns relative weights into cumulative thresholds scaled to the
// full 32-bit range. The table is built aside and committed only on success.
func (s *randomStrategy) compile() error {
	if s.compiled {
		return nil
	}
	if len(s.items) == 0 {
		return ErrNoItems
	}
	items := make([]randItem, len(s.items))
	copy(items, s.items)
	last := len(items) - 1

	var total uint64
	for _, it := range items {
		total += uint64(it.weight)
	}
	if total == 0 {
		items[last].weight = 1
		total = 1
	}
	if total > fullScale {
		return fmt.Errorf("total weight %d: %w", total, ErrWeightOverflow)
	}

	var cum uint64
	for i := range items {
		cum += uint64(items[i].weight)
		items[i].threshold = uint32((cum*fullScale + total/2) / total)
		items[i].weight = 0
		if s.k == types.KindInt64 {
			items[i].binSize, items[i].extraBins = bins(items[i].max.bits - items[i].min.bits)
		}
	}
	items[last].threshold = fullScale

	s.items = items
	s.total = total
	s.compiled = true
	s.usedItems = make([]bool, len(items))
	return nil
}

// bins partitions span+1 values into 2^32 bins without 128-bit math.
func bins(span uint64) (size, extra uint64) {
	if span < 1<<32 {
		return 0, 0
	}
	if span == math.MaxUint64 {
		return 1 << 32, 0
	}
	count := span + 1
	return count >> 32, count & math.MaxUint32
}

// weights recovers the relative weights by inverting the threshold
// scaling. The inversion is exact because total never exceeds fullScale.
func (s *randomStrategy) weights() ([]uint32, error) {
	out := make([]uint32, len(s.items))
	if !s.compiled {
		for i, it := range s.items {
			out[i] = it.weight
		}
		return out, nil
	}
	var prev, sum uint64
	for i, it := range s.items {
		cum := (uint64(it.threshold)*s.total + fullScale/2) / fullScale
		w := cum - prev
		out[i] = uint32(w)
		sum += w
		prev = cum
	}
	if sum != s.total {
		return nil, fmt.Errorf("weights sum to %d, compiled total %d: %w", sum, s.total, ErrCorruptTable)
	}
	return out, nil
}

func (s *randomStrategy) decompile() error {
	w, err := s.weights()
	if err != nil {
		return err
	}
	for i := range s.items {
		s.items[i].weight = w[i]
		s.items[i].threshold = 0
	}
	s.compiled = false
	s.total = 0
	return nil
}

// selectItem scans thresholds in order. Zero-weight items own an empty
// interval and are never selected.
func (s *randomStrategy) selectItem(r uint32) int {
	var prev uint32
	for i := range s.items {
		t := s.items[i].threshold
		empty := t == prev && (i > 0 || t == 0)
		if r <= t && !empty {
			return i
		}
		prev = t
	}
	return len(s.items) - 1
}

func (s *randomStrategy) pick(c *Context, _ uint32) (Value, error) {
	if !s.compiled {
		return Value{}, ErrNotReady
	}
	src, err := c.source()
	if err != nil {
		return Value{}, err
	}
	i := s.selectItem(src.Uint32())
	s.usedItems[i] = true
	it := &s.items[i]

	switch s.k {
	case types.KindInt:
		r2 := src.Uint32()
		span := it.max.bits - it.min.bits + 1
		return Value{kind: s.k, bits: (it.min.bits + (uint64(r2)*span)>>32) & math.MaxUint32}, nil

	case types.KindInt64:
		r2, r3 := src.Uint32(), src.Uint32()
		return WideU(it.min.bits + it.offset(r2, r3)), nil

	default:
		r2, r3 := src.Uint32(), src.Uint32()
		if it.min.f == it.max.f {
			return it.min, nil
		}
		frac := (float64(r2) + float64(r3)/(1<<32)) / (1 << 32)
		v := it.min.f + (it.max.f-it.min.f)*frac
		if v > it.max.f {
			v = it.max.f
		}
		return Float(v), nil
	}
}

// offset maps two draws onto [0, max-min] of a 64-bit item. Ranges of at
// most 2^32 values use r2 alone; wider ranges use r2 for the bin and r3
// for the position inside it.
func (it *randItem) offset(r2, r3 uint32) uint64 {
	span := it.max.bits - it.min.bits
	if span < 1<<32 {
		return (uint64(r2) * (span + 1)) >> 32
	}
	bin := uint64(r2)
	width := it.binSize
	start := bin*it.binSize + min(bin, it.extraBins)
	if bin < it.extraBins {
		width++
	}
	return start + (uint64(r3)*width)>>32
}

func (s *randomStrategy) bounds() (Value, Value, error) {
	if !s.compiled {
		return Value{}, Value{}, ErrNotReady
	}
	lo, hi := s.items[0].min, s.items[0].max
	for _, it := range s.items[1:] {
		if it.min.less(lo) {
			lo = it.min
		}
		if hi.less(it.max) {
			hi = it.max
		}
	}
	return lo, hi, nil
}

func (s *randomStrategy) clone() strategy {
	c := *s
	c.items = append([]randItem(nil), s.items...)
	c.usedItems = append([]bool(nil), s.usedItems...)
	return &c
}
