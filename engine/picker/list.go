package picker

import "github.com/nathoo/fancypick/types"

type listItem struct {
	v      Value
	repeat uint32
}

// listStrategy cycles through its items, each held for repeat
// consecutive counter values. The value is a pure function of the counter.
type listStrategy struct {
	k      types.Kind
	wrap   types.WrapMode
	items  []listItem
	rptSum uint64 // 0 until first use
}

func newList(k types.Kind, wrap types.WrapMode) *listStrategy {
	return &listStrategy{k: k, wrap: wrap}
}

func (s *listStrategy) mode() types.Mode         { return types.ModeList }
func (s *listStrategy) kind() types.Kind         { return s.k }
func (s *listStrategy) wrapMode() types.WrapMode { return s.wrap }
func (s *listStrategy) ready() bool              { return len(s.items) > 0 }
func (s *listStrategy) restart(*Context) error   { return nil }
func (s *listStrategy) used() []bool             { return nil }

func (s *listStrategy) add(v Value, repeat uint32) error {
	if v.kind != s.k {
		return ErrWrongKind
	}
	s.items = append(s.items, listItem{v: v, repeat: repeat})
	s.rptSum = 0
	return nil
}

// sum totals the repeats. An all-zero list holds its first item once; the
// fix is written back so encoding reports what picking does.
func (s *listStrategy) sum() uint64 {
	if s.rptSum != 0 {
		return s.rptSum
	}
	for _, it := range s.items {
		s.rptSum += uint64(it.repeat)
	}
	if s.rptSum == 0 {
		s.items[0].repeat = 1
		s.rptSum = 1
	}
	return s.rptSum
}

func (s *listStrategy) pick(_ *Context, counter uint32) (Value, error) {
	if len(s.items) == 0 {
		return Value{}, ErrNotReady
	}
	total := s.sum()
	n := uint64(counter)
	if s.wrap == types.Wrap {
		n %= total
	} else if n >= total {
		n = total - 1
	}
	for _, it := range s.items {
		if n < uint64(it.repeat) {
			return it.v, nil
		}
		n -= uint64(it.repeat)
	}
	return s.items[len(s.items)-1].v, nil
}

func (s *listStrategy) bounds() (Value, Value, error) {
	if len(s.items) == 0 {
		return Value{}, Value{}, ErrNotReady
	}
	s.sum()
	var lo, hi Value
	first := true
	for _, it := range s.items {
		if it.repeat == 0 {
			continue
		}
		if first || it.v.less(lo) {
			lo = it.v
		}
		if first || hi.less(it.v) {
			hi = it.v
		}
		first = false
	}
	return lo, hi, nil
}

func (s *listStrategy) clone() strategy {
	c := *s
	c.items = append([]listItem(nil), s.items...)
	return &c
}
