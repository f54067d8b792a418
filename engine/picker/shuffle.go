package picker

import (
	"fmt"

	"github.com/nathoo/fancypick/types"
)

// MaxDeckSize bounds the total card count of a shuffle picker.
const MaxDeckSize = 1 << 24

type shuffleItem struct {
	v     Value
	count uint32
}

// shuffleStrategy deals every card of the deck once per shuffle, so a
// value repeats only as often as its count says. The deck holds item
// indices.
type shuffleStrategy struct {
	k         types.Kind
	items     []shuffleItem
	deck      []uint32
	cursor    int
	compiled  bool
	usedItems []bool
}

func newShuffle(k types.Kind) *shuffleStrategy {
	return &shuffleStrategy{k: k}
}

func (s *shuffleStrategy) mode() types.Mode         { return types.ModeShuffle }
func (s *shuffleStrategy) kind() types.Kind         { return s.k }
func (s *shuffleStrategy) wrapMode() types.WrapMode { return types.Wrap }
func (s *shuffleStrategy) ready() bool              { return s.compiled }
func (s *shuffleStrategy) used() []bool             { return s.usedItems }

func (s *shuffleStrategy) add(count uint32, v Value) error {
	if v.kind != s.k {
		return ErrWrongKind
	}
	s.items = append(s.items, shuffleItem{v: v, count: count})
	s.compiled = false
	return nil
}

func (s *shuffleStrategy) buildDeck() ([]uint32, error) {
	var size uint64
	for _, it := range s.items {
		size += uint64(it.count)
	}
	if size == 0 {
		return nil, ErrEmptyDeck
	}
	if size > MaxDeckSize {
		return nil, fmt.Errorf("%d cards: %w", size, ErrDeckTooLarge)
	}
	deck := make([]uint32, 0, size)
	for i, it := range s.items {
		for range it.count {
			deck = append(deck, uint32(i))
		}
	}
	return deck, nil
}

// compile lays out the deck in item order with the cursor at the end, so
// the first pick shuffles.
func (s *shuffleStrategy) compile() error {
	deck, err := s.buildDeck()
	if err != nil {
		return err
	}
	s.deck = deck
	s.cursor = len(deck)
	s.compiled = true
	s.usedItems = make([]bool, len(s.items))
	return nil
}

// shuffle is Fisher-Yates with one draw per swap.
func (s *shuffleStrategy) shuffle(src Source) {
	for i := len(s.deck) - 1; i > 0; i-- {
		j := int((uint64(src.Uint32()) * uint64(i+1)) >> 32)
		s.deck[i], s.deck[j] = s.deck[j], s.deck[i]
	}
	s.cursor = 0
}

func (s *shuffleStrategy) pick(c *Context, _ uint32) (Value, error) {
	if !s.compiled {
		return Value{}, ErrNotReady
	}
	if s.cursor >= len(s.deck) {
		src, err := c.source()
		if err != nil {
			return Value{}, err
		}
		s.shuffle(src)
	}
	i := s.deck[s.cursor]
	s.cursor++
	s.usedItems[i] = true
	return s.items[i].v, nil
}

func (s *shuffleStrategy) restart(c *Context) error {
	if !s.compiled {
		return ErrNotReady
	}
	src, err := c.source()
	if err != nil {
		return err
	}
	deck, err := s.buildDeck()
	if err != nil {
		return err
	}
	s.deck = deck
	s.shuffle(src)
	return nil
}

func (s *shuffleStrategy) bounds() (Value, Value, error) {
	if !s.compiled {
		return Value{}, Value{}, ErrNotReady
	}
	var lo, hi Value
	first := true
	for _, it := range s.items {
		if it.count == 0 {
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

func (s *shuffleStrategy) clone() strategy {
	c := *s
	c.items = append([]shuffleItem(nil), s.items...)
	c.deck = append([]uint32(nil), s.deck...)
	c.usedItems = append([]bool(nil), s.usedItems...)
	return &c
}
