package picker

import (
	"hash/fnv"
	"log/slog"
	"math/rand/v2"
)

// Source produces independent uniformly distributed 32-bit values.
// Seeding and restart semantics belong to the implementation.
type Source interface {
	Uint32() uint32
}

// Context is the state shared by every picker of an array: the random
// source, the loop and restart counters, and an opaque value handed to
// callback pickers. It is not synchronized; one goroutine at a time.
type Context struct {
	Rand       Source
	LoopNum    uint32
	RestartNum uint32
	Opaque     any
}

func (c *Context) source() (Source, error) {
	if c == nil || c.Rand == nil {
		return nil, ErrNoContext
	}
	return c.Rand, nil
}

// fork returns a private context for an override. The copy gets its own
// PCG stream so none of its draws touch c.Rand.
func (c *Context) fork(seed uint64) *Context {
	return &Context{
		Rand:       &pcgSource{src: rand.NewPCG(seed, uint64(c.RestartNum)<<32|uint64(c.LoopNum))},
		LoopNum:    c.LoopNum,
		RestartNum: c.RestartNum,
		Opaque:     c.Opaque,
	}
}

// clone copies a forked context. A PCG stream is duplicated at its current
// position so the two copies draw independently.
func (c *Context) clone() *Context {
	cc := *c
	if ps, ok := c.Rand.(*pcgSource); ok {
		src := *ps.src
		cc.Rand = &pcgSource{src: &src}
	}
	return &cc
}

type pcgSource struct {
	src *rand.PCG
}

func (s *pcgSource) Uint32() uint32 {
	return uint32(s.src.Uint64() >> 32)
}

func nameSeed(name string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(name))
	return h.Sum64()
}

var logger *slog.Logger

// SetLogger replaces the logger used for diagnostics such as degraded
// step configurations and coverage findings. A nil logger restores slog's
// default.
func SetLogger(l *slog.Logger) {
	logger = l
}

func diag() *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}
