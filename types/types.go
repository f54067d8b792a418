// Package types defines the shared data structures for fancypick.
// This package contains only type definitions; no logic, no methods.
package types

// Kind is the numeric kind a picker produces.
type Kind int

const (
	KindUnset Kind = iota
	KindInt        // 32-bit unsigned integer
	KindInt64      // 64-bit unsigned integer
	KindFloat      // 64-bit IEEE float
)

// Mode identifies the generation strategy behind a picker.
type Mode int

const (
	ModeUnset Mode = iota
	ModeConst
	ModeRandom
	ModeShuffle
	ModeStep
	ModeList
	ModeCallback
)

// WrapMode is the past-the-end policy of step and list pickers.
type WrapMode int

const (
	Wrap  WrapMode = iota // cycle back to the first value
	Clamp                 // hold the final value
)

// Command is the parsed representation of a session command.
type Command struct {
	Verb string
	Name string // picker name, optional
	Args []string
	Rest string // raw text after the picker name, case preserved
}

// Settings holds session metadata declared by Settings{} in Lua.
type Settings struct {
	Title   string
	Author  string
	Version string
	Seed    int64
	Loops   int // loops per frame for the run command; 0 means 1
}

// State is the complete mutable session state.
type State struct {
	SessionID   string // uuid; survives save and load
	LoopNum     uint32
	RestartNum  uint32
	TurnCount   int
	RNGSeed     int64
	RNGPosition int64
	CommandLog  []string
}

// Result is the output of a single session step.
type Result struct {
	Output []string
	Draws  int64 // RNG draws consumed by the step
	Err    error // first failure, if any; Output already describes it
}
