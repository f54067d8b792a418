package picker

import (
	"errors"
	"fmt"
)

// Usage errors.
var (
	ErrNoContext      = errors.New("picker has no context")
	ErrNotConfigured  = errors.New("picker is not configured")
	ErrNotReady       = errors.New("picker is not ready (missing compile?)")
	ErrWrongKind      = errors.New("picker value kind mismatch")
	ErrWrongMode      = errors.New("operation does not apply to the picker's mode")
	ErrOverrideActive = errors.New("picker override already active")
	ErrNoOverride     = errors.New("picker override not active")
)

// Configuration errors.
var (
	ErrBadPickItems    = errors.New("bad pick items")
	ErrBadIndex        = errors.New("bad picker index")
	ErrNoItems         = errors.New("picker has no items")
	ErrWeightOverflow  = errors.New("random weights sum past 0xffffffff")
	ErrEmptyDeck       = errors.New("shuffle deck is empty")
	ErrDeckTooLarge    = errors.New("shuffle deck too large")
	ErrCorruptTable    = errors.New("random threshold table does not invert to its weights")
	ErrRangeUnknowable = errors.New("range of a callback picker is unknowable")
	ErrNotEncodable    = errors.New("picker cannot be encoded")
	ErrCallbackResult  = errors.New("callback returned a value of the wrong type")
)

// ErrUnusedItems is the coverage audit finding: some configured items were never picked.
var ErrUnusedItems = errors.New("picker items never used")

// ItemError points at the offending element of an external-format value.
// Index is the 1-based position in the Lua sequence, 0 for the value itself.
type ItemError struct {
	Index  int
	Reason string
}

func (e *ItemError) Error() string {
	if e.Index == 0 {
		return fmt.Sprintf("bad pick items: %s", e.Reason)
	}
	return fmt.Sprintf("bad pick items: element %d: %s", e.Index, e.Reason)
}

// Is makes errors.Is(err, ErrBadPickItems) hold for every ItemError.
func (e *ItemError) Is(target error) bool {
	return target == ErrBadPickItems
}

func itemErr(index int, format string, args ...any) error {
	return &ItemError{Index: index, Reason: fmt.Sprintf(format, args...)}
}
