package picker

import "github.com/nathoo/fancypick/types"

// strategy is the closed set of value generators behind a Picker.
// A strategy's kind is fixed when it is built.
type strategy interface {
	mode() types.Mode
	kind() types.Kind
	wrapMode() types.WrapMode
	ready() bool

	// pick produces the next value. counter is the loop or restart number
	// the picker selected for position-derived modes.
	pick(c *Context, counter uint32) (Value, error)
	restart(c *Context) error

	bounds() (lo, hi Value, err error)
	clone() strategy

	// used returns the per-item coverage record, nil for modes without one.
	used() []bool
}

// unsetStrategy is the placeholder of a picker that was never configured.
type unsetStrategy struct{}

func (unsetStrategy) mode() types.Mode              { return types.ModeUnset }
func (unsetStrategy) kind() types.Kind              { return types.KindUnset }
func (unsetStrategy) wrapMode() types.WrapMode      { return types.Wrap }
func (unsetStrategy) ready() bool                   { return false }
func (unsetStrategy) restart(*Context) error        { return ErrNotConfigured }
func (unsetStrategy) bounds() (Value, Value, error) { return Value{}, Value{}, ErrNotConfigured }
func (unsetStrategy) clone() strategy               { return unsetStrategy{} }
func (unsetStrategy) used() []bool                  { return nil }
func (unsetStrategy) pick(*Context, uint32) (Value, error) {
	return Value{}, ErrNotConfigured
}
