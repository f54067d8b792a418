package picker

import (
	"errors"
	"fmt"
)

// Array is a fixed set of pickers sharing one Context.
type Array struct {
	ctx     *Context
	pickers []*Picker
}

// NewArray returns n unconfigured pickers bound to ctx.
func NewArray(n int, ctx *Context) *Array {
	a := &Array{ctx: ctx, pickers: make([]*Picker, n)}
	for i := range a.pickers {
		a.pickers[i] = New(ctx)
	}
	return a
}

func (a *Array) Len() int           { return len(a.pickers) }
func (a *Array) Context() *Context  { return a.ctx }
func (a *Array) Pickers() []*Picker { return a.pickers }

// At returns the picker at index i.
func (a *Array) At(i int) (*Picker, error) {
	if i < 0 || i >= len(a.pickers) {
		return nil, fmt.Errorf("index %d of %d: %w", i, len(a.pickers), ErrBadIndex)
	}
	return a.pickers[i], nil
}

// Append adds an unconfigured picker named name and returns it.
func (a *Array) Append(name string) *Picker {
	p := New(a.ctx)
	p.SetName(name)
	a.pickers = append(a.pickers, p)
	return p
}

// SetName names the picker at index i.
func (a *Array) SetName(i int, name string) error {
	p, err := a.At(i)
	if err != nil {
		return err
	}
	p.SetName(name)
	return nil
}

// SetNames names pickers 0..len(names)-1. More names than pickers is
// ErrBadIndex and names nothing.
func (a *Array) SetNames(names []string) error {
	if len(names) > len(a.pickers) {
		return fmt.Errorf("%d names for %d pickers: %w", len(names), len(a.pickers), ErrBadIndex)
	}
	for i, name := range names {
		a.pickers[i].SetName(name)
	}
	return nil
}

// Lookup returns the first picker named name and its index, or -1.
func (a *Array) Lookup(name string) (*Picker, int) {
	for i, p := range a.pickers {
		if p.name == name {
			return p, i
		}
	}
	return nil, -1
}

// Names returns the picker names in index order.
func (a *Array) Names() []string {
	names := make([]string, len(a.pickers))
	for i, p := range a.pickers {
		names[i] = p.name
	}
	return names
}

// SetContextAll rebinds the array and every picker to ctx.
func (a *Array) SetContextAll(ctx *Context) {
	a.ctx = ctx
	for _, p := range a.pickers {
		p.SetContext(ctx)
	}
}

// RestartAll restarts every picker. All pickers are visited; the first
// failure is returned.
func (a *Array) RestartAll() error {
	return a.each(func(p *Picker) error { return p.Restart() })
}

// RestartAllInitialized restarts the configured pickers and skips the rest.
func (a *Array) RestartAllInitialized() error {
	return a.each(func(p *Picker) error {
		if !p.Initialized() {
			return nil
		}
		return p.Restart()
	})
}

// CheckAllUsed runs the coverage audit on every picker.
func (a *Array) CheckAllUsed() error {
	return a.each((*Picker).CheckUsed)
}

// CoverageReport returns every picker's coverage finding, not just the first.
func (a *Array) CoverageReport() error {
	var errs []error
	for _, p := range a.pickers {
		if err := p.CheckUsed(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (a *Array) each(fn func(*Picker) error) error {
	var first error
	for i, p := range a.pickers {
		if err := fn(p); err != nil && first == nil {
			first = fmt.Errorf("picker %d: %w", i, err)
		}
	}
	return first
}
