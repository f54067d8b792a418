package loader

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/nathoo/fancypick/engine/picker"
	"github.com/nathoo/fancypick/engine/state"
	"github.com/nathoo/fancypick/types"
	lua "github.com/yuin/gopher-lua"
)

// warnOut receives validation warnings.
var warnOut io.Writer = os.Stderr

// ValidationError collects all validation errors and warnings.
type ValidationError struct {
	Errors   []string
	Warnings []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed with %d error(s):\n  %s",
		len(e.Errors), strings.Join(e.Errors, "\n  "))
}

// validate checks names and decodes every definition once, so a bad
// picker is reported at load time with its file rather than mid-session.
func validate(defs *state.Defs, coll *collector) error {
	ve := &ValidationError{}
	ve.Errors = append(ve.Errors, coll.errs...)

	if len(coll.pickers) == 0 {
		ve.Warnings = append(ve.Warnings, "no pickers defined")
	}

	seen := map[string]string{}
	for _, rp := range coll.pickers {
		if rp.name == "" {
			ve.Errors = append(ve.Errors, fmt.Sprintf("%s: picker with empty name", rp.file))
			continue
		}
		if prev, ok := seen[rp.name]; ok {
			ve.Errors = append(ve.Errors, fmt.Sprintf(
				"%s: picker %q already defined in %s", rp.file, rp.name, prev))
			continue
		}
		seen[rp.name] = rp.file

		if isEmpty(rp.value) {
			ve.Errors = append(ve.Errors, fmt.Sprintf("%s: picker %q has an empty definition", rp.file, rp.name))
			continue
		}

		probe := picker.New(nil)
		probe.SetName(rp.name)
		if err := probe.FromLua(defs.L, rp.value); err != nil {
			ve.Errors = append(ve.Errors, fmt.Sprintf("%s: picker %q: %v", rp.file, rp.name, err))
			continue
		}
		if probe.Mode() == types.ModeCallback {
			ve.Warnings = append(ve.Warnings, fmt.Sprintf(
				"picker %q is a callback; saves keep its loaded definition", rp.name))
		}
	}

	// Print warnings to stderr.
	for _, w := range ve.Warnings {
		fmt.Fprintf(warnOut, "warning: %s\n", w)
	}

	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

func isEmpty(v lua.LValue) bool {
	switch val := v.(type) {
	case *lua.LNilType:
		return true
	case *lua.LTable:
		return val.Len() == 0 && val.MaxN() == 0
	}
	return false
}
