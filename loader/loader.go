package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/nathoo/fancypick/engine/state"
	lua "github.com/yuin/gopher-lua"
)

// rawPicker holds a picker definition before validation.
type rawPicker struct {
	name  string
	value lua.LValue
	file  string
}

// collector accumulates Lua definitions during file execution.
type collector struct {
	settings *lua.LTable
	pickers  []rawPicker
	errs     []string
	file     string // file being executed
}

func (c *collector) add(name string, v lua.LValue, file string) {
	c.pickers = append(c.pickers, rawPicker{name: name, value: v, file: file})
}

// Load reads picker definitions from path: a single .lua file, or every
// .lua file in a directory. The definitions are validated and returned
// with the Lua VM still open; callers release it with Defs.Close.
func Load(path string) (*state.Defs, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var files []string
	if info.IsDir() {
		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, fmt.Errorf("reading picker directory %s: %w", path, err)
		}
		var names []string
		for _, e := range entries {
			if !e.IsDir() && strings.HasSuffix(e.Name(), ".lua") {
				names = append(names, e.Name())
			}
		}
		if len(names) == 0 {
			return nil, fmt.Errorf("no .lua files found in %s", path)
		}
		for _, n := range sortedLuaFiles(names) {
			files = append(files, filepath.Join(path, n))
		}
	} else {
		files = []string{path}
	}

	return run(func(L *lua.LState, coll *collector) error {
		for _, f := range files {
			coll.file = filepath.Base(f)
			if err := L.DoFile(f); err != nil {
				return fmt.Errorf("executing %s: %w", coll.file, err)
			}
		}
		return nil
	})
}

// LoadString loads definitions from Lua source, as Load does for a file.
func LoadString(src string) (*state.Defs, error) {
	return run(func(L *lua.LState, coll *collector) error {
		coll.file = "<string>"
		if err := L.DoString(src); err != nil {
			return fmt.Errorf("executing source: %w", err)
		}
		return nil
	})
}

func run(exec func(*lua.LState, *collector) error) (*state.Defs, error) {
	// Create sandboxed VM.
	L := lua.NewState(lua.Options{SkipOpenLibs: true})

	// Open safe libs only.
	openSafeLibs(L)

	// Sandbox: remove dangerous globals.
	sandbox(L)

	// Register API.
	coll := &collector{}
	registerAPI(L, coll)

	if err := exec(L, coll); err != nil {
		L.Close()
		return nil, err
	}

	defs, err := compile(L, coll)
	if err != nil {
		L.Close()
		return nil, fmt.Errorf("compiling picker definitions: %w", err)
	}

	if err := validate(defs, coll); err != nil {
		L.Close()
		return nil, err
	}
	return defs, nil
}

// sortedLuaFiles puts settings.lua first, then the rest alphabetically.
func sortedLuaFiles(files []string) []string {
	sort.Strings(files)
	for i, f := range files {
		if f == "settings.lua" {
			out := append([]string{f}, files[:i]...)
			return append(out, files[i+1:]...)
		}
	}
	return files
}

// openSafeLibs opens only the safe subset of Lua standard libraries.
func openSafeLibs(L *lua.LState) {
	// Base library (print, type, tostring, tonumber, pairs, ipairs, etc.)
	lua.OpenBase(L)
	// Table library (table.insert, table.sort, etc.)
	lua.OpenTable(L)
	// String library (string.format, string.sub, etc.)
	lua.OpenString(L)
	// Math library (math.floor, math.max, etc.)
	lua.OpenMath(L)
}

// sandbox removes dangerous globals and functions.
func sandbox(L *lua.LState) {
	dangerous := []string{
		"dofile", "loadfile", "load", "loadstring",
		"rawset", "rawget", "rawequal",
		"collectgarbage",
	}
	for _, name := range dangerous {
		L.SetGlobal(name, lua.LNil)
	}

	// Callbacks must not draw from a second random source.
	if tbl, ok := L.GetGlobal("math").(*lua.LTable); ok {
		tbl.RawSetString("random", lua.LNil)
		tbl.RawSetString("randomseed", lua.LNil)
	}
}
