package loader

import (
	"sort"

	lua "github.com/yuin/gopher-lua"
)

// registerAPI registers all Lua constructors and helpers as globals.
func registerAPI(L *lua.LState, coll *collector) {
	registerConstructors(L, coll)
	registerModeHelpers(L)
}

func registerConstructors(L *lua.LState, coll *collector) {
	// Settings { title = "...", seed = 1, ... }
	L.SetGlobal("Settings", L.NewFunction(func(L *lua.LState) int {
		coll.settings = L.CheckTable(1)
		return 0
	}))

	// Picker "name" { ... } is curried: Picker("name") returns a function that
	// takes the definition. Any external-format value is accepted, so
	// Picker "speed" (5) and Picker "f" (function() ... end) work too.
	L.SetGlobal("Picker", L.NewFunction(func(L *lua.LState) int {
		name := L.CheckString(1)
		file := coll.file
		L.Push(L.NewFunction(func(L *lua.LState) int {
			coll.add(name, L.Get(1), file)
			return 0
		}))
		return 1
	}))

	// Pickers { name = def, ... } declares several at once, added in name order.
	L.SetGlobal("Pickers", L.NewFunction(func(L *lua.LState) int {
		tbl := L.CheckTable(1)
		var names []string
		tbl.ForEach(func(k, _ lua.LValue) {
			if ks, ok := k.(lua.LString); ok {
				names = append(names, string(ks))
				return
			}
			coll.errs = append(coll.errs, coll.file+": Pickers key "+k.String()+" is not a name")
		})
		sort.Strings(names)
		for _, name := range names {
			coll.add(name, tbl.RawGetString(name), coll.file)
		}
		return 0
	}))
}

// registerModeHelpers adds Const(...), Random{...} and friends. Each one
// returns its arguments as a sequence led by the mode keyword, so
// Step(0, 5, 20) is {"step", 0, 5, 20}. A single table argument is spread:
// List{1, {2, 5}} is {"list", 1, {2, 5}}.
func registerModeHelpers(L *lua.LState) {
	helpers := map[string]string{
		"Const":    "const",
		"Random":   "random",
		"Shuffle":  "shuffle",
		"Step":     "step",
		"List":     "list",
		"Callback": "js",
	}
	for global, keyword := range helpers {
		L.SetGlobal(global, L.NewFunction(func(L *lua.LState) int {
			out := L.NewTable()
			out.Append(lua.LString(keyword))
			if L.GetTop() == 1 {
				if tbl, ok := L.Get(1).(*lua.LTable); ok {
					for i := 1; i <= tbl.Len(); i++ {
						out.Append(tbl.RawGetInt(i))
					}
					L.Push(out)
					return 1
				}
			}
			for i := 1; i <= L.GetTop(); i++ {
				out.Append(L.Get(i))
			}
			L.Push(out)
			return 1
		}))
	}
}
