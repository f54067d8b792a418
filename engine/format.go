package engine

import (
	"sort"
	"strconv"
	"strings"

	lua "github.com/yuin/gopher-lua"
)

// FormatLua renders a Lua value as a literal that reads back to the same
// value. Sequence elements come first, then keyed fields sorted by key.
// Functions cannot be written back and render as "function".
func FormatLua(v lua.LValue) string {
	var b strings.Builder
	writeLua(&b, v)
	return b.String()
}

func writeLua(b *strings.Builder, v lua.LValue) {
	switch val := v.(type) {
	case lua.LString:
		b.WriteString(strconv.Quote(string(val)))
	case lua.LNumber:
		b.WriteString(val.String())
	case lua.LBool:
		b.WriteString(strconv.FormatBool(bool(val)))
	case *lua.LFunction:
		b.WriteString("function")
	case *lua.LTable:
		writeTable(b, val)
	default:
		b.WriteString("nil")
	}
}

type field struct {
	key string // rendered key, including brackets when needed
	v   lua.LValue
}

// seqLen counts the elements from index 1 up to the first nil. MaxN can
// report past a hole, so it is not used here.
func seqLen(t *lua.LTable) int {
	n := 0
	for t.RawGetInt(n+1) != lua.LNil {
		n++
	}
	return n
}

func writeTable(b *strings.Builder, t *lua.LTable) {
	n := seqLen(t)
	var fields []field
	t.ForEach(func(k, v lua.LValue) {
		switch key := k.(type) {
		case lua.LNumber:
			if i := int(key); float64(i) == float64(key) && i >= 1 && i <= n {
				return
			}
			fields = append(fields, field{"[" + key.String() + "]", v})
		case lua.LString:
			if isIdent(string(key)) {
				fields = append(fields, field{string(key), v})
			} else {
				fields = append(fields, field{"[" + strconv.Quote(string(key)) + "]", v})
			}
		}
	})
	sort.Slice(fields, func(i, j int) bool { return fields[i].key < fields[j].key })

	b.WriteByte('{')
	sep := ""
	for i := 1; i <= n; i++ {
		b.WriteString(sep)
		writeLua(b, t.RawGetInt(i))
		sep = ", "
	}
	for _, f := range fields {
		b.WriteString(sep)
		b.WriteString(f.key + " = ")
		writeLua(b, f.v)
		sep = ", "
	}
	b.WriteByte('}')
}

var luaKeywords = map[string]bool{
	"and": true, "break": true, "do": true, "else": true, "elseif": true,
	"end": true, "false": true, "for": true, "function": true, "goto": true,
	"if": true, "in": true, "local": true, "nil": true, "not": true,
	"or": true, "repeat": true, "return": true, "then": true, "true": true,
	"until": true, "while": true,
}

func isIdent(s string) bool {
	if s == "" || luaKeywords[s] {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}
