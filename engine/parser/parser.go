// Package parser converts session command lines into Command structs.
// Intentionally dumb: no grammar, just word splitting and aliases.
package parser

import (
	"strings"

	"github.com/nathoo/fancypick/types"
)

var verbAliases = map[string]string{
	// Pick
	"p":    "pick",
	"draw": "pick",
	"next": "pick",

	// Loop / restart counters
	"l":     "loop",
	"tick":  "loop",
	"frame": "loop",
	"r":     "restart",
	"reset": "restart",

	// Inspection
	"s":       "show",
	"dump":    "show",
	"encode":  "show",
	"bounds":  "range",
	"minmax":  "range",
	"ls":      "list",
	"pickers": "list",
	"cov":     "coverage",
	"used":    "coverage",
	"w":       "weights",

	// Configuration
	"cfg":    "set",
	"config": "set",
	"ovr":    "override",
	"stop":   "release",
	"unset":  "release",

	// Batch
	"go":     "run",
	"repeat": "run",
}

// Verbs whose first argument is a picker name.
var namedVerbs = map[string]bool{
	"pick":     true,
	"show":     true,
	"range":    true,
	"weights":  true,
	"set":      true,
	"override": true,
	"release":  true,
}

// Parse converts a raw command line into a Command. The verb is
// lowercased; names and the rest of the line keep their case.
func Parse(input string) types.Command {
	input = strings.TrimSpace(input)
	if input == "" {
		return types.Command{}
	}

	words := strings.Fields(input)
	verb := strings.ToLower(words[0])
	skip := 1

	// Handle multi-word verb phrases before aliases.
	if v, n := expandMultiWordVerbs(words); n > 0 {
		verb, skip = v, n
	}
	if alias, ok := verbAliases[verb]; ok {
		verb = alias
	}

	cmd := types.Command{Verb: verb}
	rest := words[skip:]
	if namedVerbs[verb] && len(rest) > 0 {
		cmd.Name = rest[0]
		rest = rest[1:]
		skip++
	}
	cmd.Args = rest
	cmd.Rest = restAfter(input, skip)
	return cmd
}

// expandMultiWordVerbs handles "stop override", "check coverage" etc.
// It returns the verb and the number of words it used, or 0.
func expandMultiWordVerbs(words []string) (string, int) {
	if len(words) < 2 {
		return "", 0
	}
	first, second := strings.ToLower(words[0]), strings.ToLower(words[1])

	switch first {
	case "stop", "end":
		if second == "override" {
			return "release", 2
		}
	case "start", "begin":
		if second == "override" {
			return "override", 2
		}
	case "check":
		if second == "coverage" || second == "used" {
			return "coverage", 2
		}
	case "show":
		if second == "range" {
			return "range", 2
		}
		if second == "weights" {
			return "weights", 2
		}
	}
	return "", 0
}

// restAfter returns input with its first n fields removed, keeping the
// spacing and case of what remains.
func restAfter(input string, n int) string {
	s := input
	for i := 0; i < n; i++ {
		s = strings.TrimLeft(s, " \t")
		idx := strings.IndexAny(s, " \t")
		if idx < 0 {
			return ""
		}
		s = s[idx:]
	}
	return strings.TrimSpace(s)
}
