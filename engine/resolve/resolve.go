// Package resolve maps picker references typed in commands to pickers.
package resolve

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nathoo/fancypick/engine/picker"
)

// AmbiguityError indicates several pickers matched a reference.
type AmbiguityError struct {
	Name       string
	Candidates []string
}

func (e *AmbiguityError) Error() string {
	return fmt.Sprintf("which %s? (%s)", e.Name, strings.Join(e.Candidates, ", "))
}

// NotFoundError indicates no picker matched a reference.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no picker named %q", e.Name)
}

// Label is how pickers are shown in listings: the name, or "#n" (1-based)
// for an unnamed picker.
func Label(p *picker.Picker, i int) string {
	if p.Name() != "" {
		return p.Name()
	}
	return "#" + strconv.Itoa(i+1)
}

// Resolve finds the picker ref refers to and returns its index.
//
// An exact name wins, then a "#n" index. Otherwise the reference is
// compared case-insensitively against every name, whole or any "_"/"-"
// separated word of it.
func Resolve(arr *picker.Array, ref string) (int, error) {
	if ref == "" {
		return -1, &NotFoundError{Name: ref}
	}
	if _, i := arr.Lookup(ref); i >= 0 {
		return i, nil
	}
	if n, ok := strings.CutPrefix(ref, "#"); ok {
		if i, err := strconv.Atoi(n); err == nil && i >= 1 && i <= arr.Len() {
			return i - 1, nil
		}
		return -1, &NotFoundError{Name: ref}
	}

	refLower := strings.ToLower(ref)
	var matches []int
	for i, p := range arr.Pickers() {
		if p.Name() != "" && matchesName(p.Name(), refLower) {
			matches = append(matches, i)
		}
	}

	switch len(matches) {
	case 0:
		return -1, &NotFoundError{Name: ref}
	case 1:
		return matches[0], nil
	default:
		names := make([]string, len(matches))
		for j, i := range matches {
			names[j] = arr.Pickers()[i].Name()
		}
		return -1, &AmbiguityError{Name: ref, Candidates: names}
	}
}

func matchesName(name, refLower string) bool {
	nameLower := strings.ToLower(name)
	if nameLower == refLower {
		return true
	}
	// "speed" matches "max_speed", "fan-speed".
	words := strings.FieldsFunc(nameLower, func(r rune) bool { return r == '_' || r == '-' })
	if len(words) < 2 {
		return false
	}
	for _, w := range words {
		if w == refLower {
			return true
		}
	}
	return false
}
