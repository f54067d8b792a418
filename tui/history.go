// Package tui provides a Bubble Tea terminal UI for a picker session.
package tui

import "strings"

// History keeps the last max submitted commands in a ring and walks them
// with Prev/Next the way a shell does.
type History struct {
	ring  []string
	start int // index of the oldest entry
	n     int
	pos   int // steps back from the newest; 0 = editing a fresh line
}

// NewHistory creates a history holding at most max commands.
func NewHistory(max int) *History {
	if max < 1 {
		max = 1
	}
	return &History{ring: make([]string, max)}
}

// Len returns the number of stored commands.
func (h *History) Len() int { return h.n }

// at returns the i-th newest entry, 1-based.
func (h *History) at(i int) string {
	return h.ring[(h.start+h.n-i)%len(h.ring)]
}

// Push stores cmd unless it repeats the newest entry.
func (h *History) Push(cmd string) {
	if h.n > 0 && h.at(1) == cmd {
		return
	}
	if h.n < len(h.ring) {
		h.ring[(h.start+h.n)%len(h.ring)] = cmd
		h.n++
		return
	}
	h.ring[h.start] = cmd
	h.start = (h.start + 1) % len(h.ring)
}

// Prev steps to an older entry, stopping at the oldest.
func (h *History) Prev() (string, bool) {
	if h.n == 0 {
		return "", false
	}
	if h.pos < h.n {
		h.pos++
	}
	return h.at(h.pos), true
}

// Next steps to a newer entry. Stepping past the newest returns to a
// fresh line and reports false.
func (h *History) Next() (string, bool) {
	if h.pos <= 1 {
		h.pos = 0
		return "", false
	}
	h.pos--
	return h.at(h.pos), true
}

// ResetCursor returns to the fresh line.
func (h *History) ResetCursor() {
	h.pos = 0
}

// complete extends the last word of line to the single name it prefixes,
// or to the names' longest common prefix when several match.
func complete(line string, names []string) string {
	cut := strings.LastIndexAny(line, " \t") + 1
	word := line[cut:]
	if word == "" {
		return line
	}
	var common string
	found := false
	for _, name := range names {
		if !strings.HasPrefix(name, word) {
			continue
		}
		if !found {
			common, found = name, true
			continue
		}
		for !strings.HasPrefix(name, common) {
			common = common[:len(common)-1]
		}
	}
	if !found {
		return line
	}
	return line[:cut] + common
}
