// Package keymap is the keyboard dispatch pipeline: key descriptor
// normalization, the IME composition guard, NodeSelection/GapCursor
// interception, the readonly filter, and three-tier keymap dispatch with
// a fallback navigator. It dispatches against the register-then-Freeze
// `plugin.Registry` every keymap entry is resolved from.
package keymap

import (
	"strings"
	"unicode"
)

// Event is a normalized keydown: the DOM KeyboardEvent.key string plus
// the four modifier flags the descriptor cares about.
type Event struct {
	Key   string
	Ctrl  bool
	Meta  bool
	Shift bool
	Alt   bool
}

// Printable reports whether Key is a single printable character (as
// opposed to a named key like "Enter" or "ArrowLeft"). Space counts as
// printable; it arrives as the single rune " " like any other key.
func (e Event) Printable() bool {
	r := []rune(e.Key)
	if len(r) != 1 {
		return false
	}
	return unicode.IsGraphic(r[0])
}

// NormalizeKey renders ev as the fixed-order descriptor string keymaps
// are keyed by: modifiers in `Mod-Shift-Alt-KEY` order, where Mod fires
// if either Ctrl or Meta is held, Space maps to the literal "Space", and
// single-character keys are uppercased.
func NormalizeKey(ev Event) string {
	var b strings.Builder
	if ev.Ctrl || ev.Meta {
		b.WriteString("Mod-")
	}
	if ev.Shift {
		b.WriteString("Shift-")
	}
	if ev.Alt {
		b.WriteString("Alt-")
	}
	b.WriteString(normalizeKeyName(ev.Key))
	return b.String()
}

func normalizeKeyName(key string) string {
	if key == " " {
		return "Space"
	}
	r := []rune(key)
	if len(r) == 1 {
		return strings.ToUpper(key)
	}
	return key
}

// isPlainArrow reports whether ev is one of the four arrow keys with no
// modifiers held at all.
func isPlainArrow(ev Event) bool {
	if ev.Ctrl || ev.Meta || ev.Shift || ev.Alt {
		return false
	}
	switch ev.Key {
	case "ArrowLeft", "ArrowRight", "ArrowUp", "ArrowDown":
		return true
	}
	return false
}

// CompositionTracker tracks whether an IME composition is currently in
// progress, independent of any single keydown — started by a
// `compositionstart` DOM event and ended by `compositionend`, never by
// watching key content.
type CompositionTracker struct {
	active bool
}

// Start marks a composition as begun.
func (c *CompositionTracker) Start() { c.active = true }

// End marks a composition as finished.
func (c *CompositionTracker) End() { c.active = false }

// Active reports whether a composition is currently in progress.
func (c *CompositionTracker) Active() bool { return c.active }
