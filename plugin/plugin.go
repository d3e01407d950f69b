// Package plugin is the runtime half of the schema and plugin registry:
// everything a plugin contributes that needs to read or change editor
// state rather than just describe document shape (which lives in
// schema). Commands, the three-tier keymap used by the keyboard handler,
// ordered middleware, typed services, input rules, and block-type picker
// entries are all registered here, with the same monotonic
// register-then-Freeze discipline as schema.Registry.
package plugin

import (
	"fmt"

	"github.com/Samyssmile/notectl-sub003/state"
	"github.com/Samyssmile/notectl-sub003/transform"
)

// Dispatch applies a finished transaction to produce the editor's next
// state. A Command or keymap handler that wants to make an edit builds a
// transform.Builder against the EditorState it was given, then calls
// Dispatch with the result.
type Dispatch func(transform.Transaction)

// CommandContext is what a Command or key handler receives: the state to
// read from and the Dispatch to call if it decides to act. Args carries
// whatever parameters the caller passed to a named Dispatch (e.g.
// {"level": 2} for "setBlockType"); a key handler invoked directly from
// the keymap pipeline never sets it, since a keydown carries no
// parameters of its own.
type CommandContext struct {
	State    state.EditorState
	Dispatch Dispatch
	Args     map[string]any
}

// Command is a named, schema-independent editing action (e.g. "toggleBold",
// "splitListItem"). Returning false without calling ctx.Dispatch means the
// command declined to run (e.g. toggling a mark with no selection);
// returning false after calling Dispatch is never valid and is a plugin
// bug. ReadonlyAllowed commands (queries like "isMarkActive") may run even
// when the editor is in read-only mode; editor.Dispatch refuses the others
// while read-only, before they are ever invoked.
type Command struct {
	Name            string
	ReadonlyAllowed bool
	Run             func(ctx CommandContext) bool
}

// KeyHandler is a single keymap binding's handler. It has the same
// signature and return contract as Command.Run.
type KeyHandler func(ctx CommandContext) bool

// Keymap is a flat table from a normalized key descriptor (see the
// keymap package's key-descriptor normalization) to a handler.
type Keymap map[string]KeyHandler

// Tier names the three keymap priority tiers the keyboard handler
// consults in order: a plugin's Context keymap (active only while some
// plugin-defined context predicate holds, e.g. "inside a table"),
// Navigation (arrow/Home/End/PageUp-style movement, consulted before
// plain editing defaults so a plugin can override block-boundary
// behavior), then Default (everything else, including this package's own
// built-ins).
type Tier int

const (
	TierContext Tier = iota
	TierNavigation
	TierDefault
)

// InputRule matches a typed pattern (typically via a trailing regular
// expression anchored at the cursor) and replaces it with a document
// edit — e.g. turning "1. " at the start of a paragraph into an
// ordered_list item, or "**bold**" into bolded text.
type InputRule struct {
	Name    string
	Pattern string // a regexp pattern, matched against text immediately before the cursor
	Handle  func(ctx CommandContext, match []string) bool
}

// Middleware wraps Dispatch, letting a plugin observe or veto every
// transaction before it reaches the next middleware (or, for the last one
// in the chain, the editor's actual state update). Order is ascending
// Priority; among equal priorities, registration order is kept.
type Middleware struct {
	Name     string
	Priority int
	Wrap     func(next Dispatch) Dispatch
}

// ServiceKey names a typed service slot a plugin can look up at runtime
// (e.g. a shared spellchecker, a collaboration-provider handle) without
// every consumer needing a type assertion.
type ServiceKey[T any] struct {
	name string
}

// NewServiceKey creates a ServiceKey identified by name. Two keys with the
// same name and same T are interchangeable; GetService through a key
// whose T does not match the stored value's type reports ok=false, which
// can only happen if two plugins reuse a name for different types.
func NewServiceKey[T any](name string) ServiceKey[T] {
	return ServiceKey[T]{name: name}
}

// BlockTypePickerEntry describes one entry in a "turn this block into..."
// picker UI (a slash-command menu, a toolbar dropdown).
type BlockTypePickerEntry struct {
	Label   string
	Command Command
}

// Registry holds every plugin-contributed runtime surface. Like
// schema.Registry, registration is monotonic up to Freeze.
type Registry struct {
	commands    map[string]Command
	commandOrder []string
	keymaps     map[Tier][]Keymap
	inputRules  []InputRule
	middleware  []Middleware
	services    map[string]any
	pickerEntries []BlockTypePickerEntry
	frozen      bool
}

// NewRegistry returns an empty, unfrozen plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		commands: map[string]Command{},
		keymaps:  map[Tier][]Keymap{},
		services: map[string]any{},
	}
}

func (r *Registry) mustNotBeFrozen(op string) {
	if r.frozen {
		panic(fmt.Sprintf("plugin: %s called after Freeze", op))
	}
}

// RegisterCommand adds a named command.
func (r *Registry) RegisterCommand(c Command) {
	r.mustNotBeFrozen("RegisterCommand")
	if _, exists := r.commands[c.Name]; exists {
		panic(fmt.Sprintf("plugin: command %q already registered", c.Name))
	}
	r.commands[c.Name] = c
	r.commandOrder = append(r.commandOrder, c.Name)
}

// Command looks up a registered command by name.
func (r *Registry) Command(name string) (Command, bool) {
	c, ok := r.commands[name]
	return c, ok
}

// Commands returns every registered command in registration order.
func (r *Registry) Commands() []Command {
	out := make([]Command, 0, len(r.commandOrder))
	for _, name := range r.commandOrder {
		out = append(out, r.commands[name])
	}
	return out
}

// RegisterKeymap adds a keymap under the given tier. Multiple keymaps may
// be registered under the same tier; within a tier, the keymap pipeline
// consults later-registered keymaps first.
func (r *Registry) RegisterKeymap(tier Tier, km Keymap) {
	r.mustNotBeFrozen("RegisterKeymap")
	r.keymaps[tier] = append(r.keymaps[tier], km)
}

// Keymaps returns the keymaps registered under tier, in registration
// order.
func (r *Registry) Keymaps(tier Tier) []Keymap {
	return r.keymaps[tier]
}

// RegisterInputRule adds an input rule.
func (r *Registry) RegisterInputRule(rule InputRule) {
	r.mustNotBeFrozen("RegisterInputRule")
	r.inputRules = append(r.inputRules, rule)
}

// InputRules returns every registered input rule, in registration order.
func (r *Registry) InputRules() []InputRule {
	return r.inputRules
}

// RegisterMiddleware adds a middleware. Middleware is sorted by Priority
// (ascending, stable among equal priorities) when Freeze is called, not
// at registration time, so registration order within a priority band is
// always preserved.
func (r *Registry) RegisterMiddleware(m Middleware) {
	r.mustNotBeFrozen("RegisterMiddleware")
	r.middleware = append(r.middleware, m)
}

// RegisterBlockTypePickerEntry adds one entry to the block-type picker.
func (r *Registry) RegisterBlockTypePickerEntry(e BlockTypePickerEntry) {
	r.mustNotBeFrozen("RegisterBlockTypePickerEntry")
	r.pickerEntries = append(r.pickerEntries, e)
}

// BlockTypePickerEntries returns every registered picker entry, in
// registration order.
func (r *Registry) BlockTypePickerEntries() []BlockTypePickerEntry {
	return r.pickerEntries
}

// Freeze closes registration and stabilizes middleware order.
func (r *Registry) Freeze() {
	r.frozen = true
	stableSortMiddlewareByPriority(r.middleware)
}

func stableSortMiddlewareByPriority(m []Middleware) {
	for i := 1; i < len(m); i++ {
		j := i
		for j > 0 && m[j-1].Priority > m[j].Priority {
			m[j-1], m[j] = m[j], m[j-1]
			j--
		}
	}
}

// Chain builds the final Dispatch a command handler should be given: base
// wrapped by every registered middleware, outermost-registered-lowest-
// priority first, so the lowest-Priority middleware sees a transaction
// before any higher-Priority one (and can veto it by simply not calling
// next).
func (r *Registry) Chain(base Dispatch) Dispatch {
	d := base
	for i := len(r.middleware) - 1; i >= 0; i-- {
		d = r.middleware[i].Wrap(d)
	}
	return d
}

// SetService installs a service under key.
func SetService[T any](r *Registry, key ServiceKey[T], value T) {
	r.mustNotBeFrozen("SetService")
	r.services[key.name] = value
}

// GetService retrieves a service installed under key.
func GetService[T any](r *Registry, key ServiceKey[T]) (T, bool) {
	v, ok := r.services[key.name]
	if !ok {
		var zero T
		return zero, false
	}
	typed, ok := v.(T)
	return typed, ok
}
