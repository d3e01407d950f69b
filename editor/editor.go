// Package editor is the host-facing glue that wires every other package
// into the single object a host component embeds: a JSON/HTML document
// accessor surface (getJSON/getHTML/setHTML/setJSON/getText/isEmpty),
// command dispatch, and an event bus replacing a host's DOM CustomEvent
// publication. It contains no novel editing logic of its own — it
// sequences state.New/state.Apply, transform.Builder-built transactions,
// plugin.Registry.Chain middleware, history.Manager, keymap.Handle, and
// reconciler.Reconciler into one coherent request/response cycle per
// host call.
package editor

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/Samyssmile/notectl-sub003/history"
	"github.com/Samyssmile/notectl-sub003/htmlparser"
	"github.com/Samyssmile/notectl-sub003/htmlserializer"
	"github.com/Samyssmile/notectl-sub003/ident"
	"github.com/Samyssmile/notectl-sub003/internal/safe"
	"github.com/Samyssmile/notectl-sub003/keymap"
	"github.com/Samyssmile/notectl-sub003/model"
	"github.com/Samyssmile/notectl-sub003/plugin"
	"github.com/Samyssmile/notectl-sub003/reconciler"
	"github.com/Samyssmile/notectl-sub003/schema"
	"github.com/Samyssmile/notectl-sub003/selection"
	"github.com/Samyssmile/notectl-sub003/state"
	"github.com/Samyssmile/notectl-sub003/transform"
)

// EventKind names the events this package's Subscribe replaces the
// host's DOM CustomEvent publication with.
type EventKind string

const (
	EventReady           EventKind = "ready"
	EventStateChange     EventKind = "stateChange"
	EventFocus           EventKind = "editorFocus"
	EventBlur            EventKind = "editorBlur"
	EventSelectionChange EventKind = "selectionChange"
)

// Event is what a Subscribe callback receives: which kind fired and the
// EditorState as of that moment.
type Event struct {
	Kind  EventKind
	State state.EditorState
}

// Option configures an Editor at construction time.
type Option func(*Editor)

// WithIDGenerator overrides the default ident.UUIDGenerator, e.g. with a
// deterministic ident.SequentialGenerator for tests.
func WithIDGenerator(g ident.Generator) Option {
	return func(e *Editor) { e.idGen = g }
}

// WithViewRegistry installs NodeView factories the reconciler should
// consult. Without this option every block renders through its schema's
// ToDOM/ToHTML contract.
func WithViewRegistry(v *reconciler.ViewRegistry) Option {
	return func(e *Editor) { e.views = v }
}

// WithLogger overrides the default no-op safe.Logger.
func WithLogger(l safe.Logger) Option {
	return func(e *Editor) { e.logger = l }
}

// WithHistory overrides the default undo/redo depth cap and coalescing
// time window.
func WithHistory(maxDepth int, groupTimeout time.Duration) Option {
	return func(e *Editor) {
		e.historyMaxDepth = maxDepth
		e.historyGroupTimeout = groupTimeout
		e.history = history.New(maxDepth, groupTimeout)
	}
}

// WithReadonly starts the editor in read-only mode (see keymap.Context.Readonly).
func WithReadonly(readonly bool) Option {
	return func(e *Editor) { e.readonly = readonly }
}

// Editor is the single object a host embeds. It owns the current
// EditorState, the live DOM tree, and the undo/redo history, and is the
// only sanctioned entry point for a host to read or change either.
type Editor struct {
	registry *schema.Registry
	plugins  *plugin.Registry
	views    *reconciler.ViewRegistry
	recon    *reconciler.Reconciler
	history  *history.Manager
	idGen    ident.Generator
	logger   safe.Logger
	readonly bool

	historyMaxDepth     int
	historyGroupTimeout time.Duration

	state state.EditorState
	subs  map[EventKind][]func(Event)
}

// New builds an Editor against reg/plugins (both expected to already be
// Frozen) and doc. A nil doc starts the editor with a single empty
// paragraph, matching state.New's own "first leaf block" cursor rule.
func New(reg *schema.Registry, plugins *plugin.Registry, doc *model.Document, opts ...Option) *Editor {
	e := &Editor{
		registry:            reg,
		plugins:             plugins,
		views:               reconciler.NewViewRegistry(),
		idGen:               ident.UUIDGenerator{},
		logger:              safe.NoopLogger{},
		historyMaxDepth:     200,
		historyGroupTimeout: 500 * time.Millisecond,
		history:             history.New(200, 500*time.Millisecond),
		subs:                map[EventKind][]func(Event){},
	}
	for _, opt := range opts {
		opt(e)
	}
	if doc == nil {
		doc = e.emptyDocument()
	}
	e.recon = reconciler.New(reg, e.views)
	e.state = state.New(doc, reg)
	e.recon.Mount(e.state.Doc)
	e.recon.ApplySelection(e.state.Selection)
	e.publish(Event{Kind: EventReady, State: e.state})
	return e
}

func (e *Editor) emptyDocument() *model.Document {
	p := &model.BlockNode{
		ID:      e.idGen.NextBlockID(),
		Type:    ident.NewNodeTypeName("paragraph"),
		Content: model.InlineChildren{},
	}
	return &model.Document{Blocks: []*model.BlockNode{p}}
}

// State returns the current EditorState. Callers must treat it as
// read-only, per model.Document's own persistent-value contract.
func (e *Editor) State() state.EditorState { return e.state }

// DOM returns the reconciler's live tree root.
func (e *Editor) DOM() *html.Node { return e.recon.Root() }

// GetJSON renders the document to its canonical wire format.
func (e *Editor) GetJSON() ([]byte, error) {
	return e.state.Doc.ToJSON()
}

// SetJSON replaces the document with the one raw decodes to, resetting
// selection to the document's first cursor position and clearing undo
// history (a full document replacement is not an undoable edit).
func (e *Editor) SetJSON(raw []byte) error {
	doc, err := model.DocumentFromJSON(raw)
	if err != nil {
		return fmt.Errorf("editor: SetJSON: %w", err)
	}
	e.replaceDocument(doc)
	return nil
}

// GetHTML renders the document through htmlserializer.
func (e *Editor) GetHTML() (string, error) {
	return htmlserializer.SerializeDocument(e.state.Doc, e.registry)
}

// SetHTML replaces the document with htmlparser's parse of raw, the same
// reset semantics as SetJSON.
func (e *Editor) SetHTML(raw string) error {
	p := &htmlparser.Parser{Registry: e.registry, Gen: e.idGen}
	blocks, err := p.Parse(raw)
	if err != nil {
		return fmt.Errorf("editor: SetHTML: %w", err)
	}
	e.replaceDocument(&model.Document{Blocks: blocks})
	return nil
}

func (e *Editor) replaceDocument(doc *model.Document) {
	e.state = state.New(doc, e.registry)
	e.history = history.New(e.historyMaxDepth, e.historyGroupTimeout)
	e.recon.Update(e.state.Doc)
	e.recon.ApplySelection(e.state.Selection)
	e.publish(Event{Kind: EventStateChange, State: e.state})
	e.publish(Event{Kind: EventSelectionChange, State: e.state})
}

// GetText concatenates every leaf block's text, one per line, built on
// model.Document.Walk like every other traversal in this engine.
func (e *Editor) GetText() string {
	var b strings.Builder
	first := true
	e.state.Doc.Walk(func(n *model.BlockNode, _ model.Path) bool {
		if !n.IsLeaf() {
			return true
		}
		if !first {
			b.WriteString("\n")
		}
		first = false
		b.WriteString(model.GetBlockText(n))
		return true
	})
	return b.String()
}

// IsEmpty reports whether every leaf block in the document has zero
// length content.
func (e *Editor) IsEmpty() bool {
	empty := true
	e.state.Doc.Walk(func(n *model.BlockNode, _ model.Path) bool {
		if n.IsLeaf() && model.GetBlockLength(n) > 0 {
			empty = false
			return false
		}
		return true
	})
	return empty
}

// Dispatch runs the named plugin command, threading args through
// CommandContext.Args, with the full middleware chain wrapping whatever
// transaction the command produces. A panic inside the command is
// recovered and returned as an error instead of propagating.
func (e *Editor) Dispatch(name string, args map[string]any) error {
	cmd, ok := e.plugins.Command(name)
	if !ok {
		return fmt.Errorf("editor: unknown command %q", name)
	}
	if e.readonly && !cmd.ReadonlyAllowed {
		return fmt.Errorf("editor: command %q is not allowed while read-only", name)
	}
	ctx := plugin.CommandContext{
		State:    e.state,
		Dispatch: e.plugins.Chain(e.commit),
		Args:     args,
	}
	err := safe.Call(func() error {
		cmd.Run(ctx)
		return nil
	})
	if err != nil {
		e.logger.Warn("command panicked", "command", name, "error", err.Error())
		return fmt.Errorf("editor: command %q: %w", name, err)
	}
	return nil
}

// HandleKey runs one keydown through keymap.Handle and reports whether it
// was consumed.
func (e *Editor) HandleKey(ev keymap.Event, comp *keymap.CompositionTracker) bool {
	ctx := keymap.Context{
		State:        e.state,
		Registry:     e.plugins,
		Dispatch:     e.plugins.Chain(e.commit),
		SetSelection: e.setSelectionOnly,
		IDGen:        e.idGen,
		Readonly:     e.readonly,
	}
	return keymap.Handle(ctx, ev, comp)
}

// SetSelection moves the selection without building a transaction (the
// host's pointer-click/drag path). An invalid selection is rejected; see
// state.SetSelection.
func (e *Editor) SetSelection(sel selection.Selection) {
	e.setSelectionOnly(sel)
}

func (e *Editor) setSelectionOnly(sel selection.Selection) {
	e.state = state.SetSelection(e.state, sel)
	e.recon.ApplySelection(e.state.Selection)
	e.publish(Event{Kind: EventSelectionChange, State: e.state})
}

// Focus/Blur publish the corresponding event; this package has no actual
// DOM focus to track, so the host calls these directly from its own
// focus/blur handlers.
func (e *Editor) Focus() { e.publish(Event{Kind: EventFocus, State: e.state}) }
func (e *Editor) Blur()  { e.publish(Event{Kind: EventBlur, State: e.state}) }

// CanUndo/CanRedo/Undo/Redo delegate to the history manager, applying its
// replayed Transaction through the same state.Apply + reconciler.Update +
// event publication path as commit, but without re-pushing onto history
// (Manager.Undo/Redo already move the group between stacks themselves).
func (e *Editor) CanUndo() bool { return e.history.CanUndo() }
func (e *Editor) CanRedo() bool { return e.history.CanRedo() }

func (e *Editor) Undo() bool {
	tr, ok := e.history.Undo(e.state)
	if !ok {
		return false
	}
	e.applyTransaction(tr)
	return true
}

func (e *Editor) Redo() bool {
	tr, ok := e.history.Redo(e.state)
	if !ok {
		return false
	}
	e.applyTransaction(tr)
	return true
}

// commit is the base plugin.Dispatch every command/key handler's
// transaction ultimately reaches (after the middleware chain): it installs
// the transaction's document/selection, admits it to history, and
// publishes stateChange before selectionChange, a fixed ordering callers
// can rely on.
func (e *Editor) commit(tr transform.Transaction) {
	e.applyTransaction(tr)
	e.history.Push(tr, time.Now())
}

func (e *Editor) applyTransaction(tr transform.Transaction) {
	e.state = state.Apply(e.state, tr)
	e.recon.Update(e.state.Doc)
	e.recon.ApplySelection(e.state.Selection)
	e.publish(Event{Kind: EventStateChange, State: e.state})
	e.publish(Event{Kind: EventSelectionChange, State: e.state})
}

// Subscribe registers fn to be called whenever an event of kind fires.
func (e *Editor) Subscribe(kind EventKind, fn func(Event)) {
	e.subs[kind] = append(e.subs[kind], fn)
}

func (e *Editor) publish(ev Event) {
	for _, fn := range e.subs[ev.Kind] {
		fn(ev)
	}
}
