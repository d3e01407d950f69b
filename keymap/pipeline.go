package keymap

import (
	"github.com/Samyssmile/notectl-sub003/ident"
	"github.com/Samyssmile/notectl-sub003/internal/safe"
	"github.com/Samyssmile/notectl-sub003/model"
	"github.com/Samyssmile/notectl-sub003/plugin"
	"github.com/Samyssmile/notectl-sub003/schema"
	"github.com/Samyssmile/notectl-sub003/selection"
	"github.com/Samyssmile/notectl-sub003/state"
	"github.com/Samyssmile/notectl-sub003/transform"
)

// defaultTextBlockType is the node type a gap cursor fills with when the
// user starts typing or presses Enter next to a void block — the same
// "paragraph" default every document in this engine's schema/basic bundle
// registers.
var defaultTextBlockType = ident.NewNodeTypeName("paragraph")

// Context is everything one keydown's worth of dispatch needs: the
// state to read, where to send a resulting transaction, a way to move
// the selection without building a transaction (a pure navigation-only
// change has no document-modifying step and must never touch history),
// an id generator for any new block the gap-cursor rules create, the
// plugin registry to consult for commands/keymaps, and whether the host
// is currently read-only.
type Context struct {
	State        state.EditorState
	Registry     *plugin.Registry
	Dispatch     plugin.Dispatch
	SetSelection func(selection.Selection)
	IDGen        ident.Generator
	Readonly     bool
}

// Handle runs one keydown through the full composition/selection/keymap
// pipeline and reports whether it was consumed (the caller should
// preventDefault on the DOM event iff this returns true).
func Handle(ctx Context, ev Event, comp *CompositionTracker) bool {
	if comp.Active() {
		return false
	}

	if ns, ok := ctx.State.Selection.(selection.NodeSelection); ok && isPlainArrow(ev) {
		if handleNodeSelectionArrow(ctx, ns, ev) {
			return true
		}
	}

	if gc, ok := ctx.State.Selection.(selection.GapCursor); ok && !gc.NodeID.IsZero() {
		if !isPlainArrow(ev) {
			return handleGapCursor(ctx, gc, ev)
		}
		// Plain arrows at a GapCursor fall through to keymap dispatch,
		// then the fallback navigator, same as any other selection.
	}

	descriptor := NormalizeKey(ev)
	if dispatchKeymaps(ctx, descriptor) {
		return true
	}

	if isPlainArrow(ev) {
		return fallbackNavigate(ctx, ev)
	}
	return false
}

// dispatchKeymaps iterates the three tiers (context first), and within a
// tier iterates registered keymaps in reverse registration order — the
// most recently registered plugin's binding wins over an earlier one.
// Readonly mode restricts dispatch to the navigation tier only: a raw
// KeyHandler carries no readonlyAllowed metadata of its own to check, so
// the engine's readonly contribution here is tier-level; a command
// invoked directly (not through a keymap) is responsible for checking its
// own Command.ReadonlyAllowed before running. A handler that panics is
// recovered and treated as declining, and the walk goes on.
func dispatchKeymaps(ctx Context, descriptor string) bool {
	tiers := []plugin.Tier{plugin.TierContext, plugin.TierNavigation, plugin.TierDefault}
	if ctx.Readonly {
		tiers = []plugin.Tier{plugin.TierNavigation}
	}

	cmdCtx := plugin.CommandContext{State: ctx.State, Dispatch: ctx.Dispatch}
	for _, tier := range tiers {
		kms := ctx.Registry.Keymaps(tier)
		for i := len(kms) - 1; i >= 0; i-- {
			h, ok := kms[i][descriptor]
			if !ok {
				continue
			}
			var handled bool
			if err := safe.Call(func() error { handled = h(cmdCtx); return nil }); err != nil {
				continue
			}
			if handled {
				return true
			}
		}
	}
	return false
}

// handleNodeSelectionArrow converts a NodeSelection plain-arrow press
// into a NodeSelection on the neighbor in that direction when it is void,
// a collapsed cursor at the neighbor's near edge when it is a leaf block,
// or a GapCursor beside the selected node when there is no neighbor or
// the neighbor is neither void nor a leaf.
func handleNodeSelectionArrow(ctx Context, ns selection.NodeSelection, ev Event) bool {
	parentID, index, ok := model.IndexAndParent(ctx.State.Doc, ns.BlockID)
	if !ok {
		return false
	}
	forward := ev.Key == "ArrowRight" || ev.Key == "ArrowDown"

	neighborIndex := index - 1
	side := selection.SideBefore
	if forward {
		neighborIndex = index + 1
		side = selection.SideAfter
	}

	siblings := siblingsOf(ctx.State.Doc, parentID)
	if neighborIndex < 0 || neighborIndex >= len(siblings) {
		ctx.SetSelection(selection.GapCursor{NodeID: ns.BlockID, Side: side})
		return true
	}

	neighbor := siblings[neighborIndex]
	if isVoid(ctx.State.Schema, neighbor) {
		ctx.SetSelection(selection.NodeSelection{BlockID: neighbor.ID})
		return true
	}
	if neighbor.IsLeaf() {
		offset := 0
		if forward {
			offset = 0
		} else {
			offset = model.GetBlockLength(neighbor)
		}
		ctx.SetSelection(selection.TextSelection{BlockID: neighbor.ID, Anchor: offset, Head: offset})
		return true
	}
	ctx.SetSelection(selection.GapCursor{NodeID: ns.BlockID, Side: side})
	return true
}

// handleGapCursor decides what a non-arrow key does while the selection
// is a GapCursor (arrows are handled by the caller before this is
// reached).
func handleGapCursor(ctx Context, gc selection.GapCursor, ev Event) bool {
	parentID, index, ok := model.IndexAndParent(ctx.State.Doc, gc.NodeID)
	if !ok {
		return false
	}
	insertIndex := index
	if gc.Side == selection.SideAfter {
		insertIndex = index + 1
	}

	switch {
	case ev.Key == "Backspace" && gc.Side == selection.SideAfter:
		return removeVoidNeighbor(ctx, gc.NodeID)
	case ev.Key == "Delete" && gc.Side == selection.SideBefore:
		return removeVoidNeighbor(ctx, gc.NodeID)
	case ev.Key == "Enter":
		return fillGap(ctx, parentID, insertIndex, "")
	case ev.Printable():
		return fillGap(ctx, parentID, insertIndex, ev.Key)
	default:
		return false
	}
}

func removeVoidNeighbor(ctx Context, nodeID ident.BlockId) bool {
	b := state.NewTransaction(ctx.State).Step(transform.RemoveNodeStep{BlockID: nodeID})
	if !b.Ok() {
		return false
	}
	tr := b.Finish()
	tr.Origin = transform.OriginInput
	tr.SelectionBefore = ctx.State.Selection
	ctx.Dispatch(tr)
	return true
}

func fillGap(ctx Context, parentID ident.BlockId, index int, text string) bool {
	newID := ctx.IDGen.NextBlockID()
	node := &model.BlockNode{
		ID:      newID,
		Type:    defaultTextBlockType,
		Content: model.InlineChildren{Items: []model.InlineItem{model.TextSegment{Text: text}}},
	}
	b := state.NewTransaction(ctx.State).Step(transform.InsertNodeStep{ParentID: parentID, Index: index, Node: node})
	if !b.Ok() {
		return false
	}
	tr := b.Finish()
	tr.Origin = transform.OriginInput
	tr.SelectionBefore = ctx.State.Selection
	tr.SelectionAfter = selection.TextSelection{BlockID: newID, Anchor: len([]rune(text)), Head: len([]rune(text))}
	ctx.Dispatch(tr)
	return true
}

// fallbackNavigate is the plain-arrow hybrid navigator used when no
// keymap claimed the key: it steps the cursor to the previous/next
// leaf's edge, or to a GapCursor when the neighbor is void.
// Traversal into or out of an isolating block is refused outright: the
// handler returns false so the browser's own default does nothing, rather
// than the engine producing a no-op transaction.
func fallbackNavigate(ctx Context, ev Event) bool {
	switch sel := ctx.State.Selection.(type) {
	case selection.TextSelection:
		return navigateFromText(ctx, sel, ev)
	case selection.GapCursor:
		return navigateFromGap(ctx, sel, ev)
	default:
		return false
	}
}

func navigateFromText(ctx Context, sel selection.TextSelection, ev Event) bool {
	b, ok := model.FindNode(ctx.State.Doc, sel.BlockID)
	if !ok {
		return false
	}
	length := model.GetBlockLength(b)
	forward := ev.Key == "ArrowRight" || ev.Key == "ArrowDown"

	if forward && sel.Head < length {
		ctx.SetSelection(selection.TextSelection{BlockID: sel.BlockID, Anchor: sel.Head + 1, Head: sel.Head + 1})
		return true
	}
	if !forward && sel.Head > 0 {
		ctx.SetSelection(selection.TextSelection{BlockID: sel.BlockID, Anchor: sel.Head - 1, Head: sel.Head - 1})
		return true
	}

	// b itself may be the isolating boundary (e.g. a table cell), not just
	// its parent or a sibling: exiting it from inside is always blocked.
	if isIsolating(ctx.State.Schema, b) {
		return false
	}

	parentID, index, ok := model.IndexAndParent(ctx.State.Doc, sel.BlockID)
	if !ok {
		return false
	}
	if isolatingBoundary(ctx.State.Schema, ctx.State.Doc, parentID, index, forward) {
		return false
	}

	siblings := siblingsOf(ctx.State.Doc, parentID)
	neighborIndex := index - 1
	side := selection.SideBefore
	if forward {
		neighborIndex = index + 1
		side = selection.SideAfter
	}
	if neighborIndex < 0 || neighborIndex >= len(siblings) {
		return false
	}
	neighbor := siblings[neighborIndex]
	if isVoid(ctx.State.Schema, neighbor) {
		ctx.SetSelection(selection.GapCursor{NodeID: neighbor.ID, Side: oppositeSide(side)})
		return true
	}
	if !neighbor.IsLeaf() {
		return false
	}
	offset := 0
	if !forward {
		offset = model.GetBlockLength(neighbor)
	}
	ctx.SetSelection(selection.TextSelection{BlockID: neighbor.ID, Anchor: offset, Head: offset})
	return true
}

func navigateFromGap(ctx Context, gc selection.GapCursor, ev Event) bool {
	parentID, index, ok := model.IndexAndParent(ctx.State.Doc, gc.NodeID)
	if !ok {
		return false
	}
	forward := ev.Key == "ArrowRight" || ev.Key == "ArrowDown"
	siblings := siblingsOf(ctx.State.Doc, parentID)

	target := index
	if forward {
		target = index + 1
	} else {
		target = index - 1
	}
	if target < 0 || target >= len(siblings) {
		return false
	}
	next := siblings[target]
	if isVoid(ctx.State.Schema, next) {
		side := selection.SideBefore
		if !forward {
			side = selection.SideAfter
		}
		ctx.SetSelection(selection.GapCursor{NodeID: next.ID, Side: side})
		return true
	}
	if !next.IsLeaf() {
		return false
	}
	offset := 0
	if !forward {
		offset = model.GetBlockLength(next)
	}
	ctx.SetSelection(selection.TextSelection{BlockID: next.ID, Anchor: offset, Head: offset})
	return true
}

func oppositeSide(s selection.Side) selection.Side {
	if s == selection.SideBefore {
		return selection.SideAfter
	}
	return selection.SideBefore
}

func siblingsOf(doc *model.Document, parentID ident.BlockId) []*model.BlockNode {
	if parentID.IsZero() {
		return doc.Blocks
	}
	b, ok := model.FindNode(doc, parentID)
	if !ok {
		return nil
	}
	bc, _ := b.Content.(model.BlockChildren)
	return bc.Blocks
}

func isVoid(reg *schema.Registry, b *model.BlockNode) bool {
	if reg == nil {
		return false
	}
	spec, ok := reg.NodeType(b.Type)
	if !ok {
		return false
	}
	return spec.IsVoid
}

func isIsolating(reg *schema.Registry, b *model.BlockNode) bool {
	if reg == nil {
		return false
	}
	spec, ok := reg.NodeType(b.Type)
	if !ok {
		return false
	}
	return spec.IsIsolating
}

// isolatingBoundary reports whether stepping from index toward
// (forward ? +1 : -1) would cross the boundary of an isolating block:
// either parentID's own block is isolating and index sits at its edge
// on the side being exited, or the neighbor in that direction is itself
// isolating and would be entered from outside.
func isolatingBoundary(reg *schema.Registry, doc *model.Document, parentID ident.BlockId, index int, forward bool) bool {
	if reg == nil {
		return false
	}
	if !parentID.IsZero() {
		if parent, ok := model.FindNode(doc, parentID); ok {
			if spec, ok := reg.NodeType(parent.Type); ok && spec.IsIsolating {
				siblings := siblingsOf(doc, parentID)
				if forward && index == len(siblings)-1 {
					return true
				}
				if !forward && index == 0 {
					return true
				}
			}
		}
	}
	siblings := siblingsOf(doc, parentID)
	neighborIndex := index - 1
	if forward {
		neighborIndex = index + 1
	}
	if neighborIndex < 0 || neighborIndex >= len(siblings) {
		return false
	}
	neighbor := siblings[neighborIndex]
	if spec, ok := reg.NodeType(neighbor.Type); ok && spec.IsIsolating {
		return true
	}
	return false
}
