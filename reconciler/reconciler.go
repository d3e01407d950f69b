// Package reconciler turns an EditorState's document into a live DOM tree
// and keeps that tree in sync across edits. Unlike htmlserializer, which
// rebuilds a fresh string for the HTML export path, it patches an
// existing *html.Node tree in place by BlockId identity.
//
// There is no real browser DOM available in this module, so *html.Node
// (golang.org/x/net/html) stands in for it, exactly as htmlserializer and
// htmlparser already use it. A host embedding this engine in an actual
// browser is expected to mirror this tree into real DOM nodes (or, more
// likely, replace this package's output entirely with direct DOM calls
// driven by the same Mount/Update contract).
package reconciler

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/Samyssmile/notectl-sub003/htmlserializer"
	"github.com/Samyssmile/notectl-sub003/ident"
	"github.com/Samyssmile/notectl-sub003/internal/safe"
	"github.com/Samyssmile/notectl-sub003/model"
	"github.com/Samyssmile/notectl-sub003/schema"
	"github.com/Samyssmile/notectl-sub003/selection"
)

// voidElements mirrors htmlserializer's own list of the same name: tags
// that never take children, so innermostSlot's FirstChild-drilling stops
// before one (e.g. a checklist item's <input type="checkbox">) instead of
// mistaking it for a nested content wrapper like <code> inside <pre>. Kept
// as its own small copy rather than exported from htmlserializer, unlike
// SerializeInline, because it is a three-line list with no behavior to
// share beyond the literal values.
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"param": true, "source": true, "track": true, "wbr": true,
}

type mountedBlock struct {
	el        *html.Node
	blockType string
	view      *NodeView
}

// Reconciler owns the live DOM tree for one document and the bookkeeping
// needed to patch it incrementally on every Update call rather than
// rebuilding it from scratch.
type Reconciler struct {
	Registry *schema.Registry
	Views    *ViewRegistry
	Logger   safe.Logger

	root       *html.Node
	mounted    map[string]*mountedBlock
	selectedID string
}

// New builds a Reconciler against reg. views may be nil, meaning no node
// type has a custom NodeView and every block renders through its schema's
// ToDOM/ToHTML contract.
func New(reg *schema.Registry, views *ViewRegistry) *Reconciler {
	if views == nil {
		views = NewViewRegistry()
	}
	return &Reconciler{Registry: reg, Views: views, mounted: map[string]*mountedBlock{}}
}

func (r *Reconciler) logger() safe.Logger {
	if r.Logger == nil {
		return safe.NoopLogger{}
	}
	return r.Logger
}

// Root returns the container element Mount built, or nil before the first
// Mount call.
func (r *Reconciler) Root() *html.Node { return r.root }

// Element returns the DOM node currently mounted for id, if any.
func (r *Reconciler) Element(id ident.BlockId) (*html.Node, bool) {
	mb, ok := r.mounted[id.String()]
	if !ok {
		return nil, false
	}
	return mb.el, true
}

// Mount builds a fresh DOM tree for doc and returns its container element.
// Calling Mount again discards the previous tree's bookkeeping (but not
// any NodeView.Destroy calls the caller still owes for content no longer
// reachable from doc — callers generally want Update, not a second Mount).
func (r *Reconciler) Mount(doc *model.Document) *html.Node {
	r.root = &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	r.mounted = map[string]*mountedBlock{}
	r.selectedID = ""
	r.syncChildren(r.root, doc.Blocks)
	return r.root
}

// Update patches the existing DOM tree to reflect doc: blocks whose id
// disappeared are destroyed and detached, blocks whose id persists are
// either patched via their NodeView's Update hook or rebuilt fresh from
// their schema's ToDOM/ToHTML contract, and every level is reordered to
// match doc's current child order. It is a no-op-safe first call: if
// Mount was never called, Update calls it instead.
func (r *Reconciler) Update(doc *model.Document) *html.Node {
	if r.root == nil {
		return r.Mount(doc)
	}
	r.pruneRemoved(doc)
	r.syncChildren(r.root, doc.Blocks)
	return r.root
}

func (r *Reconciler) pruneRemoved(doc *model.Document) {
	wanted := map[string]bool{}
	for _, id := range doc.AllBlockIDs() {
		wanted[id.String()] = true
	}
	for id, mb := range r.mounted {
		if wanted[id] {
			continue
		}
		r.destroyMounted(mb)
		detach(mb.el)
		delete(r.mounted, id)
	}
}

// syncChildren makes container's element children match blocks, in order,
// grouping any run of list_item/checklist_item through syncListRun instead
// of rendering each independently, the same list re-nesting
// htmlserializer.renderListRun does, but operating on live nodes instead
// of a serialized string.
func (r *Reconciler) syncChildren(container *html.Node, blocks []*model.BlockNode) {
	var prev *html.Node
	i := 0
	for i < len(blocks) {
		if isListItemType(blocks[i].Type.String()) {
			j := i
			for j < len(blocks) && isListItemType(blocks[j].Type.String()) {
				j++
			}
			for _, root := range r.syncListRun(blocks[i:j]) {
				moveToPosition(container, root, prev)
				prev = root
			}
			i = j
			continue
		}
		el := r.syncBlock(blocks[i])
		moveToPosition(container, el, prev)
		prev = el
		i++
	}
}

func isListItemType(t string) bool {
	return t == "list_item" || t == "checklist_item"
}

// syncListRun is renderListRun's wrapper-stack-by-(tag,indent) algorithm,
// ported to build/reuse live *html.Node wrappers instead of parsing a
// serialized string back into one: each item's own <li> still comes from
// the ordinary syncBlock path (reusing or rebuilding it, including any
// NodeView), so list_item's registered rendering is never bypassed.
func (r *Reconciler) syncListRun(items []*model.BlockNode) []*html.Node {
	type frame struct {
		tag    string
		indent int
		node   *html.Node
		lastLI *html.Node
	}
	var stack []frame
	var roots []*html.Node

	for _, item := range items {
		indent := attrInt(item, "indent", 0)
		tag := listTagFor(item)

		for len(stack) > 0 && stack[len(stack)-1].indent > indent {
			stack = stack[:len(stack)-1]
		}
		if len(stack) > 0 && stack[len(stack)-1].indent == indent && stack[len(stack)-1].tag != tag {
			stack = stack[:len(stack)-1]
		}
		if len(stack) == 0 || stack[len(stack)-1].indent < indent {
			wrapper := &html.Node{Type: html.ElementNode, Data: tag, DataAtom: atom.Lookup([]byte(tag))}
			if len(stack) == 0 {
				roots = append(roots, wrapper)
			} else {
				parent := stack[len(stack)-1]
				if parent.lastLI != nil {
					parent.lastLI.AppendChild(wrapper)
				} else {
					parent.node.AppendChild(wrapper)
				}
			}
			stack = append(stack, frame{tag: tag, indent: indent, node: wrapper})
		}

		liNode := r.syncBlock(item)
		detach(liNode)
		top := len(stack) - 1
		stack[top].node.AppendChild(liNode)
		stack[top].lastLI = liNode
	}
	return roots
}

func listTagFor(item *model.BlockNode) string {
	if item.Type.String() == "checklist_item" {
		return "ul"
	}
	if lt, ok := item.Attrs["listType"].(string); ok && lt == "ordered" {
		return "ol"
	}
	return "ul"
}

func attrInt(b *model.BlockNode, key string, fallback int) int {
	v, ok := b.Attrs[key]
	if !ok {
		return fallback
	}
	switch n := v.(type) {
	case int:
		return n
	case float64:
		return int(n)
	default:
		return fallback
	}
}

// syncBlock ensures the DOM node for one block is current and returns it.
// A NodeView that accepts the update (Update returns true) keeps its
// existing element untouched; everything else is rebuilt fresh from the
// schema's ToDOM/ToHTML contract, with only its children (which went
// through this same map by id) carried over by reattachment. This mirrors
// htmlserializer's own non-incremental philosophy — a wrapper element is
// cheap to rebuild — while still giving a NodeView a real way to opt out
// of that and patch in place.
func (r *Reconciler) syncBlock(b *model.BlockNode) *html.Node {
	id := b.ID.String()
	if mb, ok := r.mounted[id]; ok {
		if mb.view != nil && mb.blockType == b.Type.String() && r.updateView(mb, b) {
			return mb.el
		}
		r.destroyMounted(mb)
		detach(mb.el)
		delete(r.mounted, id)
	}

	if factory, ok := r.Views.Lookup(b.Type); ok {
		view := r.buildView(factory, b)
		setBlockID(view.DOM, id)
		r.mounted[id] = &mountedBlock{el: view.DOM, blockType: b.Type.String(), view: view}
		return view.DOM
	}

	el := r.renderBlock(b)
	r.mounted[id] = &mountedBlock{el: el, blockType: b.Type.String()}
	return el
}

func (r *Reconciler) updateView(mb *mountedBlock, b *model.BlockNode) bool {
	if mb.view.Update == nil {
		return false
	}
	var accepted bool
	err := safe.Call(func() error {
		accepted = mb.view.Update(b)
		return nil
	})
	if err != nil {
		r.logger().Warn("nodeview update panicked, rebuilding", "blockID", b.ID.String(), "error", err.Error())
		return false
	}
	return accepted
}

// buildView calls factory, degrading to a placeholder element if the
// factory panics or returns a view with no DOM.
func (r *Reconciler) buildView(factory NodeViewFactory, b *model.BlockNode) *NodeView {
	var view *NodeView
	err := safe.Call(func() error {
		view = factory(b)
		if view == nil || view.DOM == nil {
			return fmt.Errorf("nodeview factory for %q returned no DOM", b.Type.String())
		}
		return nil
	})
	if err != nil {
		r.logger().Warn("nodeview factory failed, using placeholder", "blockType", b.Type.String(), "error", err.Error())
		return &NodeView{DOM: placeholderElement(b.ID.String())}
	}
	return view
}

func (r *Reconciler) destroyMounted(mb *mountedBlock) {
	if mb.view != nil && mb.view.Destroy != nil {
		_ = safe.Call(func() error {
			mb.view.Destroy()
			return nil
		})
	}
}

// renderBlock builds a fresh element for b via its schema's ToDOM, then
// fills it with either recursively synced child blocks (compound content)
// or inline content rendered through htmlserializer.SerializeInline (leaf
// content) — reusing that package's tag-mark/style-mark consolidation
// instead of duplicating it, since schema.MarkSpec never populates ToDOM.
func (r *Reconciler) renderBlock(b *model.BlockNode) *html.Node {
	spec, ok := r.Registry.NodeType(b.Type)
	if !ok || spec.ToDOM == nil {
		el := placeholderElement(b.ID.String())
		return el
	}
	el := spec.ToDOM(b)
	setBlockID(el, b.ID.String())
	slot := innermostSlot(el)

	switch content := b.Content.(type) {
	case model.BlockChildren:
		r.syncChildren(slot, content.Blocks)
	case model.InlineChildren:
		r.renderInlineInto(slot, content.Items)
	}
	return el
}

func (r *Reconciler) renderInlineInto(slot *html.Node, items []model.InlineItem) {
	for slot.FirstChild != nil {
		slot.RemoveChild(slot.FirstChild)
	}
	rendered, err := htmlserializer.SerializeInline(items, r.Registry)
	if err != nil {
		r.logger().Warn("inline render failed", "error", err.Error())
		return
	}
	if rendered == "" {
		slot.AppendChild(&html.Node{Type: html.ElementNode, Data: "br", DataAtom: atom.Br})
		return
	}
	children, err := html.ParseFragment(strings.NewReader(rendered), slot)
	if err != nil {
		r.logger().Warn("inline parse failed", "error", err.Error())
		return
	}
	for _, c := range children {
		detach(c)
		slot.AppendChild(c)
	}
}

// innermostSlot finds the content slot for a wrapper whose ToDOM nests a
// tag inside another (e.g. pre>code), the live-node counterpart of
// htmlserializer.wrap's identical drilling.
func innermostSlot(el *html.Node) *html.Node {
	content := el
	for content.FirstChild != nil && !voidElements[content.FirstChild.Data] {
		content = content.FirstChild
	}
	return content
}

func detach(n *html.Node) {
	if n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}

// moveToPosition ensures node sits in container immediately after prev
// (or first, if prev is nil), reattaching it only if it isn't already
// there: a NodeSelection or browser caret resting in a subtree that
// doesn't actually need to move should never be disturbed.
func moveToPosition(container *html.Node, node *html.Node, prev *html.Node) {
	if node.Parent == container {
		if prev == nil {
			if container.FirstChild == node {
				return
			}
		} else if prev.NextSibling == node {
			return
		}
	}
	detach(node)
	if prev == nil {
		if container.FirstChild != nil {
			container.InsertBefore(node, container.FirstChild)
		} else {
			container.AppendChild(node)
		}
		return
	}
	if prev.NextSibling != nil {
		container.InsertBefore(node, prev.NextSibling)
	} else {
		container.AppendChild(node)
	}
}

// ApplySelection updates NodeView SelectNode/DeselectNode hooks to match
// sel, calling DeselectNode on whatever block previously held a
// NodeSelection and SelectNode on the new one (if either has a NodeView
// and a matching hook). Non-NodeSelection selections simply deselect
// whatever was selected before.
func (r *Reconciler) ApplySelection(sel selection.Selection) {
	var nodeID string
	if ns, ok := sel.(selection.NodeSelection); ok {
		nodeID = ns.BlockID.String()
	}
	if nodeID == r.selectedID {
		return
	}
	if r.selectedID != "" {
		if mb, ok := r.mounted[r.selectedID]; ok && mb.view != nil && mb.view.DeselectNode != nil {
			_ = safe.Call(func() error { mb.view.DeselectNode(); return nil })
		}
	}
	r.selectedID = nodeID
	if nodeID != "" {
		if mb, ok := r.mounted[nodeID]; ok && mb.view != nil && mb.view.SelectNode != nil {
			_ = safe.Call(func() error { mb.view.SelectNode(); return nil })
		}
	}
}
