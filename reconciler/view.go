package reconciler

import (
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/Samyssmile/notectl-sub003/ident"
	"github.com/Samyssmile/notectl-sub003/model"
)

// NodeView is what a registered factory returns for one block instance:
// the DOM the reconciler mounts for it, its lifecycle hooks, and
// optionally a distinct ContentDOM when the factory's own DOM carries
// chrome around the block's actual editable interior.
type NodeView struct {
	DOM        *html.Node
	ContentDOM *html.Node

	// Update is offered the block's new value; returning true means the
	// existing DOM was patched in place and the reconciler should keep it,
	// false means the reconciler should destroy this view and build a
	// fresh one via the factory instead.
	Update func(newNode *model.BlockNode) bool
	// SelectNode/DeselectNode are called as this block becomes or stops
	// being the target of a NodeSelection.
	SelectNode   func()
	DeselectNode func()
	// Destroy is called once, when this view's block is removed from the
	// document or replaced by a fresh view for the same id.
	Destroy func()
}

// NodeViewFactory builds a NodeView for one block instance, given its
// current value.
type NodeViewFactory func(node *model.BlockNode) *NodeView

// ViewRegistry maps node types to NodeView factories. It lives apart from
// plugin.Registry because a NodeView closes over *html.Node, this
// package's stand-in for a real browser DOM (see SPEC_FULL.md's "DOM
// substrate" note) — folding it into plugin would force plugin to depend
// on this package's DOM type, and this package already depends on schema
// and model the way plugin does, so the dependency would have nowhere
// safe to point. The editor package wires a ViewRegistry alongside a
// plugin.Registry at construction time instead.
type ViewRegistry struct {
	factories map[string]NodeViewFactory
}

// NewViewRegistry returns an empty ViewRegistry.
func NewViewRegistry() *ViewRegistry {
	return &ViewRegistry{factories: map[string]NodeViewFactory{}}
}

// Register installs factory as the NodeView builder for nodeType,
// overwriting any previous registration for that type.
func (v *ViewRegistry) Register(nodeType ident.NodeTypeName, factory NodeViewFactory) {
	v.factories[nodeType.String()] = factory
}

// Lookup returns the registered factory for nodeType, if any.
func (v *ViewRegistry) Lookup(nodeType ident.NodeTypeName) (NodeViewFactory, bool) {
	f, ok := v.factories[nodeType.String()]
	return f, ok
}

// placeholderElement builds the element a NodeView factory exception
// falls back to: an empty element that still carries the block's id, so
// the reconciler's id-based diff keeps working around it.
func placeholderElement(blockID string) *html.Node {
	return &html.Node{
		Type: html.ElementNode, Data: "div", DataAtom: atom.Div,
		Attr: []html.Attribute{{Key: "data-block-id", Val: blockID}, {Key: "data-nodeview-error", Val: "true"}},
	}
}

func setBlockID(n *html.Node, id string) {
	for i, a := range n.Attr {
		if a.Key == "data-block-id" {
			n.Attr[i].Val = id
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: "data-block-id", Val: id})
}

func blockIDOf(n *html.Node) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == "data-block-id" {
			return a.Val, true
		}
	}
	return "", false
}
