// Package model implements the engine's immutable, tree-shaped document:
// an ordered sequence of block nodes, whose children are either all further
// block nodes (compound blocks such as table/table_row/table_cell) or all
// inline content (text segments and inline nodes).
//
// Nodes are persistent data structures. A mutation never changes a node in
// place; it builds a new tree that shares whatever structure it can with
// the old one. Do not mutate the exported fields of the types in this
// package after construction — treat every value as read-only and build a
// replacement instead.
package model

import "github.com/Samyssmile/notectl-sub003/ident"

// Mark is a non-structural annotation on a text run: bold, italic, a link,
// a text color. Two marks are equal iff their type and attrs match.
type Mark struct {
	Type  ident.MarkTypeName
	Attrs map[string]string
}

// Eq reports whether m and other have the same type and attrs.
func (m Mark) Eq(other Mark) bool {
	if m.Type != other.Type {
		return false
	}
	if len(m.Attrs) != len(other.Attrs) {
		return false
	}
	for k, v := range m.Attrs {
		if other.Attrs[k] != v {
			return false
		}
	}
	return true
}

// Content is the sum type of a block's children: either BlockChildren
// (compound block) or InlineChildren (leaf block). It is a closed
// interface; the only implementations live in this package, so a type
// switch over Content is exhaustive.
type Content interface {
	isContent()
	// Size is the content's contribution to the block's NodeSize: the
	// number of child blocks, or the inline length (see InlineLength).
	Size() int
}

// BlockChildren holds the sub-blocks of a compound block (table, table_row,
// table_cell, and similarly structured node types).
type BlockChildren struct {
	Blocks []*BlockNode
}

func (BlockChildren) isContent() {}

// Size returns the number of direct child blocks.
func (b BlockChildren) Size() int { return len(b.Blocks) }

// InlineChildren holds the text segments and inline nodes of a leaf
// (inline-content) block.
type InlineChildren struct {
	Items []InlineItem
}

func (InlineChildren) isContent() {}

// Size returns the total inline length: text rune counts plus one per
// inline node.
func (c InlineChildren) Size() int {
	total := 0
	for _, it := range c.Items {
		total += it.Length()
	}
	return total
}

// InlineItem is the sum type of a leaf block's children: TextSegment or
// InlineNode. Offsets inside a leaf block count runes of TextSegment.Text
// and 1 for each InlineNode.
type InlineItem interface {
	isInlineItem()
	// Length is this item's contribution to the containing block's offset
	// range: the rune count for a TextSegment, or 1 for an InlineNode.
	Length() int
}

// TextSegment is a run of text carrying a (possibly empty) set of marks.
// The mark set never contains two marks of the same type. AddMarkStep
// appends a mark at the end of the set and does not sort it by rank;
// schema.Registry.SortMarksByRank gives rank order, and the HTML
// serializer applies it before rendering.
type TextSegment struct {
	Text  string
	Marks []Mark
}

func (TextSegment) isInlineItem() {}

// Length returns the rune count of the segment's text. The engine counts
// offsets in Unicode code points rather than UTF-16 code units, since Go
// strings have no native UTF-16 form (see DESIGN.md).
func (t TextSegment) Length() int { return len([]rune(t.Text)) }

// InlineNode is a length-1 atomic element inside a leaf block: a hard
// break, an inline image, and so on.
type InlineNode struct {
	Type  ident.InlineNodeTypeName
	Attrs map[string]any
}

func (InlineNode) isInlineItem() {}

// Length is always 1 for an InlineNode.
func (InlineNode) Length() int { return 1 }

// BlockNode is a single node in the document tree: a paragraph, heading,
// table, table row, list item, and so on. Its children are either all
// block nodes or all inline content — never a mix (invariant 2).
type BlockNode struct {
	ID      ident.BlockId
	Type    ident.NodeTypeName
	Attrs   map[string]any
	Content Content
}

// NodeSize is the block's contribution to an enclosing compound block's
// child count (always 1 — unlike ProseMirror's position scheme, this model
// addresses compound-block children by BlockId/path, not by an integer
// token budget that counts open/close tokens).
func (b *BlockNode) NodeSize() int { return 1 }

// IsLeaf reports whether b holds inline content (true) or sub-blocks
// (false). A block with no Content set at all (neither BlockChildren nor
// InlineChildren) is also considered a leaf with zero length — this is how
// void blocks such as horizontal_rule and image are represented.
func (b *BlockNode) IsLeaf() bool {
	switch b.Content.(type) {
	case InlineChildren, nil:
		return true
	default:
		return false
	}
}

// Length returns the block's content length: 0 for a void/compound block,
// otherwise the inline length described by InlineChildren.Size.
func (b *BlockNode) Length() int {
	if ic, ok := b.Content.(InlineChildren); ok {
		return ic.Size()
	}
	return 0
}

// Document is an ordered sequence of top-level block nodes.
type Document struct {
	Blocks []*BlockNode
}

// BlockOrder returns the ids of the top-level blocks, in order.
func (d *Document) BlockOrder() []ident.BlockId {
	order := make([]ident.BlockId, len(d.Blocks))
	for i, b := range d.Blocks {
		order[i] = b.ID
	}
	return order
}

// Clone returns a shallow copy of the document's top-level block slice,
// safe to mutate (append/remove/reorder) without affecting d.
func (d *Document) Clone() *Document {
	blocks := make([]*BlockNode, len(d.Blocks))
	copy(blocks, d.Blocks)
	return &Document{Blocks: blocks}
}
