package model

import "github.com/Samyssmile/notectl-sub003/ident"

// ReplaceBlock returns a new Document in which the block identified by id
// has been replaced by mutate's return value, path-copying every ancestor
// of that block (and the top-level Blocks slice) so older Document values
// sharing structure with doc are left untouched. mutate receives the
// current block and returns its replacement; returning nil removes the
// block instead of replacing it. ok is false if id was not found.
//
// Every transform.Step's Apply is built on this one primitive: the
// persistent-tree analogue of a position-addressed Node.replace.
func ReplaceBlock(doc *Document, id ident.BlockId, mutate func(*BlockNode) *BlockNode) (*Document, bool) {
	blocks, ok := replaceInSlice(doc.Blocks, id, mutate)
	if !ok {
		return doc, false
	}
	return &Document{Blocks: blocks}, true
}

func replaceInSlice(blocks []*BlockNode, id ident.BlockId, mutate func(*BlockNode) *BlockNode) ([]*BlockNode, bool) {
	for i, b := range blocks {
		if b.ID == id {
			out := append([]*BlockNode(nil), blocks...)
			replacement := mutate(b)
			if replacement == nil {
				return append(out[:i], out[i+1:]...), true
			}
			out[i] = replacement
			return out, true
		}
		if bc, isCompound := b.Content.(BlockChildren); isCompound {
			children, ok := replaceInSlice(bc.Blocks, id, mutate)
			if ok {
				out := append([]*BlockNode(nil), blocks...)
				clone := *b
				clone.Content = BlockChildren{Blocks: children}
				out[i] = &clone
				return out, true
			}
		}
	}
	return blocks, false
}

// InsertBlockAt returns a new Document with node inserted at index within
// the children of parentID's compound block (or at the top level when
// parentID is the zero BlockId). index is clamped to [0, len(children)].
func InsertBlockAt(doc *Document, parentID ident.BlockId, index int, node *BlockNode) *Document {
	if parentID.IsZero() {
		blocks := insertAt(doc.Blocks, index, node)
		return &Document{Blocks: blocks}
	}
	out, _ := ReplaceBlock(doc, parentID, func(parent *BlockNode) *BlockNode {
		bc, _ := parent.Content.(BlockChildren)
		clone := *parent
		clone.Content = BlockChildren{Blocks: insertAt(bc.Blocks, index, node)}
		return &clone
	})
	return out
}

func insertAt(blocks []*BlockNode, index int, node *BlockNode) []*BlockNode {
	if index < 0 {
		index = 0
	}
	if index > len(blocks) {
		index = len(blocks)
	}
	out := make([]*BlockNode, 0, len(blocks)+1)
	out = append(out, blocks[:index]...)
	out = append(out, node)
	out = append(out, blocks[index:]...)
	return out
}

// MutateChildren returns a new Document with parentID's children list
// rewritten by mutate. parentID may be the zero BlockId to mutate the
// top-level Blocks slice itself. This is the primitive splitBlock,
// mergeBlocks and insertNode/removeNode build on: anything that needs to
// change how many children a parent has, not just one child's own
// content.
func MutateChildren(doc *Document, parentID ident.BlockId, mutate func([]*BlockNode) []*BlockNode) (*Document, bool) {
	if parentID.IsZero() {
		return &Document{Blocks: mutate(doc.Blocks)}, true
	}
	return ReplaceBlock(doc, parentID, func(parent *BlockNode) *BlockNode {
		bc, _ := parent.Content.(BlockChildren)
		clone := *parent
		clone.Content = BlockChildren{Blocks: mutate(bc.Blocks)}
		return &clone
	})
}

// RemoveBlock returns a new Document with the block identified by id
// removed, wherever it occurs in the tree.
func RemoveBlock(doc *Document, id ident.BlockId) (*Document, bool) {
	return ReplaceBlock(doc, id, func(*BlockNode) *BlockNode { return nil })
}

// IndexAndParent locates the index of id within its parent's children and
// the parent's own id (the zero BlockId when id is top-level).
func IndexAndParent(doc *Document, id ident.BlockId) (parent ident.BlockId, index int, ok bool) {
	for i, b := range doc.Blocks {
		if b.ID == id {
			return ident.BlockId{}, i, true
		}
	}
	var found bool
	var parentID ident.BlockId
	var idx int
	doc.Walk(func(b *BlockNode, _ Path) bool {
		if found {
			return false
		}
		bc, isCompound := b.Content.(BlockChildren)
		if !isCompound {
			return true
		}
		for i, child := range bc.Blocks {
			if child.ID == id {
				parentID = b.ID
				idx = i
				found = true
				return false
			}
		}
		return true
	})
	return parentID, idx, found
}
