package model

import "github.com/Samyssmile/notectl-sub003/ident"

// Walk does a depth-first traversal of the document, calling visit for
// every block in document order (each top-level block, then its
// descendants before its following sibling). visit receives the block and
// the path of ids from the root down to (but not including) that block; it
// returns false to skip descending into that block's children.
//
// findNode, resolveNodeByPath-adjacent callers, GetText and IsEmpty (see
// the editor package) all share this one traversal primitive rather than
// re-deriving a tree walk.
func (d *Document) Walk(visit func(b *BlockNode, path Path) bool) {
	for _, b := range d.Blocks {
		walkBlock(b, nil, visit)
	}
}

func walkBlock(b *BlockNode, path Path, visit func(b *BlockNode, path Path) bool) {
	if !visit(b, path) {
		return
	}
	if bc, ok := b.Content.(BlockChildren); ok {
		childPath := append(append(Path{}, path...), b.ID)
		for _, child := range bc.Blocks {
			walkBlock(child, childPath, visit)
		}
	}
}

// AllBlockIDs collects every block id in the document, in document order.
func (d *Document) AllBlockIDs() []ident.BlockId {
	var ids []ident.BlockId
	d.Walk(func(b *BlockNode, _ Path) bool {
		ids = append(ids, b.ID)
		return true
	})
	return ids
}
