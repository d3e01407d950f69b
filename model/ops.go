package model

import "github.com/Samyssmile/notectl-sub003/ident"

// Path addresses a block nested inside compound blocks: a sequence of
// BlockIds to descend through, e.g. [tableId, rowId, cellId]. Top-level
// blocks are addressed by BlockId alone (an empty/nil Path).
type Path []ident.BlockId

// FindNode does a depth-first search for the block with the given id.
// Most code should prefer ResolveNodeByPath when it already has a path;
// FindNode is for the cases — resolving a selection endpoint, recovering
// from an id that arrived without its path — where only the id is known.
func FindNode(doc *Document, id ident.BlockId) (*BlockNode, bool) {
	for _, b := range doc.Blocks {
		if found, ok := findIn(b, id); ok {
			return found, true
		}
	}
	return nil, false
}

func findIn(b *BlockNode, id ident.BlockId) (*BlockNode, bool) {
	if b.ID == id {
		return b, true
	}
	if bc, ok := b.Content.(BlockChildren); ok {
		for _, child := range bc.Blocks {
			if found, ok := findIn(child, id); ok {
				return found, true
			}
		}
	}
	return nil, false
}

// ResolveNodeByPath walks from the document root through each id in path
// in turn, returning the block at the end of the walk.
func ResolveNodeByPath(doc *Document, path Path) (*BlockNode, bool) {
	if len(path) == 0 {
		return nil, false
	}
	var cur *BlockNode
	for _, b := range doc.Blocks {
		if b.ID == path[0] {
			cur = b
			break
		}
	}
	if cur == nil {
		return nil, false
	}
	for _, id := range path[1:] {
		bc, ok := cur.Content.(BlockChildren)
		if !ok {
			return nil, false
		}
		next := (*BlockNode)(nil)
		for _, child := range bc.Blocks {
			if child.ID == id {
				next = child
				break
			}
		}
		if next == nil {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

// GetBlockLength returns a leaf block's content length (see BlockNode.Length).
func GetBlockLength(b *BlockNode) int { return b.Length() }

// GetBlockText concatenates a leaf block's text segments, ignoring inline
// nodes. Compound blocks return "".
func GetBlockText(b *BlockNode) string {
	ic, ok := b.Content.(InlineChildren)
	if !ok {
		return ""
	}
	out := ""
	for _, it := range ic.Items {
		if ts, ok := it.(TextSegment); ok {
			out += ts.Text
		}
	}
	return out
}

// GetInlineChildren returns a leaf block's inline items, or (nil, false)
// for a compound or void block.
func GetInlineChildren(b *BlockNode) ([]InlineItem, bool) {
	ic, ok := b.Content.(InlineChildren)
	if !ok {
		return nil, false
	}
	return ic.Items, true
}

// IsTextSegment reports whether an InlineItem is a TextSegment.
func IsTextSegment(it InlineItem) bool {
	_, ok := it.(TextSegment)
	return ok
}

// IsInlineNode reports whether an InlineItem is an InlineNode.
func IsInlineNode(it InlineItem) bool {
	_, ok := it.(InlineNode)
	return ok
}

// ContentAtOffset describes what sits at a given offset inside a leaf
// block: either a text position (with the local rune offset into that
// segment) or an inline node.
type ContentAtOffset struct {
	IsText      bool
	TextItem    TextSegment
	LocalOffset int
	InlineItem  InlineNode
}

// GetContentAtOffset finds the inline item that contains the given offset,
// and the offset local to that item. Returns false if offset is out of
// range or the block is not a leaf block.
func GetContentAtOffset(b *BlockNode, offset int) (ContentAtOffset, bool) {
	ic, ok := b.Content.(InlineChildren)
	if !ok || offset < 0 {
		return ContentAtOffset{}, false
	}
	pos := 0
	for _, it := range ic.Items {
		l := it.Length()
		if offset < pos+l || (offset == pos+l && pos+l == ic.Size()) {
			switch v := it.(type) {
			case TextSegment:
				if offset <= pos+l {
					return ContentAtOffset{IsText: true, TextItem: v, LocalOffset: offset - pos}, true
				}
			case InlineNode:
				return ContentAtOffset{IsText: false, InlineItem: v}, true
			}
		}
		pos += l
	}
	if offset == pos {
		// Position at the very end of the block's content.
		return ContentAtOffset{IsText: true, TextItem: TextSegment{}, LocalOffset: 0}, true
	}
	return ContentAtOffset{}, false
}

// GetBlockMarksAtOffset returns the marks that a collapsed cursor at
// offset would carry: the marks of the text to the left, falling back to
// the marks of the text to the right at the very start of the block. This
// is what the builder consults when deriving storedMarks for undo metadata
// and what the keyboard handler consults when no stored marks are set.
func GetBlockMarksAtOffset(b *BlockNode, offset int) []Mark {
	ic, ok := b.Content.(InlineChildren)
	if !ok || len(ic.Items) == 0 {
		return nil
	}
	pos := 0
	var before, after []Mark
	found := false
	for _, it := range ic.Items {
		l := it.Length()
		ts, isText := it.(TextSegment)
		if offset > pos && offset <= pos+l && isText {
			before = ts.Marks
			found = true
		}
		if offset >= pos && offset < pos+l && isText && !found {
			after = ts.Marks
		}
		pos += l
	}
	if found {
		return before
	}
	if after != nil {
		return after
	}
	return nil
}

// TextRun pairs a text segment with the absolute offset range it occupies
// inside its block, as produced by GetBlockSegmentsInRange.
type TextRun struct {
	From, To int
	Segment  TextSegment
}

// GetBlockSegmentsInRange slices the text segments that overlap [from,to)
// so that a caller (typically the transaction builder, capturing undo
// metadata before deleting a range) can recover the exact text and marks
// that are about to be removed.
func GetBlockSegmentsInRange(b *BlockNode, from, to int) []TextRun {
	ic, ok := b.Content.(InlineChildren)
	if !ok || from >= to {
		return nil
	}
	var runs []TextRun
	pos := 0
	for _, it := range ic.Items {
		l := it.Length()
		segFrom, segTo := pos, pos+l
		ts, isText := it.(TextSegment)
		if isText {
			lo, hi := max(segFrom, from), min(segTo, to)
			if lo < hi {
				rs := []rune(ts.Text)
				runs = append(runs, TextRun{
					From:    lo,
					To:      hi,
					Segment: TextSegment{Text: string(rs[lo-segFrom : hi-segFrom]), Marks: ts.Marks},
				})
			}
		}
		pos += l
	}
	return runs
}

// MarkSetsEqual reports whether a and b contain the same marks, ignoring
// order (invariant 3 treats mark sets, not mark sequences, as the unit of
// identity when deciding whether adjacent text nodes must be coalesced).
func MarkSetsEqual(a, b []Mark) bool {
	if len(a) != len(b) {
		return false
	}
	used := make([]bool, len(b))
outer:
	for _, m := range a {
		for j, o := range b {
			if used[j] {
				continue
			}
			if m.Eq(o) {
				used[j] = true
				continue outer
			}
		}
		return false
	}
	return true
}
