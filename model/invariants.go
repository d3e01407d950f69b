package model

import "github.com/Samyssmile/notectl-sub003/ident"

// NormalizeInline enforces invariants 3 and 4 on a leaf block's inline
// content: adjacent text segments with identical mark sets are merged, and
// empty text segments are dropped — unless the result would be a leaf
// block with no children at all, in which case a single empty text
// segment (with no marks) is kept as the sentinel that lets an empty
// paragraph still have a cursor position.
func NormalizeInline(items []InlineItem) []InlineItem {
	var out []InlineItem
	for _, it := range items {
		ts, isText := it.(TextSegment)
		if isText && ts.Text == "" {
			continue
		}
		if isText && len(out) > 0 {
			if prevTS, ok := out[len(out)-1].(TextSegment); ok && MarkSetsEqual(prevTS.Marks, ts.Marks) {
				out[len(out)-1] = TextSegment{Text: prevTS.Text + ts.Text, Marks: prevTS.Marks}
				continue
			}
		}
		out = append(out, it)
	}
	if len(out) == 0 {
		out = []InlineItem{TextSegment{Text: "", Marks: nil}}
	}
	return out
}

// CheckIDsUnique reports the first duplicate BlockId found in the
// document, if any (invariant 1).
func CheckIDsUnique(doc *Document) (dup ident.BlockId, ok bool) {
	seen := map[ident.BlockId]bool{}
	var found ident.BlockId
	hasDup := false
	doc.Walk(func(b *BlockNode, _ Path) bool {
		if hasDup {
			return false
		}
		if seen[b.ID] {
			found = b.ID
			hasDup = true
			return false
		}
		seen[b.ID] = true
		return true
	})
	return found, hasDup
}

// CheckNoDegenerateText reports whether invariant 3/4 holds for every leaf
// block in the document: no two adjacent text segments share a mark set,
// and no text segment is empty unless it is the sole child of its block.
func CheckNoDegenerateText(doc *Document) bool {
	ok := true
	doc.Walk(func(b *BlockNode, _ Path) bool {
		ic, isLeaf := b.Content.(InlineChildren)
		if !isLeaf {
			return true
		}
		for i, it := range ic.Items {
			ts, isText := it.(TextSegment)
			if !isText {
				continue
			}
			if ts.Text == "" && len(ic.Items) != 1 {
				ok = false
			}
			if i > 0 {
				if prevTS, isPrevText := ic.Items[i-1].(TextSegment); isPrevText && MarkSetsEqual(prevTS.Marks, ts.Marks) {
					ok = false
				}
			}
		}
		return true
	})
	return ok
}
