package transform

import (
	"github.com/Samyssmile/notectl-sub003/ident"
	"github.com/Samyssmile/notectl-sub003/model"
)

// InsertInlineNodeStep inserts an inline node (e.g. a hard_break) at
// Offset within the leaf block identified by BlockID.
type InsertInlineNodeStep struct {
	BlockID ident.BlockId
	Offset  int
	Node    model.InlineNode
}

func (s InsertInlineNodeStep) apply(doc *model.Document) StepResult {
	out, ok := model.ReplaceBlock(doc, s.BlockID, func(b *model.BlockNode) *model.BlockNode {
		ic, isLeaf := b.Content.(model.InlineChildren)
		if !isLeaf {
			return b
		}
		parts := splitInlineAt(ic.Items, s.Offset)
		merged := append(append(append([]model.InlineItem{}, parts.before...), s.Node), parts.after...)
		clone := *b
		clone.Content = model.InlineChildren{Items: model.NormalizeInline(merged)}
		return &clone
	})
	if !ok {
		return Fail("transform: insertInlineNode: block not found")
	}
	return Ok(out)
}

func (s InsertInlineNodeStep) invert() Step {
	return RemoveInlineNodeStep{BlockID: s.BlockID, Offset: s.Offset}
}

// RemoveInlineNodeStep removes the inline node occupying Offset within the
// leaf block identified by BlockID. Offset must point at the start of an
// inline node (not at a text segment); Apply fails otherwise.
type RemoveInlineNodeStep struct {
	BlockID ident.BlockId
	Offset  int
}

func (s RemoveInlineNodeStep) apply(doc *model.Document) StepResult {
	var failed string
	out, ok := model.ReplaceBlock(doc, s.BlockID, func(b *model.BlockNode) *model.BlockNode {
		ic, isLeaf := b.Content.(model.InlineChildren)
		if !isLeaf {
			failed = "block is not a leaf"
			return b
		}
		ref, found := model.GetContentAtOffset(b, s.Offset)
		if !found || ref.IsText {
			failed = "no inline node at offset"
			return b
		}
		var out []model.InlineItem
		pos := 0
		for _, it := range ic.Items {
			length := itemLength(it)
			if pos == s.Offset {
				if _, isNode := it.(model.InlineNode); isNode {
					pos += length
					continue
				}
			}
			out = append(out, it)
			pos += length
		}
		clone := *b
		clone.Content = model.InlineChildren{Items: model.NormalizeInline(out)}
		return &clone
	})
	if !ok {
		return Fail("transform: removeInlineNode: block not found")
	}
	if failed != "" {
		return Fail("transform: removeInlineNode: " + failed)
	}
	return Ok(out)
}

func (s RemoveInlineNodeStep) invert(before *model.Document) Step {
	b, _ := model.FindNode(before, s.BlockID)
	ref, _ := model.GetContentAtOffset(b, s.Offset)
	return InsertInlineNodeStep{BlockID: s.BlockID, Offset: s.Offset, Node: ref.InlineItem}
}

// SetInlineNodeAttrStep sets a single attribute on the inline node
// occupying Offset within the leaf block identified by BlockID.
type SetInlineNodeAttrStep struct {
	BlockID ident.BlockId
	Offset  int
	Key     string
	Value   any
}

func (s SetInlineNodeAttrStep) apply(doc *model.Document) StepResult {
	var failed string
	out, ok := model.ReplaceBlock(doc, s.BlockID, func(b *model.BlockNode) *model.BlockNode {
		ic, isLeaf := b.Content.(model.InlineChildren)
		if !isLeaf {
			failed = "block is not a leaf"
			return b
		}
		items := append([]model.InlineItem{}, ic.Items...)
		pos := 0
		matched := false
		for i, it := range items {
			length := itemLength(it)
			if pos == s.Offset {
				if node, isNode := it.(model.InlineNode); isNode {
					attrs := make(map[string]any, len(node.Attrs)+1)
					for k, v := range node.Attrs {
						attrs[k] = v
					}
					attrs[s.Key] = s.Value
					node.Attrs = attrs
					items[i] = node
					matched = true
				}
			}
			pos += length
		}
		if !matched {
			failed = "no inline node at offset"
			return b
		}
		clone := *b
		clone.Content = model.InlineChildren{Items: items}
		return &clone
	})
	if !ok {
		return Fail("transform: setInlineNodeAttr: block not found")
	}
	if failed != "" {
		return Fail("transform: setInlineNodeAttr: " + failed)
	}
	return Ok(out)
}

func (s SetInlineNodeAttrStep) invert(before *model.Document) Step {
	b, _ := model.FindNode(before, s.BlockID)
	ref, _ := model.GetContentAtOffset(b, s.Offset)
	prev, _ := ref.InlineItem.Attrs[s.Key]
	return SetInlineNodeAttrStep{BlockID: s.BlockID, Offset: s.Offset, Key: s.Key, Value: prev}
}
