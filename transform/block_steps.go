package transform

import (
	"github.com/Samyssmile/notectl-sub003/ident"
	"github.com/Samyssmile/notectl-sub003/model"
)

// SplitBlockStep splits the leaf block identified by BlockID at Offset,
// leaving the content before Offset in place and moving the content from
// Offset onward into a brand new sibling block with id NewID (inserted
// immediately after BlockID, under the same parent). NewType/NewAttrs let
// the split produce a different node type for the new half (e.g. pressing
// Enter at the end of a heading continues as a paragraph).
type SplitBlockStep struct {
	BlockID  ident.BlockId
	Offset   int
	NewID    ident.BlockId
	NewType  ident.NodeTypeName
	NewAttrs map[string]any
}

func (s SplitBlockStep) apply(doc *model.Document) StepResult {
	parentID, index, ok := model.IndexAndParent(doc, s.BlockID)
	if !ok {
		return Fail("transform: splitBlock: block not found")
	}
	original, _ := model.FindNode(doc, s.BlockID)
	ic, isLeaf := original.Content.(model.InlineChildren)
	if !isLeaf {
		return Fail("transform: splitBlock: block is not a leaf")
	}
	parts := splitInlineAt(ic.Items, s.Offset)

	newType := s.NewType
	if newType.String() == "" {
		newType = original.Type
	}
	newNode := &model.BlockNode{
		ID:      s.NewID,
		Type:    newType,
		Attrs:   s.NewAttrs,
		Content: model.InlineChildren{Items: model.NormalizeInline(parts.after)},
	}

	out, ok := model.MutateChildren(doc, parentID, func(children []*model.BlockNode) []*model.BlockNode {
		updated := make([]*model.BlockNode, 0, len(children)+1)
		for i, c := range children {
			if i == index {
				clone := *c
				clone.Content = model.InlineChildren{Items: model.NormalizeInline(parts.before)}
				updated = append(updated, &clone, newNode)
				continue
			}
			updated = append(updated, c)
		}
		return updated
	})
	if !ok {
		return Fail("transform: splitBlock: parent not found")
	}
	return Ok(out)
}

func (s SplitBlockStep) invert() Step {
	return MergeBlocksStep{FirstID: s.BlockID, SecondID: s.NewID}
}

// MergeBlocksStep appends SecondID's content onto the end of FirstID's
// content and removes SecondID. Both must be leaf blocks under the same
// parent and adjacent, with SecondID immediately after FirstID; Apply
// fails otherwise.
type MergeBlocksStep struct {
	FirstID, SecondID ident.BlockId
}

func (s MergeBlocksStep) apply(doc *model.Document) StepResult {
	parentID, firstIndex, ok := model.IndexAndParent(doc, s.FirstID)
	if !ok {
		return Fail("transform: mergeBlocks: first block not found")
	}
	secondParent, secondIndex, ok := model.IndexAndParent(doc, s.SecondID)
	if !ok || secondParent != parentID || secondIndex != firstIndex+1 {
		return Fail("transform: mergeBlocks: blocks are not adjacent siblings")
	}
	first, _ := model.FindNode(doc, s.FirstID)
	second, _ := model.FindNode(doc, s.SecondID)
	firstIC, firstIsLeaf := first.Content.(model.InlineChildren)
	secondIC, secondIsLeaf := second.Content.(model.InlineChildren)
	if !firstIsLeaf || !secondIsLeaf {
		return Fail("transform: mergeBlocks: blocks are not leaves")
	}

	merged := model.NormalizeInline(append(append([]model.InlineItem{}, firstIC.Items...), secondIC.Items...))
	out, ok := model.MutateChildren(doc, parentID, func(children []*model.BlockNode) []*model.BlockNode {
		updated := make([]*model.BlockNode, 0, len(children)-1)
		for i, c := range children {
			if i == secondIndex {
				continue
			}
			if i == firstIndex {
				clone := *c
				clone.Content = model.InlineChildren{Items: merged}
				updated = append(updated, &clone)
				continue
			}
			updated = append(updated, c)
		}
		return updated
	})
	if !ok {
		return Fail("transform: mergeBlocks: parent not found")
	}
	return Ok(out)
}

func (s MergeBlocksStep) invert(before *model.Document) Step {
	first, _ := model.FindNode(before, s.FirstID)
	splitOffset := model.GetBlockLength(first)
	second, _ := model.FindNode(before, s.SecondID)
	return SplitBlockStep{BlockID: s.FirstID, Offset: splitOffset, NewID: s.SecondID, NewType: second.Type, NewAttrs: second.Attrs}
}

// SetBlockTypeStep changes BlockID's node type (and, when NewAttrs is
// non-nil, its attrs) in place. Content is left untouched; callers are
// responsible for checking the new type actually accepts that content
// shape (leaf vs. compound) before issuing this step.
type SetBlockTypeStep struct {
	BlockID  ident.BlockId
	NewType  ident.NodeTypeName
	NewAttrs map[string]any
}

func (s SetBlockTypeStep) apply(doc *model.Document) StepResult {
	out, ok := model.ReplaceBlock(doc, s.BlockID, func(b *model.BlockNode) *model.BlockNode {
		clone := *b
		clone.Type = s.NewType
		if s.NewAttrs != nil {
			clone.Attrs = s.NewAttrs
		}
		return &clone
	})
	if !ok {
		return Fail("transform: setBlockType: block not found")
	}
	return Ok(out)
}

func (s SetBlockTypeStep) invert(before *model.Document) Step {
	b, _ := model.FindNode(before, s.BlockID)
	return SetBlockTypeStep{BlockID: s.BlockID, NewType: b.Type, NewAttrs: b.Attrs}
}

// InsertNodeStep inserts Node as a child of ParentID at Index (ParentID
// may be the zero BlockId to insert at the document's top level).
type InsertNodeStep struct {
	ParentID ident.BlockId
	Index    int
	Node     *model.BlockNode
}

func (s InsertNodeStep) apply(doc *model.Document) StepResult {
	return Ok(model.InsertBlockAt(doc, s.ParentID, s.Index, s.Node))
}

func (s InsertNodeStep) invert() Step {
	return RemoveNodeStep{ParentID: s.ParentID, BlockID: s.Node.ID}
}

// RemoveNodeStep removes the block identified by BlockID wherever it sits
// in the document; apply does not look at ParentID, which invert uses as
// the parent to re-insert the block under.
type RemoveNodeStep struct {
	ParentID ident.BlockId
	BlockID  ident.BlockId
}

func (s RemoveNodeStep) apply(doc *model.Document) StepResult {
	out, ok := model.RemoveBlock(doc, s.BlockID)
	if !ok {
		return Fail("transform: removeNode: block not found")
	}
	return Ok(out)
}

func (s RemoveNodeStep) invert(before *model.Document) Step {
	_, index, _ := model.IndexAndParent(before, s.BlockID)
	node, _ := model.FindNode(before, s.BlockID)
	return InsertNodeStep{ParentID: s.ParentID, Index: index, Node: node}
}

// SetNodeAttrStep sets a single attribute on the block identified by
// BlockID.
type SetNodeAttrStep struct {
	BlockID ident.BlockId
	Key     string
	Value   any
}

func (s SetNodeAttrStep) apply(doc *model.Document) StepResult {
	out, ok := model.ReplaceBlock(doc, s.BlockID, func(b *model.BlockNode) *model.BlockNode {
		clone := *b
		attrs := make(map[string]any, len(b.Attrs)+1)
		for k, v := range b.Attrs {
			attrs[k] = v
		}
		attrs[s.Key] = s.Value
		clone.Attrs = attrs
		return &clone
	})
	if !ok {
		return Fail("transform: setNodeAttr: block not found")
	}
	return Ok(out)
}

func (s SetNodeAttrStep) invert(before *model.Document) Step {
	b, _ := model.FindNode(before, s.BlockID)
	prev, had := b.Attrs[s.Key]
	if !had {
		return RemoveNodeAttrStep{BlockID: s.BlockID, Key: s.Key}
	}
	return SetNodeAttrStep{BlockID: s.BlockID, Key: s.Key, Value: prev}
}

// RemoveNodeAttrStep deletes an attribute key entirely (rather than
// setting it to a zero value), used as the inverse of a SetNodeAttrStep
// that introduced a key which previously did not exist.
type RemoveNodeAttrStep struct {
	BlockID ident.BlockId
	Key     string
}

func (RemoveNodeAttrStep) isStep() {}

func (s RemoveNodeAttrStep) apply(doc *model.Document) StepResult {
	out, ok := model.ReplaceBlock(doc, s.BlockID, func(b *model.BlockNode) *model.BlockNode {
		clone := *b
		attrs := make(map[string]any, len(b.Attrs))
		for k, v := range b.Attrs {
			if k != s.Key {
				attrs[k] = v
			}
		}
		clone.Attrs = attrs
		return &clone
	})
	if !ok {
		return Fail("transform: removeNodeAttr: block not found")
	}
	return Ok(out)
}

func (s RemoveNodeAttrStep) invert(before *model.Document) Step {
	b, _ := model.FindNode(before, s.BlockID)
	return SetNodeAttrStep{BlockID: s.BlockID, Key: s.Key, Value: b.Attrs[s.Key]}
}
