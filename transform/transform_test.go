package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Samyssmile/notectl-sub003/ident"
	"github.com/Samyssmile/notectl-sub003/model"
)

func para(id, text string) *model.BlockNode {
	return &model.BlockNode{
		ID:      ident.BlockIDFrom(id),
		Type:    ident.NewNodeTypeName("paragraph"),
		Content: model.InlineChildren{Items: []model.InlineItem{model.TextSegment{Text: text}}},
	}
}

func TestInsertTextStepAndInvert(t *testing.T) {
	doc := &model.Document{Blocks: []*model.BlockNode{para("b1", "hello")}}
	step := InsertTextStep{BlockID: ident.BlockIDFrom("b1"), Offset: 5, Text: " world"}

	result := Apply(doc, step)
	require.Empty(t, result.Failed)
	b, _ := model.FindNode(result.Doc, ident.BlockIDFrom("b1"))
	assert.Equal(t, "hello world", model.GetBlockText(b))

	inv := Invert(doc, step)
	back := Apply(result.Doc, inv)
	require.Empty(t, back.Failed)
	b2, _ := model.FindNode(back.Doc, ident.BlockIDFrom("b1"))
	assert.Equal(t, "hello", model.GetBlockText(b2))
}

func TestDeleteTextStepAndInvert(t *testing.T) {
	bold := model.Mark{Type: ident.NewMarkTypeName("bold")}
	doc := &model.Document{Blocks: []*model.BlockNode{{
		ID:   ident.BlockIDFrom("b1"),
		Type: ident.NewNodeTypeName("paragraph"),
		Content: model.InlineChildren{Items: []model.InlineItem{
			model.TextSegment{Text: "hello "},
			model.TextSegment{Text: "world", Marks: []model.Mark{bold}},
		}},
	}}}
	step := DeleteTextStep{BlockID: ident.BlockIDFrom("b1"), From: 2, To: 9}

	result := Apply(doc, step)
	require.Empty(t, result.Failed)
	b, _ := model.FindNode(result.Doc, ident.BlockIDFrom("b1"))
	assert.Equal(t, "held", model.GetBlockText(b))

	inv := Invert(doc, step)
	back := Apply(result.Doc, inv)
	require.Empty(t, back.Failed)
	b2, _ := model.FindNode(back.Doc, ident.BlockIDFrom("b1"))
	assert.Equal(t, "hello world", model.GetBlockText(b2))
}

func TestSplitBlockStepAndInvert(t *testing.T) {
	doc := &model.Document{Blocks: []*model.BlockNode{para("b1", "hello world")}}
	step := SplitBlockStep{BlockID: ident.BlockIDFrom("b1"), Offset: 5, NewID: ident.BlockIDFrom("b2")}

	result := Apply(doc, step)
	require.Empty(t, result.Failed)
	require.Len(t, result.Doc.Blocks, 2)
	assert.Equal(t, "hello", model.GetBlockText(result.Doc.Blocks[0]))
	assert.Equal(t, " world", model.GetBlockText(result.Doc.Blocks[1]))

	inv := Invert(doc, step)
	back := Apply(result.Doc, inv)
	require.Empty(t, back.Failed)
	require.Len(t, back.Doc.Blocks, 1)
	assert.Equal(t, "hello world", model.GetBlockText(back.Doc.Blocks[0]))
}

func TestMergeBlocksStepRejectsNonAdjacent(t *testing.T) {
	doc := &model.Document{Blocks: []*model.BlockNode{para("b1", "a"), para("b2", "b"), para("b3", "c")}}
	result := Apply(doc, MergeBlocksStep{FirstID: ident.BlockIDFrom("b1"), SecondID: ident.BlockIDFrom("b3")})
	assert.NotEmpty(t, result.Failed)
}

func TestAddMarkStepAndInvert(t *testing.T) {
	doc := &model.Document{Blocks: []*model.BlockNode{para("b1", "hello world")}}
	bold := model.Mark{Type: ident.NewMarkTypeName("bold")}
	step := AddMarkStep{BlockID: ident.BlockIDFrom("b1"), From: 0, To: 5, Mark: bold}

	result := Apply(doc, step)
	require.Empty(t, result.Failed)
	b, _ := model.FindNode(result.Doc, ident.BlockIDFrom("b1"))
	runs := model.GetBlockSegmentsInRange(b, 0, 5)
	require.Len(t, runs, 1)
	assert.Equal(t, []model.Mark{bold}, runs[0].Segment.Marks)

	inv := Invert(doc, step)
	back := Apply(result.Doc, inv)
	require.Empty(t, back.Failed)
	b2, _ := model.FindNode(back.Doc, ident.BlockIDFrom("b1"))
	assert.Equal(t, "hello world", model.GetBlockText(b2))
	runs2 := model.GetBlockSegmentsInRange(b2, 0, 5)
	assert.Empty(t, runs2[0].Segment.Marks)
}

func TestSetBlockTypeStepAndInvert(t *testing.T) {
	doc := &model.Document{Blocks: []*model.BlockNode{para("b1", "x")}}
	step := SetBlockTypeStep{BlockID: ident.BlockIDFrom("b1"), NewType: ident.NewNodeTypeName("heading"), NewAttrs: map[string]any{"level": 2}}

	result := Apply(doc, step)
	require.Empty(t, result.Failed)
	b, _ := model.FindNode(result.Doc, ident.BlockIDFrom("b1"))
	assert.Equal(t, "heading", b.Type.String())

	inv := Invert(doc, step)
	back := Apply(result.Doc, inv)
	require.Empty(t, back.Failed)
	b2, _ := model.FindNode(back.Doc, ident.BlockIDFrom("b1"))
	assert.Equal(t, "paragraph", b2.Type.String())
}

func TestInsertNodeAndRemoveNodeStep(t *testing.T) {
	doc := &model.Document{Blocks: []*model.BlockNode{para("b1", "x")}}
	newBlock := para("b2", "y")
	step := InsertNodeStep{Index: 1, Node: newBlock}

	result := Apply(doc, step)
	require.Empty(t, result.Failed)
	require.Len(t, result.Doc.Blocks, 2)

	inv := Invert(doc, step)
	back := Apply(result.Doc, inv)
	require.Empty(t, back.Failed)
	require.Len(t, back.Doc.Blocks, 1)
}

func TestSetNodeAttrStepInvertRestoresMissingKey(t *testing.T) {
	doc := &model.Document{Blocks: []*model.BlockNode{{ID: ident.BlockIDFrom("b1"), Type: ident.NewNodeTypeName("heading"), Content: model.InlineChildren{Items: []model.InlineItem{model.TextSegment{Text: "h"}}}}}}
	step := SetNodeAttrStep{BlockID: ident.BlockIDFrom("b1"), Key: "level", Value: 2}

	result := Apply(doc, step)
	require.Empty(t, result.Failed)

	inv := Invert(doc, step)
	_, isRemove := inv.(RemoveNodeAttrStep)
	assert.True(t, isRemove)

	back := Apply(result.Doc, inv)
	require.Empty(t, back.Failed)
	b, _ := model.FindNode(back.Doc, ident.BlockIDFrom("b1"))
	_, has := b.Attrs["level"]
	assert.False(t, has)
}

func TestInsertInlineNodeAndRemoveInlineNodeStep(t *testing.T) {
	doc := &model.Document{Blocks: []*model.BlockNode{para("b1", "helloworld")}}
	step := InsertInlineNodeStep{BlockID: ident.BlockIDFrom("b1"), Offset: 5, Node: model.InlineNode{Type: ident.NewInlineNodeTypeName("hard_break")}}

	result := Apply(doc, step)
	require.Empty(t, result.Failed)
	b, _ := model.FindNode(result.Doc, ident.BlockIDFrom("b1"))
	assert.Equal(t, 11, model.GetBlockLength(b))

	inv := Invert(doc, step)
	back := Apply(result.Doc, inv)
	require.Empty(t, back.Failed)
	b2, _ := model.FindNode(back.Doc, ident.BlockIDFrom("b1"))
	assert.Equal(t, "helloworld", model.GetBlockText(b2))
}

func TestStepJSONRoundTrip(t *testing.T) {
	step := InsertTextStep{BlockID: ident.BlockIDFrom("b1"), Offset: 3, Text: "hi", Marks: []model.Mark{{Type: ident.NewMarkTypeName("bold")}}}
	raw := ToJSON(step)
	decoded, err := FromJSON(raw)
	require.NoError(t, err)
	back, ok := decoded.(InsertTextStep)
	require.True(t, ok)
	assert.Equal(t, step.BlockID, back.BlockID)
	assert.Equal(t, step.Text, back.Text)
	require.Len(t, back.Marks, 1)
	assert.Equal(t, "bold", back.Marks[0].Type.String())
}

func TestBuilderAccumulatesAndFails(t *testing.T) {
	doc := &model.Document{Blocks: []*model.BlockNode{para("b1", "hi")}}
	b := NewBuilder(doc).
		Step(InsertTextStep{BlockID: ident.BlockIDFrom("b1"), Offset: 2, Text: " there"}).
		Step(DeleteTextStep{BlockID: ident.BlockIDFrom("nonexistent"), From: 0, To: 1})

	assert.False(t, b.Ok())
	assert.NotEmpty(t, b.Reason())

	tr := b.Finish()
	assert.Len(t, tr.Steps, 1)
	node, _ := model.FindNode(tr.Doc, ident.BlockIDFrom("b1"))
	assert.Equal(t, "hi there", model.GetBlockText(node))
}
