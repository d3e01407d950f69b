package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Samyssmile/notectl-sub003/ident"
	"github.com/Samyssmile/notectl-sub003/model"
	"github.com/Samyssmile/notectl-sub003/schema"
	"github.com/Samyssmile/notectl-sub003/schema/basic"
	"github.com/Samyssmile/notectl-sub003/selection"
	"github.com/Samyssmile/notectl-sub003/transform"
)

func newRegistry() *schema.Registry {
	r := schema.NewRegistry()
	basic.Register(r)
	r.Freeze()
	return r
}

func paraDoc(text string) *model.Document {
	return &model.Document{Blocks: []*model.BlockNode{{
		ID:      ident.BlockIDFrom("b1"),
		Type:    ident.NewNodeTypeName("paragraph"),
		Content: model.InlineChildren{Items: []model.InlineItem{model.TextSegment{Text: text}}},
	}}}
}

func TestNewStartsCollapsedCursorAtFirstLeaf(t *testing.T) {
	s := New(paraDoc("hello"), newRegistry())
	sel, ok := s.Selection.(selection.TextSelection)
	require.True(t, ok)
	assert.Equal(t, "b1", sel.BlockID.String())
	assert.True(t, sel.Empty())
}

func TestApplyClearsStoredMarksOnEdit(t *testing.T) {
	s := New(paraDoc("hello"), newRegistry())
	s = SetStoredMarks(s, []model.Mark{{Type: ident.NewMarkTypeName("bold")}})

	b := NewTransaction(s).Step(transform.InsertTextStep{BlockID: ident.BlockIDFrom("b1"), Offset: 5, Text: "!"})
	next := Apply(s, b.Finish())

	assert.Empty(t, next.StoredMarks)
	node, _ := model.FindNode(next.Doc, ident.BlockIDFrom("b1"))
	assert.Equal(t, "hello!", model.GetBlockText(node))
}

func TestApplyPreservesStoredMarksWhenNoSteps(t *testing.T) {
	s := New(paraDoc("hello"), newRegistry())
	marks := []model.Mark{{Type: ident.NewMarkTypeName("bold")}}
	s = SetStoredMarks(s, marks)

	next := Apply(s, NewTransaction(s).Finish())
	assert.Equal(t, marks, next.StoredMarks)
}

func TestApplyFallsBackWhenSelectionInvalidated(t *testing.T) {
	s := New(paraDoc("hi"), newRegistry())
	s = SetSelection(s, selection.TextSelection{BlockID: ident.BlockIDFrom("b1"), Anchor: 2, Head: 2})

	b := NewTransaction(s).Step(transform.RemoveNodeStep{BlockID: ident.BlockIDFrom("b1")})
	require.True(t, b.Ok())
	replacement := paraDoc("new").Blocks[0]
	replacement.ID = ident.BlockIDFrom("b2")
	b2 := b.Step(transform.InsertNodeStep{Index: 0, Node: replacement})

	next := Apply(s, b2.Finish())
	sel, ok := next.Selection.(selection.TextSelection)
	require.True(t, ok)
	assert.Equal(t, "b2", sel.BlockID.String())
	assert.Equal(t, "new", model.GetBlockText(mustFind(next, sel.BlockID)))
}

func mustFind(s EditorState, id ident.BlockId) *model.BlockNode {
	b, _ := model.FindNode(s.Doc, id)
	return b
}

func TestSetSelectionRejectsOutOfRange(t *testing.T) {
	s := New(paraDoc("hi"), newRegistry())
	orig := s.Selection
	next := SetSelection(s, selection.TextSelection{BlockID: ident.BlockIDFrom("b1"), Anchor: 99, Head: 99})
	assert.Equal(t, orig, next.Selection)
}
