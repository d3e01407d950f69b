package selection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Samyssmile/notectl-sub003/ident"
	"github.com/Samyssmile/notectl-sub003/model"
)

func doc() *model.Document {
	return &model.Document{Blocks: []*model.BlockNode{
		{ID: ident.BlockIDFrom("b1"), Type: ident.NewNodeTypeName("paragraph"), Content: model.InlineChildren{Items: []model.InlineItem{model.TextSegment{Text: "hello"}}}},
		{ID: ident.BlockIDFrom("img1"), Type: ident.NewNodeTypeName("image")},
	}}
}

func TestNewTextSelectionClamps(t *testing.T) {
	sel, ok := NewTextSelection(doc(), ident.BlockIDFrom("b1"), -3, 999)
	require.True(t, ok)
	assert.Equal(t, 0, sel.Anchor)
	assert.Equal(t, 5, sel.Head)
	assert.False(t, sel.Empty())
}

func TestTextSelectionFromTo(t *testing.T) {
	sel := TextSelection{Anchor: 4, Head: 1}
	assert.Equal(t, 1, sel.From())
	assert.Equal(t, 4, sel.To())
}

func TestNodeSelectionAlwaysEmpty(t *testing.T) {
	assert.True(t, NodeSelection{BlockID: ident.BlockIDFrom("img1")}.Empty())
}

func TestNewGapCursorAndAdjacentIndex(t *testing.T) {
	gc := NewGapCursor(ident.BlockIDFrom("img1"), SideAfter)
	assert.Equal(t, SideAfter, gc.Side)

	idx, ok := AdjacentIndex(doc(), ident.BlockId{}, ident.BlockIDFrom("img1"), SideAfter)
	require.True(t, ok)
	assert.Equal(t, 2, idx)

	idx, ok = AdjacentIndex(doc(), ident.BlockId{}, ident.BlockIDFrom("img1"), SideBefore)
	require.True(t, ok)
	assert.Equal(t, 1, idx)

	_, ok = AdjacentIndex(doc(), ident.BlockId{}, ident.BlockIDFrom("missing"), SideBefore)
	assert.False(t, ok)
}

func TestValid(t *testing.T) {
	d := doc()
	sel, _ := NewTextSelection(d, ident.BlockIDFrom("b1"), 0, 5)
	assert.True(t, Valid(d, sel))

	assert.True(t, Valid(d, NodeSelection{BlockID: ident.BlockIDFrom("img1")}))
	assert.False(t, Valid(d, NodeSelection{BlockID: ident.BlockIDFrom("missing")}))

	assert.True(t, Valid(d, GapCursor{NodeID: ident.BlockIDFrom("img1"), Side: SideAfter}))
	assert.False(t, Valid(d, GapCursor{NodeID: ident.BlockIDFrom("missing"), Side: SideAfter}))
	assert.True(t, Valid(d, GapCursor{}))
}
