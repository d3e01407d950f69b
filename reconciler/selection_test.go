package reconciler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Samyssmile/notectl-sub003/ident"
	"github.com/Samyssmile/notectl-sub003/model"
	"github.com/Samyssmile/notectl-sub003/selection"
)

func twoParagraphDoc() *model.Document {
	return &model.Document{Blocks: []*model.BlockNode{
		para("b1", "hello world"),
		para("b2", "second line"),
	}}
}

func TestModelSelectionCharacterForwardWithinBlock(t *testing.T) {
	doc := twoParagraphDoc()
	sel := selection.TextSelection{BlockID: ident.BlockIDFrom("b1"), Anchor: 0, Head: 0}
	m := NewModelSelection(doc, sel)
	require.NoError(t, m.Modify("move", "forward", "character"))
	ts := m.Sel.(selection.TextSelection)
	assert.Equal(t, 1, ts.Head)
	assert.Equal(t, 1, ts.Anchor)
}

func TestModelSelectionCharacterCrossesBlockEdge(t *testing.T) {
	doc := twoParagraphDoc()
	sel := selection.TextSelection{BlockID: ident.BlockIDFrom("b1"), Anchor: 11, Head: 11}
	m := NewModelSelection(doc, sel)
	require.NoError(t, m.Modify("move", "forward", "character"))
	ts := m.Sel.(selection.TextSelection)
	assert.Equal(t, ident.BlockIDFrom("b2"), ts.BlockID)
	assert.Equal(t, 0, ts.Head)
}

func TestModelSelectionWordForwardStopsAtSpace(t *testing.T) {
	doc := twoParagraphDoc()
	sel := selection.TextSelection{BlockID: ident.BlockIDFrom("b1"), Anchor: 0, Head: 0}
	m := NewModelSelection(doc, sel)
	require.NoError(t, m.Modify("move", "forward", "word"))
	ts := m.Sel.(selection.TextSelection)
	assert.Equal(t, 5, ts.Head) // "hello"
}

func TestModelSelectionExtendKeepsAnchor(t *testing.T) {
	doc := twoParagraphDoc()
	sel := selection.TextSelection{BlockID: ident.BlockIDFrom("b1"), Anchor: 0, Head: 0}
	m := NewModelSelection(doc, sel)
	require.NoError(t, m.Modify("extend", "forward", "word"))
	ts := m.Sel.(selection.TextSelection)
	assert.Equal(t, 0, ts.Anchor)
	assert.Equal(t, 5, ts.Head)
}

func TestModelSelectionLineBoundary(t *testing.T) {
	doc := twoParagraphDoc()
	sel := selection.TextSelection{BlockID: ident.BlockIDFrom("b1"), Anchor: 3, Head: 3}
	m := NewModelSelection(doc, sel)
	require.NoError(t, m.Modify("move", "forward", "lineboundary"))
	ts := m.Sel.(selection.TextSelection)
	assert.Equal(t, 11, ts.Head)
}

func TestModelSelectionDocumentBoundary(t *testing.T) {
	doc := twoParagraphDoc()
	sel := selection.TextSelection{BlockID: ident.BlockIDFrom("b1"), Anchor: 3, Head: 3}
	m := NewModelSelection(doc, sel)
	require.NoError(t, m.Modify("move", "forward", "documentboundary"))
	ts := m.Sel.(selection.TextSelection)
	assert.Equal(t, ident.BlockIDFrom("b2"), ts.BlockID)
	assert.Equal(t, 11, ts.Head)
}

func TestModelSelectionUnsupportedGranularity(t *testing.T) {
	doc := twoParagraphDoc()
	sel := selection.TextSelection{BlockID: ident.BlockIDFrom("b1")}
	m := NewModelSelection(doc, sel)
	assert.Error(t, m.Modify("move", "forward", "paragraphboundary"))
}

func TestRuneOffsetUTF16RoundTrip(t *testing.T) {
	s := "a\U0001F600b" // emoji is 2 UTF-16 units, 1 rune
	assert.Equal(t, 0, RuneOffsetToUTF16(s, 0))
	assert.Equal(t, 1, RuneOffsetToUTF16(s, 1))
	assert.Equal(t, 3, RuneOffsetToUTF16(s, 2))
	assert.Equal(t, 4, RuneOffsetToUTF16(s, 3))

	assert.Equal(t, 0, UTF16OffsetToRune(s, 0))
	assert.Equal(t, 1, UTF16OffsetToRune(s, 1))
	assert.Equal(t, 2, UTF16OffsetToRune(s, 3))
	assert.Equal(t, 3, UTF16OffsetToRune(s, 4))
}
