package history

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Samyssmile/notectl-sub003/ident"
	"github.com/Samyssmile/notectl-sub003/model"
	"github.com/Samyssmile/notectl-sub003/schema"
	"github.com/Samyssmile/notectl-sub003/schema/basic"
	"github.com/Samyssmile/notectl-sub003/selection"
	"github.com/Samyssmile/notectl-sub003/state"
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

func insertTr(s state.EditorState, text string, origin transform.Origin, when time.Time) transform.Transaction {
	b := state.NewTransaction(s).Step(transform.InsertTextStep{BlockID: ident.BlockIDFrom("b1"), Offset: len([]rune(model.GetBlockText(s.Doc.Blocks[0]))), Text: text})
	tr := b.Finish()
	tr.Origin = origin
	tr.SelectionBefore = s.Selection
	tr.SelectionAfter = selection.TextSelection{BlockID: ident.BlockIDFrom("b1"), Anchor: 99, Head: 99}
	return tr
}

func TestAdmissionDropsStoredMarksOnlyTransactions(t *testing.T) {
	m := New(10, 500*time.Millisecond)
	s := state.New(paraDoc("hi"), newRegistry())

	tr := state.NewTransaction(s).Step(transform.SetStoredMarksStep{Marks: []model.Mark{{Type: ident.NewMarkTypeName("bold")}}}).Finish()
	tr.Origin = transform.OriginInput

	m.Push(tr, time.Now())
	assert.False(t, m.CanUndo())
}

func TestAdmissionDropsEmptyTransactions(t *testing.T) {
	m := New(10, 500*time.Millisecond)
	s := state.New(paraDoc("hi"), newRegistry())
	tr := state.NewTransaction(s).Finish()
	tr.Origin = transform.OriginInput
	m.Push(tr, time.Now())
	assert.False(t, m.CanUndo())
}

func TestConsecutiveInputWithinTimeoutCoalesces(t *testing.T) {
	m := New(10, 500*time.Millisecond)
	s := state.New(paraDoc("h"), newRegistry())
	t0 := time.Now()

	tr1 := insertTr(s, "i", transform.OriginInput, t0)
	s1 := state.Apply(s, tr1)
	m.Push(tr1, t0)

	tr2 := insertTr(s1, "!", transform.OriginInput, t0.Add(100*time.Millisecond))
	m.Push(tr2, t0.Add(100*time.Millisecond))

	require.Len(t, m.undo, 1)
	assert.Len(t, m.undo[0].forward, 2)
}

func TestInputAfterTimeoutStartsNewGroup(t *testing.T) {
	m := New(10, 500*time.Millisecond)
	s := state.New(paraDoc("h"), newRegistry())
	t0 := time.Now()

	tr1 := insertTr(s, "i", transform.OriginInput, t0)
	m.Push(tr1, t0)

	tr2 := insertTr(state.Apply(s, tr1), "!", transform.OriginInput, t0.Add(time.Second))
	m.Push(tr2, t0.Add(time.Second))

	assert.Len(t, m.undo, 2)
}

func TestNonInputOriginsNeverCoalesce(t *testing.T) {
	m := New(10, 500*time.Millisecond)
	s := state.New(paraDoc("h"), newRegistry())
	t0 := time.Now()

	tr1 := insertTr(s, "i", transform.OriginCommand, t0)
	m.Push(tr1, t0)
	tr2 := insertTr(state.Apply(s, tr1), "!", transform.OriginCommand, t0.Add(time.Millisecond))
	m.Push(tr2, t0.Add(time.Millisecond))

	assert.Len(t, m.undo, 2)
}

func TestPushClearsRedoStack(t *testing.T) {
	m := New(10, 500*time.Millisecond)
	s := state.New(paraDoc("hi"), newRegistry())
	t0 := time.Now()

	tr := insertTr(s, "!", transform.OriginInput, t0)
	m.Push(tr, t0)
	s1 := state.Apply(s, tr)

	undone, ok := m.Undo(s1)
	require.True(t, ok)
	require.True(t, m.CanRedo())

	s2 := state.Apply(s1, undone)
	tr2 := insertTr(s2, "?", transform.OriginInput, t0.Add(time.Second))
	m.Push(tr2, t0.Add(time.Second))

	assert.False(t, m.CanRedo())
}

func TestDepthCapEvictsOldestGroup(t *testing.T) {
	m := New(2, 0)
	s := state.New(paraDoc(""), newRegistry())
	t0 := time.Now()

	for i := 0; i < 3; i++ {
		tr := insertTr(s, "x", transform.OriginCommand, t0.Add(time.Duration(i)*time.Second))
		m.Push(tr, t0.Add(time.Duration(i)*time.Second))
		s = state.Apply(s, tr)
	}

	assert.Len(t, m.undo, 2)
}

func TestUndoRedoRoundTrip(t *testing.T) {
	m := New(10, 500*time.Millisecond)
	s := state.New(paraDoc("hi"), newRegistry())
	t0 := time.Now()

	tr := insertTr(s, "!", transform.OriginInput, t0)
	m.Push(tr, t0)
	s1 := state.Apply(s, tr)
	assert.Equal(t, "hi!", model.GetBlockText(s1.Doc.Blocks[0]))

	undone, ok := m.Undo(s1)
	require.True(t, ok)
	assert.Equal(t, transform.OriginHistory, undone.Origin)
	s2 := state.Apply(s1, undone)
	assert.Equal(t, "hi", model.GetBlockText(s2.Doc.Blocks[0]))

	redone, ok := m.Redo(s2)
	require.True(t, ok)
	s3 := state.Apply(s2, redone)
	assert.Equal(t, "hi!", model.GetBlockText(s3.Doc.Blocks[0]))
}

func TestUndoSelectionBeforeReflectsCurrentViewNotRecordedState(t *testing.T) {
	m := New(10, 500*time.Millisecond)
	s := state.New(paraDoc("hi"), newRegistry())
	t0 := time.Now()

	tr := insertTr(s, "!", transform.OriginInput, t0)
	m.Push(tr, t0)
	s1 := state.Apply(s, tr)

	moved := state.SetSelection(s1, selection.TextSelection{BlockID: ident.BlockIDFrom("b1"), Anchor: 0, Head: 0})

	undone, ok := m.Undo(moved)
	require.True(t, ok)
	sel, ok := undone.SelectionBefore.(selection.TextSelection)
	require.True(t, ok)
	assert.Equal(t, 0, sel.Anchor)
}

func TestUndoRedoOnEmptyHistoryIsNoop(t *testing.T) {
	m := New(10, 500*time.Millisecond)
	s := state.New(paraDoc("hi"), newRegistry())

	_, ok := m.Undo(s)
	assert.False(t, ok)
	_, ok = m.Redo(s)
	assert.False(t, ok)
}
