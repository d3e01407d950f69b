package transform

import (
	"github.com/Samyssmile/notectl-sub003/ident"
	"github.com/Samyssmile/notectl-sub003/model"
)

// AddMarkStep adds Mark to every inline item overlapping [From, To) within
// the leaf block identified by BlockID.
type AddMarkStep struct {
	BlockID  ident.BlockId
	From, To int
	Mark     model.Mark
}

func (s AddMarkStep) apply(doc *model.Document) StepResult {
	out, ok := model.ReplaceBlock(doc, s.BlockID, func(b *model.BlockNode) *model.BlockNode {
		ic, isLeaf := b.Content.(model.InlineChildren)
		if !isLeaf {
			return b
		}
		clone := *b
		clone.Content = model.InlineChildren{Items: mapMarksInRange(ic.Items, s.From, s.To, func(marks []model.Mark) []model.Mark {
			return addMark(marks, s.Mark)
		})}
		return &clone
	})
	if !ok {
		return Fail("transform: addMark: block not found")
	}
	return Ok(out)
}

func (s AddMarkStep) invert() Step {
	return RemoveMarkStep{BlockID: s.BlockID, From: s.From, To: s.To, MarkType: s.Mark.Type}
}

// RemoveMarkStep removes every mark of MarkType from inline items
// overlapping [From, To) within the leaf block identified by BlockID.
type RemoveMarkStep struct {
	BlockID  ident.BlockId
	From, To int
	MarkType ident.MarkTypeName
}

func (s RemoveMarkStep) apply(doc *model.Document) StepResult {
	out, ok := model.ReplaceBlock(doc, s.BlockID, func(b *model.BlockNode) *model.BlockNode {
		ic, isLeaf := b.Content.(model.InlineChildren)
		if !isLeaf {
			return b
		}
		clone := *b
		clone.Content = model.InlineChildren{Items: mapMarksInRange(ic.Items, s.From, s.To, func(marks []model.Mark) []model.Mark {
			return removeMark(marks, s.MarkType)
		})}
		return &clone
	})
	if !ok {
		return Fail("transform: removeMark: block not found")
	}
	return Ok(out)
}

// invert needs before to recover exactly which runs in [From, To) actually
// carried MarkType (re-adding it everywhere would wrongly mark runs that
// never had it).
func (s RemoveMarkStep) invert(before *model.Document) Step {
	b, ok := model.FindNode(before, s.BlockID)
	if !ok {
		return AddMarkStep{BlockID: s.BlockID, From: s.From, To: s.To, Mark: model.Mark{Type: s.MarkType}}
	}
	runs := model.GetBlockSegmentsInRange(b, s.From, s.To)
	for _, run := range runs {
		for _, m := range run.Segment.Marks {
			if m.Type == s.MarkType {
				return AddMarkStep{BlockID: s.BlockID, From: run.From, To: run.To, Mark: m}
			}
		}
	}
	return noopStep{}
}

// SetStoredMarksStep replaces the document-level stored mark set (the
// marks that will be applied to the next inserted text at a collapsed
// cursor, per spec invariant on storedMarks). It does not mutate the
// document tree at all; state.EditorState.StoredMarks is what actually
// changes (state.Apply installs Marks there), with this step existing purely so the history package can
// undo/redo that change symmetrically with every other edit.
type SetStoredMarksStep struct {
	Marks []model.Mark
	// Previous holds the stored marks set immediately before this step, so
	// invert does not need to consult the owning EditorState.
	Previous []model.Mark
}

func (s SetStoredMarksStep) apply(doc *model.Document) StepResult {
	return Ok(doc)
}

func (s SetStoredMarksStep) invert() Step {
	return SetStoredMarksStep{Marks: s.Previous, Previous: s.Marks}
}

// noopStep is the inverse of a RemoveMarkStep whose range never actually
// carried the removed mark type (so there is nothing to restore).
type noopStep struct{}

func (noopStep) isStep()                        {}
func (noopStep) apply(doc *model.Document) StepResult { return Ok(doc) }

func addMark(marks []model.Mark, m model.Mark) []model.Mark {
	out := removeMark(marks, m.Type)
	return append(out, m)
}

func removeMark(marks []model.Mark, t ident.MarkTypeName) []model.Mark {
	out := make([]model.Mark, 0, len(marks))
	for _, m := range marks {
		if m.Type != t {
			out = append(out, m)
		}
	}
	return out
}

// mapMarksInRange rewrites the mark set of every TextSegment run
// overlapping [from, to), splitting runs at the range boundary so marks
// outside the range are untouched, then re-normalizes so adjacent runs
// with identical resulting mark sets are recoalesced.
func mapMarksInRange(items []model.InlineItem, from, to int, f func([]model.Mark) []model.Mark) []model.InlineItem {
	var out []model.InlineItem
	pos := 0
	for _, it := range items {
		length := itemLength(it)
		itemFrom, itemTo := pos, pos+length
		pos = itemTo
		ts, isText := it.(model.TextSegment)
		if !isText || itemTo <= from || itemFrom >= to {
			out = append(out, it)
			continue
		}
		runes := []rune(ts.Text)
		segStart := max(0, from-itemFrom)
		segEnd := min(len(runes), to-itemFrom)
		if segStart > 0 {
			out = append(out, model.TextSegment{Text: string(runes[:segStart]), Marks: ts.Marks})
		}
		out = append(out, model.TextSegment{Text: string(runes[segStart:segEnd]), Marks: f(ts.Marks)})
		if segEnd < len(runes) {
			out = append(out, model.TextSegment{Text: string(runes[segEnd:]), Marks: ts.Marks})
		}
	}
	return model.NormalizeInline(out)
}
