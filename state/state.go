// Package state owns EditorState: the document, the current selection,
// the stored marks that will apply to the next typed character at a
// collapsed cursor, and the schema registry the document is validated
// against. Transaction application lives here, next to EditorState, and
// uses selection.Valid to re-check the selection after a document edit.
package state

import (
	"github.com/Samyssmile/notectl-sub003/model"
	"github.com/Samyssmile/notectl-sub003/schema"
	"github.com/Samyssmile/notectl-sub003/selection"
	"github.com/Samyssmile/notectl-sub003/transform"
)

// EditorState is the full, immutable snapshot an editor renders from and
// commands read. Apply never mutates an existing EditorState; it returns
// a new one.
type EditorState struct {
	Doc         *model.Document
	Selection   selection.Selection
	StoredMarks []model.Mark
	Schema      *schema.Registry
}

// New builds the initial state for a fresh or loaded document: the
// selection starts as a collapsed TextSelection at the very start of the
// first leaf block found, falling back to the zero GapCursor when the
// document has no leaf blocks at all (e.g. a brand new, fully empty
// document with just a void node).
func New(doc *model.Document, reg *schema.Registry) EditorState {
	sel := firstCursorPosition(doc)
	return EditorState{Doc: doc, Selection: sel, Schema: reg}
}

func firstCursorPosition(doc *model.Document) selection.Selection {
	var found selection.Selection
	doc.Walk(func(b *model.BlockNode, _ model.Path) bool {
		if found != nil {
			return false
		}
		if _, isLeaf := b.Content.(model.InlineChildren); isLeaf {
			found = selection.TextSelection{BlockID: b.ID, Anchor: 0, Head: 0}
			return false
		}
		return true
	})
	if found == nil {
		return selection.GapCursor{}
	}
	return found
}

// Apply runs a finished transform.Transaction's steps (already applied to
// tr.Doc by the caller's transform.Builder) against s, producing the next
// EditorState: the document becomes tr.Doc, then tr.SelectionAfter and
// tr.StoredMarksAfter are installed with null-preserving semantics (a
// Transaction that did not set them falls back to the default rule: stored
// marks are folded through the steps, each SetStoredMarksStep installing
// its Marks and every other step clearing them, and the selection
// is re-validated against the new document, collapsing to a safe fallback
// if the edit invalidated it).
func Apply(s EditorState, tr transform.Transaction) EditorState {
	next := EditorState{Doc: tr.Doc, Schema: s.Schema}

	if tr.StoredMarksSet {
		next.StoredMarks = tr.StoredMarksAfter
	} else if len(tr.Steps) > 0 {
		for _, st := range tr.Steps {
			if sm, ok := st.(transform.SetStoredMarksStep); ok {
				next.StoredMarks = sm.Marks
			} else {
				next.StoredMarks = nil
			}
		}
	} else {
		next.StoredMarks = s.StoredMarks
	}

	switch {
	case tr.SelectionAfter != nil && selection.Valid(tr.Doc, tr.SelectionAfter):
		next.Selection = tr.SelectionAfter
	case selection.Valid(tr.Doc, s.Selection):
		next.Selection = s.Selection
	default:
		next.Selection = firstCursorPosition(tr.Doc)
	}
	return next
}

// SetSelection returns a copy of s with its selection replaced, without
// touching the document or stored marks. Invalid selections are rejected
// (the caller gets s back unchanged) rather than silently clamped, since
// an out-of-range selection request usually means a caller bug.
func SetSelection(s EditorState, sel selection.Selection) EditorState {
	if !selection.Valid(s.Doc, sel) {
		return s
	}
	next := s
	next.Selection = sel
	return next
}

// SetStoredMarks returns a copy of s with its stored marks replaced.
func SetStoredMarks(s EditorState, marks []model.Mark) EditorState {
	next := s
	next.StoredMarks = marks
	return next
}

// NewTransaction starts a transform.Builder against s.Doc. Committing the
// result with Apply is the only sanctioned way to advance an
// EditorState.
func NewTransaction(s EditorState) *transform.Builder {
	return transform.NewBuilder(s.Doc)
}
