// Package transform is the step vocabulary and the pure document-mutation
// functions that apply and invert it. A Step is the smallest recorded
// document edit; a Transaction is an ordered sequence of Steps plus the
// selection/stored-mark changes that ride along with them (see
// Builder). Every Step is invertible using only data available
// at the moment it is applied — none of them need to re-derive history by
// walking the document afterwards.
package transform

import "github.com/Samyssmile/notectl-sub003/model"

// StepResult is the outcome of applying a Step: either a new Document, or
// a failure reason. A failed step never panics and never partially
// mutates anything (Apply works against read-only access to the previous
// document and only returns a brand new Document on success).
type StepResult struct {
	Doc    *model.Document
	Failed string
}

// Ok wraps a successfully produced document.
func Ok(doc *model.Document) StepResult { return StepResult{Doc: doc} }

// Fail wraps a failure reason.
func Fail(reason string) StepResult { return StepResult{Failed: reason} }

// Failed_ reports whether the result represents a failure.
func (r StepResult) Failed_() bool { return r.Failed != "" }

// Step is the closed set of atomic document edits. isStep is unexported
// so no type outside this package can satisfy Step, making the switch in
// Apply/Invert/ToJSON exhaustive in practice even though Go itself
// can't check that at compile time.
type Step interface {
	isStep()
}

func (InsertTextStep) isStep()       {}
func (DeleteTextStep) isStep()       {}
func (SplitBlockStep) isStep()       {}
func (MergeBlocksStep) isStep()      {}
func (SetBlockTypeStep) isStep()     {}
func (AddMarkStep) isStep()          {}
func (RemoveMarkStep) isStep()       {}
func (SetStoredMarksStep) isStep()   {}
func (InsertNodeStep) isStep()       {}
func (RemoveNodeStep) isStep()       {}
func (SetNodeAttrStep) isStep()      {}
func (InsertInlineNodeStep) isStep() {}
func (RemoveInlineNodeStep) isStep() {}
func (SetInlineNodeAttrStep) isStep() {}

// Apply runs step against doc and returns the resulting document, or a
// failure. It never mutates doc or any of its descendants in place.
func Apply(doc *model.Document, step Step) StepResult {
	switch s := step.(type) {
	case InsertTextStep:
		return s.apply(doc)
	case DeleteTextStep:
		return s.apply(doc)
	case SplitBlockStep:
		return s.apply(doc)
	case MergeBlocksStep:
		return s.apply(doc)
	case SetBlockTypeStep:
		return s.apply(doc)
	case AddMarkStep:
		return s.apply(doc)
	case RemoveMarkStep:
		return s.apply(doc)
	case SetStoredMarksStep:
		return s.apply(doc)
	case InsertNodeStep:
		return s.apply(doc)
	case RemoveNodeStep:
		return s.apply(doc)
	case SetNodeAttrStep:
		return s.apply(doc)
	case InsertInlineNodeStep:
		return s.apply(doc)
	case RemoveInlineNodeStep:
		return s.apply(doc)
	case SetInlineNodeAttrStep:
		return s.apply(doc)
	case multiInsert:
		return s.apply(doc)
	case noopStep:
		return s.apply(doc)
	case RemoveNodeAttrStep:
		return s.apply(doc)
	default:
		return Fail("transform: unknown step type")
	}
}

// Invert returns the step that undoes step, given the document it was
// about to be applied to (before, not after). Every case below reads only
// from before, never from the result of applying step — that is what
// "locally invertible" means for this step vocabulary.
func Invert(before *model.Document, step Step) Step {
	switch s := step.(type) {
	case InsertTextStep:
		return s.invert()
	case DeleteTextStep:
		return s.invert(before)
	case SplitBlockStep:
		return s.invert()
	case MergeBlocksStep:
		return s.invert(before)
	case SetBlockTypeStep:
		return s.invert(before)
	case AddMarkStep:
		return s.invert()
	case RemoveMarkStep:
		return s.invert(before)
	case SetStoredMarksStep:
		return s.invert()
	case InsertNodeStep:
		return s.invert()
	case RemoveNodeStep:
		return s.invert(before)
	case SetNodeAttrStep:
		return s.invert(before)
	case InsertInlineNodeStep:
		return s.invert()
	case RemoveInlineNodeStep:
		return s.invert(before)
	case SetInlineNodeAttrStep:
		return s.invert(before)
	case noopStep:
		return noopStep{}
	case RemoveNodeAttrStep:
		return s.invert(before)
	default:
		return nil
	}
}
