package transform

import (
	"github.com/Samyssmile/notectl-sub003/model"
	"github.com/Samyssmile/notectl-sub003/selection"
)

// Origin names who asked for a transaction, so the history manager knows
// which transactions may coalesce into one undo group and the editor
// knows which events to publish.
type Origin string

const (
	OriginInput   Origin = "input"
	OriginPaste   Origin = "paste"
	OriginCommand Origin = "command"
	OriginHistory Origin = "history"
	OriginAPI     Origin = "api"
)

// Transaction is a Builder's finished output: the ordered steps that were
// actually applied, their computed inverses (in the same order, so
// undoing replays them back to front), and the resulting document.
//
// SelectionBefore/SelectionAfter are optional (nil-preserving): a nil
// SelectionAfter means "let state.Apply derive the selection the usual
// way" rather than "clear the selection". StoredMarksAfter takes effect
// only when StoredMarksSet is true (a nil StoredMarksAfter then clears
// stored marks); with StoredMarksSet false, state.Apply derives the stored
// marks from the steps. Builder.Finish leaves all three nil and
// StoredMarksSet false; a caller that wants bespoke bookends (chiefly the
// history package, replaying a group's recorded selectionBefore/
// selectionAfter) sets them on the returned Transaction before handing it
// to state.Apply.
type Transaction struct {
	Before  *model.Document
	Doc     *model.Document
	Steps   []Step
	Inverse []Step

	Origin          Origin
	SelectionBefore selection.Selection
	SelectionAfter  selection.Selection
	StoredMarksAfter []model.Mark
	StoredMarksSet   bool
}

// Builder accumulates steps against a fixed starting document, applying
// each one as it is added so later steps in the same transaction see
// earlier ones' effect: it folds doc forward one step at a time rather
// than batching.
type Builder struct {
	before  *model.Document
	doc     *model.Document
	steps   []Step
	inverse []Step
	failed  string
}

// NewBuilder starts a transaction against doc.
func NewBuilder(doc *model.Document) *Builder {
	return &Builder{before: doc, doc: doc}
}

// Step applies one step, recording it and its inverse. If a previous step
// in this builder already failed, or this one does, the builder
// remembers the failure and ignores every subsequent call (Reason reports
// it); Doc keeps returning the last successful document.
func (b *Builder) Step(step Step) *Builder {
	if b.failed != "" {
		return b
	}
	result := Apply(b.doc, step)
	if result.Failed != "" {
		b.failed = result.Failed
		return b
	}
	b.inverse = append(b.inverse, Invert(b.doc, step))
	b.steps = append(b.steps, step)
	b.doc = result.Doc
	return b
}

// Ok reports whether every step applied so far has succeeded.
func (b *Builder) Ok() bool { return b.failed == "" }

// Reason returns the first failure's reason, or "" if none occurred.
func (b *Builder) Reason() string { return b.failed }

// Doc returns the document as of the last successfully applied step (the
// original document if none have succeeded yet).
func (b *Builder) Doc() *model.Document { return b.doc }

// Finish produces the Transaction. Finish on a builder with no
// successful steps yields a Transaction whose Doc equals Before and whose
// Steps/Inverse are both empty — a legal no-op transaction, used by
// commands that sometimes decide there is nothing to do.
func (b *Builder) Finish() Transaction {
	return Transaction{Before: b.before, Doc: b.doc, Steps: b.steps, Inverse: b.inverse}
}

// InvertSteps reverses a whole Transaction into a new Builder-ready step
// sequence: replaying Inverse back-to-front against Doc reproduces
// Before. This is the primitive the history package's undo uses.
func (t Transaction) InvertSteps() []Step {
	out := make([]Step, len(t.Inverse))
	for i, s := range t.Inverse {
		out[len(t.Inverse)-1-i] = s
	}
	return out
}
