// Package history is the undo/redo stack. It never touches model.Document
// directly: it records the step/inverse pairs a transform.Transaction
// already computed and, on Undo/Redo, replays them through a fresh
// transform.Builder against whatever document the caller currently has,
// producing a new Transaction for state.Apply to install. A group's
// inverse steps are always replayed against the document that exists
// right now, never recomputed from a stale snapshot.
package history

import (
	"time"

	"github.com/Samyssmile/notectl-sub003/selection"
	"github.com/Samyssmile/notectl-sub003/state"
	"github.com/Samyssmile/notectl-sub003/transform"
)

// group is a summary transaction: the union of steps from one undo group,
// plus that group's selectionBefore/selectionAfter bookends.
type group struct {
	forward         []transform.Step
	inverse         []transform.Step
	origin          transform.Origin
	selectionBefore selection.Selection
	selectionAfter  selection.Selection
	tail            time.Time
}

// Manager is a two-stack undo/redo history with time-window grouping,
// redo invalidation on new admissions, and a depth cap.
type Manager struct {
	maxDepth     int
	groupTimeout time.Duration
	undo         []group
	redo         []group
}

// New returns an empty Manager. maxDepth <= 0 means unbounded.
func New(maxDepth int, groupTimeout time.Duration) *Manager {
	return &Manager{maxDepth: maxDepth, groupTimeout: groupTimeout}
}

// CanUndo reports whether Undo would do anything.
func (m *Manager) CanUndo() bool { return len(m.undo) > 0 }

// CanRedo reports whether Redo would do anything.
func (m *Manager) CanRedo() bool { return len(m.redo) > 0 }

// admits reports whether tr has at least one document-modifying step.
// setStoredMarks is the one step type that never counts, so a pure
// stored-marks toggle (or a selection-only, step-less transaction) never
// pollutes undo.
func admits(tr transform.Transaction) bool {
	for _, s := range tr.Steps {
		if _, onlyMarks := s.(transform.SetStoredMarksStep); !onlyMarks {
			return true
		}
	}
	return false
}

// Push records tr as a new undo entry, or extends the current top group
// if tr qualifies to coalesce with it. now is the caller's clock reading
// for this push, used for the group-timeout window; it is threaded in
// rather than read internally so the decision is deterministic and
// testable. Any admitted push clears the redo stack.
func (m *Manager) Push(tr transform.Transaction, now time.Time) {
	if !admits(tr) {
		return
	}
	m.redo = nil

	if m.extends(tr, now) {
		top := &m.undo[len(m.undo)-1]
		top.forward = append(top.forward, tr.Steps...)
		top.inverse = append(tr.InvertSteps(), top.inverse...)
		top.selectionAfter = tr.SelectionAfter
		top.tail = now
	} else {
		m.undo = append(m.undo, group{
			forward:         append([]transform.Step(nil), tr.Steps...),
			inverse:         tr.InvertSteps(),
			origin:          tr.Origin,
			selectionBefore: tr.SelectionBefore,
			selectionAfter:  tr.SelectionAfter,
			tail:            now,
		})
	}

	if m.maxDepth > 0 && len(m.undo) > m.maxDepth {
		m.undo = m.undo[len(m.undo)-m.maxDepth:]
	}
}

// extends reports whether tr should coalesce into the current top undo
// group rather than starting a new one: both must be origin "input", and
// tr must arrive within groupTimeout of the top group's last push.
func (m *Manager) extends(tr transform.Transaction, now time.Time) bool {
	if len(m.undo) == 0 {
		return false
	}
	top := m.undo[len(m.undo)-1]
	if tr.Origin != transform.OriginInput || top.origin != transform.OriginInput {
		return false
	}
	return now.Sub(top.tail) <= m.groupTimeout
}

// Undo pops the top undo group, inverts its steps, and replays them
// against current.Doc, returning a Transaction whose selectionBefore is
// whatever the caller's view currently shows (not what was recorded at
// push time) and whose selectionAfter is the group's own recorded
// selectionBefore. The popped group moves onto the redo stack unchanged.
// ok is false if there is nothing to undo.
func (m *Manager) Undo(current state.EditorState) (tr transform.Transaction, ok bool) {
	if len(m.undo) == 0 {
		return transform.Transaction{}, false
	}
	g := m.undo[len(m.undo)-1]
	m.undo = m.undo[:len(m.undo)-1]

	b := transform.NewBuilder(current.Doc)
	for _, s := range g.inverse {
		b.Step(s)
	}
	tr = b.Finish()
	tr.Origin = transform.OriginHistory
	tr.SelectionBefore = current.Selection
	tr.SelectionAfter = g.selectionBefore

	m.redo = append(m.redo, g)
	return tr, true
}

// Redo is the mirror of Undo: it pops the top redo group, replays its
// original forward steps against current.Doc, and returns a Transaction
// whose selectionAfter is the group's recorded selectionAfter. The group
// moves back onto the undo stack.
func (m *Manager) Redo(current state.EditorState) (tr transform.Transaction, ok bool) {
	if len(m.redo) == 0 {
		return transform.Transaction{}, false
	}
	g := m.redo[len(m.redo)-1]
	m.redo = m.redo[:len(m.redo)-1]

	b := transform.NewBuilder(current.Doc)
	for _, s := range g.forward {
		b.Step(s)
	}
	tr = b.Finish()
	tr.Origin = transform.OriginHistory
	tr.SelectionBefore = current.Selection
	tr.SelectionAfter = g.selectionAfter

	m.undo = append(m.undo, g)
	return tr, true
}
