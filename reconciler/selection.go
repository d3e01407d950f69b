package reconciler

import (
	"unicode"
	"unicode/utf16"

	"github.com/Samyssmile/notectl-sub003/ident"
	"github.com/Samyssmile/notectl-sub003/model"
	"github.com/Samyssmile/notectl-sub003/selection"
)

// BrowserSelection is the contract a real host implements against
// window.getSelection()/Selection.modify(): granularity-aware caret
// movement this package cannot perform itself without an actual DOM and
// layout engine. alter is "move" or "extend", direction is "forward" or
// "backward", granularity is "character", "word", "line", "lineboundary",
// or "documentboundary".
type BrowserSelection interface {
	Modify(alter, direction, granularity string) error
	Collapse(blockID ident.BlockId, offset int) error
	Extend(blockID ident.BlockId, offset int) error
	GetRange() (selection.Selection, error)
}

// ModelSelection is the headless fallback used whenever no real
// BrowserSelection is wired in (tests, server-side rendering, a host that
// hasn't attached layout yet): it implements every granularity the model
// alone can resolve — "character" by rune-stepping within a block and
// falling through to the adjacent block's edge, "word" by scanning for a
// whitespace boundary, "line"/"lineboundary" as the current block's own
// start/end (this package has no line-wrapping information), and
// "documentboundary" as the first/last leaf block's edge — and returns an
// error for any other granularity. Having no layout, it never crosses a
// line-wrap inside a single block: "line" goes straight to the block's
// own edge. A host falls back to this type when it has no layout
// engine to ask; it degrades gracefully to logical behavior instead of
// failing outright.
type ModelSelection struct {
	Doc *model.Document
	Sel selection.Selection
}

// NewModelSelection builds a ModelSelection over doc, starting at sel.
func NewModelSelection(doc *model.Document, sel selection.Selection) *ModelSelection {
	return &ModelSelection{Doc: doc, Sel: sel}
}

// GetRange implements BrowserSelection.
func (m *ModelSelection) GetRange() (selection.Selection, error) {
	return m.Sel, nil
}

// Collapse implements BrowserSelection: places a collapsed TextSelection
// at offset within blockID.
func (m *ModelSelection) Collapse(blockID ident.BlockId, offset int) error {
	ts, ok := selection.NewTextSelection(m.Doc, blockID, offset, offset)
	if !ok {
		return errBlockNotFound(blockID)
	}
	m.Sel = ts
	return nil
}

// Extend implements BrowserSelection: moves the active (Head) end of the
// current TextSelection to offset within blockID, leaving Anchor in
// place. If the current selection isn't a TextSelection in blockID, it
// starts a fresh one collapsed at offset first.
func (m *ModelSelection) Extend(blockID ident.BlockId, offset int) error {
	cur, ok := m.Sel.(selection.TextSelection)
	if !ok || cur.BlockID != blockID {
		return m.Collapse(blockID, offset)
	}
	ts, ok := selection.NewTextSelection(m.Doc, blockID, cur.Anchor, offset)
	if !ok {
		return errBlockNotFound(blockID)
	}
	m.Sel = ts
	return nil
}

// Modify implements BrowserSelection for the granularities a document
// model can resolve on its own.
func (m *ModelSelection) Modify(alter, direction, granularity string) error {
	forward := direction == "forward"
	switch granularity {
	case "character":
		return m.modifyCharacter(alter, forward)
	case "word":
		return m.modifyWord(alter, forward)
	case "line", "lineboundary":
		return m.modifyLineBoundary(alter, forward)
	case "documentboundary":
		return m.modifyDocumentBoundary(alter, forward)
	default:
		return errUnsupportedGranularity(granularity)
	}
}

func (m *ModelSelection) modifyCharacter(alter string, forward bool) error {
	blockID, offset, ok := m.activeTextPosition()
	if !ok {
		return errNoTextPosition
	}
	b, _ := model.FindNode(m.Doc, blockID)
	length := model.GetBlockLength(b)
	if forward {
		if offset < length {
			return m.place(alter, blockID, offset+1)
		}
	} else if offset > 0 {
		return m.place(alter, blockID, offset-1)
	}
	return m.crossBlockEdge(alter, blockID, forward)
}

func (m *ModelSelection) modifyWord(alter string, forward bool) error {
	blockID, offset, ok := m.activeTextPosition()
	if !ok {
		return errNoTextPosition
	}
	b, _ := model.FindNode(m.Doc, blockID)
	text := []rune(model.GetBlockText(b))
	next := wordBoundary(text, offset, forward)
	if next == offset {
		return m.crossBlockEdge(alter, blockID, forward)
	}
	return m.place(alter, blockID, next)
}

// wordBoundary scans from offset in the given direction to the next
// run-of-non-space/run-of-space transition, stopping at the block's edge
// rather than silently crossing into the next block (only
// modifyCharacter/modifyWord's crossBlockEdge fallback does that).
func wordBoundary(text []rune, offset int, forward bool) int {
	if forward {
		i := offset
		for i < len(text) && unicode.IsSpace(text[i]) {
			i++
		}
		for i < len(text) && !unicode.IsSpace(text[i]) {
			i++
		}
		return i
	}
	i := offset
	for i > 0 && unicode.IsSpace(text[i-1]) {
		i--
	}
	for i > 0 && !unicode.IsSpace(text[i-1]) {
		i--
	}
	return i
}

func (m *ModelSelection) modifyLineBoundary(alter string, forward bool) error {
	blockID, _, ok := m.activeTextPosition()
	if !ok {
		return errNoTextPosition
	}
	b, _ := model.FindNode(m.Doc, blockID)
	if forward {
		return m.place(alter, blockID, model.GetBlockLength(b))
	}
	return m.place(alter, blockID, 0)
}

func (m *ModelSelection) modifyDocumentBoundary(alter string, forward bool) error {
	leaves := orderedLeafBlocks(m.Doc)
	if len(leaves) == 0 {
		return errNoTextPosition
	}
	if forward {
		last := leaves[len(leaves)-1]
		return m.place(alter, last.ID, model.GetBlockLength(last))
	}
	first := leaves[0]
	return m.place(alter, first.ID, 0)
}

// crossBlockEdge moves the active end to the adjacent leaf block's near
// edge when character/word movement runs off the end of the current
// block, the one case this headless fallback does follow across a block
// boundary (a real browser's Selection.modify does the same at a
// paragraph break).
func (m *ModelSelection) crossBlockEdge(alter string, blockID ident.BlockId, forward bool) error {
	leaves := orderedLeafBlocks(m.Doc)
	idx := indexOfBlock(leaves, blockID)
	if idx < 0 {
		return errNoTextPosition
	}
	if forward {
		if idx+1 >= len(leaves) {
			return nil
		}
		return m.place(alter, leaves[idx+1].ID, 0)
	}
	if idx == 0 {
		return nil
	}
	prev := leaves[idx-1]
	return m.place(alter, prev.ID, model.GetBlockLength(prev))
}

func (m *ModelSelection) place(alter string, blockID ident.BlockId, offset int) error {
	if alter == "extend" {
		return m.Extend(blockID, offset)
	}
	return m.Collapse(blockID, offset)
}

// activeTextPosition returns the block/offset the current selection's
// active end names, if it names a text position at all (false for a
// NodeSelection or GapCursor, which word/character/line granularity
// movement does not apply to here — the keymap package already handles
// navigating away from those).
func (m *ModelSelection) activeTextPosition() (ident.BlockId, int, bool) {
	ts, ok := m.Sel.(selection.TextSelection)
	if !ok {
		return ident.BlockId{}, 0, false
	}
	return ts.BlockID, ts.Head, true
}

// orderedLeafBlocks collects every leaf (inline-content) block in the
// document, in document order, built on Document.Walk like every other
// traversal in this engine.
func orderedLeafBlocks(doc *model.Document) []*model.BlockNode {
	var out []*model.BlockNode
	doc.Walk(func(b *model.BlockNode, _ model.Path) bool {
		if b.IsLeaf() {
			out = append(out, b)
		}
		return true
	})
	return out
}

func indexOfBlock(blocks []*model.BlockNode, id ident.BlockId) int {
	for i, b := range blocks {
		if b.ID == id {
			return i
		}
	}
	return -1
}

// RuneOffsetToUTF16 converts a rune offset into s (the engine's native
// offset unit, see model.TextSegment.Length) to the UTF-16 code-unit
// offset a real browser Range/Selection API speaks natively. Using
// stdlib unicode/utf16 here rather than a third-party library: no package
// in the retrieval pack addresses this narrow a concern, and the
// conversion is the one place in the engine this unit mismatch needs to
// be bridged at all (see DESIGN.md, Open Question 2).
func RuneOffsetToUTF16(s string, runeOffset int) int {
	units := 0
	i := 0
	for _, r := range s {
		if i >= runeOffset {
			break
		}
		units += utf16.RuneLen(r)
		i++
	}
	return units
}

// UTF16OffsetToRune converts a UTF-16 code-unit offset (as reported by a
// browser Range) back to the engine's native rune offset into s.
func UTF16OffsetToRune(s string, utf16Offset int) int {
	units := 0
	i := 0
	for _, r := range s {
		if units >= utf16Offset {
			break
		}
		units += utf16.RuneLen(r)
		i++
	}
	return i
}

type selectionError string

func (e selectionError) Error() string { return string(e) }

const errNoTextPosition = selectionError("reconciler: selection has no text position")

func errBlockNotFound(id ident.BlockId) error {
	return selectionError("reconciler: block not found: " + id.String())
}

func errUnsupportedGranularity(g string) error {
	return selectionError("reconciler: unsupported granularity: " + g)
}
