package transform

import (
	"github.com/Samyssmile/notectl-sub003/ident"
	"github.com/Samyssmile/notectl-sub003/model"
)

// InsertTextStep inserts text, carrying marks, at offset within the leaf
// block identified by BlockID.
type InsertTextStep struct {
	BlockID ident.BlockId
	Offset  int
	Text    string
	Marks   []model.Mark
}

func (s InsertTextStep) apply(doc *model.Document) StepResult {
	out, ok := model.ReplaceBlock(doc, s.BlockID, func(b *model.BlockNode) *model.BlockNode {
		ic, isLeaf := b.Content.(model.InlineChildren)
		if !isLeaf {
			return b
		}
		items := splitInlineAt(ic.Items, s.Offset)
		mid := []model.InlineItem{model.TextSegment{Text: s.Text, Marks: s.Marks}}
		merged := append(append(items.before, mid...), items.after...)
		clone := *b
		clone.Content = model.InlineChildren{Items: model.NormalizeInline(merged)}
		return &clone
	})
	if !ok {
		return Fail("transform: insertText: block not found")
	}
	return Ok(out)
}

func (s InsertTextStep) invert() Step {
	return DeleteTextStep{BlockID: s.BlockID, From: s.Offset, To: s.Offset + runeLen(s.Text)}
}

// DeleteTextStep removes the [From, To) rune range from the leaf block
// identified by BlockID.
type DeleteTextStep struct {
	BlockID  ident.BlockId
	From, To int
}

func (s DeleteTextStep) apply(doc *model.Document) StepResult {
	out, ok := model.ReplaceBlock(doc, s.BlockID, func(b *model.BlockNode) *model.BlockNode {
		ic, isLeaf := b.Content.(model.InlineChildren)
		if !isLeaf {
			return b
		}
		before := splitInlineAt(ic.Items, s.From)
		after := splitInlineAt(ic.Items, s.To)
		merged := append(append([]model.InlineItem{}, before.before...), after.after...)
		clone := *b
		clone.Content = model.InlineChildren{Items: model.NormalizeInline(merged)}
		return &clone
	})
	if !ok {
		return Fail("transform: deleteText: block not found")
	}
	return Ok(out)
}

func (s DeleteTextStep) invert(before *model.Document) Step {
	b, ok := model.FindNode(before, s.BlockID)
	if !ok {
		return nil
	}
	runs := model.GetBlockSegmentsInRange(b, s.From, s.To)
	if len(runs) == 1 {
		return InsertTextStep{BlockID: s.BlockID, Offset: s.From, Text: runs[0].Segment.Text, Marks: runs[0].Segment.Marks}
	}
	// A deleted range spanning more than one mark run can't be represented
	// by a single InsertTextStep without losing the per-run marks, so the
	// inverse is expressed as one insert per run, applied left to right,
	// each at the run's offset in the restored block.
	return multiInsert{blockID: s.BlockID, from: s.From, runs: runs}
}

// multiInsert is an internal, non-serialized inverse step used only when
// DeleteTextStep.invert needs to restore more than one mark run. Apply
// runs it as its underlying InsertTextSteps in one go; ExpandInverse
// returns those InsertTextSteps separately.
type multiInsert struct {
	blockID ident.BlockId
	from    int
	runs    []model.TextRun
}

func (multiInsert) isStep() {}

func (s multiInsert) apply(doc *model.Document) StepResult {
	cur := doc
	for _, run := range s.runs {
		res := Apply(cur, InsertTextStep{BlockID: s.blockID, Offset: s.from + run.From - s.runs[0].From, Text: run.Segment.Text, Marks: run.Segment.Marks})
		if res.Failed != "" {
			return res
		}
		cur = res.Doc
	}
	return Ok(cur)
}

// ExpandInverse flattens a multiInsert (produced only by
// DeleteTextStep.invert for multi-run deletions) into its component
// InsertTextSteps, in application order. Every other Step expands to
// itself.
func ExpandInverse(step Step) []Step {
	if m, ok := step.(multiInsert); ok {
		out := make([]Step, 0, len(m.runs))
		for _, run := range m.runs {
			out = append(out, InsertTextStep{BlockID: m.blockID, Offset: m.from + run.From - m.runs[0].From, Text: run.Segment.Text, Marks: run.Segment.Marks})
		}
		return out
	}
	return []Step{step}
}

type splitResult struct {
	before, after []model.InlineItem
}

// splitInlineAt splits items at the given rune offset, cutting a
// TextSegment in two when offset falls inside one.
func splitInlineAt(items []model.InlineItem, offset int) splitResult {
	pos := 0
	for i, it := range items {
		length := itemLength(it)
		if pos+length <= offset {
			pos += length
			continue
		}
		if ts, isText := it.(model.TextSegment); isText {
			local := offset - pos
			runes := []rune(ts.Text)
			if local < 0 {
				local = 0
			}
			if local > len(runes) {
				local = len(runes)
			}
			before := append(append([]model.InlineItem{}, items[:i]...), model.TextSegment{Text: string(runes[:local]), Marks: ts.Marks})
			after := append([]model.InlineItem{model.TextSegment{Text: string(runes[local:]), Marks: ts.Marks}}, items[i+1:]...)
			return splitResult{before: before, after: after}
		}
		// offset lands inside an inline node's unit length; split before it.
		return splitResult{before: append([]model.InlineItem{}, items[:i]...), after: append([]model.InlineItem{}, items[i:]...)}
	}
	return splitResult{before: append([]model.InlineItem{}, items...), after: nil}
}

func itemLength(it model.InlineItem) int {
	switch v := it.(type) {
	case model.TextSegment:
		return v.Length()
	case model.InlineNode:
		return v.Length()
	default:
		return 0
	}
}

func runeLen(s string) int { return len([]rune(s)) }
