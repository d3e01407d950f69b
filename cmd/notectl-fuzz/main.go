// Command notectl-fuzz is a developer tool, not part of the engine's
// public surface: it generates random transaction sequences against a
// seed document and asserts invariants 1-4 and the transaction
// invertibility law hold after every single step, the same properties
// model/transform/state's own deterministic tests check for specific
// handcrafted cases. It exists to catch a combination of steps the
// handwritten scenarios never happened to try.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"math/rand"
	"os"

	"github.com/Samyssmile/notectl-sub003/ident"
	"github.com/Samyssmile/notectl-sub003/model"
	"github.com/Samyssmile/notectl-sub003/schema"
	"github.com/Samyssmile/notectl-sub003/schema/basic"
	"github.com/Samyssmile/notectl-sub003/transform"
)

func main() {
	iterations := flag.Int("n", 2000, "number of random steps to apply")
	seed := flag.Int64("seed", 1, "PRNG seed, for reproducing a failure")
	flag.Parse()

	reg := schema.NewRegistry()
	basic.Register(reg)
	reg.Freeze()

	rng := rand.New(rand.NewSource(*seed))
	doc := seedDocument()

	for i := 0; i < *iterations; i++ {
		step, desc := randomStep(rng, reg, doc)
		if step == nil {
			continue
		}

		before := doc
		result := transform.Apply(before, step)
		if result.Failed != "" {
			// A rejected step (missing block, wrong content shape) is not
			// a bug: Apply refuses such edits.
			continue
		}
		after := result.Doc

		if err := checkInvariants(reg, after); err != nil {
			fail(i, desc, err)
		}

		inv := transform.Invert(before, step)
		back := transform.Apply(after, inv)
		if back.Failed != "" {
			fail(i, desc, fmt.Errorf("invert step failed to apply: %s", back.Failed))
		}
		if !documentsEqual(before, back.Doc) {
			fail(i, desc, fmt.Errorf("apply(invert(step)) did not reproduce the prior document"))
		}

		doc = after
	}

	fmt.Printf("notectl-fuzz: %d iterations ok (seed=%d, final doc has %d top-level blocks)\n",
		*iterations, *seed, len(doc.Blocks))
}

func fail(i int, desc string, err error) {
	fmt.Fprintf(os.Stderr, "notectl-fuzz: iteration %d (%s): %v\n", i, desc, err)
	os.Exit(1)
}

// seedDocument gives the random walk a mix of leaf block types to work
// against: two paragraphs, a heading, and a two-item bullet list.
func seedDocument() *model.Document {
	gen := ident.NewSequentialGenerator("f")
	para := func(text string) *model.BlockNode {
		return &model.BlockNode{
			ID:      gen.NextBlockID(),
			Type:    ident.NewNodeTypeName("paragraph"),
			Content: model.InlineChildren{Items: []model.InlineItem{model.TextSegment{Text: text}}},
		}
	}
	heading := &model.BlockNode{
		ID:      gen.NextBlockID(),
		Type:    ident.NewNodeTypeName("heading"),
		Attrs:   map[string]any{"level": 2},
		Content: model.InlineChildren{Items: []model.InlineItem{model.TextSegment{Text: "Title"}}},
	}
	listItem := func(text string, indent int) *model.BlockNode {
		return &model.BlockNode{
			ID:      gen.NextBlockID(),
			Type:    ident.NewNodeTypeName("list_item"),
			Attrs:   map[string]any{"indent": indent, "listType": "bullet"},
			Content: model.InlineChildren{Items: []model.InlineItem{model.TextSegment{Text: text}}},
		}
	}
	return &model.Document{Blocks: []*model.BlockNode{
		para("hello world"),
		heading,
		listItem("first", 0),
		listItem("second", 0),
		para("trailing text"),
	}}
}

// randomStep builds one syntactically plausible Step against a randomly
// chosen leaf block of doc. It skips mark types the schema does not allow
// on that block and range steps on an empty block itself; Apply clamps
// out-of-range offsets and does not check marks against the schema. The
// caller still treats a Failed result as "skip, try another iteration"
// rather than an invariant violation.
func randomStep(rng *rand.Rand, reg *schema.Registry, doc *model.Document) (transform.Step, string) {
	leaves := leafBlocks(doc)
	if len(leaves) == 0 {
		return nil, ""
	}
	b := leaves[rng.Intn(len(leaves))]
	length := model.GetBlockLength(b)

	switch rng.Intn(6) {
	case 0:
		offset := rng.Intn(length + 1)
		return transform.InsertTextStep{BlockID: b.ID, Offset: offset, Text: randomWord(rng)},
			fmt.Sprintf("insertText(%s,%d)", b.ID.String(), offset)
	case 1:
		if length == 0 {
			return nil, ""
		}
		from := rng.Intn(length)
		to := from + rng.Intn(length-from) + 1
		return transform.DeleteTextStep{BlockID: b.ID, From: from, To: to},
			fmt.Sprintf("deleteText(%s,%d,%d)", b.ID.String(), from, to)
	case 2:
		if length == 0 {
			return nil, ""
		}
		from := rng.Intn(length)
		to := from + rng.Intn(length-from) + 1
		mark := model.Mark{Type: ident.NewMarkTypeName(randomMarkType(rng))}
		if !reg.AllowsMarkOn(b.Type, mark.Type) {
			return nil, ""
		}
		return transform.AddMarkStep{BlockID: b.ID, From: from, To: to, Mark: mark},
			fmt.Sprintf("addMark(%s,%d,%d)", b.ID.String(), from, to)
	case 3:
		if length == 0 {
			return nil, ""
		}
		from := rng.Intn(length)
		to := from + rng.Intn(length-from) + 1
		return transform.RemoveMarkStep{BlockID: b.ID, From: from, To: to, MarkType: ident.NewMarkTypeName(randomMarkType(rng))},
			fmt.Sprintf("removeMark(%s,%d,%d)", b.ID.String(), from, to)
	case 4:
		if length == 0 {
			return nil, ""
		}
		offset := rng.Intn(length + 1)
		return transform.SplitBlockStep{BlockID: b.ID, Offset: offset, NewID: ident.NewBlockID(), NewType: b.Type, NewAttrs: b.Attrs},
			fmt.Sprintf("splitBlock(%s,%d)", b.ID.String(), offset)
	default:
		return transform.SetNodeAttrStep{BlockID: b.ID, Key: "data-fuzz", Value: rng.Intn(100)},
			fmt.Sprintf("setNodeAttr(%s)", b.ID.String())
	}
}

func leafBlocks(doc *model.Document) []*model.BlockNode {
	var out []*model.BlockNode
	doc.Walk(func(b *model.BlockNode, _ model.Path) bool {
		if b.IsLeaf() {
			out = append(out, b)
		}
		return true
	})
	return out
}

var words = []string{"a", "quick", "brown", "fox", " ", "jumps", "x", "", "héllo", "F600"}

func randomWord(rng *rand.Rand) string {
	return words[rng.Intn(len(words))]
}

var markTypes = []string{"bold", "italic", "underline", "link", "textColor"}

func randomMarkType(rng *rand.Rand) string {
	return markTypes[rng.Intn(len(markTypes))]
}

// checkInvariants asserts the document invariants against doc: id
// uniqueness, homogeneous children, and no degenerate text. Selection
// validity is not checked here, since this tool never touches a
// selection; state's own tests exercise it instead.
func checkInvariants(reg *schema.Registry, doc *model.Document) error {
	seen := map[string]bool{}
	var err error
	doc.Walk(func(b *model.BlockNode, _ model.Path) bool {
		if err != nil {
			return false
		}
		id := b.ID.String()
		if seen[id] {
			err = fmt.Errorf("duplicate block id %s", id)
			return false
		}
		seen[id] = true

		// Invariant 2 (homogeneous children) is enforced statically by
		// model.Content's closed sum type: BlockChildren and
		// InlineChildren can never mix within one node, so there is
		// nothing left to check for it at runtime here.
		if content, ok := b.Content.(model.InlineChildren); ok {
			err = checkNoDegenerateText(b.ID.String(), content.Items)
		}
		return true
	})
	return err
}

// checkNoDegenerateText enforces invariant 3 (adjacent same-mark-set text
// runs must be coalesced) and invariant 4 (empty text segments are
// illegal except as the sole item of an otherwise-empty leaf block).
func checkNoDegenerateText(blockID string, items []model.InlineItem) error {
	if len(items) == 1 {
		if ts, ok := items[0].(model.TextSegment); ok && ts.Text == "" {
			return nil
		}
	}
	var prev *model.TextSegment
	for _, it := range items {
		ts, ok := it.(model.TextSegment)
		if !ok {
			prev = nil
			continue
		}
		if ts.Text == "" {
			return fmt.Errorf("block %s: empty text segment amid non-empty content", blockID)
		}
		if prev != nil && sameMarkSet(prev.Marks, ts.Marks) {
			return fmt.Errorf("block %s: adjacent text segments with identical marks were not coalesced", blockID)
		}
		segCopy := ts
		prev = &segCopy
	}
	return nil
}

func sameMarkSet(a, b []model.Mark) bool {
	if len(a) != len(b) {
		return false
	}
	for _, m := range a {
		found := false
		for _, n := range b {
			if m.Eq(n) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func documentsEqual(a, b *model.Document) bool {
	aj, err := a.ToJSON()
	if err != nil {
		return false
	}
	bj, err := b.ToJSON()
	if err != nil {
		return false
	}
	return bytes.Equal(aj, bj)
}
