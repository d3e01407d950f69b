package htmlparser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Samyssmile/notectl-sub003/ident"
	"github.com/Samyssmile/notectl-sub003/model"
	"github.com/Samyssmile/notectl-sub003/schema"
	"github.com/Samyssmile/notectl-sub003/schema/basic"
)

func newTestRegistry() *schema.Registry {
	r := schema.NewRegistry()
	basic.Register(r)
	r.Freeze()
	return r
}

func newTestParser() *Parser {
	return &Parser{Registry: newTestRegistry(), Gen: ident.NewSequentialGenerator("b")}
}

func textOf(items []model.InlineItem) string {
	var out string
	for _, it := range items {
		if seg, ok := it.(model.TextSegment); ok {
			out += seg.Text
		}
	}
	return out
}

func TestParsePlainParagraph(t *testing.T) {
	blocks, err := newTestParser().Parse("<p>hello world</p>")
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, "paragraph", blocks[0].Type.String())
	items := blocks[0].Content.(model.InlineChildren).Items
	assert.Equal(t, "hello world", textOf(items))
}

func TestParseEmptyInputYieldsOneEmptyParagraph(t *testing.T) {
	blocks, err := newTestParser().Parse("")
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, "paragraph", blocks[0].Type.String())
}

func TestParseBoldTagContributesMark(t *testing.T) {
	blocks, err := newTestParser().Parse("<p><strong>hi</strong></p>")
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	items := blocks[0].Content.(model.InlineChildren).Items
	require.Len(t, items, 1)
	seg := items[0].(model.TextSegment)
	assert.Equal(t, "hi", seg.Text)
	require.Len(t, seg.Marks, 1)
	assert.Equal(t, "bold", seg.Marks[0].Type.String())
}

func TestParseLinkCapturesHref(t *testing.T) {
	blocks, err := newTestParser().Parse(`<p><a href="https://example.com" title="ex">go</a></p>`)
	require.NoError(t, err)
	items := blocks[0].Content.(model.InlineChildren).Items
	seg := items[0].(model.TextSegment)
	require.Len(t, seg.Marks, 1)
	assert.Equal(t, "link", seg.Marks[0].Type.String())
	assert.Equal(t, "https://example.com", seg.Marks[0].Attrs["href"])
	assert.Equal(t, "ex", seg.Marks[0].Attrs["title"])
}

func TestParseBrInsertsNewlineSegment(t *testing.T) {
	blocks, err := newTestParser().Parse("<p>a<br>b</p>")
	require.NoError(t, err)
	items := blocks[0].Content.(model.InlineChildren).Items
	assert.Equal(t, "a\nb", textOf(items))
}

func TestParseHeadingLevel(t *testing.T) {
	blocks, err := newTestParser().Parse("<h2>Title</h2>")
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, "heading", blocks[0].Type.String())
	assert.Equal(t, 2, blocks[0].Attrs["level"])
}

func TestParseUnorderedList(t *testing.T) {
	blocks, err := newTestParser().Parse("<ul><li>one</li><li>two</li></ul>")
	require.NoError(t, err)
	require.Len(t, blocks, 2)
	assert.Equal(t, "list_item", blocks[0].Type.String())
	assert.Equal(t, 0, blocks[0].Attrs["indent"])
	assert.Equal(t, "bullet", blocks[0].Attrs["listType"])
}

func TestParseNestedListFlattensWithIndent(t *testing.T) {
	blocks, err := newTestParser().Parse("<ul><li>parent<ul><li>child</li></ul></li><li>sibling</li></ul>")
	require.NoError(t, err)
	require.Len(t, blocks, 3)
	assert.Equal(t, 0, blocks[0].Attrs["indent"])
	assert.Equal(t, 1, blocks[1].Attrs["indent"])
	assert.Equal(t, 0, blocks[2].Attrs["indent"])
}

func TestParseChecklistUpgradesListItem(t *testing.T) {
	blocks, err := newTestParser().Parse(`<ul><li><input type="checkbox" checked>done</li></ul>`)
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, "checklist_item", blocks[0].Type.String())
	assert.Equal(t, "true", blocks[0].Attrs["checked"])
}

func TestParseTable(t *testing.T) {
	blocks, err := newTestParser().Parse("<table><tr><td>a</td><td>b</td></tr></table>")
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, "table", blocks[0].Type.String())
	rows := blocks[0].Content.(model.BlockChildren).Blocks
	require.Len(t, rows, 1)
	cells := rows[0].Content.(model.BlockChildren).Blocks
	require.Len(t, cells, 2)
	assert.Equal(t, "table_cell", cells[0].Type.String())
}

func TestParseCodeBlockIgnoresNestedMarkup(t *testing.T) {
	blocks, err := newTestParser().Parse("<pre><code>x := <strong>1</strong></code></pre>")
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, "code_block", blocks[0].Type.String())
	items := blocks[0].Content.(model.InlineChildren).Items
	assert.Equal(t, "x := 1", textOf(items))
}

func TestParseBlockquoteRecursesBlocks(t *testing.T) {
	blocks, err := newTestParser().Parse("<blockquote><p>quoted</p></blockquote>")
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, "blockquote", blocks[0].Type.String())
	inner := blocks[0].Content.(model.BlockChildren).Blocks
	require.Len(t, inner, 1)
	assert.Equal(t, "paragraph", inner[0].Type.String())
}

func TestParseUnknownBlockFallsBackToParagraph(t *testing.T) {
	blocks, err := newTestParser().Parse("<section>plain text</section>")
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, "paragraph", blocks[0].Type.String())
}

func TestParseStripsStyleAndClassAttrs(t *testing.T) {
	blocks, err := newTestParser().Parse(`<p class="foo" style="color: red">hi</p>`)
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Nil(t, blocks[0].Attrs)
}

func TestParseWordSourceConvertsListParagraphs(t *testing.T) {
	html := `<html xmlns:w="urn">
<body>
<p class="MsoListParagraph">one</p>
<p class="MsoListParagraph">two</p>
</body></html>`
	blocks, err := newTestParser().Parse(html)
	require.NoError(t, err)
	require.Len(t, blocks, 2)
	assert.Equal(t, "list_item", blocks[0].Type.String())
	assert.Equal(t, "list_item", blocks[1].Type.String())
}

func TestParseWordSourceDropsListBulletGlyph(t *testing.T) {
	html := `<html xmlns:w="urn"><body>` +
		`<p class="MsoListParagraphCxSpFirst" style="mso-list:l0"><span style="mso-list:Ignore">&middot;</span>item</p>` +
		`</body></html>`
	blocks, err := newTestParser().Parse(html)
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, "list_item", blocks[0].Type.String())
	assert.Equal(t, "item", textOf(blocks[0].Content.(model.BlockChildren).Blocks[0].Content.(model.InlineChildren).Items))
}

func TestParseWordSourceDropsEmptyParagraphs(t *testing.T) {
	html := `<html xmlns:w="urn"><body><p class="MsoNormal">kept</p><p class="MsoNormal">&nbsp;</p></body></html>`
	blocks, err := newTestParser().Parse(html)
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, "kept", textOf(blocks[0].Content.(model.InlineChildren).Items))
}

func TestDetectSourceFingerprints(t *testing.T) {
	assert.Equal(t, SourceWord, detectSource(`<p class="MsoNormal">x</p>`))
	assert.Equal(t, SourceGoogleDocs, detectSource(`<b id="docs-internal-guid-123">x</b>`))
	assert.Equal(t, SourcePlain, detectSource(`<p>x</p>`))
}
