package htmlserializer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Samyssmile/notectl-sub003/ident"
	"github.com/Samyssmile/notectl-sub003/model"
	"github.com/Samyssmile/notectl-sub003/schema"
	"github.com/Samyssmile/notectl-sub003/schema/basic"
)

func newRegistry() *schema.Registry {
	r := schema.NewRegistry()
	basic.Register(r)
	r.Freeze()
	return r
}

func para(text string, marks ...model.Mark) *model.BlockNode {
	return &model.BlockNode{
		ID:      ident.NewBlockID(),
		Type:    ident.NewNodeTypeName("paragraph"),
		Content: model.InlineChildren{Items: []model.InlineItem{model.TextSegment{Text: text, Marks: marks}}},
	}
}

func TestSerializeSimpleParagraph(t *testing.T) {
	doc := &model.Document{Blocks: []*model.BlockNode{para("hello")}}
	out, err := SerializeDocument(doc, newRegistry())
	require.NoError(t, err)
	assert.Equal(t, "<p>hello</p>", out)
}

func TestSerializeEmptyParagraphRendersBr(t *testing.T) {
	doc := &model.Document{Blocks: []*model.BlockNode{
		{ID: ident.NewBlockID(), Type: ident.NewNodeTypeName("paragraph"), Content: model.InlineChildren{}},
	}}
	out, err := SerializeDocument(doc, newRegistry())
	require.NoError(t, err)
	assert.Equal(t, "<p><br></p>", out)
}

func TestSerializeVoidNode(t *testing.T) {
	doc := &model.Document{Blocks: []*model.BlockNode{
		{ID: ident.NewBlockID(), Type: ident.NewNodeTypeName("horizontal_rule")},
	}}
	out, err := SerializeDocument(doc, newRegistry())
	require.NoError(t, err)
	assert.Equal(t, "<hr>", out)
}

func TestSerializeTagMarkWrapping(t *testing.T) {
	bold := model.Mark{Type: ident.NewMarkTypeName("bold")}
	italic := model.Mark{Type: ident.NewMarkTypeName("italic")}
	doc := &model.Document{Blocks: []*model.BlockNode{para("hi", bold, italic)}}
	out, err := SerializeDocument(doc, newRegistry())
	require.NoError(t, err)
	// bold has lower rank (20) than italic (30): bold is outermost.
	assert.Equal(t, "<p><strong><em>hi</em></strong></p>", out)
}

func TestSerializeStyleMarkConsolidation(t *testing.T) {
	color := model.Mark{Type: ident.NewMarkTypeName("textColor"), Attrs: map[string]string{"color": "#ff0000"}}
	highlight := model.Mark{Type: ident.NewMarkTypeName("highlight"), Attrs: map[string]string{"color": "#00ff00"}}
	doc := &model.Document{Blocks: []*model.BlockNode{para("hi", color, highlight)}}
	out, err := SerializeDocument(doc, newRegistry())
	require.NoError(t, err)
	assert.Equal(t, `<p><span style="background-color: #00ff00; color: #ff0000">hi</span></p>`, out)
}

func TestSerializeInvalidStyleMarkDropsWrapper(t *testing.T) {
	color := model.Mark{Type: ident.NewMarkTypeName("textColor"), Attrs: map[string]string{"color": "javascript:alert(1)"}}
	doc := &model.Document{Blocks: []*model.BlockNode{para("hi", color)}}
	out, err := SerializeDocument(doc, newRegistry())
	require.NoError(t, err)
	assert.Equal(t, "<p>hi</p>", out)
}

func TestSerializeEscapesText(t *testing.T) {
	doc := &model.Document{Blocks: []*model.BlockNode{para(`<script> & "quote"`)}}
	out, err := SerializeDocument(doc, newRegistry())
	require.NoError(t, err)
	assert.Equal(t, "<p>&lt;script&gt; &amp; &quot;quote&quot;</p>", out)
}

func TestSerializeCoalescesAdjacentRunsWithSameMarks(t *testing.T) {
	bold := model.Mark{Type: ident.NewMarkTypeName("bold")}
	doc := &model.Document{Blocks: []*model.BlockNode{{
		ID:   ident.NewBlockID(),
		Type: ident.NewNodeTypeName("paragraph"),
		Content: model.InlineChildren{Items: []model.InlineItem{
			model.TextSegment{Text: "ab", Marks: []model.Mark{bold}},
			model.TextSegment{Text: "cd", Marks: []model.Mark{bold}},
		}},
	}}}
	out, err := SerializeDocument(doc, newRegistry())
	require.NoError(t, err)
	assert.Equal(t, "<p><strong>abcd</strong></p>", out)
}

func TestSerializeAlignInjectsTextAlignStyle(t *testing.T) {
	p := para("hi")
	p.Attrs = map[string]any{"align": "center"}
	doc := &model.Document{Blocks: []*model.BlockNode{p}}
	out, err := SerializeDocument(doc, newRegistry())
	require.NoError(t, err)
	assert.Equal(t, `<p style="text-align: center">hi</p>`, out)
}

func TestSerializeTable(t *testing.T) {
	cell := &model.BlockNode{ID: ident.NewBlockID(), Type: ident.NewNodeTypeName("table_cell"), Content: model.InlineChildren{Items: []model.InlineItem{model.TextSegment{Text: "x"}}}}
	row := &model.BlockNode{ID: ident.NewBlockID(), Type: ident.NewNodeTypeName("table_row"), Content: model.BlockChildren{Blocks: []*model.BlockNode{cell}}}
	table := &model.BlockNode{ID: ident.NewBlockID(), Type: ident.NewNodeTypeName("table"), Content: model.BlockChildren{Blocks: []*model.BlockNode{row}}}
	doc := &model.Document{Blocks: []*model.BlockNode{table}}
	out, err := SerializeDocument(doc, newRegistry())
	require.NoError(t, err)
	assert.Equal(t, "<table><tbody><tr><td>x</td></tr></tbody></table>", out)
}

func TestSerializeChecklistItemKeepsCheckboxAndText(t *testing.T) {
	item := &model.BlockNode{
		ID:    ident.NewBlockID(),
		Type:  ident.NewNodeTypeName("checklist_item"),
		Attrs: map[string]any{"indent": 0, "checked": "true"},
		Content: model.BlockChildren{Blocks: []*model.BlockNode{{
			ID:      ident.NewBlockID(),
			Type:    ident.NewNodeTypeName("paragraph"),
			Content: model.InlineChildren{Items: []model.InlineItem{model.TextSegment{Text: "done"}}},
		}}},
	}
	doc := &model.Document{Blocks: []*model.BlockNode{item}}
	out, err := SerializeDocument(doc, newRegistry())
	require.NoError(t, err)
	assert.Equal(t,
		`<ul><li data-checklist-item="true" role="checkbox" aria-checked="true"><input type="checkbox" disabled="disabled" checked="checked"><p>done</p></li></ul>`,
		out)
}

func flatListItem(text string, indent int, listType string) *model.BlockNode {
	return &model.BlockNode{
		ID:    ident.NewBlockID(),
		Type:  ident.NewNodeTypeName("list_item"),
		Attrs: map[string]any{"indent": indent, "listType": listType},
		Content: model.BlockChildren{Blocks: []*model.BlockNode{{
			ID:      ident.NewBlockID(),
			Type:    ident.NewNodeTypeName("paragraph"),
			Content: model.InlineChildren{Items: []model.InlineItem{model.TextSegment{Text: text}}},
		}}},
	}
}

func TestSerializeFlatListItemsOneLevel(t *testing.T) {
	doc := &model.Document{Blocks: []*model.BlockNode{
		flatListItem("one", 0, "bullet"),
		flatListItem("two", 0, "bullet"),
	}}
	out, err := SerializeDocument(doc, newRegistry())
	require.NoError(t, err)
	assert.Equal(t, "<ul><li><p>one</p></li><li><p>two</p></li></ul>", out)
}

func TestSerializeFlatListItemsNestedByIndent(t *testing.T) {
	doc := &model.Document{Blocks: []*model.BlockNode{
		flatListItem("parent", 0, "bullet"),
		flatListItem("child", 1, "bullet"),
		flatListItem("sibling", 0, "bullet"),
	}}
	out, err := SerializeDocument(doc, newRegistry())
	require.NoError(t, err)
	assert.Equal(t, "<ul><li><p>parent</p><ul><li><p>child</p></li></ul></li><li><p>sibling</p></li></ul>", out)
}

func TestSerializeFlatListItemsMixedTagSwitch(t *testing.T) {
	doc := &model.Document{Blocks: []*model.BlockNode{
		flatListItem("a", 0, "bullet"),
		flatListItem("b", 0, "ordered"),
	}}
	out, err := SerializeDocument(doc, newRegistry())
	require.NoError(t, err)
	assert.Equal(t, "<ul><li><p>a</p></li></ul><ol><li><p>b</p></li></ol>", out)
}

func TestSerializeDocumentToCSSExtractsClasses(t *testing.T) {
	color := model.Mark{Type: ident.NewMarkTypeName("textColor"), Attrs: map[string]string{"color": "#ff0000"}}
	doc := &model.Document{Blocks: []*model.BlockNode{para("a", color), para("b", color)}}
	res, err := SerializeDocumentToCSS(doc, newRegistry())
	require.NoError(t, err)
	assert.Equal(t, `<p><span class="notectl-s0">a</span></p><p><span class="notectl-s0">b</span></p>`, res.HTML)
	assert.Equal(t, ".notectl-s0 { color: #ff0000; }\n", res.CSS)
}

func TestSerializeDocumentToCSSAlignUsesClass(t *testing.T) {
	p := para("hi")
	p.Attrs = map[string]any{"align": "right"}
	doc := &model.Document{Blocks: []*model.BlockNode{p}}
	res, err := SerializeDocumentToCSS(doc, newRegistry())
	require.NoError(t, err)
	assert.Equal(t, `<p class="notectl-align-RIGHT">hi</p>`, res.HTML)
}
