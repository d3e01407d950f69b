package reconciler

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

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

func para(id string, text string) *model.BlockNode {
	return &model.BlockNode{
		ID:      ident.BlockIDFrom(id),
		Type:    ident.NewNodeTypeName("paragraph"),
		Content: model.InlineChildren{Items: []model.InlineItem{model.TextSegment{Text: text}}},
	}
}

func listItem(id string, text string, indent int, listType string) *model.BlockNode {
	return &model.BlockNode{
		ID:      ident.BlockIDFrom(id),
		Type:    ident.NewNodeTypeName("list_item"),
		Attrs:   map[string]any{"indent": indent, "listType": listType},
		Content: model.InlineChildren{Items: []model.InlineItem{model.TextSegment{Text: text}}},
	}
}

func renderHTML(t *testing.T, n *html.Node) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, html.Render(&buf, n))
	return buf.String()
}

func TestMountRendersParagraphs(t *testing.T) {
	doc := &model.Document{Blocks: []*model.BlockNode{para("b1", "hello"), para("b2", "world")}}
	r := New(newRegistry(), nil)
	root := r.Mount(doc)
	assert.Equal(t, renderHTML(t, root), `<div><p data-block-id="b1">hello</p><p data-block-id="b2">world</p></div>`)
}

func TestUpdateReusesUnchangedElement(t *testing.T) {
	doc := &model.Document{Blocks: []*model.BlockNode{para("b1", "hello")}}
	r := New(newRegistry(), nil)
	r.Mount(doc)
	el1, _ := r.Element(ident.BlockIDFrom("b1"))

	doc2 := &model.Document{Blocks: []*model.BlockNode{para("b1", "hello"), para("b2", "new")}}
	r.Update(doc2)
	el1Again, ok := r.Element(ident.BlockIDFrom("b1"))
	require.True(t, ok)
	// The wrapper itself is rebuilt (no NodeView to patch in place), but
	// the block's identity in the mounted map and its content are stable.
	assert.Equal(t, renderHTML(t, el1), renderHTML(t, el1Again))
}

func TestUpdateRemovesDeletedBlock(t *testing.T) {
	doc := &model.Document{Blocks: []*model.BlockNode{para("b1", "a"), para("b2", "b")}}
	r := New(newRegistry(), nil)
	r.Mount(doc)

	doc2 := &model.Document{Blocks: []*model.BlockNode{para("b1", "a")}}
	root := r.Update(doc2)
	_, ok := r.Element(ident.BlockIDFrom("b2"))
	assert.False(t, ok)
	assert.Equal(t, `<div><p data-block-id="b1">a</p></div>`, renderHTML(t, root))
}

func TestUpdateReordersBlocks(t *testing.T) {
	doc := &model.Document{Blocks: []*model.BlockNode{para("b1", "a"), para("b2", "b")}}
	r := New(newRegistry(), nil)
	r.Mount(doc)

	doc2 := &model.Document{Blocks: []*model.BlockNode{para("b2", "b"), para("b1", "a")}}
	root := r.Update(doc2)
	assert.Equal(t, `<div><p data-block-id="b2">b</p><p data-block-id="b1">a</p></div>`, renderHTML(t, root))
}

func TestListRunNestsByIndent(t *testing.T) {
	doc := &model.Document{Blocks: []*model.BlockNode{
		listItem("b1", "parent", 0, "bullet"),
		listItem("b2", "child", 1, "bullet"),
		listItem("b3", "sibling", 0, "bullet"),
	}}
	r := New(newRegistry(), nil)
	root := r.Mount(doc)
	assert.Equal(t, `<div><ul><li data-block-id="b1">parent<ul><li data-block-id="b2">child</li></ul></li><li data-block-id="b3">sibling</li></ul></div>`, renderHTML(t, root))
}

func TestNodeViewUpdateAcceptedKeepsElement(t *testing.T) {
	views := NewViewRegistry()
	var updateCalls int
	views.Register(ident.NewNodeTypeName("paragraph"), func(n *model.BlockNode) *NodeView {
		el := &html.Node{Type: html.ElementNode, Data: "p"}
		el.AppendChild(&html.Node{Type: html.TextNode, Data: "custom"})
		return &NodeView{
			DOM: el,
			Update: func(newNode *model.BlockNode) bool {
				updateCalls++
				return true
			},
		}
	})
	doc := &model.Document{Blocks: []*model.BlockNode{para("b1", "hello")}}
	r := New(newRegistry(), views)
	r.Mount(doc)
	el1, _ := r.Element(ident.BlockIDFrom("b1"))

	doc2 := &model.Document{Blocks: []*model.BlockNode{para("b1", "changed")}}
	r.Update(doc2)
	el2, _ := r.Element(ident.BlockIDFrom("b1"))

	assert.Equal(t, 1, updateCalls)
	assert.Same(t, el1, el2)
}

func TestNodeViewFactoryPanicFallsBackToPlaceholder(t *testing.T) {
	views := NewViewRegistry()
	views.Register(ident.NewNodeTypeName("paragraph"), func(n *model.BlockNode) *NodeView {
		panic("boom")
	})
	doc := &model.Document{Blocks: []*model.BlockNode{para("b1", "hello")}}
	r := New(newRegistry(), views)
	root := r.Mount(doc)
	el, ok := r.Element(ident.BlockIDFrom("b1"))
	require.True(t, ok)
	assert.Equal(t, "div", el.Data)
	_ = root
}

func TestNodeViewDestroyCalledOnRemoval(t *testing.T) {
	views := NewViewRegistry()
	destroyed := false
	views.Register(ident.NewNodeTypeName("paragraph"), func(n *model.BlockNode) *NodeView {
		return &NodeView{
			DOM:     &html.Node{Type: html.ElementNode, Data: "p"},
			Destroy: func() { destroyed = true },
		}
	})
	doc := &model.Document{Blocks: []*model.BlockNode{para("b1", "hello")}}
	r := New(newRegistry(), views)
	r.Mount(doc)

	r.Update(&model.Document{Blocks: nil})
	assert.True(t, destroyed)
}
