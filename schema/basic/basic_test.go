package basic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Samyssmile/notectl-sub003/ident"
	"github.com/Samyssmile/notectl-sub003/model"
	"github.com/Samyssmile/notectl-sub003/schema"
)

func newRegistry(t *testing.T) *schema.Registry {
	t.Helper()
	r := schema.NewRegistry()
	Register(r)
	r.Freeze()
	return r
}

func TestRegisterPopulatesEveryType(t *testing.T) {
	r := newRegistry(t)

	_, ok := r.NodeType(ident.NewNodeTypeName("paragraph"))
	assert.True(t, ok)
	_, ok = r.NodeType(ident.NewNodeTypeName("table_cell"))
	assert.True(t, ok)
	_, ok = r.InlineNodeType(ident.NewInlineNodeTypeName("hard_break"))
	assert.True(t, ok)
	_, ok = r.MarkType(ident.NewMarkTypeName("bold"))
	assert.True(t, ok)
}

func TestCodeBlockExcludesAllMarks(t *testing.T) {
	r := newRegistry(t)
	assert.False(t, r.AllowsMarkOn(ident.NewNodeTypeName("code_block"), ident.NewMarkTypeName("bold")))
}

func TestListItemContentRule(t *testing.T) {
	r := newRegistry(t)
	assert.True(t, r.ValidChildType(ident.NewNodeTypeName("list_item"), ident.NewNodeTypeName("paragraph")))
	assert.True(t, r.ValidChildType(ident.NewNodeTypeName("list_item"), ident.NewNodeTypeName("bullet_list")))
	assert.False(t, r.ValidChildType(ident.NewNodeTypeName("list_item"), ident.NewNodeTypeName("table")))
}

func TestHeadingToDOMPicksTag(t *testing.T) {
	r := newRegistry(t)
	spec, ok := r.NodeType(ident.NewNodeTypeName("heading"))
	require.True(t, ok)

	node := &model.BlockNode{Attrs: map[string]any{"level": 3}}
	dom := spec.ToDOM(node)
	assert.Equal(t, "h3", dom.Data)
}

func TestLinkMarkRendersAnchorAndRejectsEmptyHref(t *testing.T) {
	r := newRegistry(t)
	spec, ok := r.MarkType(ident.NewMarkTypeName("link"))
	require.True(t, ok)

	rendered, ok := spec.ToHTMLString(model.Mark{Attrs: map[string]string{"href": "https://example.com"}}, "hi")
	require.True(t, ok)
	assert.Equal(t, `<a href="https://example.com">hi</a>`, rendered)

	_, ok = spec.ToHTMLString(model.Mark{Attrs: map[string]string{}}, "hi")
	assert.False(t, ok)
}

func TestTextColorMarkValidatesCSSColor(t *testing.T) {
	r := newRegistry(t)
	spec, ok := r.MarkType(ident.NewMarkTypeName("textColor"))
	require.True(t, ok)

	style, ok := spec.ToHTMLStyle(model.Mark{Attrs: map[string]string{"color": "#ff0000"}})
	require.True(t, ok)
	assert.Equal(t, "color: #ff0000", style)

	_, ok = spec.ToHTMLStyle(model.Mark{Attrs: map[string]string{"color": "javascript:alert(1)"}})
	assert.False(t, ok)
}

func TestMarkRankOrdering(t *testing.T) {
	r := newRegistry(t)
	sorted := r.SortMarksByRank([]model.Mark{
		{Type: ident.NewMarkTypeName("code")},
		{Type: ident.NewMarkTypeName("link")},
		{Type: ident.NewMarkTypeName("bold")},
	})
	require.Len(t, sorted, 3)
	assert.Equal(t, "link", sorted[0].Type.String())
	assert.Equal(t, "bold", sorted[1].Type.String())
	assert.Equal(t, "code", sorted[2].Type.String())
}
