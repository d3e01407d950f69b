package htmlparser

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/Samyssmile/notectl-sub003/ident"
	"github.com/Samyssmile/notectl-sub003/model"
	"github.com/Samyssmile/notectl-sub003/schema"
)

type walker struct {
	reg *schema.Registry
	gen ident.Generator
}

func (w *walker) newID() ident.BlockId {
	if w.gen != nil {
		return w.gen.NextBlockID()
	}
	return ident.NewBlockID()
}

func (w *walker) emptyParagraph() *model.BlockNode {
	return &model.BlockNode{
		ID:      w.newID(),
		Type:    ident.NewNodeTypeName("paragraph"),
		Content: model.InlineChildren{},
	}
}

// walkBlocks maps a run of sibling DOM nodes to top-level document blocks.
// Plugin-registered ParseRule entries (schema.NodeSpec.ParseHTML) take
// priority over the built-in tag table below; an element matching neither
// falls back to paragraph, per spec.
func (w *walker) walkBlocks(first *html.Node) []*model.BlockNode {
	var out []*model.BlockNode
	for n := first; n != nil; n = n.NextSibling {
		switch n.Type {
		case html.CommentNode, html.DoctypeNode:
			continue
		case html.TextNode:
			if strings.TrimSpace(n.Data) == "" {
				continue
			}
			out = append(out, w.leafBlock("paragraph", nil, []*html.Node{n}))
			continue
		case html.ElementNode:
		default:
			continue
		}

		if spec, rule, ok := w.matchNodeRule(n); ok {
			out = append(out, w.buildFromPluginRule(spec, rule, n))
			continue
		}

		switch n.DataAtom {
		case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
			level, _ := strconv.Atoi(strings.TrimPrefix(n.Data, "h"))
			out = append(out, w.leafBlock("heading", map[string]any{"level": level}, children(n)))
		case atom.P:
			out = append(out, w.leafBlock("paragraph", nil, children(n)))
		case atom.Blockquote:
			out = append(out, w.buildBlockquote(n))
		case atom.Hr:
			out = append(out, &model.BlockNode{ID: w.newID(), Type: ident.NewNodeTypeName("horizontal_rule")})
		case atom.Pre:
			out = append(out, w.buildCodeBlock(n))
		case atom.Ul, atom.Ol:
			out = append(out, w.buildList(n, 0)...)
		case atom.Li:
			out = append(out, w.buildList(wrapSingleton(n), 0)...)
		case atom.Table:
			out = append(out, w.buildTable(n))
		case atom.Div:
			out = append(out, w.walkBlocks(n.FirstChild)...)
		default:
			if containsBlockChild(n) {
				out = append(out, w.walkBlocks(n.FirstChild)...)
			} else {
				out = append(out, w.leafBlock("paragraph", nil, children(n)))
			}
		}
	}
	return out
}

// wrapSingleton builds a synthetic <ul> around a stray <li> found outside
// any list container, so buildList's normal walk handles it uniformly.
// The <li> itself stays in place in the source tree; a copy of it, holding
// its moved children, goes into the synthetic <ul>.
func wrapSingleton(li *html.Node) *html.Node {
	ul := &html.Node{Type: html.ElementNode, Data: "ul", DataAtom: atom.Ul}
	clone := &html.Node{Type: li.Type, Data: li.Data, DataAtom: li.DataAtom, Attr: li.Attr}
	for c := li.FirstChild; c != nil; c = li.FirstChild {
		li.RemoveChild(c)
		clone.AppendChild(c)
	}
	ul.AppendChild(clone)
	return ul
}

var blockTags = map[string]bool{
	"p": true, "div": true, "h1": true, "h2": true, "h3": true, "h4": true,
	"h5": true, "h6": true, "blockquote": true, "ul": true, "ol": true,
	"li": true, "hr": true, "pre": true, "table": true,
}

func containsBlockChild(n *html.Node) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && blockTags[c.Data] {
			return true
		}
	}
	return false
}

func children(n *html.Node) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, c)
	}
	return out
}

// leafBlock builds a node of typeName from nodes' inline content.
func (w *walker) leafBlock(typeName string, attrs map[string]any, nodes []*html.Node) *model.BlockNode {
	items := w.walkInline(nodes)
	return &model.BlockNode{
		ID:      w.newID(),
		Type:    ident.NewNodeTypeName(typeName),
		Attrs:   attrs,
		Content: model.InlineChildren{Items: items},
	}
}

// buildBlockquote recurses into a <blockquote>'s block-level children; if
// it holds only inline content directly, that content is wrapped in an
// implicit paragraph child, since blockquote is a compound node type.
func (w *walker) buildBlockquote(n *html.Node) *model.BlockNode {
	var kids []*model.BlockNode
	if containsBlockChild(n) {
		kids = w.walkBlocks(n.FirstChild)
	} else {
		kids = []*model.BlockNode{w.leafBlock("paragraph", nil, children(n))}
	}
	return &model.BlockNode{
		ID:      w.newID(),
		Type:    ident.NewNodeTypeName("blockquote"),
		Content: model.BlockChildren{Blocks: kids},
	}
}

// buildCodeBlock takes the raw text content of a <pre> (preferring a
// nested <code>, if present) verbatim, ignoring any other nested markup:
// code_block excludes every mark.
func (w *walker) buildCodeBlock(n *html.Node) *model.BlockNode {
	src := n
	if code := findAtom(n, atom.Code); code != nil {
		src = code
	}
	text := textContent(src)
	var items []model.InlineItem
	if text != "" {
		items = []model.InlineItem{model.TextSegment{Text: text}}
	}
	return &model.BlockNode{
		ID:      w.newID(),
		Type:    ident.NewNodeTypeName("code_block"),
		Content: model.InlineChildren{Items: items},
	}
}

// buildList walks a <ul>/<ol> into the flat list_item/checklist_item
// representation htmlserializer's list re-nesting pass expects: each item
// carries (listType, indent) attrs rather than being nested in the
// document tree, with a nested <ul>/<ol> inside an <li> contributing
// further items at indent+1 immediately after their parent.
func (w *walker) buildList(n *html.Node, indent int) []*model.BlockNode {
	listType := "bullet"
	if n.DataAtom == atom.Ol {
		listType = "ordered"
	}
	var out []*model.BlockNode
	for _, li := range findChildAtoms(n, atom.Li) {
		checked, isChecklist, contentNodes := extractChecklistBox(li)
		var nested []*html.Node
		var inline []*html.Node
		for _, c := range contentNodes {
			if c.Type == html.ElementNode && (c.DataAtom == atom.Ul || c.DataAtom == atom.Ol) {
				nested = append(nested, c)
				continue
			}
			inline = append(inline, c)
		}

		typeName := "list_item"
		attrs := map[string]any{"indent": indent, "listType": listType}
		if isChecklist {
			typeName = "checklist_item"
			attrs["checked"] = strconv.FormatBool(checked)
		}
		item := &model.BlockNode{
			ID:    w.newID(),
			Type:  ident.NewNodeTypeName(typeName),
			Attrs: attrs,
			Content: model.BlockChildren{Blocks: []*model.BlockNode{
				w.leafBlock("paragraph", nil, inline),
			}},
		}
		out = append(out, item)
		for _, sub := range nested {
			out = append(out, w.buildList(sub, indent+1)...)
		}
	}
	return out
}

// extractChecklistBox reports whether li has a checkbox <input> among its
// direct children, pulling out its checked state and returning the
// remaining content nodes with that input removed.
func extractChecklistBox(li *html.Node) (checked bool, isChecklist bool, rest []*html.Node) {
	for c := li.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode && strings.TrimSpace(c.Data) == "" {
			continue
		}
		if c.Type == html.ElementNode && c.DataAtom == atom.Input {
			if t, _ := elementAttr(c, "type"); t == "checkbox" {
				_, checked = elementAttr(c, "checked")
				isChecklist = true
				continue
			}
		}
		rest = append(rest, c)
	}
	return checked, isChecklist, rest
}

// buildTable flattens every <tr> under a <table> (HTML5 tree construction
// already inserts an implied <tbody> when the source omits one) into
// table_row/table_cell blocks.
func (w *walker) buildTable(n *html.Node) *model.BlockNode {
	var rows []*model.BlockNode
	for _, tr := range allDescendantAtoms(n, atom.Tr) {
		var cells []*model.BlockNode
		for c := tr.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode || (c.DataAtom != atom.Td && c.DataAtom != atom.Th) {
				continue
			}
			cells = append(cells, &model.BlockNode{
				ID:      w.newID(),
				Type:    ident.NewNodeTypeName("table_cell"),
				Content: model.InlineChildren{Items: w.walkInline(children(c))},
			})
		}
		rows = append(rows, &model.BlockNode{
			ID:      w.newID(),
			Type:    ident.NewNodeTypeName("table_row"),
			Content: model.BlockChildren{Blocks: cells},
		})
	}
	return &model.BlockNode{
		ID:      w.newID(),
		Type:    ident.NewNodeTypeName("table"),
		Content: model.BlockChildren{Blocks: rows},
	}
}

func allDescendantAtoms(n *html.Node, a atom.Atom) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && c.DataAtom == a {
				out = append(out, c)
			}
			walk(c)
		}
	}
	walk(n)
	return out
}

// matchNodeRule returns the highest-priority registered NodeSpec ParseRule
// matching n's tag, if any, so a plugin's block mapping can override the
// built-in fallback table above.
func (w *walker) matchNodeRule(n *html.Node) (*schema.NodeSpec, schema.ParseRule, bool) {
	var best *schema.NodeSpec
	var bestRule schema.ParseRule
	found := false
	for _, spec := range w.reg.NodeTypes() {
		for _, rule := range spec.ParseHTML {
			if rule.Tag != n.Data {
				continue
			}
			if !found || rule.Priority > bestRule.Priority {
				best, bestRule, found = spec, rule, true
			}
		}
	}
	return best, bestRule, found
}

// buildFromPluginRule builds a block of spec's type using rule.GetAttrs,
// deciding leaf-vs-compound content from spec.Inline (the contract a
// plugin author follows when registering a new node type).
func (w *walker) buildFromPluginRule(spec *schema.NodeSpec, rule schema.ParseRule, n *html.Node) *model.BlockNode {
	attrs, ok := map[string]any(nil), true
	if rule.GetAttrs != nil {
		attrs, ok = rule.GetAttrs(n)
	}
	if !ok {
		return w.leafBlock("paragraph", nil, children(n))
	}
	id := w.newID()
	if spec.IsVoid {
		return &model.BlockNode{ID: id, Type: spec.Type, Attrs: attrs}
	}
	if spec.Inline {
		return &model.BlockNode{ID: id, Type: spec.Type, Attrs: attrs, Content: model.InlineChildren{Items: w.walkInline(children(n))}}
	}
	return &model.BlockNode{ID: id, Type: spec.Type, Attrs: attrs, Content: model.BlockChildren{Blocks: w.walkBlocks(n.FirstChild)}}
}
