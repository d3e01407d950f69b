// Package basic is the default plugin bundle: the node and mark types
// every document in this engine is expected to support out of the box
// (paragraphs, headings, blockquotes, code blocks, lists, tables, images,
// hard breaks, and the common inline marks). A host assembles an editor by
// registering Nodes, InlineNodes and Marks into a fresh schema.Registry,
// then layering any of its own node/mark types on top before calling
// Registry.Freeze.
package basic

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/Samyssmile/notectl-sub003/ident"
	"github.com/Samyssmile/notectl-sub003/model"
	"github.com/Samyssmile/notectl-sub003/schema"
)

func elem(tag string, attrs map[string]string, children ...*html.Node) *html.Node {
	n := &html.Node{Type: html.ElementNode, Data: tag, DataAtom: atom.Lookup([]byte(tag))}
	for k, v := range attrs {
		n.Attr = append(n.Attr, html.Attribute{Key: k, Val: v})
	}
	for _, c := range children {
		n.AppendChild(c)
	}
	return n
}

// elemOrdered builds an element the same way as elem, but from an ordered
// attribute slice instead of a map: serialization must stay deterministic
// across runs, and Go's map iteration order is not, so any node with more
// than one attribute that appears verbatim in output uses this instead.
func elemOrdered(tag string, attrs []html.Attribute, children ...*html.Node) *html.Node {
	n := &html.Node{Type: html.ElementNode, Data: tag, DataAtom: atom.Lookup([]byte(tag)), Attr: attrs}
	for _, c := range children {
		n.AppendChild(c)
	}
	return n
}

func attrString(node *model.BlockNode, key, fallback string) string {
	if v, ok := node.Attrs[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return fallback
}

func attrInt(node *model.BlockNode, key string, fallback int) int {
	if v, ok := node.Attrs[key]; ok {
		switch n := v.(type) {
		case int:
			return n
		case float64:
			return int(n)
		}
	}
	return fallback
}

var docSpec = &schema.NodeSpec{
	Type: ident.NewNodeTypeName("doc"),
	// No content.allow restriction: the document root accepts any
	// registered block type.
}

var paragraphSpec = &schema.NodeSpec{
	Type:   ident.NewNodeTypeName("paragraph"),
	Group:  "block",
	Inline: true,
	ToDOM: func(n *model.BlockNode) *html.Node {
		return elem("p", nil)
	},
	Sanitize: schema.SanitizeSpec{Tags: []string{"p"}},
}

var headingAttrs = map[string]schema.AttributeSpec{
	"level": {Default: 1, HasDefault: true},
}

var headingSpec = &schema.NodeSpec{
	Type:   ident.NewNodeTypeName("heading"),
	Group:  "block",
	Inline: true,
	Attrs:  headingAttrs,
	ToDOM: func(n *model.BlockNode) *html.Node {
		level := attrInt(n, "level", 1)
		if level < 1 || level > 6 {
			level = 1
		}
		return elem("h"+strconv.Itoa(level), nil)
	},
	Sanitize: schema.SanitizeSpec{Tags: []string{"h1", "h2", "h3", "h4", "h5", "h6"}},
}

var blockquoteSpec = &schema.NodeSpec{
	Type:  ident.NewNodeTypeName("blockquote"),
	Group: "block",
	ToDOM: func(n *model.BlockNode) *html.Node {
		return elem("blockquote", nil)
	},
	Sanitize: schema.SanitizeSpec{Tags: []string{"blockquote"}},
}

var horizontalRuleSpec = &schema.NodeSpec{
	Type:       ident.NewNodeTypeName("horizontal_rule"),
	Group:      "block",
	IsVoid:     true,
	Selectable: true,
	ToDOM: func(n *model.BlockNode) *html.Node {
		return elem("hr", nil)
	},
	Sanitize: schema.SanitizeSpec{Tags: []string{"hr"}},
}

var codeBlockSpec = &schema.NodeSpec{
	Type:         ident.NewNodeTypeName("code_block"),
	Group:        "block",
	Inline:       true,
	ExcludeMarks: []ident.MarkTypeName{}, // disallow every mark inside code
	ToDOM: func(n *model.BlockNode) *html.Node {
		return elem("pre", nil, elem("code", nil))
	},
	Sanitize: schema.SanitizeSpec{Tags: []string{"pre", "code"}},
}

var listItemSpec = &schema.NodeSpec{
	Type:    ident.NewNodeTypeName("list_item"),
	Group:   "block",
	Content: schema.ContentRule{Allow: []string{"paragraph", "bullet_list", "ordered_list"}},
	Attrs: map[string]schema.AttributeSpec{
		"indent":   {Default: 0, HasDefault: true},
		"listType": {Default: "bullet", HasDefault: true},
	},
	ToDOM: func(n *model.BlockNode) *html.Node {
		return elem("li", nil)
	},
	Sanitize: schema.SanitizeSpec{Tags: []string{"li"}},
}

var checklistItemSpec = &schema.NodeSpec{
	Type:    ident.NewNodeTypeName("checklist_item"),
	Group:   "block",
	Content: schema.ContentRule{Allow: []string{"paragraph"}},
	Attrs: map[string]schema.AttributeSpec{
		"indent":   {Default: 0, HasDefault: true},
		"checked":  {Default: false, HasDefault: true},
		"listType": {Default: "bullet", HasDefault: true},
	},
	ToDOM: func(n *model.BlockNode) *html.Node {
		checked := attrString(n, "checked", "") == "true"
		boxAttrs := []html.Attribute{{Key: "type", Val: "checkbox"}, {Key: "disabled", Val: "disabled"}}
		if checked {
			boxAttrs = append(boxAttrs, html.Attribute{Key: "checked", Val: "checked"})
		}
		box := elemOrdered("input", boxAttrs)
		return elemOrdered("li", []html.Attribute{
			{Key: "data-checklist-item", Val: "true"},
			{Key: "role", Val: "checkbox"},
			{Key: "aria-checked", Val: strconv.FormatBool(checked)},
		}, box)
	},
	Sanitize: schema.SanitizeSpec{Tags: []string{"li", "input"}, Attrs: []string{"type", "checked", "disabled", "data-checklist-item", "role", "aria-checked"}},
}

var bulletListSpec = &schema.NodeSpec{
	Type:    ident.NewNodeTypeName("bullet_list"),
	Group:   "block",
	Content: schema.ContentRule{Allow: []string{"list_item", "checklist_item"}},
	ToDOM: func(n *model.BlockNode) *html.Node {
		return elem("ul", nil)
	},
	Sanitize: schema.SanitizeSpec{Tags: []string{"ul"}},
}

var orderedListSpec = &schema.NodeSpec{
	Type:    ident.NewNodeTypeName("ordered_list"),
	Group:   "block",
	Content: schema.ContentRule{Allow: []string{"list_item", "checklist_item"}},
	Attrs: map[string]schema.AttributeSpec{
		"start": {Default: 1, HasDefault: true},
	},
	ToDOM: func(n *model.BlockNode) *html.Node {
		start := attrInt(n, "start", 1)
		attrs := map[string]string{}
		if start != 1 {
			attrs["start"] = strconv.Itoa(start)
		}
		return elem("ol", attrs)
	},
	Sanitize: schema.SanitizeSpec{Tags: []string{"ol"}, Attrs: []string{"start"}},
}

var tableSpec = &schema.NodeSpec{
	Type:        ident.NewNodeTypeName("table"),
	Group:       "block",
	IsIsolating: true,
	Content:     schema.ContentRule{Allow: []string{"table_row"}},
	ToDOM: func(n *model.BlockNode) *html.Node {
		return elem("table", nil, elem("tbody", nil))
	},
	Sanitize: schema.SanitizeSpec{Tags: []string{"table", "tbody"}},
}

var tableRowSpec = &schema.NodeSpec{
	Type:    ident.NewNodeTypeName("table_row"),
	Content: schema.ContentRule{Allow: []string{"table_cell"}},
	ToDOM: func(n *model.BlockNode) *html.Node {
		return elem("tr", nil)
	},
	Sanitize: schema.SanitizeSpec{Tags: []string{"tr"}},
}

var tableCellSpec = &schema.NodeSpec{
	Type:        ident.NewNodeTypeName("table_cell"),
	IsIsolating: true,
	ToDOM: func(n *model.BlockNode) *html.Node {
		return elem("td", nil)
	},
	Sanitize: schema.SanitizeSpec{Tags: []string{"td"}},
}

var imageAttrs = map[string]schema.AttributeSpec{
	"src":   {},
	"alt":   {Default: "", HasDefault: true},
	"title": {Default: "", HasDefault: true},
}

var imageSpec = &schema.NodeSpec{
	Type:       ident.NewNodeTypeName("image"),
	Group:      "block",
	IsVoid:     true,
	Selectable: true,
	Attrs:      imageAttrs,
	ToDOM: func(n *model.BlockNode) *html.Node {
		return elemOrdered("img", []html.Attribute{
			{Key: "src", Val: attrString(n, "src", "")},
			{Key: "alt", Val: attrString(n, "alt", "")},
			{Key: "title", Val: attrString(n, "title", "")},
		})
	},
	Sanitize: schema.SanitizeSpec{Tags: []string{"img"}, Attrs: []string{"src", "alt", "title"}},
}

// Nodes are the block node types registered by this bundle, in the order
// a host should register them.
var Nodes = []*schema.NodeSpec{
	docSpec,
	paragraphSpec,
	headingSpec,
	blockquoteSpec,
	horizontalRuleSpec,
	codeBlockSpec,
	listItemSpec,
	checklistItemSpec,
	bulletListSpec,
	orderedListSpec,
	tableSpec,
	tableRowSpec,
	tableCellSpec,
	imageSpec,
}

var hardBreakSpec = &schema.InlineNodeSpec{
	Type: ident.NewInlineNodeTypeName("hard_break"),
	ToDOM: func(n *model.InlineNode) *html.Node {
		return elem("br", nil)
	},
	Sanitize: schema.SanitizeSpec{Tags: []string{"br"}},
}

// InlineNodes are the inline node types registered by this bundle.
var InlineNodes = []*schema.InlineNodeSpec{
	hardBreakSpec,
}

var linkAttrs = map[string]schema.AttributeSpec{
	"href":  {},
	"title": {Default: "", HasDefault: true},
}

var linkSpec = &schema.MarkSpec{
	Type:  ident.NewMarkTypeName("link"),
	Rank:  10,
	Attrs: linkAttrs,
	ToHTMLString: func(m model.Mark, inner string) (string, bool) {
		href := m.Attrs["href"]
		if href == "" {
			return inner, false
		}
		if title := m.Attrs["title"]; title != "" {
			return fmt.Sprintf(`<a href="%s" title="%s">%s</a>`, htmlEscapeAttr(href), htmlEscapeAttr(title), inner), true
		}
		return fmt.Sprintf(`<a href="%s">%s</a>`, htmlEscapeAttr(href), inner), true
	},
	Sanitize: schema.SanitizeSpec{Tags: []string{"a"}, Attrs: []string{"href", "title"}},
}

var boldSpec = &schema.MarkSpec{
	Type: ident.NewMarkTypeName("bold"),
	Rank: 20,
	ToHTMLString: func(m model.Mark, inner string) (string, bool) {
		return "<strong>" + inner + "</strong>", true
	},
	Sanitize: schema.SanitizeSpec{Tags: []string{"strong", "b"}},
}

var italicSpec = &schema.MarkSpec{
	Type: ident.NewMarkTypeName("italic"),
	Rank: 30,
	ToHTMLString: func(m model.Mark, inner string) (string, bool) {
		return "<em>" + inner + "</em>", true
	},
	Sanitize: schema.SanitizeSpec{Tags: []string{"em", "i"}},
}

var underlineSpec = &schema.MarkSpec{
	Type: ident.NewMarkTypeName("underline"),
	Rank: 40,
	ToHTMLString: func(m model.Mark, inner string) (string, bool) {
		return "<u>" + inner + "</u>", true
	},
	Sanitize: schema.SanitizeSpec{Tags: []string{"u"}},
}

var strikeSpec = &schema.MarkSpec{
	Type: ident.NewMarkTypeName("strike"),
	Rank: 50,
	ToHTMLString: func(m model.Mark, inner string) (string, bool) {
		return "<s>" + inner + "</s>", true
	},
	Sanitize: schema.SanitizeSpec{Tags: []string{"s", "strike", "del"}},
}

var codeSpec = &schema.MarkSpec{
	Type: ident.NewMarkTypeName("code"),
	Rank: 60,
	ToHTMLString: func(m model.Mark, inner string) (string, bool) {
		return "<code>" + inner + "</code>", true
	},
	Sanitize: schema.SanitizeSpec{Tags: []string{"code"}},
}

var textColorSpec = &schema.MarkSpec{
	Type: ident.NewMarkTypeName("textColor"),
	Rank: 70,
	ToHTMLStyle: func(m model.Mark) (string, bool) {
		color := m.Attrs["color"]
		if !validCSSColor(color) {
			return "", false
		}
		return "color: " + color, true
	},
	Sanitize: schema.SanitizeSpec{Attrs: []string{"style"}},
}

var highlightSpec = &schema.MarkSpec{
	Type: ident.NewMarkTypeName("highlight"),
	Rank: 80,
	ToHTMLStyle: func(m model.Mark) (string, bool) {
		color := m.Attrs["color"]
		if !validCSSColor(color) {
			return "", false
		}
		return "background-color: " + color, true
	},
	Sanitize: schema.SanitizeSpec{Attrs: []string{"style"}},
}

// Marks are the mark types registered by this bundle, in rank order
// (lowest rank outermost in the serialized HTML).
var Marks = []*schema.MarkSpec{
	linkSpec,
	boldSpec,
	italicSpec,
	underlineSpec,
	strikeSpec,
	codeSpec,
	textColorSpec,
	highlightSpec,
}

func htmlEscapeAttr(s string) string {
	r := strings.NewReplacer(`&`, "&amp;", `"`, "&quot;", `<`, "&lt;", `>`, "&gt;")
	return r.Replace(s)
}

// validCSSColor accepts hex colors and a short allowlist of keyword/
// functional forms; anything else fails validation so the style mark's
// ToHTMLStyle can decline to render rather than pass attacker-controlled
// text straight into a style attribute.
func validCSSColor(s string) bool {
	if s == "" {
		return false
	}
	if strings.HasPrefix(s, "#") {
		hex := s[1:]
		if len(hex) != 3 && len(hex) != 6 {
			return false
		}
		for _, c := range hex {
			if !strings.ContainsRune("0123456789abcdefABCDEF", c) {
				return false
			}
		}
		return true
	}
	if strings.HasPrefix(s, "rgb(") || strings.HasPrefix(s, "rgba(") {
		return strings.HasSuffix(s, ")")
	}
	switch s {
	case "red", "green", "blue", "black", "white", "yellow", "orange", "purple", "gray", "grey", "inherit", "transparent":
		return true
	}
	return false
}

// Register adds every node, inline node, and mark in this bundle to r.
// It does not call r.Freeze; a host composing additional plugins on top
// of this bundle does that once, after every plugin has registered.
func Register(r *schema.Registry) {
	for _, n := range Nodes {
		r.RegisterNode(n)
	}
	for _, n := range InlineNodes {
		r.RegisterInlineNode(n)
	}
	for _, m := range Marks {
		r.RegisterMark(m)
	}
}
