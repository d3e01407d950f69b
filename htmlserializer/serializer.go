// Package htmlserializer turns an EditorState's document into sanitized
// HTML: a deterministic Document × SchemaRegistry → string function. It
// builds output with golang.org/x/net/html and golang.org/x/net/html/atom,
// following the schema's string-oriented ToHTML/ToHTMLString/ToHTMLStyle
// contract: a node's own ToDOM supplies the outer element, and the
// already-serialized inner HTML is spliced into it as a parsed fragment,
// walking to the innermost FirstChild for nested wrapper tags like
// pre>code.
package htmlserializer

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/Samyssmile/notectl-sub003/model"
	"github.com/Samyssmile/notectl-sub003/schema"
)

// Result is the output of a serialization pass.
type Result struct {
	HTML string
	// CSS holds the deduplicated rule set when the serializer ran in CSS
	// class extraction mode; empty otherwise.
	CSS string
}

// voidElements are tags that never take children in rendered HTML. wrap's
// FirstChild-drilling must stop before one of these (e.g. a checklist
// item's <input type="checkbox">) rather than mistaking it for a nested
// content wrapper like <code> inside <pre>.
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"param": true, "source": true, "track": true, "wbr": true,
}

type serializer struct {
	reg      *schema.Registry
	cssMode  bool
	classes  map[string]string // style/align fragment -> class name
	classSeq []string          // insertion order, for deterministic CSS output
	next     int
}

// SerializeDocument renders doc as HTML using reg's node/mark specs.
func SerializeDocument(doc *model.Document, reg *schema.Registry) (string, error) {
	s := &serializer{reg: reg}
	out, err := s.serializeBlocks(doc.Blocks)
	return out, err
}

// SerializeDocumentToCSS runs the same pipeline as SerializeDocument but
// replaces each unique inline-style fragment with a generated class
// ("notectl-sN") and alignment with "notectl-align-LEFT|CENTER|RIGHT|JUSTIFY",
// returning the deduplicated rule set as a second value.
func SerializeDocumentToCSS(doc *model.Document, reg *schema.Registry) (Result, error) {
	s := &serializer{reg: reg, cssMode: true, classes: map[string]string{}}
	out, err := s.serializeBlocks(doc.Blocks)
	if err != nil {
		return Result{}, err
	}
	return Result{HTML: out, CSS: s.renderCSS()}, nil
}

func (s *serializer) classFor(rule string) string {
	if name, ok := s.classes[rule]; ok {
		return name
	}
	name := fmt.Sprintf("notectl-s%d", s.next)
	s.next++
	s.classes[rule] = name
	s.classSeq = append(s.classSeq, rule)
	return name
}

func (s *serializer) renderCSS() string {
	var b strings.Builder
	for _, rule := range s.classSeq {
		fmt.Fprintf(&b, ".%s { %s; }\n", s.classes[rule], rule)
	}
	return b.String()
}

// serializeBlocks renders a run of sibling blocks, grouping any run of
// list_item/checklist_item children through the list re-nesting pass
// (§4.8 Lists) instead of rendering each one independently.
func (s *serializer) serializeBlocks(blocks []*model.BlockNode) (string, error) {
	var out strings.Builder
	i := 0
	for i < len(blocks) {
		if isListItemType(blocks[i].Type.String()) {
			j := i
			for j < len(blocks) && isListItemType(blocks[j].Type.String()) {
				j++
			}
			rendered, err := s.renderListRun(blocks[i:j])
			if err != nil {
				return "", err
			}
			out.WriteString(rendered)
			i = j
			continue
		}
		rendered, err := s.serializeBlock(blocks[i])
		if err != nil {
			return "", err
		}
		out.WriteString(rendered)
		i++
	}
	return out.String(), nil
}

func isListItemType(t string) bool {
	return t == "list_item" || t == "checklist_item"
}

// serializeBlock renders one block, recursing into its children first to
// build innerHTML (compound blocks) or running inline serialization (leaf
// blocks), then handing innerHTML to the node's ToHTML/ToDOM contract.
func (s *serializer) serializeBlock(b *model.BlockNode) (string, error) {
	spec, ok := s.reg.NodeType(b.Type)
	if !ok {
		return "", fmt.Errorf("htmlserializer: unknown node type %q", b.Type.String())
	}

	inner, err := s.innerHTML(b, spec)
	if err != nil {
		return "", err
	}

	outer, err := s.wrap(b, spec, inner)
	if err != nil {
		return "", err
	}
	return s.injectAlign(b, outer), nil
}

func (s *serializer) innerHTML(b *model.BlockNode, spec *schema.NodeSpec) (string, error) {
	switch content := b.Content.(type) {
	case model.BlockChildren:
		return s.serializeBlocks(content.Blocks)
	case model.InlineChildren:
		return s.serializeInline(content.Items)
	default:
		return "", nil
	}
}

// wrap hands innerHTML to the node's ToHTML string hook if it has one,
// otherwise builds the outer element with ToDOM and splices innerHTML into
// it as a parsed fragment.
func (s *serializer) wrap(b *model.BlockNode, spec *schema.NodeSpec, inner string) (string, error) {
	if spec.ToHTML != nil {
		return spec.ToHTML(b, inner), nil
	}
	if spec.ToDOM == nil {
		return inner, nil
	}
	outer := spec.ToDOM(b)
	content := outer
	for content.FirstChild != nil && !voidElements[content.FirstChild.Data] {
		content = content.FirstChild
	}
	if inner != "" {
		children, err := html.ParseFragment(strings.NewReader(inner), content)
		if err != nil {
			return "", fmt.Errorf("htmlserializer: parsing inner fragment: %w", err)
		}
		for _, c := range children {
			content.AppendChild(c)
		}
	} else if content == outer && outer.FirstChild == nil {
		// An empty leaf block (no text, no inline nodes) renders a <br>
		// placeholder so the line remains visible and editable.
		if _, isLeaf := b.Content.(model.InlineChildren); isLeaf {
			content.AppendChild(&html.Node{Type: html.ElementNode, Data: "br", DataAtom: atom.Br})
		}
	}
	var buf bytes.Buffer
	if err := html.Render(&buf, outer); err != nil {
		return "", fmt.Errorf("htmlserializer: rendering node: %w", err)
	}
	return buf.String(), nil
}

// injectAlign adds exactly one text-align style (or, in CSS mode, a
// notectl-align-* class) to b's outer element unless outerHTML already
// contains a text-align declaration of its own.
func (s *serializer) injectAlign(b *model.BlockNode, outerHTML string) string {
	align, ok := b.Attrs["align"].(string)
	if !ok {
		return outerHTML
	}
	switch align {
	case "left", "center", "right", "justify":
	default:
		return outerHTML
	}
	if strings.Contains(outerHTML, "text-align") || strings.Contains(outerHTML, "notectl-align-") {
		return outerHTML
	}
	end := strings.IndexByte(outerHTML, '>')
	if end < 0 {
		return outerHTML
	}
	openTag := outerHTML[:end]
	rest := outerHTML[end:]
	if s.cssMode {
		class := "notectl-align-" + strings.ToUpper(align)
		if strings.Contains(openTag, `class="`) {
			openTag = strings.Replace(openTag, `class="`, `class="`+class+` `, 1)
		} else {
			openTag += ` class="` + class + `"`
		}
		return openTag + rest
	}
	style := "text-align: " + align
	if strings.Contains(openTag, `style="`) {
		openTag = strings.Replace(openTag, `style="`, `style="`+style+"; ", 1)
	} else {
		openTag += ` style="` + style + `"`
	}
	return openTag + rest
}

// SerializeInline renders a run of inline content the same way a leaf
// block's own content renders, without any enclosing block tag. The
// reconciler calls this to build a block's inline DOM from the identical
// tag-mark/style-mark consolidation rules, rather than duplicating them.
func SerializeInline(items []model.InlineItem, reg *schema.Registry) (string, error) {
	s := &serializer{reg: reg}
	return s.serializeInline(items)
}

// serializeInline renders a leaf block's inline content: it coalesces
// adjacent text runs with identical mark sets, partitions each run's marks
// into tag marks and style marks, and wraps the escaped text accordingly.
// An empty item list renders as the empty string; the <br> placeholder of
// an empty block is added by wrap, not here.
func (s *serializer) serializeInline(items []model.InlineItem) (string, error) {
	if len(items) == 0 {
		return "", nil
	}
	runs := coalesceRuns(items)
	var out strings.Builder
	for _, r := range runs {
		switch v := r.(type) {
		case textRun:
			rendered, err := s.renderTextRun(v)
			if err != nil {
				return "", err
			}
			out.WriteString(rendered)
		case *model.InlineNode:
			rendered, err := s.renderInlineNode(v)
			if err != nil {
				return "", err
			}
			out.WriteString(rendered)
		}
	}
	return out.String(), nil
}

type textRun struct {
	text  string
	marks []model.Mark
}

// coalesceRuns merges adjacent TextSegments with identical mark sets
// (order-insensitive) into single textRuns; an InlineNode always breaks a
// run and is passed through as its own element.
func coalesceRuns(items []model.InlineItem) []any {
	var out []any
	var pending *textRun
	flush := func() {
		if pending != nil {
			out = append(out, *pending)
			pending = nil
		}
	}
	for _, it := range items {
		switch v := it.(type) {
		case model.TextSegment:
			if pending != nil && model.MarkSetsEqual(pending.marks, v.Marks) {
				pending.text += v.Text
				continue
			}
			flush()
			pending = &textRun{text: v.Text, marks: v.Marks}
		case model.InlineNode:
			flush()
			node := v
			out = append(out, &node)
		}
	}
	flush()
	return out
}

func (s *serializer) renderInlineNode(n *model.InlineNode) (string, error) {
	spec, ok := s.reg.InlineNodeType(n.Type)
	if !ok {
		return "", fmt.Errorf("htmlserializer: unknown inline node type %q", n.Type.String())
	}
	if spec.ToHTML != nil {
		return spec.ToHTML(n), nil
	}
	if spec.ToDOM == nil {
		return "", nil
	}
	var buf bytes.Buffer
	if err := html.Render(&buf, spec.ToDOM(n)); err != nil {
		return "", fmt.Errorf("htmlserializer: rendering inline node: %w", err)
	}
	return buf.String(), nil
}

func (s *serializer) renderTextRun(r textRun) (string, error) {
	content := escapeText(r.text)
	ranked := s.reg.SortMarksByRank(r.marks)

	var tagMarks []model.Mark
	var styleFrags []string
	for _, m := range ranked {
		spec, ok := s.reg.MarkType(m.Type)
		if !ok {
			continue
		}
		if spec.IsStyleMark() {
			frag, ok := spec.ToHTMLStyle(m)
			if ok && frag != "" {
				styleFrags = append(styleFrags, frag)
			}
			continue
		}
		if spec.IsTagMark() {
			tagMarks = append(tagMarks, m)
		}
	}

	if len(styleFrags) > 0 {
		sort.Strings(styleFrags)
		rule := strings.Join(styleFrags, "; ")
		if s.cssMode {
			content = fmt.Sprintf(`<span class="%s">%s</span>`, s.classFor(rule), content)
		} else {
			content = fmt.Sprintf(`<span style="%s">%s</span>`, rule, content)
		}
	}

	// Tag marks nest lowest rank outermost, so wrap from the highest-ranked
	// (innermost) mark outward.
	for i := len(tagMarks) - 1; i >= 0; i-- {
		spec, _ := s.reg.MarkType(tagMarks[i].Type)
		wrapped, ok := spec.ToHTMLString(tagMarks[i], content)
		if !ok {
			continue
		}
		content = wrapped
	}
	return content, nil
}

func escapeText(s string) string {
	r := strings.NewReplacer(`&`, "&amp;", `<`, "&lt;", `>`, "&gt;", `"`, "&quot;")
	return r.Replace(s)
}
