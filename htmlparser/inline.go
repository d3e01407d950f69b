package htmlparser

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/Samyssmile/notectl-sub003/ident"
	"github.com/Samyssmile/notectl-sub003/model"
)

// walkInline maps a leaf block's DOM children to inline content, tracking
// which marks are active as it descends into STRONG/EM/U/S/A/CODE
// wrappers. BR contributes a literal "\n" text segment rather than a
// structural node, per spec; SUB/SUP recurse without contributing a mark,
// since this schema bundle defines no corresponding mark type for them.
func (w *walker) walkInline(nodes []*html.Node) []model.InlineItem {
	var items []model.InlineItem
	var walk func(n *html.Node, marks []model.Mark)
	walk = func(n *html.Node, marks []model.Mark) {
		switch n.Type {
		case html.TextNode:
			if n.Data == "" {
				return
			}
			items = append(items, model.TextSegment{Text: n.Data, Marks: marks})
			return
		case html.CommentNode, html.DoctypeNode:
			return
		case html.ElementNode:
		default:
			return
		}

		if n.DataAtom == atom.Br {
			items = append(items, model.TextSegment{Text: "\n", Marks: marks})
			return
		}

		next := marks
		if mark, ok := w.inlineMark(n); ok {
			next = appendMark(marks, mark)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, next)
		}
	}
	for _, n := range nodes {
		walk(n, nil)
	}
	return items
}

// appendMark adds mark to marks, replacing any existing mark of the same
// type (a nested re-declaration of the same tag wins with its own attrs).
func appendMark(marks []model.Mark, mark model.Mark) []model.Mark {
	out := make([]model.Mark, 0, len(marks)+1)
	for _, m := range marks {
		if m.Type != mark.Type {
			out = append(out, m)
		}
	}
	return append(out, mark)
}

// inlineMark maps a single element to the mark it contributes, checking
// plugin-registered ParseRule entries first (by tag, highest priority
// wins) and falling back to the built-in tag table.
func (w *walker) inlineMark(n *html.Node) (model.Mark, bool) {
	if markType, attrs, ok := w.matchMarkRule(n); ok {
		return model.Mark{Type: markType, Attrs: attrs}, true
	}

	switch n.DataAtom {
	case atom.Strong, atom.B:
		return model.Mark{Type: ident.NewMarkTypeName("bold")}, true
	case atom.Em, atom.I:
		return model.Mark{Type: ident.NewMarkTypeName("italic")}, true
	case atom.U:
		return model.Mark{Type: ident.NewMarkTypeName("underline")}, true
	case atom.S, atom.Strike, atom.Del:
		return model.Mark{Type: ident.NewMarkTypeName("strike")}, true
	case atom.Code:
		return model.Mark{Type: ident.NewMarkTypeName("code")}, true
	case atom.A:
		attrs := map[string]string{}
		if href, ok := elementAttr(n, "href"); ok {
			attrs["href"] = href
		}
		if title, ok := elementAttr(n, "title"); ok {
			attrs["title"] = title
		}
		return model.Mark{Type: ident.NewMarkTypeName("link"), Attrs: attrs}, true
	default:
		return model.Mark{}, false
	}
}

// matchMarkRule returns the highest-priority registered MarkSpec
// ParseRule matching n, by tag or (if the attribute survived
// normalization) by inline style property.
func (w *walker) matchMarkRule(n *html.Node) (ident.MarkTypeName, map[string]string, bool) {
	var bestType ident.MarkTypeName
	var bestAttrs map[string]any
	bestPriority := 0
	found := false
	style, hasStyle := elementAttr(n, "style")

	for _, spec := range w.reg.MarkTypes() {
		for _, rule := range spec.ParseHTML {
			matched := rule.Tag != "" && rule.Tag == n.Data
			if !matched && rule.StyleProp != "" && hasStyle && strings.Contains(style, rule.StyleProp+":") {
				matched = true
			}
			if !matched || rule.GetAttrs == nil {
				continue
			}
			attrs, ok := rule.GetAttrs(n)
			if !ok {
				continue
			}
			if !found || rule.Priority > bestPriority {
				bestType, bestAttrs, bestPriority, found = spec.Type, attrs, rule.Priority, true
			}
		}
	}
	if !found {
		return ident.MarkTypeName{}, nil, false
	}
	strAttrs := make(map[string]string, len(bestAttrs))
	for k, v := range bestAttrs {
		if s, ok := v.(string); ok {
			strAttrs[k] = s
		}
	}
	return bestType, strAttrs, true
}
