package htmlparser

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// findAtom returns the first descendant of n (depth-first, including n
// itself) whose DataAtom matches a, or nil.
func findAtom(n *html.Node, a atom.Atom) *html.Node {
	if n == nil {
		return nil
	}
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findAtom(c, a); found != nil {
			return found
		}
	}
	return nil
}

// findChildAtoms returns n's direct children whose DataAtom matches a.
func findChildAtoms(n *html.Node, a atom.Atom) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == a {
			out = append(out, c)
		}
	}
	return out
}

func elementAttr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func hasClassContaining(n *html.Node, substr string) bool {
	class, ok := elementAttr(n, "class")
	return ok && strings.Contains(class, substr)
}

// removeNode detaches n from its parent's child list.
func removeNode(n *html.Node) {
	if n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}

// unwrapNode replaces n in its parent with n's own children, preserving
// their relative order — used for wrapper elements that contribute no
// semantic content of their own (a style-only <span>, a Google Docs guid
// <b> wrapper).
func unwrapNode(n *html.Node) {
	parent := n.Parent
	if parent == nil {
		return
	}
	var children []*html.Node
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		children = append(children, c)
		c = next
	}
	for _, c := range children {
		n.RemoveChild(c)
		parent.InsertBefore(c, n)
	}
	parent.RemoveChild(n)
}

// stripConditionalTail is a no-op placeholder: Word's conditional comments
// (<!--[if gte mso 9]>...<![endif]-->) already parse as a single
// html.CommentNode under the standard (non-IE) HTML parsing algorithm
// golang.org/x/net/html implements, since nothing inside them closes the
// comment early. The block walker already skips CommentNode, so there is
// nothing further to strip once parsing has happened.
func stripConditionalTail(root *html.Node) {}

// removeNamespacedElements drops MSO's o:*, v:*, w:* elements (document
// properties, VML shapes, Word metadata) entirely, along with their
// subtrees — none of it is editable document content.
func removeNamespacedElements(root *html.Node) {
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		c := n.FirstChild
		for c != nil {
			next := c.NextSibling
			if c.Type == html.ElementNode && isNamespacedTag(c.Data) {
				removeNode(c)
			} else {
				walk(c)
			}
			c = next
		}
	}
	walk(root)
}

func isNamespacedTag(tag string) bool {
	for _, prefix := range []string{"o:", "v:", "w:"} {
		if strings.HasPrefix(strings.ToLower(tag), prefix) {
			return true
		}
	}
	return false
}

// removeMsoIgnoredSpans drops every <span style="mso-list:Ignore">
// element and its entire subtree. Word emits this marker around the
// legacy bullet glyph (a literal "·", "o", etc.) it renders ahead of each
// MsoListParagraph line; the glyph is not document content; it's already
// represented by convertMsoLists turning the run of paragraphs into a
// real <ul>/<ol>. This has to run before stripStylePrefix, which strips
// every mso-* declaration (including this one) and would otherwise leave
// behind a bare, attribute-less <span> that unwrapStyleOnlySpans then
// unwraps, splicing the glyph text into the list item.
func removeMsoIgnoredSpans(root *html.Node) {
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		c := n.FirstChild
		for c != nil {
			next := c.NextSibling
			if c.Type == html.ElementNode && c.DataAtom == atom.Span && hasMsoListIgnore(c) {
				removeNode(c)
			} else {
				walk(c)
			}
			c = next
		}
	}
	walk(root)
}

func hasMsoListIgnore(n *html.Node) bool {
	style, ok := elementAttr(n, "style")
	if !ok {
		return false
	}
	for _, decl := range strings.Split(style, ";") {
		decl = strings.TrimSpace(decl)
		i := strings.IndexByte(decl, ':')
		if i < 0 {
			continue
		}
		prop := strings.ToLower(strings.TrimSpace(decl[:i]))
		val := strings.ToLower(strings.TrimSpace(decl[i+1:]))
		if prop == "mso-list" && val == "ignore" {
			return true
		}
	}
	return false
}

// stripStylePrefix removes any style declaration whose property starts
// with prefix (e.g. MSO's "mso-*" junk) from every element's style attr.
func stripStylePrefix(root *html.Node, prefix string) {
	walkElements(root, func(n *html.Node) {
		style, ok := elementAttr(n, "style")
		if !ok {
			return
		}
		setStyleAttr(n, filterDeclarations(style, func(prop string) bool {
			return !strings.HasPrefix(strings.ToLower(strings.TrimSpace(prop)), prefix)
		}))
	})
}

// unwrapStyleOnlySpans removes <span> elements whose only attributes are
// style and/or class, splicing their children into the parent instead.
func unwrapStyleOnlySpans(root *html.Node) {
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		c := n.FirstChild
		for c != nil {
			next := c.NextSibling
			walk(c)
			if c.Type == html.ElementNode && c.DataAtom == atom.Span && onlyStyleOrClassAttrs(c) {
				unwrapNode(c)
			}
			c = next
		}
	}
	walk(root)
}

func onlyStyleOrClassAttrs(n *html.Node) bool {
	for _, a := range n.Attr {
		if a.Key != "style" && a.Key != "class" {
			return false
		}
	}
	return true
}

// convertMsoLists turns a run of consecutive <p class="MsoListParagraph...">
// siblings into a single <ul> wrapping one <li> per paragraph. Word marks
// every line of a pasted list this way instead of emitting real <ul>/<ol>.
func convertMsoLists(root *html.Node) {
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		child := n.FirstChild
		for child != nil {
			next := child.NextSibling
			if child.Type == html.ElementNode && child.DataAtom != atom.Ul && child.DataAtom != atom.Ol {
				walk(child)
			}
			child = next
		}

		c := n.FirstChild
		for c != nil {
			if c.Type == html.ElementNode && c.DataAtom == atom.P && hasClassContaining(c, "MsoListParagraph") {
				var run []*html.Node
				var trailingWhitespace []*html.Node
				cur := c
				for cur != nil {
					if cur.Type == html.ElementNode && cur.DataAtom == atom.P && hasClassContaining(cur, "MsoListParagraph") {
						run = append(run, cur)
						trailingWhitespace = nil
						cur = cur.NextSibling
						continue
					}
					if cur.Type == html.TextNode && strings.TrimSpace(cur.Data) == "" {
						trailingWhitespace = append(trailingWhitespace, cur)
						cur = cur.NextSibling
						continue
					}
					break
				}
				ul := &html.Node{Type: html.ElementNode, Data: "ul", DataAtom: atom.Ul}
				n.InsertBefore(ul, c)
				for _, p := range run {
					n.RemoveChild(p)
					li := &html.Node{Type: html.ElementNode, Data: "li", DataAtom: atom.Li}
					for gc := p.FirstChild; gc != nil; {
						gcNext := gc.NextSibling
						p.RemoveChild(gc)
						li.AppendChild(gc)
						gc = gcNext
					}
					ul.AppendChild(li)
				}
				for _, ws := range trailingWhitespace {
					removeNode(ws)
				}
				c = ul.NextSibling
				continue
			}
			c = c.NextSibling
		}
	}
	walk(root)
}

// unwrapDocsInternalGuid removes the <b id="docs-internal-guid-..."> (or
// similar) wrapper Google Docs puts around an entire pasted fragment.
func unwrapDocsInternalGuid(root *html.Node) {
	var found *html.Node
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if found != nil {
			return
		}
		if n.Type == html.ElementNode {
			if id, ok := elementAttr(n, "id"); ok && strings.HasPrefix(id, "docs-internal-guid") {
				found = n
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	if found != nil {
		unwrapNode(found)
	}
}

// styleToTags wraps an element's children in <strong>/<em>/<u>/<s> when
// its inline style indicates bold weight, italic style, underline, or
// strikethrough — Google Docs and Apple Pages express marks this way
// instead of emitting the corresponding tag directly.
func styleToTags(root *html.Node) {
	walkElements(root, func(n *html.Node) {
		style, ok := elementAttr(n, "style")
		if !ok || n.FirstChild == nil {
			return
		}
		decls := strings.ToLower(style)
		wrap := func(tag string, a atom.Atom) {
			wrapper := &html.Node{Type: html.ElementNode, Data: tag, DataAtom: a}
			n.InsertBefore(wrapper, n.FirstChild)
			for c := wrapper.NextSibling; c != nil; {
				next := c.NextSibling
				n.RemoveChild(c)
				wrapper.AppendChild(c)
				c = next
			}
		}
		if strings.Contains(decls, "font-weight:700") || strings.Contains(decls, "font-weight:bold") || strings.Contains(decls, "font-weight:600") {
			wrap("strong", atom.Strong)
		}
		if strings.Contains(decls, "font-style:italic") {
			wrap("em", atom.Em)
		}
		if strings.Contains(decls, "text-decoration:underline") {
			wrap("u", atom.U)
		}
		if strings.Contains(decls, "text-decoration:line-through") {
			wrap("s", atom.S)
		}
	})
}

// stripStyleAndClass is the final normalization pass for every source: no
// inline style or class attribute survives into the schema-aware walk.
func stripStyleAndClass(root *html.Node) {
	walkElements(root, func(n *html.Node) {
		removeAttr(n, "style")
		removeAttr(n, "class")
	})
}

// dropEmptyParagraphs removes <p> elements with no text content and no
// <img>/<br> descendant, left behind by Word's paragraph-per-line export.
func dropEmptyParagraphs(root *html.Node) {
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		c := n.FirstChild
		for c != nil {
			next := c.NextSibling
			walk(c)
			if c.Type == html.ElementNode && c.DataAtom == atom.P && isEmptyParagraph(c) {
				removeNode(c)
			}
			c = next
		}
	}
	walk(root)
}

func isEmptyParagraph(n *html.Node) bool {
	if findAtom(n, atom.Img) != nil || findAtom(n, atom.Br) != nil {
		return false
	}
	return strings.TrimSpace(textContent(n)) == ""
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

func walkElements(n *html.Node, f func(*html.Node)) {
	if n.Type == html.ElementNode {
		f(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walkElements(c, f)
	}
}

func removeAttr(n *html.Node, key string) {
	out := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Key != key {
			out = append(out, a)
		}
	}
	n.Attr = out
}

func setStyleAttr(n *html.Node, value string) {
	if value == "" {
		removeAttr(n, "style")
		return
	}
	for i, a := range n.Attr {
		if a.Key == "style" {
			n.Attr[i].Val = value
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: "style", Val: value})
}

// filterDeclarations keeps only the "prop: value" declarations of a style
// attribute value for which keep(prop) is true.
func filterDeclarations(style string, keep func(prop string) bool) string {
	var out []string
	for _, decl := range strings.Split(style, ";") {
		decl = strings.TrimSpace(decl)
		if decl == "" {
			continue
		}
		prop := decl
		if i := strings.IndexByte(decl, ':'); i >= 0 {
			prop = decl[:i]
		}
		if keep(prop) {
			out = append(out, decl)
		}
	}
	return strings.Join(out, "; ")
}
