package htmlserializer

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/Samyssmile/notectl-sub003/model"
)

// renderListRun re-nests a flat run of sibling list_item/checklist_item
// blocks, each carrying (listType, indent) attrs, into actual <ul>/<ol>
// hierarchy: it walks the run while maintaining a wrapper-stack keyed by
// (tag, indent). A depth increase opens a new <ul>/<ol> inside the
// preceding <li>; a depth decrease closes wrappers until the level
// matches. Each item's own <li> (with any checklist markup) comes from the
// ordinary serializeBlock path, so list_item's registered ToDOM/ToHTML is
// never bypassed.
func (s *serializer) renderListRun(items []*model.BlockNode) (string, error) {
	type frame struct {
		tag    string
		indent int
		node   *html.Node
		lastLI *html.Node
	}
	var stack []frame
	var roots []*html.Node

	for _, item := range items {
		indent := attrInt(item, "indent", 0)
		tag := listTagFor(item)

		for len(stack) > 0 && stack[len(stack)-1].indent > indent {
			stack = stack[:len(stack)-1]
		}
		if len(stack) > 0 && stack[len(stack)-1].indent == indent && stack[len(stack)-1].tag != tag {
			stack = stack[:len(stack)-1]
		}
		if len(stack) == 0 || stack[len(stack)-1].indent < indent {
			wrapper := &html.Node{Type: html.ElementNode, Data: tag, DataAtom: atom.Lookup([]byte(tag))}
			if len(stack) == 0 {
				roots = append(roots, wrapper)
			} else {
				parent := stack[len(stack)-1]
				if parent.lastLI != nil {
					parent.lastLI.AppendChild(wrapper)
				} else {
					parent.node.AppendChild(wrapper)
				}
			}
			stack = append(stack, frame{tag: tag, indent: indent, node: wrapper})
		}

		liHTML, err := s.serializeBlock(item)
		if err != nil {
			return "", err
		}
		liNode, err := parseSingleElement(liHTML, stack[len(stack)-1].tag)
		if err != nil {
			return "", err
		}
		top := len(stack) - 1
		stack[top].node.AppendChild(liNode)
		stack[top].lastLI = liNode
	}

	var buf bytes.Buffer
	for _, r := range roots {
		if err := html.Render(&buf, r); err != nil {
			return "", fmt.Errorf("htmlserializer: rendering list: %w", err)
		}
	}
	return buf.String(), nil
}

func listTagFor(item *model.BlockNode) string {
	if item.Type.String() == "checklist_item" {
		return "ul"
	}
	if lt, ok := item.Attrs["listType"].(string); ok && lt == "ordered" {
		return "ol"
	}
	return "ul"
}

func attrInt(b *model.BlockNode, key string, fallback int) int {
	v, ok := b.Attrs[key]
	if !ok {
		return fallback
	}
	switch n := v.(type) {
	case int:
		return n
	case float64:
		return int(n)
	default:
		return fallback
	}
}

// parseSingleElement parses an already-serialized element (e.g. a single
// <li>...</li>) back into a *html.Node so it can be attached under a
// constructed wrapper, using containerTag as the fragment parse context so
// the element is recognized in its expected position (an <li> only parses
// correctly as a list item when the context is <ul> or <ol>).
func parseSingleElement(htmlStr, containerTag string) (*html.Node, error) {
	context := &html.Node{Type: html.ElementNode, Data: containerTag, DataAtom: atom.Lookup([]byte(containerTag))}
	nodes, err := html.ParseFragment(strings.NewReader(htmlStr), context)
	if err != nil {
		return nil, fmt.Errorf("htmlserializer: parsing list item: %w", err)
	}
	for _, n := range nodes {
		if n.Type == html.ElementNode {
			return n, nil
		}
	}
	if len(nodes) == 0 {
		return nil, fmt.Errorf("htmlserializer: empty list item fragment")
	}
	return nodes[0], nil
}
