// Package htmlparser turns raw HTML — typed directly, or pasted from a
// browser, Word, Google Docs, or Apple Pages — into a slice of top-level
// document blocks: the schema-aware inverse of htmlserializer. It
// normalizes per-source quirks in place on the parsed DOM tree before a
// structural walk maps elements to node/mark types.
package htmlparser

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/Samyssmile/notectl-sub003/ident"
	"github.com/Samyssmile/notectl-sub003/model"
	"github.com/Samyssmile/notectl-sub003/schema"
)

// Source identifies the HTML's likely origin, detected by fingerprint
// before normalization; each source gets its own quirks-stripping pass.
type Source int

const (
	SourcePlain Source = iota
	SourceWord
	SourceGoogleDocs
	SourcePages
)

// Parser parses HTML into block content against a fixed schema, minting a
// fresh BlockId for every block it builds.
type Parser struct {
	Registry *schema.Registry
	Gen      ident.Generator
}

// NewParser returns a Parser backed by the default UUID id generator.
func NewParser(reg *schema.Registry) *Parser {
	return &Parser{Registry: reg, Gen: ident.UUIDGenerator{}}
}

// Parse converts raw into a slice of top-level blocks, suitable either as
// a full document replacement (setHTML) or as content to splice in at a
// position (pasteHTML). An empty or whitespace-only input yields a single
// empty paragraph, never a zero-length slice, so a document built from
// the result is never left with no blocks.
func (p *Parser) Parse(raw string) ([]*model.BlockNode, error) {
	src := detectSource(raw)
	root, err := html.Parse(strings.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("htmlparser: parsing HTML: %w", err)
	}

	switch src {
	case SourceWord:
		stripConditionalTail(root)
		removeNamespacedElements(root)
		removeMsoIgnoredSpans(root)
		stripStylePrefix(root, "mso-")
		unwrapStyleOnlySpans(root)
		convertMsoLists(root)
	case SourceGoogleDocs:
		unwrapDocsInternalGuid(root)
		styleToTags(root)
	case SourcePages:
		styleToTags(root)
	}
	stripStyleAndClass(root)
	if src == SourceWord {
		dropEmptyParagraphs(root)
	}

	body := findAtom(root, atom.Body)
	var first *html.Node
	if body != nil {
		first = body.FirstChild
	} else {
		first = root.FirstChild
	}

	w := &walker{reg: p.Registry, gen: p.Gen}
	blocks := w.walkBlocks(first)
	if len(blocks) == 0 {
		blocks = []*model.BlockNode{w.emptyParagraph()}
	}
	return blocks, nil
}

// detectSource fingerprints raw HTML text for telltale markers left by
// Word, Google Docs, and Apple Pages exports, per spec.
func detectSource(raw string) Source {
	switch {
	case strings.Contains(raw, `class="Mso`) || strings.Contains(raw, "xmlns:w=") || strings.Contains(raw, "<!--[if gte mso"):
		return SourceWord
	case strings.Contains(raw, `id="docs-internal-guid`) || strings.Contains(raw, "data-sheets-"):
		return SourceGoogleDocs
	case strings.Contains(raw, "-webkit-text-stroke") || strings.Contains(raw, `content="Pages`):
		return SourcePages
	default:
		return SourcePlain
	}
}
