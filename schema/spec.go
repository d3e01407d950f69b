// Package schema is the engine's single source of truth for what a
// document may contain and how it is rendered to and parsed from HTML: it
// holds the NodeSpec/MarkSpec/InlineNodeSpec tables, the parse-rule table,
// and the sanitizer's allowed-tags/allowed-attrs union.
//
// The runtime plugin surface that a command or keymap handler touches
// (Commands, Keymaps, Middleware, Services, InputRules,
// BlockTypePickerEntries) lives in the sibling package plugin instead of
// here: those types close over transform.Transaction and state.EditorState,
// which in turn depend on this package for node/mark lookups, so keeping
// them here would create an import cycle. See DESIGN.md for the Open
// Question 1 factoring this resolves.
package schema

import (
	"golang.org/x/net/html"

	"github.com/Samyssmile/notectl-sub003/ident"
	"github.com/Samyssmile/notectl-sub003/model"
)

// AttributeSpec describes one attribute a node or mark type carries.
type AttributeSpec struct {
	Default    any
	HasDefault bool
}

// ContentRule restricts which children a node type may have. For a
// compound node type (see NodeSpec.Inline == false, NodeSpec.IsVoid ==
// false) Allow names the permitted child NodeTypeNames. For an
// inline-content (leaf) node type, Allow names the permitted
// InlineNodeTypeNames that may appear alongside text; an empty Allow means
// every registered inline node type is permitted.
type ContentRule struct {
	Allow []string
}

func (c ContentRule) permits(name string) bool {
	if len(c.Allow) == 0 {
		return true
	}
	for _, a := range c.Allow {
		if a == name {
			return true
		}
	}
	return false
}

// WrapperSpec describes the outer element the HTML serializer's list
// re-nesting pass (see htmlserializer) should use when it needs to invent
// a wrapper around a run of same-level nodes (e.g. <ul>/<ol> around
// list_item runs).
type WrapperSpec struct {
	Tag       string
	Key       string
	ClassName string
	Attrs     map[string]string
}

// SanitizeSpec contributes to the sanitizer's allowlist (see
// Registry.AllowedTagsAttrs). Contributions from every registered node,
// inline node, and mark are unioned and deduplicated.
type SanitizeSpec struct {
	Tags  []string
	Attrs []string
}

// ParseRule matches an HTML element (or, for marks, an inline style
// declaration) during parsing (see htmlparser). Priority is a plain
// integer; higher runs first, and plugin-registered rules take priority
// over a schema's own built-in fallback rules by being given a higher
// number.
type ParseRule struct {
	// Tag is an element-name matcher, e.g. "p", "strong". Empty means this
	// rule matches by StyleProp instead (used by style marks such as a
	// color read off a CSS `color` declaration).
	Tag string
	// StyleProp, when set, makes this rule match elements carrying the
	// named inline-style property instead of (or alongside) Tag.
	StyleProp string
	Priority  int
	// GetAttrs extracts node/mark attrs from the matched element. Returning
	// ok=false rejects the match, letting parsing fall through to the next
	// rule.
	GetAttrs func(el *html.Node) (attrs map[string]any, ok bool)
}

// NodeSpec describes a block node type.
type NodeSpec struct {
	Type    ident.NodeTypeName
	Group   string
	Content ContentRule
	Attrs   map[string]AttributeSpec
	// ExcludeMarks lists mark types not allowed inside this node. A nil
	// slice allows every registered mark; an empty non-nil slice allows
	// none.
	ExcludeMarks []ident.MarkTypeName
	// Inline marks this as a leaf, inline-content node type (paragraph,
	// heading, code_block, ...). false means a compound node type whose
	// children are further block nodes (table, table_row, ...), unless
	// IsVoid is set.
	Inline bool
	// IsVoid marks a node type that holds no editable content at all
	// (horizontal_rule, image-as-block).
	IsVoid bool
	// IsIsolating marks a node type across whose outer boundary normal
	// cursor navigation does not pass (e.g. table).
	IsIsolating bool
	// Selectable marks a node type that can be the target of a
	// NodeSelection (implied true for void nodes).
	Selectable bool
	ToDOM      func(node *model.BlockNode) *html.Node
	ToHTML     func(node *model.BlockNode, innerHTML string) string
	ParseHTML  []ParseRule
	Wrapper    func(node *model.BlockNode) *WrapperSpec
	Sanitize   SanitizeSpec
}

// InlineNodeSpec describes an inline node type: always void, always
// length 1.
type InlineNodeSpec struct {
	Type      ident.InlineNodeTypeName
	Attrs     map[string]AttributeSpec
	ToDOM     func(node *model.InlineNode) *html.Node
	ToHTML    func(node *model.InlineNode) string
	ParseHTML []ParseRule
	Sanitize  SanitizeSpec
}

// MarkSpec describes a mark type.
type MarkSpec struct {
	Type ident.MarkTypeName
	// Rank determines sort order within a mark set, and therefore tag-mark
	// nesting order in the HTML serializer (lowest rank outermost).
	Rank int
	// Excludes lists mark types that cannot coexist with this one in the
	// same set (adding this mark removes those from the set).
	Excludes []ident.MarkTypeName
	ToDOM    func(m model.Mark) *html.Node
	// ToHTMLString, when set, makes this a "tag mark": it renders as a
	// dedicated wrapper element. Returns ok=false when the mark's attrs
	// fail validation (e.g. an invalid CSS color), in which case the
	// wrapper is omitted and raw content is emitted instead.
	ToHTMLString func(m model.Mark, innerHTML string) (html string, ok bool)
	// ToHTMLStyle, when set, makes this a "style mark": it contributes a
	// "prop: value" fragment to a shared <span style="..."> instead of its
	// own element. Returns ok=false on invalid attrs (dropped silently).
	ToHTMLStyle func(m model.Mark) (style string, ok bool)
	ParseHTML   []ParseRule
	Sanitize    SanitizeSpec
}

// IsTagMark reports whether spec renders as its own element wrapper.
func (m *MarkSpec) IsTagMark() bool { return m.ToHTMLString != nil }

// IsStyleMark reports whether spec contributes to a shared style span.
func (m *MarkSpec) IsStyleMark() bool { return m.ToHTMLStyle != nil }
