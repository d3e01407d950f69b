package schema

import (
	"fmt"
	"sort"

	"github.com/Samyssmile/notectl-sub003/ident"
	"github.com/Samyssmile/notectl-sub003/model"
)

// Registry is the compiled node/mark/inline-node table a document is
// validated and rendered against. Registration is monotonic: plugins call
// RegisterNode/RegisterMark/RegisterInlineNode during editor construction,
// then the host calls Freeze once, after which every lookup is a plain map
// read and further registration panics. ReplaceNode/ReplaceMark exist for
// the one sanctioned post-init case: a plugin overriding a built-in type
// by removing and re-adding it before Freeze is called.
type Registry struct {
	nodes       map[string]*NodeSpec
	nodeOrder   []string
	inline      map[string]*InlineNodeSpec
	inlineOrder []string
	marks       map[string]*MarkSpec
	markOrder   []string
	frozen      bool
}

// NewRegistry returns an empty, unfrozen registry.
func NewRegistry() *Registry {
	return &Registry{
		nodes:  map[string]*NodeSpec{},
		inline: map[string]*InlineNodeSpec{},
		marks:  map[string]*MarkSpec{},
	}
}

func (r *Registry) mustNotBeFrozen(op string) {
	if r.frozen {
		panic(fmt.Sprintf("schema: %s called after Freeze", op))
	}
}

// RegisterNode adds a block node type. Registering a type name twice
// without an intervening removal panics: registration order is the
// editor's plugin load order, and a silent overwrite would make that order
// matter in ways a plugin author can't see.
func (r *Registry) RegisterNode(spec *NodeSpec) {
	r.mustNotBeFrozen("RegisterNode")
	name := spec.Type.String()
	if _, exists := r.nodes[name]; exists {
		panic(fmt.Sprintf("schema: node type %q already registered", name))
	}
	r.nodes[name] = spec
	r.nodeOrder = append(r.nodeOrder, name)
}

// ReplaceNode removes any existing registration for spec's type name (if
// present) and registers spec in its place, preserving that name's
// original position in node order.
func (r *Registry) ReplaceNode(spec *NodeSpec) {
	r.mustNotBeFrozen("ReplaceNode")
	name := spec.Type.String()
	if _, exists := r.nodes[name]; !exists {
		r.nodeOrder = append(r.nodeOrder, name)
	}
	r.nodes[name] = spec
}

// RegisterInlineNode adds an inline node type.
func (r *Registry) RegisterInlineNode(spec *InlineNodeSpec) {
	r.mustNotBeFrozen("RegisterInlineNode")
	name := spec.Type.String()
	if _, exists := r.inline[name]; exists {
		panic(fmt.Sprintf("schema: inline node type %q already registered", name))
	}
	r.inline[name] = spec
	r.inlineOrder = append(r.inlineOrder, name)
}

// RegisterMark adds a mark type.
func (r *Registry) RegisterMark(spec *MarkSpec) {
	r.mustNotBeFrozen("RegisterMark")
	name := spec.Type.String()
	if _, exists := r.marks[name]; exists {
		panic(fmt.Sprintf("schema: mark type %q already registered", name))
	}
	r.marks[name] = spec
	r.markOrder = append(r.markOrder, name)
}

// ReplaceMark removes any existing registration for spec's type name (if
// present) and registers spec in its place.
func (r *Registry) ReplaceMark(spec *MarkSpec) {
	r.mustNotBeFrozen("ReplaceMark")
	name := spec.Type.String()
	if _, exists := r.marks[name]; !exists {
		r.markOrder = append(r.markOrder, name)
	}
	r.marks[name] = spec
}

// Freeze closes registration. Calling it twice is a no-op.
func (r *Registry) Freeze() {
	r.frozen = true
}

// Frozen reports whether Freeze has been called.
func (r *Registry) Frozen() bool { return r.frozen }

// NodeType looks up a block node type by name.
func (r *Registry) NodeType(name ident.NodeTypeName) (*NodeSpec, bool) {
	spec, ok := r.nodes[name.String()]
	return spec, ok
}

// InlineNodeType looks up an inline node type by name.
func (r *Registry) InlineNodeType(name ident.InlineNodeTypeName) (*InlineNodeSpec, bool) {
	spec, ok := r.inline[name.String()]
	return spec, ok
}

// MarkType looks up a mark type by name.
func (r *Registry) MarkType(name ident.MarkTypeName) (*MarkSpec, bool) {
	spec, ok := r.marks[name.String()]
	return spec, ok
}

// NodeTypes returns every registered node spec in registration order.
func (r *Registry) NodeTypes() []*NodeSpec {
	out := make([]*NodeSpec, 0, len(r.nodeOrder))
	for _, name := range r.nodeOrder {
		out = append(out, r.nodes[name])
	}
	return out
}

// InlineNodeTypes returns every registered inline node spec in
// registration order.
func (r *Registry) InlineNodeTypes() []*InlineNodeSpec {
	out := make([]*InlineNodeSpec, 0, len(r.inlineOrder))
	for _, name := range r.inlineOrder {
		out = append(out, r.inline[name])
	}
	return out
}

// MarkTypes returns every registered mark spec in registration order.
func (r *Registry) MarkTypes() []*MarkSpec {
	out := make([]*MarkSpec, 0, len(r.markOrder))
	for _, name := range r.markOrder {
		out = append(out, r.marks[name])
	}
	return out
}

// AllowsMarkOn reports whether markType may be applied within blockType.
// An unknown blockType allows every mark (the caller is expected to have
// already validated the block type exists, where that matters).
func (r *Registry) AllowsMarkOn(blockType ident.NodeTypeName, markType ident.MarkTypeName) bool {
	spec, ok := r.nodes[blockType.String()]
	if !ok || spec.ExcludeMarks == nil {
		return true
	}
	if len(spec.ExcludeMarks) == 0 {
		return false
	}
	for _, excluded := range spec.ExcludeMarks {
		if excluded == markType {
			return false
		}
	}
	return true
}

// ValidChildType reports whether childType may appear as a direct child
// of a compound parentType, per the parent's content.allow list.
func (r *Registry) ValidChildType(parentType, childType ident.NodeTypeName) bool {
	spec, ok := r.nodes[parentType.String()]
	if !ok {
		return true
	}
	return spec.Content.permits(childType.String())
}

// ValidInlineNodeType reports whether inlineType may appear as content of
// an inline-leaf parentType, per the parent's content.allow list.
func (r *Registry) ValidInlineNodeType(parentType ident.NodeTypeName, inlineType ident.InlineNodeTypeName) bool {
	spec, ok := r.nodes[parentType.String()]
	if !ok {
		return true
	}
	return spec.Content.permits(inlineType.String())
}

// SortMarksByRank returns a copy of marks sorted by ascending
// MarkSpec.Rank (unknown mark types sort after all known ones, stably by
// their relative input order). This is the rank-aware counterpart to
// model.MarkSetsEqual: the model package compares mark sets without
// caring about rank, and this package is where rank-ordering — which
// drives tag-mark nesting order in the HTML serializer — actually lives.
func (r *Registry) SortMarksByRank(marks []model.Mark) []model.Mark {
	out := append([]model.Mark(nil), marks...)
	unknownRank := 0
	for _, spec := range r.marks {
		if spec.Rank >= unknownRank {
			unknownRank = spec.Rank + 1
		}
	}
	rankOf := func(m model.Mark) int {
		if spec, ok := r.marks[m.Type.String()]; ok {
			return spec.Rank
		}
		return unknownRank
	}
	sort.SliceStable(out, func(i, j int) bool {
		return rankOf(out[i]) < rankOf(out[j])
	})
	return out
}

// AllowedTagsAttrs returns the sanitizer's allowlist: the union of every
// registered node, inline node, and mark type's SanitizeSpec, deduplicated
// and sorted for deterministic output.
func (r *Registry) AllowedTagsAttrs() (tags []string, attrs []string) {
	tagSet := map[string]bool{}
	attrSet := map[string]bool{}
	add := func(s SanitizeSpec) {
		for _, t := range s.Tags {
			tagSet[t] = true
		}
		for _, a := range s.Attrs {
			attrSet[a] = true
		}
	}
	for _, name := range r.nodeOrder {
		add(r.nodes[name].Sanitize)
	}
	for name, spec := range r.inline {
		_ = name
		add(spec.Sanitize)
	}
	for _, name := range r.markOrder {
		add(r.marks[name].Sanitize)
	}
	tags = setToSortedSlice(tagSet)
	attrs = setToSortedSlice(attrSet)
	return tags, attrs
}

func setToSortedSlice(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
