// Package ident defines the branded identifier types shared across the
// engine: BlockId, NodeTypeName, MarkTypeName and InlineNodeTypeName.
//
// Each is a single-field wrapper struct rather than a bare string, so that
// a BlockId can never be passed where a MarkTypeName is expected even
// though both are, underneath, just strings. Equality is plain string
// equality; there is no structural comparison beyond that. Values are
// forged only through the constructor functions in this package — there is
// no exported field to poke at directly from outside.
package ident

import "github.com/google/uuid"

// BlockId identifies a BlockNode uniquely within a document.
type BlockId struct{ v string }

// NewBlockID mints a fresh, globally unique BlockId.
func NewBlockID() BlockId {
	return BlockId{v: uuid.NewString()}
}

// BlockIDFrom wraps an existing string as a BlockId, e.g. when deserializing
// a document from JSON or when a Generator hands out deterministic ids.
func BlockIDFrom(s string) BlockId { return BlockId{v: s} }

// String returns the wrapped string.
func (b BlockId) String() string { return b.v }

// IsZero reports whether b is the zero value (no id assigned).
func (b BlockId) IsZero() bool { return b.v == "" }

// Generator mints BlockIds. The default implementation wraps
// uuid.NewString; tests and the HTML parser's golden fixtures inject a
// deterministic generator instead so output is reproducible.
type Generator interface {
	NextBlockID() BlockId
}

// UUIDGenerator is the default Generator, backed by google/uuid.
type UUIDGenerator struct{}

// NextBlockID implements Generator.
func (UUIDGenerator) NextBlockID() BlockId { return NewBlockID() }

// SequentialGenerator hands out "b1", "b2", ... in order. Useful for tests
// and for deterministic HTML-parse fixtures.
type SequentialGenerator struct {
	prefix string
	next   int
}

// NewSequentialGenerator builds a SequentialGenerator with the given
// prefix (e.g. "b" yields b1, b2, b3, ...).
func NewSequentialGenerator(prefix string) *SequentialGenerator {
	return &SequentialGenerator{prefix: prefix, next: 1}
}

// NextBlockID implements Generator.
func (g *SequentialGenerator) NextBlockID() BlockId {
	id := BlockIDFrom(g.prefix + itoa(g.next))
	g.next++
	return id
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// NodeTypeName names a block node type, e.g. "paragraph", "heading", "table".
type NodeTypeName struct{ v string }

// NewNodeTypeName forges a NodeTypeName.
func NewNodeTypeName(s string) NodeTypeName { return NodeTypeName{v: s} }

// String returns the wrapped string.
func (n NodeTypeName) String() string { return n.v }

// MarkTypeName names a mark type, e.g. "bold", "textColor".
type MarkTypeName struct{ v string }

// NewMarkTypeName forges a MarkTypeName.
func NewMarkTypeName(s string) MarkTypeName { return MarkTypeName{v: s} }

// String returns the wrapped string.
func (m MarkTypeName) String() string { return m.v }

// InlineNodeTypeName names an inline node type, e.g. "hard_break", "image".
type InlineNodeTypeName struct{ v string }

// NewInlineNodeTypeName forges an InlineNodeTypeName.
func NewInlineNodeTypeName(s string) InlineNodeTypeName { return InlineNodeTypeName{v: s} }

// String returns the wrapped string.
func (i InlineNodeTypeName) String() string { return i.v }
