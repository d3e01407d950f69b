package model

import (
	"encoding/json"
	"fmt"

	"github.com/Samyssmile/notectl-sub003/ident"
)

// jsonMark is the wire shape of a Mark: {"type": "...", "attrs": {...}}.
type jsonMark struct {
	Type  string            `json:"type"`
	Attrs map[string]string `json:"attrs,omitempty"`
}

func markToJSON(m Mark) jsonMark {
	return jsonMark{Type: m.Type.String(), Attrs: m.Attrs}
}

func markFromJSON(m jsonMark) Mark {
	return Mark{Type: ident.NewMarkTypeName(m.Type), Attrs: m.Attrs}
}

// jsonInlineItem is the wire shape of an inline item: a text node
// {"type":"text","text":"...","marks":[...]}, or an inline node
// {"type":"<name>","attrs":{...}}.
type jsonInlineItem struct {
	Type  string         `json:"type"`
	Text  string         `json:"text,omitempty"`
	Marks []jsonMark     `json:"marks,omitempty"`
	Attrs map[string]any `json:"attrs,omitempty"`
}

// jsonBlock is the wire shape of a BlockNode.
type jsonBlock struct {
	ID       string           `json:"id"`
	Type     string           `json:"type"`
	Attrs    map[string]any   `json:"attrs,omitempty"`
	Children []jsonBlock      `json:"children,omitempty"`
	Content  []jsonInlineItem `json:"content,omitempty"`
}

func blockToJSON(b *BlockNode) jsonBlock {
	out := jsonBlock{ID: b.ID.String(), Type: b.Type.String(), Attrs: b.Attrs}
	switch c := b.Content.(type) {
	case BlockChildren:
		out.Children = make([]jsonBlock, len(c.Blocks))
		for i, child := range c.Blocks {
			out.Children[i] = blockToJSON(child)
		}
	case InlineChildren:
		out.Content = make([]jsonInlineItem, len(c.Items))
		for i, it := range c.Items {
			switch v := it.(type) {
			case TextSegment:
				marks := make([]jsonMark, len(v.Marks))
				for j, m := range v.Marks {
					marks[j] = markToJSON(m)
				}
				out.Content[i] = jsonInlineItem{Type: "text", Text: v.Text, Marks: marks}
			case InlineNode:
				out.Content[i] = jsonInlineItem{Type: v.Type.String(), Attrs: v.Attrs}
			}
		}
	}
	return out
}

func blockFromJSON(b jsonBlock) *BlockNode {
	out := &BlockNode{ID: ident.BlockIDFrom(b.ID), Type: ident.NewNodeTypeName(b.Type), Attrs: b.Attrs}
	if len(b.Children) > 0 {
		blocks := make([]*BlockNode, len(b.Children))
		for i, child := range b.Children {
			blocks[i] = blockFromJSON(child)
		}
		out.Content = BlockChildren{Blocks: blocks}
	} else if len(b.Content) > 0 {
		items := make([]InlineItem, len(b.Content))
		for i, it := range b.Content {
			if it.Type == "text" {
				marks := make([]Mark, len(it.Marks))
				for j, m := range it.Marks {
					marks[j] = markFromJSON(m)
				}
				items[i] = TextSegment{Text: it.Text, Marks: marks}
			} else {
				items[i] = InlineNode{Type: ident.NewInlineNodeTypeName(it.Type), Attrs: it.Attrs}
			}
		}
		out.Content = InlineChildren{Items: items}
	}
	return out
}

// BlockToJSON renders a single block (and its descendants) to the same
// wire shape ToJSON uses for each entry of its top-level array. This is
// what transform.InsertNodeStep embeds when serializing itself.
func BlockToJSON(b *BlockNode) (map[string]any, error) {
	raw, err := json.Marshal(blockToJSON(b))
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// BlockFromJSON parses a single block produced by BlockToJSON.
func BlockFromJSON(raw map[string]any) (*BlockNode, error) {
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	var jb jsonBlock
	if err := json.Unmarshal(data, &jb); err != nil {
		return nil, fmt.Errorf("model: invalid block JSON: %w", err)
	}
	return blockFromJSON(jb), nil
}

// ToJSON renders the document to its wire format: a top-level array of
// blocks, attrs keys free-form, attr values primitives.
func (d *Document) ToJSON() ([]byte, error) {
	blocks := make([]jsonBlock, len(d.Blocks))
	for i, b := range d.Blocks {
		blocks[i] = blockToJSON(b)
	}
	return json.Marshal(blocks)
}

// DocumentFromJSON parses the wire format produced by ToJSON.
func DocumentFromJSON(raw []byte) (*Document, error) {
	var blocks []jsonBlock
	if err := json.Unmarshal(raw, &blocks); err != nil {
		return nil, fmt.Errorf("model: invalid document JSON: %w", err)
	}
	doc := &Document{Blocks: make([]*BlockNode, len(blocks))}
	for i, b := range blocks {
		doc.Blocks[i] = blockFromJSON(b)
	}
	return doc, nil
}
