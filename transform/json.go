package transform

import (
	"encoding/json"
	"fmt"

	"github.com/Samyssmile/notectl-sub003/ident"
	"github.com/Samyssmile/notectl-sub003/model"
)

// wireMark/wireInlineNode mirror model's own JSON shapes (see
// model/json.go) rather than importing them directly, since model keeps
// those converters unexported; steps only ever need to round-trip a
// single mark or inline node, not a whole document.
type wireMark struct {
	Type  string            `json:"type"`
	Attrs map[string]string `json:"attrs,omitempty"`
}

func (m wireMark) toModel() model.Mark {
	return model.Mark{Type: ident.NewMarkTypeName(m.Type), Attrs: m.Attrs}
}

func fromModelMark(m model.Mark) wireMark {
	return wireMark{Type: m.Type.String(), Attrs: m.Attrs}
}

type wireInlineNode struct {
	Type  string         `json:"type"`
	Attrs map[string]any `json:"attrs,omitempty"`
}

func (n wireInlineNode) toModel() model.InlineNode {
	return model.InlineNode{Type: ident.NewInlineNodeTypeName(n.Type), Attrs: n.Attrs}
}

func fromModelInlineNode(n model.InlineNode) wireInlineNode {
	return wireInlineNode{Type: n.Type.String(), Attrs: n.Attrs}
}

// ToJSON renders step to its wire representation: {"stepType": "...",
// ...fields}. stepType names match the 14 step types from the
// specification; the internal-only inverse helpers (multiInsert,
// noopStep, RemoveNodeAttrStep) are never produced by a user action and
// therefore never need a wire form of their own, so serializing one
// panics rather than silently emitting a lossy payload.
func ToJSON(step Step) map[string]any {
	switch s := step.(type) {
	case InsertTextStep:
		return map[string]any{"stepType": "insertText", "blockId": s.BlockID.String(), "offset": s.Offset, "text": s.Text, "marks": marksToJSON(s.Marks)}
	case DeleteTextStep:
		return map[string]any{"stepType": "deleteText", "blockId": s.BlockID.String(), "from": s.From, "to": s.To}
	case SplitBlockStep:
		return map[string]any{"stepType": "splitBlock", "blockId": s.BlockID.String(), "offset": s.Offset, "newId": s.NewID.String(), "newType": s.NewType.String(), "newAttrs": s.NewAttrs}
	case MergeBlocksStep:
		return map[string]any{"stepType": "mergeBlocks", "firstId": s.FirstID.String(), "secondId": s.SecondID.String()}
	case SetBlockTypeStep:
		return map[string]any{"stepType": "setBlockType", "blockId": s.BlockID.String(), "newType": s.NewType.String(), "newAttrs": s.NewAttrs}
	case AddMarkStep:
		return map[string]any{"stepType": "addMark", "blockId": s.BlockID.String(), "from": s.From, "to": s.To, "mark": fromModelMark(s.Mark)}
	case RemoveMarkStep:
		return map[string]any{"stepType": "removeMark", "blockId": s.BlockID.String(), "from": s.From, "to": s.To, "markType": s.MarkType.String()}
	case SetStoredMarksStep:
		return map[string]any{"stepType": "setStoredMarks", "marks": marksToJSON(s.Marks), "previous": marksToJSON(s.Previous)}
	case InsertNodeStep:
		raw, _ := model.BlockToJSON(s.Node)
		return map[string]any{"stepType": "insertNode", "parentId": s.ParentID.String(), "index": s.Index, "node": raw}
	case RemoveNodeStep:
		return map[string]any{"stepType": "removeNode", "parentId": s.ParentID.String(), "blockId": s.BlockID.String()}
	case SetNodeAttrStep:
		return map[string]any{"stepType": "setNodeAttr", "blockId": s.BlockID.String(), "key": s.Key, "value": s.Value}
	case InsertInlineNodeStep:
		return map[string]any{"stepType": "insertInlineNode", "blockId": s.BlockID.String(), "offset": s.Offset, "node": fromModelInlineNode(s.Node)}
	case RemoveInlineNodeStep:
		return map[string]any{"stepType": "removeInlineNode", "blockId": s.BlockID.String(), "offset": s.Offset}
	case SetInlineNodeAttrStep:
		return map[string]any{"stepType": "setInlineNodeAttr", "blockId": s.BlockID.String(), "offset": s.Offset, "key": s.Key, "value": s.Value}
	default:
		panic(fmt.Sprintf("transform: %T has no wire representation", step))
	}
}

func marksToJSON(marks []model.Mark) []wireMark {
	out := make([]wireMark, len(marks))
	for i, m := range marks {
		out[i] = fromModelMark(m)
	}
	return out
}

func attrsMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

// FromJSON parses the wire representation produced by ToJSON, dispatching
// on the "stepType" discriminator.
func FromJSON(raw map[string]any) (Step, error) {
	stepType, _ := raw["stepType"].(string)
	str := func(key string) ident.BlockId { s, _ := raw[key].(string); return ident.BlockIDFrom(s) }
	num := func(key string) int {
		switch v := raw[key].(type) {
		case int:
			return v
		case float64:
			return int(v)
		}
		return 0
	}
	decodeMarks := func(key string) []model.Mark {
		v, ok := raw[key]
		if !ok || v == nil {
			return nil
		}
		b, err := json.Marshal(v)
		if err != nil {
			return nil
		}
		var wms []wireMark
		if json.Unmarshal(b, &wms) != nil {
			return nil
		}
		out := make([]model.Mark, len(wms))
		for i, wm := range wms {
			out[i] = wm.toModel()
		}
		return out
	}

	switch stepType {
	case "insertText":
		text, _ := raw["text"].(string)
		return InsertTextStep{BlockID: str("blockId"), Offset: num("offset"), Text: text, Marks: decodeMarks("marks")}, nil
	case "deleteText":
		return DeleteTextStep{BlockID: str("blockId"), From: num("from"), To: num("to")}, nil
	case "splitBlock":
		newType, _ := raw["newType"].(string)
		return SplitBlockStep{BlockID: str("blockId"), Offset: num("offset"), NewID: str("newId"), NewType: ident.NewNodeTypeName(newType), NewAttrs: attrsMap(raw["newAttrs"])}, nil
	case "mergeBlocks":
		return MergeBlocksStep{FirstID: str("firstId"), SecondID: str("secondId")}, nil
	case "setBlockType":
		newType, _ := raw["newType"].(string)
		return SetBlockTypeStep{BlockID: str("blockId"), NewType: ident.NewNodeTypeName(newType), NewAttrs: attrsMap(raw["newAttrs"])}, nil
	case "addMark":
		markRaw, ok := raw["mark"].(map[string]any)
		if !ok {
			return nil, fmt.Errorf("transform: invalid addMark payload")
		}
		b, _ := json.Marshal(markRaw)
		var wm wireMark
		_ = json.Unmarshal(b, &wm)
		return AddMarkStep{BlockID: str("blockId"), From: num("from"), To: num("to"), Mark: wm.toModel()}, nil
	case "removeMark":
		markType, _ := raw["markType"].(string)
		return RemoveMarkStep{BlockID: str("blockId"), From: num("from"), To: num("to"), MarkType: ident.NewMarkTypeName(markType)}, nil
	case "setStoredMarks":
		return SetStoredMarksStep{Marks: decodeMarks("marks"), Previous: decodeMarks("previous")}, nil
	case "insertNode":
		nodeRaw, _ := raw["node"].(map[string]any)
		node, err := model.BlockFromJSON(nodeRaw)
		if err != nil {
			return nil, err
		}
		return InsertNodeStep{ParentID: str("parentId"), Index: num("index"), Node: node}, nil
	case "removeNode":
		return RemoveNodeStep{ParentID: str("parentId"), BlockID: str("blockId")}, nil
	case "setNodeAttr":
		key, _ := raw["key"].(string)
		return SetNodeAttrStep{BlockID: str("blockId"), Key: key, Value: raw["value"]}, nil
	case "insertInlineNode":
		nodeRaw, _ := raw["node"].(map[string]any)
		b, _ := json.Marshal(nodeRaw)
		var wn wireInlineNode
		_ = json.Unmarshal(b, &wn)
		return InsertInlineNodeStep{BlockID: str("blockId"), Offset: num("offset"), Node: wn.toModel()}, nil
	case "removeInlineNode":
		return RemoveInlineNodeStep{BlockID: str("blockId"), Offset: num("offset")}, nil
	case "setInlineNodeAttr":
		key, _ := raw["key"].(string)
		return SetInlineNodeAttrStep{BlockID: str("blockId"), Offset: num("offset"), Key: key, Value: raw["value"]}, nil
	default:
		return nil, fmt.Errorf("transform: unknown stepType %q", stepType)
	}
}
