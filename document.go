package noteify

import (
	"encoding/json"
)

// Node kinds as they appear in the "kind" field of the wire format.
const (
	KindRoot    = "root"
	KindSection = "section"
	KindBlock   = "block"
	KindText    = "text"
)

// Block is an element of a Root or Section body: either a *Section or a
// *ContentBlock.
type Block interface {
	block()
}

// Inline is an element of inline content. *Text is the only inline kind.
type Inline interface {
	inline()
}

// Root is the normalized tree of one indexed document. It owns its subtree.
type Root struct {
	Path   string
	Blocks []Block
}

// Walk calls fn for every section of the document in document order.
func (r *Root) Walk(fn func(*Section)) {
	walkBlocks(r.Blocks, fn)
}

func walkBlocks(blocks []Block, fn func(*Section)) {
	for _, b := range blocks {
		if s, ok := b.(*Section); ok {
			fn(s)
			walkBlocks(s.Blocks, fn)
		}
	}
}

// SectionIDs returns the identifiers introduced by the document, in document order.
func (r *Root) SectionIDs() []SectionID {
	var ids []SectionID
	r.Walk(func(s *Section) {
		ids = append(ids, s.ID)
	})
	return ids
}

// ContentBlock is a leaf container of inline content, e.g. a paragraph.
type ContentBlock struct {
	Children []Inline
}

func (*ContentBlock) block() {}

// Text is a run of plain text.
type Text struct {
	Content string
}

func (*Text) inline() {}

// MarshalJSON encodes the document in its wire shape.
func (r *Root) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind   string  `json:"kind"`
		Path   string  `json:"filename"`
		Blocks []Block `json:"blocks"`
	}{KindRoot, r.Path, orEmpty(r.Blocks)})
}

// MarshalJSON encodes the block in its wire shape.
func (b *ContentBlock) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind     string   `json:"kind"`
		Children []Inline `json:"children"`
	}{KindBlock, orEmpty(b.Children)})
}

// MarshalJSON encodes the text in its wire shape.
func (t *Text) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind    string `json:"kind"`
		Content string `json:"content"`
	}{KindText, t.Content})
}

// UnmarshalJSON decodes a document from its wire shape.
func (r *Root) UnmarshalJSON(data []byte) error {
	var v struct {
		Kind   string            `json:"kind"`
		Path   string            `json:"filename"`
		Blocks []json.RawMessage `json:"blocks"`
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	if v.Kind != KindRoot {
		return Errorf(EINVALID, "expected %q node, got %q", KindRoot, v.Kind)
	}

	blocks, err := decodeBlocks(v.Blocks)
	if err != nil {
		return err
	}
	r.Path, r.Blocks = v.Path, blocks
	return nil
}

func decodeBlocks(raws []json.RawMessage) ([]Block, error) {
	blocks := make([]Block, 0, len(raws))
	for _, raw := range raws {
		var v struct {
			Kind     string            `json:"kind"`
			ID       SectionID         `json:"id"`
			Level    int               `json:"level"`
			Blocks   []json.RawMessage `json:"blocks"`
			Children []json.RawMessage `json:"children"`
		}
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}

		children, err := decodeInlines(v.Children)
		if err != nil {
			return nil, err
		}

		switch v.Kind {
		case KindSection:
			nested, err := decodeBlocks(v.Blocks)
			if err != nil {
				return nil, err
			}
			blocks = append(blocks, &Section{ID: v.ID, Level: v.Level, Blocks: nested, Children: children})
		case KindBlock:
			blocks = append(blocks, &ContentBlock{Children: children})
		default:
			return nil, Errorf(EINVALID, "unknown block kind %q", v.Kind)
		}
	}
	return blocks, nil
}

func decodeInlines(raws []json.RawMessage) ([]Inline, error) {
	inlines := make([]Inline, 0, len(raws))
	for _, raw := range raws {
		var v struct {
			Kind    string `json:"kind"`
			Content string `json:"content"`
		}
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		if v.Kind != KindText {
			return nil, Errorf(EINVALID, "unknown inline kind %q", v.Kind)
		}
		inlines = append(inlines, &Text{Content: v.Content})
	}
	return inlines, nil
}

// orEmpty keeps empty bodies encoded as [] rather than null.
func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
