package block

import (
	"bytes"
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

// Block HTML is written back without < escapes so serialized content
// stays byte-comparable with what the editor produced.
var json = jsoniter.Config{
	EscapeHTML:             false,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
}.Froze()

// MarshalJSON writes empty attrs and innerBlocks as {} and [] rather than null.
func (b Block) MarshalJSON() ([]byte, error) {
	type plain Block
	p := plain(b)
	if p.Attrs == nil {
		p.Attrs = map[string]any{}
	}
	if p.InnerBlocks == nil {
		p.InnerBlocks = []*Block{}
	}
	if p.InnerContent == nil {
		p.InnerContent = []*string{}
	}
	return json.Marshal(p)
}

// wire mirrors the parse_blocks shape. Pointers tell a missing or null key
// apart from an empty one. Attrs stays raw because PHP encodes an empty
// attribute array as [].
type wire struct {
	BlockName    string                `json:"blockName"`
	Attrs        jsoniter.RawMessage   `json:"attrs"`
	InnerBlocks  []jsoniter.RawMessage `json:"innerBlocks"`
	InnerHTML    *string               `json:"innerHTML"`
	InnerContent *[]*string            `json:"innerContent"`
}

func decode(data []byte, path string) (*Block, error) {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil, fmt.Errorf("%w: null block at %s", ErrMalformedBlock, path)
	}

	var w wire
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("block at %s: %w", path, err)
	}
	if w.InnerHTML == nil {
		return nil, fmt.Errorf("%w: block at %s is missing innerHTML", ErrMalformedBlock, path)
	}
	if w.InnerContent == nil {
		return nil, fmt.Errorf("%w: block at %s is missing innerContent", ErrMalformedBlock, path)
	}

	attrs, err := decodeAttrs(w.Attrs)
	if err != nil {
		return nil, fmt.Errorf("block at %s: %w", path, err)
	}

	b := &Block{
		BlockName:    w.BlockName,
		Attrs:        attrs,
		InnerHTML:    *w.InnerHTML,
		InnerContent: *w.InnerContent,
	}
	if b.InnerContent == nil {
		b.InnerContent = []*string{}
	}
	if w.InnerBlocks != nil {
		b.InnerBlocks = make([]*Block, len(w.InnerBlocks))
		for i, raw := range w.InnerBlocks {
			inner, err := decode(raw, fmt.Sprintf("%s.innerBlocks[%d]", path, i))
			if err != nil {
				return nil, err
			}
			b.InnerBlocks[i] = inner
		}
	}
	return b, nil
}

// decodeAttrs accepts an object, or the empty list and null that stand for no
// attributes.
func decodeAttrs(raw jsoniter.RawMessage) (map[string]any, error) {
	attrs := map[string]any{}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return attrs, nil
	}
	if trimmed[0] == '[' {
		var list []any
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, fmt.Errorf("invalid attrs: %w", err)
		}
		if len(list) > 0 {
			return nil, fmt.Errorf("%w: attrs is a non-empty list", ErrMalformedBlock)
		}
		return attrs, nil
	}
	if err := json.Unmarshal(trimmed, &attrs); err != nil {
		return nil, fmt.Errorf("invalid attrs: %w", err)
	}
	return attrs, nil
}

// Decode parses a single block object. Any block in the tree missing
// innerHTML or innerContent is rejected with ErrMalformedBlock.
func Decode(data []byte) (*Block, error) {
	b, err := decode(data, "$")
	if err != nil {
		return nil, fmt.Errorf("failed to decode block: %w", err)
	}
	return b, nil
}

// DecodeAll parses either a JSON array of blocks or a single block object.
func DecodeAll(data []byte) ([]*Block, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		b, err := Decode(trimmed)
		if err != nil {
			return nil, err
		}
		return []*Block{b}, nil
	}

	var raws []jsoniter.RawMessage
	if err := json.Unmarshal(trimmed, &raws); err != nil {
		return nil, fmt.Errorf("failed to decode blocks: %w", err)
	}
	blocks := make([]*Block, 0, len(raws))
	for i, raw := range raws {
		b, err := decode(raw, fmt.Sprintf("$[%d]", i))
		if err != nil {
			return nil, fmt.Errorf("failed to decode blocks: %w", err)
		}
		blocks = append(blocks, b)
	}
	return blocks, nil
}

func Encode(b *Block) ([]byte, error) {
	return json.MarshalIndent(b, "", "  ")
}

func EncodeAll(blocks []*Block) ([]byte, error) {
	return json.MarshalIndent(blocks, "", "  ")
}
