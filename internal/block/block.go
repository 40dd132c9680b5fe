// Package block models a parsed block-editor block: its rendered HTML body
// and the parallel sequence of raw content chunks, where nil chunks stand in
// for nested blocks.
package block

import (
	"errors"
	"fmt"
)

// ErrMalformedBlock is returned when a block lacks the fields the parsers
// depend on.
var ErrMalformedBlock = errors.New("malformed block")

type Block struct {
	BlockName    string         `json:"blockName"`
	Attrs        map[string]any `json:"attrs"`
	InnerBlocks  []*Block       `json:"innerBlocks"`
	InnerHTML    string         `json:"innerHTML"`
	InnerContent []*string      `json:"innerContent"`
}

// New builds a block whose content is a single chunk equal to html.
func New(name, html string) *Block {
	chunk := html
	return &Block{
		BlockName:    name,
		Attrs:        map[string]any{},
		InnerHTML:    html,
		InnerContent: []*string{&chunk},
	}
}

// Validate reports whether b has the shape parsers require.
func Validate(b *Block) error {
	if b == nil {
		return fmt.Errorf("%w: nil block", ErrMalformedBlock)
	}
	if b.InnerContent == nil {
		return fmt.Errorf("%w: %q has no innerContent", ErrMalformedBlock, b.BlockName)
	}
	return nil
}

// Chunks returns the string chunks of InnerContent, skipping nested-block
// references.
func (b *Block) Chunks() []string {
	var out []string
	for _, c := range b.InnerContent {
		if c != nil {
			out = append(out, *c)
		}
	}
	return out
}

// Clone returns a deep copy of b. Attribute values that are slices or maps
// decoded from JSON are copied too, so writes to the clone never reach b.
func (b *Block) Clone() *Block {
	if b == nil {
		return nil
	}
	c := &Block{
		BlockName: b.BlockName,
		InnerHTML: b.InnerHTML,
	}
	if b.Attrs != nil {
		c.Attrs = cloneMap(b.Attrs)
	}
	if b.InnerContent != nil {
		c.InnerContent = make([]*string, len(b.InnerContent))
		for i, chunk := range b.InnerContent {
			if chunk != nil {
				s := *chunk
				c.InnerContent[i] = &s
			}
		}
	}
	if b.InnerBlocks != nil {
		c.InnerBlocks = make([]*Block, len(b.InnerBlocks))
		for i, inner := range b.InnerBlocks {
			c.InnerBlocks[i] = inner.Clone()
		}
	}
	return c
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneMap(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	case []string:
		return append([]string(nil), t...)
	default:
		return v
	}
}

// Walk calls fn for every block in blocks and their descendants, parents
// before children. Walking stops at the first error fn returns.
func Walk(blocks []*Block, fn func(*Block) error) error {
	for _, b := range blocks {
		if b == nil {
			continue
		}
		if err := fn(b); err != nil {
			return err
		}
		if err := Walk(b.InnerBlocks, fn); err != nil {
			return err
		}
	}
	return nil
}
