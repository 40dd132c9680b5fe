package parser

import (
	"fmt"
	"sort"

	"github.com/valpere/blockstrings/internal/attribute"
	"github.com/valpere/blockstrings/internal/block"
)

// Registry maps block names (e.g. "core/paragraph") to their parser.
type Registry struct {
	parsers map[string]BlockParser
}

func NewRegistry() *Registry {
	return &Registry{parsers: make(map[string]BlockParser)}
}

// Register installs p for name, replacing any existing parser.
func (r *Registry) Register(name string, p BlockParser) {
	r.parsers[name] = p
}

func (r *Registry) Lookup(name string) (BlockParser, bool) {
	p, ok := r.parsers[name]
	return p, ok
}

// Names returns the registered block names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.parsers))
	for n := range r.parsers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry covers the core blocks whose text lives in their HTML or
// in a handful of well-known attributes.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register("core/paragraph", New([]string{"p"}, nil, 0))
	r.Register("core/heading", NewRegex([]string{"/h[1-6]/"}, nil, 0))
	r.Register("core/list-item", New([]string{"li"}, nil, 0))
	r.Register("core/button", New([]string{"a"}, []string{"href"}, 0))
	r.Register("core/quote", New([]string{"p", "cite"}, nil, 0))
	r.Register("core/pullquote", New([]string{"p", "cite"}, nil, 0))
	r.Register("core/image", New([]string{"figcaption"}, []string{"alt"}, 0))
	r.Register("core/cover", New([]string{"p"}, nil, 0))
	r.Register("core/navigation-link", New(nil, nil, 0, WithPlaceholder(attribute.Attributes("label"))))
	r.Register("core/search", New(nil, nil, 0, WithPlaceholder(attribute.Attributes("label", "placeholder", "buttonText"))))
	return r
}

// ExtractEach calls fn with the strings of every block in blocks that has a
// registered parser, nested blocks included, in document order. Walking stops
// at the first error from a parser or from fn.
func ExtractEach(r *Registry, blocks []*block.Block, fn func(b *block.Block, strs []string) error) error {
	return block.Walk(blocks, func(b *block.Block) error {
		p, ok := r.Lookup(b.BlockName)
		if !ok {
			return nil
		}
		found, err := p.ToStrings(b)
		if err != nil {
			return fmt.Errorf("%s: %w", b.BlockName, err)
		}
		return fn(b, found)
	})
}

// ExtractAll collects the strings of every block in blocks, nested blocks
// included, in document order. Blocks without a registered parser are
// skipped.
func ExtractAll(r *Registry, blocks []*block.Block) ([]string, error) {
	strs := []string{}
	err := ExtractEach(r, blocks, func(_ *block.Block, found []string) error {
		strs = append(strs, found...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return strs, nil
}

// ReplaceAll returns rewritten copies of blocks. Input blocks are left
// untouched; on error no partial result is returned.
func ReplaceAll(r *Registry, blocks []*block.Block, replacements map[string]string) ([]*block.Block, error) {
	out := make([]*block.Block, 0, len(blocks))
	for _, b := range blocks {
		nb, err := replaceTree(r, b, replacements)
		if err != nil {
			return nil, err
		}
		out = append(out, nb)
	}
	return out, nil
}

func replaceTree(r *Registry, b *block.Block, replacements map[string]string) (*block.Block, error) {
	if err := block.Validate(b); err != nil {
		return nil, err
	}

	var nb *block.Block
	if p, ok := r.Lookup(b.BlockName); ok {
		var err error
		if nb, err = p.ReplaceStrings(b, replacements); err != nil {
			return nil, err
		}
	} else {
		nb = b.Clone()
	}

	if len(nb.InnerBlocks) != len(b.InnerBlocks) {
		nb.InnerBlocks = make([]*block.Block, len(b.InnerBlocks))
	}
	for i, inner := range b.InnerBlocks {
		if inner == nil {
			continue
		}
		ni, err := replaceTree(r, inner, replacements)
		if err != nil {
			return nil, err
		}
		nb.InnerBlocks[i] = ni
	}
	return nb, nil
}
