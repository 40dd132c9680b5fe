// Package attribute reads and writes translatable strings stored directly in
// block attributes rather than in the block's HTML.
package attribute

import "github.com/valpere/blockstrings/internal/block"

// Accessor stashes and retrieves candidate strings on a block. Get never
// fails; a block without the attribute yields no strings.
type Accessor interface {
	Get(b *block.Block) []string
	Set(b *block.Block, replacements map[string]string)
}

// Attribute is an Accessor over a single named attribute. A string value
// yields one candidate; a list of strings yields one per element.
type Attribute struct {
	Name string
}

// Placeholder is the editor's "placeholder" attribute, the hint text shown in
// an empty block.
var Placeholder = Attribute{Name: "placeholder"}

func (a Attribute) Get(b *block.Block) []string {
	if b == nil || b.Attrs == nil {
		return []string{}
	}

	out := []string{}
	switch v := b.Attrs[a.Name].(type) {
	case string:
		if v != "" {
			out = append(out, v)
		}
	case []string:
		for _, s := range v {
			if s != "" {
				out = append(out, s)
			}
		}
	case []any:
		for _, e := range v {
			if s, ok := e.(string); ok && s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

// Set replaces, in b itself, every value of the attribute that has an exact
// key in replacements.
func (a Attribute) Set(b *block.Block, replacements map[string]string) {
	if b == nil || b.Attrs == nil || len(replacements) == 0 {
		return
	}

	switch v := b.Attrs[a.Name].(type) {
	case string:
		if r, ok := replacements[v]; ok {
			b.Attrs[a.Name] = r
		}
	case []string:
		for i, s := range v {
			if r, ok := replacements[s]; ok {
				v[i] = r
			}
		}
	case []any:
		for i, e := range v {
			if s, ok := e.(string); ok {
				if r, ok := replacements[s]; ok {
					v[i] = r
				}
			}
		}
	}
}

// Multi is a composite Accessor; strings come out in member order.
type Multi []Accessor

// Attributes builds a Multi over the named attributes.
func Attributes(names ...string) Multi {
	s := make(Multi, 0, len(names))
	for _, n := range names {
		s = append(s, Attribute{Name: n})
	}
	return s
}

func (s Multi) Get(b *block.Block) []string {
	out := []string{}
	for _, a := range s {
		out = append(out, a.Get(b)...)
	}
	return out
}

func (s Multi) Set(b *block.Block, replacements map[string]string) {
	for _, a := range s {
		a.Set(b, replacements)
	}
}

// None is an Accessor that never yields or stores anything.
type None struct{}

func (None) Get(*block.Block) []string { return []string{} }
func (None) Set(*block.Block, map[string]string) {}
