// Package parser extracts translatable strings from block HTML and writes
// translations back into the same positions.
//
// Matching is regex based: a tag's text is whatever sits between <tag ...>
// and </tag>, and an attribute's value is whatever sits between its quotes.
// Nesting is not understood, and nothing here builds a DOM.
package parser

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/valpere/blockstrings/internal/attribute"
	"github.com/valpere/blockstrings/internal/block"
)

// ErrBadPattern wraps regexp compile failures, typically from a raw tag
// pattern passed through the Permissive escaper.
var ErrBadPattern = errors.New("bad pattern")

// BlockParser is implemented by anything that can pull strings out of a block
// and substitute translations back in.
type BlockParser interface {
	ToStrings(b *block.Block) ([]string, error)
	ReplaceStrings(b *block.Block, replacements map[string]string) (*block.Block, error)
}

// HTMLParser extracts the inner text of Tags and the values of Attributes
// from a block's innerHTML. Strings shorter than MinStringLength runes are
// dropped.
type HTMLParser struct {
	Tags            []string
	Attributes      []string
	MinStringLength int

	Escaper     Escaper
	Placeholder attribute.Accessor
}

type Option func(*HTMLParser)

// WithEscaper overrides the tag/attribute escaping policy.
func WithEscaper(e Escaper) Option {
	return func(p *HTMLParser) { p.Escaper = e }
}

// WithPlaceholder overrides where out-of-band strings are read from and
// written to. The default is the block's "placeholder" attribute.
func WithPlaceholder(a attribute.Accessor) Option {
	return func(p *HTMLParser) { p.Placeholder = a }
}

// New returns a parser that escapes every tag and attribute name.
func New(tags, attributes []string, minStringLength int, opts ...Option) *HTMLParser {
	p := &HTMLParser{
		Tags:            append([]string(nil), tags...),
		Attributes:      append([]string(nil), attributes...),
		MinStringLength: minStringLength,
		Escaper:         Strict{},
		Placeholder:     attribute.Placeholder,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// NewRegex returns a parser whose tag names may be raw /patterns/.
func NewRegex(tags, attributes []string, minStringLength int, opts ...Option) *HTMLParser {
	return New(tags, attributes, minStringLength, append([]Option{WithEscaper(Permissive{})}, opts...)...)
}

func (p *HTMLParser) escaper() Escaper {
	if p.Escaper == nil {
		return Strict{}
	}
	return p.Escaper
}

func (p *HTMLParser) placeholder() attribute.Accessor {
	if p.Placeholder == nil {
		return attribute.None{}
	}
	return p.Placeholder
}

func compile(expr string) (*regexp.Regexp, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrBadPattern, expr, err)
	}
	return re, nil
}

// ToStrings returns the candidate strings of b in this order: placeholder
// strings, then matches per tag, then matches per attribute. The list is
// not deduplicated.
func (p *HTMLParser) ToStrings(b *block.Block) ([]string, error) {
	if err := block.Validate(b); err != nil {
		return nil, err
	}

	html := b.InnerHTML
	esc := p.escaper()
	strs := append([]string{}, p.placeholder().Get(b)...)

	for _, tag := range p.Tags {
		t := esc.EscapeTag(tag)
		re, err := compile(`(?is)<` + t + `[^>]*>\s*(.+?)\s*</` + t + `>`)
		if err != nil {
			return nil, err
		}
		strs = append(strs, submatches(re, html)...)
	}

	for _, attr := range p.Attributes {
		a := esc.EscapeAttr(attr)
		var found []string

		if strings.Contains(html, "='") {
			re, err := compile(`(?is)` + a + `='([^']+?)'`)
			if err != nil {
				return nil, err
			}
			found = submatches(re, html)
		}

		// Double-quoted values win when both styles are present.
		if strings.Contains(html, `="`) {
			re, err := compile(`(?is)` + a + `="([^"]+?)"`)
			if err != nil {
				return nil, err
			}
			if m := submatches(re, html); len(m) > 0 {
				found = m
			}
		}

		if attr == "href" {
			found = filterLinks(found)
		}
		strs = append(strs, found...)
	}

	if p.MinStringLength > 0 {
		kept := strs[:0]
		for _, s := range strs {
			if utf8.RuneCountInString(s) >= p.MinStringLength {
				kept = append(kept, s)
			}
		}
		strs = kept
	}

	return strs, nil
}

func submatches(re *regexp.Regexp, s string) []string {
	var out []string
	for _, m := range re.FindAllStringSubmatch(s, -1) {
		out = append(out, m[1])
	}
	return out
}

// filterLinks keeps absolute and protocol-relative URLs. Anchors and
// site-relative links point at other parts of the same site.
func filterLinks(values []string) []string {
	var out []string
	for _, v := range values {
		if strings.HasPrefix(v, "https://") || strings.HasPrefix(v, "http://") || strings.HasPrefix(v, "//") {
			out = append(out, v)
		}
	}
	return out
}

// ReplaceStrings returns a copy of b with every candidate found by ToStrings
// that has a key in replacements rewritten in innerHTML and in each string
// chunk of innerContent. b is not modified.
//
// A candidate is only rewritten where it directly follows one of > " ' and
// precedes one of ' " <, so a chunk boundary falling between the delimiter
// and the text leaves that chunk untouched.
func (p *HTMLParser) ReplaceStrings(b *block.Block, replacements map[string]string) (*block.Block, error) {
	if err := block.Validate(b); err != nil {
		return nil, err
	}

	originals, err := p.ToStrings(b)
	if err != nil {
		return nil, err
	}

	out := b.Clone()
	p.placeholder().Set(out, replacements)

	html := out.InnerHTML
	content := out.InnerContent

	for _, original := range originals {
		if original == "" {
			continue
		}
		repl, ok := replacements[original]
		if !ok {
			continue
		}

		re, err := compile(`(?s)([>"'])\s*` + regexp.QuoteMeta(original) + `\s*(['"<])`)
		if err != nil {
			return nil, err
		}
		tmpl := "${1}" + escapeTemplate(repl) + "${2}"

		html = re.ReplaceAllString(html, tmpl)
		for i, chunk := range content {
			if chunk == nil || *chunk == "" {
				continue
			}
			s := re.ReplaceAllString(*chunk, tmpl)
			content[i] = &s
		}
	}

	out.InnerHTML = html
	out.InnerContent = content
	return out, nil
}

// escapeTemplate makes s expand to itself in Regexp.ReplaceAllString.
// Backslashes have no meaning there; only $ does.
func escapeTemplate(s string) string {
	return strings.ReplaceAll(s, "$", "$$")
}
