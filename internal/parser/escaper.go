package parser

import (
	"regexp"
	"strings"
)

// Escaper turns a configured tag or attribute name into a pattern fragment.
type Escaper interface {
	EscapeTag(name string) string
	EscapeAttr(name string) string
}

// Strict always quotes names.
type Strict struct{}

// EscapeTag quotes every regex metacharacter in name.
func (Strict) EscapeTag(name string) string { return regexp.QuoteMeta(name) }

// EscapeAttr quotes every regex metacharacter in name.
func (Strict) EscapeAttr(name string) string { return regexp.QuoteMeta(name) }

// Permissive lets a tag name written as /pattern/ through unescaped, e.g.
// "/h[1-6]/" for any heading level. Attribute names are always quoted.
type Permissive struct{}

// EscapeTag returns the body of a /pattern/ name as is and quotes anything
// else.
func (Permissive) EscapeTag(name string) string {
	if strings.HasPrefix(name, "/") && strings.HasSuffix(name, "/") {
		return strings.Trim(name, "/")
	}
	return Strict{}.EscapeTag(name)
}

// EscapeAttr quotes every regex metacharacter in name.
func (Permissive) EscapeAttr(name string) string { return Strict{}.EscapeAttr(name) }
