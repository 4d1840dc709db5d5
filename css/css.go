// Package css implements a hand-rolled cursor-based CSS tokenizer and
// parser: a selector grammar limited to tag and descendant selectors,
// and per-declaration/per-rule error recovery via ignore_until.
package css

import "strings"

// Selector is a tagged union: Tag{Name} or Descendant{Ancestor,Descendant}.
type Selector interface {
	// Matches reports whether n satisfies the selector. node is the
	// html.Node interface the style package matches against; css does not
	// import html to avoid a dependency cycle (style sits between them),
	// so Matches is expressed over the minimal Elementish contract below.
	Matches(n Elementish) bool
	// Priority is the sum of constituent tag-selector priorities
	// (Tag = 1), used to order the cascade: higher-priority rules
	// overlay lower-priority ones regardless of source order.
	Priority() int
}

// Elementish is the minimal view of a tree node a Selector needs: its own
// tag (if it is an element) and a walk up to its parent. Package style
// satisfies this with an adapter that wraps *html.Node.
type Elementish interface {
	ElementTag() (string, bool)
	ElementParent() (Elementish, bool)
}

// TagSelector matches a single tag name, e.g. "p".
type TagSelector struct {
	Name string
}

func (s TagSelector) Matches(n Elementish) bool {
	tag, ok := n.ElementTag()
	return ok && tag == s.Name
}

func (s TagSelector) Priority() int { return 1 }

// DescendantSelector matches a descendant selector "ancestor descendant":
// the node must match Descendant, and some ancestor in its parent chain
// must match Ancestor.
type DescendantSelector struct {
	Ancestor   Selector
	Descendant Selector
}

func (s DescendantSelector) Matches(n Elementish) bool {
	if !s.Descendant.Matches(n) {
		return false
	}
	cur, ok := n.ElementParent()
	for ok {
		if s.Ancestor.Matches(cur) {
			return true
		}
		cur, ok = cur.ElementParent()
	}
	return false
}

func (s DescendantSelector) Priority() int {
	return s.Ancestor.Priority() + s.Descendant.Priority()
}

// Rule is one cascade unit: a selector and its property map, in source
// order.
type Rule struct {
	Selector Selector
	Body     map[string]string
}

// Stylesheet is an ordered list of rules, as parsed from one source.
type Stylesheet []Rule

// ParseInlineBody parses the value of an inline style="" attribute into
// a property map, using the same pair grammar and recovery rules as a
// rule body.
func ParseInlineBody(src string) map[string]string {
	p := &parser{src: src}
	body, _ := p.parseBody()
	return body
}

// Parse parses src into a Stylesheet. Parsing never fails: malformed
// declarations and rules are skipped via ignoreUntil rather than
// surfaced as an error.
func Parse(src string) Stylesheet {
	p := &parser{src: src}
	return p.parseSheet()
}

type parser struct {
	src string
	pos int
}

func (p *parser) parseSheet() Stylesheet {
	var sheet Stylesheet
	for {
		p.skipWhitespace()
		if p.pos >= len(p.src) {
			break
		}

		sel, ok := p.parseSelector()
		if !ok {
			p.ignoreUntil("}")
			p.consumeLiteral('}')
			continue
		}

		p.skipWhitespace()
		if !p.consumeLiteral('{') {
			p.ignoreUntil("}")
			p.consumeLiteral('}')
			continue
		}

		body, ok := p.parseBody()
		if !ok {
			// A declaration inside the body was malformed badly enough
			// that recovery ran into '}' (or end of input) instead of
			// ';': the whole rule is dropped, not just the bad
			// declaration.
			p.ignoreUntil("}")
			p.consumeLiteral('}')
			continue
		}

		p.skipWhitespace()
		if !p.consumeLiteral('}') {
			p.ignoreUntil("}")
			p.consumeLiteral('}')
			continue
		}

		sheet = append(sheet, Rule{Selector: sel, Body: body})
	}
	return sheet
}

// parseSelector reads a tag word, then while not at '{' reads more tag
// words, left-associatively wrapping the accumulator as Descendant(prev,
// next).
func (p *parser) parseSelector() (Selector, bool) {
	p.skipWhitespace()
	word, ok := p.parseWord()
	if !ok {
		return nil, false
	}
	var sel Selector = TagSelector{Name: strings.ToLower(word)}

	for {
		p.skipWhitespace()
		if p.pos >= len(p.src) || p.src[p.pos] == '{' {
			break
		}
		next, ok := p.parseWord()
		if !ok {
			return nil, false
		}
		sel = DescendantSelector{Ancestor: sel, Descendant: TagSelector{Name: strings.ToLower(next)}}
	}

	return sel, true
}

// parseBody reads zero or more "prop: value" pairs separated by ';',
// recovering from a malformed pair via ignoreUntil({';','}'}). The bool
// result is false when recovery ran into '}' (or end of input) rather
// than ';' — a failure severe enough that the caller should discard the
// whole enclosing rule, not just the bad declaration.
func (p *parser) parseBody() (map[string]string, bool) {
	body := map[string]string{}

	for {
		p.skipWhitespace()
		if p.pos >= len(p.src) || p.src[p.pos] == '}' {
			return body, true
		}

		key, val, ok := p.parsePair()
		if !ok {
			found := p.ignoreUntil(";}")
			if found == ';' {
				p.consumeLiteral(';')
				continue
			}
			return body, false
		}
		body[key] = val

		p.skipWhitespace()
		if p.pos < len(p.src) && p.src[p.pos] == ';' {
			p.consumeLiteral(';')
			continue
		}
	}
}

// parsePair reads "word : word", lowercasing the property name.
func (p *parser) parsePair() (key, val string, ok bool) {
	start := p.pos
	k, ok := p.parseWord()
	if !ok {
		p.pos = start
		return "", "", false
	}
	p.skipWhitespace()
	if !p.consumeLiteral(':') {
		p.pos = start
		return "", "", false
	}
	p.skipWhitespace()
	v, ok := p.parseWord()
	if !ok {
		p.pos = start
		return "", "", false
	}
	return strings.ToLower(k), v, true
}

// parseWord reads a run of [alnum#-.%]; an empty run is an error.
func (p *parser) parseWord() (string, bool) {
	start := p.pos
	for p.pos < len(p.src) && isWordChar(p.src[p.pos]) {
		p.pos++
	}
	if p.pos == start {
		return "", false
	}
	return p.src[start:p.pos], true
}

func isWordChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' ||
		c == '#' || c == '-' || c == '.' || c == '%'
}

func (p *parser) skipWhitespace() {
	for p.pos < len(p.src) && isSpace(p.src[p.pos]) {
		p.pos++
	}
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f'
}

func (p *parser) consumeLiteral(c byte) bool {
	if p.pos < len(p.src) && p.src[p.pos] == c {
		p.pos++
		return true
	}
	return false
}

// ignoreUntil advances past characters until one in stopSet is found (not
// consumed), returning the byte found, or 0 at end of input.
func (p *parser) ignoreUntil(stopSet string) byte {
	for p.pos < len(p.src) {
		if strings.IndexByte(stopSet, p.src[p.pos]) >= 0 {
			return p.src[p.pos]
		}
		p.pos++
	}
	return 0
}
