package selector

import (
	"fmt"
	"strconv"
	"strings"

	"mercator-hq/relayscrub/pkg/processor"
)

// ParseError reports a malformed selector.
type ParseError struct {
	Selector string
	// Pos is the byte offset at which parsing failed.
	Pos int
	Msg string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid selector %q at position %d: %s", e.Selector, e.Pos, e.Msg)
}

// Parse compiles a selector.
func Parse(s string) (Spec, error) {
	p := &parser{input: s}
	p.skipSpace()
	if p.eof() {
		return nil, p.errorf("empty selector")
	}
	spec, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if !p.eof() {
		return nil, p.errorf("unexpected %q", p.input[p.pos])
	}
	return spec, nil
}

// MustParse is like Parse but panics on error. It is meant for selectors
// known at compile time.
func MustParse(s string) Spec {
	spec, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return spec
}

type parser struct {
	input string
	pos   int
}

func (p *parser) eof() bool {
	return p.pos >= len(p.input)
}

func (p *parser) peek() byte {
	if p.eof() {
		return 0
	}
	return p.input[p.pos]
}

func (p *parser) consume(tok string) bool {
	if strings.HasPrefix(p.input[p.pos:], tok) {
		p.pos += len(tok)
		return true
	}
	return false
}

func (p *parser) skipSpace() {
	for !p.eof() && isSpace(p.input[p.pos]) {
		p.pos++
	}
}

func (p *parser) errorf(format string, args ...any) error {
	return &ParseError{Selector: p.input, Pos: p.pos, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) parseOr() (Spec, error) {
	first, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	specs := []Spec{first}
	for {
		p.skipSpace()
		if !p.consume("||") && !p.consume(",") {
			break
		}
		next, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		specs = append(specs, next)
	}
	if len(specs) == 1 {
		return first, nil
	}
	return Or(specs), nil
}

func (p *parser) parseAnd() (Spec, error) {
	first, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	specs := []Spec{first}
	for {
		p.skipSpace()
		if !p.consume("&&") {
			break
		}
		next, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		specs = append(specs, next)
	}
	if len(specs) == 1 {
		return first, nil
	}
	return And(specs), nil
}

func (p *parser) parseNot() (Spec, error) {
	p.skipSpace()
	switch {
	case p.consume("!"):
		inner, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return Not{Inner: inner}, nil
	case p.consume("("):
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		p.skipSpace()
		if !p.consume(")") {
			return nil, p.errorf("expected ')'")
		}
		return inner, nil
	}
	return p.parsePath()
}

func (p *parser) parsePath() (Spec, error) {
	var path Path
	for {
		item, err := p.parseItem()
		if err != nil {
			return nil, err
		}
		if !(item.Kind == ItemDeepWildcard && len(path) > 0 && path[len(path)-1].Kind == ItemDeepWildcard) {
			path = append(path, item)
		}

		if p.consume(".") {
			continue
		}
		// Whitespace separates items unless an operator follows.
		save := p.pos
		p.skipSpace()
		if p.pos > save && isItemStart(p.peek()) {
			continue
		}
		p.pos = save
		return path, nil
	}
}

func (p *parser) parseItem() (Item, error) {
	start := p.pos
	switch c := p.peek(); {
	case p.consume("**"):
		return Item{Kind: ItemDeepWildcard}, nil
	case p.consume("*"):
		return Item{Kind: ItemWildcard}, nil
	case c == '$':
		p.pos++
		name := p.readKey()
		if name == "" {
			return Item{}, p.errorf("expected a type name")
		}
		t, ok := processor.ParseValueType(name)
		if !ok {
			p.pos = start
			return Item{}, p.errorf("unknown type %q", name)
		}
		return Item{Kind: ItemType, Type: t}, nil
	case c == '\'':
		key, err := p.readQuoted()
		if err != nil {
			return Item{}, err
		}
		return Item{Kind: ItemKey, Key: key}, nil
	case isKeyChar(c):
		key := p.readKey()
		if isDigits(key) {
			if n, err := strconv.Atoi(key); err == nil {
				return Item{Kind: ItemIndex, Index: n, Key: key}, nil
			}
		}
		return Item{Kind: ItemKey, Key: key}, nil
	}
	if p.eof() {
		return Item{}, p.errorf("unexpected end of selector")
	}
	return Item{}, p.errorf("unexpected %q", p.peek())
}

func (p *parser) readKey() string {
	start := p.pos
	for !p.eof() && isKeyChar(p.input[p.pos]) {
		p.pos++
	}
	return p.input[start:p.pos]
}

// readQuoted reads a single-quoted key. A doubled quote stands for one
// quote character.
func (p *parser) readQuoted() (string, error) {
	start := p.pos
	p.pos++
	var b strings.Builder
	for !p.eof() {
		c := p.input[p.pos]
		p.pos++
		if c != '\'' {
			b.WriteByte(c)
			continue
		}
		if p.peek() == '\'' {
			p.pos++
			b.WriteByte('\'')
			continue
		}
		return b.String(), nil
	}
	p.pos = start
	return "", p.errorf("unterminated quoted key")
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isItemStart(c byte) bool {
	return c == '*' || c == '$' || c == '\'' || isKeyChar(c)
}
