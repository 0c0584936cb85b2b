package notation

import (
	"bytes"
	"fmt"
	"strconv"
)

const documentPrefix = "data:extend("

// SyntaxError reports where the input stopped matching the grammar.
type SyntaxError struct {
	Offset   int
	Line     int
	Column   int
	Expected string
	Found    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at %d:%d (offset %d): expected %s, found %s",
		e.Line, e.Column, e.Offset, e.Expected, e.Found)
}

// Parse parses a single object literal. Whitespace may surround the object but
// nothing else may follow it.
func Parse(src []byte) (*Object, error) {
	p := &parser{src: src}
	p.skipSpace()
	obj, err := p.object()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if !p.eof() {
		return nil, p.fail("end of input")
	}
	return obj, nil
}

// ParseDocument parses a prototype document of the form `data:extend({...})`
// and returns its top-level entries. Every entry must itself be an object.
func ParseDocument(src []byte) ([]*Object, error) {
	p := &parser{src: src}
	p.skipSpace()
	if !p.consume(documentPrefix) {
		return nil, p.fail(strconv.Quote(documentPrefix))
	}
	p.skipSpace()
	start := p.pos
	obj, err := p.object()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if !p.consume(")") {
		return nil, p.fail(`")"`)
	}
	p.skipSpace()
	if !p.eof() {
		return nil, p.fail("end of input")
	}

	out := make([]*Object, 0, len(obj.Fields))
	for i, f := range obj.Fields {
		inner, ok := f.Value.AsObject()
		if !ok {
			e := p.errorAt(start, "object entries only")
			e.Found = fmt.Sprintf("%s at entry %d (%s)", f.Value.Kind(), i, f.Value)
			return nil, e
		}
		out = append(out, inner)
	}
	return out, nil
}

type parser struct {
	src []byte
	pos int
}

func (p *parser) eof() bool { return p.pos >= len(p.src) }

func (p *parser) peek() byte {
	if p.eof() {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) consume(lit string) bool {
	if bytes.HasPrefix(p.src[p.pos:], []byte(lit)) {
		p.pos += len(lit)
		return true
	}
	return false
}

func (p *parser) skipSpace() {
	for !p.eof() {
		switch p.src[p.pos] {
		case ' ', '\t', '\r', '\n':
			p.pos++
		default:
			return
		}
	}
}

func (p *parser) object() (*Object, error) {
	if !p.consume("{") {
		return nil, p.fail(`"{"`)
	}
	obj := &Object{}
	p.skipSpace()
	for {
		if p.consume("}") {
			return obj, nil
		}
		f, err := p.field()
		if err != nil {
			return nil, err
		}
		obj.Fields = append(obj.Fields, f)
		p.skipSpace()
		if p.consume(",") {
			p.skipSpace()
			continue
		}
		if p.consume("}") {
			return obj, nil
		}
		return nil, p.fail(`"," or "}"`)
	}
}

func (p *parser) field() (Field, error) {
	if name, ok := p.fieldName(); ok {
		v, err := p.value()
		if err != nil {
			return Field{}, err
		}
		return Field{Name: name, Named: true, Value: v}, nil
	}
	v, err := p.value()
	if err != nil {
		return Field{}, err
	}
	return Field{Value: v}, nil
}

// fieldName consumes `identifier ws* = ws*` and rewinds when the prefix is absent.
func (p *parser) fieldName() (string, bool) {
	start := p.pos
	for !p.eof() && isIdent(p.src[p.pos]) {
		p.pos++
	}
	if p.pos == start {
		return "", false
	}
	name := string(p.src[start:p.pos])
	p.skipSpace()
	if !p.consume("=") {
		p.pos = start
		return "", false
	}
	p.skipSpace()
	return name, true
}

func (p *parser) value() (Value, error) {
	if b, ok := p.boolean(); ok {
		return Bool(b), nil
	}
	switch c := p.peek(); {
	case c == '"':
		s, err := p.text()
		if err != nil {
			return Value{}, err
		}
		return Text(s), nil
	case c == '-' || isDigit(c):
		f, err := p.number()
		if err != nil {
			return Value{}, err
		}
		return Number(f), nil
	case c == '{':
		o, err := p.object()
		if err != nil {
			return Value{}, err
		}
		return ObjectValue(o), nil
	}
	return Value{}, p.fail("boolean, string, number or object")
}

func (p *parser) boolean() (bool, bool) {
	for _, lit := range []struct {
		text string
		val  bool
	}{{"false", false}, {"true", true}} {
		end := p.pos + len(lit.text)
		if !bytes.HasPrefix(p.src[p.pos:], []byte(lit.text)) {
			continue
		}
		if end < len(p.src) && isIdent(p.src[end]) {
			continue
		}
		p.pos = end
		return lit.val, true
	}
	return false, false
}

func (p *parser) text() (string, error) {
	start := p.pos
	p.pos++
	end := bytes.IndexByte(p.src[p.pos:], '"')
	if end < 0 {
		p.pos = start
		return "", p.fail("terminated string")
	}
	s := string(p.src[p.pos : p.pos+end])
	p.pos += end + 1
	return s, nil
}

func (p *parser) number() (float64, error) {
	start := p.pos
	if p.peek() == '-' {
		p.pos++
	}
	digits := p.pos
	for !p.eof() && isDigit(p.src[p.pos]) {
		p.pos++
	}
	if p.pos == digits {
		p.pos = start
		return 0, p.fail("digits")
	}
	// The fraction is optional; a dot without digits is left for the caller to reject.
	if p.peek() == '.' && p.pos+1 < len(p.src) && isDigit(p.src[p.pos+1]) {
		p.pos++
		for !p.eof() && isDigit(p.src[p.pos]) {
			p.pos++
		}
	}
	f, err := strconv.ParseFloat(string(p.src[start:p.pos]), 64)
	if err != nil {
		p.pos = start
		return 0, p.fail("number")
	}
	return f, nil
}

func (p *parser) fail(expected string) *SyntaxError {
	return p.errorAt(p.pos, expected)
}

func (p *parser) errorAt(offset int, expected string) *SyntaxError {
	line, col := 1, 1
	for _, c := range p.src[:offset] {
		if c == '\n' {
			line++
			col = 1
			continue
		}
		col++
	}
	found := "end of input"
	if offset < len(p.src) {
		end := min(offset+16, len(p.src))
		found = strconv.Quote(string(p.src[offset:end]))
	}
	return &SyntaxError{
		Offset:   offset,
		Line:     line,
		Column:   col,
		Expected: expected,
		Found:    found,
	}
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isIdent(c byte) bool {
	return c == '_' || isDigit(c) || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
