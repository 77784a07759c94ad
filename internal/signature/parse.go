package signature

import (
	"errors"
	"fmt"
	"strings"
	"text/scanner"
)

// ErrSyntax is wrapped by every parse failure.
var ErrSyntax = errors.New("invalid type syntax")

type parser struct {
	sc   scanner.Scanner
	tok  rune
	text string
	src  string
}

func newParser(src string) *parser {
	p := &parser{src: src}
	p.sc.Init(strings.NewReader(src))
	p.sc.Mode = scanner.ScanIdents
	p.sc.Error = func(*scanner.Scanner, string) {}
	p.next()
	return p
}

func (p *parser) next() {
	p.tok = p.sc.Scan()
	p.text = p.sc.TokenText()
}

func (p *parser) errorf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %q: %s", ErrSyntax, p.src, fmt.Sprintf(format, args...))
}

func (p *parser) expect(r rune) error {
	if p.tok != r {
		return p.errorf("expected %q, found %q", string(r), p.text)
	}
	p.next()
	return nil
}

func (p *parser) qualifiedIdent() ([]string, error) {
	if p.tok != scanner.Ident {
		return nil, p.errorf("expected identifier, found %q", p.text)
	}
	parts := []string{p.text}
	p.next()
	for p.tok == '.' {
		p.next()
		if p.tok != scanner.Ident {
			return nil, p.errorf("expected identifier after '.', found %q", p.text)
		}
		parts = append(parts, p.text)
		p.next()
	}
	return parts, nil
}

func (p *parser) typeList(closing rune) ([]TypeExpr, error) {
	var out []TypeExpr
	if p.tok == closing {
		p.next()
		return out, nil
	}
	for {
		t, err := p.parseType()
		if err != nil {
			return nil, err
		}
		out = append(out, t)
		if p.tok == ',' {
			p.next()
			continue
		}
		if err := p.expect(closing); err != nil {
			return nil, err
		}
		return out, nil
	}
}

func (p *parser) parseType() (TypeExpr, error) {
	parts, err := p.qualifiedIdent()
	if err != nil {
		return nil, err
	}
	name := parts[len(parts)-1]
	scope := strings.Join(parts[:len(parts)-1], ".")

	switch p.tok {
	case '<':
		p.next()
		if err := p.expect(':'); err != nil {
			return nil, err
		}
		if scope != "" {
			return nil, p.errorf("type variable %q cannot be qualified", strings.Join(parts, "."))
		}
		bound, err := p.parseType()
		if err != nil {
			return nil, err
		}
		return TypeVar{Name: name, Bound: bound}, nil
	case '{':
		p.next()
		params, err := p.typeList('}')
		if err != nil {
			return nil, err
		}
		if scope == "" && name == "Union" {
			return Union{Members: params}, nil
		}
		return Container{Name: strings.Join(parts, "."), Params: params}, nil
	}

	if scope == "" && name == "Any" {
		return Any{}, nil
	}
	return Named{Scope: scope, Name: name}, nil
}

// ParseType parses a type expression such as `Fruit`, `core.Real`,
// `Union{Apple,Kiwi}`, `T<:Number` or `Dict{String,Fruit}`.
func ParseType(src string) (TypeExpr, error) {
	p := newParser(src)
	t, err := p.parseType()
	if err != nil {
		return nil, err
	}
	if p.tok != scanner.EOF {
		return nil, p.errorf("unexpected %q", p.text)
	}
	return t, nil
}

// Parse parses a signature such as `cost(Fruit, Float64)`.
func Parse(src string) (Signature, error) {
	p := newParser(src)
	parts, err := p.qualifiedIdent()
	if err != nil {
		return Signature{}, err
	}
	if err := p.expect('('); err != nil {
		return Signature{}, err
	}
	params, err := p.typeList(')')
	if err != nil {
		return Signature{}, err
	}
	if p.tok != scanner.EOF {
		return Signature{}, p.errorf("unexpected %q", p.text)
	}
	return Signature{Func: strings.Join(parts, "."), Params: params}, nil
}

// MustParse is Parse for literals known to be valid.
func MustParse(src string) Signature {
	s, err := Parse(src)
	if err != nil {
		panic(err)
	}
	return s
}
