package vql

import (
	"fmt"

	"github.com/roach88/varq/internal/engine"
	"github.com/roach88/varq/internal/variant"
)

// Parser parses textual queries. The zero value is ready to use.
type Parser struct{}

// Parse implements engine.Parser.
func (Parser) Parse(text string) (engine.QueryTree, error) {
	return Parse(text)
}

// Parse parses a query into an expression.
func Parse(text string) (Expr, error) {
	toks, err := lex(text)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	expr, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.kind != tokEOF {
		return nil, p.errorf(tok, "unexpected %s after complete query", tok.describe())
	}
	return expr, nil
}

type parser struct {
	toks []token
	pos  int
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	tok := p.toks[p.pos]
	if tok.kind != tokEOF {
		p.pos++
	}
	return tok
}

func (p *parser) expect(kind tokenKind, what string) (token, error) {
	tok := p.next()
	if tok.kind != kind {
		return tok, p.errorf(tok, "expected %s, found %s", what, tok.describe())
	}
	return tok, nil
}

func (p *parser) errorf(tok token, format string, args ...any) error {
	return &engine.ParseError{Message: fmt.Sprintf(format, args...), Column: tok.pos}
}

func (p *parser) parseOr() (Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokOr {
		p.next()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &Or{Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (Expr, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokAnd {
		p.next()
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = &And{Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseNot() (Expr, error) {
	if p.peek().kind == tokNot {
		p.next()
		inner, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &Not{Expr: inner}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (Expr, error) {
	tok := p.peek()
	switch tok.kind {
	case tokLParen:
		p.next()
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokRParen, "')'"); err != nil {
			return nil, err
		}
		return inner, nil

	case tokIsStart, tokIsEnd, tokIsContained:
		p.next()
		if _, err := p.expect(tokLParen, "'('"); err != nil {
			return nil, err
		}
		term, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokRParen, "')'"); err != nil {
			return nil, err
		}
		kind := map[tokenKind]PredicateKind{tokIsStart: Start, tokIsEnd: End, tokIsContained: Contained}[tok.kind]
		return &Predicate{Kind: kind, Term: term}, nil

	default:
		return p.parseRelation()
	}
}

// parseRelation parses a term optionally followed by a chain of relations.
// A bare term means the activity is contained.
func (p *parser) parseRelation() (Expr, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}

	var expr Expr
	for {
		op, ok := relationOp(p.peek().kind)
		if !ok {
			break
		}
		p.next()
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		rel := &Relation{Op: op, Left: left, Right: right}
		if expr == nil {
			expr = rel
		} else {
			expr = &And{Left: expr, Right: rel}
		}
		left = right
	}

	if expr == nil {
		return &Predicate{Kind: Contained, Term: left}, nil
	}
	return expr, nil
}

func relationOp(kind tokenKind) (RelationOp, bool) {
	switch kind {
	case tokArrow:
		return EventuallyFollows, true
	case tokDirectArrow:
		return DirectlyFollows, true
	case tokParallel:
		return Concurrent, true
	}
	return 0, false
}

func (p *parser) parseTerm() (Term, error) {
	tok := p.next()
	switch tok.kind {
	case tokIdent, tokString:
		name, err := p.activity(tok)
		if err != nil {
			return Term{}, err
		}
		return Term{Quantifier: One, Activities: []string{name}}, nil

	case tokAll, tokAny:
		q := All
		if tok.kind == tokAny {
			q = Any
		}
		if _, err := p.expect(tokLBrace, "'{'"); err != nil {
			return Term{}, err
		}
		var names []string
		for {
			item := p.next()
			if item.kind != tokIdent && item.kind != tokString {
				return Term{}, p.errorf(item, "expected activity, found %s", item.describe())
			}
			name, err := p.activity(item)
			if err != nil {
				return Term{}, err
			}
			names = append(names, name)

			sep := p.next()
			if sep.kind == tokRBrace {
				break
			}
			if sep.kind != tokComma {
				return Term{}, p.errorf(sep, "expected ',' or '}', found %s", sep.describe())
			}
		}
		return Term{Quantifier: q, Activities: names}, nil

	default:
		return Term{}, p.errorf(tok, "expected activity, found %s", tok.describe())
	}
}

func (p *parser) activity(tok token) (string, error) {
	name := variant.NormalizeActivity(tok.text)
	if name == "" {
		return "", p.errorf(tok, "empty activity name")
	}
	return name, nil
}
