package vql

import (
	"fmt"
	"unicode"

	"github.com/roach88/varq/internal/engine"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokString
	tokArrow       // ->
	tokDirectArrow // =>
	tokParallel    // ||
	tokLParen
	tokRParen
	tokLBrace
	tokRBrace
	tokComma
	tokAnd
	tokOr
	tokNot
	tokAll
	tokAny
	tokIsStart
	tokIsEnd
	tokIsContained
)

var keywords = map[string]tokenKind{
	"AND":         tokAnd,
	"OR":          tokOr,
	"NOT":         tokNot,
	"ALL":         tokAll,
	"ANY":         tokAny,
	"isStart":     tokIsStart,
	"isEnd":       tokIsEnd,
	"isContained": tokIsContained,
}

type token struct {
	kind tokenKind
	text string
	pos  int
}

func (t token) describe() string {
	if t.kind == tokEOF {
		return "end of query"
	}
	return fmt.Sprintf("%q", t.text)
}

// lex splits the query into tokens. Columns count runes from zero.
func lex(query string) ([]token, error) {
	src := []rune(query)
	var toks []token

	for i := 0; i < len(src); {
		r := src[i]
		switch {
		case unicode.IsSpace(r):
			i++

		case r == '(' || r == ')' || r == '{' || r == '}' || r == ',':
			toks = append(toks, token{kind: punctuation[r], text: string(r), pos: i})
			i++

		case r == '-' || r == '=':
			if i+1 < len(src) && src[i+1] == '>' {
				kind := tokArrow
				if r == '=' {
					kind = tokDirectArrow
				}
				toks = append(toks, token{kind: kind, text: string(src[i : i+2]), pos: i})
				i += 2
				continue
			}
			return nil, &engine.LexError{Message: fmt.Sprintf("unexpected character %q", r), Column: i}

		case r == '|':
			if i+1 < len(src) && src[i+1] == '|' {
				toks = append(toks, token{kind: tokParallel, text: "||", pos: i})
				i += 2
				continue
			}
			return nil, &engine.LexError{Message: fmt.Sprintf("unexpected character %q", r), Column: i}

		case r == '\'' || r == '"':
			end := i + 1
			for end < len(src) && src[end] != r {
				end++
			}
			if end >= len(src) {
				return nil, &engine.LexError{Message: "unterminated quoted activity", Column: i}
			}
			toks = append(toks, token{kind: tokString, text: string(src[i+1 : end]), pos: i})
			i = end + 1

		case isIdentRune(r):
			start := i
			for i < len(src) && isIdentRune(src[i]) {
				i++
			}
			text := string(src[start:i])
			kind, ok := keywords[text]
			if !ok {
				kind = tokIdent
			}
			toks = append(toks, token{kind: kind, text: text, pos: start})

		default:
			return nil, &engine.LexError{Message: fmt.Sprintf("unexpected character %q", r), Column: i}
		}
	}

	toks = append(toks, token{kind: tokEOF, pos: len(src)})
	return toks, nil
}

var punctuation = map[rune]tokenKind{
	'(': tokLParen,
	')': tokRParen,
	'{': tokLBrace,
	'}': tokRBrace,
	',': tokComma,
}

func isIdentRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsMark(r) || unicode.IsDigit(r) || r == '_' || r == '.'
}
