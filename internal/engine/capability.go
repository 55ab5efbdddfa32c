package engine

import (
	"encoding/json"

	"github.com/roach88/varq/internal/pattern"
	"github.com/roach88/varq/internal/queryir"
	"github.com/roach88/varq/internal/variant"
)

// QueryTree is a parsed textual query. The engine does not look inside it;
// it only hands it back to the GraphChecker that understands it.
type QueryTree any

// Parser turns a textual query into a QueryTree. Failures should be
// *LexError or *ParseError so the caller can point at the bad column.
type Parser interface {
	Parse(text string) (QueryTree, error)
}

// GraphChecker reports whether one graph satisfies a parsed query.
type GraphChecker interface {
	Check(tree QueryTree, g *variant.Graph, activities variant.Vocabulary) (bool, error)
}

// PatternCodec decodes a serialized structural pattern. Failures should be
// *pattern.DecodeError.
type PatternCodec interface {
	Decode(data json.RawMessage) (pattern.Pattern, error)
}

// QueryFactory binds a pattern to a matching strategy.
type QueryFactory interface {
	NewQuery(p pattern.Pattern, queryType queryir.QueryType) (BoundQuery, error)
}

// BoundQuery is a pattern ready to be matched against variants.
// Implementations must be safe for concurrent use.
type BoundQuery interface {
	Match(v *variant.Variant) (bool, error)
}

// ParserFunc adapts a function to Parser.
type ParserFunc func(text string) (QueryTree, error)

// Parse calls f(text).
func (f ParserFunc) Parse(text string) (QueryTree, error) { return f(text) }

// CheckerFunc adapts a function to GraphChecker.
type CheckerFunc func(tree QueryTree, g *variant.Graph, activities variant.Vocabulary) (bool, error)

// Check calls f(tree, g, activities).
func (f CheckerFunc) Check(tree QueryTree, g *variant.Graph, activities variant.Vocabulary) (bool, error) {
	return f(tree, g, activities)
}

// MatchFunc adapts a function to BoundQuery.
type MatchFunc func(v *variant.Variant) (bool, error)

// Match calls f(v).
func (f MatchFunc) Match(v *variant.Variant) (bool, error) { return f(v) }
