package engine

import (
	"context"
	"fmt"

	"github.com/roach88/varq/internal/variant"
)

// TextualEvaluator evaluates textual queries.
type TextualEvaluator struct {
	Parser  Parser
	Checker GraphChecker
}

// Evaluate parses query and returns every variant with at least one graph
// that satisfies it.
//
// Lexing and parsing failures come back as LEX_ERROR or PARSE_ERROR with
// the offending column. Checker faults abort the evaluation with
// MATCH_EVALUATION.
func (e *TextualEvaluator) Evaluate(ctx context.Context, query string, snap *variant.Snapshot) (result MatchResult) {
	defer func() {
		if r := recover(); r != nil {
			result = Failure(recovered(r))
		}
	}()

	if qe := cancelled(ctx); qe != nil {
		return Failure(qe)
	}

	tree, err := e.Parser.Parse(query)
	if err != nil {
		return failed(err)
	}

	var ids []variant.ID
	for _, id := range snap.Variants.IDs() {
		if qe := cancelled(ctx); qe != nil {
			return Failure(qe)
		}
		ok, err := e.checkVariant(tree, snap.Variants[id], snap.Activities)
		if err != nil {
			return failed(err)
		}
		if ok {
			ids = append(ids, id)
		}
	}
	return Success(ids)
}

// checkVariant stops at the first graph that satisfies tree.
func (e *TextualEvaluator) checkVariant(tree QueryTree, v *variant.Variant, activities variant.Vocabulary) (bool, error) {
	for _, key := range v.GraphKeys() {
		ok, err := e.Checker.Check(tree, v.Graphs[key], activities)
		if err != nil {
			return false, NewQueryError(CodeMatchEvaluation,
				fmt.Sprintf("graph check failed for variant %d graph %q: %v", v.ID, key, err))
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}
