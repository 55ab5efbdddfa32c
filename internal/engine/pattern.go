package engine

import (
	"context"
	"fmt"

	"github.com/roach88/varq/internal/variant"
)

// PatternEvaluator runs one bound query over a collection.
type PatternEvaluator struct{}

// Evaluate matches every variant against query.
//
// The batch is all-or-nothing: if matching fails or panics for any variant,
// the result is a single MATCH_EVALUATION error and no ids.
func (PatternEvaluator) Evaluate(ctx context.Context, query BoundQuery, variants variant.Collection) MatchResult {
	ids, err := matchAll(ctx, query, variants)
	if err != nil {
		return failed(err)
	}
	return Success(ids)
}

func matchAll(ctx context.Context, query BoundQuery, variants variant.Collection) ([]variant.ID, error) {
	ids := []variant.ID{}
	for _, id := range variants.IDs() {
		if qe := cancelled(ctx); qe != nil {
			return nil, qe
		}
		ok, err := matchOne(query, variants[id])
		if err != nil {
			return nil, err
		}
		if ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// matchOne isolates a single Match call so that a panic in the query is
// reported against the variant that caused it.
func matchOne(query BoundQuery, v *variant.Variant) (ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
			err = NewQueryError(CodeMatchEvaluation, fmt.Sprintf("match panicked on variant %d: %v", v.ID, r))
		}
	}()

	ok, err = query.Match(v)
	if err != nil {
		return false, NewQueryError(CodeMatchEvaluation, fmt.Sprintf("match failed on variant %d: %v", v.ID, err))
	}
	return ok, nil
}
