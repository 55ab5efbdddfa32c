package engine

import (
	"encoding/json"

	"github.com/roach88/varq/internal/variant"
)

// MatchResult is the outcome of one evaluation: either the matching ids or
// an error, never both.
type MatchResult struct {
	// IDs holds the matching variant ids, ascending and without duplicates.
	// Never nil on success.
	IDs []variant.ID

	// Err is set when the evaluation failed.
	Err *QueryError
}

// Success returns a successful result over ids, canonicalized.
func Success(ids []variant.ID) MatchResult {
	return MatchResult{IDs: variant.SortIDs(ids)}
}

// Failure returns a failed result.
func Failure(err *QueryError) MatchResult {
	return MatchResult{Err: err}
}

// failed converts any error into a failed result.
func failed(err error) MatchResult {
	return Failure(classify(err))
}

// OK reports whether the evaluation succeeded.
func (r MatchResult) OK() bool { return r.Err == nil }

// Error returns the failure as an error, or nil on success.
func (r MatchResult) Error() error {
	if r.Err == nil {
		return nil
	}
	return r.Err
}

type successDoc struct {
	IDs []variant.ID `json:"ids"`
}

type errorDoc struct {
	Error      string `json:"error"`
	ErrorIndex *int   `json:"error_index,omitempty"`
}

// MarshalJSON encodes {"ids": [...]} on success and
// {"error": "...", "error_index": n} on failure. error_index is omitted
// when the error has no position.
func (r MatchResult) MarshalJSON() ([]byte, error) {
	if r.Err != nil {
		return json.Marshal(errorDoc{Error: r.Err.Message, ErrorIndex: r.Err.Position})
	}
	ids := r.IDs
	if ids == nil {
		ids = []variant.ID{}
	}
	return json.Marshal(successDoc{IDs: ids})
}

// Canonical returns the result as a map suitable for ir.MarshalCanonical.
// Unlike the wire form it includes the error code.
func (r MatchResult) Canonical() map[string]any {
	if r.Err != nil {
		m := map[string]any{
			"code":  string(r.Err.Code),
			"error": r.Err.Message,
		}
		if r.Err.Position != nil {
			m["error_index"] = *r.Err.Position
		}
		return m
	}
	ids := make([]int64, len(r.IDs))
	for i, id := range r.IDs {
		ids[i] = int64(id)
	}
	return map[string]any{"ids": ids}
}
