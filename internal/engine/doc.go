// Package engine evaluates variant queries.
//
// Three evaluators share one result contract (MatchResult):
//
//   - TextualEvaluator parses a textual query and checks it against every
//     graph of every variant. A variant matches as soon as one of its graphs
//     does.
//   - PatternEvaluator runs one bound pattern query over a collection. Any
//     fault aborts the whole batch.
//   - LogicalEvaluator walks an AND/OR expression tree, delegating leaves to
//     PatternEvaluator and combining child results with set algebra.
//
// Parsing, graph checking, pattern decoding and pattern matching are
// capabilities supplied by the caller (Parser, GraphChecker, PatternCodec,
// QueryFactory). The engine never mutates a snapshot and holds no global
// state, so one snapshot may serve any number of concurrent evaluations.
//
// DETERMINISM:
//
// Variants are visited in ascending id order and graphs in ascending key
// order. Every id list leaving the package is sorted ascending and free of
// duplicates, whatever the fan-out degree of the logical evaluator.
//
// FAILURE CONTRACT:
//
// No evaluator returns a Go error or lets a panic escape. Faults become a
// *QueryError carrying an ErrorCode, and a cancelled or expired context
// becomes EVALUATION_CANCELLED. Partial results are never returned.
package engine
