// Package queryir defines the logical expression tree that combines pattern
// queries with boolean AND / OR.
//
// SEALED INTERFACE:
//
// Node is sealed with a marker method; only Leaf, And, Or and Unknown
// implement it. Evaluators switch exhaustively over those four types:
//
//	switch n := node.(type) {
//	case *Leaf:
//	    // one pattern query
//	case *And:
//	    // intersection of children
//	case *Or:
//	    // union of children
//	case *Unknown:
//	    // only produced by permissive decoding
//	}
//
// WIRE FORM:
//
// Trees arrive as nested JSON:
//
//	{"type": "and", "children": [
//	    {"type": "query", "pattern": {...}},
//	    {"type": "or", "children": [
//	        {"type": "query", "pattern": {...}, "query_type": "DFS"},
//	        {"type": "query", "pattern": {...}}
//	    ]}
//	]}
//
// Decode validates the whole tree before anything is evaluated: node tags,
// required fields, and (in strict mode) the closed shape described by the
// embedded CUE schema. A tree that decodes is structurally sound; the only
// leaf-level failures left for evaluation time are those owned by other
// collaborators (pattern deserialization, query type resolution).
//
// QUERY TYPES:
//
// QueryType is a closed enumeration resolved by exact name through an
// explicit table. Unrecognized names fail with *InvalidQueryTypeError; there
// is no default substitution.
package queryir
