package queryir

import "encoding/json"

// Node is one node of a logical expression tree.
//
// This is a sealed interface - only types in this package implement it.
type Node interface {
	exprNode() // Marker method - seals interface to this package
}

// Leaf is a single pattern query.
//
// Pattern is the serialized structural pattern, decoded by the pattern codec
// at evaluation time. QueryType names the matching strategy for this leaf;
// empty means the request's default.
type Leaf struct {
	Pattern   json.RawMessage
	QueryType string
}

func (*Leaf) exprNode() {}

// And matches the variants matched by every child.
//
// An And with no children matches nothing. This is the behavior callers
// have always observed, not the algebraic identity for conjunction.
type And struct {
	Children []Node
}

func (*And) exprNode() {}

// Or matches the variants matched by any child. No children, no matches.
type Or struct {
	Children []Node
}

func (*Or) exprNode() {}

// Unknown stands in for a node whose tag was not recognized. It is only
// produced when DecodeOptions.AllowUnknown is set, and evaluates to the
// empty set.
type Unknown struct {
	Tag string
}

func (*Unknown) exprNode() {}

// NewLeaf returns a leaf over a serialized pattern.
func NewLeaf(pattern string, queryType string) *Leaf {
	return &Leaf{Pattern: json.RawMessage(pattern), QueryType: queryType}
}

// NewAnd returns an And over children.
func NewAnd(children ...Node) *And {
	return &And{Children: children}
}

// NewOr returns an Or over children.
func NewOr(children ...Node) *Or {
	return &Or{Children: children}
}
