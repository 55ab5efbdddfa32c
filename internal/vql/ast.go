package vql

import (
	"fmt"
	"strings"
)

// Expr is a parsed query.
//
// This is a sealed interface - only types in this package implement it.
type Expr interface {
	fmt.Stringer
	vqlExpr()
}

// Quantifier says how a term's activities combine.
type Quantifier int

const (
	// One is a single activity.
	One Quantifier = iota
	// All requires every activity of the term to satisfy the predicate.
	All
	// Any requires at least one.
	Any
)

// Term names the activities a predicate talks about.
type Term struct {
	Quantifier Quantifier
	Activities []string
}

func (t Term) String() string {
	names := make([]string, len(t.Activities))
	for i, a := range t.Activities {
		names[i] = quoteIfNeeded(a)
	}
	switch t.Quantifier {
	case All:
		return "ALL{" + strings.Join(names, ", ") + "}"
	case Any:
		return "ANY{" + strings.Join(names, ", ") + "}"
	default:
		return names[0]
	}
}

// PredicateKind is a unary predicate.
type PredicateKind int

const (
	Contained PredicateKind = iota
	Start
	End
)

var predicateNames = map[PredicateKind]string{
	Contained: "isContained",
	Start:     "isStart",
	End:       "isEnd",
}

// Predicate tests single activities.
type Predicate struct {
	Kind PredicateKind
	Term Term
}

func (*Predicate) vqlExpr() {}

func (p *Predicate) String() string {
	return predicateNames[p.Kind] + "(" + p.Term.String() + ")"
}

// RelationOp is a binary ordering relation.
type RelationOp int

const (
	EventuallyFollows RelationOp = iota
	DirectlyFollows
	Concurrent
)

var relationSymbols = map[RelationOp]string{
	EventuallyFollows: "->",
	DirectlyFollows:   "=>",
	Concurrent:        "||",
}

// Relation relates two terms.
type Relation struct {
	Op    RelationOp
	Left  Term
	Right Term
}

func (*Relation) vqlExpr() {}

func (r *Relation) String() string {
	return r.Left.String() + " " + relationSymbols[r.Op] + " " + r.Right.String()
}

// Not negates an expression.
type Not struct {
	Expr Expr
}

func (*Not) vqlExpr() {}

func (n *Not) String() string { return "NOT " + n.Expr.String() }

// And holds when both sides do.
type And struct {
	Left, Right Expr
}

func (*And) vqlExpr() {}

func (a *And) String() string { return "(" + a.Left.String() + " AND " + a.Right.String() + ")" }

// Or holds when either side does.
type Or struct {
	Left, Right Expr
}

func (*Or) vqlExpr() {}

func (o *Or) String() string { return "(" + o.Left.String() + " OR " + o.Right.String() + ")" }

func quoteIfNeeded(a string) string {
	if _, kw := keywords[a]; kw || a == "" {
		return "'" + a + "'"
	}
	for _, r := range a {
		if !isIdentRune(r) {
			return "'" + a + "'"
		}
	}
	return a
}
