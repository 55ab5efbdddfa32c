package vql

import (
	"fmt"

	"github.com/roach88/varq/internal/engine"
	"github.com/roach88/varq/internal/variant"
)

// Checker evaluates parsed queries against single graphs. The zero value
// is ready to use.
type Checker struct{}

// Check implements engine.GraphChecker.
//
// An activity outside the vocabulary occurs in no graph. An empty
// vocabulary places no restriction.
func (Checker) Check(tree engine.QueryTree, g *variant.Graph, activities variant.Vocabulary) (bool, error) {
	expr, ok := tree.(Expr)
	if !ok {
		return false, fmt.Errorf("vql: cannot check query tree of type %T", tree)
	}
	return Eval(expr, g, activities), nil
}

// Eval reports whether g satisfies expr.
func Eval(expr Expr, g *variant.Graph, activities variant.Vocabulary) bool {
	c := &check{g: g, vocab: activities}
	return c.eval(expr)
}

type check struct {
	g     *variant.Graph
	vocab variant.Vocabulary
}

func (c *check) eval(expr Expr) bool {
	switch e := expr.(type) {
	case *Or:
		return c.eval(e.Left) || c.eval(e.Right)
	case *And:
		return c.eval(e.Left) && c.eval(e.Right)
	case *Not:
		return !c.eval(e.Expr)
	case *Predicate:
		return quantify(e.Term, func(a string) bool { return c.unary(e.Kind, a) })
	case *Relation:
		return quantify(e.Left, func(l string) bool {
			return quantify(e.Right, func(r string) bool { return c.binary(e.Op, l, r) })
		})
	default:
		panic(fmt.Sprintf("vql: unexpected expression %T", expr))
	}
}

func quantify(t Term, holds func(string) bool) bool {
	switch t.Quantifier {
	case All:
		for _, a := range t.Activities {
			if !holds(a) {
				return false
			}
		}
		return true
	default:
		for _, a := range t.Activities {
			if holds(a) {
				return true
			}
		}
		return false
	}
}

func (c *check) nodes(activity string) []int {
	if len(c.vocab) > 0 && !c.vocab.Contains(activity) {
		return nil
	}
	return c.g.NodesWithActivity(activity)
}

func (c *check) unary(kind PredicateKind, activity string) bool {
	for _, n := range c.nodes(activity) {
		switch kind {
		case Contained:
			return true
		case Start:
			if c.g.IsStart(n) {
				return true
			}
		case End:
			if c.g.IsEnd(n) {
				return true
			}
		}
	}
	return false
}

func (c *check) binary(op RelationOp, left, right string) bool {
	rights := c.nodes(right)
	for _, a := range c.nodes(left) {
		for _, b := range rights {
			var ok bool
			switch op {
			case EventuallyFollows:
				ok = c.g.Reaches(a, b)
			case DirectlyFollows:
				ok = c.g.DirectlyFollows(a, b)
			case Concurrent:
				ok = c.g.Concurrent(a, b)
			}
			if ok {
				return true
			}
		}
	}
	return false
}
