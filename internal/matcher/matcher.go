// Package matcher is a reference engine.QueryFactory for structural
// patterns.
//
// A variant matches a pattern when at least one of its graphs contains an
// occurrence of it. Occurrences are computed over activity-level
// reachability; this is not an embedding search and two pattern elements
// may share a node.
//
// The query types differ only in how they get there:
//
//	BFS      reachability by breadth-first walks, pattern interpreted per match
//	DFS      reachability by depth-first walks, pattern interpreted per match
//	VM       pattern compiled once in NewQuery, reachability from the
//	         graph's transitive closure
//	VM_LAZY  like VM, but compiled on the first Match
//
// All four return the same answers. A misplaced start or end marker is a
// *CompileError: NewQuery reports it for BFS, DFS and VM, Match reports it
// for VM_LAZY.
package matcher

import (
	"fmt"
	"sync"

	"github.com/roach88/varq/internal/engine"
	"github.com/roach88/varq/internal/pattern"
	"github.com/roach88/varq/internal/queryir"
	"github.com/roach88/varq/internal/variant"
)

// Factory binds patterns to matching strategies. The zero value is ready
// to use.
type Factory struct{}

var _ engine.QueryFactory = Factory{}

// NewQuery implements engine.QueryFactory.
func (Factory) NewQuery(p pattern.Pattern, qt queryir.QueryType) (engine.BoundQuery, error) {
	if p == nil {
		return nil, fmt.Errorf("matcher: nil pattern")
	}

	switch qt {
	case queryir.QueryTypeBFS, queryir.QueryTypeDFS:
		if _, err := compile(p, "$"); err != nil {
			return nil, err
		}
		order := variant.BreadthFirst
		if qt == queryir.QueryTypeDFS {
			order = variant.DepthFirst
		}
		return &interpreted{pattern: p, reach: walkReach(order)}, nil

	case queryir.QueryTypeVM:
		prog, err := compile(p, "$")
		if err != nil {
			return nil, err
		}
		return &compiled{prog: prog}, nil

	case queryir.QueryTypeVMLazy:
		return &lazy{pattern: p}, nil

	default:
		return nil, &queryir.InvalidQueryTypeError{Name: qt.String()}
	}
}

// interpreted recompiles the pattern on every Match.
type interpreted struct {
	pattern pattern.Pattern
	reach   reachFunc
}

func (q *interpreted) Match(v *variant.Variant) (bool, error) {
	prog, err := compile(q.pattern, "$")
	if err != nil {
		return false, err
	}
	return matchVariant(prog, q.reach, v)
}

type compiled struct {
	prog step
}

func (q *compiled) Match(v *variant.Variant) (bool, error) {
	return matchVariant(q.prog, closureReach, v)
}

type lazy struct {
	pattern pattern.Pattern

	once sync.Once
	prog step
	err  error
}

func (q *lazy) Match(v *variant.Variant) (bool, error) {
	q.once.Do(func() {
		q.prog, q.err = compile(q.pattern, "$")
	})
	if q.err != nil {
		return false, q.err
	}
	return matchVariant(q.prog, closureReach, v)
}

func matchVariant(prog step, reach reachFunc, v *variant.Variant) (bool, error) {
	for _, key := range v.GraphKeys() {
		spans, err := prog(&env{g: v.Graphs[key], reach: reach})
		if err != nil {
			return false, fmt.Errorf("graph %q: %w", key, err)
		}
		if len(spans) > 0 {
			return true, nil
		}
	}
	return false, nil
}
