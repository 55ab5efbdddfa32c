package matcher

import (
	"fmt"
	"slices"

	"github.com/roach88/varq/internal/variant"
)

// span is one way a pattern element can occur in a graph: the nodes where
// the occurrence begins and the nodes where it ends. An empty span is an
// element that matched nothing (an absent optional, a zero-length loop).
type span struct {
	firsts []int
	lasts  []int
}

var emptySpan = span{}

func (s span) empty() bool { return len(s.firsts) == 0 }

func (s span) key() string { return fmt.Sprint(s.firsts, s.lasts) }

func single(n int) span { return span{firsts: []int{n}, lasts: []int{n}} }

// maxSpans bounds the candidate occurrences kept per element.
const maxSpans = 4096

// spanSet collects spans without duplicates.
type spanSet struct {
	spans []span
	seen  map[string]bool
}

func newSpanSet() *spanSet { return &spanSet{seen: map[string]bool{}} }

func (s *spanSet) add(sp span) error {
	k := sp.key()
	if s.seen[k] {
		return nil
	}
	if len(s.spans) >= maxSpans {
		return fmt.Errorf("pattern has more than %d candidate occurrences", maxSpans)
	}
	s.seen[k] = true
	s.spans = append(s.spans, sp)
	return nil
}

// reachFunc reports whether a non-empty path leads from a to b.
type reachFunc func(g *variant.Graph, a, b int) bool

func closureReach(g *variant.Graph, a, b int) bool { return g.Reaches(a, b) }

func walkReach(order variant.Order) reachFunc {
	return func(g *variant.Graph, a, b int) bool {
		found := false
		g.Walk(a, order, func(n int) bool {
			if n == b {
				found = true
				return false
			}
			return true
		})
		return found
	}
}

// env is what a compiled step sees while matching one graph.
type env struct {
	g     *variant.Graph
	reach reachFunc
}

func (e *env) concurrent(a, b int) bool {
	return a != b && !e.reach(e.g, a, b) && !e.reach(e.g, b, a)
}

// then composes s followed by t. Every end of s must reach every start of t.
func (e *env) then(s, t span) (span, bool) {
	switch {
	case s.empty():
		return t, true
	case t.empty():
		return s, true
	}
	for _, a := range s.lasts {
		for _, b := range t.firsts {
			if !e.reach(e.g, a, b) {
				return span{}, false
			}
		}
	}
	return span{firsts: s.firsts, lasts: t.lasts}, true
}

// alongside merges spans that occur side by side.
func alongside(s, t span) span {
	return span{
		firsts: sortedUnion(s.firsts, t.firsts),
		lasts:  sortedUnion(s.lasts, t.lasts),
	}
}

func sortedUnion(a, b []int) []int {
	out := append(slices.Clone(a), b...)
	slices.Sort(out)
	return slices.Compact(out)
}

func (s span) nodes() []int { return sortedUnion(s.firsts, s.lasts) }
