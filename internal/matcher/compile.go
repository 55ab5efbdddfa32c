package matcher

import (
	"fmt"

	"github.com/roach88/varq/internal/pattern"
)

// step yields every occurrence of one element in the graph of env.
type step func(e *env) ([]span, error)

// CompileError reports a pattern that is well formed but cannot be matched,
// such as a start marker that is not the first element of a follows group.
type CompileError struct {
	Path    string
	Message string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("cannot compile pattern at %s: %s", e.Path, e.Message)
}

// compile turns a pattern into a step tree.
func compile(el *pattern.Element, path string) (step, error) {
	switch el.Kind {
	case pattern.KindLeaf:
		acts := el.Activities
		return func(e *env) ([]span, error) {
			var out []span
			for _, a := range acts {
				for _, n := range e.g.NodesWithActivity(a) {
					out = append(out, single(n))
				}
			}
			return out, nil
		}, nil

	case pattern.KindWildcard:
		return func(e *env) ([]span, error) {
			out := make([]span, e.g.Len())
			for n := range out {
				out[n] = single(n)
			}
			return out, nil
		}, nil

	case pattern.KindAnything:
		return func(e *env) ([]span, error) {
			set := newSpanSet()
			if err := set.add(emptySpan); err != nil {
				return nil, err
			}
			for a := 0; a < e.g.Len(); a++ {
				if err := set.add(single(a)); err != nil {
					return nil, err
				}
				for b := 0; b < e.g.Len(); b++ {
					if e.reach(e.g, a, b) {
						if err := set.add(span{firsts: []int{a}, lasts: []int{b}}); err != nil {
							return nil, err
						}
					}
				}
			}
			return set.spans, nil
		}, nil

	case pattern.KindStart, pattern.KindEnd:
		return nil, &CompileError{Path: path, Message: misplacedMarker(el.Kind)}

	case pattern.KindFollows:
		return compileFollows(el.Children, path+".follows", true)

	case pattern.KindOptional:
		body, err := compileFollows(el.Children, path+".optional", false)
		if err != nil {
			return nil, err
		}
		return func(e *env) ([]span, error) {
			spans, err := body(e)
			if err != nil {
				return nil, err
			}
			return append([]span{emptySpan}, spans...), nil
		}, nil

	case pattern.KindChoice:
		children, err := compileChildren(el.Children, path+"."+el.Kind.String())
		if err != nil {
			return nil, err
		}
		return func(e *env) ([]span, error) {
			set := newSpanSet()
			for _, c := range children {
				spans, err := c(e)
				if err != nil {
					return nil, err
				}
				for _, sp := range spans {
					if err := set.add(sp); err != nil {
						return nil, err
					}
				}
			}
			return set.spans, nil
		}, nil

	case pattern.KindParallel, pattern.KindFallthrough:
		children, err := compileChildren(el.Children, path+"."+el.Kind.String())
		if err != nil {
			return nil, err
		}
		concurrent := el.Kind == pattern.KindParallel
		return func(e *env) ([]span, error) {
			return combine(e, children, concurrent)
		}, nil

	case pattern.KindLoop:
		body, err := compileFollows(el.Children, path+".loop", false)
		if err != nil {
			return nil, err
		}
		return loop(body, el.RepeatMin, el.RepeatMax), nil

	default:
		return nil, &CompileError{Path: path, Message: fmt.Sprintf("unsupported element %s", el.Kind)}
	}
}

func misplacedMarker(kind pattern.Kind) string {
	if kind == pattern.KindStart {
		return "start must be the first element of a follows group"
	}
	return "end must be the last element of a follows group"
}

func compileChildren(children []*pattern.Element, path string) ([]step, error) {
	steps := make([]step, len(children))
	for i, c := range children {
		s, err := compile(c, fmt.Sprintf("%s[%d]", path, i))
		if err != nil {
			return nil, err
		}
		steps[i] = s
	}
	return steps, nil
}

// compileFollows sequences children. When markers is true a leading start
// and a trailing end anchor the sequence to the graph's boundaries.
func compileFollows(children []*pattern.Element, path string, markers bool) (step, error) {
	var atStart, atEnd bool
	if markers {
		if len(children) > 0 && children[0].Kind == pattern.KindStart {
			atStart = true
			children = children[1:]
		}
		if len(children) > 0 && children[len(children)-1].Kind == pattern.KindEnd {
			atEnd = true
			children = children[:len(children)-1]
		}
	}
	offset := 0
	if atStart {
		offset = 1
	}
	steps := make([]step, len(children))
	for i, c := range children {
		s, err := compile(c, fmt.Sprintf("%s[%d]", path, i+offset))
		if err != nil {
			return nil, err
		}
		steps[i] = s
	}

	return func(e *env) ([]span, error) {
		current := []span{emptySpan}
		for _, s := range steps {
			next, err := s(e)
			if err != nil {
				return nil, err
			}
			set := newSpanSet()
			for _, a := range current {
				for _, b := range next {
					joined, ok := e.then(a, b)
					if !ok {
						continue
					}
					if err := set.add(joined); err != nil {
						return nil, err
					}
				}
			}
			current = set.spans
			if len(current) == 0 {
				return nil, nil
			}
		}
		if !atStart && !atEnd {
			return current, nil
		}

		var out []span
		for _, sp := range current {
			if sp.empty() {
				continue
			}
			if atStart && !all(sp.firsts, e.g.IsStart) {
				continue
			}
			if atEnd && !all(sp.lasts, e.g.IsEnd) {
				continue
			}
			out = append(out, sp)
		}
		return out, nil
	}, nil
}

func all(nodes []int, pred func(int) bool) bool {
	for _, n := range nodes {
		if !pred(n) {
			return false
		}
	}
	return true
}

// combine picks one occurrence per child. With concurrent set, nodes taken
// from different children must be pairwise concurrent.
func combine(e *env, children []step, concurrent bool) ([]span, error) {
	current := []span{emptySpan}
	for _, c := range children {
		next, err := c(e)
		if err != nil {
			return nil, err
		}
		set := newSpanSet()
		for _, a := range current {
			for _, b := range next {
				if concurrent && !pairwiseConcurrent(e, a, b) {
					continue
				}
				if err := set.add(alongside(a, b)); err != nil {
					return nil, err
				}
			}
		}
		current = set.spans
		if len(current) == 0 {
			return nil, nil
		}
	}
	return current, nil
}

func pairwiseConcurrent(e *env, a, b span) bool {
	for _, x := range a.nodes() {
		for _, y := range b.nodes() {
			if !e.concurrent(x, y) {
				return false
			}
		}
	}
	return true
}

// loop repeats body between lo and hi times in sequence. A negative hi
// is bounded by the graph size, since every repetition that matches
// something moves strictly forward in an acyclic graph.
func loop(body step, lo, hi int) step {
	return func(e *env) ([]span, error) {
		limit := hi
		if limit < 0 || limit > e.g.Len() {
			limit = e.g.Len()
		}

		out := newSpanSet()
		if lo == 0 {
			if err := out.add(emptySpan); err != nil {
				return nil, err
			}
		}

		once, err := body(e)
		if err != nil {
			return nil, err
		}
		current := once
		for reps := 1; reps <= limit && len(current) > 0; reps++ {
			if reps >= lo {
				for _, sp := range current {
					if err := out.add(sp); err != nil {
						return nil, err
					}
				}
			}
			set := newSpanSet()
			for _, a := range current {
				for _, b := range once {
					if a.empty() || b.empty() {
						continue
					}
					joined, ok := e.then(a, b)
					if !ok {
						continue
					}
					if err := set.add(joined); err != nil {
						return nil, err
					}
				}
			}
			current = set.spans
		}
		return out.spans, nil
	}
}
