// Package pattern decodes serialized structural patterns.
//
// A pattern is a tree of group elements, each serialized as a JSON object
// with exactly one kind key:
//
//	{"follows":  [...]}                 ordered sequence
//	{"parallel": [...]}                 concurrent elements
//	{"choice":   [...]}                 exactly one alternative
//	{"optional": [...]}                 may be absent
//	{"fallthrough": [...]}              all elements, any order
//	{"loop": [...], "repeat_count_min": 1, "repeat_count_max": 3}
//	{"leaf": ["A", "B"]}                one activity out of the list
//	{"start": true} / {"end": true}     trace boundaries
//	{"anything": true}                  any (possibly empty) run of activities
//	{"wildcard": true}                  exactly one arbitrary activity
//
// Decoding is strict: unknown keys, several kind keys on one object, or
// empty groups are *DecodeError.
package pattern

import (
	"fmt"
	"strings"
)

// Kind identifies the type of a pattern element.
type Kind int

const (
	KindFollows Kind = iota + 1
	KindParallel
	KindChoice
	KindOptional
	KindFallthrough
	KindLoop
	KindLeaf
	KindStart
	KindEnd
	KindAnything
	KindWildcard
)

var kindNames = map[Kind]string{
	KindFollows:     "follows",
	KindParallel:    "parallel",
	KindChoice:      "choice",
	KindOptional:    "optional",
	KindFallthrough: "fallthrough",
	KindLoop:        "loop",
	KindLeaf:        "leaf",
	KindStart:       "start",
	KindEnd:         "end",
	KindAnything:    "anything",
	KindWildcard:    "wildcard",
}

// String returns the wire key of the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// IsGroup reports whether elements of this kind carry children.
func (k Kind) IsGroup() bool {
	switch k {
	case KindFollows, KindParallel, KindChoice, KindOptional, KindFallthrough, KindLoop:
		return true
	}
	return false
}

// Element is one node of a structural pattern.
type Element struct {
	Kind Kind

	// Children holds the nested elements of group kinds.
	Children []*Element

	// Activities holds the alternatives of a leaf.
	Activities []string

	// RepeatMin and RepeatMax bound a loop. RepeatMax < 0 means unbounded.
	RepeatMin int
	RepeatMax int
}

// Pattern is the root element of a decoded pattern.
type Pattern = *Element

// Activities returns every activity named by leaves under e, in tree order,
// without duplicates.
func (e *Element) Activities() []string {
	seen := map[string]bool{}
	var out []string
	var walk func(*Element)
	walk = func(el *Element) {
		for _, a := range el.Activities {
			if !seen[a] {
				seen[a] = true
				out = append(out, a)
			}
		}
		for _, c := range el.Children {
			walk(c)
		}
	}
	walk(e)
	return out
}

// String renders the element compactly, e.g. follows(leaf(A), leaf(B|C)).
func (e *Element) String() string {
	var b strings.Builder
	e.write(&b)
	return b.String()
}

func (e *Element) write(b *strings.Builder) {
	b.WriteString(e.Kind.String())
	switch {
	case e.Kind == KindLeaf:
		b.WriteString("(" + strings.Join(e.Activities, "|") + ")")
	case e.Kind.IsGroup():
		b.WriteByte('(')
		for i, c := range e.Children {
			if i > 0 {
				b.WriteString(", ")
			}
			c.write(b)
		}
		b.WriteByte(')')
		if e.Kind == KindLoop {
			if e.RepeatMax < 0 {
				fmt.Fprintf(b, "{%d,}", e.RepeatMin)
			} else {
				fmt.Fprintf(b, "{%d,%d}", e.RepeatMin, e.RepeatMax)
			}
		}
	}
}
