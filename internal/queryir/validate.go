package queryir

import "fmt"

// ValidationResult reports structural warnings about an expression tree.
//
// A tree with warnings still evaluates; the warnings point at parts that
// cannot contribute matches or will fail at evaluation time.
type ValidationResult struct {
	// Leaves is the number of pattern queries in the tree.
	Leaves int

	// Depth is the height of the tree (a lone leaf has depth 1).
	Depth int

	// Warnings lists problems found during the walk, in tree order.
	Warnings []string
}

// OK reports whether the walk produced no warnings.
func (r ValidationResult) OK() bool { return len(r.Warnings) == 0 }

// Validate walks a tree without evaluating it.
//
// Warnings are produced for:
//  1. And / Or nodes without children (they always evaluate to nothing)
//  2. Unknown nodes (they always evaluate to nothing)
//  3. Leaves whose query type name does not resolve
//  4. nil nodes
//
// Validate is a pure function with no side effects.
func Validate(node Node) ValidationResult {
	v := &validator{warnings: []string{}}
	depth := v.walk(node, "$")
	return ValidationResult{Leaves: v.leaves, Depth: depth, Warnings: v.warnings}
}

// validator accumulates warnings during traversal.
type validator struct {
	leaves   int
	warnings []string
}

func (v *validator) addWarning(format string, args ...any) {
	v.warnings = append(v.warnings, fmt.Sprintf(format, args...))
}

// walk validates n and returns the depth of its subtree.
func (v *validator) walk(n Node, path string) int {
	switch node := n.(type) {
	case nil:
		v.addWarning("%s: nil node", path)
		return 0
	case *Leaf:
		v.leaves++
		if node.QueryType != "" {
			if _, err := ParseQueryType(node.QueryType); err != nil {
				v.addWarning("%s: %v", path, err)
			}
		}
		return 1
	case *And:
		return v.walkChildren("and", node.Children, path)
	case *Or:
		return v.walkChildren("or", node.Children, path)
	case *Unknown:
		v.addWarning("%s: unknown node type %q evaluates to no matches", path, node.Tag)
		return 1
	default:
		v.addWarning("%s: unsupported node %T", path, n)
		return 0
	}
}

func (v *validator) walkChildren(tag string, children []Node, path string) int {
	if len(children) == 0 {
		v.addWarning("%s: %s node without children evaluates to no matches", path, tag)
		return 1
	}
	deepest := 0
	for i, c := range children {
		if d := v.walk(c, fmt.Sprintf("%s.children[%d]", path, i)); d > deepest {
			deepest = d
		}
	}
	return deepest + 1
}
