package queryir

import (
	"errors"
	"fmt"
)

// InvalidQueryTypeError reports a query type name outside the enumeration.
type InvalidQueryTypeError struct {
	Name string
}

func (e *InvalidQueryTypeError) Error() string {
	return fmt.Sprintf("invalid query type %q: must be one of %s", e.Name, queryTypeNameList())
}

// UnknownNodeTypeError reports a node tag that is not query, and, or or.
type UnknownNodeTypeError struct {
	Tag  string
	Path string // JSON path of the node, e.g. "$.children[1]"
}

func (e *UnknownNodeTypeError) Error() string {
	return fmt.Sprintf("unknown logical node type %q at %s", e.Tag, e.Path)
}

// ExpressionError reports a structurally malformed expression tree.
type ExpressionError struct {
	Path    string
	Message string
}

func (e *ExpressionError) Error() string {
	if e.Path == "" {
		return "invalid expression: " + e.Message
	}
	return fmt.Sprintf("invalid expression at %s: %s", e.Path, e.Message)
}

// IsInvalidQueryType returns true if err is or wraps an InvalidQueryTypeError.
func IsInvalidQueryType(err error) bool {
	var e *InvalidQueryTypeError
	return errors.As(err, &e)
}

// IsUnknownNodeType returns true if err is or wraps an UnknownNodeTypeError.
func IsUnknownNodeType(err error) bool {
	var e *UnknownNodeTypeError
	return errors.As(err, &e)
}
