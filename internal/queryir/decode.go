package queryir

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

//go:embed schema.cue
var schemaCUE string

// Node tags on the wire.
const (
	TagQuery = "query"
	TagAnd   = "and"
	TagOr    = "or"
)

// DecodeOptions controls how strictly Decode treats its input.
type DecodeOptions struct {
	// AllowUnknown decodes unrecognized node tags into *Unknown instead of
	// failing. It also skips the closed-shape schema check, since such
	// trees cannot satisfy it.
	AllowUnknown bool
}

// rawNode is the permissive JSON form of one node.
type rawNode struct {
	Type      *string           `json:"type"`
	Children  []json.RawMessage `json:"children"`
	Pattern   json.RawMessage   `json:"pattern"`
	QueryType *string           `json:"query_type"`
}

// Decode parses a serialized expression tree.
//
// Errors are *ExpressionError for malformed input and *UnknownNodeTypeError
// for unrecognized tags (unless opts.AllowUnknown).
func Decode(data []byte, opts DecodeOptions) (Node, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, &ExpressionError{Message: "expression is empty"}
	}
	if !json.Valid(trimmed) {
		return nil, &ExpressionError{Message: "expression is not valid JSON"}
	}

	node, err := decodeNode(trimmed, "$", opts)
	if err != nil {
		return nil, err
	}

	if !opts.AllowUnknown {
		if err := checkSchema(trimmed); err != nil {
			return nil, err
		}
	}
	return node, nil
}

func decodeNode(data json.RawMessage, path string, opts DecodeOptions) (Node, error) {
	var raw rawNode
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &ExpressionError{Path: path, Message: fmt.Sprintf("malformed node: %v", err)}
	}
	if raw.Type == nil {
		return nil, &ExpressionError{Path: path, Message: "missing node type"}
	}

	switch tag := *raw.Type; tag {
	case TagQuery:
		if len(raw.Pattern) == 0 || bytes.Equal(raw.Pattern, []byte("null")) {
			return nil, &ExpressionError{Path: path, Message: "query node requires a pattern"}
		}
		leaf := &Leaf{Pattern: raw.Pattern}
		if raw.QueryType != nil {
			leaf.QueryType = *raw.QueryType
		}
		return leaf, nil

	case TagAnd, TagOr:
		if len(raw.Pattern) > 0 {
			return nil, &ExpressionError{Path: path, Message: fmt.Sprintf("%s node cannot carry a pattern", tag)}
		}
		children := make([]Node, 0, len(raw.Children))
		for i, c := range raw.Children {
			child, err := decodeNode(c, fmt.Sprintf("%s.children[%d]", path, i), opts)
			if err != nil {
				return nil, err
			}
			children = append(children, child)
		}
		if tag == TagAnd {
			return &And{Children: children}, nil
		}
		return &Or{Children: children}, nil

	default:
		if opts.AllowUnknown {
			return &Unknown{Tag: tag}, nil
		}
		return nil, &UnknownNodeTypeError{Tag: tag, Path: path}
	}
}

// checkSchema unifies the document with the closed #Node definition.
// A fresh CUE context per call keeps Decode safe for concurrent use.
func checkSchema(data []byte) error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile expression schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Node"))

	doc := ctx.CompileBytes(data, cue.Filename("expression.json"))
	if err := doc.Err(); err != nil {
		return &ExpressionError{Message: err.Error()}
	}

	if err := def.Unify(doc).Validate(cue.Concrete(true)); err != nil {
		return &ExpressionError{Message: fmt.Sprintf("does not match schema: %v", err)}
	}
	return nil
}
