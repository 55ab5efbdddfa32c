package engine

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/varq/internal/queryir"
	"github.com/roach88/varq/internal/variant"
)

// LogicalEvaluator evaluates AND/OR expression trees.
type LogicalEvaluator struct {
	Codec   PatternCodec
	Factory QueryFactory

	// Parallelism bounds how many children of one node are evaluated at
	// once. Zero means GOMAXPROCS; one evaluates children in order.
	Parallelism int

	// Logger receives debug output. Nil means slog.Default().
	Logger *slog.Logger
}

// Evaluate evaluates node over variants.
//
// defaultType names the query type used by leaves that do not carry their
// own. A non-empty default must name a valid query type even when every
// leaf overrides it. An empty default only fails at a leaf that needs it.
func (e *LogicalEvaluator) Evaluate(ctx context.Context, node queryir.Node, defaultType string, variants variant.Collection) (result MatchResult) {
	defer func() {
		if r := recover(); r != nil {
			result = Failure(recovered(r))
		}
	}()

	if defaultType != "" {
		if _, err := queryir.ParseQueryType(defaultType); err != nil {
			return Failure(NewQueryError(CodeInvalidQueryType, err.Error()))
		}
	}

	ids, err := e.eval(ctx, node, defaultType, variants, "$")
	if err != nil {
		return failed(err)
	}
	return Success(ids)
}

func (e *LogicalEvaluator) eval(ctx context.Context, node queryir.Node, defaultType string, variants variant.Collection, path string) ([]variant.ID, error) {
	if qe := cancelled(ctx); qe != nil {
		return nil, qe
	}

	switch n := node.(type) {
	case *queryir.Leaf:
		return e.evalLeaf(ctx, n, defaultType, variants, path)

	case *queryir.And:
		if len(n.Children) == 0 {
			return []variant.ID{}, nil
		}
		sets, err := e.evalChildren(ctx, n.Children, defaultType, variants, path)
		if err != nil {
			return nil, err
		}
		return variant.Intersect(sets...), nil

	case *queryir.Or:
		if len(n.Children) == 0 {
			return []variant.ID{}, nil
		}
		sets, err := e.evalChildren(ctx, n.Children, defaultType, variants, path)
		if err != nil {
			return nil, err
		}
		return variant.Union(sets...), nil

	case *queryir.Unknown:
		e.logger().Debug("unknown node evaluates to no matches", "path", path, "tag", n.Tag)
		return []variant.ID{}, nil

	case nil:
		return nil, NewQueryError(CodeInvalidExpression, fmt.Sprintf("nil node at %s", path))

	default:
		return nil, NewQueryError(CodeUnknownNodeType, fmt.Sprintf("unsupported node %T at %s", node, path))
	}
}

func (e *LogicalEvaluator) evalLeaf(ctx context.Context, leaf *queryir.Leaf, defaultType string, variants variant.Collection, path string) ([]variant.ID, error) {
	p, err := e.Codec.Decode(leaf.Pattern)
	if err != nil {
		return nil, NewQueryError(CodePatternDeserialization, fmt.Sprintf("%s: %v", path, err))
	}

	name := leaf.QueryType
	if name == "" {
		name = defaultType
	}
	qt, err := queryir.ParseQueryType(name)
	if err != nil {
		return nil, NewQueryError(CodeInvalidQueryType, fmt.Sprintf("%s: %v", path, err))
	}

	query, err := e.Factory.NewQuery(p, qt)
	if err != nil {
		return nil, NewQueryError(CodeMatchEvaluation, fmt.Sprintf("%s: failed to build %s query: %v", path, qt, err))
	}

	return matchAll(ctx, query, variants)
}

// evalChildren evaluates children concurrently. The first failure cancels
// the remaining siblings and is returned.
func (e *LogicalEvaluator) evalChildren(ctx context.Context, children []queryir.Node, defaultType string, variants variant.Collection, path string) ([][]variant.ID, error) {
	sets := make([][]variant.ID, len(children))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.parallelism())
	for i, child := range children {
		childPath := fmt.Sprintf("%s.children[%d]", path, i)
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = recovered(r)
				}
			}()
			ids, err := e.eval(gctx, child, defaultType, variants, childPath)
			if err != nil {
				return err
			}
			sets[i] = ids
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return sets, nil
}

func (e *LogicalEvaluator) parallelism() int {
	if e.Parallelism > 0 {
		return e.Parallelism
	}
	return runtime.GOMAXPROCS(0)
}

func (e *LogicalEvaluator) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.Default()
}
