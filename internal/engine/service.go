package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/varq/internal/queryir"
	"github.com/roach88/varq/internal/variant"
)

// SnapshotSource hands out the snapshot an evaluation runs against.
// Implementations must return snapshots that are never mutated afterwards.
type SnapshotSource interface {
	Snapshot(ctx context.Context) (*variant.Snapshot, error)
}

// StaticSource always returns the same snapshot.
type StaticSource struct {
	snap *variant.Snapshot
}

// NewStaticSource wraps snap as a SnapshotSource.
func NewStaticSource(snap *variant.Snapshot) *StaticSource {
	return &StaticSource{snap: snap}
}

// Snapshot returns the wrapped snapshot.
func (s *StaticSource) Snapshot(context.Context) (*variant.Snapshot, error) {
	return s.snap, nil
}

// Capabilities bundles the collaborators the evaluators delegate to.
type Capabilities struct {
	Parser  Parser
	Checker GraphChecker
	Codec   PatternCodec
	Factory QueryFactory
}

// Operation names a Service entry point.
type Operation string

const (
	OpTextual Operation = "textual"
	OpPattern Operation = "pattern"
	OpLogical Operation = "logical"
)

// Observer is notified after every evaluation. The server uses it to feed
// metrics. It must not block.
type Observer interface {
	ObserveEvaluation(op Operation, result MatchResult, elapsed time.Duration)
}

// Service is the boundary facade: it resolves a snapshot, tags the call
// with a request id, runs the matching evaluator and logs the outcome.
//
// Service is safe for concurrent use.
type Service struct {
	source      SnapshotSource
	caps        Capabilities
	ids         RequestIDGenerator
	logger      *slog.Logger
	observer    Observer
	timeout     time.Duration
	parallelism int
	decodeOpts  queryir.DecodeOptions
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) ServiceOption {
	return func(s *Service) { s.logger = l }
}

// WithTimeout bounds every evaluation. Zero disables the bound.
func WithTimeout(d time.Duration) ServiceOption {
	return func(s *Service) { s.timeout = d }
}

// WithParallelism bounds the fan-out of logical evaluation per node.
func WithParallelism(n int) ServiceOption {
	return func(s *Service) { s.parallelism = n }
}

// WithRequestIDs sets the request id generator. Default: UUIDv7Generator.
func WithRequestIDs(g RequestIDGenerator) ServiceOption {
	return func(s *Service) { s.ids = g }
}

// WithObserver registers an evaluation observer.
func WithObserver(o Observer) ServiceOption {
	return func(s *Service) { s.observer = o }
}

// WithAllowUnknownNodes makes logical expressions with unrecognized node
// tags evaluate those nodes to the empty set instead of failing with
// UNKNOWN_NODE_TYPE.
func WithAllowUnknownNodes(allow bool) ServiceOption {
	return func(s *Service) { s.decodeOpts.AllowUnknown = allow }
}

// NewService creates a Service over source.
func NewService(source SnapshotSource, caps Capabilities, opts ...ServiceOption) *Service {
	s := &Service{
		source: source,
		caps:   caps,
		ids:    UUIDv7Generator{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EvaluateTextualQuery evaluates a textual query against the current
// snapshot.
func (s *Service) EvaluateTextualQuery(ctx context.Context, query string) MatchResult {
	return s.run(ctx, OpTextual, func(ctx context.Context, snap *variant.Snapshot) MatchResult {
		eval := &TextualEvaluator{Parser: s.caps.Parser, Checker: s.caps.Checker}
		return eval.Evaluate(ctx, query, snap)
	}, slog.String("query", query))
}

// EvaluatePatternQuery evaluates one serialized pattern with the named
// query type.
func (s *Service) EvaluatePatternQuery(ctx context.Context, serialized json.RawMessage, queryTypeName string) MatchResult {
	return s.run(ctx, OpPattern, func(ctx context.Context, snap *variant.Snapshot) MatchResult {
		p, err := s.caps.Codec.Decode(serialized)
		if err != nil {
			return Failure(NewQueryError(CodePatternDeserialization, err.Error()))
		}
		qt, err := queryir.ParseQueryType(queryTypeName)
		if err != nil {
			return Failure(NewQueryError(CodeInvalidQueryType, err.Error()))
		}
		query, err := s.caps.Factory.NewQuery(p, qt)
		if err != nil {
			return Failure(NewQueryError(CodeMatchEvaluation, fmt.Sprintf("failed to build %s query: %v", qt, err)))
		}
		return PatternEvaluator{}.Evaluate(ctx, query, snap.Variants)
	}, slog.String("query_type", queryTypeName))
}

// EvaluateLogicalExpression decodes and evaluates a serialized expression
// tree. defaultQueryTypeName applies to leaves without their own type.
func (s *Service) EvaluateLogicalExpression(ctx context.Context, serialized json.RawMessage, defaultQueryTypeName string) MatchResult {
	return s.run(ctx, OpLogical, func(ctx context.Context, snap *variant.Snapshot) MatchResult {
		node, err := queryir.Decode(serialized, s.decodeOpts)
		if err != nil {
			return failed(err)
		}
		eval := &LogicalEvaluator{
			Codec:       s.caps.Codec,
			Factory:     s.caps.Factory,
			Parallelism: s.parallelism,
			Logger:      s.logger,
		}
		return eval.Evaluate(ctx, node, defaultQueryTypeName, snap.Variants)
	}, slog.String("query_type", defaultQueryTypeName))
}

func (s *Service) run(ctx context.Context, op Operation, fn func(context.Context, *variant.Snapshot) MatchResult, attrs ...any) (result MatchResult) {
	logger := s.logger.With("op", string(op))
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			result = Failure(recovered(r))
		}
		elapsed := time.Since(start)
		s.report(logger, result, elapsed)
		if s.observer != nil {
			s.observer.ObserveEvaluation(op, result, elapsed)
		}
	}()

	logger = logger.With("request_id", s.ids.Generate())
	logger.Debug("evaluation started", attrs...)

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	snap, err := s.source.Snapshot(ctx)
	if err != nil {
		if IsCancelled(err) {
			return Failure(NewQueryError(CodeEvaluationCancelled, err.Error()))
		}
		return Failure(NewQueryError(CodeMatchEvaluation, fmt.Sprintf("snapshot unavailable: %v", err)))
	}
	return fn(ctx, snap)
}

// report logs the outcome. The matched ids only appear at debug level, after
// the result is final.
func (s *Service) report(logger *slog.Logger, result MatchResult, elapsed time.Duration) {
	if result.Err != nil {
		logger.Info("evaluation failed",
			"code", string(result.Err.Code),
			"error", result.Err.Message,
			"duration", elapsed)
		return
	}
	logger.Info("evaluation finished", "matches", len(result.IDs), "duration", elapsed)
	logger.Debug("matched variants", "ids", result.IDs)
}
