package harness

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/roach88/varq/internal/builtin"
	"github.com/roach88/varq/internal/engine"
	"github.com/roach88/varq/internal/queryir"
	"github.com/roach88/varq/internal/testutil"
	"github.com/roach88/varq/internal/variant"
)

// Harness runs the queries of one scenario through an engine.Service.
type Harness struct {
	scenario *Scenario
	service  *engine.Service
}

// Option configures a scenario run.
type Option func(*options)

type options struct {
	logger *slog.Logger
	caps   *engine.Capabilities
}

// WithLogger routes engine logs to l. By default they are discarded.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithCapabilities replaces the built-in capabilities.
func WithCapabilities(caps engine.Capabilities) Option {
	return func(o *options) { o.caps = &caps }
}

// Run executes a scenario and returns the result.
//
// The returned error covers setup faults such as an invalid snapshot.
// Query mismatches are reported in Result.Errors.
func Run(ctx context.Context, scenario *Scenario, opts ...Option) (*Result, error) {
	h, err := newHarness(scenario, opts...)
	if err != nil {
		return nil, err
	}

	result := NewResult(scenario.Name)
	for i := range scenario.Queries {
		q := &scenario.Queries[i]
		mr, err := h.evaluate(ctx, q)
		if err != nil {
			return nil, fmt.Errorf("query %q: %w", q.Name, err)
		}
		result.Outcomes = append(result.Outcomes, Outcome{Name: q.Name, Op: q.Op(), Result: mr})
		checkExpectation(result, q, mr)
	}
	return result, nil
}

func newHarness(scenario *Scenario, opts ...Option) (*Harness, error) {
	o := options{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(&o)
	}
	caps := builtin.Capabilities()
	if o.caps != nil {
		caps = *o.caps
	}

	fixture := variant.Fixture{Activities: scenario.Activities, Variants: scenario.Variants}
	snap, err := fixture.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}

	svc := engine.NewService(engine.NewStaticSource(snap), caps,
		engine.WithLogger(o.logger),
		engine.WithRequestIDs(testutil.NewSequentialRequestIDs(scenario.Name)),
		engine.WithAllowUnknownNodes(scenario.AllowUnknownNodes),
	)
	return &Harness{scenario: scenario, service: svc}, nil
}

func (h *Harness) evaluate(ctx context.Context, q *Query) (engine.MatchResult, error) {
	queryType := cmp.Or(q.QueryType, h.scenario.DefaultQueryType, queryir.QueryTypeBFS.String())

	switch q.Op() {
	case engine.OpPattern:
		raw, err := json.Marshal(q.Pattern)
		if err != nil {
			return engine.MatchResult{}, fmt.Errorf("failed to encode pattern: %w", err)
		}
		return h.service.EvaluatePatternQuery(ctx, raw, queryType), nil
	case engine.OpLogical:
		raw, err := json.Marshal(q.Logical)
		if err != nil {
			return engine.MatchResult{}, fmt.Errorf("failed to encode expression: %w", err)
		}
		return h.service.EvaluateLogicalExpression(ctx, raw, queryType), nil
	default:
		return h.service.EvaluateTextualQuery(ctx, q.Textual), nil
	}
}

func checkExpectation(result *Result, q *Query, mr engine.MatchResult) {
	if want := q.Expect.Error; want != nil {
		if mr.Err == nil {
			result.AddError(fmt.Sprintf("query %q: expected %s error, got ids %v", q.Name, want.Code, mr.IDs))
			return
		}
		if mr.Err.Code != want.Code {
			result.AddError(fmt.Sprintf("query %q: expected %s error, got %s: %s", q.Name, want.Code, mr.Err.Code, mr.Err.Message))
			return
		}
		if want.Position != nil && (mr.Err.Position == nil || *mr.Err.Position != *want.Position) {
			result.AddError(fmt.Sprintf("query %q: expected error at column %d, got %s", q.Name, *want.Position, positionString(mr.Err.Position)))
		}
		if want.Message != "" && !strings.Contains(mr.Err.Message, want.Message) {
			result.AddError(fmt.Sprintf("query %q: error %q does not contain %q", q.Name, mr.Err.Message, want.Message))
		}
		return
	}

	if mr.Err != nil {
		result.AddError(fmt.Sprintf("query %q: expected ids %v, got %s: %s", q.Name, q.Expect.IDs, mr.Err.Code, mr.Err.Message))
		return
	}
	if !slices.Equal(variant.SortIDs(q.Expect.IDs), mr.IDs) {
		result.AddError(fmt.Sprintf("query %q: expected ids %v, got %v", q.Name, q.Expect.IDs, mr.IDs))
	}
}

func positionString(p *int) string {
	if p == nil {
		return "no position"
	}
	return fmt.Sprintf("column %d", *p)
}
