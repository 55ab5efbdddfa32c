package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/varq/internal/pattern"
	"github.com/roach88/varq/internal/queryir"
	"github.com/roach88/varq/internal/variant"
)

func newLogical(sets map[string][]variant.ID) (*LogicalEvaluator, *setFactory) {
	f := &setFactory{sets: sets}
	return &LogicalEvaluator{Codec: pattern.Codec{}, Factory: f, Parallelism: 1}, f
}

func TestLogical_CompositeExpression(t *testing.T) {
	eval, _ := newLogical(map[string][]variant.ID{
		"P1": {1, 2, 3},
		"P2": {2},
		"P3": {3, 4},
	})
	tree := queryir.NewAnd(leaf("P1"), queryir.NewOr(leaf("P2"), leaf("P3")))

	result := eval.Evaluate(context.Background(), tree, "BFS", collection(1, 2, 3, 4))

	require.True(t, result.OK(), "unexpected error: %v", result.Err)
	assert.Equal(t, []variant.ID{2, 3}, result.IDs)
}

func TestLogical_SetAlgebra(t *testing.T) {
	sets := map[string][]variant.ID{
		"A": {1, 3, 5, 7},
		"B": {3, 4, 5, 6},
		"C": {5, 8},
	}
	variants := collection(1, 2, 3, 4, 5, 6, 7, 8)

	tests := []struct {
		name string
		node queryir.Node
		want []variant.ID
	}{
		{"and is intersection", queryir.NewAnd(leaf("A"), leaf("B")), []variant.ID{3, 5}},
		{"or is union", queryir.NewOr(leaf("A"), leaf("B")), []variant.ID{1, 3, 4, 5, 6, 7}},
		{"three-way and", queryir.NewAnd(leaf("A"), leaf("B"), leaf("C")), []variant.ID{5}},
		{"or of ands", queryir.NewOr(queryir.NewAnd(leaf("A"), leaf("C")), queryir.NewAnd(leaf("B"), leaf("C"))), []variant.ID{5}},
		{"single child and", queryir.NewAnd(leaf("C")), []variant.ID{5, 8}},
		{"single leaf", leaf("B"), []variant.ID{3, 4, 5, 6}},
		{"empty and", queryir.NewAnd(), []variant.ID{}},
		{"empty or", queryir.NewOr(), []variant.ID{}},
		{"and with empty child", queryir.NewAnd(leaf("A"), queryir.NewOr()), []variant.ID{}},
		{"or with empty child", queryir.NewOr(leaf("C"), queryir.NewAnd()), []variant.ID{5, 8}},
		{"unknown node", &queryir.Unknown{Tag: "xor"}, []variant.ID{}},
		{"or with unknown child", queryir.NewOr(leaf("C"), &queryir.Unknown{Tag: "not"}), []variant.ID{5, 8}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eval, _ := newLogical(sets)
			eval.Parallelism = 4

			result := eval.Evaluate(context.Background(), tt.node, "DFS", variants)

			require.True(t, result.OK(), "unexpected error: %v", result.Err)
			require.NotNil(t, result.IDs)
			assert.Equal(t, tt.want, result.IDs)
		})
	}
}

func TestLogical_Deterministic(t *testing.T) {
	sets := map[string][]variant.ID{
		"A": {9, 1, 5, 3},
		"B": {5, 9, 2, 1},
		"C": {7, 3},
	}
	tree := queryir.NewOr(
		queryir.NewAnd(leaf("A"), leaf("B")),
		leaf("C"),
		queryir.NewAnd(leaf("B"), queryir.NewOr(leaf("A"), leaf("C"))),
	)
	variants := collection(1, 2, 3, 4, 5, 6, 7, 8, 9)

	eval, _ := newLogical(sets)
	eval.Parallelism = 8
	first := eval.Evaluate(context.Background(), tree, "VM", variants)
	require.True(t, first.OK())
	assert.Equal(t, []variant.ID{1, 3, 5, 7, 9}, first.IDs)

	for i := 0; i < 20; i++ {
		again := eval.Evaluate(context.Background(), tree, "VM", variants)
		assert.Equal(t, first, again, "run %d", i)
	}
}

func TestLogical_FailureIsolation(t *testing.T) {
	eval, _ := newLogical(map[string][]variant.ID{"A": {1, 2, 3}})

	result := eval.Evaluate(context.Background(), leaf("FAIL7"), "BFS", collection(1, 2, 3, 4, 5, 6, 7, 8, 9))

	require.False(t, result.OK())
	assert.Nil(t, result.IDs)
	assert.Equal(t, CodeMatchEvaluation, result.Err.Code)
	assert.Contains(t, result.Err.Message, "variant 7")
	assert.Nil(t, result.Err.Position)
}

func TestLogical_FailureInsideComposite(t *testing.T) {
	eval, _ := newLogical(map[string][]variant.ID{"A": {1, 2, 3}})
	eval.Parallelism = 4
	tree := queryir.NewOr(leaf("A"), queryir.NewAnd(leaf("A"), leaf("FAIL2")))

	result := eval.Evaluate(context.Background(), tree, "BFS", collection(1, 2, 3))

	require.False(t, result.OK())
	assert.Nil(t, result.IDs)
	assert.Equal(t, CodeMatchEvaluation, result.Err.Code)
	assert.Contains(t, result.Err.Message, "variant 2")
}

func TestLogical_PanicRecovered(t *testing.T) {
	eval, _ := newLogical(nil)

	result := eval.Evaluate(context.Background(), queryir.NewAnd(leaf("PANIC")), "BFS", collection(1))

	require.False(t, result.OK())
	assert.Equal(t, CodeMatchEvaluation, result.Err.Code)
	assert.Contains(t, result.Err.Message, "matcher exploded")
}

func TestLogical_QueryTypeResolution(t *testing.T) {
	sets := map[string][]variant.ID{"A": {1}}

	t.Run("leaf type wins over default", func(t *testing.T) {
		eval, f := newLogical(sets)
		result := eval.Evaluate(context.Background(), typedLeaf("A", "VM_LAZY"), "NOPE", collection(1))
		require.True(t, result.OK(), "unexpected error: %v", result.Err)
		assert.Equal(t, []queryir.QueryType{queryir.QueryTypeVMLazy}, f.types)
	})

	t.Run("default applies to untyped leaves", func(t *testing.T) {
		eval, f := newLogical(sets)
		result := eval.Evaluate(context.Background(), leaf("A"), "DFS", collection(1))
		require.True(t, result.OK())
		assert.Equal(t, []queryir.QueryType{queryir.QueryTypeDFS}, f.types)
	})

	t.Run("invalid leaf type is not replaced", func(t *testing.T) {
		eval, f := newLogical(sets)
		result := eval.Evaluate(context.Background(), typedLeaf("A", "bfs"), "BFS", collection(1))
		require.False(t, result.OK())
		assert.Equal(t, CodeInvalidQueryType, result.Err.Code)
		assert.Contains(t, result.Err.Message, `"bfs"`)
		assert.Zero(t, f.built.Load())
	})

	t.Run("missing default", func(t *testing.T) {
		eval, _ := newLogical(sets)
		result := eval.Evaluate(context.Background(), leaf("A"), "", collection(1))
		require.False(t, result.OK())
		assert.Equal(t, CodeInvalidQueryType, result.Err.Code)
	})

	t.Run("invalid default without leaves", func(t *testing.T) {
		eval, _ := newLogical(sets)
		result := eval.Evaluate(context.Background(), queryir.NewOr(), "NOPE", collection(1))
		require.False(t, result.OK())
		assert.Equal(t, CodeInvalidQueryType, result.Err.Code)
		assert.Contains(t, result.Err.Message, `"NOPE"`)
	})

	t.Run("invalid default with typed leaves", func(t *testing.T) {
		eval, f := newLogical(sets)
		node := queryir.NewAnd(queryir.NewLeaf(`{"leaf":["A"]}`, "VM"))
		result := eval.Evaluate(context.Background(), node, "NOPE", collection(1))
		require.False(t, result.OK())
		assert.Equal(t, CodeInvalidQueryType, result.Err.Code)
		assert.Zero(t, f.built.Load())
	})
}

func TestLogical_PatternDeserializationError(t *testing.T) {
	eval, f := newLogical(nil)
	bad := queryir.NewLeaf(`{"follows":[]}`, "BFS")

	result := eval.Evaluate(context.Background(), queryir.NewAnd(bad), "BFS", collection(1))

	require.False(t, result.OK())
	assert.Equal(t, CodePatternDeserialization, result.Err.Code)
	assert.Contains(t, result.Err.Message, "$.children[0]")
	assert.Contains(t, result.Err.Message, "group has no elements")
	assert.Zero(t, f.built.Load())
}

func TestLogical_NilNode(t *testing.T) {
	eval, _ := newLogical(nil)

	result := eval.Evaluate(context.Background(), queryir.NewOr(nil), "BFS", collection(1))

	require.False(t, result.OK())
	assert.Equal(t, CodeInvalidExpression, result.Err.Code)
}

func TestLogical_Cancelled(t *testing.T) {
	eval, _ := newLogical(map[string][]variant.ID{"A": {1}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := eval.Evaluate(ctx, queryir.NewAnd(leaf("A"), leaf("A")), "BFS", collection(1, 2))

	require.False(t, result.OK())
	assert.Nil(t, result.IDs)
	assert.Equal(t, CodeEvaluationCancelled, result.Err.Code)
	assert.True(t, IsCancelled(result.Err))
}
