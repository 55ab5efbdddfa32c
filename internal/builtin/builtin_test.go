package builtin

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/varq/internal/engine"
	"github.com/roach88/varq/internal/variant"
)

func TestCapabilities_EndToEnd(t *testing.T) {
	fixture, err := variant.ParseFixture([]byte(`
variants:
  - id: 1
    graphs:
      g0: {chain: [A, B, C]}
  - id: 2
    graphs:
      g0: {chain: [B, A]}
`))
	require.NoError(t, err)
	snap, err := fixture.Snapshot()
	require.NoError(t, err)

	svc := engine.NewService(engine.NewStaticSource(snap), Capabilities())
	ctx := context.Background()

	textual := svc.EvaluateTextualQuery(ctx, "A -> C")
	require.True(t, textual.OK(), "%v", textual.Err)
	assert.Equal(t, []variant.ID{1}, textual.IDs)

	pat := svc.EvaluatePatternQuery(ctx, json.RawMessage(`{"follows":[{"leaf":["B"]},{"leaf":["A"]}]}`), "VM")
	require.True(t, pat.OK(), "%v", pat.Err)
	assert.Equal(t, []variant.ID{2}, pat.IDs)

	logical := svc.EvaluateLogicalExpression(ctx, json.RawMessage(`{"type":"or","children":[
		{"type":"query","pattern":{"follows":[{"leaf":["A"]},{"leaf":["C"]}]}},
		{"type":"query","pattern":{"leaf":["A"]},"query_type":"DFS"}
	]}`), "BFS")
	require.True(t, logical.OK(), "%v", logical.Err)
	assert.Equal(t, []variant.ID{1, 2}, logical.IDs)
}
