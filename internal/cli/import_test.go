package cli

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/varq/internal/store"
	"github.com/roach88/varq/internal/variant"
)

func TestImportCommand(t *testing.T) {
	fixture := writeFile(t, "orders.yaml", ordersFixture)
	db := filepath.Join(t.TempDir(), "varq.db")

	out, _, err := execute(t, "import", "--db", db, fixture)
	require.NoError(t, err)
	assert.Equal(t, "Import complete: added 3 variant(s), 4 activities\n", out)

	st, err := store.Open(db)
	require.NoError(t, err)
	defer st.Close()
	snap, err := st.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []variant.ID{1, 2, 3}, snap.Variants.IDs())
	assert.Equal(t, []string{"g0", "g1"}, snap.Variants[2].GraphKeys())
}

func TestImportCommand_Replace(t *testing.T) {
	db := filepath.Join(t.TempDir(), "varq.db")
	_, _, err := execute(t, "import", "--db", db, writeFile(t, "orders.yaml", ordersFixture))
	require.NoError(t, err)

	small := writeFile(t, "small.yaml", "variants:\n  - id: 9\n    graphs:\n      g0: { chain: [X] }\n")
	out, _, err := execute(t, "import", "--format", "json", "--db", db, "--replace", small)
	require.NoError(t, err)

	var resp struct {
		Status string        `json:"status"`
		Data   ImportSummary `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, ImportSummary{Variants: 1, Activities: 1, Replaced: true}, resp.Data)

	st, err := store.Open(db)
	require.NoError(t, err)
	defer st.Close()
	snap, err := st.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []variant.ID{9}, snap.Variants.IDs())
	assert.Equal(t, []string{"X"}, snap.Activities.Labels())
}

func TestImportCommand_Errors(t *testing.T) {
	db := filepath.Join(t.TempDir(), "varq.db")

	_, _, err := execute(t, "import", writeFile(t, "orders.yaml", ordersFixture))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exactly one of --db or --postgres")

	_, _, err = execute(t, "import", "--db", db, "/nonexistent/fixture.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "fixture not found")

	cyclic := writeFile(t, "cyclic.yaml", `
variants:
  - id: 1
    graphs:
      g0:
        nodes: [{id: a, activity: A}, {id: b, activity: B}]
        edges: [{from: a, to: b}, {from: b, to: a}]
`)
	out, _, err := execute(t, "import", "--db", db, cyclic)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [E105]")
	assert.Contains(t, out, "cycle detected")
}
