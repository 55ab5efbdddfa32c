package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryCommand_Fixture(t *testing.T) {
	fixture := writeFile(t, "orders.yaml", ordersFixture)

	out, _, err := execute(t, "query", "--fixture", fixture, "Register -> Ship")
	require.NoError(t, err)
	assert.Equal(t, "2 matching variants: 1, 2\n", out)
}

func TestQueryCommand_JSON(t *testing.T) {
	fixture := writeFile(t, "orders.yaml", ordersFixture)

	out, _, err := execute(t, "query", "--format", "json", "--fixture", fixture, "isStart(Check)")
	require.NoError(t, err)

	var resp struct {
		Status string `json:"status"`
		Data   struct {
			IDs []int64 `json:"ids"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, []int64{3}, resp.Data.IDs)
}

func TestQueryCommand_LexError(t *testing.T) {
	fixture := writeFile(t, "orders.yaml", ordersFixture)

	out, _, err := execute(t, "query", "--fixture", fixture, "A ->> B")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Equal(t, "Error [LEX_ERROR]: unexpected character '>'\n", out)
}

func TestQueryCommand_SourceFlags(t *testing.T) {
	fixture := writeFile(t, "orders.yaml", ordersFixture)

	_, _, err := execute(t, "query", "Ship")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "exactly one of --db, --postgres or --fixture")

	_, _, err = execute(t, "query", "--fixture", fixture, "--db", "x.db", "Ship")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestQueryCommand_BadFixture(t *testing.T) {
	fixture := writeFile(t, "bad.yaml", "variants:\n  - id: 1\n    graphs: {}\n")

	out, _, err := execute(t, "query", "--fixture", fixture, "Ship")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E003]")
	assert.Contains(t, out, "at least one graph is required")
}

func TestPatternCommand(t *testing.T) {
	fixture := writeFile(t, "orders.yaml", ordersFixture)

	out, _, err := execute(t, "pattern", "--fixture", fixture, "--type", "VM",
		`{"follows":[{"leaf":["Register"]},{"leaf":["Cancel"]}]}`)
	require.NoError(t, err)
	assert.Equal(t, "1 matching variant: 2\n", out)
}

func TestPatternCommand_FromFile(t *testing.T) {
	fixture := writeFile(t, "orders.yaml", ordersFixture)
	pat := writeFile(t, "pattern.json", `{"follows":[{"start":true},{"leaf":["Check"]}]}`)

	out, _, err := execute(t, "pattern", "--fixture", fixture, "--type", "DFS", "@"+pat)
	require.NoError(t, err)
	assert.Equal(t, "1 matching variant: 3\n", out)
}

func TestPatternCommand_MissingFile(t *testing.T) {
	fixture := writeFile(t, "orders.yaml", ordersFixture)

	_, _, err := execute(t, "pattern", "--fixture", fixture, "@/nonexistent/pattern.json")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "file not found")
}

func TestPatternCommand_InvalidType(t *testing.T) {
	fixture := writeFile(t, "orders.yaml", ordersFixture)

	out, _, err := execute(t, "pattern", "--fixture", fixture, "--type", "vm", `{"leaf":["Ship"]}`)
	require.Error(t, err)
	assert.Contains(t, out, "Error [INVALID_QUERY_TYPE]")
}

func TestLogicalCommand(t *testing.T) {
	fixture := writeFile(t, "orders.yaml", ordersFixture)

	expr := `{"type":"and","children":[
		{"type":"query","pattern":{"leaf":["Register"]}},
		{"type":"or","children":[
			{"type":"query","pattern":{"leaf":["Cancel"]}},
			{"type":"query","pattern":{"follows":[{"leaf":["Check"]},{"leaf":["Register"]}]},"query_type":"VM_LAZY"}
		]}
	]}`
	out, _, err := execute(t, "logical", "--fixture", fixture, expr)
	require.NoError(t, err)
	assert.Equal(t, "2 matching variants: 2, 3\n", out)
}

func TestLogicalCommand_UnknownNodes(t *testing.T) {
	fixture := writeFile(t, "orders.yaml", ordersFixture)
	expr := `{"type":"or","children":[{"type":"query","pattern":{"leaf":["Cancel"]}},{"type":"xor"}]}`

	out, _, err := execute(t, "logical", "--fixture", fixture, expr)
	require.Error(t, err)
	assert.Contains(t, out, "Error [UNKNOWN_NODE_TYPE]")

	out, _, err = execute(t, "logical", "--fixture", fixture, "--allow-unknown", expr)
	require.NoError(t, err)
	assert.Equal(t, "1 matching variant: 2\n", out)
}

func TestQueryCommand_SQLiteStore(t *testing.T) {
	fixture := writeFile(t, "orders.yaml", ordersFixture)
	db := filepath.Join(t.TempDir(), "varq.db")

	_, _, err := execute(t, "import", "--db", db, fixture)
	require.NoError(t, err)

	out, _, err := execute(t, "query", "--db", db, "Register => Ship")
	require.NoError(t, err)
	assert.Equal(t, "1 matching variant: 2\n", out)
}
