package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/varq/internal/engine"
)

func TestParseScenario_Valid(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/pattern_queries.yaml")
	require.NoError(t, err)

	assert.Equal(t, "pattern_queries", s.Name)
	require.Len(t, s.Variants, 3)
	require.Len(t, s.Queries, 6)
	assert.Equal(t, engine.OpPattern, s.Queries[0].Op())
	assert.Equal(t, "VM", s.Queries[0].QueryType)

	bad := s.Queries[4].Expect.Error
	require.NotNil(t, bad)
	assert.Equal(t, engine.CodePatternDeserialization, bad.Code)
	assert.Nil(t, bad.Position)
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "unknown field",
			yaml: "name: x\ndescription: d\nquery: []\n",
			want: "failed to parse YAML",
		},
		{
			name: "missing name",
			yaml: "description: d\nqueries: [{name: q, textual: A, expect: {ids: []}}]\n",
			want: "name is required",
		},
		{
			name: "missing description",
			yaml: "name: x\nqueries: [{name: q, textual: A, expect: {ids: []}}]\n",
			want: "description is required",
		},
		{
			name: "no queries",
			yaml: "name: x\ndescription: d\n",
			want: "queries list is required",
		},
		{
			name: "unnamed query",
			yaml: "name: x\ndescription: d\nqueries: [{textual: A, expect: {ids: []}}]\n",
			want: "queries[0]: name is required",
		},
		{
			name: "duplicate query",
			yaml: "name: x\ndescription: d\nqueries: [{name: q, textual: A, expect: {ids: []}}, {name: q, textual: B, expect: {ids: []}}]\n",
			want: `duplicate query name "q"`,
		},
		{
			name: "two kinds",
			yaml: "name: x\ndescription: d\nqueries: [{name: q, textual: A, pattern: {leaf: [A]}, expect: {ids: []}}]\n",
			want: "exactly one of textual, pattern or logical",
		},
		{
			name: "no kind",
			yaml: "name: x\ndescription: d\nqueries: [{name: q, expect: {ids: []}}]\n",
			want: "exactly one of textual, pattern or logical",
		},
		{
			name: "no expectation",
			yaml: "name: x\ndescription: d\nqueries: [{name: q, textual: A}]\n",
			want: "expect needs exactly one of ids or error",
		},
		{
			name: "both expectations",
			yaml: "name: x\ndescription: d\nqueries: [{name: q, textual: A, expect: {ids: [1], error: {code: LEX_ERROR}}}]\n",
			want: "expect needs exactly one of ids or error",
		},
		{
			name: "error without code",
			yaml: "name: x\ndescription: d\nqueries: [{name: q, textual: A, expect: {error: {position: 1}}}]\n",
			want: "expected error needs a code",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadDir_SkipsOtherFiles(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}
	write("b.yaml", "name: b\ndescription: d\nqueries: [{name: q, textual: A, expect: {ids: []}}]\n")
	write("a.yml", "name: a\ndescription: d\nqueries: [{name: q, textual: A, expect: {ids: []}}]\n")
	write("notes.txt", "not a scenario")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0755))

	scenarios, err := LoadDir(dir)
	require.NoError(t, err)
	require.Len(t, scenarios, 2)
	assert.Equal(t, "a", scenarios[0].Name)
	assert.Equal(t, "b", scenarios[1].Name)
}

func TestLoadDir_ReportsFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte("name: x\n"), 0644))

	_, err := LoadDir(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken.yaml")
}
