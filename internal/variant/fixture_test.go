package variant

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixtureYAML = `
activities: [A, B, C, D]
variants:
  - id: 2
    graphs:
      g0: { chain: [A, B] }
  - id: 1
    graphs:
      g0:
        nodes: [{id: a, activity: A}, {id: c, activity: C}]
        edges: [{from: a, to: c}]
      g1: { chain: [D] }
    metadata:
      count: 12
`

func TestLoadFixtureFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "variants.yaml")
	require.NoError(t, os.WriteFile(path, []byte(fixtureYAML), 0644))

	snap, err := LoadFixtureFile(path)
	require.NoError(t, err)

	assert.Equal(t, []ID{1, 2}, snap.Variants.IDs())
	assert.Equal(t, []string{"A", "B", "C", "D"}, snap.Activities.Labels())

	v1 := snap.Variants[1]
	assert.Equal(t, []string{"g0", "g1"}, v1.GraphKeys())
	assert.JSONEq(t, `{"count": 12}`, string(v1.Metadata))
	assert.True(t, v1.Graphs["g0"].Reaches(0, 1))
}

func TestParseFixture_RejectsUnknownFields(t *testing.T) {
	_, err := ParseFixture([]byte("variant: []\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestFixture_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "duplicate id",
			yaml: "variants:\n  - {id: 1, graphs: {g: {chain: [A]}}}\n  - {id: 1, graphs: {g: {chain: [B]}}}\n",
			want: "duplicate variant id 1",
		},
		{
			name: "no graphs",
			yaml: "variants:\n  - {id: 1, graphs: {}}\n",
			want: "at least one graph",
		},
		{
			name: "chain and nodes",
			yaml: "variants:\n  - {id: 1, graphs: {g: {chain: [A], nodes: [{id: a, activity: A}]}}}\n",
			want: "chain cannot be combined",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f, err := ParseFixture([]byte(tc.yaml))
			require.NoError(t, err)
			_, err = f.Snapshot()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestNewSnapshot_DerivesVocabulary(t *testing.T) {
	g, err := Chain("X", "Y")
	require.NoError(t, err)

	snap := NewSnapshot(Collection{1: {ID: 1, Graphs: map[string]*Graph{"g": g}}}, nil)
	assert.Equal(t, []string{"X", "Y"}, snap.Activities.Labels())
}
