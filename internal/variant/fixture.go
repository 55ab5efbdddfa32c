package variant

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Fixture is the YAML form of a snapshot, used by the import command and
// by conformance scenarios.
//
//	activities: [A, B, C]
//	variants:
//	  - id: 1
//	    graphs:
//	      g0: { chain: [A, B, C] }
//	      g1:
//	        nodes: [{id: a, activity: A}, {id: b, activity: B}]
//	        edges: [{from: a, to: b}]
//	    metadata: {count: 12}
//
// When activities is omitted the vocabulary is derived from the graphs.
type Fixture struct {
	Activities []string         `yaml:"activities,omitempty"`
	Variants   []FixtureVariant `yaml:"variants"`
}

// FixtureVariant is one variant in a Fixture.
type FixtureVariant struct {
	ID       ID                      `yaml:"id"`
	Graphs   map[string]FixtureGraph `yaml:"graphs"`
	Metadata map[string]any          `yaml:"metadata,omitempty"`
}

// FixtureGraph describes a graph either as a chain shorthand or as explicit
// nodes and edges. Setting both is an error.
type FixtureGraph struct {
	Chain []string `yaml:"chain,omitempty"`
	Nodes []Node   `yaml:"nodes,omitempty"`
	Edges []Edge   `yaml:"edges,omitempty"`
}

// Build converts the fixture graph into a validated Graph.
func (fg FixtureGraph) Build() (*Graph, error) {
	if len(fg.Chain) > 0 {
		if len(fg.Nodes) > 0 || len(fg.Edges) > 0 {
			return nil, fmt.Errorf("chain cannot be combined with nodes/edges")
		}
		return Chain(fg.Chain...)
	}
	return NewGraph(fg.Nodes, fg.Edges)
}

// Snapshot converts the fixture into a Snapshot.
func (f *Fixture) Snapshot() (*Snapshot, error) {
	variants := make(Collection, len(f.Variants))
	for i, fv := range f.Variants {
		if _, dup := variants[fv.ID]; dup {
			return nil, fmt.Errorf("variants[%d]: duplicate variant id %d", i, fv.ID)
		}
		if len(fv.Graphs) == 0 {
			return nil, fmt.Errorf("variant %d: at least one graph is required", fv.ID)
		}

		v := &Variant{ID: fv.ID, Graphs: make(map[string]*Graph, len(fv.Graphs))}
		for key, fg := range fv.Graphs {
			g, err := fg.Build()
			if err != nil {
				return nil, fmt.Errorf("variant %d graph %q: %w", fv.ID, key, err)
			}
			v.Graphs[key] = g
		}
		if fv.Metadata != nil {
			raw, err := json.Marshal(fv.Metadata)
			if err != nil {
				return nil, fmt.Errorf("variant %d metadata: %w", fv.ID, err)
			}
			v.Metadata = raw
		}
		variants[fv.ID] = v
	}

	var vocab Vocabulary
	if f.Activities != nil {
		vocab = NewVocabulary(f.Activities...)
	}
	return NewSnapshot(variants, vocab), nil
}

// ParseFixture decodes YAML fixture data, rejecting unknown fields.
func ParseFixture(data []byte) (*Fixture, error) {
	var f Fixture
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return &f, nil
}

// LoadFixtureFile reads a YAML fixture file and builds its snapshot.
func LoadFixtureFile(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture file: %w", err)
	}
	f, err := ParseFixture(data)
	if err != nil {
		return nil, err
	}
	return f.Snapshot()
}
