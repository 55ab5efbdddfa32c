package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/roach88/varq/internal/engine"
	"github.com/roach88/varq/internal/variant"
)

// Scenario is one conformance scenario: a snapshot and the queries to run
// against it.
type Scenario struct {
	// Name uniquely identifies the scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what the scenario validates.
	Description string `yaml:"description"`

	// Activities is the vocabulary. Derived from the graphs when omitted.
	Activities []string `yaml:"activities,omitempty"`

	// Variants is the snapshot content.
	Variants []variant.FixtureVariant `yaml:"variants"`

	// DefaultQueryType applies to queries without their own query_type.
	DefaultQueryType string `yaml:"default_query_type,omitempty"`

	// AllowUnknownNodes evaluates unrecognized logical node tags to the
	// empty set.
	AllowUnknownNodes bool `yaml:"allow_unknown_nodes,omitempty"`

	// Queries run in order against the same snapshot.
	Queries []Query `yaml:"queries"`
}

// Query is one evaluation and its expected outcome.
type Query struct {
	Name string `yaml:"name"`

	Textual string `yaml:"textual,omitempty"`
	Pattern any    `yaml:"pattern,omitempty"`
	Logical any    `yaml:"logical,omitempty"`

	// QueryType is the pattern query type, or the default leaf type of a
	// logical expression.
	QueryType string `yaml:"query_type,omitempty"`

	Expect Expect `yaml:"expect"`
}

// Expect is either the matching ids or an error.
type Expect struct {
	IDs   []variant.ID `yaml:"ids,omitempty"`
	Error *ExpectError `yaml:"error,omitempty"`
}

// ExpectError describes an expected failure. Position and Message are only
// checked when set; Message is a substring match.
type ExpectError struct {
	Code     engine.ErrorCode `yaml:"code"`
	Position *int             `yaml:"position,omitempty"`
	Message  string           `yaml:"message,omitempty"`
}

// Op reports which Service operation the query runs.
func (q *Query) Op() engine.Operation {
	switch {
	case q.Pattern != nil:
		return engine.OpPattern
	case q.Logical != nil:
		return engine.OpLogical
	default:
		return engine.OpTextual
	}
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed, contains
// unknown fields, or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML with strict field checking.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// LoadDir loads every *.yaml and *.yml scenario in dir, sorted by file
// name. Subdirectories are not searched.
func LoadDir(dir string) ([]*Scenario, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario directory: %w", err)
	}

	var scenarios []*Scenario
	for _, e := range entries {
		ext := filepath.Ext(e.Name())
		if e.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		s, err := LoadScenario(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", e.Name(), err)
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Queries) == 0 {
		return fmt.Errorf("queries list is required and must be non-empty")
	}

	var names []string
	for i := range s.Queries {
		q := &s.Queries[i]
		if q.Name == "" {
			return fmt.Errorf("queries[%d]: name is required", i)
		}
		if slices.Contains(names, q.Name) {
			return fmt.Errorf("queries[%d]: duplicate query name %q", i, q.Name)
		}
		names = append(names, q.Name)

		kinds := 0
		if q.Textual != "" {
			kinds++
		}
		if q.Pattern != nil {
			kinds++
		}
		if q.Logical != nil {
			kinds++
		}
		if kinds != 1 {
			return fmt.Errorf("query %q: exactly one of textual, pattern or logical is required", q.Name)
		}

		if (q.Expect.IDs == nil) == (q.Expect.Error == nil) {
			return fmt.Errorf("query %q: expect needs exactly one of ids or error", q.Name)
		}
		if q.Expect.Error != nil && q.Expect.Error.Code == "" {
			return fmt.Errorf("query %q: expected error needs a code", q.Name)
		}
	}
	return nil
}
