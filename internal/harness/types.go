package harness

import (
	"github.com/roach88/varq/internal/engine"
	"github.com/roach88/varq/internal/ir"
)

// Outcome is the result of one scenario query.
type Outcome struct {
	Name   string
	Op     engine.Operation
	Result engine.MatchResult
}

// Result is the outcome of a scenario run.
type Result struct {
	// Scenario is the scenario name.
	Scenario string

	// Pass is true when every query met its expectation.
	Pass bool

	// Outcomes holds one entry per query, in scenario order.
	Outcomes []Outcome

	// Errors contains expectation mismatches. Empty if Pass is true.
	Errors []string
}

// NewResult creates a new passing result.
func NewResult(scenario string) *Result {
	return &Result{
		Scenario: scenario,
		Pass:     true,
		Outcomes: []Outcome{},
		Errors:   []string{},
	}
}

// AddError records a mismatch and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Canonical converts the outcomes to a map for ir.MarshalCanonical.
// Mismatches are not part of it; the golden file records what the engine
// returned.
func (r *Result) Canonical() map[string]any {
	results := make([]any, len(r.Outcomes))
	for i, o := range r.Outcomes {
		results[i] = map[string]any{
			"name":   o.Name,
			"op":     string(o.Op),
			"result": o.Result.Canonical(),
		}
	}
	return map[string]any{
		"scenario": r.Scenario,
		"results":  results,
	}
}

// Digest returns the domain-separated digest of Canonical.
func (r *Result) Digest() (string, error) {
	return ir.Digest(ir.DomainScenario, r.Canonical())
}
