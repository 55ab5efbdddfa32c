package cli

import (
	"fmt"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/varq/internal/harness"
	"github.com/roach88/varq/internal/matcher"
	"github.com/roach88/varq/internal/pattern"
	"github.com/roach88/varq/internal/queryir"
	"github.com/roach88/varq/internal/variant"
)

// Document kinds accepted by validate.
const (
	KindLogical  = "logical"
	KindPattern  = "pattern"
	KindScenario = "scenario"
	KindFixture  = "fixture"
)

var validKinds = []string{KindLogical, KindPattern, KindScenario, KindFixture}

// ValidationIssue is one problem found in a document.
type ValidationIssue struct {
	Code    string `json:"code"`
	Path    string `json:"path,omitempty"`
	Message string `json:"message"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool              `json:"valid"`
	Kind     string            `json:"kind"`
	Errors   []ValidationIssue `json:"errors,omitempty"`
	Warnings []string          `json:"warnings,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	var kind string

	cmd := &cobra.Command{
		Use:   "validate <file>",
		Short: "Validate a query document without evaluating it",
		Long: `Validate a logical expression, pattern, scenario or fixture file.

Patterns (including every leaf of a logical expression) are decoded and
compiled, so misplaced start/end markers are reported without any variants.

Examples:
  varq validate expr.json
  varq validate --kind pattern pattern.json
  varq validate --kind scenario scenarios/orders.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, kind, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&kind, "kind", KindLogical, "document kind (logical|pattern|scenario|fixture)")
	return cmd
}

func runValidate(opts *RootOptions, kind, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	if !slices.Contains(validKinds, kind) {
		msg := fmt.Sprintf("invalid kind %q: must be one of %v", kind, validKinds)
		_ = formatter.Error(ErrCodeBadArgument, msg, nil)
		return NewExitError(ExitCommandError, msg)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			msg := fmt.Sprintf("file not found: %s", path)
			_ = formatter.Error(ErrCodeNotFound, msg, nil)
			return NewExitError(ExitCommandError, msg)
		}
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to read file", err)
	}

	result := ValidationResult{Kind: kind}
	switch kind {
	case KindLogical:
		validateLogical(data, &result)
	case KindPattern:
		if issue := checkPattern(data, "$"); issue != nil {
			result.Errors = append(result.Errors, *issue)
		}
	case KindScenario:
		validateScenario(path, &result)
	case KindFixture:
		if _, err := variant.LoadFixtureFile(path); err != nil {
			result.Errors = append(result.Errors, ValidationIssue{Code: ErrCodeFixture, Message: err.Error()})
		}
	}
	result.Valid = len(result.Errors) == 0
	for _, w := range result.Warnings {
		formatter.VerboseLog("warning: %s", w)
	}

	if !result.Valid {
		return outputValidationErrors(formatter, result)
	}
	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	return formatter.Success(fmt.Sprintf("✓ %s is a valid %s (%d warning(s))", path, kind, len(result.Warnings)))
}

func validateLogical(data []byte, result *ValidationResult) {
	node, err := queryir.Decode(data, queryir.DecodeOptions{})
	if err != nil {
		result.Errors = append(result.Errors, ValidationIssue{Code: ErrCodeExpression, Message: err.Error()})
		return
	}

	result.Warnings = queryir.Validate(node).Warnings
	walkLeaves(node, "$", func(leaf *queryir.Leaf, path string) {
		if issue := checkPattern(leaf.Pattern, path+".pattern"); issue != nil {
			result.Errors = append(result.Errors, *issue)
		}
	})
}

func walkLeaves(node queryir.Node, path string, visit func(*queryir.Leaf, string)) {
	var children []queryir.Node
	switch n := node.(type) {
	case *queryir.Leaf:
		visit(n, path)
		return
	case *queryir.And:
		children = n.Children
	case *queryir.Or:
		children = n.Children
	default:
		return
	}
	for i, child := range children {
		walkLeaves(child, fmt.Sprintf("%s.children[%d]", path, i), visit)
	}
}

// checkPattern decodes and compiles a pattern. Paths reported by the codec
// are relative to the pattern, so they are prefixed with where it sits.
func checkPattern(data []byte, at string) *ValidationIssue {
	p, err := pattern.Decode(data)
	if err != nil {
		return &ValidationIssue{Code: ErrCodePattern, Path: at, Message: err.Error()}
	}
	if _, err := (matcher.Factory{}).NewQuery(p, queryir.QueryTypeVM); err != nil {
		return &ValidationIssue{Code: ErrCodeCompile, Path: at, Message: err.Error()}
	}
	return nil
}

func validateScenario(path string, result *ValidationResult) {
	s, err := harness.LoadScenario(path)
	if err != nil {
		result.Errors = append(result.Errors, ValidationIssue{Code: ErrCodeScenario, Message: err.Error()})
		return
	}
	fixture := variant.Fixture{Activities: s.Activities, Variants: s.Variants}
	if _, err := fixture.Snapshot(); err != nil {
		result.Errors = append(result.Errors, ValidationIssue{Code: ErrCodeFixture, Message: err.Error()})
	}
}

func outputValidationErrors(formatter *OutputFormatter, result ValidationResult) error {
	if formatter.Format == "json" {
		if err := formatter.Error(result.Errors[0].Code, fmt.Sprintf("%d validation error(s)", len(result.Errors)), result); err != nil {
			return err
		}
	} else {
		w := formatter.Writer
		fmt.Fprintf(w, "✗ %d validation error(s):\n", len(result.Errors))
		for _, issue := range result.Errors {
			if issue.Path != "" {
				fmt.Fprintf(w, "  [%s] %s: %s\n", issue.Code, issue.Path, issue.Message)
			} else {
				fmt.Fprintf(w, "  [%s] %s\n", issue.Code, issue.Message)
			}
		}
	}
	return NewExitError(ExitFailure, "validation failed")
}
