package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/varq/internal/builtin"
	"github.com/roach88/varq/internal/engine"
	"github.com/roach88/varq/internal/queryir"
)

// QueryOptions holds the flags shared by query, pattern and logical.
type QueryOptions struct {
	*RootOptions
	Source       SourceOptions
	Timeout      time.Duration
	QueryType    string
	AllowUnknown bool

	// RequestIDs overrides the request id generator (for testing).
	RequestIDs engine.RequestIDGenerator
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "query <query>",
		Short: "Evaluate a textual query",
		Long: `Evaluate a textual query against every variant.

A variant matches when any of its graphs satisfies the query.

Examples:
  varq query --fixture variants.yaml "Register -> Ship"
  varq query --db varq.db "isStart(Register) AND NOT Cancel"`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEvaluation(cmd, opts, func(ctx context.Context, svc *engine.Service) engine.MatchResult {
				return svc.EvaluateTextualQuery(ctx, args[0])
			})
		},
	}

	opts.registerCommon(cmd)
	return cmd
}

// NewPatternCommand creates the pattern command.
func NewPatternCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "pattern <pattern-json|@file>",
		Short: "Evaluate a structural pattern",
		Long: `Evaluate one serialized structural pattern against every variant.

Examples:
  varq pattern --fixture variants.yaml '{"follows":[{"leaf":["A"]},{"leaf":["B"]}]}'
  varq pattern --db varq.db --type VM @pattern.json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readDocument(args[0])
			if err != nil {
				return err
			}
			return runEvaluation(cmd, opts, func(ctx context.Context, svc *engine.Service) engine.MatchResult {
				return svc.EvaluatePatternQuery(ctx, raw, opts.QueryType)
			})
		},
	}

	opts.registerCommon(cmd)
	cmd.Flags().StringVar(&opts.QueryType, "type", queryir.QueryTypeBFS.String(), "query type (BFS|DFS|VM|VM_LAZY)")
	return cmd
}

// NewLogicalCommand creates the logical command.
func NewLogicalCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "logical <expression-json|@file>",
		Short: "Evaluate a logical combination of patterns",
		Long: `Evaluate an AND/OR tree of pattern queries against every variant.

--type is the query type of leaves that do not name their own.

Examples:
  varq logical --fixture variants.yaml @expr.json
  varq logical --db varq.db --type DFS '{"type":"or","children":[...]}'`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readDocument(args[0])
			if err != nil {
				return err
			}
			return runEvaluation(cmd, opts, func(ctx context.Context, svc *engine.Service) engine.MatchResult {
				return svc.EvaluateLogicalExpression(ctx, raw, opts.QueryType)
			})
		},
	}

	opts.registerCommon(cmd)
	cmd.Flags().StringVar(&opts.QueryType, "type", queryir.QueryTypeBFS.String(), "default query type for leaves")
	cmd.Flags().BoolVar(&opts.AllowUnknown, "allow-unknown", false, "evaluate unknown node types to no matches")
	return cmd
}

func (o *QueryOptions) registerCommon(cmd *cobra.Command) {
	o.Source.register(cmd, true)
	cmd.Flags().DurationVar(&o.Timeout, "timeout", 30*time.Second, "evaluation timeout (0 disables)")
}

func runEvaluation(cmd *cobra.Command, opts *QueryOptions, eval func(context.Context, *engine.Service) engine.MatchResult) error {
	formatter := opts.formatter(cmd)
	if err := opts.Source.check(true); err != nil {
		_ = formatter.Error(ErrCodeBadArgument, err.Error(), nil)
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	source, err := opts.Source.open(ctx)
	if err != nil {
		_ = formatter.Error(ErrCodeLoadFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open variant source", err)
	}
	defer source.Close()

	svcOpts := []engine.ServiceOption{
		engine.WithLogger(opts.logger(cmd.ErrOrStderr(), true)),
		engine.WithTimeout(opts.Timeout),
		engine.WithAllowUnknownNodes(opts.AllowUnknown),
	}
	if opts.RequestIDs != nil {
		svcOpts = append(svcOpts, engine.WithRequestIDs(opts.RequestIDs))
	}
	svc := engine.NewService(source, builtin.Capabilities(), svcOpts...)

	return formatter.Result(eval(ctx, svc))
}

// readDocument returns arg as JSON, reading it from a file when it starts
// with @.
func readDocument(arg string) (json.RawMessage, error) {
	path, ok := strings.CutPrefix(arg, "@")
	if !ok {
		return json.RawMessage(arg), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, NewExitError(ExitCommandError, fmt.Sprintf("file not found: %s", path))
		}
		return nil, WrapExitError(ExitCommandError, "failed to read file", err)
	}
	return data, nil
}
