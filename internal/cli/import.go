package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/varq/internal/variant"
)

// ImportOptions holds flags for the import command.
type ImportOptions struct {
	*RootOptions
	Source  SourceOptions
	Replace bool
}

// ImportSummary is the import command's result.
type ImportSummary struct {
	Variants   int  `json:"variants"`
	Activities int  `json:"activities"`
	Replaced   bool `json:"replaced"`
}

func (s ImportSummary) String() string {
	verb := "added"
	if s.Replaced {
		verb = "replaced store with"
	}
	return fmt.Sprintf("Import complete: %s %d variant(s), %d activities", verb, s.Variants, s.Activities)
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ImportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "import <fixture.yaml>",
		Short: "Load a YAML variant fixture into a store",
		Long: `Load a YAML variant fixture into a SQLite or Postgres store.

Existing variants with the same id are overwritten. With --replace the
store is emptied first.

Examples:
  varq import --db varq.db variants.yaml
  varq import --postgres postgres://localhost/varq --replace variants.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, opts, args[0])
		},
	}

	opts.Source.register(cmd, false)
	cmd.Flags().BoolVar(&opts.Replace, "replace", false, "delete existing variants first")
	return cmd
}

func runImport(cmd *cobra.Command, opts *ImportOptions, path string) error {
	formatter := opts.formatter(cmd)
	if err := opts.Source.check(false); err != nil {
		_ = formatter.Error(ErrCodeBadArgument, err.Error(), nil)
		return err
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("fixture not found: %s", path), nil)
		return NewExitError(ExitCommandError, fmt.Sprintf("fixture not found: %s", path))
	}

	snap, err := variant.LoadFixtureFile(path)
	if err != nil {
		_ = formatter.Error(ErrCodeFixture, err.Error(), nil)
		return WrapExitError(ExitFailure, "invalid fixture", err)
	}
	formatter.VerboseLog("Loaded %d variant(s) from %s", len(snap.Variants), path)

	ctx := cmd.Context()
	dst, err := opts.Source.openImporter(ctx)
	if err != nil {
		_ = formatter.Error(ErrCodeLoadFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open store", err)
	}
	defer dst.Close()

	if err := dst.Import(ctx, snap, opts.Replace); err != nil {
		_ = formatter.Error(ErrCodeWriteFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, "import failed", err)
	}

	return formatter.Success(ImportSummary{
		Variants:   len(snap.Variants),
		Activities: len(snap.Activities),
		Replaced:   opts.Replace,
	})
}
