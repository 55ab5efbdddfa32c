package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/varq/internal/engine"
	"github.com/roach88/varq/internal/store"
	"github.com/roach88/varq/internal/store/postgres"
	"github.com/roach88/varq/internal/variant"
)

// SourceOptions selects where variants come from. Exactly one is set.
type SourceOptions struct {
	Database string // SQLite path
	Postgres string // Postgres URL
	Fixture  string // YAML fixture file
}

func (o *SourceOptions) register(cmd *cobra.Command, withFixture bool) {
	cmd.Flags().StringVar(&o.Database, "db", "", "path to SQLite variant store")
	cmd.Flags().StringVar(&o.Postgres, "postgres", "", "Postgres connection URL")
	if withFixture {
		cmd.Flags().StringVar(&o.Fixture, "fixture", "", "path to YAML variant fixture")
	}
}

func (o *SourceOptions) check(withFixture bool) error {
	n := 0
	for _, v := range []string{o.Database, o.Postgres, o.Fixture} {
		if v != "" {
			n++
		}
	}
	if n == 1 {
		return nil
	}
	if withFixture {
		return NewExitError(ExitCommandError, "exactly one of --db, --postgres or --fixture is required")
	}
	return NewExitError(ExitCommandError, "exactly one of --db or --postgres is required")
}

// sourceCloser is a snapshot source that may hold a connection.
type sourceCloser interface {
	engine.SnapshotSource
	Close() error
}

type staticCloser struct{ *engine.StaticSource }

func (staticCloser) Close() error { return nil }

// open resolves the options to a snapshot source. The caller closes it.
func (o *SourceOptions) open(ctx context.Context) (sourceCloser, error) {
	switch {
	case o.Fixture != "":
		snap, err := variant.LoadFixtureFile(o.Fixture)
		if err != nil {
			return nil, err
		}
		return staticCloser{engine.NewStaticSource(snap)}, nil
	case o.Postgres != "":
		pg, err := postgres.Connect(ctx, o.Postgres)
		if err != nil {
			return nil, err
		}
		return pg, nil
	case o.Database != "":
		st, err := store.Open(o.Database)
		if err != nil {
			return nil, err
		}
		return st, nil
	default:
		return nil, fmt.Errorf("no variant source configured")
	}
}

// importer is a store that accepts whole snapshots.
type importer interface {
	Import(ctx context.Context, snap *variant.Snapshot, replace bool) error
	Close() error
}

func (o *SourceOptions) openImporter(ctx context.Context) (importer, error) {
	if o.Postgres != "" {
		pg, err := postgres.Connect(ctx, o.Postgres)
		if err != nil {
			return nil, err
		}
		return pg, nil
	}
	st, err := store.Open(o.Database)
	if err != nil {
		return nil, err
	}
	return st, nil
}
