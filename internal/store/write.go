package store

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/multierr"

	"github.com/roach88/varq/internal/variant"
)

// PutVariant inserts or replaces a variant together with all its graphs.
// Graphs stored for the variant but absent from v are removed.
func (s *Store) PutVariant(ctx context.Context, v *variant.Variant) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		return putVariant(ctx, tx, v)
	})
}

// PutActivities adds labels to the vocabulary. Labels are normalized;
// existing labels are ignored.
func (s *Store) PutActivities(ctx context.Context, labels ...string) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		return putActivities(ctx, tx, labels)
	})
}

// DeleteVariant removes a variant and its graphs. Deleting a missing
// variant is not an error.
func (s *Store) DeleteVariant(ctx context.Context, id variant.ID) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM variants WHERE id = ?`, int64(id)); err != nil {
		return fmt.Errorf("delete variant %d: %w", id, err)
	}
	return nil
}

// Import writes a whole snapshot in one transaction. With replace set, the
// store is emptied first so it holds exactly the snapshot afterwards.
func (s *Store) Import(ctx context.Context, snap *variant.Snapshot, replace bool) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if replace {
			for _, table := range []string{"graphs", "variants", "activities"} {
				if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
					return fmt.Errorf("clear %s: %w", table, err)
				}
			}
		}
		for _, id := range snap.Variants.IDs() {
			if err := putVariant(ctx, tx, snap.Variants[id]); err != nil {
				return err
			}
		}
		return putActivities(ctx, tx, snap.Activities.Labels())
	})
}

func putVariant(ctx context.Context, tx *sql.Tx, v *variant.Variant) error {
	if len(v.Graphs) == 0 {
		return fmt.Errorf("put variant %d: at least one graph is required", v.ID)
	}

	_, err := tx.ExecContext(ctx, `
		INSERT INTO variants (id, metadata) VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET metadata = excluded.metadata
	`, int64(v.ID), metadataColumn(v.Metadata))
	if err != nil {
		return fmt.Errorf("put variant %d: %w", v.ID, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM graphs WHERE variant_id = ?`, int64(v.ID)); err != nil {
		return fmt.Errorf("put variant %d: %w", v.ID, err)
	}

	for _, key := range v.GraphKeys() {
		body, err := marshalGraph(v.Graphs[key])
		if err != nil {
			return fmt.Errorf("put variant %d graph %q: %w", v.ID, key, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO graphs (variant_id, graph_key, body) VALUES (?, ?, ?)
		`, int64(v.ID), key, body)
		if err != nil {
			return fmt.Errorf("put variant %d graph %q: %w", v.ID, key, err)
		}
	}
	return nil
}

func putActivities(ctx context.Context, tx *sql.Tx, labels []string) error {
	for _, label := range labels {
		label = variant.NormalizeActivity(label)
		if label == "" {
			continue
		}
		_, err := tx.ExecContext(ctx, `INSERT INTO activities (label) VALUES (?) ON CONFLICT DO NOTHING`, label)
		if err != nil {
			return fmt.Errorf("put activity %q: %w", label, err)
		}
	}
	return nil
}

// inTx runs fn in a transaction, rolling back on error.
func (s *Store) inTx(ctx context.Context, fn func(*sql.Tx) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			err = multierr.Append(err, tx.Rollback())
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
