package store

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/multierr"

	"github.com/roach88/varq/internal/variant"
)

// Snapshot loads the whole store into an immutable snapshot.
//
// When the activities table is empty the vocabulary is derived from the
// graphs. Reads run in one transaction so the snapshot is consistent even
// while another connection writes.
func (s *Store) Snapshot(ctx context.Context) (snap *variant.Snapshot, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	defer func() {
		err = multierr.Append(err, tx.Rollback())
	}()

	variants, err := readVariants(ctx, tx)
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	if err := readGraphs(ctx, tx, variants); err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	labels, err := readActivities(ctx, tx)
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}

	var vocab variant.Vocabulary
	if len(labels) > 0 {
		vocab = variant.NewVocabulary(labels...)
	}
	return variant.NewSnapshot(variants, vocab), nil
}

// Counts reports the number of stored variants, graphs and activities.
type Counts struct {
	Variants   int
	Graphs     int
	Activities int
}

// Count returns row counts for each table.
func (s *Store) Count(ctx context.Context) (Counts, error) {
	var c Counts
	err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM variants),
			(SELECT COUNT(*) FROM graphs),
			(SELECT COUNT(*) FROM activities)
	`).Scan(&c.Variants, &c.Graphs, &c.Activities)
	if err != nil {
		return Counts{}, fmt.Errorf("count: %w", err)
	}
	return c, nil
}

func readVariants(ctx context.Context, tx *sql.Tx) (_ variant.Collection, err error) {
	rows, err := tx.QueryContext(ctx, `SELECT id, metadata FROM variants ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("read variants: %w", err)
	}
	defer func() {
		err = multierr.Append(err, rows.Close())
	}()

	variants := variant.Collection{}
	for rows.Next() {
		var (
			id   int64
			meta sql.NullString
		)
		if err := rows.Scan(&id, &meta); err != nil {
			return nil, fmt.Errorf("scan variant: %w", err)
		}
		variants[variant.ID(id)] = &variant.Variant{
			ID:       variant.ID(id),
			Graphs:   map[string]*variant.Graph{},
			Metadata: metadataValue(meta),
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read variants: %w", err)
	}
	return variants, nil
}

func readGraphs(ctx context.Context, tx *sql.Tx, variants variant.Collection) (err error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT variant_id, graph_key, body FROM graphs
		ORDER BY variant_id ASC, graph_key ASC COLLATE BINARY
	`)
	if err != nil {
		return fmt.Errorf("read graphs: %w", err)
	}
	defer func() {
		err = multierr.Append(err, rows.Close())
	}()

	for rows.Next() {
		var (
			id   int64
			key  string
			body string
		)
		if err := rows.Scan(&id, &key, &body); err != nil {
			return fmt.Errorf("scan graph: %w", err)
		}
		v, ok := variants[variant.ID(id)]
		if !ok {
			return fmt.Errorf("graph %q references missing variant %d", key, id)
		}
		g, err := unmarshalGraph(body)
		if err != nil {
			return fmt.Errorf("variant %d graph %q: %w", id, key, err)
		}
		v.Graphs[key] = g
	}
	return rows.Err()
}

func readActivities(ctx context.Context, tx *sql.Tx) (_ []string, err error) {
	rows, err := tx.QueryContext(ctx, `SELECT label FROM activities ORDER BY label ASC COLLATE BINARY`)
	if err != nil {
		return nil, fmt.Errorf("read activities: %w", err)
	}
	defer func() {
		err = multierr.Append(err, rows.Close())
	}()

	labels := []string{}
	for rows.Next() {
		var label string
		if err := rows.Scan(&label); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		labels = append(labels, label)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read activities: %w", err)
	}
	return labels, nil
}
