package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/multierr"

	"github.com/roach88/varq/internal/variant"
)

// PutVariant inserts or replaces a variant and all its graphs in one
// transaction.
func (s *PGStore) PutVariant(ctx context.Context, v *variant.Variant) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("varq: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := putVariant(ctx, tx, v); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Import writes a whole snapshot. With replace set the tables are emptied
// first.
func (s *PGStore) Import(ctx context.Context, snap *variant.Snapshot, replace bool) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("varq: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if replace {
		if _, err := tx.Exec(ctx, `TRUNCATE varq_graphs, varq_variants, varq_activities`); err != nil {
			return fmt.Errorf("varq: truncate: %w", err)
		}
	}
	for _, id := range snap.Variants.IDs() {
		if err := putVariant(ctx, tx, snap.Variants[id]); err != nil {
			return err
		}
	}
	for _, label := range snap.Activities.Labels() {
		if _, err := tx.Exec(ctx,
			`INSERT INTO varq_activities (label) VALUES ($1) ON CONFLICT DO NOTHING`, label,
		); err != nil {
			return fmt.Errorf("varq: insert activity %q: %w", label, err)
		}
	}
	return tx.Commit(ctx)
}

func putVariant(ctx context.Context, tx pgx.Tx, v *variant.Variant) error {
	if len(v.Graphs) == 0 {
		return fmt.Errorf("varq: variant %d has no graphs", v.ID)
	}

	var meta any
	if len(v.Metadata) > 0 {
		meta = v.Metadata
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO varq_variants (id, metadata) VALUES ($1, $2)
		 ON CONFLICT (id) DO UPDATE SET metadata = EXCLUDED.metadata`,
		int64(v.ID), meta,
	); err != nil {
		return fmt.Errorf("varq: insert variant %d: %w", v.ID, err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM varq_graphs WHERE variant_id = $1`, int64(v.ID)); err != nil {
		return fmt.Errorf("varq: delete graphs of %d: %w", v.ID, err)
	}

	for _, key := range v.GraphKeys() {
		body, err := json.Marshal(v.Graphs[key])
		if err != nil {
			return fmt.Errorf("varq: marshal graph %q of %d: %w", key, v.ID, err)
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO varq_graphs (variant_id, graph_key, body) VALUES ($1, $2, $3)`,
			int64(v.ID), key, body,
		); err != nil {
			return fmt.Errorf("varq: insert graph %q of %d: %w", key, v.ID, err)
		}
	}
	return nil
}

// Snapshot loads every variant into an immutable snapshot. Reads share one
// repeatable-read transaction so the result is consistent.
func (s *PGStore) Snapshot(ctx context.Context) (snap *variant.Snapshot, err error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, fmt.Errorf("varq: begin tx: %w", err)
	}
	defer func() {
		err = multierr.Append(err, tx.Rollback(ctx))
	}()

	variants := variant.Collection{}
	rows, err := tx.Query(ctx, `SELECT id, metadata FROM varq_variants ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("varq: list variants: %w", err)
	}
	for rows.Next() {
		var (
			id   int64
			meta []byte
		)
		if err := rows.Scan(&id, &meta); err != nil {
			rows.Close()
			return nil, fmt.Errorf("varq: scan variant: %w", err)
		}
		variants[variant.ID(id)] = &variant.Variant{
			ID:       variant.ID(id),
			Graphs:   map[string]*variant.Graph{},
			Metadata: json.RawMessage(meta),
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("varq: list variants: %w", err)
	}

	rows, err = tx.Query(ctx, `SELECT variant_id, graph_key, body FROM varq_graphs ORDER BY variant_id, graph_key COLLATE "C"`)
	if err != nil {
		return nil, fmt.Errorf("varq: list graphs: %w", err)
	}
	for rows.Next() {
		var (
			id   int64
			key  string
			body []byte
		)
		if err := rows.Scan(&id, &key, &body); err != nil {
			rows.Close()
			return nil, fmt.Errorf("varq: scan graph: %w", err)
		}
		g := &variant.Graph{}
		if err := json.Unmarshal(body, g); err != nil {
			rows.Close()
			return nil, fmt.Errorf("varq: variant %d graph %q: %w", id, key, err)
		}
		if v, ok := variants[variant.ID(id)]; ok {
			v.Graphs[key] = g
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("varq: list graphs: %w", err)
	}

	rows, err = tx.Query(ctx, `SELECT label FROM varq_activities ORDER BY label COLLATE "C"`)
	if err != nil {
		return nil, fmt.Errorf("varq: list activities: %w", err)
	}
	labels, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("varq: list activities: %w", err)
	}

	var vocab variant.Vocabulary
	if len(labels) > 0 {
		vocab = variant.NewVocabulary(labels...)
	}
	return variant.NewSnapshot(variants, vocab), nil
}
