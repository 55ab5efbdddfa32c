package postgres

import "context"

const schemaSQL = `
CREATE TABLE IF NOT EXISTS varq_variants (
    id       BIGINT PRIMARY KEY,
    metadata JSONB
);

CREATE TABLE IF NOT EXISTS varq_graphs (
    variant_id BIGINT NOT NULL REFERENCES varq_variants(id) ON DELETE CASCADE,
    graph_key  TEXT   NOT NULL,
    body       JSONB  NOT NULL,
    PRIMARY KEY (variant_id, graph_key)
);

CREATE TABLE IF NOT EXISTS varq_activities (
    label TEXT PRIMARY KEY
);
`

// CreateSchema creates the varq tables if they don't exist.
func (s *PGStore) CreateSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, schemaSQL)
	return err
}

// DropSchema drops the varq tables.
func (s *PGStore) DropSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `DROP TABLE IF EXISTS varq_graphs, varq_variants, varq_activities CASCADE;`)
	return err
}
