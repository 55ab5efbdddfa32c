package store

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/roach88/varq/internal/variant"
)

// marshalGraph encodes a graph body for the graphs table.
func marshalGraph(g *variant.Graph) (string, error) {
	data, err := json.Marshal(g)
	if err != nil {
		return "", fmt.Errorf("marshal graph: %w", err)
	}
	return string(data), nil
}

// unmarshalGraph decodes and validates a graph body.
func unmarshalGraph(body string) (*variant.Graph, error) {
	g := &variant.Graph{}
	if err := json.Unmarshal([]byte(body), g); err != nil {
		return nil, fmt.Errorf("unmarshal graph: %w", err)
	}
	return g, nil
}

// metadataColumn maps empty metadata to NULL.
func metadataColumn(raw json.RawMessage) any {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	return string(raw)
}

// metadataValue is the inverse of metadataColumn.
func metadataValue(col sql.NullString) json.RawMessage {
	if !col.Valid {
		return nil
	}
	return json.RawMessage(col.String)
}
