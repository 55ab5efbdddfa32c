package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/varq/internal/variant"
)

// createTestStore creates a new store in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestVariant creates a variant with one chain graph per entry.
func createTestVariant(t *testing.T, id variant.ID, chains ...[]string) *variant.Variant {
	t.Helper()
	v := &variant.Variant{ID: id, Graphs: map[string]*variant.Graph{}}
	for i, acts := range chains {
		g, err := variant.Chain(acts...)
		if err != nil {
			t.Fatalf("Chain() failed: %v", err)
		}
		v.Graphs[string(rune('a'+i))] = g
	}
	return v
}
