// Package testutil holds builders and deterministic helpers shared by tests
// across packages.
package testutil

import (
	"strconv"
	"testing"

	"github.com/roach88/varq/internal/variant"
)

// Chain builds a sequential graph or fails the test.
func Chain(t testing.TB, activities ...string) *variant.Graph {
	t.Helper()
	g, err := variant.Chain(activities...)
	if err != nil {
		t.Fatalf("chain %v: %v", activities, err)
	}
	return g
}

// Variant builds a variant whose graphs are keyed g0, g1, ... in order.
func Variant(id variant.ID, graphs ...*variant.Graph) *variant.Variant {
	v := &variant.Variant{ID: id, Graphs: make(map[string]*variant.Graph, len(graphs))}
	for i, g := range graphs {
		v.Graphs[graphKey(i)] = g
	}
	return v
}

// ChainVariant is Variant with a single chain graph.
func ChainVariant(t testing.TB, id variant.ID, activities ...string) *variant.Variant {
	t.Helper()
	return Variant(id, Chain(t, activities...))
}

// Snapshot collects variants into a snapshot with a derived vocabulary.
// Duplicate ids fail the test.
func Snapshot(t testing.TB, variants ...*variant.Variant) *variant.Snapshot {
	t.Helper()
	c := make(variant.Collection, len(variants))
	for _, v := range variants {
		if _, dup := c[v.ID]; dup {
			t.Fatalf("duplicate variant id %d", v.ID)
		}
		c[v.ID] = v
	}
	return variant.NewSnapshot(c, nil)
}

func graphKey(i int) string {
	return "g" + strconv.Itoa(i)
}
