package engine

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/roach88/varq/internal/pattern"
	"github.com/roach88/varq/internal/queryir"
	"github.com/roach88/varq/internal/variant"
)

// collection builds variants with one chain graph "g0" each.
func collection(ids ...variant.ID) variant.Collection {
	c := make(variant.Collection, len(ids))
	for _, id := range ids {
		g, err := variant.Chain("A", "B")
		if err != nil {
			panic(err)
		}
		c[id] = &variant.Variant{ID: id, Graphs: map[string]*variant.Graph{"g0": g}}
	}
	return c
}

// setFactory binds leaf patterns to fixed id sets: a pattern {"leaf":["P1"]}
// matches exactly the ids registered under "P1".
//
// Two names are special: "FAIL<n>" errors on variant n and "PANIC" panics on
// every variant.
type setFactory struct {
	sets  map[string][]variant.ID
	built atomic.Int64

	mu    sync.Mutex
	types []queryir.QueryType
}

func (f *setFactory) NewQuery(p pattern.Pattern, qt queryir.QueryType) (BoundQuery, error) {
	f.built.Add(1)
	f.mu.Lock()
	f.types = append(f.types, qt)
	f.mu.Unlock()
	name := p.Activities[0]

	if name == "PANIC" {
		return MatchFunc(func(*variant.Variant) (bool, error) { panic("matcher exploded") }), nil
	}
	if rest, ok := strings.CutPrefix(name, "FAIL"); ok {
		var bad variant.ID
		if _, err := fmt.Sscanf(rest, "%d", &bad); err != nil {
			return nil, err
		}
		return MatchFunc(func(v *variant.Variant) (bool, error) {
			if v.ID == bad {
				return false, errors.New("graph too large")
			}
			return true, nil
		}), nil
	}

	set, ok := f.sets[name]
	if !ok {
		return nil, fmt.Errorf("no set registered for %q", name)
	}
	return MatchFunc(func(v *variant.Variant) (bool, error) {
		return slices.Contains(set, v.ID), nil
	}), nil
}

func leaf(name string) *queryir.Leaf {
	return queryir.NewLeaf(fmt.Sprintf(`{"leaf":[%q]}`, name), "")
}

func typedLeaf(name, qt string) *queryir.Leaf {
	return queryir.NewLeaf(fmt.Sprintf(`{"leaf":[%q]}`, name), qt)
}
