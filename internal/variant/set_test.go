package variant

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSortIDs(t *testing.T) {
	in := []ID{3, 1, 3, 2}
	assert.Equal(t, []ID{1, 2, 3}, SortIDs(in))
	assert.Equal(t, []ID{3, 1, 3, 2}, in, "input must not be modified")
	assert.NotNil(t, SortIDs(nil))
}

func TestIntersect(t *testing.T) {
	assert.Equal(t, []ID{2, 3}, Intersect([]ID{1, 2, 3}, []ID{3, 2, 4}))
	assert.Equal(t, []ID{}, Intersect([]ID{1}, []ID{2}))
	assert.Equal(t, []ID{1, 2}, Intersect([]ID{2, 1, 1}))
	assert.Equal(t, []ID{}, Intersect(), "no sets yields the empty set")
	assert.Equal(t, []ID{}, Intersect([]ID{1, 2}, nil))
}

func TestUnion(t *testing.T) {
	assert.Equal(t, []ID{1, 2, 3, 4}, Union([]ID{3, 1}, []ID{4, 2, 3}))
	assert.Equal(t, []ID{}, Union())
	assert.Equal(t, []ID{}, Union(nil, nil))
}

func TestCollection_IDsSorted(t *testing.T) {
	c := Collection{5: {ID: 5}, 1: {ID: 1}, 3: {ID: 3}}
	assert.Equal(t, []ID{1, 3, 5}, c.IDs())
}

func TestVariant_GraphKeysSorted(t *testing.T) {
	v := &Variant{Graphs: map[string]*Graph{"g2": nil, "g0": nil, "g1": nil}}
	assert.Equal(t, []string{"g0", "g1", "g2"}, v.GraphKeys())
}

func TestVocabulary(t *testing.T) {
	v := NewVocabulary(" B ", "A", "", "Créer")
	assert.Equal(t, []string{"A", "B", "Créer"}, v.Labels())
	assert.True(t, v.Contains("Créer"))
	assert.False(t, v.Contains("Z"))
}
