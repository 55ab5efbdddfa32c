package variant

import (
	"encoding/json"
	"slices"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// ID identifies a variant within a Collection.
type ID int64

// Variant is one grouped execution variant.
//
// Graphs maps an opaque graph key to its concurrency graph. Metadata is
// carried through untouched; evaluators never look at it.
type Variant struct {
	ID       ID                `json:"id"`
	Graphs   map[string]*Graph `json:"graphs"`
	Metadata json.RawMessage   `json:"metadata,omitempty"`
}

// GraphKeys returns the variant's graph keys in ascending order.
func (v *Variant) GraphKeys() []string {
	keys := make([]string, 0, len(v.Graphs))
	for k := range v.Graphs {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Collection maps variant ids to variants.
type Collection map[ID]*Variant

// IDs returns every id in the collection in ascending order.
func (c Collection) IDs() []ID {
	ids := make([]ID, 0, len(c))
	for id := range c {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Vocabulary is the set of activity labels valid for an evaluation session.
type Vocabulary map[string]struct{}

// NewVocabulary builds a vocabulary from labels. Labels are NFC-normalized
// and surrounding whitespace is dropped; empty labels are ignored.
func NewVocabulary(labels ...string) Vocabulary {
	v := make(Vocabulary, len(labels))
	for _, l := range labels {
		if l = NormalizeActivity(l); l != "" {
			v[l] = struct{}{}
		}
	}
	return v
}

// Contains reports whether label (after normalization) is in the vocabulary.
func (v Vocabulary) Contains(label string) bool {
	_, ok := v[NormalizeActivity(label)]
	return ok
}

// Labels returns the vocabulary in ascending order.
func (v Vocabulary) Labels() []string {
	out := make([]string, 0, len(v))
	for l := range v {
		out = append(out, l)
	}
	slices.Sort(out)
	return out
}

// NormalizeActivity returns the canonical form of an activity label.
func NormalizeActivity(label string) string {
	return norm.NFC.String(strings.TrimSpace(label))
}

// Snapshot is an immutable view of the variant store.
type Snapshot struct {
	Variants   Collection
	Activities Vocabulary
}

// NewSnapshot returns a snapshot over variants. When activities is nil the
// vocabulary is derived from the activities that occur in the graphs.
func NewSnapshot(variants Collection, activities Vocabulary) *Snapshot {
	if variants == nil {
		variants = Collection{}
	}
	if activities == nil {
		activities = Vocabulary{}
		for _, v := range variants {
			for _, g := range v.Graphs {
				for _, a := range g.Activities() {
					activities[a] = struct{}{}
				}
			}
		}
	}
	return &Snapshot{Variants: variants, Activities: activities}
}
