// Package variant holds the read-only data model that queries run against.
//
// A Variant groups one or more execution traces that share structure. Each
// variant carries one or more concurrency graphs: nodes labelled with
// activities, edges recording that one activity instance precedes another.
// Two nodes with no path between them are concurrent.
//
// # Snapshots
//
// Evaluators never see a store. They receive a Snapshot: a Collection of
// variants plus the activity Vocabulary, both treated as immutable for the
// lifetime of every evaluation that holds it. Stores build a fresh Snapshot
// on every load; replacing data means handing out a new Snapshot, never
// editing one in place.
//
// # Determinism
//
// Go map iteration order is random. Every accessor that exposes ids or keys
// (Collection.IDs, Variant.GraphKeys, Vocabulary.Labels) returns them sorted,
// and the set helpers (Intersect, Union, SortIDs) always return ascending,
// duplicate-free slices.
//
// # Normalization
//
// Activity labels are NFC-normalized at construction so that visually equal
// labels compare equal regardless of how the source encoded them.
package variant
