// Package store provides SQLite-backed storage for variant collections.
//
// The store holds three tables:
//   - variants: id and opaque JSON metadata
//   - graphs: one row per (variant, graph key), body as JSON nodes/edges
//   - activities: the activity vocabulary
//
// Readers never see live rows. Snapshot loads everything into an immutable
// variant.Snapshot, so evaluations keep a consistent view while imports
// continue. Store satisfies engine.SnapshotSource.
//
// # Deterministic Reads
//
// Every query orders by its key (ORDER BY id, graph_key, label COLLATE
// BINARY) so two snapshots of the same database are identical.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Graph rows are deleted with their variant
package store
