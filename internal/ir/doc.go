// Package ir provides canonical JSON encoding and content digests.
//
// Query results and scenario snapshots are compared byte-for-byte (golden
// files, determinism checks), so they are always serialized through
// MarshalCanonical: sorted keys, NFC strings, no floats, no nulls.
//
// ir imports nothing internal.
package ir
