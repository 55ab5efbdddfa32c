package server

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/roach88/varq/internal/engine"
	"github.com/roach88/varq/internal/variant"
)

// ErrNoSnapshot is returned by CachedSource before the first Reload.
var ErrNoSnapshot = errors.New("server: no snapshot loaded")

// CachedSource serves the last snapshot loaded from an upstream store.
// Reload swaps the snapshot atomically; evaluations that already hold the
// previous one keep using it.
type CachedSource struct {
	upstream engine.SnapshotSource
	current  atomic.Pointer[variant.Snapshot]
}

// NewCachedSource wraps upstream. Nothing is loaded until Reload.
func NewCachedSource(upstream engine.SnapshotSource) *CachedSource {
	return &CachedSource{upstream: upstream}
}

// Snapshot returns the current snapshot. Implements engine.SnapshotSource.
func (s *CachedSource) Snapshot(context.Context) (*variant.Snapshot, error) {
	snap := s.current.Load()
	if snap == nil {
		return nil, ErrNoSnapshot
	}
	return snap, nil
}

// Reload reads a fresh snapshot from upstream and makes it current. On
// error the previous snapshot stays in place.
func (s *CachedSource) Reload(ctx context.Context) (*variant.Snapshot, error) {
	snap, err := s.upstream.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	s.current.Store(snap)
	return snap, nil
}
