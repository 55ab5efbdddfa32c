package testutil

import (
	"fmt"
	"sync"
)

// SequentialRequestIDs hands out request ids prefix-1, prefix-2, ...
//
// Unlike engine.FixedGenerator it never runs out, and it can be reset so
// the same scenario produces the same ids on every run.
//
// Thread-safety: all methods are safe for concurrent use.
type SequentialRequestIDs struct {
	mu     sync.Mutex
	prefix string
	seq    int64
}

// NewSequentialRequestIDs creates a generator. An empty prefix becomes
// "req".
func NewSequentialRequestIDs(prefix string) *SequentialRequestIDs {
	if prefix == "" {
		prefix = "req"
	}
	return &SequentialRequestIDs{prefix: prefix}
}

// Generate returns the next id. Implements engine.RequestIDGenerator.
func (g *SequentialRequestIDs) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	return fmt.Sprintf("%s-%d", g.prefix, g.seq)
}

// Issued returns how many ids have been generated since the last Reset.
func (g *SequentialRequestIDs) Issued() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.seq
}

// Reset restarts the sequence; the next id is prefix-1.
func (g *SequentialRequestIDs) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq = 0
}
