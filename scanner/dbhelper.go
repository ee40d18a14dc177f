package scanner

import (
	"sync"
)

// hashGate decides whether a content hash still needs analysis in this run.
// known is the snapshot read before the workers start and is never written;
// claimed tracks hashes a worker of this run has already taken.
type hashGate struct {
	known   map[string]struct{}
	mu      sync.Mutex
	claimed map[string]string
}

func newHashGate(known map[string]struct{}) *hashGate {
	return &hashGate{
		known:   known,
		claimed: make(map[string]string),
	}
}

// isKnown reports whether the hash was stored before this run began
func (g *hashGate) isKnown(hash string) bool {
	_, ok := g.known[hash]
	return ok
}

// claim returns true if path is the first one in this run with the hash,
// otherwise it returns false and the path that claimed it
func (g *hashGate) claim(hash, path string) (bool, string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if first, ok := g.claimed[hash]; ok {
		return false, first
	}
	g.claimed[hash] = path
	return true, ""
}
