package gate

import (
	"sync"

	"server/internal/domain"
)

// Gate is the process-wide mutual-exclusion token for generation. It is
// a single global gate, not per-kind: at most one generation, image or
// video, is in flight at any time. The upstream providers are rate- and
// cost-sensitive, so all generation is serialized.
type Gate struct {
	mu         sync.Mutex
	busy       bool
	activeKind domain.Kind
}

func New() *Gate {
	return &Gate{}
}

// TryAcquire claims the gate for kind. It returns false when any
// generation is already in flight.
func (g *Gate) TryAcquire(kind domain.Kind) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.busy {
		return false
	}
	g.busy = true
	g.activeKind = kind
	return true
}

// Release frees the gate. It must be called exactly once per successful
// TryAcquire, on every exit path.
func (g *Gate) Release() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.busy = false
	g.activeKind = ""
}

// Busy reports whether a generation is in flight, and for which kind.
func (g *Gate) Busy() (bool, domain.Kind) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.busy, g.activeKind
}
