package exec

import (
	"sync"

	"github.com/google/uuid"
)

// QueryIDGenerator produces the identifiers tagging each pushdown
// attempt in diagnostics, so one attempt's compile/run/fallback log
// lines correlate.
type QueryIDGenerator interface {
	Next() string
}

// UUIDv7Generator generates time-sortable UUIDv7 query IDs.
// Stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Next returns a new UUIDv7 as a hyphenated string.
func (UUIDv7Generator) Next() string {
	return uuid.Must(uuid.NewV7()).String()
}

// FixedIDGenerator returns predetermined IDs for deterministic tests.
// Safe for concurrent use via internal mutex.
type FixedIDGenerator struct {
	mu  sync.Mutex
	ids []string
	idx int
}

// NewFixedIDGenerator creates a generator returning ids in order; once
// exhausted it keeps returning the last one.
func NewFixedIDGenerator(ids ...string) *FixedIDGenerator {
	if len(ids) == 0 {
		ids = []string{"query-test-0"}
	}
	return &FixedIDGenerator{ids: ids}
}

// Next returns the next predetermined ID.
func (g *FixedIDGenerator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := g.ids[g.idx]
	if g.idx < len(g.ids)-1 {
		g.idx++
	}
	return id
}
