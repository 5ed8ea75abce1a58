package order

import (
	"fmt"
	"sync/atomic"
	"time"
)

// NumberGenerator produces human-readable order numbers from a timestamp plus
// an atomically incremented, zero-padded sequence. The scheme is
// collision-resistant, not collision-proof: uniqueness is enforced by the
// unique constraint on the orders table, and the service regenerates on
// ErrNumberConflict.
type NumberGenerator struct {
	prefix string
	seq    atomic.Uint64
	now    func() time.Time
}

// NewNumberGenerator creates a generator with the given prefix, e.g. "MND".
func NewNumberGenerator(prefix string) *NumberGenerator {
	return &NumberGenerator{prefix: prefix, now: time.Now}
}

// Next returns the next order number, e.g. "MND-20260830143022-000017".
func (g *NumberGenerator) Next() string {
	seq := g.seq.Add(1) % 1_000_000
	return fmt.Sprintf("%s-%s-%06d", g.prefix, g.now().UTC().Format("20060102150405"), seq)
}
