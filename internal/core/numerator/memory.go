package numerator

import (
	"context"
	"sync"
	"time"
)

// MemoryGenerator keeps counters in process memory.
// Used by the in-memory storage driver and in tests.
type MemoryGenerator struct {
	mu       sync.Mutex
	counters map[string]int64
}

func NewMemoryGenerator() *MemoryGenerator {
	return &MemoryGenerator{counters: make(map[string]int64)}
}

// Next implements Generator.
func (g *MemoryGenerator) Next(_ context.Context, cfg Config, period time.Time) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	key := cfg.SequenceKey(period)
	g.counters[key]++
	return cfg.Format(period, g.counters[key]), nil
}

var _ Generator = (*MemoryGenerator)(nil)
