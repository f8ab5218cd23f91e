package numerator

import (
	"context"
	"time"
)

// Generator generates sequential document numbers.
// Implementations live in the infrastructure layer; a postgres-backed one joins
// the caller's transaction so a rolled back submit does not consume a number.
type Generator interface {
	// Next returns the next number for cfg in the given period, e.g. GR-2025-00001.
	Next(ctx context.Context, cfg Config, period time.Time) (string, error)
}
