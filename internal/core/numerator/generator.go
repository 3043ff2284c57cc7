package numerator

import (
	"context"
	"time"
)

// Generator generates sequential document numbers.
// Implementations live in the infrastructure layer.
type Generator interface {
	// GetNextNumber generates the next number, e.g. SO-2025-00001.
	GetNextNumber(ctx context.Context, cfg Config, opts *Options, period time.Time) (string, error)

	// SetNextNumber sets the counter value (data migration, tests).
	SetNextNumber(ctx context.Context, cfg Config, period time.Time, value int64) error
}
