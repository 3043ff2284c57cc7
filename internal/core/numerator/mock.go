package numerator

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// SequenceGenerator is an in-memory Generator for unit tests.
type SequenceGenerator struct {
	mu       sync.Mutex
	counters map[string]int64
}

// NewSequenceGenerator creates an empty in-memory generator.
func NewSequenceGenerator() *SequenceGenerator {
	return &SequenceGenerator{counters: make(map[string]int64)}
}

// GetNextNumber implements Generator.
func (g *SequenceGenerator) GetNextNumber(_ context.Context, cfg Config, _ *Options, period time.Time) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	key := cfg.Partition + "/" + cfg.Prefix + "/" + period.Format("2006")
	g.counters[key]++
	width := cfg.PadWidth
	if width == 0 {
		width = 5
	}
	if cfg.IncludeYear {
		return fmt.Sprintf("%s-%s-%0*d", cfg.Prefix, period.Format("2006"), width, g.counters[key]), nil
	}
	return fmt.Sprintf("%s-%0*d", cfg.Prefix, width, g.counters[key]), nil
}

// SetNextNumber implements Generator.
func (g *SequenceGenerator) SetNextNumber(_ context.Context, cfg Config, period time.Time, value int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.counters[cfg.Partition+"/"+cfg.Prefix+"/"+period.Format("2006")] = value
	return nil
}

var _ Generator = (*SequenceGenerator)(nil)
