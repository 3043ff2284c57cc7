// Package numerator provides domain contracts for sequential document numbers.
package numerator

// Strategy defines the numbering generation strategy.
type Strategy int

const (
	// StrategyStrict increments the counter row for every number, inside the
	// caller's transaction. Gapless as long as the transaction commits.
	StrategyStrict Strategy = iota

	// StrategyCached reserves ranges of numbers in memory. Faster, may leave
	// gaps after a restart.
	StrategyCached
)

// Options configuration for number generation.
type Options struct {
	Strategy Strategy
	// RangeSize is the number of values reserved at once by StrategyCached (default 50).
	RangeSize int64
}

// DefaultOptions returns standard options (Strict).
func DefaultOptions() *Options {
	return &Options{Strategy: StrategyStrict}
}

// Config holds numbering configuration.
type Config struct {
	// Prefix added to all numbers (e.g. "SO", "PO")
	Prefix string

	// Partition separates independent counters sharing a prefix (e.g. a branch id).
	// It is part of the counter key but not of the rendered number.
	Partition string

	// IncludeYear adds year to the number
	IncludeYear bool

	// PadWidth is the minimum number width (default 5)
	PadWidth int

	// ResetPeriod: "year", "month", "never"
	ResetPeriod string
}

// DefaultConfig returns yearly-reset numbering for a prefix within a partition.
func DefaultConfig(prefix, partition string) Config {
	return Config{
		Prefix:      prefix,
		Partition:   partition,
		IncludeYear: true,
		PadWidth:    5,
		ResetPeriod: "year",
	}
}
