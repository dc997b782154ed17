package recurrence

import "time"

// DefaultMaxOccurrences is how many occurrences a new series materializes.
const DefaultMaxOccurrences = 5

// ExpanderConfig tunes an Expander
type ExpanderConfig struct {
	CacheEnabled bool
	CacheConfig  CacheConfig

	// MaxOccurrences is the eager window used when a series is created.
	MaxOccurrences int
	// MaxExtension caps how many occurrences one ExtendSeries call may add.
	MaxExtension int
}

var DefaultExpanderConfig = ExpanderConfig{
	CacheEnabled:   true,
	CacheConfig:    DefaultCacheConfig,
	MaxOccurrences: DefaultMaxOccurrences,
	MaxExtension:   52,
}

// LongWindowConfig materializes a quarter of weekly occurrences up front
var LongWindowConfig = ExpanderConfig{
	CacheEnabled: true,
	CacheConfig: CacheConfig{
		TTL:             30 * time.Minute,
		MaxEntries:      5000,
		CleanupInterval: 10 * time.Minute,
	},
	MaxOccurrences: 13,
	MaxExtension:   104,
}

// DisabledCacheConfig expands every window from scratch
var DisabledCacheConfig = ExpanderConfig{
	MaxOccurrences: DefaultMaxOccurrences,
	MaxExtension:   52,
}
