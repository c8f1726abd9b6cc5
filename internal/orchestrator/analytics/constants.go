// Package analytics batches learning events into the course store
package analytics

import "time"

// Batcher defaults
const (
	DefaultMaxSize    = 50
	DefaultFlushDelay = 2 * time.Second
	FlushTimeout      = 5 * time.Second
)
