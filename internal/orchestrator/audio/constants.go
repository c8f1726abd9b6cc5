// Package audio segments microphone frames into utterances
package audio

import "time"

// Segmentation constants
const (
	// Silence that closes an utterance
	DefaultSilenceThreshold = 700 * time.Millisecond

	// Frame length the capture layer produces
	DefaultFrameDuration = 30 * time.Millisecond

	// RMS level above which a frame counts as voiced
	DefaultEnergyThreshold = 500.0

	// int16 sample byte size
	Int16ByteSize = 2
)
