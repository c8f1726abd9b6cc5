package audio

import "time"

// Capture constants
const (
	// Frames buffered between the device reader and the segmenter (~3s at 30ms)
	DefaultFrameBuffer = 100

	// How often the reader re-checks the gate while not listening
	IdlePoll = 100 * time.Millisecond

	// PCM encoding of every clip written to disk
	BitDepth    = 16
	NumChannels = 1
)
