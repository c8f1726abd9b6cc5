package orchestrator

import "time"

// Orchestrator configuration constants
const (
	// How long /audio-status reports a synthesized reply as new
	AudioFreshness = 60 * time.Second

	// How often the capture loop re-reads the listening flag
	ListeningPoll = 100 * time.Millisecond

	// Per-job capture file prefix inside the work directory
	CapturedAudioPrefix = "captured_audio"

	// Uploads to /process-audio land here
	UploadedAudioFile = "uploaded_audio.wav"
)
