package audio

import (
	"context"
	"encoding/binary"
	"log/slog"
	"math"
	"sync"
	"time"

	audiocap "github.com/GriffinCanCode/screentutor/internal/audio"
)

// Detector decides whether a frame of little-endian int16 PCM contains speech.
type Detector interface {
	IsSpeech(frame []byte) (bool, error)
}

// UtteranceHandler receives a completed utterance. It must not block.
type UtteranceHandler func(ctx context.Context, samples []int16)

// Segmenter accumulates voiced frames and closes an utterance after a run of silence.
// Silent frames are not part of the utterance.
type Segmenter struct {
	threshold time.Duration
	buffer    []int16
	silence   time.Duration
}

// NewSegmenter creates a segmenter that flushes after threshold of silence.
func NewSegmenter(threshold time.Duration) *Segmenter {
	if threshold <= 0 {
		threshold = DefaultSilenceThreshold
	}
	return &Segmenter{threshold: threshold}
}

// Push feeds one frame of the given duration. It returns the utterance and true
// when this frame closes one.
func (s *Segmenter) Push(samples []int16, frameDur time.Duration, voiced bool) ([]int16, bool) {
	if voiced {
		s.buffer = append(s.buffer, samples...)
		s.silence = 0
		return nil, false
	}

	s.silence += frameDur
	if s.silence < s.threshold {
		return nil, false
	}

	s.silence = 0
	if len(s.buffer) == 0 {
		return nil, false
	}
	out := s.buffer
	s.buffer = nil
	return out, true
}

// Silence returns the silence accumulated since the last voiced frame or flush.
func (s *Segmenter) Silence() time.Duration { return s.silence }

// Buffered returns the number of samples waiting for the next flush.
func (s *Segmenter) Buffered() int { return len(s.buffer) }

// Reset drops any partial utterance.
func (s *Segmenter) Reset() {
	s.buffer = nil
	s.silence = 0
}

// Config for the frame processor
type Config struct {
	SampleRate       int
	FrameDuration    time.Duration
	SilenceThreshold time.Duration
}

// Processor runs frames through a Detector and a Segmenter.
type Processor struct {
	det     Detector
	cfg     Config
	onUtter UtteranceHandler

	mu  sync.Mutex
	seg *Segmenter
}

// NewProcessor creates a frame processor
func NewProcessor(det Detector, cfg Config, onUtter UtteranceHandler) *Processor {
	if cfg.FrameDuration <= 0 {
		cfg.FrameDuration = DefaultFrameDuration
	}
	return &Processor{
		det:     det,
		cfg:     cfg,
		onUtter: onUtter,
		seg:     NewSegmenter(cfg.SilenceThreshold),
	}
}

// ProcessFrame classifies one captured frame and emits a finished utterance.
// A detector error counts the frame as silent.
func (p *Processor) ProcessFrame(ctx context.Context, frame audiocap.Frame) {
	voiced, err := p.det.IsSpeech(frame.Bytes())
	if err != nil {
		slog.Debug("VAD error", "error", err)
		voiced = false
	}

	dur := p.cfg.FrameDuration
	if p.cfg.SampleRate > 0 {
		dur = time.Duration(len(frame.Samples)) * time.Second / time.Duration(p.cfg.SampleRate)
	}

	p.mu.Lock()
	utt, ok := p.seg.Push(frame.Samples, dur, voiced)
	p.mu.Unlock()

	if ok {
		slog.Debug("utterance complete", "samples", len(utt))
		p.onUtter(ctx, utt)
	}
}

// Reset drops any partial utterance, e.g. when listening is toggled off.
func (p *Processor) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seg.Reset()
}

// EnergyDetector is an RMS threshold voice detector.
type EnergyDetector struct {
	Threshold float64
}

// NewEnergyDetector returns a detector with the given RMS threshold.
func NewEnergyDetector(threshold float64) *EnergyDetector {
	if threshold <= 0 {
		threshold = DefaultEnergyThreshold
	}
	return &EnergyDetector{Threshold: threshold}
}

// IsSpeech reports whether the frame's RMS exceeds the threshold.
func (d *EnergyDetector) IsSpeech(frame []byte) (bool, error) {
	return RMS(frame) > d.Threshold, nil
}

// RMS computes the root mean square of little-endian int16 PCM.
func RMS(pcm []byte) float64 {
	n := len(pcm) / Int16ByteSize
	if n == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		s := float64(int16(binary.LittleEndian.Uint16(pcm[i*Int16ByteSize:])))
		sum += s * s
	}
	return math.Sqrt(sum / float64(n))
}
