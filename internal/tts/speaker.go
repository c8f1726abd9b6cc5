// Package tts speaks answers into the response WAV served to the browser.
package tts

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	apperrors "github.com/GriffinCanCode/screentutor/internal/errors"
	"github.com/GriffinCanCode/screentutor/internal/logging"
	"github.com/GriffinCanCode/screentutor/internal/metrics"
	"github.com/GriffinCanCode/screentutor/internal/resilience"
	"github.com/GriffinCanCode/screentutor/internal/trace"
)

const (
	// MaxChars is the longest text sent to the provider before truncation.
	MaxChars = 500
	// Ellipsis marks truncated text.
	Ellipsis = "..."
)

// Synthesizer converts text to WAV bytes.
type Synthesizer interface {
	Name() string
	Enabled() bool
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// Speaker synthesizes text and publishes the result at a fixed path.
type Speaker struct {
	synth    Synthesizer
	br       *resilience.Breaker
	path     string
	onSpoken func(time.Time)
	metrics  *metrics.Metrics
	journal  *logging.Journal
	now      func() time.Time
}

// NewSpeaker writes synthesized audio to path and reports each write to onSpoken.
func NewSpeaker(synth Synthesizer, path string, brCfg resilience.Config, onSpoken func(time.Time), m *metrics.Metrics, j *logging.Journal) *Speaker {
	br := resilience.New("tts_"+synth.Name(), brCfg).WithHook(func(name string, _, to resilience.State) {
		m.Breaker(name, uint32(to))
	})
	if onSpoken == nil {
		onSpoken = func(time.Time) {}
	}
	return &Speaker{synth: synth, br: br, path: path, onSpoken: onSpoken, metrics: m, journal: j, now: time.Now}
}

// Enabled reports whether speech output is configured at all.
func (s *Speaker) Enabled() bool { return s.synth.Enabled() }

// Path returns where the latest response audio is written.
func (s *Speaker) Path() string { return s.path }

// PrepareText trims text, rejects empty input and truncates long input.
// Truncation counts runes so multi-byte text is never split mid-character.
func PrepareText(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", apperrors.New(apperrors.EmptyInput, "empty text for speech")
	}
	if r := []rune(text); len(r) > MaxChars {
		text = string(r[:MaxChars]) + Ellipsis
	}
	return text, nil
}

// Speak makes one synthesis attempt and replaces the response file on success.
func (s *Speaker) Speak(ctx context.Context, text string) error {
	ctx, span := trace.StartSpan(ctx, "tts_speak")
	defer span.End()
	defer s.metrics.Stage("speak", time.Now())

	text, err := PrepareText(text)
	if err != nil {
		s.metrics.TTS(err)
		return err
	}

	audio, err := resilience.ExecuteWithResult(s.br, func() ([]byte, error) {
		return s.synth.Synthesize(ctx, text)
	})
	if err == nil {
		err = s.publish(audio)
	}
	s.metrics.TTS(err)
	if err != nil {
		span.SetAttr("error", err.Error())
		s.journal.OriginError("TTS Error: %s failed to convert text to speech: %v", s.synth.Name(), err)
		return err
	}

	at := s.now()
	s.onSpoken(at)
	s.journal.Output("TTS Output: '%s' converted to speech", text)
	s.journal.Origin("TTS: %s converted text to speech: '%s'", s.synth.Name(), text)
	trace.Logger(ctx).Info("speech ready", "path", s.path, "bytes", len(audio))
	return nil
}

// publish swaps the new audio in with a rename so readers never see a partial file.
func (s *Speaker) publish(audio []byte) error {
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".response-*.wav")
	if err != nil {
		return apperrors.Wrap(err, apperrors.Internal, "create response audio")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(audio); err != nil {
		tmp.Close()
		return apperrors.Wrap(err, apperrors.Internal, "write response audio")
	}
	if err := tmp.Close(); err != nil {
		return apperrors.Wrap(err, apperrors.Internal, "write response audio")
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return apperrors.Wrap(err, apperrors.Internal, "publish response audio")
	}
	return nil
}

// Available reports whether the response file exists and was written within window.
func Available(path string, at, now time.Time, window time.Duration) bool {
	if at.IsZero() || now.Sub(at) >= window {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}
