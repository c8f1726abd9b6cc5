// Package orchestrator coordinates capture, transcription, screen, response and speech
package orchestrator

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	audiocap "github.com/GriffinCanCode/screentutor/internal/audio"
	"github.com/GriffinCanCode/screentutor/internal/course"
	apperrors "github.com/GriffinCanCode/screentutor/internal/errors"
	"github.com/GriffinCanCode/screentutor/internal/llm"
	"github.com/GriffinCanCode/screentutor/internal/logging"
	"github.com/GriffinCanCode/screentutor/internal/metrics"
	"github.com/GriffinCanCode/screentutor/internal/orchestrator/audio"
	"github.com/GriffinCanCode/screentutor/internal/orchestrator/screen"
	"github.com/GriffinCanCode/screentutor/internal/session"
	"github.com/GriffinCanCode/screentutor/internal/stt"
	"github.com/GriffinCanCode/screentutor/internal/trace"
	"github.com/GriffinCanCode/screentutor/internal/tts"
	"github.com/GriffinCanCode/screentutor/internal/worker"
)

// FrameSource delivers captured microphone frames.
type FrameSource interface {
	Start(ctx context.Context) error
	Output() <-chan audiocap.Frame
	Stop()
}

// Transcriber dispatches a clip to the speech-to-text providers.
type Transcriber interface {
	Transcribe(ctx context.Context, wavPath string) stt.Result
}

// Responder produces the tutoring reply.
type Responder interface {
	Respond(ctx context.Context, question, imageURL string) (llm.Answer, error)
}

// Screener grabs the current screen.
type Screener interface {
	Grab(ctx context.Context) (screen.Shot, error)
}

// Speaker synthesizes a reply to the response file.
type Speaker interface {
	Enabled() bool
	Path() string
	Speak(ctx context.Context, text string) error
}

// Recorder queues learning analytics events.
type Recorder interface {
	Record(eventType string, payload any)
}

// Submitter accepts pipeline jobs without blocking.
type Submitter interface {
	Submit(job worker.Job) (string, error)
}

// Deps are the collaborators of a Manager. Frames, Screen, Speaker and
// Analytics may be nil.
type Deps struct {
	Session   *session.Session
	Frames    FrameSource
	Detector  audio.Detector
	STT       Transcriber
	LLM       Responder
	Screen    Screener
	Speaker   Speaker
	Analytics Recorder
	Pool      Submitter
	Metrics   *metrics.Metrics
	Journal   *logging.Journal
}

// Options tune the pipeline.
type Options struct {
	SampleRate       int
	FrameDuration    time.Duration
	SilenceThreshold time.Duration
	WorkDir          string
	AudioFreshness   time.Duration
	ListeningPoll    time.Duration
}

// Outcome is what one pass through the pipeline produced.
type Outcome struct {
	Transcription  string
	Response       string
	AudioAvailable bool
}

// Manager runs the capture loop and the per-utterance pipeline.
type Manager struct {
	deps Deps
	opts Options
	proc *audio.Processor
	now  func() time.Time

	started  atomic.Bool
	stopOnce sync.Once
	stopCh   chan struct{}
	done     chan struct{}
}

// New creates a manager. Frames are segmented with deps.Detector, falling back
// to an energy detector when it is nil.
func New(deps Deps, opts Options) *Manager {
	if opts.AudioFreshness <= 0 {
		opts.AudioFreshness = AudioFreshness
	}
	if opts.WorkDir == "" {
		opts.WorkDir = "."
	}
	if opts.ListeningPoll <= 0 {
		opts.ListeningPoll = ListeningPoll
	}
	det := deps.Detector
	if det == nil {
		det = audio.NewEnergyDetector(audio.DefaultEnergyThreshold)
	}
	m := &Manager{
		deps:   deps,
		opts:   opts,
		now:    time.Now,
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
	}
	m.proc = audio.NewProcessor(det, audio.Config{
		SampleRate:       opts.SampleRate,
		FrameDuration:    opts.FrameDuration,
		SilenceThreshold: opts.SilenceThreshold,
	}, m.handleUtterance)
	return m
}

// Start opens the microphone and begins segmenting. Without a frame source
// only Process is available.
func (m *Manager) Start(ctx context.Context) error {
	if m.deps.Frames == nil {
		return nil
	}
	if err := m.deps.Frames.Start(ctx); err != nil {
		return apperrors.Wrap(err, apperrors.Unavailable, "start audio capture")
	}
	m.started.Store(true)
	go m.audioLoop(ctx)
	return nil
}

// audioLoop segments frames while listening. The capturer stops sending frames
// when listening is off, so the flag is also polled to drop a partial utterance.
func (m *Manager) audioLoop(ctx context.Context) {
	defer close(m.done)
	tick := time.NewTicker(m.opts.ListeningPoll)
	defer tick.Stop()

	listening := m.deps.Session.Listening()
	refresh := func() bool {
		now := m.deps.Session.Listening()
		if listening && !now {
			m.proc.Reset()
		}
		listening = now
		return listening
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-m.stopCh:
			return
		case <-tick.C:
			refresh()
		case frame, ok := <-m.deps.Frames.Output():
			if !ok {
				return
			}
			if !refresh() {
				continue
			}
			m.proc.ProcessFrame(ctx, frame)
		}
	}
}

// Stop halts capture and waits for the loop to exit.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() {
		close(m.stopCh)
		if m.deps.Frames != nil {
			m.deps.Frames.Stop()
		}
		if m.started.Load() {
			<-m.done
		}
		m.proc.Reset()
	})
}

// handleUtterance hands a finished utterance to the worker pool. It never runs
// the pipeline on the capture goroutine.
func (m *Manager) handleUtterance(ctx context.Context, samples []int16) {
	m.deps.Metrics.Utterance()
	log := trace.Logger(ctx)

	id := uuid.NewString()
	_, err := m.deps.Pool.Submit(worker.Job{
		ID:   id,
		Name: "utterance",
		Run: func(ctx context.Context) error {
			return m.runCaptured(ctx, id, samples)
		},
	})
	if err != nil {
		log.Warn("utterance dropped", "job_id", id, "samples", len(samples), "kind", apperrors.KindOf(err), "error", err)
		m.record(course.EventVoiceDropped, map[string]any{
			"job_id":  id,
			"samples": len(samples),
			"reason":  apperrors.KindOf(err).String(),
		})
	}
}

func (m *Manager) runCaptured(ctx context.Context, id string, samples []int16) error {
	path := filepath.Join(m.opts.WorkDir, CapturedAudioPrefix+"-"+id+".wav")
	if err := audiocap.WriteWAV(path, samples, m.opts.SampleRate); err != nil {
		return apperrors.Wrap(err, apperrors.Internal, "write captured audio")
	}
	defer os.Remove(path)

	_, err := m.Process(ctx, path)
	return err
}

// Process runs one clip through transcription, screenshot, response and speech.
// A failed transcription stops the pipeline before any screenshot or model call.
func (m *Manager) Process(ctx context.Context, wavPath string) (Outcome, error) {
	ctx, span := trace.StartSpan(ctx, "process_utterance")
	defer span.End()
	log := trace.Logger(ctx)

	end := m.deps.Session.BeginProcessing()
	defer end()

	res := m.deps.STT.Transcribe(ctx, wavPath)
	if !res.OK() {
		err := res.Err
		if err == nil {
			err = apperrors.New(apperrors.EmptyInput, "no speech recognized")
		}
		span.SetAttr("error", err.Error())
		log.Info("no transcription", "kind", apperrors.KindOf(err), "error", err)
		return Outcome{}, err
	}
	out := Outcome{Transcription: res.Text}
	span.SetAttr("stt_provider", res.Provider)
	log.Info("transcribed", "provider", res.Provider, "text", res.Text)
	m.record(course.EventVoiceQuestion, map[string]any{"text": res.Text, "provider": res.Provider})

	imageURL := m.screenshot(ctx)

	ans, err := m.deps.LLM.Respond(ctx, res.Text, imageURL)
	if err != nil {
		span.SetAttr("error", err.Error())
		log.Warn("no answer", "kind", apperrors.KindOf(err), "error", err)
		return out, err
	}
	out.Response = ans.Text
	m.deps.Session.AddExchange(res.Text, ans.Text)
	m.deps.Journal.Output("LLM Response: %s", ans.Text)
	m.record(course.EventVoiceAnswer, map[string]any{"text": ans.Text, "mode": string(ans.Mode)})

	if m.deps.Speaker != nil && m.deps.Speaker.Enabled() {
		m.speak(ctx, ans.Text)
		out.AudioAvailable = tts.Available(m.deps.Speaker.Path(), m.deps.Session.AudioAt(), m.now(), m.opts.AudioFreshness)
	}
	return out, nil
}

// screenshot returns a PNG data URL, or "" when the grab failed.
func (m *Manager) screenshot(ctx context.Context) string {
	if m.deps.Screen == nil {
		return ""
	}
	shot, err := m.deps.Screen.Grab(ctx)
	if err != nil {
		trace.Logger(ctx).Warn("screenshot failed, answering text-only", "kind", apperrors.KindOf(err), "error", err)
		m.deps.Journal.OriginError("Screenshot: capture failed: %v", err)
		return ""
	}
	m.deps.Journal.Origin("Screenshot: captured %d bytes (distance %d)", shot.Size, shot.Distance)
	return shot.DataURL()
}

func (m *Manager) speak(ctx context.Context, text string) {
	end := m.deps.Session.BeginSpeaking()
	defer end()
	if err := m.deps.Speaker.Speak(ctx, text); err != nil {
		trace.Logger(ctx).Warn("speech synthesis failed", "kind", apperrors.KindOf(err), "error", err)
	}
}

func (m *Manager) record(eventType string, payload any) {
	if m.deps.Analytics != nil {
		m.deps.Analytics.Record(eventType, payload)
	}
}
