// Package stt transcribes utterances with a primary provider and a single fallback.
package stt

import (
	"context"
	"time"

	apperrors "github.com/GriffinCanCode/screentutor/internal/errors"
	"github.com/GriffinCanCode/screentutor/internal/logging"
	"github.com/GriffinCanCode/screentutor/internal/metrics"
	"github.com/GriffinCanCode/screentutor/internal/resilience"
	"github.com/GriffinCanCode/screentutor/internal/trace"
)

// Transcriber turns a WAV file into text.
type Transcriber interface {
	Name() string
	Enabled() bool
	Transcribe(ctx context.Context, wavPath string) (string, error)
}

// Result of one dispatch. Err is set when no provider produced text.
type Result struct {
	Text     string
	Provider string
	Err      error
}

// OK reports whether a transcript was produced.
func (r Result) OK() bool { return r.Err == nil && r.Text != "" }

// Kind returns the failure kind, or Unknown on success.
func (r Result) Kind() apperrors.Kind { return apperrors.KindOf(r.Err) }

type provider struct {
	t  Transcriber
	br *resilience.Breaker
}

// Dispatcher tries providers in order, each once.
type Dispatcher struct {
	providers []provider
	metrics   *metrics.Metrics
	journal   *logging.Journal
}

// NewDispatcher creates a dispatcher over the given providers in priority order.
// Each provider gets its own breaker built from brCfg.
func NewDispatcher(brCfg resilience.Config, m *metrics.Metrics, j *logging.Journal, ts ...Transcriber) *Dispatcher {
	d := &Dispatcher{metrics: m, journal: j}
	for _, t := range ts {
		br := resilience.New("stt_"+t.Name(), brCfg).WithHook(func(name string, _, to resilience.State) {
			m.Breaker(name, uint32(to))
		})
		d.providers = append(d.providers, provider{t: t, br: br})
	}
	return d
}

// Transcribe returns the first non-empty transcript. A disabled or open-circuit
// provider is skipped; an error or empty text falls through to the next one.
func (d *Dispatcher) Transcribe(ctx context.Context, wavPath string) Result {
	ctx, span := trace.StartSpan(ctx, "stt_dispatch")
	defer span.End()
	defer d.metrics.Stage("transcribe", time.Now())
	log := trace.Logger(ctx)

	var lastErr error
	for _, p := range d.providers {
		name := p.t.Name()
		if !p.t.Enabled() {
			if lastErr == nil {
				lastErr = apperrors.Newf(apperrors.Unavailable, "%s not configured", name)
			}
			continue
		}

		text, err := resilience.ExecuteWithResult(p.br, func() (string, error) {
			text, err := p.t.Transcribe(ctx, wavPath)
			if err == nil && text == "" {
				err = apperrors.Newf(apperrors.EmptyInput, "%s returned empty transcript", name)
			}
			return text, err
		})
		d.metrics.STT(name, err)

		if err == nil {
			span.SetAttr("provider", name)
			d.journal.Input("Transcription: %s", text)
			d.journal.Origin("STT: %s processed audio file %s to text", name, wavPath)
			return Result{Text: text, Provider: name}
		}

		lastErr = err
		d.journal.OriginError("STT Error: %s failed to process %s: %v", name, wavPath, err)
		log.Warn("transcription failed, trying next provider", "provider", name, "kind", apperrors.KindOf(err), "error", err)

		// Nothing left to try once the job itself is out of time.
		if ctx.Err() != nil {
			break
		}
	}

	if lastErr == nil {
		lastErr = apperrors.New(apperrors.Unavailable, "no transcription provider configured")
	}
	span.SetAttr("error", lastErr.Error())
	return Result{Err: lastErr}
}
