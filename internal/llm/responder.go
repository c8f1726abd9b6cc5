// Package llm produces the spoken answer for a transcribed question.
package llm

import (
	"context"
	"time"

	apperrors "github.com/GriffinCanCode/screentutor/internal/errors"
	"github.com/GriffinCanCode/screentutor/internal/logging"
	"github.com/GriffinCanCode/screentutor/internal/metrics"
	"github.com/GriffinCanCode/screentutor/internal/resilience"
	"github.com/GriffinCanCode/screentutor/internal/trace"
)

// Mode labels which attempt produced an answer.
type Mode string

const (
	ModeTextImage Mode = "text_image"
	ModeTextOnly  Mode = "text_only"
)

// Completer runs one chat completion. imageURL may be empty.
type Completer interface {
	Name() string
	Model() string
	Complete(ctx context.Context, system, text, imageURL string) (string, error)
}

// Answer is a model reply and the attempt that produced it.
type Answer struct {
	Text string
	Mode Mode
}

// Responder asks the model once with the screenshot and once more text-only.
type Responder struct {
	model   Completer
	br      *resilience.Breaker
	metrics *metrics.Metrics
	journal *logging.Journal
}

// NewResponder creates a responder guarded by one breaker.
func NewResponder(model Completer, brCfg resilience.Config, m *metrics.Metrics, j *logging.Journal) *Responder {
	br := resilience.New("llm_"+model.Name(), brCfg).WithHook(func(name string, _, to resilience.State) {
		m.Breaker(name, uint32(to))
	})
	return &Responder{model: model, br: br, metrics: m, journal: j}
}

// Respond answers question. imageURL is a PNG data URL or empty when the
// screenshot failed; the first attempt then goes out text-only with the
// tutoring prompt. Any failure triggers one text-only retry with the help prompt.
func (r *Responder) Respond(ctx context.Context, question, imageURL string) (Answer, error) {
	ctx, span := trace.StartSpan(ctx, "llm_respond")
	defer span.End()
	defer r.metrics.Stage("respond", time.Now())
	log := trace.Logger(ctx)

	if question == "" {
		return Answer{}, apperrors.New(apperrors.EmptyInput, "empty question")
	}

	first := ModeTextImage
	if imageURL == "" {
		first = ModeTextOnly
	}
	text, err := r.complete(ctx, PromptTeach, question, imageURL)
	r.metrics.LLM(string(first), err)
	if err == nil {
		r.journal.Origin("LLM: %s processed %s query with model %s", r.model.Name(), describe(first), r.model.Model())
		span.SetAttr("mode", string(first))
		return Answer{Text: text, Mode: first}, nil
	}

	if ctx.Err() != nil {
		return Answer{}, err
	}
	log.Warn("enhanced input failed, falling back to text-only", "kind", apperrors.KindOf(err), "error", err)
	r.journal.Origin("LLM Error: Enhanced input failed, falling back to text-only: %v", err)

	text, err = r.complete(ctx, PromptHelp, question, "")
	r.metrics.LLM(string(ModeTextOnly), err)
	if err != nil {
		span.SetAttr("error", err.Error())
		r.journal.OriginError("LLM Error: text-only fallback failed: %v", err)
		return Answer{}, err
	}
	r.journal.Origin("LLM: %s processed text-only query with model %s", r.model.Name(), r.model.Model())
	span.SetAttr("mode", string(ModeTextOnly))
	return Answer{Text: text, Mode: ModeTextOnly}, nil
}

func (r *Responder) complete(ctx context.Context, system, text, imageURL string) (string, error) {
	return resilience.ExecuteWithResult(r.br, func() (string, error) {
		return r.model.Complete(ctx, system, text, imageURL)
	})
}

func describe(m Mode) string {
	if m == ModeTextImage {
		return "text+image"
	}
	return "text-only"
}
