package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	apperrors "github.com/GriffinCanCode/screentutor/internal/errors"
)

func TestOutcome(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, "ok"},
		{apperrors.New(apperrors.EmptyInput, "x"), "empty_input"},
		{apperrors.New(apperrors.RateLimited, "x"), "rate_limited"},
		{errors.New("plain"), "unknown"},
	}
	for _, tt := range tests {
		if got := Outcome(tt.err); got != tt.want {
			t.Errorf("Outcome(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestHandlerExposesCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.Utterance()
	m.STT("sarvam", nil)
	m.STT("groq", apperrors.New(apperrors.ProviderFailed, "502"))
	m.LLM("text_image", nil)
	m.TTS(nil)
	m.JobDropped()
	m.QueueDepth(3)
	m.Stage("transcribe", time.Now().Add(-time.Second))
	m.Breaker("sarvam", 1)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))
	body := rec.Body.String()

	for _, want := range []string{
		"screentutor_utterances_total 1",
		`screentutor_stt_requests_total{outcome="ok",provider="sarvam"} 1`,
		`screentutor_stt_requests_total{outcome="provider_failed",provider="groq"} 1`,
		`screentutor_llm_requests_total{mode="text_image",outcome="ok"} 1`,
		"screentutor_jobs_dropped_total 1",
		"screentutor_queue_depth 3",
		`screentutor_breaker_state{breaker="sarvam"} 1`,
		`screentutor_stage_duration_seconds_count{stage="transcribe"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.Utterance()
	m.STT("sarvam", nil)
	m.LLM("text_only", nil)
	m.TTS(nil)
	m.JobDropped()
	m.QueueDepth(1)
	m.Stage("speak", time.Now())
	m.Breaker("groq", 0)
}
