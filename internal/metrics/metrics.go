// Package metrics exposes pipeline counters and latencies for Prometheus.
package metrics

import (
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	apperrors "github.com/GriffinCanCode/screentutor/internal/errors"
)

const namespace = "screentutor"

// Metrics holds all collectors. A nil *Metrics records nothing.
type Metrics struct {
	gatherer prometheus.Gatherer

	utterances   prometheus.Counter
	jobsDropped  prometheus.Counter
	queueDepth   prometheus.Gauge
	sttRequests  *prometheus.CounterVec
	llmRequests  *prometheus.CounterVec
	ttsRequests  *prometheus.CounterVec
	stageLatency *prometheus.HistogramVec
	breakerState *prometheus.GaugeVec
}

// New registers the collectors with reg. Pass prometheus.NewRegistry() in tests.
func New(reg *prometheus.Registry) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		gatherer: reg,
		utterances: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "utterances_total",
			Help:      "Utterances emitted by the segmenter.",
		}),
		jobsDropped: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_dropped_total",
			Help:      "Utterance jobs dropped because the queue was full.",
		}),
		queueDepth: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "queue_depth",
			Help:      "Utterance jobs waiting for a worker.",
		}),
		sttRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stt_requests_total",
			Help:      "Transcription attempts by provider and outcome.",
		}, []string{"provider", "outcome"}),
		llmRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_requests_total",
			Help:      "Chat completion attempts by mode and outcome.",
		}, []string{"mode", "outcome"}),
		ttsRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tts_requests_total",
			Help:      "Speech synthesis attempts by outcome.",
		}, []string{"outcome"}),
		stageLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Latency of each pipeline stage.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 4, 8, 16, 32},
		}, []string{"stage"}),
		breakerState: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "breaker_state",
			Help:      "Circuit breaker state per provider (0 closed, 1 open, 2 half-open).",
		}, []string{"breaker"}),
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// Outcome turns an error into a low-cardinality label value.
func Outcome(err error) string {
	if err == nil {
		return "ok"
	}
	return strings.ToLower(apperrors.KindOf(err).String())
}

func (m *Metrics) Utterance() {
	if m != nil {
		m.utterances.Inc()
	}
}

func (m *Metrics) JobDropped() {
	if m != nil {
		m.jobsDropped.Inc()
	}
}

func (m *Metrics) QueueDepth(n int) {
	if m != nil {
		m.queueDepth.Set(float64(n))
	}
}

func (m *Metrics) STT(provider string, err error) {
	if m != nil {
		m.sttRequests.WithLabelValues(provider, Outcome(err)).Inc()
	}
}

func (m *Metrics) LLM(mode string, err error) {
	if m != nil {
		m.llmRequests.WithLabelValues(mode, Outcome(err)).Inc()
	}
}

func (m *Metrics) TTS(err error) {
	if m != nil {
		m.ttsRequests.WithLabelValues(Outcome(err)).Inc()
	}
}

// Stage observes the time since start for a pipeline stage.
func (m *Metrics) Stage(stage string, start time.Time) {
	if m != nil {
		m.stageLatency.WithLabelValues(stage).Observe(time.Since(start).Seconds())
	}
}

// Breaker records a breaker transition; the value is the resilience.State ordinal.
func (m *Metrics) Breaker(name string, state uint32) {
	if m != nil {
		m.breakerState.WithLabelValues(name).Set(float64(state))
	}
}
