package stt

import (
	"context"
	"errors"
	"testing"

	apperrors "github.com/GriffinCanCode/screentutor/internal/errors"
	"github.com/GriffinCanCode/screentutor/internal/resilience"
)

type mockTranscriber struct {
	name    string
	enabled bool
	text    string
	err     error
	calls   int
}

func (m *mockTranscriber) Name() string  { return m.name }
func (m *mockTranscriber) Enabled() bool { return m.enabled }
func (m *mockTranscriber) Transcribe(_ context.Context, _ string) (string, error) {
	m.calls++
	return m.text, m.err
}

func newDispatcher(ts ...Transcriber) *Dispatcher {
	return NewDispatcher(resilience.DefaultConfig(), nil, nil, ts...)
}

func TestDispatcherFallback(t *testing.T) {
	tests := []struct {
		name         string
		a, b         *mockTranscriber
		wantText     string
		wantProvider string
		wantKind     apperrors.Kind
		wantACalls   int
		wantBCalls   int
	}{
		{
			name:       "primary succeeds",
			a:          &mockTranscriber{name: "sarvam", enabled: true, text: "hello"},
			b:          &mockTranscriber{name: "groq", enabled: true, text: "unused"},
			wantText:   "hello", wantProvider: "sarvam", wantACalls: 1, wantBCalls: 0,
		},
		{
			name:       "primary errors",
			a:          &mockTranscriber{name: "sarvam", enabled: true, err: apperrors.New(apperrors.ProviderFailed, "502")},
			b:          &mockTranscriber{name: "groq", enabled: true, text: "fallback"},
			wantText:   "fallback", wantProvider: "groq", wantACalls: 1, wantBCalls: 1,
		},
		{
			name:       "primary empty",
			a:          &mockTranscriber{name: "sarvam", enabled: true, text: ""},
			b:          &mockTranscriber{name: "groq", enabled: true, text: "fallback"},
			wantText:   "fallback", wantProvider: "groq", wantACalls: 1, wantBCalls: 1,
		},
		{
			name:       "primary not configured",
			a:          &mockTranscriber{name: "sarvam"},
			b:          &mockTranscriber{name: "groq", enabled: true, text: "only groq"},
			wantText:   "only groq", wantProvider: "groq", wantACalls: 0, wantBCalls: 1,
		},
		{
			name:       "both fail",
			a:          &mockTranscriber{name: "sarvam", enabled: true, err: errors.New("boom")},
			b:          &mockTranscriber{name: "groq", enabled: true, err: apperrors.New(apperrors.RateLimited, "429")},
			wantKind:   apperrors.RateLimited, wantACalls: 1, wantBCalls: 1,
		},
		{
			name:       "both silent",
			a:          &mockTranscriber{name: "sarvam", enabled: true},
			b:          &mockTranscriber{name: "groq", enabled: true},
			wantKind:   apperrors.EmptyInput, wantACalls: 1, wantBCalls: 1,
		},
		{
			name:       "nothing configured",
			a:          &mockTranscriber{name: "sarvam"},
			b:          &mockTranscriber{name: "groq"},
			wantKind:   apperrors.Unavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := newDispatcher(tt.a, tt.b).Transcribe(context.Background(), "captured_audio.wav")

			if tt.wantText != "" {
				if !res.OK() || res.Text != tt.wantText || res.Provider != tt.wantProvider {
					t.Errorf("result = %+v, want %q from %s", res, tt.wantText, tt.wantProvider)
				}
			} else {
				if res.OK() {
					t.Fatalf("result = %+v, want failure", res)
				}
				if res.Kind() != tt.wantKind {
					t.Errorf("Kind() = %v, want %v", res.Kind(), tt.wantKind)
				}
			}
			if tt.a.calls != tt.wantACalls || tt.b.calls != tt.wantBCalls {
				t.Errorf("calls = %d/%d, want %d/%d", tt.a.calls, tt.b.calls, tt.wantACalls, tt.wantBCalls)
			}
		})
	}
}

func TestDispatcherSkipsOpenBreaker(t *testing.T) {
	a := &mockTranscriber{name: "sarvam", enabled: true, err: apperrors.New(apperrors.ProviderFailed, "down")}
	b := &mockTranscriber{name: "groq", enabled: true, text: "ok"}
	cfg := resilience.DefaultConfig()
	cfg.Threshold = 2
	d := NewDispatcher(cfg, nil, nil, a, b)

	for i := 0; i < 3; i++ {
		if res := d.Transcribe(context.Background(), "x.wav"); !res.OK() {
			t.Fatalf("call %d failed: %v", i, res.Err)
		}
	}
	if a.calls != 2 {
		t.Errorf("primary calls = %d, want 2 before the breaker opened", a.calls)
	}
}

func TestDispatcherEmptyDoesNotTripBreaker(t *testing.T) {
	a := &mockTranscriber{name: "sarvam", enabled: true}
	cfg := resilience.DefaultConfig()
	cfg.Threshold = 1
	d := NewDispatcher(cfg, nil, nil, a)

	d.Transcribe(context.Background(), "x.wav")
	d.Transcribe(context.Background(), "x.wav")
	if a.calls != 2 {
		t.Errorf("calls = %d, want 2 (silence is not a provider fault)", a.calls)
	}
}

func TestDispatcherStopsWhenContextDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	a := &mockTranscriber{name: "sarvam", enabled: true, err: context.Canceled}
	b := &mockTranscriber{name: "groq", enabled: true, text: "late"}

	res := newDispatcher(a, b).Transcribe(ctx, "x.wav")
	if res.Kind() != apperrors.Cancelled {
		t.Errorf("Kind() = %v, want Cancelled", res.Kind())
	}
	if b.calls != 0 {
		t.Error("fallback should not run after cancellation")
	}
}
