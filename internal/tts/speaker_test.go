package tts

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	apperrors "github.com/GriffinCanCode/screentutor/internal/errors"
	"github.com/GriffinCanCode/screentutor/internal/resilience"
)

type mockSynth struct {
	enabled bool
	audio   []byte
	err     error
	got     []string
}

func (m *mockSynth) Name() string  { return "sarvam" }
func (m *mockSynth) Enabled() bool { return m.enabled }
func (m *mockSynth) Synthesize(_ context.Context, text string) ([]byte, error) {
	m.got = append(m.got, text)
	return m.audio, m.err
}

func TestPrepareText(t *testing.T) {
	long := strings.Repeat("a", 501)
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{"empty", "", "", true},
		{"whitespace", "  \n\t ", "", true},
		{"trimmed", "  hello  ", "hello", false},
		{"exactly max", strings.Repeat("b", 500), strings.Repeat("b", 500), false},
		{"over max", long, strings.Repeat("a", 500) + "...", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PrepareText(tt.in)
			if tt.wantErr {
				if !apperrors.IsKind(err, apperrors.EmptyInput) {
					t.Errorf("PrepareText() error = %v, want EmptyInput", err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("PrepareText() = %d chars, %v", len(got), err)
			}
		})
	}
}

func TestSpeakWritesFileAndRecordsTime(t *testing.T) {
	path := filepath.Join(t.TempDir(), "response.wav")
	synth := &mockSynth{enabled: true, audio: []byte("RIFFwav")}
	var spoken time.Time
	s := NewSpeaker(synth, path, resilience.DefaultConfig(), func(at time.Time) { spoken = at }, nil, nil)
	fixed := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	if err := s.Speak(context.Background(), "  Nice work.  "); err != nil {
		t.Fatalf("Speak() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "RIFFwav" {
		t.Fatalf("response file = %q, %v", data, err)
	}
	if !spoken.Equal(fixed) {
		t.Errorf("onSpoken at %v, want %v", spoken, fixed)
	}
	if synth.got[0] != "Nice work." {
		t.Errorf("synthesized %q", synth.got[0])
	}
	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("dir has %d entries, want only response.wav", len(entries))
	}
}

func TestSpeakEmptyNeverCallsProvider(t *testing.T) {
	synth := &mockSynth{enabled: true}
	s := NewSpeaker(synth, filepath.Join(t.TempDir(), "r.wav"), resilience.DefaultConfig(), nil, nil, nil)
	if err := s.Speak(context.Background(), "   "); !apperrors.IsKind(err, apperrors.EmptyInput) {
		t.Errorf("Speak() error = %v, want EmptyInput", err)
	}
	if len(synth.got) != 0 {
		t.Error("provider should not be called for empty text")
	}
}

func TestSpeakFailureKeepsOldFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "response.wav")
	if err := os.WriteFile(path, []byte("old"), 0o600); err != nil {
		t.Fatal(err)
	}
	called := false
	synth := &mockSynth{enabled: true, err: apperrors.New(apperrors.ProviderFailed, "500")}
	s := NewSpeaker(synth, path, resilience.DefaultConfig(), func(time.Time) { called = true }, nil, nil)

	if err := s.Speak(context.Background(), "hi"); !apperrors.IsKind(err, apperrors.ProviderFailed) {
		t.Errorf("Speak() error = %v", err)
	}
	if called {
		t.Error("onSpoken should not fire on failure")
	}
	if data, _ := os.ReadFile(path); string(data) != "old" {
		t.Errorf("file = %q, want untouched", data)
	}
	if len(synth.got) != 1 {
		t.Errorf("attempts = %d, want a single attempt", len(synth.got))
	}
}

func TestAvailable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "response.wav")
	now := time.Now()

	if Available(path, now, now, time.Minute) {
		t.Error("missing file should not be available")
	}
	if err := os.WriteFile(path, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"never spoken", time.Time{}, false},
		{"fresh", now.Add(-10 * time.Second), true},
		{"just under", now.Add(-59 * time.Second), true},
		{"exactly window", now.Add(-60 * time.Second), false},
		{"stale", now.Add(-2 * time.Minute), false},
	}
	for _, tt := range tests {
		if got := Available(path, tt.at, now, 60*time.Second); got != tt.want {
			t.Errorf("%s: Available() = %v, want %v", tt.name, got, tt.want)
		}
	}
}
