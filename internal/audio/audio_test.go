package audio

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gordonklaus/portaudio"
)

func TestFrameSamples(t *testing.T) {
	cfg := CaptureConfig{SampleRate: 16000, FrameDuration: 30 * time.Millisecond}
	if got := cfg.FrameSamples(); got != 480 {
		t.Errorf("FrameSamples() = %d, want 480", got)
	}
}

func TestFrameBytes(t *testing.T) {
	f := Frame{Samples: []int16{1, -1, 256}}
	got := f.Bytes()
	want := []byte{0x01, 0x00, 0xFF, 0xFF, 0x00, 0x01}
	if string(got) != string(want) {
		t.Errorf("Bytes() = %v, want %v", got, want)
	}
}

func TestPickDevice(t *testing.T) {
	devices := []*portaudio.DeviceInfo{
		{Name: "HDMI Output", MaxInputChannels: 0},
		{Name: "Teams Audio", MaxInputChannels: 2},
		{Name: "USB Headset", MaxInputChannels: 1},
		{Name: "MacBook Pro Microphone", MaxInputChannels: 1},
	}

	tests := []struct {
		name     string
		want     string
		excluded []string
		expected string
	}{
		{"prefers built-in mic", "", []string{"teams"}, "MacBook Pro Microphone"},
		{"configured name wins", "usb", nil, "USB Headset"},
		{"configured name is case-insensitive", "TEAMS", nil, "Teams Audio"},
		{"configured but excluded", "teams", []string{"teams"}, ""},
		{"output-only never chosen", "hdmi", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := pickDevice(devices, tt.want, tt.excluded)
			name := ""
			if got != nil {
				name = got.Name
			}
			if name != tt.expected {
				t.Errorf("pickDevice(%q) = %q, want %q", tt.want, name, tt.expected)
			}
		})
	}
}

func TestWriteAndProbeWAV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "captured_audio.wav")
	samples := make([]int16, 16000) // one second
	for i := range samples {
		samples[i] = int16(i % 200)
	}

	if err := WriteWAV(path, samples, 16000); err != nil {
		t.Fatalf("WriteWAV() error = %v", err)
	}

	st, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if st.Size() != 44+int64(len(samples)*2) {
		t.Errorf("file size = %d, want %d", st.Size(), 44+len(samples)*2)
	}

	info, err := ProbeWAV(path)
	if err != nil {
		t.Fatalf("ProbeWAV() error = %v", err)
	}
	if info.SampleRate != 16000 || info.Channels != 1 || info.BitDepth != 16 {
		t.Errorf("info = %+v, want 16000Hz mono 16-bit", info)
	}
	if info.Duration != time.Second {
		t.Errorf("Duration = %v, want 1s", info.Duration)
	}
}

func TestProbeWAVRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "upload.webm")
	if err := os.WriteFile(path, []byte("definitely not riff"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := ProbeWAV(path); err == nil {
		t.Error("ProbeWAV() should fail for non-wav data")
	}
}
