package sarvam

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	apperrors "github.com/GriffinCanCode/screentutor/internal/errors"
)

func encodeChunk(t *testing.T, rate int, samples ...int) []byte {
	t.Helper()
	out := &memFile{}
	enc := wav.NewEncoder(out, rate, 16, 1, 1)
	buf := &goaudio.IntBuffer{Format: &goaudio.Format{NumChannels: 1, SampleRate: rate}, Data: samples, SourceBitDepth: 16}
	if err := enc.Write(buf); err != nil {
		t.Fatal(err)
	}
	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}
	return out.buf
}

func decodeSamples(t *testing.T, b []byte) (*wav.Decoder, []int) {
	t.Helper()
	dec := wav.NewDecoder(bytes.NewReader(b))
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		t.Fatalf("decode joined clip: %v", err)
	}
	return dec, buf.Data
}

func TestJoinWAV(t *testing.T) {
	got, err := joinWAV([][]byte{
		encodeChunk(t, 22050, 1, 2, 3),
		encodeChunk(t, 22050, 4, 5),
	})
	if err != nil {
		t.Fatalf("joinWAV() error = %v", err)
	}
	dec, samples := decodeSamples(t, got)
	if dec.SampleRate != 22050 || dec.NumChans != 1 || dec.BitDepth != 16 {
		t.Errorf("format = %d Hz/%d ch/%d bit", dec.SampleRate, dec.NumChans, dec.BitDepth)
	}
	if want := []int{1, 2, 3, 4, 5}; !reflect.DeepEqual(samples, want) {
		t.Errorf("samples = %v, want %v", samples, want)
	}
}

func TestJoinWAVErrors(t *testing.T) {
	tests := []struct {
		name   string
		chunks [][]byte
	}{
		{"no chunks", nil},
		{"not wav", [][]byte{[]byte("not audio at all")}},
		{"mixed rates", [][]byte{encodeChunk(t, 22050, 1), encodeChunk(t, 16000, 2)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := joinWAV(tt.chunks); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestSynthesizeJoinsChunks(t *testing.T) {
	chunks := []string{
		base64.StdEncoding.EncodeToString(encodeChunk(t, 22050, 10, 20)),
		base64.StdEncoding.EncodeToString(encodeChunk(t, 22050, 30)),
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string][]string{"audios": chunks})
	}))
	defer srv.Close()

	got, err := New(Config{APIKey: "k", BaseURL: srv.URL}).Synthesize(context.Background(), "a long answer")
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	if _, samples := decodeSamples(t, got); !reflect.DeepEqual(samples, []int{10, 20, 30}) {
		t.Errorf("samples = %v, want [10 20 30]", samples)
	}
}

func TestSynthesizeBadChunk(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"audios":["UklGRg==","%%%"]}`))
	}))
	defer srv.Close()

	_, err := New(Config{APIKey: "k", BaseURL: srv.URL}).Synthesize(context.Background(), "hello")
	if !apperrors.IsKind(err, apperrors.MalformedResponse) {
		t.Errorf("error = %v, want MalformedResponse", err)
	}
}
