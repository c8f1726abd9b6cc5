// Package sarvam is a minimal client for Sarvam's speech-to-text-translate and
// text-to-speech endpoints.
package sarvam

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	apperrors "github.com/GriffinCanCode/screentutor/internal/errors"
	"github.com/GriffinCanCode/screentutor/internal/trace"
)

const (
	DefaultBaseURL  = "https://api.sarvam.ai"
	DefaultSTTModel = "saaras:v2.5"
	DefaultTTSModel = "bulbul:v2"
	DefaultSpeaker  = "anushka"
	DefaultLanguage = "en-IN"

	sttPath = "/speech-to-text-translate"
	ttsPath = "/text-to-speech"

	authHeader   = "api-subscription-key"
	maxErrorBody = 512
)

// Config for the Sarvam client
type Config struct {
	APIKey     string
	BaseURL    string
	STTModel   string
	TTSModel   string
	Speaker    string
	Language   string
	HTTPClient *http.Client
}

// Client calls Sarvam over HTTPS. A client without an API key fails every
// call with kind Unavailable.
type Client struct {
	cfg  Config
	http *http.Client
}

// New creates a Sarvam client.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.STTModel == "" {
		cfg.STTModel = DefaultSTTModel
	}
	if cfg.TTSModel == "" {
		cfg.TTSModel = DefaultTTSModel
	}
	if cfg.Speaker == "" {
		cfg.Speaker = DefaultSpeaker
	}
	if cfg.Language == "" {
		cfg.Language = DefaultLanguage
	}
	return &Client{cfg: cfg, http: trace.NewHTTPClient(cfg.HTTPClient)}
}

// Enabled reports whether an API key is configured.
func (c *Client) Enabled() bool { return c.cfg.APIKey != "" }

// Name identifies the provider in logs and metrics.
func (c *Client) Name() string { return "sarvam" }

type sttResponse struct {
	Transcript   string `json:"transcript"`
	LanguageCode string `json:"language_code"`
}

// Transcribe uploads a WAV clip and returns the English transcript.
func (c *Client) Transcribe(ctx context.Context, wavPath string) (string, error) {
	if !c.Enabled() {
		return "", apperrors.New(apperrors.Unavailable, "sarvam api key not configured")
	}

	f, err := os.Open(wavPath)
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.InvalidArgument, "open audio")
	}
	defer f.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filepath.Base(wavPath))
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.Internal, "build multipart")
	}
	if _, err := io.Copy(part, f); err != nil {
		return "", apperrors.Wrap(err, apperrors.Internal, "read audio")
	}
	if err := mw.WriteField("model", c.cfg.STTModel); err != nil {
		return "", apperrors.Wrap(err, apperrors.Internal, "build multipart")
	}
	if err := mw.Close(); err != nil {
		return "", apperrors.Wrap(err, apperrors.Internal, "build multipart")
	}

	var out sttResponse
	if err := c.do(ctx, sttPath, mw.FormDataContentType(), &body, &out); err != nil {
		return "", err
	}
	return strings.TrimSpace(out.Transcript), nil
}

type ttsRequest struct {
	Text               string `json:"text"`
	TargetLanguageCode string `json:"target_language_code"`
	Speaker            string `json:"speaker"`
	Model              string `json:"model"`
}

type ttsResponse struct {
	Audios []string `json:"audios"`
}

// Synthesize converts text to WAV bytes.
func (c *Client) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if !c.Enabled() {
		return nil, apperrors.New(apperrors.Unavailable, "sarvam api key not configured")
	}

	payload, err := json.Marshal(ttsRequest{
		Text:               text,
		TargetLanguageCode: c.cfg.Language,
		Speaker:            c.cfg.Speaker,
		Model:              c.cfg.TTSModel,
	})
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.Internal, "encode tts request")
	}

	var out ttsResponse
	if err := c.do(ctx, ttsPath, "application/json", bytes.NewReader(payload), &out); err != nil {
		return nil, err
	}
	if len(out.Audios) == 0 || out.Audios[0] == "" {
		return nil, apperrors.New(apperrors.MalformedResponse, "tts response has no audio")
	}

	chunks := make([][]byte, 0, len(out.Audios))
	for _, a := range out.Audios {
		b, err := base64.StdEncoding.DecodeString(a)
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.MalformedResponse, "decode tts audio")
		}
		chunks = append(chunks, b)
	}
	if len(chunks) == 1 {
		return chunks[0], nil
	}
	// Long inputs come back as one WAV per chunk.
	audio, err := joinWAV(chunks)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.MalformedResponse, "join tts chunks")
	}
	trace.Logger(ctx).Debug("joined tts chunks", "chunks", len(chunks), "bytes", len(audio))
	return audio, nil
}

func (c *Client) do(ctx context.Context, path, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, body)
	if err != nil {
		return apperrors.Wrap(err, apperrors.Internal, "build request")
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set(authHeader, c.cfg.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return apperrors.FromTransport(err, "sarvam request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return apperrors.FromHTTPStatus(resp.StatusCode, "sarvam "+strings.TrimPrefix(path, "/")+": "+strings.TrimSpace(string(snippet)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperrors.Wrap(err, apperrors.MalformedResponse, "decode sarvam response")
	}
	return nil
}
