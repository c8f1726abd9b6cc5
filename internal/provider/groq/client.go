// Package groq talks to Groq's OpenAI-compatible API for chat and whisper transcription.
package groq

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	apperrors "github.com/GriffinCanCode/screentutor/internal/errors"
	"github.com/GriffinCanCode/screentutor/internal/trace"
)

const (
	DefaultBaseURL      = "https://api.groq.com/openai/v1/"
	DefaultChatModel    = "meta-llama/llama-4-scout-17b-16e-instruct"
	DefaultWhisperModel = "whisper-large-v3-turbo"
	DefaultTemperature  = 0.1
	DefaultMaxTokens    = 150
)

// Config for the Groq client
type Config struct {
	APIKey       string
	BaseURL      string
	ChatModel    string
	WhisperModel string
	Temperature  float64
	MaxTokens    int
	HTTPClient   *http.Client
}

// Client wraps an openai.Client pointed at Groq. Retries are disabled: the
// pipeline owns fallback and the breaker owns backoff.
type Client struct {
	cfg Config
	oa  openai.Client
}

// New creates a Groq client.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.ChatModel == "" {
		cfg.ChatModel = DefaultChatModel
	}
	if cfg.WhisperModel == "" {
		cfg.WhisperModel = DefaultWhisperModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	return &Client{
		cfg: cfg,
		oa: openai.NewClient(
			option.WithAPIKey(cfg.APIKey),
			option.WithBaseURL(cfg.BaseURL),
			option.WithHTTPClient(trace.NewHTTPClient(cfg.HTTPClient)),
			option.WithMaxRetries(0),
		),
	}
}

// Enabled reports whether an API key is configured.
func (c *Client) Enabled() bool { return c.cfg.APIKey != "" }

// Name identifies the provider in logs and metrics.
func (c *Client) Name() string { return "groq" }

// Model returns the chat model name.
func (c *Client) Model() string { return c.cfg.ChatModel }

// Transcribe sends a WAV clip to whisper and returns the text.
func (c *Client) Transcribe(ctx context.Context, wavPath string) (string, error) {
	if !c.Enabled() {
		return "", apperrors.New(apperrors.Unavailable, "groq api key not configured")
	}
	f, err := os.Open(wavPath)
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.InvalidArgument, "open audio")
	}
	defer f.Close()

	resp, err := c.oa.Audio.Transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
		File:  openai.File(f, filepath.Base(wavPath), "audio/wav"),
		Model: openai.AudioModel(c.cfg.WhisperModel),
	})
	if err != nil {
		return "", classify(err, "groq transcription failed")
	}
	return strings.TrimSpace(resp.Text), nil
}

// Complete runs one chat completion. imageURL is an optional data URL sent
// alongside the text.
func (c *Client) Complete(ctx context.Context, system, text, imageURL string) (string, error) {
	if !c.Enabled() {
		return "", apperrors.New(apperrors.Unavailable, "groq api key not configured")
	}

	user := openai.UserMessage(text)
	if imageURL != "" {
		user = openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
			openai.TextContentPart(text),
			openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{URL: imageURL}),
		})
	}

	resp, err := c.oa.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			user,
		},
		Model:       openai.ChatModel(c.cfg.ChatModel),
		Temperature: openai.Float(c.cfg.Temperature),
		MaxTokens:   openai.Int(int64(c.cfg.MaxTokens)),
	})
	if err != nil {
		return "", classify(err, "groq chat completion failed")
	}
	if len(resp.Choices) == 0 {
		return "", apperrors.New(apperrors.MalformedResponse, "no choices in response")
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", apperrors.New(apperrors.MalformedResponse, "empty content in response")
	}
	return content, nil
}

// classify maps SDK errors onto error kinds.
func classify(err error, msg string) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apperrors.FromHTTPStatus(apiErr.StatusCode, msg+": "+apiErr.Message)
	}
	return apperrors.FromTransport(err, msg)
}
