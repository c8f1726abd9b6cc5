// Package config handles assistant configuration
package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr string

	// Capture and segmentation
	SampleRate           int
	FrameDuration        time.Duration
	SilenceThreshold     time.Duration
	VADEnergyThreshold   float64 // RMS over int16 samples
	InputDevice          string
	ExcludedAudioDevices []string
	ListenOnStart        bool

	// Providers
	GroqAPIKey      string
	GroqBaseURL     string
	SarvamAPIKey    string
	SarvamBaseURL   string
	ChatModel       string
	WhisperModel    string
	SarvamSTTModel  string
	TTSModel        string
	TTSSpeaker      string
	TTSLanguage     string
	Temperature     float64
	MaxTokens       int
	ProviderTimeout time.Duration

	// Pipeline
	Workers           int
	QueueSize         int
	JobTimeout        time.Duration
	WorkDir           string
	ResponseAudioPath string
	AudioFreshness    time.Duration
	ConversationLimit int

	// Storage and logs
	LogDir       string
	DatabasePath string
	UserID       string
}

func Load() *Config {
	return &Config{
		HTTPAddr:             getEnv("HTTP_ADDR", ":5000"),
		SampleRate:           getEnvInt("SAMPLE_RATE", 16000),
		FrameDuration:        getEnvDuration("FRAME_DURATION", 30*time.Millisecond),
		SilenceThreshold:     getEnvDuration("SILENCE_THRESHOLD", 700*time.Millisecond),
		VADEnergyThreshold:   getEnvFloat("VAD_ENERGY_THRESHOLD", 500),
		InputDevice:          getEnv("INPUT_DEVICE", ""),
		ExcludedAudioDevices: getEnvList("EXCLUDED_AUDIO_DEVICES", []string{"iphone", "teams"}),
		ListenOnStart:        getEnvBool("LISTEN_ON_START", false),

		GroqAPIKey:      getEnv("GROQ_API_KEY", ""),
		GroqBaseURL:     getEnv("GROQ_BASE_URL", "https://api.groq.com/openai/v1/"),
		SarvamAPIKey:    getEnv("SARVAM_API_KEY", ""),
		SarvamBaseURL:   getEnv("SARVAM_BASE_URL", "https://api.sarvam.ai"),
		ChatModel:       getEnv("CHAT_MODEL", "meta-llama/llama-4-scout-17b-16e-instruct"),
		WhisperModel:    getEnv("WHISPER_MODEL", "whisper-large-v3-turbo"),
		SarvamSTTModel:  getEnv("SARVAM_STT_MODEL", "saaras:v2.5"),
		TTSModel:        getEnv("TTS_MODEL", "bulbul:v2"),
		TTSSpeaker:      getEnv("TTS_SPEAKER", "anushka"),
		TTSLanguage:     getEnv("TTS_LANGUAGE", "en-IN"),
		Temperature:     getEnvFloat("LLM_TEMPERATURE", 0.1),
		MaxTokens:       getEnvInt("LLM_MAX_TOKENS", 150),
		ProviderTimeout: getEnvDuration("PROVIDER_TIMEOUT", 30*time.Second),

		Workers:           getEnvInt("PIPELINE_WORKERS", 2),
		QueueSize:         getEnvInt("PIPELINE_QUEUE_SIZE", 8),
		JobTimeout:        getEnvDuration("PIPELINE_JOB_TIMEOUT", 90*time.Second),
		WorkDir:           getEnv("WORK_DIR", "."),
		ResponseAudioPath: getEnv("RESPONSE_AUDIO_PATH", "response.wav"),
		AudioFreshness:    getEnvDuration("AUDIO_FRESHNESS", 60*time.Second),
		ConversationLimit: getEnvInt("CONVERSATION_LIMIT", 20),

		LogDir:       getEnv("LOG_DIR", "logs"),
		DatabasePath: getEnv("DATABASE_PATH", "screentutor.db"),
		UserID:       getEnv("USER_ID", "local"),
	}
}

// LoadEnvFile reads KEY=VALUE pairs from path into the process environment.
// Variables already set win. A missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	return nil
}

// Warn logs the provider credentials that are missing and what that disables.
func (c *Config) Warn(log *slog.Logger) {
	if c.GroqAPIKey == "" {
		log.Warn("GROQ_API_KEY not set: fallback transcription and responses unavailable")
	}
	if c.SarvamAPIKey == "" {
		log.Warn("SARVAM_API_KEY not set: primary transcription and speech disabled")
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		return v == "true" || v == "1"
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getEnvList(key string, def []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if t := strings.TrimSpace(p); t != "" {
				result = append(result, t)
			}
		}
		return result
	}
	return def
}
