// Screen tutor server - listens to the microphone, answers questions about the screen and serves the status page
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	flag "github.com/spf13/pflag"

	audiocap "github.com/GriffinCanCode/screentutor/internal/audio"
	"github.com/GriffinCanCode/screentutor/internal/config"
	"github.com/GriffinCanCode/screentutor/internal/course"
	"github.com/GriffinCanCode/screentutor/internal/llm"
	"github.com/GriffinCanCode/screentutor/internal/logging"
	"github.com/GriffinCanCode/screentutor/internal/metrics"
	"github.com/GriffinCanCode/screentutor/internal/orchestrator"
	"github.com/GriffinCanCode/screentutor/internal/orchestrator/analytics"
	"github.com/GriffinCanCode/screentutor/internal/orchestrator/audio"
	"github.com/GriffinCanCode/screentutor/internal/orchestrator/screen"
	"github.com/GriffinCanCode/screentutor/internal/provider/groq"
	"github.com/GriffinCanCode/screentutor/internal/provider/sarvam"
	"github.com/GriffinCanCode/screentutor/internal/resilience"
	screencap "github.com/GriffinCanCode/screentutor/internal/screen"
	"github.com/GriffinCanCode/screentutor/internal/server"
	"github.com/GriffinCanCode/screentutor/internal/session"
	"github.com/GriffinCanCode/screentutor/internal/stt"
	"github.com/GriffinCanCode/screentutor/internal/tts"
	"github.com/GriffinCanCode/screentutor/internal/worker"
)

func main() {
	envFile := flag.String("env-file", ".env", "dotenv file loaded before reading the environment")
	addr := flag.String("addr", "", "HTTP listen address (overrides HTTP_ADDR)")
	level := flag.String("log", "info", "console log level: debug, info, warn, error")
	color := flag.Bool("color", true, "colorize console logs")
	listen := flag.Bool("listen", false, "start with the microphone listening")
	noMic := flag.Bool("no-mic", false, "serve /process-audio only, without opening the microphone")
	flag.Parse()

	logger := logging.NewConsole(os.Stderr, *level, *color)
	slog.SetDefault(logger)

	if err := config.LoadEnvFile(*envFile); err != nil {
		slog.Warn("failed to load env file", "path", *envFile, "error", err)
	}
	cfg := config.Load()
	if *addr != "" {
		cfg.HTTPAddr = *addr
	}
	if *listen {
		cfg.ListenOnStart = true
	}
	cfg.Warn(logger)

	if err := run(cfg, *noMic); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, noMic bool) error {
	if err := os.MkdirAll(cfg.WorkDir, 0o755); err != nil {
		return err
	}

	journal, err := logging.OpenJournal(cfg.LogDir)
	if err != nil {
		slog.Warn("category logs disabled", "dir", cfg.LogDir, "error", err)
	}
	defer func() { _ = journal.Close() }()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	store, err := course.Open(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()
	batcher := analytics.NewBatcher(store, cfg.UserID, analytics.DefaultMaxSize, analytics.DefaultFlushDelay)
	defer batcher.Stop()

	httpClient := &http.Client{Timeout: cfg.ProviderTimeout}
	sv := sarvam.New(sarvam.Config{
		APIKey:     cfg.SarvamAPIKey,
		BaseURL:    cfg.SarvamBaseURL,
		STTModel:   cfg.SarvamSTTModel,
		TTSModel:   cfg.TTSModel,
		Speaker:    cfg.TTSSpeaker,
		Language:   cfg.TTSLanguage,
		HTTPClient: httpClient,
	})
	gq := groq.New(groq.Config{
		APIKey:       cfg.GroqAPIKey,
		BaseURL:      cfg.GroqBaseURL,
		ChatModel:    cfg.ChatModel,
		WhisperModel: cfg.WhisperModel,
		Temperature:  cfg.Temperature,
		MaxTokens:    cfg.MaxTokens,
		HTTPClient:   httpClient,
	})

	brCfg := resilience.DefaultConfig()
	sess := session.New(cfg.ConversationLimit, session.DefaultEventBuffer, cfg.ListenOnStart)
	audioPath := cfg.ResponseAudioPath
	if !filepath.IsAbs(audioPath) {
		audioPath = filepath.Join(cfg.WorkDir, audioPath)
	}

	shots := screen.NewProcessor(screencap.New())
	defer shots.Close()

	pool := worker.New(cfg.Workers, cfg.QueueSize, cfg.JobTimeout, m)

	deps := orchestrator.Deps{
		Session:   sess,
		Detector:  audio.NewEnergyDetector(cfg.VADEnergyThreshold),
		STT:       stt.NewDispatcher(brCfg, m, journal, sv, gq),
		LLM:       llm.NewResponder(gq, brCfg, m, journal),
		Screen:    shots,
		Speaker:   tts.NewSpeaker(sv, audioPath, brCfg, sess.SetAudio, m, journal),
		Analytics: batcher,
		Pool:      pool,
		Metrics:   m,
		Journal:   journal,
	}
	if !noMic {
		mic, err := audiocap.NewCapturer(audiocap.CaptureConfig{
			SampleRate:    cfg.SampleRate,
			FrameDuration: cfg.FrameDuration,
			Device:        cfg.InputDevice,
			Excluded:      cfg.ExcludedAudioDevices,
		}, sess.Listening)
		if err != nil {
			slog.Warn("microphone unavailable, serving uploads only", "error", err)
		} else {
			deps.Frames = mic
		}
	}

	orch := orchestrator.New(deps, orchestrator.Options{
		SampleRate:       cfg.SampleRate,
		FrameDuration:    cfg.FrameDuration,
		SilenceThreshold: cfg.SilenceThreshold,
		WorkDir:          cfg.WorkDir,
		AudioFreshness:   cfg.AudioFreshness,
	})
	srv := server.New(orch, sess, server.Options{
		WorkDir:        cfg.WorkDir,
		AudioPath:      audioPath,
		AudioFreshness: cfg.AudioFreshness,
		Metrics:        m.Handler(),
		Queue:          pool,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool.Start(ctx)
	go srv.Run(ctx)
	if err := orch.Start(ctx); err != nil {
		slog.Warn("audio capture not started", "error", err)
	}

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("screen tutor starting", "http", cfg.HTTPAddr, "listening", sess.Listening(), "workers", cfg.Workers)
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
	case err := <-errCh:
		return err
	}

	slog.Info("shutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("http shutdown error", "error", err)
	}
	orch.Stop()
	if err := pool.Stop(shutdownCtx); err != nil {
		slog.Warn("workers did not drain", "error", err)
	}
	cancel()
	slog.Info("shutdown complete")
	return nil
}
