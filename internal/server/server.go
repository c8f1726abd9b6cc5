package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	apperrors "github.com/GriffinCanCode/screentutor/internal/errors"
	"github.com/GriffinCanCode/screentutor/internal/orchestrator"
	"github.com/GriffinCanCode/screentutor/internal/session"
	"github.com/GriffinCanCode/screentutor/internal/trace"
	"github.com/GriffinCanCode/screentutor/internal/tts"
)

// Message is the envelope of inbound websocket messages. Listening is read
// only for "set_listening".
type Message struct {
	Type      string `json:"type"`
	Listening *bool  `json:"listening,omitempty"`
}

type RateLimitedMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// rateLimiter tracks message timestamps using a sliding window.
type rateLimiter struct {
	timestamps []time.Time
	mu         sync.Mutex
}

// allow checks if a message is allowed and records the timestamp if so.
func (r *rateLimiter) allow() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-RateLimitWindow)

	valid := r.timestamps[:0]
	for _, t := range r.timestamps {
		if t.After(cutoff) {
			valid = append(valid, t)
		}
	}
	r.timestamps = valid

	if len(r.timestamps) >= RateLimitMessages {
		return false
	}

	r.timestamps = append(r.timestamps, now)
	return true
}

// Pipeline runs one clip end to end.
type Pipeline interface {
	Process(ctx context.Context, wavPath string) (orchestrator.Outcome, error)
}

// Queue reports how many pipeline jobs are waiting for a worker.
type Queue interface {
	Pending() int
}

// Options configure file locations and extra handlers.
type Options struct {
	WorkDir        string
	AudioPath      string
	AudioFreshness time.Duration
	Metrics        http.Handler // served on /metrics when set
	Queue          Queue        // adds pending_jobs to /audio-status when set
}

// Server handles HTTP and WebSocket connections.
type Server struct {
	pipeline Pipeline
	sess     *session.Session
	opts     Options
	now      func() time.Time

	uploadMu sync.Mutex // one upload file on disk

	mu    sync.RWMutex
	conns map[*websocket.Conn]*rateLimiter
}

// New creates a new server.
func New(pipeline Pipeline, sess *session.Session, opts Options) *Server {
	if opts.WorkDir == "" {
		opts.WorkDir = "."
	}
	if opts.AudioFreshness <= 0 {
		opts.AudioFreshness = orchestrator.AudioFreshness
	}
	return &Server{
		pipeline: pipeline,
		sess:     sess,
		opts:     opts,
		now:      time.Now,
		conns:    make(map[*websocket.Conn]*rateLimiter),
	}
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /get-audio", s.handleGetAudio)
	mux.HandleFunc("GET /audio-status", s.handleAudioStatus)
	mux.HandleFunc("GET /conversation", s.handleConversation)
	mux.HandleFunc("POST /toggle-listening", s.handleToggleListening)
	mux.HandleFunc("POST /process-audio", s.handleProcessAudio)
	mux.HandleFunc("/ws", s.handleWebSocket)
	if s.opts.Metrics != nil {
		mux.Handle("GET /metrics", s.opts.Metrics)
	}

	// Apply middleware: trace -> CORS
	return corsMiddleware(trace.Middleware(mux))
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) audioAvailable() bool {
	return tts.Available(s.opts.AudioPath, s.sess.AudioAt(), s.now(), s.opts.AudioFreshness)
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = io.WriteString(w, statusPage)
}

// handleGetAudio serves the last synthesized clip regardless of its age.
func (s *Server) handleGetAudio(w http.ResponseWriter, r *http.Request) {
	if fi, err := os.Stat(s.opts.AudioPath); err != nil || fi.IsDir() {
		writeError(w, http.StatusNotFound, MsgNoAudioAvailable)
		return
	}
	w.Header().Set("Content-Type", "audio/wav")
	w.Header().Set("Cache-Control", "no-store")
	http.ServeFile(w, r, s.opts.AudioPath)
}

func (s *Server) handleAudioStatus(w http.ResponseWriter, _ *http.Request) {
	body := map[string]any{
		"timestamp":    session.Unix(s.sess.AudioAt()),
		"available":    s.audioAvailable(),
		"voice_status": s.sess.Status(),
	}
	if s.opts.Queue != nil {
		body["pending_jobs"] = s.opts.Queue.Pending()
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleConversation(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"conversation": s.sess.Conversation(),
		"voice_status": s.sess.Status(),
	})
}

func (s *Server) handleToggleListening(w http.ResponseWriter, r *http.Request) {
	on := s.sess.ToggleListening()
	status := "Stopped listening"
	if on {
		status = "Started listening"
	}
	trace.Logger(r.Context()).Info("listening toggled", "listening", on)
	writeJSON(w, http.StatusOK, map[string]any{"status": status, "listening": on})
}

var (
	errNoAudio       = errors.New("no audio file provided")
	errAudioSelected = errors.New("no audio file selected")
)

func (s *Server) handleProcessAudio(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := trace.Logger(ctx)
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes)

	s.uploadMu.Lock()
	defer s.uploadMu.Unlock()

	path := filepath.Join(s.opts.WorkDir, orchestrator.UploadedAudioFile)
	if err := saveUpload(r, path); err != nil {
		switch {
		case errors.Is(err, errNoAudio):
			writeError(w, http.StatusBadRequest, MsgNoAudio)
			return
		case errors.Is(err, errAudioSelected):
			writeError(w, http.StatusBadRequest, MsgNoAudioSelected)
			return
		}
		log.Warn("upload failed", "error", err)
		writeError(w, apperrors.HTTPStatus(err), err.Error())
		return
	}

	out, err := s.pipeline.Process(ctx, path)
	if err != nil {
		log.Error("process audio failed", "kind", apperrors.KindOf(err), "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":         true,
		"transcription":   out.Transcription,
		"response":        out.Response,
		"audio_available": out.AudioAvailable,
	})
}

// saveUpload streams the multipart file field to path. A part only counts as
// a file when its Content-Disposition carries a filename parameter.
func saveUpload(r *http.Request, path string) error {
	mr, err := r.MultipartReader()
	if err != nil {
		return errNoAudio
	}
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return errNoAudio
		}
		if err != nil {
			return apperrors.Wrap(err, apperrors.InvalidArgument, "read multipart body")
		}
		if part.FormName() != AudioField {
			_ = part.Close()
			continue
		}
		name, isFile := fileName(part)
		if !isFile {
			_ = part.Close()
			continue
		}
		if name == "" {
			return errAudioSelected
		}
		return writePart(part, path)
	}
}

func fileName(p *multipart.Part) (string, bool) {
	_, params, err := mime.ParseMediaType(p.Header.Get("Content-Disposition"))
	if err != nil {
		return "", false
	}
	name, ok := params["filename"]
	return name, ok
}

func writePart(part *multipart.Part, path string) error {
	defer part.Close()
	f, err := os.Create(path)
	if err != nil {
		return apperrors.Wrap(err, apperrors.Internal, "create upload file")
	}
	if _, err := io.Copy(f, part); err != nil {
		_ = f.Close()
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return apperrors.Wrap(err, apperrors.InvalidArgument, "upload too large")
		}
		return apperrors.Wrap(err, apperrors.Internal, "write upload file")
	}
	if err := f.Close(); err != nil {
		return apperrors.Wrap(err, apperrors.Internal, "close upload file")
	}
	return nil
}

// handleWebSocket pushes session events and accepts {"type":"toggle_listening"}
// and {"type":"set_listening","listening":bool}.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	log := trace.Logger(r.Context())
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		log.Error("websocket accept error", "error", err)
		return
	}
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "") }()

	rl := &rateLimiter{}
	s.mu.Lock()
	s.conns[conn] = rl
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
	}()

	ctx := r.Context()
	log.Info("websocket connected", "remote", r.RemoteAddr)
	_ = wsjson.Write(ctx, conn, session.Event{Type: session.EventStatus, Status: s.sess.Status()})

	for {
		var msg Message
		if err := wsjson.Read(ctx, conn, &msg); err != nil {
			log.Debug("websocket read error", "error", err)
			return
		}

		if !rl.allow() {
			log.Warn("rate limit exceeded", "remote", r.RemoteAddr)
			_ = wsjson.Write(ctx, conn, RateLimitedMessage{
				Type:    "error",
				Message: "rate limit exceeded",
			})
			continue
		}

		switch msg.Type {
		case "toggle_listening":
			s.sess.ToggleListening()
		case "set_listening":
			if msg.Listening == nil {
				_ = wsjson.Write(ctx, conn, RateLimitedMessage{Type: "error", Message: "listening is required"})
				continue
			}
			s.sess.SetListening(*msg.Listening)
		case "ping":
			_ = wsjson.Write(ctx, conn, Message{Type: "pong"})
		}
	}
}

// Run broadcasts session events to every websocket client until ctx is done.
func (s *Server) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt := <-s.sess.Events():
			s.broadcast(ctx, evt)
		}
	}
}

func (s *Server) broadcast(ctx context.Context, msg any) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for conn := range s.conns {
		go func(c *websocket.Conn) {
			wctx, cancel := context.WithTimeout(ctx, WriteTimeout)
			defer cancel()
			_ = wsjson.Write(wctx, c, msg)
		}(conn)
	}
}
