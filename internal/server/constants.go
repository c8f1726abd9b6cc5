// Package server provides HTTP and WebSocket handlers
package server

import "time"

// Server configuration constants
const (
	// Largest accepted /process-audio body
	MaxUploadBytes = 32 << 20

	// Inbound websocket messages per connection per window
	RateLimitMessages = 10
	RateLimitWindow   = time.Second

	// Deadline for one websocket push
	WriteTimeout = 5 * time.Second

	// Field name of the uploaded clip
	AudioField = "audio"
)

// Client-facing error messages
const (
	MsgNoAudio          = "No audio file provided"
	MsgNoAudioSelected  = "No audio file selected"
	MsgNoAudioAvailable = "No audio available"
)
