// Package session owns the assistant's live state: status flags, the recent
// conversation and the time of the latest spoken answer.
package session

import (
	"time"

	"github.com/GriffinCanCode/screentutor/internal/syncx"
)

// Defaults
const (
	DefaultLimit       = 20
	DefaultEventBuffer = 100
)

// Role says who produced a conversation entry.
type Role string

const (
	RoleUser Role = "user"
	RoleAI   Role = "ai"
)

// Entry is one conversation line. Timestamp is unix seconds.
type Entry struct {
	Type      Role    `json:"type"`
	Text      string  `json:"text"`
	Timestamp float64 `json:"timestamp"`
}

// Status is the voice_status object the page renders.
type Status struct {
	Listening  bool `json:"listening"`
	Processing bool `json:"processing"`
	Speaking   bool `json:"speaking"`
}

// EventType names a change pushed to websocket clients.
type EventType string

const (
	EventStatus       EventType = "status"
	EventConversation EventType = "conversation"
	EventAudio        EventType = "audio"
)

// Event is a state change.
type Event struct {
	Type   EventType `json:"type"`
	Status Status    `json:"voice_status"`
	Entry  *Entry    `json:"entry,omitempty"`
	Audio  float64   `json:"audio_timestamp,omitempty"`
}

type state struct {
	listening  bool
	processing int // jobs in flight
	speaking   int
	entries    []Entry
	audioAt    time.Time
}

func (s *state) status() Status {
	return Status{Listening: s.listening, Processing: s.processing > 0, Speaking: s.speaking > 0}
}

// Session is safe for concurrent use. Change events are dropped when nobody reads them.
type Session struct {
	st     *syncx.Guard[state]
	limit  int
	events chan Event
	now    func() time.Time
}

// New creates a session keeping the last limit entries.
func New(limit, eventBuffer int, listening bool) *Session {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if eventBuffer <= 0 {
		eventBuffer = DefaultEventBuffer
	}
	return &Session{
		st:     syncx.NewGuard(state{listening: listening, entries: make([]Entry, 0, limit)}),
		limit:  limit,
		events: make(chan Event, eventBuffer),
		now:    time.Now,
	}
}

// Events returns the channel of state changes.
func (s *Session) Events() <-chan Event { return s.events }

func (s *Session) emit(e Event) {
	select {
	case s.events <- e:
	default:
	}
}

// Status returns a snapshot of the flags.
func (s *Session) Status() Status {
	return syncx.View(s.st, func(st *state) Status { return st.status() })
}

// Listening reports whether the microphone loop should read frames.
func (s *Session) Listening() bool {
	return syncx.View(s.st, func(st *state) bool { return st.listening })
}

// SetListening sets the flag and returns the new status.
func (s *Session) SetListening(on bool) Status {
	st := syncx.Mutate(s.st, func(st *state) Status {
		st.listening = on
		return st.status()
	})
	s.emit(Event{Type: EventStatus, Status: st})
	return st
}

// ToggleListening flips the flag and returns the new value.
func (s *Session) ToggleListening() bool {
	st := syncx.Mutate(s.st, func(st *state) Status {
		st.listening = !st.listening
		return st.status()
	})
	s.emit(Event{Type: EventStatus, Status: st})
	return st.Listening
}

// BeginProcessing marks a job in flight. Call the returned func when it ends.
func (s *Session) BeginProcessing() (end func()) {
	return s.track(func(st *state) *int { return &st.processing })
}

// BeginSpeaking marks speech synthesis in flight. Call the returned func when it ends.
func (s *Session) BeginSpeaking() (end func()) {
	return s.track(func(st *state) *int { return &st.speaking })
}

func (s *Session) track(counter func(*state) *int) func() {
	st := syncx.Mutate(s.st, func(st *state) Status {
		*counter(st)++
		return st.status()
	})
	s.emit(Event{Type: EventStatus, Status: st})

	done := false
	return func() {
		if done {
			return
		}
		done = true
		st := syncx.Mutate(s.st, func(st *state) Status {
			if c := counter(st); *c > 0 {
				*c--
			}
			return st.status()
		})
		s.emit(Event{Type: EventStatus, Status: st})
	}
}

// Append adds a conversation entry and trims to the limit.
func (s *Session) Append(role Role, text string) Entry {
	e := Entry{Type: role, Text: text, Timestamp: unixSeconds(s.now())}
	st := syncx.Mutate(s.st, func(st *state) Status {
		st.entries = append(st.entries, e)
		if len(st.entries) > s.limit {
			st.entries = append(st.entries[:0:0], st.entries[len(st.entries)-s.limit:]...)
		}
		return st.status()
	})
	s.emit(Event{Type: EventConversation, Status: st, Entry: &e})
	return e
}

// AddExchange records a question and its answer.
func (s *Session) AddExchange(question, answer string) {
	s.Append(RoleUser, question)
	s.Append(RoleAI, answer)
}

// Conversation returns a copy of the retained entries, oldest first.
func (s *Session) Conversation() []Entry {
	return syncx.View(s.st, func(st *state) []Entry {
		out := make([]Entry, len(st.entries))
		copy(out, st.entries)
		return out
	})
}

// SetAudio records when the response audio was last written.
func (s *Session) SetAudio(at time.Time) {
	st := syncx.Mutate(s.st, func(st *state) Status {
		st.audioAt = at
		return st.status()
	})
	s.emit(Event{Type: EventAudio, Status: st, Audio: unixSeconds(at)})
}

// AudioAt returns the time of the latest response audio, zero if none.
func (s *Session) AudioAt() time.Time {
	return syncx.View(s.st, func(st *state) time.Time { return st.audioAt })
}

// Unix converts a time to fractional unix seconds, zero for the zero time.
func Unix(t time.Time) float64 { return unixSeconds(t) }

func unixSeconds(t time.Time) float64 {
	if t.IsZero() {
		return 0
	}
	return float64(t.UnixNano()) / float64(time.Second)
}
