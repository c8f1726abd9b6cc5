// Package course stores generated course outlines and learning analytics in SQLite.
package course

import (
	"encoding/json"
	"time"
)

// Course is a generated learning plan for one user.
type Course struct {
	ID           string          `json:"id"`
	UserID       string          `json:"userId"`
	CourseName   string          `json:"courseName"`
	Domain       string          `json:"domain"`
	Subtopics    []string        `json:"subtopics"`
	Introduction string          `json:"Introduction"`
	NumberOfDays int             `json:"numberOfDays"`
	Structure    json.RawMessage `json:"structure,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`

	Modules []Module `json:"modules,omitempty"`
}

// Module is one lesson slot within a course day.
type Module struct {
	ID           string    `json:"id"`
	CourseID     string    `json:"courseId"`
	DayNumber    int       `json:"dayNumber"`
	ModuleNumber int       `json:"moduleNumber"`
	Title        string    `json:"title"`
	CreatedAt    time.Time `json:"created_at"`

	Topics      []Topic      `json:"topics,omitempty"`
	Videos      []Video      `json:"videos,omitempty"`
	Assessments []Assessment `json:"assessments,omitempty"`
}

// Topic is ordered reading content inside a module.
type Topic struct {
	ID        string    `json:"id"`
	ModuleID  string    `json:"moduleId"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Order     int       `json:"order"`
	CreatedAt time.Time `json:"created_at"`
}

// Video links external media to a module. ModuleID may be empty.
type Video struct {
	ID        string    `json:"id"`
	ModuleID  string    `json:"moduleId,omitempty"`
	Title     string    `json:"title"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at"`
}

// Assessment is a quiz attached to a module.
type Assessment struct {
	ID             string          `json:"id"`
	ModuleID       string          `json:"moduleId"`
	Type           string          `json:"type"`
	Title          string          `json:"title"`
	Questions      json.RawMessage `json:"questions"`
	CorrectAnswers json.RawMessage `json:"correct_answers"`
	CreatedAt      time.Time       `json:"created_at"`
}

// Analytics event types recorded by the voice pipeline.
const (
	EventVoiceQuestion = "voice_question"
	EventVoiceAnswer   = "voice_answer"
	EventVoiceDropped  = "voice_dropped"
)

// AnalyticsEvent is one learning_analytics row.
type AnalyticsEvent struct {
	ID        string          `json:"id"`
	UserID    string          `json:"userId"`
	EventType string          `json:"event_type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// Enrollment links a user to a course.
type Enrollment struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	CourseID  string    `json:"courseId"`
	CreatedAt time.Time `json:"created_at"`
}

// Progress is a user's status within a course.
type Progress struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	CourseID  string    `json:"courseId"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// Bookmark marks a course or module for a user. Only UserID is expected.
type Bookmark struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	CourseID  string    `json:"courseId,omitempty"`
	ModuleID  string    `json:"moduleId,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
