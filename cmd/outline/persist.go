package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/GriffinCanCode/screentutor/internal/course"
	"github.com/GriffinCanCode/screentutor/internal/topic"
)

const (
	eventCourseGenerated = "course_generated"

	sourceModel    = "model"
	sourceTemplate = "template"
)

// persist stores the outline as a course with one row per module. The
// introduction becomes a topic and the video references become videos on the
// first module; assessments go on the last module. The user is enrolled, the
// generation is recorded and the course is read back with all its data.
func persist(ctx context.Context, store *course.Store, userID, request string, o topic.Outline, source string) (*course.Course, error) {
	structure, err := json.Marshal(o)
	if err != nil {
		return nil, fmt.Errorf("encode outline: %w", err)
	}
	intro := o.Introduction
	if intro == "" {
		intro = fmt.Sprintf("A %d-day course on %s covering %d subtopics.", len(o.Days), o.Name, len(o.Subtopics))
	}
	c, err := store.SaveCourse(ctx, course.Course{
		UserID:       userID,
		CourseName:   o.Name,
		Domain:       o.Domain,
		Subtopics:    o.Subtopics,
		Introduction: intro,
		NumberOfDays: len(o.Days),
		Structure:    structure,
	})
	if err != nil {
		return nil, err
	}

	var first, last string
	for _, d := range o.Days {
		for i, title := range d.Modules {
			m, err := store.SaveModule(ctx, course.Module{
				CourseID:     c.ID,
				DayNumber:    d.Number,
				ModuleNumber: i + 1,
				Title:        title,
			})
			if err != nil {
				return nil, err
			}
			if first == "" {
				first = m.ID
			}
			last = m.ID
		}
	}

	if first != "" {
		if err := attachMaterials(ctx, store, o, first, last); err != nil {
			return nil, err
		}
	}

	if _, err := store.SaveEnrollment(ctx, course.Enrollment{UserID: userID, CourseID: c.ID}); err != nil {
		return nil, err
	}
	if _, err := store.SaveProgress(ctx, course.Progress{UserID: userID, CourseID: c.ID, Status: "not_started"}); err != nil {
		return nil, err
	}
	payload, _ := json.Marshal(map[string]any{"courseId": c.ID, "request": request, "source": source})
	if _, err := store.SaveLearningAnalytics(ctx, course.AnalyticsEvent{
		UserID:    userID,
		EventType: eventCourseGenerated,
		Payload:   payload,
	}); err != nil {
		return nil, err
	}

	return store.CourseWithAllData(ctx, c.ID)
}

func attachMaterials(ctx context.Context, store *course.Store, o topic.Outline, first, last string) error {
	if o.Introduction != "" {
		if _, err := store.SaveTopic(ctx, course.Topic{
			ModuleID: first,
			Title:    "Introduction",
			Content:  o.Introduction,
			Order:    1,
		}); err != nil {
			return err
		}
	}
	for _, r := range o.References {
		title := r.Title
		if title == "" {
			title = r.URL
		}
		if _, err := store.SaveVideo(ctx, course.Video{ModuleID: first, Title: title, URL: r.URL}); err != nil {
			return err
		}
	}
	for _, a := range o.Assessments {
		kind := strings.TrimSpace(a.Type)
		if kind == "" {
			kind = "quiz"
		}
		questions, err := json.Marshal([]string{a.Description})
		if err != nil {
			return fmt.Errorf("encode assessment: %w", err)
		}
		if _, err := store.SaveAssessment(ctx, course.Assessment{
			ModuleID:       last,
			Type:           kind,
			Title:          a.Title,
			Questions:      questions,
			CorrectAnswers: json.RawMessage(`[]`),
		}); err != nil {
			return err
		}
	}
	return nil
}

// bookmark marks an existing course for userID.
func bookmark(ctx context.Context, store *course.Store, userID, courseID string) (course.Bookmark, error) {
	c, err := store.CourseByID(ctx, courseID)
	if err != nil {
		return course.Bookmark{}, err
	}
	if c == nil {
		return course.Bookmark{}, fmt.Errorf("course %s not found", courseID)
	}
	return store.SaveBookmark(ctx, course.Bookmark{UserID: userID, CourseID: c.ID})
}

// rename changes a course's name and keeps the stored structure in step.
func rename(ctx context.Context, store *course.Store, courseID, name string) (*course.Course, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("--name is required")
	}
	c, err := store.CourseByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, fmt.Errorf("course %s not found", courseID)
	}
	c.CourseName = name
	if len(c.Structure) > 0 {
		var o topic.Outline
		if err := json.Unmarshal(c.Structure, &o); err == nil {
			o.Name = name
			if b, err := json.Marshal(o); err == nil {
				c.Structure = b
			}
		}
	}
	updated, err := store.UpdateCourse(ctx, *c)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, fmt.Errorf("course %s not found", courseID)
	}
	return updated, nil
}
