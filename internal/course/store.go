package course

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Store is a SQLite-backed course repository.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (creating if needed) the database at path and applies the schema.
// Use ":memory:" for an ephemeral store.
func Open(path string) (*Store, error) {
	dsn := path
	if path != ":memory:" {
		dsn = fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One connection keeps ":memory:" a single database and serializes writers.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// warnMissing logs each empty required field. Rows are stored regardless.
func warnMissing(table string, fields ...any) {
	for i := 0; i+1 < len(fields); i += 2 {
		name, _ := fields[i].(string)
		if isZero(fields[i+1]) {
			slog.Warn("missing required field", "table", table, "field", name)
		}
	}
}

func isZero(v any) bool {
	switch x := v.(type) {
	case string:
		return x == ""
	case int:
		return x == 0
	case []string:
		return len(x) == 0
	case json.RawMessage:
		return len(x) == 0
	default:
		return v == nil
	}
}

func (s *Store) stamp(id *string, at *time.Time) {
	if *id == "" {
		*id = uuid.NewString()
	}
	if at.IsZero() {
		*at = s.now()
	}
}

func toUnix(t time.Time) float64 { return float64(t.UnixNano()) / float64(time.Second) }

func timeFromUnix(f float64) time.Time {
	sec := int64(f)
	return time.Unix(sec, int64((f-float64(sec))*1e9))
}

func nullString(s string) sql.NullString { return sql.NullString{String: s, Valid: s != ""} }

func nullJSON(raw json.RawMessage) sql.NullString {
	return sql.NullString{String: string(raw), Valid: len(raw) > 0}
}

func rawJSON(ns sql.NullString) json.RawMessage {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	return json.RawMessage(ns.String)
}

const courseColumns = `id, userId, courseName, domain, subtopics, Introduction, numberOfDays, structure, createdAt`

type rowScanner interface{ Scan(dest ...any) error }

func scanCourse(r rowScanner) (Course, error) {
	var c Course
	var subtopics string
	var structure sql.NullString
	var createdAt float64
	if err := r.Scan(&c.ID, &c.UserID, &c.CourseName, &c.Domain, &subtopics,
		&c.Introduction, &c.NumberOfDays, &structure, &createdAt); err != nil {
		return c, err
	}
	if err := json.Unmarshal([]byte(subtopics), &c.Subtopics); err != nil {
		return c, fmt.Errorf("decode subtopics: %w", err)
	}
	c.Structure = rawJSON(structure)
	c.CreatedAt = timeFromUnix(createdAt)
	return c, nil
}

// SaveCourse inserts a course and returns it with id and timestamp set.
func (s *Store) SaveCourse(ctx context.Context, c Course) (Course, error) {
	warnMissing("courses", "userId", c.UserID, "courseName", c.CourseName, "domain", c.Domain,
		"subtopics", c.Subtopics, "Introduction", c.Introduction, "numberOfDays", c.NumberOfDays,
		"structure", c.Structure)
	s.stamp(&c.ID, &c.CreatedAt)

	subtopics, err := json.Marshal(nonNil(c.Subtopics))
	if err != nil {
		return c, fmt.Errorf("encode subtopics: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO courses (`+courseColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.UserID, c.CourseName, c.Domain, string(subtopics), c.Introduction, c.NumberOfDays,
		nullJSON(c.Structure), toUnix(c.CreatedAt))
	if err != nil {
		return c, fmt.Errorf("insert course: %w", err)
	}
	return c, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// UpdateCourse overwrites the mutable fields of an existing course.
// It returns nil when no course has that id.
func (s *Store) UpdateCourse(ctx context.Context, c Course) (*Course, error) {
	subtopics, err := json.Marshal(nonNil(c.Subtopics))
	if err != nil {
		return nil, fmt.Errorf("encode subtopics: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE courses
		SET courseName = ?, domain = ?, subtopics = ?, Introduction = ?, numberOfDays = ?, structure = ?
		WHERE id = ?
	`, c.CourseName, c.Domain, string(subtopics), c.Introduction, c.NumberOfDays, nullJSON(c.Structure), c.ID)
	if err != nil {
		return nil, fmt.Errorf("update course: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, nil
	}
	return s.CourseByID(ctx, c.ID)
}

// Courses returns every course, oldest first.
func (s *Store) Courses(ctx context.Context) ([]Course, error) {
	return s.queryCourses(ctx, `SELECT `+courseColumns+` FROM courses ORDER BY createdAt ASC`)
}

// CoursesByUser returns the courses owned by userID, oldest first.
func (s *Store) CoursesByUser(ctx context.Context, userID string) ([]Course, error) {
	return s.queryCourses(ctx, `SELECT `+courseColumns+` FROM courses WHERE userId = ? ORDER BY createdAt ASC`, userID)
}

func (s *Store) queryCourses(ctx context.Context, query string, args ...any) ([]Course, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query courses: %w", err)
	}
	defer rows.Close()

	courses := []Course{}
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, fmt.Errorf("scan course: %w", err)
		}
		courses = append(courses, c)
	}
	return courses, rows.Err()
}

// CourseByID returns the course, or nil when it does not exist.
func (s *Store) CourseByID(ctx context.Context, id string) (*Course, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+courseColumns+` FROM courses WHERE id = ?`, id)
	c, err := scanCourse(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan course: %w", err)
	}
	return &c, nil
}

// SaveModule inserts a module.
func (s *Store) SaveModule(ctx context.Context, m Module) (Module, error) {
	warnMissing("modules", "courseId", m.CourseID, "dayNumber", m.DayNumber,
		"moduleNumber", m.ModuleNumber, "title", m.Title)
	s.stamp(&m.ID, &m.CreatedAt)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO modules (id, courseId, dayNumber, moduleNumber, title, createdAt)
		VALUES (?, ?, ?, ?, ?, ?)
	`, m.ID, m.CourseID, m.DayNumber, m.ModuleNumber, m.Title, toUnix(m.CreatedAt))
	if err != nil {
		return m, fmt.Errorf("insert module: %w", err)
	}
	return m, nil
}

// ModulesByCourse returns a course's modules ordered by day, then module number.
func (s *Store) ModulesByCourse(ctx context.Context, courseID string) ([]Module, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, courseId, dayNumber, moduleNumber, title, createdAt
		FROM modules
		WHERE courseId = ?
		ORDER BY dayNumber ASC, moduleNumber ASC
	`, courseID)
	if err != nil {
		return nil, fmt.Errorf("query modules: %w", err)
	}
	defer rows.Close()

	modules := []Module{}
	for rows.Next() {
		var m Module
		var createdAt float64
		if err := rows.Scan(&m.ID, &m.CourseID, &m.DayNumber, &m.ModuleNumber, &m.Title, &createdAt); err != nil {
			return nil, fmt.Errorf("scan module: %w", err)
		}
		m.CreatedAt = timeFromUnix(createdAt)
		modules = append(modules, m)
	}
	return modules, rows.Err()
}

// SaveTopic inserts a topic.
func (s *Store) SaveTopic(ctx context.Context, t Topic) (Topic, error) {
	warnMissing("topics", "moduleId", t.ModuleID, "title", t.Title, "content", t.Content, "order", t.Order)
	s.stamp(&t.ID, &t.CreatedAt)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO topics (id, moduleId, title, content, "order", createdAt)
		VALUES (?, ?, ?, ?, ?, ?)
	`, t.ID, t.ModuleID, t.Title, t.Content, t.Order, toUnix(t.CreatedAt))
	if err != nil {
		return t, fmt.Errorf("insert topic: %w", err)
	}
	return t, nil
}

// TopicsByModule returns a module's topics in reading order.
func (s *Store) TopicsByModule(ctx context.Context, moduleID string) ([]Topic, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, moduleId, title, content, "order", createdAt
		FROM topics
		WHERE moduleId = ?
		ORDER BY "order" ASC
	`, moduleID)
	if err != nil {
		return nil, fmt.Errorf("query topics: %w", err)
	}
	defer rows.Close()

	topics := []Topic{}
	for rows.Next() {
		var t Topic
		var createdAt float64
		if err := rows.Scan(&t.ID, &t.ModuleID, &t.Title, &t.Content, &t.Order, &createdAt); err != nil {
			return nil, fmt.Errorf("scan topic: %w", err)
		}
		t.CreatedAt = timeFromUnix(createdAt)
		topics = append(topics, t)
	}
	return topics, rows.Err()
}

// SaveVideo inserts a video.
func (s *Store) SaveVideo(ctx context.Context, v Video) (Video, error) {
	warnMissing("videos", "title", v.Title)
	s.stamp(&v.ID, &v.CreatedAt)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO videos (id, moduleId, title, url, createdAt) VALUES (?, ?, ?, ?, ?)
	`, v.ID, nullString(v.ModuleID), v.Title, v.URL, toUnix(v.CreatedAt))
	if err != nil {
		return v, fmt.Errorf("insert video: %w", err)
	}
	return v, nil
}

func (s *Store) videosByModule(ctx context.Context, moduleID string) ([]Video, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, moduleId, title, url, createdAt FROM videos WHERE moduleId = ? ORDER BY createdAt ASC
	`, moduleID)
	if err != nil {
		return nil, fmt.Errorf("query videos: %w", err)
	}
	defer rows.Close()

	var videos []Video
	for rows.Next() {
		var v Video
		var mod sql.NullString
		var createdAt float64
		if err := rows.Scan(&v.ID, &mod, &v.Title, &v.URL, &createdAt); err != nil {
			return nil, fmt.Errorf("scan video: %w", err)
		}
		v.ModuleID = mod.String
		v.CreatedAt = timeFromUnix(createdAt)
		videos = append(videos, v)
	}
	return videos, rows.Err()
}

// SaveAssessment inserts an assessment.
func (s *Store) SaveAssessment(ctx context.Context, a Assessment) (Assessment, error) {
	warnMissing("assessments", "moduleId", a.ModuleID, "type", a.Type, "title", a.Title,
		"questions", a.Questions, "correct_answers", a.CorrectAnswers)
	s.stamp(&a.ID, &a.CreatedAt)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO assessments (id, moduleId, type, title, questions, correct_answers, createdAt)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, a.ID, a.ModuleID, a.Type, a.Title, nullJSON(a.Questions), nullJSON(a.CorrectAnswers), toUnix(a.CreatedAt))
	if err != nil {
		return a, fmt.Errorf("insert assessment: %w", err)
	}
	return a, nil
}

func (s *Store) assessmentsByModule(ctx context.Context, moduleID string) ([]Assessment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, moduleId, type, title, questions, correct_answers, createdAt
		FROM assessments WHERE moduleId = ? ORDER BY createdAt ASC
	`, moduleID)
	if err != nil {
		return nil, fmt.Errorf("query assessments: %w", err)
	}
	defer rows.Close()

	var out []Assessment
	for rows.Next() {
		var a Assessment
		var questions, answers sql.NullString
		var createdAt float64
		if err := rows.Scan(&a.ID, &a.ModuleID, &a.Type, &a.Title, &questions, &answers, &createdAt); err != nil {
			return nil, fmt.Errorf("scan assessment: %w", err)
		}
		a.Questions, a.CorrectAnswers = rawJSON(questions), rawJSON(answers)
		a.CreatedAt = timeFromUnix(createdAt)
		out = append(out, a)
	}
	return out, rows.Err()
}

// SaveLearningAnalytics inserts events in one transaction.
func (s *Store) SaveLearningAnalytics(ctx context.Context, events ...AnalyticsEvent) ([]AnalyticsEvent, error) {
	if len(events) == 0 {
		return nil, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin analytics tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO learning_analytics (id, userId, event_type, payload, createdAt) VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return nil, fmt.Errorf("prepare analytics insert: %w", err)
	}
	defer stmt.Close()

	out := make([]AnalyticsEvent, 0, len(events))
	for _, e := range events {
		warnMissing("learning_analytics", "userId", e.UserID, "event_type", e.EventType)
		s.stamp(&e.ID, &e.CreatedAt)
		if _, err := stmt.ExecContext(ctx, e.ID, e.UserID, e.EventType, nullJSON(e.Payload), toUnix(e.CreatedAt)); err != nil {
			return nil, fmt.Errorf("insert analytics: %w", err)
		}
		out = append(out, e)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit analytics: %w", err)
	}
	return out, nil
}

// AnalyticsByUser returns a user's events, oldest first. An empty eventType matches all.
func (s *Store) AnalyticsByUser(ctx context.Context, userID, eventType string) ([]AnalyticsEvent, error) {
	query := `SELECT id, userId, event_type, payload, createdAt FROM learning_analytics WHERE userId = ?`
	args := []any{userID}
	if eventType != "" {
		query += ` AND event_type = ?`
		args = append(args, eventType)
	}
	query += ` ORDER BY createdAt ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query analytics: %w", err)
	}
	defer rows.Close()

	var out []AnalyticsEvent
	for rows.Next() {
		var e AnalyticsEvent
		var payload sql.NullString
		var createdAt float64
		if err := rows.Scan(&e.ID, &e.UserID, &e.EventType, &payload, &createdAt); err != nil {
			return nil, fmt.Errorf("scan analytics: %w", err)
		}
		e.Payload = rawJSON(payload)
		e.CreatedAt = timeFromUnix(createdAt)
		out = append(out, e)
	}
	return out, rows.Err()
}

// SaveEnrollment inserts an enrollment.
func (s *Store) SaveEnrollment(ctx context.Context, e Enrollment) (Enrollment, error) {
	warnMissing("enrollments", "userId", e.UserID, "courseId", e.CourseID)
	s.stamp(&e.ID, &e.CreatedAt)
	_, err := s.db.ExecContext(ctx, `INSERT INTO enrollments (id, userId, courseId, createdAt) VALUES (?, ?, ?, ?)`,
		e.ID, e.UserID, e.CourseID, toUnix(e.CreatedAt))
	if err != nil {
		return e, fmt.Errorf("insert enrollment: %w", err)
	}
	return e, nil
}

// SaveProgress inserts a progress row.
func (s *Store) SaveProgress(ctx context.Context, p Progress) (Progress, error) {
	warnMissing("progress", "userId", p.UserID, "courseId", p.CourseID, "status", p.Status)
	s.stamp(&p.ID, &p.CreatedAt)
	_, err := s.db.ExecContext(ctx, `INSERT INTO progress (id, userId, courseId, status, createdAt) VALUES (?, ?, ?, ?, ?)`,
		p.ID, p.UserID, p.CourseID, p.Status, toUnix(p.CreatedAt))
	if err != nil {
		return p, fmt.Errorf("insert progress: %w", err)
	}
	return p, nil
}

// SaveBookmark inserts a bookmark.
func (s *Store) SaveBookmark(ctx context.Context, b Bookmark) (Bookmark, error) {
	warnMissing("bookmarks", "userId", b.UserID)
	s.stamp(&b.ID, &b.CreatedAt)
	_, err := s.db.ExecContext(ctx, `INSERT INTO bookmarks (id, userId, courseId, moduleId, createdAt) VALUES (?, ?, ?, ?, ?)`,
		b.ID, b.UserID, nullString(b.CourseID), nullString(b.ModuleID), toUnix(b.CreatedAt))
	if err != nil {
		return b, fmt.Errorf("insert bookmark: %w", err)
	}
	return b, nil
}

// CourseWithModules returns the course with its ordered modules, or nil.
func (s *Store) CourseWithModules(ctx context.Context, id string) (*Course, error) {
	c, err := s.CourseByID(ctx, id)
	if err != nil || c == nil {
		return c, err
	}
	if c.Modules, err = s.ModulesByCourse(ctx, id); err != nil {
		return nil, err
	}
	return c, nil
}

// CourseWithAllData returns the course with modules and each module's topics,
// videos and assessments, or nil.
func (s *Store) CourseWithAllData(ctx context.Context, id string) (*Course, error) {
	c, err := s.CourseWithModules(ctx, id)
	if err != nil || c == nil {
		return c, err
	}
	for i := range c.Modules {
		m := &c.Modules[i]
		if m.Topics, err = s.TopicsByModule(ctx, m.ID); err != nil {
			return nil, err
		}
		if m.Videos, err = s.videosByModule(ctx, m.ID); err != nil {
			return nil, err
		}
		if m.Assessments, err = s.assessmentsByModule(ctx, m.ID); err != nil {
			return nil, err
		}
	}
	return c, nil
}
