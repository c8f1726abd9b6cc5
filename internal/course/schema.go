package course

const schema = `
CREATE TABLE IF NOT EXISTS courses (
	id TEXT PRIMARY KEY,
	userId TEXT NOT NULL DEFAULT '',
	courseName TEXT NOT NULL DEFAULT '',
	domain TEXT NOT NULL DEFAULT '',
	subtopics TEXT NOT NULL DEFAULT '[]',
	Introduction TEXT NOT NULL DEFAULT '',
	numberOfDays INTEGER NOT NULL DEFAULT 0,
	structure TEXT,
	createdAt REAL NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_courses_user ON courses(userId);

CREATE TABLE IF NOT EXISTS modules (
	id TEXT PRIMARY KEY,
	courseId TEXT NOT NULL DEFAULT '',
	dayNumber INTEGER NOT NULL DEFAULT 0,
	moduleNumber INTEGER NOT NULL DEFAULT 0,
	title TEXT NOT NULL DEFAULT '',
	createdAt REAL NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_modules_course ON modules(courseId, dayNumber, moduleNumber);

CREATE TABLE IF NOT EXISTS topics (
	id TEXT PRIMARY KEY,
	moduleId TEXT NOT NULL DEFAULT '',
	title TEXT NOT NULL DEFAULT '',
	content TEXT NOT NULL DEFAULT '',
	"order" INTEGER NOT NULL DEFAULT 0,
	createdAt REAL NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_topics_module ON topics(moduleId, "order");

CREATE TABLE IF NOT EXISTS videos (
	id TEXT PRIMARY KEY,
	moduleId TEXT,
	title TEXT NOT NULL DEFAULT '',
	url TEXT NOT NULL DEFAULT '',
	createdAt REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS assessments (
	id TEXT PRIMARY KEY,
	moduleId TEXT NOT NULL DEFAULT '',
	type TEXT NOT NULL DEFAULT '',
	title TEXT NOT NULL DEFAULT '',
	questions TEXT,
	correct_answers TEXT,
	createdAt REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS learning_analytics (
	id TEXT PRIMARY KEY,
	userId TEXT NOT NULL DEFAULT '',
	event_type TEXT NOT NULL DEFAULT '',
	payload TEXT,
	createdAt REAL NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_analytics_user ON learning_analytics(userId, createdAt);

CREATE TABLE IF NOT EXISTS enrollments (
	id TEXT PRIMARY KEY,
	userId TEXT NOT NULL DEFAULT '',
	courseId TEXT NOT NULL DEFAULT '',
	createdAt REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS progress (
	id TEXT PRIMARY KEY,
	userId TEXT NOT NULL DEFAULT '',
	courseId TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT '',
	createdAt REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS bookmarks (
	id TEXT PRIMARY KEY,
	userId TEXT NOT NULL DEFAULT '',
	courseId TEXT,
	moduleId TEXT,
	createdAt REAL NOT NULL
);
`
