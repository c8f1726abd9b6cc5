package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category names one audit log stream.
type Category string

const (
	CategoryInput  Category = "input"  // what the user said
	CategoryOutput Category = "output" // what the assistant answered or spoke
	CategoryOrigin Category = "origin" // which provider handled what
)

// TimeLayout matches "%(asctime)s" so existing log tooling keeps parsing the files.
const TimeLayout = "2006-01-02 15:04:05,000"

// Journal writes human-readable audit lines to logs/<category>_YYYY-MM-DD.log.
// A nil *Journal discards everything.
type Journal struct {
	loggers map[Category]*zap.SugaredLogger
	files   []*dailyFile
}

// OpenJournal creates dir if needed and opens one daily file per category.
func OpenJournal(dir string) (*Journal, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	return newJournal(dir, time.Now), nil
}

func newJournal(dir string, now func() time.Time) *Journal {
	j := &Journal{loggers: make(map[Category]*zap.SugaredLogger, 3)}
	enc := zapcore.EncoderConfig{
		TimeKey:          "time",
		MessageKey:       "msg",
		EncodeTime:       zapcore.TimeEncoderOfLayout(TimeLayout),
		ConsoleSeparator: " - ",
	}
	for _, cat := range []Category{CategoryInput, CategoryOutput, CategoryOrigin} {
		f := &dailyFile{dir: dir, prefix: string(cat), now: now}
		core := zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.AddSync(f), zapcore.InfoLevel)
		j.loggers[cat] = zap.New(core, zap.WithClock(journalClock{now})).Sugar()
		j.files = append(j.files, f)
	}
	return j
}

// Input records a transcription.
func (j *Journal) Input(format string, args ...any) { j.log(CategoryInput, zapcore.InfoLevel, format, args) }

// Output records an assistant reply or speech output.
func (j *Journal) Output(format string, args ...any) {
	j.log(CategoryOutput, zapcore.InfoLevel, format, args)
}

// Origin records which service processed what.
func (j *Journal) Origin(format string, args ...any) {
	j.log(CategoryOrigin, zapcore.InfoLevel, format, args)
}

// OriginError records a provider failure.
func (j *Journal) OriginError(format string, args ...any) {
	j.log(CategoryOrigin, zapcore.ErrorLevel, format, args)
}

func (j *Journal) log(cat Category, lvl zapcore.Level, format string, args []any) {
	if j == nil {
		return
	}
	l, ok := j.loggers[cat]
	if !ok {
		return
	}
	l.Logf(lvl, format, args...)
}

// Close flushes and closes all category files. Lines logged after Close are dropped.
func (j *Journal) Close() error {
	if j == nil {
		return nil
	}
	var first error
	for _, l := range j.loggers {
		_ = l.Sync()
	}
	for _, f := range j.files {
		if err := f.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// dailyFile appends to <dir>/<prefix>_<date>.log and reopens when the date changes.
type dailyFile struct {
	dir    string
	prefix string
	now    func() time.Time

	mu     sync.Mutex
	date   string
	f      *os.File
	closed bool
}

func (d *dailyFile) Write(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return len(p), nil
	}

	date := d.now().Format(time.DateOnly)
	if d.f == nil || date != d.date {
		if d.f != nil {
			_ = d.f.Close()
		}
		f, err := os.OpenFile(d.path(date), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			d.f = nil
			return 0, err
		}
		d.f, d.date = f, date
	}
	return d.f.Write(p)
}

func (d *dailyFile) Sync() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.f == nil {
		return nil
	}
	return d.f.Sync()
}

func (d *dailyFile) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	if d.f == nil {
		return nil
	}
	err := d.f.Close()
	d.f = nil
	return err
}

func (d *dailyFile) path(date string) string {
	return filepath.Join(d.dir, d.prefix+"_"+date+".log")
}

// journalClock lets tests pin both the line timestamp and the file date.
type journalClock struct{ now func() time.Time }

func (c journalClock) Now() time.Time                         { return c.now() }
func (c journalClock) NewTicker(d time.Duration) *time.Ticker { return time.NewTicker(d) }
