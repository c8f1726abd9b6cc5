package analytics

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/GriffinCanCode/screentutor/internal/course"
	"github.com/GriffinCanCode/screentutor/internal/trace"
)

// Writer persists a batch of events.
type Writer interface {
	SaveLearningAnalytics(ctx context.Context, events ...course.AnalyticsEvent) ([]course.AnalyticsEvent, error)
}

// Batcher accumulates analytics events and flushes them in batches.
type Batcher struct {
	writer     Writer
	userID     string
	maxSize    int
	flushDelay time.Duration

	mu      sync.Mutex
	items   []course.AnalyticsEvent
	timer   *time.Timer
	stopped bool
	wg      sync.WaitGroup
}

// NewBatcher creates a batcher that attributes every event to userID.
func NewBatcher(writer Writer, userID string, maxSize int, flushDelay time.Duration) *Batcher {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	if flushDelay <= 0 {
		flushDelay = DefaultFlushDelay
	}
	return &Batcher{
		writer:     writer,
		userID:     userID,
		maxSize:    maxSize,
		flushDelay: flushDelay,
		items:      make([]course.AnalyticsEvent, 0, maxSize),
	}
}

// Record queues an event. payload is marshalled to JSON; nil means no payload.
// A nil *Batcher records nothing.
func (b *Batcher) Record(eventType string, payload any) {
	if b == nil {
		return
	}
	var raw json.RawMessage
	if payload != nil {
		if data, err := json.Marshal(payload); err == nil {
			raw = data
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.stopped {
		return
	}

	b.items = append(b.items, course.AnalyticsEvent{
		UserID:    b.userID,
		EventType: eventType,
		Payload:   raw,
		CreatedAt: time.Now(),
	})

	if len(b.items) >= b.maxSize {
		b.flushLocked()
		return
	}

	// Start or reset timer for delayed flush
	if b.timer == nil {
		b.timer = time.AfterFunc(b.flushDelay, b.timerFlush)
	} else {
		b.timer.Reset(b.flushDelay)
	}
}

func (b *Batcher) timerFlush() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.flushLocked()
}

func (b *Batcher) flushLocked() {
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	if len(b.items) == 0 {
		return
	}
	items := b.items
	b.items = make([]course.AnalyticsEvent, 0, b.maxSize)

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), FlushTimeout)
		defer cancel()
		ctx, span := trace.StartSpan(ctx, "analytics_batch_flush")
		defer span.End()
		span.SetAttr("count", len(items))

		log := trace.Logger(ctx)
		stored, err := b.writer.SaveLearningAnalytics(ctx, items...)
		if err != nil {
			span.SetAttr("error", err.Error())
			log.Warn("analytics batch store failed", "error", err, "count", len(items))
			return
		}
		log.Debug("analytics batch stored", "stored", len(stored), "submitted", len(items))
	}()
}

// Flush forces immediate flush of pending items.
func (b *Batcher) Flush() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.flushLocked()
}

// Stop flushes remaining items, waits for in-flight writes and rejects new events.
func (b *Batcher) Stop() {
	if b == nil {
		return
	}
	b.mu.Lock()
	b.stopped = true
	b.flushLocked()
	b.mu.Unlock()
	b.wg.Wait()
}
