// Package syncqueue is the append-only log of local change events waiting
// to be sent, plus the watermark of the last successful sync.
package syncqueue

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/KumarDhananjaya/Spendly/internal/metrics"
	"github.com/KumarDhananjaya/Spendly/internal/syncproto"

	"github.com/google/uuid"
)

// State is the persisted form of the queue.
type State struct {
	Events    []syncproto.ChangeEvent `json:"events"`
	Watermark int64                   `json:"watermark"`
}

// Persister writes the queue state to durable storage.
type Persister interface {
	Save(State) error
}

// Queue is safe for concurrent use; events may be appended while a sync
// round trip holds a snapshot.
type Queue struct {
	mu        sync.Mutex
	events    []syncproto.ChangeEvent
	watermark int64

	persist Persister
	now     func() time.Time
	log     *slog.Logger
}

type Option func(*Queue)

func WithPersister(p Persister) Option { return func(q *Queue) { q.persist = p } }

func WithClock(now func() time.Time) Option { return func(q *Queue) { q.now = now } }

func WithLogger(l *slog.Logger) Option { return func(q *Queue) { q.log = l } }

// WithState seeds the queue from persisted state.
func WithState(s State) Option {
	return func(q *Queue) {
		q.events = append([]syncproto.ChangeEvent(nil), s.Events...)
		q.watermark = s.Watermark
	}
}

func New(opts ...Option) *Queue {
	q := &Queue{now: time.Now, log: slog.Default()}
	for _, opt := range opts {
		opt(q)
	}
	metrics.QueueDepth.Set(float64(len(q.events)))
	return q
}

// Record builds a change event from a by-value copy of payload and appends
// it. It satisfies ledger.Recorder.
func (q *Queue) Record(entity, action string, payload any) error {
	if !syncproto.ValidEntity(entity) || !syncproto.ValidAction(action) {
		return fmt.Errorf("syncqueue: invalid event %s/%s", entity, action)
	}
	ev, err := syncproto.NewEvent(uuid.NewString(), entity, action, payload, q.now().UnixMilli())
	if err != nil {
		return err
	}
	q.Append(ev)
	return nil
}

func (q *Queue) Append(ev syncproto.ChangeEvent) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.events = append(q.events, ev)
	q.changedLocked()
}

// Pending returns a copy of the queued events in append order.
func (q *Queue) Pending() []syncproto.ChangeEvent {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]syncproto.ChangeEvent(nil), q.events...)
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}

// Remove drops exactly the events whose ids are listed and returns how many
// were removed. Events appended after the ids were captured stay queued.
func (q *Queue) Remove(ids []string) int {
	if len(ids) == 0 {
		return 0
	}
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	kept := q.events[:0]
	removed := 0
	for _, ev := range q.events {
		if _, ok := drop[ev.ID]; ok {
			removed++
			continue
		}
		kept = append(kept, ev)
	}
	q.events = kept
	if removed > 0 {
		q.changedLocked()
	}
	return removed
}

// Watermark is the server time of the last successful sync, 0 if never.
func (q *Queue) Watermark() int64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.watermark
}

// Advance moves the watermark forward. Older values are ignored.
func (q *Queue) Advance(w int64) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if w <= q.watermark {
		return
	}
	q.watermark = w
	q.changedLocked()
}

// Reset clears events and watermark, used when local data is erased.
func (q *Queue) Reset() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.events = nil
	q.watermark = 0
	q.changedLocked()
}

func (q *Queue) changedLocked() {
	metrics.QueueDepth.Set(float64(len(q.events)))
	if q.persist == nil {
		return
	}
	st := State{Events: append([]syncproto.ChangeEvent(nil), q.events...), Watermark: q.watermark}
	if err := q.persist.Save(st); err != nil {
		q.log.Warn("syncqueue: flush failed", "error", err)
	}
}
