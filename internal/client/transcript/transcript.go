// Package transcript keeps the ordered message log of one room and derives
// the day-grouped view used for rendering.
package transcript

import (
	"sync"
	"time"
)

// Transcript is append-only: Seed replaces the content once, before live
// frames arrive, and Append adds to the tail in arrival order. Messages are
// never reordered or deduplicated.
type Transcript struct {
	mu       sync.RWMutex
	messages []Message
	loc      *time.Location
	observer func(Message)
}

type Option func(*Transcript)

// WithLocation sets the zone whose calendar days GroupByDay uses.
func WithLocation(loc *time.Location) Option {
	return func(t *Transcript) {
		if loc != nil {
			t.loc = loc
		}
	}
}

// WithObserver registers fn to be called after every Append.
func WithObserver(fn func(Message)) Option {
	return func(t *Transcript) { t.observer = fn }
}

func New(opts ...Option) *Transcript {
	t := &Transcript{loc: time.Local}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Transcript) Seed(history []Message) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.messages = append(make([]Message, 0, len(history)), history...)
}

func (t *Transcript) Append(m Message) {
	t.mu.Lock()
	t.messages = append(t.messages, m)
	observer := t.observer
	t.mu.Unlock()

	if observer != nil {
		observer(m)
	}
}

// Messages returns a copy of the current content.
func (t *Transcript) Messages() []Message {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]Message(nil), t.messages...)
}

func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.messages)
}

// GroupByDay derives the day view from the current content.
func (t *Transcript) GroupByDay() []DayGroup {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return GroupByDay(t.messages, t.loc)
}
