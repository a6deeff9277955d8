package rooms

import (
	"context"
	"errors"
	"sync"

	"github.com/dmitrijs2005/roomchat/internal/logging"
)

var ErrHubClosed = errors.New("hub closed")

const defaultSubscriberBuffer = 64

// Subscription receives every message posted to one room, including the
// subscriber's own. Done is closed when the subscription ends, either by
// Unsubscribe, by the hub closing, or because the subscriber fell behind.
type Subscription struct {
	Room     int
	Username string

	c    chan Message
	done chan struct{}
	once sync.Once
}

func (s *Subscription) C() <-chan Message { return s.c }

func (s *Subscription) Done() <-chan struct{} { return s.done }

func (s *Subscription) end() {
	s.once.Do(func() { close(s.done) })
}

// Hub fans room messages out to live subscribers. Posting and fan-out
// happen under one lock, so every subscriber sees a room's messages in
// history order.
type Hub struct {
	store  *Store
	log    logging.Logger
	buffer int

	mu     sync.Mutex
	subs   map[int]map[*Subscription]struct{}
	closed bool
}

func NewHub(store *Store, log logging.Logger) *Hub {
	return &Hub{
		store:  store,
		log:    log,
		buffer: defaultSubscriberBuffer,
		subs:   make(map[int]map[*Subscription]struct{}),
	}
}

func (h *Hub) Store() *Store { return h.store }

func (h *Hub) Subscribe(room int, username string) (*Subscription, error) {
	if _, err := h.store.Get(room); err != nil {
		return nil, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, ErrHubClosed
	}

	s := &Subscription{
		Room:     room,
		Username: username,
		c:        make(chan Message, h.buffer),
		done:     make(chan struct{}),
	}
	if h.subs[room] == nil {
		h.subs[room] = make(map[*Subscription]struct{})
	}
	h.subs[room][s] = struct{}{}
	return s, nil
}

// Unsubscribe is idempotent.
func (h *Hub) Unsubscribe(s *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(s)
}

// Publish stores the message and hands it to every subscriber of the room.
// A subscriber whose buffer is full is dropped.
func (h *Hub) Publish(ctx context.Context, room int, username, body string) (Message, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	m, err := h.store.Post(room, username, body)
	if err != nil {
		return Message{}, err
	}

	for s := range h.subs[room] {
		select {
		case s.c <- m:
		default:
			h.log.Warn(ctx, "dropping slow subscriber", "room", room, "username", s.Username)
			h.removeLocked(s)
		}
	}
	return m, nil
}

// Subscribers reports the number of live subscriptions for room.
func (h *Hub) Subscribers(room int) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[room])
}

// Close ends every subscription and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for _, set := range h.subs {
		for s := range set {
			h.removeLocked(s)
		}
	}
}

func (h *Hub) removeLocked(s *Subscription) {
	if set, ok := h.subs[s.Room]; ok {
		delete(set, s)
		if len(set) == 0 {
			delete(h.subs, s.Room)
		}
	}
	s.end()
}
