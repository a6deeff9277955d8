// Package rooms keeps the development backend's chat rooms and their
// message history in memory.
package rooms

import (
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/dmitrijs2005/roomchat/internal/common"
)

const DefaultHistoryLimit = 500

type Room struct {
	ID   int
	Name string
}

type Message struct {
	ID       uuid.UUID
	RoomID   int
	Username string
	Body     string
	SentAt   time.Time
}

type Store struct {
	mu      sync.RWMutex
	rooms   []Room
	history map[int][]Message
	limit   int
	now     func() time.Time
}

type Option func(*Store)

// WithHistoryLimit caps the messages kept per room; older ones are dropped.
func WithHistoryLimit(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.limit = n
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore creates one room per name, numbered from 1 in order.
func NewStore(names []string, opts ...Option) *Store {
	s := &Store{
		rooms: lo.Map(names, func(name string, i int) Room {
			return Room{ID: i + 1, Name: name}
		}),
		history: make(map[int][]Message),
		limit:   DefaultHistoryLimit,
		now:     time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Store) List() []Room {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.rooms)
}

func (s *Store) Get(id int) (Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := lo.Find(s.rooms, func(r Room) bool { return r.ID == id })
	if !ok {
		return Room{}, common.ErrorNotFound
	}
	return r, nil
}

// History returns the room's messages, oldest first.
func (s *Store) History(id int) ([]Message, error) {
	if _, err := s.Get(id); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.history[id]), nil
}

// Post stamps and stores a message. Blank bodies are rejected.
func (s *Store) Post(id int, username, body string) (Message, error) {
	if strings.TrimSpace(body) == "" {
		return Message{}, common.ErrorValidation
	}
	if _, err := s.Get(id); err != nil {
		return Message{}, err
	}

	m := Message{
		ID:       uuid.New(),
		RoomID:   id,
		Username: username,
		Body:     body,
		SentAt:   s.now().UTC(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	h := append(s.history[id], m)
	if over := len(h) - s.limit; over > 0 {
		h = slices.Delete(h, 0, over)
	}
	s.history[id] = h
	return m, nil
}
