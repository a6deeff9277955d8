// Package room sequences one room visit: room metadata and history are
// fetched, the history seeds a fresh transcript, and only then the live
// channel is attached to it.
package room

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrijs2005/roomchat/internal/client/api"
	"github.com/dmitrijs2005/roomchat/internal/client/channel"
	"github.com/dmitrijs2005/roomchat/internal/client/transcript"
	"github.com/dmitrijs2005/roomchat/internal/logging"
)

// UnknownRoom is shown when room metadata cannot be fetched.
const UnknownRoom = "Unknown Room"

var (
	ErrNotInRoom     = errors.New("not in a room")
	ErrVisitEnded    = errors.New("room visit ended")
	ErrEmptyRoomID   = errors.New("room id is required")
	ErrInvalidRoomID = errors.New("room id must be a single path segment")
)

// checkRoomID rejects ids that would address a different path once joined
// onto the backend URLs.
func checkRoomID(id string) error {
	switch {
	case id == "":
		return ErrEmptyRoomID
	case id == "." || id == "..", strings.ContainsAny(id, "/\\?#%"):
		return ErrInvalidRoomID
	}
	return nil
}

type Backend interface {
	Room(ctx context.Context, id api.RoomID) (api.Room, error)
	History(ctx context.Context, id api.RoomID) ([]transcript.Message, error)
}

type Channels interface {
	Open(ctx context.Context, room string, sink channel.Sink) (*channel.Channel, error)
	Send(ctx context.Context, body string) bool
	Close()
	State() channel.State
}

type Option func(*Session)

func WithLocation(loc *time.Location) Option {
	return func(s *Session) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithMessageHandler registers fn for live messages of the current visit.
// Messages still arriving for a visit that has been left are not passed on.
func WithMessageHandler(fn func(transcript.Message)) Option {
	return func(s *Session) { s.onMessage = fn }
}

// Session is the current room visit. Entering another room discards the
// previous transcript and closes its channel; fetches belonging to a
// superseded visit are cancelled and their results dropped.
type Session struct {
	backend   Backend
	channels  Channels
	log       logging.Logger
	loc       *time.Location
	onMessage func(transcript.Message)

	// openMu orders channel opens so a superseded visit can never open
	// after the visit that replaced it.
	openMu sync.Mutex

	mu     sync.Mutex
	visit  uint64
	cancel context.CancelFunc
	room   string
	name   string
	tr     *transcript.Transcript
}

func NewSession(backend Backend, channels Channels, log logging.Logger, opts ...Option) *Session {
	s := &Session{
		backend:  backend,
		channels: channels,
		log:      log,
		loc:      time.Local,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Enter starts a visit to room id, leaving any current room. Entering the
// room whose channel is still live does nothing.
//
// Metadata and history failures degrade to UnknownRoom and an empty
// history. A channel that fails to open is reported as an error, but the
// visit stays current with its seeded transcript so Reconnect can retry.
func (s *Session) Enter(ctx context.Context, id string) error {
	if err := checkRoomID(id); err != nil {
		return err
	}

	s.mu.Lock()
	if s.room == id && s.tr != nil && s.channelLive() {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	return s.enter(ctx, id)
}

// Reconnect re-enters the current room with fresh history and a new
// channel. It does nothing while the channel is live.
func (s *Session) Reconnect(ctx context.Context) error {
	s.mu.Lock()
	id := s.room
	live := s.channelLive()
	s.mu.Unlock()

	if id == "" {
		return ErrNotInRoom
	}
	if live {
		return nil
	}
	return s.enter(ctx, id)
}

func (s *Session) enter(ctx context.Context, id string) error {
	s.mu.Lock()
	s.visit++
	visit := s.visit
	if s.cancel != nil {
		s.cancel()
	}
	vctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.room = id
	s.name = ""
	tr := transcript.New(
		transcript.WithLocation(s.loc),
		transcript.WithObserver(s.forward(visit)),
	)
	s.tr = tr
	s.mu.Unlock()

	s.log.Debug(ctx, "entering room", "room", id)

	name, history := s.fetch(vctx, id)

	s.mu.Lock()
	if visit != s.visit {
		s.mu.Unlock()
		s.log.Debug(ctx, "discarding results of superseded visit", "room", id)
		return ErrVisitEnded
	}
	s.name = name
	tr.Seed(history)
	s.mu.Unlock()

	s.openMu.Lock()
	defer s.openMu.Unlock()

	if !s.current(visit) {
		return ErrVisitEnded
	}
	if _, err := s.channels.Open(vctx, id, tr); err != nil {
		if !s.current(visit) {
			return ErrVisitEnded
		}
		s.log.Warn(ctx, "live channel unavailable", "room", id, "error", err)
		return err
	}
	return nil
}

func (s *Session) fetch(ctx context.Context, id string) (string, []transcript.Message) {
	var (
		name    = UnknownRoom
		history []transcript.Message
		g       errgroup.Group
	)

	g.Go(func() error {
		r, err := s.backend.Room(ctx, api.RoomID(id))
		switch {
		case err != nil:
			s.log.Warn(ctx, "room metadata unavailable", "room", id, "error", err)
		case r.Name != "":
			name = r.Name
		}
		return nil
	})
	g.Go(func() error {
		msgs, err := s.backend.History(ctx, api.RoomID(id))
		if err != nil {
			s.log.Warn(ctx, "room history unavailable", "room", id, "error", err)
			return nil
		}
		history = msgs
		return nil
	})
	_ = g.Wait()

	return name, history
}

func (s *Session) forward(visit uint64) func(transcript.Message) {
	return func(m transcript.Message) {
		if s.onMessage == nil || !s.current(visit) {
			return
		}
		s.onMessage(m)
	}
}

// Exit leaves the current room: pending fetches are cancelled and the
// channel is closed. It is safe to call when not in a room.
func (s *Session) Exit() {
	s.mu.Lock()
	s.visit++
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.room, s.name, s.tr = "", "", nil
	s.mu.Unlock()

	s.channels.Close()
}

// Send forwards body on the live channel. Without an open channel nothing
// happens and false is returned.
func (s *Session) Send(ctx context.Context, body string) bool {
	return s.channels.Send(ctx, body)
}

// Room returns the current room id and display name; both are empty when not
// in a room. The name is empty until metadata has been resolved.
func (s *Session) Room() (id, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.room, s.name
}

// Transcript is the current visit's transcript, or nil when not in a room.
func (s *Session) Transcript() *transcript.Transcript {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tr
}

func (s *Session) ChannelState() channel.State {
	return s.channels.State()
}

func (s *Session) current(visit uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return visit == s.visit
}

func (s *Session) channelLive() bool {
	st := s.channels.State()
	return st == channel.Connecting || st == channel.Open
}
