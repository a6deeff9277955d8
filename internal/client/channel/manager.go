// Package channel owns the live, room-scoped websocket connection: opening
// it with the session credential, decoding inbound frames into a transcript,
// forwarding outbound messages, and tearing it down on room change or exit.
package channel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dmitrijs2005/roomchat/internal/client/transcript"
	"github.com/dmitrijs2005/roomchat/internal/logging"
)

var (
	ErrNoCredential  = errors.New("no usable credential for channel handshake")
	ErrChannelClosed = errors.New("channel closed")
)

const writeTimeout = 5 * time.Second

// Authorizer attaches the credential to the handshake query and returns the
// subject it belongs to.
type Authorizer interface {
	AttachQuery(v url.Values) (subject string, ok bool)
}

// Sink receives normalised inbound messages in arrival order.
type Sink interface {
	Append(m transcript.Message)
}

// Event is one state transition of a Channel. Err is set on Closed when the
// channel ended for a reason other than a requested close.
type Event struct {
	Room  string
	State State
	Err   error
}

type outboundFrame struct {
	Username string `json:"username"`
	Message  string `json:"message"`
}

type Option func(*Manager)

// WithObserver registers fn for every channel state transition. fn runs
// while the manager's lock is held and must not call back into the Manager.
func WithObserver(fn func(Event)) Option {
	return func(m *Manager) { m.observer = fn }
}

func WithHandshakeTimeout(d time.Duration) Option {
	return func(m *Manager) { m.dialer.HandshakeTimeout = d }
}

// Manager keeps at most one Channel in Connecting or Open at any time.
type Manager struct {
	base     *url.URL
	dialer   *websocket.Dialer
	auth     Authorizer
	log      logging.Logger
	observer func(Event)
	now      func() time.Time

	mu      sync.Mutex
	current *Channel
}

// NewManager builds a Manager dialing under wsBase (e.g. "ws://localhost:8000").
func NewManager(wsBase string, auth Authorizer, log logging.Logger, opts ...Option) (*Manager, error) {
	u, err := url.Parse(strings.TrimRight(wsBase, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse websocket base url: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return nil, fmt.Errorf("websocket base url must be ws or wss, got %q", wsBase)
	}

	dialer := *websocket.DefaultDialer
	m := &Manager{
		base:   u,
		dialer: &dialer,
		auth:   auth,
		log:    log,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Open starts a channel for room, feeding inbound frames into sink. Any
// channel for another room is asked to close before the new one enters
// Connecting. Opening the room that is already Connecting or Open returns
// the existing channel.
//
// On failure the returned Channel is Closed and the error says why; there
// is no automatic retry.
func (m *Manager) Open(ctx context.Context, room string, sink Sink) (*Channel, error) {
	m.mu.Lock()
	if cur := m.current; cur != nil {
		if cur.room == room && cur.state.live() {
			m.mu.Unlock()
			return cur, nil
		}
		m.beginCloseLocked(cur)
	}

	ch := newChannel(room, sink)
	m.current = ch
	m.transitionLocked(ch, Connecting, nil)

	q := url.Values{}
	subject, ok := m.auth.AttachQuery(q)
	if !ok {
		m.finishLocked(ch, ErrNoCredential)
		m.mu.Unlock()
		return ch, ErrNoCredential
	}
	ch.subject = subject
	m.mu.Unlock()

	target := m.base.JoinPath("ws", "chatrooms", room)
	target.RawQuery = q.Encode()

	conn, _, err := m.dialer.DialContext(ctx, target.String(), nil)
	if err != nil {
		err = fmt.Errorf("%w: dial room %s: %v", ErrChannelClosed, room, err)
		m.mu.Lock()
		m.finishLocked(ch, err)
		m.mu.Unlock()
		return ch, err
	}

	m.mu.Lock()
	if ch.state != Connecting {
		// Closed while the handshake was in flight.
		m.mu.Unlock()
		_ = conn.Close()
		return ch, ErrChannelClosed
	}
	ch.conn = conn
	m.transitionLocked(ch, Open, nil)
	m.mu.Unlock()

	go m.readLoop(ch)
	return ch, nil
}

// Send writes body as an outbound frame. It is a silent no-op unless the
// current channel is Open: nothing is queued and no error is returned. The
// result reports whether the frame was written.
func (m *Manager) Send(ctx context.Context, body string) bool {
	m.mu.Lock()
	ch := m.current
	if ch == nil || ch.state != Open {
		m.mu.Unlock()
		m.log.Debug(ctx, "send dropped, channel not open")
		return false
	}
	conn, subject := ch.conn, ch.subject
	m.mu.Unlock()

	ch.writeMu.Lock()
	defer ch.writeMu.Unlock()

	_ = conn.SetWriteDeadline(m.now().Add(writeTimeout))
	if err := conn.WriteJSON(outboundFrame{Username: subject, Message: body}); err != nil {
		m.log.Warn(ctx, "send failed", "room", ch.room, "error", err)
		_ = conn.Close()
		return false
	}
	return true
}

// Close closes the current channel and waits until it reaches Closed. It is
// safe on a closed or never-opened manager.
func (m *Manager) Close() {
	m.mu.Lock()
	ch := m.current
	if ch == nil {
		m.mu.Unlock()
		return
	}
	m.beginCloseLocked(ch)
	m.mu.Unlock()

	<-ch.done
}

// State is the state of the most recent channel, Idle before the first Open.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return Idle
	}
	return m.current.state
}

// beginCloseLocked moves ch to Closing and releases its connection. A
// channel without a connection goes straight on to Closed; otherwise the
// read loop finishes the transition once the socket is down.
func (m *Manager) beginCloseLocked(ch *Channel) {
	if !ch.state.live() {
		return
	}
	ch.requested = true
	m.transitionLocked(ch, Closing, nil)

	if ch.conn == nil {
		m.finishLocked(ch, nil)
		return
	}
	conn := ch.conn
	go func() {
		deadline := m.now().Add(time.Second)
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		_ = conn.Close()
	}()
}

func (m *Manager) finishLocked(ch *Channel, err error) {
	if ch.state == Closed {
		return
	}
	if ch.requested {
		err = nil
	}
	ch.err = err
	m.transitionLocked(ch, Closed, err)
	close(ch.done)
}

func (m *Manager) transitionLocked(ch *Channel, s State, err error) {
	ch.state = s
	m.log.Debug(context.Background(), "channel state", "room", ch.room, "state", s)
	if m.observer != nil {
		m.observer(Event{Room: ch.room, State: s, Err: err})
	}
}

func (m *Manager) readLoop(ch *Channel) {
	ctx := context.Background()
	for {
		_, data, err := ch.conn.ReadMessage()
		if err != nil {
			m.mu.Lock()
			if !ch.requested {
				m.log.Warn(ctx, "channel dropped", "room", ch.room, "error", err)
			}
			_ = ch.conn.Close()
			m.finishLocked(ch, fmt.Errorf("%w: %v", ErrChannelClosed, err))
			m.mu.Unlock()
			return
		}

		var frame transcript.WireMessage
		if err := json.Unmarshal(data, &frame); err != nil {
			m.log.Warn(ctx, "undecodable frame skipped", "room", ch.room, "error", err)
			continue
		}

		m.mu.Lock()
		open := ch.state == Open
		m.mu.Unlock()
		if !open {
			continue
		}
		ch.sink.Append(frame.Normalize(m.now()))
	}
}
