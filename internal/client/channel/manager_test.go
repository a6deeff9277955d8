package channel

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/roomchat/internal/client/transcript"
	"github.com/dmitrijs2005/roomchat/internal/logging"
)

type staticAuth struct {
	subject, token string
}

func (a staticAuth) AttachQuery(v url.Values) (string, bool) {
	if a.token == "" {
		return "", false
	}
	v.Set("token", a.token)
	return a.subject, true
}

type wsServer struct {
	*httptest.Server

	mu       sync.Mutex
	conns    map[string][]*websocket.Conn
	tokens   []string
	received chan outboundFrame
}

func newWSServer(t *testing.T) *wsServer {
	t.Helper()
	s := &wsServer{conns: map[string][]*websocket.Conn{}, received: make(chan outboundFrame, 16)}
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}

	r := chi.NewRouter()
	r.Get("/ws/chatrooms/{id}", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		room := chi.URLParam(r, "id")
		s.mu.Lock()
		s.conns[room] = append(s.conns[room], conn)
		s.tokens = append(s.tokens, r.URL.Query().Get("token"))
		s.mu.Unlock()

		go func() {
			for {
				var f outboundFrame
				if err := conn.ReadJSON(&f); err != nil {
					return
				}
				s.received <- f
			}
		}()
	})

	s.Server = httptest.NewServer(r)
	t.Cleanup(s.Server.Close)
	return s
}

func (s *wsServer) wsURL() string { return "ws" + strings.TrimPrefix(s.URL, "http") }

func (s *wsServer) last(room string) *websocket.Conn {
	s.mu.Lock()
	defer s.mu.Unlock()
	cs := s.conns[room]
	if len(cs) == 0 {
		return nil
	}
	return cs[len(cs)-1]
}

func (s *wsServer) count(room string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns[room])
}

func (s *wsServer) push(t *testing.T, room string, v any) {
	t.Helper()
	require.Eventually(t, func() bool { return s.last(room) != nil }, time.Second, 5*time.Millisecond)
	require.NoError(t, s.last(room).WriteJSON(v))
}

type eventLog struct {
	mu     sync.Mutex
	events []Event
}

func (l *eventLog) record(e Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

func (l *eventLog) snapshot() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Event(nil), l.events...)
}

func (l *eventLog) index(room string, s State) int {
	for i, e := range l.snapshot() {
		if e.Room == room && e.State == s {
			return i
		}
	}
	return -1
}

func newTestManager(t *testing.T, srv *wsServer, auth Authorizer, events *eventLog) *Manager {
	t.Helper()
	var opts []Option
	if events != nil {
		opts = append(opts, WithObserver(events.record))
	}
	m, err := NewManager(srv.wsURL(), auth, logging.Discard(), opts...)
	require.NoError(t, err)
	t.Cleanup(m.Close)
	return m
}

func TestNewManager_RequiresWebsocketScheme(t *testing.T) {
	_, err := NewManager("http://localhost:8000", staticAuth{}, logging.Discard())
	require.Error(t, err)

	m, err := NewManager("wss://chat.example.com/", staticAuth{}, logging.Discard())
	require.NoError(t, err)
	assert.Equal(t, Idle, m.State())
}

func TestManager_OpenDeliversFramesInOrder(t *testing.T) {
	srv := newWSServer(t)
	m := newTestManager(t, srv, staticAuth{subject: "anna12", token: "tok"}, nil)
	tr := transcript.New(transcript.WithLocation(time.UTC))

	ch, err := m.Open(context.Background(), "1", tr)
	require.NoError(t, err)
	assert.Equal(t, "1", ch.Room())
	assert.Equal(t, Open, m.State())

	srv.push(t, "1", map[string]string{"username": "a", "message": "first", "timestamp": "2024-03-01T10:00:00Z"})
	srv.push(t, "1", map[string]string{"username": "b", "message": "second", "timestamp": "2024-03-01T09:00:00Z"})

	require.Eventually(t, func() bool { return tr.Len() == 2 }, time.Second, 5*time.Millisecond)
	msgs := tr.Messages()
	assert.Equal(t, "first", msgs[0].Body, "arrival order, not timestamp order")
	assert.Equal(t, "second", msgs[1].Body)

	srv.mu.Lock()
	assert.Equal(t, []string{"tok"}, srv.tokens)
	srv.mu.Unlock()
}

func TestManager_SwitchClosesPreviousBeforeConnecting(t *testing.T) {
	srv := newWSServer(t)
	events := &eventLog{}
	m := newTestManager(t, srv, staticAuth{subject: "anna12", token: "tok"}, events)
	ctx := context.Background()

	a, err := m.Open(ctx, "A", transcript.New())
	require.NoError(t, err)
	_, err = m.Open(ctx, "B", transcript.New())
	require.NoError(t, err)

	closingA := events.index("A", Closing)
	connectingB := events.index("B", Connecting)
	require.NotEqual(t, -1, closingA)
	require.NotEqual(t, -1, connectingB)
	assert.Less(t, closingA, connectingB)

	select {
	case <-a.Done():
	case <-time.After(time.Second):
		t.Fatal("previous channel never reached closed")
	}
	assert.NoError(t, a.Err(), "requested close carries no error")
	assert.Equal(t, Open, m.State())
}

func TestManager_ReopenSameRoomKeepsChannel(t *testing.T) {
	srv := newWSServer(t)
	m := newTestManager(t, srv, staticAuth{subject: "anna12", token: "tok"}, nil)
	ctx := context.Background()

	first, err := m.Open(ctx, "1", transcript.New())
	require.NoError(t, err)
	second, err := m.Open(ctx, "1", transcript.New())
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, srv.count("1"))
}

func TestManager_SendOnlyWhenOpen(t *testing.T) {
	srv := newWSServer(t)
	m := newTestManager(t, srv, staticAuth{subject: "anna12", token: "tok"}, nil)
	ctx := context.Background()

	assert.False(t, m.Send(ctx, "before open"))

	_, err := m.Open(ctx, "1", transcript.New())
	require.NoError(t, err)
	require.True(t, m.Send(ctx, "hello"))

	select {
	case f := <-srv.received:
		assert.Equal(t, outboundFrame{Username: "anna12", Message: "hello"}, f)
	case <-time.After(time.Second):
		t.Fatal("frame not received")
	}

	m.Close()
	assert.False(t, m.Send(ctx, "after close"))

	select {
	case f := <-srv.received:
		t.Fatalf("unexpected frame %+v", f)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestManager_CloseIsIdempotent(t *testing.T) {
	srv := newWSServer(t)
	events := &eventLog{}
	m := newTestManager(t, srv, staticAuth{subject: "anna12", token: "tok"}, events)

	m.Close()
	assert.Equal(t, Idle, m.State())

	_, err := m.Open(context.Background(), "1", transcript.New())
	require.NoError(t, err)

	m.Close()
	m.Close()
	assert.Equal(t, Closed, m.State())

	var closed int
	for _, e := range events.snapshot() {
		if e.State == Closed {
			closed++
		}
	}
	assert.Equal(t, 1, closed)
}

func TestManager_DropEndsInClosedWithoutRetry(t *testing.T) {
	srv := newWSServer(t)
	events := &eventLog{}
	m := newTestManager(t, srv, staticAuth{subject: "anna12", token: "tok"}, events)

	ch, err := m.Open(context.Background(), "1", transcript.New())
	require.NoError(t, err)
	require.Eventually(t, func() bool { return srv.last("1") != nil }, time.Second, 5*time.Millisecond)

	require.NoError(t, srv.last("1").Close())

	select {
	case <-ch.Done():
	case <-time.After(time.Second):
		t.Fatal("drop not detected")
	}
	assert.ErrorIs(t, ch.Err(), ErrChannelClosed)
	assert.Equal(t, Closed, m.State())

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, srv.count("1"))

	evs := events.snapshot()
	last := evs[len(evs)-1]
	assert.Equal(t, Closed, last.State)
	assert.Error(t, last.Err)
}

func TestManager_NoCredential(t *testing.T) {
	srv := newWSServer(t)
	m := newTestManager(t, srv, staticAuth{}, nil)

	ch, err := m.Open(context.Background(), "1", transcript.New())
	require.ErrorIs(t, err, ErrNoCredential)
	assert.Equal(t, Closed, m.State())
	assert.ErrorIs(t, ch.Err(), ErrNoCredential)
	assert.Equal(t, 0, srv.count("1"))
}

func TestManager_DialFailure(t *testing.T) {
	m, err := NewManager("ws://127.0.0.1:1", staticAuth{subject: "a", token: "t"}, logging.Discard())
	require.NoError(t, err)

	_, err = m.Open(context.Background(), "1", transcript.New())
	require.ErrorIs(t, err, ErrChannelClosed)
	assert.Equal(t, Closed, m.State())
}

func TestManager_UndecodableFrameSkipped(t *testing.T) {
	srv := newWSServer(t)
	m := newTestManager(t, srv, staticAuth{subject: "anna12", token: "tok"}, nil)
	tr := transcript.New()

	_, err := m.Open(context.Background(), "1", tr)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return srv.last("1") != nil }, time.Second, 5*time.Millisecond)
	require.NoError(t, srv.last("1").WriteMessage(websocket.TextMessage, []byte("not json")))
	srv.push(t, "1", json.RawMessage(`{"username":"a","message":"ok","timestamp":"2024-03-01T10:00:00Z"}`))

	require.Eventually(t, func() bool { return tr.Len() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "ok", tr.Messages()[0].Body)
	assert.Equal(t, Open, m.State())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "connecting", Connecting.String())
	assert.Equal(t, "open", Open.String())
	assert.Equal(t, "closing", Closing.String())
	assert.Equal(t, "closed", Closed.String())
}
