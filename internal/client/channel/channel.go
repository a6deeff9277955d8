package channel

import (
	"sync"

	"github.com/gorilla/websocket"
)

// State is the lifecycle of one Channel. A channel only moves forward:
// Idle → Connecting → Open → Closing → Closed, possibly skipping steps.
type State int

const (
	Idle State = iota
	Connecting
	Open
	Closing
	Closed
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Open:
		return "open"
	case Closing:
		return "closing"
	case Closed:
		return "closed"
	default:
		return "idle"
	}
}

func (s State) live() bool { return s == Connecting || s == Open }

// Channel is one room-scoped connection. Its fields are guarded by the
// owning Manager's lock.
type Channel struct {
	room    string
	subject string
	sink    Sink

	state     State
	requested bool
	err       error
	conn      *websocket.Conn
	writeMu   sync.Mutex
	done      chan struct{}
}

func newChannel(room string, sink Sink) *Channel {
	return &Channel{room: room, sink: sink, state: Idle, done: make(chan struct{})}
}

func (c *Channel) Room() string { return c.room }

// Done is closed once the channel reaches Closed.
func (c *Channel) Done() <-chan struct{} { return c.done }

// Err is why the channel closed, nil for a requested close. Only meaningful
// after Done is closed.
func (c *Channel) Err() error {
	select {
	case <-c.done:
		return c.err
	default:
		return nil
	}
}
