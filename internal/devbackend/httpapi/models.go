package httpapi

import (
	"time"

	"github.com/dmitrijs2005/roomchat/internal/devbackend/rooms"
)

type roomResponse struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type roomNameResponse struct {
	Name string `json:"name"`
}

// historyEntry is a stored message as GET /chatrooms/{id}/messages returns it.
type historyEntry struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

// liveFrame is a message pushed over a room socket.
type liveFrame struct {
	Username  string `json:"username"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// inboundFrame is what clients send over a room socket. The username field
// is ignored in favour of the authenticated one.
type inboundFrame struct {
	Username string `json:"username"`
	Message  string `json:"message"`
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Message string `json:"message"`
	User    string `json:"user"`
	Token   string `json:"token"`
}

type changeUsernameRequest struct {
	NewUsername string `json:"new_username"`
}

type changeUsernameResponse struct {
	Message     string `json:"message"`
	NewUsername string `json:"new_username"`
	Token       string `json:"token"`
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type userResponse struct {
	Username string `json:"username"`
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func toHistoryEntry(m rooms.Message, _ int) historyEntry {
	return historyEntry{ID: m.ID.String(), Username: m.Username, Content: m.Body, Timestamp: formatTimestamp(m.SentAt)}
}

func toLiveFrame(m rooms.Message) liveFrame {
	return liveFrame{Username: m.Username, Message: m.Body, Timestamp: formatTimestamp(m.SentAt)}
}
