package transcript

import (
	"strings"
	"time"
)

// Message is one chat line as the client renders it.
type Message struct {
	Author string
	Body   string
	SentAt time.Time
}

// WireMessage is the backend's JSON shape, shared by history entries and
// inbound live frames. History uses "content" for the body, live frames use
// "message".
type WireMessage struct {
	Username  string `json:"username"`
	Content   string `json:"content,omitempty"`
	Message   string `json:"message,omitempty"`
	Timestamp string `json:"timestamp"`
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// ParseTimestamp accepts RFC 3339 and the zone-less ISO-8601 forms the
// backend emits; zone-less values are taken as UTC.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Normalize maps the wire shape onto Message. This is the only place the
// content/message naming difference is resolved. An unparsable timestamp is
// replaced by received.
func (w WireMessage) Normalize(received time.Time) Message {
	body := w.Content
	if body == "" {
		body = w.Message
	}
	sentAt, ok := ParseTimestamp(w.Timestamp)
	if !ok {
		sentAt = received
	}
	return Message{
		Author: w.Username,
		Body:   body,
		SentAt: sentAt,
	}
}
