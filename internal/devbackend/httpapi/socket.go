package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dmitrijs2005/roomchat/internal/devbackend/rooms"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	maxFrameLength = 8 * 1024
)

// handleRoomSocket upgrades GET /ws/chatrooms/{id}?token=... into a live
// room connection. The credential is checked before the upgrade; the
// Authorization header is accepted as an alternative to the query.
func (a *API) handleRoomSocket(w http.ResponseWriter, r *http.Request) {
	room, err := a.roomFromPath(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}

	token := r.URL.Query().Get("token")
	if token == "" {
		token = bearerToken(r)
	}
	if token == "" {
		respondError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}
	name, err := a.users.Authenticate(r.Context(), token)
	if err != nil {
		a.fail(w, r, err)
		return
	}

	sub, err := a.hub.Subscribe(room.ID, name)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	defer a.hub.Unsubscribe(sub)

	conn, err := a.upgrader.Upgrade(w, r, nil)
	if err != nil {
		a.log.Warn(r.Context(), "websocket upgrade failed", "room", room.ID, "error", err)
		return
	}
	defer conn.Close()

	ctx := context.WithoutCancel(r.Context())
	a.log.Info(ctx, "joined room", "room", room.ID, "username", name)

	go a.writePump(ctx, conn, sub)
	a.readPump(ctx, conn, sub)

	a.log.Info(ctx, "left room", "room", room.ID, "username", name)
}

// readPump publishes every inbound frame until the connection fails.
func (a *API) readPump(ctx context.Context, conn *websocket.Conn, sub *rooms.Subscription) {
	conn.SetReadLimit(maxFrameLength)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				a.log.Warn(ctx, "websocket read failed", "room", sub.Room, "error", err)
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))

		var in inboundFrame
		if err := json.Unmarshal(data, &in); err != nil {
			a.log.Debug(ctx, "skipping undecodable frame", "room", sub.Room, "error", err)
			continue
		}
		if _, err := a.hub.Publish(ctx, sub.Room, sub.Username, in.Message); err != nil {
			a.log.Debug(ctx, "frame rejected", "room", sub.Room, "error", err)
		}
	}
}

// writePump is the connection's only writer. It closes the connection when
// the subscription ends so that readPump returns too.
func (a *API) writePump(ctx context.Context, conn *websocket.Conn, sub *rooms.Subscription) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	for {
		select {
		case m := <-sub.C():
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(toLiveFrame(m)); err != nil {
				a.log.Debug(ctx, "websocket write failed", "room", sub.Room, "error", err)
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case <-sub.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, ""), time.Now().Add(writeWait))
			return
		}
	}
}
