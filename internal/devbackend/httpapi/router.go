// Package httpapi serves the development backend: the room directory and
// history, account endpoints and one websocket per room.
package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/dmitrijs2005/roomchat/internal/common"
	"github.com/dmitrijs2005/roomchat/internal/devbackend/rooms"
	"github.com/dmitrijs2005/roomchat/internal/devbackend/users"
	"github.com/dmitrijs2005/roomchat/internal/logging"
)

type API struct {
	users    *users.Service
	hub      *rooms.Hub
	log      logging.Logger
	upgrader websocket.Upgrader
}

func New(us *users.Service, hub *rooms.Hub, log logging.Logger) *API {
	return &API{
		users: us,
		hub:   hub,
		log:   log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Router wires every route behind the standard chi middleware stack.
func (a *API) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/", a.handleRoot)
	r.Get("/users", a.handleUsers)

	r.Route("/chatrooms", func(r chi.Router) {
		r.Get("/", a.handleListRooms)
		r.Get("/{id}", a.handleRoom)
		r.Get("/{id}/messages", a.handleHistory)
	})

	r.Post("/login", a.handleLogin)
	r.Post("/signup", a.handleSignup)

	r.Route("/user", func(r chi.Router) {
		r.Use(a.requireCredential)
		r.Put("/username", a.handleChangeUsername)
		r.Put("/password", a.handleChangePassword)
	})

	r.Get("/ws/chatrooms/{id}", a.handleRoomSocket)

	return r
}

// roomFromPath resolves the {id} URL parameter to a known room.
func (a *API) roomFromPath(r *http.Request) (rooms.Room, error) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		return rooms.Room{}, common.ErrorNotFound
	}
	return a.hub.Store().Get(id)
}

// fail maps service errors onto status codes and response details.
func (a *API) fail(w http.ResponseWriter, r *http.Request, err error) {
	var verr *users.ValidationError
	switch {
	case errors.As(err, &verr):
		respondError(w, http.StatusBadRequest, verr.Msg)
	case errors.Is(err, users.ErrUserNotFound):
		respondError(w, http.StatusUnauthorized, "User not found")
	case errors.Is(err, users.ErrIncorrectPassword):
		respondError(w, http.StatusUnauthorized, "Incorrect password")
	case errors.Is(err, users.ErrUsernameTaken):
		respondError(w, http.StatusBadRequest, "Username already registered")
	case errors.Is(err, users.ErrOldPassword):
		respondError(w, http.StatusBadRequest, "Old password is incorrect")
	case errors.Is(err, common.ErrTokenExpired):
		respondError(w, http.StatusUnauthorized, "Token expired")
	case errors.Is(err, common.ErrInvalidToken):
		respondError(w, http.StatusUnauthorized, "Invalid token")
	case errors.Is(err, common.ErrorNotFound):
		respondError(w, http.StatusNotFound, "Chatroom not found")
	case errors.Is(err, common.ErrorValidation):
		respondError(w, http.StatusBadRequest, "Invalid request")
	default:
		a.log.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		respondError(w, http.StatusInternalServerError, "Internal server error")
	}
}
