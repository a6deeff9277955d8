package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/samber/lo"

	"github.com/dmitrijs2005/roomchat/internal/devbackend/rooms"
)

func (a *API) handleRoot(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, messageResponse{Message: "Chat API is running"})
}

func (a *API) handleUsers(w http.ResponseWriter, r *http.Request) {
	names, err := a.users.Usernames(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, lo.Map(names, func(n string, _ int) userResponse {
		return userResponse{Username: n}
	}))
}

func (a *API) handleListRooms(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, lo.Map(a.hub.Store().List(), func(room rooms.Room, _ int) roomResponse {
		return roomResponse{ID: room.ID, Name: room.Name}
	}))
}

func (a *API) handleRoom(w http.ResponseWriter, r *http.Request) {
	room, err := a.roomFromPath(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, roomNameResponse{Name: room.Name})
}

func (a *API) handleHistory(w http.ResponseWriter, r *http.Request) {
	room, err := a.roomFromPath(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	history, err := a.hub.Store().History(room.ID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, lo.Map(history, toHistoryEntry))
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	token, err := a.users.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		a.fail(w, r, err)
		return
	}

	a.log.Info(r.Context(), "login", "username", req.Username)
	respondJSON(w, http.StatusOK, loginResponse{Message: "Login successful", User: req.Username, Token: token})
}

func (a *API) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if _, err := a.users.Register(r.Context(), req.Username, req.Password); err != nil {
		a.fail(w, r, err)
		return
	}

	a.log.Info(r.Context(), "signup", "username", req.Username)
	respondJSON(w, http.StatusCreated, messageResponse{Message: "User created successfully"})
}

func (a *API) handleChangeUsername(w http.ResponseWriter, r *http.Request) {
	var req changeUsernameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	current := usernameFrom(r.Context())
	token, err := a.users.ChangeUsername(r.Context(), current, req.NewUsername)
	if err != nil {
		a.fail(w, r, err)
		return
	}

	a.log.Info(r.Context(), "username changed", "from", current, "to", req.NewUsername)
	respondJSON(w, http.StatusOK, changeUsernameResponse{
		Message:     "Username updated successfully",
		NewUsername: req.NewUsername,
		Token:       token,
	})
}

func (a *API) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := a.users.ChangePassword(r.Context(), usernameFrom(r.Context()), req.OldPassword, req.NewPassword); err != nil {
		a.fail(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, messageResponse{Message: "Password updated successfully"})
}
