package api

import (
	"bytes"
	"encoding/json"
)

// RoomID is a room identifier. The backend sends integers; the client only
// ever uses them as path segments.
type RoomID string

func (id *RoomID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = RoomID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = RoomID(n.String())
	return nil
}

type Room struct {
	ID   RoomID `json:"id"`
	Name string `json:"name"`
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

type changeUsernameRequest struct {
	NewUsername string `json:"new_username"`
}

// UsernameChange is the backend's answer to a username change; Token is the
// re-issued credential for the new name.
type UsernameChange struct {
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
