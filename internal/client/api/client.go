// Package api is the HTTP client for the chat backend: room directory,
// room metadata, message history, login/signup and account changes.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/dmitrijs2005/roomchat/internal/client/transcript"
)

// Authorizer attaches the current credential to an outbound request.
type Authorizer interface {
	AttachHeader(h http.Header) bool
}

type Client struct {
	base *url.URL
	http *http.Client
	auth Authorizer
	now  func() time.Time
}

// NewClient builds a client for baseURL (e.g. "http://localhost:8000").
// auth may be nil when only unauthenticated endpoints are used.
func NewClient(baseURL string, timeout time.Duration, auth Authorizer) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse api base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("api base url must be http or https, got %q", baseURL)
	}
	return &Client{
		base: u,
		http: &http.Client{Timeout: timeout},
		auth: auth,
		now:  time.Now,
	}, nil
}

func (c *Client) endpoint(segments ...string) string {
	return c.base.JoinPath(segments...).String()
}

func (c *Client) do(ctx context.Context, method, target string, in, out any, authenticated bool) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authenticated && (c.auth == nil || !c.auth.AttachHeader(req.Header)) {
		return ErrUnauthorized
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read body: %v", ErrUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newError(resp.StatusCode, data)
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, req.URL.Path, err)
	}
	return nil
}

func (c *Client) ListRooms(ctx context.Context) ([]Room, error) {
	var rooms []Room
	if err := c.do(ctx, http.MethodGet, c.endpoint("chatrooms"), nil, &rooms, false); err != nil {
		return nil, err
	}
	return rooms, nil
}

// Room fetches room metadata. The backend only returns the name, so the ID
// is filled in from the request.
func (c *Client) Room(ctx context.Context, id RoomID) (Room, error) {
	var room Room
	if err := c.do(ctx, http.MethodGet, c.endpoint("chatrooms", string(id)), nil, &room, false); err != nil {
		return Room{}, err
	}
	room.ID = id
	return room, nil
}

// History fetches the room's stored messages, already normalised.
func (c *Client) History(ctx context.Context, id RoomID) ([]transcript.Message, error) {
	var wire []transcript.WireMessage
	if err := c.do(ctx, http.MethodGet, c.endpoint("chatrooms", string(id), "messages"), nil, &wire, false); err != nil {
		return nil, err
	}
	received := c.now()
	return lo.Map(wire, func(w transcript.WireMessage, _ int) transcript.Message {
		return w.Normalize(received)
	}), nil
}

// Login exchanges username and password for a credential.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	var resp loginResponse
	err := c.do(ctx, http.MethodPost, c.endpoint("login"), credentialsRequest{Username: username, Password: password}, &resp, false)
	if err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", fmt.Errorf("login: %w: empty token", ErrRejected)
	}
	return resp.Token, nil
}

func (c *Client) Signup(ctx context.Context, username, password string) error {
	return c.do(ctx, http.MethodPost, c.endpoint("signup"), credentialsRequest{Username: username, Password: password}, nil, false)
}

func (c *Client) ChangeUsername(ctx context.Context, newUsername string) (UsernameChange, error) {
	var resp UsernameChange
	err := c.do(ctx, http.MethodPut, c.endpoint("user", "username"), changeUsernameRequest{NewUsername: newUsername}, &resp, true)
	if err != nil {
		return UsernameChange{}, err
	}
	return resp, nil
}

func (c *Client) ChangePassword(ctx context.Context, oldPassword, newPassword string) (string, error) {
	var resp messageResponse
	err := c.do(ctx, http.MethodPut, c.endpoint("user", "password"),
		changePasswordRequest{OldPassword: oldPassword, NewPassword: newPassword}, &resp, true)
	if err != nil {
		return "", err
	}
	return resp.Message, nil
}
