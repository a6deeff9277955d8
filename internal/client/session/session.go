// Package session owns the client's authentication state: decoding the
// persisted credential into a Session and keeping a Guard that notices
// expiry without user action.
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrNoCredential        = errors.New("no credential")
	ErrMalformedCredential = errors.New("malformed credential")
	ErrExpired             = errors.New("credential expired")
)

// Session is the decoded form of a credential. A Session value is only ever
// built for a credential whose expiry lies in the future at decode time.
type Session struct {
	Subject   string
	ExpiresAt int64 // epoch seconds

	raw string
}

// Expiry returns ExpiresAt as a time.Time.
func (s Session) Expiry() time.Time {
	return time.Unix(s.ExpiresAt, 0)
}

// StaleAt reports whether the session is no longer usable at now.
func (s Session) StaleAt(now time.Time) bool {
	return !s.Expiry().After(now)
}

// TimeLeft is the remaining lifetime at now, never negative.
func (s Session) TimeLeft(now time.Time) time.Duration {
	d := s.Expiry().Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

var parser = jwt.NewParser()

// Decode turns a raw credential into a Session. The signature is not checked;
// the client never holds the signing key and only needs sub and exp.
func Decode(raw string, now time.Time) (Session, error) {
	if raw == "" {
		return Session{}, ErrNoCredential
	}

	var claims jwt.RegisteredClaims
	if _, _, err := parser.ParseUnverified(raw, &claims); err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrMalformedCredential, err)
	}
	if claims.Subject == "" || claims.ExpiresAt == nil {
		return Session{}, fmt.Errorf("%w: sub and exp are required", ErrMalformedCredential)
	}

	s := Session{Subject: claims.Subject, ExpiresAt: claims.ExpiresAt.Unix(), raw: raw}
	if s.StaleAt(now) {
		return Session{}, ErrExpired
	}
	return s, nil
}
