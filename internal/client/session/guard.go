package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/dmitrijs2005/roomchat/internal/logging"
)

// Status is the outcome of one Guard evaluation.
type Status int

const (
	Absent Status = iota
	Stale
	Valid
)

func (s Status) String() string {
	switch s {
	case Valid:
		return "valid"
	case Stale:
		return "stale"
	default:
		return "absent"
	}
}

// Trigger names what caused an evaluation. It only shows up in logs; every
// trigger goes through the same evaluate path.
type Trigger string

const (
	TriggerStart    Trigger = "start"
	TriggerTimer    Trigger = "timer"
	TriggerFocus    Trigger = "focus"
	TriggerInterval Trigger = "interval"
	TriggerManual   Trigger = "manual"
)

// Reason tells the re-authentication handler why it was called.
// Malformed and expired credentials are both reported as ReasonStale.
type Reason string

const (
	ReasonAbsent Reason = "absent"
	ReasonStale  Reason = "stale"
	ReasonLogout Reason = "logout"
)

const (
	DefaultInterval  = 30 * time.Second
	DefaultGuardBand = time.Second
	QueryParam       = "token"

	// MaxRecheckDelay caps how far ahead the expiry re-check is armed.
	// A later expiry is re-checked at the cap and rescheduled from there.
	MaxRecheckDelay = 24 * time.Hour
)

// CredentialStore is the persisted credential. Load returns "" when empty.
type CredentialStore interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, raw string) (replaced bool, err error)
	Clear(ctx context.Context) error
}

// GuardOption customises a Guard.
type GuardOption func(*Guard)

func WithClock(c Clock) GuardOption { return func(g *Guard) { g.clock = c } }

func WithInterval(d time.Duration) GuardOption {
	return func(g *Guard) {
		if d > 0 {
			g.interval = d
		}
	}
}

// WithGuardBand sets the delay added past expiry before the scheduled
// re-check. Values under one second are raised to one second.
func WithGuardBand(d time.Duration) GuardOption {
	return func(g *Guard) {
		if d < time.Second {
			d = time.Second
		}
		g.guardBand = d
	}
}

// WithReauthHandler registers fn to be called once each time the guard
// enters the cleared state.
func WithReauthHandler(fn func(Reason)) GuardOption {
	return func(g *Guard) { g.onReauth = fn }
}

// Guard decides whether the persisted credential is usable and reacts to
// staleness exactly once per transition. It is the only holder of the raw
// credential; other components get it attached to a request or handshake
// through AttachHeader and AttachQuery.
//
// Three independent triggers call into the same evaluation: a one-shot
// timer armed for just past expiry, focus regained (Focus), and a fixed
// interval (Run). A new schedule always replaces the previous one, so at
// most one timer is pending.
type Guard struct {
	store     CredentialStore
	clock     Clock
	log       logging.Logger
	interval  time.Duration
	guardBand time.Duration
	onReauth  func(Reason)

	mu      sync.Mutex
	current *Session
	cleared bool
	timer   Timer
	gen     uint64
}

func NewGuard(store CredentialStore, log logging.Logger, opts ...GuardOption) *Guard {
	g := &Guard{
		store:     store,
		clock:     SystemClock(),
		log:       log,
		interval:  DefaultInterval,
		guardBand: DefaultGuardBand,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Evaluate reads the persisted credential and classifies it.
func (g *Guard) Evaluate(ctx context.Context) Status {
	return g.evaluate(ctx, TriggerManual)
}

// Focus is the "application regained focus" trigger.
func (g *Guard) Focus(ctx context.Context) Status {
	return g.evaluate(ctx, TriggerFocus)
}

// Run evaluates once, then on every interval tick until ctx is done. The
// pending expiry timer is cancelled on return.
func (g *Guard) Run(ctx context.Context) {
	g.evaluate(ctx, TriggerStart)

	ticker := g.clock.NewTicker(g.interval)
	defer ticker.Stop()
	defer g.Stop()

	for {
		select {
		case <-ticker.C():
			g.evaluate(ctx, TriggerInterval)
		case <-ctx.Done():
			return
		}
	}
}

// Stop cancels the pending expiry timer, if any.
func (g *Guard) Stop() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cancelTimerLocked()
}

func (g *Guard) evaluate(ctx context.Context, trigger Trigger) Status {
	g.mu.Lock()
	status, reason, signal := g.evaluateLocked(ctx, trigger)
	g.mu.Unlock()

	if signal {
		g.signal(ctx, reason)
	}
	return status
}

func (g *Guard) evaluateLocked(ctx context.Context, trigger Trigger) (Status, Reason, bool) {
	now := g.clock.Now()

	raw, err := g.store.Load(ctx)
	if err != nil {
		g.log.Error(ctx, "credential load failed", "trigger", trigger, "error", err)
		raw = ""
	}

	s, err := Decode(raw, now)
	switch {
	case err == nil:
		g.current = &s
		g.cleared = false
		g.scheduleLocked(ctx, s, now)
		g.log.Debug(ctx, "session valid", "trigger", trigger, "subject", s.Subject, "expires_in", s.TimeLeft(now))
		return Valid, "", false

	case errors.Is(err, ErrNoCredential):
		return Absent, ReasonAbsent, g.clearLocked(ctx, false)

	default:
		g.log.Info(ctx, "session stale", "trigger", trigger, "error", err)
		return Stale, ReasonStale, g.clearLocked(ctx, true)
	}
}

// clearLocked drops the session and reports whether this call is the
// transition into the cleared state (and so must signal).
func (g *Guard) clearLocked(ctx context.Context, persisted bool) bool {
	g.cancelTimerLocked()
	g.current = nil

	if persisted || !g.cleared {
		if err := g.store.Clear(ctx); err != nil {
			g.log.Error(ctx, "credential clear failed", "error", err)
		}
	}

	if g.cleared {
		return false
	}
	g.cleared = true
	return true
}

func (g *Guard) scheduleLocked(ctx context.Context, s Session, now time.Time) {
	g.cancelTimerLocked()

	gen := g.gen
	delay := min(s.TimeLeft(now), MaxRecheckDelay) + g.guardBand
	g.timer = g.clock.AfterFunc(delay, func() {
		g.mu.Lock()
		if gen != g.gen {
			g.mu.Unlock()
			return
		}
		g.timer = nil
		g.mu.Unlock()

		g.evaluate(context.Background(), TriggerTimer)
	})
	g.log.Debug(ctx, "session re-check scheduled", "in", delay)
}

func (g *Guard) cancelTimerLocked() {
	g.gen++
	if g.timer != nil {
		g.timer.Stop()
		g.timer = nil
	}
}

func (g *Guard) signal(ctx context.Context, reason Reason) {
	g.log.Info(ctx, "re-authentication required", "reason", reason)
	if g.onReauth != nil {
		g.onReauth(reason)
	}
}

// Logout clears the credential and signals re-authentication, unless the
// guard is already in the cleared state.
func (g *Guard) Logout(ctx context.Context) error {
	g.mu.Lock()
	g.cancelTimerLocked()
	g.current = nil
	err := g.store.Clear(ctx)
	signal := !g.cleared
	g.cleared = true
	g.mu.Unlock()

	if signal {
		g.signal(ctx, ReasonLogout)
	}
	if err != nil {
		return fmt.Errorf("clear credential: %w", err)
	}
	return nil
}

// UpdateCredential persists a freshly issued credential (login, username
// change) and re-arms the guard for it. A credential that does not decode to
// a valid Session is rejected and nothing is stored.
func (g *Guard) UpdateCredential(ctx context.Context, raw string) (Session, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.clock.Now()
	s, err := Decode(raw, now)
	if err != nil {
		return Session{}, err
	}

	replaced, err := g.store.Save(ctx, raw)
	if err != nil {
		return Session{}, fmt.Errorf("save credential: %w", err)
	}

	g.current = &s
	g.cleared = false
	g.scheduleLocked(ctx, s, now)
	g.log.Info(ctx, "credential updated", "subject", s.Subject, "replaced", replaced)
	return s, nil
}

// Subject returns the current principal, if the session is usable right now.
func (g *Guard) Subject() (string, bool) {
	s, ok := g.usable()
	if !ok {
		return "", false
	}
	return s.Subject, true
}

// AttachHeader sets a bearer Authorization header from the current session.
func (g *Guard) AttachHeader(h http.Header) bool {
	s, ok := g.usable()
	if !ok {
		return false
	}
	h.Set("Authorization", "Bearer "+s.raw)
	return true
}

// AttachQuery adds the credential as the token query parameter used by the
// live channel handshake. It returns the subject it attached.
func (g *Guard) AttachQuery(v url.Values) (string, bool) {
	s, ok := g.usable()
	if !ok {
		return "", false
	}
	v.Set(QueryParam, s.raw)
	return s.Subject, true
}

func (g *Guard) usable() (Session, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.current == nil || g.current.StaleAt(g.clock.Now()) {
		return Session{}, false
	}
	return *g.current, true
}
