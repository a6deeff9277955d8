package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/roomchat/internal/client/api"
	"github.com/dmitrijs2005/roomchat/internal/client/channel"
	"github.com/dmitrijs2005/roomchat/internal/client/config"
	"github.com/dmitrijs2005/roomchat/internal/client/room"
	"github.com/dmitrijs2005/roomchat/internal/client/services"
	"github.com/dmitrijs2005/roomchat/internal/client/session"
	"github.com/dmitrijs2005/roomchat/internal/client/storage"
	"github.com/dmitrijs2005/roomchat/internal/client/transcript"
	"github.com/dmitrijs2005/roomchat/internal/logging"
)

// sessionGuard is the part of session.Guard the CLI drives directly.
type sessionGuard interface {
	Subject() (string, bool)
	Focus(ctx context.Context) session.Status
	Run(ctx context.Context)
	Stop()
}

type roomLister interface {
	ListRooms(ctx context.Context) ([]api.Room, error)
}

type roomSession interface {
	Enter(ctx context.Context, id string) error
	Reconnect(ctx context.Context) error
	Exit()
	Send(ctx context.Context, body string) bool
	Room() (id, name string)
	Transcript() *transcript.Transcript
	ChannelState() channel.State
}

type App struct {
	config      *config.Config
	log         logging.Logger
	authService services.AuthService
	guard       sessionGuard
	rooms       roomLister
	room        roomSession
	db          *sql.DB
	reader      *bufio.Reader

	outMu sync.Mutex
	out   io.Writer

	loc *time.Location
	now func() time.Time
}

// NewApp wires local storage, the session guard, the backend client, the
// channel manager and the room session.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	log := logging.New(c.LogLevel, os.Stderr)

	db, err := storage.OpenDatabase(ctx, c.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("error initializing database: %w", err)
	}

	a := &App{
		config: c,
		log:    log,
		db:     db,
		reader: bufio.NewReader(os.Stdin),
		out:    os.Stdout,
		loc:    time.Local,
		now:    time.Now,
	}

	creds := storage.NewCredentialStore(storage.NewSQLiteRepository(db))
	guard := session.NewGuard(creds, log,
		session.WithInterval(c.SessionCheckInterval),
		session.WithGuardBand(c.GuardBand),
		session.WithReauthHandler(a.onReauth),
	)

	apiClient, err := api.NewClient(c.APIBaseURL, c.RequestTimeout, guard)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	wsURL, err := c.WebsocketURL()
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	channels, err := channel.NewManager(wsURL, guard, log,
		channel.WithHandshakeTimeout(c.HandshakeTimeout),
		channel.WithObserver(a.onChannelEvent),
	)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	a.guard = guard
	a.rooms = apiClient
	a.room = room.NewSession(apiClient, channels, log, room.WithMessageHandler(a.onMessage))
	a.authService = services.NewAuthService(apiClient, guard, log)
	return a, nil
}

// Run starts the session guard and blocks in the REPL until the user exits
// or ctx is done. The room is left and the database closed on return.
func (a *App) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	a.println("Welcome to the room chat CLI (type 'help' for commands)")

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		a.guard.Run(ctx)
	}()

	runREPL(ctx, a, a.getStatus, bufio.NewScanner(a.reader))

	a.room.Exit()
	cancel()
	wg.Wait()

	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.log.Error(ctx, "close database", "error", err)
		}
	}
}

func (a *App) isLoggedIn() bool {
	_, ok := a.guard.Subject()
	return ok
}

// Focus is called before every command: user input counts as the
// application regaining focus.
func (a *App) Focus(ctx context.Context) {
	a.guard.Focus(ctx)
}

func (a *App) getStatus() string {
	s := ""
	if user, ok := a.guard.Subject(); ok {
		s = user
	}
	if id, name := a.room.Room(); id != "" {
		if name == "" {
			name = id
		}
		s += fmt.Sprintf(" @ %s [%s]", name, a.room.ChannelState())
	}
	if s != "" {
		s = fmt.Sprintf("(%s)", s)
	}
	return s
}

// onReauth runs whenever the guard enters the cleared state. The current
// room is left because its channel was opened with the old credential.
func (a *App) onReauth(reason session.Reason) {
	if a.room != nil {
		if id, _ := a.room.Room(); id != "" {
			a.room.Exit()
		}
	}

	switch reason {
	case session.ReasonLogout:
		a.println("Logged out.")
	case session.ReasonStale:
		a.println("Your session has expired. Please log in again.")
	default:
		a.println("Not logged in. Type 'login' or 'signup'.")
	}
}

func (a *App) onMessage(m transcript.Message) {
	self, _ := a.guard.Subject()
	a.println(transcript.Line(m, self, a.now(), a.loc))
}

// onChannelEvent runs under the channel manager's lock and must only print.
func (a *App) onChannelEvent(e channel.Event) {
	if e.State == channel.Closed && e.Err != nil {
		a.println("Connection to the room was lost. Type 'reconnect' to retry.")
	}
}

func (a *App) println(args ...any) {
	a.outMu.Lock()
	defer a.outMu.Unlock()
	fmt.Fprintln(a.out, args...)
}

func (a *App) printf(format string, args ...any) {
	a.outMu.Lock()
	defer a.outMu.Unlock()
	fmt.Fprintf(a.out, format, args...)
}
