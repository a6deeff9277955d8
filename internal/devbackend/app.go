// Package devbackend runs an in-memory chat backend for local development
// and manual testing of the client: account endpoints, room directory and
// history, and one websocket per room.
package devbackend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/roomchat/internal/devbackend/config"
	"github.com/dmitrijs2005/roomchat/internal/devbackend/httpapi"
	"github.com/dmitrijs2005/roomchat/internal/devbackend/rooms"
	"github.com/dmitrijs2005/roomchat/internal/devbackend/users"
	"github.com/dmitrijs2005/roomchat/internal/logging"
)

const shutdownTimeout = 5 * time.Second

type App struct {
	config      *config.Config
	logger      logging.Logger
	userService *users.Service
	hub         *rooms.Hub
	server      *http.Server
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logging.ParseLevel(c.LogLevel)})
	logger := logging.NewSlogLogger(slog.New(h))

	us := users.NewService(users.NewInMemoryRepository(), c.SecretKey, c.TokenValidityDuration)
	if c.SeedUsers {
		if err := us.Seed(ctx); err != nil {
			return nil, err
		}
	}

	hub := rooms.NewHub(rooms.NewStore(c.RoomNames()), logger)
	api := httpapi.New(us, hub, logger)

	return &App{
		config:      c,
		logger:      logger,
		userService: us,
		hub:         hub,
		server:      &http.Server{Addr: c.EndpointAddr, Handler: api.Router(), ReadHeaderTimeout: 10 * time.Second},
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// serve runs the listener until ctx is done, then shuts it down and ends
// every live room connection.
func (app *App) serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- app.server.Serve(ln)
	}()

	select {
	case err := <-errCh:
		app.hub.Close()
		return err
	case <-ctx.Done():
	}

	app.logger.Info(ctx, "shutting down")
	app.hub.Close()

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := app.server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.initSignalHandler(cancelFunc)

	ln, err := net.Listen("tcp", app.config.EndpointAddr)
	if err != nil {
		app.logger.Error(ctx, "listen failed", "addr", app.config.EndpointAddr, "error", err)
		return
	}
	app.logger.Info(ctx, "Starting app...", "addr", ln.Addr().String())

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := app.serve(ctx, ln); err != nil {
			app.logger.Error(ctx, err.Error())
			cancelFunc()
		}
	}()

	wg.Wait()
}
