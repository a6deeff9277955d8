package cli

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/roomchat/internal/client/room"
	"github.com/dmitrijs2005/roomchat/internal/client/transcript"
)

// Rooms lists the backend's chat rooms.
func (a *App) Rooms(ctx context.Context) error {
	rooms, err := a.rooms.ListRooms(ctx)
	if err != nil {
		a.report("Could not load rooms", err)
		return err
	}
	if len(rooms) == 0 {
		a.println("No rooms.")
		return nil
	}
	for _, r := range rooms {
		a.printf("%4s  %s\n", r.ID, r.Name)
	}
	return nil
}

// Join enters room id and prints its transcript. A channel that cannot be
// opened still leaves the history on screen.
func (a *App) Join(ctx context.Context, id string) error {
	if !a.requireLogin() {
		return nil
	}

	err := a.room.Enter(ctx, id)
	switch {
	case errors.Is(err, room.ErrVisitEnded):
		return nil
	case errors.Is(err, room.ErrInvalidRoomID), errors.Is(err, room.ErrEmptyRoomID):
		a.printf("Invalid room id %q.\n", id)
		return nil
	case err != nil:
		a.printf("Live updates unavailable (%v). Type 'reconnect' to retry.\n", err)
	}

	_, name := a.room.Room()
	a.printf("Joined %s.\n", name)
	return a.Show(ctx)
}

func (a *App) Leave(ctx context.Context) error {
	id, name := a.room.Room()
	if id == "" {
		a.println("Not in a room.")
		return nil
	}
	a.room.Exit()
	a.printf("Left %s.\n", name)
	return nil
}

// Say sends text to the current room. The message shows up in the transcript
// once the server echoes it back.
func (a *App) Say(ctx context.Context, text string) error {
	if id, _ := a.room.Room(); id == "" {
		a.println("Join a room first.")
		return nil
	}
	if !a.room.Send(ctx, text) {
		a.println("Not connected, message not sent. Type 'reconnect' to retry.")
	}
	return nil
}

// Show prints the current transcript grouped by day.
func (a *App) Show(ctx context.Context) error {
	tr := a.room.Transcript()
	if tr == nil {
		a.println("Not in a room.")
		return nil
	}
	if tr.Len() == 0 {
		a.println("No messages yet.")
		return nil
	}

	self, _ := a.guard.Subject()

	a.outMu.Lock()
	defer a.outMu.Unlock()
	return transcript.Render(a.out, tr.GroupByDay(), self, a.now(), a.loc)
}

func (a *App) Reconnect(ctx context.Context) error {
	if !a.requireLogin() {
		return nil
	}

	err := a.room.Reconnect(ctx)
	switch {
	case errors.Is(err, room.ErrNotInRoom):
		a.println("Not in a room.")
		return nil
	case errors.Is(err, room.ErrVisitEnded):
		return nil
	case err != nil:
		a.printf("Reconnect failed: %v\n", err)
		return err
	}
	a.println("Connected.")
	return a.Show(ctx)
}
