package cli

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/roomchat/internal/client/api"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Signup prompts for a username and a password (twice) and creates the
// account. It does not log in.
func (a *App) Signup(ctx context.Context) error {
	username, err := getSimpleText(a.reader, "Choose a username", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword("Password", a.out)
	if err != nil {
		return err
	}
	confirm, err := getPassword("Repeat password", a.out)
	if err != nil {
		return err
	}

	if err := a.authService.Signup(ctx, username, password, confirm); err != nil {
		a.report("Signup failed", err)
		return err
	}

	a.println("Account created. You can log in now.")
	return nil
}

// Login prompts for credentials and persists the issued credential.
func (a *App) Login(ctx context.Context) error {
	username, err := getSimpleText(a.reader, "Username", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword("Password", a.out)
	if err != nil {
		return err
	}

	s, err := a.authService.Login(ctx, username, password)
	if err != nil {
		a.report("Login failed", err)
		return err
	}

	a.printf("Logged in as %s (session valid until %s).\n", s.Subject, s.Expiry().In(a.loc).Format("15:04 02.01.2006"))
	return nil
}

// Logout clears the credential. The guard's re-authentication handler
// leaves the current room and prints the notice.
func (a *App) Logout(ctx context.Context) error {
	if err := a.authService.Logout(ctx); err != nil {
		a.report("Logout failed", err)
		return err
	}
	return nil
}

func (a *App) Whoami(ctx context.Context) error {
	user, ok := a.guard.Subject()
	if !ok {
		a.println("Not logged in.")
		return nil
	}
	a.println(user)
	return nil
}

// Rename changes the username. The backend re-issues the credential for the
// new name; the live channel keeps the old one until the room is re-entered.
func (a *App) Rename(ctx context.Context) error {
	if !a.requireLogin() {
		return nil
	}
	newName, err := getSimpleText(a.reader, "New username", a.out)
	if err != nil {
		return err
	}

	s, err := a.authService.ChangeUsername(ctx, newName)
	if err != nil {
		a.report("Username change failed", err)
		return err
	}
	a.printf("Username changed to %s.\n", s.Subject)
	return nil
}

func (a *App) Passwd(ctx context.Context) error {
	if !a.requireLogin() {
		return nil
	}
	oldPassword, err := getPassword("Current password", a.out)
	if err != nil {
		return err
	}
	newPassword, err := getPassword("New password", a.out)
	if err != nil {
		return err
	}

	msg, err := a.authService.ChangePassword(ctx, oldPassword, newPassword)
	if err != nil {
		a.report("Password change failed", err)
		return err
	}
	if msg == "" {
		msg = "Password changed."
	}
	a.println(msg)
	return nil
}

func (a *App) requireLogin() bool {
	if a.isLoggedIn() {
		return true
	}
	a.println("Please log in first.")
	return false
}

// report prints a user-facing failure, preferring the backend's own detail.
func (a *App) report(what string, err error) {
	if errors.Is(err, api.ErrUnavailable) {
		a.printf("%s: server unavailable\n", what)
		return
	}
	a.printf("%s: %s\n", what, api.DetailOf(err))
}
