// Package services contains application services for the chat client.
// This file defines the authentication service: login, signup, logout and
// account changes, each keeping the session guard's credential current.
package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/roomchat/internal/client/api"
	"github.com/dmitrijs2005/roomchat/internal/client/session"
	"github.com/dmitrijs2005/roomchat/internal/logging"
)

// AuthService defines authentication operations for the CLI.
//
// Contract:
//   - Login: authenticate and persist the issued credential.
//   - Signup: create an account; it does not log in.
//   - Logout: clear the credential and require re-authentication.
//   - ChangeUsername: rename the account and persist the re-issued credential.
//   - ChangePassword: change the password; the credential stays as is.
//
// Input is validated before anything is sent; failures wrap ErrInvalidInput.
type AuthService interface {
	Login(ctx context.Context, username, password string) (session.Session, error)
	Signup(ctx context.Context, username, password, confirm string) error
	Logout(ctx context.Context) error
	ChangeUsername(ctx context.Context, newUsername string) (session.Session, error)
	ChangePassword(ctx context.Context, oldPassword, newPassword string) (string, error)
}

// AuthAPI is the part of the backend client the service needs.
type AuthAPI interface {
	Login(ctx context.Context, username, password string) (string, error)
	Signup(ctx context.Context, username, password string) error
	ChangeUsername(ctx context.Context, newUsername string) (api.UsernameChange, error)
	ChangePassword(ctx context.Context, oldPassword, newPassword string) (string, error)
}

// CredentialKeeper is the session guard's write side.
type CredentialKeeper interface {
	UpdateCredential(ctx context.Context, raw string) (session.Session, error)
	Logout(ctx context.Context) error
}

type authService struct {
	api   AuthAPI
	guard CredentialKeeper
	log   logging.Logger
}

func NewAuthService(api AuthAPI, guard CredentialKeeper, log logging.Logger) AuthService {
	return &authService{api: api, guard: guard, log: log}
}

func (a *authService) Login(ctx context.Context, username, password string) (session.Session, error) {
	if err := check(credentials{Username: username, Password: password}); err != nil {
		return session.Session{}, err
	}

	token, err := a.api.Login(ctx, username, password)
	if err != nil {
		return session.Session{}, fmt.Errorf("login: %w", err)
	}

	s, err := a.guard.UpdateCredential(ctx, token)
	if err != nil {
		return session.Session{}, fmt.Errorf("login: issued credential rejected: %w", err)
	}
	a.log.Info(ctx, "logged in", "subject", s.Subject)
	return s, nil
}

func (a *authService) Signup(ctx context.Context, username, password, confirm string) error {
	req := signup{Username: username, Password: password, Confirm: confirm}
	if err := check(req); err != nil {
		return err
	}
	if err := a.api.Signup(ctx, username, password); err != nil {
		return fmt.Errorf("signup: %w", err)
	}
	a.log.Info(ctx, "account created", "username", username)
	return nil
}

func (a *authService) Logout(ctx context.Context) error {
	return a.guard.Logout(ctx)
}

// ChangeUsername persists the credential re-issued for the new name, since
// the old one still carries the previous subject.
func (a *authService) ChangeUsername(ctx context.Context, newUsername string) (session.Session, error) {
	if err := check(usernameChange{NewUsername: newUsername}); err != nil {
		return session.Session{}, err
	}

	res, err := a.api.ChangeUsername(ctx, newUsername)
	if err != nil {
		return session.Session{}, fmt.Errorf("change username: %w", err)
	}

	s, err := a.guard.UpdateCredential(ctx, res.Token)
	if err != nil {
		return session.Session{}, fmt.Errorf("change username: issued credential rejected: %w", err)
	}
	return s, nil
}

func (a *authService) ChangePassword(ctx context.Context, oldPassword, newPassword string) (string, error) {
	if err := check(passwordChange{OldPassword: oldPassword, NewPassword: newPassword}); err != nil {
		return "", err
	}
	msg, err := a.api.ChangePassword(ctx, oldPassword, newPassword)
	if err != nil {
		return "", fmt.Errorf("change password: %w", err)
	}
	return msg, nil
}
